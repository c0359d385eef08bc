// Package media handles image uploads and their bookkeeping.
package media

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"math/rand/v2"
	"path"
	"strings"
	"time"

	"github.com/gabriel-vasile/mimetype"
	"github.com/google/uuid"
	appcatalog "github.com/unimerch/backend/internal/application/catalog"
	"github.com/unimerch/backend/internal/domain/identity"
	"github.com/unimerch/backend/internal/domain/media"
	"github.com/unimerch/backend/internal/domain/shared"
	"go.uber.org/zap"
)

const (
	MaxGeneralImages = 5
	MaxProductImages = 10

	// sniffLen is how much of a file is read to detect its type
	sniffLen = 3072
)

// allowedImageTypes maps accepted MIME types to the extension they are stored with
var allowedImageTypes = map[string]string{
	"image/jpeg": ".jpg",
	"image/png":  ".png",
	"image/gif":  ".gif",
	"image/webp": ".webp",
}

var (
	errNoFile        = shared.NewDomainError("NO_FILE", "No file uploaded")
	errFileTooLarge  = shared.NewDomainError("FILE_TOO_LARGE", "File size exceeds 5MB limit")
	errInvalidType   = shared.NewDomainError("INVALID_FILE_TYPE", "Only image files (jpeg, png, gif, webp) are allowed")
	errNotFileOwner  = shared.Forbidden("You can only delete your own files")
	errNotSellerRole = shared.Forbidden("Only sellers and admins can upload catalog images")
)

// File is one uploaded part
type File struct {
	Name string
	Size int64
	Body io.Reader
}

// UploadedFile describes a stored image
type UploadedFile struct {
	Filename     string `json:"filename"`
	OriginalName string `json:"original_name"`
	URL          string `json:"url"`
	Key          string `json:"key"`
	ContentType  string `json:"content_type"`
	Size         int64  `json:"size"`
}

// Download is either a stream or a redirect target
type Download struct {
	Body        io.ReadCloser
	ContentType string
	Size        int64
	RedirectURL string
}

// Config tunes the upload service
type Config struct {
	PublicBaseURL     string
	MaxFileSize       int64
	PresignExpiration time.Duration
}

// ProductImages links uploaded images to products
type ProductImages interface {
	CheckOwnership(ctx context.Context, tenantID uuid.UUID, actor identity.Actor, id uuid.UUID) error
	AddImages(ctx context.Context, tenantID uuid.UUID, actor identity.Actor, id uuid.UUID, urls []string) (*appcatalog.ProductDTO, error)
}

// CategoryImages links uploaded images to categories
type CategoryImages interface {
	GetByID(ctx context.Context, tenantID, id uuid.UUID) (*appcatalog.CategoryDTO, error)
	SetImage(ctx context.Context, tenantID, id uuid.UUID, url string) error
}

// UploadService stores images and links them to products, categories and users
type UploadService struct {
	storage    media.ObjectStorage
	assets     media.AssetRepository
	products   ProductImages
	categories CategoryImages
	users      identity.UserRepository
	cfg        Config
	logger     *zap.Logger
	now        func() time.Time
}

// NewUploadService creates a new UploadService
func NewUploadService(
	storage media.ObjectStorage,
	assets media.AssetRepository,
	products ProductImages,
	categories CategoryImages,
	users identity.UserRepository,
	cfg Config,
	logger *zap.Logger,
) *UploadService {
	if cfg.MaxFileSize <= 0 || cfg.MaxFileSize > media.MaxFileSize {
		cfg.MaxFileSize = media.MaxFileSize
	}
	if cfg.PresignExpiration <= 0 {
		cfg.PresignExpiration = 15 * time.Minute
	}
	cfg.PublicBaseURL = strings.TrimRight(cfg.PublicBaseURL, "/")
	return &UploadService{
		storage:    storage,
		assets:     assets,
		products:   products,
		categories: categories,
		users:      users,
		cfg:        cfg,
		logger:     logger,
		now:        time.Now,
	}
}

// Image stores a single general-purpose image
func (s *UploadService) Image(ctx context.Context, tenantID, ownerID uuid.UUID, file File) (*UploadedFile, error) {
	return s.store(ctx, tenantID, ownerID, media.FolderGeneral, "image", file)
}

// Images stores up to five general-purpose images
func (s *UploadService) Images(ctx context.Context, tenantID, ownerID uuid.UUID, files []File) ([]UploadedFile, error) {
	return s.storeAll(ctx, tenantID, ownerID, media.FolderGeneral, "images", files, MaxGeneralImages)
}

// ProductImages stores up to ten images and appends them to the product when
// productID is set. The actor must own the product or be an admin.
func (s *UploadService) ProductImages(ctx context.Context, tenantID uuid.UUID, actor identity.Actor, productID *uuid.UUID, files []File) ([]UploadedFile, error) {
	if !actor.IsAdmin() && !actor.IsSeller() {
		return nil, errNotSellerRole
	}
	if productID != nil {
		if err := s.products.CheckOwnership(ctx, tenantID, actor, *productID); err != nil {
			return nil, err
		}
	}

	uploaded, err := s.storeAll(ctx, tenantID, actor.UserID, media.FolderProducts, "productImages", files, MaxProductImages)
	if err != nil || productID == nil {
		return uploaded, err
	}

	urls := make([]string, len(uploaded))
	for i, u := range uploaded {
		urls[i] = u.URL
	}
	if _, err := s.products.AddImages(ctx, tenantID, actor, *productID, urls); err != nil {
		s.rollback(ctx, tenantID, uploaded)
		return nil, err
	}
	return uploaded, nil
}

// CategoryImage stores a category image and sets it when categoryID is given
func (s *UploadService) CategoryImage(ctx context.Context, tenantID uuid.UUID, actor identity.Actor, categoryID *uuid.UUID, file File) (*UploadedFile, error) {
	if !actor.IsAdmin() && !actor.IsSeller() {
		return nil, errNotSellerRole
	}
	if categoryID != nil {
		if _, err := s.categories.GetByID(ctx, tenantID, *categoryID); err != nil {
			return nil, err
		}
	}

	uploaded, err := s.store(ctx, tenantID, actor.UserID, media.FolderCategories, "categoryImage", file)
	if err != nil || categoryID == nil {
		return uploaded, err
	}
	if err := s.categories.SetImage(ctx, tenantID, *categoryID, uploaded.URL); err != nil {
		s.rollback(ctx, tenantID, []UploadedFile{*uploaded})
		return nil, err
	}
	return uploaded, nil
}

// Avatar stores an avatar and sets it on the caller's profile
func (s *UploadService) Avatar(ctx context.Context, tenantID, userID uuid.UUID, file File) (*UploadedFile, error) {
	user, err := s.users.FindByID(ctx, tenantID, userID)
	if err != nil {
		return nil, err
	}
	uploaded, err := s.store(ctx, tenantID, userID, media.FolderAvatars, "avatar", file)
	if err != nil {
		return nil, err
	}
	user.SetAvatar(uploaded.URL)
	if err := s.users.Update(ctx, user); err != nil {
		return nil, err
	}
	return uploaded, nil
}

// Delete removes a file on behalf of its uploader or an admin
func (s *UploadService) Delete(ctx context.Context, tenantID uuid.UUID, actor identity.Actor, filename string) error {
	asset, err := s.assets.FindByFilename(ctx, tenantID, filename)
	if err != nil {
		return err
	}
	if !actor.CanManage(asset.OwnerID) {
		return errNotFileOwner
	}
	if err := s.storage.Delete(ctx, asset.Key); err != nil {
		return err
	}
	if err := s.assets.Delete(ctx, tenantID, asset.ID); err != nil {
		return err
	}
	s.logger.Info("File deleted", zap.String("key", asset.Key), zap.String("by", actor.UserID.String()))
	return nil
}

// Open serves a stored image. Stores that only hand out signed URLs yield a
// redirect target instead of a body.
func (s *UploadService) Open(ctx context.Context, tenantID uuid.UUID, filename string) (*Download, error) {
	asset, err := s.assets.FindByFilename(ctx, tenantID, filename)
	if err != nil {
		return nil, err
	}
	body, err := s.storage.Open(ctx, asset.Key)
	if errors.Is(err, media.ErrRedirectOnly) {
		url, err := s.storage.URL(ctx, asset.Key, s.cfg.PresignExpiration)
		if err != nil {
			return nil, err
		}
		return &Download{RedirectURL: url, ContentType: asset.ContentType}, nil
	}
	if err != nil {
		return nil, err
	}
	return &Download{Body: body, ContentType: asset.ContentType, Size: asset.Size}, nil
}

func (s *UploadService) storeAll(ctx context.Context, tenantID, ownerID uuid.UUID, folder media.Folder, field string, files []File, max int) ([]UploadedFile, error) {
	if len(files) == 0 {
		return nil, errNoFile
	}
	if len(files) > max {
		return nil, shared.NewDomainError("TOO_MANY_FILES", fmt.Sprintf("At most %d files can be uploaded at once", max))
	}
	// validate everything before storing anything
	for i, f := range files {
		head, _, err := s.sniff(f)
		if err != nil {
			return nil, err
		}
		files[i].Body = io.MultiReader(bytes.NewReader(head), f.Body)
	}

	out := make([]UploadedFile, 0, len(files))
	for _, f := range files {
		u, err := s.store(ctx, tenantID, ownerID, folder, field, f)
		if err != nil {
			s.rollback(ctx, tenantID, out)
			return nil, err
		}
		out = append(out, *u)
	}
	return out, nil
}

func (s *UploadService) store(ctx context.Context, tenantID, ownerID uuid.UUID, folder media.Folder, field string, file File) (*UploadedFile, error) {
	head, contentType, err := s.sniff(file)
	if err != nil {
		return nil, err
	}

	filename := fmt.Sprintf("%s-%d-%d%s", field, s.now().Unix(), rand.IntN(1e9), allowedImageTypes[contentType])
	key := path.Join(string(folder), filename)
	body := io.MultiReader(bytes.NewReader(head), file.Body)
	if err := s.storage.Upload(ctx, key, body, file.Size, contentType); err != nil {
		s.logger.Error("Failed to store file", zap.String("key", key), zap.Error(err))
		return nil, shared.NewDomainError("UPLOAD_FAILED", "Failed to store file")
	}

	asset := &media.Asset{
		BaseEntity:  shared.NewBaseEntity(),
		TenantID:    tenantID,
		OwnerID:     ownerID,
		Folder:      folder,
		Filename:    filename,
		Key:         key,
		ContentType: contentType,
		Size:        file.Size,
	}
	if err := s.assets.Create(ctx, asset); err != nil {
		_ = s.storage.Delete(ctx, key)
		return nil, err
	}

	s.logger.Info("File uploaded",
		zap.String("key", key),
		zap.String("content_type", contentType),
		zap.Int64("size", file.Size),
	)
	return &UploadedFile{
		Filename:     filename,
		OriginalName: file.Name,
		URL:          s.cfg.PublicBaseURL + "/api/upload/images/" + filename,
		Key:          key,
		ContentType:  contentType,
		Size:         file.Size,
	}, nil
}

// sniff checks size and content type. It consumes the head of file.Body and
// returns it so callers can stitch the stream back together.
func (s *UploadService) sniff(file File) ([]byte, string, error) {
	if file.Body == nil {
		return nil, "", errNoFile
	}
	if file.Size > s.cfg.MaxFileSize {
		return nil, "", errFileTooLarge
	}
	head := make([]byte, sniffLen)
	n, err := io.ReadFull(file.Body, head)
	if err != nil && !errors.Is(err, io.ErrUnexpectedEOF) && !errors.Is(err, io.EOF) {
		return nil, "", fmt.Errorf("read upload: %w", err)
	}
	head = head[:n]
	if n == 0 {
		return nil, "", errNoFile
	}

	mtype := mimetype.Detect(head)
	for m := mtype; m != nil; m = m.Parent() {
		if _, ok := allowedImageTypes[m.String()]; ok {
			return head, m.String(), nil
		}
	}
	return nil, "", errInvalidType
}

func (s *UploadService) rollback(ctx context.Context, tenantID uuid.UUID, stored []UploadedFile) {
	for _, u := range stored {
		if err := s.storage.Delete(ctx, u.Key); err != nil {
			s.logger.Warn("Failed to remove partial upload", zap.String("key", u.Key), zap.Error(err))
		}
		if asset, err := s.assets.FindByFilename(ctx, tenantID, u.Filename); err == nil {
			_ = s.assets.Delete(ctx, tenantID, asset.ID)
		}
	}
}
