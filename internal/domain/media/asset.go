package media

import (
	"context"
	"io"
	"time"

	"github.com/google/uuid"
	"github.com/unimerch/backend/internal/domain/shared"
)

// Folder groups uploaded objects by purpose
type Folder string

const (
	FolderGeneral    Folder = "general"
	FolderProducts   Folder = "products"
	FolderCategories Folder = "categories"
	FolderAvatars    Folder = "avatars"
)

// MaxFileSize is the largest accepted upload
const MaxFileSize int64 = 5 << 20

// Asset is an uploaded file tracked by the catalog
type Asset struct {
	shared.BaseEntity
	TenantID    uuid.UUID
	OwnerID     uuid.UUID
	Folder      Folder
	Filename    string
	Key         string
	ContentType string
	Size        int64
}

// IsOwnedBy reports whether userID uploaded the asset
func (a *Asset) IsOwnedBy(userID uuid.UUID) bool {
	return a.OwnerID == userID
}

// AssetRepository defines the interface for asset persistence
type AssetRepository interface {
	Create(ctx context.Context, asset *Asset) error
	FindByFilename(ctx context.Context, tenantID uuid.UUID, filename string) (*Asset, error)
	Delete(ctx context.Context, tenantID, id uuid.UUID) error
}

// ObjectStorage stores binary objects
type ObjectStorage interface {
	Upload(ctx context.Context, key string, body io.Reader, size int64, contentType string) error
	Delete(ctx context.Context, key string) error
	// Open streams an object. Stores that serve objects through signed URLs
	// may return ErrRedirectOnly.
	Open(ctx context.Context, key string) (io.ReadCloser, error)
	// URL returns a URL a browser can fetch the object from
	URL(ctx context.Context, key string, expires time.Duration) (string, error)
}

// ErrRedirectOnly is returned by stores that only hand out URLs
var ErrRedirectOnly = shared.NewDomainError("REDIRECT_ONLY", "Object must be fetched from its URL")
