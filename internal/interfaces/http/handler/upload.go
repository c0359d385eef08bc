package handler

import (
	"errors"
	"mime/multipart"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/unimerch/backend/internal/application/media"
)

const errCodeNoFile = "NO_FILE"

// UploadHandler serves image uploads and downloads
type UploadHandler struct {
	BaseHandler
	uploadService *media.UploadService
}

// NewUploadHandler creates a new upload handler
func NewUploadHandler(uploadService *media.UploadService) *UploadHandler {
	return &UploadHandler{uploadService: uploadService}
}

// openFiles opens the given multipart parts. The returned closer must be
// called once the files are consumed.
func openFiles(headers []*multipart.FileHeader) ([]media.File, func(), error) {
	files := make([]media.File, 0, len(headers))
	opened := make([]multipart.File, 0, len(headers))
	closeAll := func() {
		for _, f := range opened {
			_ = f.Close()
		}
	}
	for _, fh := range headers {
		f, err := fh.Open()
		if err != nil {
			closeAll()
			return nil, func() {}, err
		}
		opened = append(opened, f)
		files = append(files, media.File{Name: fh.Filename, Size: fh.Size, Body: f})
	}
	return files, closeAll, nil
}

// formFiles reads every file sent under field, answering 400 when there is none
func (h *UploadHandler) formFiles(c *gin.Context, field string) ([]media.File, func(), bool) {
	form, err := c.MultipartForm()
	if err != nil || len(form.File[field]) == 0 {
		h.Error(c, http.StatusBadRequest, errCodeNoFile, "No file uploaded in field "+field)
		return nil, nil, false
	}
	files, closeAll, err := openFiles(form.File[field])
	if err != nil {
		h.HandleError(c, err)
		return nil, nil, false
	}
	return files, closeAll, true
}

// formFile reads exactly one file sent under field
func (h *UploadHandler) formFile(c *gin.Context, field string) (media.File, func(), bool) {
	fh, err := c.FormFile(field)
	if err != nil {
		h.Error(c, http.StatusBadRequest, errCodeNoFile, "No file uploaded in field "+field)
		return media.File{}, nil, false
	}
	files, closeAll, err := openFiles([]*multipart.FileHeader{fh})
	if err != nil {
		h.HandleError(c, err)
		return media.File{}, nil, false
	}
	return files[0], closeAll, true
}

// formUUID reads an optional UUID form value
func (h *UploadHandler) formUUID(c *gin.Context, name string) (*uuid.UUID, bool) {
	raw := c.PostForm(name)
	if raw == "" {
		return nil, true
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		h.BadRequest(c, "Invalid "+name)
		return nil, false
	}
	return &id, true
}

// Image godoc
// @Summary      Upload an image
// @Tags         upload
// @Accept       multipart/form-data
// @Produce      json
// @Param        image formData file true "Image, at most 5MB"
// @Success      201 {object} dto.Response{data=media.UploadedFile}
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /upload/image [post]
func (h *UploadHandler) Image(c *gin.Context) {
	actor, ok := h.actor(c)
	if !ok {
		return
	}
	file, done, ok := h.formFile(c, "image")
	if !ok {
		return
	}
	defer done()

	uploaded, err := h.uploadService.Image(c.Request.Context(), tenantID(c), actor.UserID, file)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, "File uploaded successfully", uploaded)
}

// Images godoc
// @Summary      Upload several images
// @Tags         upload
// @Accept       multipart/form-data
// @Produce      json
// @Param        images formData file true "Up to 5 images"
// @Success      201 {object} dto.Response{data=[]media.UploadedFile}
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /upload/images [post]
func (h *UploadHandler) Images(c *gin.Context) {
	actor, ok := h.actor(c)
	if !ok {
		return
	}
	files, done, ok := h.formFiles(c, "images")
	if !ok {
		return
	}
	defer done()

	uploaded, err := h.uploadService.Images(c.Request.Context(), tenantID(c), actor.UserID, files)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, "Files uploaded successfully", uploaded)
}

// ProductImages godoc
// @Summary      Upload product images
// @Description  With product_id the URLs are appended to the product's images
// @Tags         upload
// @Accept       multipart/form-data
// @Produce      json
// @Param        productImages formData file   true  "Up to 10 images"
// @Param        product_id    formData string false "Product ID"
// @Success      201 {object} dto.Response{data=[]media.UploadedFile}
// @Failure      403 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /upload/product-images [post]
func (h *UploadHandler) ProductImages(c *gin.Context) {
	actor, ok := h.actor(c)
	if !ok {
		return
	}
	files, done, ok := h.formFiles(c, "productImages")
	if !ok {
		return
	}
	defer done()
	productID, ok := h.formUUID(c, "product_id")
	if !ok {
		return
	}

	uploaded, err := h.uploadService.ProductImages(c.Request.Context(), tenantID(c), actor, productID, files)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, "Product images uploaded successfully", uploaded)
}

// CategoryImage godoc
// @Summary      Upload a category image
// @Description  With category_id the image becomes the category's image
// @Tags         upload
// @Accept       multipart/form-data
// @Produce      json
// @Param        categoryImage formData file   true  "Image"
// @Param        category_id   formData string false "Category ID"
// @Success      201 {object} dto.Response{data=media.UploadedFile}
// @Security     BearerAuth
// @Router       /upload/category-image [post]
func (h *UploadHandler) CategoryImage(c *gin.Context) {
	actor, ok := h.actor(c)
	if !ok {
		return
	}
	file, done, ok := h.formFile(c, "categoryImage")
	if !ok {
		return
	}
	defer done()
	categoryID, ok := h.formUUID(c, "category_id")
	if !ok {
		return
	}

	uploaded, err := h.uploadService.CategoryImage(c.Request.Context(), tenantID(c), actor, categoryID, file)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, "Category image uploaded successfully", uploaded)
}

// Avatar godoc
// @Summary      Upload own avatar
// @Tags         upload
// @Accept       multipart/form-data
// @Produce      json
// @Param        avatar formData file true "Image"
// @Success      201 {object} dto.Response{data=media.UploadedFile}
// @Security     BearerAuth
// @Router       /upload/avatar [post]
func (h *UploadHandler) Avatar(c *gin.Context) {
	actor, ok := h.actor(c)
	if !ok {
		return
	}
	file, done, ok := h.formFile(c, "avatar")
	if !ok {
		return
	}
	defer done()

	uploaded, err := h.uploadService.Avatar(c.Request.Context(), tenantID(c), actor.UserID, file)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, "Avatar uploaded successfully", uploaded)
}

// Delete godoc
// @Summary      Delete an uploaded file
// @Tags         upload
// @Produce      json
// @Param        filename path string true "Stored file name"
// @Success      200 {object} dto.Response
// @Failure      403 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      404 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /upload/{filename} [delete]
func (h *UploadHandler) Delete(c *gin.Context) {
	actor, ok := h.actor(c)
	if !ok {
		return
	}
	if err := h.uploadService.Delete(c.Request.Context(), tenantID(c), actor, c.Param("filename")); err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, "File deleted successfully", nil)
}

// Serve godoc
// @Summary      Download an image
// @Description  Local storage streams the file. S3 answers with a redirect to a presigned URL.
// @Tags         upload
// @Produce      image/png,image/jpeg,image/gif,image/webp
// @Param        filename path string true "Stored file name"
// @Success      200 {file} binary
// @Success      302
// @Failure      404 {object} dto.Response{error=dto.ErrorInfo}
// @Router       /upload/images/{filename} [get]
func (h *UploadHandler) Serve(c *gin.Context) {
	download, err := h.uploadService.Open(c.Request.Context(), tenantID(c), c.Param("filename"))
	if err != nil {
		h.HandleError(c, err)
		return
	}
	if download.RedirectURL != "" {
		c.Redirect(http.StatusFound, download.RedirectURL)
		return
	}
	if download.Body == nil {
		h.HandleError(c, errors.New("empty download"))
		return
	}
	defer download.Body.Close()

	c.DataFromReader(http.StatusOK, download.Size, download.ContentType, download.Body, map[string]string{
		"Cache-Control": "public, max-age=86400",
	})
}
