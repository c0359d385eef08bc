package persistence

import (
	"context"

	"github.com/google/uuid"
	"github.com/unimerch/backend/internal/domain/media"
	"github.com/unimerch/backend/internal/domain/shared"
	"github.com/unimerch/backend/internal/infrastructure/persistence/models"
	"gorm.io/gorm"
)

// GormAssetRepository implements AssetRepository using GORM
type GormAssetRepository struct {
	db *gorm.DB
}

// NewGormAssetRepository creates a new GormAssetRepository
func NewGormAssetRepository(db *gorm.DB) *GormAssetRepository {
	return &GormAssetRepository{db: db}
}

// Create records an uploaded file
func (r *GormAssetRepository) Create(ctx context.Context, asset *media.Asset) error {
	model := models.UploadedFileModelFromDomain(asset)
	return translateError(r.db.WithContext(ctx).Create(model).Error)
}

// FindByFilename finds an uploaded file by its generated name
func (r *GormAssetRepository) FindByFilename(ctx context.Context, tenantID uuid.UUID, filename string) (*media.Asset, error) {
	var model models.UploadedFileModel
	if err := r.db.WithContext(ctx).
		Where("tenant_id = ? AND filename = ?", tenantID, filename).
		First(&model).Error; err != nil {
		return nil, notFound(err, "File")
	}
	return model.ToDomain(), nil
}

// Delete removes the record of an uploaded file
func (r *GormAssetRepository) Delete(ctx context.Context, tenantID, id uuid.UUID) error {
	result := r.db.WithContext(ctx).
		Where("tenant_id = ? AND id = ?", tenantID, id).
		Delete(&models.UploadedFileModel{})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return shared.NotFound("File")
	}
	return nil
}

// Ensure GormAssetRepository implements AssetRepository
var _ media.AssetRepository = (*GormAssetRepository)(nil)
