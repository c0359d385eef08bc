package persistence

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"github.com/unimerch/backend/internal/domain/catalog"
	"github.com/unimerch/backend/internal/domain/shared"
	"github.com/unimerch/backend/internal/infrastructure/persistence/models"
	"gorm.io/gorm"
)

// GormCategoryRepository implements CategoryRepository using GORM
type GormCategoryRepository struct {
	db *gorm.DB
}

// NewGormCategoryRepository creates a new GormCategoryRepository
func NewGormCategoryRepository(db *gorm.DB) *GormCategoryRepository {
	return &GormCategoryRepository{db: db}
}

// Create creates a new category
func (r *GormCategoryRepository) Create(ctx context.Context, category *catalog.Category) error {
	model := models.CategoryModelFromDomain(category)
	return translateError(r.db.WithContext(ctx).Create(model).Error)
}

// Update saves an existing category
func (r *GormCategoryRepository) Update(ctx context.Context, category *catalog.Category) error {
	return updateScoped(ctx, r.db, category.TenantID, models.CategoryModelFromDomain(category), "Category")
}

// Delete removes a category
func (r *GormCategoryRepository) Delete(ctx context.Context, tenantID, id uuid.UUID) error {
	result := r.db.WithContext(ctx).
		Where("tenant_id = ? AND id = ?", tenantID, id).
		Delete(&models.CategoryModel{})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return shared.NotFound("Category")
	}
	return nil
}

// FindByID finds a category by ID
func (r *GormCategoryRepository) FindByID(ctx context.Context, tenantID, id uuid.UUID) (*catalog.Category, error) {
	var model models.CategoryModel
	if err := r.db.WithContext(ctx).
		Where("tenant_id = ? AND id = ?", tenantID, id).
		First(&model).Error; err != nil {
		return nil, notFound(err, "Category")
	}
	return model.ToDomain(), nil
}

// categoryCountRow is a category joined with its product count
type categoryCountRow struct {
	models.CategoryModel
	ProductCount int64
}

// FindAll lists categories by name with their product counts
func (r *GormCategoryRepository) FindAll(ctx context.Context, tenantID uuid.UUID, keyword string) ([]catalog.CategoryWithCount, error) {
	var rows []categoryCountRow
	query := r.db.WithContext(ctx).
		Table("categories").
		Select("categories.*, COUNT(products.id) AS product_count").
		Joins("LEFT JOIN products ON products.category_id = categories.id AND products.tenant_id = categories.tenant_id").
		Where("categories.tenant_id = ?", tenantID)
	if keyword = strings.TrimSpace(keyword); keyword != "" {
		like := likePattern(keyword)
		query = query.Where("(LOWER(categories.name) LIKE ? OR LOWER(categories.description) LIKE ?)", like, like)
	}
	if err := query.
		Group("categories.id").
		Order("categories.name ASC").
		Scan(&rows).Error; err != nil {
		return nil, err
	}

	out := make([]catalog.CategoryWithCount, len(rows))
	for i := range rows {
		out[i] = catalog.CategoryWithCount{
			Category:     *rows[i].ToDomain(),
			ProductCount: rows[i].ProductCount,
		}
	}
	return out, nil
}

// ExistsByName checks if another category already uses name, ignoring case
func (r *GormCategoryRepository) ExistsByName(ctx context.Context, tenantID uuid.UUID, name string, excludeID uuid.UUID) (bool, error) {
	query := r.db.WithContext(ctx).
		Model(&models.CategoryModel{}).
		Where("tenant_id = ? AND LOWER(name) = ?", tenantID, strings.ToLower(strings.TrimSpace(name)))
	if excludeID != uuid.Nil {
		query = query.Where("id <> ?", excludeID)
	}
	var count int64
	if err := query.Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

// Ensure GormCategoryRepository implements CategoryRepository
var _ catalog.CategoryRepository = (*GormCategoryRepository)(nil)
