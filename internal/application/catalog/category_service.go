package catalog

import (
	"context"

	"github.com/google/uuid"
	"github.com/unimerch/backend/internal/domain/catalog"
	"github.com/unimerch/backend/internal/domain/shared"
	"go.uber.org/zap"
)

// CategoryService handles category operations
type CategoryService struct {
	categoryRepo catalog.CategoryRepository
	productRepo  catalog.ProductRepository
	logger       *zap.Logger
}

// NewCategoryService creates a new CategoryService
func NewCategoryService(categoryRepo catalog.CategoryRepository, productRepo catalog.ProductRepository, logger *zap.Logger) *CategoryService {
	return &CategoryService{
		categoryRepo: categoryRepo,
		productRepo:  productRepo,
		logger:       logger,
	}
}

// List returns all categories matching keyword, with product counts
func (s *CategoryService) List(ctx context.Context, tenantID uuid.UUID, keyword string) ([]CategoryDTO, error) {
	rows, err := s.categoryRepo.FindAll(ctx, tenantID, keyword)
	if err != nil {
		return nil, err
	}
	out := make([]CategoryDTO, len(rows))
	for i := range rows {
		out[i] = ToCategoryDTO(&rows[i].Category, rows[i].ProductCount)
	}
	return out, nil
}

// GetByID returns one category
func (s *CategoryService) GetByID(ctx context.Context, tenantID, id uuid.UUID) (*CategoryDTO, error) {
	category, err := s.categoryRepo.FindByID(ctx, tenantID, id)
	if err != nil {
		return nil, err
	}
	count, err := s.productRepo.CountByCategory(ctx, tenantID, id)
	if err != nil {
		return nil, err
	}
	dto := ToCategoryDTO(category, count)
	return &dto, nil
}

// Create adds a category with a unique name
func (s *CategoryService) Create(ctx context.Context, tenantID uuid.UUID, input CategoryInput) (*CategoryDTO, error) {
	category, err := catalog.NewCategory(tenantID, deref(input.Name), deref(input.Description))
	if err != nil {
		return nil, err
	}
	if err := s.ensureUniqueName(ctx, tenantID, category.Name, uuid.Nil); err != nil {
		return nil, err
	}
	if input.ImageURL != nil {
		category.SetImage(*input.ImageURL)
	}
	if err := s.categoryRepo.Create(ctx, category); err != nil {
		return nil, err
	}

	s.logger.Info("Category created", zap.String("category_id", category.ID.String()), zap.String("name", category.Name))
	dto := ToCategoryDTO(category, 0)
	return &dto, nil
}

// Update edits a category
func (s *CategoryService) Update(ctx context.Context, tenantID, id uuid.UUID, input CategoryInput) (*CategoryDTO, error) {
	category, err := s.categoryRepo.FindByID(ctx, tenantID, id)
	if err != nil {
		return nil, err
	}

	name := category.Name
	if input.Name != nil {
		name = *input.Name
	}
	description := category.Description
	if input.Description != nil {
		description = *input.Description
	}
	if err := category.Update(name, description); err != nil {
		return nil, err
	}
	if err := s.ensureUniqueName(ctx, tenantID, category.Name, category.ID); err != nil {
		return nil, err
	}
	if input.ImageURL != nil {
		category.SetImage(*input.ImageURL)
	}
	if err := s.categoryRepo.Update(ctx, category); err != nil {
		return nil, err
	}
	return s.GetByID(ctx, tenantID, id)
}

// SetImage replaces the category image
func (s *CategoryService) SetImage(ctx context.Context, tenantID, id uuid.UUID, url string) error {
	category, err := s.categoryRepo.FindByID(ctx, tenantID, id)
	if err != nil {
		return err
	}
	category.SetImage(url)
	return s.categoryRepo.Update(ctx, category)
}

// Delete removes an empty category
func (s *CategoryService) Delete(ctx context.Context, tenantID, id uuid.UUID) error {
	if _, err := s.categoryRepo.FindByID(ctx, tenantID, id); err != nil {
		return err
	}
	count, err := s.productRepo.CountByCategory(ctx, tenantID, id)
	if err != nil {
		return err
	}
	if count > 0 {
		return shared.NewDomainError("CONFLICT", "Category still contains products")
	}
	if err := s.categoryRepo.Delete(ctx, tenantID, id); err != nil {
		return err
	}
	s.logger.Info("Category deleted", zap.String("category_id", id.String()))
	return nil
}

func (s *CategoryService) ensureUniqueName(ctx context.Context, tenantID uuid.UUID, name string, excludeID uuid.UUID) error {
	exists, err := s.categoryRepo.ExistsByName(ctx, tenantID, name, excludeID)
	if err != nil {
		return err
	}
	if exists {
		return shared.NewDomainError("ALREADY_EXISTS", "Category name already exists")
	}
	return nil
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
