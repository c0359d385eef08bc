package persistence

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/unimerch/backend/internal/domain/shared"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// translateError maps driver errors onto domain sentinels
func translateError(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, gorm.ErrRecordNotFound):
		return shared.ErrNotFound
	case errors.Is(err, gorm.ErrDuplicatedKey):
		return shared.ErrAlreadyExists
	case errors.Is(err, gorm.ErrCheckConstraintViolated):
		return shared.ErrInvalidInput
	case errors.Is(err, gorm.ErrForeignKeyViolated):
		return shared.ErrConflict
	}
	return err
}

// notFound wraps gorm.ErrRecordNotFound as a resource-specific error
func notFound(err error, resource string) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return shared.NotFound(resource)
	}
	return translateError(err)
}

// updateScoped writes every column of model back to its row within tenantID.
// Associations are left alone; the row must already exist.
func updateScoped(ctx context.Context, db *gorm.DB, tenantID uuid.UUID, model any, resource string) error {
	result := db.WithContext(ctx).
		Model(model).
		Where("tenant_id = ?", tenantID).
		Select("*").
		Omit("id", "created_at", clause.Associations).
		Updates(model)
	if result.Error != nil {
		return translateError(result.Error)
	}
	if result.RowsAffected == 0 {
		return shared.NotFound(resource)
	}
	return nil
}
