package persistence

import (
	"fmt"

	"github.com/unimerch/backend/internal/infrastructure/persistence/models"
	"gorm.io/gorm"
)

// AllModels lists every table owned by the application
func AllModels() []any {
	return []any{
		&models.UserModel{},
		&models.CategoryModel{},
		&models.ProductModel{},
		&models.CartItemModel{},
		&models.OrderModel{},
		&models.OrderItemModel{},
		&models.PaymentModel{},
		&models.ReviewModel{},
		&models.ReviewVoteModel{},
		&models.UploadedFileModel{},
	}
}

// uniqueIndexes are created after AutoMigrate. Expression indexes cannot be
// declared with struct tags, and the statements run on both postgres and sqlite.
var uniqueIndexes = []string{
	`CREATE UNIQUE INDEX IF NOT EXISTS idx_users_tenant_username ON users (tenant_id, LOWER(username))`,
	`CREATE UNIQUE INDEX IF NOT EXISTS idx_users_tenant_email ON users (tenant_id, LOWER(email))`,
	`CREATE UNIQUE INDEX IF NOT EXISTS idx_categories_tenant_name ON categories (tenant_id, LOWER(name))`,
	`CREATE UNIQUE INDEX IF NOT EXISTS idx_cart_items_user_product ON cart_items (tenant_id, user_id, product_id)`,
	`CREATE UNIQUE INDEX IF NOT EXISTS idx_reviews_user_product ON reviews (tenant_id, user_id, product_id)`,
}

// AutoMigrate creates or updates the schema from the models. Postgres
// deployments use the SQL migrations instead; this serves sqlite and tests.
func AutoMigrate(db *gorm.DB) error {
	if err := db.AutoMigrate(AllModels()...); err != nil {
		return fmt.Errorf("auto migrate: %w", err)
	}
	for _, stmt := range uniqueIndexes {
		if err := db.Exec(stmt).Error; err != nil {
			return fmt.Errorf("create index: %w", err)
		}
	}
	return nil
}
