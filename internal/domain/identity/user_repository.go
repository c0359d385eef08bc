package identity

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/unimerch/backend/internal/domain/shared"
)

// UserRepository defines the interface for user persistence.
// All lookups are scoped to a tenant.
type UserRepository interface {
	Create(ctx context.Context, user *User) error
	Update(ctx context.Context, user *User) error
	Delete(ctx context.Context, tenantID, id uuid.UUID) error

	FindByID(ctx context.Context, tenantID, id uuid.UUID) (*User, error)
	FindByUsername(ctx context.Context, tenantID uuid.UUID, username string) (*User, error)
	FindByEmail(ctx context.Context, tenantID uuid.UUID, email string) (*User, error)
	// FindByLogin matches either the email or the username
	FindByLogin(ctx context.Context, tenantID uuid.UUID, login string) (*User, error)
	FindAll(ctx context.Context, tenantID uuid.UUID, filter UserFilter) ([]*User, int64, error)

	ExistsByUsername(ctx context.Context, tenantID uuid.UUID, username string) (bool, error)
	// ExistsByEmail checks for another account using email; excludeID may be uuid.Nil
	ExistsByEmail(ctx context.Context, tenantID uuid.UUID, email string, excludeID uuid.UUID) (bool, error)
}

// UserFilter contains filter options for querying users
type UserFilter struct {
	Keyword string
	Role    *Role
	Status  *UserStatus
	shared.Pagination
}

// PasswordResetStore keeps single-use password reset tokens
type PasswordResetStore interface {
	// Save stores token for the user with a time-to-live
	Save(ctx context.Context, token string, ref ResetTokenRef, ttl time.Duration) error
	// Consume returns the reference and deletes the token atomically.
	// It returns shared.ErrNotFound for unknown or expired tokens.
	Consume(ctx context.Context, token string) (ResetTokenRef, error)
	Delete(ctx context.Context, token string) error
}

// ResetTokenRef identifies the account a reset token belongs to
type ResetTokenRef struct {
	TenantID uuid.UUID `json:"tenant_id"`
	UserID   uuid.UUID `json:"user_id"`
}
