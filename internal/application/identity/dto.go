package identity

import (
	"time"

	"github.com/google/uuid"
	"github.com/unimerch/backend/internal/domain/identity"
	"github.com/unimerch/backend/internal/domain/shared"
)

// RegisterInput contains the input for account registration
type RegisterInput struct {
	TenantID  uuid.UUID
	Username  string
	Email     string
	Password  string
	FullName  string
	StudentID string
	Phone     string
	Address   string
	Role      identity.Role // empty means user
}

// LoginInput contains the input for user login
type LoginInput struct {
	TenantID uuid.UUID
	Login    string // email or username
	Password string
	IP       string // Client IP for login tracking
}

// TokenResult is an issued token pair
type TokenResult struct {
	AccessToken           string    `json:"access_token"`
	RefreshToken          string    `json:"refresh_token"`
	AccessTokenExpiresAt  time.Time `json:"access_token_expires_at"`
	RefreshTokenExpiresAt time.Time `json:"refresh_token_expires_at"`
	TokenType             string    `json:"token_type"`
}

// AuthResult is returned by register and login
type AuthResult struct {
	TokenResult
	User UserInfo `json:"user"`
}

// UserInfo is the account view returned to its owner and to admins
type UserInfo struct {
	ID          uuid.UUID  `json:"id"`
	TenantID    uuid.UUID  `json:"tenant_id"`
	Username    string     `json:"username"`
	Email       string     `json:"email"`
	FullName    string     `json:"full_name"`
	StudentID   string     `json:"student_id,omitempty"`
	Phone       string     `json:"phone,omitempty"`
	Address     string     `json:"address,omitempty"`
	AvatarURL   string     `json:"avatar_url,omitempty"`
	Role        string     `json:"role"`
	Status      string     `json:"status"`
	LastLoginAt *time.Time `json:"last_login_at,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
}

// PublicUser is the seller directory view
type PublicUser struct {
	ID        uuid.UUID `json:"id"`
	Username  string    `json:"username"`
	FullName  string    `json:"full_name"`
	AvatarURL string    `json:"avatar_url,omitempty"`
	Role      string    `json:"role"`
	CreatedAt time.Time `json:"created_at"`
}

// LogoutInput contains the input for user logout
type LogoutInput struct {
	TenantID uuid.UUID
	UserID   uuid.UUID
	TokenJTI string
	TokenTTL time.Duration // remaining lifetime of the access token
	// SessionID revokes the refresh token issued alongside the access token
	SessionID string
}

// ResetPasswordInput contains the input for completing a password reset
type ResetPasswordInput struct {
	Token    string
	Password string
}

// UpdateProfileInput replaces the caller's profile. Nil fields are left unchanged.
type UpdateProfileInput struct {
	FullName  *string
	StudentID *string
	Phone     *string
	Address   *string
	AvatarURL *string
	Email     *string
}

// AdminUpdateUserInput is an admin edit of any account
type AdminUpdateUserInput struct {
	UpdateProfileInput
	Status *identity.UserStatus
}

// ChangePasswordInput contains the input for password change
type ChangePasswordInput struct {
	TenantID        uuid.UUID
	UserID          uuid.UUID
	CurrentPassword string
	NewPassword     string
}

// ListUsersInput filters the admin user list
type ListUsersInput struct {
	Search   string
	Role     *identity.Role
	Status   *identity.UserStatus
	shared.Pagination
}

// ToUserInfo converts a domain user to UserInfo
func ToUserInfo(u *identity.User) UserInfo {
	return UserInfo{
		ID:          u.ID,
		TenantID:    u.TenantID,
		Username:    u.Username,
		Email:       u.Email,
		FullName:    u.FullName,
		StudentID:   u.StudentID,
		Phone:       u.Phone,
		Address:     u.Address,
		AvatarURL:   u.AvatarURL,
		Role:        string(u.Role),
		Status:      string(u.Status),
		LastLoginAt: u.LastLoginAt,
		CreatedAt:   u.CreatedAt,
		UpdatedAt:   u.UpdatedAt,
	}
}

// ToPublicUser converts a domain user to its public view
func ToPublicUser(u *identity.User) PublicUser {
	return PublicUser{
		ID:        u.ID,
		Username:  u.Username,
		FullName:  u.FullName,
		AvatarURL: u.AvatarURL,
		Role:      string(u.Role),
		CreatedAt: u.CreatedAt,
	}
}

func toTokenResult(p *tokenPair) TokenResult {
	return TokenResult{
		AccessToken:           p.AccessToken,
		RefreshToken:          p.RefreshToken,
		AccessTokenExpiresAt:  p.AccessTokenExpiresAt,
		RefreshTokenExpiresAt: p.RefreshTokenExpiresAt,
		TokenType:             p.TokenType,
	}
}
