package identity

import (
	"regexp"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/unimerch/backend/internal/domain/shared"
	"golang.org/x/crypto/bcrypt"
)

// Role is the marketplace role of a user
type Role string

const (
	RoleUser   Role = "user"
	RoleSeller Role = "seller"
	RoleAdmin  Role = "admin"
)

// IsValid reports whether r is a known role
func (r Role) IsValid() bool {
	switch r {
	case RoleUser, RoleSeller, RoleAdmin:
		return true
	}
	return false
}

// UserStatus represents the status of a user
type UserStatus string

const (
	UserStatusActive   UserStatus = "active"
	UserStatusDisabled UserStatus = "disabled"
)

// PasswordCost is the bcrypt cost used for new password hashes
var PasswordCost = bcrypt.DefaultCost

var (
	usernamePattern = regexp.MustCompile(`^[a-zA-Z0-9_]+$`)
	emailPattern    = regexp.MustCompile(`^[a-zA-Z0-9._%+\-]+@[a-zA-Z0-9.\-]+\.[a-zA-Z]{2,}$`)
	phonePattern    = regexp.MustCompile(`^0[35789][0-9]{8}$`)
	lowerPattern    = regexp.MustCompile(`[a-z]`)
	upperPattern    = regexp.MustCompile(`[A-Z]`)
	digitPattern    = regexp.MustCompile(`[0-9]`)
)

// User is the aggregate root for marketplace accounts
type User struct {
	shared.TenantAggregateRoot
	Username          string
	Email             string
	PasswordHash      string
	FullName          string
	StudentID         string
	Phone             string
	Address           string
	AvatarURL         string
	Role              Role
	Status            UserStatus
	LastLoginAt       *time.Time
	LastLoginIP       string
	FailedAttempts    int
	LockedUntil       *time.Time
	PasswordChangedAt *time.Time
}

// Profile holds the self-service editable fields of a user
type Profile struct {
	FullName  string
	StudentID string
	Phone     string
	Address   string
	AvatarURL string
}

// NewUser creates an active user with a hashed password
func NewUser(tenantID uuid.UUID, username, email, password string, role Role) (*User, error) {
	username = strings.TrimSpace(username)
	if err := validateUsername(username); err != nil {
		return nil, err
	}
	email = normalizeEmail(email)
	if err := validateEmail(email); err != nil {
		return nil, err
	}
	if !role.IsValid() {
		return nil, shared.NewDomainError("INVALID_ROLE", "Role must be one of user, seller, admin")
	}

	user := &User{
		TenantAggregateRoot: shared.NewTenantAggregateRoot(tenantID),
		Username:            username,
		Email:               email,
		Role:                role,
		Status:              UserStatusActive,
	}
	if err := user.SetPassword(password); err != nil {
		return nil, err
	}
	user.ClearDomainEvents()
	user.AddDomainEvent(NewUserRegisteredEvent(user))

	return user, nil
}

// UpdateProfile replaces the profile fields after validating them
func (u *User) UpdateProfile(p Profile) error {
	p.FullName = strings.TrimSpace(p.FullName)
	p.Phone = strings.TrimSpace(p.Phone)
	if err := validateProfile(p); err != nil {
		return err
	}

	u.FullName = p.FullName
	u.StudentID = strings.TrimSpace(p.StudentID)
	u.Phone = p.Phone
	u.Address = strings.TrimSpace(p.Address)
	u.AvatarURL = p.AvatarURL
	u.Touch()
	return nil
}

// SetEmail changes the login email
func (u *User) SetEmail(email string) error {
	email = normalizeEmail(email)
	if err := validateEmail(email); err != nil {
		return err
	}
	u.Email = email
	u.Touch()
	return nil
}

// SetAvatar sets the avatar URL
func (u *User) SetAvatar(url string) {
	u.AvatarURL = url
	u.Touch()
}

// ChangeRole assigns a new marketplace role
func (u *User) ChangeRole(role Role) error {
	if !role.IsValid() {
		return shared.NewDomainError("INVALID_ROLE", "Role must be one of user, seller, admin")
	}
	u.Role = role
	u.Touch()
	return nil
}

// SetStatus enables or disables the account
func (u *User) SetStatus(status UserStatus) error {
	if status != UserStatusActive && status != UserStatusDisabled {
		return shared.NewDomainError("INVALID_STATUS", "Status must be active or disabled")
	}
	u.Status = status
	if status == UserStatusActive {
		u.FailedAttempts = 0
		u.LockedUntil = nil
	}
	u.Touch()
	return nil
}

// ChangePassword verifies the current password before setting a new one
func (u *User) ChangePassword(current, next string) error {
	if !u.VerifyPassword(current) {
		return shared.NewDomainError("INVALID_PASSWORD", "Current password is incorrect")
	}
	return u.SetPassword(next)
}

// SetPassword hashes and stores a new password
func (u *User) SetPassword(password string) error {
	if err := ValidatePassword(password); err != nil {
		return err
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), PasswordCost)
	if err != nil {
		return shared.NewDomainError("PASSWORD_HASH_ERROR", "Failed to hash password")
	}

	now := time.Now()
	u.PasswordHash = string(hash)
	u.PasswordChangedAt = &now
	u.Touch()
	u.AddDomainEvent(NewUserPasswordChangedEvent(u))
	return nil
}

// VerifyPassword reports whether password matches the stored hash
func (u *User) VerifyPassword(password string) bool {
	return bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)) == nil
}

// RecordLoginSuccess clears failure counters and stamps the login
func (u *User) RecordLoginSuccess(ip string) {
	now := time.Now()
	u.LastLoginAt = &now
	u.LastLoginIP = ip
	u.FailedAttempts = 0
	u.LockedUntil = nil
	u.Touch()
}

// RecordLoginFailure counts a failed attempt and locks the account once
// maxAttempts is reached. It returns true when the account became locked.
func (u *User) RecordLoginFailure(maxAttempts int, lockDuration time.Duration) bool {
	u.FailedAttempts++
	u.Touch()
	if maxAttempts > 0 && u.FailedAttempts >= maxAttempts {
		until := time.Now().Add(lockDuration)
		u.LockedUntil = &until
		u.FailedAttempts = 0
		return true
	}
	return false
}

// IsLocked reports whether a login lock is still in effect
func (u *User) IsLocked() bool {
	return u.LockedUntil != nil && time.Now().Before(*u.LockedUntil)
}

// IsActive reports whether the account is enabled
func (u *User) IsActive() bool {
	return u.Status == UserStatusActive
}

func (u *User) IsAdmin() bool  { return u.Role == RoleAdmin }
func (u *User) IsSeller() bool { return u.Role == RoleSeller }

// ValidatePassword enforces the password policy: at least 6 characters with
// a lowercase letter, an uppercase letter and a digit.
func ValidatePassword(password string) error {
	if len(password) < 6 {
		return shared.NewDomainError("INVALID_PASSWORD", "Password must be at least 6 characters")
	}
	if len(password) > 72 {
		return shared.NewDomainError("INVALID_PASSWORD", "Password cannot exceed 72 characters")
	}
	if !lowerPattern.MatchString(password) || !upperPattern.MatchString(password) || !digitPattern.MatchString(password) {
		return shared.NewDomainError("INVALID_PASSWORD", "Password must contain a lowercase letter, an uppercase letter and a number")
	}
	return nil
}

func validateUsername(username string) error {
	n := utf8.RuneCountInString(username)
	if n < 3 || n > 50 {
		return shared.NewDomainError("INVALID_USERNAME", "Username must be between 3 and 50 characters")
	}
	if !usernamePattern.MatchString(username) {
		return shared.NewDomainError("INVALID_USERNAME", "Username can only contain letters, numbers and underscores")
	}
	return nil
}

func validateEmail(email string) error {
	if len(email) > 255 || !emailPattern.MatchString(email) {
		return shared.NewDomainError("INVALID_EMAIL", "Invalid email format")
	}
	return nil
}

func validateProfile(p Profile) error {
	if p.FullName != "" {
		if n := utf8.RuneCountInString(p.FullName); n < 2 || n > 100 {
			return shared.NewDomainError("INVALID_FULL_NAME", "Full name must be between 2 and 100 characters")
		}
	}
	if utf8.RuneCountInString(p.StudentID) > 20 {
		return shared.NewDomainError("INVALID_STUDENT_ID", "Student ID cannot exceed 20 characters")
	}
	if p.Phone != "" && !phonePattern.MatchString(p.Phone) {
		return shared.NewDomainError("INVALID_PHONE", "Invalid phone number")
	}
	if utf8.RuneCountInString(p.Address) > 500 {
		return shared.NewDomainError("INVALID_ADDRESS", "Address cannot exceed 500 characters")
	}
	if len(p.AvatarURL) > 500 {
		return shared.NewDomainError("INVALID_AVATAR", "Avatar URL cannot exceed 500 characters")
	}
	return nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
