package identity

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/unimerch/backend/internal/application/notification"
	"github.com/unimerch/backend/internal/domain/identity"
	"github.com/unimerch/backend/internal/domain/shared"
	"github.com/unimerch/backend/internal/infrastructure/auth"
	"go.uber.org/zap"
)

type tokenPair = auth.TokenPair

// resetTokenBytes is the entropy of a password reset token before hex encoding
const resetTokenBytes = 32

var (
	errInvalidCredentials = shared.NewDomainError("INVALID_CREDENTIALS", "Invalid email/username or password")
	errAccountDisabled    = shared.NewDomainError("ACCOUNT_DISABLED", "Account has been disabled")
	errAccountLocked      = shared.NewDomainError("ACCOUNT_LOCKED", "Account is locked. Please try again later")
	errInvalidResetToken  = shared.NewDomainError("INVALID_RESET_TOKEN", "Reset token is invalid or has expired")
)

// AuthServiceConfig contains configuration for the auth service
type AuthServiceConfig struct {
	MaxLoginAttempts int           // Maximum failed login attempts before lock
	LockDuration     time.Duration // How long to lock account after max attempts
	ResetTokenTTL    time.Duration
}

// DefaultAuthServiceConfig returns default configuration
func DefaultAuthServiceConfig() AuthServiceConfig {
	return AuthServiceConfig{
		MaxLoginAttempts: 5,
		LockDuration:     15 * time.Minute,
		ResetTokenTTL:    15 * time.Minute,
	}
}

// AuthService handles authentication operations
type AuthService struct {
	userRepo   identity.UserRepository
	jwtService *auth.JWTService
	blacklist  auth.TokenBlacklist
	resets     identity.PasswordResetStore
	mailer     notification.Mailer
	renderer   *notification.Renderer
	events     shared.EventPublisher
	config     AuthServiceConfig
	logger     *zap.Logger
}

// NewAuthService creates a new authentication service
func NewAuthService(
	userRepo identity.UserRepository,
	jwtService *auth.JWTService,
	blacklist auth.TokenBlacklist,
	resets identity.PasswordResetStore,
	mailer notification.Mailer,
	renderer *notification.Renderer,
	events shared.EventPublisher,
	config AuthServiceConfig,
	logger *zap.Logger,
) *AuthService {
	return &AuthService{
		userRepo:   userRepo,
		jwtService: jwtService,
		blacklist:  blacklist,
		resets:     resets,
		mailer:     mailer,
		renderer:   renderer,
		events:     events,
		config:     config,
		logger:     logger,
	}
}

// Register creates an account and logs it in
func (s *AuthService) Register(ctx context.Context, input RegisterInput) (*AuthResult, error) {
	role := input.Role
	if role == "" {
		role = identity.RoleUser
	}
	if role == identity.RoleAdmin {
		return nil, shared.NewDomainError("INVALID_ROLE", "Admin accounts cannot be self-registered")
	}

	user, err := identity.NewUser(input.TenantID, input.Username, input.Email, input.Password, role)
	if err != nil {
		return nil, err
	}
	if err := user.UpdateProfile(identity.Profile{
		FullName:  input.FullName,
		StudentID: input.StudentID,
		Phone:     input.Phone,
		Address:   input.Address,
	}); err != nil {
		return nil, err
	}

	if exists, err := s.userRepo.ExistsByEmail(ctx, input.TenantID, user.Email, uuid.Nil); err != nil {
		return nil, err
	} else if exists {
		return nil, shared.NewDomainError("ALREADY_EXISTS", "Email is already registered")
	}
	if exists, err := s.userRepo.ExistsByUsername(ctx, input.TenantID, user.Username); err != nil {
		return nil, err
	} else if exists {
		return nil, shared.NewDomainError("ALREADY_EXISTS", "Username is already taken")
	}

	if err := s.userRepo.Create(ctx, user); err != nil {
		return nil, err
	}
	s.publish(ctx, user)

	pair, err := s.issueTokens(user)
	if err != nil {
		return nil, err
	}

	s.logger.Info("User registered",
		zap.String("user_id", user.ID.String()),
		zap.String("username", user.Username),
		zap.String("role", string(user.Role)))

	return &AuthResult{TokenResult: toTokenResult(pair), User: ToUserInfo(user)}, nil
}

// Login authenticates a user by email or username and returns tokens
func (s *AuthService) Login(ctx context.Context, input LoginInput) (*AuthResult, error) {
	user, err := s.userRepo.FindByLogin(ctx, input.TenantID, input.Login)
	if err != nil {
		if shared.IsNotFound(err) {
			s.logger.Warn("Login for unknown account", zap.String("login", input.Login))
			return nil, errInvalidCredentials
		}
		return nil, err
	}

	if !user.IsActive() {
		s.logger.Warn("Login attempt for disabled account", zap.String("user_id", user.ID.String()))
		return nil, errAccountDisabled
	}
	if user.IsLocked() {
		s.logger.Warn("Login attempt for locked account", zap.String("user_id", user.ID.String()))
		return nil, errAccountLocked
	}

	if !user.VerifyPassword(input.Password) {
		locked := user.RecordLoginFailure(s.config.MaxLoginAttempts, s.config.LockDuration)
		if err := s.userRepo.Update(ctx, user); err != nil {
			s.logger.Error("Failed to update user after login failure", zap.Error(err))
		}
		if locked {
			s.logger.Warn("Account locked after too many failed attempts",
				zap.String("user_id", user.ID.String()),
				zap.Int("attempts", s.config.MaxLoginAttempts))
			return nil, shared.NewDomainError("ACCOUNT_LOCKED", "Too many failed login attempts. Account has been locked")
		}
		return nil, errInvalidCredentials
	}

	pair, err := s.issueTokens(user)
	if err != nil {
		return nil, err
	}

	user.RecordLoginSuccess(input.IP)
	if err := s.userRepo.Update(ctx, user); err != nil {
		// the login itself succeeded
		s.logger.Error("Failed to update user after successful login", zap.Error(err))
	}

	s.logger.Info("User logged in", zap.String("user_id", user.ID.String()))
	return &AuthResult{TokenResult: toTokenResult(pair), User: ToUserInfo(user)}, nil
}

// RefreshToken issues a new token pair for a valid refresh token. The role is
// re-read so changes made by an admin take effect.
func (s *AuthService) RefreshToken(ctx context.Context, refreshToken string) (*TokenResult, error) {
	claims, err := s.jwtService.ValidateRefreshToken(refreshToken)
	if err != nil {
		s.logger.Warn("Refresh token validation failed", zap.Error(err))
		return nil, mapTokenError(err)
	}

	revoked, err := s.blacklist.IsUserTokenInvalidated(ctx, claims.UserID, claims.IssuedAtTime())
	if err != nil {
		return nil, err
	}
	if !revoked && claims.SessionID != "" {
		if revoked, err = s.blacklist.IsBlacklisted(ctx, claims.SessionID); err != nil {
			return nil, err
		}
	}
	if revoked {
		return nil, mapTokenError(auth.ErrTokenRevoked)
	}

	pair, err := s.jwtService.RefreshTokenPair(refreshToken, func(tenantID, userID uuid.UUID) (auth.Subject, error) {
		user, err := s.userRepo.FindByID(ctx, tenantID, userID)
		if shared.IsNotFound(err) {
			return auth.Subject{}, auth.ErrInvalidToken
		}
		if err != nil {
			return auth.Subject{}, err
		}
		if !user.IsActive() {
			return auth.Subject{}, errAccountDisabled
		}
		return subjectOf(user), nil
	})
	if err != nil {
		var domainErr *shared.DomainError
		if errors.As(err, &domainErr) {
			return nil, err
		}
		s.logger.Warn("Token refresh failed", zap.Error(err))
		return nil, mapTokenError(err)
	}

	result := toTokenResult(pair)
	return &result, nil
}

// Logout revokes the presented access token until it would have expired,
// and the login session it belongs to so its refresh token stops working
func (s *AuthService) Logout(ctx context.Context, input LogoutInput) error {
	if input.TokenJTI != "" && input.TokenTTL > 0 {
		if err := s.blacklist.AddToBlacklist(ctx, input.TokenJTI, input.TokenTTL); err != nil {
			s.logger.Error("Failed to blacklist token", zap.Error(err))
			return err
		}
	}
	if input.SessionID != "" {
		if err := s.blacklist.AddToBlacklist(ctx, input.SessionID, s.jwtService.RefreshTokenExpiration()); err != nil {
			s.logger.Error("Failed to revoke session", zap.Error(err))
			return err
		}
	}
	s.logger.Info("User logged out", zap.String("user_id", input.UserID.String()))
	return nil
}

// GetCurrentUser retrieves the caller's account
func (s *AuthService) GetCurrentUser(ctx context.Context, tenantID, userID uuid.UUID) (*UserInfo, error) {
	user, err := s.userRepo.FindByID(ctx, tenantID, userID)
	if err != nil {
		return nil, err
	}
	info := ToUserInfo(user)
	return &info, nil
}

// ForgotPassword emails a reset link when the address belongs to an active
// account. Unknown addresses succeed silently.
func (s *AuthService) ForgotPassword(ctx context.Context, tenantID uuid.UUID, email string) error {
	user, err := s.userRepo.FindByEmail(ctx, tenantID, email)
	if err != nil {
		if shared.IsNotFound(err) {
			s.logger.Info("Password reset requested for unknown email")
			return nil
		}
		return err
	}
	if !user.IsActive() {
		return nil
	}

	token, err := newResetToken()
	if err != nil {
		return err
	}
	ref := identity.ResetTokenRef{TenantID: user.TenantID, UserID: user.ID}
	if err := s.resets.Save(ctx, token, ref, s.config.ResetTokenTTL); err != nil {
		return err
	}

	msg, err := s.renderer.PasswordReset(user.Email, user.Username, token, s.config.ResetTokenTTL)
	if err == nil {
		err = s.mailer.Send(ctx, msg)
	}
	if err != nil {
		s.logger.Error("Failed to send password reset email",
			zap.String("user_id", user.ID.String()),
			zap.Error(err))
		if delErr := s.resets.Delete(ctx, token); delErr != nil {
			s.logger.Warn("Failed to discard unsent reset token", zap.Error(delErr))
		}
		return shared.NewDomainError("EMAIL_SEND_FAILED", "Failed to send password reset email")
	}

	s.logger.Info("Password reset email sent", zap.String("user_id", user.ID.String()))
	return nil
}

// ResetPassword consumes a reset token, sets the new password and revokes
// every token issued to the account before now
func (s *AuthService) ResetPassword(ctx context.Context, input ResetPasswordInput) error {
	if err := identity.ValidatePassword(input.Password); err != nil {
		return err
	}

	ref, err := s.resets.Consume(ctx, input.Token)
	if err != nil {
		if shared.IsNotFound(err) {
			return errInvalidResetToken
		}
		return err
	}

	user, err := s.userRepo.FindByID(ctx, ref.TenantID, ref.UserID)
	if err != nil {
		if shared.IsNotFound(err) {
			return errInvalidResetToken
		}
		return err
	}
	if err := user.SetPassword(input.Password); err != nil {
		return err
	}
	user.FailedAttempts = 0
	user.LockedUntil = nil
	if err := s.userRepo.Update(ctx, user); err != nil {
		return err
	}
	s.publish(ctx, user)

	if err := s.blacklist.AddUserTokensToBlacklist(ctx, user.ID.String(), s.jwtService.RefreshTokenExpiration()); err != nil {
		s.logger.Error("Failed to revoke tokens after password reset", zap.Error(err))
		return err
	}

	s.logger.Info("Password reset completed", zap.String("user_id", user.ID.String()))
	return nil
}

func (s *AuthService) issueTokens(user *identity.User) (*auth.TokenPair, error) {
	pair, err := s.jwtService.GenerateTokenPair(subjectOf(user))
	if err != nil {
		s.logger.Error("Failed to generate token pair", zap.Error(err))
		return nil, shared.NewDomainError("INTERNAL_ERROR", "Failed to generate authentication tokens")
	}
	return pair, nil
}

func (s *AuthService) publish(ctx context.Context, user *identity.User) {
	events := user.GetDomainEvents()
	user.ClearDomainEvents()
	if s.events == nil || len(events) == 0 {
		return
	}
	if err := s.events.Publish(ctx, events...); err != nil {
		s.logger.Warn("Failed to publish user events", zap.Error(err))
	}
}

func subjectOf(user *identity.User) auth.Subject {
	return auth.Subject{
		TenantID: user.TenantID,
		UserID:   user.ID,
		Username: user.Username,
		Email:    user.Email,
		Role:     string(user.Role),
	}
}

func newResetToken() (string, error) {
	b := make([]byte, resetTokenBytes)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}

func mapTokenError(err error) error {
	switch {
	case errors.Is(err, auth.ErrExpiredToken):
		return shared.NewDomainError("TOKEN_EXPIRED", "Refresh token has expired")
	case errors.Is(err, auth.ErrMaxRefreshExceeded):
		return shared.NewDomainError("TOKEN_MAX_REFRESH", "Maximum token refresh count exceeded. Please log in again")
	case errors.Is(err, auth.ErrTokenRevoked):
		return shared.NewDomainError("TOKEN_REVOKED", "Refresh token has been revoked")
	default:
		return shared.NewDomainError("TOKEN_INVALID", "Invalid refresh token")
	}
}
