package identity

import (
	"context"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/unimerch/backend/internal/application/notification"
	"github.com/unimerch/backend/internal/domain/identity"
	"github.com/unimerch/backend/internal/domain/shared"
	"github.com/unimerch/backend/internal/infrastructure/auth"
	"github.com/unimerch/backend/internal/infrastructure/config"
	"go.uber.org/zap"
	"golang.org/x/text/language"
)

type authFixture struct {
	svc       *AuthService
	repo      *MockUserRepository
	jwt       *auth.JWTService
	blacklist *auth.InMemoryTokenBlacklist
	resets    *auth.InMemoryResetStore
	mailer    *recordingMailer
}

func newAuthFixture(t *testing.T) *authFixture {
	t.Helper()
	f := &authFixture{
		repo: new(MockUserRepository),
		jwt: auth.NewJWTService(config.JWTConfig{
			Secret:                 "test-secret-key-with-at-least-32-chars",
			AccessTokenExpiration:  15 * time.Minute,
			RefreshTokenExpiration: 24 * time.Hour,
			Issuer:                 "unimerch-test",
			MaxRefreshCount:        3,
		}),
		blacklist: auth.NewInMemoryTokenBlacklist(time.Minute),
		resets:    auth.NewInMemoryResetStore(),
		mailer:    &recordingMailer{},
	}
	renderer := notification.NewRenderer("http://shop.test", "VND", language.English)
	t.Cleanup(func() { _ = f.blacklist.Close() })
	f.svc = NewAuthService(f.repo, f.jwt, f.blacklist, f.resets, f.mailer, renderer, nil, DefaultAuthServiceConfig(), zap.NewNop())
	return f
}

func newTestUser(t *testing.T, tenantID uuid.UUID, role identity.Role) *identity.User {
	t.Helper()
	u, err := identity.NewUser(tenantID, "alice_01", "alice@example.com", "Secret123", role)
	require.NoError(t, err)
	u.ClearDomainEvents()
	return u
}

func TestAuthService_Register(t *testing.T) {
	tenantID := uuid.New()
	input := RegisterInput{
		TenantID: tenantID,
		Username: "bob_seller",
		Email:    " Bob@Example.com ",
		Password: "Secret123",
		FullName: "Bob Nguyen",
	}

	t.Run("creates a user and returns tokens", func(t *testing.T) {
		f := newAuthFixture(t)
		f.repo.On("ExistsByEmail", mock.Anything, tenantID, "bob@example.com", uuid.Nil).Return(false, nil)
		f.repo.On("ExistsByUsername", mock.Anything, tenantID, "bob_seller").Return(false, nil)
		f.repo.On("Create", mock.Anything, mock.AnythingOfType("*identity.User")).Return(nil)

		result, err := f.svc.Register(context.Background(), input)
		require.NoError(t, err)

		assert.Equal(t, "user", result.User.Role)
		assert.Equal(t, "bob@example.com", result.User.Email)
		assert.Equal(t, "Bob Nguyen", result.User.FullName)
		assert.Equal(t, "Bearer", result.TokenType)

		claims, err := f.jwt.ValidateAccessToken(result.AccessToken)
		require.NoError(t, err)
		assert.Equal(t, "user", claims.Role)
		assert.Equal(t, tenantID.String(), claims.TenantID)
		f.repo.AssertExpectations(t)
	})

	t.Run("allows seller registration", func(t *testing.T) {
		f := newAuthFixture(t)
		f.repo.On("ExistsByEmail", mock.Anything, tenantID, mock.Anything, uuid.Nil).Return(false, nil)
		f.repo.On("ExistsByUsername", mock.Anything, tenantID, mock.Anything).Return(false, nil)
		f.repo.On("Create", mock.Anything, mock.Anything).Return(nil)

		in := input
		in.Role = identity.RoleSeller
		result, err := f.svc.Register(context.Background(), in)
		require.NoError(t, err)
		assert.Equal(t, "seller", result.User.Role)
	})

	t.Run("rejects admin registration", func(t *testing.T) {
		f := newAuthFixture(t)
		in := input
		in.Role = identity.RoleAdmin

		_, err := f.svc.Register(context.Background(), in)
		var domainErr *shared.DomainError
		require.ErrorAs(t, err, &domainErr)
		assert.Equal(t, "INVALID_ROLE", domainErr.Code)
		f.repo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
	})

	t.Run("rejects duplicate email", func(t *testing.T) {
		f := newAuthFixture(t)
		f.repo.On("ExistsByEmail", mock.Anything, tenantID, "bob@example.com", uuid.Nil).Return(true, nil)

		_, err := f.svc.Register(context.Background(), input)
		assert.ErrorIs(t, err, shared.ErrAlreadyExists)
	})

	t.Run("rejects duplicate username", func(t *testing.T) {
		f := newAuthFixture(t)
		f.repo.On("ExistsByEmail", mock.Anything, tenantID, mock.Anything, uuid.Nil).Return(false, nil)
		f.repo.On("ExistsByUsername", mock.Anything, tenantID, "bob_seller").Return(true, nil)

		_, err := f.svc.Register(context.Background(), input)
		assert.ErrorIs(t, err, shared.ErrAlreadyExists)
	})

	t.Run("rejects weak password", func(t *testing.T) {
		f := newAuthFixture(t)
		in := input
		in.Password = "weak"

		_, err := f.svc.Register(context.Background(), in)
		var domainErr *shared.DomainError
		require.ErrorAs(t, err, &domainErr)
		assert.Equal(t, "INVALID_PASSWORD", domainErr.Code)
	})
}

func TestAuthService_Login(t *testing.T) {
	tenantID := uuid.New()

	t.Run("successful login by email", func(t *testing.T) {
		f := newAuthFixture(t)
		user := newTestUser(t, tenantID, identity.RoleUser)
		f.repo.On("FindByLogin", mock.Anything, tenantID, "alice@example.com").Return(user, nil)
		f.repo.On("Update", mock.Anything, user).Return(nil)

		result, err := f.svc.Login(context.Background(), LoginInput{
			TenantID: tenantID, Login: "alice@example.com", Password: "Secret123", IP: "10.0.0.1",
		})
		require.NoError(t, err)
		assert.NotEmpty(t, result.AccessToken)
		assert.NotEmpty(t, result.RefreshToken)
		assert.Equal(t, "10.0.0.1", user.LastLoginIP)
		assert.NotNil(t, user.LastLoginAt)
	})

	t.Run("unknown login returns invalid credentials", func(t *testing.T) {
		f := newAuthFixture(t)
		f.repo.On("FindByLogin", mock.Anything, tenantID, "ghost").Return(nil, shared.NotFound("User"))

		_, err := f.svc.Login(context.Background(), LoginInput{TenantID: tenantID, Login: "ghost", Password: "x"})
		assert.ErrorIs(t, err, errInvalidCredentials)
	})

	t.Run("wrong password counts a failure", func(t *testing.T) {
		f := newAuthFixture(t)
		user := newTestUser(t, tenantID, identity.RoleUser)
		f.repo.On("FindByLogin", mock.Anything, tenantID, "alice_01").Return(user, nil)
		f.repo.On("Update", mock.Anything, user).Return(nil)

		_, err := f.svc.Login(context.Background(), LoginInput{TenantID: tenantID, Login: "alice_01", Password: "Wrong123"})
		assert.ErrorIs(t, err, errInvalidCredentials)
		assert.Equal(t, 1, user.FailedAttempts)
	})

	t.Run("fifth failure locks the account", func(t *testing.T) {
		f := newAuthFixture(t)
		user := newTestUser(t, tenantID, identity.RoleUser)
		user.FailedAttempts = 4
		f.repo.On("FindByLogin", mock.Anything, tenantID, "alice_01").Return(user, nil)
		f.repo.On("Update", mock.Anything, user).Return(nil)

		_, err := f.svc.Login(context.Background(), LoginInput{TenantID: tenantID, Login: "alice_01", Password: "Wrong123"})
		assert.ErrorIs(t, err, errAccountLocked)
		assert.True(t, user.IsLocked())

		// even the right password is refused while locked
		_, err = f.svc.Login(context.Background(), LoginInput{TenantID: tenantID, Login: "alice_01", Password: "Secret123"})
		assert.ErrorIs(t, err, errAccountLocked)
	})

	t.Run("disabled account is refused", func(t *testing.T) {
		f := newAuthFixture(t)
		user := newTestUser(t, tenantID, identity.RoleUser)
		require.NoError(t, user.SetStatus(identity.UserStatusDisabled))
		f.repo.On("FindByLogin", mock.Anything, tenantID, "alice_01").Return(user, nil)

		_, err := f.svc.Login(context.Background(), LoginInput{TenantID: tenantID, Login: "alice_01", Password: "Secret123"})
		assert.ErrorIs(t, err, errAccountDisabled)
	})
}

func TestAuthService_RefreshToken(t *testing.T) {
	tenantID := uuid.New()

	t.Run("picks up role changes", func(t *testing.T) {
		f := newAuthFixture(t)
		user := newTestUser(t, tenantID, identity.RoleUser)
		pair, err := f.jwt.GenerateTokenPair(subjectOf(user))
		require.NoError(t, err)

		require.NoError(t, user.ChangeRole(identity.RoleSeller))
		f.repo.On("FindByID", mock.Anything, tenantID, user.ID).Return(user, nil)

		result, err := f.svc.RefreshToken(context.Background(), pair.RefreshToken)
		require.NoError(t, err)

		claims, err := f.jwt.ValidateAccessToken(result.AccessToken)
		require.NoError(t, err)
		assert.Equal(t, "seller", claims.Role)
	})

	t.Run("invalid token", func(t *testing.T) {
		f := newAuthFixture(t)
		_, err := f.svc.RefreshToken(context.Background(), "not-a-token")
		var domainErr *shared.DomainError
		require.ErrorAs(t, err, &domainErr)
		assert.Equal(t, "TOKEN_INVALID", domainErr.Code)
	})

	t.Run("disabled user cannot refresh", func(t *testing.T) {
		f := newAuthFixture(t)
		user := newTestUser(t, tenantID, identity.RoleUser)
		pair, err := f.jwt.GenerateTokenPair(subjectOf(user))
		require.NoError(t, err)
		require.NoError(t, user.SetStatus(identity.UserStatusDisabled))
		f.repo.On("FindByID", mock.Anything, tenantID, user.ID).Return(user, nil)

		_, err = f.svc.RefreshToken(context.Background(), pair.RefreshToken)
		assert.ErrorIs(t, err, errAccountDisabled)
	})
}

func TestAuthService_Logout(t *testing.T) {
	f := newAuthFixture(t)
	ctx := context.Background()

	require.NoError(t, f.svc.Logout(ctx, LogoutInput{TokenJTI: "jti-1", TokenTTL: time.Minute}))
	blacklisted, err := f.blacklist.IsBlacklisted(ctx, "jti-1")
	require.NoError(t, err)
	assert.True(t, blacklisted)

	// an expired token needs no entry
	require.NoError(t, f.svc.Logout(ctx, LogoutInput{TokenJTI: "jti-2"}))
	blacklisted, err = f.blacklist.IsBlacklisted(ctx, "jti-2")
	require.NoError(t, err)
	assert.False(t, blacklisted)

	t.Run("refresh token of the session stops working", func(t *testing.T) {
		tenantID := uuid.New()
		user := newTestUser(t, tenantID, identity.RoleUser)
		f.repo.On("FindByID", mock.Anything, tenantID, user.ID).Return(user, nil)

		pair, err := f.jwt.GenerateTokenPair(subjectOf(user))
		require.NoError(t, err)
		access, err := f.jwt.ValidateAccessToken(pair.AccessToken)
		require.NoError(t, err)

		other, err := f.jwt.GenerateTokenPair(subjectOf(user))
		require.NoError(t, err)

		require.NoError(t, f.svc.Logout(ctx, LogoutInput{
			TenantID:  tenantID,
			UserID:    user.ID,
			TokenJTI:  access.ID,
			TokenTTL:  access.RemainingTTL(),
			SessionID: access.SessionID,
		}))

		_, err = f.svc.RefreshToken(ctx, pair.RefreshToken)
		var derr *shared.DomainError
		require.ErrorAs(t, err, &derr)
		assert.Equal(t, "TOKEN_REVOKED", derr.Code)

		// other logins of the same user are unaffected
		_, err = f.svc.RefreshToken(ctx, other.RefreshToken)
		assert.NoError(t, err)
	})
}

var tokenPattern = regexp.MustCompile(`token=([0-9a-f]{64})`)

func TestAuthService_ForgotAndResetPassword(t *testing.T) {
	tenantID := uuid.New()
	ctx := context.Background()

	t.Run("emails a single-use link and resets the password", func(t *testing.T) {
		f := newAuthFixture(t)
		user := newTestUser(t, tenantID, identity.RoleUser)
		f.repo.On("FindByEmail", mock.Anything, tenantID, "alice@example.com").Return(user, nil)
		f.repo.On("FindByID", mock.Anything, tenantID, user.ID).Return(user, nil)
		f.repo.On("Update", mock.Anything, user).Return(nil)

		require.NoError(t, f.svc.ForgotPassword(ctx, tenantID, "alice@example.com"))
		require.Len(t, f.mailer.sent, 1)
		assert.Equal(t, "alice@example.com", f.mailer.sent[0].To)

		match := tokenPattern.FindStringSubmatch(f.mailer.sent[0].Text)
		require.Len(t, match, 2)
		assert.Contains(t, f.mailer.sent[0].Text, "http://shop.test/reset-password?token=")

		issuedBefore := time.Now().Add(-time.Second)
		require.NoError(t, f.svc.ResetPassword(ctx, ResetPasswordInput{Token: match[1], Password: "NewSecret9"}))
		assert.True(t, user.VerifyPassword("NewSecret9"))

		revoked, err := f.blacklist.IsUserTokenInvalidated(ctx, user.ID.String(), issuedBefore)
		require.NoError(t, err)
		assert.True(t, revoked)

		err = f.svc.ResetPassword(ctx, ResetPasswordInput{Token: match[1], Password: "Another9x"})
		assert.ErrorIs(t, err, errInvalidResetToken)
	})

	t.Run("unknown email succeeds silently", func(t *testing.T) {
		f := newAuthFixture(t)
		f.repo.On("FindByEmail", mock.Anything, tenantID, "nobody@example.com").Return(nil, shared.NotFound("User"))

		require.NoError(t, f.svc.ForgotPassword(ctx, tenantID, "nobody@example.com"))
		assert.Empty(t, f.mailer.sent)
	})

	t.Run("mail failure discards the token", func(t *testing.T) {
		f := newAuthFixture(t)
		f.mailer.err = errors.New("smtp down")
		user := newTestUser(t, tenantID, identity.RoleUser)
		f.repo.On("FindByEmail", mock.Anything, tenantID, "alice@example.com").Return(user, nil)

		err := f.svc.ForgotPassword(ctx, tenantID, "alice@example.com")
		var domainErr *shared.DomainError
		require.ErrorAs(t, err, &domainErr)
		assert.Equal(t, "EMAIL_SEND_FAILED", domainErr.Code)
	})

	t.Run("weak password keeps the token", func(t *testing.T) {
		f := newAuthFixture(t)
		require.NoError(t, f.resets.Save(ctx, "tok", identity.ResetTokenRef{TenantID: tenantID, UserID: uuid.New()}, time.Minute))

		err := f.svc.ResetPassword(ctx, ResetPasswordInput{Token: "tok", Password: "short"})
		require.Error(t, err)

		_, err = f.resets.Consume(ctx, "tok")
		assert.NoError(t, err)
	})
}
