package identity

import (
	"context"

	"github.com/google/uuid"
	"github.com/unimerch/backend/internal/domain/identity"
	"github.com/unimerch/backend/internal/domain/shared"
	"github.com/unimerch/backend/internal/infrastructure/auth"
	"go.uber.org/zap"
)

var errSelfModification = shared.NewDomainError("SELF_MODIFICATION", "Admins cannot demote, disable or delete their own account")

// UserService handles profile and account management
type UserService struct {
	userRepo  identity.UserRepository
	blacklist auth.TokenBlacklist
	jwt       *auth.JWTService
	logger    *zap.Logger
}

// NewUserService creates a new user service
func NewUserService(
	userRepo identity.UserRepository,
	blacklist auth.TokenBlacklist,
	jwt *auth.JWTService,
	logger *zap.Logger,
) *UserService {
	return &UserService{
		userRepo:  userRepo,
		blacklist: blacklist,
		jwt:       jwt,
		logger:    logger,
	}
}

// GetByID returns one account
func (s *UserService) GetByID(ctx context.Context, tenantID, id uuid.UUID) (*UserInfo, error) {
	user, err := s.userRepo.FindByID(ctx, tenantID, id)
	if err != nil {
		return nil, err
	}
	info := ToUserInfo(user)
	return &info, nil
}

// UpdateProfile applies a self-service profile edit
func (s *UserService) UpdateProfile(ctx context.Context, tenantID, userID uuid.UUID, input UpdateProfileInput) (*UserInfo, error) {
	user, err := s.userRepo.FindByID(ctx, tenantID, userID)
	if err != nil {
		return nil, err
	}
	if err := s.applyProfile(ctx, user, input); err != nil {
		return nil, err
	}
	if err := s.userRepo.Update(ctx, user); err != nil {
		return nil, err
	}
	info := ToUserInfo(user)
	return &info, nil
}

// DeleteProfile removes the caller's own account
func (s *UserService) DeleteProfile(ctx context.Context, tenantID, userID uuid.UUID) error {
	user, err := s.userRepo.FindByID(ctx, tenantID, userID)
	if err != nil {
		return err
	}
	if user.IsAdmin() {
		return errSelfModification
	}
	return s.remove(ctx, user)
}

// ChangePassword verifies the current password and stores the new one
func (s *UserService) ChangePassword(ctx context.Context, input ChangePasswordInput) error {
	user, err := s.userRepo.FindByID(ctx, input.TenantID, input.UserID)
	if err != nil {
		return err
	}
	if err := user.ChangePassword(input.CurrentPassword, input.NewPassword); err != nil {
		return err
	}
	user.ClearDomainEvents()
	if err := s.userRepo.Update(ctx, user); err != nil {
		s.logger.Error("Failed to update user after password change", zap.Error(err))
		return err
	}

	s.logger.Info("User password changed", zap.String("user_id", user.ID.String()))
	return nil
}

// List returns a page of accounts for admins
func (s *UserService) List(ctx context.Context, tenantID uuid.UUID, input ListUsersInput) (shared.Page[UserInfo], error) {
	p := shared.NewPagination(input.Page, input.PageSize)
	users, total, err := s.userRepo.FindAll(ctx, tenantID, identity.UserFilter{
		Keyword:    input.Search,
		Role:       input.Role,
		Status:     input.Status,
		Pagination: p,
	})
	if err != nil {
		return shared.Page[UserInfo]{}, err
	}
	return shared.MapPage(shared.NewPage(users, total, p), ToUserInfo), nil
}

// SearchSellers is the public seller directory
func (s *UserService) SearchSellers(ctx context.Context, tenantID uuid.UUID, keyword string, p shared.Pagination) (shared.Page[PublicUser], error) {
	p = shared.NewPagination(p.Page, p.PageSize)
	role := identity.RoleSeller
	active := identity.UserStatusActive
	users, total, err := s.userRepo.FindAll(ctx, tenantID, identity.UserFilter{
		Keyword:    keyword,
		Role:       &role,
		Status:     &active,
		Pagination: p,
	})
	if err != nil {
		return shared.Page[PublicUser]{}, err
	}
	return shared.MapPage(shared.NewPage(users, total, p), ToPublicUser), nil
}

// AdminUpdate edits any account. An admin cannot disable themselves.
func (s *UserService) AdminUpdate(ctx context.Context, tenantID, actorID, id uuid.UUID, input AdminUpdateUserInput) (*UserInfo, error) {
	user, err := s.userRepo.FindByID(ctx, tenantID, id)
	if err != nil {
		return nil, err
	}
	if err := s.applyProfile(ctx, user, input.UpdateProfileInput); err != nil {
		return nil, err
	}
	if input.Status != nil {
		if id == actorID && *input.Status != identity.UserStatusActive {
			return nil, errSelfModification
		}
		if err := user.SetStatus(*input.Status); err != nil {
			return nil, err
		}
	}
	if err := s.userRepo.Update(ctx, user); err != nil {
		return nil, err
	}
	if user.Status == identity.UserStatusDisabled {
		s.revokeTokens(ctx, user)
	}

	s.logger.Info("User updated by admin",
		zap.String("user_id", id.String()),
		zap.String("admin_id", actorID.String()))
	info := ToUserInfo(user)
	return &info, nil
}

// ChangeRole assigns a role. An admin cannot demote themselves.
func (s *UserService) ChangeRole(ctx context.Context, tenantID, actorID, id uuid.UUID, role identity.Role) (*UserInfo, error) {
	if id == actorID && role != identity.RoleAdmin {
		return nil, errSelfModification
	}
	user, err := s.userRepo.FindByID(ctx, tenantID, id)
	if err != nil {
		return nil, err
	}
	if err := user.ChangeRole(role); err != nil {
		return nil, err
	}
	if err := s.userRepo.Update(ctx, user); err != nil {
		return nil, err
	}
	// tokens carry the role, so force a fresh login
	s.revokeTokens(ctx, user)

	s.logger.Info("User role changed",
		zap.String("user_id", id.String()),
		zap.String("role", string(role)),
		zap.String("admin_id", actorID.String()))
	info := ToUserInfo(user)
	return &info, nil
}

// Delete removes any account except the caller's own
func (s *UserService) Delete(ctx context.Context, tenantID, actorID, id uuid.UUID) error {
	if id == actorID {
		return errSelfModification
	}
	user, err := s.userRepo.FindByID(ctx, tenantID, id)
	if err != nil {
		return err
	}
	return s.remove(ctx, user)
}

func (s *UserService) remove(ctx context.Context, user *identity.User) error {
	if err := s.userRepo.Delete(ctx, user.TenantID, user.ID); err != nil {
		return err
	}
	s.revokeTokens(ctx, user)
	s.logger.Info("User deleted", zap.String("user_id", user.ID.String()))
	return nil
}

func (s *UserService) applyProfile(ctx context.Context, user *identity.User, input UpdateProfileInput) error {
	profile := identity.Profile{
		FullName:  pick(input.FullName, user.FullName),
		StudentID: pick(input.StudentID, user.StudentID),
		Phone:     pick(input.Phone, user.Phone),
		Address:   pick(input.Address, user.Address),
		AvatarURL: pick(input.AvatarURL, user.AvatarURL),
	}
	if err := user.UpdateProfile(profile); err != nil {
		return err
	}

	if input.Email != nil {
		if err := user.SetEmail(*input.Email); err != nil {
			return err
		}
		exists, err := s.userRepo.ExistsByEmail(ctx, user.TenantID, user.Email, user.ID)
		if err != nil {
			return err
		}
		if exists {
			return shared.NewDomainError("ALREADY_EXISTS", "Email is already in use")
		}
	}
	return nil
}

func (s *UserService) revokeTokens(ctx context.Context, user *identity.User) {
	if err := s.blacklist.AddUserTokensToBlacklist(ctx, user.ID.String(), s.jwt.RefreshTokenExpiration()); err != nil {
		s.logger.Warn("Failed to revoke user tokens", zap.String("user_id", user.ID.String()), zap.Error(err))
	}
}

func pick(v *string, current string) string {
	if v != nil {
		return *v
	}
	return current
}
