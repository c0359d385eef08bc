package handler

// RegisterRequest represents an account registration
type RegisterRequest struct {
	Username  string `json:"username" binding:"required,min=3,max=50,username" example:"jdoe"`
	Email     string `json:"email" binding:"required,email,max=255" example:"jdoe@uni.edu"`
	Password  string `json:"password" binding:"required,max=128,strong_password" example:"Secret123"`
	FullName  string `json:"full_name" binding:"required,min=2,max=100" example:"John Doe"`
	StudentID string `json:"student_id" binding:"omitempty,max=20"`
	Phone     string `json:"phone" binding:"omitempty,vn_phone" example:"0912345678"`
	Address   string `json:"address" binding:"omitempty,max=500"`
	Role      string `json:"role" binding:"omitempty,oneof=user seller" example:"user"`
}

// LoginRequest represents a login with an email or a username
type LoginRequest struct {
	Login    string `json:"login" binding:"required,max=255" example:"jdoe"`
	Password string `json:"password" binding:"required,max=128" example:"Secret123"`
}

// RefreshTokenRequest represents a token refresh
type RefreshTokenRequest struct {
	RefreshToken string `json:"refresh_token" binding:"required"`
}

// ForgotPasswordRequest starts a password reset
type ForgotPasswordRequest struct {
	Email string `json:"email" binding:"required,email"`
}

// ResetPasswordRequest completes a password reset
type ResetPasswordRequest struct {
	Token    string `json:"token" binding:"required,len=64,hexadecimal"`
	Password string `json:"password" binding:"required,max=128,strong_password"`
}

// UpdateProfileRequest edits the caller's profile. Omitted fields are kept.
type UpdateProfileRequest struct {
	FullName  *string `json:"full_name" binding:"omitempty,min=2,max=100"`
	StudentID *string `json:"student_id" binding:"omitempty,max=20"`
	Phone     *string `json:"phone" binding:"omitempty,vn_phone"`
	Address   *string `json:"address" binding:"omitempty,max=500"`
	AvatarURL *string `json:"avatar_url" binding:"omitempty,max=500"`
	Email     *string `json:"email" binding:"omitempty,email,max=255"`
}

// AdminUpdateUserRequest edits any account
type AdminUpdateUserRequest struct {
	UpdateProfileRequest
	Status *string `json:"status" binding:"omitempty,oneof=active disabled"`
}

// ChangePasswordRequest changes the caller's password
type ChangePasswordRequest struct {
	CurrentPassword string `json:"current_password" binding:"required,max=128"`
	NewPassword     string `json:"new_password" binding:"required,max=128,strong_password"`
}

// ChangeRoleRequest assigns a role
type ChangeRoleRequest struct {
	Role string `json:"role" binding:"required,oneof=user seller admin"`
}

// ListUsersQuery filters the admin user list
type ListUsersQuery struct {
	Search string `form:"search"`
	Role   string `form:"role" binding:"omitempty,oneof=user seller admin"`
	Status string `form:"status" binding:"omitempty,oneof=active disabled"`
	Page   int    `form:"page" binding:"omitempty,min=1"`
	Limit  int    `form:"limit" binding:"omitempty,min=1"`
}
