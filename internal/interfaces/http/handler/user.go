package handler

import (
	"github.com/gin-gonic/gin"

	appidentity "github.com/unimerch/backend/internal/application/identity"
	"github.com/unimerch/backend/internal/application/trade"
	"github.com/unimerch/backend/internal/domain/identity"
	"github.com/unimerch/backend/internal/domain/shared"
)

// UserHandler serves profile and account administration endpoints
type UserHandler struct {
	BaseHandler
	userService  *appidentity.UserService
	orderService *trade.OrderService
}

// NewUserHandler creates a new user handler
func NewUserHandler(userService *appidentity.UserService, orderService *trade.OrderService) *UserHandler {
	return &UserHandler{userService: userService, orderService: orderService}
}

func (r UpdateProfileRequest) input() appidentity.UpdateProfileInput {
	return appidentity.UpdateProfileInput{
		FullName:  r.FullName,
		StudentID: r.StudentID,
		Phone:     r.Phone,
		Address:   r.Address,
		AvatarURL: r.AvatarURL,
		Email:     r.Email,
	}
}

// GetProfile godoc
// @Summary      Get own profile
// @Tags         users
// @Produce      json
// @Success      200 {object} dto.Response{data=appidentity.UserInfo}
// @Security     BearerAuth
// @Router       /users/profile [get]
func (h *UserHandler) GetProfile(c *gin.Context) {
	actor, ok := h.actor(c)
	if !ok {
		return
	}
	user, err := h.userService.GetByID(c.Request.Context(), tenantID(c), actor.UserID)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, "", user)
}

// UpdateProfile godoc
// @Summary      Update own profile
// @Tags         users
// @Accept       json
// @Produce      json
// @Param        request body UpdateProfileRequest true "Profile fields"
// @Success      200 {object} dto.Response{data=appidentity.UserInfo}
// @Failure      409 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /users/profile [put]
func (h *UserHandler) UpdateProfile(c *gin.Context) {
	actor, ok := h.actor(c)
	if !ok {
		return
	}
	var req UpdateProfileRequest
	if !h.bind(c, &req) {
		return
	}

	user, err := h.userService.UpdateProfile(c.Request.Context(), tenantID(c), actor.UserID, req.input())
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, "Profile updated successfully", user)
}

// DeleteProfile godoc
// @Summary      Delete own account
// @Tags         users
// @Produce      json
// @Success      200 {object} dto.Response
// @Security     BearerAuth
// @Router       /users/profile [delete]
func (h *UserHandler) DeleteProfile(c *gin.Context) {
	actor, ok := h.actor(c)
	if !ok {
		return
	}
	if err := h.userService.DeleteProfile(c.Request.Context(), tenantID(c), actor.UserID); err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, "Account deleted successfully", nil)
}

// ChangePassword godoc
// @Summary      Change own password
// @Tags         users
// @Accept       json
// @Produce      json
// @Param        request body ChangePasswordRequest true "Current and new password"
// @Success      200 {object} dto.Response
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /users/change-password [put]
func (h *UserHandler) ChangePassword(c *gin.Context) {
	actor, ok := h.actor(c)
	if !ok {
		return
	}
	var req ChangePasswordRequest
	if !h.bind(c, &req) {
		return
	}

	if err := h.userService.ChangePassword(c.Request.Context(), appidentity.ChangePasswordInput{
		TenantID:        tenantID(c),
		UserID:          actor.UserID,
		CurrentPassword: req.CurrentPassword,
		NewPassword:     req.NewPassword,
	}); err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, "Password changed successfully", nil)
}

// List godoc
// @Summary      List users
// @Tags         users
// @Produce      json
// @Param        search query string false "Username, email or name"
// @Param        role   query string false "Role" Enums(user, seller, admin)
// @Param        status query string false "Status" Enums(active, disabled)
// @Param        page   query int false "Page"
// @Param        limit  query int false "Page size"
// @Success      200 {object} dto.Response{data=[]appidentity.UserInfo,meta=dto.Meta}
// @Security     BearerAuth
// @Router       /users [get]
func (h *UserHandler) List(c *gin.Context) {
	var q ListUsersQuery
	if !h.bindQuery(c, &q) {
		return
	}

	input := appidentity.ListUsersInput{
		Search:     q.Search,
		Pagination: shared.NewPagination(q.Page, q.Limit),
	}
	if q.Role != "" {
		role := identity.Role(q.Role)
		input.Role = &role
	}
	if q.Status != "" {
		status := identity.UserStatus(q.Status)
		input.Status = &status
	}

	page, err := h.userService.List(c.Request.Context(), tenantID(c), input)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	Paged(c, page)
}

// Get godoc
// @Summary      Get a user
// @Tags         users
// @Produce      json
// @Param        id path string true "User ID"
// @Success      200 {object} dto.Response{data=appidentity.UserInfo}
// @Failure      404 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /users/{id} [get]
func (h *UserHandler) Get(c *gin.Context) {
	id, ok := h.pathUUID(c, "id")
	if !ok {
		return
	}
	user, err := h.userService.GetByID(c.Request.Context(), tenantID(c), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, "", user)
}

// Update godoc
// @Summary      Update a user
// @Tags         users
// @Accept       json
// @Produce      json
// @Param        id      path string true "User ID"
// @Param        request body AdminUpdateUserRequest true "Fields to change"
// @Success      200 {object} dto.Response{data=appidentity.UserInfo}
// @Security     BearerAuth
// @Router       /users/{id} [put]
func (h *UserHandler) Update(c *gin.Context) {
	actor, ok := h.actor(c)
	if !ok {
		return
	}
	id, ok := h.pathUUID(c, "id")
	if !ok {
		return
	}
	var req AdminUpdateUserRequest
	if !h.bind(c, &req) {
		return
	}

	input := appidentity.AdminUpdateUserInput{UpdateProfileInput: req.input()}
	if req.Status != nil {
		status := identity.UserStatus(*req.Status)
		input.Status = &status
	}
	user, err := h.userService.AdminUpdate(c.Request.Context(), tenantID(c), actor.UserID, id, input)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, "User updated successfully", user)
}

// ChangeRole godoc
// @Summary      Change a user's role
// @Tags         users
// @Accept       json
// @Produce      json
// @Param        id      path string true "User ID"
// @Param        request body ChangeRoleRequest true "New role"
// @Success      200 {object} dto.Response{data=appidentity.UserInfo}
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /users/{id}/role [put]
func (h *UserHandler) ChangeRole(c *gin.Context) {
	actor, ok := h.actor(c)
	if !ok {
		return
	}
	id, ok := h.pathUUID(c, "id")
	if !ok {
		return
	}
	var req ChangeRoleRequest
	if !h.bind(c, &req) {
		return
	}

	user, err := h.userService.ChangeRole(c.Request.Context(), tenantID(c), actor.UserID, id, identity.Role(req.Role))
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, "User role updated successfully", user)
}

// Delete godoc
// @Summary      Delete a user
// @Tags         users
// @Produce      json
// @Param        id path string true "User ID"
// @Success      200 {object} dto.Response
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /users/{id} [delete]
func (h *UserHandler) Delete(c *gin.Context) {
	actor, ok := h.actor(c)
	if !ok {
		return
	}
	id, ok := h.pathUUID(c, "id")
	if !ok {
		return
	}
	if err := h.userService.Delete(c.Request.Context(), tenantID(c), actor.UserID, id); err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, "User deleted successfully", nil)
}

// Orders godoc
// @Summary      List a user's orders
// @Description  Available to the user and to admins
// @Tags         users
// @Produce      json
// @Param        id     path  string true  "User ID"
// @Param        status query string false "Order status"
// @Param        page   query int    false "Page"
// @Param        limit  query int    false "Page size"
// @Success      200 {object} dto.Response{data=[]trade.OrderDTO,meta=dto.Meta}
// @Failure      403 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /users/{id}/orders [get]
func (h *UserHandler) Orders(c *gin.Context) {
	actor, ok := h.actor(c)
	if !ok {
		return
	}
	id, ok := h.pathUUID(c, "id")
	if !ok {
		return
	}
	if !actor.CanManage(id) {
		h.Forbidden(c, "You can only view your own orders")
		return
	}
	var q OrderListQuery
	if !h.bindQuery(c, &q) {
		return
	}

	input := q.input()
	input.UserID = &id
	page, err := h.orderService.AdminList(c.Request.Context(), tenantID(c), input)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	Paged(c, page)
}
