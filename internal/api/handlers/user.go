package handlers

import (
	"github.com/floatbank/floatbank/internal/audit"
	"github.com/floatbank/floatbank/internal/models"
	"github.com/floatbank/floatbank/internal/response"
	"github.com/floatbank/floatbank/internal/service"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// UserHandler serves the admin user-management endpoints
type UserHandler struct {
	users    *service.UserService
	recorder *audit.Recorder
}

// NewUserHandler creates a new UserHandler
func NewUserHandler(users *service.UserService, recorder *audit.Recorder) *UserHandler {
	return &UserHandler{users: users, recorder: recorder}
}

// Request types
type CreateUserRequest struct {
	Name                 string `json:"name" form:"name" binding:"required,max=255"`
	Email                string `json:"email" form:"email" binding:"required,email,max=255"`
	Phone                string `json:"phone" form:"phone" binding:"required,max=32"`
	Password             string `json:"password" form:"password" binding:"required,min=8"`
	PasswordConfirmation string `json:"password_confirmation" form:"password_confirmation" binding:"required,eqfield=Password"`
	IsAdmin              bool   `json:"is_admin" form:"is_admin"`
}

type UpdateUserRequest struct {
	Name     *string `json:"name" form:"name" binding:"omitempty,min=1,max=255"`
	Email    *string `json:"email" form:"email" binding:"omitempty,email,max=255"`
	Phone    *string `json:"phone" form:"phone" binding:"omitempty,min=1,max=32"`
	Password *string `json:"password" form:"password" binding:"omitempty,min=8"`
}

type UpdateStatusRequest struct {
	Status string `json:"status" form:"status" binding:"required,oneof=active inactive"`
}

type BulkDeleteRequest struct {
	IDs []string `json:"ids" form:"ids"`
}

type UserWithAdminStatus struct {
	models.User
	IsAdmin bool `json:"is_admin"`
}

// ListUsers godoc
// @Summary List all users (admin only)
// @Tags users
// @Security BearerAuth
// @Produce json
// @Success 200 {object} response.Envelope{result=[]UserWithAdminStatus}
// @Router /users [get]
func (h *UserHandler) ListUsers(c *gin.Context) {
	users, err := h.users.List(c.Request.Context())
	if err != nil {
		writeError(c, "Failed to fetch users", err)
		return
	}

	// Get all admin user IDs in ONE Casbin call
	adminUserIDs, err := h.users.AdminIDs()
	if err != nil {
		writeError(c, "Failed to check admin status", err)
		return
	}

	usersWithStatus := make([]UserWithAdminStatus, len(users))
	for i, user := range users {
		usersWithStatus[i] = UserWithAdminStatus{
			User:    user,
			IsAdmin: adminUserIDs[user.ID],
		}
	}

	response.OK(c, usersWithStatus, "Users retrieved successfully")
}

// CreateUser godoc
// @Summary Create a new user (admin only)
// @Tags users
// @Security BearerAuth
// @Accept json,mpfd
// @Produce json
// @Param user body CreateUserRequest true "User details"
// @Success 201 {object} response.Envelope{result=UserWithAdminStatus}
// @Failure 422 {object} response.Envelope
// @Router /users [post]
func (h *UserHandler) CreateUser(c *gin.Context) {
	actor := mustCurrentUser(c)

	var req CreateUserRequest
	if !bindRequest(c, &req) {
		return
	}

	image, err := openImage(c)
	if err != nil {
		response.Invalid(c, "The given data was invalid", response.FieldError{Field: "image", Message: "The image failed to upload."})
		return
	}
	if image != nil {
		defer image.Close()
	}

	in := service.CreateUserInput{
		Name:     req.Name,
		Email:    req.Email,
		Phone:    req.Phone,
		Password: req.Password,
	}
	if image != nil {
		in.Image = image
	}

	user, err := h.users.Create(c.Request.Context(), in)
	if err != nil {
		h.failed(c, actor, "create user", audit.Fields{"email": req.Email}, err)
		writeError(c, "Failed to create user", err)
		return
	}

	// If admin flag is set, grant admin permissions
	if req.IsAdmin {
		if err := h.users.SetAdmin(user.ID, true); err != nil {
			h.failed(c, actor, "create user", audit.Fields{"user_id": user.ID.String()}, err)
			writeError(c, "Failed to grant admin permissions", err)
			return
		}
	}

	h.recorder.Log(c.Request.Context(), audit.Entry{
		LogName:     audit.LogUser,
		Description: audit.DescUserCreated,
		Causer:      actor,
		Request:     audit.RequestFrom(c),
		Context:     audit.Change{UserID: user.ID, After: audit.SnapshotOf(user)},
	})

	response.Created(c, UserWithAdminStatus{User: *user, IsAdmin: req.IsAdmin}, "User created successfully")
}

// GetUser godoc
// @Summary Get user by ID (admin only)
// @Tags users
// @Security BearerAuth
// @Param id path string true "User UUID"
// @Success 200 {object} response.Envelope{result=UserWithAdminStatus}
// @Failure 404 {object} response.Envelope
// @Router /users/{id} [get]
func (h *UserHandler) GetUser(c *gin.Context) {
	userID, ok := parseID(c)
	if !ok {
		return
	}

	user, err := h.users.Get(c.Request.Context(), userID)
	if err != nil {
		writeError(c, "User not found", err)
		return
	}

	isAdmin, err := h.users.IsAdmin(user.ID)
	if err != nil {
		writeError(c, "Failed to check admin status", err)
		return
	}

	response.OK(c, UserWithAdminStatus{User: *user, IsAdmin: isAdmin}, "User retrieved successfully")
}

// UpdateUser godoc
// @Summary Update a user (admin only)
// @Description Applies the provided fields only. Accepts JSON or multipart with an optional image.
// @Tags users
// @Security BearerAuth
// @Accept json,mpfd
// @Produce json
// @Param id path string true "User UUID"
// @Param user body UpdateUserRequest true "Fields to change"
// @Success 200 {object} response.Envelope{result=models.User}
// @Failure 404 {object} response.Envelope
// @Failure 422 {object} response.Envelope
// @Router /users/{id} [put]
func (h *UserHandler) UpdateUser(c *gin.Context) {
	actor := mustCurrentUser(c)

	userID, ok := parseID(c)
	if !ok {
		return
	}

	var req UpdateUserRequest
	if c.Request.ContentLength != 0 && !bindRequest(c, &req) {
		return
	}

	image, err := openImage(c)
	if err != nil {
		response.Invalid(c, "The given data was invalid", response.FieldError{Field: "image", Message: "The image failed to upload."})
		return
	}
	if image != nil {
		defer image.Close()
	}

	in := service.UpdateUserInput{
		Name:     req.Name,
		Email:    req.Email,
		Phone:    req.Phone,
		Password: req.Password,
	}
	if image != nil {
		in.Image = image
	}

	change, err := h.users.Update(c.Request.Context(), userID, in)
	if err != nil {
		h.failed(c, actor, "update user", audit.Fields{"user_id": userID.String()}, err)
		writeError(c, "Failed to update user", err)
		return
	}

	h.recorder.Log(c.Request.Context(), audit.Entry{
		LogName:     audit.LogUser,
		Description: audit.DescUserUpdated,
		Causer:      actor,
		Request:     audit.RequestFrom(c),
		Context: audit.Change{
			UserID: userID,
			Before: audit.SnapshotOf(change.Before),
			After:  audit.SnapshotOf(change.After),
		},
	})

	response.OK(c, change.After, "User updated successfully")
}

// UpdateUserStatus godoc
// @Summary Activate or deactivate a user (admin only)
// @Tags users
// @Security BearerAuth
// @Accept json
// @Produce json
// @Param id path string true "User UUID"
// @Param status body UpdateStatusRequest true "New status"
// @Success 200 {object} response.Envelope{result=models.User}
// @Failure 404 {object} response.Envelope
// @Failure 422 {object} response.Envelope
// @Router /users/{id}/status [patch]
func (h *UserHandler) UpdateUserStatus(c *gin.Context) {
	actor := mustCurrentUser(c)

	userID, ok := parseID(c)
	if !ok {
		return
	}

	var req UpdateStatusRequest
	if !bindRequest(c, &req) {
		return
	}

	status := models.UserStatus(req.Status)
	if userID == actor.ID && status != models.UserStatusActive {
		err := service.Invalid("status", "You cannot deactivate your own account.")
		h.failed(c, actor, "change user status", audit.Fields{"user_id": userID.String()}, err)
		writeError(c, "Failed to change user status", err)
		return
	}

	change, err := h.users.SetStatus(c.Request.Context(), userID, status)
	if err != nil {
		h.failed(c, actor, "change user status", audit.Fields{"user_id": userID.String()}, err)
		writeError(c, "Failed to change user status", err)
		return
	}

	h.recorder.Log(c.Request.Context(), audit.Entry{
		LogName:     audit.LogUser,
		Description: audit.DescStatusChanged,
		Causer:      actor,
		Request:     audit.RequestFrom(c),
		Context: audit.StatusChange{
			UserID:    userID,
			OldStatus: change.Before.Status,
			NewStatus: change.After.Status,
		},
	})

	response.OK(c, change.After, "User status updated successfully")
}

// DeleteUser godoc
// @Summary Delete a user (admin only)
// @Tags users
// @Security BearerAuth
// @Param id path string true "User UUID"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Failure 422 {object} response.Envelope
// @Router /users/{id} [delete]
func (h *UserHandler) DeleteUser(c *gin.Context) {
	actor := mustCurrentUser(c)

	userID, ok := parseID(c)
	if !ok {
		return
	}

	if userID == actor.ID {
		err := service.Invalid("id", "You cannot delete your own account.")
		h.failed(c, actor, "delete user", audit.Fields{"user_id": userID.String()}, err)
		writeError(c, "Failed to delete user", err)
		return
	}

	deleted, err := h.users.Delete(c.Request.Context(), userID)
	if err != nil {
		h.failed(c, actor, "delete user", audit.Fields{"user_id": userID.String()}, err)
		writeError(c, "Failed to delete user", err)
		return
	}

	h.recorder.Log(c.Request.Context(), audit.Entry{
		LogName:     audit.LogUser,
		Description: audit.DescUserDeleted,
		Causer:      actor,
		Request:     audit.RequestFrom(c),
		Context:     audit.Change{UserID: userID, Before: audit.SnapshotOf(deleted)},
	})

	response.OK(c, nil, "User deleted successfully")
}

// BulkDeleteUsers godoc
// @Summary Delete several users at once (admin only)
// @Description Deletes every listed user or none of them
// @Tags users
// @Security BearerAuth
// @Accept json
// @Produce json
// @Param ids body BulkDeleteRequest true "User UUIDs"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Failure 422 {object} response.Envelope
// @Router /users/bulk-delete [post]
func (h *UserHandler) BulkDeleteUsers(c *gin.Context) {
	actor := mustCurrentUser(c)

	var req BulkDeleteRequest
	if !bindRequest(c, &req) {
		return
	}

	ids, err := parseIDs(req.IDs, actor.ID)
	if err != nil {
		h.failed(c, actor, "bulk delete users", audit.Fields{"ids": req.IDs}, err)
		writeError(c, "Failed to delete users", err)
		return
	}

	deleted, err := h.users.DeleteMany(c.Request.Context(), ids)
	if err != nil {
		h.failed(c, actor, "bulk delete users", audit.Fields{"ids": req.IDs}, err)
		writeError(c, "Failed to delete users", err)
		return
	}

	snapshots := make([]audit.UserSnapshot, len(deleted))
	for i := range deleted {
		snapshots[i] = *audit.SnapshotOf(&deleted[i])
	}
	h.recorder.Log(c.Request.Context(), audit.Entry{
		LogName:     audit.LogUser,
		Description: audit.DescUsersDeleted,
		Causer:      actor,
		Request:     audit.RequestFrom(c),
		Context:     audit.BulkDelete{IDs: ids, Deleted: snapshots},
	})

	response.OK(c, gin.H{"deleted": len(deleted)}, "Users deleted successfully")
}

// parseIDs validates a bulk-delete ID list. It never touches the store.
func parseIDs(raw []string, self uuid.UUID) ([]uuid.UUID, error) {
	if len(raw) == 0 {
		return nil, service.Invalid("ids", "The ids field is required.")
	}
	ids := make([]uuid.UUID, 0, len(raw))
	for _, s := range raw {
		id, err := uuid.Parse(s)
		if err != nil {
			return nil, service.Invalid("ids", "The ids must contain valid identifiers.")
		}
		if id == self {
			return nil, service.Invalid("ids", "You cannot delete your own account.")
		}
		ids = append(ids, id)
	}
	return ids, nil
}

// failed records an unsuccessful user-management action by actor
func (h *UserHandler) failed(c *gin.Context, actor *models.User, action string, fields audit.Fields, err error) {
	fields["error"] = err.Error()
	h.recorder.Log(c.Request.Context(), audit.Entry{
		LogName:     audit.LogUser,
		Description: audit.FailureDescription(action),
		Causer:      actor,
		Request:     audit.RequestFrom(c),
		Context:     fields,
	})
}
