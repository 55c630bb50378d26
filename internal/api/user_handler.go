package api

import (
	"errors"
	"fmt"
	"net/http"

	"training-passport/internal/domain"
	"training-passport/internal/service"

	"github.com/gin-gonic/gin"
)

// UserHandler holds the user service dependency.
type UserHandler struct {
	userService service.UserService
}

// NewUserHandler creates a new UserHandler.
func NewUserHandler(userService service.UserService) *UserHandler {
	return &UserHandler{userService: userService}
}

// --- Request Structs ---

type CreateUserRequest struct {
	Name       string                `json:"name" binding:"required,min=3"`
	Username   string                `json:"username" binding:"required,min=3"`
	Email      string                `json:"email" binding:"omitempty,email"`
	Password   string                `json:"password" binding:"required,min=4"`
	Role       domain.Role           `json:"role" binding:"required,oneof=admin user"`
	Categories []domain.UserCategory `json:"categories"`
}

type UpdateUserRequest struct {
	Name       string                `json:"name" binding:"required,min=3"`
	Username   string                `json:"username" binding:"required,min=3"`
	Email      string                `json:"email" binding:"omitempty,email"`
	Role       domain.Role           `json:"role" binding:"required,oneof=admin user"`
	Categories []domain.UserCategory `json:"categories"`
}

type AvatarUploadRequest struct {
	ContentType string `json:"contentType" binding:"required"`
}

type AvatarConfirmRequest struct {
	ObjectKey string `json:"objectKey" binding:"required"`
}

// --- Handler Methods ---

// CreateUser registers a new user account (admin only).
func (h *UserHandler) CreateUser(c *gin.Context) {
	var req CreateUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, fmt.Sprintf("Validation error: %v", err))
		return
	}

	user, err := h.userService.Create(c.Request.Context(), service.CreateUserInput{
		Name:       req.Name,
		Username:   req.Username,
		Email:      req.Email,
		Password:   req.Password,
		Role:       req.Role,
		Categories: req.Categories,
	})
	if err != nil {
		handleUserServiceError(c, err)
		return
	}

	c.JSON(http.StatusCreated, MapUserToResponse(user))
}

// UpdateUser edits a user's profile (admin only).
func (h *UserHandler) UpdateUser(c *gin.Context) {
	userID := c.Param("userId")

	var req UpdateUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, fmt.Sprintf("Validation error: %v", err))
		return
	}

	user, err := h.userService.Update(c.Request.Context(), userID, service.UpdateUserInput{
		Name:       req.Name,
		Username:   req.Username,
		Email:      req.Email,
		Role:       req.Role,
		Categories: req.Categories,
	})
	if err != nil {
		handleUserServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, MapUserToResponse(user))
}

// ListUsers returns every user (admin only).
func (h *UserHandler) ListUsers(c *gin.Context) {
	users, err := h.userService.GetAll(c.Request.Context())
	if err != nil {
		abortWithError(c, http.StatusInternalServerError, "Could not list users")
		return
	}

	responses := make([]UserResponse, 0, len(users))
	for i := range users {
		responses = append(responses, MapUserToResponse(&users[i]))
	}
	c.JSON(http.StatusOK, responses)
}

// PromoteUser raises a user to admin (admin only).
func (h *UserHandler) PromoteUser(c *gin.Context) {
	userID := c.Param("userId")

	if err := h.userService.Promote(c.Request.Context(), userID); err != nil {
		handleUserServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "message": "User promoted"})
}

// DeleteUser removes a user and cascades to their assignments (admin only).
// Self-deletion is rejected here, where the caller identity is known.
func (h *UserHandler) DeleteUser(c *gin.Context) {
	userID := c.Param("userId")

	callerID, err := getUserIDFromContext(c)
	if err != nil {
		abortWithError(c, http.StatusInternalServerError, "Failed to get user ID from token")
		return
	}
	if callerID == userID {
		abortWithError(c, http.StatusBadRequest, "You cannot delete yourself")
		return
	}

	if err := h.userService.Delete(c.Request.Context(), userID); err != nil {
		handleUserServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "message": "User deleted"})
}

// RequestAvatarUpload hands out a presigned PUT URL for the caller's avatar.
func (h *UserHandler) RequestAvatarUpload(c *gin.Context) {
	userID, err := getUserIDFromContext(c)
	if err != nil {
		abortWithError(c, http.StatusInternalServerError, "Failed to get user ID from token")
		return
	}

	var req AvatarUploadRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, fmt.Sprintf("Validation error: %v", err))
		return
	}

	resp, err := h.userService.RequestAvatarUploadURL(c.Request.Context(), userID, req.ContentType)
	if err != nil {
		if errors.Is(err, service.ErrInvalidContentType) {
			abortWithError(c, http.StatusBadRequest, "Content type must be an image type")
			return
		}
		handleUserServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, resp)
}

// ConfirmAvatarUpload stores the uploaded avatar's URL on the caller's profile.
func (h *UserHandler) ConfirmAvatarUpload(c *gin.Context) {
	userID, err := getUserIDFromContext(c)
	if err != nil {
		abortWithError(c, http.StatusInternalServerError, "Failed to get user ID from token")
		return
	}

	var req AvatarConfirmRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, fmt.Sprintf("Validation error: %v", err))
		return
	}

	user, err := h.userService.ConfirmAvatarUpload(c.Request.Context(), userID, req.ObjectKey)
	if err != nil {
		handleUserServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, MapUserToResponse(user))
}

// handleUserServiceError maps user service errors to HTTP statuses.
func handleUserServiceError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrUsernameTaken):
		abortWithError(c, http.StatusConflict, "Username is already in use")
	case errors.Is(err, service.ErrEmailTaken):
		abortWithError(c, http.StatusConflict, "Email is already in use")
	case errors.Is(err, service.ErrAdminNeedsEmail):
		abortWithError(c, http.StatusBadRequest, "Admins must have an email address")
	case errors.Is(err, service.ErrUserNotFound):
		abortWithError(c, http.StatusNotFound, "User not found")
	case errors.Is(err, service.ErrInvalidID):
		abortWithError(c, http.StatusBadRequest, "Invalid user ID")
	default:
		abortWithError(c, http.StatusInternalServerError, "An unexpected error occurred")
	}
}
