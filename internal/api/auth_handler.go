package api

import (
	"errors"
	"fmt"
	"net/http"
	"time"

	"training-passport/internal/domain"
	"training-passport/internal/service"

	"github.com/gin-gonic/gin"
)

// AuthHandler holds the authentication service dependency.
type AuthHandler struct {
	authService service.AuthService
}

// NewAuthHandler creates a new AuthHandler.
func NewAuthHandler(authService service.AuthService) *AuthHandler {
	return &AuthHandler{authService: authService}
}

// --- Request/Response Structs ---

type LoginRequest struct {
	// Identifier is the username or the email, either works.
	Identifier string `json:"identifier" binding:"required"`
	Password   string `json:"password" binding:"required"`
}

// UserResponse excludes sensitive info like password hash
type UserResponse struct {
	ID         string                `json:"id"`
	Name       string                `json:"name"`
	Username   string                `json:"username"`
	Email      string                `json:"email,omitempty"`
	AvatarURL  string                `json:"avatarUrl,omitempty"`
	Role       domain.Role           `json:"role"`
	Categories []domain.UserCategory `json:"categories,omitempty"`
	CreatedAt  time.Time             `json:"createdAt"`
}

type LoginResponse struct {
	Token string       `json:"token"`
	User  UserResponse `json:"user"`
}

type ChangePasswordRequest struct {
	CurrentPassword string `json:"currentPassword" binding:"required"`
	NewPassword     string `json:"newPassword" binding:"required,min=4"`
	ConfirmPassword string `json:"confirmPassword" binding:"required,eqfield=NewPassword"`
}

// MapUserToResponse converts a domain user into its API shape.
func MapUserToResponse(user *domain.User) UserResponse {
	return UserResponse{
		ID:         user.ID.Hex(),
		Name:       user.Name,
		Username:   user.Username,
		Email:      user.Email,
		AvatarURL:  user.AvatarURL,
		Role:       user.Role,
		Categories: user.Categories,
		CreatedAt:  user.CreatedAt,
	}
}

// --- Handler Methods ---

// Login authenticates by username or email and returns a JWT token.
func (h *AuthHandler) Login(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, fmt.Sprintf("Validation error: %v", err))
		return
	}

	token, user, err := h.authService.Login(c.Request.Context(), req.Identifier, req.Password)
	if err != nil {
		if errors.Is(err, service.ErrAuthenticationFailed) {
			abortWithError(c, http.StatusUnauthorized, "Invalid credentials")
		} else {
			abortWithError(c, http.StatusInternalServerError, "An unexpected error occurred during login")
		}
		return
	}

	c.JSON(http.StatusOK, LoginResponse{
		Token: token,
		User:  MapUserToResponse(user),
	})
}

// ChangePassword verifies the caller's current password and stores the new one.
func (h *AuthHandler) ChangePassword(c *gin.Context) {
	userID, err := getUserIDFromContext(c)
	if err != nil {
		abortWithError(c, http.StatusInternalServerError, "Failed to get user ID from token")
		return
	}

	var req ChangePasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, fmt.Sprintf("Validation error: %v", err))
		return
	}

	err = h.authService.ChangePassword(c.Request.Context(), userID, req.CurrentPassword, req.NewPassword)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrWrongPassword):
			abortWithError(c, http.StatusUnauthorized, "Current password is incorrect")
		case errors.Is(err, service.ErrInvalidID):
			abortWithError(c, http.StatusBadRequest, "Invalid user ID")
		default:
			abortWithError(c, http.StatusInternalServerError, "Could not change password")
		}
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "message": "Password updated successfully"})
}
