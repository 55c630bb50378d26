package api

import (
	"errors"
	"fmt"
	"net/http"
	"time"

	"training-passport/internal/service"

	"github.com/gin-gonic/gin"
)

// AssignmentHandler holds the assignment service dependency.
type AssignmentHandler struct {
	assignmentService service.AssignmentService
}

// NewAssignmentHandler creates a new AssignmentHandler.
func NewAssignmentHandler(assignmentService service.AssignmentService) *AssignmentHandler {
	return &AssignmentHandler{assignmentService: assignmentService}
}

// --- Request Structs ---

type AssignRequest struct {
	UserID        string     `json:"userId" binding:"required"`
	ScheduledDate *time.Time `json:"scheduledDate"`
	TrainerName   string     `json:"trainerName"`
}

type BulkAssignRequest struct {
	UserIDs       []string   `json:"userIds" binding:"required,min=1"`
	ScheduledDate *time.Time `json:"scheduledDate"`
	TrainerName   string     `json:"trainerName"`
}

type SetStatusRequest struct {
	Completed *bool `json:"completed" binding:"required"`
}

// --- Handler Methods ---

// Assign links one user to a training, resetting the pair when it already exists.
func (h *AssignmentHandler) Assign(c *gin.Context) {
	trainingID := c.Param("trainingId")

	var req AssignRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, fmt.Sprintf("Validation error: %v", err))
		return
	}

	err := h.assignmentService.Assign(c.Request.Context(), trainingID, req.UserID, service.AssignInput{
		ScheduledDate: req.ScheduledDate,
		TrainerName:   req.TrainerName,
	})
	if err != nil {
		handleAssignmentServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "message": "Assignment successful"})
}

// BulkAssign links many users to a training in one atomic batch.
func (h *AssignmentHandler) BulkAssign(c *gin.Context) {
	trainingID := c.Param("trainingId")

	var req BulkAssignRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, fmt.Sprintf("Validation error: %v", err))
		return
	}

	err := h.assignmentService.BulkAssign(c.Request.Context(), trainingID, req.UserIDs, service.AssignInput{
		ScheduledDate: req.ScheduledDate,
		TrainerName:   req.TrainerName,
	})
	if err != nil {
		handleAssignmentServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "message": "Bulk assignment successful"})
}

// SetStatus marks an assignment completed or pending again.
func (h *AssignmentHandler) SetStatus(c *gin.Context) {
	assignmentID := c.Param("assignmentId")

	var req SetStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, fmt.Sprintf("Validation error: %v", err))
		return
	}

	if err := h.assignmentService.SetStatus(c.Request.Context(), assignmentID, *req.Completed); err != nil {
		handleAssignmentServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "message": "Status updated"})
}

// DeleteAssignment removes a single assignment.
func (h *AssignmentHandler) DeleteAssignment(c *gin.Context) {
	if err := h.assignmentService.Delete(c.Request.Context(), c.Param("assignmentId")); err != nil {
		handleAssignmentServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "message": "Assignment deleted"})
}

// GetMyTrainings returns the caller's populated assignments, effective status
// included, for the personal dashboard.
func (h *AssignmentHandler) GetMyTrainings(c *gin.Context) {
	userID, err := getUserIDFromContext(c)
	if err != nil {
		abortWithError(c, http.StatusInternalServerError, "Failed to get user ID from token")
		return
	}

	populated, err := h.assignmentService.GetTrainingsForUser(c.Request.Context(), userID)
	if err != nil {
		handleAssignmentServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, populated)
}

// GetUserTrainings returns another user's populated assignments (admin only).
func (h *AssignmentHandler) GetUserTrainings(c *gin.Context) {
	populated, err := h.assignmentService.GetTrainingsForUser(c.Request.Context(), c.Param("userId"))
	if err != nil {
		handleAssignmentServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, populated)
}

// GetCompletionReport returns per-training completion counts (admin only).
func (h *AssignmentHandler) GetCompletionReport(c *gin.Context) {
	report, err := h.assignmentService.GetCompletionReport(c.Request.Context())
	if err != nil {
		abortWithError(c, http.StatusInternalServerError, "Could not build report")
		return
	}
	c.JSON(http.StatusOK, report)
}

// handleAssignmentServiceError maps assignment service errors to HTTP statuses.
func handleAssignmentServiceError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrAssignmentNotFound):
		abortWithError(c, http.StatusNotFound, "Assignment not found")
	case errors.Is(err, service.ErrNoUsersSelected):
		abortWithError(c, http.StatusBadRequest, "No users selected")
	case errors.Is(err, service.ErrInvalidID):
		abortWithError(c, http.StatusBadRequest, "Invalid ID")
	default:
		abortWithError(c, http.StatusInternalServerError, "An unexpected error occurred")
	}
}
