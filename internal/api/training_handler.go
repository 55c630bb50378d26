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

// TrainingHandler holds the training service dependency.
type TrainingHandler struct {
	trainingService service.TrainingService
}

// NewTrainingHandler creates a new TrainingHandler.
func NewTrainingHandler(trainingService service.TrainingService) *TrainingHandler {
	return &TrainingHandler{trainingService: trainingService}
}

// --- Request Structs ---

type TrainingRequest struct {
	Title         string                  `json:"title" binding:"required,min=3"`
	Description   string                  `json:"description" binding:"required,min=10"`
	Category      domain.TrainingCategory `json:"category" binding:"required,oneof=Seguridad Calidad DPO TPM 'Medio Ambiente' 'Mejora Enfocada' Obligatoria"`
	Urgency       domain.TrainingUrgency  `json:"urgency" binding:"required,oneof=high medium low"`
	Duration      int                     `json:"duration" binding:"required,min=1"`
	TrainerName   string                  `json:"trainerName" binding:"required"`
	ScheduledDate *time.Time              `json:"scheduledDate"`
	ValidityDays  int                     `json:"validityDays" binding:"omitempty,min=0"`
}

func (r *TrainingRequest) toInput() service.TrainingInput {
	return service.TrainingInput{
		Title:         r.Title,
		Description:   r.Description,
		Category:      r.Category,
		Urgency:       r.Urgency,
		Duration:      r.Duration,
		TrainerName:   r.TrainerName,
		ScheduledDate: r.ScheduledDate,
		ValidityDays:  r.ValidityDays,
	}
}

// --- Handler Methods ---

// CreateTraining stores a new training template (admin only).
func (h *TrainingHandler) CreateTraining(c *gin.Context) {
	var req TrainingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, fmt.Sprintf("Validation error: %v", err))
		return
	}

	training, err := h.trainingService.Create(c.Request.Context(), req.toInput())
	if err != nil {
		abortWithError(c, http.StatusInternalServerError, "Could not create training")
		return
	}

	c.JSON(http.StatusCreated, training)
}

// UpdateTraining edits a training template (admin only).
func (h *TrainingHandler) UpdateTraining(c *gin.Context) {
	trainingID := c.Param("trainingId")

	var req TrainingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, fmt.Sprintf("Validation error: %v", err))
		return
	}

	training, err := h.trainingService.Update(c.Request.Context(), trainingID, req.toInput())
	if err != nil {
		handleTrainingServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, training)
}

// ListTrainings returns every training template.
func (h *TrainingHandler) ListTrainings(c *gin.Context) {
	trainings, err := h.trainingService.GetAll(c.Request.Context())
	if err != nil {
		abortWithError(c, http.StatusInternalServerError, "Could not list trainings")
		return
	}
	c.JSON(http.StatusOK, trainings)
}

// GetTraining returns one training template.
func (h *TrainingHandler) GetTraining(c *gin.Context) {
	training, err := h.trainingService.GetByID(c.Request.Context(), c.Param("trainingId"))
	if err != nil {
		handleTrainingServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, training)
}

// DeleteTraining removes a training and cascades to its assignments (admin only).
func (h *TrainingHandler) DeleteTraining(c *gin.Context) {
	if err := h.trainingService.Delete(c.Request.Context(), c.Param("trainingId")); err != nil {
		handleTrainingServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "message": "Training deleted"})
}

// GetParticipants lists the users assigned to a training (admin only).
func (h *TrainingHandler) GetParticipants(c *gin.Context) {
	participants, err := h.trainingService.GetParticipants(c.Request.Context(), c.Param("trainingId"))
	if err != nil {
		handleTrainingServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, participants)
}

// handleTrainingServiceError maps training service errors to HTTP statuses.
func handleTrainingServiceError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrTrainingNotFound):
		abortWithError(c, http.StatusNotFound, "Training not found")
	case errors.Is(err, service.ErrInvalidID):
		abortWithError(c, http.StatusBadRequest, "Invalid training ID")
	default:
		abortWithError(c, http.StatusInternalServerError, "An unexpected error occurred")
	}
}
