package domain

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// TrainingCategory classifies a training template.
type TrainingCategory string

const (
	CategorySeguridad      TrainingCategory = "Seguridad"
	CategoryCalidad        TrainingCategory = "Calidad"
	CategoryDPO            TrainingCategory = "DPO"
	CategoryTPM            TrainingCategory = "TPM"
	CategoryMedioAmbiente  TrainingCategory = "Medio Ambiente"
	CategoryMejoraEnfocada TrainingCategory = "Mejora Enfocada"
	CategoryObligatoria    TrainingCategory = "Obligatoria"
)

// TrainingUrgency indicates how urgently assignees should complete the training.
type TrainingUrgency string

const (
	UrgencyHigh   TrainingUrgency = "high"
	UrgencyMedium TrainingUrgency = "medium"
	UrgencyLow    TrainingUrgency = "low"
)

// Training is a reusable training template that can be assigned to many users.
type Training struct {
	ID            primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Title         string             `bson:"title" json:"title"`
	Description   string             `bson:"description" json:"description"`
	Category      TrainingCategory   `bson:"category" json:"category"`
	Urgency       TrainingUrgency    `bson:"urgency" json:"urgency"`
	Duration      int                `bson:"duration,omitempty" json:"duration,omitempty"` // Duration in minutes
	TrainerName   string             `bson:"trainerName" json:"trainerName"`               // Name of the person responsible for giving the training
	ScheduledDate *time.Time         `bson:"scheduledDate,omitempty" json:"scheduledDate,omitempty"` // Planned session date (pointer for nullability)
	ValidityDays  int                `bson:"validityDays,omitempty" json:"validityDays,omitempty"`   // 0 means the completion never expires
	CreatedAt     time.Time          `bson:"createdAt" json:"createdAt"`
	UpdatedAt     time.Time          `bson:"updatedAt" json:"updatedAt"`
}
