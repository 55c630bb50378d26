package domain

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// AssignmentStatus type for assignment lifecycle
type AssignmentStatus string

const (
	StatusPending   AssignmentStatus = "pending"
	StatusCompleted AssignmentStatus = "completed"
)

// Assignment connects a Training to a User. At most one assignment should exist
// per (userId, trainingId) pair; the service layer deduplicates before insert.
type Assignment struct {
	ID            primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	UserID        primitive.ObjectID `bson:"userId" json:"userId"`
	TrainingID    primitive.ObjectID `bson:"trainingId" json:"trainingId"`
	Status        AssignmentStatus   `bson:"status" json:"status"`
	AssignedDate  time.Time          `bson:"assignedDate" json:"assignedDate"`
	CompletedDate *time.Time         `bson:"completedDate,omitempty" json:"completedDate,omitempty"` // Set when status flips to completed; kept on un-complete for history
	ScheduledDate *time.Time         `bson:"scheduledDate,omitempty" json:"scheduledDate,omitempty"` // Session planned for this specific user
	TrainerName   string             `bson:"trainerName,omitempty" json:"trainerName,omitempty"`     // Overrides the training's trainer for this user, when set
	UpdatedAt     time.Time          `bson:"updatedAt" json:"updatedAt"`
}

// EffectiveStatus derives the display status of the assignment against its training.
// A completed assignment whose training has a validity period counts as pending again
// once completedDate + validityDays has passed, so the user shows up for renewal.
// The stored record is never mutated here.
func (a *Assignment) EffectiveStatus(training *Training, now time.Time) AssignmentStatus {
	if a.Status == StatusCompleted && training != nil && training.ValidityDays > 0 && a.CompletedDate != nil {
		expiry := a.CompletedDate.AddDate(0, 0, training.ValidityDays)
		if now.After(expiry) {
			return StatusPending
		}
	}
	return a.Status
}

// PopulatedAssignment merges an assignment with its training for dashboard views.
type PopulatedAssignment struct {
	Training        Training         `json:"training"`
	Assignment      Assignment       `json:"assignment"`
	EffectiveStatus AssignmentStatus `json:"effectiveStatus"`
}

// Participant pairs an assignment with the user it belongs to, for the
// training-centric view. User is nil when the user record no longer exists.
type Participant struct {
	Assignment Assignment `json:"assignment"`
	User       *User      `json:"user,omitempty"`
}
