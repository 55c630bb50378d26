package repository

import (
	"context"
	"time"

	"training-passport/internal/domain"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Error constants for repository layer
var (
	ErrNotFound     = RepositoryError("not found")
	ErrUpdateFailed = RepositoryError("update failed")
	ErrDeleteFailed = RepositoryError("delete failed")
)

// RepositoryError helps distinguish repository errors
type RepositoryError string

func (e RepositoryError) Error() string {
	return string(e)
}

// UserRepository defines the interface for interacting with user data.
type UserRepository interface {
	Create(ctx context.Context, user *domain.User) (primitive.ObjectID, error)
	GetByID(ctx context.Context, id primitive.ObjectID) (*domain.User, error)
	GetByUsername(ctx context.Context, username string) (*domain.User, error)
	GetByEmail(ctx context.Context, email string) (*domain.User, error)
	GetAll(ctx context.Context) ([]domain.User, error)
	Update(ctx context.Context, user *domain.User) error
	UpdatePassword(ctx context.Context, id primitive.ObjectID, passwordHash string) error
	SetRole(ctx context.Context, id primitive.ObjectID, role domain.Role) error
	SetAvatarURL(ctx context.Context, id primitive.ObjectID, avatarURL string) error
	// Delete removes the user and every assignment referencing it in one batch.
	Delete(ctx context.Context, id primitive.ObjectID) error
	Count(ctx context.Context) (int64, error)
}

// TrainingRepository defines the interface for interacting with training templates.
type TrainingRepository interface {
	Create(ctx context.Context, training *domain.Training) (primitive.ObjectID, error)
	GetByID(ctx context.Context, id primitive.ObjectID) (*domain.Training, error)
	GetByIDs(ctx context.Context, ids []primitive.ObjectID) ([]domain.Training, error)
	GetAll(ctx context.Context) ([]domain.Training, error)
	Update(ctx context.Context, training *domain.Training) error
	// Delete removes the training and every assignment referencing it in one batch.
	Delete(ctx context.Context, id primitive.ObjectID) error
}

// ReassignFields carries the per-assignment fields a re-assignment may overwrite.
// Nil / empty fields are left untouched on the stored document.
type ReassignFields struct {
	ScheduledDate *time.Time
	TrainerName   string
}

// AssignmentRepository defines the interface for interacting with assignment data.
type AssignmentRepository interface {
	Create(ctx context.Context, assignment *domain.Assignment) (primitive.ObjectID, error)
	GetByID(ctx context.Context, id primitive.ObjectID) (*domain.Assignment, error)
	GetByUserID(ctx context.Context, userID primitive.ObjectID) ([]domain.Assignment, error)
	GetByTrainingID(ctx context.Context, trainingID primitive.ObjectID) ([]domain.Assignment, error)
	GetByUserAndTraining(ctx context.Context, userID, trainingID primitive.ObjectID) (*domain.Assignment, error)
	GetByTrainingAndUsers(ctx context.Context, trainingID primitive.ObjectID, userIDs []primitive.ObjectID) ([]domain.Assignment, error)
	GetAll(ctx context.Context) ([]domain.Assignment, error)
	GetAssignedSince(ctx context.Context, since time.Time) ([]domain.Assignment, error)
	// Reassign resets the assignment to pending, overwriting scheduled date and
	// trainer only when provided. completedDate is deliberately kept.
	Reassign(ctx context.Context, id primitive.ObjectID, fields ReassignFields) error
	SetStatus(ctx context.Context, id primitive.ObjectID, status domain.AssignmentStatus, completedDate *time.Time) error
	Delete(ctx context.Context, id primitive.ObjectID) error
	// BulkAssign applies the inserts and reassignments as one atomic batch.
	BulkAssign(ctx context.Context, inserts []*domain.Assignment, reassigns map[primitive.ObjectID]ReassignFields) error
}

// CursorStore persists the "last assignment check" timestamp between notifier runs.
type CursorStore interface {
	// Get returns the stored cursor; ok is false when no sweep has run yet.
	Get(ctx context.Context) (cursor time.Time, ok bool, err error)
	Set(ctx context.Context, cursor time.Time) error
}
