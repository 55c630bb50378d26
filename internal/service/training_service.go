package service

import (
	"context"
	"errors"
	"time"

	"training-passport/internal/domain"
	"training-passport/internal/repository"
)

var (
	ErrTrainingNotFound = errors.New("training not found")
)

// TrainingInput carries the fields for creating or updating a training template.
type TrainingInput struct {
	Title         string
	Description   string
	Category      domain.TrainingCategory
	Urgency       domain.TrainingUrgency
	Duration      int
	TrainerName   string
	ScheduledDate *time.Time
	ValidityDays  int
}

type TrainingService interface {
	Create(ctx context.Context, input TrainingInput) (*domain.Training, error)
	Update(ctx context.Context, trainingID string, input TrainingInput) (*domain.Training, error)
	// Delete removes the training and cascades to its assignments.
	Delete(ctx context.Context, trainingID string) error
	GetByID(ctx context.Context, trainingID string) (*domain.Training, error)
	GetAll(ctx context.Context) ([]domain.Training, error)
	// GetParticipants lists the assignments for a training joined to their users.
	// Assignments whose user no longer exists are kept with a nil user.
	GetParticipants(ctx context.Context, trainingID string) ([]domain.Participant, error)
}

// trainingService implements the TrainingService interface.
type trainingService struct {
	trainingRepo   repository.TrainingRepository
	assignmentRepo repository.AssignmentRepository
	userRepo       repository.UserRepository
}

// NewTrainingService creates a new instance of trainingService.
func NewTrainingService(
	trainingRepo repository.TrainingRepository,
	assignmentRepo repository.AssignmentRepository,
	userRepo repository.UserRepository,
) TrainingService {
	return &trainingService{
		trainingRepo:   trainingRepo,
		assignmentRepo: assignmentRepo,
		userRepo:       userRepo,
	}
}

// Create stores a new training template.
func (s *trainingService) Create(ctx context.Context, input TrainingInput) (*domain.Training, error) {
	training := &domain.Training{
		Title:         input.Title,
		Description:   input.Description,
		Category:      input.Category,
		Urgency:       input.Urgency,
		Duration:      input.Duration,
		TrainerName:   input.TrainerName,
		ScheduledDate: input.ScheduledDate,
		ValidityDays:  input.ValidityDays,
	}

	trainingID, err := s.trainingRepo.Create(ctx, training)
	if err != nil {
		return nil, err
	}
	training.ID = trainingID
	return training, nil
}

// Update replaces the editable fields of a training template.
func (s *trainingService) Update(ctx context.Context, trainingID string, input TrainingInput) (*domain.Training, error) {
	oid, err := parseObjectID(trainingID)
	if err != nil {
		return nil, err
	}

	training, err := s.trainingRepo.GetByID(ctx, oid)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrTrainingNotFound
		}
		return nil, err
	}

	training.Title = input.Title
	training.Description = input.Description
	training.Category = input.Category
	training.Urgency = input.Urgency
	training.Duration = input.Duration
	training.TrainerName = input.TrainerName
	training.ScheduledDate = input.ScheduledDate
	training.ValidityDays = input.ValidityDays

	if err := s.trainingRepo.Update(ctx, training); err != nil {
		return nil, err
	}
	return training, nil
}

// Delete removes the training; the repository cascades to assignments.
func (s *trainingService) Delete(ctx context.Context, trainingID string) error {
	oid, err := parseObjectID(trainingID)
	if err != nil {
		return err
	}
	if err := s.trainingRepo.Delete(ctx, oid); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrTrainingNotFound
		}
		return err
	}
	return nil
}

// GetByID fetches one training template.
func (s *trainingService) GetByID(ctx context.Context, trainingID string) (*domain.Training, error) {
	oid, err := parseObjectID(trainingID)
	if err != nil {
		return nil, err
	}
	training, err := s.trainingRepo.GetByID(ctx, oid)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrTrainingNotFound
		}
		return nil, err
	}
	return training, nil
}

// GetAll lists every training template, sorted by title.
func (s *trainingService) GetAll(ctx context.Context) ([]domain.Training, error) {
	return s.trainingRepo.GetAll(ctx)
}

// GetParticipants joins a training's assignments to their users.
func (s *trainingService) GetParticipants(ctx context.Context, trainingID string) ([]domain.Participant, error) {
	oid, err := parseObjectID(trainingID)
	if err != nil {
		return nil, err
	}

	assignments, err := s.assignmentRepo.GetByTrainingID(ctx, oid)
	if err != nil {
		return nil, err
	}

	participants := make([]domain.Participant, 0, len(assignments))
	for _, assignment := range assignments {
		participant := domain.Participant{Assignment: assignment}
		user, err := s.userRepo.GetByID(ctx, assignment.UserID)
		if err == nil {
			user.PasswordHash = ""
			participant.User = user
		} else if !errors.Is(err, repository.ErrNotFound) {
			return nil, err
		}
		// Deleted user: keep the row with a nil user so the count stays honest.
		participants = append(participants, participant)
	}
	return participants, nil
}
