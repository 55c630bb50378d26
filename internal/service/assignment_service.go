package service

import (
	"context"
	"errors"
	"time"

	"training-passport/internal/domain"
	"training-passport/internal/repository"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

var (
	ErrAssignmentNotFound = errors.New("assignment not found")
	ErrNoUsersSelected    = errors.New("no users selected")
)

// AssignInput carries the optional per-assignment fields of an (re-)assignment.
type AssignInput struct {
	ScheduledDate *time.Time
	TrainerName   string
}

// TrainingReportRow summarizes completion for one training, using effective
// status so expired completions count as pending.
type TrainingReportRow struct {
	Training  domain.Training `json:"training"`
	Total     int             `json:"total"`
	Completed int             `json:"completed"`
	Pending   int             `json:"pending"`
	Expired   int             `json:"expired"` // completed on record but past validity
}

type AssignmentService interface {
	// Assign creates the (user, training) assignment, or resets the existing one
	// to pending. Idempotent with respect to record count.
	Assign(ctx context.Context, trainingID, userID string, input AssignInput) error
	// BulkAssign applies Assign semantics to many users in one atomic batch.
	BulkAssign(ctx context.Context, trainingID string, userIDs []string, input AssignInput) error
	SetStatus(ctx context.Context, assignmentID string, completed bool) error
	Delete(ctx context.Context, assignmentID string) error
	// GetTrainingsForUser returns the user's assignments joined to their
	// trainings, with effective status derived. Orphaned assignments (training
	// deleted) are dropped. Read-only.
	GetTrainingsForUser(ctx context.Context, userID string) ([]domain.PopulatedAssignment, error)
	// GetCompletionReport aggregates per-training completion counts for the
	// admin dashboard.
	GetCompletionReport(ctx context.Context) ([]TrainingReportRow, error)
}

// assignmentService implements the AssignmentService interface.
type assignmentService struct {
	assignmentRepo repository.AssignmentRepository
	trainingRepo   repository.TrainingRepository
}

// NewAssignmentService creates a new instance of assignmentService.
func NewAssignmentService(
	assignmentRepo repository.AssignmentRepository,
	trainingRepo repository.TrainingRepository,
) AssignmentService {
	return &assignmentService{
		assignmentRepo: assignmentRepo,
		trainingRepo:   trainingRepo,
	}
}

// Assign deduplicates against the existing (user, training) pair before insert.
// Known race: two concurrent Assign calls for the same pair can slip between
// the lookup and the write and create a duplicate. Accepted as best-effort
// last-writer-wins at current scale.
func (s *assignmentService) Assign(ctx context.Context, trainingID, userID string, input AssignInput) error {
	trainingOID, err := parseObjectID(trainingID)
	if err != nil {
		return err
	}
	userOID, err := parseObjectID(userID)
	if err != nil {
		return err
	}

	existing, err := s.assignmentRepo.GetByUserAndTraining(ctx, userOID, trainingOID)
	if err == nil {
		return s.assignmentRepo.Reassign(ctx, existing.ID, repository.ReassignFields{
			ScheduledDate: input.ScheduledDate,
			TrainerName:   input.TrainerName,
		})
	}
	if !errors.Is(err, repository.ErrNotFound) {
		return err
	}

	assignment := &domain.Assignment{
		UserID:        userOID,
		TrainingID:    trainingOID,
		Status:        domain.StatusPending,
		AssignedDate:  time.Now().UTC(),
		ScheduledDate: input.ScheduledDate,
		TrainerName:   input.TrainerName,
	}
	_, err = s.assignmentRepo.Create(ctx, assignment)
	return err
}

// BulkAssign partitions the user list into existing assignments (reset to
// pending) and new ones (inserted), then hands both to the repository as one
// atomic batch. Duplicate user ids in the input are collapsed.
func (s *assignmentService) BulkAssign(ctx context.Context, trainingID string, userIDs []string, input AssignInput) error {
	if len(userIDs) == 0 {
		return ErrNoUsersSelected
	}

	trainingOID, err := parseObjectID(trainingID)
	if err != nil {
		return err
	}

	seen := make(map[primitive.ObjectID]struct{}, len(userIDs))
	userOIDs := make([]primitive.ObjectID, 0, len(userIDs))
	for _, id := range userIDs {
		oid, err := parseObjectID(id)
		if err != nil {
			return err
		}
		if _, ok := seen[oid]; ok {
			continue
		}
		seen[oid] = struct{}{}
		userOIDs = append(userOIDs, oid)
	}

	existing, err := s.assignmentRepo.GetByTrainingAndUsers(ctx, trainingOID, userOIDs)
	if err != nil {
		return err
	}
	existingByUser := make(map[primitive.ObjectID]domain.Assignment, len(existing))
	for _, a := range existing {
		existingByUser[a.UserID] = a
	}

	fields := repository.ReassignFields{
		ScheduledDate: input.ScheduledDate,
		TrainerName:   input.TrainerName,
	}

	var inserts []*domain.Assignment
	reassigns := make(map[primitive.ObjectID]repository.ReassignFields)
	now := time.Now().UTC()

	for _, userOID := range userOIDs {
		if a, ok := existingByUser[userOID]; ok {
			reassigns[a.ID] = fields
			continue
		}
		inserts = append(inserts, &domain.Assignment{
			UserID:        userOID,
			TrainingID:    trainingOID,
			Status:        domain.StatusPending,
			AssignedDate:  now,
			ScheduledDate: input.ScheduledDate,
			TrainerName:   input.TrainerName,
		})
	}

	return s.assignmentRepo.BulkAssign(ctx, inserts, reassigns)
}

// SetStatus flips completion. Completing stamps completedDate with now.
// Un-completing keeps the old completedDate as history; a later re-completion
// simply overwrites it. Documented policy, applied consistently.
func (s *assignmentService) SetStatus(ctx context.Context, assignmentID string, completed bool) error {
	oid, err := parseObjectID(assignmentID)
	if err != nil {
		return err
	}

	if completed {
		now := time.Now().UTC()
		err = s.assignmentRepo.SetStatus(ctx, oid, domain.StatusCompleted, &now)
	} else {
		err = s.assignmentRepo.SetStatus(ctx, oid, domain.StatusPending, nil)
	}
	if errors.Is(err, repository.ErrNotFound) {
		return ErrAssignmentNotFound
	}
	return err
}

// Delete removes one assignment. No side effects on the user or training.
func (s *assignmentService) Delete(ctx context.Context, assignmentID string) error {
	oid, err := parseObjectID(assignmentID)
	if err != nil {
		return err
	}
	if err := s.assignmentRepo.Delete(ctx, oid); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrAssignmentNotFound
		}
		return err
	}
	return nil
}

// GetTrainingsForUser builds the status-corrected dashboard view for one user.
func (s *assignmentService) GetTrainingsForUser(ctx context.Context, userID string) ([]domain.PopulatedAssignment, error) {
	userOID, err := parseObjectID(userID)
	if err != nil {
		return nil, err
	}

	assignments, err := s.assignmentRepo.GetByUserID(ctx, userOID)
	if err != nil {
		return nil, err
	}
	if len(assignments) == 0 {
		return []domain.PopulatedAssignment{}, nil
	}

	trainingsByID, err := s.trainingsFor(ctx, assignments)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	populated := make([]domain.PopulatedAssignment, 0, len(assignments))
	for _, assignment := range assignments {
		training, ok := trainingsByID[assignment.TrainingID]
		if !ok {
			// Training was deleted; drop the orphan from the view.
			continue
		}
		populated = append(populated, domain.PopulatedAssignment{
			Training:        training,
			Assignment:      assignment,
			EffectiveStatus: assignment.EffectiveStatus(&training, now),
		})
	}
	return populated, nil
}

// GetCompletionReport tallies effective status per training across all users.
func (s *assignmentService) GetCompletionReport(ctx context.Context) ([]TrainingReportRow, error) {
	trainings, err := s.trainingRepo.GetAll(ctx)
	if err != nil {
		return nil, err
	}
	assignments, err := s.assignmentRepo.GetAll(ctx)
	if err != nil {
		return nil, err
	}

	byTraining := make(map[primitive.ObjectID][]domain.Assignment)
	for _, a := range assignments {
		byTraining[a.TrainingID] = append(byTraining[a.TrainingID], a)
	}

	now := time.Now().UTC()
	rows := make([]TrainingReportRow, 0, len(trainings))
	for _, training := range trainings {
		row := TrainingReportRow{Training: training}
		for _, a := range byTraining[training.ID] {
			row.Total++
			switch a.EffectiveStatus(&training, now) {
			case domain.StatusCompleted:
				row.Completed++
			default:
				row.Pending++
				if a.Status == domain.StatusCompleted {
					row.Expired++ // completed on record, past validity
				}
			}
		}
		rows = append(rows, row)
	}
	return rows, nil
}

// trainingsFor fetches the distinct trainings referenced by the assignments in
// one id-in-list query.
func (s *assignmentService) trainingsFor(ctx context.Context, assignments []domain.Assignment) (map[primitive.ObjectID]domain.Training, error) {
	seen := make(map[primitive.ObjectID]struct{}, len(assignments))
	ids := make([]primitive.ObjectID, 0, len(assignments))
	for _, a := range assignments {
		if _, ok := seen[a.TrainingID]; ok {
			continue
		}
		seen[a.TrainingID] = struct{}{}
		ids = append(ids, a.TrainingID)
	}

	trainings, err := s.trainingRepo.GetByIDs(ctx, ids)
	if err != nil {
		return nil, err
	}

	byID := make(map[primitive.ObjectID]domain.Training, len(trainings))
	for _, t := range trainings {
		byID[t.ID] = t
	}
	return byID, nil
}
