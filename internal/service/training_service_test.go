package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"training-passport/internal/domain"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// ── Test helpers ──

func setupTestTrainingService() (TrainingService, *mockTrainingRepo, *mockAssignmentRepo, *mockUserRepo) {
	trainingRepo := newMockTrainingRepo()
	assignmentRepo := newMockAssignmentRepo()
	userRepo := newMockUserRepo()
	trainingRepo.assignmentRepo = assignmentRepo
	svc := NewTrainingService(trainingRepo, assignmentRepo, userRepo)
	return svc, trainingRepo, assignmentRepo, userRepo
}

// ── Create / Update ──

func TestTrainingService_CreateAndUpdate(t *testing.T) {
	svc, _, _, _ := setupTestTrainingService()

	scheduled := time.Now().UTC().AddDate(0, 1, 0)
	training, err := svc.Create(context.Background(), TrainingInput{
		Title:         "Fire Safety",
		Description:   "Annual fire safety refresher",
		Category:      domain.CategorySeguridad,
		Urgency:       domain.UrgencyHigh,
		Duration:      90,
		TrainerName:   "Ana Torres",
		ScheduledDate: &scheduled,
		ValidityDays:  365,
	})
	if err != nil {
		t.Fatalf("Create should succeed: %v", err)
	}
	if training.ID.IsZero() {
		t.Fatal("created training should have an id")
	}

	updated, err := svc.Update(context.Background(), training.ID.Hex(), TrainingInput{
		Title:        "Fire Safety v2",
		Category:     domain.CategorySeguridad,
		Urgency:      domain.UrgencyMedium,
		TrainerName:  "Ana Torres",
		ValidityDays: 180,
	})
	if err != nil {
		t.Fatalf("Update should succeed: %v", err)
	}
	if updated.Title != "Fire Safety v2" {
		t.Errorf("expected updated title, got %q", updated.Title)
	}
	if updated.ValidityDays != 180 {
		t.Errorf("expected validityDays 180, got %d", updated.ValidityDays)
	}
	if updated.ScheduledDate != nil {
		t.Error("omitting the scheduled date on update should clear it")
	}
}

func TestTrainingService_Update_NotFound(t *testing.T) {
	svc, _, _, _ := setupTestTrainingService()

	_, err := svc.Update(context.Background(), primitive.NewObjectID().Hex(), TrainingInput{Title: "X"})
	if !errors.Is(err, ErrTrainingNotFound) {
		t.Errorf("expected ErrTrainingNotFound, got %v", err)
	}
}

// ── Delete ──

func TestTrainingService_Delete_CascadesToAssignments(t *testing.T) {
	svc, _, assignmentRepo, _ := setupTestTrainingService()

	training, err := svc.Create(context.Background(), TrainingInput{
		Title: "Fire Safety", Category: domain.CategorySeguridad, Urgency: domain.UrgencyHigh,
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	other, err := svc.Create(context.Background(), TrainingInput{
		Title: "First Aid", Category: domain.CategorySeguridad, Urgency: domain.UrgencyLow,
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	assignmentRepo.Create(context.Background(), &domain.Assignment{
		UserID: primitive.NewObjectID(), TrainingID: training.ID,
		Status: domain.StatusPending, AssignedDate: time.Now().UTC(),
	})
	assignmentRepo.Create(context.Background(), &domain.Assignment{
		UserID: primitive.NewObjectID(), TrainingID: other.ID,
		Status: domain.StatusPending, AssignedDate: time.Now().UTC(),
	})

	if err := svc.Delete(context.Background(), training.ID.Hex()); err != nil {
		t.Fatalf("Delete should succeed: %v", err)
	}

	remaining, _ := assignmentRepo.GetAll(context.Background())
	if len(remaining) != 1 {
		t.Fatalf("only the deleted training's assignments should cascade, got %d left", len(remaining))
	}
	if remaining[0].TrainingID != other.ID {
		t.Error("the other training's assignment should survive")
	}
}

func TestTrainingService_Delete_NotFound(t *testing.T) {
	svc, _, _, _ := setupTestTrainingService()

	err := svc.Delete(context.Background(), primitive.NewObjectID().Hex())
	if !errors.Is(err, ErrTrainingNotFound) {
		t.Errorf("expected ErrTrainingNotFound, got %v", err)
	}
}

// ── GetParticipants ──

func TestTrainingService_GetParticipants(t *testing.T) {
	svc, _, assignmentRepo, userRepo := setupTestTrainingService()

	training, err := svc.Create(context.Background(), TrainingInput{
		Title: "Fire Safety", Category: domain.CategorySeguridad, Urgency: domain.UrgencyHigh,
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	pedro := &domain.User{Name: "Pedro Gomez", Username: "pedro", PasswordHash: "hash", Role: domain.RoleUser}
	userRepo.Create(context.Background(), pedro)

	assignmentRepo.Create(context.Background(), &domain.Assignment{
		UserID: pedro.ID, TrainingID: training.ID,
		Status: domain.StatusPending, AssignedDate: time.Now().UTC(),
	})
	// Assignment whose user has since been deleted.
	assignmentRepo.Create(context.Background(), &domain.Assignment{
		UserID: primitive.NewObjectID(), TrainingID: training.ID,
		Status: domain.StatusPending, AssignedDate: time.Now().UTC(),
	})

	participants, err := svc.GetParticipants(context.Background(), training.ID.Hex())
	if err != nil {
		t.Fatalf("GetParticipants should succeed: %v", err)
	}
	if len(participants) != 2 {
		t.Fatalf("deleted users keep their row, expected 2 participants, got %d", len(participants))
	}

	var withUser, withoutUser int
	for _, p := range participants {
		if p.User != nil {
			withUser++
			if p.User.PasswordHash != "" {
				t.Error("participant user must not carry a password hash")
			}
		} else {
			withoutUser++
		}
	}
	if withUser != 1 || withoutUser != 1 {
		t.Errorf("expected one resolved and one nil user, got %d/%d", withUser, withoutUser)
	}
}
