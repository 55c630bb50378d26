package service

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"training-passport/internal/domain"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// ── Test helpers ──

func setupTestUserService() (UserService, *mockUserRepo, *mockAssignmentRepo) {
	userRepo := newMockUserRepo()
	assignmentRepo := newMockAssignmentRepo()
	userRepo.assignmentRepo = assignmentRepo
	svc := NewUserService(userRepo, &mockFileStorage{})
	return svc, userRepo, assignmentRepo
}

// ── Create ──

func TestUserService_Create(t *testing.T) {
	svc, userRepo, _ := setupTestUserService()

	user, err := svc.Create(context.Background(), CreateUserInput{
		Name:       "Pedro Gomez",
		Username:   " Pedro ",
		Email:      "Pedro@Example.com",
		Password:   "secret123",
		Role:       domain.RoleUser,
		Categories: []domain.UserCategory{domain.CategorySupervision},
	})
	if err != nil {
		t.Fatalf("Create should succeed: %v", err)
	}
	if user.Username != "pedro" {
		t.Errorf("username should be normalized, got %q", user.Username)
	}
	if user.Email != "pedro@example.com" {
		t.Errorf("email should be normalized, got %q", user.Email)
	}
	if user.PasswordHash != "" {
		t.Error("password hash must be stripped from the response")
	}

	stored, err := userRepo.GetByUsername(context.Background(), "pedro")
	if err != nil {
		t.Fatalf("user should be stored: %v", err)
	}
	if stored.PasswordHash == "" || stored.PasswordHash == "secret123" {
		t.Error("stored password must be hashed")
	}
}

func TestUserService_Create_DuplicateUsername(t *testing.T) {
	svc, _, _ := setupTestUserService()

	input := CreateUserInput{Name: "Pedro", Username: "pedro", Password: "secret123", Role: domain.RoleUser}
	if _, err := svc.Create(context.Background(), input); err != nil {
		t.Fatalf("first create should succeed: %v", err)
	}

	_, err := svc.Create(context.Background(), input)
	if !errors.Is(err, ErrUsernameTaken) {
		t.Errorf("expected ErrUsernameTaken, got %v", err)
	}
}

func TestUserService_Create_DuplicateEmail(t *testing.T) {
	svc, _, _ := setupTestUserService()

	if _, err := svc.Create(context.Background(), CreateUserInput{
		Name: "Pedro", Username: "pedro", Email: "shared@example.com", Password: "secret123", Role: domain.RoleUser,
	}); err != nil {
		t.Fatalf("first create should succeed: %v", err)
	}

	_, err := svc.Create(context.Background(), CreateUserInput{
		Name: "Lucia", Username: "lucia", Email: "shared@example.com", Password: "secret123", Role: domain.RoleUser,
	})
	if !errors.Is(err, ErrEmailTaken) {
		t.Errorf("expected ErrEmailTaken, got %v", err)
	}
}

func TestUserService_Create_AdminWithoutEmail(t *testing.T) {
	svc, _, _ := setupTestUserService()

	_, err := svc.Create(context.Background(), CreateUserInput{
		Name: "Pedro", Username: "pedro", Password: "secret123", Role: domain.RoleAdmin,
	})
	if !errors.Is(err, ErrAdminNeedsEmail) {
		t.Errorf("expected ErrAdminNeedsEmail, got %v", err)
	}
}

// ── Update ──

func TestUserService_Update_KeepingOwnUsername(t *testing.T) {
	svc, _, _ := setupTestUserService()

	user, err := svc.Create(context.Background(), CreateUserInput{
		Name: "Pedro", Username: "pedro", Email: "pedro@example.com", Password: "secret123", Role: domain.RoleUser,
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	updated, err := svc.Update(context.Background(), user.ID.Hex(), UpdateUserInput{
		Name: "Pedro Gomez", Username: "pedro", Email: "pedro@example.com", Role: domain.RoleUser,
	})
	if err != nil {
		t.Fatalf("keeping your own username must not collide: %v", err)
	}
	if updated.Name != "Pedro Gomez" {
		t.Errorf("expected updated name, got %q", updated.Name)
	}
}

func TestUserService_Update_CollidesWithOtherUser(t *testing.T) {
	svc, _, _ := setupTestUserService()

	if _, err := svc.Create(context.Background(), CreateUserInput{
		Name: "Pedro", Username: "pedro", Password: "secret123", Role: domain.RoleUser,
	}); err != nil {
		t.Fatalf("create: %v", err)
	}
	lucia, err := svc.Create(context.Background(), CreateUserInput{
		Name: "Lucia", Username: "lucia", Password: "secret123", Role: domain.RoleUser,
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	_, err = svc.Update(context.Background(), lucia.ID.Hex(), UpdateUserInput{
		Name: "Lucia", Username: "pedro", Role: domain.RoleUser,
	})
	if !errors.Is(err, ErrUsernameTaken) {
		t.Errorf("expected ErrUsernameTaken, got %v", err)
	}
}

// ── Promote ──

func TestUserService_Promote(t *testing.T) {
	svc, userRepo, _ := setupTestUserService()

	user, err := svc.Create(context.Background(), CreateUserInput{
		Name: "Pedro", Username: "pedro", Password: "secret123", Role: domain.RoleUser,
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	if err := svc.Promote(context.Background(), user.ID.Hex()); err != nil {
		t.Fatalf("Promote should succeed: %v", err)
	}
	stored, _ := userRepo.GetByID(context.Background(), user.ID)
	if stored.Role != domain.RoleAdmin {
		t.Errorf("expected admin role, got %s", stored.Role)
	}
}

// ── Delete ──

func TestUserService_Delete_CascadesToAssignments(t *testing.T) {
	svc, _, assignmentRepo := setupTestUserService()

	user, err := svc.Create(context.Background(), CreateUserInput{
		Name: "Pedro", Username: "pedro", Password: "secret123", Role: domain.RoleUser,
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	trainingID := primitive.NewObjectID()
	assignmentRepo.Create(context.Background(), &domain.Assignment{
		UserID: user.ID, TrainingID: trainingID,
		Status: domain.StatusPending, AssignedDate: time.Now().UTC(),
	})
	otherUser := primitive.NewObjectID()
	assignmentRepo.Create(context.Background(), &domain.Assignment{
		UserID: otherUser, TrainingID: trainingID,
		Status: domain.StatusPending, AssignedDate: time.Now().UTC(),
	})

	if err := svc.Delete(context.Background(), user.ID.Hex()); err != nil {
		t.Fatalf("Delete should succeed: %v", err)
	}

	remaining, _ := assignmentRepo.GetAll(context.Background())
	if len(remaining) != 1 {
		t.Fatalf("only the deleted user's assignments should cascade, got %d left", len(remaining))
	}
	if remaining[0].UserID != otherUser {
		t.Error("the other user's assignment should survive")
	}
}

// ── Avatar upload ──

func TestUserService_RequestAvatarUploadURL(t *testing.T) {
	svc, _, _ := setupTestUserService()

	user, err := svc.Create(context.Background(), CreateUserInput{
		Name: "Pedro", Username: "pedro", Password: "secret123", Role: domain.RoleUser,
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	resp, err := svc.RequestAvatarUploadURL(context.Background(), user.ID.Hex(), "image/png")
	if err != nil {
		t.Fatalf("RequestAvatarUploadURL should succeed: %v", err)
	}
	if resp.UploadURL == "" {
		t.Error("expected a presigned upload URL")
	}
	if !strings.HasPrefix(resp.ObjectKey, "avatars/"+user.ID.Hex()+"/") {
		t.Errorf("object key should be namespaced to the user, got %q", resp.ObjectKey)
	}
}

func TestUserService_RequestAvatarUploadURL_RejectsNonImage(t *testing.T) {
	svc, _, _ := setupTestUserService()

	user, err := svc.Create(context.Background(), CreateUserInput{
		Name: "Pedro", Username: "pedro", Password: "secret123", Role: domain.RoleUser,
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	_, err = svc.RequestAvatarUploadURL(context.Background(), user.ID.Hex(), "application/pdf")
	if !errors.Is(err, ErrInvalidContentType) {
		t.Errorf("expected ErrInvalidContentType, got %v", err)
	}
}

func TestUserService_ConfirmAvatarUpload(t *testing.T) {
	svc, userRepo, _ := setupTestUserService()

	user, err := svc.Create(context.Background(), CreateUserInput{
		Name: "Pedro", Username: "pedro", Password: "secret123", Role: domain.RoleUser,
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	key := "avatars/" + user.ID.Hex() + "/some-object"
	updated, err := svc.ConfirmAvatarUpload(context.Background(), user.ID.Hex(), key)
	if err != nil {
		t.Fatalf("ConfirmAvatarUpload should succeed: %v", err)
	}
	if updated.AvatarURL == "" {
		t.Error("avatar URL should be stored on the user")
	}

	stored, _ := userRepo.GetByID(context.Background(), user.ID)
	if stored.AvatarURL != updated.AvatarURL {
		t.Error("stored avatar URL should match the response")
	}
}

func TestUserService_ConfirmAvatarUpload_ForeignKeyRejected(t *testing.T) {
	svc, _, _ := setupTestUserService()

	user, err := svc.Create(context.Background(), CreateUserInput{
		Name: "Pedro", Username: "pedro", Password: "secret123", Role: domain.RoleUser,
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	foreignKey := "avatars/" + primitive.NewObjectID().Hex() + "/stolen"
	if _, err := svc.ConfirmAvatarUpload(context.Background(), user.ID.Hex(), foreignKey); err == nil {
		t.Error("confirming another user's object key must fail")
	}
}
