package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"training-passport/internal/domain"

	"golang.org/x/crypto/bcrypt"
)

// ── Test helpers ──

func setupTestAuthService() (AuthService, *mockUserRepo) {
	userRepo := newMockUserRepo()
	svc := NewAuthService(userRepo, "test-secret", 8*time.Hour)
	return svc, userRepo
}

func seedCredentialedUser(t *testing.T, repo *mockUserRepo, username, email, password string) *domain.User {
	t.Helper()
	hashed, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	if err != nil {
		t.Fatalf("hash password: %v", err)
	}
	user := &domain.User{
		Name:         "Test User",
		Username:     username,
		Email:        email,
		PasswordHash: string(hashed),
		Role:         domain.RoleUser,
	}
	if _, err := repo.Create(context.Background(), user); err != nil {
		t.Fatalf("seed user: %v", err)
	}
	return user
}

// ── Login ──

func TestAuthService_Login_ByUsername(t *testing.T) {
	svc, userRepo := setupTestAuthService()
	seedCredentialedUser(t, userRepo, "pedro", "pedro@example.com", "secret123")

	token, user, err := svc.Login(context.Background(), "pedro", "secret123")
	if err != nil {
		t.Fatalf("Login should succeed: %v", err)
	}
	if token == "" {
		t.Error("expected a signed token")
	}
	if user.Username != "pedro" {
		t.Errorf("expected pedro, got %q", user.Username)
	}
	if user.PasswordHash != "" {
		t.Error("password hash must be stripped from the login response")
	}
}

func TestAuthService_Login_ByEmail(t *testing.T) {
	svc, userRepo := setupTestAuthService()
	seedCredentialedUser(t, userRepo, "pedro", "pedro@example.com", "secret123")

	_, user, err := svc.Login(context.Background(), "pedro@example.com", "secret123")
	if err != nil {
		t.Fatalf("Login by email should succeed: %v", err)
	}
	if user.Username != "pedro" {
		t.Errorf("expected pedro, got %q", user.Username)
	}
}

func TestAuthService_Login_IdentifierIsCaseInsensitive(t *testing.T) {
	svc, userRepo := setupTestAuthService()
	seedCredentialedUser(t, userRepo, "pedro", "pedro@example.com", "secret123")

	if _, _, err := svc.Login(context.Background(), "  Pedro ", "secret123"); err != nil {
		t.Errorf("identifier should be trimmed and lowercased: %v", err)
	}
}

func TestAuthService_Login_WrongPassword(t *testing.T) {
	svc, userRepo := setupTestAuthService()
	seedCredentialedUser(t, userRepo, "pedro", "pedro@example.com", "secret123")

	_, _, err := svc.Login(context.Background(), "pedro", "wrong")
	if !errors.Is(err, ErrAuthenticationFailed) {
		t.Errorf("expected ErrAuthenticationFailed, got %v", err)
	}
}

func TestAuthService_Login_UnknownIdentifier(t *testing.T) {
	svc, _ := setupTestAuthService()

	_, _, err := svc.Login(context.Background(), "nobody", "secret123")
	if !errors.Is(err, ErrAuthenticationFailed) {
		t.Errorf("expected ErrAuthenticationFailed, got %v", err)
	}
}

// ── ChangePassword ──

func TestAuthService_ChangePassword(t *testing.T) {
	svc, userRepo := setupTestAuthService()
	user := seedCredentialedUser(t, userRepo, "pedro", "pedro@example.com", "secret123")

	err := svc.ChangePassword(context.Background(), user.ID.Hex(), "secret123", "newsecret")
	if err != nil {
		t.Fatalf("ChangePassword should succeed: %v", err)
	}

	if _, _, err := svc.Login(context.Background(), "pedro", "newsecret"); err != nil {
		t.Errorf("login with the new password should work: %v", err)
	}
	if _, _, err := svc.Login(context.Background(), "pedro", "secret123"); !errors.Is(err, ErrAuthenticationFailed) {
		t.Errorf("old password should no longer work, got %v", err)
	}
}

func TestAuthService_ChangePassword_WrongCurrent(t *testing.T) {
	svc, userRepo := setupTestAuthService()
	user := seedCredentialedUser(t, userRepo, "pedro", "pedro@example.com", "secret123")

	err := svc.ChangePassword(context.Background(), user.ID.Hex(), "wrong", "newsecret")
	if !errors.Is(err, ErrWrongPassword) {
		t.Errorf("expected ErrWrongPassword, got %v", err)
	}
}

// ── EnsureInitialAdmin ──

func TestAuthService_EnsureInitialAdmin_SeedsEmptyCollection(t *testing.T) {
	svc, userRepo := setupTestAuthService()

	seeded, err := svc.EnsureInitialAdmin(context.Background())
	if err != nil {
		t.Fatalf("EnsureInitialAdmin should succeed: %v", err)
	}
	if !seeded {
		t.Error("expected a seed on an empty collection")
	}

	admin, err := userRepo.GetByUsername(context.Background(), "admin")
	if err != nil {
		t.Fatalf("seeded admin should exist: %v", err)
	}
	if admin.Role != domain.RoleAdmin {
		t.Errorf("seeded account should be admin, got %s", admin.Role)
	}

	if _, _, err := svc.Login(context.Background(), "admin", "password"); err != nil {
		t.Errorf("default credentials should log in: %v", err)
	}
}

func TestAuthService_EnsureInitialAdmin_NoopWhenUsersExist(t *testing.T) {
	svc, userRepo := setupTestAuthService()
	seedCredentialedUser(t, userRepo, "pedro", "pedro@example.com", "secret123")

	seeded, err := svc.EnsureInitialAdmin(context.Background())
	if err != nil {
		t.Fatalf("EnsureInitialAdmin should succeed: %v", err)
	}
	if seeded {
		t.Error("must not seed when users already exist")
	}
	count, _ := userRepo.Count(context.Background())
	if count != 1 {
		t.Errorf("expected 1 user, got %d", count)
	}
}
