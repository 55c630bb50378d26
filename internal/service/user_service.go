package service

import (
	"context"
	"errors"
	"fmt"
	"path"
	"strings"

	"training-passport/internal/domain"
	"training-passport/internal/repository"
	"training-passport/internal/storage"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

// --- Error Definitions ---
var (
	ErrUsernameTaken      = errors.New("username is already in use")
	ErrEmailTaken         = errors.New("email is already in use")
	ErrAdminNeedsEmail    = errors.New("admins must have an email address")
	ErrUserNotFound       = errors.New("user not found")
	ErrAvatarURLError     = errors.New("failed to generate avatar upload URL")
	ErrInvalidContentType = errors.New("invalid or missing image content type")
)

// CreateUserInput carries the fields for admin user creation.
type CreateUserInput struct {
	Name       string
	Username   string
	Email      string
	Password   string
	Role       domain.Role
	Categories []domain.UserCategory
}

// UpdateUserInput carries the editable profile fields. Password changes go
// through AuthService.ChangePassword instead.
type UpdateUserInput struct {
	Name       string
	Username   string
	Email      string
	Role       domain.Role
	Categories []domain.UserCategory
}

// AvatarUploadResponse returns the presigned PUT URL plus the object key the
// client must report back on confirmation.
type AvatarUploadResponse struct {
	UploadURL string `json:"uploadUrl"`
	ObjectKey string `json:"objectKey"`
}

type UserService interface {
	Create(ctx context.Context, input CreateUserInput) (*domain.User, error)
	Update(ctx context.Context, userID string, input UpdateUserInput) (*domain.User, error)
	Promote(ctx context.Context, userID string) error
	// Delete removes the user and cascades to their assignments.
	Delete(ctx context.Context, userID string) error
	GetByID(ctx context.Context, userID string) (*domain.User, error)
	GetAll(ctx context.Context) ([]domain.User, error)

	RequestAvatarUploadURL(ctx context.Context, userID string, contentType string) (*AvatarUploadResponse, error)
	ConfirmAvatarUpload(ctx context.Context, userID string, objectKey string) (*domain.User, error)
}

// userService implements the UserService interface.
type userService struct {
	userRepo    repository.UserRepository
	fileStorage storage.FileStorage
}

// NewUserService creates a new instance of userService.
func NewUserService(userRepo repository.UserRepository, fileStorage storage.FileStorage) UserService {
	return &userService{
		userRepo:    userRepo,
		fileStorage: fileStorage,
	}
}

// Create registers a new user after uniqueness checks on username and email.
func (s *userService) Create(ctx context.Context, input CreateUserInput) (*domain.User, error) {
	input.Username = strings.ToLower(strings.TrimSpace(input.Username))
	input.Email = strings.ToLower(strings.TrimSpace(input.Email))

	if input.Role == domain.RoleAdmin && input.Email == "" {
		return nil, ErrAdminNeedsEmail
	}

	if err := s.checkUniqueness(ctx, input.Username, input.Email, ""); err != nil {
		return nil, err
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(input.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, ErrHashingFailed
	}

	user := &domain.User{
		Name:         input.Name,
		Username:     input.Username,
		Email:        input.Email,
		PasswordHash: string(hashed),
		Role:         input.Role,
		Categories:   input.Categories,
	}

	userID, err := s.userRepo.Create(ctx, user)
	if err != nil {
		return nil, err
	}
	user.ID = userID

	user.PasswordHash = ""
	return user, nil
}

// Update edits a user's profile, rejecting username/email collisions with
// anyone other than the user being edited.
func (s *userService) Update(ctx context.Context, userID string, input UpdateUserInput) (*domain.User, error) {
	oid, err := parseObjectID(userID)
	if err != nil {
		return nil, err
	}

	user, err := s.userRepo.GetByID(ctx, oid)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}

	input.Username = strings.ToLower(strings.TrimSpace(input.Username))
	input.Email = strings.ToLower(strings.TrimSpace(input.Email))

	if input.Role == domain.RoleAdmin && input.Email == "" {
		return nil, ErrAdminNeedsEmail
	}

	if err := s.checkUniqueness(ctx, input.Username, input.Email, userID); err != nil {
		return nil, err
	}

	user.Name = input.Name
	user.Username = input.Username
	user.Email = input.Email
	user.Role = input.Role
	user.Categories = input.Categories

	if err := s.userRepo.Update(ctx, user); err != nil {
		return nil, err
	}

	user.PasswordHash = ""
	return user, nil
}

// Promote raises a user to the admin role.
func (s *userService) Promote(ctx context.Context, userID string) error {
	oid, err := parseObjectID(userID)
	if err != nil {
		return err
	}
	return s.userRepo.SetRole(ctx, oid, domain.RoleAdmin)
}

// Delete removes the user; the repository cascades to their assignments in one
// batch. Guarding against self-deletion is the handler's job (it knows the caller).
func (s *userService) Delete(ctx context.Context, userID string) error {
	oid, err := parseObjectID(userID)
	if err != nil {
		return err
	}
	return s.userRepo.Delete(ctx, oid)
}

// GetByID fetches one user without the password hash.
func (s *userService) GetByID(ctx context.Context, userID string) (*domain.User, error) {
	oid, err := parseObjectID(userID)
	if err != nil {
		return nil, err
	}
	user, err := s.userRepo.GetByID(ctx, oid)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	user.PasswordHash = ""
	return user, nil
}

// GetAll lists every user, hashes stripped.
func (s *userService) GetAll(ctx context.Context) ([]domain.User, error) {
	users, err := s.userRepo.GetAll(ctx)
	if err != nil {
		return nil, err
	}
	for i := range users {
		users[i].PasswordHash = ""
	}
	return users, nil
}

// RequestAvatarUploadURL generates a presigned PUT URL for the user's avatar image.
func (s *userService) RequestAvatarUploadURL(ctx context.Context, userID string, contentType string) (*AvatarUploadResponse, error) {
	oid, err := parseObjectID(userID)
	if err != nil {
		return nil, err
	}
	if contentType == "" || !strings.HasPrefix(strings.ToLower(contentType), "image/") {
		return nil, ErrInvalidContentType
	}

	// Existence check before handing out a URL.
	if _, err := s.userRepo.GetByID(ctx, oid); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}

	objectKey := path.Join("avatars", oid.Hex(), uuid.NewString())
	uploadURL, err := s.fileStorage.GeneratePresignedUploadURL(ctx, objectKey, contentType, storage.DefaultPresignedURLExpiry)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrAvatarURLError, err)
	}

	return &AvatarUploadResponse{UploadURL: uploadURL, ObjectKey: objectKey}, nil
}

// ConfirmAvatarUpload stores the uploaded object's download URL on the user.
func (s *userService) ConfirmAvatarUpload(ctx context.Context, userID string, objectKey string) (*domain.User, error) {
	oid, err := parseObjectID(userID)
	if err != nil {
		return nil, err
	}
	if objectKey == "" || !strings.HasPrefix(objectKey, "avatars/"+oid.Hex()+"/") {
		return nil, errors.New("object key does not belong to this user")
	}

	downloadURL, err := s.fileStorage.GeneratePresignedDownloadURL(ctx, objectKey, storage.AvatarURLExpiry)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrAvatarURLError, err)
	}

	if err := s.userRepo.SetAvatarURL(ctx, oid, downloadURL); err != nil {
		return nil, err
	}

	return s.GetByID(ctx, userID)
}

// checkUniqueness rejects a username or email already held by a different user.
func (s *userService) checkUniqueness(ctx context.Context, username, email, selfID string) error {
	existing, err := s.userRepo.GetByUsername(ctx, username)
	if err == nil && existing.ID.Hex() != selfID {
		return ErrUsernameTaken
	}
	if err != nil && !errors.Is(err, repository.ErrNotFound) {
		return err
	}

	if email != "" {
		existing, err = s.userRepo.GetByEmail(ctx, email)
		if err == nil && existing.ID.Hex() != selfID {
			return ErrEmailTaken
		}
		if err != nil && !errors.Is(err, repository.ErrNotFound) {
			return err
		}
	}
	return nil
}
