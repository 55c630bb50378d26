package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"training-passport/internal/domain"
	"training-passport/internal/repository"

	"github.com/golang-jwt/jwt/v4"
	"golang.org/x/crypto/bcrypt"
)

// --- Error Definitions ---
var (
	ErrAuthenticationFailed = errors.New("authentication failed: invalid credentials")
	ErrHashingFailed        = errors.New("failed to hash password")
	ErrTokenGeneration      = errors.New("failed to generate authentication token")
	ErrWrongPassword        = errors.New("current password is incorrect")
)

// Credentials of the admin account seeded on an empty users collection.
// Must be rotated immediately after first login.
const (
	initialAdminUsername = "admin"
	initialAdminEmail    = "admin@example.com"
	initialAdminPassword = "password"
)

type AuthService interface {
	// Login authenticates by username or email (either works as identifier).
	Login(ctx context.Context, identifier, password string) (token string, user *domain.User, err error)
	ChangePassword(ctx context.Context, userID string, currentPassword, newPassword string) error
	// EnsureInitialAdmin seeds a default admin account when no users exist yet,
	// so a fresh deployment is reachable. Returns true when it seeded.
	EnsureInitialAdmin(ctx context.Context) (bool, error)
	GetJWTSecret() string
}

// authService implements the AuthService interface.
type authService struct {
	userRepo      repository.UserRepository
	jwtSecret     string
	jwtExpiration time.Duration
}

// NewAuthService creates a new instance of authService.
func NewAuthService(userRepo repository.UserRepository, jwtSecret string, jwtExpiration time.Duration) AuthService {
	if jwtSecret == "" {
		panic("JWT secret cannot be empty") // Critical configuration
	}
	if jwtExpiration <= 0 {
		jwtExpiration = 8 * time.Hour
	}
	return &authService{
		userRepo:      userRepo,
		jwtSecret:     jwtSecret,
		jwtExpiration: jwtExpiration,
	}
}

// Login resolves the identifier against username first, then email, compares
// the password hash and issues a JWT on success.
func (s *authService) Login(ctx context.Context, identifier, password string) (string, *domain.User, error) {
	if identifier == "" || password == "" {
		return "", nil, ErrAuthenticationFailed
	}
	identifier = strings.ToLower(strings.TrimSpace(identifier))

	user, err := s.userRepo.GetByUsername(ctx, identifier)
	if errors.Is(err, repository.ErrNotFound) {
		user, err = s.userRepo.GetByEmail(ctx, identifier)
	}
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return "", nil, ErrAuthenticationFailed
		}
		return "", nil, err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return "", nil, ErrAuthenticationFailed
	}

	token, err := s.generateJWT(user)
	if err != nil {
		return "", nil, ErrTokenGeneration
	}

	user.PasswordHash = ""
	return token, user, nil
}

// ChangePassword verifies the current password before storing the new hash.
func (s *authService) ChangePassword(ctx context.Context, userID string, currentPassword, newPassword string) error {
	oid, err := parseObjectID(userID)
	if err != nil {
		return err
	}

	user, err := s.userRepo.GetByID(ctx, oid)
	if err != nil {
		return err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(currentPassword)); err != nil {
		return ErrWrongPassword
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(newPassword), bcrypt.DefaultCost)
	if err != nil {
		return ErrHashingFailed
	}

	return s.userRepo.UpdatePassword(ctx, oid, string(hashed))
}

// EnsureInitialAdmin seeds the bootstrap admin on an empty collection.
func (s *authService) EnsureInitialAdmin(ctx context.Context) (bool, error) {
	count, err := s.userRepo.Count(ctx)
	if err != nil {
		return false, err
	}
	if count > 0 {
		return false, nil
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(initialAdminPassword), bcrypt.DefaultCost)
	if err != nil {
		return false, ErrHashingFailed
	}

	admin := &domain.User{
		Name:         "Admin",
		Username:     initialAdminUsername,
		Email:        initialAdminEmail,
		Role:         domain.RoleAdmin,
		PasswordHash: string(hashed),
		Categories:   []domain.UserCategory{domain.CategorySupervision, domain.CategoryLineaDeMando},
	}
	if _, err := s.userRepo.Create(ctx, admin); err != nil {
		return false, err
	}
	return true, nil
}

// --- JWT Helper ---

// jwtClaims defines the structure of the JWT payload.
type jwtClaims struct {
	UserID string      `json:"uid"`
	Role   domain.Role `json:"role"`
	jwt.RegisteredClaims
}

// generateJWT creates a new JWT token for the given user.
func (s *authService) generateJWT(user *domain.User) (string, error) {
	expirationTime := time.Now().Add(s.jwtExpiration)
	claims := &jwtClaims{
		UserID: user.ID.Hex(),
		Role:   user.Role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   user.ID.Hex(),
			ExpiresAt: jwt.NewNumericDate(expirationTime),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
			Issuer:    "training-passport",
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signedToken, err := token.SignedString([]byte(s.jwtSecret))
	if err != nil {
		return "", err
	}
	return signedToken, nil
}

// GetJWTSecret returns the JWT secret for middleware authentication
func (s *authService) GetJWTSecret() string {
	return s.jwtSecret
}
