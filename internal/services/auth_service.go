package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/akc-construction/crm/internal/auth"
	"github.com/akc-construction/crm/internal/models"
	"github.com/akc-construction/crm/internal/rbac"
	"github.com/akc-construction/crm/internal/repositories"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

const minPasswordLength = 8

type AuthService struct {
	users         UserStore
	jwtSecret     string
	jwtExpiration time.Duration
	log           *zap.Logger
}

func NewAuthService(users UserStore, jwtSecret string, jwtExpiration time.Duration, log *zap.Logger) *AuthService {
	return &AuthService{users: users, jwtSecret: jwtSecret, jwtExpiration: jwtExpiration, log: log}
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// Login verifies the password and issues a token. Unknown emails and wrong
// passwords return the same error.
func (s *AuthService) Login(ctx context.Context, email, password string) (string, *models.User, error) {
	email = normalizeEmail(email)
	if email == "" || password == "" {
		return "", nil, invalid("credentials", "email and password are required")
	}

	user, err := s.users.GetByEmail(ctx, email)
	if errors.Is(err, repositories.ErrNotFound) {
		return "", nil, ErrInvalidCredentials
	}
	if err != nil {
		return "", nil, err
	}
	if !auth.CheckPassword(user.PasswordHash, password) {
		s.log.Warn("failed login", zap.String("email", email))
		return "", nil, ErrInvalidCredentials
	}

	token, err := auth.GenerateJWT(s.jwtSecret, user.ID, user.Email, user.Role, s.jwtExpiration)
	if err != nil {
		return "", nil, fmt.Errorf("generate token: %w", err)
	}

	if err := s.users.TouchLogin(ctx, user.ID); err != nil {
		s.log.Warn("failed to record login time", zap.String("email", email), zap.Error(err))
	}
	return token, user, nil
}

// CreateUser adds an account. It reports a validation error if the email is taken.
func (s *AuthService) CreateUser(ctx context.Context, email, password, role string) (*models.User, error) {
	user, created, err := s.createUser(ctx, email, password, role)
	if err != nil {
		return nil, err
	}
	if !created {
		return nil, invalid("email", "is already registered")
	}
	return user, nil
}

// EnsureAdmin creates the bootstrap admin account if it does not exist yet.
func (s *AuthService) EnsureAdmin(ctx context.Context, email, password string) error {
	_, created, err := s.createUser(ctx, email, password, rbac.RoleAdmin)
	if err != nil {
		return err
	}
	if created {
		s.log.Info("admin account created", zap.String("email", normalizeEmail(email)))
	}
	return nil
}

func (s *AuthService) createUser(ctx context.Context, email, password, role string) (*models.User, bool, error) {
	email = normalizeEmail(email)
	if email == "" || !strings.Contains(email, "@") {
		return nil, false, invalid("email", "is not a valid email address")
	}
	if len(password) < minPasswordLength {
		return nil, false, invalid("password", fmt.Sprintf("must be at least %d characters", minPasswordLength))
	}
	if !rbac.IsValidRole(role) {
		return nil, false, invalid("role", fmt.Sprintf("unknown role %q", role))
	}

	hash, err := auth.HashPassword(password)
	if err != nil {
		return nil, false, fmt.Errorf("hash password: %w", err)
	}

	user := &models.User{Email: email, PasswordHash: hash, Role: role}
	created, err := s.users.CreateIfMissing(ctx, user)
	if err != nil || !created {
		return nil, false, err
	}

	stored, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		return nil, false, err
	}
	return stored, true, nil
}

func (s *AuthService) GetUser(ctx context.Context, id uuid.UUID) (*models.User, error) {
	return s.users.GetByID(ctx, id)
}
