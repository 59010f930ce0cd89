package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"golang.org/x/crypto/bcrypt"

	"github.com/ayush/task-manager/backend/internal/apperr"
	"github.com/ayush/task-manager/backend/internal/models"
	"github.com/ayush/task-manager/backend/internal/validate"
)

// UserStore defines the interface for user persistence. Implementations
// return apperr.ErrNotFound and apperr.ErrDuplicateEmail. GetUserByID may
// leave Password empty; GetUserByEmail always fills it.
type UserStore interface {
	CreateUser(ctx context.Context, name, email, hashedPw string) (*models.User, error)
	GetUserByEmail(ctx context.Context, email string) (*models.User, error)
	GetUserByID(ctx context.Context, id string) (*models.User, error)
	UpdateProfile(ctx context.Context, id, name, email string) (*models.User, error)
	UpdatePassword(ctx context.Context, id, hashedPw string) error
}

// Service implements registration, login and profile management.
type Service struct {
	users    UserStore
	tokens   *TokenIssuer
	validate *validate.Validator
	hashCost int

	dummyOnce sync.Once
	dummyHash []byte
}

func NewService(users UserStore, tokens *TokenIssuer, v *validate.Validator) *Service {
	return &Service{users: users, tokens: tokens, validate: v, hashCost: bcrypt.DefaultCost}
}

// NormalizeEmail trims and lower-cases an address.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// Register creates a user with a bcrypt-hashed password.
func (s *Service) Register(ctx context.Context, req models.RegisterRequest) (*models.User, error) {
	req.Name = strings.TrimSpace(req.Name)
	req.Email = NormalizeEmail(req.Email)
	if err := s.validate.Struct(req); err != nil {
		return nil, err
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(req.Password), s.hashCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}
	return s.users.CreateUser(ctx, req.Name, req.Email, string(hashed))
}

// Login verifies credentials and issues a session token.
func (s *Service) Login(ctx context.Context, req models.LoginRequest) (string, *models.User, error) {
	req.Email = NormalizeEmail(req.Email)
	if err := s.validate.Struct(req); err != nil {
		return "", nil, err
	}

	user, err := s.users.GetUserByEmail(ctx, req.Email)
	if errors.Is(err, apperr.ErrNotFound) {
		// Unknown emails pay for a bcrypt compare too.
		_ = bcrypt.CompareHashAndPassword(s.unknownUserHash(), []byte(req.Password))
		return "", nil, apperr.ErrInvalidCredentials
	}
	if err != nil {
		return "", nil, err
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(req.Password)); err != nil {
		return "", nil, apperr.ErrInvalidCredentials
	}

	token, _, err := s.tokens.Issue(user.ID)
	if err != nil {
		return "", nil, fmt.Errorf("issue token: %w", err)
	}
	user.Password = ""
	return token, user, nil
}

// unknownUserHash returns a hash at the service's cost that no password
// is expected to match.
func (s *Service) unknownUserHash() []byte {
	s.dummyOnce.Do(func() {
		h, err := bcrypt.GenerateFromPassword([]byte("unknown-user-placeholder"), s.hashCost)
		if err == nil {
			s.dummyHash = h
		}
	})
	return s.dummyHash
}

// Me returns the profile of the authenticated user. A token for a user
// that no longer exists is treated as unauthenticated.
func (s *Service) Me(ctx context.Context, userID string) (*models.User, error) {
	user, err := s.users.GetUserByID(ctx, userID)
	if errors.Is(err, apperr.ErrNotFound) {
		return nil, apperr.ErrUnauthorized
	}
	if err != nil {
		return nil, err
	}
	user.Password = ""
	return user, nil
}

// UpdateProfile changes name and email.
func (s *Service) UpdateProfile(ctx context.Context, userID string, req models.ProfileRequest) (*models.User, error) {
	req.Name = strings.TrimSpace(req.Name)
	req.Email = NormalizeEmail(req.Email)
	if err := s.validate.Struct(req); err != nil {
		return nil, err
	}
	user, err := s.users.UpdateProfile(ctx, userID, req.Name, req.Email)
	if errors.Is(err, apperr.ErrNotFound) {
		return nil, apperr.ErrUnauthorized
	}
	if err != nil {
		return nil, err
	}
	user.Password = ""
	return user, nil
}

// ChangePassword replaces the password after checking the current one.
// A wrong current password is reported as a validation error on
// currentPassword.
func (s *Service) ChangePassword(ctx context.Context, userID string, req models.PasswordRequest) error {
	if err := s.validate.Struct(req); err != nil {
		return err
	}
	profile, err := s.Me(ctx, userID)
	if err != nil {
		return err
	}
	user, err := s.users.GetUserByEmail(ctx, profile.Email)
	if err != nil {
		return err
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(req.CurrentPassword)); err != nil {
		return apperr.Validation("currentPassword", "Current password is incorrect")
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(req.NewPassword), s.hashCost)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}
	return s.users.UpdatePassword(ctx, userID, string(hashed))
}
