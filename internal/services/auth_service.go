package services

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"strings"

	"github.com/google/uuid"

	"fintrack/internal/auth"
	"fintrack/internal/core"
	"fintrack/internal/log"
	"fintrack/internal/storage"
)

// ErrInvalidCredentials is returned for login failures. Callers must not be
// able to tell a wrong password from an unknown email.
var ErrInvalidCredentials = errors.New("incorrect email or password")

// AuthService registers accounts and authenticates logins.
type AuthService struct {
	repo   storage.Repository
	tokens *auth.TokenIssuer
	logger *log.Logger
	newID  func() string
}

func NewAuthService(repo storage.Repository, tokens *auth.TokenIssuer, logger *log.Logger) *AuthService {
	return &AuthService{
		repo:   repo,
		tokens: tokens,
		logger: logger.WithComponent(log.ComponentAuth),
		newID:  uuid.NewString,
	}
}

// Register creates an account with default preferences and returns the user
// with a signed token. A taken email is core.ErrConflict.
func (s *AuthService) Register(ctx context.Context, name, email, password string) (core.User, string, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return core.User{}, "", core.NewValidationError("name", core.ErrEmptyName)
	}
	email = strings.ToLower(strings.TrimSpace(email))
	if _, err := mail.ParseAddress(email); err != nil {
		return core.User{}, "", core.NewValidationError("email", errors.New("invalid email address"))
	}

	hash, err := auth.HashPassword(password)
	if err != nil {
		return core.User{}, "", core.NewValidationError("password", err)
	}

	user := core.User{
		ID:          s.newID(),
		Name:        name,
		Email:       email,
		Preferences: core.DefaultPreferences(),
	}
	record := storage.UserRecord{User: user, PasswordHash: hash}
	if err := s.repo.CreateUser(ctx, record); err != nil {
		return core.User{}, "", err
	}

	token, err := s.tokens.Generate(user.ID)
	if err != nil {
		return core.User{}, "", fmt.Errorf("issue token: %w", err)
	}

	s.logger.InfoContext(ctx, "User registered", log.FieldUserID, user.ID)
	return user, token, nil
}

// Login verifies credentials and returns the user with a fresh token.
func (s *AuthService) Login(ctx context.Context, email, password string) (core.User, string, error) {
	email = strings.ToLower(strings.TrimSpace(email))

	record, err := s.repo.GetUserByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, core.ErrNotFound) {
			return core.User{}, "", ErrInvalidCredentials
		}
		return core.User{}, "", err
	}
	if !auth.CheckPassword(record.PasswordHash, password) {
		return core.User{}, "", ErrInvalidCredentials
	}

	token, err := s.tokens.Generate(record.ID)
	if err != nil {
		return core.User{}, "", fmt.Errorf("issue token: %w", err)
	}

	s.logger.InfoContext(ctx, "User logged in", log.FieldUserID, record.ID)
	return record.User, token, nil
}

// GetUser loads the account behind a verified token.
func (s *AuthService) GetUser(ctx context.Context, id string) (core.User, error) {
	record, err := s.repo.GetUser(ctx, id)
	if err != nil {
		return core.User{}, err
	}
	return record.User, nil
}
