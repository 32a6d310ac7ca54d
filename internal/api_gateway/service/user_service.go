package service

import (
	"context"
	"log/slog"
	"strings"

	"github.com/google/uuid"

	"github.com/fin-api-ledger/internal/domain/user"
)

// UserServiceImpl implements the UserService interface
type UserServiceImpl struct {
	users  user.Repository
	tokens TokenIssuer
	logger *slog.Logger
}

// NewUserService creates a new user service
func NewUserService(logger *slog.Logger, users user.Repository, tokens TokenIssuer) UserService {
	return &UserServiceImpl{
		users:  users,
		tokens: tokens,
		logger: logger,
	}
}

// CreateUser registers a new user, rejecting emails already in use
func (s *UserServiceImpl) CreateUser(ctx context.Context, name, email, password string) (*user.User, error) {
	u, err := user.NewUser(name, email, password)
	if err != nil {
		return nil, err
	}

	existing, err := s.users.FindByEmail(ctx, u.Email)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, user.ErrDuplicateEmail{Email: u.Email}
	}

	if err := s.users.Create(ctx, u); err != nil {
		return nil, err
	}

	s.logger.Info("User created", "user_id", u.ID.String())
	return u, nil
}

// Authenticate verifies the credentials and issues a session token
func (s *UserServiceImpl) Authenticate(ctx context.Context, email, password string) (*Session, error) {
	u, err := s.users.FindByEmail(ctx, strings.ToLower(strings.TrimSpace(email)))
	if err != nil {
		return nil, err
	}
	if u == nil || !u.CheckPassword(password) {
		return nil, user.ErrIncorrectCredentials
	}

	token, err := s.tokens.Issue(u.ID)
	if err != nil {
		s.logger.Error("Failed to issue token", "user_id", u.ID.String(), "error", err)
		return nil, err
	}

	return &Session{Token: token, User: u}, nil
}

// GetProfile returns the user, or ErrUserNotFound
func (s *UserServiceImpl) GetProfile(ctx context.Context, id uuid.UUID) (*user.User, error) {
	return s.users.FindByID(ctx, id)
}
