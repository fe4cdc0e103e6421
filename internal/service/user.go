package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"gorm.io/gorm"

	"github.com/Skotchmaster/blog_api/internal/events"
	"github.com/Skotchmaster/blog_api/internal/hash"
	"github.com/Skotchmaster/blog_api/internal/logging"
	"github.com/Skotchmaster/blog_api/internal/models"
	"github.com/Skotchmaster/blog_api/internal/repo"
	"github.com/Skotchmaster/blog_api/internal/tokens"
	"github.com/Skotchmaster/blog_api/internal/transport"
)

type TokenIssuer interface {
	Issue(c tokens.Claims) (string, error)
}

type UserService struct {
	Repo   *repo.GormRepo
	Tokens TokenIssuer
	Events events.Publisher
}

type AuthResult struct {
	User  *models.User
	Token string
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// Register always creates a plain user; roles are never taken from the
// request.
func (s *UserService) Register(ctx context.Context, req transport.RegisterRequest) (*AuthResult, error) {
	l := logging.FromContext(ctx).With("svc", "user.register")

	email := normalizeEmail(req.Email)
	if email == "" || req.Password == "" {
		return nil, ErrValidation
	}

	taken, err := s.Repo.EmailTaken(ctx, email, 0)
	if err != nil {
		return nil, fmt.Errorf("%w: check email: %w", ErrInternal, err)
	}
	if taken {
		l.Warn("register_error", "status", 409, "reason", "user already exists")
		return nil, ErrConflict
	}

	pwHash, err := hash.HashPassword(req.Password)
	if err != nil {
		return nil, hashError(err)
	}

	user := &models.User{
		FirstName:    strings.TrimSpace(req.FirstName),
		LastName:     strings.TrimSpace(req.LastName),
		Email:        email,
		PasswordHash: pwHash,
		Role:         models.RoleUser,
	}
	if err := s.Repo.CreateUser(ctx, user); err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, ErrConflict
		}
		return nil, fmt.Errorf("%w: create user: %w", ErrInternal, err)
	}

	token, err := s.issue(user)
	if err != nil {
		return nil, err
	}

	events.Publish(ctx, s.Events, events.TopicUsers, events.Event{
		Type:   events.UserRegistered,
		UserID: user.ID,
		Email:  user.Email,
	})
	l.Info("register_success", "user_id", user.ID)
	return &AuthResult{User: user, Token: token}, nil
}

// Login answers ErrInvalidCredentials for both an unknown email and a wrong
// password.
func (s *UserService) Login(ctx context.Context, req transport.LoginRequest) (*AuthResult, error) {
	l := logging.FromContext(ctx).With("svc", "user.login")

	user, err := s.Repo.GetUserByEmail(ctx, normalizeEmail(req.Email))
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			l.Warn("login_failed", "status", 401, "reason", "unknown email")
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("%w: find user: %w", ErrInternal, err)
	}

	ok, err := hash.CheckPassword(user.PasswordHash, req.Password)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInternal, err)
	}
	if !ok {
		l.Warn("login_failed", "status", 401, "reason", "wrong password", "user_id", user.ID)
		return nil, ErrInvalidCredentials
	}

	token, err := s.issue(user)
	if err != nil {
		return nil, err
	}

	events.Publish(ctx, s.Events, events.TopicUsers, events.Event{
		Type:   events.UserLoggedIn,
		UserID: user.ID,
		Email:  user.Email,
	})
	l.Info("login_success", "user_id", user.ID)
	return &AuthResult{User: user, Token: token}, nil
}

func (s *UserService) Profile(ctx context.Context, id uint) (*models.User, error) {
	user, err := s.Repo.GetUserByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("%w: find user: %w", ErrInternal, err)
	}
	return user, nil
}

func (s *UserService) UpdateProfile(ctx context.Context, id uint, req transport.UpdateProfileRequest) (*models.User, error) {
	email := normalizeEmail(req.Email)

	taken, err := s.Repo.EmailTaken(ctx, email, id)
	if err != nil {
		return nil, fmt.Errorf("%w: check email: %w", ErrInternal, err)
	}
	if taken {
		return nil, ErrConflict
	}

	user, err := s.Repo.UpdateProfile(ctx, id, strings.TrimSpace(req.FirstName), strings.TrimSpace(req.LastName), email)
	if err != nil {
		switch {
		case errors.Is(err, gorm.ErrRecordNotFound):
			return nil, ErrNotFound
		case errors.Is(err, gorm.ErrDuplicatedKey):
			return nil, ErrConflict
		}
		return nil, fmt.Errorf("%w: update profile: %w", ErrInternal, err)
	}

	events.Publish(ctx, s.Events, events.TopicUsers, events.Event{
		Type:   events.UserUpdated,
		UserID: user.ID,
		Email:  user.Email,
	})
	return user, nil
}

// ChangePassword compares current against the stored digest exactly as
// typed, then stores a fresh digest of next.
func (s *UserService) ChangePassword(ctx context.Context, id uint, current, next string) error {
	user, err := s.Profile(ctx, id)
	if err != nil {
		return err
	}

	ok, err := hash.CheckPassword(user.PasswordHash, current)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrInternal, err)
	}
	if !ok {
		logging.FromContext(ctx).Warn("change_password_failed", "status", 401, "reason", "incorrect current password", "user_id", id)
		return ErrWrongPassword
	}

	pwHash, err := hash.HashPassword(next)
	if err != nil {
		return hashError(err)
	}
	if err := s.Repo.UpdatePassword(ctx, id, pwHash); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrNotFound
		}
		return fmt.Errorf("%w: update password: %w", ErrInternal, err)
	}

	events.Publish(ctx, s.Events, events.TopicUsers, events.Event{
		Type:   events.PasswordChanged,
		UserID: id,
	})
	return nil
}

func (s *UserService) ListUsers(ctx context.Context, offset, limit int) (int64, []models.User, error) {
	total, users, err := s.Repo.ListUsers(ctx, offset, limit)
	if err != nil {
		return 0, nil, fmt.Errorf("%w: list users: %w", ErrInternal, err)
	}
	return total, users, nil
}

func (s *UserService) issue(u *models.User) (string, error) {
	token, err := s.Tokens.Issue(tokens.Claims{ID: u.ID, Email: u.Email, Role: u.Role})
	if err != nil {
		return "", fmt.Errorf("%w: issue token: %w", ErrInternal, err)
	}
	return token, nil
}

func hashError(err error) error {
	if errors.Is(err, hash.ErrTooLong) {
		return fmt.Errorf("%w: %w", ErrValidation, err)
	}
	return fmt.Errorf("%w: %w", ErrInternal, err)
}
