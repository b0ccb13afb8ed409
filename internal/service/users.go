package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"golang.org/x/crypto/bcrypt"

	"github.com/DJohnMcD/mcdairmant-campaign-infrastructure/internal/database"
)

// ErrInvalidCredentials is returned when authentication fails for any
// reason; callers must not learn whether the user exists.
var ErrInvalidCredentials = errors.New("invalid credentials")

const resetTokenTTL = time.Hour

// User is the identity record surfaced to callers.
type User struct {
	ID       int64
	Username string
	Email    string
}

// UserService owns the identity lifecycle: registration, authentication and
// password reset.
type UserService struct {
	Gateway *database.Gateway
	Audit   *Auditor
	Log     *logrus.Entry
}

func NewUserService(gw *database.Gateway, audit *Auditor, logger *logrus.Logger) *UserService {
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return &UserService{Gateway: gw, Audit: audit, Log: logger.WithField("component", "users")}
}

// Register creates a user with a bcrypt password hash. Duplicate handle or
// email surfaces as the backend's constraint error; the route layer owns the
// user-facing translation.
func (s *UserService) Register(ctx context.Context, username, email, password string, actor Actor) (int64, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return 0, fmt.Errorf("hash password: %w", err)
	}

	res, err := s.Gateway.Run(ctx,
		"INSERT INTO users (username, password, email) VALUES (?, ?, ?)",
		username, string(hash), email)
	if err != nil {
		return 0, err
	}

	s.Audit.Record(ctx, res.InsertID, "user_registered", "users", res.InsertID, actor, map[string]any{
		"username": username,
	})
	return res.InsertID, nil
}

// Authenticate verifies a username/password pair.
func (s *UserService) Authenticate(ctx context.Context, username, password string) (*User, error) {
	row, err := s.Gateway.Get(ctx,
		"SELECT id, username, email, password FROM users WHERE username = ?", username)
	if err != nil {
		return nil, err
	}
	if row == nil {
		return nil, ErrInvalidCredentials
	}
	if bcrypt.CompareHashAndPassword([]byte(row.String("password")), []byte(password)) != nil {
		return nil, ErrInvalidCredentials
	}
	return &User{ID: row.Int64("id"), Username: row.String("username"), Email: row.String("email")}, nil
}

// StartPasswordReset stores a fresh reset token and returns it for delivery.
// An unknown email returns an empty token with no error, so the endpoint
// cannot be used to probe for accounts.
func (s *UserService) StartPasswordReset(ctx context.Context, email string, actor Actor) (string, error) {
	row, err := s.Gateway.Get(ctx, "SELECT id FROM users WHERE email = ?", email)
	if err != nil {
		return "", err
	}
	if row == nil {
		return "", nil
	}
	userID := row.Int64("id")

	token := uuid.NewString()
	expires := time.Now().UTC().Add(resetTokenTTL).Format(time.RFC3339)
	if _, err := s.Gateway.Run(ctx,
		"UPDATE users SET reset_token = ?, reset_token_expires = ? WHERE id = ?",
		token, expires, userID); err != nil {
		return "", fmt.Errorf("store reset token: %w", err)
	}

	s.Audit.Record(ctx, userID, "password_reset_requested", "users", userID, actor, nil)
	return token, nil
}

// CompleteReset exchanges a valid, unexpired token for a new password and
// clears the token.
func (s *UserService) CompleteReset(ctx context.Context, token, newPassword string, actor Actor) error {
	row, err := s.Gateway.Get(ctx,
		"SELECT id, reset_token_expires FROM users WHERE reset_token = ?", token)
	if err != nil {
		return err
	}
	if row == nil {
		return ErrInvalidCredentials
	}

	expires, err := parseDate(row.String("reset_token_expires"))
	if err != nil || time.Now().UTC().After(expires) {
		return ErrInvalidCredentials
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(newPassword), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}

	userID := row.Int64("id")
	if _, err := s.Gateway.Run(ctx,
		"UPDATE users SET password = ?, reset_token = NULL, reset_token_expires = NULL WHERE id = ?",
		string(hash), userID); err != nil {
		return fmt.Errorf("apply reset: %w", err)
	}

	s.Audit.Record(ctx, userID, "password_reset_completed", "users", userID, actor, nil)
	return nil
}
