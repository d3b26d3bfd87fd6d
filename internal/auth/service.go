package auth

import (
	"context"
	"errors"

	"golang.org/x/crypto/bcrypt"

	"github.com/minutier-app/minutier/internal/shared"
	"github.com/minutier-app/minutier/internal/users"
)

// UserSource resolves accounts for authentication.
type UserSource interface {
	FindByEmail(ctx context.Context, email string) (users.User, error)
}

// Service verifies credentials against the user directory.
type Service struct {
	users UserSource
}

// NewService builds Service instance.
func NewService(source UserSource) *Service {
	return &Service{users: source}
}

// Authenticate returns the account matching the credentials. Unknown
// emails, wrong passwords and disabled accounts all surface as
// ErrInvalidCredentials so the response does not leak which one failed.
func (s *Service) Authenticate(ctx context.Context, email, password string) (users.User, error) {
	user, err := s.users.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, users.ErrNotFound) {
			return users.User{}, shared.ErrInvalidCredentials
		}
		return users.User{}, err
	}
	if !user.IsActive {
		return users.User{}, shared.ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return users.User{}, shared.ErrInvalidCredentials
	}
	return user, nil
}
