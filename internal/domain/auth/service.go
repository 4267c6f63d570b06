package auth

import (
	"context"
	"errors"

	"golang.org/x/crypto/bcrypt"

	jwtsvc "stitchworks/internal/pkg/jwt"
)

var ErrInvalidCredentials = errors.New("invalid email or password")

type Service struct {
	users *UserRepository
	jwt   *jwtsvc.Service
}

func NewService(users *UserRepository, jwt *jwtsvc.Service) *Service {
	return &Service{users: users, jwt: jwt}
}

// Login verifies credentials and returns a signed token plus the user.
func (s *Service) Login(ctx context.Context, email, password string) (string, *User, error) {
	user, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			return "", nil, ErrInvalidCredentials
		}
		return "", nil, err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return "", nil, ErrInvalidCredentials
	}

	token, err := s.jwt.GenerateToken(user.ID, user.Role)
	if err != nil {
		return "", nil, err
	}

	return token, user, nil
}

// HashPassword wraps bcrypt for seeding and tests.
func HashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}
