// Package services – UserService
//
// UserService is the identity side of the system: it registers accounts with
// bcrypt-hashed passwords, checks credentials, and resolves the identity
// behind a verified bearer token. Token signing itself lives in package auth.
package services

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/tbourn/go-linkboard/internal/auth"
	"github.com/tbourn/go-linkboard/internal/domain"
	"github.com/tbourn/go-linkboard/internal/repo"
)

// UserStore is the subset of the entity store UserService needs.
type UserStore interface {
	GetUserByUsername(username string) (domain.User, bool)
	GetUserByID(id string) (domain.User, bool)
	InsertUser(u domain.User) error
}

// UserService registers and authenticates users.
type UserService struct {
	Store UserStore

	// BcryptCost is passed to auth.HashPassword.
	BcryptCost int

	Now   func() time.Time
	NewID func() string
}

// NewUserService returns a UserService backed by store.
func NewUserService(store UserStore, bcryptCost int) *UserService {
	return &UserService{
		Store:      store,
		BcryptCost: bcryptCost,
		Now:        func() time.Time { return time.Now().UTC() },
		NewID:      uuid.NewString,
	}
}

// Register creates an active user with karma 0. A taken username (exact,
// case-sensitive match) yields ErrUsernameTaken whatever the other fields are.
func (s *UserService) Register(ctx context.Context, username, email, password string) (*domain.User, error) {
	_, span := otel.Tracer("services/UserService").Start(ctx, "Register",
		trace.WithAttributes(attribute.String("user.name", username)),
	)
	defer span.End()

	if _, ok := s.Store.GetUserByUsername(username); ok {
		return nil, ErrUsernameTaken
	}
	hash, err := auth.HashPassword(password, s.BcryptCost)
	if err != nil {
		return nil, err
	}
	u := domain.User{
		ID:           s.NewID(),
		Username:     username,
		Email:        email,
		PasswordHash: hash,
		Karma:        0,
		IsActive:     true,
		CreatedAt:    s.Now(),
	}
	// The lookup above is only a fast path; the insert is the authoritative check.
	if err := s.Store.InsertUser(u); err != nil {
		if errors.Is(err, repo.ErrDuplicate) {
			return nil, ErrUsernameTaken
		}
		return nil, err
	}
	return &u, nil
}

// Authenticate checks username and password. Unknown users and wrong
// passwords both return ErrInvalidCredentials; a deactivated account returns
// ErrInactiveUser after its password has been verified.
func (s *UserService) Authenticate(ctx context.Context, username, password string) (*domain.User, error) {
	_, span := otel.Tracer("services/UserService").Start(ctx, "Authenticate",
		trace.WithAttributes(attribute.String("user.name", username)),
	)
	defer span.End()

	u, ok := s.Store.GetUserByUsername(username)
	if !ok {
		return nil, ErrInvalidCredentials
	}
	if err := auth.CheckPassword(u.PasswordHash, password); err != nil {
		return nil, ErrInvalidCredentials
	}
	if !u.IsActive {
		return nil, ErrInactiveUser
	}
	return &u, nil
}

// Resolve returns the active user named by a verified token. The user id claim
// must match the stored record so a re-registered username cannot reuse an old
// token.
func (s *UserService) Resolve(ctx context.Context, username, userID string) (*domain.User, error) {
	u, ok := s.Store.GetUserByUsername(username)
	if !ok || (userID != "" && u.ID != userID) {
		return nil, ErrInvalidCredentials
	}
	if !u.IsActive {
		return nil, ErrInactiveUser
	}
	return &u, nil
}

// Get returns the user with id.
func (s *UserService) Get(ctx context.Context, id string) (*domain.User, error) {
	u, ok := s.Store.GetUserByID(id)
	if !ok {
		return nil, ErrNotFound
	}
	return &u, nil
}
