package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/carbrainiac/apiserver/internal/apperr"
	"github.com/carbrainiac/apiserver/internal/store"
	"github.com/carbrainiac/apiserver/types"
	"github.com/google/uuid"
)

// UserRepository defines persistence operations for users.
type UserRepository interface {
	GetByID(ctx context.Context, id uuid.UUID) (types.User, error)
	GetByEmail(ctx context.Context, email string) (types.User, error)
	List(ctx context.Context) ([]types.User, error)
	Create(ctx context.Context, user types.User) (types.User, error)
	Update(ctx context.Context, user types.User) (types.User, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

// UserService wraps the user repository with identifier checks and error
// translation into the API taxonomy.
type UserService struct {
	repo UserRepository
}

func NewUserService(repo UserRepository) *UserService {
	return &UserService{repo: repo}
}

// Create persists a new user. The email must be unused; the password is
// already hashed by the caller.
func (s *UserService) Create(ctx context.Context, user types.User) (types.User, error) {
	created, err := s.repo.Create(ctx, user)
	if err != nil {
		if errors.Is(err, store.ErrDuplicateEmail) {
			return types.User{}, apperr.BadRequest("User already exist")
		}
		slog.Error("create user failed", "error", err)
		return types.User{}, apperr.Internal("Failed to create user")
	}
	return created, nil
}

func (s *UserService) GetByID(ctx context.Context, id string) (types.User, error) {
	userID, err := uuid.Parse(id)
	if err != nil {
		return types.User{}, apperr.BadRequest("Invalid user ID")
	}

	user, err := s.repo.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return types.User{}, apperr.NotFound("User not found")
		}
		slog.Error("get user failed", "error", err, "id", id)
		return types.User{}, apperr.Internal("Failed to fetch user")
	}
	return user, nil
}

func (s *UserService) GetByEmail(ctx context.Context, email string) (types.User, error) {
	user, err := s.repo.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return types.User{}, apperr.NotFound(fmt.Sprintf("User with %s not found", email))
		}
		slog.Error("get user by email failed", "error", err)
		return types.User{}, apperr.Internal("Failed to fetch user")
	}
	return user, nil
}

// Exists reports whether an account with the given email is registered.
func (s *UserService) Exists(ctx context.Context, email string) (bool, error) {
	_, err := s.repo.GetByEmail(ctx, email)
	if err == nil {
		return true, nil
	}
	if errors.Is(err, store.ErrNotFound) {
		return false, nil
	}
	slog.Error("check user exists failed", "error", err)
	return false, apperr.Internal("Failed to check user")
}

func (s *UserService) List(ctx context.Context) ([]types.User, error) {
	users, err := s.repo.List(ctx)
	if err != nil {
		slog.Error("list users failed", "error", err)
		return nil, apperr.Internal("Failed to fetch users")
	}
	return users, nil
}

func (s *UserService) Update(ctx context.Context, id string, user types.User) (types.User, error) {
	userID, err := uuid.Parse(id)
	if err != nil {
		return types.User{}, apperr.BadRequest("Invalid user ID")
	}
	user.ID = userID

	updated, err := s.repo.Update(ctx, user)
	if err != nil {
		switch {
		case errors.Is(err, store.ErrNotFound):
			return types.User{}, apperr.NotFound("User not found")
		case errors.Is(err, store.ErrDuplicateEmail):
			return types.User{}, apperr.BadRequest("User already exist")
		default:
			slog.Error("update user failed", "error", err, "id", id)
			return types.User{}, apperr.Internal("Failed to update user")
		}
	}
	return updated, nil
}

func (s *UserService) Delete(ctx context.Context, id string) error {
	userID, err := uuid.Parse(id)
	if err != nil {
		return apperr.BadRequest("Invalid user ID")
	}

	if err := s.repo.Delete(ctx, userID); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return apperr.NotFound("User not found")
		}
		slog.Error("delete user failed", "error", err, "id", id)
		return apperr.Internal("Failed to delete user")
	}
	return nil
}
