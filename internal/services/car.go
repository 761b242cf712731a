package services

import (
	"context"
	"errors"
	"log/slog"

	"github.com/carbrainiac/apiserver/internal/apperr"
	"github.com/carbrainiac/apiserver/internal/store"
	"github.com/carbrainiac/apiserver/types"
	"github.com/google/uuid"
)

// CarRepository defines persistence operations for car listings.
type CarRepository interface {
	List(ctx context.Context, filter types.CarFilter) ([]types.Car, int, error)
	Get(ctx context.Context, id uuid.UUID) (types.Car, error)
	Create(ctx context.Context, car types.Car) (types.Car, error)
	Update(ctx context.Context, car types.Car) (types.Car, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

// CarListResult is one page of listings plus the total match count for
// pager UIs.
type CarListResult struct {
	TotalCount int         `json:"totalCount"`
	Data       []types.Car `json:"data"`
}

// CarService wraps the car repository with identifier checks and error
// translation into the API taxonomy.
type CarService struct {
	repo CarRepository
}

func NewCarService(repo CarRepository) *CarService {
	return &CarService{repo: repo}
}

func (s *CarService) Create(ctx context.Context, car types.Car) (types.Car, error) {
	created, err := s.repo.Create(ctx, car)
	if err != nil {
		slog.Error("create car failed", "error", err)
		return types.Car{}, apperr.Internal("Failed to create car")
	}
	return created, nil
}

// GetAll runs the filter against storage and returns {totalCount, data}.
// The filter is validated before it reaches this layer.
func (s *CarService) GetAll(ctx context.Context, filter types.CarFilter) (CarListResult, error) {
	cars, total, err := s.repo.List(ctx, filter)
	if err != nil {
		slog.Error("list cars failed", "error", err)
		return CarListResult{}, apperr.Internal("An error occurred while fetching cars.")
	}
	return CarListResult{TotalCount: total, Data: cars}, nil
}

func (s *CarService) GetByID(ctx context.Context, id string) (types.Car, error) {
	carID, err := uuid.Parse(id)
	if err != nil {
		return types.Car{}, apperr.BadRequest("Invalid car ID")
	}

	car, err := s.repo.Get(ctx, carID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return types.Car{}, apperr.NotFound("Car not found")
		}
		slog.Error("get car failed", "error", err, "id", id)
		return types.Car{}, apperr.Internal("Failed to fetch car")
	}
	return car, nil
}

func (s *CarService) Update(ctx context.Context, id string, car types.Car) (types.Car, error) {
	carID, err := uuid.Parse(id)
	if err != nil {
		return types.Car{}, apperr.BadRequest("Invalid car ID")
	}
	car.ID = carID

	updated, err := s.repo.Update(ctx, car)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return types.Car{}, apperr.NotFound("Car not found")
		}
		slog.Error("update car failed", "error", err, "id", id)
		return types.Car{}, apperr.Internal("Failed to update car")
	}
	return updated, nil
}

func (s *CarService) Delete(ctx context.Context, id string) error {
	carID, err := uuid.Parse(id)
	if err != nil {
		return apperr.BadRequest("Invalid car ID")
	}

	if err := s.repo.Delete(ctx, carID); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return apperr.NotFound("Car not found")
		}
		slog.Error("delete car failed", "error", err, "id", id)
		return apperr.Internal("Failed to delete car")
	}
	return nil
}
