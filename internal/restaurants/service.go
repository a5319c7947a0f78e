package restaurants

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/plateful/plateful-backend/pkg/db/models"
	pkgerrors "github.com/plateful/plateful-backend/pkg/errors"
)

type restaurantLoader interface {
	FindByID(ctx context.Context, id uuid.UUID) (*models.Restaurant, error)
}

// Service exposes the restaurant lookups the ordering core depends on.
type Service interface {
	GetByID(ctx context.Context, id uuid.UUID) (*models.Restaurant, error)
	EnsureOrderable(ctx context.Context, id uuid.UUID) (*models.Restaurant, error)
}

type service struct {
	repo restaurantLoader
}

// NewService builds a restaurant service backed by the provided repository.
func NewService(repo restaurantLoader) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("restaurant repository required")
	}
	return &service{repo: repo}, nil
}

// GetByID returns a restaurant or not-found.
func (s *service) GetByID(ctx context.Context, id uuid.UUID) (*models.Restaurant, error) {
	if id == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "restaurant id is required")
	}
	record, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "restaurant not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load restaurant")
	}
	return record, nil
}

// EnsureOrderable loads a restaurant and rejects ones that cannot take orders.
func (s *service) EnsureOrderable(ctx context.Context, id uuid.UUID) (*models.Restaurant, error) {
	record, err := s.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !record.Active || !record.Approved {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "restaurant is not accepting orders")
	}
	return record, nil
}

// IsOpenAt reports whether the restaurant is open at the given instant.
// Windows may span midnight (e.g. 22:00-04:00): a wrapped window is open at
// or after the opening minute OR at or before the closing minute.
func IsOpenAt(r *models.Restaurant, at time.Time) bool {
	minute := at.Hour()*60 + at.Minute()
	if r.OpeningMinute <= r.ClosingMinute {
		return minute >= r.OpeningMinute && minute <= r.ClosingMinute
	}
	return minute >= r.OpeningMinute || minute <= r.ClosingMinute
}
