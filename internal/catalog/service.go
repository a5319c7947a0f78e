package catalog

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/plateful/plateful-backend/pkg/db/models"
	pkgerrors "github.com/plateful/plateful-backend/pkg/errors"
)

type itemLoader interface {
	FindItem(ctx context.Context, id uuid.UUID) (*models.MenuItem, error)
}

// Service is the snapshot source for cart mutations: it resolves live menu
// items whose fields, add-ons included, get copied into cart lines. Add-ons
// are never looked up on their own; they only make sense scoped to an item.
type Service interface {
	GetItem(ctx context.Context, id uuid.UUID) (*models.MenuItem, error)
}

type service struct {
	repo itemLoader
}

// NewService builds a catalog service backed by the provided repository.
func NewService(repo itemLoader) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("catalog repository required")
	}
	return &service{repo: repo}, nil
}

// GetItem returns a menu item with its add-ons, or not-found.
func (s *service) GetItem(ctx context.Context, id uuid.UUID) (*models.MenuItem, error) {
	if id == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "menu item id is required")
	}
	record, err := s.repo.FindItem(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "menu item not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load menu item")
	}
	return record, nil
}
