package orders

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/plateful/plateful-backend/internal/restaurants"
	"github.com/plateful/plateful-backend/pkg/db/models"
	"github.com/plateful/plateful-backend/pkg/enums"
	pkgerrors "github.com/plateful/plateful-backend/pkg/errors"
	"github.com/plateful/plateful-backend/pkg/pagination"
	"github.com/plateful/plateful-backend/pkg/types"
)

const (
	minPickupLead    = 30 * time.Minute
	maxPickupHorizon = 7 * 24 * time.Hour
	readyBuffer      = 15 * time.Minute
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type restaurantLoader interface {
	GetByID(ctx context.Context, id uuid.UUID) (*models.Restaurant, error)
}

type notifier interface {
	OrderConfirmed(ctx context.Context, order *models.Order)
}

// CreateFromCartInput carries the checkout payload forwarded to order creation.
type CreateFromCartInput struct {
	DeliveryAddress   *types.Address
	DeliveryPoint     *types.GeoPoint
	PreferredPickupAt *time.Time
	Instructions      *string
}

// Service drives the order fulfillment lifecycle.
type Service interface {
	CreateFromCart(ctx context.Context, tx *gorm.DB, cart *models.Cart, input CreateFromCartInput) (*models.Order, error)
	GetByID(ctx context.Context, id uuid.UUID) (*models.Order, error)
	GetByPickupCode(ctx context.Context, code string) (*models.Order, error)
	ListForCustomer(ctx context.Context, customerID uuid.UUID, params pagination.Params, filters ListFilters) ([]models.Order, *pagination.Cursor, error)
	Apply(ctx context.Context, id uuid.UUID, action enums.OrderAction) (*models.Order, error)
	UpdatePickupTime(ctx context.Context, id uuid.UUID, at time.Time) (*models.Order, error)
}

type service struct {
	repo        Repository
	tx          txRunner
	restaurants restaurantLoader
	notify      notifier
	now         func() time.Time
}

// NewService builds an order service with the required dependencies.
func NewService(repo Repository, tx txRunner, restaurantSvc restaurantLoader, notify notifier) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("orders repository required")
	}
	if tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	if restaurantSvc == nil {
		return nil, fmt.Errorf("restaurant loader required")
	}
	if notify == nil {
		return nil, fmt.Errorf("notifier required")
	}
	return &service{
		repo:        repo,
		tx:          tx,
		restaurants: restaurantSvc,
		notify:      notify,
		now:         time.Now,
	}, nil
}

// CreateFromCart snapshots every cart line into an immutable order inside the
// caller's checkout transaction. The copied fields are never re-read from the
// catalog afterwards.
func (s *service) CreateFromCart(ctx context.Context, tx *gorm.DB, cart *models.Cart, input CreateFromCartInput) (*models.Order, error) {
	if cart == nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "cart is required")
	}
	if len(cart.Items) == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "cart is empty")
	}

	restaurant, err := s.restaurants.GetByID(ctx, cart.RestaurantID)
	if err != nil {
		return nil, err
	}

	var estimatedReady *time.Time
	if input.PreferredPickupAt != nil {
		if err := s.validatePickupTime(restaurant, *input.PreferredPickupAt); err != nil {
			return nil, err
		}
		ready := input.PreferredPickupAt.Add(-readyBuffer)
		estimatedReady = &ready
	}

	code, err := newPickupCode()
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "generate pickup code")
	}

	order := &models.Order{
		PickupCode:        code,
		CustomerID:        cart.CustomerID,
		RestaurantID:      cart.RestaurantID,
		Status:            enums.OrderStatusPending,
		PaymentStatus:     enums.PaymentStatusPending,
		DeliveryAddress:   input.DeliveryAddress,
		DeliveryPoint:     input.DeliveryPoint,
		PreferredPickupAt: input.PreferredPickupAt,
		EstimatedReadyAt:  estimatedReady,
		Instructions:      input.Instructions,
		Items:             snapshotItems(cart.Items),
	}
	applyTotals(order)

	created, err := s.repo.WithTx(tx).Create(ctx, order)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "persist order")
	}
	return created, nil
}

// GetByID returns an order or not-found.
func (s *service) GetByID(ctx context.Context, id uuid.UUID) (*models.Order, error) {
	if id == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "order id is required")
	}
	record, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load order")
	}
	return record, nil
}

// GetByPickupCode resolves an order by its public pickup token.
func (s *service) GetByPickupCode(ctx context.Context, code string) (*models.Order, error) {
	if code == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "pickup code is required")
	}
	record, err := s.repo.FindByPickupCode(ctx, code)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load order")
	}
	return record, nil
}

// ListForCustomer returns one cursor page of the customer's order history.
func (s *service) ListForCustomer(ctx context.Context, customerID uuid.UUID, params pagination.Params, filters ListFilters) ([]models.Order, *pagination.Cursor, error) {
	if customerID == uuid.Nil {
		return nil, nil, pkgerrors.New(pkgerrors.CodeValidation, "customer id is required")
	}
	records, next, err := s.repo.ListByCustomer(ctx, customerID, params, filters)
	if err != nil {
		return nil, nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list orders")
	}
	return records, next, nil
}

// Apply performs one fulfillment transition. The edge table decides legality;
// side-effect timestamps are stamped here.
func (s *service) Apply(ctx context.Context, id uuid.UUID, action enums.OrderAction) (*models.Order, error) {
	if id == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "order id is required")
	}
	if !action.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "unknown order action")
	}

	var updated *models.Order
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		txRepo := s.repo.WithTx(tx)
		order, err := txRepo.FindByID(ctx, id)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load order")
		}

		next, ok := NextStatus(order.Status, action)
		if !ok {
			return pkgerrors.New(pkgerrors.CodeStateConflict,
				fmt.Sprintf("cannot %s an order in status %s", action, order.Status))
		}
		if action == enums.OrderActionConfirm && len(order.Items) == 0 {
			return pkgerrors.New(pkgerrors.CodeStateConflict, "order has no items")
		}

		fields := map[string]any{"status": next}
		now := s.now().UTC()
		switch action {
		case enums.OrderActionMarkReady:
			fields["actual_ready_at"] = now
		case enums.OrderActionMarkPickedUp:
			fields["picked_up_at"] = now
		}

		if err := txRepo.UpdateFields(ctx, order.ID, fields); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update order status")
		}

		updated, err = txRepo.FindByID(ctx, order.ID)
		return err
	})
	if err != nil {
		return nil, err
	}

	if action == enums.OrderActionConfirm {
		s.notify.OrderConfirmed(ctx, updated)
	}
	return updated, nil
}

// UpdatePickupTime changes the preferred pickup time while the order is still
// modifiable.
func (s *service) UpdatePickupTime(ctx context.Context, id uuid.UUID, at time.Time) (*models.Order, error) {
	if id == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "order id is required")
	}

	var updated *models.Order
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		txRepo := s.repo.WithTx(tx)
		order, err := txRepo.FindByID(ctx, id)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load order")
		}
		if !CanBeModified(order.Status) {
			return pkgerrors.New(pkgerrors.CodeStateConflict, "order can no longer be modified")
		}

		restaurant, err := s.restaurants.GetByID(ctx, order.RestaurantID)
		if err != nil {
			return err
		}
		if err := s.validatePickupTime(restaurant, at); err != nil {
			return err
		}

		ready := at.Add(-readyBuffer)
		if err := txRepo.UpdateFields(ctx, order.ID, map[string]any{
			"preferred_pickup_at": at,
			"estimated_ready_at":  ready,
		}); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update pickup time")
		}

		updated, err = txRepo.FindByID(ctx, order.ID)
		return err
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

func (s *service) validatePickupTime(restaurant *models.Restaurant, at time.Time) error {
	now := s.now()
	if at.Before(now.Add(minPickupLead)) {
		return pkgerrors.New(pkgerrors.CodeValidation, "pickup time must be at least 30 minutes from now")
	}
	if at.After(now.Add(maxPickupHorizon)) {
		return pkgerrors.New(pkgerrors.CodeValidation, "pickup time must be within 7 days")
	}
	if !restaurants.IsOpenAt(restaurant, at) {
		return pkgerrors.New(pkgerrors.CodeValidation, "pickup time is outside the restaurant's opening hours")
	}
	return nil
}

// snapshotItems copies cart lines into order line snapshots. Catalog edits
// after this point never touch the order.
func snapshotItems(items []models.CartItem) []models.OrderItem {
	out := make([]models.OrderItem, 0, len(items))
	for i := range items {
		src := items[i]
		addOns := make([]models.OrderAddOn, 0, len(src.AddOns))
		for j := range src.AddOns {
			a := src.AddOns[j]
			addOns = append(addOns, models.OrderAddOn{
				AddOnID:        a.AddOnID,
				Name:           a.Name,
				Description:    copyStrPtr(a.Description),
				UnitPriceCents: a.UnitPriceCents,
				Quantity:       a.Quantity,
				TotalCents:     a.TotalCents,
			})
		}
		out = append(out, models.OrderItem{
			MenuItemID:     src.MenuItemID,
			Name:           src.Name,
			Description:    copyStrPtr(src.Description),
			Category:       copyStrPtr(src.Category),
			ImageURL:       copyStrPtr(src.ImageURL),
			UnitPriceCents: src.UnitPriceCents,
			Quantity:       src.Quantity,
			Instructions:   copyStrPtr(src.Instructions),
			SubtotalCents:  src.SubtotalCents,
			TotalCents:     src.TotalCents,
			AddOns:         addOns,
		})
	}
	return out
}

// applyTotals recomputes order money columns from the snapshotted lines.
// total = subtotal + delivery fee + service fee - discount, never negative.
func applyTotals(order *models.Order) {
	subtotal := 0
	for i := range order.Items {
		subtotal += order.Items[i].TotalCents
	}
	order.SubtotalCents = subtotal
	total := subtotal + order.DeliveryFeeCents + order.ServiceFeeCents - order.DiscountCents
	if total < 0 {
		total = 0
	}
	order.TotalCents = total
}

func copyStrPtr(src *string) *string {
	if src == nil {
		return nil
	}
	val := *src
	return &val
}
