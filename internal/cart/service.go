package cart

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/plateful/plateful-backend/internal/orders"
	"github.com/plateful/plateful-backend/pkg/db"
	"github.com/plateful/plateful-backend/pkg/db/models"
	"github.com/plateful/plateful-backend/pkg/enums"
	pkgerrors "github.com/plateful/plateful-backend/pkg/errors"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type restaurantGate interface {
	EnsureOrderable(ctx context.Context, id uuid.UUID) (*models.Restaurant, error)
}

type catalogLoader interface {
	GetItem(ctx context.Context, id uuid.UUID) (*models.MenuItem, error)
}

type orderCreator interface {
	CreateFromCart(ctx context.Context, tx *gorm.DB, cart *models.Cart, input orders.CreateFromCartInput) (*models.Order, error)
}

// AddOnSelection picks one catalog add-on with a quantity.
type AddOnSelection struct {
	AddOnID  uuid.UUID
	Quantity int
}

// AddItemInput is the payload for adding a catalog item to a cart.
type AddItemInput struct {
	MenuItemID   uuid.UUID
	Quantity     int
	Instructions *string
	AddOns       []AddOnSelection
}

// CheckoutInput carries the delivery/pickup details forwarded to order creation.
type CheckoutInput = orders.CreateFromCartInput

// Service exposes the cart staging operations.
type Service interface {
	GetOrCreate(ctx context.Context, customerID, restaurantID uuid.UUID) (*models.Cart, error)
	AddItem(ctx context.Context, customerID, restaurantID uuid.UUID, input AddItemInput) (*models.Cart, error)
	UpdateQuantity(ctx context.Context, customerID, cartID, itemID uuid.UUID, quantity int) (*models.Cart, error)
	RemoveItem(ctx context.Context, customerID, cartID, itemID uuid.UUID) (*models.Cart, error)
	Clear(ctx context.Context, customerID, cartID uuid.UUID) (*models.Cart, error)
	Checkout(ctx context.Context, customerID, cartID uuid.UUID, input CheckoutInput) (*models.Order, error)
}

type service struct {
	repo        CartRepository
	tx          txRunner
	restaurants restaurantGate
	catalog     catalogLoader
	orders      orderCreator
}

// NewService builds a cart service backed by the provided stack.
func NewService(repo CartRepository, tx txRunner, restaurantSvc restaurantGate, catalogSvc catalogLoader, orderSvc orderCreator) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("cart repository required")
	}
	if tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	if restaurantSvc == nil {
		return nil, fmt.Errorf("restaurant gate required")
	}
	if catalogSvc == nil {
		return nil, fmt.Errorf("catalog loader required")
	}
	if orderSvc == nil {
		return nil, fmt.Errorf("order creator required")
	}
	return &service{
		repo:        repo,
		tx:          tx,
		restaurants: restaurantSvc,
		catalog:     catalogSvc,
		orders:      orderSvc,
	}, nil
}

// GetOrCreate returns the customer's active cart for the restaurant, creating
// one if none exists. The partial unique index on the active pair absorbs
// creation races: the loser re-reads the winner's row.
func (s *service) GetOrCreate(ctx context.Context, customerID, restaurantID uuid.UUID) (*models.Cart, error) {
	if customerID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "customer id is required")
	}
	if restaurantID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "restaurant id is required")
	}

	if _, err := s.restaurants.EnsureOrderable(ctx, restaurantID); err != nil {
		return nil, err
	}

	record, err := s.repo.FindActive(ctx, customerID, restaurantID)
	if err == nil {
		return record, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load cart")
	}

	created, err := s.repo.Create(ctx, &models.Cart{
		CustomerID:   customerID,
		RestaurantID: restaurantID,
		Status:       enums.CartStatusActive,
	})
	if err != nil {
		if db.IsUniqueViolation(err, "uq_carts_customer_restaurant_active") {
			record, err = s.repo.FindActive(ctx, customerID, restaurantID)
			if err != nil {
				return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "reload cart after race")
			}
			return record, nil
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create cart")
	}
	return created, nil
}

// AddItem validates the catalog line, merges it into the active cart and
// recomputes totals in one transaction.
func (s *service) AddItem(ctx context.Context, customerID, restaurantID uuid.UUID, input AddItemInput) (*models.Cart, error) {
	if input.Quantity < 1 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "quantity must be at least 1")
	}

	record, err := s.GetOrCreate(ctx, customerID, restaurantID)
	if err != nil {
		return nil, err
	}

	item, err := s.catalog.GetItem(ctx, input.MenuItemID)
	if err != nil {
		return nil, err
	}
	if item.RestaurantID != record.RestaurantID {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "menu item belongs to a different restaurant")
	}
	if !item.Available {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "menu item is not available")
	}

	selections, err := resolveAddOns(item, input.AddOns)
	if err != nil {
		return nil, err
	}

	var saved *models.Cart
	if err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		txRepo := s.repo.WithTx(tx)
		current, err := txRepo.FindByIDAndCustomer(ctx, record.ID, customerID)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "reload cart")
		}
		if current.Status != enums.CartStatusActive {
			return pkgerrors.New(pkgerrors.CodeStateConflict, "cart is not active")
		}

		if line := findLine(current, item.ID); line != nil {
			line.Quantity += input.Quantity
			if err := mergeAddOns(line, item, selections); err != nil {
				return err
			}
			recomputeItem(line)
			if err := txRepo.SaveItem(ctx, line); err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update cart item")
			}
		} else {
			newLine := buildLine(current.ID, item, input, selections)
			recomputeItem(newLine)
			if err := txRepo.CreateItem(ctx, newLine); err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "insert cart item")
			}
		}

		saved, err = s.persistTotals(ctx, txRepo, current.ID, customerID)
		return err
	}); err != nil {
		return nil, err
	}
	return saved, nil
}

// UpdateQuantity changes a line's quantity; zero or below removes the line.
func (s *service) UpdateQuantity(ctx context.Context, customerID, cartID, itemID uuid.UUID, quantity int) (*models.Cart, error) {
	var saved *models.Cart
	if err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		txRepo := s.repo.WithTx(tx)
		current, err := s.loadActive(ctx, txRepo, cartID, customerID)
		if err != nil {
			return err
		}

		line := findLineByID(current, itemID)
		if line == nil {
			return pkgerrors.New(pkgerrors.CodeNotFound, "cart item not found")
		}

		if quantity <= 0 {
			if err := txRepo.DeleteItem(ctx, line.ID); err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "remove cart item")
			}
		} else {
			line.Quantity = quantity
			recomputeItem(line)
			if err := txRepo.SaveItem(ctx, line); err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update cart item")
			}
		}

		saved, err = s.persistTotals(ctx, txRepo, current.ID, customerID)
		return err
	}); err != nil {
		return nil, err
	}
	return saved, nil
}

// RemoveItem drops one line and recomputes totals.
func (s *service) RemoveItem(ctx context.Context, customerID, cartID, itemID uuid.UUID) (*models.Cart, error) {
	return s.UpdateQuantity(ctx, customerID, cartID, itemID, 0)
}

// Clear removes every line and retires the cart.
func (s *service) Clear(ctx context.Context, customerID, cartID uuid.UUID) (*models.Cart, error) {
	var saved *models.Cart
	if err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		txRepo := s.repo.WithTx(tx)
		current, err := s.loadActive(ctx, txRepo, cartID, customerID)
		if err != nil {
			return err
		}

		if err := txRepo.DeleteItems(ctx, current.ID); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "clear cart items")
		}
		if err := txRepo.UpdateStatus(ctx, current.ID, enums.CartStatusCleared); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "retire cart")
		}

		saved, err = s.persistTotals(ctx, txRepo, current.ID, customerID)
		return err
	}); err != nil {
		return nil, err
	}
	return saved, nil
}

// Checkout converts the cart into an order and marks it converted, in one
// transaction spanning both aggregates.
func (s *service) Checkout(ctx context.Context, customerID, cartID uuid.UUID, input CheckoutInput) (*models.Order, error) {
	if customerID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "customer id is required")
	}
	if cartID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "cart id is required")
	}

	var order *models.Order
	if err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		txRepo := s.repo.WithTx(tx)
		current, err := s.loadActive(ctx, txRepo, cartID, customerID)
		if err != nil {
			return err
		}
		if len(current.Items) == 0 {
			return pkgerrors.New(pkgerrors.CodeValidation, "cart is empty")
		}

		order, err = s.orders.CreateFromCart(ctx, tx, current, input)
		if err != nil {
			return err
		}

		return txRepo.UpdateStatus(ctx, current.ID, enums.CartStatusConverted)
	}); err != nil {
		return nil, err
	}
	return order, nil
}

func (s *service) loadActive(ctx context.Context, txRepo CartRepository, cartID, customerID uuid.UUID) (*models.Cart, error) {
	current, err := txRepo.FindByIDAndCustomer(ctx, cartID, customerID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "cart not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load cart")
	}
	if current.Status != enums.CartStatusActive {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "cart is not active")
	}
	return current, nil
}

// persistTotals re-reads the cart lines and writes fresh totals within the
// same transaction as the mutation.
func (s *service) persistTotals(ctx context.Context, txRepo CartRepository, cartID, customerID uuid.UUID) (*models.Cart, error) {
	current, err := txRepo.FindByIDAndCustomer(ctx, cartID, customerID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "reload cart")
	}
	recomputeCart(current)
	if err := txRepo.SaveTotals(ctx, current); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "persist cart totals")
	}
	return current, nil
}

// resolveAddOns validates each selection against the catalog item's declared
// add-ons and returns snapshot rows.
func resolveAddOns(item *models.MenuItem, selections []AddOnSelection) ([]models.CartItemAddOn, error) {
	if len(selections) == 0 {
		return nil, nil
	}
	byID := make(map[uuid.UUID]*models.MenuAddOn, len(item.AddOns))
	for i := range item.AddOns {
		byID[item.AddOns[i].ID] = &item.AddOns[i]
	}

	out := make([]models.CartItemAddOn, 0, len(selections))
	for _, sel := range selections {
		addOn, ok := byID[sel.AddOnID]
		if !ok {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "add-on does not belong to this menu item")
		}
		if !addOn.Available {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "add-on is not available")
		}
		if sel.Quantity < 1 {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "add-on quantity must be at least 1")
		}
		// Repeated selections of the same add-on fold into one row so the
		// maximum applies to the combined quantity.
		quantity := sel.Quantity
		folded := false
		for i := range out {
			if out[i].AddOnID == sel.AddOnID {
				out[i].Quantity += sel.Quantity
				quantity = out[i].Quantity
				folded = true
				break
			}
		}
		if addOn.MaxQuantity != nil && quantity > *addOn.MaxQuantity {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "add-on quantity exceeds its maximum")
		}
		if folded {
			continue
		}
		out = append(out, models.CartItemAddOn{
			AddOnID:        addOn.ID,
			Name:           addOn.Name,
			Description:    addOn.Description,
			UnitPriceCents: addOn.PriceCents,
			Quantity:       sel.Quantity,
		})
	}
	return out, nil
}

func findLine(record *models.Cart, menuItemID uuid.UUID) *models.CartItem {
	for i := range record.Items {
		if record.Items[i].MenuItemID == menuItemID {
			return &record.Items[i]
		}
	}
	return nil
}

func findLineByID(record *models.Cart, itemID uuid.UUID) *models.CartItem {
	for i := range record.Items {
		if record.Items[i].ID == itemID {
			return &record.Items[i]
		}
	}
	return nil
}

// mergeAddOns folds the new selections into an existing line, summing
// quantities for add-ons already present. The summed quantity is checked
// against the catalog maximum again: each request respects the cap on its
// own, but the merged total may not.
func mergeAddOns(line *models.CartItem, item *models.MenuItem, selections []models.CartItemAddOn) error {
	maxByID := make(map[uuid.UUID]*int, len(item.AddOns))
	for i := range item.AddOns {
		maxByID[item.AddOns[i].ID] = item.AddOns[i].MaxQuantity
	}

	for _, sel := range selections {
		merged := false
		for i := range line.AddOns {
			if line.AddOns[i].AddOnID != sel.AddOnID {
				continue
			}
			total := line.AddOns[i].Quantity + sel.Quantity
			if max := maxByID[sel.AddOnID]; max != nil && total > *max {
				return pkgerrors.New(pkgerrors.CodeValidation, "add-on quantity exceeds its maximum")
			}
			line.AddOns[i].Quantity = total
			merged = true
			break
		}
		if !merged {
			sel.CartItemID = line.ID
			line.AddOns = append(line.AddOns, sel)
		}
	}
	return nil
}

func buildLine(cartID uuid.UUID, item *models.MenuItem, input AddItemInput, selections []models.CartItemAddOn) *models.CartItem {
	return &models.CartItem{
		CartID:         cartID,
		MenuItemID:     item.ID,
		Name:           item.Name,
		Description:    item.Description,
		Category:       item.Category,
		ImageURL:       item.ImageURL,
		UnitPriceCents: item.PriceCents,
		Quantity:       input.Quantity,
		Instructions:   input.Instructions,
		AddOns:         selections,
	}
}
