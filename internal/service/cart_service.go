package service

import (
	"context"
	"errors"
	"fmt"

	"hotel-portal/internal/models"
	"hotel-portal/internal/store"
	"hotel-portal/internal/util"

	"go.uber.org/zap"
)

// CartService is the draft basket engine
type CartService struct {
	repo   store.Repository
	logger *zap.Logger
}

// NewCartService creates a new cart service
func NewCartService(repo store.Repository) *CartService {
	return &CartService{
		repo:   repo,
		logger: util.GetLogger(),
	}
}

// View renders the guest's current cart; a missing cart is an empty snapshot
func (s *CartService) View(ctx context.Context, g *GuestContext) (models.CartSnapshot, error) {
	cart, err := s.repo.FindCart(ctx, g.Hotel.ID, g.Room.ID, g.StayID())
	if errors.Is(err, models.ErrNotFound) {
		return models.SnapshotCart(0, nil), nil
	}
	if err != nil {
		return models.CartSnapshot{}, err
	}
	lines, err := s.repo.ListCartItems(ctx, cart.ID)
	if err != nil {
		return models.CartSnapshot{}, err
	}
	return models.SnapshotCart(cart.ID, lines), nil
}

// lockOpenCart opens the guest's DRAFT cart and locks it. A cart deleted by a
// concurrent submit between lookup and lock is recreated once.
func lockOpenCart(ctx context.Context, q store.Queries, g *GuestContext) (*models.Cart, error) {
	for attempt := 0; ; attempt++ {
		cart, err := q.GetOrCreateCart(ctx, g.Hotel.ID, g.Room.ID, g.StayID())
		if err != nil {
			return nil, fmt.Errorf("failed to open cart: %w", err)
		}
		locked, err := q.LockCart(ctx, cart.ID)
		if errors.Is(err, models.ErrNotFound) && attempt == 0 {
			continue
		}
		if err != nil {
			return nil, err
		}
		return locked, nil
	}
}

// AddItem adds qty of an item, snapshotting its price on first add only
func (s *CartService) AddItem(ctx context.Context, g *GuestContext, itemID int64, qty int) (models.CartSnapshot, error) {
	ctx, span := util.StartSpan(ctx, "CartService.AddItem")
	defer span.End()

	if err := g.RequireVerified(); err != nil {
		return models.CartSnapshot{}, err
	}
	if qty < 1 {
		qty = 1
	}

	var (
		cart *models.Cart
		snap models.CartSnapshot
	)
	err := s.repo.Atomic(ctx, func(q store.Queries) error {
		var err error
		cart, err = lockOpenCart(ctx, q, g)
		if err != nil {
			return err
		}
		item, err := q.GetItem(ctx, g.Hotel.ID, itemID)
		if err != nil {
			return err
		}
		if !item.IsAvailable {
			return fmt.Errorf("item %d unavailable: %w", itemID, models.ErrNotFound)
		}
		if item.CategoryKind != models.KindFood {
			return fmt.Errorf("%w: item %d is not a food item", models.ErrInvalidInput, itemID)
		}

		existing, err := q.GetCartItem(ctx, cart.ID, itemID)
		switch {
		case err == nil:
			if err := q.SetCartItemQty(ctx, existing.ID, existing.Qty+qty); err != nil {
				return err
			}
		case errors.Is(err, models.ErrNotFound):
			line := &models.CartItem{
				CartID:        cart.ID,
				ItemID:        itemID,
				Qty:           qty,
				PriceSnapshot: item.Price,
			}
			if err := q.InsertCartItem(ctx, line); err != nil {
				return err
			}
		default:
			return err
		}

		lines, err := q.ListCartItems(ctx, cart.ID)
		if err != nil {
			return err
		}
		snap = models.SnapshotCart(cart.ID, lines)
		return nil
	})
	if err != nil {
		return models.CartSnapshot{}, err
	}

	util.CartMutationsTotal.WithLabelValues("add").Inc()
	s.logger.Debug("Cart item added",
		zap.Int64("cart_id", cart.ID),
		zap.Int64("item_id", itemID),
		zap.Int("qty", qty))
	return snap, nil
}

// UpdateItem overwrites a line's quantity; qty <= 0 removes the line
func (s *CartService) UpdateItem(ctx context.Context, g *GuestContext, itemID int64, qty int) (models.CartSnapshot, error) {
	ctx, span := util.StartSpan(ctx, "CartService.UpdateItem")
	defer span.End()

	if err := g.RequireVerified(); err != nil {
		return models.CartSnapshot{}, err
	}

	var snap models.CartSnapshot
	err := s.repo.Atomic(ctx, func(q store.Queries) error {
		cart, err := q.FindCart(ctx, g.Hotel.ID, g.Room.ID, g.StayID())
		if err != nil {
			return err
		}
		if _, err := q.LockCart(ctx, cart.ID); err != nil {
			return err
		}
		line, err := q.GetCartItem(ctx, cart.ID, itemID)
		if err != nil {
			return err
		}
		if qty <= 0 {
			err = q.DeleteCartItem(ctx, line.ID)
		} else {
			err = q.SetCartItemQty(ctx, line.ID, qty)
		}
		if err != nil {
			return err
		}

		lines, err := q.ListCartItems(ctx, cart.ID)
		if err != nil {
			return err
		}
		snap = models.SnapshotCart(cart.ID, lines)
		return nil
	})
	if err != nil {
		return models.CartSnapshot{}, err
	}

	util.CartMutationsTotal.WithLabelValues("update").Inc()
	return snap, nil
}

// Clear empties the guest's cart
func (s *CartService) Clear(ctx context.Context, g *GuestContext) (models.CartSnapshot, error) {
	if err := g.RequireVerified(); err != nil {
		return models.CartSnapshot{}, err
	}

	var cartID int64
	err := s.repo.Atomic(ctx, func(q store.Queries) error {
		cart, err := q.FindCart(ctx, g.Hotel.ID, g.Room.ID, g.StayID())
		if errors.Is(err, models.ErrNotFound) {
			return nil
		}
		if err != nil {
			return err
		}
		if _, err := q.LockCart(ctx, cart.ID); err != nil {
			return err
		}
		cartID = cart.ID
		return q.ClearCart(ctx, cart.ID)
	})
	if err != nil {
		return models.CartSnapshot{}, err
	}

	util.CartMutationsTotal.WithLabelValues("clear").Inc()
	return models.SnapshotCart(cartID, nil), nil
}
