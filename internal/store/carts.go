package store

import (
	"context"
	"fmt"

	"hotel-portal/internal/models"
)

const cartColumns = `id, hotel_id, room_id, stay_id, status, created_at, updated_at`

const cartOwner = `hotel_id = ? AND room_id = ? AND COALESCE(stay_id, 0) = COALESCE(?::bigint, 0) AND status = ?`

// GetOrCreateCart returns the DRAFT cart of (hotel, room, stay), creating it when missing.
// Concurrent callers converge on one row through the carts_one_per_owner index.
func (q *queries) GetOrCreateCart(ctx context.Context, hotelID, roomID int64, stayID *int64) (*models.Cart, error) {
	_, err := q.exec(ctx, "create cart",
		`INSERT INTO carts (hotel_id, room_id, stay_id, status) VALUES (?, ?, ?, ?)
		 ON CONFLICT DO NOTHING`,
		hotelID, roomID, stayID, models.CartStatusDraft)
	if err != nil {
		return nil, err
	}
	return q.FindCart(ctx, hotelID, roomID, stayID)
}

// FindCart retrieves the DRAFT cart of (hotel, room, stay) without creating one
func (q *queries) FindCart(ctx context.Context, hotelID, roomID int64, stayID *int64) (*models.Cart, error) {
	var cart models.Cart
	err := q.get(ctx, &cart, "cart",
		`SELECT `+cartColumns+` FROM carts WHERE `+cartOwner,
		hotelID, roomID, stayID, models.CartStatusDraft)
	if err != nil {
		return nil, err
	}
	return &cart, nil
}

// LockCart retrieves a cart holding a row lock
func (q *queries) LockCart(ctx context.Context, cartID int64) (*models.Cart, error) {
	var cart models.Cart
	err := q.get(ctx, &cart, "cart",
		`SELECT `+cartColumns+` FROM carts WHERE id = ? FOR UPDATE`, cartID)
	if err != nil {
		return nil, err
	}
	return &cart, nil
}

// ListCartItems retrieves the lines of a cart in insertion order
func (q *queries) ListCartItems(ctx context.Context, cartID int64) ([]models.CartItem, error) {
	items := []models.CartItem{}
	err := q.selectRows(ctx, &items,
		`SELECT ci.id, ci.cart_id, ci.item_id, ci.qty, ci.price_snapshot_cents, i.name AS item_name
		 FROM cart_items ci JOIN items i ON i.id = ci.item_id
		 WHERE ci.cart_id = ? ORDER BY ci.id`, cartID)
	if err != nil {
		return nil, fmt.Errorf("failed to list cart items: %w", err)
	}
	return items, nil
}

// GetCartItem retrieves the line for an item
func (q *queries) GetCartItem(ctx context.Context, cartID, itemID int64) (*models.CartItem, error) {
	var ci models.CartItem
	err := q.get(ctx, &ci, "cart item",
		`SELECT ci.id, ci.cart_id, ci.item_id, ci.qty, ci.price_snapshot_cents, i.name AS item_name
		 FROM cart_items ci JOIN items i ON i.id = ci.item_id
		 WHERE ci.cart_id = ? AND ci.item_id = ?`, cartID, itemID)
	if err != nil {
		return nil, err
	}
	return &ci, nil
}

// InsertCartItem adds a new line
func (q *queries) InsertCartItem(ctx context.Context, ci *models.CartItem) error {
	err := sqlxGet(ctx, q, &ci.ID,
		`INSERT INTO cart_items (cart_id, item_id, qty, price_snapshot_cents)
		 VALUES (?, ?, ?, ?) RETURNING id`,
		ci.CartID, ci.ItemID, ci.Qty, ci.PriceSnapshot)
	if err != nil {
		return fmt.Errorf("failed to insert cart item: %w", err)
	}
	return q.touchCart(ctx, ci.CartID)
}

// SetCartItemQty overwrites the quantity of a line
func (q *queries) SetCartItemQty(ctx context.Context, cartItemID int64, qty int) error {
	n, err := q.exec(ctx, "update cart item", "UPDATE cart_items SET qty = ? WHERE id = ?", qty, cartItemID)
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("cart item %d: %w", cartItemID, models.ErrNotFound)
	}
	return nil
}

// DeleteCartItem removes a line
func (q *queries) DeleteCartItem(ctx context.Context, cartItemID int64) error {
	_, err := q.exec(ctx, "delete cart item", "DELETE FROM cart_items WHERE id = ?", cartItemID)
	return err
}

// ClearCart removes every line, keeping the cart
func (q *queries) ClearCart(ctx context.Context, cartID int64) error {
	if _, err := q.exec(ctx, "clear cart", "DELETE FROM cart_items WHERE cart_id = ?", cartID); err != nil {
		return err
	}
	return q.touchCart(ctx, cartID)
}

// DeleteCart removes the cart together with its lines
func (q *queries) DeleteCart(ctx context.Context, cartID int64) error {
	if _, err := q.exec(ctx, "delete cart items", "DELETE FROM cart_items WHERE cart_id = ?", cartID); err != nil {
		return err
	}
	_, err := q.exec(ctx, "delete cart", "DELETE FROM carts WHERE id = ?", cartID)
	return err
}

func (q *queries) touchCart(ctx context.Context, cartID int64) error {
	_, err := q.exec(ctx, "touch cart", "UPDATE carts SET updated_at = NOW() WHERE id = ?", cartID)
	return err
}
