package store

import (
	"context"
	"fmt"

	"hotel-portal/internal/models"
)

const itemColumns = `i.id, i.hotel_id, i.category_id, i.name, i.price_cents, i.unit, i.description,
	i.is_available, i.position, c.kind AS category_kind`

// GetHotel retrieves a hotel by ID
func (q *queries) GetHotel(ctx context.Context, hotelID int64) (*models.Hotel, error) {
	var h models.Hotel
	err := q.get(ctx, &h, "hotel",
		`SELECT id, name, status, staff_group_code, subscription_expires_on, created_at
		 FROM hotels WHERE id = ?`, hotelID)
	if err != nil {
		return nil, err
	}
	return &h, nil
}

// ListCategories retrieves the active categories of a hotel
func (q *queries) ListCategories(ctx context.Context, hotelID int64) ([]models.Category, error) {
	categories := []models.Category{}
	err := q.selectRows(ctx, &categories,
		`SELECT id, hotel_id, name, kind, parent_id, position, is_active
		 FROM categories WHERE hotel_id = ? AND is_active ORDER BY position, name`, hotelID)
	if err != nil {
		return nil, fmt.Errorf("failed to list categories: %w", err)
	}
	return categories, nil
}

// ListAvailableItems retrieves orderable items in active categories
func (q *queries) ListAvailableItems(ctx context.Context, hotelID int64) ([]models.Item, error) {
	items := []models.Item{}
	err := q.selectRows(ctx, &items,
		`SELECT `+itemColumns+`
		 FROM items i JOIN categories c ON c.id = i.category_id
		 WHERE i.hotel_id = ? AND i.is_available AND c.is_active
		 ORDER BY i.position, i.name`, hotelID)
	if err != nil {
		return nil, fmt.Errorf("failed to list items: %w", err)
	}
	return items, nil
}

// GetItem retrieves an item of the hotel regardless of availability
func (q *queries) GetItem(ctx context.Context, hotelID, itemID int64) (*models.Item, error) {
	var it models.Item
	err := q.get(ctx, &it, "item",
		`SELECT `+itemColumns+`
		 FROM items i JOIN categories c ON c.id = i.category_id
		 WHERE i.hotel_id = ? AND i.id = ?`, hotelID, itemID)
	if err != nil {
		return nil, err
	}
	return &it, nil
}
