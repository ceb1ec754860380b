package store

import (
	"context"
	"time"

	"hotel-portal/internal/models"
)

// Queries is the set of reads and writes shared by the database and a transaction
type Queries interface {
	GetHotel(ctx context.Context, hotelID int64) (*models.Hotel, error)
	ListCategories(ctx context.Context, hotelID int64) ([]models.Category, error)
	ListAvailableItems(ctx context.Context, hotelID int64) ([]models.Item, error)
	GetItem(ctx context.Context, hotelID, itemID int64) (*models.Item, error)

	GetRoom(ctx context.Context, scope models.Scope, roomID int64) (*models.Room, error)
	LockRoom(ctx context.Context, scope models.Scope, roomID int64) (*models.Room, error)
	SetRoomOccupancy(ctx context.Context, roomID int64, status string, stayID *int64) error
	ListRooms(ctx context.Context, scope models.Scope) ([]models.RoomOccupancy, error)

	CreateStay(ctx context.Context, stay *models.Stay) error
	GetStay(ctx context.Context, scope models.Scope, stayID int64) (*models.Stay, error)
	LockStay(ctx context.Context, scope models.Scope, stayID int64) (*models.Stay, error)
	CheckOutStay(ctx context.Context, stayID int64, at time.Time) error
	SaveStayBilling(ctx context.Context, stay *models.Stay) error
	ListStays(ctx context.Context, f StayFilter) ([]models.Stay, error)
	StayTotals(ctx context.Context, stayID int64) (models.StayTotals, error)
	MarkStayRequestsPaid(ctx context.Context, stayID int64) error

	GetOrCreateCart(ctx context.Context, hotelID, roomID int64, stayID *int64) (*models.Cart, error)
	FindCart(ctx context.Context, hotelID, roomID int64, stayID *int64) (*models.Cart, error)
	LockCart(ctx context.Context, cartID int64) (*models.Cart, error)
	ListCartItems(ctx context.Context, cartID int64) ([]models.CartItem, error)
	GetCartItem(ctx context.Context, cartID, itemID int64) (*models.CartItem, error)
	InsertCartItem(ctx context.Context, ci *models.CartItem) error
	SetCartItemQty(ctx context.Context, cartItemID int64, qty int) error
	DeleteCartItem(ctx context.Context, cartItemID int64) error
	ClearCart(ctx context.Context, cartID int64) error
	DeleteCart(ctx context.Context, cartID int64) error

	CreateRequest(ctx context.Context, r *models.Request) error
	CreateRequestLines(ctx context.Context, lines []models.RequestLine) error
	LockServiceSlot(ctx context.Context, hotelID, roomID, itemID int64) error
	HasOpenService(ctx context.Context, hotelID, roomID, itemID int64) (bool, error)
	GetRequest(ctx context.Context, scope models.Scope, requestID int64) (*models.Request, error)
	LockRequest(ctx context.Context, scope models.Scope, requestID int64) (*models.Request, error)
	SaveRequestStatus(ctx context.Context, r *models.Request) error
	ListRequests(ctx context.Context, f RequestFilter) ([]models.Request, error)
	CountRequestsClosed(ctx context.Context, scope models.Scope, status string, from, to time.Time) (int, error)

	GetBillingSettings(ctx context.Context, hotelID int64) (*models.BillingSettings, error)
	LockBillingSettings(ctx context.Context, hotelID int64) (*models.BillingSettings, error)
	SetNextInvoiceSeq(ctx context.Context, hotelID, next int64) error
}

// Repository adds transactions on top of Queries.
// fn runs against a transaction; a non-nil error rolls everything back.
type Repository interface {
	Queries
	Atomic(ctx context.Context, fn func(q Queries) error) error
	Ping(ctx context.Context) error
}

// Request list orderings
const (
	OrderCreatedDesc = "created_desc"
	OrderUpdatedDesc = "updated_desc"
)

// RequestFilter selects requests for the board, history and guest summary
type RequestFilter struct {
	Scope      models.Scope
	RoomID     int64
	StayID     *int64
	Statuses   []string
	Kind       string
	RoomNumber string
	From       *time.Time
	To         *time.Time
	Query      string
	OrderBy    string
	Limit      int
}

// StayFilter selects stays for the stay history and billing lists
type StayFilter struct {
	Scope      models.Scope
	Status     string
	Room       string
	From       *time.Time
	To         *time.Time
	Query      string
	BilledOnly bool
	Paid       *bool
	Limit      int
}
