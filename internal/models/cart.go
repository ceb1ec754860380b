package models

import "time"

// Cart is a draft basket for (hotel, room, stay|nil)
type Cart struct {
	ID        int64     `db:"id" json:"id"`
	HotelID   int64     `db:"hotel_id" json:"hotel_id"`
	RoomID    int64     `db:"room_id" json:"room_id"`
	StayID    *int64    `db:"stay_id" json:"stay_id,omitempty"`
	Status    string    `db:"status" json:"status"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}

// CartItem is one line; PriceSnapshot is fixed at first add
type CartItem struct {
	ID            int64  `db:"id" json:"id"`
	CartID        int64  `db:"cart_id" json:"cart_id"`
	ItemID        int64  `db:"item_id" json:"item_id"`
	Qty           int    `db:"qty" json:"qty"`
	PriceSnapshot Money  `db:"price_snapshot_cents" json:"price"`
	ItemName      string `db:"item_name" json:"name"`
}

// LineTotal is price snapshot times quantity
func (ci CartItem) LineTotal() Money {
	return ci.PriceSnapshot.Times(ci.Qty)
}

// CartSnapshot is the rendered state of a cart
type CartSnapshot struct {
	CartID int64      `json:"cart_id"`
	Lines  []CartItem `json:"lines"`
	Count  int        `json:"count"`
	Total  Money      `json:"total"`
}

// SnapshotCart computes count and total over the given lines
func SnapshotCart(cartID int64, lines []CartItem) CartSnapshot {
	snap := CartSnapshot{CartID: cartID, Lines: lines}
	if snap.Lines == nil {
		snap.Lines = []CartItem{}
	}
	for _, ln := range lines {
		snap.Count += ln.Qty
		snap.Total += ln.LineTotal()
	}
	return snap
}
