package memstore

import (
	"context"
	"fmt"
	"sort"
	"time"

	"hotel-portal/internal/models"
	"hotel-portal/internal/store"
)

func (st *state) findCart(hotelID, roomID int64, stayID *int64) (models.Cart, bool) {
	for _, c := range st.carts {
		if c.HotelID == hotelID && c.RoomID == roomID && sameStay(c.StayID, stayID) && c.Status == models.CartStatusDraft {
			return c, true
		}
	}
	return models.Cart{}, false
}

// GetOrCreateCart returns the DRAFT cart of (hotel, room, stay), creating it when missing
func (v *view) GetOrCreateCart(ctx context.Context, hotelID, roomID int64, stayID *int64) (*models.Cart, error) {
	st, unlock := v.lock()
	defer unlock()

	if c, ok := st.findCart(hotelID, roomID, stayID); ok {
		return &c, nil
	}
	now := time.Now()
	c := models.Cart{
		ID:        st.nextID(),
		HotelID:   hotelID,
		RoomID:    roomID,
		StayID:    stayID,
		Status:    models.CartStatusDraft,
		CreatedAt: now,
		UpdatedAt: now,
	}
	st.carts[c.ID] = c
	return &c, nil
}

// FindCart retrieves the DRAFT cart of (hotel, room, stay) without creating one
func (v *view) FindCart(ctx context.Context, hotelID, roomID int64, stayID *int64) (*models.Cart, error) {
	st, unlock := v.lock()
	defer unlock()

	c, ok := st.findCart(hotelID, roomID, stayID)
	if !ok {
		return nil, fmt.Errorf("cart: %w", models.ErrNotFound)
	}
	return &c, nil
}

// LockCart retrieves a cart by ID
func (v *view) LockCart(ctx context.Context, cartID int64) (*models.Cart, error) {
	st, unlock := v.lock()
	defer unlock()

	c, ok := st.carts[cartID]
	if !ok {
		return nil, notFound("cart", cartID)
	}
	return &c, nil
}

func (st *state) cartItem(ci models.CartItem) models.CartItem {
	ci.ItemName = st.items[ci.ItemID].Name
	return ci
}

// ListCartItems retrieves the lines of a cart in insertion order
func (v *view) ListCartItems(ctx context.Context, cartID int64) ([]models.CartItem, error) {
	st, unlock := v.lock()
	defer unlock()

	out := []models.CartItem{}
	for _, ci := range st.cartItems {
		if ci.CartID == cartID {
			out = append(out, st.cartItem(ci))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

// GetCartItem retrieves the line for an item
func (v *view) GetCartItem(ctx context.Context, cartID, itemID int64) (*models.CartItem, error) {
	st, unlock := v.lock()
	defer unlock()

	for _, ci := range st.cartItems {
		if ci.CartID == cartID && ci.ItemID == itemID {
			ci = st.cartItem(ci)
			return &ci, nil
		}
	}
	return nil, fmt.Errorf("cart item %d: %w", itemID, models.ErrNotFound)
}

// InsertCartItem adds a new line
func (v *view) InsertCartItem(ctx context.Context, ci *models.CartItem) error {
	st, unlock := v.lock()
	defer unlock()

	if _, ok := st.carts[ci.CartID]; !ok {
		return notFound("cart", ci.CartID)
	}
	for _, other := range st.cartItems {
		if other.CartID == ci.CartID && other.ItemID == ci.ItemID {
			return fmt.Errorf("cart %d already holds item %d", ci.CartID, ci.ItemID)
		}
	}
	ci.ID = st.nextID()
	st.cartItems[ci.ID] = *ci
	return nil
}

// SetCartItemQty overwrites the quantity of a line
func (v *view) SetCartItemQty(ctx context.Context, cartItemID int64, qty int) error {
	st, unlock := v.lock()
	defer unlock()

	ci, ok := st.cartItems[cartItemID]
	if !ok {
		return notFound("cart item", cartItemID)
	}
	ci.Qty = qty
	st.cartItems[cartItemID] = ci
	return nil
}

// DeleteCartItem removes a line
func (v *view) DeleteCartItem(ctx context.Context, cartItemID int64) error {
	st, unlock := v.lock()
	defer unlock()

	delete(st.cartItems, cartItemID)
	return nil
}

// ClearCart removes every line, keeping the cart
func (v *view) ClearCart(ctx context.Context, cartID int64) error {
	st, unlock := v.lock()
	defer unlock()

	for id, ci := range st.cartItems {
		if ci.CartID == cartID {
			delete(st.cartItems, id)
		}
	}
	return nil
}

// DeleteCart removes the cart together with its lines
func (v *view) DeleteCart(ctx context.Context, cartID int64) error {
	st, unlock := v.lock()
	defer unlock()

	for id, ci := range st.cartItems {
		if ci.CartID == cartID {
			delete(st.cartItems, id)
		}
	}
	delete(st.carts, cartID)
	return nil
}

func (st *state) hasOpenService(hotelID, roomID, itemID int64) bool {
	for _, r := range st.requests {
		if r.HotelID == hotelID && r.RoomID == roomID && r.Kind == models.KindService &&
			r.ServiceItemID != nil && *r.ServiceItemID == itemID && r.IsOpen() {
			return true
		}
	}
	return false
}

// CreateRequest inserts a request; an open duplicate SERVICE request yields ErrDuplicateActive
func (v *view) CreateRequest(ctx context.Context, r *models.Request) error {
	st, unlock := v.lock()
	defer unlock()

	if r.Kind == models.KindService && r.ServiceItemID != nil && r.IsOpen() &&
		st.hasOpenService(r.HotelID, r.RoomID, *r.ServiceItemID) {
		return models.ErrDuplicateActive
	}
	r.ID = st.nextID()
	row := *r
	row.Lines = nil
	st.requests[r.ID] = row
	return nil
}

// CreateRequestLines inserts the line snapshots of a FOOD request
func (v *view) CreateRequestLines(ctx context.Context, lines []models.RequestLine) error {
	st, unlock := v.lock()
	defer unlock()

	for i := range lines {
		if _, ok := st.requests[lines[i].RequestID]; !ok {
			return notFound("request", lines[i].RequestID)
		}
		lines[i].ID = st.nextID()
		st.lines[lines[i].ID] = lines[i]
	}
	return nil
}

// LockServiceSlot is a no-op; transactions are already serialised
func (v *view) LockServiceSlot(ctx context.Context, hotelID, roomID, itemID int64) error {
	return nil
}

// HasOpenService reports a NEW or ACCEPTED request for the same service
func (v *view) HasOpenService(ctx context.Context, hotelID, roomID, itemID int64) (bool, error) {
	st, unlock := v.lock()
	defer unlock()

	return st.hasOpenService(hotelID, roomID, itemID), nil
}

// request joins a stored row with its room, hotel, service item and lines
func (st *state) request(r models.Request) models.Request {
	r.RoomNumber = st.rooms[r.RoomID].Number
	h := st.hotels[r.HotelID]
	r.HotelName = h.Name
	r.StaffGroupCode = h.StaffGroupCode
	r.ServiceItemName = nil
	if r.ServiceItemID != nil {
		if it, ok := st.items[*r.ServiceItemID]; ok {
			name := it.Name
			r.ServiceItemName = &name
		}
	}
	r.Lines = []models.RequestLine{}
	for _, ln := range st.lines {
		if ln.RequestID == r.ID {
			r.Lines = append(r.Lines, ln)
		}
	}
	sort.Slice(r.Lines, func(i, j int) bool { return r.Lines[i].ID < r.Lines[j].ID })
	return r
}

// GetRequest retrieves a request and its lines inside the scope
func (v *view) GetRequest(ctx context.Context, scope models.Scope, requestID int64) (*models.Request, error) {
	st, unlock := v.lock()
	defer unlock()

	r, ok := st.requests[requestID]
	if !ok || !scope.Allows(r.HotelID) {
		return nil, notFound("request", requestID)
	}
	r = st.request(r)
	return &r, nil
}

// LockRequest is GetRequest under the transaction lock
func (v *view) LockRequest(ctx context.Context, scope models.Scope, requestID int64) (*models.Request, error) {
	return v.GetRequest(ctx, scope, requestID)
}

// SaveRequestStatus persists status and lifecycle timestamps
func (v *view) SaveRequestStatus(ctx context.Context, r *models.Request) error {
	st, unlock := v.lock()
	defer unlock()

	row, ok := st.requests[r.ID]
	if !ok {
		return notFound("request", r.ID)
	}
	row.Status = r.Status
	row.AcceptedAt = r.AcceptedAt
	row.CompletedAt = r.CompletedAt
	row.CancelledAt = r.CancelledAt
	row.UpdatedAt = r.UpdatedAt
	st.requests[r.ID] = row
	return nil
}

// ListRequests retrieves requests matching the filter with their lines
func (v *view) ListRequests(ctx context.Context, f store.RequestFilter) ([]models.Request, error) {
	st, unlock := v.lock()
	defer unlock()

	out := []models.Request{}
	for _, r := range st.requests {
		r = st.request(r)
		if requestMatches(r, f) {
			out = append(out, r)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		a, b := out[i].CreatedAt, out[j].CreatedAt
		if f.OrderBy == store.OrderUpdatedDesc {
			a, b = out[i].UpdatedAt, out[j].UpdatedAt
		}
		if !a.Equal(b) {
			return a.After(b)
		}
		return out[i].ID > out[j].ID
	})
	if f.Limit > 0 && len(out) > f.Limit {
		out = out[:f.Limit]
	}
	return out, nil
}

func requestMatches(r models.Request, f store.RequestFilter) bool {
	if !f.Scope.Allows(r.HotelID) {
		return false
	}
	if f.RoomID != 0 && r.RoomID != f.RoomID {
		return false
	}
	if f.StayID != nil && !sameStay(r.StayID, f.StayID) {
		return false
	}
	if len(f.Statuses) > 0 {
		found := false
		for _, s := range f.Statuses {
			if r.Status == s {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	if f.Kind != "" && r.Kind != f.Kind {
		return false
	}
	if f.RoomNumber != "" && !containsFold(r.RoomNumber, f.RoomNumber) {
		return false
	}
	if f.From != nil && r.CreatedAt.Before(*f.From) {
		return false
	}
	if f.To != nil && !r.CreatedAt.Before(*f.To) {
		return false
	}
	if f.Query != "" {
		name := ""
		if r.ServiceItemName != nil {
			name = *r.ServiceItemName
		}
		if !containsFold(r.Note, f.Query) && !containsFold(name, f.Query) {
			return false
		}
	}
	return true
}

// CountRequestsClosed counts requests that reached status inside [from, to)
func (v *view) CountRequestsClosed(ctx context.Context, scope models.Scope, status string, from, to time.Time) (int, error) {
	st, unlock := v.lock()
	defer unlock()

	n := 0
	for _, r := range st.requests {
		if r.Status != status || !scope.Allows(r.HotelID) {
			continue
		}
		var at *time.Time
		switch status {
		case models.RequestStatusCompleted:
			at = r.CompletedAt
		case models.RequestStatusCancelled:
			at = r.CancelledAt
		default:
			return 0, fmt.Errorf("%w: status %s has no close time", models.ErrInvalidInput, status)
		}
		if at != nil && !at.Before(from) && at.Before(to) {
			n++
		}
	}
	return n, nil
}

// GetBillingSettings retrieves the settings of a hotel, falling back to defaults
func (v *view) GetBillingSettings(ctx context.Context, hotelID int64) (*models.BillingSettings, error) {
	st, unlock := v.lock()
	defer unlock()

	bs, ok := st.billing[hotelID]
	if !ok {
		bs = models.DefaultBillingSettings(hotelID)
	}
	return &bs, nil
}

// LockBillingSettings creates the settings row on demand
func (v *view) LockBillingSettings(ctx context.Context, hotelID int64) (*models.BillingSettings, error) {
	st, unlock := v.lock()
	defer unlock()

	bs, ok := st.billing[hotelID]
	if !ok {
		bs = models.DefaultBillingSettings(hotelID)
		st.billing[hotelID] = bs
	}
	return &bs, nil
}

// SetNextInvoiceSeq stores the next invoice sequence number
func (v *view) SetNextInvoiceSeq(ctx context.Context, hotelID, next int64) error {
	st, unlock := v.lock()
	defer unlock()

	bs, ok := st.billing[hotelID]
	if !ok {
		return notFound("billing settings", hotelID)
	}
	bs.NextInvoiceSeq = next
	st.billing[hotelID] = bs
	return nil
}
