package memstore

import (
	"context"
	"fmt"
	"sort"
	"time"

	"hotel-portal/internal/models"
	"hotel-portal/internal/store"
)

// GetRoom retrieves a room inside the scope
func (v *view) GetRoom(ctx context.Context, scope models.Scope, roomID int64) (*models.Room, error) {
	st, unlock := v.lock()
	defer unlock()

	r, ok := st.rooms[roomID]
	if !ok || !scope.Allows(r.HotelID) {
		return nil, notFound("room", roomID)
	}
	return &r, nil
}

// LockRoom is GetRoom; the transaction already holds the store lock
func (v *view) LockRoom(ctx context.Context, scope models.Scope, roomID int64) (*models.Room, error) {
	return v.GetRoom(ctx, scope, roomID)
}

// SetRoomOccupancy updates status and current stay together, enforcing BUSY iff a stay is linked
func (v *view) SetRoomOccupancy(ctx context.Context, roomID int64, status string, stayID *int64) error {
	st, unlock := v.lock()
	defer unlock()

	r, ok := st.rooms[roomID]
	if !ok {
		return notFound("room", roomID)
	}
	if (status == models.RoomStatusBusy) != (stayID != nil) {
		return fmt.Errorf("room %d: status %s with stay %v violates rooms_busy_has_stay", roomID, status, stayID)
	}
	r.Status = status
	r.CurrentStayID = stayID
	st.rooms[roomID] = r
	return nil
}

// ListRooms retrieves active rooms with their current stay, ordered by floor and number
func (v *view) ListRooms(ctx context.Context, scope models.Scope) ([]models.RoomOccupancy, error) {
	st, unlock := v.lock()
	defer unlock()

	out := []models.RoomOccupancy{}
	for _, r := range st.rooms {
		if !r.IsActive || !scope.Allows(r.HotelID) {
			continue
		}
		occ := models.RoomOccupancy{Room: r}
		if r.CurrentStayID != nil {
			if s, ok := st.stays[*r.CurrentStayID]; ok {
				s.RoomNumber = r.Number
				occ.Stay = &s
			}
		}
		out = append(out, occ)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Floor != out[j].Floor {
			return out[i].Floor < out[j].Floor
		}
		return out[i].Number < out[j].Number
	})
	return out, nil
}

// CreateStay inserts a stay; a second ACTIVE stay for the room is rejected
func (v *view) CreateStay(ctx context.Context, stay *models.Stay) error {
	st, unlock := v.lock()
	defer unlock()

	for _, s := range st.stays {
		if s.RoomID == stay.RoomID && s.Status == models.StayStatusActive && stay.Status == models.StayStatusActive {
			return fmt.Errorf("room %d: %w", stay.RoomID, models.ErrAlreadyOccupied)
		}
	}
	stay.ID = st.nextID()
	row := *stay
	row.RoomNumber = ""
	st.stays[stay.ID] = row
	stay.RoomNumber = st.rooms[stay.RoomID].Number
	return nil
}

func (st *state) stay(s models.Stay) models.Stay {
	s.RoomNumber = st.rooms[s.RoomID].Number
	return s
}

// GetStay retrieves a stay inside the scope
func (v *view) GetStay(ctx context.Context, scope models.Scope, stayID int64) (*models.Stay, error) {
	st, unlock := v.lock()
	defer unlock()

	s, ok := st.stays[stayID]
	if !ok || !scope.Allows(s.HotelID) {
		return nil, notFound("stay", stayID)
	}
	s = st.stay(s)
	return &s, nil
}

// LockStay is GetStay under the transaction lock
func (v *view) LockStay(ctx context.Context, scope models.Scope, stayID int64) (*models.Stay, error) {
	return v.GetStay(ctx, scope, stayID)
}

// CheckOutStay closes a stay
func (v *view) CheckOutStay(ctx context.Context, stayID int64, at time.Time) error {
	st, unlock := v.lock()
	defer unlock()

	s, ok := st.stays[stayID]
	if !ok {
		return notFound("stay", stayID)
	}
	s.Status = models.StayStatusCheckedOut
	s.CheckOutAt = &at
	s.UpdatedAt = at
	st.stays[stayID] = s
	return nil
}

// SaveStayBilling persists total due, payment fields and invoice number
func (v *view) SaveStayBilling(ctx context.Context, stay *models.Stay) error {
	st, unlock := v.lock()
	defer unlock()

	s, ok := st.stays[stay.ID]
	if !ok {
		return notFound("stay", stay.ID)
	}
	if stay.InvoiceNo != nil {
		for id, other := range st.stays {
			if id != stay.ID && other.InvoiceNo != nil && *other.InvoiceNo == *stay.InvoiceNo {
				return fmt.Errorf("invoice %s already assigned to stay %d", *stay.InvoiceNo, id)
			}
		}
	}
	s.TotalDue = stay.TotalDue
	s.IsPaid = stay.IsPaid
	s.PaidAt = stay.PaidAt
	s.PaymentMode = stay.PaymentMode
	s.InvoiceNo = stay.InvoiceNo
	s.UpdatedAt = time.Now()
	st.stays[stay.ID] = s
	return nil
}

// ListStays retrieves stays matching the filter, newest check-in first
func (v *view) ListStays(ctx context.Context, f store.StayFilter) ([]models.Stay, error) {
	st, unlock := v.lock()
	defer unlock()

	out := []models.Stay{}
	for _, s := range st.stays {
		s = st.stay(s)
		if !stayMatches(s, f) {
			continue
		}
		out = append(out, s)
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CheckInAt.Equal(out[j].CheckInAt) {
			return out[i].CheckInAt.After(out[j].CheckInAt)
		}
		return out[i].ID > out[j].ID
	})
	if f.Limit > 0 && len(out) > f.Limit {
		out = out[:f.Limit]
	}
	return out, nil
}

func stayMatches(s models.Stay, f store.StayFilter) bool {
	if !f.Scope.Allows(s.HotelID) {
		return false
	}
	if f.Status != "" && s.Status != f.Status {
		return false
	}
	if f.Room != "" && !containsFold(s.RoomNumber, f.Room) {
		return false
	}
	if f.From != nil && s.CheckInAt.Before(*f.From) {
		return false
	}
	if f.To != nil && !s.CheckInAt.Before(*f.To) {
		return false
	}
	if f.Query != "" {
		invoice := ""
		if s.InvoiceNo != nil {
			invoice = *s.InvoiceNo
		}
		if !containsFold(s.GuestName, f.Query) && !containsFold(s.Phone, f.Query) &&
			!containsFold(invoice, f.Query) && !containsFold(s.RoomNumber, f.Query) {
			return false
		}
	}
	if f.BilledOnly && s.TotalDue <= 0 {
		return false
	}
	if f.Paid != nil && s.IsPaid != *f.Paid {
		return false
	}
	return true
}

// StayTotals sums the non-cancelled requests of a stay
func (v *view) StayTotals(ctx context.Context, stayID int64) (models.StayTotals, error) {
	st, unlock := v.lock()
	defer unlock()

	var t models.StayTotals
	for _, r := range st.requests {
		if r.StayID == nil || *r.StayID != stayID || !r.Billable() {
			continue
		}
		switch r.Kind {
		case models.KindFood:
			t.Food += r.Subtotal
		case models.KindService:
			t.Service += r.Subtotal
		}
		if !r.IsPaid {
			t.Unpaid += r.Subtotal
		}
	}
	return t, nil
}

// MarkStayRequestsPaid flags every billable request of a stay as paid
func (v *view) MarkStayRequestsPaid(ctx context.Context, stayID int64) error {
	st, unlock := v.lock()
	defer unlock()

	for id, r := range st.requests {
		if r.StayID != nil && *r.StayID == stayID && r.Billable() {
			r.IsPaid = true
			st.requests[id] = r
		}
	}
	return nil
}
