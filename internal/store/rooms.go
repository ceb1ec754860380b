package store

import (
	"context"
	"fmt"
	"time"

	"hotel-portal/internal/models"
)

const roomColumns = `r.id, r.hotel_id, r.number, r.floor, r.is_active, r.status, r.current_stay_id`

const stayColumns = `s.id, s.hotel_id, s.room_id, s.guest_name, s.phone, s.status, s.check_in_at,
	s.check_out_at, s.invoice_no, s.total_due_cents, s.paid_at, s.payment_mode, s.is_paid,
	s.created_at, s.updated_at, r.number AS room_number`

// roomRow is a room LEFT JOINed with its current stay
type roomRow struct {
	models.Room
	StayID        *int64     `db:"s_id"`
	StayGuestName *string    `db:"s_guest_name"`
	StayPhone     *string    `db:"s_phone"`
	StayStatus    *string    `db:"s_status"`
	StayCheckInAt *time.Time `db:"s_check_in_at"`
	StayInvoiceNo *string    `db:"s_invoice_no"`
	StayTotalDue  *int64     `db:"s_total_due_cents"`
	StayIsPaid    *bool      `db:"s_is_paid"`
}

func (rr roomRow) occupancy() models.RoomOccupancy {
	occ := models.RoomOccupancy{Room: rr.Room}
	if rr.StayID == nil {
		return occ
	}
	st := &models.Stay{
		ID:         *rr.StayID,
		HotelID:    rr.HotelID,
		RoomID:     rr.ID,
		InvoiceNo:  rr.StayInvoiceNo,
		RoomNumber: rr.Number,
	}
	if rr.StayGuestName != nil {
		st.GuestName = *rr.StayGuestName
	}
	if rr.StayPhone != nil {
		st.Phone = *rr.StayPhone
	}
	if rr.StayStatus != nil {
		st.Status = *rr.StayStatus
	}
	if rr.StayCheckInAt != nil {
		st.CheckInAt = *rr.StayCheckInAt
	}
	if rr.StayTotalDue != nil {
		st.TotalDue = models.Money(*rr.StayTotalDue)
	}
	if rr.StayIsPaid != nil {
		st.IsPaid = *rr.StayIsPaid
	}
	occ.Stay = st
	return occ
}

func (q *queries) getRoom(ctx context.Context, scope models.Scope, roomID int64, lock bool) (*models.Room, error) {
	w := &where{}
	w.add("r.id = ?", roomID)
	w.scope("r.hotel_id", scope)
	query := `SELECT ` + roomColumns + ` FROM rooms r` + w.String()
	if lock {
		query += " FOR UPDATE"
	}

	var room models.Room
	if err := q.get(ctx, &room, "room", query, w.args...); err != nil {
		return nil, err
	}
	return &room, nil
}

// GetRoom retrieves a room inside the scope
func (q *queries) GetRoom(ctx context.Context, scope models.Scope, roomID int64) (*models.Room, error) {
	return q.getRoom(ctx, scope, roomID, false)
}

// LockRoom retrieves a room holding a row lock until the transaction ends
func (q *queries) LockRoom(ctx context.Context, scope models.Scope, roomID int64) (*models.Room, error) {
	return q.getRoom(ctx, scope, roomID, true)
}

// SetRoomOccupancy updates status and current stay together
func (q *queries) SetRoomOccupancy(ctx context.Context, roomID int64, status string, stayID *int64) error {
	n, err := q.exec(ctx, "update room occupancy",
		"UPDATE rooms SET status = ?, current_stay_id = ? WHERE id = ?", status, stayID, roomID)
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("room %d: %w", roomID, models.ErrNotFound)
	}
	return nil
}

// ListRooms retrieves active rooms with their current stay, ordered by floor and number
func (q *queries) ListRooms(ctx context.Context, scope models.Scope) ([]models.RoomOccupancy, error) {
	w := &where{}
	w.add("r.is_active")
	w.scope("r.hotel_id", scope)

	var rows []roomRow
	err := q.selectRows(ctx, &rows,
		`SELECT `+roomColumns+`,
			s.id AS s_id, s.guest_name AS s_guest_name, s.phone AS s_phone, s.status AS s_status,
			s.check_in_at AS s_check_in_at, s.invoice_no AS s_invoice_no,
			s.total_due_cents AS s_total_due_cents, s.is_paid AS s_is_paid
		 FROM rooms r LEFT JOIN stays s ON s.id = r.current_stay_id`+w.String()+`
		 ORDER BY r.floor, r.number`, w.args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list rooms: %w", err)
	}

	out := make([]models.RoomOccupancy, 0, len(rows))
	for _, rr := range rows {
		out = append(out, rr.occupancy())
	}
	return out, nil
}

// CreateStay inserts an ACTIVE stay
func (q *queries) CreateStay(ctx context.Context, stay *models.Stay) error {
	query := `
		INSERT INTO stays (hotel_id, room_id, guest_name, phone, status, check_in_at, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		RETURNING id`

	err := sqlxGet(ctx, q, &stay.ID, query,
		stay.HotelID, stay.RoomID, stay.GuestName, stay.Phone, stay.Status,
		stay.CheckInAt, stay.CreatedAt, stay.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to create stay: %w", err)
	}
	return nil
}

func (q *queries) getStay(ctx context.Context, scope models.Scope, stayID int64, lock bool) (*models.Stay, error) {
	w := &where{}
	w.add("s.id = ?", stayID)
	w.scope("s.hotel_id", scope)
	query := `SELECT ` + stayColumns + ` FROM stays s JOIN rooms r ON r.id = s.room_id` + w.String()
	if lock {
		query += " FOR UPDATE OF s"
	}

	var st models.Stay
	if err := q.get(ctx, &st, "stay", query, w.args...); err != nil {
		return nil, err
	}
	return &st, nil
}

// GetStay retrieves a stay inside the scope
func (q *queries) GetStay(ctx context.Context, scope models.Scope, stayID int64) (*models.Stay, error) {
	return q.getStay(ctx, scope, stayID, false)
}

// LockStay retrieves a stay holding a row lock
func (q *queries) LockStay(ctx context.Context, scope models.Scope, stayID int64) (*models.Stay, error) {
	return q.getStay(ctx, scope, stayID, true)
}

// CheckOutStay closes a stay
func (q *queries) CheckOutStay(ctx context.Context, stayID int64, at time.Time) error {
	_, err := q.exec(ctx, "check out stay",
		"UPDATE stays SET status = ?, check_out_at = ?, updated_at = ? WHERE id = ?",
		models.StayStatusCheckedOut, at, at, stayID)
	return err
}

// SaveStayBilling persists total due, payment fields and invoice number
func (q *queries) SaveStayBilling(ctx context.Context, stay *models.Stay) error {
	_, err := q.exec(ctx, "update stay billing",
		`UPDATE stays SET total_due_cents = ?, is_paid = ?, paid_at = ?, payment_mode = ?,
			invoice_no = ?, updated_at = NOW()
		 WHERE id = ?`,
		stay.TotalDue, stay.IsPaid, stay.PaidAt, stay.PaymentMode, stay.InvoiceNo, stay.ID)
	return err
}

// ListStays retrieves stays matching the filter, newest check-in first
func (q *queries) ListStays(ctx context.Context, f StayFilter) ([]models.Stay, error) {
	w := &where{}
	w.scope("s.hotel_id", f.Scope)
	if f.Status != "" {
		w.add("s.status = ?", f.Status)
	}
	if f.Room != "" {
		w.add("r.number ILIKE ?", likePattern(f.Room))
	}
	if f.From != nil {
		w.add("s.check_in_at >= ?", *f.From)
	}
	if f.To != nil {
		w.add("s.check_in_at < ?", *f.To)
	}
	if f.Query != "" {
		p := likePattern(f.Query)
		w.add("(s.guest_name ILIKE ? OR s.phone ILIKE ? OR COALESCE(s.invoice_no, '') ILIKE ? OR r.number ILIKE ?)",
			p, p, p, p)
	}
	if f.BilledOnly {
		w.add("s.total_due_cents > 0")
	}
	if f.Paid != nil {
		w.add("s.is_paid = ?", *f.Paid)
	}

	query := `SELECT ` + stayColumns + ` FROM stays s JOIN rooms r ON r.id = s.room_id` + w.String() +
		` ORDER BY s.check_in_at DESC, s.id DESC`
	if f.Limit > 0 {
		query += fmt.Sprintf(" LIMIT %d", f.Limit)
	}

	stays := []models.Stay{}
	if err := q.selectRows(ctx, &stays, query, w.args...); err != nil {
		return nil, fmt.Errorf("failed to list stays: %w", err)
	}
	return stays, nil
}

// StayTotals sums the non-cancelled requests of a stay
func (q *queries) StayTotals(ctx context.Context, stayID int64) (models.StayTotals, error) {
	var t models.StayTotals
	err := sqlxGet(ctx, q, &t, `
		SELECT
			COALESCE(SUM(subtotal_cents) FILTER (WHERE kind = 'FOOD'), 0) AS food_cents,
			COALESCE(SUM(subtotal_cents) FILTER (WHERE kind = 'SERVICE'), 0) AS service_cents,
			COALESCE(SUM(subtotal_cents) FILTER (WHERE NOT is_paid), 0) AS unpaid_cents
		FROM requests
		WHERE stay_id = ? AND status <> 'CANCELLED'`, stayID)
	if err != nil {
		return t, fmt.Errorf("failed to sum stay requests: %w", err)
	}
	return t, nil
}

// MarkStayRequestsPaid flags every billable request of a stay as paid
func (q *queries) MarkStayRequestsPaid(ctx context.Context, stayID int64) error {
	_, err := q.exec(ctx, "mark stay requests paid",
		"UPDATE requests SET is_paid = TRUE WHERE stay_id = ? AND status <> 'CANCELLED'", stayID)
	return err
}
