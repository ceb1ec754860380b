package models

import (
	"fmt"
	"time"
)

// Request statuses
const (
	RequestStatusNew       = "NEW"
	RequestStatusAccepted  = "ACCEPTED"
	RequestStatusCompleted = "COMPLETED"
	RequestStatusCancelled = "CANCELLED"
)

// OpenRequestStatuses are the statuses a request can still be actioned from
var OpenRequestStatuses = []string{RequestStatusNew, RequestStatusAccepted}

// Action is a staff transition on a request
type Action string

const (
	ActionAccept   Action = "accept"
	ActionComplete Action = "complete"
	ActionCancel   Action = "cancel"
)

// ParseAction validates a raw action name
func ParseAction(s string) (Action, error) {
	switch a := Action(s); a {
	case ActionAccept, ActionComplete, ActionCancel:
		return a, nil
	}
	return "", fmt.Errorf("%w: unknown action %q", ErrInvalidInput, s)
}

// Request is a FOOD order or a SERVICE call.
// Lines is only populated for FOOD; ServiceItemID only for SERVICE.
type Request struct {
	ID            int64      `db:"id" json:"id"`
	HotelID       int64      `db:"hotel_id" json:"hotel_id"`
	RoomID        int64      `db:"room_id" json:"room_id"`
	StayID        *int64     `db:"stay_id" json:"stay_id,omitempty"`
	Kind          string     `db:"kind" json:"kind"`
	Status        string     `db:"status" json:"status"`
	ServiceItemID *int64     `db:"service_item_id" json:"service_item_id,omitempty"`
	Subtotal      Money      `db:"subtotal_cents" json:"subtotal"`
	IsPaid        bool       `db:"is_paid" json:"is_paid"`
	Note          string     `db:"note" json:"note"`
	CreatedAt     time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt     time.Time  `db:"updated_at" json:"updated_at"`
	AcceptedAt    *time.Time `db:"accepted_at" json:"accepted_at,omitempty"`
	CompletedAt   *time.Time `db:"completed_at" json:"completed_at,omitempty"`
	CancelledAt   *time.Time `db:"cancelled_at" json:"cancelled_at,omitempty"`

	RoomNumber      string  `db:"room_number" json:"room_number"`
	HotelName       string  `db:"hotel_name" json:"hotel_name"`
	StaffGroupCode  string  `db:"staff_group_code" json:"staff_group_code"`
	ServiceItemName *string `db:"service_item_name" json:"service_item_name,omitempty"`

	Lines []RequestLine `db:"-" json:"lines"`
}

// RequestLine is an immutable snapshot of one cart line at submission time
type RequestLine struct {
	ID            int64  `db:"id" json:"id"`
	RequestID     int64  `db:"request_id" json:"request_id"`
	ItemID        int64  `db:"item_id" json:"item_id"`
	NameSnapshot  string `db:"name_snapshot" json:"name"`
	PriceSnapshot Money  `db:"price_snapshot_cents" json:"price"`
	Qty           int    `db:"qty" json:"qty"`
	LineTotal     Money  `db:"line_total_cents" json:"line_total"`
}

// IsOpen reports NEW or ACCEPTED
func (r *Request) IsOpen() bool {
	return r.Status == RequestStatusNew || r.Status == RequestStatusAccepted
}

// Billable reports whether the request counts towards a stay bill
func (r *Request) Billable() bool {
	return r.Status != RequestStatusCancelled
}

// DisplayName is the service name for SERVICE requests, falling back to the note
func (r *Request) DisplayName() string {
	if r.ServiceItemName != nil && *r.ServiceItemName != "" {
		return *r.ServiceItemName
	}
	if r.Note != "" {
		return r.Note
	}
	return "Service"
}

// Apply runs a transition, stamping its timestamp. On a precondition failure
// the request is left untouched and ErrConflict is returned.
func (r *Request) Apply(action Action, now time.Time) error {
	switch action {
	case ActionAccept:
		if r.Status != RequestStatusNew {
			return fmt.Errorf("%w: cannot accept request in %s", ErrConflict, r.Status)
		}
		r.Status = RequestStatusAccepted
		r.AcceptedAt = &now
	case ActionComplete:
		if r.Status != RequestStatusAccepted {
			return fmt.Errorf("%w: cannot complete request in %s", ErrConflict, r.Status)
		}
		r.Status = RequestStatusCompleted
		r.CompletedAt = &now
	case ActionCancel:
		if !r.IsOpen() {
			return fmt.Errorf("%w: cannot cancel request in %s", ErrConflict, r.Status)
		}
		r.Status = RequestStatusCancelled
		r.CancelledAt = &now
	default:
		return fmt.Errorf("%w: unknown action %q", ErrInvalidInput, action)
	}
	r.UpdatedAt = now
	return nil
}

// LinesFromCart snapshots cart lines into request lines
func LinesFromCart(requestID int64, items []CartItem) []RequestLine {
	lines := make([]RequestLine, 0, len(items))
	for _, ci := range items {
		lines = append(lines, RequestLine{
			RequestID:     requestID,
			ItemID:        ci.ItemID,
			NameSnapshot:  ci.ItemName,
			PriceSnapshot: ci.PriceSnapshot,
			Qty:           ci.Qty,
			LineTotal:     ci.LineTotal(),
		})
	}
	return lines
}

// TruncateNote trims to the 200 characters a request note can hold
func TruncateNote(note string) string {
	r := []rune(note)
	if len(r) > 200 {
		return string(r[:200])
	}
	return note
}
