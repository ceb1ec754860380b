package models

import "time"

// Hotel is the tenant root
type Hotel struct {
	ID                    int64      `db:"id" json:"id"`
	Name                  string     `db:"name" json:"name"`
	Status                string     `db:"status" json:"status"`
	StaffGroupCode        string     `db:"staff_group_code" json:"staff_group_code"`
	SubscriptionExpiresOn *time.Time `db:"subscription_expires_on" json:"subscription_expires_on,omitempty"`
	CreatedAt             time.Time  `db:"created_at" json:"created_at"`
}

// SubscriptionExpired reports whether the subscription lapsed before the given day
func (h *Hotel) SubscriptionExpired(today time.Time) bool {
	if h.SubscriptionExpiresOn == nil {
		return false
	}
	exp := h.SubscriptionExpiresOn
	y, m, d := today.Date()
	ey, em, ed := exp.Date()
	return time.Date(ey, em, ed, 0, 0, 0, 0, time.UTC).Before(time.Date(y, m, d, 0, 0, 0, 0, time.UTC))
}

// Room belongs to one hotel and links at most one current stay
type Room struct {
	ID            int64  `db:"id" json:"id"`
	HotelID       int64  `db:"hotel_id" json:"hotel_id"`
	Number        string `db:"number" json:"number"`
	Floor         string `db:"floor" json:"floor"`
	IsActive      bool   `db:"is_active" json:"is_active"`
	Status        string `db:"status" json:"status"`
	CurrentStayID *int64 `db:"current_stay_id" json:"current_stay_id,omitempty"`
}

// Stay is one guest's occupancy of one room
type Stay struct {
	ID          int64      `db:"id" json:"id"`
	HotelID     int64      `db:"hotel_id" json:"hotel_id"`
	RoomID      int64      `db:"room_id" json:"room_id"`
	GuestName   string     `db:"guest_name" json:"guest_name"`
	Phone       string     `db:"phone" json:"phone"`
	Status      string     `db:"status" json:"status"`
	CheckInAt   time.Time  `db:"check_in_at" json:"check_in_at"`
	CheckOutAt  *time.Time `db:"check_out_at" json:"check_out_at,omitempty"`
	InvoiceNo   *string    `db:"invoice_no" json:"invoice_no,omitempty"`
	TotalDue    Money      `db:"total_due_cents" json:"total_due"`
	PaidAt      *time.Time `db:"paid_at" json:"paid_at,omitempty"`
	PaymentMode string     `db:"payment_mode" json:"payment_mode"`
	IsPaid      bool       `db:"is_paid" json:"is_paid"`
	CreatedAt   time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt   time.Time  `db:"updated_at" json:"updated_at"`

	RoomNumber string `db:"room_number" json:"room_number"`
}

// RoomOccupancy is a room joined with its current stay, if any
type RoomOccupancy struct {
	Room
	Stay *Stay
}

// Category groups catalog items of one kind
type Category struct {
	ID       int64  `db:"id" json:"id"`
	HotelID  int64  `db:"hotel_id" json:"hotel_id"`
	Name     string `db:"name" json:"name"`
	Kind     string `db:"kind" json:"kind"`
	ParentID *int64 `db:"parent_id" json:"parent_id,omitempty"`
	Position int    `db:"position" json:"position"`
	IsActive bool   `db:"is_active" json:"is_active"`
}

// Item is a catalog entry; CategoryKind is joined from its category
type Item struct {
	ID           int64  `db:"id" json:"id"`
	HotelID      int64  `db:"hotel_id" json:"hotel_id"`
	CategoryID   int64  `db:"category_id" json:"category_id"`
	Name         string `db:"name" json:"name"`
	Price        Money  `db:"price_cents" json:"price"`
	Unit         string `db:"unit" json:"unit"`
	Description  string `db:"description" json:"description"`
	IsAvailable  bool   `db:"is_available" json:"is_available"`
	Position     int    `db:"position" json:"position"`
	CategoryKind string `db:"category_kind" json:"category_kind"`
}

// BillingSettings holds per-hotel tax and invoice numbering
type BillingSettings struct {
	HotelID        int64  `db:"hotel_id" json:"hotel_id"`
	GSTNumber      string `db:"gst_number" json:"gst_number"`
	GSTPercentBP   int64  `db:"gst_percent_bp" json:"gst_percent_bp"`
	InvoicePrefix  string `db:"invoice_prefix" json:"invoice_prefix"`
	NextInvoiceSeq int64  `db:"next_invoice_seq" json:"next_invoice_seq"`
}

// DefaultBillingSettings returns the settings used when a hotel has none yet
func DefaultBillingSettings(hotelID int64) BillingSettings {
	return BillingSettings{
		HotelID:        hotelID,
		InvoicePrefix:  "INV",
		NextInvoiceSeq: 1,
	}
}

// StayTotals aggregates billable (non-cancelled) requests of a stay
type StayTotals struct {
	Food    Money `db:"food_cents" json:"food"`
	Service Money `db:"service_cents" json:"service"`
	Unpaid  Money `db:"unpaid_cents" json:"unpaid"`
}

// Grand returns food plus service
func (t StayTotals) Grand() Money {
	return t.Food + t.Service
}

// Hotel statuses
const (
	HotelStatusActive   = "ACTIVE"
	HotelStatusPaused   = "PAUSED"
	HotelStatusDisabled = "DISABLED"
)

// Room statuses
const (
	RoomStatusFree     = "FREE"
	RoomStatusBusy     = "BUSY"
	RoomStatusCleaning = "CLEANING"
)

// Stay statuses
const (
	StayStatusActive     = "ACTIVE"
	StayStatusCheckedOut = "CHECKED_OUT"
)

// Catalog and request kinds
const (
	KindFood    = "FOOD"
	KindService = "SERVICE"
)

// Cart statuses
const (
	CartStatusDraft = "DRAFT"
)

// Payment modes accepted when a stay is marked paid
var PaymentModes = []string{"CASH", "UPI", "CARD", "ROOM", "OTHER"}

// ValidPaymentMode reports whether mode is one of PaymentModes
func ValidPaymentMode(mode string) bool {
	for _, m := range PaymentModes {
		if m == mode {
			return true
		}
	}
	return false
}
