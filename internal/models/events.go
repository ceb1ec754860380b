package models

import "time"

// Event types
const (
	EventTypeRequestCreated   = "REQUEST_CREATED"
	EventTypeRequestAccepted  = "REQUEST_ACCEPTED"
	EventTypeRequestCompleted = "REQUEST_COMPLETED"
	EventTypeRequestCancelled = "REQUEST_CANCELLED"
	EventTypeStayCheckedIn    = "STAY_CHECKED_IN"
	EventTypeStayCheckedOut   = "STAY_CHECKED_OUT"
	EventTypeRoomReady        = "ROOM_READY"
	EventTypeStayPaid         = "STAY_PAID"
)

// BaseEvent contains common fields for all events
type BaseEvent struct {
	EventID   string    `json:"event_id"`
	EventType string    `json:"event_type"`
	Timestamp time.Time `json:"timestamp"`
}

// RequestEvent published on request creation and every transition
type RequestEvent struct {
	BaseEvent
	RequestID int64  `json:"request_id"`
	HotelID   int64  `json:"hotel_id"`
	RoomID    int64  `json:"room_id"`
	StayID    *int64 `json:"stay_id,omitempty"`
	Kind      string `json:"kind"`
	Status    string `json:"status"`
	Subtotal  Money  `json:"subtotal"`
}

// RoomEvent published on occupancy and billing changes
type RoomEvent struct {
	BaseEvent
	HotelID    int64  `json:"hotel_id"`
	RoomID     int64  `json:"room_id"`
	StayID     *int64 `json:"stay_id,omitempty"`
	RoomStatus string `json:"room_status"`
	InvoiceNo  string `json:"invoice_no,omitempty"`
}

// RequestEventType maps a transition to its event type
func RequestEventType(action Action) string {
	switch action {
	case ActionAccept:
		return EventTypeRequestAccepted
	case ActionComplete:
		return EventTypeRequestCompleted
	case ActionCancel:
		return EventTypeRequestCancelled
	}
	return EventTypeRequestCreated
}
