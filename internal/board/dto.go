// Package board builds the live board snapshot and maps requests and rooms
// into the payloads each consumer expects.
package board

import (
	"time"

	"hotel-portal/internal/models"
)

// LineDTO is one line of a FOOD request as shown on the board
type LineDTO struct {
	Name string `json:"name"`
	Qty  int    `json:"qty"`
}

// RequestDTO is a request card on the board
type RequestDTO struct {
	ID                  int64     `json:"id"`
	Room                string    `json:"room"`
	Kind                string    `json:"kind"`
	Status              string    `json:"status"`
	Title               string    `json:"title"`
	Subtotal            float64   `json:"subtotal"`
	CreatedAt           *string   `json:"created_at"`
	AcceptedAt          *string   `json:"accepted_at"`
	CompletedAt         *string   `json:"completed_at"`
	CancelledAt         *string   `json:"cancelled_at"`
	Note                string    `json:"note"`
	Lines               []LineDTO `json:"lines"`
	HotelID             int64     `json:"hotel_id"`
	HotelName           string    `json:"hotel_name"`
	HotelStaffGroupCode string    `json:"hotel_staff_group_code"`
}

// RoomDTO is a room tile on the board
type RoomDTO struct {
	ID         int64   `json:"id"`
	Number     string  `json:"number"`
	Floor      string  `json:"floor"`
	Status     string  `json:"status"`
	GuestName  string  `json:"guest_name"`
	GuestPhone string  `json:"guest_phone"`
	StayID     *int64  `json:"stay_id"`
	TotalDue   float64 `json:"total_due"`
	IsPaid     bool    `json:"is_paid"`
}

// RoomBuckets groups room tiles by status
type RoomBuckets struct {
	Free     []RoomDTO `json:"free"`
	Busy     []RoomDTO `json:"busy"`
	Cleaning []RoomDTO `json:"cleaning"`
}

// Counts are the requests closed since the local start of day
type Counts struct {
	CompletedToday int `json:"completed_today"`
	CancelledToday int `json:"cancelled_today"`
}

// Snapshot is the full live board of a scope
type Snapshot struct {
	HotelID     *int64       `json:"hotel_id"`
	New         []RequestDTO `json:"new"`
	Accepted    []RequestDTO `json:"accepted"`
	Counts      Counts       `json:"counts"`
	Rooms       RoomBuckets  `json:"rooms"`
	GeneratedAt string       `json:"generated_at"`
}

func isoTime(t *time.Time, loc *time.Location) *string {
	if t == nil {
		return nil
	}
	s := t.In(loc).Format(time.RFC3339)
	return &s
}

// Request maps a request into its board card
func Request(r models.Request, loc *time.Location) RequestDTO {
	created := r.CreatedAt
	dto := RequestDTO{
		ID:                  r.ID,
		Room:                r.RoomNumber,
		Kind:                r.Kind,
		Status:              r.Status,
		Subtotal:            r.Subtotal.Float(),
		CreatedAt:           isoTime(&created, loc),
		AcceptedAt:          isoTime(r.AcceptedAt, loc),
		CompletedAt:         isoTime(r.CompletedAt, loc),
		CancelledAt:         isoTime(r.CancelledAt, loc),
		Note:                r.Note,
		Lines:               make([]LineDTO, 0, len(r.Lines)),
		HotelID:             r.HotelID,
		HotelName:           r.HotelName,
		HotelStaffGroupCode: r.StaffGroupCode,
	}
	for _, ln := range r.Lines {
		dto.Lines = append(dto.Lines, LineDTO{Name: ln.NameSnapshot, Qty: ln.Qty})
	}
	if r.Kind == models.KindService {
		dto.Title = r.DisplayName()
	} else {
		dto.Title = "Food order"
	}
	return dto
}

// Requests maps a slice of requests
func Requests(reqs []models.Request, loc *time.Location) []RequestDTO {
	out := make([]RequestDTO, 0, len(reqs))
	for _, r := range reqs {
		out = append(out, Request(r, loc))
	}
	return out
}

// Room maps a room and its current stay into a tile
func Room(occ models.RoomOccupancy) RoomDTO {
	dto := RoomDTO{
		ID:     occ.ID,
		Number: occ.Number,
		Floor:  occ.Floor,
		Status: occ.Status,
	}
	if occ.Stay != nil {
		id := occ.Stay.ID
		dto.StayID = &id
		dto.GuestName = occ.Stay.GuestName
		dto.GuestPhone = occ.Stay.Phone
		dto.TotalDue = occ.Stay.TotalDue.Float()
		dto.IsPaid = occ.Stay.IsPaid
	}
	return dto
}

// Bucket splits rooms by status, keeping their order
func Bucket(rooms []models.RoomOccupancy) RoomBuckets {
	b := RoomBuckets{Free: []RoomDTO{}, Busy: []RoomDTO{}, Cleaning: []RoomDTO{}}
	for _, occ := range rooms {
		dto := Room(occ)
		switch occ.Status {
		case models.RoomStatusBusy:
			b.Busy = append(b.Busy, dto)
		case models.RoomStatusCleaning:
			b.Cleaning = append(b.Cleaning, dto)
		default:
			b.Free = append(b.Free, dto)
		}
	}
	return b
}

// GuestFoodEntry is a food order on the guest summary page
type GuestFoodEntry struct {
	RequestID   int64     `json:"request_id"`
	Status      string    `json:"status"`
	CreatedAt   *string   `json:"created_at"`
	AcceptedAt  *string   `json:"accepted_at"`
	CompletedAt *string   `json:"completed_at"`
	CancelledAt *string   `json:"cancelled_at"`
	Subtotal    float64   `json:"subtotal"`
	Lines       []LineDTO `json:"lines"`
}

// GuestServiceEntry is a service call on the guest summary page
type GuestServiceEntry struct {
	RequestID   int64   `json:"request_id"`
	Name        string  `json:"name"`
	Status      string  `json:"status"`
	CreatedAt   *string `json:"created_at"`
	AcceptedAt  *string `json:"accepted_at"`
	CompletedAt *string `json:"completed_at"`
	CancelledAt *string `json:"cancelled_at"`
}

// GuestSummary is the guest's own request history split by kind
type GuestSummary struct {
	Food     []GuestFoodEntry    `json:"food"`
	Services []GuestServiceEntry `json:"services"`
}

// Summary maps requests into the guest summary
func Summary(reqs []models.Request, loc *time.Location) GuestSummary {
	s := GuestSummary{Food: []GuestFoodEntry{}, Services: []GuestServiceEntry{}}
	for _, r := range reqs {
		card := Request(r, loc)
		if r.Kind == models.KindService {
			s.Services = append(s.Services, GuestServiceEntry{
				RequestID:   r.ID,
				Name:        r.DisplayName(),
				Status:      r.Status,
				CreatedAt:   card.CreatedAt,
				AcceptedAt:  card.AcceptedAt,
				CompletedAt: card.CompletedAt,
				CancelledAt: card.CancelledAt,
			})
			continue
		}
		s.Food = append(s.Food, GuestFoodEntry{
			RequestID:   r.ID,
			Status:      r.Status,
			CreatedAt:   card.CreatedAt,
			AcceptedAt:  card.AcceptedAt,
			CompletedAt: card.CompletedAt,
			CancelledAt: card.CancelledAt,
			Subtotal:    card.Subtotal,
			Lines:       card.Lines,
		})
	}
	return s
}
