package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"hotel-portal/internal/models"
	"hotel-portal/internal/store"
	"hotel-portal/internal/util"

	"go.uber.org/zap"
)

// StayListLimit caps the stay history and its export
const StayListLimit = 1000

// CheckoutResult is the closed stay with its final totals
type CheckoutResult struct {
	Stay   *models.Stay      `json:"stay"`
	Room   *models.Room      `json:"room"`
	Totals models.StayTotals `json:"totals"`
}

// StayDetail is a stay with its requests and live totals
type StayDetail struct {
	Room     *models.Room      `json:"room"`
	Stay     *models.Stay      `json:"stay"`
	Requests []models.Request  `json:"requests"`
	Totals   models.StayTotals `json:"totals"`
}

// StayQuery filters the stay history. With no filter set it covers stays checked in today.
type StayQuery struct {
	Scope  models.Scope
	Status string
	Room   string
	From   *time.Time
	To     *time.Time
	Query  string
}

func (sq StayQuery) empty() bool {
	return sq.Status == "" && sq.Room == "" && sq.From == nil && sq.To == nil && sq.Query == ""
}

// OccupancyService tracks rooms and stays
type OccupancyService struct {
	repo    store.Repository
	billing *BillingService
	emitter
	logger *zap.Logger
	loc    *time.Location
	now    func() time.Time
}

// NewOccupancyService creates a new occupancy service
func NewOccupancyService(repo store.Repository, billing *BillingService, notifier BoardNotifier, publisher EventPublisher, loc *time.Location) *OccupancyService {
	if loc == nil {
		loc = time.UTC
	}
	return &OccupancyService{
		repo:    repo,
		billing: billing,
		emitter: newEmitter(notifier, publisher),
		logger:  util.GetLogger(),
		loc:     loc,
		now:     time.Now,
	}
}

// CheckIn starts a stay in a room that has none
func (s *OccupancyService) CheckIn(ctx context.Context, scope models.Scope, roomID int64, guestName, phone string) (*models.Stay, error) {
	ctx, span := util.StartSpan(ctx, "OccupancyService.CheckIn")
	defer span.End()

	guestName = strings.TrimSpace(guestName)
	phone = strings.TrimSpace(phone)
	if guestName == "" || phone == "" {
		return nil, fmt.Errorf("%w: guest name and phone are required", models.ErrInvalidInput)
	}

	var stay *models.Stay
	var room *models.Room
	err := s.repo.Atomic(ctx, func(q store.Queries) error {
		r, err := q.LockRoom(ctx, scope, roomID)
		if err != nil {
			return err
		}
		if !r.IsActive {
			return fmt.Errorf("room %d inactive: %w", roomID, models.ErrNotFound)
		}
		if r.CurrentStayID != nil || r.Status == models.RoomStatusBusy {
			return models.ErrAlreadyOccupied
		}

		now := s.now()
		st := &models.Stay{
			HotelID:    r.HotelID,
			RoomID:     r.ID,
			GuestName:  guestName,
			Phone:      phone,
			Status:     models.StayStatusActive,
			CheckInAt:  now,
			CreatedAt:  now,
			UpdatedAt:  now,
			RoomNumber: r.Number,
		}
		if err := q.CreateStay(ctx, st); err != nil {
			return err
		}
		if err := q.SetRoomOccupancy(ctx, r.ID, models.RoomStatusBusy, &st.ID); err != nil {
			return err
		}
		r.Status = models.RoomStatusBusy
		r.CurrentStayID = &st.ID
		stay, room = st, r
		return nil
	})
	if err != nil {
		return nil, err
	}

	util.OccupancyChangesTotal.WithLabelValues("checkin").Inc()
	s.logger.Info("Guest checked in",
		zap.Int64("hotel_id", room.HotelID),
		zap.Int64("room_id", room.ID),
		zap.Int64("stay_id", stay.ID))

	s.roomChanged(ctx, models.EventTypeStayCheckedIn, room, &stay.ID, "")
	return stay, nil
}

// Checkout closes the room's stay and moves the room to CLEANING
func (s *OccupancyService) Checkout(ctx context.Context, scope models.Scope, roomID int64) (*CheckoutResult, error) {
	ctx, span := util.StartSpan(ctx, "OccupancyService.Checkout")
	defer span.End()

	var res *CheckoutResult
	err := s.repo.Atomic(ctx, func(q store.Queries) error {
		r, err := q.LockRoom(ctx, scope, roomID)
		if err != nil {
			return err
		}
		if r.CurrentStayID == nil {
			return models.ErrNoActiveStay
		}
		stayID := *r.CurrentStayID

		if err := q.CheckOutStay(ctx, stayID, s.now()); err != nil {
			return err
		}
		st, totals, err := s.billing.refreshTotalDue(ctx, q, stayID)
		if err != nil {
			return err
		}
		if err := q.SetRoomOccupancy(ctx, r.ID, models.RoomStatusCleaning, nil); err != nil {
			return err
		}
		r.Status = models.RoomStatusCleaning
		r.CurrentStayID = nil
		st.RoomNumber = r.Number
		res = &CheckoutResult{Stay: st, Room: r, Totals: totals}
		return nil
	})
	if err != nil {
		return nil, err
	}

	util.OccupancyChangesTotal.WithLabelValues("checkout").Inc()
	s.logger.Info("Guest checked out",
		zap.Int64("hotel_id", res.Room.HotelID),
		zap.Int64("room_id", res.Room.ID),
		zap.Int64("stay_id", res.Stay.ID),
		zap.String("total_due", res.Stay.TotalDue.String()))

	s.roomChanged(ctx, models.EventTypeStayCheckedOut, res.Room, &res.Stay.ID, "")
	return res, nil
}

// MarkReady returns a CLEANING room to FREE
func (s *OccupancyService) MarkReady(ctx context.Context, scope models.Scope, roomID int64) (*models.Room, error) {
	ctx, span := util.StartSpan(ctx, "OccupancyService.MarkReady")
	defer span.End()

	var room *models.Room
	err := s.repo.Atomic(ctx, func(q store.Queries) error {
		r, err := q.LockRoom(ctx, scope, roomID)
		if err != nil {
			return err
		}
		if r.Status != models.RoomStatusCleaning {
			return models.ErrNotCleaning
		}
		if err := q.SetRoomOccupancy(ctx, r.ID, models.RoomStatusFree, nil); err != nil {
			return err
		}
		r.Status = models.RoomStatusFree
		room = r
		return nil
	})
	if err != nil {
		return nil, err
	}

	util.OccupancyChangesTotal.WithLabelValues("ready").Inc()
	s.roomChanged(ctx, models.EventTypeRoomReady, room, nil, "")
	return room, nil
}

// StayDetail loads the active stay of a busy room
func (s *OccupancyService) StayDetail(ctx context.Context, scope models.Scope, roomID int64) (*StayDetail, error) {
	room, err := s.repo.GetRoom(ctx, scope, roomID)
	if err != nil {
		return nil, err
	}
	if room.CurrentStayID == nil {
		return nil, models.ErrNoActiveStay
	}
	return s.stayDetail(ctx, scope, room, *room.CurrentStayID)
}

// Stay loads any stay by ID
func (s *OccupancyService) Stay(ctx context.Context, scope models.Scope, stayID int64) (*StayDetail, error) {
	stay, err := s.repo.GetStay(ctx, scope, stayID)
	if err != nil {
		return nil, err
	}
	room, err := s.repo.GetRoom(ctx, scope, stay.RoomID)
	if err != nil {
		return nil, err
	}
	return s.stayDetail(ctx, scope, room, stayID)
}

func (s *OccupancyService) stayDetail(ctx context.Context, scope models.Scope, room *models.Room, stayID int64) (*StayDetail, error) {
	stay, err := s.repo.GetStay(ctx, scope, stayID)
	if err != nil {
		return nil, err
	}
	reqs, err := s.repo.ListRequests(ctx, store.RequestFilter{
		Scope:  models.HotelScope(stay.HotelID),
		StayID: &stay.ID,
	})
	if err != nil {
		return nil, err
	}
	totals, err := s.repo.StayTotals(ctx, stay.ID)
	if err != nil {
		return nil, err
	}
	return &StayDetail{Room: room, Stay: stay, Requests: reqs, Totals: totals}, nil
}

// Stays lists the stay history
func (s *OccupancyService) Stays(ctx context.Context, sq StayQuery) ([]models.Stay, error) {
	f := store.StayFilter{
		Scope:  sq.Scope,
		Status: strings.ToUpper(sq.Status),
		Room:   strings.TrimSpace(sq.Room),
		Query:  strings.TrimSpace(sq.Query),
		Limit:  StayListLimit,
	}
	if sq.empty() {
		from, to := models.DayBounds(s.now(), s.loc)
		f.From, f.To = &from, &to
	} else {
		f.From, f.To = DateRange(sq.From, sq.To, s.loc)
	}
	return s.repo.ListStays(ctx, f)
}

// Rooms lists the active rooms of the scope with their current stays
func (s *OccupancyService) Rooms(ctx context.Context, scope models.Scope) ([]models.RoomOccupancy, error) {
	return s.repo.ListRooms(ctx, scope)
}
