package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"hotel-portal/internal/models"
	"hotel-portal/internal/store"
	"hotel-portal/internal/util"

	"go.uber.org/zap"
)

// HistoryLimit caps request history and its export
const HistoryLimit = 1000

// HistoryQuery filters the request history. With no filter set it covers today.
type HistoryQuery struct {
	Scope  models.Scope
	Status string
	Kind   string
	Room   string
	From   *time.Time
	To     *time.Time
	Query  string
}

func (hq HistoryQuery) empty() bool {
	return hq.Status == "" && hq.Kind == "" && hq.Room == "" && hq.From == nil && hq.To == nil && hq.Query == ""
}

// RequestService runs request creation and the staff lifecycle
type RequestService struct {
	repo    store.Repository
	billing *BillingService
	emitter
	logger *zap.Logger
	loc    *time.Location
	now    func() time.Time
}

// NewRequestService creates a new request service
func NewRequestService(repo store.Repository, billing *BillingService, notifier BoardNotifier, publisher EventPublisher, loc *time.Location) *RequestService {
	if loc == nil {
		loc = time.UTC
	}
	return &RequestService{
		repo:    repo,
		billing: billing,
		emitter: newEmitter(notifier, publisher),
		logger:  util.GetLogger(),
		loc:     loc,
		now:     time.Now,
	}
}

func (s *RequestService) hydrate(r *models.Request, g *GuestContext) {
	r.RoomNumber = g.Room.Number
	r.HotelName = g.Hotel.Name
	r.StaffGroupCode = g.Hotel.StaffGroupCode
}

// SubmitOrder turns the guest's cart into one FOOD request and deletes the cart
func (s *RequestService) SubmitOrder(ctx context.Context, g *GuestContext, note string) (*models.Request, error) {
	ctx, span := util.StartSpan(ctx, "RequestService.SubmitOrder")
	defer span.End()

	if err := g.RequireVerified(); err != nil {
		return nil, err
	}
	note = models.TruncateNote(strings.TrimSpace(note))
	stayID := g.StayID()

	var req *models.Request
	err := s.repo.Atomic(ctx, func(q store.Queries) error {
		cart, err := q.FindCart(ctx, g.Hotel.ID, g.Room.ID, stayID)
		if errors.Is(err, models.ErrNotFound) {
			return models.ErrEmptyCart
		}
		if err != nil {
			return err
		}
		// a concurrent submit may have converted and deleted the cart already
		_, err = q.LockCart(ctx, cart.ID)
		if errors.Is(err, models.ErrNotFound) {
			return models.ErrEmptyCart
		}
		if err != nil {
			return err
		}
		items, err := q.ListCartItems(ctx, cart.ID)
		if err != nil {
			return err
		}
		if len(items) == 0 {
			return models.ErrEmptyCart
		}

		now := s.now()
		r := &models.Request{
			HotelID:   g.Hotel.ID,
			RoomID:    g.Room.ID,
			StayID:    stayID,
			Kind:      models.KindFood,
			Status:    models.RequestStatusNew,
			Subtotal:  models.SnapshotCart(cart.ID, items).Total,
			Note:      note,
			CreatedAt: now,
			UpdatedAt: now,
		}
		if err := q.CreateRequest(ctx, r); err != nil {
			return err
		}
		r.Lines = models.LinesFromCart(r.ID, items)
		if err := q.CreateRequestLines(ctx, r.Lines); err != nil {
			return err
		}
		if err := q.DeleteCart(ctx, cart.ID); err != nil {
			return err
		}
		if stayID != nil {
			if _, _, err := s.billing.refreshTotalDue(ctx, q, *stayID); err != nil {
				return err
			}
		}
		req = r
		return nil
	})
	if err != nil {
		if errors.Is(err, models.ErrEmptyCart) {
			util.RequestsRejectedTotal.WithLabelValues("empty_cart").Inc()
		}
		return nil, err
	}

	s.hydrate(req, g)
	util.RequestsCreatedTotal.WithLabelValues(models.KindFood).Inc()
	s.logger.Info("Order submitted",
		zap.Int64("request_id", req.ID),
		zap.Int64("hotel_id", req.HotelID),
		zap.Int64("room_id", req.RoomID),
		zap.String("subtotal", req.Subtotal.String()))

	s.requestChanged(ctx, req, models.EventTypeRequestCreated)
	return req, nil
}

// CreateServiceRequest opens a SERVICE request unless one for the same item is still open
func (s *RequestService) CreateServiceRequest(ctx context.Context, g *GuestContext, itemID int64, note string) (*models.Request, error) {
	ctx, span := util.StartSpan(ctx, "RequestService.CreateServiceRequest")
	defer span.End()

	if err := g.RequireVerified(); err != nil {
		return nil, err
	}
	note = models.TruncateNote(strings.TrimSpace(note))

	item, err := s.repo.GetItem(ctx, g.Hotel.ID, itemID)
	if err != nil {
		return nil, err
	}
	if !item.IsAvailable {
		return nil, fmt.Errorf("item %d unavailable: %w", itemID, models.ErrNotFound)
	}
	if item.CategoryKind != models.KindService {
		return nil, models.ErrInvalidKind
	}

	stayID := g.StayID()
	var req *models.Request
	err = s.repo.Atomic(ctx, func(q store.Queries) error {
		if err := q.LockServiceSlot(ctx, g.Hotel.ID, g.Room.ID, itemID); err != nil {
			return err
		}
		open, err := q.HasOpenService(ctx, g.Hotel.ID, g.Room.ID, itemID)
		if err != nil {
			return err
		}
		if open {
			return models.ErrDuplicateActive
		}

		now := s.now()
		r := &models.Request{
			HotelID:       g.Hotel.ID,
			RoomID:        g.Room.ID,
			StayID:        stayID,
			Kind:          models.KindService,
			Status:        models.RequestStatusNew,
			ServiceItemID: &item.ID,
			Subtotal:      item.Price,
			Note:          note,
			CreatedAt:     now,
			UpdatedAt:     now,
			Lines:         []models.RequestLine{},
		}
		if err := q.CreateRequest(ctx, r); err != nil {
			return err
		}
		if stayID != nil {
			if _, _, err := s.billing.refreshTotalDue(ctx, q, *stayID); err != nil {
				return err
			}
		}
		req = r
		return nil
	})
	if err != nil {
		if errors.Is(err, models.ErrDuplicateActive) {
			util.RequestsRejectedTotal.WithLabelValues("duplicate_service").Inc()
		}
		return nil, err
	}

	s.hydrate(req, g)
	name := item.Name
	req.ServiceItemName = &name
	util.RequestsCreatedTotal.WithLabelValues(models.KindService).Inc()
	s.logger.Info("Service requested",
		zap.Int64("request_id", req.ID),
		zap.Int64("hotel_id", req.HotelID),
		zap.Int64("room_id", req.RoomID),
		zap.Int64("service_item_id", itemID))

	s.requestChanged(ctx, req, models.EventTypeRequestCreated)
	return req, nil
}

// Transition applies a staff action under a row lock on the request
func (s *RequestService) Transition(ctx context.Context, scope models.Scope, requestID int64, action models.Action) (*models.Request, error) {
	ctx, span := util.StartSpan(ctx, "RequestService.Transition")
	defer span.End()

	var req *models.Request
	err := s.repo.Atomic(ctx, func(q store.Queries) error {
		r, err := q.LockRequest(ctx, scope, requestID)
		if err != nil {
			return err
		}
		if err := r.Apply(action, s.now()); err != nil {
			return err
		}
		if err := q.SaveRequestStatus(ctx, r); err != nil {
			return err
		}
		if r.StayID != nil && action == models.ActionCancel {
			if _, _, err := s.billing.refreshTotalDue(ctx, q, *r.StayID); err != nil {
				return err
			}
		}
		req = r
		return nil
	})
	if err != nil {
		result := "error"
		if errors.Is(err, models.ErrConflict) {
			result = "conflict"
		}
		util.RequestTransitionsTotal.WithLabelValues(string(action), result).Inc()
		return nil, err
	}

	util.RequestTransitionsTotal.WithLabelValues(string(action), "ok").Inc()
	s.logger.Info("Request transitioned",
		zap.Int64("request_id", req.ID),
		zap.String("action", string(action)),
		zap.String("status", req.Status))

	s.requestChanged(ctx, req, models.RequestEventType(action))
	return req, nil
}

// Get retrieves one request with its lines
func (s *RequestService) Get(ctx context.Context, scope models.Scope, requestID int64) (*models.Request, error) {
	return s.repo.GetRequest(ctx, scope, requestID)
}

// History lists requests for the history page and its CSV export
func (s *RequestService) History(ctx context.Context, hq HistoryQuery) ([]models.Request, error) {
	ctx, span := util.StartSpan(ctx, "RequestService.History")
	defer span.End()

	f := store.RequestFilter{
		Scope:      hq.Scope,
		Kind:       strings.ToUpper(hq.Kind),
		RoomNumber: strings.TrimSpace(hq.Room),
		Query:      strings.TrimSpace(hq.Query),
		Limit:      HistoryLimit,
	}
	if hq.Status != "" {
		f.Statuses = []string{strings.ToUpper(hq.Status)}
	}
	if hq.empty() {
		from, to := models.DayBounds(s.now(), s.loc)
		f.From, f.To = &from, &to
	} else {
		f.From, f.To = DateRange(hq.From, hq.To, s.loc)
	}
	return s.repo.ListRequests(ctx, f)
}
