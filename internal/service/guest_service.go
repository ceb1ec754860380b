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

// GuestSummaryLimit caps the requests shown on the guest summary page
const GuestSummaryLimit = 100

// GuestContext is one resolved visit to a room page
type GuestContext struct {
	Hotel    *models.Hotel
	Room     *models.Room
	Stay     *models.Stay
	Verified bool
}

// StayID is the stay that carts and requests bind to; nil unless verified
func (g *GuestContext) StayID() *int64 {
	if g.Verified && g.Stay != nil {
		id := g.Stay.ID
		return &id
	}
	return nil
}

// RequirePhone reports whether the room has a guest who must verify first
func (g *GuestContext) RequirePhone() bool {
	return g.Stay != nil && !g.Verified
}

// RequireVerified gates every guest mutation
func (g *GuestContext) RequireVerified() error {
	if g.RequirePhone() {
		return models.ErrPhoneRequired
	}
	return nil
}

// Scope limits lookups to the guest's hotel
func (g *GuestContext) Scope() models.Scope {
	return models.HotelScope(g.Hotel.ID)
}

// Menu is the catalog split into food and services
type Menu struct {
	Food     []MenuSection `json:"food"`
	Services []MenuSection `json:"services"`
}

// MenuSection is one category with its orderable items
type MenuSection struct {
	Category models.Category `json:"category"`
	Items    []models.Item   `json:"items"`
}

// GuestService resolves room pages and runs the phone verification gate
type GuestService struct {
	repo   store.Repository
	logger *zap.Logger
	now    func() time.Time
}

// NewGuestService creates a new guest service
func NewGuestService(repo store.Repository) *GuestService {
	return &GuestService{
		repo:   repo,
		logger: util.GetLogger(),
		now:    time.Now,
	}
}

// Hotel retrieves a hotel
func (s *GuestService) Hotel(ctx context.Context, hotelID int64) (*models.Hotel, error) {
	return s.repo.GetHotel(ctx, hotelID)
}

// Resolve loads the hotel, room and active stay, and checks the phone token
// against the current stay. Paused or disabled hotels and inactive rooms are NotFound.
func (s *GuestService) Resolve(ctx context.Context, hotelID, roomID int64, token string) (*GuestContext, error) {
	ctx, span := util.StartSpan(ctx, "GuestService.Resolve")
	defer span.End()

	hotel, err := s.repo.GetHotel(ctx, hotelID)
	if err != nil {
		return nil, err
	}
	if hotel.Status != models.HotelStatusActive {
		return nil, fmt.Errorf("hotel %d is %s: %w", hotelID, hotel.Status, models.ErrNotFound)
	}

	room, err := s.repo.GetRoom(ctx, models.HotelScope(hotelID), roomID)
	if err != nil {
		return nil, err
	}
	if !room.IsActive {
		return nil, fmt.Errorf("room %d inactive: %w", roomID, models.ErrNotFound)
	}

	g := &GuestContext{Hotel: hotel, Room: room}
	if room.CurrentStayID != nil {
		stay, err := s.repo.GetStay(ctx, models.HotelScope(hotelID), *room.CurrentStayID)
		if err != nil && !errors.Is(err, models.ErrNotFound) {
			return nil, err
		}
		if stay != nil && stay.Status == models.StayStatusActive {
			g.Stay = stay
			g.Verified = token != "" && token == stay.Phone
		}
	}
	return g, nil
}

// VerifyPhone checks a phone against the room's active stay and returns the
// token to remember for this room
func (s *GuestService) VerifyPhone(ctx context.Context, hotelID, roomID int64, phone string) (string, error) {
	ctx, span := util.StartSpan(ctx, "GuestService.VerifyPhone")
	defer span.End()

	g, err := s.Resolve(ctx, hotelID, roomID, "")
	if err != nil {
		return "", err
	}
	if g.Stay == nil {
		util.PhoneVerificationsTotal.WithLabelValues("no_stay").Inc()
		return "", models.ErrNoStay
	}
	phone = strings.TrimSpace(phone)
	if phone == "" {
		util.PhoneVerificationsTotal.WithLabelValues("empty").Inc()
		return "", models.ErrEmptyPhone
	}
	if phone != g.Stay.Phone {
		util.PhoneVerificationsTotal.WithLabelValues("mismatch").Inc()
		s.logger.Info("Phone verification failed",
			zap.Int64("hotel_id", hotelID),
			zap.Int64("room_id", roomID))
		return "", models.ErrPhoneMismatch
	}

	util.PhoneVerificationsTotal.WithLabelValues("ok").Inc()
	return phone, nil
}

// Catalog returns the hotel's orderable menu
func (s *GuestService) Catalog(ctx context.Context, g *GuestContext) (*Menu, error) {
	categories, err := s.repo.ListCategories(ctx, g.Hotel.ID)
	if err != nil {
		return nil, err
	}
	items, err := s.repo.ListAvailableItems(ctx, g.Hotel.ID)
	if err != nil {
		return nil, err
	}

	byCategory := make(map[int64][]models.Item)
	for _, it := range items {
		byCategory[it.CategoryID] = append(byCategory[it.CategoryID], it)
	}

	menu := &Menu{Food: []MenuSection{}, Services: []MenuSection{}}
	for _, c := range categories {
		section := MenuSection{Category: c, Items: byCategory[c.ID]}
		if section.Items == nil {
			section.Items = []models.Item{}
		}
		if c.Kind == models.KindService {
			menu.Services = append(menu.Services, section)
		} else {
			menu.Food = append(menu.Food, section)
		}
	}
	return menu, nil
}

// Summary lists the verified stay's requests, or the room's last 24 hours otherwise
func (s *GuestService) Summary(ctx context.Context, g *GuestContext) ([]models.Request, error) {
	f := store.RequestFilter{
		Scope:  g.Scope(),
		RoomID: g.Room.ID,
		Limit:  GuestSummaryLimit,
	}
	if stayID := g.StayID(); stayID != nil {
		f.StayID = stayID
	} else {
		since := s.now().Add(-24 * time.Hour)
		f.From = &since
	}
	return s.repo.ListRequests(ctx, f)
}

// Track retrieves one request of this room. Requests bound to a stay are only
// visible to a guest verified for that stay.
func (s *GuestService) Track(ctx context.Context, g *GuestContext, requestID int64) (*models.Request, error) {
	r, err := s.repo.GetRequest(ctx, g.Scope(), requestID)
	if err != nil {
		return nil, err
	}
	if r.RoomID != g.Room.ID {
		return nil, fmt.Errorf("request %d: %w", requestID, models.ErrNotFound)
	}
	if r.StayID != nil {
		own := g.StayID()
		if own == nil || *own != *r.StayID {
			return nil, fmt.Errorf("request %d: %w", requestID, models.ErrNotFound)
		}
	}
	return r, nil
}
