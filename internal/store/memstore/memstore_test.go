package memstore

import (
	"context"
	"errors"
	"testing"
	"time"

	"hotel-portal/internal/models"
	"hotel-portal/internal/store"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAtomic_RollsBackOnError(t *testing.T) {
	s := New()
	h := s.AddHotel(models.Hotel{Name: "H"})
	room := s.AddRoom(h.ID, "101", "1")
	ctx := context.Background()

	boom := errors.New("boom")
	err := s.Atomic(ctx, func(q store.Queries) error {
		stay := &models.Stay{HotelID: h.ID, RoomID: room.ID, Status: models.StayStatusActive}
		require.NoError(t, q.CreateStay(ctx, stay))
		require.NoError(t, q.SetRoomOccupancy(ctx, room.ID, models.RoomStatusBusy, &stay.ID))
		return boom
	})
	assert.ErrorIs(t, err, boom)

	got, err := s.GetRoom(ctx, models.HotelScope(h.ID), room.ID)
	require.NoError(t, err)
	assert.Equal(t, models.RoomStatusFree, got.Status)
	assert.Nil(t, got.CurrentStayID)

	stays, err := s.ListStays(ctx, store.StayFilter{Scope: models.AllHotels()})
	require.NoError(t, err)
	assert.Empty(t, stays)
}

func TestSetRoomOccupancy_BusyRequiresStay(t *testing.T) {
	s := New()
	h := s.AddHotel(models.Hotel{Name: "H"})
	room := s.AddRoom(h.ID, "101", "1")

	err := s.SetRoomOccupancy(context.Background(), room.ID, models.RoomStatusBusy, nil)
	assert.Error(t, err)

	stayID := int64(99)
	err = s.SetRoomOccupancy(context.Background(), room.ID, models.RoomStatusCleaning, &stayID)
	assert.Error(t, err)
}

func TestCreateStay_OneActivePerRoom(t *testing.T) {
	s := New()
	h := s.AddHotel(models.Hotel{Name: "H"})
	room := s.AddRoom(h.ID, "101", "1")
	ctx := context.Background()

	require.NoError(t, s.CreateStay(ctx, &models.Stay{HotelID: h.ID, RoomID: room.ID, Status: models.StayStatusActive}))
	err := s.CreateStay(ctx, &models.Stay{HotelID: h.ID, RoomID: room.ID, Status: models.StayStatusActive})
	assert.ErrorIs(t, err, models.ErrAlreadyOccupied)
}

func TestGetOrCreateCart_OnePerOwner(t *testing.T) {
	s := New()
	h := s.AddHotel(models.Hotel{Name: "H"})
	room := s.AddRoom(h.ID, "101", "1")
	ctx := context.Background()

	a, err := s.GetOrCreateCart(ctx, h.ID, room.ID, nil)
	require.NoError(t, err)
	b, err := s.GetOrCreateCart(ctx, h.ID, room.ID, nil)
	require.NoError(t, err)
	assert.Equal(t, a.ID, b.ID)

	stayID := int64(7)
	c, err := s.GetOrCreateCart(ctx, h.ID, room.ID, &stayID)
	require.NoError(t, err)
	assert.NotEqual(t, a.ID, c.ID)
}

func TestCreateRequest_RejectsOpenDuplicateService(t *testing.T) {
	s := New()
	h := s.AddHotel(models.Hotel{Name: "H"})
	room := s.AddRoom(h.ID, "101", "1")
	svc := s.AddItem(s.AddCategory(h.ID, "Services", models.KindService), "Towels", 0)
	ctx := context.Background()
	now := time.Now()

	newReq := func() *models.Request {
		return &models.Request{
			HotelID: h.ID, RoomID: room.ID, Kind: models.KindService, Status: models.RequestStatusNew,
			ServiceItemID: &svc.ID, CreatedAt: now, UpdatedAt: now,
		}
	}
	first := newReq()
	require.NoError(t, s.CreateRequest(ctx, first))
	assert.ErrorIs(t, s.CreateRequest(ctx, newReq()), models.ErrDuplicateActive)

	require.NoError(t, first.Apply(models.ActionCancel, now))
	require.NoError(t, s.SaveRequestStatus(ctx, first))
	assert.NoError(t, s.CreateRequest(ctx, newReq()))
}

func TestListRequests_FiltersAndOrders(t *testing.T) {
	s := New()
	h := s.AddHotel(models.Hotel{Name: "H", StaffGroupCode: "G"})
	other := s.AddHotel(models.Hotel{Name: "Other"})
	room := s.AddRoom(h.ID, "101", "1")
	otherRoom := s.AddRoom(other.ID, "101", "1")
	ctx := context.Background()
	base := time.Date(2024, 5, 1, 9, 0, 0, 0, time.UTC)

	for i, r := range []models.Request{
		{HotelID: h.ID, RoomID: room.ID, Kind: models.KindFood, Status: models.RequestStatusNew, Note: "no onion"},
		{HotelID: h.ID, RoomID: room.ID, Kind: models.KindFood, Status: models.RequestStatusNew},
		{HotelID: other.ID, RoomID: otherRoom.ID, Kind: models.KindFood, Status: models.RequestStatusNew},
	} {
		r := r
		r.CreatedAt = base.Add(time.Duration(i) * time.Minute)
		r.UpdatedAt = r.CreatedAt
		require.NoError(t, s.CreateRequest(ctx, &r))
	}

	reqs, err := s.ListRequests(ctx, store.RequestFilter{Scope: models.HotelScope(h.ID)})
	require.NoError(t, err)
	require.Len(t, reqs, 2)
	assert.True(t, reqs[0].CreatedAt.After(reqs[1].CreatedAt))
	assert.Equal(t, "101", reqs[0].RoomNumber)
	assert.Equal(t, "G", reqs[0].StaffGroupCode)

	reqs, err = s.ListRequests(ctx, store.RequestFilter{Scope: models.AllHotels(), Query: "ONION"})
	require.NoError(t, err)
	require.Len(t, reqs, 1)
	assert.Equal(t, "no onion", reqs[0].Note)
}
