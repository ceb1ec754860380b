package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"hotel-portal/internal/models"
	"hotel-portal/internal/store"
	"hotel-portal/internal/store/memstore"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingNotifier struct {
	mu     sync.Mutex
	hotels []int64
}

func (n *recordingNotifier) NotifyHotel(ctx context.Context, hotelID int64) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.hotels = append(n.hotels, hotelID)
}

func (n *recordingNotifier) count() int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return len(n.hotels)
}

type fixture struct {
	store    *memstore.Store
	hotel    models.Hotel
	room     models.Room
	other    models.Room
	tea      models.Item
	towels   models.Item
	laundry  models.Item
	notifier *recordingNotifier

	guests    *GuestService
	carts     *CartService
	requests  *RequestService
	occupancy *OccupancyService
	billing   *BillingService
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	s := memstore.New()
	h := s.AddHotel(models.Hotel{Name: "Test Hotel", StaffGroupCode: "TEST"})
	food := s.AddCategory(h.ID, "Food", models.KindFood)
	svc := s.AddCategory(h.ID, "Services", models.KindService)
	s.SetBillingSettings(models.BillingSettings{
		HotelID:        h.ID,
		GSTPercentBP:   500,
		InvoicePrefix:  "TEST",
		NextInvoiceSeq: 1,
	})

	f := &fixture{
		store:    s,
		hotel:    h,
		room:     s.AddRoom(h.ID, "101", "1"),
		other:    s.AddRoom(h.ID, "102", "1"),
		tea:      s.AddItem(food, "Masala Tea", 5000),
		towels:   s.AddItem(svc, "Extra Towels", 0),
		laundry:  s.AddItem(svc, "Laundry Pickup", 15000),
		notifier: &recordingNotifier{},
	}
	f.billing = NewBillingService(s, f.notifier, nil)
	f.guests = NewGuestService(s)
	f.carts = NewCartService(s)
	f.requests = NewRequestService(s, f.billing, f.notifier, nil, time.UTC)
	f.occupancy = NewOccupancyService(s, f.billing, f.notifier, nil, time.UTC)
	return f
}

func (f *fixture) scope() models.Scope {
	return models.HotelScope(f.hotel.ID)
}

// guest resolves the room page, verifying phone when given
func (f *fixture) guest(t *testing.T, room models.Room, phone string) *GuestContext {
	t.Helper()
	g, err := f.guests.Resolve(context.Background(), f.hotel.ID, room.ID, phone)
	require.NoError(t, err)
	return g
}

func (f *fixture) checkIn(t *testing.T, room models.Room, phone string) *models.Stay {
	t.Helper()
	stay, err := f.occupancy.CheckIn(context.Background(), f.scope(), room.ID, "Asha", phone)
	require.NoError(t, err)
	return stay
}

func (f *fixture) stay(t *testing.T, id int64) *models.Stay {
	t.Helper()
	st, err := f.store.GetStay(context.Background(), f.scope(), id)
	require.NoError(t, err)
	return st
}

func TestCart_PriceSnapshotIgnoresCatalogEdits(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	g := f.guest(t, f.room, "")

	snap, err := f.carts.AddItem(ctx, g, f.tea.ID, 2)
	require.NoError(t, err)
	assert.Equal(t, 2, snap.Count)
	assert.Equal(t, models.Money(10000), snap.Total)

	f.store.SetItemPrice(f.tea.ID, 9900)

	snap, err = f.carts.AddItem(ctx, g, f.tea.ID, 1)
	require.NoError(t, err)
	require.Len(t, snap.Lines, 1)
	assert.Equal(t, 3, snap.Lines[0].Qty)
	assert.Equal(t, models.Money(15000), snap.Total)

	view, err := f.carts.View(ctx, g)
	require.NoError(t, err)
	assert.Equal(t, models.Money(15000), view.Total)
}

func TestCart_UpdateAndClear(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	g := f.guest(t, f.room, "")

	_, err := f.carts.AddItem(ctx, g, f.tea.ID, 0)
	require.NoError(t, err)

	snap, err := f.carts.UpdateItem(ctx, g, f.tea.ID, 4)
	require.NoError(t, err)
	assert.Equal(t, 4, snap.Count)
	assert.Equal(t, models.Money(20000), snap.Total)

	snap, err = f.carts.UpdateItem(ctx, g, f.tea.ID, 0)
	require.NoError(t, err)
	assert.Empty(t, snap.Lines)

	_, err = f.carts.UpdateItem(ctx, g, f.tea.ID, 2)
	assert.ErrorIs(t, err, models.ErrNotFound)

	_, err = f.carts.AddItem(ctx, g, f.tea.ID, 1)
	require.NoError(t, err)
	snap, err = f.carts.Clear(ctx, g)
	require.NoError(t, err)
	assert.Zero(t, snap.Count)
	assert.Zero(t, snap.Total)
}

func TestCart_RejectsServiceAndUnavailableItems(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	g := f.guest(t, f.room, "")

	_, err := f.carts.AddItem(ctx, g, f.towels.ID, 1)
	assert.ErrorIs(t, err, models.ErrInvalidInput)

	f.store.SetItemAvailable(f.tea.ID, false)
	_, err = f.carts.AddItem(ctx, g, f.tea.ID, 1)
	assert.ErrorIs(t, err, models.ErrNotFound)
}

func TestSubmitOrder_ConvertsCartOnce(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	g := f.guest(t, f.room, "")

	_, err := f.carts.AddItem(ctx, g, f.tea.ID, 2)
	require.NoError(t, err)

	req, err := f.requests.SubmitOrder(ctx, g, "  less sugar  ")
	require.NoError(t, err)
	assert.Equal(t, models.KindFood, req.Kind)
	assert.Equal(t, models.RequestStatusNew, req.Status)
	assert.Equal(t, models.Money(10000), req.Subtotal)
	assert.Equal(t, "less sugar", req.Note)
	assert.Equal(t, "101", req.RoomNumber)
	require.Len(t, req.Lines, 1)
	assert.Equal(t, "Masala Tea", req.Lines[0].NameSnapshot)
	assert.Equal(t, 2, req.Lines[0].Qty)
	assert.Equal(t, models.Money(10000), req.Lines[0].LineTotal)

	view, err := f.carts.View(ctx, g)
	require.NoError(t, err)
	assert.Zero(t, view.Count)

	_, err = f.requests.SubmitOrder(ctx, g, "")
	assert.ErrorIs(t, err, models.ErrEmptyCart)

	reqs, err := f.store.ListRequests(ctx, store.RequestFilter{Scope: f.scope()})
	require.NoError(t, err)
	assert.Len(t, reqs, 1)
	assert.Equal(t, 1, f.notifier.count())
}

// vanishingCartRepo deletes the cart right before the next lock, the way a
// concurrent submit committing between lookup and lock would
type vanishingCartRepo struct {
	store.Repository
	mu     sync.Mutex
	misses int
}

func (r *vanishingCartRepo) Atomic(ctx context.Context, fn func(q store.Queries) error) error {
	return r.Repository.Atomic(ctx, func(q store.Queries) error {
		return fn(&vanishingCartQueries{Queries: q, repo: r})
	})
}

func (r *vanishingCartRepo) takeMiss() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.misses == 0 {
		return false
	}
	r.misses--
	return true
}

type vanishingCartQueries struct {
	store.Queries
	repo *vanishingCartRepo
}

func (q *vanishingCartQueries) LockCart(ctx context.Context, cartID int64) (*models.Cart, error) {
	if q.repo.takeMiss() {
		if err := q.Queries.DeleteCart(ctx, cartID); err != nil {
			return nil, err
		}
		return nil, fmt.Errorf("cart %d: %w", cartID, models.ErrNotFound)
	}
	return q.Queries.LockCart(ctx, cartID)
}

func TestSubmitOrder_CartGoneBeforeLockIsEmptyCart(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	g := f.guest(t, f.room, "")

	_, err := f.carts.AddItem(ctx, g, f.tea.ID, 1)
	require.NoError(t, err)

	repo := &vanishingCartRepo{Repository: f.store, misses: 1}
	requests := NewRequestService(repo, f.billing, f.notifier, nil, time.UTC)

	_, err = requests.SubmitOrder(ctx, g, "")
	assert.ErrorIs(t, err, models.ErrEmptyCart)

	reqs, err := f.store.ListRequests(ctx, store.RequestFilter{Scope: f.scope()})
	require.NoError(t, err)
	assert.Empty(t, reqs)
}

func TestCart_AddReopensCartGoneBeforeLock(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	g := f.guest(t, f.room, "")

	_, err := f.carts.AddItem(ctx, g, f.tea.ID, 1)
	require.NoError(t, err)

	repo := &vanishingCartRepo{Repository: f.store, misses: 1}
	snap, err := NewCartService(repo).AddItem(ctx, g, f.tea.ID, 2)
	require.NoError(t, err)
	assert.Equal(t, 2, snap.Count)
	require.Len(t, snap.Lines, 1)

	view, err := f.carts.View(ctx, g)
	require.NoError(t, err)
	assert.Equal(t, snap.CartID, view.CartID)
	assert.Equal(t, 2, view.Count)
}

func TestSubmitOrder_LinesKeepSubmittedPrice(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	g := f.guest(t, f.room, "")

	_, err := f.carts.AddItem(ctx, g, f.tea.ID, 1)
	require.NoError(t, err)
	req, err := f.requests.SubmitOrder(ctx, g, "")
	require.NoError(t, err)

	f.store.SetItemPrice(f.tea.ID, 1)

	got, err := f.requests.Get(ctx, f.scope(), req.ID)
	require.NoError(t, err)
	require.Len(t, got.Lines, 1)
	assert.Equal(t, models.Money(5000), got.Lines[0].PriceSnapshot)
	assert.Equal(t, models.Money(5000), got.Subtotal)
}

func TestTransition_ConcurrentAcceptHasOneWinner(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	g := f.guest(t, f.room, "")

	req, err := f.requests.CreateServiceRequest(ctx, g, f.towels.ID, "")
	require.NoError(t, err)

	const workers = 8
	var wg sync.WaitGroup
	errs := make(chan error, workers)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := f.requests.Transition(ctx, f.scope(), req.ID, models.ActionAccept)
			errs <- err
		}()
	}
	wg.Wait()
	close(errs)

	var ok, conflicts int
	for err := range errs {
		switch {
		case err == nil:
			ok++
		case errors.Is(err, models.ErrConflict):
			conflicts++
		}
	}
	assert.Equal(t, 1, ok)
	assert.Equal(t, workers-1, conflicts)

	done, err := f.requests.Transition(ctx, f.scope(), req.ID, models.ActionComplete)
	require.NoError(t, err)
	assert.Equal(t, models.RequestStatusCompleted, done.Status)
	require.NotNil(t, done.AcceptedAt)
	require.NotNil(t, done.CompletedAt)
	assert.False(t, done.CompletedAt.Before(*done.AcceptedAt))
}

func TestTransition_Preconditions(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	g := f.guest(t, f.room, "")

	req, err := f.requests.CreateServiceRequest(ctx, g, f.towels.ID, "")
	require.NoError(t, err)

	_, err = f.requests.Transition(ctx, f.scope(), req.ID, models.ActionComplete)
	assert.ErrorIs(t, err, models.ErrConflict)

	_, err = f.requests.Transition(ctx, f.scope(), req.ID, models.ActionCancel)
	require.NoError(t, err)

	_, err = f.requests.Transition(ctx, f.scope(), req.ID, models.ActionCancel)
	assert.ErrorIs(t, err, models.ErrConflict)

	_, err = f.requests.Transition(ctx, models.HotelScope(f.hotel.ID+1000), req.ID, models.ActionAccept)
	assert.ErrorIs(t, err, models.ErrNotFound)
}

func TestCreateServiceRequest_DuplicateUntilClosed(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	g := f.guest(t, f.room, "")

	first, err := f.requests.CreateServiceRequest(ctx, g, f.towels.ID, "two please")
	require.NoError(t, err)
	require.NotNil(t, first.ServiceItemName)
	assert.Equal(t, "Extra Towels", *first.ServiceItemName)

	_, err = f.requests.CreateServiceRequest(ctx, g, f.towels.ID, "")
	assert.ErrorIs(t, err, models.ErrDuplicateActive)

	_, err = f.requests.Transition(ctx, f.scope(), first.ID, models.ActionAccept)
	require.NoError(t, err)
	_, err = f.requests.CreateServiceRequest(ctx, g, f.towels.ID, "")
	assert.ErrorIs(t, err, models.ErrDuplicateActive)

	other := f.guest(t, f.other, "")
	_, err = f.requests.CreateServiceRequest(ctx, other, f.towels.ID, "")
	require.NoError(t, err)

	_, err = f.requests.Transition(ctx, f.scope(), first.ID, models.ActionComplete)
	require.NoError(t, err)
	_, err = f.requests.CreateServiceRequest(ctx, g, f.towels.ID, "")
	assert.NoError(t, err)

	_, err = f.requests.CreateServiceRequest(ctx, g, f.tea.ID, "")
	assert.ErrorIs(t, err, models.ErrInvalidKind)
}

func TestPhoneGate(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.guests.VerifyPhone(ctx, f.hotel.ID, f.room.ID, "9999")
	assert.ErrorIs(t, err, models.ErrNoStay)

	stay := f.checkIn(t, f.room, "9999")

	g := f.guest(t, f.room, "")
	assert.True(t, g.RequirePhone())
	assert.Nil(t, g.StayID())

	_, err = f.carts.AddItem(ctx, g, f.tea.ID, 1)
	assert.ErrorIs(t, err, models.ErrPhoneRequired)
	_, err = f.requests.SubmitOrder(ctx, g, "")
	assert.ErrorIs(t, err, models.ErrPhoneRequired)
	_, err = f.requests.CreateServiceRequest(ctx, g, f.towels.ID, "")
	assert.ErrorIs(t, err, models.ErrPhoneRequired)

	_, err = f.guests.VerifyPhone(ctx, f.hotel.ID, f.room.ID, "  ")
	assert.ErrorIs(t, err, models.ErrEmptyPhone)
	_, err = f.guests.VerifyPhone(ctx, f.hotel.ID, f.room.ID, "1234")
	assert.ErrorIs(t, err, models.ErrPhoneMismatch)

	token, err := f.guests.VerifyPhone(ctx, f.hotel.ID, f.room.ID, " 9999 ")
	require.NoError(t, err)

	g = f.guest(t, f.room, token)
	assert.False(t, g.RequirePhone())
	require.NotNil(t, g.StayID())
	assert.Equal(t, stay.ID, *g.StayID())

	_, err = f.carts.AddItem(ctx, g, f.tea.ID, 1)
	require.NoError(t, err)
	req, err := f.requests.SubmitOrder(ctx, g, "")
	require.NoError(t, err)
	require.NotNil(t, req.StayID)
	assert.Equal(t, stay.ID, *req.StayID)

	// a stale token from the previous stay no longer verifies
	_, err = f.occupancy.Checkout(ctx, f.scope(), f.room.ID)
	require.NoError(t, err)
	_, err = f.occupancy.MarkReady(ctx, f.scope(), f.room.ID)
	require.NoError(t, err)
	f.checkIn(t, f.room, "5555")
	g = f.guest(t, f.room, token)
	assert.True(t, g.RequirePhone())
}

func TestTrack_StayBoundRequestNeedsSameStay(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.checkIn(t, f.room, "9999")

	verified := f.guest(t, f.room, "9999")
	req, err := f.requests.CreateServiceRequest(ctx, verified, f.towels.ID, "")
	require.NoError(t, err)

	got, err := f.guests.Track(ctx, verified, req.ID)
	require.NoError(t, err)
	assert.Equal(t, req.ID, got.ID)

	_, err = f.guests.Track(ctx, f.guest(t, f.room, ""), req.ID)
	assert.ErrorIs(t, err, models.ErrNotFound)

	_, err = f.guests.Track(ctx, f.guest(t, f.other, ""), req.ID)
	assert.ErrorIs(t, err, models.ErrNotFound)
}

func TestOccupancy_CheckoutAndMarkReady(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.occupancy.CheckIn(ctx, f.scope(), f.room.ID, "", "9999")
	assert.ErrorIs(t, err, models.ErrInvalidInput)

	stay := f.checkIn(t, f.room, "9999")
	assert.Equal(t, models.StayStatusActive, stay.Status)

	room, err := f.store.GetRoom(ctx, f.scope(), f.room.ID)
	require.NoError(t, err)
	assert.Equal(t, models.RoomStatusBusy, room.Status)
	require.NotNil(t, room.CurrentStayID)
	assert.Equal(t, stay.ID, *room.CurrentStayID)

	_, err = f.occupancy.CheckIn(ctx, f.scope(), f.room.ID, "Ravi", "1111")
	assert.ErrorIs(t, err, models.ErrAlreadyOccupied)

	_, err = f.occupancy.MarkReady(ctx, f.scope(), f.room.ID)
	assert.ErrorIs(t, err, models.ErrNotCleaning)

	res, err := f.occupancy.Checkout(ctx, f.scope(), f.room.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StayStatusCheckedOut, res.Stay.Status)
	assert.NotNil(t, res.Stay.CheckOutAt)
	assert.Equal(t, models.RoomStatusCleaning, res.Room.Status)
	assert.Nil(t, res.Room.CurrentStayID)

	room, err = f.store.GetRoom(ctx, f.scope(), f.room.ID)
	require.NoError(t, err)
	assert.Equal(t, models.RoomStatusCleaning, room.Status)
	assert.Nil(t, room.CurrentStayID)

	_, err = f.occupancy.Checkout(ctx, f.scope(), f.room.ID)
	assert.ErrorIs(t, err, models.ErrNoActiveStay)

	ready, err := f.occupancy.MarkReady(ctx, f.scope(), f.room.ID)
	require.NoError(t, err)
	assert.Equal(t, models.RoomStatusFree, ready.Status)

	f.checkIn(t, f.room, "2222")
	assert.Equal(t, 4, f.notifier.count())
}

func TestOccupancy_StayDetail(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.occupancy.StayDetail(ctx, f.scope(), f.room.ID)
	assert.ErrorIs(t, err, models.ErrNoActiveStay)

	stay := f.checkIn(t, f.room, "9999")
	g := f.guest(t, f.room, "9999")
	_, err = f.requests.CreateServiceRequest(ctx, g, f.laundry.ID, "")
	require.NoError(t, err)

	d, err := f.occupancy.StayDetail(ctx, f.scope(), f.room.ID)
	require.NoError(t, err)
	assert.Equal(t, stay.ID, d.Stay.ID)
	assert.Len(t, d.Requests, 1)
	assert.Equal(t, models.Money(15000), d.Totals.Service)
	assert.Equal(t, models.Money(15000), d.Totals.Unpaid)

	byID, err := f.occupancy.Stay(ctx, f.scope(), stay.ID)
	require.NoError(t, err)
	assert.Equal(t, d.Totals, byID.Totals)
}

func TestBilling_TotalDueTracksBillableRequests(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	stay := f.checkIn(t, f.room, "9999")
	g := f.guest(t, f.room, "9999")

	_, err := f.carts.AddItem(ctx, g, f.tea.ID, 2)
	require.NoError(t, err)
	_, err = f.requests.SubmitOrder(ctx, g, "")
	require.NoError(t, err)
	laundry, err := f.requests.CreateServiceRequest(ctx, g, f.laundry.ID, "")
	require.NoError(t, err)

	// 100.00 food + 150.00 service, plus 5% GST
	assert.Equal(t, models.Money(26250), f.stay(t, stay.ID).TotalDue)

	_, err = f.requests.Transition(ctx, f.scope(), laundry.ID, models.ActionCancel)
	require.NoError(t, err)
	assert.Equal(t, models.Money(10500), f.stay(t, stay.ID).TotalDue)

	res, err := f.occupancy.Checkout(ctx, f.scope(), f.room.ID)
	require.NoError(t, err)
	assert.Equal(t, models.Money(10500), res.Stay.TotalDue)
	assert.Equal(t, models.Money(10000), res.Totals.Grand())
}

func TestMarkPaid_AssignsInvoiceOnce(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	stay := f.checkIn(t, f.room, "9999")
	g := f.guest(t, f.room, "9999")
	_, err := f.requests.CreateServiceRequest(ctx, g, f.laundry.ID, "")
	require.NoError(t, err)

	_, err = f.billing.MarkPaid(ctx, f.scope(), stay.ID, "cheque")
	assert.ErrorIs(t, err, models.ErrInvalidInput)

	paid, err := f.billing.MarkPaid(ctx, f.scope(), stay.ID, "cash")
	require.NoError(t, err)
	assert.True(t, paid.IsPaid)
	assert.Equal(t, "CASH", paid.PaymentMode)
	assert.NotNil(t, paid.PaidAt)
	require.NotNil(t, paid.InvoiceNo)
	assert.Equal(t, "TEST-000001", *paid.InvoiceNo)

	d, err := f.occupancy.Stay(ctx, f.scope(), stay.ID)
	require.NoError(t, err)
	assert.True(t, d.Requests[0].IsPaid)
	assert.Zero(t, d.Totals.Unpaid)

	again, err := f.billing.MarkPaid(ctx, f.scope(), stay.ID, "UPI")
	require.NoError(t, err)
	assert.Equal(t, "TEST-000001", *again.InvoiceNo)
	assert.Equal(t, "UPI", again.PaymentMode)

	second := f.checkIn(t, f.other, "8888")
	paid, err = f.billing.MarkPaid(ctx, f.scope(), second.ID, "CARD")
	require.NoError(t, err)
	assert.Equal(t, "TEST-000002", *paid.InvoiceNo)

	_, err = f.billing.MarkPaid(ctx, models.HotelScope(f.hotel.ID+1000), stay.ID, "CASH")
	assert.ErrorIs(t, err, models.ErrNotFound)
}

func TestInvoice_ExcludesCancelledRequests(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	stay := f.checkIn(t, f.room, "9999")
	g := f.guest(t, f.room, "9999")

	_, err := f.carts.AddItem(ctx, g, f.tea.ID, 2)
	require.NoError(t, err)
	_, err = f.requests.SubmitOrder(ctx, g, "")
	require.NoError(t, err)
	laundry, err := f.requests.CreateServiceRequest(ctx, g, f.laundry.ID, "")
	require.NoError(t, err)
	_, err = f.requests.Transition(ctx, f.scope(), laundry.ID, models.ActionCancel)
	require.NoError(t, err)

	inv, err := f.billing.Invoice(ctx, f.scope(), stay.ID)
	require.NoError(t, err)
	assert.Equal(t, "Test Hotel", inv.Hotel.Name)
	assert.Len(t, inv.Requests, 1)
	assert.Equal(t, models.Money(10000), inv.Subtotal)
	assert.Equal(t, models.Money(500), inv.GST)
	assert.Equal(t, models.Money(10500), inv.Total)
}

func TestBillingList_Summary(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	first := f.checkIn(t, f.room, "9999")
	_, err := f.requests.CreateServiceRequest(ctx, f.guest(t, f.room, "9999"), f.laundry.ID, "")
	require.NoError(t, err)
	f.checkIn(t, f.other, "8888")
	_, err = f.requests.CreateServiceRequest(ctx, f.guest(t, f.other, "8888"), f.laundry.ID, "")
	require.NoError(t, err)
	_, err = f.billing.MarkPaid(ctx, f.scope(), first.ID, "CASH")
	require.NoError(t, err)

	report, err := f.billing.BillingList(ctx, BillingQuery{Scope: f.scope()})
	require.NoError(t, err)
	assert.Equal(t, 2, report.Summary.Count)
	assert.Equal(t, models.Money(31500), report.Summary.Billed)
	assert.Equal(t, models.Money(15750), report.Summary.Paid)
	assert.Equal(t, models.Money(15750), report.Summary.Outstanding)

	unpaid := false
	report, err = f.billing.BillingList(ctx, BillingQuery{Scope: f.scope(), Paid: &unpaid})
	require.NoError(t, err)
	require.Len(t, report.Stays, 1)
	assert.Equal(t, "102", report.Stays[0].RoomNumber)
}

func TestHistory_DefaultsToToday(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	g := f.guest(t, f.room, "")

	_, err := f.requests.CreateServiceRequest(ctx, g, f.towels.ID, "")
	require.NoError(t, err)
	_, err = f.carts.AddItem(ctx, g, f.tea.ID, 1)
	require.NoError(t, err)
	_, err = f.requests.SubmitOrder(ctx, g, "")
	require.NoError(t, err)

	reqs, err := f.requests.History(ctx, HistoryQuery{Scope: f.scope()})
	require.NoError(t, err)
	assert.Len(t, reqs, 2)

	reqs, err = f.requests.History(ctx, HistoryQuery{Scope: f.scope(), Kind: "service"})
	require.NoError(t, err)
	require.Len(t, reqs, 1)
	assert.Equal(t, models.KindService, reqs[0].Kind)

	f.requests.now = func() time.Time { return time.Now().Add(48 * time.Hour) }
	reqs, err = f.requests.History(ctx, HistoryQuery{Scope: f.scope()})
	require.NoError(t, err)
	assert.Empty(t, reqs)

	yesterday := time.Now().Add(-24 * time.Hour)
	reqs, err = f.requests.History(ctx, HistoryQuery{Scope: f.scope(), From: &yesterday})
	require.NoError(t, err)
	assert.Len(t, reqs, 2)
}

func TestDateRange_InclusiveDays(t *testing.T) {
	loc := time.FixedZone("IST", 5*3600+1800)
	day := time.Date(2024, 3, 10, 15, 0, 0, 0, loc)

	from, to := DateRange(&day, &day, loc)
	require.NotNil(t, from)
	require.NotNil(t, to)
	assert.True(t, from.Equal(time.Date(2024, 3, 10, 0, 0, 0, 0, loc)))
	assert.True(t, to.Equal(time.Date(2024, 3, 11, 0, 0, 0, 0, loc)))

	from, to = DateRange(nil, nil, loc)
	assert.Nil(t, from)
	assert.Nil(t, to)
}
