// Package memstore is an in-process store.Repository. It backs the
// single-node demo mode and the service tests.
package memstore

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"

	"hotel-portal/internal/models"
	"hotel-portal/internal/store"
)

type state struct {
	seq        int64
	hotels     map[int64]models.Hotel
	rooms      map[int64]models.Room
	stays      map[int64]models.Stay
	categories map[int64]models.Category
	items      map[int64]models.Item
	carts      map[int64]models.Cart
	cartItems  map[int64]models.CartItem
	requests   map[int64]models.Request
	lines      map[int64]models.RequestLine
	billing    map[int64]models.BillingSettings
}

func newState() *state {
	return &state{
		hotels:     map[int64]models.Hotel{},
		rooms:      map[int64]models.Room{},
		stays:      map[int64]models.Stay{},
		categories: map[int64]models.Category{},
		items:      map[int64]models.Item{},
		carts:      map[int64]models.Cart{},
		cartItems:  map[int64]models.CartItem{},
		requests:   map[int64]models.Request{},
		lines:      map[int64]models.RequestLine{},
		billing:    map[int64]models.BillingSettings{},
	}
}

func cloneMap[K comparable, V any](m map[K]V) map[K]V {
	out := make(map[K]V, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

// clone copies every table. Rows are values, and pointer fields are only
// ever replaced, never written through, so a shallow row copy is enough.
func (st *state) clone() *state {
	return &state{
		seq:        st.seq,
		hotels:     cloneMap(st.hotels),
		rooms:      cloneMap(st.rooms),
		stays:      cloneMap(st.stays),
		categories: cloneMap(st.categories),
		items:      cloneMap(st.items),
		carts:      cloneMap(st.carts),
		cartItems:  cloneMap(st.cartItems),
		requests:   cloneMap(st.requests),
		lines:      cloneMap(st.lines),
		billing:    cloneMap(st.billing),
	}
}

func (st *state) nextID() int64 {
	st.seq++
	return st.seq
}

// Store is a mutex-guarded Repository. Transactions hold the mutex for their
// whole duration, which gives them the isolation of row locks.
type Store struct {
	view
	mu sync.Mutex
	st *state
}

var _ store.Repository = (*Store)(nil)

// New creates an empty store
func New() *Store {
	s := &Store{st: newState()}
	s.view = view{s: s}
	return s
}

// Atomic runs fn under the store lock and discards its writes on error
func (s *Store) Atomic(ctx context.Context, fn func(q store.Queries) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return err
	}
	backup := s.st.clone()
	if err := fn(&view{s: s, tx: true}); err != nil {
		s.st = backup
		return err
	}
	return nil
}

// Ping always succeeds
func (s *Store) Ping(ctx context.Context) error {
	return nil
}

// view implements store.Queries; inside Atomic the lock is already held
type view struct {
	s  *Store
	tx bool
}

func (v *view) lock() (*state, func()) {
	if v.tx {
		return v.s.st, func() {}
	}
	v.s.mu.Lock()
	return v.s.st, v.s.mu.Unlock
}

func notFound(what string, id int64) error {
	return fmt.Errorf("%s %d: %w", what, id, models.ErrNotFound)
}

func containsFold(s, sub string) bool {
	return strings.Contains(strings.ToLower(s), strings.ToLower(strings.TrimSpace(sub)))
}

func sameStay(a, b *int64) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return *a == *b
}

// GetHotel retrieves a hotel by ID
func (v *view) GetHotel(ctx context.Context, hotelID int64) (*models.Hotel, error) {
	st, unlock := v.lock()
	defer unlock()

	h, ok := st.hotels[hotelID]
	if !ok {
		return nil, notFound("hotel", hotelID)
	}
	return &h, nil
}

// ListCategories retrieves the active categories of a hotel
func (v *view) ListCategories(ctx context.Context, hotelID int64) ([]models.Category, error) {
	st, unlock := v.lock()
	defer unlock()

	out := []models.Category{}
	for _, c := range st.categories {
		if c.HotelID == hotelID && c.IsActive {
			out = append(out, c)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Position != out[j].Position {
			return out[i].Position < out[j].Position
		}
		return out[i].Name < out[j].Name
	})
	return out, nil
}

func (st *state) item(it models.Item) models.Item {
	it.CategoryKind = st.categories[it.CategoryID].Kind
	return it
}

// ListAvailableItems retrieves orderable items in active categories
func (v *view) ListAvailableItems(ctx context.Context, hotelID int64) ([]models.Item, error) {
	st, unlock := v.lock()
	defer unlock()

	out := []models.Item{}
	for _, it := range st.items {
		if it.HotelID != hotelID || !it.IsAvailable || !st.categories[it.CategoryID].IsActive {
			continue
		}
		out = append(out, st.item(it))
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Position != out[j].Position {
			return out[i].Position < out[j].Position
		}
		return out[i].Name < out[j].Name
	})
	return out, nil
}

// GetItem retrieves an item of the hotel regardless of availability
func (v *view) GetItem(ctx context.Context, hotelID, itemID int64) (*models.Item, error) {
	st, unlock := v.lock()
	defer unlock()

	it, ok := st.items[itemID]
	if !ok || it.HotelID != hotelID {
		return nil, notFound("item", itemID)
	}
	it = st.item(it)
	return &it, nil
}
