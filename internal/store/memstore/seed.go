package memstore

import (
	"time"

	"hotel-portal/internal/models"
)

// AddHotel inserts a hotel, defaulting status to ACTIVE
func (s *Store) AddHotel(h models.Hotel) models.Hotel {
	s.mu.Lock()
	defer s.mu.Unlock()

	h.ID = s.st.nextID()
	if h.Status == "" {
		h.Status = models.HotelStatusActive
	}
	if h.CreatedAt.IsZero() {
		h.CreatedAt = time.Now()
	}
	s.st.hotels[h.ID] = h
	return h
}

// AddRoom inserts an active FREE room
func (s *Store) AddRoom(hotelID int64, number, floor string) models.Room {
	s.mu.Lock()
	defer s.mu.Unlock()

	r := models.Room{
		ID:       s.st.nextID(),
		HotelID:  hotelID,
		Number:   number,
		Floor:    floor,
		IsActive: true,
		Status:   models.RoomStatusFree,
	}
	s.st.rooms[r.ID] = r
	return r
}

// AddCategory inserts an active category
func (s *Store) AddCategory(hotelID int64, name, kind string) models.Category {
	s.mu.Lock()
	defer s.mu.Unlock()

	c := models.Category{
		ID:       s.st.nextID(),
		HotelID:  hotelID,
		Name:     name,
		Kind:     kind,
		Position: len(s.st.categories),
		IsActive: true,
	}
	s.st.categories[c.ID] = c
	return c
}

// AddItem inserts an available item
func (s *Store) AddItem(cat models.Category, name string, price models.Money) models.Item {
	s.mu.Lock()
	defer s.mu.Unlock()

	it := models.Item{
		ID:           s.st.nextID(),
		HotelID:      cat.HotelID,
		CategoryID:   cat.ID,
		Name:         name,
		Price:        price,
		IsAvailable:  true,
		Position:     len(s.st.items),
		CategoryKind: cat.Kind,
	}
	s.st.items[it.ID] = it
	return it
}

// SetItemPrice changes the catalog price of an item
func (s *Store) SetItemPrice(itemID int64, price models.Money) {
	s.mu.Lock()
	defer s.mu.Unlock()

	it := s.st.items[itemID]
	it.Price = price
	s.st.items[itemID] = it
}

// SetItemAvailable toggles whether an item can be ordered
func (s *Store) SetItemAvailable(itemID int64, available bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	it := s.st.items[itemID]
	it.IsAvailable = available
	s.st.items[itemID] = it
}

// SetHotel overwrites a hotel row
func (s *Store) SetHotel(h models.Hotel) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.st.hotels[h.ID] = h
}

// SetBillingSettings overwrites the billing settings of a hotel
func (s *Store) SetBillingSettings(bs models.BillingSettings) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.st.billing[bs.HotelID] = bs
}

// SeedDemo loads one hotel with rooms and a small menu for local runs
func (s *Store) SeedDemo() models.Hotel {
	h := s.AddHotel(models.Hotel{Name: "Demo Hotel", StaffGroupCode: "DEMO"})
	for _, n := range []struct{ number, floor string }{
		{"101", "1"}, {"102", "1"}, {"103", "1"}, {"201", "2"}, {"202", "2"},
	} {
		s.AddRoom(h.ID, n.number, n.floor)
	}

	food := s.AddCategory(h.ID, "Food", models.KindFood)
	s.AddItem(food, "Masala Tea", 5000)
	s.AddItem(food, "Veg Sandwich", 12000)
	s.AddItem(food, "Paneer Thali", 25000)

	svc := s.AddCategory(h.ID, "Services", models.KindService)
	s.AddItem(svc, "Extra Towels", 0)
	s.AddItem(svc, "Room Cleaning", 0)
	s.AddItem(svc, "Laundry Pickup", 15000)

	s.SetBillingSettings(models.BillingSettings{
		HotelID:        h.ID,
		GSTPercentBP:   500,
		InvoicePrefix:  "DEMO",
		NextInvoiceSeq: 1,
	})
	return h
}
