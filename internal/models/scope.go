package models

// Scope limits reads and writes to one hotel; the zero value covers every hotel
type Scope struct {
	HotelID int64
}

// HotelScope returns a scope for a single hotel
func HotelScope(hotelID int64) Scope {
	return Scope{HotelID: hotelID}
}

// AllHotels is the platform-wide scope
func AllHotels() Scope {
	return Scope{}
}

// Global reports whether the scope spans every hotel
func (s Scope) Global() bool {
	return s.HotelID == 0
}

// Allows reports whether a row of hotelID is visible in the scope
func (s Scope) Allows(hotelID int64) bool {
	return s.Global() || s.HotelID == hotelID
}
