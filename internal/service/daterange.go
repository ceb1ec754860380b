package service

import (
	"time"

	"hotel-portal/internal/models"
)

// DateRange turns optional inclusive calendar days into a half-open instant range
func DateRange(from, to *time.Time, loc *time.Location) (*time.Time, *time.Time) {
	var start, end *time.Time
	if from != nil {
		s, _ := models.DayBounds(*from, loc)
		start = &s
	}
	if to != nil {
		_, e := models.DayBounds(*to, loc)
		end = &e
	}
	return start, end
}
