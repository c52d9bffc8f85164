package dto

import (
	"time"

	"staybook/internal/domain/availability"
)

// BookedDates carries the calendar days a listing cannot be booked for; the
// selection UI disables exactly these days.
type BookedDates struct {
	ListingID string      `json:"listing_id"`
	Dates     []time.Time `json:"dates"`
}

func MapBookedDates(listingID string, set availability.DateSet) BookedDates {
	return BookedDates{
		ListingID: listingID,
		Dates:     set.Dates(),
	}
}
