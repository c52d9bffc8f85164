package dto

import (
	"time"

	domainlisting "staybook/internal/domain/listing"
	domainreservation "staybook/internal/domain/reservation"
)

type TripListingSnapshot struct {
	ID            string `json:"id"`
	Title         string `json:"title"`
	ImageURL      string `json:"image_url"`
	Category      string `json:"category"`
	LocationValue string `json:"location_value"`
}

type TripSummary struct {
	ID        string              `json:"id"`
	Listing   TripListingSnapshot `json:"listing"`
	StartDate time.Time           `json:"start_date"`
	EndDate   time.Time           `json:"end_date"`
	Status    string              `json:"status"`
	Total     MoneyDTO            `json:"total"`
	CreatedAt time.Time           `json:"created_at"`
}

type TripCollection struct {
	Items []TripSummary `json:"items"`
}

func MapTripSummary(res *domainreservation.Reservation, l *domainlisting.Listing) TripSummary {
	if res == nil {
		return TripSummary{}
	}
	snapshot := TripListingSnapshot{ID: string(res.ListingID)}
	if l != nil {
		snapshot = TripListingSnapshot{
			ID:            string(l.ID),
			Title:         l.Title,
			ImageURL:      l.ImageURL,
			Category:      l.Category,
			LocationValue: l.LocationValue,
		}
	}
	return TripSummary{
		ID:        string(res.ID),
		Listing:   snapshot,
		StartDate: res.Stay.Start,
		EndDate:   res.Stay.End,
		Status:    string(res.Status),
		Total:     MapMoney(res.Total),
		CreatedAt: res.CreatedAt,
	}
}
