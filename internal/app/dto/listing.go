package dto

import (
	"time"

	domainlisting "staybook/internal/domain/listing"
	"staybook/internal/domain/shared/money"
)

type MoneyDTO struct {
	Amount   int64  `json:"amount"`
	Currency string `json:"currency"`
}

func MapMoney(m money.Money) MoneyDTO {
	return MoneyDTO{Amount: m.Amount, Currency: m.Currency}
}

type ListingDetail struct {
	ID            string    `json:"id"`
	HostID        string    `json:"host_id"`
	Title         string    `json:"title"`
	Description   string    `json:"description"`
	ImageURL      string    `json:"image_url"`
	Category      string    `json:"category"`
	LocationValue string    `json:"location_value"`
	RoomCount     int       `json:"room_count"`
	GuestCount    int       `json:"guest_count"`
	BathroomCount int       `json:"bathroom_count"`
	NightlyRate   MoneyDTO  `json:"nightly_rate"`
	CreatedAt     time.Time `json:"created_at"`
}

func MapListingDetail(l *domainlisting.Listing) ListingDetail {
	if l == nil {
		return ListingDetail{}
	}
	return ListingDetail{
		ID:            string(l.ID),
		HostID:        string(l.Host),
		Title:         l.Title,
		Description:   l.Description,
		ImageURL:      l.ImageURL,
		Category:      l.Category,
		LocationValue: l.LocationValue,
		RoomCount:     l.RoomCount,
		GuestCount:    l.GuestCount,
		BathroomCount: l.BathroomCount,
		NightlyRate:   MapMoney(l.NightlyRate),
		CreatedAt:     l.CreatedAt,
	}
}
