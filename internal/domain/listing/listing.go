package listing

import (
	"context"
	"errors"
	"strings"
	"time"

	"staybook/internal/domain/shared/money"
)

var (
	ErrIDRequired      = errors.New("listing: id is required")
	ErrHostRequired    = errors.New("listing: host is required")
	ErrTitleRequired   = errors.New("listing: title is required")
	ErrNightlyRate     = errors.New("listing: nightly rate must be positive")
	ErrInvalidCounts   = errors.New("listing: room, guest and bathroom counts must be at least 1")
	ErrListingNotFound = errors.New("listing: not found")
)

type ListingID string
type HostID string

// Listing is a rentable unit with a per-night price. The booking workflow
// treats it as read-only input; only hosts mutate it.
type Listing struct {
	ID            ListingID
	Host          HostID
	Title         string
	Description   string
	ImageURL      string
	Category      string
	LocationValue string
	RoomCount     int
	GuestCount    int
	BathroomCount int
	NightlyRate   money.Money
	CreatedAt     time.Time
	UpdatedAt     time.Time
	Version       int64
}

type Repository interface {
	ByID(ctx context.Context, id ListingID) (*Listing, error)
	Save(ctx context.Context, listing *Listing) error
}

type CreateParams struct {
	ID            ListingID
	Host          HostID
	Title         string
	Description   string
	ImageURL      string
	Category      string
	LocationValue string
	RoomCount     int
	GuestCount    int
	BathroomCount int
	NightlyRate   money.Money
	Now           time.Time
}

func NewListing(params CreateParams) (*Listing, error) {
	if strings.TrimSpace(string(params.ID)) == "" {
		return nil, ErrIDRequired
	}
	if strings.TrimSpace(string(params.Host)) == "" {
		return nil, ErrHostRequired
	}
	if strings.TrimSpace(params.Title) == "" {
		return nil, ErrTitleRequired
	}
	if params.NightlyRate.Amount <= 0 || params.NightlyRate.Currency == "" {
		return nil, ErrNightlyRate
	}
	if params.RoomCount < 1 || params.GuestCount < 1 || params.BathroomCount < 1 {
		return nil, ErrInvalidCounts
	}
	now := params.Now.UTC()
	if now.IsZero() {
		now = time.Now().UTC()
	}
	return &Listing{
		ID:            params.ID,
		Host:          params.Host,
		Title:         strings.TrimSpace(params.Title),
		Description:   params.Description,
		ImageURL:      params.ImageURL,
		Category:      params.Category,
		LocationValue: params.LocationValue,
		RoomCount:     params.RoomCount,
		GuestCount:    params.GuestCount,
		BathroomCount: params.BathroomCount,
		NightlyRate:   params.NightlyRate,
		CreatedAt:     now,
		UpdatedAt:     now,
	}, nil
}
