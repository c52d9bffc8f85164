package reservation

import (
	"context"
	"errors"
	"strings"
	"time"

	"staybook/internal/domain/listing"
	"staybook/internal/domain/pricing"
	"staybook/internal/domain/shared/daterange"
	"staybook/internal/domain/shared/events"
	"staybook/internal/domain/shared/money"
)

var (
	ErrGuestRequired   = errors.New("reservation: guest id is required")
	ErrListingRequired = errors.New("reservation: listing id is required")
	ErrTotalMismatch   = errors.New("reservation: total does not match the quoted price")
	ErrInvalidState    = errors.New("reservation: invalid state transition")
	ErrNotFound        = errors.New("reservation: not found")
)

type ReservationID string

type Status string

const (
	StatusActive    Status = "ACTIVE"
	StatusCancelled Status = "CANCELLED"
)

// Reservation is a persisted booking of a listing for an inclusive stay
// range at a fixed total price. The total is set at creation and never
// recomputed afterwards.
type Reservation struct {
	ID        ReservationID
	ListingID listing.ListingID
	GuestID   string
	Stay      daterange.StayRange
	Total     money.Money
	Status    Status
	CreatedAt time.Time
	UpdatedAt time.Time
	Version   int64
	events.EventRecorder
}

type Repository interface {
	ByID(ctx context.Context, id ReservationID) (*Reservation, error)
	// ByListing returns the listing's active reservations ordered by stay start.
	ByListing(ctx context.Context, id listing.ListingID) ([]*Reservation, error)
	ByGuest(ctx context.Context, guestID string) ([]*Reservation, error)
	Save(ctx context.Context, r *Reservation) error
}

type CreateParams struct {
	ID          ReservationID
	ListingID   listing.ListingID
	GuestID     string
	Stay        daterange.StayRange
	Total       money.Money
	NightlyRate money.Money
	CreatedAt   time.Time
}

// NewReservation builds an active reservation, checking that the supplied
// total matches the authoritative quote for the stay. A client whose price
// math drifted is rejected rather than trusted.
func NewReservation(params CreateParams) (*Reservation, error) {
	if strings.TrimSpace(string(params.ID)) == "" {
		return nil, errors.New("reservation: id is required")
	}
	if strings.TrimSpace(string(params.ListingID)) == "" {
		return nil, ErrListingRequired
	}
	if strings.TrimSpace(params.GuestID) == "" {
		return nil, ErrGuestRequired
	}
	if err := params.Stay.Validate(); err != nil {
		return nil, err
	}
	quoted, err := pricing.Quote(params.NightlyRate, params.Stay)
	if err != nil {
		return nil, err
	}
	if !params.Total.Equal(quoted) {
		return nil, ErrTotalMismatch
	}
	now := params.CreatedAt.UTC()
	if now.IsZero() {
		now = time.Now().UTC()
	}
	r := &Reservation{
		ID:        params.ID,
		ListingID: params.ListingID,
		GuestID:   params.GuestID,
		Stay:      params.Stay,
		Total:     params.Total,
		Status:    StatusActive,
		CreatedAt: now,
		UpdatedAt: now,
	}
	r.Record(ReservationCreated{
		ReservationID: r.ID,
		ListingID:     r.ListingID,
		GuestID:       r.GuestID,
		Stay:          r.Stay,
		Total:         r.Total,
		At:            now,
	})
	return r, nil
}

// Active reports whether the reservation still blocks its stay dates.
func (r *Reservation) Active() bool {
	return r.Status == StatusActive
}

// Cancel releases the stay. Only an active reservation can be cancelled.
func (r *Reservation) Cancel(now time.Time) error {
	if r.Status != StatusActive {
		return ErrInvalidState
	}
	r.Status = StatusCancelled
	r.UpdatedAt = now.UTC()
	r.Record(ReservationCancelled{
		ReservationID: r.ID,
		ListingID:     r.ListingID,
		Stay:          r.Stay,
		At:            r.UpdatedAt,
	})
	return nil
}
