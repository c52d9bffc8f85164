package memory

import (
	"context"
	"sort"
	"strings"
	"sync"

	domainlisting "staybook/internal/domain/listing"
	domainreservation "staybook/internal/domain/reservation"
)

// ListingRepository is an in-memory listing store for local and test runs.
type ListingRepository struct {
	mu    sync.RWMutex
	items map[domainlisting.ListingID]*domainlisting.Listing
}

func NewListingRepository() *ListingRepository {
	return &ListingRepository{
		items: make(map[domainlisting.ListingID]*domainlisting.Listing),
	}
}

func (r *ListingRepository) ByID(ctx context.Context, id domainlisting.ListingID) (*domainlisting.Listing, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	listing, ok := r.items[id]
	if !ok {
		return nil, domainlisting.ErrListingNotFound
	}
	return cloneListing(listing), nil
}

func (r *ListingRepository) Save(ctx context.Context, listing *domainlisting.Listing) error {
	if listing == nil || strings.TrimSpace(string(listing.ID)) == "" {
		return domainlisting.ErrIDRequired
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	listing.Version++
	r.items[listing.ID] = cloneListing(listing)
	return nil
}

func cloneListing(l *domainlisting.Listing) *domainlisting.Listing {
	if l == nil {
		return nil
	}
	copied := *l
	return &copied
}

// ReservationRepository stores reservations in memory.
type ReservationRepository struct {
	mu    sync.RWMutex
	items map[domainreservation.ReservationID]*domainreservation.Reservation
}

func NewReservationRepository() *ReservationRepository {
	return &ReservationRepository{
		items: make(map[domainreservation.ReservationID]*domainreservation.Reservation),
	}
}

func (r *ReservationRepository) ByID(ctx context.Context, id domainreservation.ReservationID) (*domainreservation.Reservation, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	res, ok := r.items[id]
	if !ok {
		return nil, domainreservation.ErrNotFound
	}
	return cloneReservation(res), nil
}

// ByListing returns the listing's active reservations ordered by stay start.
func (r *ReservationRepository) ByListing(ctx context.Context, id domainlisting.ListingID) ([]*domainreservation.Reservation, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	matches := make([]*domainreservation.Reservation, 0)
	for _, res := range r.items {
		if res.ListingID == id && res.Active() {
			matches = append(matches, cloneReservation(res))
		}
	}
	sort.Slice(matches, func(i, j int) bool {
		return matches[i].Stay.Start.Before(matches[j].Stay.Start)
	})
	return matches, nil
}

func (r *ReservationRepository) ByGuest(ctx context.Context, guestID string) ([]*domainreservation.Reservation, error) {
	guestID = strings.TrimSpace(guestID)
	if guestID == "" {
		return nil, domainreservation.ErrGuestRequired
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	matches := make([]*domainreservation.Reservation, 0)
	for _, res := range r.items {
		if res.GuestID == guestID {
			matches = append(matches, cloneReservation(res))
		}
	}
	sort.Slice(matches, func(i, j int) bool {
		return matches[i].CreatedAt.After(matches[j].CreatedAt)
	})
	return matches, nil
}

func (r *ReservationRepository) Save(ctx context.Context, res *domainreservation.Reservation) error {
	if res == nil {
		return domainreservation.ErrNotFound
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	res.Version++
	r.items[res.ID] = cloneReservation(res)
	return nil
}

// cloneReservation copies the aggregate minus its pending events; stored
// snapshots never carry undelivered events.
func cloneReservation(res *domainreservation.Reservation) *domainreservation.Reservation {
	if res == nil {
		return nil
	}
	copied := *res
	copied.ClearEvents()
	return &copied
}

var _ domainlisting.Repository = (*ListingRepository)(nil)
var _ domainreservation.Repository = (*ReservationRepository)(nil)
