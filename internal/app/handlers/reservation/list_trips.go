package reservation

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"staybook/internal/app/dto"
	"staybook/internal/app/queries"
	"staybook/internal/app/uow"
	domainlisting "staybook/internal/domain/listing"
)

const listTripsKey = "reservation.trips.list"

type ListTripsQuery struct {
	GuestID string
}

func (q ListTripsQuery) Key() string { return listTripsKey }

type ListTripsHandler struct {
	UoWFactory uow.UoWFactory
	Logger     *slog.Logger
}

func (h *ListTripsHandler) Handle(ctx context.Context, q ListTripsQuery) (dto.TripCollection, error) {
	guestID := strings.TrimSpace(q.GuestID)
	if guestID == "" {
		return dto.TripCollection{}, errors.New("guest id is required")
	}
	unit, ok := uow.FromContext(ctx)
	if !ok {
		if h.UoWFactory == nil {
			return dto.TripCollection{}, uow.ErrUnitOfWorkMissing
		}
		var err error
		unit, err = h.UoWFactory.Begin(ctx, uow.TxOptions{ReadOnly: true})
		if err != nil {
			return dto.TripCollection{}, err
		}
		ctx = uow.ContextWithUnitOfWork(ctx, unit)
		defer unit.Rollback(ctx)
	}

	reservations, err := unit.Reservations().ByGuest(ctx, guestID)
	if err != nil {
		return dto.TripCollection{}, err
	}

	listingCache := make(map[domainlisting.ListingID]*domainlisting.Listing)
	items := make([]dto.TripSummary, 0, len(reservations))
	for _, res := range reservations {
		snapshot, ok := listingCache[res.ListingID]
		if !ok {
			snapshot, err = unit.Listings().ByID(ctx, res.ListingID)
			if err != nil {
				if h.Logger != nil {
					h.Logger.Warn("listing snapshot missing for trip", "reservation_id", res.ID, "listing_id", res.ListingID, "error", err)
				}
				snapshot = nil
			}
			listingCache[res.ListingID] = snapshot
		}
		items = append(items, dto.MapTripSummary(res, snapshot))
	}

	if h.Logger != nil {
		h.Logger.Debug("trips listed", "guest_id", guestID, "count", len(items))
	}

	return dto.TripCollection{Items: items}, nil
}

var _ queries.Handler[ListTripsQuery, dto.TripCollection] = (*ListTripsHandler)(nil)
