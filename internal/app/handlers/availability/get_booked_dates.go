package availability

import (
	"context"

	"staybook/internal/app/dto"
	"staybook/internal/app/queries"
	"staybook/internal/app/uow"
	domainavailability "staybook/internal/domain/availability"
	domainlisting "staybook/internal/domain/listing"
)

const getBookedDatesKey = "availability.booked_dates"

type GetBookedDatesQuery struct {
	ListingID string
}

func (q GetBookedDatesQuery) Key() string { return getBookedDatesKey }

type GetBookedDatesHandler struct {
	UoWFactory uow.UoWFactory
}

// Handle recomputes the listing's blocked calendar days from its current
// reservation list. Nothing is cached between invocations.
func (h *GetBookedDatesHandler) Handle(ctx context.Context, q GetBookedDatesQuery) (dto.BookedDates, error) {
	unit, ok := uow.FromContext(ctx)
	if !ok {
		if h.UoWFactory == nil {
			return dto.BookedDates{}, uow.ErrUnitOfWorkMissing
		}
		var err error
		unit, err = h.UoWFactory.Begin(ctx, uow.TxOptions{ReadOnly: true})
		if err != nil {
			return dto.BookedDates{}, err
		}
		ctx = uow.ContextWithUnitOfWork(ctx, unit)
		defer unit.Rollback(ctx)
	}

	reservations, err := unit.Reservations().ByListing(ctx, domainlisting.ListingID(q.ListingID))
	if err != nil {
		return dto.BookedDates{}, err
	}

	set := domainavailability.BookedDates(reservations)
	return dto.MapBookedDates(q.ListingID, set), nil
}

var _ queries.Handler[GetBookedDatesQuery, dto.BookedDates] = (*GetBookedDatesHandler)(nil)
