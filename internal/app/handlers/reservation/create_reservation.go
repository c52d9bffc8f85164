package reservation

import (
	"context"
	"errors"
	"time"

	"staybook/internal/app/commands"
	"staybook/internal/app/middleware"
	"staybook/internal/app/outbox"
	"staybook/internal/app/uow"
	"staybook/internal/domain/availability"
	domainlisting "staybook/internal/domain/listing"
	domainreservation "staybook/internal/domain/reservation"
	domainrange "staybook/internal/domain/shared/daterange"
	"staybook/internal/domain/shared/money"
)

const createReservationKey = "reservation.create"

var (
	ErrDatesUnavailable   = errors.New("reservation: requested dates are no longer available")
	ErrUnitOfWorkRequired = errors.New("reservation: unit of work required")
)

type CreateReservationCommand struct {
	CommandID       string
	ListingID       string
	GuestID         string
	StartDate       time.Time
	EndDate         time.Time
	QuotedTotal     money.Money
	IdempotencyKeyV string
}

func (c CreateReservationCommand) Key() string { return createReservationKey }

func (c CreateReservationCommand) IdempotencyKey() string { return c.IdempotencyKeyV }

func (c CreateReservationCommand) ResultPrototype() any { return &CreateReservationResult{} }

type CreateReservationResult struct {
	ReservationID string `json:"reservation_id"`
}

type CreateReservationHandler struct {
	UoWFactory uow.UoWFactory
	Outbox     outbox.Outbox
	Encoder    outbox.EventEncoder
}

// Handle persists a new reservation. The listing's booked dates are
// re-derived inside the unit of work so a client that selected from a
// stale calendar cannot double-book, and the quoted total must match the
// authoritative price for the stay.
func (h *CreateReservationHandler) Handle(ctx context.Context, cmd CreateReservationCommand) (*CreateReservationResult, error) {
	unit, ok := uow.FromContext(ctx)
	managed := false
	committed := false
	if !ok {
		if h.UoWFactory == nil {
			return nil, ErrUnitOfWorkRequired
		}
		var err error
		unit, err = h.UoWFactory.Begin(ctx, uow.TxOptions{})
		if err != nil {
			return nil, err
		}
		ctx = uow.ContextWithUnitOfWork(ctx, unit)
		managed = true
	}
	if managed {
		defer func() {
			if !committed {
				_ = unit.Rollback(ctx)
			}
		}()
	}

	stay, err := domainrange.New(cmd.StartDate, cmd.EndDate)
	if err != nil {
		return nil, err
	}

	listing, err := unit.Listings().ByID(ctx, domainlisting.ListingID(cmd.ListingID))
	if err != nil {
		return nil, err
	}

	existing, err := unit.Reservations().ByListing(ctx, listing.ID)
	if err != nil {
		return nil, err
	}
	if availability.Conflicts(existing, stay) {
		return nil, ErrDatesUnavailable
	}

	res, err := domainreservation.NewReservation(domainreservation.CreateParams{
		ID:          domainreservation.ReservationID(cmd.CommandID),
		ListingID:   listing.ID,
		GuestID:     cmd.GuestID,
		Stay:        stay,
		Total:       cmd.QuotedTotal,
		NightlyRate: listing.NightlyRate,
		CreatedAt:   time.Now().UTC(),
	})
	if err != nil {
		return nil, err
	}

	if err := unit.Reservations().Save(ctx, res); err != nil {
		return nil, err
	}

	pending := res.PendingEvents()
	res.ClearEvents()
	if err := outbox.RecordDomainEvents(ctx, h.Outbox, h.encoder(), pending); err != nil {
		return nil, err
	}

	if managed {
		if err := unit.Commit(ctx); err != nil {
			return nil, err
		}
		committed = true
	}

	return &CreateReservationResult{ReservationID: string(res.ID)}, nil
}

func (h *CreateReservationHandler) encoder() outbox.EventEncoder {
	if h.Encoder != nil {
		return h.Encoder
	}
	return outbox.JSONEventEncoder{}
}

var _ commands.Handler[CreateReservationCommand, *CreateReservationResult] = (*CreateReservationHandler)(nil)
var _ middleware.IdempotentCommand = (*CreateReservationCommand)(nil)
