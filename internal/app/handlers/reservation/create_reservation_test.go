package reservation

import (
	"context"
	"errors"
	"strconv"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	domainlisting "staybook/internal/domain/listing"
	domainreservation "staybook/internal/domain/reservation"
	"staybook/internal/domain/shared/money"
	memorystore "staybook/internal/infra/storage/memory"
)

type createFixture struct {
	listings     *memorystore.ListingRepository
	reservations *memorystore.ReservationRepository
	outbox       *memorystore.Outbox
	factory      *memorystore.Factory
	handler      *CreateReservationHandler
	listing      *domainlisting.Listing
}

func newCreateFixture(t *testing.T) *createFixture {
	t.Helper()
	listings := memorystore.NewListingRepository()
	reservations := memorystore.NewReservationRepository()
	box := memorystore.NewOutbox()
	factory := &memorystore.Factory{
		ListingsRepo:     listings,
		ReservationsRepo: reservations,
	}

	listing, err := domainlisting.NewListing(domainlisting.CreateParams{
		ID:            "lst-1",
		Host:          "host-1",
		Title:         "Harbour loft",
		RoomCount:     2,
		GuestCount:    4,
		BathroomCount: 1,
		NightlyRate:   money.Must(100, "EUR"),
	})
	require.NoError(t, err)
	require.NoError(t, listings.Save(context.Background(), listing))

	return &createFixture{
		listings:     listings,
		reservations: reservations,
		outbox:       box,
		factory:      factory,
		handler: &CreateReservationHandler{
			UoWFactory: factory,
			Outbox:     box,
		},
		listing: listing,
	}
}

func day(d int) time.Time {
	return time.Date(2024, time.June, d, 0, 0, 0, 0, time.UTC)
}

func TestCreateReservationPersistsAndRecordsEvent(t *testing.T) {
	fx := newCreateFixture(t)

	result, err := fx.handler.Handle(context.Background(), CreateReservationCommand{
		CommandID:   "res-1",
		ListingID:   "lst-1",
		GuestID:     "guest-1",
		StartDate:   day(1),
		EndDate:     day(4),
		QuotedTotal: money.Must(300, "EUR"),
	})
	require.NoError(t, err)
	require.Equal(t, "res-1", result.ReservationID)

	stored, err := fx.reservations.ByID(context.Background(), "res-1")
	require.NoError(t, err)
	assert.Equal(t, domainreservation.StatusActive, stored.Status)
	assert.Equal(t, money.Must(300, "EUR"), stored.Total)

	require.NoError(t, fx.outbox.Flush(context.Background()))
	doc, err := fx.outbox.Claim(context.Background(), "w1")
	require.NoError(t, err)
	require.NotNil(t, doc)
	assert.Equal(t, "reservation.created", doc.Name)
	assert.Equal(t, "res-1", doc.Aggregate)
}

func TestCreateReservationRejectsOverlap(t *testing.T) {
	fx := newCreateFixture(t)

	_, err := fx.handler.Handle(context.Background(), CreateReservationCommand{
		CommandID:   "res-1",
		ListingID:   "lst-1",
		GuestID:     "guest-1",
		StartDate:   day(1),
		EndDate:     day(4),
		QuotedTotal: money.Must(300, "EUR"),
	})
	require.NoError(t, err)

	// Jun 4 is still covered by the first stay, so a stay starting there
	// must be refused even though the first one ends that day.
	_, err = fx.handler.Handle(context.Background(), CreateReservationCommand{
		CommandID:   "res-2",
		ListingID:   "lst-1",
		GuestID:     "guest-2",
		StartDate:   day(4),
		EndDate:     day(6),
		QuotedTotal: money.Must(200, "EUR"),
	})
	require.ErrorIs(t, err, ErrDatesUnavailable)

	_, err = fx.reservations.ByID(context.Background(), "res-2")
	require.ErrorIs(t, err, domainreservation.ErrNotFound)
}

// pausedReads widens the window between the availability read and the save
// so concurrent creates would interleave without the unit-of-work boundary.
type pausedReads struct {
	domainreservation.Repository
	pause time.Duration
}

func (r pausedReads) ByListing(ctx context.Context, id domainlisting.ListingID) ([]*domainreservation.Reservation, error) {
	existing, err := r.Repository.ByListing(ctx, id)
	time.Sleep(r.pause)
	return existing, err
}

func TestCreateReservationConcurrentOverlapBooksOnce(t *testing.T) {
	fx := newCreateFixture(t)
	handler := &CreateReservationHandler{
		UoWFactory: &memorystore.Factory{
			ListingsRepo: fx.listings,
			ReservationsRepo: pausedReads{
				Repository: fx.reservations,
				pause:      20 * time.Millisecond,
			},
		},
		Outbox: fx.outbox,
	}

	errs := make([]error, 2)
	var wg sync.WaitGroup
	for i := range errs {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = handler.Handle(context.Background(), CreateReservationCommand{
				CommandID:   "res-" + strconv.Itoa(i+1),
				ListingID:   "lst-1",
				GuestID:     "guest-" + strconv.Itoa(i+1),
				StartDate:   day(1),
				EndDate:     day(4),
				QuotedTotal: money.Must(300, "EUR"),
			})
		}(i)
	}
	wg.Wait()

	var booked, refused int
	for _, err := range errs {
		switch {
		case err == nil:
			booked++
		case errors.Is(err, ErrDatesUnavailable):
			refused++
		default:
			t.Fatalf("unexpected error: %v", err)
		}
	}
	assert.Equal(t, 1, booked)
	assert.Equal(t, 1, refused)

	active, err := fx.reservations.ByListing(context.Background(), "lst-1")
	require.NoError(t, err)
	require.Len(t, active, 1)
}

func TestCreateReservationAllowedAfterCancellation(t *testing.T) {
	fx := newCreateFixture(t)

	_, err := fx.handler.Handle(context.Background(), CreateReservationCommand{
		CommandID:   "res-1",
		ListingID:   "lst-1",
		GuestID:     "guest-1",
		StartDate:   day(1),
		EndDate:     day(4),
		QuotedTotal: money.Must(300, "EUR"),
	})
	require.NoError(t, err)

	cancel := &CancelReservationHandler{
		UoWFactory: fx.factory,
		Outbox:     fx.outbox,
	}
	cancelled, err := cancel.Handle(context.Background(), CancelReservationCommand{
		ReservationID: "res-1",
		GuestID:       "guest-1",
	})
	require.NoError(t, err)
	assert.Equal(t, string(domainreservation.StatusCancelled), cancelled.Status)

	_, err = fx.handler.Handle(context.Background(), CreateReservationCommand{
		CommandID:   "res-2",
		ListingID:   "lst-1",
		GuestID:     "guest-2",
		StartDate:   day(2),
		EndDate:     day(3),
		QuotedTotal: money.Must(100, "EUR"),
	})
	require.NoError(t, err)
}

func TestCreateReservationRejectsDriftedTotal(t *testing.T) {
	fx := newCreateFixture(t)

	_, err := fx.handler.Handle(context.Background(), CreateReservationCommand{
		CommandID:   "res-1",
		ListingID:   "lst-1",
		GuestID:     "guest-1",
		StartDate:   day(1),
		EndDate:     day(4),
		QuotedTotal: money.Must(250, "EUR"),
	})
	require.ErrorIs(t, err, domainreservation.ErrTotalMismatch)
}

func TestCreateReservationUnknownListing(t *testing.T) {
	fx := newCreateFixture(t)

	_, err := fx.handler.Handle(context.Background(), CreateReservationCommand{
		CommandID:   "res-1",
		ListingID:   "lst-missing",
		GuestID:     "guest-1",
		StartDate:   day(1),
		EndDate:     day(2),
		QuotedTotal: money.Must(100, "EUR"),
	})
	require.ErrorIs(t, err, domainlisting.ErrListingNotFound)
}

func TestCancelReservationRequiresOwnership(t *testing.T) {
	fx := newCreateFixture(t)

	_, err := fx.handler.Handle(context.Background(), CreateReservationCommand{
		CommandID:   "res-1",
		ListingID:   "lst-1",
		GuestID:     "guest-1",
		StartDate:   day(1),
		EndDate:     day(3),
		QuotedTotal: money.Must(200, "EUR"),
	})
	require.NoError(t, err)

	cancel := &CancelReservationHandler{
		UoWFactory: fx.factory,
		Outbox:     fx.outbox,
	}
	_, err = cancel.Handle(context.Background(), CancelReservationCommand{
		ReservationID: "res-1",
		GuestID:       "guest-2",
	})
	require.ErrorIs(t, err, ErrNotReservationOwner)
}
