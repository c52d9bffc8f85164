package availability_test

import (
	"testing"
	"time"

	"staybook/internal/domain/availability"
	"staybook/internal/domain/listing"
	"staybook/internal/domain/reservation"
	"staybook/internal/domain/shared/daterange"
	"staybook/internal/domain/shared/money"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func day(d int) time.Time {
	return time.Date(2026, time.January, d, 0, 0, 0, 0, time.UTC)
}

func makeReservation(t *testing.T, id string, start, end int) *reservation.Reservation {
	t.Helper()
	stay, err := daterange.New(day(start), day(end))
	require.NoError(t, err)
	rate := money.Must(100, "USD")
	total, err := money.New(rate.Amount*int64(max(stay.Nights(), 1)), "USD")
	require.NoError(t, err)
	res, err := reservation.NewReservation(reservation.CreateParams{
		ID:          reservation.ReservationID(id),
		ListingID:   listing.ListingID("lst-1"),
		GuestID:     "guest-1",
		Stay:        stay,
		Total:       total,
		NightlyRate: rate,
	})
	require.NoError(t, err)
	return res
}

func TestBookedDates(t *testing.T) {
	t.Run("jan 1-3 and jan 5 block four days, jan 4 stays open", func(t *testing.T) {
		set := availability.BookedDates([]*reservation.Reservation{
			makeReservation(t, "res-1", 1, 3),
			makeReservation(t, "res-2", 5, 5),
		})

		assert.Equal(t, 4, set.Len())
		for _, d := range []int{1, 2, 3, 5} {
			assert.True(t, set.Contains(day(d)), "jan %d should be blocked", d)
		}
		assert.False(t, set.Contains(day(4)))
		assert.Equal(t, []time.Time{day(1), day(2), day(3), day(5)}, set.Dates())
	})

	t.Run("every covered day of each reservation is a member", func(t *testing.T) {
		reservations := []*reservation.Reservation{
			makeReservation(t, "res-1", 2, 6),
			makeReservation(t, "res-2", 10, 12),
		}
		set := availability.BookedDates(reservations)
		for _, res := range reservations {
			for _, d := range res.Stay.Days() {
				assert.True(t, set.Contains(d))
			}
		}
	})

	t.Run("non-overlapping reservations sum their inclusive day counts", func(t *testing.T) {
		reservations := []*reservation.Reservation{
			makeReservation(t, "res-1", 1, 3),
			makeReservation(t, "res-2", 8, 8),
			makeReservation(t, "res-3", 15, 20),
		}
		want := 0
		for _, res := range reservations {
			want += res.Stay.Nights() + 1
		}
		assert.Equal(t, want, availability.BookedDates(reservations).Len())
	})

	t.Run("overlapping reservations count shared days once", func(t *testing.T) {
		set := availability.BookedDates([]*reservation.Reservation{
			makeReservation(t, "res-1", 1, 5),
			makeReservation(t, "res-2", 4, 8),
		})
		assert.Equal(t, 8, set.Len())
	})

	t.Run("cancelled reservations release their dates", func(t *testing.T) {
		res := makeReservation(t, "res-1", 1, 3)
		require.NoError(t, res.Cancel(day(1)))
		set := availability.BookedDates([]*reservation.Reservation{res})
		assert.Equal(t, 0, set.Len())
	})

	t.Run("recomputation is stable for identical input", func(t *testing.T) {
		reservations := []*reservation.Reservation{makeReservation(t, "res-1", 1, 3)}
		first := availability.BookedDates(reservations)
		second := availability.BookedDates(reservations)
		assert.Equal(t, first.Dates(), second.Dates())
	})
}

func TestConflicts(t *testing.T) {
	reservations := []*reservation.Reservation{
		makeReservation(t, "res-1", 1, 3),
		makeReservation(t, "res-2", 5, 5),
	}

	overlapping, err := daterange.New(day(3), day(6))
	require.NoError(t, err)
	assert.True(t, availability.Conflicts(reservations, overlapping))

	free := daterange.At(day(4))
	assert.False(t, availability.Conflicts(reservations, free))

	cancelled := makeReservation(t, "res-3", 10, 12)
	require.NoError(t, cancelled.Cancel(day(1)))
	inCancelled, err := daterange.New(day(10), day(11))
	require.NoError(t, err)
	assert.False(t, availability.Conflicts([]*reservation.Reservation{cancelled}, inCancelled))
}
