package daterange_test

import (
	"testing"
	"time"

	"staybook/internal/domain/shared/daterange"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestNew(t *testing.T) {
	t.Run("normalizes endpoints to midnight UTC", func(t *testing.T) {
		loc := time.FixedZone("UTC+3", 3*60*60)
		r, err := daterange.New(
			time.Date(2026, time.March, 10, 14, 30, 0, 0, loc),
			time.Date(2026, time.March, 12, 9, 0, 0, 0, loc),
		)
		require.NoError(t, err)
		assert.Equal(t, date(2026, time.March, 10), r.Start)
		assert.Equal(t, date(2026, time.March, 12), r.End)
	})

	t.Run("same-day stay is valid", func(t *testing.T) {
		r, err := daterange.New(date(2026, time.March, 10), date(2026, time.March, 10))
		require.NoError(t, err)
		assert.Equal(t, 0, r.Nights())
	})

	t.Run("reversed range is rejected", func(t *testing.T) {
		_, err := daterange.New(date(2026, time.March, 12), date(2026, time.March, 10))
		assert.ErrorIs(t, err, daterange.ErrReversedRange)
	})

	t.Run("zero endpoints are rejected", func(t *testing.T) {
		_, err := daterange.New(time.Time{}, date(2026, time.March, 10))
		assert.ErrorIs(t, err, daterange.ErrReversedRange)
	})
}

func TestNights(t *testing.T) {
	cases := []struct {
		name  string
		start time.Time
		end   time.Time
		want  int
	}{
		{"same day", date(2026, time.January, 5), date(2026, time.January, 5), 0},
		{"one night", date(2026, time.January, 5), date(2026, time.January, 6), 1},
		{"three nights", date(2026, time.January, 5), date(2026, time.January, 8), 3},
		{"across month boundary", date(2026, time.January, 30), date(2026, time.February, 2), 3},
		{"across leap day", date(2028, time.February, 28), date(2028, time.March, 1), 2},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			r := daterange.StayRange{Start: tc.start, End: tc.end}
			assert.Equal(t, tc.want, r.Nights())
		})
	}

	t.Run("reversed range reads as zero nights", func(t *testing.T) {
		r := daterange.StayRange{Start: date(2026, time.January, 8), End: date(2026, time.January, 5)}
		assert.Equal(t, 0, r.Nights())
	})
}

func TestDays(t *testing.T) {
	t.Run("inclusive ascending expansion", func(t *testing.T) {
		r := daterange.StayRange{Start: date(2026, time.January, 1), End: date(2026, time.January, 3)}
		days := r.Days()
		require.Len(t, days, 3)
		assert.Equal(t, date(2026, time.January, 1), days[0])
		assert.Equal(t, date(2026, time.January, 2), days[1])
		assert.Equal(t, date(2026, time.January, 3), days[2])
	})

	t.Run("day count matches nights plus one", func(t *testing.T) {
		r := daterange.StayRange{Start: date(2026, time.June, 10), End: date(2026, time.June, 17)}
		assert.Len(t, r.Days(), r.Nights()+1)
	})

	t.Run("same-day range yields a single day", func(t *testing.T) {
		r := daterange.At(date(2026, time.June, 10))
		require.Len(t, r.Days(), 1)
		assert.Equal(t, date(2026, time.June, 10), r.Days()[0])
	})

	t.Run("reversed range yields nothing", func(t *testing.T) {
		r := daterange.StayRange{Start: date(2026, time.June, 17), End: date(2026, time.June, 10)}
		assert.Empty(t, r.Days())
	})
}

func TestOverlaps(t *testing.T) {
	base := daterange.StayRange{Start: date(2026, time.May, 10), End: date(2026, time.May, 15)}
	cases := []struct {
		name  string
		other daterange.StayRange
		want  bool
	}{
		{"identical", base, true},
		{"contained", daterange.StayRange{Start: date(2026, time.May, 11), End: date(2026, time.May, 12)}, true},
		{"shared endpoint day", daterange.StayRange{Start: date(2026, time.May, 15), End: date(2026, time.May, 20)}, true},
		{"day before", daterange.StayRange{Start: date(2026, time.May, 5), End: date(2026, time.May, 9)}, false},
		{"day after", daterange.StayRange{Start: date(2026, time.May, 16), End: date(2026, time.May, 20)}, false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, base.Overlaps(tc.other))
			assert.Equal(t, tc.want, tc.other.Overlaps(base))
		})
	}
}

func TestContainsDate(t *testing.T) {
	r := daterange.StayRange{Start: date(2026, time.May, 10), End: date(2026, time.May, 12)}
	assert.True(t, r.ContainsDate(date(2026, time.May, 10)))
	assert.True(t, r.ContainsDate(time.Date(2026, time.May, 11, 18, 45, 0, 0, time.UTC)))
	assert.True(t, r.ContainsDate(date(2026, time.May, 12)))
	assert.False(t, r.ContainsDate(date(2026, time.May, 13)))
	assert.False(t, r.ContainsDate(date(2026, time.May, 9)))
}
