package daterange

import (
	"errors"
	"time"
)

var ErrReversedRange = errors.New("daterange: stay cannot end before it starts")

// StayRange is an inclusive calendar interval [Start, End]. Both endpoints
// are normalized to midnight UTC; a same-day stay (Start == End) is valid.
type StayRange struct {
	Start time.Time
	End   time.Time
}

// New builds a StayRange, truncating both endpoints to calendar days.
func New(start, end time.Time) (StayRange, error) {
	r := StayRange{Start: Midnight(start), End: Midnight(end)}
	if err := r.Validate(); err != nil {
		return StayRange{}, err
	}
	return r, nil
}

// At returns the degenerate single-day range for the provided date.
func At(day time.Time) StayRange {
	d := Midnight(day)
	return StayRange{Start: d, End: d}
}

// Midnight truncates a timestamp to its UTC calendar day.
func Midnight(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

func (r StayRange) Validate() error {
	if r.Start.IsZero() || r.End.IsZero() {
		return ErrReversedRange
	}
	if r.End.Before(r.Start) {
		return ErrReversedRange
	}
	return nil
}

// Nights counts whole calendar days between Start and End. A reversed range
// reads as zero nights rather than a negative count.
func (r StayRange) Nights() int {
	start := Midnight(r.Start)
	end := Midnight(r.End)
	if end.Before(start) {
		return 0
	}
	return int(end.Sub(start).Hours() / 24)
}

// Days expands the range into every covered calendar day, ascending and
// inclusive of both endpoints. A reversed range yields nothing.
func (r StayRange) Days() []time.Time {
	start := Midnight(r.Start)
	end := Midnight(r.End)
	if end.Before(start) {
		return nil
	}
	days := make([]time.Time, 0, r.Nights()+1)
	for day := start; !day.After(end); day = day.AddDate(0, 0, 1) {
		days = append(days, day)
	}
	return days
}

// Overlaps reports whether two inclusive ranges share at least one day.
func (r StayRange) Overlaps(other StayRange) bool {
	return !r.End.Before(other.Start) && !other.End.Before(r.Start)
}

// ContainsDate reports whether the provided date falls inside the range.
func (r StayRange) ContainsDate(t time.Time) bool {
	day := Midnight(t)
	return !day.Before(r.Start) && !day.After(r.End)
}

func (r StayRange) Equal(other StayRange) bool {
	return r.Start.Equal(other.Start) && r.End.Equal(other.End)
}
