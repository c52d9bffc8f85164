package availability

import (
	"sort"
	"time"

	"staybook/internal/domain/reservation"
	"staybook/internal/domain/shared/daterange"
)

// DateSet is a set of calendar days (midnight UTC keyed).
type DateSet map[time.Time]struct{}

func (s DateSet) Contains(day time.Time) bool {
	_, ok := s[daterange.Midnight(day)]
	return ok
}

func (s DateSet) Len() int {
	return len(s)
}

// Dates returns the members in ascending order.
func (s DateSet) Dates() []time.Time {
	out := make([]time.Time, 0, len(s))
	for day := range s {
		out = append(out, day)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Before(out[j]) })
	return out
}

// BookedDates derives the calendar days a listing cannot be booked for from
// its existing reservations. Cancelled reservations release their dates.
// The derivation is a pure recomputation: the same reservation list always
// yields the same set, and days covered by overlapping reservations appear
// once.
func BookedDates(reservations []*reservation.Reservation) DateSet {
	set := make(DateSet)
	for _, res := range reservations {
		if res == nil || !res.Active() {
			continue
		}
		for _, day := range res.Stay.Days() {
			set[day] = struct{}{}
		}
	}
	return set
}

// Conflicts reports whether a candidate stay overlaps any active
// reservation. The create-reservation command runs this inside its unit of
// work so a stale client calendar cannot double-book a listing.
func Conflicts(reservations []*reservation.Reservation, candidate daterange.StayRange) bool {
	for _, res := range reservations {
		if res == nil || !res.Active() {
			continue
		}
		if res.Stay.Overlaps(candidate) {
			return true
		}
	}
	return false
}
