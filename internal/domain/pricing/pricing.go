package pricing

import (
	"errors"

	"staybook/internal/domain/shared/daterange"
	"staybook/internal/domain/shared/money"
)

var ErrRateRequired = errors.New("pricing: nightly rate must be positive")

// Quote prices a stay: whole nights times the nightly rate. A degenerate
// same-day selection is charged one night — the minimum-charge policy the
// booking flow relies on. The result is recomputed on every call; nothing
// caches it.
func Quote(rate money.Money, stay daterange.StayRange) (money.Money, error) {
	if rate.Amount <= 0 || rate.Currency == "" {
		return money.Money{}, ErrRateRequired
	}
	nights := stay.Nights()
	if nights <= 0 {
		return rate, nil
	}
	return rate.Multiply(int64(nights)), nil
}
