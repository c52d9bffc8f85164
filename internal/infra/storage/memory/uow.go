package memory

import (
	"context"
	"errors"
	"sync"

	"staybook/internal/app/uow"
	domainlisting "staybook/internal/domain/listing"
	domainreservation "staybook/internal/domain/reservation"
)

var ErrFactoryMisconfigured = errors.New("memory: unit of work factory misconfigured")

// Factory wires in-memory repositories into a unit-of-work boundary.
// Writing units are mutually exclusive from Begin until Commit or Rollback,
// so a check made inside a unit stays valid for its own save. Read-only
// units share the lock.
type Factory struct {
	ListingsRepo     domainlisting.Repository
	ReservationsRepo domainreservation.Repository

	mu sync.RWMutex
}

// Begin acquires the unit boundary. The returned Unit must be finished with
// Commit or Rollback to release it.
func (f *Factory) Begin(ctx context.Context, opts uow.TxOptions) (uow.UnitOfWork, error) {
	if f.ListingsRepo == nil || f.ReservationsRepo == nil {
		return nil, ErrFactoryMisconfigured
	}
	release := f.lock(opts.ReadOnly)
	return &Unit{
		listings:     f.ListingsRepo,
		reservations: f.ReservationsRepo,
		release:      release,
	}, nil
}

func (f *Factory) lock(readOnly bool) func() {
	if readOnly {
		f.mu.RLock()
		return f.mu.RUnlock
	}
	f.mu.Lock()
	return f.mu.Unlock
}

// Unit is a uow.UnitOfWork backed by in-memory stores. It holds the factory
// lock until finished.
type Unit struct {
	listings     domainlisting.Repository
	reservations domainreservation.Repository

	release func()
	done    sync.Once
}

func (u *Unit) Listings() domainlisting.Repository {
	return u.listings
}

func (u *Unit) Reservations() domainreservation.Repository {
	return u.reservations
}

func (u *Unit) Commit(ctx context.Context) error {
	u.finish()
	return nil
}

func (u *Unit) Rollback(ctx context.Context) error {
	u.finish()
	return nil
}

func (u *Unit) finish() {
	u.done.Do(u.release)
}

var _ uow.UoWFactory = (*Factory)(nil)
var _ uow.UnitOfWork = (*Unit)(nil)
