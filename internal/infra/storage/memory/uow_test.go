package memory

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"staybook/internal/app/uow"
)

func TestFactorySerializesWritingUnits(t *testing.T) {
	factory := &Factory{
		ListingsRepo:     NewListingRepository(),
		ReservationsRepo: NewReservationRepository(),
	}

	first, err := factory.Begin(context.Background(), uow.TxOptions{})
	require.NoError(t, err)

	second := make(chan uow.UnitOfWork)
	go func() {
		unit, err := factory.Begin(context.Background(), uow.TxOptions{})
		require.NoError(t, err)
		second <- unit
	}()

	select {
	case <-second:
		t.Fatal("second unit began while the first was still open")
	case <-time.After(50 * time.Millisecond):
	}

	require.NoError(t, first.Commit(context.Background()))

	select {
	case unit := <-second:
		require.NoError(t, unit.Rollback(context.Background()))
	case <-time.After(time.Second):
		t.Fatal("second unit never began after the first committed")
	}
}

func TestFactoryAllowsConcurrentReadOnlyUnits(t *testing.T) {
	factory := &Factory{
		ListingsRepo:     NewListingRepository(),
		ReservationsRepo: NewReservationRepository(),
	}

	first, err := factory.Begin(context.Background(), uow.TxOptions{ReadOnly: true})
	require.NoError(t, err)
	second, err := factory.Begin(context.Background(), uow.TxOptions{ReadOnly: true})
	require.NoError(t, err)

	require.NoError(t, first.Rollback(context.Background()))
	require.NoError(t, second.Rollback(context.Background()))
}

func TestUnitReleaseIsIdempotent(t *testing.T) {
	factory := &Factory{
		ListingsRepo:     NewListingRepository(),
		ReservationsRepo: NewReservationRepository(),
	}

	unit, err := factory.Begin(context.Background(), uow.TxOptions{})
	require.NoError(t, err)
	require.NoError(t, unit.Commit(context.Background()))
	require.NoError(t, unit.Rollback(context.Background()))

	next, err := factory.Begin(context.Background(), uow.TxOptions{})
	require.NoError(t, err)
	require.NoError(t, next.Rollback(context.Background()))
}
