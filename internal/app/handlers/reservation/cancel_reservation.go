package reservation

import (
	"context"
	"errors"
	"time"

	"staybook/internal/app/commands"
	"staybook/internal/app/outbox"
	"staybook/internal/app/uow"
	domainreservation "staybook/internal/domain/reservation"
)

const cancelReservationKey = "reservation.cancel"

var ErrNotReservationOwner = errors.New("reservation: only the booking guest can cancel")

type CancelReservationCommand struct {
	ReservationID string
	GuestID       string
}

func (c CancelReservationCommand) Key() string { return cancelReservationKey }

type CancelReservationResult struct {
	ReservationID string `json:"reservation_id"`
	Status        string `json:"status"`
}

type CancelReservationHandler struct {
	UoWFactory uow.UoWFactory
	Outbox     outbox.Outbox
	Encoder    outbox.EventEncoder
}

func (h *CancelReservationHandler) Handle(ctx context.Context, cmd CancelReservationCommand) (*CancelReservationResult, error) {
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

	res, err := unit.Reservations().ByID(ctx, domainreservation.ReservationID(cmd.ReservationID))
	if err != nil {
		return nil, err
	}
	if res.GuestID != cmd.GuestID {
		return nil, ErrNotReservationOwner
	}
	if err := res.Cancel(time.Now().UTC()); err != nil {
		return nil, err
	}
	if err := unit.Reservations().Save(ctx, res); err != nil {
		return nil, err
	}

	pending := res.PendingEvents()
	res.ClearEvents()
	encoder := h.Encoder
	if encoder == nil {
		encoder = outbox.JSONEventEncoder{}
	}
	if err := outbox.RecordDomainEvents(ctx, h.Outbox, encoder, pending); err != nil {
		return nil, err
	}

	if managed {
		if err := unit.Commit(ctx); err != nil {
			return nil, err
		}
		committed = true
	}

	return &CancelReservationResult{ReservationID: string(res.ID), Status: string(res.Status)}, nil
}

var _ commands.Handler[CancelReservationCommand, *CancelReservationResult] = (*CancelReservationHandler)(nil)
