package client

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"staybook/internal/app/dto"
	"staybook/internal/domain/pricing"
	"staybook/internal/domain/shared/daterange"
	"staybook/internal/domain/shared/money"
)

// SubmissionState tracks where a reservation attempt is in its lifecycle.
// Succeeded and Failed are transient: the controller passes through them
// while firing side effects and settles back on Idle.
type SubmissionState string

const (
	StateIdle       SubmissionState = "IDLE"
	StateSubmitting SubmissionState = "SUBMITTING"
	StateSucceeded  SubmissionState = "SUCCEEDED"
	StateFailed     SubmissionState = "FAILED"
)

const (
	successMessage = "Reservation confirmed!"
	failureMessage = "Something went wrong."
)

var (
	ErrControllerConfig = errors.New("client: submission controller misconfigured")
	ErrRateUnpriceable  = errors.New("client: listing rate cannot price the selection")
)

// Identity is the acting user as the identity gate reports it.
type Identity struct {
	ID    string
	Email string
	Name  string
}

// IdentityGate resolves the current user or reports nobody. It never errors;
// resolution failures read as an anonymous visitor.
type IdentityGate interface {
	CurrentUser(ctx context.Context) *Identity
}

type ReservationCreator interface {
	CreateReservation(ctx context.Context, params CreateReservationParams) error
}

type Notifier interface {
	Success(message string)
	Error(message string)
}

type Navigator interface {
	Refresh()
	NavigateToTrips()
}

type SignInPrompter interface {
	PromptSignIn()
}

type ControllerConfig struct {
	ListingID   string
	NightlyRate money.Money
	Creator     ReservationCreator
	Gate        IdentityGate
	Notifier    Notifier
	Navigator   Navigator
	SignIn      SignInPrompter
	Logger      *slog.Logger
	Now         func() time.Time
}

// SubmissionController owns the reservation-creation lifecycle for one
// listing: the transient date selection, the quoted total, and the
// submission state machine. At most one submission is in flight at a time.
type SubmissionController struct {
	listingID   string
	nightlyRate money.Money
	creator     ReservationCreator
	gate        IdentityGate
	notifier    Notifier
	navigator   Navigator
	signIn      SignInPrompter
	logger      *slog.Logger
	now         func() time.Time

	mu        sync.Mutex
	state     SubmissionState
	selection daterange.StayRange
	total     money.Money
	inFlight  sync.WaitGroup
}

func NewSubmissionController(cfg ControllerConfig) (*SubmissionController, error) {
	if cfg.ListingID == "" || cfg.Creator == nil || cfg.Gate == nil ||
		cfg.Notifier == nil || cfg.Navigator == nil || cfg.SignIn == nil {
		return nil, ErrControllerConfig
	}
	now := cfg.Now
	if now == nil {
		now = time.Now
	}
	c := &SubmissionController{
		listingID:   cfg.ListingID,
		nightlyRate: cfg.NightlyRate,
		creator:     cfg.Creator,
		gate:        cfg.Gate,
		notifier:    cfg.Notifier,
		navigator:   cfg.Navigator,
		signIn:      cfg.SignIn,
		logger:      cfg.Logger,
		now:         now,
		state:       StateIdle,
		selection:   daterange.At(now()),
	}
	total, err := pricing.Quote(c.nightlyRate, c.selection)
	if err != nil {
		return nil, ErrRateUnpriceable
	}
	c.total = total
	return c, nil
}

func (c *SubmissionController) State() SubmissionState {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

func (c *SubmissionController) Selection() daterange.StayRange {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.selection
}

func (c *SubmissionController) Total() money.Money {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.total
}

// SetSelection replaces the transient selection and recomputes the total
// synchronously. Reversed ranges never make it in.
func (c *SubmissionController) SetSelection(start, end time.Time) error {
	stay, err := daterange.New(start, end)
	if err != nil {
		return err
	}
	total, err := pricing.Quote(c.nightlyRate, stay)
	if err != nil {
		return err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.selection = stay
	c.total = total
	return nil
}

// Submit starts a reservation attempt for the current selection. While one
// is in flight, further calls are ignored. An anonymous visitor only gets
// the sign-in prompt; the state machine never leaves Idle for them.
func (c *SubmissionController) Submit(ctx context.Context) {
	c.mu.Lock()
	if c.state == StateSubmitting {
		c.mu.Unlock()
		return
	}
	c.mu.Unlock()

	if c.gate.CurrentUser(ctx) == nil {
		c.signIn.PromptSignIn()
		return
	}

	c.mu.Lock()
	if c.state == StateSubmitting {
		c.mu.Unlock()
		return
	}
	c.state = StateSubmitting
	params := CreateReservationParams{
		ListingID:  c.listingID,
		StartDate:  c.selection.Start,
		EndDate:    c.selection.End,
		TotalPrice: dto.MapMoney(c.total),
	}
	c.inFlight.Add(1)
	c.mu.Unlock()

	go func() {
		defer c.inFlight.Done()
		c.finish(params, c.creator.CreateReservation(ctx, params))
	}()
}

// Wait blocks until no submission is in flight.
func (c *SubmissionController) Wait() {
	c.inFlight.Wait()
}

func (c *SubmissionController) finish(params CreateReservationParams, err error) {
	if err != nil {
		c.setState(StateFailed)
		if c.logger != nil {
			c.logger.Warn("reservation submission failed", "listing_id", params.ListingID, "error", err)
		}
		c.notifier.Error(failureMessage)
		c.setState(StateIdle)
		return
	}

	c.setState(StateSucceeded)
	c.notifier.Success(successMessage)
	c.resetSelection()
	c.navigator.Refresh()
	c.navigator.NavigateToTrips()
	c.setState(StateIdle)
}

func (c *SubmissionController) resetSelection() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.selection = daterange.At(c.now())
	if total, err := pricing.Quote(c.nightlyRate, c.selection); err == nil {
		c.total = total
	}
}

func (c *SubmissionController) setState(state SubmissionState) {
	c.mu.Lock()
	c.state = state
	c.mu.Unlock()
}
