package client

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"staybook/internal/domain/shared/daterange"
	"staybook/internal/domain/shared/money"
)

// effectLog records every side effect in the order it fired, so ordering
// assertions read straight off the slice.
type effectLog struct {
	mu     sync.Mutex
	events []string
}

func (l *effectLog) record(event string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.events = append(l.events, event)
}

func (l *effectLog) snapshot() []string {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]string, len(l.events))
	copy(out, l.events)
	return out
}

func (l *effectLog) count(event string) int {
	n := 0
	for _, e := range l.snapshot() {
		if e == event {
			n++
		}
	}
	return n
}

type logNotifier struct{ log *effectLog }

func (n logNotifier) Success(message string) { n.log.record("success:" + message) }
func (n logNotifier) Error(message string)   { n.log.record("error:" + message) }

type logNavigator struct{ log *effectLog }

func (n logNavigator) Refresh()         { n.log.record("refresh") }
func (n logNavigator) NavigateToTrips() { n.log.record("navigate") }

type logPrompter struct{ log *effectLog }

func (p logPrompter) PromptSignIn() { p.log.record("sign-in-prompt") }

type staticGate struct{ identity *Identity }

func (g staticGate) CurrentUser(ctx context.Context) *Identity { return g.identity }

// fakeCreator counts calls and optionally blocks until released, which lets
// tests hold a submission in flight.
type fakeCreator struct {
	mu      sync.Mutex
	calls   int
	err     error
	started chan struct{}
	release chan struct{}
}

func (f *fakeCreator) CreateReservation(ctx context.Context, params CreateReservationParams) error {
	f.mu.Lock()
	f.calls++
	f.mu.Unlock()
	if f.started != nil {
		f.started <- struct{}{}
	}
	if f.release != nil {
		<-f.release
	}
	return f.err
}

func (f *fakeCreator) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

func fixedClock() time.Time {
	return time.Date(2024, time.March, 10, 9, 30, 0, 0, time.UTC)
}

func newTestController(t *testing.T, creator *fakeCreator, identity *Identity) (*SubmissionController, *effectLog) {
	t.Helper()
	log := &effectLog{}
	controller, err := NewSubmissionController(ControllerConfig{
		ListingID:   "listing-1",
		NightlyRate: money.Must(100, "USD"),
		Creator:     creator,
		Gate:        staticGate{identity: identity},
		Notifier:    logNotifier{log: log},
		Navigator:   logNavigator{log: log},
		SignIn:      logPrompter{log: log},
		Now:         fixedClock,
	})
	require.NoError(t, err)
	return controller, log
}

func guest() *Identity {
	return &Identity{ID: "u1", Email: "guest@example.com", Name: "Guest"}
}

func TestControllerDefaultsToTodaySelection(t *testing.T) {
	controller, _ := newTestController(t, &fakeCreator{}, guest())

	today := daterange.Midnight(fixedClock())
	assert.True(t, controller.Selection().Equal(daterange.At(today)))
	assert.Equal(t, money.Must(100, "USD"), controller.Total())
	assert.Equal(t, StateIdle, controller.State())
}

func TestSetSelectionRecomputesTotal(t *testing.T) {
	controller, _ := newTestController(t, &fakeCreator{}, guest())

	start := time.Date(2024, time.April, 1, 0, 0, 0, 0, time.UTC)
	require.NoError(t, controller.SetSelection(start, start.AddDate(0, 0, 3)))
	assert.Equal(t, money.Must(300, "USD"), controller.Total())

	err := controller.SetSelection(start, start.AddDate(0, 0, -1))
	require.ErrorIs(t, err, daterange.ErrReversedRange)
	assert.Equal(t, money.Must(300, "USD"), controller.Total(), "failed update must not clobber the total")
}

func TestSubmitAnonymousPromptsSignIn(t *testing.T) {
	creator := &fakeCreator{}
	controller, log := newTestController(t, creator, nil)

	controller.Submit(context.Background())
	controller.Wait()

	assert.Equal(t, []string{"sign-in-prompt"}, log.snapshot())
	assert.Zero(t, creator.callCount(), "no network call for an anonymous visitor")
	assert.Equal(t, StateIdle, controller.State())
}

func TestSubmitSuccessFiresOrderedEffects(t *testing.T) {
	creator := &fakeCreator{}
	controller, log := newTestController(t, creator, guest())

	start := time.Date(2024, time.April, 1, 0, 0, 0, 0, time.UTC)
	require.NoError(t, controller.SetSelection(start, start.AddDate(0, 0, 3)))

	controller.Submit(context.Background())
	controller.Wait()

	assert.Equal(t, []string{
		"success:" + successMessage,
		"refresh",
		"navigate",
	}, log.snapshot())
	assert.Equal(t, 1, creator.callCount())
	assert.Equal(t, StateIdle, controller.State())

	today := daterange.Midnight(fixedClock())
	assert.True(t, controller.Selection().Equal(daterange.At(today)), "selection resets to its default")
	assert.Equal(t, money.Must(100, "USD"), controller.Total())
}

func TestSubmitFailureNotifiesOnceWithoutNavigation(t *testing.T) {
	creator := &fakeCreator{err: errors.New("boom")}
	controller, log := newTestController(t, creator, guest())

	start := time.Date(2024, time.April, 1, 0, 0, 0, 0, time.UTC)
	require.NoError(t, controller.SetSelection(start, start.AddDate(0, 0, 2)))

	controller.Submit(context.Background())
	controller.Wait()

	assert.Equal(t, []string{"error:" + failureMessage}, log.snapshot())
	assert.Equal(t, StateIdle, controller.State())
	assert.True(t, controller.Selection().ContainsDate(start), "failed attempt keeps the selection")
}

func TestSubmitIgnoredWhileInFlight(t *testing.T) {
	creator := &fakeCreator{
		started: make(chan struct{}, 1),
		release: make(chan struct{}),
	}
	controller, log := newTestController(t, creator, guest())

	controller.Submit(context.Background())
	<-creator.started
	assert.Equal(t, StateSubmitting, controller.State())

	for i := 0; i < 5; i++ {
		controller.Submit(context.Background())
	}
	assert.Equal(t, 1, creator.callCount(), "no second call while one is in flight")

	close(creator.release)
	controller.Wait()

	assert.Equal(t, 1, creator.callCount())
	assert.Equal(t, 1, log.count("success:"+successMessage))
	assert.Equal(t, StateIdle, controller.State())
}

func TestSubmitReenterableAfterFailure(t *testing.T) {
	creator := &fakeCreator{err: errors.New("boom")}
	controller, log := newTestController(t, creator, guest())

	controller.Submit(context.Background())
	controller.Wait()
	require.Equal(t, StateIdle, controller.State())

	creator.err = nil
	controller.Submit(context.Background())
	controller.Wait()

	assert.Equal(t, 2, creator.callCount())
	assert.Equal(t, 1, log.count("error:"+failureMessage))
	assert.Equal(t, 1, log.count("success:"+successMessage))
}

func TestNewControllerValidatesConfig(t *testing.T) {
	_, err := NewSubmissionController(ControllerConfig{ListingID: "listing-1"})
	require.ErrorIs(t, err, ErrControllerConfig)

	log := &effectLog{}
	_, err = NewSubmissionController(ControllerConfig{
		ListingID:   "listing-1",
		NightlyRate: money.Money{},
		Creator:     &fakeCreator{},
		Gate:        staticGate{},
		Notifier:    logNotifier{log: log},
		Navigator:   logNavigator{log: log},
		SignIn:      logPrompter{log: log},
	})
	require.ErrorIs(t, err, ErrRateUnpriceable)
}
