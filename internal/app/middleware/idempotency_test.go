package middleware

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"staybook/internal/app/commands"
)

type countedCommand struct {
	key    string
	idKey  string
	result *countedResult
}

type countedResult struct {
	Value string `json:"value"`
}

func (c countedCommand) Key() string            { return c.key }
func (c countedCommand) IdempotencyKey() string { return c.idKey }
func (c countedCommand) ResultPrototype() any   { return &countedResult{} }

type memRecordStore struct {
	items map[string]IdempotencyRecord
}

func newMemRecordStore() *memRecordStore {
	return &memRecordStore{items: make(map[string]IdempotencyRecord)}
}

func (s *memRecordStore) Get(ctx context.Context, key string) (IdempotencyRecord, bool, error) {
	rec, ok := s.items[key]
	return rec, ok, nil
}

func (s *memRecordStore) Save(ctx context.Context, rec IdempotencyRecord) error {
	s.items[rec.Key] = rec
	return nil
}

func TestIdempotencyReplaysStoredResult(t *testing.T) {
	bus := commands.NewInMemoryBus()
	calls := 0
	bus.RegisterRaw("demo.create", func(ctx context.Context, cmd commands.Command) (any, error) {
		calls++
		return &countedResult{Value: "first"}, nil
	})

	wrapped := ChainCommands(bus, Idempotency(newMemRecordStore(), nil))
	cmd := countedCommand{key: "demo.create", idKey: "idem-1"}

	first, err := wrapped.Dispatch(context.Background(), cmd)
	require.NoError(t, err)
	second, err := wrapped.Dispatch(context.Background(), cmd)
	require.NoError(t, err)

	assert.Equal(t, 1, calls, "handler must run once per idempotency key")
	assert.Equal(t, first.(*countedResult).Value, second.(*countedResult).Value)
}

func TestIdempotencyReplaysStoredFailure(t *testing.T) {
	bus := commands.NewInMemoryBus()
	calls := 0
	bus.RegisterRaw("demo.create", func(ctx context.Context, cmd commands.Command) (any, error) {
		calls++
		return nil, errors.New("boom")
	})

	wrapped := ChainCommands(bus, Idempotency(newMemRecordStore(), nil))
	cmd := countedCommand{key: "demo.create", idKey: "idem-1"}

	_, err := wrapped.Dispatch(context.Background(), cmd)
	require.Error(t, err)
	_, err = wrapped.Dispatch(context.Background(), cmd)
	require.EqualError(t, err, "boom")
	assert.Equal(t, 1, calls)
}

func TestIdempotencySkipsCommandsWithoutKey(t *testing.T) {
	bus := commands.NewInMemoryBus()
	calls := 0
	bus.RegisterRaw("demo.create", func(ctx context.Context, cmd commands.Command) (any, error) {
		calls++
		return &countedResult{}, nil
	})

	wrapped := ChainCommands(bus, Idempotency(newMemRecordStore(), nil))
	cmd := countedCommand{key: "demo.create"}

	_, err := wrapped.Dispatch(context.Background(), cmd)
	require.NoError(t, err)
	_, err = wrapped.Dispatch(context.Background(), cmd)
	require.NoError(t, err)
	assert.Equal(t, 2, calls)
}
