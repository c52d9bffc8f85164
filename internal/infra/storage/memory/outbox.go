package memory

import (
	"context"
	"sync"
	"time"

	appoutbox "staybook/internal/app/outbox"
	infraoutbox "staybook/internal/infra/outbox"
)

type outboxEntry struct {
	doc     infraoutbox.EventDocument
	claimed bool
	nextAt  time.Time
}

// Outbox buffers event records in memory. Add stages records inside the
// command's unit of work; Flush promotes them so the relay worker can claim
// and publish them.
type Outbox struct {
	mu      sync.Mutex
	staged  []appoutbox.EventRecord
	pending []*outboxEntry
}

func NewOutbox() *Outbox {
	return &Outbox{}
}

func (o *Outbox) Add(ctx context.Context, record appoutbox.EventRecord) error {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.staged = append(o.staged, record)
	return nil
}

func (o *Outbox) Flush(ctx context.Context) error {
	o.mu.Lock()
	defer o.mu.Unlock()
	for _, record := range o.staged {
		o.pending = append(o.pending, &outboxEntry{
			doc: infraoutbox.EventDocument{
				ID:         record.ID,
				Name:       record.Name,
				Payload:    record.Payload,
				OccurredAt: record.OccurredAt,
				Aggregate:  record.Aggregate,
				Headers:    record.Headers,
			},
		})
	}
	o.staged = nil
	return nil
}

func (o *Outbox) Claim(ctx context.Context, workerID string) (*infraoutbox.EventDocument, error) {
	o.mu.Lock()
	defer o.mu.Unlock()
	now := time.Now()
	for _, entry := range o.pending {
		if entry.claimed || entry.nextAt.After(now) {
			continue
		}
		entry.claimed = true
		doc := entry.doc
		return &doc, nil
	}
	return nil, nil
}

func (o *Outbox) MarkSent(ctx context.Context, id string) error {
	o.mu.Lock()
	defer o.mu.Unlock()
	for i, entry := range o.pending {
		if entry.doc.ID == id {
			o.pending = append(o.pending[:i], o.pending[i+1:]...)
			return nil
		}
	}
	return nil
}

func (o *Outbox) MarkFailed(ctx context.Context, id string, retryAt time.Time, reason string) error {
	o.mu.Lock()
	defer o.mu.Unlock()
	for _, entry := range o.pending {
		if entry.doc.ID == id {
			entry.doc.Attempts++
			entry.nextAt = retryAt
			entry.claimed = false
			return nil
		}
	}
	return nil
}

var _ appoutbox.Outbox = (*Outbox)(nil)
var _ infraoutbox.Store = (*Outbox)(nil)
