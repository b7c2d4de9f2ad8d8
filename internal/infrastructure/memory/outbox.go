package memory

import (
	"context"
	"sync"
	"time"

	"github.com/logicalc/loancalc/pkg/events"
)

// Outbox implements events.OutboxRepository in memory. The memory
// repositories write to it while holding their own lock, so a stored row and
// its events appear together.
type Outbox struct {
	mu      sync.Mutex
	entries []events.OutboxEntry
}

var _ events.OutboxRepository = (*Outbox)(nil)

// NewOutbox returns an empty outbox.
func NewOutbox() *Outbox {
	return &Outbox{}
}

func (o *Outbox) Store(_ context.Context, entries []events.OutboxEntry) error {
	o.mu.Lock()
	defer o.mu.Unlock()
	for _, e := range entries {
		e.PublishedAt = nil
		o.entries = append(o.entries, e)
	}
	return nil
}

func (o *Outbox) FetchUnpublished(_ context.Context, batchSize int) ([]events.OutboxEntry, error) {
	o.mu.Lock()
	defer o.mu.Unlock()

	var out []events.OutboxEntry
	for _, e := range o.entries {
		if len(out) == batchSize {
			break
		}
		if e.PublishedAt == nil {
			out = append(out, e)
		}
	}
	return out, nil
}

func (o *Outbox) MarkPublished(_ context.Context, ids []string) error {
	o.mu.Lock()
	defer o.mu.Unlock()

	marked := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		marked[id] = struct{}{}
	}
	now := time.Now().UTC()
	for i := range o.entries {
		if _, ok := marked[o.entries[i].ID]; ok && o.entries[i].PublishedAt == nil {
			o.entries[i].PublishedAt = &now
		}
	}
	return nil
}

// Entries returns every stored entry, published or not, in insertion order.
func (o *Outbox) Entries() []events.OutboxEntry {
	o.mu.Lock()
	defer o.mu.Unlock()
	out := make([]events.OutboxEntry, len(o.entries))
	copy(out, o.entries)
	return out
}

func (o *Outbox) append(entries []events.OutboxEntry) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.entries = append(o.entries, entries...)
}
