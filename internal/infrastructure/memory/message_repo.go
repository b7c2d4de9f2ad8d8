package memory

import (
	"context"
	"fmt"
	"sync"

	"github.com/logicalc/loancalc/internal/domain/model"
	"github.com/logicalc/loancalc/pkg/events"
)

// CompanyMessageRepository stores company messages in memory.
type CompanyMessageRepository struct {
	mu     sync.Mutex
	data   []model.CompanyMessage
	outbox *Outbox
}

// NewCompanyMessageRepository returns an empty repository recording events in
// outbox.
func NewCompanyMessageRepository(outbox *Outbox) *CompanyMessageRepository {
	return &CompanyMessageRepository{outbox: outbox}
}

// Save stores msg and its domain events.
func (r *CompanyMessageRepository) Save(_ context.Context, msg model.CompanyMessage) error {
	entries, err := events.NewOutboxEntries(msg.DomainEvents())
	if err != nil {
		return fmt.Errorf("save company message: %w", err)
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	r.data = append(r.data, msg.ClearEvents())
	r.outbox.append(entries)
	return nil
}

// Messages returns the stored messages in submission order.
func (r *CompanyMessageRepository) Messages() []model.CompanyMessage {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]model.CompanyMessage, len(r.data))
	copy(out, r.data)
	return out
}
