package memory

import (
	"context"
	"fmt"
	"sync"

	"github.com/logicalc/loancalc/internal/domain/model"
	"github.com/logicalc/loancalc/internal/domain/valueobject"
	"github.com/logicalc/loancalc/pkg/events"
)

// CalculationRepository stores calculations in memory. Calculations are
// insert-only.
type CalculationRepository struct {
	mu     sync.RWMutex
	data   map[string]model.LoanCalculation
	outbox *Outbox
}

// NewCalculationRepository returns an empty repository recording events in
// outbox.
func NewCalculationRepository(outbox *Outbox) *CalculationRepository {
	return &CalculationRepository{
		data:   make(map[string]model.LoanCalculation),
		outbox: outbox,
	}
}

// Save stores calc and its domain events. Saving an ID twice is an error.
func (r *CalculationRepository) Save(_ context.Context, calc model.LoanCalculation) error {
	if calc.ID() == "" {
		return fmt.Errorf("calculation has no ID")
	}
	entries, err := events.NewOutboxEntries(calc.DomainEvents())
	if err != nil {
		return fmt.Errorf("save calculation: %w", err)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.data[calc.ID()]; exists {
		return fmt.Errorf("calculation %s already stored", calc.ID())
	}
	r.data[calc.ID()] = calc.ClearEvents()
	r.outbox.append(entries)
	return nil
}

func (r *CalculationRepository) FindByID(_ context.Context, id string) (model.LoanCalculation, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	calc, ok := r.data[id]
	if !ok {
		return model.LoanCalculation{}, fmt.Errorf("calculation %s: %w", id, valueobject.ErrNotFound)
	}
	return calc, nil
}
