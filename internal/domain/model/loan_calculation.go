package model

import (
	"errors"
	"time"

	"github.com/shopspring/decimal"

	"github.com/logicalc/loancalc/internal/domain/event"
	"github.com/logicalc/loancalc/internal/domain/valueobject"
)

// RateAddition records how one summed category contributed to a rate.
type RateAddition struct {
	Category   string
	Strategy   valueobject.ValueIndexStrategy
	ValueIndex float64
	Value      float64
}

// CalculatedTerms are the outputs of the calculation engine used to build a
// LoanCalculation.
type CalculatedTerms struct {
	Rate           float64
	Additions      []RateAddition
	MaximumTerm    int
	MonthlyTerm    int
	MonthlyPayment decimal.Decimal
	// RemainingTerm is the estimated number of months left on the current
	// loan; nil when the current loan is not fully described.
	RemainingTerm *int
	Schedule      []AmortizationEntry
}

// ---------------------------------------------------------------------------
// LoanCalculation – immutable result
// ---------------------------------------------------------------------------

// LoanCalculation is the quote produced for a request. It never changes after
// construction; a different input produces a different calculation. Request
// keeps the requested term while MonthlyTerm is the effective one.
type LoanCalculation struct {
	id             string
	request        LoanCalculationRequest
	rate           float64
	additions      []RateAddition
	maximumTerm    int
	monthlyTerm    int
	monthlyPayment decimal.Decimal
	remainingTerm  *int
	schedule       []AmortizationEntry
	createdAt      time.Time
	domainEvents   []event.DomainEvent
}

// NewLoanCalculation combines a request with the engine's outputs. The
// effective term must not exceed the maximum term.
func NewLoanCalculation(req LoanCalculationRequest, terms CalculatedTerms) (LoanCalculation, error) {
	if terms.MonthlyTerm <= 0 {
		return LoanCalculation{}, errors.New("monthly term must be positive")
	}
	if terms.MonthlyTerm > terms.MaximumTerm {
		return LoanCalculation{}, errors.New("monthly term exceeds maximum term")
	}

	return LoanCalculation{
		request:        req,
		rate:           terms.Rate,
		additions:      copyAdditions(terms.Additions),
		maximumTerm:    terms.MaximumTerm,
		monthlyTerm:    terms.MonthlyTerm,
		monthlyPayment: terms.MonthlyPayment,
		remainingTerm:  copyIntPtr(terms.RemainingTerm),
		schedule:       copySchedule(terms.Schedule),
	}, nil
}

// ReconstructLoanCalculation rebuilds a LoanCalculation from persistence.
func ReconstructLoanCalculation(
	id string,
	req LoanCalculationRequest,
	terms CalculatedTerms,
	createdAt time.Time,
) LoanCalculation {
	return LoanCalculation{
		id:             id,
		request:        req,
		rate:           terms.Rate,
		additions:      copyAdditions(terms.Additions),
		maximumTerm:    terms.MaximumTerm,
		monthlyTerm:    terms.MonthlyTerm,
		monthlyPayment: terms.MonthlyPayment,
		remainingTerm:  copyIntPtr(terms.RemainingTerm),
		schedule:       copySchedule(terms.Schedule),
		createdAt:      createdAt,
	}
}

// WithIdentity returns a copy stamped with a persistent ID and creation time
// that records CalculationCreated.
func (c LoanCalculation) WithIdentity(id string, createdAt time.Time) LoanCalculation {
	next := c
	next.id = id
	next.createdAt = createdAt.UTC()
	next.domainEvents = []event.DomainEvent{event.NewCalculationCreated(
		id, c.request.CompanyID, c.request.LoanTypeID,
		c.request.LoanAmount, c.rate,
		c.maximumTerm, c.monthlyTerm,
		c.monthlyPayment, createdAt,
	)}
	return next
}

// DomainEvents returns the events recorded since the calculation was stamped.
func (c LoanCalculation) DomainEvents() []event.DomainEvent { return c.domainEvents }

// ClearEvents returns a copy with an empty event list.
func (c LoanCalculation) ClearEvents() LoanCalculation {
	next := c
	next.domainEvents = nil
	return next
}

// ---------------------------------------------------------------------------
// Accessors
// ---------------------------------------------------------------------------

func (c LoanCalculation) ID() string                      { return c.id }
func (c LoanCalculation) Request() LoanCalculationRequest { return c.request }
func (c LoanCalculation) RequestedTerm() int              { return c.request.MonthlyTerm }
func (c LoanCalculation) CompanyID() string               { return c.request.CompanyID }
func (c LoanCalculation) LoanTypeID() string              { return c.request.LoanTypeID }
func (c LoanCalculation) Rate() float64                   { return c.rate }
func (c LoanCalculation) MaximumTerm() int                { return c.maximumTerm }
func (c LoanCalculation) MonthlyTerm() int                { return c.monthlyTerm }
func (c LoanCalculation) MonthlyPayment() decimal.Decimal { return c.monthlyPayment }
func (c LoanCalculation) CreatedAt() time.Time            { return c.createdAt }

// Additions returns a copy of the per-category rate contributions.
func (c LoanCalculation) Additions() []RateAddition { return copyAdditions(c.additions) }

// Schedule returns a copy of the amortization schedule.
func (c LoanCalculation) Schedule() []AmortizationEntry { return copySchedule(c.schedule) }

// CurrentLoanEstimatedRemainingTerm returns the months left on the current
// loan and whether it could be estimated.
func (c LoanCalculation) CurrentLoanEstimatedRemainingTerm() (int, bool) {
	if c.remainingTerm == nil {
		return 0, false
	}
	return *c.remainingTerm, true
}

// Terms returns the engine outputs the calculation was built from.
func (c LoanCalculation) Terms() CalculatedTerms {
	return CalculatedTerms{
		Rate:           c.rate,
		Additions:      copyAdditions(c.additions),
		MaximumTerm:    c.maximumTerm,
		MonthlyTerm:    c.monthlyTerm,
		MonthlyPayment: c.monthlyPayment,
		RemainingTerm:  copyIntPtr(c.remainingTerm),
		Schedule:       copySchedule(c.schedule),
	}
}

// ---------------------------------------------------------------------------
// Derived metrics
// ---------------------------------------------------------------------------

// EstimatedMonthlySavings is the current payment minus the new payment.
func (c LoanCalculation) EstimatedMonthlySavings() decimal.NullDecimal {
	current := c.request.CurrentLoanMonthlyPayment
	if !current.Valid || current.Decimal.IsZero() {
		return decimal.NullDecimal{}
	}
	return decimal.NewNullDecimal(current.Decimal.Sub(c.monthlyPayment))
}

// EstimatedYearlySavings is twelve times the monthly savings.
func (c LoanCalculation) EstimatedYearlySavings() decimal.NullDecimal {
	monthly := c.EstimatedMonthlySavings()
	if !monthly.Valid {
		return monthly
	}
	return decimal.NewNullDecimal(monthly.Decimal.Mul(decimal.NewFromInt(12)))
}

// LoanInterest is the total interest paid over the new loan's term.
func (c LoanCalculation) LoanInterest() decimal.Decimal {
	return c.monthlyPayment.Mul(decimal.NewFromInt(int64(c.monthlyTerm))).Sub(c.request.LoanAmount)
}

// CurrentLoanRemainingInterest is the interest still to be paid on the current
// loan over its estimated remaining term.
func (c LoanCalculation) CurrentLoanRemainingInterest() decimal.NullDecimal {
	balance := c.request.CurrentLoanBalance
	payment := c.request.CurrentLoanMonthlyPayment
	if !balance.Valid || !payment.Valid || c.remainingTerm == nil {
		return decimal.NullDecimal{}
	}
	if balance.Decimal.IsZero() || payment.Decimal.IsZero() {
		return decimal.NullDecimal{}
	}
	paid := payment.Decimal.Mul(decimal.NewFromInt(int64(*c.remainingTerm)))
	return decimal.NewNullDecimal(paid.Sub(balance.Decimal))
}

// InterestSavings is the current loan's remaining interest minus the new
// loan's interest. Null when the remaining interest is unknown or zero.
func (c LoanCalculation) InterestSavings() decimal.NullDecimal {
	remaining := c.CurrentLoanRemainingInterest()
	if !remaining.Valid || remaining.Decimal.IsZero() {
		return decimal.NullDecimal{}
	}
	return decimal.NewNullDecimal(remaining.Decimal.Sub(c.LoanInterest()))
}

func copyAdditions(in []RateAddition) []RateAddition {
	if in == nil {
		return nil
	}
	out := make([]RateAddition, len(in))
	copy(out, in)
	return out
}

func copySchedule(in []AmortizationEntry) []AmortizationEntry {
	if in == nil {
		return nil
	}
	out := make([]AmortizationEntry, len(in))
	copy(out, in)
	return out
}

func copyIntPtr(p *int) *int {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}
