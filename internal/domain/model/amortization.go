package model

import (
	"fmt"
	"math"

	"github.com/shopspring/decimal"

	"github.com/logicalc/loancalc/internal/domain/valueobject"
)

// PaymentTiming selects when in each period a payment falls.
type PaymentTiming int

const (
	// PaymentAtEnd is an ordinary annuity: payments at the end of each period.
	PaymentAtEnd PaymentTiming = 0
	// PaymentAtStart is an annuity due: payments at the start of each period.
	PaymentAtStart PaymentTiming = 1
)

// NPer returns the number of periods needed to pay off present value pv with
// a constant payment pmt at a periodic rate, assuming end-of-period payments
// and zero future value. Payments are negative and balances positive, as in a
// spreadsheet:
//
//	nper = log(pmt / (pmt + pv*rate)) / log(1 + rate)
//
// A zero rate degrades to -pv/pmt. The result is not rounded.
func NPer(rate, pmt, pv float64) (float64, error) {
	if pmt == 0 {
		return 0, fmt.Errorf("nper: zero payment: %w", valueobject.ErrNoAmortization)
	}
	if rate == -1 {
		return 0, fmt.Errorf("nper: rate of -100%%: %w", valueobject.ErrInvalidRate)
	}
	if rate == 0 {
		return -pv / pmt, nil
	}

	ratio := pmt / (pmt + pv*rate)
	if ratio <= 0 || math.IsInf(ratio, 0) || math.IsNaN(ratio) {
		return 0, fmt.Errorf("nper: payment %.2f against balance %.2f: %w", pmt, pv, valueobject.ErrNoAmortization)
	}

	return math.Log(ratio) / math.Log(1+rate), nil
}

// PMT returns the constant payment per period for a loan of pv over nper
// periods at a periodic rate, reaching future value fv:
//
//	pmt = -(pv*(1+r)^n + fv) / ((1 + r*type) * ((1+r)^n - 1) / r)
//
// A zero rate degrades to -(pv+fv)/nper. The caller guarantees nper > 0.
func PMT(rate float64, nper int, pv, fv float64, timing PaymentTiming) float64 {
	n := float64(nper)
	if rate == 0 {
		return -(pv + fv) / n
	}

	factor := math.Pow(1+rate, n)
	return -(pv*factor + fv) / ((1 + rate*float64(timing)) * (factor - 1) / rate)
}

// AmortizationEntry is an immutable value object representing one period in an
// amortization schedule.
type AmortizationEntry struct {
	Principal        decimal.Decimal
	Interest         decimal.Decimal
	Total            decimal.Decimal
	RemainingBalance decimal.Decimal
	Period           int
}

// GenerateAmortizationSchedule computes the fixed-payment schedule of a loan of
// principal repaid over termMonths with monthlyPayment at annualRate (a
// fraction, 0.043 for 4.3%). Interest is charged monthly at annualRate/12 and
// rounded to cents; the last period absorbs the rounding so the balance reaches
// exactly zero.
func GenerateAmortizationSchedule(
	principal decimal.Decimal,
	annualRate float64,
	termMonths int,
	monthlyPayment decimal.Decimal,
) []AmortizationEntry {
	if termMonths <= 0 || principal.LessThanOrEqual(decimal.Zero) {
		return nil
	}

	schedule := make([]AmortizationEntry, 0, termMonths)
	remaining := principal
	monthlyRate := decimal.NewFromFloat(annualRate / 12.0)

	for period := 1; period <= termMonths; period++ {
		interest := remaining.Mul(monthlyRate).Round(2)
		principalPart := monthlyPayment.Sub(interest)

		// Last period: adjust for rounding so balance reaches exactly zero.
		if period == termMonths || principalPart.GreaterThan(remaining) {
			principalPart = remaining
		}

		remaining = remaining.Sub(principalPart)

		schedule = append(schedule, AmortizationEntry{
			Period:           period,
			Principal:        principalPart,
			Interest:         interest,
			Total:            principalPart.Add(interest),
			RemainingBalance: remaining,
		})

		if remaining.IsZero() {
			break
		}
	}

	return schedule
}
