// Package quota calculates the monthly amounts a member owes for their
// quota of a consortium.
//
// All amounts are rounded to 2 decimal places, half away from zero.
package quota

import (
	"errors"
	"fmt"
	"time"

	"github.com/consorcio/backend/internal/types"
	"github.com/shopspring/decimal"
)

// Places is the number of decimal places amounts are rounded to.
const Places = 2

// MaxTermMonths is the longest term a consortium can have.
const MaxTermMonths = 120

var ErrInvalidParameters = errors.New("invalid consortium parameters")

// Parameters are the consortium values the amounts derive from.
type Parameters struct {
	TotalAmount          decimal.Decimal
	TermMonths           int
	TotalQuotas          int
	ManagerFee           decimal.Decimal // Flat fee per month
	ProgressiveIncrement decimal.Decimal // Added per quota for every month after the first
	StartDate            types.Date
}

// Validate checks the parameters so that the calculations never fail.
func (p Parameters) Validate() error {
	if p.TermMonths < 1 || p.TermMonths > MaxTermMonths {
		return fmt.Errorf("%w: term must be between 1 and %d months, is %d", ErrInvalidParameters, MaxTermMonths, p.TermMonths)
	}

	if p.TotalQuotas < 1 {
		return fmt.Errorf("%w: total quotas must be at least 1, is %d", ErrInvalidParameters, p.TotalQuotas)
	}

	if p.TotalAmount.IsNegative() || p.ManagerFee.IsNegative() || p.ProgressiveIncrement.IsNegative() {
		return fmt.Errorf("%w: amounts must not be negative", ErrInvalidParameters)
	}

	return nil
}

// BasePerQuota is the unrounded monthly amount of a single quota:
// the total amount plus the manager fee for the whole term, divided
// by the number of quotas.
//
// It panics if the term or the number of quotas is not positive.
func BasePerQuota(p Parameters) decimal.Decimal {
	if p.TotalQuotas <= 0 || p.TermMonths <= 0 {
		panic(fmt.Sprintf("quota: term (%d) and total quotas (%d) must be positive", p.TermMonths, p.TotalQuotas))
	}

	withFee := p.TotalAmount.Add(p.ManagerFee.Mul(decimal.NewFromInt(int64(p.TermMonths))))
	return withFee.Div(decimal.NewFromInt(int64(p.TotalQuotas)))
}

// Fixed returns the monthly amount for quotaCount quotas without any
// progressive increment.
func Fixed(p Parameters, quotaCount decimal.Decimal) decimal.Decimal {
	return BasePerQuota(p).Mul(quotaCount).Round(Places)
}

// Progressive returns the monthly amount for quotaCount quotas in the
// 1-based month. The increment grows linearly, it is zero in month 1.
func Progressive(p Parameters, quotaCount decimal.Decimal, month int) decimal.Decimal {
	return BasePerQuota(p).Add(Increment(p, month)).Mul(quotaCount).Round(Places)
}

// Increment returns the progressive increment per quota for the 1-based month.
func Increment(p Parameters, month int) decimal.Decimal {
	if month < 1 {
		month = 1
	}

	return p.ProgressiveIncrement.Mul(decimal.NewFromInt(int64(month - 1)))
}

// CurrentMonth returns the 1-based month of the consortium at now,
// clamped to the term.
func CurrentMonth(p Parameters, now time.Time) int {
	elapsed := p.StartDate.MonthsUntil(types.DateOf(now))

	month := elapsed + 1
	if month > p.TermMonths {
		month = p.TermMonths
	}
	if month < 1 {
		month = 1
	}

	return month
}
