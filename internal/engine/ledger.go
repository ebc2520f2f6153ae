package engine

import (
	"context"
	"fmt"

	"github.com/consorcio/backend/internal/models"
	"github.com/consorcio/backend/internal/quota"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
)

// Ledger generates the obligations of consortiums and records payments.
type Ledger struct {
	*core
}

// PaymentSummary counts the obligations of a consortium by status.
type PaymentSummary struct {
	Total          int
	Paid           int
	Pending        int
	Overdue        int
	Partial        int
	PercentPaid    int // Share of paid obligations, rounded to an integer percentage
	ExpectedAmount decimal.Decimal
	PaidAmount     decimal.Decimal
}

// GenerateSchedule creates the missing obligations for every active membership
// and every month of the consortium. It returns the obligations it created.
func (l *Ledger) GenerateSchedule(ctx context.Context, consortiumID uuid.UUID) ([]models.Obligation, error) {
	unlock := l.lock(consortiumID)
	defer unlock()

	var created []models.Obligation
	err := l.store.Transaction(ctx, func(r Repositories) (err error) {
		created, err = l.generate(ctx, r, consortiumID)
		return err
	})
	if err != nil {
		return nil, err
	}

	l.logGenerated(consortiumID, created, "generated schedule")
	return created, nil
}

// RegenerateSchedule deletes all obligations of the consortium, recomputes
// the fixed monthly amounts of its active memberships and generates the
// schedule again.
func (l *Ledger) RegenerateSchedule(ctx context.Context, consortiumID uuid.UUID) ([]models.Obligation, error) {
	unlock := l.lock(consortiumID)
	defer unlock()

	var created []models.Obligation
	err := l.store.Transaction(ctx, func(r Repositories) (err error) {
		created, err = l.regenerate(ctx, r, consortiumID)
		return err
	})
	if err != nil {
		return nil, err
	}

	l.logGenerated(consortiumID, created, "regenerated schedule")
	return created, nil
}

func (l *Ledger) regenerate(ctx context.Context, r Repositories, consortiumID uuid.UUID) ([]models.Obligation, error) {
	consortium, err := l.consortium(ctx, r, consortiumID)
	if err != nil {
		return nil, err
	}

	memberships, err := r.Memberships.FindActiveByConsortium(ctx, consortiumID)
	if err != nil {
		return nil, err
	}

	params := consortium.QuotaParameters()
	for i := range memberships {
		memberships[i].IndividualAmount = quota.Fixed(params, memberships[i].QuotaCount)
		if err := r.Memberships.Save(ctx, &memberships[i]); err != nil {
			return nil, err
		}
	}

	if err := r.Obligations.DeleteByConsortium(ctx, consortiumID); err != nil {
		return nil, err
	}

	return l.generate(ctx, r, consortiumID)
}

func (l *Ledger) generate(ctx context.Context, r Repositories, consortiumID uuid.UUID) ([]models.Obligation, error) {
	consortium, err := l.consortium(ctx, r, consortiumID)
	if err != nil {
		return nil, err
	}

	memberships, err := r.Memberships.FindActiveByConsortium(ctx, consortiumID)
	if err != nil {
		return nil, err
	}

	existing, err := r.Obligations.FindByConsortium(ctx, consortiumID)
	if err != nil {
		return nil, err
	}

	type key struct {
		member uuid.UUID
		month  int
	}

	exists := make(map[key]bool, len(existing))
	for _, o := range existing {
		exists[key{o.MemberID, o.Month}] = true
	}

	params := consortium.QuotaParameters()
	created := make([]models.Obligation, 0)
	for _, membership := range memberships {
		if membership.IndividualAmount.IsZero() && consortium.TotalAmount.IsPositive() {
			membership.IndividualAmount = quota.Fixed(params, membership.QuotaCount)
			if err := r.Memberships.Save(ctx, &membership); err != nil {
				return nil, err
			}
		}

		for month := 1; month <= consortium.TermMonths; month++ {
			if exists[key{membership.MemberID, month}] {
				continue
			}

			created = append(created, l.obligation(consortium, membership, month))
		}
	}

	if len(created) == 0 {
		return created, nil
	}

	if err := r.Obligations.CreateBatch(ctx, created); err != nil {
		return nil, err
	}

	return created, nil
}

// obligation builds the obligation of a membership for one month. The expected
// amount is the frozen fixed amount plus the manager fee plus the progressive
// increment of the month.
func (l *Ledger) obligation(consortium models.Consortium, membership models.Membership, month int) models.Obligation {
	increment := quota.Increment(consortium.QuotaParameters(), month).Mul(membership.QuotaCount).Round(quota.Places)

	return models.Obligation{
		ConsortiumID:   consortium.ID,
		MemberID:       membership.MemberID,
		MembershipID:   membership.ID,
		Month:          month,
		DueDate:        consortium.StartDate.InMonth(month-1, l.rules.DueDay),
		ExpectedAmount: membership.IndividualAmount.Add(consortium.ManagerFee).Add(increment),
		Status:         models.ObligationPending,
	}
}

// RecordPayment records a payment for the obligation. The obligation is
// paid when the amount covers the expected amount and partially paid
// otherwise.
func (l *Ledger) RecordPayment(ctx context.Context, obligationID uuid.UUID, amount decimal.Decimal) (models.Obligation, error) {
	if !amount.IsPositive() {
		return models.Obligation{}, fmt.Errorf("%w, got %s", ErrInvalidAmount, amount)
	}

	obligation, err := l.store.Repositories().Obligations.Get(ctx, obligationID)
	if err != nil {
		return models.Obligation{}, err
	}

	unlock := l.lock(obligation.ConsortiumID)
	defer unlock()

	err = l.store.Transaction(ctx, func(r Repositories) error {
		obligation, err = r.Obligations.Get(ctx, obligationID)
		if err != nil {
			return err
		}

		paidAt := l.now().UTC()
		obligation.PaidAt = &paidAt
		obligation.PaidAmount = decimal.NewNullDecimal(amount)
		obligation.Status = models.ObligationPartial
		if amount.GreaterThanOrEqual(obligation.ExpectedAmount) {
			obligation.Status = models.ObligationPaid
		}

		if err := r.Obligations.Save(ctx, &obligation); err != nil {
			return err
		}

		return l.rollup(ctx, r, obligation.MembershipID)
	})
	if err != nil {
		return models.Obligation{}, err
	}

	l.metrics.paymentsRecorded.WithLabelValues(string(obligation.Status)).Inc()
	log.Info().Str("consortium", obligation.ConsortiumID.String()).Str("obligation", obligation.ID.String()).Str("status", string(obligation.Status)).Msg("recorded payment")

	return obligation, nil
}

// ListObligations returns the obligations of a consortium ordered by due date.
// With month 0, the obligations of all months are returned.
func (l *Ledger) ListObligations(ctx context.Context, consortiumID uuid.UUID, month int) ([]models.Obligation, error) {
	r := l.store.Repositories()

	consortium, err := l.consortium(ctx, r, consortiumID)
	if err != nil {
		return nil, err
	}

	if month == 0 {
		return r.Obligations.FindByConsortium(ctx, consortiumID)
	}

	if month < 1 || month > consortium.TermMonths {
		return nil, fmt.Errorf("%w: month must be between 1 and %d, is %d", ErrInvalidMonth, consortium.TermMonths, month)
	}

	return r.Obligations.FindByMonth(ctx, consortiumID, month)
}

// Summary counts the obligations of the consortium by status.
func (l *Ledger) Summary(ctx context.Context, consortiumID uuid.UUID) (PaymentSummary, error) {
	r := l.store.Repositories()

	if _, err := l.consortium(ctx, r, consortiumID); err != nil {
		return PaymentSummary{}, err
	}

	obligations, err := r.Obligations.FindByConsortium(ctx, consortiumID)
	if err != nil {
		return PaymentSummary{}, err
	}

	return summarize(obligations), nil
}

func summarize(obligations []models.Obligation) PaymentSummary {
	s := PaymentSummary{
		Total:          len(obligations),
		ExpectedAmount: decimal.Zero,
		PaidAmount:     decimal.Zero,
	}

	for _, o := range obligations {
		switch o.Status {
		case models.ObligationPaid:
			s.Paid++
		case models.ObligationPending:
			s.Pending++
		case models.ObligationOverdue:
			s.Overdue++
		case models.ObligationPartial:
			s.Partial++
		}

		s.ExpectedAmount = s.ExpectedAmount.Add(o.ExpectedAmount)
		if o.PaidAmount.Valid {
			s.PaidAmount = s.PaidAmount.Add(o.PaidAmount.Decimal)
		}
	}

	if s.Total > 0 {
		s.PercentPaid = int(decimal.NewFromInt(int64(s.Paid * 100)).Div(decimal.NewFromInt(int64(s.Total))).Round(0).IntPart())
	}

	return s
}

// consortium loads the consortium and validates its parameters.
func (c *core) consortium(ctx context.Context, r Repositories, id uuid.UUID) (models.Consortium, error) {
	consortium, err := r.Consortiums.Get(ctx, id)
	if err != nil {
		return models.Consortium{}, err
	}

	if err := consortium.QuotaParameters().Validate(); err != nil {
		return models.Consortium{}, fmt.Errorf("%w: %w", ErrValidation, err)
	}

	return consortium, nil
}

// rollup recomputes the payment status of a membership: contemplated
// memberships stay contemplated, others are overdue while they have an
// overdue obligation and current otherwise.
func (c *core) rollup(ctx context.Context, r Repositories, membershipID uuid.UUID) error {
	membership, err := r.Memberships.Get(ctx, membershipID)
	if err != nil {
		return err
	}

	status, err := c.rollupStatus(ctx, r, membership)
	if err != nil {
		return err
	}

	if membership.PaymentStatus == status {
		return nil
	}

	membership.PaymentStatus = status
	return r.Memberships.Save(ctx, &membership)
}

func (c *core) rollupStatus(ctx context.Context, r Repositories, membership models.Membership) (models.PaymentStatus, error) {
	if membership.Contemplated {
		return models.PaymentContemplated, nil
	}

	overdue, err := r.Obligations.HasOverdue(ctx, membership.ID)
	if err != nil {
		return "", err
	}

	if overdue {
		return models.PaymentOverdue, nil
	}

	return models.PaymentCurrent, nil
}

func (l *Ledger) logGenerated(consortiumID uuid.UUID, created []models.Obligation, msg string) {
	l.metrics.obligationsGenerated.Add(float64(len(created)))
	log.Info().Str("consortium", consortiumID.String()).Int("created", len(created)).Msg(msg)
}
