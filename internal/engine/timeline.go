package engine

import (
	"context"
	"fmt"
	"strings"

	"github.com/consorcio/backend/internal/models"
	"github.com/consorcio/backend/internal/quota"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/number"
)

// TimelineBuilder aggregates the state of a consortium.
type TimelineBuilder struct {
	*core
	ledger *Ledger
	locale language.Tag
}

// TimelineEntry is a member contemplated in a month.
type TimelineEntry struct {
	ContemplationID uuid.UUID
	MemberID        uuid.UUID
	MemberName      string
	QuotaCount      decimal.Decimal // Quota count of the membership
	QuotaShare      decimal.Decimal // Quota share of the month used by this contemplation
	Type            models.ContemplationType
}

// QuotaFill describes how many quotas of a consortium are taken.
type QuotaFill struct {
	TotalQuotas   int
	Filled        decimal.Decimal // Quota counts of the active memberships
	Available     decimal.Decimal
	Contemplated  decimal.Decimal // Quota shares of all contemplations
	ActiveMembers int
}

// FormattedAmounts are the amounts of a timeline formatted for the locale.
type FormattedAmounts struct {
	TotalAmount    string
	ManagerFee     string
	ExpectedAmount string
	PaidAmount     string
}

// Timeline is the aggregated state of a consortium.
type Timeline struct {
	Consortium     models.Consortium
	CurrentMonth   int
	Contemplations []models.Contemplation
	Months         map[int][]TimelineEntry
	Quotas         QuotaFill
	Payments       PaymentSummary
	Memberships    []models.Membership
	Members        map[uuid.UUID]models.Member
	Formatted      FormattedAmounts
}

// Timeline returns the aggregated state of the consortium.
//
// This read has a side effect: it generates the missing obligations of the
// consortium first, so that the payment summary covers every month.
func (t *TimelineBuilder) Timeline(ctx context.Context, consortiumID uuid.UUID) (Timeline, error) {
	if _, err := t.ledger.GenerateSchedule(ctx, consortiumID); err != nil {
		return Timeline{}, err
	}

	r := t.store.Repositories()

	consortium, err := r.Consortiums.Get(ctx, consortiumID)
	if err != nil {
		return Timeline{}, err
	}

	contemplations, err := r.Contemplations.FindByConsortium(ctx, consortiumID)
	if err != nil {
		return Timeline{}, err
	}

	memberships, err := r.Memberships.FindActiveByConsortium(ctx, consortiumID)
	if err != nil {
		return Timeline{}, err
	}

	obligations, err := r.Obligations.FindByConsortium(ctx, consortiumID)
	if err != nil {
		return Timeline{}, err
	}

	ids := make([]uuid.UUID, 0, len(memberships))
	byMember := make(map[uuid.UUID]models.Membership, len(memberships))
	for _, m := range memberships {
		ids = append(ids, m.MemberID)
		byMember[m.MemberID] = m
	}

	members, err := r.Members.FindByIDs(ctx, ids)
	if err != nil {
		return Timeline{}, err
	}

	names := make(map[uuid.UUID]models.Member, len(members))
	for _, m := range members {
		names[m.ID] = m
	}

	// Contemplations are the source of truth for the months, memberships
	// only hold the last month they were contemplated in
	months := make(map[int][]TimelineEntry)
	contemplated := decimal.Zero
	for _, c := range contemplations {
		contemplated = contemplated.Add(c.QuotaShare)

		membership, ok := byMember[c.MemberID]
		if !ok {
			continue
		}

		months[c.Month] = append(months[c.Month], TimelineEntry{
			ContemplationID: c.ID,
			MemberID:        c.MemberID,
			MemberName:      names[c.MemberID].Name,
			QuotaCount:      membership.QuotaCount,
			QuotaShare:      c.QuotaShare,
			Type:            c.Type,
		})
	}

	filled := decimal.Zero
	for _, m := range memberships {
		filled = filled.Add(m.QuotaCount)
	}

	payments := summarize(obligations)

	return Timeline{
		Consortium:     consortium,
		CurrentMonth:   quota.CurrentMonth(consortium.QuotaParameters(), t.now().In(t.location)),
		Contemplations: contemplations,
		Months:         months,
		Quotas: QuotaFill{
			TotalQuotas:   consortium.TotalQuotas,
			Filled:        filled,
			Available:     decimal.NewFromInt(int64(consortium.TotalQuotas)).Sub(filled),
			Contemplated:  contemplated,
			ActiveMembers: len(memberships),
		},
		Payments:    payments,
		Memberships: memberships,
		Members:     names,
		Formatted: FormattedAmounts{
			TotalAmount:    t.format(consortium.TotalAmount),
			ManagerFee:     t.format(consortium.ManagerFee),
			ExpectedAmount: t.format(payments.ExpectedAmount),
			PaidAmount:     t.format(payments.PaidAmount),
		},
	}, nil
}

// format formats an amount with two decimal places for the locale.
func (t *TimelineBuilder) format(d decimal.Decimal) string {
	return FormatAmount(t.locale, d)
}

// FormatAmount formats an amount with two decimal places for the locale.
//
// The integer part is grouped by the locale and the decimal places are
// taken from the decimal, so large amounts keep all of their digits.
func FormatAmount(tag language.Tag, d decimal.Decimal) string {
	p := message.NewPrinter(tag)

	d = d.Round(quota.Places)
	integer := d.Truncate(0)
	fraction := d.Sub(integer).Abs().Shift(quota.Places).IntPart()

	sign := ""
	if d.IsNegative() && integer.IsZero() {
		sign = "-"
	}

	// The separator of the locale, e.g. "," in "0,5"
	separator := strings.TrimSuffix(strings.TrimPrefix(p.Sprint(number.Decimal(0.5, number.Scale(1))), "0"), "5")

	return fmt.Sprintf("%s%s%s%0*d", sign, p.Sprint(number.Decimal(integer.IntPart())), separator, quota.Places, fraction)
}
