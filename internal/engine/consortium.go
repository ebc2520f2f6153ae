package engine

import (
	"context"
	"fmt"

	"github.com/consorcio/backend/internal/models"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
)

// UpdateConsortium applies update to the consortium and saves it.
//
// The update fails with ErrMembershipQuotaFull when the active memberships
// hold more quotas than the consortium has afterwards, and with ErrTermTooShort
// when a contemplation is after the last month. With regenerate set, the
// schedule is regenerated in the same transaction.
func (l *Ledger) UpdateConsortium(ctx context.Context, id uuid.UUID, update func(*models.Consortium), regenerate bool) (models.Consortium, error) {
	unlock := l.lock(id)
	defer unlock()

	var consortium models.Consortium
	var created []models.Obligation
	err := l.store.Transaction(ctx, func(r Repositories) (err error) {
		consortium, err = r.Consortiums.Get(ctx, id)
		if err != nil {
			return err
		}

		update(&consortium)
		consortium.ID = id

		memberships, err := r.Memberships.FindActiveByConsortium(ctx, id)
		if err != nil {
			return err
		}

		held := decimal.Zero
		for _, m := range memberships {
			held = held.Add(m.QuotaCount)
		}

		if held.GreaterThan(decimal.NewFromInt(int64(consortium.TotalQuotas))) {
			return fmt.Errorf("%w: active members hold %s quotas, the consortium would have %d", ErrMembershipQuotaFull, held, consortium.TotalQuotas)
		}

		contemplations, err := r.Contemplations.FindByConsortium(ctx, id)
		if err != nil {
			return err
		}

		for _, c := range contemplations {
			if c.Month > consortium.TermMonths {
				return fmt.Errorf("%w: month %d is contemplated, the term would be %d months", ErrTermTooShort, c.Month, consortium.TermMonths)
			}
		}

		if err := r.Consortiums.Save(ctx, &consortium); err != nil {
			return err
		}

		if regenerate {
			created, err = l.regenerate(ctx, r, id)
		}

		return err
	})
	if err != nil {
		return models.Consortium{}, err
	}

	log.Info().Str("consortium", id.String()).Bool("regenerated", regenerate).Msg("updated consortium")
	if regenerate {
		l.logGenerated(id, created, "regenerated schedule")
	}

	return consortium, nil
}
