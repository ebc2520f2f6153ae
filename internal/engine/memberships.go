package engine

import (
	"context"
	"errors"
	"fmt"

	"github.com/consorcio/backend/internal/models"
	"github.com/consorcio/backend/internal/quota"
	"github.com/consorcio/backend/internal/types"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
)

// Memberships lets members join and leave consortiums.
type Memberships struct {
	*core
}

// JoinRequest adds a member to a consortium.
type JoinRequest struct {
	ConsortiumID uuid.UUID
	MemberID     uuid.UUID
	QuotaCount   decimal.Decimal
	JoinedAt     types.Date // Defaults to today
}

// Join adds the member to the consortium. A member who left the consortium
// before gets their membership activated again.
//
// The quota count must be a multiple of the quota step within the quota
// bounds, and the active memberships must not hold more quotas than the
// consortium has.
func (m *Memberships) Join(ctx context.Context, req JoinRequest) (models.Membership, error) {
	if err := m.validateQuota(req.QuotaCount); err != nil {
		return models.Membership{}, err
	}

	if req.JoinedAt.IsZero() {
		req.JoinedAt = m.today()
	}

	unlock := m.lock(req.ConsortiumID)
	defer unlock()

	var membership models.Membership
	err := m.store.Transaction(ctx, func(r Repositories) error {
		consortium, err := m.consortium(ctx, r, req.ConsortiumID)
		if err != nil {
			return err
		}

		if _, err := r.Members.Get(ctx, req.MemberID); err != nil {
			return err
		}

		membership, err = r.Memberships.Find(ctx, consortium.ID, req.MemberID)
		found := err == nil
		if err != nil && !errors.Is(err, ErrNotFound) {
			return err
		}

		if found && membership.Active {
			return fmt.Errorf("%w: member %s", ErrDuplicateMembership, req.MemberID)
		}

		active, err := r.Memberships.FindActiveByConsortium(ctx, consortium.ID)
		if err != nil {
			return err
		}

		used := decimal.Zero
		for _, a := range active {
			used = used.Add(a.QuotaCount)
		}

		total := decimal.NewFromInt(int64(consortium.TotalQuotas))
		if used.Add(req.QuotaCount).GreaterThan(total) {
			return fmt.Errorf("%w: %s of %s quotas are taken, %s requested", ErrMembershipQuotaFull, used, total, req.QuotaCount)
		}

		if !found {
			membership = models.Membership{
				ConsortiumID: consortium.ID,
				MemberID:     req.MemberID,
			}
		}

		membership.QuotaCount = req.QuotaCount
		membership.IndividualAmount = quota.Fixed(consortium.QuotaParameters(), req.QuotaCount)
		membership.JoinedAt = req.JoinedAt
		membership.LeftAt = nil
		membership.Active = true
		membership.Contemplated = false
		membership.ContemplationMonth = nil
		membership.PaymentStatus = models.PaymentCurrent

		if found {
			return r.Memberships.Save(ctx, &membership)
		}
		return r.Memberships.Create(ctx, &membership)
	})
	if err != nil {
		return models.Membership{}, err
	}

	log.Info().Str("consortium", req.ConsortiumID.String()).Str("member", req.MemberID.String()).Str("quotas", req.QuotaCount.String()).Msg("member joined")
	return membership, nil
}

// Leave removes the member from the consortium. The obligations and
// contemplations of the member are deleted, the membership is kept
// as inactive.
func (m *Memberships) Leave(ctx context.Context, consortiumID, memberID uuid.UUID) (models.Membership, error) {
	unlock := m.lock(consortiumID)
	defer unlock()

	var membership models.Membership
	err := m.store.Transaction(ctx, func(r Repositories) error {
		if _, err := r.Consortiums.Get(ctx, consortiumID); err != nil {
			return err
		}

		var err error
		membership, err = activeMembership(ctx, r, consortiumID, memberID)
		if err != nil {
			return err
		}

		if err := r.Obligations.DeleteByMembership(ctx, membership.ID); err != nil {
			return err
		}

		if err := r.Contemplations.DeleteByMember(ctx, consortiumID, memberID); err != nil {
			return err
		}

		leftAt := m.today()
		membership.Active = false
		membership.LeftAt = &leftAt
		membership.Contemplated = false
		membership.ContemplationMonth = nil
		membership.PaymentStatus = models.PaymentCurrent

		return r.Memberships.Save(ctx, &membership)
	})
	if err != nil {
		return models.Membership{}, err
	}

	log.Info().Str("consortium", consortiumID.String()).Str("member", memberID.String()).Msg("member left")
	return membership, nil
}

// List returns the active memberships of the consortium.
func (m *Memberships) List(ctx context.Context, consortiumID uuid.UUID) ([]models.Membership, error) {
	r := m.store.Repositories()
	if _, err := r.Consortiums.Get(ctx, consortiumID); err != nil {
		return nil, err
	}

	return r.Memberships.FindActiveByConsortium(ctx, consortiumID)
}

func (m *Memberships) validateQuota(q decimal.Decimal) error {
	if q.LessThan(m.rules.QuotaMin) || q.GreaterThan(m.rules.QuotaMax) {
		return fmt.Errorf("%w: the quota count must be between %s and %s, is %s", ErrInvalidQuota, m.rules.QuotaMin, m.rules.QuotaMax, q)
	}

	if !q.Mod(m.rules.QuotaStep).IsZero() {
		return fmt.Errorf("%w: the quota count must be a multiple of %s, is %s", ErrInvalidQuota, m.rules.QuotaStep, q)
	}

	return nil
}
