package engine

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

// Sweeper marks obligations as overdue once their due date has passed.
type Sweeper struct {
	*core
}

// SweepOverdue marks every pending obligation due before today as overdue
// and recomputes the payment status of the affected memberships. It
// returns the number of obligations marked.
//
// Failures for single obligations or memberships are logged and skipped,
// the next sweep picks them up again.
func (s *Sweeper) SweepOverdue(ctx context.Context) (int, error) {
	start := time.Now()
	today := s.today()
	r := s.store.Repositories()

	due, err := r.Obligations.FindPendingDueBefore(ctx, today)
	if err != nil {
		return 0, err
	}

	affected := make(map[uuid.UUID]uuid.UUID)
	count := 0
	for _, o := range due {
		ok, err := r.Obligations.MarkOverdue(ctx, o.ID)
		if err != nil {
			log.Error().Err(err).Str("obligation", o.ID.String()).Msg("could not mark obligation as overdue")
			continue
		}

		// The obligation has been paid in the meantime
		if !ok {
			continue
		}

		count++
		affected[o.MembershipID] = o.ConsortiumID
	}

	for membershipID, consortiumID := range affected {
		unlock := s.lock(consortiumID)
		err := s.store.Transaction(ctx, func(r Repositories) error {
			return s.rollup(ctx, r, membershipID)
		})
		unlock()

		if err != nil {
			log.Error().Err(err).Str("membership", membershipID.String()).Msg("could not update payment status")
		}
	}

	s.metrics.obligationsOverdue.Add(float64(count))
	s.metrics.sweepDuration.Observe(time.Since(start).Seconds())
	log.Info().Int("overdue", count).Int("memberships", len(affected)).Str("today", today.String()).Msg("swept overdue obligations")

	return count, nil
}
