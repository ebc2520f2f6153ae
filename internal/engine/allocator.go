package engine

import (
	"context"
	"errors"
	"fmt"

	"github.com/consorcio/backend/internal/models"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
)

// Allocator assigns the months of a consortium to members.
//
// The quota shares contemplated in one month never exceed the capacity
// of the month plus the tolerance.
type Allocator struct {
	*core
	shuffler Shuffler
	strategy BundlingStrategy
}

// AllocationRequest contemplates one or more members in a month.
type AllocationRequest struct {
	ConsortiumID uuid.UUID
	MemberIDs    []uuid.UUID
	Month        int
	Type         models.ContemplationType // Defaults to automatic
	BidAmount    decimal.NullDecimal
	Note         string
}

// ContemplationEdit changes a contemplation. Zero values keep the
// current value.
type ContemplationEdit struct {
	MemberID  uuid.UUID
	Month     int
	Type      models.ContemplationType
	BidAmount *decimal.NullDecimal
	Note      *string
}

// AutoAllocation is the result of an automatic allocation.
type AutoAllocation struct {
	Policy         string
	Contemplations []models.Contemplation
	Unplaced       []Slot // Slots for which no month was left
}

// Allocate contemplates the members of the request in the month.
func (a *Allocator) Allocate(ctx context.Context, req AllocationRequest) ([]models.Contemplation, error) {
	if err := a.validateRequest(&req); err != nil {
		return nil, err
	}

	unlock := a.lock(req.ConsortiumID)
	defer unlock()

	var created []models.Contemplation
	err := a.store.Transaction(ctx, func(r Repositories) error {
		consortium, err := a.consortium(ctx, r, req.ConsortiumID)
		if err != nil {
			return err
		}

		if err := checkMonth(consortium, req.Month); err != nil {
			return err
		}

		all, err := r.Contemplations.FindByConsortium(ctx, consortium.ID)
		if err != nil {
			return err
		}
		held, _ := heldShares(all)

		memberships := make([]models.Membership, 0, len(req.MemberIDs))
		rests := make([]decimal.Decimal, 0, len(req.MemberIDs))
		requested := decimal.Zero
		for _, memberID := range req.MemberIDs {
			membership, err := activeMembership(ctx, r, consortium.ID, memberID)
			if err != nil {
				return err
			}

			if membership.Contemplated {
				return fmt.Errorf("%w: member %s", ErrAlreadyContemplated, memberID)
			}

			rest := a.rest(membership, held)
			if rest.IsZero() {
				return fmt.Errorf("%w: member %s holds contemplations for all quotas", ErrAlreadyContemplated, memberID)
			}

			memberships = append(memberships, membership)
			rests = append(rests, rest)
			requested = requested.Add(rest)
		}

		existing, err := r.Contemplations.FindByMonth(ctx, consortium.ID, req.Month)
		if err != nil {
			return err
		}

		if err := a.checkCapacity(req.Month, shares(existing, uuid.Nil), requested, len(existing) > 0); err != nil {
			return err
		}

		date := consortium.StartDate.AddMonths(req.Month - 1)
		for i := range memberships {
			contemplation := models.Contemplation{
				ConsortiumID:  consortium.ID,
				MemberID:      memberships[i].MemberID,
				Month:         req.Month,
				Date:          date,
				Type:          req.Type,
				AwardedAmount: consortium.TotalAmount,
				BidAmount:     req.BidAmount,
				QuotaShare:    rests[i],
				Note:          req.Note,
			}

			if err := r.Contemplations.Create(ctx, &contemplation); err != nil {
				return err
			}

			if err := markContemplated(ctx, r, &memberships[i], req.Month); err != nil {
				return err
			}

			created = append(created, contemplation)
		}

		return nil
	})
	if err != nil {
		return nil, err
	}

	a.metrics.contemplated(req.Type, len(created))
	log.Info().Str("consortium", req.ConsortiumID.String()).Int("month", req.Month).Int("created", len(created)).Str("type", string(req.Type)).Msg("allocated contemplation")

	return created, nil
}

func (a *Allocator) validateRequest(req *AllocationRequest) error {
	if len(req.MemberIDs) < 1 || len(req.MemberIDs) > a.rules.MaxGroupSize {
		return fmt.Errorf("%w: between 1 and %d members can be contemplated together, got %d", ErrInvalidMembers, a.rules.MaxGroupSize, len(req.MemberIDs))
	}

	seen := make(map[uuid.UUID]bool, len(req.MemberIDs))
	for _, id := range req.MemberIDs {
		if seen[id] {
			return fmt.Errorf("%w: member %s is selected more than once", ErrInvalidMembers, id)
		}
		seen[id] = true
	}

	if req.Month < 1 {
		return fmt.Errorf("%w: month must be at least 1, is %d", ErrInvalidMonth, req.Month)
	}

	if req.Type == "" {
		req.Type = models.ContemplationAutomatic
	}

	if err := req.Type.Validate(); err != nil {
		return fmt.Errorf("%w: %w", ErrValidation, err)
	}

	if req.BidAmount.Valid && !req.BidAmount.Decimal.IsPositive() {
		return fmt.Errorf("%w: bid amount is %s", ErrInvalidAmount, req.BidAmount.Decimal)
	}

	return nil
}

// checkCapacity fails when a month that holds used quota shares cannot take
// the requested shares.
func (a *Allocator) checkCapacity(month int, used, requested decimal.Decimal, occupied bool) error {
	if occupied && a.rules.full(used) {
		return &QuotaError{Err: ErrMonthOccupied, Month: month, Used: used, Requested: requested, Capacity: a.rules.Capacity}
	}

	if used.Add(requested).GreaterThan(a.rules.limit()) {
		return &QuotaError{Err: ErrQuotaExceeded, Month: month, Used: used, Requested: requested, Capacity: a.rules.Capacity}
	}

	return nil
}

// EditContemplation changes the member, month, type, bid or note of a
// contemplation.
//
// When the member changes, the previous member is not contemplated anymore.
// A new month must have capacity for the quota share, otherwise the edit
// fails with ErrMonthOccupied and nothing is changed.
func (a *Allocator) EditContemplation(ctx context.Context, id uuid.UUID, edit ContemplationEdit) (models.Contemplation, error) {
	if edit.Month < 0 {
		return models.Contemplation{}, fmt.Errorf("%w: month must be at least 1, is %d", ErrInvalidMonth, edit.Month)
	}

	if edit.Type != "" {
		if err := edit.Type.Validate(); err != nil {
			return models.Contemplation{}, fmt.Errorf("%w: %w", ErrValidation, err)
		}
	}

	if edit.BidAmount != nil && edit.BidAmount.Valid && !edit.BidAmount.Decimal.IsPositive() {
		return models.Contemplation{}, fmt.Errorf("%w: bid amount is %s", ErrInvalidAmount, edit.BidAmount.Decimal)
	}

	current, err := a.store.Repositories().Contemplations.Get(ctx, id)
	if err != nil {
		return models.Contemplation{}, err
	}

	unlock := a.lock(current.ConsortiumID)
	defer unlock()

	var contemplation models.Contemplation
	err = a.store.Transaction(ctx, func(r Repositories) error {
		contemplation, err = r.Contemplations.Get(ctx, id)
		if err != nil {
			return err
		}

		consortium, err := a.consortium(ctx, r, contemplation.ConsortiumID)
		if err != nil {
			return err
		}

		month := contemplation.Month
		if edit.Month != 0 {
			month = edit.Month
		}

		if err := checkMonth(consortium, month); err != nil {
			return err
		}

		memberID := contemplation.MemberID
		if edit.MemberID != uuid.Nil {
			memberID = edit.MemberID
		}

		memberChanged := memberID != contemplation.MemberID
		monthChanged := month != contemplation.Month

		share := contemplation.QuotaShare
		var target models.Membership
		if memberChanged {
			target, err = activeMembership(ctx, r, consortium.ID, memberID)
			if err != nil {
				return err
			}

			if target.Contemplated {
				return fmt.Errorf("%w: member %s", ErrAlreadyContemplated, memberID)
			}

			share = target.QuotaCount
		}

		if memberChanged || monthChanged {
			others, err := r.Contemplations.FindByMonth(ctx, consortium.ID, month)
			if err != nil {
				return err
			}

			used := shares(others, contemplation.ID)
			if used.Add(share).GreaterThan(a.rules.limit()) {
				kind := ErrQuotaExceeded
				if monthChanged {
					kind = ErrMonthOccupied
				}

				return &QuotaError{Err: kind, Month: month, Used: used, Requested: share, Capacity: a.rules.Capacity}
			}
		}

		previous, err := r.Memberships.Find(ctx, consortium.ID, contemplation.MemberID)
		if err != nil && !errors.Is(err, ErrNotFound) {
			return err
		}
		hasPrevious := err == nil

		switch {
		case memberChanged:
			if hasPrevious {
				if err := a.revertContemplated(ctx, r, &previous); err != nil {
					return err
				}
			}

			if err := markContemplated(ctx, r, &target, month); err != nil {
				return err
			}
		case monthChanged && hasPrevious && previous.Contemplated:
			if err := markContemplated(ctx, r, &previous, month); err != nil {
				return err
			}
		}

		contemplation.MemberID = memberID
		contemplation.Month = month
		contemplation.Date = consortium.StartDate.AddMonths(month - 1)
		contemplation.QuotaShare = share

		if edit.Type != "" {
			contemplation.Type = edit.Type
		}

		if edit.BidAmount != nil {
			contemplation.BidAmount = *edit.BidAmount
		}

		if edit.Note != nil {
			contemplation.Note = *edit.Note
		}

		return r.Contemplations.Save(ctx, &contemplation)
	})
	if err != nil {
		return models.Contemplation{}, err
	}

	log.Info().Str("consortium", contemplation.ConsortiumID.String()).Str("contemplation", id.String()).Int("month", contemplation.Month).Msg("edited contemplation")
	return contemplation, nil
}

// DeleteContemplation deletes the contemplations of the month the contemplation
// belongs to. All memberships contemplated in that month are reverted, which
// frees the month.
//
// Contemplations of a reverted membership in other months are kept. They count
// as placed quotas when the membership is allocated again.
func (a *Allocator) DeleteContemplation(ctx context.Context, id uuid.UUID) error {
	current, err := a.store.Repositories().Contemplations.Get(ctx, id)
	if err != nil {
		return err
	}

	unlock := a.lock(current.ConsortiumID)
	defer unlock()

	deleted := 0
	err = a.store.Transaction(ctx, func(r Repositories) error {
		contemplation, err := r.Contemplations.Get(ctx, id)
		if err != nil {
			return err
		}

		batch, err := r.Contemplations.FindByMonth(ctx, contemplation.ConsortiumID, contemplation.Month)
		if err != nil {
			return err
		}

		members := make(map[uuid.UUID]bool, len(batch))
		for _, c := range batch {
			members[c.MemberID] = true
		}

		memberships, err := r.Memberships.FindActiveByConsortium(ctx, contemplation.ConsortiumID)
		if err != nil {
			return err
		}

		for i := range memberships {
			m := &memberships[i]
			inMonth := m.Contemplated && m.ContemplationMonth != nil && *m.ContemplationMonth == contemplation.Month
			if !members[m.MemberID] && !inMonth {
				continue
			}

			if err := a.revertContemplated(ctx, r, m); err != nil {
				return err
			}
		}

		for _, c := range batch {
			if err := r.Contemplations.Delete(ctx, c.ID); err != nil {
				return err
			}
		}

		deleted = len(batch)
		return nil
	})
	if err != nil {
		return err
	}

	log.Info().Str("consortium", current.ConsortiumID.String()).Int("month", current.Month).Int("deleted", deleted).Msg("deleted contemplation")
	return nil
}

// AutoAllocate contemplates all active memberships that are not contemplated yet
// in random months that do not have a contemplation.
//
// Whole quotas are placed first, one per month. A membership is contemplated
// once all of its whole quotas are placed. Fractional quotas are bundled by the
// strategy, each bundle in one month. When the months run out, the remaining
// slots are returned as unplaced.
//
// Slots are only built for quota shares that have no contemplation yet. A
// membership whose contemplations already cover all of its quotas is marked
// contemplated without a new month.
func (a *Allocator) AutoAllocate(ctx context.Context, consortiumID uuid.UUID) (AutoAllocation, error) {
	unlock := a.lock(consortiumID)
	defer unlock()

	result := AutoAllocation{
		Policy:         a.strategy.Version(),
		Contemplations: make([]models.Contemplation, 0),
		Unplaced:       make([]Slot, 0),
	}

	err := a.store.Transaction(ctx, func(r Repositories) error {
		consortium, err := a.consortium(ctx, r, consortiumID)
		if err != nil {
			return err
		}

		active, err := r.Memberships.FindActiveByConsortium(ctx, consortiumID)
		if err != nil {
			return err
		}

		existing, err := r.Contemplations.FindByConsortium(ctx, consortiumID)
		if err != nil {
			return err
		}
		held, last := heldShares(existing)

		// Slots are built from the quota share a membership still needs.
		// Rows left over from a deleted contemplation count as placed.
		pending := make([]models.Membership, 0, len(active))
		rests := make([]models.Membership, 0, len(active))
		completed := 0
		total := decimal.Zero
		for i := range active {
			m := active[i]
			if m.Contemplated {
				continue
			}

			rest := a.rest(m, held)
			if rest.IsZero() {
				if err := markContemplated(ctx, r, &active[i], last[m.MemberID]); err != nil {
					return err
				}
				completed++
				continue
			}

			pending = append(pending, m)
			m.QuotaCount = rest
			rests = append(rests, m)
			total = total.Add(rest)
		}

		if len(pending) == 0 {
			if completed > 0 {
				return nil
			}
			return ErrNoPendingMemberships
		}

		if total.GreaterThan(decimal.NewFromInt(int64(consortium.TermMonths))) {
			return fmt.Errorf("%w: %s quotas for %d months", ErrQuotaExceedsTerm, total, consortium.TermMonths)
		}

		months := a.freeMonths(consortium.TermMonths, existing)

		whole, fractional := a.strategy.Split(rests)
		a.shuffleSlots(whole)
		a.shuffleSlots(fractional)

		byID := make(map[uuid.UUID]*models.Membership, len(pending))
		needed := make(map[uuid.UUID]int64, len(pending))
		for i := range pending {
			byID[pending[i].ID] = &pending[i]
			needed[pending[i].ID] = rests[i].QuotaCount.Floor().IntPart()
		}

		create := func(slot Slot, month int) error {
			contemplation := models.Contemplation{
				ConsortiumID:  consortium.ID,
				MemberID:      slot.MemberID,
				Month:         month,
				Date:          consortium.StartDate.AddMonths(month - 1),
				Type:          models.ContemplationAutomatic,
				AwardedAmount: consortium.TotalAmount,
				QuotaShare:    slot.Share,
			}

			if err := r.Contemplations.Create(ctx, &contemplation); err != nil {
				return err
			}

			result.Contemplations = append(result.Contemplations, contemplation)
			return nil
		}

		next := 0
		placed := make(map[uuid.UUID]int64, len(pending))
		for _, slot := range whole {
			if next >= len(months) {
				result.Unplaced = append(result.Unplaced, slot)
				continue
			}

			month := months[next]
			next++

			if err := create(slot, month); err != nil {
				return err
			}

			membership := byID[slot.MembershipID]
			placed[membership.ID]++
			if placed[membership.ID] >= needed[membership.ID] {
				if err := markContemplated(ctx, r, membership, month); err != nil {
					return err
				}
			}
		}

		for _, group := range a.strategy.Bundle(fractional, a.rules) {
			if next >= len(months) {
				result.Unplaced = append(result.Unplaced, group...)
				continue
			}

			month := months[next]
			next++

			for _, slot := range group {
				if err := create(slot, month); err != nil {
					return err
				}

				if err := markContemplated(ctx, r, byID[slot.MembershipID], month); err != nil {
					return err
				}
			}
		}

		return nil
	})
	if err != nil {
		return AutoAllocation{}, err
	}

	a.metrics.contemplated(models.ContemplationAutomatic, len(result.Contemplations))
	a.metrics.contemplationsUnplaced.Add(float64(len(result.Unplaced)))

	logger := log.Info()
	if len(result.Unplaced) > 0 {
		logger = log.Warn()
	}
	logger.Str("consortium", consortiumID.String()).Str("policy", result.Policy).Int("created", len(result.Contemplations)).Int("unplaced", len(result.Unplaced)).Msg("allocated contemplations automatically")

	return result, nil
}

// ListContemplations returns the contemplations of a consortium ordered by month.
func (a *Allocator) ListContemplations(ctx context.Context, consortiumID uuid.UUID) ([]models.Contemplation, error) {
	r := a.store.Repositories()
	if _, err := r.Consortiums.Get(ctx, consortiumID); err != nil {
		return nil, err
	}

	return r.Contemplations.FindByConsortium(ctx, consortiumID)
}

// freeMonths returns the months without a contemplation in random order.
func (a *Allocator) freeMonths(term int, existing []models.Contemplation) []int {
	taken := make(map[int]bool, len(existing))
	for _, c := range existing {
		taken[c.Month] = true
	}

	months := make([]int, 0, term)
	for m := 1; m <= term; m++ {
		if !taken[m] {
			months = append(months, m)
		}
	}

	a.shuffler.Shuffle(len(months), func(i, j int) {
		months[i], months[j] = months[j], months[i]
	})

	return months
}

func (a *Allocator) shuffleSlots(slots []Slot) {
	a.shuffler.Shuffle(len(slots), func(i, j int) {
		slots[i], slots[j] = slots[j], slots[i]
	})
}

// revertContemplated makes the membership not contemplated and
// recomputes its payment status.
func (c *core) revertContemplated(ctx context.Context, r Repositories, m *models.Membership) error {
	m.Contemplated = false
	m.ContemplationMonth = nil

	status, err := c.rollupStatus(ctx, r, *m)
	if err != nil {
		return err
	}

	m.PaymentStatus = status
	return r.Memberships.Save(ctx, m)
}

func markContemplated(ctx context.Context, r Repositories, m *models.Membership, month int) error {
	m.Contemplated = true
	m.ContemplationMonth = &month
	m.PaymentStatus = models.PaymentContemplated
	return r.Memberships.Save(ctx, m)
}

// activeMembership returns the active membership of the member.
func activeMembership(ctx context.Context, r Repositories, consortiumID, memberID uuid.UUID) (models.Membership, error) {
	m, err := r.Memberships.Find(ctx, consortiumID, memberID)
	if errors.Is(err, ErrNotFound) || (err == nil && !m.Active) {
		return models.Membership{}, fmt.Errorf("%w: member %s", ErrMembershipNotFound, memberID)
	}

	return m, err
}

func checkMonth(consortium models.Consortium, month int) error {
	if month < 1 || month > consortium.TermMonths {
		return fmt.Errorf("%w: month must be between 1 and %d, is %d", ErrInvalidMonth, consortium.TermMonths, month)
	}

	return nil
}

// heldShares sums the quota shares of the contemplations per member and
// returns the last month each member is contemplated in.
func heldShares(contemplations []models.Contemplation) (map[uuid.UUID]decimal.Decimal, map[uuid.UUID]int) {
	held := make(map[uuid.UUID]decimal.Decimal)
	last := make(map[uuid.UUID]int)
	for _, c := range contemplations {
		held[c.MemberID] = held[c.MemberID].Add(c.QuotaShare)
		if c.Month > last[c.MemberID] {
			last[c.MemberID] = c.Month
		}
	}

	return held, last
}

// rest returns the quota share of the membership that has no contemplation
// yet. Shares within the tolerance count as zero.
func (a *Allocator) rest(m models.Membership, held map[uuid.UUID]decimal.Decimal) decimal.Decimal {
	rest := m.QuotaCount.Sub(held[m.MemberID])
	if rest.LessThanOrEqual(a.rules.Epsilon) {
		return decimal.Zero
	}

	return rest
}

// shares sums the quota shares of the contemplations, skipping the
// contemplation with the excluded ID.
func shares(contemplations []models.Contemplation, exclude uuid.UUID) decimal.Decimal {
	sum := decimal.Zero
	for _, c := range contemplations {
		if c.ID == exclude {
			continue
		}
		sum = sum.Add(c.QuotaShare)
	}

	return sum
}
