package engine

import (
	"fmt"
	"sort"

	"github.com/consorcio/backend/internal/models"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Slot is one contemplation a membership waits for. Whole slots have a
// share of one quota, fractional slots the fractional part of the quota count.
type Slot struct {
	MembershipID uuid.UUID
	MemberID     uuid.UUID
	Share        decimal.Decimal
}

// BundlingStrategy decides how automatic allocation splits memberships into
// slots and how fractional slots share a month.
type BundlingStrategy interface {
	// Version identifies the allocation policy.
	Version() string

	// Split returns the whole and fractional slots of the memberships.
	Split(memberships []models.Membership) (whole, fractional []Slot)

	// Bundle groups shuffled fractional slots. Each group is contemplated
	// in one month.
	Bundle(fractional []Slot, rules Rules) [][]Slot
}

// StrategyForPolicy returns the strategy for a policy version.
func StrategyForPolicy(policy string) (BundlingStrategy, error) {
	switch policy {
	case "", WholeQuotaFirst{}.Version(), "whole-quota-first":
		return WholeQuotaFirst{}, nil
	case FractionPairing{}.Version(), "fraction-pairing":
		return FractionPairing{}, nil
	default:
		return nil, fmt.Errorf("unknown allocation policy %q", policy)
	}
}

// WholeQuotaFirst seats every whole quota in a month of its own and
// fills months with fractional slots in shuffle order.
type WholeQuotaFirst struct{}

func (WholeQuotaFirst) Version() string {
	return "v1"
}

func (WholeQuotaFirst) Split(memberships []models.Membership) (whole, fractional []Slot) {
	return splitSlots(memberships)
}

// Bundle adds slots to the current group while the shares fit into one month
// and the group is not full. Otherwise the group is closed and the slot
// starts a new one.
func (WholeQuotaFirst) Bundle(fractional []Slot, rules Rules) [][]Slot {
	groups := make([][]Slot, 0)

	var current []Slot
	sum := decimal.Zero
	for _, slot := range fractional {
		if len(current) < rules.MaxGroupSize && sum.Add(slot.Share).LessThanOrEqual(rules.limit()) {
			current = append(current, slot)
			sum = sum.Add(slot.Share)
			continue
		}

		if len(current) > 0 {
			groups = append(groups, current)
		}

		current = []Slot{slot}
		sum = slot.Share
	}

	if len(current) > 0 {
		groups = append(groups, current)
	}

	return groups
}

// FractionPairing splits like WholeQuotaFirst, but bundles each fractional
// slot with the largest remaining slot that still fits, which uses fewer
// months than bundling in shuffle order.
type FractionPairing struct{}

func (FractionPairing) Version() string {
	return "v2"
}

func (FractionPairing) Split(memberships []models.Membership) (whole, fractional []Slot) {
	return splitSlots(memberships)
}

func (FractionPairing) Bundle(fractional []Slot, rules Rules) [][]Slot {
	slots := make([]Slot, len(fractional))
	copy(slots, fractional)

	// Stable to keep the shuffled order for equal shares
	sort.SliceStable(slots, func(i, j int) bool {
		return slots[i].Share.GreaterThan(slots[j].Share)
	})

	used := make([]bool, len(slots))
	groups := make([][]Slot, 0)
	for i, slot := range slots {
		if used[i] {
			continue
		}
		used[i] = true

		group := []Slot{slot}
		sum := slot.Share
		for j := i + 1; j < len(slots) && len(group) < rules.MaxGroupSize; j++ {
			if used[j] || sum.Add(slots[j].Share).GreaterThan(rules.limit()) {
				continue
			}

			used[j] = true
			group = append(group, slots[j])
			sum = sum.Add(slots[j].Share)
		}

		groups = append(groups, group)
	}

	return groups
}

// splitSlots gives a membership with quota count q floor(q) whole slots and
// one fractional slot for the remainder, if there is one.
func splitSlots(memberships []models.Membership) (whole, fractional []Slot) {
	whole = make([]Slot, 0)
	fractional = make([]Slot, 0)

	one := decimal.NewFromInt(1)
	for _, m := range memberships {
		integer := m.QuotaCount.Floor()
		for i := int64(0); i < integer.IntPart(); i++ {
			whole = append(whole, Slot{MembershipID: m.ID, MemberID: m.MemberID, Share: one})
		}

		if rest := m.QuotaCount.Sub(integer); rest.IsPositive() {
			fractional = append(fractional, Slot{MembershipID: m.ID, MemberID: m.MemberID, Share: rest})
		}
	}

	return whole, fractional
}
