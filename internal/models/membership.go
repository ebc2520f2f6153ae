package models

import (
	"github.com/consorcio/backend/internal/types"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type PaymentStatus string

const (
	PaymentCurrent      PaymentStatus = "current"
	PaymentOverdue      PaymentStatus = "overdue"
	PaymentContemplated PaymentStatus = "contemplated"
)

// Membership associates a member with a consortium. There is one row per
// consortium and member, leaving deactivates it and rejoining activates it
// again.
type Membership struct {
	DefaultModel
	ConsortiumID       uuid.UUID `gorm:"type:uuid;uniqueIndex:membership_consortium_member"`
	Consortium         Consortium
	MemberID           uuid.UUID `gorm:"type:uuid;uniqueIndex:membership_consortium_member"`
	Member             Member
	QuotaCount         decimal.Decimal `gorm:"type:DECIMAL(4,1)"`
	IndividualAmount   decimal.Decimal `gorm:"type:DECIMAL(15,2)"` // Fixed monthly amount, frozen when the schedule is generated
	JoinedAt           types.Date
	LeftAt             *types.Date
	Active             bool `gorm:"index"`
	Contemplated       bool
	ContemplationMonth *int
	PaymentStatus      PaymentStatus
}

func (m Membership) Self() string {
	return "Membership"
}

func (m *Membership) BeforeSave(_ *gorm.DB) error {
	if !m.QuotaCount.IsPositive() {
		return ErrMembershipQuotaNotPositive
	}

	if m.PaymentStatus == "" {
		m.PaymentStatus = PaymentCurrent
	}

	if m.LeftAt != nil && m.LeftAt.IsZero() {
		m.LeftAt = nil
	}

	if !m.Contemplated {
		m.ContemplationMonth = nil
	}

	return nil
}
