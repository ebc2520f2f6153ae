package models

import (
	"strings"
	"time"

	"github.com/consorcio/backend/internal/types"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type ObligationStatus string

const (
	ObligationPending ObligationStatus = "pending"
	ObligationPaid    ObligationStatus = "paid"
	ObligationOverdue ObligationStatus = "overdue"
	ObligationPartial ObligationStatus = "partial"
)

// Obligation is the payment a member owes for one month of a consortium.
type Obligation struct {
	DefaultModel
	ConsortiumID   uuid.UUID `gorm:"type:uuid;uniqueIndex:obligation_consortium_member_month"`
	Consortium     Consortium
	MemberID       uuid.UUID `gorm:"type:uuid;uniqueIndex:obligation_consortium_member_month"`
	MembershipID   uuid.UUID `gorm:"type:uuid;index"`
	Membership     Membership
	Month          int                 `gorm:"uniqueIndex:obligation_consortium_member_month"` // 1-based month of the consortium
	DueDate        types.Date          `gorm:"index"`
	ExpectedAmount decimal.Decimal     `gorm:"type:DECIMAL(15,2)"`
	PaidAmount     decimal.NullDecimal `gorm:"type:DECIMAL(15,2)"`
	PaidAt         *time.Time
	Status         ObligationStatus `gorm:"index"`
	Note           string
}

func (o Obligation) Self() string {
	return "Obligation"
}

// AfterFind enforces UTC for the payment time.
func (o *Obligation) AfterFind(tx *gorm.DB) (err error) {
	err = o.DefaultModel.AfterFind(tx)
	if err != nil {
		return err
	}

	if o.PaidAt != nil {
		paidAt := o.PaidAt.In(time.UTC)
		o.PaidAt = &paidAt
	}
	return nil
}

func (o *Obligation) BeforeSave(_ *gorm.DB) error {
	o.Note = strings.TrimSpace(o.Note)

	if o.Status == "" {
		o.Status = ObligationPending
	}

	if o.Month < 1 {
		return ErrObligationMonthNotPositive
	}

	switch o.Status {
	case ObligationPending, ObligationPaid, ObligationOverdue, ObligationPartial:
	default:
		return ErrObligationStatusInvalid
	}

	return nil
}
