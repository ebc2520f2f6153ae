package models

import (
	"strings"

	"github.com/consorcio/backend/internal/quota"
	"github.com/consorcio/backend/internal/types"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type ContemplationType string

const (
	ContemplationDraw      ContemplationType = "draw"
	ContemplationBid       ContemplationType = "bid"
	ContemplationAutomatic ContemplationType = "automatic"
)

// Contemplation awards the pooled amount of a consortium to a member
// in one month. A month holds several contemplations when their
// quota shares add up to one quota.
type Contemplation struct {
	DefaultModel
	ConsortiumID  uuid.UUID `gorm:"type:uuid;index:contemplation_consortium_month"`
	Consortium    Consortium
	MemberID      uuid.UUID `gorm:"type:uuid;index"`
	Member        Member
	Month         int `gorm:"index:contemplation_consortium_month"`
	Date          types.Date
	Type          ContemplationType
	AwardedAmount decimal.Decimal     `gorm:"type:DECIMAL(15,2)"`
	BidAmount     decimal.NullDecimal `gorm:"type:DECIMAL(15,2)"`
	QuotaShare    decimal.Decimal     `gorm:"type:DECIMAL(4,2)"` // Quota units of the month this contemplation uses
	Note          string
}

func (c Contemplation) Self() string {
	return "Contemplation"
}

func (c *Contemplation) BeforeSave(_ *gorm.DB) error {
	c.Note = strings.TrimSpace(c.Note)

	if c.Type == "" {
		c.Type = ContemplationAutomatic
	}

	if c.Month < 1 || c.Month > quota.MaxTermMonths {
		return ErrContemplationMonthOutOfRange
	}

	return c.Type.Validate()
}

// Validate checks that the type is a known contemplation type.
func (t ContemplationType) Validate() error {
	switch t {
	case ContemplationDraw, ContemplationBid, ContemplationAutomatic:
		return nil
	default:
		return ErrContemplationTypeInvalid
	}
}
