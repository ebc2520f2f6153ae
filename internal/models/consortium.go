package models

import (
	"strings"

	"github.com/consorcio/backend/internal/quota"
	"github.com/consorcio/backend/internal/types"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type ConsortiumStatus string

const (
	ConsortiumActive    ConsortiumStatus = "active"
	ConsortiumClosed    ConsortiumStatus = "closed"
	ConsortiumCancelled ConsortiumStatus = "cancelled"
)

// Consortium is a rotating savings group with a fixed pooled amount
// paid over a term of months.
type Consortium struct {
	DefaultModel
	ManagerID            uuid.UUID `gorm:"type:uuid;index"`
	Name                 string
	Description          string
	TotalAmount          decimal.Decimal `gorm:"type:DECIMAL(15,2)"`
	TermMonths           int
	TotalQuotas          int
	ManagerFee           decimal.Decimal `gorm:"type:DECIMAL(10,2)"` // Flat fee per month
	ProgressiveIncrement decimal.Decimal `gorm:"type:DECIMAL(10,2)"` // Added per quota and month
	StartDate            types.Date
	EndDate              *types.Date
	Status               ConsortiumStatus `gorm:"index"`
}

func (Consortium) TableName() string {
	return "consortiums"
}

func (c Consortium) Self() string {
	return "Consortium"
}

// QuotaParameters returns the values the monthly amounts derive from.
func (c Consortium) QuotaParameters() quota.Parameters {
	return quota.Parameters{
		TotalAmount:          c.TotalAmount,
		TermMonths:           c.TermMonths,
		TotalQuotas:          c.TotalQuotas,
		ManagerFee:           c.ManagerFee,
		ProgressiveIncrement: c.ProgressiveIncrement,
		StartDate:            c.StartDate,
	}
}

// BeforeSave
//   - trims whitespace from string fields
//   - defaults the status to active
//   - validates the parameters of the consortium
func (c *Consortium) BeforeSave(_ *gorm.DB) error {
	c.Name = strings.TrimSpace(c.Name)
	c.Description = strings.TrimSpace(c.Description)

	if c.Status == "" {
		c.Status = ConsortiumActive
	}

	return c.Validate()
}

// Validate checks the consortium for consistency.
func (c Consortium) Validate() error {
	if c.Name == "" {
		return ErrConsortiumNameEmpty
	}

	if c.TermMonths < 1 || c.TermMonths > quota.MaxTermMonths {
		return ErrConsortiumTermOutOfRange
	}

	if c.TotalQuotas < 1 {
		return ErrConsortiumQuotasNotPositive
	}

	if c.TotalAmount.IsNegative() || c.ManagerFee.IsNegative() || c.ProgressiveIncrement.IsNegative() {
		return ErrConsortiumAmountNegative
	}

	if c.StartDate.IsZero() {
		return ErrConsortiumStartDateMissing
	}

	if c.EndDate != nil && !c.EndDate.IsZero() && c.EndDate.Before(c.StartDate) {
		return ErrConsortiumEndBeforeStart
	}

	switch c.Status {
	case ConsortiumActive, ConsortiumClosed, ConsortiumCancelled:
	default:
		return ErrConsortiumStatusInvalid
	}

	return nil
}
