package models_test

import (
	"time"

	"github.com/consorcio/backend/internal/models"
	"github.com/consorcio/backend/internal/types"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func (suite *TestSuiteStandard) TestObligationBeforeSave() {
	tests := []struct {
		name       string
		obligation models.Obligation
		err        error
	}{
		{"Defaults to pending", models.Obligation{Month: 1}, nil},
		{"Month zero", models.Obligation{Month: 0}, models.ErrObligationMonthNotPositive},
		{"Invalid status", models.Obligation{Month: 1, Status: "cancelled"}, models.ErrObligationStatusInvalid},
	}

	for _, tt := range tests {
		err := tt.obligation.BeforeSave(&gorm.DB{})
		assert.Equal(suite.T(), tt.err, err, tt.name)
	}

	o := models.Obligation{Month: 1, Note: "  note "}
	require.Nil(suite.T(), o.BeforeSave(&gorm.DB{}))
	assert.Equal(suite.T(), models.ObligationPending, o.Status)
	assert.Equal(suite.T(), "note", o.Note)
}

func (suite *TestSuiteStandard) TestObligationNotUnique() {
	consortium := suite.createTestConsortium(models.Consortium{})
	member := suite.createTestMember(models.Member{})
	membership := suite.createTestMembership(models.Membership{ConsortiumID: consortium.ID, MemberID: member.ID, Active: true})

	obligation := func() *models.Obligation {
		return &models.Obligation{
			ConsortiumID:   consortium.ID,
			MemberID:       member.ID,
			MembershipID:   membership.ID,
			Month:          1,
			DueDate:        types.NewDate(2024, time.January, 8),
			ExpectedAmount: decimal.NewFromInt(100),
		}
	}

	require.Nil(suite.T(), models.DB.Create(obligation()).Error)
	err := models.DB.Create(obligation()).Error
	assert.ErrorIs(suite.T(), err, models.ErrObligationNotUnique)
}

func (suite *TestSuiteStandard) TestObligationPaidAtUTC() {
	consortium := suite.createTestConsortium(models.Consortium{})
	member := suite.createTestMember(models.Member{})
	membership := suite.createTestMembership(models.Membership{ConsortiumID: consortium.ID, MemberID: member.ID, Active: true})

	paidAt := time.Date(2024, time.February, 3, 10, 0, 0, 0, time.FixedZone("BRT", -3*60*60))
	o := models.Obligation{
		ConsortiumID:   consortium.ID,
		MemberID:       member.ID,
		MembershipID:   membership.ID,
		Month:          1,
		DueDate:        types.NewDate(2024, time.January, 8),
		ExpectedAmount: decimal.NewFromInt(100),
		PaidAt:         &paidAt,
		PaidAmount:     decimal.NewNullDecimal(decimal.NewFromInt(100)),
		Status:         models.ObligationPaid,
	}
	require.Nil(suite.T(), models.DB.Create(&o).Error)

	var found models.Obligation
	require.Nil(suite.T(), models.DB.First(&found, "id = ?", o.ID).Error)
	require.NotNil(suite.T(), found.PaidAt)
	assert.Equal(suite.T(), time.UTC, found.PaidAt.Location())
	assert.True(suite.T(), paidAt.Equal(*found.PaidAt))
	assert.True(suite.T(), found.DueDate.Equal(types.NewDate(2024, time.January, 8)), "got %s", found.DueDate)
}
