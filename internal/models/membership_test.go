package models_test

import (
	"github.com/consorcio/backend/internal/models"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"gorm.io/gorm"
)

func (suite *TestSuiteStandard) TestMembershipSelf() {
	assert.Equal(suite.T(), "Membership", models.Membership{}.Self())
	assert.Equal(suite.T(), "Member", models.Member{}.Self())
}

func (suite *TestSuiteStandard) TestMembershipBeforeSave() {
	m := models.Membership{QuotaCount: decimal.Zero}
	assert.Equal(suite.T(), models.ErrMembershipQuotaNotPositive, m.BeforeSave(&gorm.DB{}))

	month := 3
	m = models.Membership{QuotaCount: decimal.NewFromFloat(0.5), ContemplationMonth: &month}
	assert.Nil(suite.T(), m.BeforeSave(&gorm.DB{}))
	assert.Equal(suite.T(), models.PaymentCurrent, m.PaymentStatus)
	assert.Nil(suite.T(), m.ContemplationMonth, "contemplation month must be cleared for memberships that are not contemplated")
}

func (suite *TestSuiteStandard) TestMembershipNotUnique() {
	consortium := suite.createTestConsortium(models.Consortium{})
	member := suite.createTestMember(models.Member{})

	_ = suite.createTestMembership(models.Membership{ConsortiumID: consortium.ID, MemberID: member.ID, Active: true})

	err := models.DB.Create(&models.Membership{ConsortiumID: consortium.ID, MemberID: member.ID, QuotaCount: decimal.NewFromInt(1)}).Error
	assert.ErrorIs(suite.T(), err, models.ErrMembershipNotUnique)
}

func (suite *TestSuiteStandard) TestMemberNameEmpty() {
	err := models.DB.Create(&models.Member{Name: "   "}).Error
	assert.ErrorIs(suite.T(), err, models.ErrMemberNameEmpty)
}
