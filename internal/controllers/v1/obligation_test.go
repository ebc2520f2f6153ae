package v1_test

import (
	"fmt"
	"net/http"
	"testing"
	"time"

	v1 "github.com/consorcio/backend/internal/controllers/v1"
	"github.com/consorcio/backend/internal/engine"
	"github.com/consorcio/backend/internal/models"
	"github.com/consorcio/backend/test"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func (suite *TestSuiteStandard) TestScheduleGenerate() {
	c := suite.createTestConsortium(v1.ConsortiumEditable{ProgressiveIncrement: decimal.NewFromInt(5)})
	full := suite.join(c.Data.ID, "1")
	_ = suite.join(c.Data.ID, "0.5")

	obligations := suite.generateSchedule(c.Data.ID)
	require.Len(suite.T(), obligations, 24)

	for _, o := range obligations {
		assert.Equal(suite.T(), models.ObligationPending, o.Status)
		assert.Equal(suite.T(), 8, o.DueDate.Time().Day(), "Obligations are due on the 8th")
		assert.Equal(suite.T(), fmt.Sprintf("http://example.com/v1/obligations/%s/payments", o.ID), o.Links.Payments)

		if o.MembershipID == full.ID && o.Month == 3 {
			// 1000 per quota plus 2 months of increment
			assert.True(suite.T(), decimal.NewFromInt(1010).Equal(o.ExpectedAmount), "got %s", o.ExpectedAmount)
		}
	}

	// Generating again does not create any obligations
	r := test.Request(suite.T(), http.MethodPost, c.Data.Links.Schedule, "")
	test.AssertHTTPStatus(suite.T(), &r, http.StatusCreated)

	var response v1.ObligationListResponse
	test.DecodeResponse(suite.T(), &r, &response)
	assert.Len(suite.T(), response.Data, 0)
}

func (suite *TestSuiteStandard) TestScheduleRegenerate() {
	c := suite.createTestConsortium(v1.ConsortiumEditable{})
	_ = suite.join(c.Data.ID, "1")
	obligations := suite.generateSchedule(c.Data.ID)

	r := test.Request(suite.T(), http.MethodPost, obligations[0].Links.Payments, v1.Payment{Amount: decimal.NewFromInt(1000)})
	test.AssertHTTPStatus(suite.T(), &r, http.StatusOK)

	r = test.Request(suite.T(), http.MethodPut, c.Data.Links.Schedule, "")
	test.AssertHTTPStatus(suite.T(), &r, http.StatusOK)

	var response v1.ObligationListResponse
	test.DecodeResponse(suite.T(), &r, &response)
	require.Len(suite.T(), response.Data, 12)
	for _, o := range response.Data {
		assert.Equal(suite.T(), models.ObligationPending, o.Status, "Regeneration discards payments")
	}
}

func (suite *TestSuiteStandard) TestScheduleNotFound() {
	for _, method := range []string{http.MethodPost, http.MethodPut} {
		suite.T().Run(method, func(t *testing.T) {
			r := test.Request(t, method, fmt.Sprintf("http://example.com/v1/consortiums/%s/schedule", uuid.New()), "")
			test.AssertHTTPStatus(t, &r, http.StatusNotFound)
		})
	}
}

func (suite *TestSuiteStandard) TestObligationsGetFilter() {
	c := suite.createTestConsortium(v1.ConsortiumEditable{})
	_ = suite.join(c.Data.ID, "1")
	_ = suite.join(c.Data.ID, "1")
	_ = suite.generateSchedule(c.Data.ID)

	tests := []struct {
		name   string
		query  string
		len    int
		status int
	}{
		{"All months", "", 24, http.StatusOK},
		{"Month 1", "month=1", 2, http.StatusOK},
		{"Last month", "month=12", 2, http.StatusOK},
		{"Month after the term", "month=13", 0, http.StatusBadRequest},
		{"Negative month", "month=-1", 0, http.StatusBadRequest},
		{"Month not a number", "month=March", 0, http.StatusBadRequest},
		{"Period", "period=2024-03", 2, http.StatusOK},
		{"Period and month", "period=2024-03&month=3", 2, http.StatusOK},
		{"Period and other month", "period=2024-03&month=4", 0, http.StatusOK},
		{"Period before the start", "period=2023-12", 0, http.StatusOK},
		{"Period not a month", "period=March", 0, http.StatusBadRequest},
	}

	for _, tt := range tests {
		suite.T().Run(tt.name, func(t *testing.T) {
			r := test.Request(t, http.MethodGet, fmt.Sprintf("%s?%s", c.Data.Links.Obligations, tt.query), "")
			test.AssertHTTPStatus(t, &r, tt.status)

			var response v1.ObligationListResponse
			test.DecodeResponse(t, &r, &response)
			assert.Len(t, response.Data, tt.len)
		})
	}
}

func (suite *TestSuiteStandard) TestObligationsSorted() {
	c := suite.createTestConsortium(v1.ConsortiumEditable{})
	_ = suite.join(c.Data.ID, "1")
	_ = suite.generateSchedule(c.Data.ID)

	r := test.Request(suite.T(), http.MethodGet, c.Data.Links.Obligations, "")
	var response v1.ObligationListResponse
	test.DecodeResponse(suite.T(), &r, &response)

	for i := 1; i < len(response.Data); i++ {
		assert.False(suite.T(), response.Data[i].DueDate.Before(response.Data[i-1].DueDate), "Obligations must be sorted by due date")
	}
}

func (suite *TestSuiteStandard) TestPayments() {
	c := suite.createTestConsortium(v1.ConsortiumEditable{})
	_ = suite.join(c.Data.ID, "1")
	obligations := suite.generateSchedule(c.Data.ID)

	tests := []struct {
		name       string
		obligation v1.Obligation
		amount     string
		status     models.ObligationStatus
	}{
		{"Full payment", obligations[0], "1000", models.ObligationPaid},
		{"Overpayment", obligations[1], "1200", models.ObligationPaid},
		{"Partial payment", obligations[2], "400", models.ObligationPartial},
	}

	for _, tt := range tests {
		suite.T().Run(tt.name, func(t *testing.T) {
			r := test.Request(t, http.MethodPost, tt.obligation.Links.Payments, v1.Payment{Amount: decimal.RequireFromString(tt.amount)})
			test.AssertHTTPStatus(t, &r, http.StatusOK)

			var response v1.ObligationResponse
			test.DecodeResponse(t, &r, &response)
			assert.Equal(t, tt.status, response.Data.Status)
			assert.True(t, response.Data.PaidAmount.Valid)
			assert.True(t, decimal.RequireFromString(tt.amount).Equal(response.Data.PaidAmount.Decimal))
			assert.NotNil(t, response.Data.PaidAt)
		})
	}
}

func (suite *TestSuiteStandard) TestPaymentsInvalid() {
	c := suite.createTestConsortium(v1.ConsortiumEditable{})
	_ = suite.join(c.Data.ID, "1")
	obligations := suite.generateSchedule(c.Data.ID)

	tests := []struct {
		name   string
		path   string
		body   any
		status int
	}{
		{"Zero amount", obligations[0].Links.Payments, v1.Payment{}, http.StatusBadRequest},
		{"Negative amount", obligations[0].Links.Payments, v1.Payment{Amount: decimal.NewFromInt(-10)}, http.StatusBadRequest},
		{"Empty body", obligations[0].Links.Payments, "", http.StatusBadRequest},
		{"Invalid ID", "http://example.com/v1/obligations/notaUUID/payments", v1.Payment{Amount: decimal.NewFromInt(10)}, http.StatusBadRequest},
		{"No obligation with this ID", fmt.Sprintf("http://example.com/v1/obligations/%s/payments", uuid.New()), v1.Payment{Amount: decimal.NewFromInt(10)}, http.StatusNotFound},
	}

	for _, tt := range tests {
		suite.T().Run(tt.name, func(t *testing.T) {
			r := test.Request(t, http.MethodPost, tt.path, tt.body)
			test.AssertHTTPStatus(t, &r, tt.status)
		})
	}
}

func (suite *TestSuiteStandard) TestSummary() {
	c := suite.createTestConsortium(v1.ConsortiumEditable{TermMonths: 4})
	_ = suite.join(c.Data.ID, "1")
	obligations := suite.generateSchedule(c.Data.ID)
	require.Len(suite.T(), obligations, 4)

	r := test.Request(suite.T(), http.MethodPost, obligations[0].Links.Payments, v1.Payment{Amount: decimal.NewFromInt(1000)})
	test.AssertHTTPStatus(suite.T(), &r, http.StatusOK)
	r = test.Request(suite.T(), http.MethodPost, obligations[1].Links.Payments, v1.Payment{Amount: decimal.NewFromInt(250)})
	test.AssertHTTPStatus(suite.T(), &r, http.StatusOK)

	r = test.Request(suite.T(), http.MethodGet, fmt.Sprintf("http://example.com/v1/consortiums/%s/summary", c.Data.ID), "")
	test.AssertHTTPStatus(suite.T(), &r, http.StatusOK)

	var response v1.SummaryResponse
	test.DecodeResponse(suite.T(), &r, &response)

	assert.Equal(suite.T(), 4, response.Data.Total)
	assert.Equal(suite.T(), 1, response.Data.Paid)
	assert.Equal(suite.T(), 1, response.Data.Partial)
	assert.Equal(suite.T(), 2, response.Data.Pending)
	assert.Equal(suite.T(), 25, response.Data.PercentPaid)
	assert.True(suite.T(), decimal.NewFromInt(4000).Equal(response.Data.ExpectedAmount), "got %s", response.Data.ExpectedAmount)
	assert.True(suite.T(), decimal.NewFromInt(1250).Equal(response.Data.PaidAmount), "got %s", response.Data.PaidAmount)
}

func (suite *TestSuiteStandard) TestSummaryNotFound() {
	r := test.Request(suite.T(), http.MethodGet, fmt.Sprintf("http://example.com/v1/consortiums/%s/summary", uuid.New()), "")
	test.AssertHTTPStatus(suite.T(), &r, http.StatusNotFound)
}

// TestSweep verifies that the sweep marks pending obligations due before
// today as overdue.
func (suite *TestSuiteStandard) TestSweep() {
	c := suite.createTestConsortium(v1.ConsortiumEditable{})
	membership := suite.join(c.Data.ID, "1")
	obligations := suite.generateSchedule(c.Data.ID)

	// January is paid, the obligations of February and March are due before
	// March 20th
	r := test.Request(suite.T(), http.MethodPost, obligations[0].Links.Payments, v1.Payment{Amount: decimal.NewFromInt(1000)})
	test.AssertHTTPStatus(suite.T(), &r, http.StatusOK)

	clock := engine.WithClock(func() time.Time {
		return time.Date(2024, time.March, 20, 12, 0, 0, 0, time.UTC)
	})

	r = test.Request(suite.T(), http.MethodPost, "http://example.com/v1/sweeps", "", clock)
	test.AssertHTTPStatus(suite.T(), &r, http.StatusOK)

	var response v1.SweepResponse
	test.DecodeResponse(suite.T(), &r, &response)
	assert.Equal(suite.T(), 2, response.Data.Marked)

	// A second sweep finds nothing to do
	r = test.Request(suite.T(), http.MethodPost, "http://example.com/v1/sweeps", "", clock)
	test.DecodeResponse(suite.T(), &r, &response)
	assert.Equal(suite.T(), 0, response.Data.Marked)

	r = test.Request(suite.T(), http.MethodGet, c.Data.Links.Memberships, "")
	var memberships v1.MembershipListResponse
	test.DecodeResponse(suite.T(), &r, &memberships)
	require.Len(suite.T(), memberships.Data, 1)
	assert.Equal(suite.T(), membership.ID, memberships.Data[0].ID)
	assert.Equal(suite.T(), models.PaymentOverdue, memberships.Data[0].PaymentStatus)
}

func (suite *TestSuiteStandard) TestSweepDBClosed() {
	suite.CloseDB()

	r := test.Request(suite.T(), http.MethodPost, "http://example.com/v1/sweeps", "")
	test.AssertHTTPStatus(suite.T(), &r, http.StatusInternalServerError)
}
