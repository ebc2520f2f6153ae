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
	"golang.org/x/text/language"
)

func (suite *TestSuiteStandard) TestTimeline() {
	c := suite.createTestConsortium(v1.ConsortiumEditable{})
	first := suite.join(c.Data.ID, "1")
	second := suite.join(c.Data.ID, "0.5")
	_ = suite.contemplate(c.Data.ID, 2, http.StatusCreated, first.MemberID)

	opts := []engine.Option{
		engine.WithLocale(language.English),
		engine.WithClock(func() time.Time {
			return time.Date(2024, time.March, 20, 12, 0, 0, 0, time.UTC)
		}),
	}

	r := test.Request(suite.T(), http.MethodGet, fmt.Sprintf("http://example.com/v1/consortiums/%s/timeline", c.Data.ID), "", opts...)
	test.AssertHTTPStatus(suite.T(), &r, http.StatusOK)

	var response v1.TimelineResponse
	test.DecodeResponse(suite.T(), &r, &response)
	require.NotNil(suite.T(), response.Data)
	timeline := response.Data

	assert.Equal(suite.T(), c.Data.ID, timeline.Consortium.ID)
	assert.Equal(suite.T(), 3, timeline.CurrentMonth)

	require.Len(suite.T(), timeline.Months, 12)
	for i, month := range timeline.Months {
		assert.Equal(suite.T(), i+1, month.Month)
		assert.Equal(suite.T(), 15, month.Date.Time().Day())

		if month.Month == 2 {
			require.Len(suite.T(), month.Contemplations, 1)
			assert.Equal(suite.T(), first.MemberID, month.Contemplations[0].MemberID)
			assert.NotEmpty(suite.T(), month.Contemplations[0].MemberName)
			assert.True(suite.T(), decimal.NewFromInt(1).Equal(month.QuotaShare))
			continue
		}

		assert.Len(suite.T(), month.Contemplations, 0, "month %d", month.Month)
		assert.True(suite.T(), month.QuotaShare.IsZero())
	}

	require.Len(suite.T(), timeline.Memberships, 2)
	for _, m := range timeline.Memberships {
		assert.NotEmpty(suite.T(), m.MemberName)
		assert.Contains(suite.T(), []uuid.UUID{first.ID, second.ID}, m.ID)
	}

	assert.Equal(suite.T(), 12, timeline.Quotas.TotalQuotas)
	assert.Equal(suite.T(), 2, timeline.Quotas.ActiveMembers)
	assert.True(suite.T(), decimal.RequireFromString("1.5").Equal(timeline.Quotas.Filled), "got %s", timeline.Quotas.Filled)
	assert.True(suite.T(), decimal.RequireFromString("10.5").Equal(timeline.Quotas.Available), "got %s", timeline.Quotas.Available)
	assert.True(suite.T(), decimal.NewFromInt(1).Equal(timeline.Quotas.Contemplated), "got %s", timeline.Quotas.Contemplated)

	// The timeline generates the missing obligations
	assert.Equal(suite.T(), 24, timeline.Payments.Total)
	assert.Equal(suite.T(), 24, timeline.Payments.Pending)

	assert.Equal(suite.T(), "12,000.00", timeline.Formatted.TotalAmount)
	assert.Equal(suite.T(), "0.00", timeline.Formatted.ManagerFee)
	assert.Equal(suite.T(), "18,000.00", timeline.Formatted.ExpectedAmount)
	assert.Equal(suite.T(), "0.00", timeline.Formatted.PaidAmount)
}

func (suite *TestSuiteStandard) TestTimelineDefaultLocale() {
	c := suite.createTestConsortium(v1.ConsortiumEditable{})

	r := test.Request(suite.T(), http.MethodGet, fmt.Sprintf("http://example.com/v1/consortiums/%s/timeline", c.Data.ID), "")
	test.AssertHTTPStatus(suite.T(), &r, http.StatusOK)

	var response v1.TimelineResponse
	test.DecodeResponse(suite.T(), &r, &response)
	assert.Equal(suite.T(), "12.000,00", response.Data.Formatted.TotalAmount)
}

func (suite *TestSuiteStandard) TestTimelineInvalid() {
	tests := []struct {
		name   string
		id     string
		status int
	}{
		{"No Consortium with this ID", uuid.New().String(), http.StatusNotFound},
		{"Invalid ID (string)", "notaUUID", http.StatusBadRequest},
	}

	for _, tt := range tests {
		suite.T().Run(tt.name, func(t *testing.T) {
			r := test.Request(t, http.MethodGet, fmt.Sprintf("http://example.com/v1/consortiums/%s/timeline", tt.id), "")
			test.AssertHTTPStatus(t, &r, tt.status)

			var response v1.TimelineResponse
			test.DecodeResponse(t, &r, &response)
			assert.NotNil(t, response.Error)
		})
	}
}

func (suite *TestSuiteStandard) TestDashboard() {
	manager := uuid.New()

	var consortiums []v1.ConsortiumResponse
	for i := 0; i < 5; i++ {
		consortiums = append(consortiums, suite.createTestConsortium(v1.ConsortiumEditable{ManagerID: manager}))
	}
	_ = suite.createTestConsortium(v1.ConsortiumEditable{ManagerID: manager, Status: models.ConsortiumClosed})
	other := suite.createTestConsortium(v1.ConsortiumEditable{})

	_ = suite.join(consortiums[0].Data.ID, "1")
	_ = suite.join(consortiums[1].Data.ID, "1")
	left := suite.join(consortiums[1].Data.ID, "1")
	_ = suite.join(other.Data.ID, "1")

	r := test.Request(suite.T(), http.MethodDelete, left.Links.Leave, "")
	test.AssertHTTPStatus(suite.T(), &r, http.StatusNoContent)

	r = test.Request(suite.T(), http.MethodGet, fmt.Sprintf("http://example.com/v1/dashboard?manager=%s", manager), "")
	test.AssertHTTPStatus(suite.T(), &r, http.StatusOK)

	var response v1.DashboardResponse
	test.DecodeResponse(suite.T(), &r, &response)
	require.NotNil(suite.T(), response.Data)

	assert.Equal(suite.T(), int64(5), response.Data.ActiveConsortiums)
	assert.Equal(suite.T(), int64(1), response.Data.ClosedConsortiums)
	assert.Equal(suite.T(), int64(2), response.Data.ActiveMembers, "Members who left and members of other managers are not counted")
	require.Len(suite.T(), response.Data.Recent, 5)
	for _, consortium := range response.Data.Recent {
		assert.Equal(suite.T(), manager, consortium.ManagerID)
	}
}

func (suite *TestSuiteStandard) TestDashboardInvalid() {
	tests := []struct {
		name   string
		query  string
		status int
	}{
		{"No manager", "", http.StatusBadRequest},
		{"Invalid manager", "manager=notaUUID", http.StatusBadRequest},
		{"Unknown manager", fmt.Sprintf("manager=%s", uuid.New()), http.StatusOK},
	}

	for _, tt := range tests {
		suite.T().Run(tt.name, func(t *testing.T) {
			r := test.Request(t, http.MethodGet, fmt.Sprintf("http://example.com/v1/dashboard?%s", tt.query), "")
			test.AssertHTTPStatus(t, &r, tt.status)

			var response v1.DashboardResponse
			test.DecodeResponse(t, &r, &response)
			if tt.status == http.StatusOK {
				assert.Equal(t, int64(0), response.Data.ActiveConsortiums)
				assert.Len(t, response.Data.Recent, 0)
				return
			}
			assert.NotNil(t, response.Error)
		})
	}
}

func (suite *TestSuiteStandard) TestDashboardDBClosed() {
	suite.CloseDB()

	r := test.Request(suite.T(), http.MethodGet, fmt.Sprintf("http://example.com/v1/dashboard?manager=%s", uuid.New()), "")
	test.AssertHTTPStatus(suite.T(), &r, http.StatusInternalServerError)
}
