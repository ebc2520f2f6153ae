package v1_test

import (
	"fmt"
	"net/http"
	"testing"

	v1 "github.com/consorcio/backend/internal/controllers/v1"
	"github.com/consorcio/backend/internal/models"
	"github.com/consorcio/backend/test"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestContemplationsOptions verifies that OPTIONS requests are handled correctly.
func (suite *TestSuiteStandard) TestContemplationsOptions() {
	c := suite.createTestConsortium(v1.ConsortiumEditable{})
	membership := suite.join(c.Data.ID, "1")
	created := suite.contemplate(c.Data.ID, 1, http.StatusCreated, membership.MemberID)

	tests := []struct {
		name   string
		id     string
		status int
	}{
		{"No Contemplation with this ID", uuid.New().String(), http.StatusNotFound},
		{"Not a valid UUID", "NotParseableAsUUID", http.StatusBadRequest},
		{"Contemplation exists", created.Data[0].ID.String(), http.StatusNoContent},
	}

	for _, tt := range tests {
		suite.T().Run(tt.name, func(t *testing.T) {
			r := test.Request(t, http.MethodOptions, fmt.Sprintf("http://example.com/v1/contemplations/%s", tt.id), "")
			test.AssertHTTPStatus(t, &r, tt.status)

			if tt.status == http.StatusNoContent {
				assert.Equal(t, "OPTIONS, GET, PATCH, DELETE", r.Header().Get("allow"))
			}
		})
	}
}

func (suite *TestSuiteStandard) TestContemplationsCreate() {
	c := suite.createTestConsortium(v1.ConsortiumEditable{})
	membership := suite.join(c.Data.ID, "1")

	response := suite.contemplate(c.Data.ID, 3, http.StatusCreated, membership.MemberID)
	require.Len(suite.T(), response.Data, 1)

	contemplation := response.Data[0]
	assert.Equal(suite.T(), 3, contemplation.Month)
	assert.Equal(suite.T(), "2024-03-15", contemplation.Date.String())
	assert.Equal(suite.T(), models.ContemplationAutomatic, contemplation.Type, "The type defaults to automatic")
	assert.True(suite.T(), c.Data.TotalAmount.Equal(contemplation.AwardedAmount), "got %s", contemplation.AwardedAmount)
	assert.True(suite.T(), decimal.NewFromInt(1).Equal(contemplation.QuotaShare))
	assert.Equal(suite.T(), fmt.Sprintf("http://example.com/v1/contemplations/%s", contemplation.ID), contemplation.Links.Self)
	assert.Equal(suite.T(), fmt.Sprintf("http://example.com/v1/members/%s", membership.MemberID), contemplation.Links.Member)

	r := test.Request(suite.T(), http.MethodGet, c.Data.Links.Memberships, "")
	var memberships v1.MembershipListResponse
	test.DecodeResponse(suite.T(), &r, &memberships)
	require.Len(suite.T(), memberships.Data, 1)
	assert.True(suite.T(), memberships.Data[0].Contemplated)
	require.NotNil(suite.T(), memberships.Data[0].ContemplationMonth)
	assert.Equal(suite.T(), 3, *memberships.Data[0].ContemplationMonth)
}

// TestContemplationsHalfQuotas verifies that two half quotas share a month
// and that the month cannot take any more quota shares.
func (suite *TestSuiteStandard) TestContemplationsHalfQuotas() {
	c := suite.createTestConsortium(v1.ConsortiumEditable{})
	first := suite.join(c.Data.ID, "0.5")
	second := suite.join(c.Data.ID, "0.5")
	third := suite.join(c.Data.ID, "0.5")

	response := suite.contemplate(c.Data.ID, 2, http.StatusCreated, first.MemberID, second.MemberID)
	require.Len(suite.T(), response.Data, 2)

	response = suite.contemplate(c.Data.ID, 2, http.StatusConflict, third.MemberID)
	require.NotNil(suite.T(), response.Error)
	require.NotNil(suite.T(), response.Quota, "Quota details must be set for capacity errors")
	assert.Equal(suite.T(), 2, response.Quota.Month)
	assert.True(suite.T(), decimal.NewFromInt(1).Equal(response.Quota.Used), "got %s", response.Quota.Used)
	assert.True(suite.T(), decimal.RequireFromString("0.5").Equal(response.Quota.Requested), "got %s", response.Quota.Requested)
}

func (suite *TestSuiteStandard) TestContemplationsCreateFails() {
	c := suite.createTestConsortium(v1.ConsortiumEditable{})
	contemplated := suite.join(c.Data.ID, "1")
	single := suite.join(c.Data.ID, "1")
	half := suite.join(c.Data.ID, "0.5")
	_ = suite.contemplate(c.Data.ID, 1, http.StatusCreated, contemplated.MemberID)

	tests := []struct {
		name   string
		body   any
		status int
		quota  bool
	}{
		{"No members", v1.ContemplationCreate{Month: 2}, http.StatusBadRequest, false},
		{"Month zero", v1.ContemplationCreate{Month: 0, MemberIDs: []uuid.UUID{single.MemberID}}, http.StatusBadRequest, false},
		{"Month after term", v1.ContemplationCreate{Month: 13, MemberIDs: []uuid.UUID{single.MemberID}}, http.StatusBadRequest, false},
		{"Invalid type", v1.ContemplationCreate{Month: 2, Type: "lottery", MemberIDs: []uuid.UUID{single.MemberID}}, http.StatusBadRequest, false},
		{"Same member twice", v1.ContemplationCreate{Month: 2, MemberIDs: []uuid.UUID{half.MemberID, half.MemberID}}, http.StatusBadRequest, false},
		{"Not a member", v1.ContemplationCreate{Month: 2, MemberIDs: []uuid.UUID{uuid.New()}}, http.StatusNotFound, false},
		{"Already contemplated", v1.ContemplationCreate{Month: 2, MemberIDs: []uuid.UUID{contemplated.MemberID}}, http.StatusConflict, false},
		{"Month occupied", v1.ContemplationCreate{Month: 1, MemberIDs: []uuid.UUID{half.MemberID}}, http.StatusConflict, true},
		{"More than one quota", v1.ContemplationCreate{Month: 2, MemberIDs: []uuid.UUID{single.MemberID, half.MemberID}}, http.StatusConflict, true},
		{"Broken body", `{ "month": "two" }`, http.StatusBadRequest, false},
	}

	for _, tt := range tests {
		suite.T().Run(tt.name, func(t *testing.T) {
			r := test.Request(t, http.MethodPost, fmt.Sprintf("http://example.com/v1/consortiums/%s/contemplations", c.Data.ID), tt.body)
			test.AssertHTTPStatus(t, &r, tt.status)

			var response v1.ContemplationListResponse
			test.DecodeResponse(t, &r, &response)
			assert.NotNil(t, response.Error)
			assert.Equal(t, tt.quota, response.Quota != nil)
		})
	}

	// Nothing was created by the failed requests
	r := test.Request(suite.T(), http.MethodGet, fmt.Sprintf("http://example.com/v1/consortiums/%s/contemplations", c.Data.ID), "")
	var response v1.ContemplationListResponse
	test.DecodeResponse(suite.T(), &r, &response)
	assert.Len(suite.T(), response.Data, 1)
}

func (suite *TestSuiteStandard) TestContemplationsList() {
	c := suite.createTestConsortium(v1.ConsortiumEditable{})
	first := suite.join(c.Data.ID, "1")
	second := suite.join(c.Data.ID, "1")

	_ = suite.contemplate(c.Data.ID, 7, http.StatusCreated, first.MemberID)
	_ = suite.contemplate(c.Data.ID, 2, http.StatusCreated, second.MemberID)

	r := test.Request(suite.T(), http.MethodGet, fmt.Sprintf("http://example.com/v1/consortiums/%s/contemplations", c.Data.ID), "")
	test.AssertHTTPStatus(suite.T(), &r, http.StatusOK)

	var response v1.ContemplationListResponse
	test.DecodeResponse(suite.T(), &r, &response)
	require.Len(suite.T(), response.Data, 2)
	assert.Equal(suite.T(), 2, response.Data[0].Month, "Contemplations must be sorted by month")
	assert.Equal(suite.T(), 7, response.Data[1].Month)

	r = test.Request(suite.T(), http.MethodGet, fmt.Sprintf("http://example.com/v1/consortiums/%s/contemplations", uuid.New()), "")
	test.AssertHTTPStatus(suite.T(), &r, http.StatusNotFound)
}

func (suite *TestSuiteStandard) TestContemplationsGetSingle() {
	c := suite.createTestConsortium(v1.ConsortiumEditable{})
	membership := suite.join(c.Data.ID, "1")
	created := suite.contemplate(c.Data.ID, 1, http.StatusCreated, membership.MemberID)

	tests := []struct {
		name   string
		id     string
		status int
		method string
	}{
		{"GET Existing Contemplation", created.Data[0].ID.String(), http.StatusOK, http.MethodGet},
		{"GET No Contemplation with this ID", uuid.New().String(), http.StatusNotFound, http.MethodGet},
		{"GET Invalid ID (string)", "notaUUID", http.StatusBadRequest, http.MethodGet},
		{"PATCH Invalid ID (string)", "notaUUID", http.StatusBadRequest, http.MethodPatch},
		{"DELETE Invalid ID (string)", "notaUUID", http.StatusBadRequest, http.MethodDelete},
		{"DELETE No Contemplation with this ID", uuid.New().String(), http.StatusNotFound, http.MethodDelete},
	}

	for _, tt := range tests {
		suite.T().Run(tt.name, func(t *testing.T) {
			r := test.Request(t, tt.method, fmt.Sprintf("http://example.com/v1/contemplations/%s", tt.id), "")
			test.AssertHTTPStatus(t, &r, tt.status)
		})
	}
}

func (suite *TestSuiteStandard) TestContemplationsUpdate() {
	c := suite.createTestConsortium(v1.ConsortiumEditable{})
	membership := suite.join(c.Data.ID, "1")
	created := suite.contemplate(c.Data.ID, 1, http.StatusCreated, membership.MemberID)

	r := test.Request(suite.T(), http.MethodPatch, created.Data[0].Links.Self, map[string]any{
		"month":     4,
		"type":      "bid",
		"bidAmount": "500",
		"note":      "Highest bid",
	})
	test.AssertHTTPStatus(suite.T(), &r, http.StatusOK)

	var updated v1.ContemplationResponse
	test.DecodeResponse(suite.T(), &r, &updated)
	assert.Equal(suite.T(), 4, updated.Data.Month)
	assert.Equal(suite.T(), "2024-04-15", updated.Data.Date.String())
	assert.Equal(suite.T(), models.ContemplationBid, updated.Data.Type)
	assert.Equal(suite.T(), "Highest bid", updated.Data.Note)
	require.True(suite.T(), updated.Data.BidAmount.Valid)
	assert.True(suite.T(), decimal.NewFromInt(500).Equal(updated.Data.BidAmount.Decimal))

	// Fields not in the body are kept
	r = test.Request(suite.T(), http.MethodPatch, created.Data[0].Links.Self, map[string]any{
		"month": 5,
	})
	test.AssertHTTPStatus(suite.T(), &r, http.StatusOK)
	test.DecodeResponse(suite.T(), &r, &updated)
	assert.Equal(suite.T(), 5, updated.Data.Month)
	assert.Equal(suite.T(), "Highest bid", updated.Data.Note)
	assert.True(suite.T(), updated.Data.BidAmount.Valid)
}

func (suite *TestSuiteStandard) TestContemplationsUpdateFails() {
	c := suite.createTestConsortium(v1.ConsortiumEditable{})
	first := suite.join(c.Data.ID, "1")
	second := suite.join(c.Data.ID, "1")
	created := suite.contemplate(c.Data.ID, 1, http.StatusCreated, first.MemberID)
	_ = suite.contemplate(c.Data.ID, 2, http.StatusCreated, second.MemberID)

	tests := []struct {
		name   string
		body   any
		status int
	}{
		{"Month occupied", map[string]any{"month": 2}, http.StatusConflict},
		{"Month after term", map[string]any{"month": 13}, http.StatusBadRequest},
		{"Contemplated member", map[string]any{"memberId": second.MemberID}, http.StatusConflict},
		{"Unknown member", map[string]any{"memberId": uuid.New()}, http.StatusNotFound},
		{"Negative bid", map[string]any{"bidAmount": "-5"}, http.StatusBadRequest},
		{"Broken body", `{ "note": 2 }`, http.StatusBadRequest},
	}

	for _, tt := range tests {
		suite.T().Run(tt.name, func(t *testing.T) {
			r := test.Request(t, http.MethodPatch, created.Data[0].Links.Self, tt.body)
			test.AssertHTTPStatus(t, &r, tt.status)
		})
	}
}

// TestContemplationsDelete verifies that deleting a contemplation deletes the
// whole month.
func (suite *TestSuiteStandard) TestContemplationsDelete() {
	c := suite.createTestConsortium(v1.ConsortiumEditable{})
	first := suite.join(c.Data.ID, "0.5")
	second := suite.join(c.Data.ID, "0.5")
	created := suite.contemplate(c.Data.ID, 6, http.StatusCreated, first.MemberID, second.MemberID)

	r := test.Request(suite.T(), http.MethodDelete, created.Data[0].Links.Self, "")
	test.AssertHTTPStatus(suite.T(), &r, http.StatusNoContent)

	for _, contemplation := range created.Data {
		r = test.Request(suite.T(), http.MethodGet, contemplation.Links.Self, "")
		test.AssertHTTPStatus(suite.T(), &r, http.StatusNotFound)
	}

	r = test.Request(suite.T(), http.MethodGet, c.Data.Links.Memberships, "")
	var memberships v1.MembershipListResponse
	test.DecodeResponse(suite.T(), &r, &memberships)
	for _, m := range memberships.Data {
		assert.False(suite.T(), m.Contemplated)
		assert.Nil(suite.T(), m.ContemplationMonth)
	}

	// The month can be used again
	_ = suite.contemplate(c.Data.ID, 6, http.StatusCreated, first.MemberID, second.MemberID)
}

func (suite *TestSuiteStandard) TestContemplationsAuto() {
	c := suite.createTestConsortium(v1.ConsortiumEditable{TermMonths: 4})
	_ = suite.join(c.Data.ID, "1")
	_ = suite.join(c.Data.ID, "1")
	_ = suite.join(c.Data.ID, "0.5")
	_ = suite.join(c.Data.ID, "0.5")

	path := fmt.Sprintf("http://example.com/v1/consortiums/%s/contemplations/auto", c.Data.ID)
	r := test.Request(suite.T(), http.MethodPost, path, "")
	test.AssertHTTPStatus(suite.T(), &r, http.StatusCreated)

	var response v1.AutoAllocationResponse
	test.DecodeResponse(suite.T(), &r, &response)
	require.NotNil(suite.T(), response.Data)
	assert.Equal(suite.T(), "v1", response.Data.Policy)
	assert.Len(suite.T(), response.Data.Contemplations, 4)
	assert.Len(suite.T(), response.Data.Unplaced, 0)

	months := make(map[int]decimal.Decimal)
	for _, contemplation := range response.Data.Contemplations {
		assert.Equal(suite.T(), models.ContemplationAutomatic, contemplation.Type)
		months[contemplation.Month] = months[contemplation.Month].Add(contemplation.QuotaShare)
	}
	assert.Len(suite.T(), months, 3, "The half quotas share one month")
	for month, share := range months {
		assert.True(suite.T(), decimal.NewFromInt(1).Equal(share), "month %d holds %s", month, share)
	}

	// Everyone is contemplated now
	r = test.Request(suite.T(), http.MethodPost, path, "")
	test.AssertHTTPStatus(suite.T(), &r, http.StatusBadRequest)
}

func (suite *TestSuiteStandard) TestContemplationsAutoFails() {
	c := suite.createTestConsortium(v1.ConsortiumEditable{TermMonths: 2, TotalQuotas: 4})
	_ = suite.join(c.Data.ID, "1.5")
	_ = suite.join(c.Data.ID, "1.5")

	tests := []struct {
		name   string
		id     string
		status int
	}{
		{"Quotas exceed the term", c.Data.ID.String(), http.StatusUnprocessableEntity},
		{"No Consortium with this ID", uuid.New().String(), http.StatusNotFound},
		{"Invalid ID (string)", "notaUUID", http.StatusBadRequest},
	}

	for _, tt := range tests {
		suite.T().Run(tt.name, func(t *testing.T) {
			r := test.Request(t, http.MethodPost, fmt.Sprintf("http://example.com/v1/consortiums/%s/contemplations/auto", tt.id), "")
			test.AssertHTTPStatus(t, &r, tt.status)

			var response v1.AutoAllocationResponse
			test.DecodeResponse(t, &r, &response)
			assert.NotNil(t, response.Error)
		})
	}
}
