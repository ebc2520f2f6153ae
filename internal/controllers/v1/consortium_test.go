package v1_test

import (
	"fmt"
	"net/http"
	"strings"
	"testing"

	v1 "github.com/consorcio/backend/internal/controllers/v1"
	"github.com/consorcio/backend/internal/httputil"
	"github.com/consorcio/backend/internal/models"
	"github.com/consorcio/backend/test"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestConsortiumsDBClosed verifies that errors are processed correctly when
// the database is closed.
func (suite *TestSuiteStandard) TestConsortiumsDBClosed() {
	suite.CloseDB()

	recorder := test.Request(suite.T(), http.MethodGet, "http://example.com/v1/consortiums", "")
	test.AssertHTTPStatus(suite.T(), &recorder, http.StatusInternalServerError)

	var response v1.ConsortiumListResponse
	test.DecodeResponse(suite.T(), &recorder, &response)
	assert.Contains(suite.T(), *response.Error, models.ErrGeneral.Error())
}

// TestConsortiumsOptions verifies that OPTIONS requests are handled correctly.
func (suite *TestSuiteStandard) TestConsortiumsOptions() {
	tests := []struct {
		name   string
		id     string // path at the Consortiums endpoint to test
		status int    // Expected HTTP status code
	}{
		{"No Consortium with this ID", uuid.New().String(), http.StatusNotFound},
		{"Not a valid UUID", "NotParseableAsUUID", http.StatusBadRequest},
		{"Consortium exists", suite.createTestConsortium(v1.ConsortiumEditable{}).Data.ID.String(), http.StatusNoContent},
	}

	for _, tt := range tests {
		suite.T().Run(tt.name, func(t *testing.T) {
			path := fmt.Sprintf("%s/%s", "http://example.com/v1/consortiums", tt.id)
			r := test.Request(t, http.MethodOptions, path, "")
			test.AssertHTTPStatus(t, &r, tt.status)

			if tt.status == http.StatusNoContent {
				assert.Equal(t, "OPTIONS, GET, PATCH, DELETE", r.Header().Get("allow"))
			}
		})
	}
}

func (suite *TestSuiteStandard) TestConsortiumsCreate() {
	managerID := uuid.New()
	c := suite.createTestConsortium(v1.ConsortiumEditable{
		ManagerID:  managerID,
		Name:       "  Family round  ",
		ManagerFee: decimal.NewFromInt(10),
	})

	assert.Equal(suite.T(), "Family round", c.Data.Name, "Whitespace must be trimmed")
	assert.Equal(suite.T(), models.ConsortiumActive, c.Data.Status, "Status must default to active")
	assert.Equal(suite.T(), managerID, c.Data.ManagerID)
	assert.Equal(suite.T(), "2024-01-15", c.Data.StartDate.String())
	assert.Equal(suite.T(), fmt.Sprintf("http://example.com/v1/consortiums/%s", c.Data.ID), c.Data.Links.Self)
	assert.Equal(suite.T(), c.Data.Links.Self+"/timeline", c.Data.Links.Timeline)
}

func (suite *TestSuiteStandard) TestConsortiumsCreateInvalid() {
	tests := []struct {
		name   string
		change map[string]any // Values replacing the ones of a valid consortium
		err    error
	}{
		{"Term too long", map[string]any{"termMonths": 121}, models.ErrConsortiumTermOutOfRange},
		{"No quotas", map[string]any{"totalQuotas": 0}, models.ErrConsortiumQuotasNotPositive},
		{"Negative fee", map[string]any{"managerFee": "-5"}, models.ErrConsortiumAmountNegative},
		{"Invalid status", map[string]any{"status": "paused"}, models.ErrConsortiumStatusInvalid},
		{"Whitespace name", map[string]any{"name": "   "}, models.ErrConsortiumNameEmpty},
		{"No start date", map[string]any{"startDate": ""}, models.ErrConsortiumStartDateMissing},
	}

	for _, tt := range tests {
		suite.T().Run(tt.name, func(t *testing.T) {
			body := map[string]any{
				"name":        "Consortium",
				"termMonths":  12,
				"totalQuotas": 12,
				"totalAmount": "12000",
				"startDate":   "2024-01-15",
			}
			for k, v := range tt.change {
				body[k] = v
			}

			r := test.Request(t, http.MethodPost, "http://example.com/v1/consortiums", []any{body})
			test.AssertHTTPStatus(t, &r, http.StatusBadRequest)

			var response v1.ConsortiumCreateResponse
			test.DecodeResponse(t, &r, &response)
			require.Len(t, response.Data, 1)
			assert.Equal(t, tt.err.Error(), *response.Data[0].Error)
		})
	}
}

func (suite *TestSuiteStandard) TestConsortiumsCreateBrokenBody() {
	r := test.Request(suite.T(), http.MethodPost, "http://example.com/v1/consortiums", `[{ "name": 2 }]`)
	test.AssertHTTPStatus(suite.T(), &r, http.StatusBadRequest)

	r = test.Request(suite.T(), http.MethodPost, "http://example.com/v1/consortiums", "")
	test.AssertHTTPStatus(suite.T(), &r, http.StatusBadRequest)

	var response v1.ConsortiumCreateResponse
	test.DecodeResponse(suite.T(), &r, &response)
	assert.Equal(suite.T(), httputil.ErrRequestBodyEmpty.Error(), *response.Error)
}

// TestConsortiumsGetSingle verifies that requests for the resource endpoints are
// handled correctly.
func (suite *TestSuiteStandard) TestConsortiumsGetSingle() {
	c := suite.createTestConsortium(v1.ConsortiumEditable{})

	tests := []struct {
		name   string
		id     string
		status int
		method string
	}{
		{"GET Existing Consortium", c.Data.ID.String(), http.StatusOK, http.MethodGet},
		{"GET ID nil", uuid.Nil.String(), http.StatusNotFound, http.MethodGet},
		{"GET No Consortium with this ID", uuid.New().String(), http.StatusNotFound, http.MethodGet},
		{"GET Invalid ID (negative number)", "-56", http.StatusBadRequest, http.MethodGet},
		{"GET Invalid ID (string)", "notaUUID", http.StatusBadRequest, http.MethodGet},
		{"PATCH Invalid ID (string)", "notaUUID", http.StatusBadRequest, http.MethodPatch},
		{"PATCH No Consortium with this ID", uuid.New().String(), http.StatusNotFound, http.MethodPatch},
		{"DELETE Invalid ID (string)", "notaUUID", http.StatusBadRequest, http.MethodDelete},
		{"DELETE No Consortium with this ID", uuid.New().String(), http.StatusNotFound, http.MethodDelete},
	}

	for _, tt := range tests {
		suite.T().Run(tt.name, func(t *testing.T) {
			r := test.Request(t, tt.method, fmt.Sprintf("http://example.com/v1/consortiums/%s", tt.id), "")
			test.AssertHTTPStatus(t, &r, tt.status)
		})
	}
}

func (suite *TestSuiteStandard) TestConsortiumsGetFilter() {
	m1 := uuid.New()
	m2 := uuid.New()

	_ = suite.createTestConsortium(v1.ConsortiumEditable{Name: "Family round", ManagerID: m1})
	_ = suite.createTestConsortium(v1.ConsortiumEditable{Name: "Office round", ManagerID: m2})
	_ = suite.createTestConsortium(v1.ConsortiumEditable{Name: "Family cars", ManagerID: m2, Status: models.ConsortiumClosed})

	tests := []struct {
		name  string
		query string
		len   int
		total int64
	}{
		{"All", "", 3, 3},
		{"Manager 1", fmt.Sprintf("manager=%s", m1), 1, 1},
		{"Manager not existing", fmt.Sprintf("manager=%s", uuid.New()), 0, 0},
		{"Closed", "status=closed", 1, 1},
		{"Active of manager 2", fmt.Sprintf("manager=%s&status=active", m2), 1, 1},
		{"Glob prefix", "name=Family*", 2, 2},
		{"Glob ignores case", "name=*ROUND", 2, 2},
		{"Glob without wildcard", "name=Family", 0, 0},
		{"Offset 2", "offset=2", 1, 3},
		{"Offset 0, limit 2", "offset=0&limit=2", 2, 3},
		{"Offset beyond", "offset=5", 0, 3},
		{"Limit 0", "limit=0", 0, 3},
		{"Limit -1", "limit=-1", 3, 3},
	}

	for _, tt := range tests {
		suite.T().Run(tt.name, func(t *testing.T) {
			var re v1.ConsortiumListResponse
			r := test.Request(t, http.MethodGet, fmt.Sprintf("http://example.com/v1/consortiums?%s", tt.query), "")
			test.AssertHTTPStatus(t, &r, http.StatusOK)
			test.DecodeResponse(t, &r, &re)

			assert.Equal(t, tt.len, len(re.Data))
			assert.Equal(t, tt.total, re.Pagination.Total)
			assert.Equal(t, tt.len, re.Pagination.Count)
		})
	}
}

func (suite *TestSuiteStandard) TestConsortiumsGetSorted() {
	_ = suite.createTestConsortium(v1.ConsortiumEditable{Name: "Round B"})
	_ = suite.createTestConsortium(v1.ConsortiumEditable{Name: "Round A"})

	var re v1.ConsortiumListResponse
	r := test.Request(suite.T(), http.MethodGet, "http://example.com/v1/consortiums", "")
	test.AssertHTTPStatus(suite.T(), &r, http.StatusOK)
	test.DecodeResponse(suite.T(), &r, &re)

	require.Len(suite.T(), re.Data, 2)
	assert.Equal(suite.T(), "Round A", re.Data[0].Name)
	assert.Equal(suite.T(), "Round B", re.Data[1].Name)
}

func (suite *TestSuiteStandard) TestConsortiumsGetInvalidQuery() {
	for _, query := range []string{"manager=NotAUUID", "offset=-1", "limit=many"} {
		suite.T().Run(query, func(t *testing.T) {
			r := test.Request(t, http.MethodGet, fmt.Sprintf("http://example.com/v1/consortiums?%s", query), "")
			test.AssertHTTPStatus(t, &r, http.StatusBadRequest)
		})
	}
}

func (suite *TestSuiteStandard) TestConsortiumsUpdate() {
	c := suite.createTestConsortium(v1.ConsortiumEditable{Description: "Original"})

	r := test.Request(suite.T(), http.MethodPatch, c.Data.Links.Self, map[string]any{
		"name":   "Renamed",
		"status": "closed",
	})
	test.AssertHTTPStatus(suite.T(), &r, http.StatusOK)

	var updated v1.ConsortiumResponse
	test.DecodeResponse(suite.T(), &r, &updated)

	assert.Equal(suite.T(), "Renamed", updated.Data.Name)
	assert.Equal(suite.T(), models.ConsortiumClosed, updated.Data.Status)
	assert.Equal(suite.T(), "Original", updated.Data.Description, "Fields not in the body must be kept")
	assert.True(suite.T(), c.Data.TotalAmount.Equal(updated.Data.TotalAmount))
}

// TestConsortiumsUpdateRegeneratesSchedule verifies that changing a value
// the monthly amounts derive from recomputes all obligations.
func (suite *TestSuiteStandard) TestConsortiumsUpdateRegeneratesSchedule() {
	c := suite.createTestConsortium(v1.ConsortiumEditable{})
	_ = suite.join(c.Data.ID, "1")

	obligations := suite.generateSchedule(c.Data.ID)
	require.Len(suite.T(), obligations, 12)
	assert.True(suite.T(), decimal.NewFromInt(1000).Equal(obligations[0].ExpectedAmount), "got %s", obligations[0].ExpectedAmount)

	r := test.Request(suite.T(), http.MethodPatch, c.Data.Links.Self, map[string]any{
		"totalAmount": "24000",
	})
	test.AssertHTTPStatus(suite.T(), &r, http.StatusOK)

	r = test.Request(suite.T(), http.MethodGet, c.Data.Links.Obligations, "")
	test.AssertHTTPStatus(suite.T(), &r, http.StatusOK)

	var response v1.ObligationListResponse
	test.DecodeResponse(suite.T(), &r, &response)
	require.Len(suite.T(), response.Data, 12)
	for _, o := range response.Data {
		assert.True(suite.T(), decimal.NewFromInt(2000).Equal(o.ExpectedAmount), "got %s", o.ExpectedAmount)
	}
}

func (suite *TestSuiteStandard) TestConsortiumsUpdateInvalid() {
	c := suite.createTestConsortium(v1.ConsortiumEditable{})

	tests := []struct {
		name string
		body any
	}{
		{"Broken body", `{ "name": 2 }`},
		{"Invalid term", map[string]any{"termMonths": 0}},
		{"Empty name", map[string]any{"name": ""}},
		{"End before start", map[string]any{"endDate": "2023-12-31"}},
	}

	for _, tt := range tests {
		suite.T().Run(tt.name, func(t *testing.T) {
			r := test.Request(t, http.MethodPatch, c.Data.Links.Self, tt.body)
			test.AssertHTTPStatus(t, &r, http.StatusBadRequest)
		})
	}
}

func (suite *TestSuiteStandard) TestConsortiumsUpdateConflicts() {
	c := suite.createTestConsortium(v1.ConsortiumEditable{})
	_ = suite.join(c.Data.ID, "2")
	membership := suite.join(c.Data.ID, "1")
	_ = suite.contemplate(c.Data.ID, 10, http.StatusCreated, membership.MemberID)

	tests := []struct {
		name string
		body map[string]any
	}{
		{"Fewer quotas than the members hold", map[string]any{"totalQuotas": 2}},
		{"Term ends before a contemplation", map[string]any{"termMonths": 9}},
	}

	for _, tt := range tests {
		suite.T().Run(tt.name, func(t *testing.T) {
			r := test.Request(t, http.MethodPatch, c.Data.Links.Self, tt.body)
			test.AssertHTTPStatus(t, &r, http.StatusConflict)

			var response v1.ConsortiumResponse
			test.DecodeResponse(t, &r, &response)
			assert.NotNil(t, response.Error)
		})
	}

	// Nothing was saved
	r := test.Request(suite.T(), http.MethodGet, c.Data.Links.Self, "")
	var current v1.ConsortiumResponse
	test.DecodeResponse(suite.T(), &r, &current)
	assert.Equal(suite.T(), 12, current.Data.TotalQuotas)
	assert.Equal(suite.T(), 12, current.Data.TermMonths)

	// The quotas the members hold and the last contemplated month are allowed
	r = test.Request(suite.T(), http.MethodPatch, c.Data.Links.Self, map[string]any{"totalQuotas": 3, "termMonths": 10})
	test.AssertHTTPStatus(suite.T(), &r, http.StatusOK)
}

// TestConsortiumsDelete verifies that deleting a consortium removes all
// dependent resources.
func (suite *TestSuiteStandard) TestConsortiumsDelete() {
	c := suite.createTestConsortium(v1.ConsortiumEditable{})
	membership := suite.join(c.Data.ID, "1")
	_ = suite.generateSchedule(c.Data.ID)
	_ = suite.contemplate(c.Data.ID, 2, http.StatusCreated, membership.MemberID)

	r := test.Request(suite.T(), http.MethodDelete, c.Data.Links.Self, "")
	test.AssertHTTPStatus(suite.T(), &r, http.StatusNoContent)

	r = test.Request(suite.T(), http.MethodGet, c.Data.Links.Self, "")
	test.AssertHTTPStatus(suite.T(), &r, http.StatusNotFound)

	for _, model := range []any{&models.Membership{}, &models.Obligation{}, &models.Contemplation{}} {
		var count int64
		require.Nil(suite.T(), models.DB.Model(model).Where("consortium_id = ?", c.Data.ID).Count(&count).Error)
		assert.Zero(suite.T(), count, "%T must be deleted with the consortium", model)
	}

	// The member itself is kept
	r = test.Request(suite.T(), http.MethodGet, membership.Links.Member, "")
	test.AssertHTTPStatus(suite.T(), &r, http.StatusOK)
}

func (suite *TestSuiteStandard) TestConsortiumsNotFoundMessage() {
	r := test.Request(suite.T(), http.MethodGet, fmt.Sprintf("http://example.com/v1/consortiums/%s", uuid.New()), "")
	test.AssertHTTPStatus(suite.T(), &r, http.StatusNotFound)

	var response v1.ConsortiumResponse
	test.DecodeResponse(suite.T(), &r, &response)
	assert.True(suite.T(), strings.HasPrefix(*response.Error, models.ErrResourceNotFound.Error()), "got %s", *response.Error)
	assert.Contains(suite.T(), *response.Error, "consortium")
}
