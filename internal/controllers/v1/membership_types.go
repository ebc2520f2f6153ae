package v1

import (
	"fmt"

	"github.com/consorcio/backend/internal/models"
	"github.com/consorcio/backend/internal/types"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// MembershipJoin is the request to add a member to a consortium.
type MembershipJoin struct {
	MemberID   uuid.UUID       `json:"memberId" example:"4e743e94-6a4b-44d6-aba5-d77c87103ff7"`      // ID of the member joining
	QuotaCount decimal.Decimal `json:"quotaCount" example:"1.5" minimum:"0.5" multipleOf:"0.5"`      // Number of quotas the member holds
	JoinedAt   types.Date      `json:"joinedAt" example:"2024-01-15" swaggertype:"primitive,string"` // Date the member joined. Defaults to today
}

type MembershipLinks struct {
	Consortium string `json:"consortium" example:"https://example.com/api/v1/consortiums/550dc009-cea6-4c12-b2a5-03446eb7b7cf"`                                             // The consortium
	Member     string `json:"member" example:"https://example.com/api/v1/members/4e743e94-6a4b-44d6-aba5-d77c87103ff7"`                                                     // The member
	Leave      string `json:"leave" example:"https://example.com/api/v1/consortiums/550dc009-cea6-4c12-b2a5-03446eb7b7cf/memberships/4e743e94-6a4b-44d6-aba5-d77c87103ff7"` // Endpoint to leave the consortium
}

// Membership is the API v1 representation of a Membership.
type Membership struct {
	models.DefaultModel
	ConsortiumID       uuid.UUID            `json:"consortiumId" example:"550dc009-cea6-4c12-b2a5-03446eb7b7cf"`       // ID of the consortium
	MemberID           uuid.UUID            `json:"memberId" example:"4e743e94-6a4b-44d6-aba5-d77c87103ff7"`           // ID of the member
	QuotaCount         decimal.Decimal      `json:"quotaCount" example:"1.5"`                                          // Number of quotas the member holds
	IndividualAmount   decimal.Decimal      `json:"individualAmount" example:"1515"`                                   // Fixed monthly amount of the member
	JoinedAt           types.Date           `json:"joinedAt" example:"2024-01-15" swaggertype:"primitive,string"`      // Date the member joined
	LeftAt             *types.Date          `json:"leftAt" example:"2024-06-02" swaggertype:"primitive,string"`        // Date the member left, if they did
	Active             bool                 `json:"active" example:"true"`                                             // Is the member part of the consortium?
	Contemplated       bool                 `json:"contemplated" example:"false"`                                      // Has the member been contemplated?
	ContemplationMonth *int                 `json:"contemplationMonth" example:"4"`                                    // Month the member has been contemplated in
	PaymentStatus      models.PaymentStatus `json:"paymentStatus" example:"current" enums:"current,overdue,contemplated"` // Payment status of the member
	Links              MembershipLinks      `json:"links"`
}

func newMembership(c *gin.Context, model models.Membership) Membership {
	url := c.GetString(string(models.DBContextURL))

	return Membership{
		DefaultModel:       model.DefaultModel,
		ConsortiumID:       model.ConsortiumID,
		MemberID:           model.MemberID,
		QuotaCount:         model.QuotaCount,
		IndividualAmount:   model.IndividualAmount,
		JoinedAt:           model.JoinedAt,
		LeftAt:             model.LeftAt,
		Active:             model.Active,
		Contemplated:       model.Contemplated,
		ContemplationMonth: model.ContemplationMonth,
		PaymentStatus:      model.PaymentStatus,
		Links: MembershipLinks{
			Consortium: fmt.Sprintf("%s/v1/consortiums/%s", url, model.ConsortiumID),
			Member:     fmt.Sprintf("%s/v1/members/%s", url, model.MemberID),
			Leave:      fmt.Sprintf("%s/v1/consortiums/%s/memberships/%s", url, model.ConsortiumID, model.MemberID),
		},
	}
}

type MembershipListResponse struct {
	Data  []Membership `json:"data"`                                                          // List of active memberships
	Error *string      `json:"error" example:"the specified resource ID is not a valid UUID"` // The error, if any occurred
}

type MembershipResponse struct {
	Data  *Membership `json:"data"`                                                          // Data for the membership
	Error *string     `json:"error" example:"the specified resource ID is not a valid UUID"` // The error, if any occurred
}
