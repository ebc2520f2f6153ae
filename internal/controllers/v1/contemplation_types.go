package v1

import (
	"errors"
	"fmt"

	"github.com/consorcio/backend/internal/engine"
	"github.com/consorcio/backend/internal/models"
	"github.com/consorcio/backend/internal/types"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// ContemplationCreate contemplates one or more members in a month.
type ContemplationCreate struct {
	MemberIDs []uuid.UUID              `json:"memberIds"`                                                        // IDs of the members contemplated together
	Month     int                      `json:"month" example:"4" minimum:"1"`                                    // Month of the consortium
	Type      models.ContemplationType `json:"type" example:"draw" enums:"draw,bid,automatic" default:"automatic"` // How the members were selected
	BidAmount decimal.NullDecimal      `json:"bidAmount" example:"500" swaggertype:"primitive,string"`           // The amount bid, for bids
	Note      string                   `json:"note" example:"Drawn at the monthly meeting"`                      // A note for the contemplation
}

type ContemplationEditable struct {
	MemberID  uuid.UUID                `json:"memberId" example:"4e743e94-6a4b-44d6-aba5-d77c87103ff7"`    // ID of the contemplated member
	Month     int                      `json:"month" example:"4" minimum:"1"`                              // Month of the consortium
	Type      models.ContemplationType `json:"type" example:"draw" enums:"draw,bid,automatic"`             // How the member was selected
	BidAmount decimal.NullDecimal      `json:"bidAmount" example:"500" swaggertype:"primitive,string"`     // The amount bid, for bids
	Note      string                   `json:"note" example:"Drawn at the monthly meeting"`                // A note for the contemplation
}

// edit returns the engine edit for the fields set in the request body
func (editable ContemplationEditable) edit(fields []any) engine.ContemplationEdit {
	edit := engine.ContemplationEdit{
		MemberID: editable.MemberID,
		Month:    editable.Month,
		Type:     editable.Type,
	}

	if containsAny(fields, []string{"BidAmount"}) {
		edit.BidAmount = &editable.BidAmount
	}

	if containsAny(fields, []string{"Note"}) {
		edit.Note = &editable.Note
	}

	return edit
}

type ContemplationLinks struct {
	Self       string `json:"self" example:"https://example.com/api/v1/contemplations/9b1b5a43-6f4e-4b7a-a3c2-0c5d2e3f4a5b"` // The contemplation itself
	Consortium string `json:"consortium" example:"https://example.com/api/v1/consortiums/550dc009-cea6-4c12-b2a5-03446eb7b7cf"` // The consortium
	Member     string `json:"member" example:"https://example.com/api/v1/members/4e743e94-6a4b-44d6-aba5-d77c87103ff7"`         // The contemplated member
}

// Contemplation is the API v1 representation of a Contemplation.
type Contemplation struct {
	models.DefaultModel
	ConsortiumID  uuid.UUID                `json:"consortiumId" example:"550dc009-cea6-4c12-b2a5-03446eb7b7cf"` // ID of the consortium
	MemberID      uuid.UUID                `json:"memberId" example:"4e743e94-6a4b-44d6-aba5-d77c87103ff7"`     // ID of the contemplated member
	Month         int                      `json:"month" example:"4"`                                           // Month of the consortium
	Date          types.Date               `json:"date" example:"2024-04-15" swaggertype:"primitive,string"`    // Date of the month
	Type          models.ContemplationType `json:"type" example:"draw" enums:"draw,bid,automatic"`              // How the member was selected
	AwardedAmount decimal.Decimal          `json:"awardedAmount" example:"12000"`                               // The amount the member receives
	BidAmount     decimal.NullDecimal      `json:"bidAmount" example:"500" swaggertype:"primitive,string"`      // The amount bid, for bids
	QuotaShare    decimal.Decimal          `json:"quotaShare" example:"0.5"`                                    // Quota units of the month this contemplation uses
	Note          string                   `json:"note" example:"Drawn at the monthly meeting"`                 // A note for the contemplation
	Links         ContemplationLinks       `json:"links"`
}

func newContemplation(c *gin.Context, model models.Contemplation) Contemplation {
	url := c.GetString(string(models.DBContextURL))

	return Contemplation{
		DefaultModel:  model.DefaultModel,
		ConsortiumID:  model.ConsortiumID,
		MemberID:      model.MemberID,
		Month:         model.Month,
		Date:          model.Date,
		Type:          model.Type,
		AwardedAmount: model.AwardedAmount,
		BidAmount:     model.BidAmount,
		QuotaShare:    model.QuotaShare,
		Note:          model.Note,
		Links: ContemplationLinks{
			Self:       fmt.Sprintf("%s/v1/contemplations/%s", url, model.ID),
			Consortium: fmt.Sprintf("%s/v1/consortiums/%s", url, model.ConsortiumID),
			Member:     fmt.Sprintf("%s/v1/members/%s", url, model.MemberID),
		},
	}
}

func newContemplations(c *gin.Context, contemplations []models.Contemplation) []Contemplation {
	data := make([]Contemplation, 0, len(contemplations))
	for _, contemplation := range contemplations {
		data = append(data, newContemplation(c, contemplation))
	}

	return data
}

// QuotaDetails describe why a month cannot take a contemplation.
type QuotaDetails struct {
	Month     int             `json:"month" example:"4"`       // The month
	Used      decimal.Decimal `json:"used" example:"0.5"`      // Quota units already contemplated in the month
	Requested decimal.Decimal `json:"requested" example:"1"`   // Quota units of the request
	Capacity  decimal.Decimal `json:"capacity" example:"1.01"` // Quota units a month can take
}

// quotaDetails returns the details of a quota error, if err is one.
func quotaDetails(err error) *QuotaDetails {
	var qe *engine.QuotaError
	if !errors.As(err, &qe) {
		return nil
	}

	return &QuotaDetails{
		Month:     qe.Month,
		Used:      qe.Used,
		Requested: qe.Requested,
		Capacity:  qe.Capacity,
	}
}

type ContemplationListResponse struct {
	Data  []Contemplation `json:"data"`                                                          // List of contemplations
	Error *string         `json:"error" example:"the specified resource ID is not a valid UUID"` // The error, if any occurred
	Quota *QuotaDetails   `json:"quota,omitempty"`                                               // Details when the month does not have enough capacity
}

type ContemplationResponse struct {
	Data  *Contemplation `json:"data"`                                                          // Data for the contemplation
	Error *string        `json:"error" example:"the specified resource ID is not a valid UUID"` // The error, if any occurred
	Quota *QuotaDetails  `json:"quota,omitempty"`                                               // Details when the month does not have enough capacity
}

// UnplacedSlot is a quota automatic allocation found no month for.
type UnplacedSlot struct {
	MembershipID uuid.UUID       `json:"membershipId" example:"c1a3b6ad-0d5b-49d0-a6d2-7f8c7b5f1e0d"` // ID of the membership
	MemberID     uuid.UUID       `json:"memberId" example:"4e743e94-6a4b-44d6-aba5-d77c87103ff7"`     // ID of the member
	Share        decimal.Decimal `json:"share" example:"0.5"`                                         // Quota units of the slot
}

type AutoAllocation struct {
	Policy         string          `json:"policy" example:"v1"` // Version of the allocation policy used
	Contemplations []Contemplation `json:"contemplations"`      // Contemplations created
	Unplaced       []UnplacedSlot  `json:"unplaced"`            // Quotas for which no month was left
}

func newAutoAllocation(c *gin.Context, result engine.AutoAllocation) AutoAllocation {
	unplaced := make([]UnplacedSlot, 0, len(result.Unplaced))
	for _, slot := range result.Unplaced {
		unplaced = append(unplaced, UnplacedSlot{
			MembershipID: slot.MembershipID,
			MemberID:     slot.MemberID,
			Share:        slot.Share,
		})
	}

	return AutoAllocation{
		Policy:         result.Policy,
		Contemplations: newContemplations(c, result.Contemplations),
		Unplaced:       unplaced,
	}
}

type AutoAllocationResponse struct {
	Data  *AutoAllocation `json:"data"`                                                                                          // Result of the automatic allocation
	Error *string         `json:"error" example:"the quotas waiting for contemplation exceed the months of the consortium"` // The error, if any occurred
}
