package v1

import (
	"fmt"

	"github.com/consorcio/backend/internal/models"
	"github.com/consorcio/backend/internal/types"
	"github.com/gin-gonic/gin"
	google_uuid "github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// formulaFields are the fields the monthly amounts derive from. Changing
// one of them regenerates the schedule of the consortium.
var formulaFields = []string{"TotalAmount", "TermMonths", "TotalQuotas", "ManagerFee", "ProgressiveIncrement", "StartDate"}

type ConsortiumEditable struct {
	ManagerID            google_uuid.UUID        `json:"managerId" example:"1e777d24-3f5b-4c43-8000-04f65f895578"`            // ID of the manager running the consortium
	Name                 string                  `json:"name" example:"Family savings 2024" default:""`                       // Name of the consortium
	Description          string                  `json:"description" example:"Monthly savings round of the family" default:""` // A longer description of the consortium
	TotalAmount          decimal.Decimal         `json:"totalAmount" example:"12000" default:"0"`                             // The pooled amount a contemplated member receives
	TermMonths           int                     `json:"termMonths" example:"12" minimum:"1" maximum:"120"`                   // Number of months the consortium runs
	TotalQuotas          int                     `json:"totalQuotas" example:"12" minimum:"1"`                                // Number of quotas the consortium is split into
	ManagerFee           decimal.Decimal         `json:"managerFee" example:"10" default:"0"`                                 // Flat fee per member and month
	ProgressiveIncrement decimal.Decimal         `json:"progressiveIncrement" example:"5" default:"0"`                        // Added per quota for each month after the first
	StartDate            types.Date              `json:"startDate" example:"2024-01-15" swaggertype:"primitive,string"`       // Date of the first month
	EndDate              *types.Date             `json:"endDate" example:"2024-12-15" swaggertype:"primitive,string"`         // Date the consortium ends, if set
	Status               models.ConsortiumStatus `json:"status" example:"active" enums:"active,closed,cancelled"`             // Status of the consortium
}

// model returns the database resource for the editable fields
func (editable ConsortiumEditable) model() models.Consortium {
	return models.Consortium{
		ManagerID:            editable.ManagerID,
		Name:                 editable.Name,
		Description:          editable.Description,
		TotalAmount:          editable.TotalAmount,
		TermMonths:           editable.TermMonths,
		TotalQuotas:          editable.TotalQuotas,
		ManagerFee:           editable.ManagerFee,
		ProgressiveIncrement: editable.ProgressiveIncrement,
		StartDate:            editable.StartDate,
		EndDate:              editable.EndDate,
		Status:               editable.Status,
	}
}

type ConsortiumLinks struct {
	Self           string `json:"self" example:"https://example.com/api/v1/consortiums/550dc009-cea6-4c12-b2a5-03446eb7b7cf"`                          // The consortium itself
	Memberships    string `json:"memberships" example:"https://example.com/api/v1/consortiums/550dc009-cea6-4c12-b2a5-03446eb7b7cf/memberships"`       // Active memberships of the consortium
	Schedule       string `json:"schedule" example:"https://example.com/api/v1/consortiums/550dc009-cea6-4c12-b2a5-03446eb7b7cf/schedule"`             // Schedule generation of the consortium
	Obligations    string `json:"obligations" example:"https://example.com/api/v1/consortiums/550dc009-cea6-4c12-b2a5-03446eb7b7cf/obligations"`       // Obligations of the consortium
	Contemplations string `json:"contemplations" example:"https://example.com/api/v1/consortiums/550dc009-cea6-4c12-b2a5-03446eb7b7cf/contemplations"` // Contemplations of the consortium
	Timeline       string `json:"timeline" example:"https://example.com/api/v1/consortiums/550dc009-cea6-4c12-b2a5-03446eb7b7cf/timeline"`             // Aggregated state of the consortium
}

// Consortium is the API v1 representation of a Consortium.
type Consortium struct {
	models.DefaultModel
	ConsortiumEditable
	Links ConsortiumLinks `json:"links"`
}

func newConsortium(c *gin.Context, model models.Consortium) Consortium {
	url := fmt.Sprintf("%s/v1/consortiums/%s", c.GetString(string(models.DBContextURL)), model.ID)

	return Consortium{
		DefaultModel: model.DefaultModel,
		ConsortiumEditable: ConsortiumEditable{
			ManagerID:            model.ManagerID,
			Name:                 model.Name,
			Description:          model.Description,
			TotalAmount:          model.TotalAmount,
			TermMonths:           model.TermMonths,
			TotalQuotas:          model.TotalQuotas,
			ManagerFee:           model.ManagerFee,
			ProgressiveIncrement: model.ProgressiveIncrement,
			StartDate:            model.StartDate,
			EndDate:              model.EndDate,
			Status:               model.Status,
		},
		Links: ConsortiumLinks{
			Self:           url,
			Memberships:    url + "/memberships",
			Schedule:       url + "/schedule",
			Obligations:    url + "/obligations",
			Contemplations: url + "/contemplations",
			Timeline:       url + "/timeline",
		},
	}
}

type ConsortiumListResponse struct {
	Data       []Consortium `json:"data"`                                                          // List of consortiums
	Error      *string      `json:"error" example:"the specified resource ID is not a valid UUID"` // The error, if any occurred
	Pagination *Pagination  `json:"pagination"`                                                    // Pagination information
}

type ConsortiumCreateResponse struct {
	Error *string              `json:"error" example:"the specified resource ID is not a valid UUID"` // The error, if any occurred
	Data  []ConsortiumResponse `json:"data"`                                                          // List of created consortiums
}

func (r *ConsortiumCreateResponse) appendError(err error, currentStatus int) int {
	s := err.Error()
	r.Data = append(r.Data, ConsortiumResponse{Error: &s})

	// The final status code is the highest HTTP status code number
	newStatus := status(err)
	if newStatus > currentStatus {
		return newStatus
	}

	return currentStatus
}

type ConsortiumResponse struct {
	Data  *Consortium `json:"data"`                                                          // Data for the consortium
	Error *string     `json:"error" example:"the specified resource ID is not a valid UUID"` // The error, if any occurred for this consortium
}

type ConsortiumQueryFilter struct {
	Name      string                  `form:"name" filterField:"false"`   // Glob pattern for the name, e.g. "Family*"
	ManagerID string                  `form:"manager"`                    // By manager ID
	Status    models.ConsortiumStatus `form:"status"`                     // By status
	Offset    uint                    `form:"offset" filterField:"false"` // The offset of the first Consortium returned. Defaults to 0.
	Limit     int                     `form:"limit" filterField:"false"`  // Maximum number of Consortiums to return. Defaults to 50.
}

func (f ConsortiumQueryFilter) model() (models.Consortium, error) {
	managerID, err := parseUUID(f.ManagerID)
	if err != nil {
		return models.Consortium{}, err
	}

	return models.Consortium{
		ManagerID: managerID,
		Status:    f.Status,
	}, nil
}
