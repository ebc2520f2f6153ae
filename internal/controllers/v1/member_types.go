package v1

import (
	"fmt"

	"github.com/consorcio/backend/internal/models"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type MemberEditable struct {
	ManagerID uuid.UUID `json:"managerId" example:"1e777d24-3f5b-4c43-8000-04f65f895578"` // ID of the manager the member belongs to
	Name      string    `json:"name" example:"Maria Silva" default:""`                    // Name of the member
	Phone     string    `json:"phone" example:"+55 11 91234-5678" default:""`             // Phone number of the member
	PixKey    string    `json:"pixKey" example:"maria@example.com" default:""`            // Pix key the awarded amount is paid to
}

// model returns the database resource for the editable fields
func (editable MemberEditable) model() models.Member {
	return models.Member{
		ManagerID: editable.ManagerID,
		Name:      editable.Name,
		Phone:     editable.Phone,
		PixKey:    editable.PixKey,
	}
}

type MemberLinks struct {
	Self string `json:"self" example:"https://example.com/api/v1/members/4e743e94-6a4b-44d6-aba5-d77c87103ff7"` // The member itself
}

// Member is the API v1 representation of a Member.
type Member struct {
	models.DefaultModel
	MemberEditable
	Links MemberLinks `json:"links"`
}

func newMember(c *gin.Context, model models.Member) Member {
	url := c.GetString(string(models.DBContextURL))

	return Member{
		DefaultModel: model.DefaultModel,
		MemberEditable: MemberEditable{
			ManagerID: model.ManagerID,
			Name:      model.Name,
			Phone:     model.Phone,
			PixKey:    model.PixKey,
		},
		Links: MemberLinks{
			Self: fmt.Sprintf("%s/v1/members/%s", url, model.ID),
		},
	}
}

type MemberListResponse struct {
	Data       []Member    `json:"data"`                                                          // List of members
	Error      *string     `json:"error" example:"the specified resource ID is not a valid UUID"` // The error, if any occurred
	Pagination *Pagination `json:"pagination"`                                                    // Pagination information
}

type MemberCreateResponse struct {
	Error *string          `json:"error" example:"the specified resource ID is not a valid UUID"` // The error, if any occurred
	Data  []MemberResponse `json:"data"`                                                          // List of created members
}

func (r *MemberCreateResponse) appendError(err error, currentStatus int) int {
	s := err.Error()
	r.Data = append(r.Data, MemberResponse{Error: &s})

	// The final status code is the highest HTTP status code number
	newStatus := status(err)
	if newStatus > currentStatus {
		return newStatus
	}

	return currentStatus
}

type MemberResponse struct {
	Data  *Member `json:"data"`                                                          // Data for the member
	Error *string `json:"error" example:"the specified resource ID is not a valid UUID"` // The error, if any occurred for this member
}

type MemberQueryFilter struct {
	Name      string `form:"name" filterField:"false"`   // Fuzzy filter for the name
	ManagerID string `form:"manager"`                    // By manager ID
	Offset    uint   `form:"offset" filterField:"false"` // The offset of the first Member returned. Defaults to 0.
	Limit     int    `form:"limit" filterField:"false"`  // Maximum number of Members to return. Defaults to 50.
}

func (f MemberQueryFilter) model() (models.Member, error) {
	managerID, err := parseUUID(f.ManagerID)
	if err != nil {
		return models.Member{}, err
	}

	return models.Member{
		ManagerID: managerID,
	}, nil
}
