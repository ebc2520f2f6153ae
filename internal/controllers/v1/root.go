package v1

import (
	"net/http"

	"github.com/consorcio/backend/internal/httputil"
	"github.com/consorcio/backend/internal/models"
	"github.com/gin-gonic/gin"
)

func (co Controller) RegisterRootRoutes(r *gin.RouterGroup) {
	r.GET("", Get)
	r.OPTIONS("", Options)
}

type Response struct {
	Links Links `json:"links"` // Links for the v1 API
}

type Links struct {
	Consortiums string `json:"consortiums" example:"https://example.com/api/v1/consortiums"` // URL of Consortium collection endpoint
	Members     string `json:"members" example:"https://example.com/api/v1/members"`         // URL of Member collection endpoint
	Sweeps      string `json:"sweeps" example:"https://example.com/api/v1/sweeps"`           // URL of the overdue sweep endpoint
	Dashboard   string `json:"dashboard" example:"https://example.com/api/v1/dashboard"`     // URL of the dashboard endpoint
}

// Get returns the link list for v1
//
//	@Summary		v1 API
//	@Description	Returns general information about the v1 API
//	@Tags			v1
//	@Success		200	{object}	Response
//	@Router			/v1 [get]
func Get(c *gin.Context) {
	url := c.GetString(string(models.DBContextURL))

	c.JSON(http.StatusOK, Response{
		Links: Links{
			Consortiums: url + "/v1/consortiums",
			Members:     url + "/v1/members",
			Sweeps:      url + "/v1/sweeps",
			Dashboard:   url + "/v1/dashboard",
		},
	})
}

// Options returns the allowed HTTP methods
//
//	@Summary		Allowed HTTP verbs
//	@Description	Returns an empty response with the HTTP Header "allow" set to the allowed HTTP verbs
//	@Tags			v1
//	@Success		204
//	@Router			/v1 [options]
func Options(c *gin.Context) {
	httputil.OptionsGet(c)
}
