package v1

import (
	"net/http"

	"github.com/consorcio/backend/internal/httputil"
	"github.com/consorcio/backend/internal/models"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

func (co Controller) registerTimelineRoutes(r *gin.RouterGroup) {
	r.OPTIONS("/:id/timeline", OptionsTimeline)
	r.GET("/:id/timeline", co.GetTimeline)
}

// RegisterDashboardRoutes registers the dashboard route.
func (co Controller) RegisterDashboardRoutes(r *gin.RouterGroup) {
	r.OPTIONS("", OptionsDashboard)
	r.GET("", GetDashboard)
}

// @Summary		Allowed HTTP verbs
// @Description	Returns an empty response with the HTTP Header "allow" set to the allowed HTTP verbs
// @Tags			Timeline
// @Success		204
// @Param			id	path	URIID	true	"ignored, but needed: https://github.com/swaggo/swag/issues/1014"
// @Router			/v1/consortiums/{id}/timeline [options]
func OptionsTimeline(c *gin.Context) {
	httputil.OptionsGet(c)
}

// @Summary		Allowed HTTP verbs
// @Description	Returns an empty response with the HTTP Header "allow" set to the allowed HTTP verbs
// @Tags			Timeline
// @Success		204
// @Router			/v1/dashboard [options]
func OptionsDashboard(c *gin.Context) {
	httputil.OptionsGet(c)
}

// GetTimeline returns the aggregated state of a consortium. Missing
// obligations are generated before the state is read.
//
// @Summary		Get timeline
// @Description	Returns the months, contemplations, memberships, quota fill and payment summary of a consortium
// @Tags			Timeline
// @Produce		json
// @Success		200	{object}	TimelineResponse
// @Failure		400	{object}	TimelineResponse
// @Failure		404	{object}	TimelineResponse
// @Failure		500	{object}	TimelineResponse
// @Param			id	path		URIID	true	"ignored, but needed: https://github.com/swaggo/swag/issues/1014"
// @Router			/v1/consortiums/{id}/timeline [get]
func (co Controller) GetTimeline(c *gin.Context) {
	var uri URIID
	err := c.ShouldBindUri(&uri)
	if err != nil {
		s := err.Error()
		c.JSON(status(err), TimelineResponse{
			Error: &s,
		})
		return
	}

	timeline, err := co.Engine.Timeline.Timeline(c.Request.Context(), uri.ID.UUID)
	if err != nil {
		s := err.Error()
		c.JSON(status(err), TimelineResponse{
			Error: &s,
		})
		return
	}

	data := newTimeline(c, timeline)
	c.JSON(http.StatusOK, TimelineResponse{Data: &data})
}

// @Summary		Get dashboard
// @Description	Returns statistics and the most recent consortiums of a manager
// @Tags			Timeline
// @Produce		json
// @Success		200		{object}	DashboardResponse
// @Failure		400		{object}	DashboardResponse
// @Failure		500		{object}	DashboardResponse
// @Param			manager	query		string	true	"ID of the manager"
// @Router			/v1/dashboard [get]
func GetDashboard(c *gin.Context) {
	var query DashboardQuery
	if err := c.Bind(&query); err != nil {
		s := httputil.ErrInvalidQueryString.Error()
		c.JSON(http.StatusBadRequest, DashboardResponse{
			Error: &s,
		})
		return
	}

	managerID, err := parseUUID(query.ManagerID)
	if err == nil && managerID == uuid.Nil {
		err = errManagerMissing
	}
	if err != nil {
		s := err.Error()
		c.JSON(status(err), DashboardResponse{
			Error: &s,
		})
		return
	}

	var dashboard Dashboard
	counts := []struct {
		status models.ConsortiumStatus
		target *int64
	}{
		{models.ConsortiumActive, &dashboard.ActiveConsortiums},
		{models.ConsortiumClosed, &dashboard.ClosedConsortiums},
	}

	for _, count := range counts {
		err = models.DB.Model(&models.Consortium{}).
			Where(&models.Consortium{ManagerID: managerID, Status: count.status}).
			Count(count.target).Error
		if err != nil {
			s := err.Error()
			c.JSON(status(err), DashboardResponse{
				Error: &s,
			})
			return
		}
	}

	err = models.DB.Model(&models.Membership{}).
		Joins("JOIN consortiums ON consortiums.id = memberships.consortium_id").
		Where("consortiums.manager_id = ? AND memberships.active = ?", managerID, true).
		Distinct("memberships.member_id").
		Count(&dashboard.ActiveMembers).Error
	if err != nil {
		s := err.Error()
		c.JSON(status(err), DashboardResponse{
			Error: &s,
		})
		return
	}

	var recent []models.Consortium
	err = models.DB.
		Where(&models.Consortium{ManagerID: managerID}).
		Order("created_at DESC").
		Limit(5).
		Find(&recent).Error
	if err != nil {
		s := err.Error()
		c.JSON(status(err), DashboardResponse{
			Error: &s,
		})
		return
	}

	dashboard.Recent = make([]Consortium, 0, len(recent))
	for _, consortium := range recent {
		dashboard.Recent = append(dashboard.Recent, newConsortium(c, consortium))
	}

	c.JSON(http.StatusOK, DashboardResponse{Data: &dashboard})
}
