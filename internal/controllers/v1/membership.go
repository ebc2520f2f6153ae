package v1

import (
	"net/http"

	"github.com/consorcio/backend/internal/engine"
	"github.com/consorcio/backend/internal/httputil"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

func (co Controller) registerMembershipRoutes(r *gin.RouterGroup) {
	r.OPTIONS("/:id/memberships", OptionsMembershipList)
	r.GET("/:id/memberships", co.GetMemberships)
	r.POST("/:id/memberships", co.JoinConsortium)

	r.OPTIONS("/:id/memberships/:memberId", OptionsMembershipDetail)
	r.DELETE("/:id/memberships/:memberId", co.LeaveConsortium)
}

// @Summary		Allowed HTTP verbs
// @Description	Returns an empty response with the HTTP Header "allow" set to the allowed HTTP verbs
// @Tags			Memberships
// @Success		204
// @Param			id	path	URIID	true	"ignored, but needed: https://github.com/swaggo/swag/issues/1014"
// @Router			/v1/consortiums/{id}/memberships [options]
func OptionsMembershipList(c *gin.Context) {
	httputil.OptionsGetPost(c)
}

// @Summary		Allowed HTTP verbs
// @Description	Returns an empty response with the HTTP Header "allow" set to the allowed HTTP verbs
// @Tags			Memberships
// @Success		204
// @Param			id			path	URIID	true	"ignored, but needed: https://github.com/swaggo/swag/issues/1014"
// @Param			memberId	path	string	true	"ID of the member"
// @Router			/v1/consortiums/{id}/memberships/{memberId} [options]
func OptionsMembershipDetail(c *gin.Context) {
	httputil.OptionsDelete(c)
}

// @Summary		List memberships
// @Description	Returns the active memberships of a consortium
// @Tags			Memberships
// @Produce		json
// @Success		200	{object}	MembershipListResponse
// @Failure		400	{object}	MembershipListResponse
// @Failure		404	{object}	MembershipListResponse
// @Failure		500	{object}	MembershipListResponse
// @Param			id	path		URIID	true	"ignored, but needed: https://github.com/swaggo/swag/issues/1014"
// @Router			/v1/consortiums/{id}/memberships [get]
func (co Controller) GetMemberships(c *gin.Context) {
	var uri URIID
	err := c.ShouldBindUri(&uri)
	if err != nil {
		s := err.Error()
		c.JSON(status(err), MembershipListResponse{
			Error: &s,
		})
		return
	}

	memberships, err := co.Engine.Memberships.List(c.Request.Context(), uri.ID.UUID)
	if err != nil {
		s := err.Error()
		c.JSON(status(err), MembershipListResponse{
			Error: &s,
		})
		return
	}

	data := make([]Membership, 0, len(memberships))
	for _, membership := range memberships {
		data = append(data, newMembership(c, membership))
	}

	c.JSON(http.StatusOK, MembershipListResponse{Data: data})
}

// JoinConsortium adds a member to a consortium.
//
// @Summary		Join consortium
// @Description	Adds a member to the consortium. A member who left the consortium before is activated again.
// @Tags			Memberships
// @Accept			json
// @Produce		json
// @Success		201			{object}	MembershipResponse
// @Failure		400			{object}	MembershipResponse
// @Failure		404			{object}	MembershipResponse
// @Failure		409			{object}	MembershipResponse
// @Failure		500			{object}	MembershipResponse
// @Param			id			path		URIID			true	"ignored, but needed: https://github.com/swaggo/swag/issues/1014"
// @Param			membership	body		MembershipJoin	true	"Membership"
// @Router			/v1/consortiums/{id}/memberships [post]
func (co Controller) JoinConsortium(c *gin.Context) {
	var uri URIID
	err := c.ShouldBindUri(&uri)
	if err != nil {
		s := err.Error()
		c.JSON(status(err), MembershipResponse{
			Error: &s,
		})
		return
	}

	var data MembershipJoin
	err = httputil.BindData(c, &data)
	if err != nil {
		s := err.Error()
		c.JSON(status(err), MembershipResponse{
			Error: &s,
		})
		return
	}

	if data.MemberID == uuid.Nil {
		s := errMemberIDMissing.Error()
		c.JSON(http.StatusBadRequest, MembershipResponse{
			Error: &s,
		})
		return
	}

	membership, err := co.Engine.Memberships.Join(c.Request.Context(), engine.JoinRequest{
		ConsortiumID: uri.ID.UUID,
		MemberID:     data.MemberID,
		QuotaCount:   data.QuotaCount,
		JoinedAt:     data.JoinedAt,
	})
	if err != nil {
		s := err.Error()
		c.JSON(status(err), MembershipResponse{
			Error: &s,
		})
		return
	}

	apiResource := newMembership(c, membership)
	c.JSON(http.StatusCreated, MembershipResponse{Data: &apiResource})
}

// LeaveConsortium removes a member from a consortium.
//
// @Summary		Leave consortium
// @Description	Removes the member from the consortium. The obligations and contemplations of the member are deleted.
// @Tags			Memberships
// @Produce		json
// @Success		204
// @Failure		400			{object}	httpError
// @Failure		404			{object}	httpError
// @Failure		500			{object}	httpError
// @Param			id			path		URIID	true	"ignored, but needed: https://github.com/swaggo/swag/issues/1014"
// @Param			memberId	path		string	true	"ID of the member"
// @Router			/v1/consortiums/{id}/memberships/{memberId} [delete]
func (co Controller) LeaveConsortium(c *gin.Context) {
	var uri URIMembership
	err := c.ShouldBindUri(&uri)
	if err != nil {
		c.JSON(status(err), httpError{
			Error: err.Error(),
		})
		return
	}

	_, err = co.Engine.Memberships.Leave(c.Request.Context(), uri.ID.UUID, uri.MemberID.UUID)
	if err != nil {
		c.JSON(status(err), httpError{
			Error: err.Error(),
		})
		return
	}

	c.JSON(http.StatusNoContent, nil)
}
