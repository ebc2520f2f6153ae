package v1

import (
	"net/http"

	"github.com/consorcio/backend/internal/engine"
	"github.com/consorcio/backend/internal/httputil"
	"github.com/consorcio/backend/internal/models"
	"github.com/gin-gonic/gin"
)

func (co Controller) registerContemplationRoutes(r *gin.RouterGroup) {
	r.OPTIONS("/:id/contemplations", OptionsContemplationList)
	r.GET("/:id/contemplations", co.GetContemplations)
	r.POST("/:id/contemplations", co.CreateContemplations)

	r.OPTIONS("/:id/contemplations/auto", OptionsAutoAllocation)
	r.POST("/:id/contemplations/auto", co.AutoAllocate)
}

// RegisterContemplationRoutes registers the routes for contemplations with
// the RouterGroup that is passed.
func (co Controller) RegisterContemplationRoutes(r *gin.RouterGroup) {
	r.OPTIONS("/:id", OptionsContemplationDetail)
	r.GET("/:id", GetContemplation)
	r.PATCH("/:id", co.UpdateContemplation)
	r.DELETE("/:id", co.DeleteContemplation)
}

// @Summary		Allowed HTTP verbs
// @Description	Returns an empty response with the HTTP Header "allow" set to the allowed HTTP verbs
// @Tags			Contemplations
// @Success		204
// @Param			id	path	URIID	true	"ignored, but needed: https://github.com/swaggo/swag/issues/1014"
// @Router			/v1/consortiums/{id}/contemplations [options]
func OptionsContemplationList(c *gin.Context) {
	httputil.OptionsGetPost(c)
}

// @Summary		Allowed HTTP verbs
// @Description	Returns an empty response with the HTTP Header "allow" set to the allowed HTTP verbs
// @Tags			Contemplations
// @Success		204
// @Param			id	path	URIID	true	"ignored, but needed: https://github.com/swaggo/swag/issues/1014"
// @Router			/v1/consortiums/{id}/contemplations/auto [options]
func OptionsAutoAllocation(c *gin.Context) {
	httputil.OptionsPost(c)
}

// @Summary		Allowed HTTP verbs
// @Description	Returns an empty response with the HTTP Header "allow" set to the allowed HTTP verbs
// @Tags			Contemplations
// @Success		204
// @Failure		400	{object}	httpError
// @Failure		404	{object}	httpError
// @Failure		500	{object}	httpError
// @Param			id	path		URIID	true	"ignored, but needed: https://github.com/swaggo/swag/issues/1014"
// @Router			/v1/contemplations/{id} [options]
func OptionsContemplationDetail(c *gin.Context) {
	var uri URIID
	err := c.ShouldBindUri(&uri)
	if err != nil {
		c.JSON(status(err), httpError{
			Error: err.Error(),
		})
		return
	}

	err = models.DB.First(&models.Contemplation{}, uri.ID).Error
	if err != nil {
		c.JSON(status(err), httpError{
			Error: err.Error(),
		})
		return
	}

	httputil.OptionsGetPatchDelete(c)
}

// @Summary		List contemplations
// @Description	Returns the contemplations of a consortium ordered by month
// @Tags			Contemplations
// @Produce		json
// @Success		200	{object}	ContemplationListResponse
// @Failure		400	{object}	ContemplationListResponse
// @Failure		404	{object}	ContemplationListResponse
// @Failure		500	{object}	ContemplationListResponse
// @Param			id	path		URIID	true	"ignored, but needed: https://github.com/swaggo/swag/issues/1014"
// @Router			/v1/consortiums/{id}/contemplations [get]
func (co Controller) GetContemplations(c *gin.Context) {
	var uri URIID
	err := c.ShouldBindUri(&uri)
	if err != nil {
		s := err.Error()
		c.JSON(status(err), ContemplationListResponse{
			Error: &s,
		})
		return
	}

	contemplations, err := co.Engine.Allocator.ListContemplations(c.Request.Context(), uri.ID.UUID)
	if err != nil {
		s := err.Error()
		c.JSON(status(err), ContemplationListResponse{
			Error: &s,
		})
		return
	}

	c.JSON(http.StatusOK, ContemplationListResponse{Data: newContemplations(c, contemplations)})
}

// CreateContemplations contemplates members in a month.
//
// @Summary		Contemplate members
// @Description	Contemplates one or more members in a month. The quota shares of a month must not exceed one quota.
// @Tags			Contemplations
// @Accept			json
// @Produce		json
// @Success		201				{object}	ContemplationListResponse
// @Failure		400				{object}	ContemplationListResponse
// @Failure		404				{object}	ContemplationListResponse
// @Failure		409				{object}	ContemplationListResponse
// @Failure		500				{object}	ContemplationListResponse
// @Param			id				path		URIID				true	"ignored, but needed: https://github.com/swaggo/swag/issues/1014"
// @Param			contemplation	body		ContemplationCreate	true	"Contemplation"
// @Router			/v1/consortiums/{id}/contemplations [post]
func (co Controller) CreateContemplations(c *gin.Context) {
	var uri URIID
	err := c.ShouldBindUri(&uri)
	if err != nil {
		s := err.Error()
		c.JSON(status(err), ContemplationListResponse{
			Error: &s,
		})
		return
	}

	var data ContemplationCreate
	err = httputil.BindData(c, &data)
	if err != nil {
		s := err.Error()
		c.JSON(status(err), ContemplationListResponse{
			Error: &s,
		})
		return
	}

	if len(data.MemberIDs) == 0 {
		s := errMembersMissing.Error()
		c.JSON(http.StatusBadRequest, ContemplationListResponse{
			Error: &s,
		})
		return
	}

	created, err := co.Engine.Allocator.Allocate(c.Request.Context(), engine.AllocationRequest{
		ConsortiumID: uri.ID.UUID,
		MemberIDs:    data.MemberIDs,
		Month:        data.Month,
		Type:         data.Type,
		BidAmount:    data.BidAmount,
		Note:         data.Note,
	})
	if err != nil {
		s := err.Error()
		c.JSON(status(err), ContemplationListResponse{
			Error: &s,
			Quota: quotaDetails(err),
		})
		return
	}

	c.JSON(http.StatusCreated, ContemplationListResponse{Data: newContemplations(c, created)})
}

// @Summary		Automatic allocation
// @Description	Contemplates all members that are not contemplated yet in random free months
// @Tags			Contemplations
// @Produce		json
// @Success		201	{object}	AutoAllocationResponse
// @Failure		400	{object}	AutoAllocationResponse
// @Failure		404	{object}	AutoAllocationResponse
// @Failure		422	{object}	AutoAllocationResponse
// @Failure		500	{object}	AutoAllocationResponse
// @Param			id	path		URIID	true	"ignored, but needed: https://github.com/swaggo/swag/issues/1014"
// @Router			/v1/consortiums/{id}/contemplations/auto [post]
func (co Controller) AutoAllocate(c *gin.Context) {
	var uri URIID
	err := c.ShouldBindUri(&uri)
	if err != nil {
		s := err.Error()
		c.JSON(status(err), AutoAllocationResponse{
			Error: &s,
		})
		return
	}

	result, err := co.Engine.Allocator.AutoAllocate(c.Request.Context(), uri.ID.UUID)
	if err != nil {
		s := err.Error()
		c.JSON(status(err), AutoAllocationResponse{
			Error: &s,
		})
		return
	}

	data := newAutoAllocation(c, result)
	c.JSON(http.StatusCreated, AutoAllocationResponse{Data: &data})
}

// @Summary		Get contemplation
// @Description	Returns a specific contemplation
// @Tags			Contemplations
// @Produce		json
// @Success		200	{object}	ContemplationResponse
// @Failure		400	{object}	ContemplationResponse
// @Failure		404	{object}	ContemplationResponse
// @Failure		500	{object}	ContemplationResponse
// @Param			id	path		URIID	true	"ignored, but needed: https://github.com/swaggo/swag/issues/1014"
// @Router			/v1/contemplations/{id} [get]
func GetContemplation(c *gin.Context) {
	var uri URIID
	err := c.ShouldBindUri(&uri)
	if err != nil {
		s := err.Error()
		c.JSON(status(err), ContemplationResponse{
			Error: &s,
		})
		return
	}

	var contemplation models.Contemplation
	err = models.DB.First(&contemplation, uri.ID).Error
	if err != nil {
		s := err.Error()
		c.JSON(status(err), ContemplationResponse{
			Error: &s,
		})
		return
	}

	data := newContemplation(c, contemplation)
	c.JSON(http.StatusOK, ContemplationResponse{Data: &data})
}

// @Summary		Update contemplation
// @Description	Changes the member, month, type, bid amount or note of a contemplation. Only values to be updated need to be specified.
// @Tags			Contemplations
// @Accept			json
// @Produce		json
// @Success		200				{object}	ContemplationResponse
// @Failure		400				{object}	ContemplationResponse
// @Failure		404				{object}	ContemplationResponse
// @Failure		409				{object}	ContemplationResponse
// @Failure		500				{object}	ContemplationResponse
// @Param			id				path		URIID					true	"ignored, but needed: https://github.com/swaggo/swag/issues/1014"
// @Param			contemplation	body		ContemplationEditable	true	"Contemplation"
// @Router			/v1/contemplations/{id} [patch]
func (co Controller) UpdateContemplation(c *gin.Context) {
	var uri URIID
	err := c.ShouldBindUri(&uri)
	if err != nil {
		s := err.Error()
		c.JSON(status(err), ContemplationResponse{
			Error: &s,
		})
		return
	}

	updateFields, err := httputil.GetBodyFields(c, ContemplationEditable{})
	if err != nil {
		s := err.Error()
		c.JSON(status(err), ContemplationResponse{
			Error: &s,
		})
		return
	}

	var data ContemplationEditable
	err = httputil.BindData(c, &data)
	if err != nil {
		s := err.Error()
		c.JSON(status(err), ContemplationResponse{
			Error: &s,
		})
		return
	}

	contemplation, err := co.Engine.Allocator.EditContemplation(c.Request.Context(), uri.ID.UUID, data.edit(updateFields))
	if err != nil {
		s := err.Error()
		c.JSON(status(err), ContemplationResponse{
			Error: &s,
			Quota: quotaDetails(err),
		})
		return
	}

	apiResource := newContemplation(c, contemplation)
	c.JSON(http.StatusOK, ContemplationResponse{Data: &apiResource})
}

// @Summary		Delete contemplation
// @Description	Deletes a contemplation together with all contemplations of the same month. The members are not contemplated anymore.
// @Tags			Contemplations
// @Produce		json
// @Success		204
// @Failure		400	{object}	httpError
// @Failure		404	{object}	httpError
// @Failure		500	{object}	httpError
// @Param			id	path		URIID	true	"ignored, but needed: https://github.com/swaggo/swag/issues/1014"
// @Router			/v1/contemplations/{id} [delete]
func (co Controller) DeleteContemplation(c *gin.Context) {
	var uri URIID
	err := c.ShouldBindUri(&uri)
	if err != nil {
		c.JSON(status(err), httpError{
			Error: err.Error(),
		})
		return
	}

	err = co.Engine.Allocator.DeleteContemplation(c.Request.Context(), uri.ID.UUID)
	if err != nil {
		c.JSON(status(err), httpError{
			Error: err.Error(),
		})
		return
	}

	c.JSON(http.StatusNoContent, nil)
}
