package v1

import (
	"net/http"

	"github.com/consorcio/backend/internal/httputil"
	"github.com/consorcio/backend/internal/models"
	"github.com/consorcio/backend/internal/types"
	"github.com/gin-gonic/gin"
	"golang.org/x/exp/slices"
)

func (co Controller) registerScheduleRoutes(r *gin.RouterGroup) {
	r.OPTIONS("/:id/schedule", OptionsSchedule)
	r.POST("/:id/schedule", co.GenerateSchedule)
	r.PUT("/:id/schedule", co.RegenerateSchedule)

	r.OPTIONS("/:id/obligations", OptionsObligationList)
	r.GET("/:id/obligations", co.GetObligations)

	r.OPTIONS("/:id/summary", OptionsSummary)
	r.GET("/:id/summary", co.GetSummary)
}

// RegisterObligationRoutes registers the routes for obligations with
// the RouterGroup that is passed.
func (co Controller) RegisterObligationRoutes(r *gin.RouterGroup) {
	r.OPTIONS("/:id/payments", OptionsPayments)
	r.POST("/:id/payments", co.RecordPayment)
}

// RegisterSweepRoutes registers the route for manual overdue sweeps.
func (co Controller) RegisterSweepRoutes(r *gin.RouterGroup) {
	r.OPTIONS("", OptionsSweeps)
	r.POST("", co.Sweep)
}

// @Summary		Allowed HTTP verbs
// @Description	Returns an empty response with the HTTP Header "allow" set to the allowed HTTP verbs
// @Tags			Obligations
// @Success		204
// @Param			id	path	URIID	true	"ignored, but needed: https://github.com/swaggo/swag/issues/1014"
// @Router			/v1/consortiums/{id}/schedule [options]
func OptionsSchedule(c *gin.Context) {
	httputil.OptionsPostPut(c)
}

// @Summary		Allowed HTTP verbs
// @Description	Returns an empty response with the HTTP Header "allow" set to the allowed HTTP verbs
// @Tags			Obligations
// @Success		204
// @Param			id	path	URIID	true	"ignored, but needed: https://github.com/swaggo/swag/issues/1014"
// @Router			/v1/consortiums/{id}/obligations [options]
func OptionsObligationList(c *gin.Context) {
	httputil.OptionsGet(c)
}

// @Summary		Allowed HTTP verbs
// @Description	Returns an empty response with the HTTP Header "allow" set to the allowed HTTP verbs
// @Tags			Obligations
// @Success		204
// @Param			id	path	URIID	true	"ignored, but needed: https://github.com/swaggo/swag/issues/1014"
// @Router			/v1/consortiums/{id}/summary [options]
func OptionsSummary(c *gin.Context) {
	httputil.OptionsGet(c)
}

// @Summary		Allowed HTTP verbs
// @Description	Returns an empty response with the HTTP Header "allow" set to the allowed HTTP verbs
// @Tags			Obligations
// @Success		204
// @Param			id	path	URIID	true	"ignored, but needed: https://github.com/swaggo/swag/issues/1014"
// @Router			/v1/obligations/{id}/payments [options]
func OptionsPayments(c *gin.Context) {
	httputil.OptionsPost(c)
}

// @Summary		Allowed HTTP verbs
// @Description	Returns an empty response with the HTTP Header "allow" set to the allowed HTTP verbs
// @Tags			Obligations
// @Success		204
// @Router			/v1/sweeps [options]
func OptionsSweeps(c *gin.Context) {
	httputil.OptionsPost(c)
}

// @Summary		Generate schedule
// @Description	Creates the missing obligations for all active members and all months of the consortium. Existing obligations are kept.
// @Tags			Obligations
// @Produce		json
// @Success		201	{object}	ObligationListResponse
// @Failure		400	{object}	ObligationListResponse
// @Failure		404	{object}	ObligationListResponse
// @Failure		500	{object}	ObligationListResponse
// @Param			id	path		URIID	true	"ignored, but needed: https://github.com/swaggo/swag/issues/1014"
// @Router			/v1/consortiums/{id}/schedule [post]
func (co Controller) GenerateSchedule(c *gin.Context) {
	var uri URIID
	err := c.ShouldBindUri(&uri)
	if err != nil {
		s := err.Error()
		c.JSON(status(err), ObligationListResponse{
			Error: &s,
		})
		return
	}

	created, err := co.Engine.Ledger.GenerateSchedule(c.Request.Context(), uri.ID.UUID)
	if err != nil {
		s := err.Error()
		c.JSON(status(err), ObligationListResponse{
			Error: &s,
		})
		return
	}

	c.JSON(http.StatusCreated, ObligationListResponse{Data: newObligations(c, created)})
}

// @Summary		Regenerate schedule
// @Description	Deletes all obligations of the consortium, including paid ones, recomputes the monthly amounts and generates the schedule again.
// @Tags			Obligations
// @Produce		json
// @Success		200	{object}	ObligationListResponse
// @Failure		400	{object}	ObligationListResponse
// @Failure		404	{object}	ObligationListResponse
// @Failure		500	{object}	ObligationListResponse
// @Param			id	path		URIID	true	"ignored, but needed: https://github.com/swaggo/swag/issues/1014"
// @Router			/v1/consortiums/{id}/schedule [put]
func (co Controller) RegenerateSchedule(c *gin.Context) {
	var uri URIID
	err := c.ShouldBindUri(&uri)
	if err != nil {
		s := err.Error()
		c.JSON(status(err), ObligationListResponse{
			Error: &s,
		})
		return
	}

	created, err := co.Engine.Ledger.RegenerateSchedule(c.Request.Context(), uri.ID.UUID)
	if err != nil {
		s := err.Error()
		c.JSON(status(err), ObligationListResponse{
			Error: &s,
		})
		return
	}

	c.JSON(http.StatusOK, ObligationListResponse{Data: newObligations(c, created)})
}

// @Summary		List obligations
// @Description	Returns the obligations of a consortium ordered by due date
// @Tags			Obligations
// @Produce		json
// @Success		200		{object}	ObligationListResponse
// @Failure		400		{object}	ObligationListResponse
// @Failure		404		{object}	ObligationListResponse
// @Failure		500		{object}	ObligationListResponse
// @Param			id		path		URIID	true	"ignored, but needed: https://github.com/swaggo/swag/issues/1014"
// @Param			month	query		int		false	"Month of the consortium. All months when not set"
// @Param			period	query		string	false	"Calendar month the obligations are due in, as YYYY-MM"
// @Router			/v1/consortiums/{id}/obligations [get]
func (co Controller) GetObligations(c *gin.Context) {
	var uri URIID
	err := c.ShouldBindUri(&uri)
	if err != nil {
		s := err.Error()
		c.JSON(status(err), ObligationListResponse{
			Error: &s,
		})
		return
	}

	var filter ObligationQueryFilter
	if err := c.Bind(&filter); err != nil {
		s := httputil.ErrInvalidQueryString.Error()
		c.JSON(http.StatusBadRequest, ObligationListResponse{
			Error: &s,
		})
		return
	}

	var period types.Month
	if filter.Period != "" {
		period, err = types.ParseMonth(filter.Period)
		if err != nil {
			s := httputil.ErrInvalidQueryString.Error()
			c.JSON(http.StatusBadRequest, ObligationListResponse{
				Error: &s,
			})
			return
		}
	}

	obligations, err := co.Engine.Ledger.ListObligations(c.Request.Context(), uri.ID.UUID, filter.Month)
	if err != nil {
		s := err.Error()
		c.JSON(status(err), ObligationListResponse{
			Error: &s,
		})
		return
	}

	if !period.IsZero() {
		obligations = slices.DeleteFunc(obligations, func(o models.Obligation) bool {
			return !period.Contains(o.DueDate)
		})
	}

	c.JSON(http.StatusOK, ObligationListResponse{Data: newObligations(c, obligations)})
}

// @Summary		Payment summary
// @Description	Returns the obligations of a consortium counted by status
// @Tags			Obligations
// @Produce		json
// @Success		200	{object}	SummaryResponse
// @Failure		400	{object}	SummaryResponse
// @Failure		404	{object}	SummaryResponse
// @Failure		500	{object}	SummaryResponse
// @Param			id	path		URIID	true	"ignored, but needed: https://github.com/swaggo/swag/issues/1014"
// @Router			/v1/consortiums/{id}/summary [get]
func (co Controller) GetSummary(c *gin.Context) {
	var uri URIID
	err := c.ShouldBindUri(&uri)
	if err != nil {
		s := err.Error()
		c.JSON(status(err), SummaryResponse{
			Error: &s,
		})
		return
	}

	summary, err := co.Engine.Ledger.Summary(c.Request.Context(), uri.ID.UUID)
	if err != nil {
		s := err.Error()
		c.JSON(status(err), SummaryResponse{
			Error: &s,
		})
		return
	}

	data := newSummary(summary)
	c.JSON(http.StatusOK, SummaryResponse{Data: &data})
}

// @Summary		Record payment
// @Description	Records a payment for an obligation. Amounts lower than the expected amount mark the obligation as partially paid.
// @Tags			Obligations
// @Accept			json
// @Produce		json
// @Success		200		{object}	ObligationResponse
// @Failure		400		{object}	ObligationResponse
// @Failure		404		{object}	ObligationResponse
// @Failure		500		{object}	ObligationResponse
// @Param			id		path		URIID	true	"ignored, but needed: https://github.com/swaggo/swag/issues/1014"
// @Param			payment	body		Payment	true	"Payment"
// @Router			/v1/obligations/{id}/payments [post]
func (co Controller) RecordPayment(c *gin.Context) {
	var uri URIID
	err := c.ShouldBindUri(&uri)
	if err != nil {
		s := err.Error()
		c.JSON(status(err), ObligationResponse{
			Error: &s,
		})
		return
	}

	var payment Payment
	err = httputil.BindData(c, &payment)
	if err != nil {
		s := err.Error()
		c.JSON(status(err), ObligationResponse{
			Error: &s,
		})
		return
	}

	obligation, err := co.Engine.Ledger.RecordPayment(c.Request.Context(), uri.ID.UUID, payment.Amount)
	if err != nil {
		s := err.Error()
		c.JSON(status(err), ObligationResponse{
			Error: &s,
		})
		return
	}

	data := newObligation(c, obligation)
	c.JSON(http.StatusOK, ObligationResponse{Data: &data})
}

// @Summary		Sweep overdue obligations
// @Description	Marks all pending obligations due before today as overdue. The sweep also runs on a schedule.
// @Tags			Obligations
// @Produce		json
// @Success		200	{object}	SweepResponse
// @Failure		500	{object}	SweepResponse
// @Router			/v1/sweeps [post]
func (co Controller) Sweep(c *gin.Context) {
	marked, err := co.Engine.Sweeper.SweepOverdue(c.Request.Context())
	if err != nil {
		s := err.Error()
		c.JSON(status(err), SweepResponse{
			Error: &s,
		})
		return
	}

	c.JSON(http.StatusOK, SweepResponse{Data: &SweepResult{Marked: marked}})
}
