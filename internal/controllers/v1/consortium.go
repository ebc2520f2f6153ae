package v1

import (
	"net/http"
	"strings"

	"github.com/consorcio/backend/internal/httputil"
	"github.com/consorcio/backend/internal/models"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
	"github.com/ryanuber/go-glob"
	"golang.org/x/exp/slices"
	"gorm.io/gorm"
)

// RegisterConsortiumRoutes registers the routes for consortiums with
// the RouterGroup that is passed.
func (co Controller) RegisterConsortiumRoutes(r *gin.RouterGroup) {
	// Root group
	{
		r.OPTIONS("", OptionsConsortiumList)
		r.GET("", GetConsortiums)
		r.POST("", CreateConsortiums)
	}

	// Consortium with ID
	{
		r.OPTIONS("/:id", OptionsConsortiumDetail)
		r.GET("/:id", GetConsortium)
		r.PATCH("/:id", co.UpdateConsortium)
		r.DELETE("/:id", DeleteConsortium)
	}

	co.registerMembershipRoutes(r)
	co.registerScheduleRoutes(r)
	co.registerContemplationRoutes(r)
	co.registerTimelineRoutes(r)
}

// @Summary		Allowed HTTP verbs
// @Description	Returns an empty response with the HTTP Header "allow" set to the allowed HTTP verbs
// @Tags			Consortiums
// @Success		204
// @Router			/v1/consortiums [options]
func OptionsConsortiumList(c *gin.Context) {
	httputil.OptionsGetPost(c)
}

// @Summary		Allowed HTTP verbs
// @Description	Returns an empty response with the HTTP Header "allow" set to the allowed HTTP verbs
// @Tags			Consortiums
// @Success		204
// @Failure		400	{object}	httpError
// @Failure		404	{object}	httpError
// @Failure		500	{object}	httpError
// @Param			id	path		URIID	true	"ignored, but needed: https://github.com/swaggo/swag/issues/1014"
// @Router			/v1/consortiums/{id} [options]
func OptionsConsortiumDetail(c *gin.Context) {
	var uri URIID
	err := c.ShouldBindUri(&uri)
	if err != nil {
		c.JSON(status(err), httpError{
			Error: err.Error(),
		})
		return
	}

	err = models.DB.First(&models.Consortium{}, uri.ID).Error
	if err != nil {
		c.JSON(status(err), httpError{
			Error: err.Error(),
		})
		return
	}

	httputil.OptionsGetPatchDelete(c)
}

// @Summary		Create consortiums
// @Description	Creates new consortiums
// @Tags			Consortiums
// @Produce		json
// @Success		201			{object}	ConsortiumCreateResponse
// @Failure		400			{object}	ConsortiumCreateResponse
// @Failure		500			{object}	ConsortiumCreateResponse
// @Param			consortiums	body		[]ConsortiumEditable	true	"Consortiums"
// @Router			/v1/consortiums [post]
func CreateConsortiums(c *gin.Context) {
	var editables []ConsortiumEditable

	// Bind data and return error if not possible
	err := httputil.BindData(c, &editables)
	if err != nil {
		e := err.Error()
		c.JSON(status(err), ConsortiumCreateResponse{
			Error: &e,
		})
		return
	}

	// The final http status. Will be modified when errors occur
	status := http.StatusCreated
	r := ConsortiumCreateResponse{}

	for _, editable := range editables {
		consortium := editable.model()
		err = models.DB.Create(&consortium).Error
		if err != nil {
			status = r.appendError(err, status)
			continue
		}

		data := newConsortium(c, consortium)
		r.Data = append(r.Data, ConsortiumResponse{Data: &data})
	}

	c.JSON(status, r)
}

// @Summary		List consortiums
// @Description	Returns a list of consortiums
// @Tags			Consortiums
// @Produce		json
// @Success		200	{object}	ConsortiumListResponse
// @Failure		400	{object}	ConsortiumListResponse
// @Failure		500	{object}	ConsortiumListResponse
// @Router			/v1/consortiums [get]
// @Param			name	query	string	false	"Filter by name, supports * as wildcard"
// @Param			manager	query	string	false	"Filter by manager ID"
// @Param			status	query	string	false	"Filter by status"
// @Param			offset	query	uint	false	"The offset of the first Consortium returned. Defaults to 0."
// @Param			limit	query	int		false	"Maximum number of Consortiums to return. Defaults to 50."
func GetConsortiums(c *gin.Context) {
	var filter ConsortiumQueryFilter
	if err := c.Bind(&filter); err != nil {
		s := err.Error()
		c.JSON(http.StatusBadRequest, ConsortiumListResponse{
			Error: &s,
		})
		return
	}

	// Get the set parameters in the query string
	queryFields, setFields := httputil.GetURLFields(c.Request.URL, filter)

	model, err := filter.model()
	if err != nil {
		s := err.Error()
		c.JSON(status(err), ConsortiumListResponse{
			Error: &s,
		})
		return
	}

	var consortiums []models.Consortium
	err = models.DB.
		Order("name ASC").
		Where(&model, queryFields...).
		Find(&consortiums).Error
	if err != nil {
		s := err.Error()
		c.JSON(status(err), ConsortiumListResponse{
			Error: &s,
		})
		return
	}

	// The name is matched as glob pattern, which the database cannot do
	if slices.Contains(setFields, "Name") {
		pattern := strings.ToLower(filter.Name)
		consortiums = slices.DeleteFunc(consortiums, func(consortium models.Consortium) bool {
			return !glob.Glob(pattern, strings.ToLower(consortium.Name))
		})
	}

	// Default to 50 Consortiums and set the limit
	limit := 50
	if slices.Contains(setFields, "Limit") {
		limit = filter.Limit
	}

	total := int64(len(consortiums))
	consortiums = page(consortiums, filter.Offset, limit)

	data := make([]Consortium, 0, len(consortiums))
	for _, consortium := range consortiums {
		data = append(data, newConsortium(c, consortium))
	}

	c.JSON(http.StatusOK, ConsortiumListResponse{
		Data: data,
		Pagination: &Pagination{
			Count:  len(data),
			Total:  total,
			Offset: filter.Offset,
			Limit:  limit,
		},
	})
}

// @Summary		Get consortium
// @Description	Returns a specific consortium
// @Tags			Consortiums
// @Produce		json
// @Success		200	{object}	ConsortiumResponse
// @Failure		400	{object}	ConsortiumResponse
// @Failure		404	{object}	ConsortiumResponse
// @Failure		500	{object}	ConsortiumResponse
// @Param			id	path		URIID	true	"ignored, but needed: https://github.com/swaggo/swag/issues/1014"
// @Router			/v1/consortiums/{id} [get]
func GetConsortium(c *gin.Context) {
	var uri URIID
	err := c.ShouldBindUri(&uri)
	if err != nil {
		s := err.Error()
		c.JSON(status(err), ConsortiumResponse{
			Error: &s,
		})
		return
	}

	var consortium models.Consortium
	err = models.DB.First(&consortium, uri.ID).Error
	if err != nil {
		s := err.Error()
		c.JSON(status(err), ConsortiumResponse{
			Error: &s,
		})
		return
	}

	data := newConsortium(c, consortium)
	c.JSON(http.StatusOK, ConsortiumResponse{Data: &data})
}

// UpdateConsortium updates a consortium. When one of the values the monthly
// amounts derive from changes, the schedule is regenerated.
//
// @Summary		Update consortium
// @Description	Update an existing consortium. Only values to be updated need to be specified. Changing the amounts, term, quotas or start date regenerates the schedule.
// @Tags			Consortiums
// @Accept			json
// @Produce		json
// @Success		200			{object}	ConsortiumResponse
// @Failure		400			{object}	ConsortiumResponse
// @Failure		404			{object}	ConsortiumResponse
// @Failure		409			{object}	ConsortiumResponse
// @Failure		500			{object}	ConsortiumResponse
// @Param			id			path		URIID				true	"ignored, but needed: https://github.com/swaggo/swag/issues/1014"
// @Param			consortium	body		ConsortiumEditable	true	"Consortium"
// @Router			/v1/consortiums/{id} [patch]
func (co Controller) UpdateConsortium(c *gin.Context) {
	var uri URIID
	err := c.ShouldBindUri(&uri)
	if err != nil {
		s := err.Error()
		c.JSON(status(err), ConsortiumResponse{
			Error: &s,
		})
		return
	}

	err = models.DB.First(&models.Consortium{}, uri.ID).Error
	if err != nil {
		s := err.Error()
		c.JSON(status(err), ConsortiumResponse{
			Error: &s,
		})
		return
	}

	updateFields, err := httputil.GetBodyFields(c, ConsortiumEditable{})
	if err != nil {
		s := err.Error()
		c.JSON(status(err), ConsortiumResponse{
			Error: &s,
		})
		return
	}

	var data ConsortiumEditable
	err = httputil.BindData(c, &data)
	if err != nil {
		s := err.Error()
		c.JSON(status(err), ConsortiumResponse{
			Error: &s,
		})
		return
	}

	update := data.model()
	consortium, err := co.Engine.Ledger.UpdateConsortium(c.Request.Context(), uri.ID.UUID, func(consortium *models.Consortium) {
		merge(consortium, &update, updateFields)
	}, containsAny(updateFields, formulaFields))
	if err != nil {
		s := err.Error()
		c.JSON(status(err), ConsortiumResponse{
			Error: &s,
		})
		return
	}

	apiResource := newConsortium(c, consortium)
	c.JSON(http.StatusOK, ConsortiumResponse{Data: &apiResource})
}

// DeleteConsortium deletes a consortium with its memberships, obligations
// and contemplations.
//
// @Summary		Delete consortium
// @Description	Deletes a consortium with all of its memberships, obligations and contemplations
// @Tags			Consortiums
// @Produce		json
// @Success		204
// @Failure		400	{object}	httpError
// @Failure		404	{object}	httpError
// @Failure		500	{object}	httpError
// @Param			id	path		URIID	true	"ignored, but needed: https://github.com/swaggo/swag/issues/1014"
// @Router			/v1/consortiums/{id} [delete]
func DeleteConsortium(c *gin.Context) {
	var uri URIID
	err := c.ShouldBindUri(&uri)
	if err != nil {
		c.JSON(status(err), httpError{
			Error: err.Error(),
		})
		return
	}

	var consortium models.Consortium
	err = models.DB.First(&consortium, uri.ID).Error
	if err != nil {
		c.JSON(status(err), httpError{
			Error: err.Error(),
		})
		return
	}

	err = models.DB.Transaction(func(tx *gorm.DB) error {
		// Dependent resources first, the foreign keys are enforced
		for _, dependent := range []any{&models.Contemplation{}, &models.Obligation{}, &models.Membership{}} {
			if err := tx.Where("consortium_id = ?", consortium.ID).Delete(dependent).Error; err != nil {
				return err
			}
		}

		return tx.Delete(&consortium).Error
	})
	if err != nil {
		c.JSON(status(err), httpError{
			Error: err.Error(),
		})
		return
	}

	log.Info().Str("consortium", consortium.ID.String()).Msg("consortium deleted")
	c.JSON(http.StatusNoContent, nil)
}
