package v1

import (
	"errors"
	"net/http"

	"github.com/consorcio/backend/internal/engine"
	"github.com/consorcio/backend/internal/models"
)

// status returns the appropriate status for an error
func status(err error) int {
	switch {
	case errors.Is(err, models.ErrGeneral):
		return http.StatusInternalServerError
	case errors.Is(err, models.ErrResourceNotFound), errors.Is(err, engine.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, engine.ErrCapacity):
		return http.StatusUnprocessableEntity
	case errors.Is(err, engine.ErrConflict), errors.Is(err, models.ErrMembershipNotUnique), errors.Is(err, models.ErrObligationNotUnique), errors.Is(err, errMemberInUse):
		return http.StatusConflict
	}

	return http.StatusBadRequest
}

var (
	errMemberIDMissing = errors.New("the memberId must be set")
	errMembersMissing  = errors.New("at least one member must be set in memberIds")
	errManagerMissing  = errors.New("the manager query parameter must be set")
	errMemberInUse     = errors.New("the member has memberships in consortiums and cannot be deleted")
)
