package engine

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
)

// Error kinds. Every error returned by the engine matches exactly one of
// them with errors.Is.
var (
	ErrNotFound   = errors.New("not found")
	ErrValidation = errors.New("validation failed")
	ErrConflict   = errors.New("conflict")
	ErrCapacity   = errors.New("capacity exceeded")
)

var (
	ErrQuotaExceeded        = kindError(ErrConflict, "the quota shares contemplated in the month would exceed one quota")
	ErrMonthOccupied        = kindError(ErrConflict, "the month is already occupied by another contemplation")
	ErrAlreadyContemplated  = kindError(ErrConflict, "the member is already contemplated")
	ErrDuplicateMembership  = kindError(ErrConflict, "the member is already an active member of the consortium")
	ErrMembershipQuotaFull  = kindError(ErrConflict, "the consortium does not have enough quotas left")
	ErrTermTooShort         = kindError(ErrConflict, "the consortium has contemplations after its last month")
	ErrQuotaExceedsTerm     = kindError(ErrCapacity, "the quotas waiting for contemplation exceed the months of the consortium")
	ErrNoPendingMemberships = kindError(ErrValidation, "all members of the consortium are already contemplated")
	ErrInvalidQuota         = kindError(ErrValidation, "invalid quota count")
	ErrInvalidMonth         = kindError(ErrValidation, "invalid month")
	ErrInvalidAmount        = kindError(ErrValidation, "the amount must be positive")
	ErrInvalidMembers       = kindError(ErrValidation, "invalid member selection")
	ErrMembershipNotFound   = kindError(ErrNotFound, "there is no active membership matching your query")
)

// domainError is an error of one of the error kinds.
type domainError struct {
	kind error
	msg  string
}

func kindError(kind error, msg string) error {
	return &domainError{kind: kind, msg: msg}
}

func (e *domainError) Error() string {
	return e.msg
}

func (e *domainError) Unwrap() error {
	return e.kind
}

// QuotaError reports the month and the quota shares that made an
// allocation fail. Err is ErrQuotaExceeded or ErrMonthOccupied.
type QuotaError struct {
	Err       error
	Month     int
	Used      decimal.Decimal // Quota shares already contemplated in the month
	Requested decimal.Decimal // Quota shares of the request
	Capacity  decimal.Decimal
}

func (e *QuotaError) Error() string {
	return fmt.Sprintf("%s: month %d already holds %s of %s quota units, %s requested", e.Err, e.Month, e.Used.String(), e.Capacity.String(), e.Requested.String())
}

func (e *QuotaError) Unwrap() error {
	return e.Err
}
