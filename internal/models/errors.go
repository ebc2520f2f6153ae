package models

import (
	"errors"
)

var (
	ErrGeneral          = errors.New("an error occurred on the server during your request")
	ErrResourceNotFound = errors.New("there is no")

	ErrConsortiumNameEmpty          = errors.New("the name of a consortium must not be empty")
	ErrConsortiumTermOutOfRange     = errors.New("the term of a consortium must be between 1 and 120 months")
	ErrConsortiumQuotasNotPositive  = errors.New("the total number of quotas of a consortium must be at least 1")
	ErrConsortiumAmountNegative     = errors.New("the amounts of a consortium must not be negative")
	ErrConsortiumStartDateMissing   = errors.New("the start date of a consortium must be set")
	ErrConsortiumEndBeforeStart     = errors.New("the end date of a consortium must not be before its start date")
	ErrConsortiumStatusInvalid      = errors.New("the status of a consortium must be one of active, closed, cancelled")
	ErrMemberNameEmpty              = errors.New("the name of a member must not be empty")
	ErrMembershipQuotaNotPositive   = errors.New("the quota count of a membership must be positive")
	ErrMembershipNotUnique          = errors.New("the member already has a membership in this consortium")
	ErrObligationMonthNotPositive   = errors.New("the reference month of an obligation must be at least 1")
	ErrObligationNotUnique          = errors.New("there is already an obligation for this member and month")
	ErrObligationStatusInvalid      = errors.New("the status of an obligation must be one of pending, paid, overdue, partial")
	ErrContemplationMonthOutOfRange = errors.New("the month of a contemplation must be between 1 and 120")
	ErrContemplationTypeInvalid     = errors.New("the type of a contemplation must be one of draw, bid, automatic")
)
