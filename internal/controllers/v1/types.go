package v1

import (
	"reflect"

	"github.com/consorcio/backend/internal/httputil"
	"github.com/consorcio/backend/internal/uuid"
	google_uuid "github.com/google/uuid"
	"golang.org/x/exp/slices"
)

type URIID struct {
	ID uuid.UUID `uri:"id" binding:"required"` // The ID of the resource
}

type URIMembership struct {
	ID       uuid.UUID `uri:"id" binding:"required"`       // The ID of the consortium
	MemberID uuid.UUID `uri:"memberId" binding:"required"` // The ID of the member
}

type Pagination struct {
	Count  int   `json:"count" example:"25"`  // The amount of records returned in this response
	Offset uint  `json:"offset" example:"50"` // The offset for the first record returned
	Limit  int   `json:"limit" example:"25"`  // The maximum amount of resources to return for this request
	Total  int64 `json:"total" example:"827"` // The total number of resources matching the query
}

type httpError struct {
	Error string `json:"error" example:"the specified resource ID is not a valid UUID"`
}

// parseUUID parses an ID from a query parameter. The empty string parses
// to the nil UUID.
func parseUUID(s string) (google_uuid.UUID, error) {
	id, err := uuid.Parse(s)
	if err != nil {
		return google_uuid.Nil, httputil.ErrInvalidUUID
	}

	return id.UUID, nil
}

// page returns the resources selected by offset and limit. A negative
// limit selects all resources after the offset.
func page[T any](resources []T, offset uint, limit int) []T {
	if int(offset) >= len(resources) {
		return resources[:0]
	}

	resources = resources[offset:]
	if limit >= 0 && limit < len(resources) {
		resources = resources[:limit]
	}

	return resources
}

// merge copies the fields named in fields from source to target. Both must
// be pointers to the same struct type.
func merge(target, source any, fields []any) {
	t := reflect.ValueOf(target).Elem()
	s := reflect.ValueOf(source).Elem()

	for _, f := range fields {
		name := f.(string)
		t.FieldByName(name).Set(s.FieldByName(name))
	}
}

// containsAny reports if fields contains one of names.
func containsAny(fields []any, names []string) bool {
	for _, f := range fields {
		if slices.Contains(names, f.(string)) {
			return true
		}
	}

	return false
}
