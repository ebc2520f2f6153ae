package v1

import (
	"fmt"
	"time"

	"github.com/consorcio/backend/internal/engine"
	"github.com/consorcio/backend/internal/models"
	"github.com/consorcio/backend/internal/types"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type ObligationLinks struct {
	Payments   string `json:"payments" example:"https://example.com/api/v1/obligations/0bd8d5b6-3b4a-4e43-9c0d-2d4a6c2b2a1e/payments"` // Endpoint to record a payment for the obligation
	Consortium string `json:"consortium" example:"https://example.com/api/v1/consortiums/550dc009-cea6-4c12-b2a5-03446eb7b7cf"`        // The consortium
	Member     string `json:"member" example:"https://example.com/api/v1/members/4e743e94-6a4b-44d6-aba5-d77c87103ff7"`                // The member owing the obligation
}

// Obligation is the API v1 representation of an Obligation.
type Obligation struct {
	models.DefaultModel
	ConsortiumID   uuid.UUID               `json:"consortiumId" example:"550dc009-cea6-4c12-b2a5-03446eb7b7cf"`                // ID of the consortium
	MemberID       uuid.UUID               `json:"memberId" example:"4e743e94-6a4b-44d6-aba5-d77c87103ff7"`                    // ID of the member
	MembershipID   uuid.UUID               `json:"membershipId" example:"c1a3b6ad-0d5b-49d0-a6d2-7f8c7b5f1e0d"`                // ID of the membership
	Month          int                     `json:"month" example:"3"`                                                          // Month of the consortium, starting at 1
	DueDate        types.Date              `json:"dueDate" example:"2024-03-08" swaggertype:"primitive,string"`                // Date the payment is due
	ExpectedAmount decimal.Decimal         `json:"expectedAmount" example:"1025"`                                              // Amount owed for the month
	PaidAmount     decimal.NullDecimal     `json:"paidAmount" example:"1025" swaggertype:"primitive,string"`                   // Amount paid, if any
	PaidAt         *time.Time              `json:"paidAt" example:"2024-03-06T14:22:01Z"`                                      // Time the payment was recorded
	Status         models.ObligationStatus `json:"status" example:"pending" enums:"pending,paid,overdue,partial"`              // Status of the obligation
	Note           string                  `json:"note" example:"Paid in cash"`                                                // A note for the obligation
	Links          ObligationLinks         `json:"links"`
}

func newObligation(c *gin.Context, model models.Obligation) Obligation {
	url := c.GetString(string(models.DBContextURL))

	return Obligation{
		DefaultModel:   model.DefaultModel,
		ConsortiumID:   model.ConsortiumID,
		MemberID:       model.MemberID,
		MembershipID:   model.MembershipID,
		Month:          model.Month,
		DueDate:        model.DueDate,
		ExpectedAmount: model.ExpectedAmount,
		PaidAmount:     model.PaidAmount,
		PaidAt:         model.PaidAt,
		Status:         model.Status,
		Note:           model.Note,
		Links: ObligationLinks{
			Payments:   fmt.Sprintf("%s/v1/obligations/%s/payments", url, model.ID),
			Consortium: fmt.Sprintf("%s/v1/consortiums/%s", url, model.ConsortiumID),
			Member:     fmt.Sprintf("%s/v1/members/%s", url, model.MemberID),
		},
	}
}

func newObligations(c *gin.Context, obligations []models.Obligation) []Obligation {
	data := make([]Obligation, 0, len(obligations))
	for _, o := range obligations {
		data = append(data, newObligation(c, o))
	}

	return data
}

type ObligationListResponse struct {
	Data  []Obligation `json:"data"`                                                          // List of obligations
	Error *string      `json:"error" example:"the specified resource ID is not a valid UUID"` // The error, if any occurred
}

type ObligationResponse struct {
	Data  *Obligation `json:"data"`                                                          // Data for the obligation
	Error *string     `json:"error" example:"the specified resource ID is not a valid UUID"` // The error, if any occurred
}

type ObligationQueryFilter struct {
	Month  int    `form:"month"`  // Month of the consortium. All months when not set
	Period string `form:"period"` // Calendar month the obligations are due in, as YYYY-MM
}

// Payment is a payment recorded for an obligation.
type Payment struct {
	Amount decimal.Decimal `json:"amount" example:"1025" minimum:"0.01"` // The amount paid
}

// Summary counts the obligations of a consortium by status.
type Summary struct {
	Total          int             `json:"total" example:"24"`             // Number of obligations
	Paid           int             `json:"paid" example:"9"`               // Number of paid obligations
	Pending        int             `json:"pending" example:"12"`           // Number of pending obligations
	Overdue        int             `json:"overdue" example:"2"`            // Number of overdue obligations
	Partial        int             `json:"partial" example:"1"`            // Number of partially paid obligations
	PercentPaid    int             `json:"percentPaid" example:"38"`       // Share of paid obligations in percent
	ExpectedAmount decimal.Decimal `json:"expectedAmount" example:"24600"` // Sum of all expected amounts
	PaidAmount     decimal.Decimal `json:"paidAmount" example:"9225"`      // Sum of all paid amounts
}

func newSummary(s engine.PaymentSummary) Summary {
	return Summary{
		Total:          s.Total,
		Paid:           s.Paid,
		Pending:        s.Pending,
		Overdue:        s.Overdue,
		Partial:        s.Partial,
		PercentPaid:    s.PercentPaid,
		ExpectedAmount: s.ExpectedAmount,
		PaidAmount:     s.PaidAmount,
	}
}

type SummaryResponse struct {
	Data  *Summary `json:"data"`                                                          // Payment summary of the consortium
	Error *string  `json:"error" example:"the specified resource ID is not a valid UUID"` // The error, if any occurred
}

type SweepResult struct {
	Marked int `json:"marked" example:"3"` // Number of obligations marked as overdue
}

type SweepResponse struct {
	Data  *SweepResult `json:"data"`                                                              // Result of the sweep
	Error *string      `json:"error" example:"an error occurred on the server during your request"` // The error, if any occurred
}
