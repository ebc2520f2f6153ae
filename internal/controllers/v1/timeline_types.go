package v1

import (
	"github.com/consorcio/backend/internal/engine"
	"github.com/consorcio/backend/internal/models"
	"github.com/consorcio/backend/internal/types"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// TimelineEntry is a member contemplated in a month.
type TimelineEntry struct {
	ContemplationID uuid.UUID                `json:"contemplationId" example:"9b1b5a43-6f4e-4b7a-a3c2-0c5d2e3f4a5b"` // ID of the contemplation
	MemberID        uuid.UUID                `json:"memberId" example:"4e743e94-6a4b-44d6-aba5-d77c87103ff7"`        // ID of the member
	MemberName      string                   `json:"memberName" example:"Maria Silva"`                               // Name of the member
	QuotaCount      decimal.Decimal          `json:"quotaCount" example:"1.5"`                                       // Quota count of the membership
	QuotaShare      decimal.Decimal          `json:"quotaShare" example:"0.5"`                                       // Quota units of the month used by this contemplation
	Type            models.ContemplationType `json:"type" example:"draw" enums:"draw,bid,automatic"`                 // How the member was selected
}

// TimelineMonth is one month of the consortium.
type TimelineMonth struct {
	Month          int             `json:"month" example:"4"`                                        // Month of the consortium
	Date           types.Date      `json:"date" example:"2024-04-15" swaggertype:"primitive,string"` // Date of the month
	QuotaShare     decimal.Decimal `json:"quotaShare" example:"1"`                                   // Quota units contemplated in the month
	Contemplations []TimelineEntry `json:"contemplations"`                                           // Members contemplated in the month
}

// TimelineMembership is an active membership with the name of the member.
type TimelineMembership struct {
	Membership
	MemberName string `json:"memberName" example:"Maria Silva"` // Name of the member
}

type QuotaFill struct {
	TotalQuotas   int             `json:"totalQuotas" example:"12"`   // Number of quotas of the consortium
	Filled        decimal.Decimal `json:"filled" example:"10.5"`      // Quotas held by active members
	Available     decimal.Decimal `json:"available" example:"1.5"`    // Quotas not taken yet
	Contemplated  decimal.Decimal `json:"contemplated" example:"3.5"` // Quota units contemplated
	ActiveMembers int             `json:"activeMembers" example:"8"`  // Number of active members
}

type FormattedAmounts struct {
	TotalAmount    string `json:"totalAmount" example:"12.000,00"`    // Total amount of the consortium
	ManagerFee     string `json:"managerFee" example:"10,00"`         // Monthly manager fee
	ExpectedAmount string `json:"expectedAmount" example:"24.600,00"` // Sum of all expected amounts
	PaidAmount     string `json:"paidAmount" example:"9.225,00"`      // Sum of all paid amounts
}

// Timeline is the aggregated state of a consortium.
type Timeline struct {
	Consortium   Consortium           `json:"consortium"`               // The consortium
	CurrentMonth int                  `json:"currentMonth" example:"3"` // The current month of the consortium
	Months       []TimelineMonth      `json:"months"`                   // All months of the consortium
	Memberships  []TimelineMembership `json:"memberships"`              // Active memberships
	Quotas       QuotaFill            `json:"quotas"`                   // How many quotas are taken
	Payments     Summary              `json:"payments"`                 // Obligations counted by status
	Formatted    FormattedAmounts     `json:"formatted"`                // Amounts formatted for the configured locale
}

func newTimeline(c *gin.Context, t engine.Timeline) Timeline {
	months := make([]TimelineMonth, 0, t.Consortium.TermMonths)
	for month := 1; month <= t.Consortium.TermMonths; month++ {
		entries := make([]TimelineEntry, 0, len(t.Months[month]))
		share := decimal.Zero
		for _, e := range t.Months[month] {
			share = share.Add(e.QuotaShare)
			entries = append(entries, TimelineEntry{
				ContemplationID: e.ContemplationID,
				MemberID:        e.MemberID,
				MemberName:      e.MemberName,
				QuotaCount:      e.QuotaCount,
				QuotaShare:      e.QuotaShare,
				Type:            e.Type,
			})
		}

		months = append(months, TimelineMonth{
			Month:          month,
			Date:           t.Consortium.StartDate.AddMonths(month - 1),
			QuotaShare:     share,
			Contemplations: entries,
		})
	}

	memberships := make([]TimelineMembership, 0, len(t.Memberships))
	for _, m := range t.Memberships {
		memberships = append(memberships, TimelineMembership{
			Membership: newMembership(c, m),
			MemberName: t.Members[m.MemberID].Name,
		})
	}

	return Timeline{
		Consortium:   newConsortium(c, t.Consortium),
		CurrentMonth: t.CurrentMonth,
		Months:       months,
		Memberships:  memberships,
		Quotas: QuotaFill{
			TotalQuotas:   t.Quotas.TotalQuotas,
			Filled:        t.Quotas.Filled,
			Available:     t.Quotas.Available,
			Contemplated:  t.Quotas.Contemplated,
			ActiveMembers: t.Quotas.ActiveMembers,
		},
		Payments: newSummary(t.Payments),
		Formatted: FormattedAmounts{
			TotalAmount:    t.Formatted.TotalAmount,
			ManagerFee:     t.Formatted.ManagerFee,
			ExpectedAmount: t.Formatted.ExpectedAmount,
			PaidAmount:     t.Formatted.PaidAmount,
		},
	}
}

type TimelineResponse struct {
	Data  *Timeline `json:"data"`                                                          // The timeline of the consortium
	Error *string   `json:"error" example:"the specified resource ID is not a valid UUID"` // The error, if any occurred
}

type DashboardQuery struct {
	ManagerID string `form:"manager"` // ID of the manager
}

// Dashboard summarizes the consortiums of a manager.
type Dashboard struct {
	ActiveConsortiums int64        `json:"activeConsortiums" example:"3"` // Number of active consortiums
	ClosedConsortiums int64        `json:"closedConsortiums" example:"1"` // Number of closed consortiums
	ActiveMembers     int64        `json:"activeMembers" example:"27"`    // Number of members with an active membership
	Recent            []Consortium `json:"recent"`                        // The five most recently created consortiums
}

type DashboardResponse struct {
	Data  *Dashboard `json:"data"`                                                    // The dashboard of the manager
	Error *string    `json:"error" example:"the manager query parameter must be set"` // The error, if any occurred
}
