/*
dto.go - Data Transfer Objects for API requests and responses

PURPOSE:
  Defines the JSON structures for API communication. These types decouple
  the engine's internal model from the external contract: money travels as
  decimal strings, dates as ISO date-only strings, and the consolidated gig
  view is flattened for the calendar/gig-log screens.

NAMING CONVENTION:
  - *DTO: Response types returned to clients
  - *Request: Request body types from clients

VALIDATION:
  Validation is done in handlers, not in DTOs. DTOs are pure data carriers.

SEE ALSO:
  - handlers.go: Uses these types
*/
package api

import (
	"github.com/gigbooks/bookkeeping/engine"
	"github.com/gigbooks/bookkeeping/wizard"
)

// =============================================================================
// ERROR
// =============================================================================

type ErrorResponse struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}

// =============================================================================
// GIGS
// =============================================================================

// GigDTO is one consolidated booking as the calendar and gig log render it.
// Financial fields come from the booking's primary record.
type GigDTO struct {
	ID         int64  `json:"id"`
	EventName  string `json:"event_name"`
	ClientName string `json:"client_name"`
	GigType    string `json:"gig_type"`
	StartDate  string `json:"start_date"`
	EndDate    string `json:"end_date"`
	IsMultiDay bool   `json:"is_multi_day"`
	DayCount   int    `json:"day_count"`
	Status     string `json:"status"`

	ExpectedPay   *string `json:"expected_pay,omitempty"`
	ActualPay     *string `json:"actual_pay,omitempty"`
	Tips          *string `json:"tips,omitempty"`
	TotalReceived *string `json:"total_received,omitempty"`
	Mileage       int     `json:"mileage"`
	PaymentMethod string  `json:"payment_method,omitempty"`
	GigAddress    string  `json:"gig_address,omitempty"`
}

func toGigDTO(g *engine.ConsolidatedGig) GigDTO {
	rec := g.Primary()
	return GigDTO{
		ID:            int64(rec.ID),
		EventName:     rec.EventName,
		ClientName:    rec.ClientName,
		GigType:       rec.GigType,
		StartDate:     g.StartDate.String(),
		EndDate:       g.EndDate.String(),
		IsMultiDay:    g.IsMultiDay,
		DayCount:      g.DayCount(),
		Status:        string(rec.Status),
		ExpectedPay:   rec.ExpectedPay,
		ActualPay:     rec.ActualPay,
		Tips:          rec.Tips,
		TotalReceived: rec.TotalReceived,
		Mileage:       rec.Mileage,
		PaymentMethod: rec.PaymentMethod,
		GigAddress:    rec.GigAddress,
	}
}

// CreateGigRequest creates one day of booked work. Multi-day bookings are
// created as one request per day sharing event/client/type; consolidation
// merges them on read.
type CreateGigRequest struct {
	Date        string  `json:"date"`
	EventName   string  `json:"event_name"`
	ClientName  string  `json:"client_name"`
	GigType     string  `json:"gig_type"`
	Status      string  `json:"status,omitempty"`
	ExpectedPay *string `json:"expected_pay,omitempty"`
	Tips        *string `json:"tips,omitempty"`
	GigAddress  string  `json:"gig_address,omitempty"`
}

// =============================================================================
// EXPENSES
// =============================================================================

type ExpenseDTO struct {
	ID               string  `json:"id"`
	Date             string  `json:"date"`
	Amount           *string `json:"amount"`
	ReimbursedAmount *string `json:"reimbursed_amount"`
	Category         string  `json:"category"`
	Merchant         string  `json:"merchant,omitempty"`
	BusinessPurpose  string  `json:"business_purpose,omitempty"`
	GigID            *int64  `json:"gig_id,omitempty"`
}

func toExpenseDTO(e *engine.ExpenseRecord) ExpenseDTO {
	dto := ExpenseDTO{
		ID:               string(e.ID),
		Date:             e.Date,
		Amount:           e.Amount,
		ReimbursedAmount: e.ReimbursedAmount,
		Category:         e.Category,
		Merchant:         e.Merchant,
		BusinessPurpose:  e.BusinessPurpose,
	}
	if e.GigID != nil {
		id := int64(*e.GigID)
		dto.GigID = &id
	}
	return dto
}

type CreateExpenseRequest struct {
	Date             string  `json:"date"`
	Amount           string  `json:"amount"`
	ReimbursedAmount *string `json:"reimbursed_amount,omitempty"`
	Category         string  `json:"category"`
	Merchant         string  `json:"merchant,omitempty"`
	BusinessPurpose  string  `json:"business_purpose,omitempty"`
	GigID            *int64  `json:"gig_id,omitempty"`
}

// =============================================================================
// PERIOD / STATS
// =============================================================================

type PeriodDTO struct {
	Mode   string `json:"mode"`
	Anchor string `json:"anchor"`
	Start  string `json:"start"`
	End    string `json:"end"`
	Label  string `json:"label"`
}

type GigBreakdownDTO struct {
	GigID            int64  `json:"gig_id"`
	EventName        string `json:"event_name"`
	ClientName       string `json:"client_name,omitempty"`
	StartDate        string `json:"start_date"`
	EndDate          string `json:"end_date"`
	DayCount         int    `json:"day_count"`
	Status           string `json:"status"`
	CalculationMode  string `json:"calculation_mode"`
	Taxable          string `json:"taxable"`
	Tips             string `json:"tips"`
	Deductions       string `json:"deductions"`
	MileageDeduction string `json:"mileage_deduction"`
	EstimatedTax     string `json:"estimated_tax"`
	OverReimbursed   bool   `json:"over_reimbursed,omitempty"`
}

type ExpenseBreakdownDTO struct {
	ExpenseID      string `json:"expense_id"`
	Category       string `json:"category"`
	Merchant       string `json:"merchant,omitempty"`
	Date           string `json:"date"`
	NetAmount      string `json:"net_amount"`
	OverReimbursed bool   `json:"over_reimbursed,omitempty"`
}

// StatsDTO is the full statistics bundle for one period.
type StatsDTO struct {
	Period PeriodDTO `json:"period"`

	ActualEarnings    string `json:"actual_earnings"`
	ProjectedEarnings string `json:"projected_earnings"`
	TotalTips         string `json:"total_tips"`
	TotalExpenses     string `json:"total_expenses"`
	EstimatedTax      string `json:"estimated_tax"`

	CompletedGigs int `json:"completed_gigs"`
	UpcomingGigs  int `json:"upcoming_gigs"`
	TotalGigs     int `json:"total_gigs"`

	Gigs           []GigBreakdownDTO     `json:"gigs"`
	Expenses       []ExpenseBreakdownDTO `json:"expenses"`
	OverReimbursed []int64               `json:"over_reimbursed,omitempty"`
}

func toStatsDTO(stats engine.PeriodStats, mode engine.PeriodMode, anchor engine.Date) StatsDTO {
	dto := StatsDTO{
		Period: PeriodDTO{
			Mode:   string(mode),
			Anchor: anchor.String(),
			Start:  stats.Period.Start.String(),
			End:    stats.Period.End.String(),
			Label:  stats.Period.Label,
		},
		ActualEarnings:    stats.ActualEarnings.StringFixed(2),
		ProjectedEarnings: stats.ProjectedEarnings.StringFixed(2),
		TotalTips:         stats.TotalTips.StringFixed(2),
		TotalExpenses:     stats.TotalExpenses.StringFixed(2),
		EstimatedTax:      stats.EstimatedTax.StringFixed(2),
		CompletedGigs:     stats.CompletedGigs,
		UpcomingGigs:      stats.UpcomingGigs,
		TotalGigs:         stats.TotalGigs,
		Gigs:              []GigBreakdownDTO{},
		Expenses:          []ExpenseBreakdownDTO{},
	}
	for _, g := range stats.Gigs {
		dto.Gigs = append(dto.Gigs, GigBreakdownDTO{
			GigID:            int64(g.GigID),
			EventName:        g.EventName,
			ClientName:       g.ClientName,
			StartDate:        g.StartDate.String(),
			EndDate:          g.EndDate.String(),
			DayCount:         g.DayCount,
			Status:           string(g.Status),
			CalculationMode:  string(g.Kind),
			Taxable:          g.Taxable.StringFixed(2),
			Tips:             g.Tips.StringFixed(2),
			Deductions:       g.Deductions.StringFixed(2),
			MileageDeduction: g.MileageDeduction.StringFixed(2),
			EstimatedTax:     g.EstimatedTax.StringFixed(2),
			OverReimbursed:   g.OverReimbursed,
		})
	}
	for _, e := range stats.Expenses {
		dto.Expenses = append(dto.Expenses, ExpenseBreakdownDTO{
			ExpenseID:      string(e.ExpenseID),
			Category:       e.Category,
			Merchant:       e.Merchant,
			Date:           e.Date.String(),
			NetAmount:      e.NetAmount.StringFixed(2),
			OverReimbursed: e.OverReimbursed,
		})
	}
	for _, id := range stats.OverReimbursed {
		dto.OverReimbursed = append(dto.OverReimbursed, int64(id))
	}
	return dto
}

// =============================================================================
// PROFILE
// =============================================================================

type ProfileDTO struct {
	ID             string `json:"id"`
	Name           string `json:"name"`
	DefaultTaxRate string `json:"default_tax_rate"`
	HomeAddress    string `json:"home_address"`
}

// =============================================================================
// PAYMENT WIZARD
// =============================================================================

type ExpenseLineDTO struct {
	Category   string `json:"category"`
	Amount     string `json:"amount"`
	Reimbursed string `json:"reimbursed"`
}

type MileageFormDTO struct {
	StartAddress string `json:"start_address"`
	EndAddress   string `json:"end_address"`
	RoundTrip    bool   `json:"round_trip"`
	PerDay       bool   `json:"per_day"`
	Miles        int    `json:"miles"`
	Calculating  bool   `json:"calculating"`
}

type ReviewDTO struct {
	TaxableIncome      string `json:"taxable_income"`
	BusinessDeductions string `json:"business_deductions"`
	MileageDeduction   string `json:"mileage_deduction"`
	EstimatedTax       string `json:"estimated_tax"`
	OverReimbursed     bool   `json:"over_reimbursed,omitempty"`
}

// SessionDTO is the wizard's full state, returned after every mutation so
// the UI can re-render the preview.
type SessionDTO struct {
	ID            string           `json:"id"`
	GigID         int64            `json:"gig_id"`
	DayCount      int              `json:"day_count"`
	Step          int              `json:"step"`
	StepName      string           `json:"step_name"`
	TotalReceived string           `json:"total_received"`
	Mileage       MileageFormDTO   `json:"mileage"`
	Parking       ExpenseLineDTO   `json:"parking"`
	Other         []ExpenseLineDTO `json:"other_expenses"`
	TaxRate       string           `json:"tax_rate"`
	PaymentMethod string           `json:"payment_method,omitempty"`
	Review        ReviewDTO        `json:"review"`
}

func toSessionDTO(s *wizard.Session, cfg engine.Config) SessionDTO {
	review := s.Preview(cfg)
	dto := SessionDTO{
		ID:            s.ID,
		GigID:         int64(s.GigID),
		DayCount:      s.DayCount,
		Step:          int(s.Step()),
		StepName:      s.Step().String(),
		TotalReceived: s.TotalReceived,
		Mileage: MileageFormDTO{
			StartAddress: s.Mileage.StartAddress,
			EndAddress:   s.Mileage.EndAddress,
			RoundTrip:    s.Mileage.RoundTrip,
			PerDay:       s.Mileage.PerDay,
			Miles:        s.Mileage.Miles,
			Calculating:  s.Mileage.Calculating,
		},
		Parking: ExpenseLineDTO{
			Category:   s.Parking.Category,
			Amount:     s.Parking.Amount,
			Reimbursed: s.Parking.Reimbursed,
		},
		Other:         []ExpenseLineDTO{},
		TaxRate:       s.TaxRate,
		PaymentMethod: s.PaymentMethod,
		Review: ReviewDTO{
			TaxableIncome:      review.TaxableIncome.StringFixed(2),
			BusinessDeductions: review.BusinessDeductions.StringFixed(2),
			MileageDeduction:   review.MileageDeduction.StringFixed(2),
			EstimatedTax:       review.EstimatedTax.StringFixed(2),
			OverReimbursed:     review.OverReimbursed,
		},
	}
	for _, line := range s.Other {
		dto.Other = append(dto.Other, ExpenseLineDTO{
			Category:   line.Category,
			Amount:     line.Amount,
			Reimbursed: line.Reimbursed,
		})
	}
	return dto
}

// UpdateSessionRequest carries per-step field changes. Nil fields are
// untouched; the wizard recomputes its preview after applying the rest.
// Mileage carries addresses and flags only; the miles value itself is set
// exclusively through the miles field (or a calculate-mileage call).
type UpdateSessionRequest struct {
	TotalReceived *string         `json:"total_received,omitempty"`
	Mileage       *MileageFormDTO `json:"mileage,omitempty"`
	Miles         *int            `json:"miles,omitempty"` // manual override
	Parking       *ExpenseLineDTO `json:"parking,omitempty"`
	AddOther      *ExpenseLineDTO `json:"add_other,omitempty"`
	RemoveOther   *int            `json:"remove_other,omitempty"`
	TaxRate       *string         `json:"tax_rate,omitempty"`
	PaymentMethod *string         `json:"payment_method,omitempty"`
}

// =============================================================================
// SCENARIOS
// =============================================================================

type ScenarioDTO struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}

type LoadScenarioRequest struct {
	Name string `json:"name"`
}
