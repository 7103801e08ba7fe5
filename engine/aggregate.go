/*
aggregate.go - Period financial statistics

PURPOSE:
  The single place that answers "how did this period go?". Filters
  consolidated gigs and standalone expenses to a resolved period and
  computes taxable income, business deductions, estimated tax, tips, and
  projections, with breakdown lists for UI drill-down.

KEY RULES:
  - A gig belongs to the period of its START date (multi-day bookings are
    not split across periods)
  - Completed gigs feed earnings and tax; everything else only feeds counts
    and the projection
  - Each gig's calculation mode (legacy vs captured) is resolved once, in
    payment.go, before any math happens here
  - Standalone expenses and gig-embedded expenses are disjoint sources; an
    expense carrying a GigID is still only counted from the expense record
  - All sums run on unrounded decimals parsed fresh from source strings;
    rounding happens exactly once, at the output edge
  - Over-reimbursement clamps to zero and is flagged, never negative

ESTIMATED TAX:
  Per completed gig: taxable contribution x (gig's TaxPercentage if set,
  else the default rate) / 100. An explicit rate of 0 is a real override
  (off-the-books income) and does not fall back to the default.

SEE ALSO:
  - consolidate.go: Produces the gig view consumed here
  - period.go: Produces the range consumed here
*/
package engine

import (
	"log"

	"github.com/shopspring/decimal"
)

// =============================================================================
// CONFIGURATION
// =============================================================================

// DefaultMileageRate is the standard per-mile deduction used when no rate is
// configured. Deliberately a config default, not a constant of any tax year.
const DefaultMileageRate = "0.70"

// Config carries the per-user knobs the aggregator needs.
type Config struct {
	MileageRate    decimal.Decimal // deduction per mile
	DefaultTaxRate decimal.Decimal // percent, used when a gig has no override
}

// NewConfig builds a Config from stored string settings, applying the
// standard mileage rate when none is set.
func NewConfig(mileageRate, defaultTaxRate *string) Config {
	rate := ParseMoney(mileageRate)
	if mileageRate == nil {
		rate = ParseMoney(StringPtr(DefaultMileageRate))
	}
	return Config{MileageRate: rate, DefaultTaxRate: ParseMoney(defaultTaxRate)}
}

// =============================================================================
// OUTPUT TYPES
// =============================================================================

// GigContribution is one gig's line in the period breakdown. All amounts
// are rounded for display.
type GigContribution struct {
	GigID            GigID
	EventName        string
	ClientName       string
	StartDate        Date
	EndDate          Date
	DayCount         int
	Status           GigStatus
	Kind             PaymentKind
	Taxable          decimal.Decimal
	Tips             decimal.Decimal
	Deductions       decimal.Decimal // parking + other, net of reimbursement
	MileageDeduction decimal.Decimal
	EstimatedTax     decimal.Decimal
	OverReimbursed   bool
}

// ExpenseContribution is one standalone expense's line in the breakdown.
type ExpenseContribution struct {
	ExpenseID      ExpenseID
	Category       string
	Merchant       string
	Date           Date
	NetAmount      decimal.Decimal // amount - reimbursed, clamped >= 0
	OverReimbursed bool
}

// PeriodStats is the aggregator's output: purely derived, recomputed per
// query, never persisted.
type PeriodStats struct {
	Period PeriodRange

	ActualEarnings    decimal.Decimal // taxable income of completed gigs
	ProjectedEarnings decimal.Decimal // all gigs, expected where not completed
	TotalTips         decimal.Decimal
	TotalExpenses     decimal.Decimal // gig deductions + mileage + standalone expenses
	EstimatedTax      decimal.Decimal

	CompletedGigs int
	UpcomingGigs  int
	TotalGigs     int

	Gigs     []GigContribution
	Expenses []ExpenseContribution

	// Gig IDs whose reimbursement exceeded the spent/gross amount.
	OverReimbursed []GigID
}

// =============================================================================
// AGGREGATION
// =============================================================================

// Aggregate computes the full statistics bundle for one period. It never
// fails: malformed numerics parse to zero and anomalies are logged.
func Aggregate(gigs []ConsolidatedGig, expenses []ExpenseRecord, period PeriodRange, cfg Config) PeriodStats {
	stats := PeriodStats{Period: period}

	var (
		earnings   decimal.Decimal
		projected  decimal.Decimal
		tips       decimal.Decimal
		deductions decimal.Decimal
		tax        decimal.Decimal
	)

	for i := range gigs {
		gig := &gigs[i]
		if !period.Contains(gig.StartDate) {
			continue
		}
		stats.TotalGigs++

		rec := gig.Primary()
		payment := ResolvePayment(rec)

		switch gig.Status() {
		case StatusCompleted:
			stats.CompletedGigs++

			taxable, overReimbursed := payment.Taxable()
			if overReimbursed {
				log.Printf("engine: gig %d reimbursement exceeds gross, taxable clamped", rec.ID)
				stats.OverReimbursed = append(stats.OverReimbursed, rec.ID)
			}

			mileage := decimal.NewFromInt(int64(rec.Mileage)).Mul(cfg.MileageRate)
			gigDeduction := payment.Deductions()

			rate := cfg.DefaultTaxRate
			if rec.TaxPercentage != nil {
				rate = ParseMoney(rec.TaxPercentage)
			}
			gigTax := taxable.Mul(rate).Div(decimal.NewFromInt(100))

			earnings = earnings.Add(taxable)
			tips = tips.Add(payment.Tips)
			deductions = deductions.Add(gigDeduction).Add(mileage)
			tax = tax.Add(gigTax)
			projected = projected.Add(payment.Received()).Add(payment.Tips)

			stats.Gigs = append(stats.Gigs, GigContribution{
				GigID:            rec.ID,
				EventName:        rec.EventName,
				ClientName:       rec.ClientName,
				StartDate:        gig.StartDate,
				EndDate:          gig.EndDate,
				DayCount:         gig.DayCount(),
				Status:           rec.Status,
				Kind:             payment.Kind,
				Taxable:          Round2(taxable),
				Tips:             Round2(payment.Tips),
				Deductions:       Round2(gigDeduction),
				MileageDeduction: Round2(mileage),
				EstimatedTax:     Round2(gigTax),
				OverReimbursed:   overReimbursed,
			})

		default:
			if gig.Status() == StatusUpcoming {
				stats.UpcomingGigs++
			}
			expected := ParseMoney(rec.ExpectedPay).Add(payment.Tips)
			projected = projected.Add(expected)

			stats.Gigs = append(stats.Gigs, GigContribution{
				GigID:      rec.ID,
				EventName:  rec.EventName,
				ClientName: rec.ClientName,
				StartDate:  gig.StartDate,
				EndDate:    gig.EndDate,
				DayCount:   gig.DayCount(),
				Status:     rec.Status,
				Kind:       payment.Kind,
				Taxable:    decimal.Zero,
				Tips:       Round2(payment.Tips),
			})
		}
	}

	var standalone decimal.Decimal
	for i := range expenses {
		exp := &expenses[i]
		day, ok := exp.Day()
		if !ok {
			log.Printf("engine: expense %s has malformed date %q, excluded", exp.ID, exp.Date)
			continue
		}
		if !period.Contains(day) {
			continue
		}

		net := ParseMoney(exp.Amount).Sub(ParseMoney(exp.ReimbursedAmount))
		overReimbursed := net.IsNegative()
		if overReimbursed {
			log.Printf("engine: expense %s reimbursement exceeds amount, deduction clamped", exp.ID)
			net = decimal.Zero
		}
		standalone = standalone.Add(net)

		stats.Expenses = append(stats.Expenses, ExpenseContribution{
			ExpenseID:      exp.ID,
			Category:       exp.Category,
			Merchant:       exp.Merchant,
			Date:           day,
			NetAmount:      Round2(net),
			OverReimbursed: overReimbursed,
		})
	}

	stats.ActualEarnings = Round2(earnings)
	stats.ProjectedEarnings = Round2(projected)
	stats.TotalTips = Round2(tips)
	stats.TotalExpenses = Round2(deductions.Add(standalone))
	stats.EstimatedTax = Round2(tax)
	return stats
}
