/*
payment.go - Payment resolution: legacy vs captured calculation modes

PURPOSE:
  A GigRecord carries two generations of financial fields. Which generation
  governs is decided ONCE per record here, producing a ResolvedPayment that
  the aggregator and the wizard's review step both consume. Nothing else in
  the engine branches on field presence.

CALCULATION MODES:
  KindCaptured: TotalReceived present and > 0. Written by the payment
    capture workflow. Taxable income nets out client reimbursements;
    deductions come from the unreimbursed splits.
  KindLegacy: Everything else. Single-amount bookkeeping: ActualPay (or
    ExpectedPay as fallback) plus tips; parking and other expenses are
    treated as fully unreimbursed.

OVER-REIMBURSEMENT:
  Reimbursement exceeding gross is clamped to a zero taxable base and
  flagged, never reported as a negative number.

SEE ALSO:
  - aggregate.go: Sums resolved payments into period statistics
  - wizard: Review step uses the captured-mode formulas for its preview
*/
package engine

import "github.com/shopspring/decimal"

// =============================================================================
// PAYMENT KIND
// =============================================================================

type PaymentKind string

const (
	KindLegacy   PaymentKind = "legacy"
	KindCaptured PaymentKind = "captured"
)

// =============================================================================
// RESOLVED PAYMENT
// =============================================================================

// ResolvedPayment is a GigRecord's financial fields decoded into one
// calculation mode. All amounts are parsed with zero defaults.
type ResolvedPayment struct {
	Kind PaymentKind

	// Captured mode
	Gross               decimal.Decimal // total received from client
	ReimbursedParking   decimal.Decimal
	ReimbursedOther     decimal.Decimal
	UnreimbursedParking decimal.Decimal
	UnreimbursedOther   decimal.Decimal

	// Legacy mode
	Pay            decimal.Decimal // actual pay, falling back to expected pay
	ParkingExpense decimal.Decimal
	OtherExpenses  decimal.Decimal

	Tips decimal.Decimal
}

// ResolvePayment decodes a record's financial fields. Captured mode wins
// when TotalReceived is present and positive.
func ResolvePayment(g *GigRecord) ResolvedPayment {
	tips := ParseMoney(g.Tips)

	total := ParseMoney(g.TotalReceived)
	if g.TotalReceived != nil && total.IsPositive() {
		return ResolvedPayment{
			Kind:                KindCaptured,
			Gross:               total,
			ReimbursedParking:   ParseMoney(g.ReimbursedParking),
			ReimbursedOther:     ParseMoney(g.ReimbursedOther),
			UnreimbursedParking: ParseMoney(g.UnreimbursedParking),
			UnreimbursedOther:   ParseMoney(g.UnreimbursedOther),
			Tips:                tips,
		}
	}

	pay := ParseMoney(g.ActualPay)
	if g.ActualPay == nil {
		pay = ParseMoney(g.ExpectedPay)
	}
	return ResolvedPayment{
		Kind:           KindLegacy,
		Pay:            pay,
		ParkingExpense: ParseMoney(g.ParkingExpense),
		OtherExpenses:  ParseMoney(g.OtherExpenses),
		Tips:           tips,
	}
}

// Taxable returns the taxable-income contribution and whether reimbursement
// exceeded gross (over-reimbursed; the contribution is clamped to tips).
func (p ResolvedPayment) Taxable() (decimal.Decimal, bool) {
	if p.Kind == KindCaptured {
		net := p.Gross.Sub(p.ReimbursedParking).Sub(p.ReimbursedOther)
		if net.IsNegative() {
			return p.Tips, true
		}
		return net.Add(p.Tips), false
	}
	return p.Pay.Add(p.Tips), false
}

// Deductions returns the unreimbursed out-of-pocket cost of the gig,
// excluding mileage (mileage is valued by the aggregator's configured rate).
func (p ResolvedPayment) Deductions() decimal.Decimal {
	if p.Kind == KindCaptured {
		return p.UnreimbursedParking.Add(p.UnreimbursedOther)
	}
	return p.ParkingExpense.Add(p.OtherExpenses)
}

// Received returns what the gig actually brought in, gross of
// reimbursements. Used for earnings projections.
func (p ResolvedPayment) Received() decimal.Decimal {
	if p.Kind == KindCaptured {
		return p.Gross
	}
	return p.Pay
}
