/*
Package wizard implements the "got paid" payment capture workflow.

PURPOSE:
  A six-step wizard that captures how much a worker was actually paid for a
  booking - total received, mileage, parking, other reimbursable expenses,
  and tax rate - then finalizes one patch to storage. The patch is what
  flips the gig into captured calculation mode for the aggregator.

STEPS (linear, 1-indexed):
  1 TotalPayment -> 2 Mileage -> 3 Parking -> 4 OtherExpenses
  -> 5 TaxRate -> 6 Review

  next/back transitions are clamped to [1,6]; Review is terminal and only
  leaves via an explicit confirm, which runs the finalize patch. The step
  machine is a qmuntal/stateless state machine so illegal transitions are
  structurally impossible rather than checked ad hoc.

STATE:
  A Session is transient wizard state: created when the user starts "got
  paid" for a gig, destroyed on cancel or successful finalize. The review
  preview recomputes taxable income and deductions with the engine's
  captured-mode formulas after every field change; the wizard carries no
  math of its own.

FAILURE SEMANTICS:
  - Distance lookup failure is recoverable: the mileage field stays open
    for manual entry
  - Persistence failure on finalize surfaces the error and leaves the
    session at Review for retry; no partial commit
*/
package wizard

import (
	"context"
	"fmt"
	"math"

	"github.com/google/uuid"
	"github.com/qmuntal/stateless"
	"github.com/shopspring/decimal"

	"github.com/gigbooks/bookkeeping/distance"
	"github.com/gigbooks/bookkeeping/engine"
)

// =============================================================================
// STEPS
// =============================================================================

type Step int

const (
	StepTotalPayment Step = iota + 1
	StepMileage
	StepParking
	StepOtherExpenses
	StepTaxRate
	StepReview

	// stepFinalized is internal; Confirmed sessions are discarded by the
	// caller, so it never renders.
	stepFinalized
)

func (s Step) String() string {
	switch s {
	case StepTotalPayment:
		return "total_payment"
	case StepMileage:
		return "mileage"
	case StepParking:
		return "parking"
	case StepOtherExpenses:
		return "other_expenses"
	case StepTaxRate:
		return "tax_rate"
	case StepReview:
		return "review"
	default:
		return "finalized"
	}
}

const (
	triggerNext    = "next"
	triggerBack    = "back"
	triggerConfirm = "confirm"
)

// =============================================================================
// FORM VALUES
// =============================================================================

// MileageForm is the mileage step's working state.
type MileageForm struct {
	StartAddress string
	EndAddress   string
	RoundTrip    bool
	PerDay       bool // multiply by the booking's day count
	Miles        int
	Calculating  bool // user-visible "still calculating" flag
}

// ExpenseLine is one parking or other-expense entry: spent and how much of
// it the client reimbursed.
type ExpenseLine struct {
	Category   string
	Amount     string
	Reimbursed string
}

// =============================================================================
// SESSION
// =============================================================================

// Session is the transient state of one wizard run against one booking.
// Sessions are not safe for concurrent use; the API layer serializes access.
type Session struct {
	ID       string
	GigID    engine.GigID
	DayCount int

	machine *stateless.StateMachine

	TotalReceived string
	Mileage       MileageForm
	Parking       ExpenseLine
	Other         []ExpenseLine
	TaxRate       string
	PaymentMethod string
	GigAddress    string
}

// NewSession starts a wizard run for a consolidated booking. The tax rate
// seeds from the user's profile default and the start address from their
// home address; both remain editable.
func NewSession(gig *engine.ConsolidatedGig, profile engine.UserProfile) *Session {
	rec := gig.Primary()
	s := &Session{
		ID:       uuid.NewString(),
		GigID:    rec.ID,
		DayCount: gig.DayCount(),
		Parking:  ExpenseLine{Category: "parking"},
		TaxRate:  profile.DefaultTaxRate,
		Mileage: MileageForm{
			StartAddress: profile.HomeAddress,
			EndAddress:   rec.GigAddress,
			RoundTrip:    true,
		},
		GigAddress: rec.GigAddress,
	}

	m := stateless.NewStateMachine(StepTotalPayment)
	steps := []Step{StepTotalPayment, StepMileage, StepParking, StepOtherExpenses, StepTaxRate, StepReview}
	for i, step := range steps {
		cfg := m.Configure(step)
		if i+1 < len(steps) {
			cfg.Permit(triggerNext, steps[i+1])
		}
		if i > 0 {
			cfg.Permit(triggerBack, steps[i-1])
		}
	}
	m.Configure(StepReview).Permit(triggerConfirm, stepFinalized)
	s.machine = m
	return s
}

// Step returns the current 1-indexed step.
func (s *Session) Step() Step {
	return s.machine.MustState().(Step)
}

// Next advances one step. At Review it is a no-op (confirm is explicit).
func (s *Session) Next() {
	if ok, _ := s.machine.CanFire(triggerNext); ok {
		_ = s.machine.Fire(triggerNext)
	}
}

// Back retreats one step, clamped at TotalPayment.
func (s *Session) Back() {
	if ok, _ := s.machine.CanFire(triggerBack); ok {
		_ = s.machine.Fire(triggerBack)
	}
}

// Finalized reports whether the session was confirmed and committed.
func (s *Session) Finalized() bool {
	return s.Step() == stepFinalized
}

// =============================================================================
// FIELD CAPTURE
// =============================================================================

func (s *Session) SetTotalReceived(v string) { s.TotalReceived = v }
func (s *Session) SetTaxRate(v string)       { s.TaxRate = v }
func (s *Session) SetPaymentMethod(v string) { s.PaymentMethod = v }

// SetParking records the parking spend and reimbursement, clamping the
// reimbursed amount to the spent amount.
func (s *Session) SetParking(spent, reimbursed string) {
	s.Parking = clampLine(ExpenseLine{Category: "parking", Amount: spent, Reimbursed: reimbursed})
}

// AddOtherExpense appends one other-expense line, clamped the same way.
func (s *Session) AddOtherExpense(line ExpenseLine) {
	s.Other = append(s.Other, clampLine(line))
}

// RemoveOtherExpense drops a line by index; out-of-range is a no-op.
func (s *Session) RemoveOtherExpense(i int) {
	if i < 0 || i >= len(s.Other) {
		return
	}
	s.Other = append(s.Other[:i], s.Other[i+1:]...)
}

func clampLine(line ExpenseLine) ExpenseLine {
	spent := engine.ParseMoney(engine.StringPtr(line.Amount))
	reimbursed := engine.ParseMoney(engine.StringPtr(line.Reimbursed))
	if reimbursed.GreaterThan(spent) {
		line.Reimbursed = engine.MoneyString(spent)
	}
	return line
}

// =============================================================================
// MILEAGE
// =============================================================================

// SetMileageForm updates the addresses and flags without calculating. Miles
// are owned by SetMiles and CalculateMileage and are never touched here, so
// resubmitting the form cannot clobber a calculated or manual value.
func (s *Session) SetMileageForm(form MileageForm) {
	form.Miles = s.Mileage.Miles
	form.Calculating = s.Mileage.Calculating
	s.Mileage = form
}

// SetMiles is the manual override; always available, including after a
// failed calculation.
func (s *Session) SetMiles(miles int) {
	if miles < 0 {
		miles = 0
	}
	s.Mileage.Miles = miles
	s.Mileage.Calculating = false
}

// CalculateMileage asks the distance collaborator for the route, rounds UP
// to the next whole mile (conservative for deduction purposes), and applies
// the per-day multiplier for multi-day bookings. On failure the session is
// unchanged and manual entry remains available.
func (s *Session) CalculateMileage(ctx context.Context, calc distance.Calculator) error {
	s.Mileage.Calculating = true
	defer func() { s.Mileage.Calculating = false }()

	result, err := calc.Distance(ctx, distance.Request{
		StartAddress: s.Mileage.StartAddress,
		EndAddress:   s.Mileage.EndAddress,
		RoundTrip:    s.Mileage.RoundTrip,
	})
	if err != nil {
		return fmt.Errorf("calculate mileage: %w", err)
	}

	miles := int(math.Ceil(result.DistanceMiles))
	if s.Mileage.PerDay {
		miles *= s.DayCount
	}
	s.Mileage.Miles = miles
	return nil
}

// =============================================================================
// REVIEW
// =============================================================================

// Review is the read-only preview shown before commit.
type Review struct {
	TaxableIncome      decimal.Decimal
	BusinessDeductions decimal.Decimal // unreimbursed parking + other + mileage
	MileageDeduction   decimal.Decimal
	EstimatedTax       decimal.Decimal
	OverReimbursed     bool
}

// Preview recomputes the review figures from the current form values using
// the engine's captured-mode formulas. Called after every field change.
func (s *Session) Preview(cfg engine.Config) Review {
	payment := s.resolved()
	taxable, overReimbursed := payment.Taxable()

	mileage := decimal.NewFromInt(int64(s.Mileage.Miles)).Mul(cfg.MileageRate)
	rate := engine.ParseMoney(engine.StringPtr(s.TaxRate))

	return Review{
		TaxableIncome:      engine.Round2(taxable),
		BusinessDeductions: engine.Round2(payment.Deductions().Add(mileage)),
		MileageDeduction:   engine.Round2(mileage),
		EstimatedTax:       engine.Round2(taxable.Mul(rate).Div(decimal.NewFromInt(100))),
		OverReimbursed:     overReimbursed,
	}
}

// resolved maps the working form values onto the engine's captured payment
// shape so review and post-finalize aggregation can never disagree.
func (s *Session) resolved() engine.ResolvedPayment {
	parkingSpent := engine.ParseMoney(engine.StringPtr(s.Parking.Amount))
	parkingReimbursed := engine.ParseMoney(engine.StringPtr(s.Parking.Reimbursed))

	var otherSpent, otherReimbursed decimal.Decimal
	for _, line := range s.Other {
		otherSpent = otherSpent.Add(engine.ParseMoney(engine.StringPtr(line.Amount)))
		otherReimbursed = otherReimbursed.Add(engine.ParseMoney(engine.StringPtr(line.Reimbursed)))
	}

	return engine.ResolvedPayment{
		Kind:                engine.KindCaptured,
		Gross:               engine.ParseMoney(engine.StringPtr(s.TotalReceived)),
		ReimbursedParking:   parkingReimbursed,
		ReimbursedOther:     otherReimbursed,
		UnreimbursedParking: clampNonNegative(parkingSpent.Sub(parkingReimbursed)),
		UnreimbursedOther:   clampNonNegative(otherSpent.Sub(otherReimbursed)),
	}
}

func clampNonNegative(d decimal.Decimal) decimal.Decimal {
	if d.IsNegative() {
		return decimal.Zero
	}
	return d
}

// =============================================================================
// FINALIZE
// =============================================================================

// Finalize commits the captured values as one patch to the persistence
// collaborator. Only legal at Review. On persistence failure the session
// stays at Review with all values intact for retry.
func (s *Session) Finalize(ctx context.Context, store engine.GigStore) (engine.GigRecord, error) {
	if s.Step() != StepReview {
		return engine.GigRecord{}, fmt.Errorf("finalize: wizard at step %s, not review", s.Step())
	}

	payment := s.resolved()
	status := engine.StatusCompleted
	miles := s.Mileage.Miles

	patch := engine.GigPatch{
		TotalReceived:       engine.StringPtr(engine.MoneyString(payment.Gross)),
		ReimbursedParking:   engine.StringPtr(engine.MoneyString(payment.ReimbursedParking)),
		ReimbursedOther:     engine.StringPtr(engine.MoneyString(payment.ReimbursedOther)),
		UnreimbursedParking: engine.StringPtr(engine.MoneyString(payment.UnreimbursedParking)),
		UnreimbursedOther:   engine.StringPtr(engine.MoneyString(payment.UnreimbursedOther)),
		Mileage:             &miles,
		TaxPercentage:       engine.StringPtr(engine.MoneyString(engine.ParseMoney(engine.StringPtr(s.TaxRate)))),
		PaymentMethod:       engine.StringPtr(s.PaymentMethod),
		GigAddress:          engine.StringPtr(s.GigAddress),
		StartingAddress:     engine.StringPtr(s.Mileage.StartAddress),
		Status:              &status,
	}

	patched, err := store.PatchGig(ctx, s.GigID, patch)
	if err != nil {
		return engine.GigRecord{}, &engine.PersistenceError{Op: "finalize gig payment", Err: err}
	}

	_ = s.machine.Fire(triggerConfirm)
	return patched, nil
}
