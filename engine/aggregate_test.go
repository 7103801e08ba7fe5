package engine_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gigbooks/bookkeeping/engine"
)

// =============================================================================
// TEST SETUP
// =============================================================================

func q2_2025() engine.PeriodRange {
	return engine.Resolve(engine.PeriodQuarterly, engine.NewDate(2025, time.May, 15))
}

func cfgWithRate(defaultTaxRate string) engine.Config {
	return engine.NewConfig(nil, engine.StringPtr(defaultTaxRate))
}

func consolidated(gigs ...engine.GigRecord) []engine.ConsolidatedGig {
	return engine.Consolidate(gigs)
}

// =============================================================================
// CALCULATION MODES
// =============================================================================

func TestAggregate_CapturedMode_NetsOutReimbursements(t *testing.T) {
	// GIVEN: A completed gig with captured payment: 350 received, 20
	//        reimbursed parking, 85 tips, 5 unreimbursed parking, 18 miles
	// WHEN:  Aggregating at a 28% default rate
	// THEN:  Taxable = 350 - 20 + 85 = 415; deductions = 5 + 18*0.70

	g := gig(1, "2025-04-12", "Gallery Opening")
	g.TotalReceived = engine.StringPtr("350.00")
	g.ReimbursedParking = engine.StringPtr("20.00")
	g.UnreimbursedParking = engine.StringPtr("5.00")
	g.Tips = engine.StringPtr("85.00")
	g.Mileage = 18

	stats := engine.Aggregate(consolidated(g), nil, q2_2025(), cfgWithRate("28"))

	assert.Equal(t, "415.00", stats.ActualEarnings.StringFixed(2))
	assert.Equal(t, "85.00", stats.TotalTips.StringFixed(2))
	assert.Equal(t, "17.60", stats.TotalExpenses.StringFixed(2), "5 + 18*0.70")
	assert.Equal(t, "116.20", stats.EstimatedTax.StringFixed(2), "415 * 28%")

	require.Len(t, stats.Gigs, 1)
	assert.Equal(t, engine.KindCaptured, stats.Gigs[0].Kind)
}

func TestAggregate_LegacyMode_ActualPayPlusTips(t *testing.T) {
	g := gig(1, "2025-04-12", "Wedding")
	g.ActualPay = engine.StringPtr("900.00")
	g.Tips = engine.StringPtr("50.00")
	g.ParkingExpense = engine.StringPtr("15.00")
	g.OtherExpenses = engine.StringPtr("35.50")

	stats := engine.Aggregate(consolidated(g), nil, q2_2025(), cfgWithRate("25"))

	assert.Equal(t, "950.00", stats.ActualEarnings.StringFixed(2))
	assert.Equal(t, "50.50", stats.TotalExpenses.StringFixed(2), "legacy parking + other, no reimbursement split")
	assert.Equal(t, "237.50", stats.EstimatedTax.StringFixed(2))
}

func TestAggregate_LegacyMode_ExpectedPayFallback(t *testing.T) {
	// Completed but actual pay never entered: expected pay stands in.
	g := gig(1, "2025-05-03", "Product Launch")
	g.ExpectedPay = engine.StringPtr("500.00")

	stats := engine.Aggregate(consolidated(g), nil, q2_2025(), cfgWithRate("10"))
	assert.Equal(t, "500.00", stats.ActualEarnings.StringFixed(2))
}

func TestAggregate_ZeroTotalReceived_StaysLegacy(t *testing.T) {
	// A "0" total_received (follow-up day of a multi-day booking, or an
	// abandoned wizard) does not switch the record into captured mode.
	g := gig(1, "2025-04-12", "Expo")
	g.TotalReceived = engine.StringPtr("0")
	g.ActualPay = engine.StringPtr("300.00")

	stats := engine.Aggregate(consolidated(g), nil, q2_2025(), cfgWithRate("20"))
	assert.Equal(t, "300.00", stats.ActualEarnings.StringFixed(2))
}

// =============================================================================
// MILEAGE
// =============================================================================

func TestAggregate_MileageDeduction(t *testing.T) {
	// 40 miles at the standard 0.70 rate -> 28.00.
	g := gig(1, "2025-04-20", "Delivery Day")
	g.ActualPay = engine.StringPtr("100.00")
	g.Mileage = 40

	stats := engine.Aggregate(consolidated(g), nil, q2_2025(), cfgWithRate("0"))

	require.Len(t, stats.Gigs, 1)
	assert.Equal(t, "28.00", stats.Gigs[0].MileageDeduction.StringFixed(2))
	assert.Equal(t, "28.00", stats.TotalExpenses.StringFixed(2))
}

func TestAggregate_MultiDayBooking_MileageFromPrimaryOnly(t *testing.T) {
	// The wizard already multiplied mileage by day count at capture time;
	// the chain's follow-up rows carry no financials of their own.
	g1 := gig(1, "2025-04-01", "Expo")
	g1.TotalReceived = engine.StringPtr("600.00")
	g1.Mileage = 66
	g2 := gig(2, "2025-04-02", "Expo")
	g2.TotalReceived = engine.StringPtr("0")
	g2.Mileage = 0

	stats := engine.Aggregate(consolidated(g1, g2), nil, q2_2025(), cfgWithRate("0"))

	assert.Equal(t, 1, stats.TotalGigs, "one booking, not two rows")
	assert.Equal(t, "600.00", stats.ActualEarnings.StringFixed(2))
	assert.Equal(t, "46.20", stats.TotalExpenses.StringFixed(2), "66 * 0.70, once")
}

// =============================================================================
// TAX RATE OVERRIDES
// =============================================================================

func TestAggregate_ZeroTaxOverride_Respected(t *testing.T) {
	// An explicit 0% override contributes exactly 0 to estimated tax no
	// matter the default rate.
	g := gig(1, "2025-04-19", "Backyard Party")
	g.ActualPay = engine.StringPtr("200.00")
	g.TaxPercentage = engine.StringPtr("0")

	stats := engine.Aggregate(consolidated(g), nil, q2_2025(), cfgWithRate("99"))

	assert.Equal(t, "200.00", stats.ActualEarnings.StringFixed(2))
	assert.True(t, stats.EstimatedTax.IsZero())
}

func TestAggregate_PerGigTaxOverride(t *testing.T) {
	withOverride := gig(1, "2025-04-01", "A")
	withOverride.ActualPay = engine.StringPtr("100.00")
	withOverride.TaxPercentage = engine.StringPtr("10")

	withDefault := gig(2, "2025-04-02", "B")
	withDefault.ActualPay = engine.StringPtr("100.00")

	stats := engine.Aggregate(consolidated(withOverride, withDefault), nil, q2_2025(), cfgWithRate("30"))
	assert.Equal(t, "40.00", stats.EstimatedTax.StringFixed(2), "10 + 30")
}

// =============================================================================
// OVER-REIMBURSEMENT
// =============================================================================

func TestAggregate_OverReimbursedGig_ClampedAndFlagged(t *testing.T) {
	// Reimbursement exceeding gross never drives earnings negative.
	g := gig(1, "2025-04-10", "Odd Job")
	g.TotalReceived = engine.StringPtr("100.00")
	g.ReimbursedParking = engine.StringPtr("80.00")
	g.ReimbursedOther = engine.StringPtr("50.00")
	g.Tips = engine.StringPtr("10.00")

	stats := engine.Aggregate(consolidated(g), nil, q2_2025(), cfgWithRate("20"))

	assert.Equal(t, "10.00", stats.ActualEarnings.StringFixed(2), "clamped to tips")
	assert.Equal(t, []engine.GigID{1}, stats.OverReimbursed)
	require.Len(t, stats.Gigs, 1)
	assert.True(t, stats.Gigs[0].OverReimbursed)
}

func TestAggregate_OverReimbursedExpense_ZeroNotNegative(t *testing.T) {
	exp := engine.ExpenseRecord{
		ID: "e1", Date: "2025-04-15",
		Amount:           engine.StringPtr("50.00"),
		ReimbursedAmount: engine.StringPtr("80.00"),
		Category:         "supplies",
	}

	stats := engine.Aggregate(nil, []engine.ExpenseRecord{exp}, q2_2025(), cfgWithRate("20"))

	assert.True(t, stats.TotalExpenses.IsZero())
	require.Len(t, stats.Expenses, 1)
	assert.True(t, stats.Expenses[0].OverReimbursed)
	assert.True(t, stats.Expenses[0].NetAmount.IsZero())
}

// =============================================================================
// STANDALONE EXPENSES
// =============================================================================

func TestAggregate_StandaloneExpenses_NetOfReimbursement(t *testing.T) {
	expenses := []engine.ExpenseRecord{
		{ID: "e1", Date: "2025-04-15", Amount: engine.StringPtr("120.00"), Category: "equipment"},
		{ID: "e2", Date: "2025-05-01", Amount: engine.StringPtr("60.00"), ReimbursedAmount: engine.StringPtr("60.00"), Category: "supplies"},
		{ID: "e3", Date: "2025-07-01", Amount: engine.StringPtr("999.00"), Category: "out-of-period"},
	}

	stats := engine.Aggregate(nil, expenses, q2_2025(), cfgWithRate("20"))

	assert.Equal(t, "120.00", stats.TotalExpenses.StringFixed(2))
	assert.Len(t, stats.Expenses, 2, "July expense is outside Q2")
}

func TestAggregate_GigLinkedExpense_CountedOnceFromExpenseRecord(t *testing.T) {
	// An expense referencing a gig comes only from the expense record; the
	// gig's own embedded fields are a disjoint source.
	g := gig(1, "2025-04-12", "Expo")
	g.TotalReceived = engine.StringPtr("400.00")
	g.UnreimbursedParking = engine.StringPtr("10.00")

	gigID := engine.GigID(1)
	exp := engine.ExpenseRecord{
		ID: "e1", Date: "2025-04-12", Amount: engine.StringPtr("25.00"),
		Category: "equipment", GigID: &gigID,
	}

	stats := engine.Aggregate(consolidated(g), []engine.ExpenseRecord{exp}, q2_2025(), cfgWithRate("0"))
	assert.Equal(t, "35.00", stats.TotalExpenses.StringFixed(2), "10 embedded + 25 standalone")
}

// =============================================================================
// PROJECTIONS AND COUNTS
// =============================================================================

func TestAggregate_ProjectedEarnings_MixesActualAndExpected(t *testing.T) {
	done := gig(1, "2025-04-05", "Done")
	done.ActualPay = engine.StringPtr("300.00")
	done.Tips = engine.StringPtr("20.00")

	pending := gig(2, "2025-04-20", "Pending")
	pending.Status = engine.StatusPendingPayment
	pending.ExpectedPay = engine.StringPtr("150.00")

	upcoming := gig(3, "2025-05-10", "Upcoming")
	upcoming.Status = engine.StatusUpcoming
	upcoming.ExpectedPay = engine.StringPtr("200.00")
	upcoming.Tips = engine.StringPtr("0")

	stats := engine.Aggregate(consolidated(done, pending, upcoming), nil, q2_2025(), cfgWithRate("20"))

	assert.Equal(t, "320.00", stats.ActualEarnings.StringFixed(2), "only completed gigs earn")
	assert.Equal(t, "670.00", stats.ProjectedEarnings.StringFixed(2), "320 + 150 + 200")
	assert.Equal(t, 3, stats.TotalGigs)
	assert.Equal(t, 1, stats.CompletedGigs)
	assert.Equal(t, 1, stats.UpcomingGigs)
}

func TestAggregate_PeriodFilter_ByStartDate(t *testing.T) {
	// A booking starting in March does not bleed into Q2 even if listed.
	march := gig(1, "2025-03-30", "March Gig")
	march.ActualPay = engine.StringPtr("100.00")
	april := gig(2, "2025-04-01", "April Gig")
	april.ActualPay = engine.StringPtr("100.00")

	stats := engine.Aggregate(consolidated(march, april), nil, q2_2025(), cfgWithRate("20"))

	assert.Equal(t, 1, stats.TotalGigs)
	assert.Equal(t, "100.00", stats.ActualEarnings.StringFixed(2))
}

// =============================================================================
// NUMERIC ROBUSTNESS
// =============================================================================

func TestAggregate_MalformedAmounts_DefaultToZero(t *testing.T) {
	g := gig(1, "2025-04-12", "Garbled")
	g.ActualPay = engine.StringPtr("not-a-number")
	g.Tips = engine.StringPtr("12.34")

	stats := engine.Aggregate(consolidated(g), nil, q2_2025(), cfgWithRate("20"))
	assert.Equal(t, "12.34", stats.ActualEarnings.StringFixed(2))
}

func TestAggregate_RepeatedCalls_ByteIdentical(t *testing.T) {
	g := gig(1, "2025-04-12", "Stable")
	g.TotalReceived = engine.StringPtr("333.33")
	g.Tips = engine.StringPtr("11.11")
	g.Mileage = 7
	gigs := consolidated(g)

	first := engine.Aggregate(gigs, nil, q2_2025(), cfgWithRate("33"))
	second := engine.Aggregate(gigs, nil, q2_2025(), cfgWithRate("33"))

	assert.Equal(t, first.ActualEarnings.String(), second.ActualEarnings.String())
	assert.Equal(t, first.EstimatedTax.String(), second.EstimatedTax.String())
	assert.Equal(t, first.TotalExpenses.String(), second.TotalExpenses.String())
}
