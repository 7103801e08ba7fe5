package engine_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/gigbooks/bookkeeping/engine"
)

// =============================================================================
// CALCULATION MODE RESOLUTION
// =============================================================================

func TestResolvePayment_CapturedWinsWhenPositive(t *testing.T) {
	rec := engine.GigRecord{
		TotalReceived:     engine.StringPtr("600.00"),
		ActualPay:         engine.StringPtr("999.00"), // stale legacy value, ignored
		ReimbursedParking: engine.StringPtr("45.00"),
		Tips:              engine.StringPtr("20.00"),
	}

	p := engine.ResolvePayment(&rec)
	assert.Equal(t, engine.KindCaptured, p.Kind)

	taxable, over := p.Taxable()
	assert.False(t, over)
	assert.Equal(t, "575.00", taxable.StringFixed(2), "600 - 45 + 20 tips")
}

func TestResolvePayment_ZeroTotalReceivedStaysLegacy(t *testing.T) {
	rec := engine.GigRecord{
		TotalReceived: engine.StringPtr("0"),
		ActualPay:     engine.StringPtr("200.00"),
	}

	p := engine.ResolvePayment(&rec)
	assert.Equal(t, engine.KindLegacy, p.Kind)

	taxable, _ := p.Taxable()
	assert.Equal(t, "200.00", taxable.StringFixed(2))
}

func TestResolvePayment_LegacyFallsBackToExpectedPay(t *testing.T) {
	rec := engine.GigRecord{
		ExpectedPay: engine.StringPtr("350.00"),
		Tips:        engine.StringPtr("15.00"),
	}

	p := engine.ResolvePayment(&rec)
	assert.Equal(t, engine.KindLegacy, p.Kind)

	taxable, _ := p.Taxable()
	assert.Equal(t, "365.00", taxable.StringFixed(2))

	// An explicit actual pay of 0 is a real value, not absence.
	rec.ActualPay = engine.StringPtr("0")
	taxable, _ = engine.ResolvePayment(&rec).Taxable()
	assert.Equal(t, "15.00", taxable.StringFixed(2), "0 pay + tips")
}

func TestResolvePayment_OverReimbursementClampsToTips(t *testing.T) {
	rec := engine.GigRecord{
		TotalReceived:     engine.StringPtr("50.00"),
		ReimbursedParking: engine.StringPtr("80.00"),
		Tips:              engine.StringPtr("10.00"),
	}

	taxable, over := engine.ResolvePayment(&rec).Taxable()
	assert.True(t, over)
	assert.Equal(t, "10.00", taxable.StringFixed(2), "never negative")
}

func TestResolvePayment_Deductions(t *testing.T) {
	captured := engine.GigRecord{
		TotalReceived:       engine.StringPtr("600.00"),
		UnreimbursedParking: engine.StringPtr("25.00"),
		UnreimbursedOther:   engine.StringPtr("12.50"),
		ParkingExpense:      engine.StringPtr("99.00"), // legacy field, ignored
	}
	assert.Equal(t, "37.50", engine.ResolvePayment(&captured).Deductions().StringFixed(2))

	legacy := engine.GigRecord{
		ActualPay:      engine.StringPtr("200.00"),
		ParkingExpense: engine.StringPtr("15.00"),
		OtherExpenses:  engine.StringPtr("8.00"),
	}
	assert.Equal(t, "23.00", engine.ResolvePayment(&legacy).Deductions().StringFixed(2))
}

func TestParseMoney_GarbageIsZero(t *testing.T) {
	assert.True(t, engine.ParseMoney(nil).IsZero())
	assert.True(t, engine.ParseMoney(engine.StringPtr("")).IsZero())
	assert.True(t, engine.ParseMoney(engine.StringPtr("about fifty")).IsZero())
	assert.Equal(t, "42.10", engine.ParseMoney(engine.StringPtr("42.1")).StringFixed(2))
}
