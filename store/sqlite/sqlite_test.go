package sqlite_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gigbooks/bookkeeping/engine"
	"github.com/gigbooks/bookkeeping/store/sqlite"
)

// =============================================================================
// TEST SETUP
// =============================================================================

func newTestStore(t *testing.T) *sqlite.Store {
	t.Helper()
	store, err := sqlite.New(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	// Gigs and expenses reference users, so every test needs a profile row.
	require.NoError(t, store.PutProfile(context.Background(), engine.UserProfile{
		ID: "u1", Name: "Dana", DefaultTaxRate: "28", HomeAddress: "100 Home St",
	}))
	return store
}

// =============================================================================
// GIG STORE
// =============================================================================

func TestStore_GigCRUD(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	// GIVEN: a created gig
	created, err := store.CreateGig(ctx, engine.GigRecord{
		UserID: "u1", Date: "2025-03-01",
		EventName: "Expo", ClientName: "TechCorp", GigType: "av_tech",
		ExpectedPay: engine.StringPtr("500.00"),
	})
	require.NoError(t, err)
	assert.NotZero(t, created.ID)
	assert.Equal(t, engine.StatusUpcoming, created.Status, "status defaults")

	// WHEN: fetched back
	got, err := store.GetGig(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, "Expo", got.EventName)
	require.NotNil(t, got.ExpectedPay)
	assert.Equal(t, "500.00", *got.ExpectedPay)
	assert.Nil(t, got.TotalReceived, "captured columns start NULL")
	assert.Nil(t, got.TaxPercentage)

	// THEN: list returns it, delete removes it
	gigs, err := store.ListGigs(ctx, "u1")
	require.NoError(t, err)
	require.Len(t, gigs, 1)

	require.NoError(t, store.DeleteGig(ctx, created.ID))
	_, err = store.GetGig(ctx, created.ID)
	assert.ErrorIs(t, err, engine.ErrGigNotFound)
	assert.ErrorIs(t, store.DeleteGig(ctx, created.ID), engine.ErrGigNotFound)
}

func TestStore_ListGigs_OrderedByDate(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	for _, date := range []string{"2025-03-05", "2025-03-01", "2025-03-03"} {
		_, err := store.CreateGig(ctx, engine.GigRecord{UserID: "u1", Date: date, EventName: "Expo"})
		require.NoError(t, err)
	}

	gigs, err := store.ListGigs(ctx, "u1")
	require.NoError(t, err)
	require.Len(t, gigs, 3)
	assert.Equal(t, "2025-03-01", gigs[0].Date)
	assert.Equal(t, "2025-03-03", gigs[1].Date)
	assert.Equal(t, "2025-03-05", gigs[2].Date)
}

func TestStore_PatchGig_PartialUpdate(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	created, err := store.CreateGig(ctx, engine.GigRecord{
		UserID: "u1", Date: "2025-03-01", EventName: "Expo",
		ExpectedPay: engine.StringPtr("500.00"),
		Status:      engine.StatusPendingPayment,
	})
	require.NoError(t, err)

	// WHEN: a payment-capture patch lands
	status := engine.StatusCompleted
	miles := 25
	patched, err := store.PatchGig(ctx, created.ID, engine.GigPatch{
		TotalReceived:       engine.StringPtr("600.00"),
		ReimbursedParking:   engine.StringPtr("20.00"),
		UnreimbursedParking: engine.StringPtr("25.00"),
		Mileage:             &miles,
		TaxPercentage:       engine.StringPtr("30.00"),
		Status:              &status,
	})
	require.NoError(t, err)

	// THEN: patched columns changed, untouched columns survived
	assert.Equal(t, "600.00", *patched.TotalReceived)
	assert.Equal(t, "20.00", *patched.ReimbursedParking)
	assert.Equal(t, 25, patched.Mileage)
	assert.Equal(t, engine.StatusCompleted, patched.Status)
	assert.Equal(t, "Expo", patched.EventName)
	assert.Equal(t, "500.00", *patched.ExpectedPay)
	assert.Nil(t, patched.ReimbursedOther, "not in patch, still NULL")
}

func TestStore_PatchGig_EmptyAndMissing(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	created, err := store.CreateGig(ctx, engine.GigRecord{UserID: "u1", Date: "2025-03-01"})
	require.NoError(t, err)

	_, err = store.PatchGig(ctx, created.ID, engine.GigPatch{})
	assert.ErrorIs(t, err, engine.ErrNoPatchFields)

	_, err = store.PatchGig(ctx, 9999, engine.GigPatch{Mileage: new(int)})
	assert.ErrorIs(t, err, engine.ErrGigNotFound)
}

func TestStore_TaxPercentage_NullVersusZero(t *testing.T) {
	// A NULL tax_percentage means "use the profile default"; an explicit "0"
	// is a real override. The column must round-trip the difference.
	store := newTestStore(t)
	ctx := context.Background()

	created, err := store.CreateGig(ctx, engine.GigRecord{UserID: "u1", Date: "2025-03-01"})
	require.NoError(t, err)

	got, err := store.GetGig(ctx, created.ID)
	require.NoError(t, err)
	assert.Nil(t, got.TaxPercentage)

	_, err = store.PatchGig(ctx, created.ID, engine.GigPatch{TaxPercentage: engine.StringPtr("0")})
	require.NoError(t, err)

	got, err = store.GetGig(ctx, created.ID)
	require.NoError(t, err)
	require.NotNil(t, got.TaxPercentage)
	assert.Equal(t, "0", *got.TaxPercentage)
}

// =============================================================================
// EXPENSE STORE
// =============================================================================

func TestStore_ExpenseCRUD(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	gig, err := store.CreateGig(ctx, engine.GigRecord{UserID: "u1", Date: "2025-03-01"})
	require.NoError(t, err)

	created, err := store.CreateExpense(ctx, engine.ExpenseRecord{
		ID: "exp-1", UserID: "u1", Date: "2025-03-01",
		Amount: engine.StringPtr("45.00"), Category: "equipment",
		Merchant: "Guitar Center", GigID: &gig.ID,
	})
	require.NoError(t, err)
	require.NotNil(t, created.ReimbursedAmount)
	assert.Equal(t, "0", *created.ReimbursedAmount, "reimbursed defaults to zero")

	expenses, err := store.ListExpenses(ctx, "u1")
	require.NoError(t, err)
	require.Len(t, expenses, 1)
	assert.Equal(t, "45.00", *expenses[0].Amount)
	require.NotNil(t, expenses[0].GigID)
	assert.Equal(t, gig.ID, *expenses[0].GigID)

	require.NoError(t, store.DeleteExpense(ctx, "exp-1"))
	assert.ErrorIs(t, store.DeleteExpense(ctx, "exp-1"), engine.ErrExpenseNotFound)
}

func TestStore_Expense_WithoutGigLink(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	_, err := store.CreateExpense(ctx, engine.ExpenseRecord{
		ID: "exp-2", UserID: "u1", Date: "2025-03-10",
		Amount: engine.StringPtr("12.00"), Category: "supplies",
	})
	require.NoError(t, err)

	expenses, err := store.ListExpenses(ctx, "u1")
	require.NoError(t, err)
	require.Len(t, expenses, 1)
	assert.Nil(t, expenses[0].GigID)
}

// =============================================================================
// PROFILE STORE
// =============================================================================

func TestStore_Profile_Upsert(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	got, err := store.GetProfile(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, "Dana", got.Name)
	assert.Equal(t, "28", got.DefaultTaxRate)

	// Upsert replaces in place.
	require.NoError(t, store.PutProfile(ctx, engine.UserProfile{
		ID: "u1", Name: "Dana", DefaultTaxRate: "33", HomeAddress: "200 New St",
	}))
	got, err = store.GetProfile(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, "33", got.DefaultTaxRate)
	assert.Equal(t, "200 New St", got.HomeAddress)

	_, err = store.GetProfile(ctx, "nobody")
	assert.ErrorIs(t, err, engine.ErrUserNotFound)
}

// =============================================================================
// RESET
// =============================================================================

func TestStore_Reset(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	_, err := store.CreateGig(ctx, engine.GigRecord{UserID: "u1", Date: "2025-03-01"})
	require.NoError(t, err)

	require.NoError(t, store.Reset(ctx))

	gigs, err := store.ListGigs(ctx, "u1")
	require.NoError(t, err)
	assert.Empty(t, gigs)
	_, err = store.GetProfile(ctx, "u1")
	assert.ErrorIs(t, err, engine.ErrUserNotFound)
}
