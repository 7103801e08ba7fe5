/*
scenarios.go - Demo scenario loaders for testing and demonstrations

PURPOSE:
  Pre-built datasets that populate storage with realistic gig/expense data
  for demos and end-to-end testing. Each scenario resets storage, seeds a
  profile, and creates gigs and expenses demonstrating specific engine
  behaviors.

AVAILABLE SCENARIOS:
  weekend-warrior:  Mixed single-day gigs across a quarter, legacy fields
  conference-week:  A multi-day booking (consolidation + captured payment)
  tax-season:       Legacy and captured gigs side by side with expenses,
                    including a zero tax-rate override

NOTE:
  Scenarios reset storage. Development/demo environments only.

SEE ALSO:
  - handlers.go: writeJSON/writeError helpers
*/
package api

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/google/uuid"

	"github.com/gigbooks/bookkeeping/engine"
)

// =============================================================================
// SCENARIO DEFINITIONS
// =============================================================================

var scenarios = []ScenarioDTO{
	{
		Name:        "weekend-warrior",
		Description: "Single-day gigs across a quarter, legacy payment fields",
	},
	{
		Name:        "conference-week",
		Description: "A three-day booking consolidated into one, captured payment",
	},
	{
		Name:        "tax-season",
		Description: "Legacy and captured gigs with standalone expenses and a 0% override",
	},
}

// resettable is implemented by stores that can wipe all rows.
type resettable interface {
	Reset(ctx context.Context) error
}

// ListScenarios returns available scenarios.
func (h *Handler) ListScenarios(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, scenarios)
}

// LoadScenario resets storage and seeds the named scenario.
func (h *Handler) LoadScenario(w http.ResponseWriter, r *http.Request) {
	var req LoadScenarioRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body", err)
		return
	}

	store, ok := h.Store.(resettable)
	if !ok {
		writeError(w, http.StatusConflict, "storage does not support scenarios", nil)
		return
	}
	if err := store.Reset(r.Context()); err != nil {
		writeError(w, http.StatusInternalServerError, "failed to reset storage", err)
		return
	}

	var err error
	switch req.Name {
	case "weekend-warrior":
		err = h.loadWeekendWarrior(r.Context())
	case "conference-week":
		err = h.loadConferenceWeek(r.Context())
	case "tax-season":
		err = h.loadTaxSeason(r.Context())
	default:
		writeError(w, http.StatusBadRequest, fmt.Sprintf("unknown scenario %q", req.Name), nil)
		return
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to load scenario", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "loaded", "scenario": req.Name})
}

// =============================================================================
// LOADERS
// =============================================================================

// demoUser is the user every scenario seeds.
const demoUser = engine.UserID("demo")

func (h *Handler) seedProfile(ctx context.Context, taxRate string) error {
	return h.Store.PutProfile(ctx, engine.UserProfile{
		ID:             demoUser,
		Name:           "Demo Worker",
		DefaultTaxRate: taxRate,
		HomeAddress:    "100 Home St, Springfield",
	})
}

func (h *Handler) loadWeekendWarrior(ctx context.Context) error {
	if err := h.seedProfile(ctx, "25"); err != nil {
		return err
	}
	gigs := []engine.GigRecord{
		{UserID: demoUser, Date: "2025-01-11", Status: engine.StatusCompleted, EventName: "Winter Market", ClientName: "City Events", GigType: "vendor",
			ActualPay: engine.StringPtr("250.00"), Tips: engine.StringPtr("40.00"), ParkingExpense: engine.StringPtr("15.00"), Mileage: 22},
		{UserID: demoUser, Date: "2025-02-08", Status: engine.StatusCompleted, EventName: "Wedding", ClientName: "Hart Family", GigType: "photography",
			ActualPay: engine.StringPtr("900.00"), OtherExpenses: engine.StringPtr("35.50"), Mileage: 48},
		{UserID: demoUser, Date: "2025-03-22", Status: engine.StatusPendingPayment, EventName: "Corporate Offsite", ClientName: "Acme Co", GigType: "catering",
			ExpectedPay: engine.StringPtr("600.00"), Mileage: 30},
		{UserID: demoUser, Date: "2025-04-05", Status: engine.StatusUpcoming, EventName: "Spring Fair", ClientName: "City Events", GigType: "vendor",
			ExpectedPay: engine.StringPtr("300.00")},
	}
	for _, g := range gigs {
		if _, err := h.Store.CreateGig(ctx, g); err != nil {
			return err
		}
	}
	return nil
}

func (h *Handler) loadConferenceWeek(ctx context.Context) error {
	if err := h.seedProfile(ctx, "30"); err != nil {
		return err
	}
	// Three consecutive days, one booking. Payment captured once, on the
	// first day; the consolidator must not sum across the chain.
	days := []string{"2025-03-01", "2025-03-02", "2025-03-03"}
	for i, day := range days {
		g := engine.GigRecord{
			UserID: demoUser, Date: day, Status: engine.StatusCompleted,
			EventName: "Expo", ClientName: "TechCorp", GigType: "av_tech",
			GigAddress: "500 Convention Blvd, Springfield",
		}
		if i == 0 {
			g.TotalReceived = engine.StringPtr("600.00")
			g.ReimbursedParking = engine.StringPtr("45.00")
			g.UnreimbursedOther = engine.StringPtr("20.00")
			g.Mileage = 66
		} else {
			g.TotalReceived = engine.StringPtr("0")
		}
		if _, err := h.Store.CreateGig(ctx, g); err != nil {
			return err
		}
	}
	return nil
}

func (h *Handler) loadTaxSeason(ctx context.Context) error {
	if err := h.seedProfile(ctx, "28"); err != nil {
		return err
	}
	gigs := []engine.GigRecord{
		{UserID: demoUser, Date: "2025-04-12", Status: engine.StatusCompleted, EventName: "Gallery Opening", ClientName: "Artspace", GigType: "bartending",
			TotalReceived: engine.StringPtr("350.00"), ReimbursedParking: engine.StringPtr("20.00"),
			UnreimbursedParking: engine.StringPtr("5.00"), Tips: engine.StringPtr("85.00"), Mileage: 18},
		{UserID: demoUser, Date: "2025-04-19", Status: engine.StatusCompleted, EventName: "Backyard Party", ClientName: "Neighbor", GigType: "dj",
			ActualPay: engine.StringPtr("200.00"), TaxPercentage: engine.StringPtr("0"), Mileage: 6},
		{UserID: demoUser, Date: "2025-05-03", Status: engine.StatusCompleted, EventName: "Product Launch", ClientName: "Acme Co", GigType: "av_tech",
			ExpectedPay: engine.StringPtr("500.00"), Tips: engine.StringPtr("0"), Mileage: 40},
	}
	for _, g := range gigs {
		if _, err := h.Store.CreateGig(ctx, g); err != nil {
			return err
		}
	}
	expenses := []engine.ExpenseRecord{
		{ID: engine.ExpenseID(uuid.NewString()), UserID: demoUser, Date: "2025-04-15",
			Amount: engine.StringPtr("120.00"), Category: "equipment", Merchant: "Audio World",
			BusinessPurpose: "Replacement XLR cables"},
		{ID: engine.ExpenseID(uuid.NewString()), UserID: demoUser, Date: "2025-05-01",
			Amount: engine.StringPtr("60.00"), ReimbursedAmount: engine.StringPtr("60.00"),
			Category: "supplies", Merchant: "Party Depot", BusinessPurpose: "Client-reimbursed decorations"},
	}
	for _, e := range expenses {
		if _, err := h.Store.CreateExpense(ctx, e); err != nil {
			return err
		}
	}
	return nil
}
