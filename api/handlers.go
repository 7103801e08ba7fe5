/*
handlers.go - HTTP API handlers for the bookkeeping engine

PURPOSE:
  Exposes the engine via REST. Handlers parse HTTP, delegate to the engine
  and the wizard, and serialize DTOs. No financial math lives here.

ENDPOINTS:
  Profile:
    GET    /api/users/{userID}/profile
    PUT    /api/users/{userID}/profile

  Gigs (consolidated view):
    GET    /api/users/{userID}/gigs
    POST   /api/users/{userID}/gigs
    GET    /api/gigs/{id}
    DELETE /api/gigs/{id}

  Expenses:
    GET    /api/users/{userID}/expenses
    POST   /api/users/{userID}/expenses
    DELETE /api/expenses/{id}

  Statistics:
    GET    /api/users/{userID}/stats?mode=&anchor=
    GET    /api/periods?mode=&anchor=&step=

  Payment wizard:
    POST   /api/gigs/{id}/payment            Start a session
    GET    /api/payment-sessions/{sid}
    POST   /api/payment-sessions/{sid}/next
    POST   /api/payment-sessions/{sid}/back
    PUT    /api/payment-sessions/{sid}/values
    POST   /api/payment-sessions/{sid}/calculate-mileage
    POST   /api/payment-sessions/{sid}/finalize
    DELETE /api/payment-sessions/{sid}       Cancel

  Scenarios:
    GET    /api/scenarios
    POST   /api/scenarios/load

ERROR HANDLING:
  Errors are returned as JSON with appropriate HTTP status:
  - 400: Validation errors, invalid input
  - 404: Resource not found
  - 502: Distance collaborator failure (recoverable; enter miles manually)
  - 500: Internal/persistence errors

WIZARD SESSIONS:
  Sessions are transient and held in memory, keyed by UUID. A handler-level
  mutex guards the map; a per-session mutex serializes each session's
  mutate-and-render, since Session itself is not concurrency-safe. Sessions
  are destroyed on cancel and on successful finalize; a restart loses
  in-flight wizards (nothing is committed until finalize).

SEE ALSO:
  - dto.go: Request/response data structures
  - server.go: Router setup and middleware
*/
package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"sync"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/gigbooks/bookkeeping/distance"
	"github.com/gigbooks/bookkeeping/engine"
	"github.com/gigbooks/bookkeeping/wizard"
)

// =============================================================================
// HANDLER CONTEXT
// =============================================================================

// Storage is everything the API needs from the persistence layer.
type Storage interface {
	engine.GigStore
	engine.ExpenseStore
	engine.ProfileStore
}

// Handler holds all dependencies for HTTP handlers.
type Handler struct {
	Store    Storage
	Distance distance.Calculator

	// MileageRate overrides the standard per-mile deduction when non-nil.
	MileageRate *string

	mu       sync.Mutex
	sessions map[string]*sessionHandle
}

// sessionHandle pairs a wizard session with the lock that serializes access
// to it. Sessions themselves are not concurrency-safe, so every handler
// holds the handle's lock from lookup through the final DTO render; h.mu
// guards only the map.
type sessionHandle struct {
	mu      sync.Mutex
	session *wizard.Session
}

// NewHandler creates a new handler with the given store and distance
// collaborator.
func NewHandler(store Storage, calc distance.Calculator) *Handler {
	return &Handler{
		Store:    store,
		Distance: calc,
		sessions: make(map[string]*sessionHandle),
	}
}

func (h *Handler) config(defaultTaxRate *string) engine.Config {
	return engine.NewConfig(h.MileageRate, defaultTaxRate)
}

// =============================================================================
// PROFILE HANDLERS
// =============================================================================

func (h *Handler) GetProfile(w http.ResponseWriter, r *http.Request) {
	userID := engine.UserID(chi.URLParam(r, "userID"))
	profile, err := h.Store.GetProfile(r.Context(), userID)
	if errors.Is(err, engine.ErrUserNotFound) {
		writeError(w, http.StatusNotFound, "user not found", nil)
		return
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to load profile", err)
		return
	}
	writeJSON(w, http.StatusOK, ProfileDTO{
		ID:             string(profile.ID),
		Name:           profile.Name,
		DefaultTaxRate: profile.DefaultTaxRate,
		HomeAddress:    profile.HomeAddress,
	})
}

func (h *Handler) PutProfile(w http.ResponseWriter, r *http.Request) {
	userID := engine.UserID(chi.URLParam(r, "userID"))
	var req ProfileDTO
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body", err)
		return
	}
	profile := engine.UserProfile{
		ID:             userID,
		Name:           req.Name,
		DefaultTaxRate: req.DefaultTaxRate,
		HomeAddress:    req.HomeAddress,
	}
	if err := h.Store.PutProfile(r.Context(), profile); err != nil {
		writeError(w, http.StatusInternalServerError, "failed to save profile", err)
		return
	}
	writeJSON(w, http.StatusOK, ProfileDTO{
		ID:             string(profile.ID),
		Name:           profile.Name,
		DefaultTaxRate: profile.DefaultTaxRate,
		HomeAddress:    profile.HomeAddress,
	})
}

// =============================================================================
// GIG HANDLERS
// =============================================================================

// ListGigs returns the user's gigs as consolidated bookings.
func (h *Handler) ListGigs(w http.ResponseWriter, r *http.Request) {
	userID := engine.UserID(chi.URLParam(r, "userID"))
	records, err := h.Store.ListGigs(r.Context(), userID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to list gigs", err)
		return
	}

	consolidated := engine.Consolidate(records)
	dtos := make([]GigDTO, 0, len(consolidated))
	for i := range consolidated {
		dtos = append(dtos, toGigDTO(&consolidated[i]))
	}
	writeJSON(w, http.StatusOK, dtos)
}

func (h *Handler) CreateGig(w http.ResponseWriter, r *http.Request) {
	userID := engine.UserID(chi.URLParam(r, "userID"))
	var req CreateGigRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body", err)
		return
	}
	if _, err := engine.ParseDate(req.Date); err != nil {
		writeError(w, http.StatusBadRequest, "invalid date, expected YYYY-MM-DD", err)
		return
	}

	status := engine.GigStatus(req.Status)
	if status == "" {
		status = engine.StatusUpcoming
	}
	switch status {
	case engine.StatusUpcoming, engine.StatusPendingPayment, engine.StatusCompleted:
	default:
		writeError(w, http.StatusBadRequest, "invalid status", nil)
		return
	}

	gig, err := h.Store.CreateGig(r.Context(), engine.GigRecord{
		UserID:      userID,
		Date:        req.Date,
		Status:      status,
		EventName:   req.EventName,
		ClientName:  req.ClientName,
		GigType:     req.GigType,
		ExpectedPay: req.ExpectedPay,
		Tips:        req.Tips,
		GigAddress:  req.GigAddress,
	})
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to create gig", err)
		return
	}

	single := engine.ConsolidatedGig{Records: []engine.GigRecord{gig}}
	if day, ok := gig.Day(); ok {
		single.StartDate, single.EndDate = day, day
	}
	writeJSON(w, http.StatusCreated, toGigDTO(&single))
}

// GetGig returns the consolidated booking containing the given record, so a
// day of a multi-day chain resolves to the whole booking.
func (h *Handler) GetGig(w http.ResponseWriter, r *http.Request) {
	id, err := gigIDParam(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid gig id", err)
		return
	}

	gig, err := h.Store.GetGig(r.Context(), id)
	if errors.Is(err, engine.ErrGigNotFound) {
		writeError(w, http.StatusNotFound, "gig not found", nil)
		return
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to load gig", err)
		return
	}

	records, err := h.Store.ListGigs(r.Context(), gig.UserID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to list gigs", err)
		return
	}
	booking := findBooking(engine.Consolidate(records), id)
	if booking == nil {
		single := engine.ConsolidatedGig{Records: []engine.GigRecord{gig}}
		if day, ok := gig.Day(); ok {
			single.StartDate, single.EndDate = day, day
		}
		booking = &single
	}
	writeJSON(w, http.StatusOK, toGigDTO(booking))
}

func (h *Handler) DeleteGig(w http.ResponseWriter, r *http.Request) {
	id, err := gigIDParam(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid gig id", err)
		return
	}
	if err := h.Store.DeleteGig(r.Context(), id); err != nil {
		if errors.Is(err, engine.ErrGigNotFound) {
			writeError(w, http.StatusNotFound, "gig not found", nil)
			return
		}
		writeError(w, http.StatusInternalServerError, "failed to delete gig", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}

// =============================================================================
// EXPENSE HANDLERS
// =============================================================================

func (h *Handler) ListExpenses(w http.ResponseWriter, r *http.Request) {
	userID := engine.UserID(chi.URLParam(r, "userID"))
	records, err := h.Store.ListExpenses(r.Context(), userID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to list expenses", err)
		return
	}
	dtos := make([]ExpenseDTO, 0, len(records))
	for i := range records {
		dtos = append(dtos, toExpenseDTO(&records[i]))
	}
	writeJSON(w, http.StatusOK, dtos)
}

func (h *Handler) CreateExpense(w http.ResponseWriter, r *http.Request) {
	userID := engine.UserID(chi.URLParam(r, "userID"))
	var req CreateExpenseRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body", err)
		return
	}
	if _, err := engine.ParseDate(req.Date); err != nil {
		writeError(w, http.StatusBadRequest, "invalid date, expected YYYY-MM-DD", err)
		return
	}

	exp := engine.ExpenseRecord{
		ID:               engine.ExpenseID(uuid.NewString()),
		UserID:           userID,
		Date:             req.Date,
		Amount:           engine.StringPtr(req.Amount),
		ReimbursedAmount: req.ReimbursedAmount,
		Category:         req.Category,
		Merchant:         req.Merchant,
		BusinessPurpose:  req.BusinessPurpose,
	}
	if req.GigID != nil {
		id := engine.GigID(*req.GigID)
		exp.GigID = &id
	}

	created, err := h.Store.CreateExpense(r.Context(), exp)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to create expense", err)
		return
	}
	writeJSON(w, http.StatusCreated, toExpenseDTO(&created))
}

func (h *Handler) DeleteExpense(w http.ResponseWriter, r *http.Request) {
	id := engine.ExpenseID(chi.URLParam(r, "id"))
	if err := h.Store.DeleteExpense(r.Context(), id); err != nil {
		if errors.Is(err, engine.ErrExpenseNotFound) {
			writeError(w, http.StatusNotFound, "expense not found", nil)
			return
		}
		writeError(w, http.StatusInternalServerError, "failed to delete expense", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}

// =============================================================================
// STATS / PERIOD HANDLERS
// =============================================================================

// GetStats computes the full statistics bundle for the requested period.
func (h *Handler) GetStats(w http.ResponseWriter, r *http.Request) {
	userID := engine.UserID(chi.URLParam(r, "userID"))
	mode, anchor, err := periodParams(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid period parameters", err)
		return
	}

	gigs, err := h.Store.ListGigs(r.Context(), userID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to list gigs", err)
		return
	}
	expenses, err := h.Store.ListExpenses(r.Context(), userID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to list expenses", err)
		return
	}

	// A missing profile just means no default rate; a storage failure must
	// not silently understate estimated tax.
	var defaultTaxRate *string
	profile, err := h.Store.GetProfile(r.Context(), userID)
	switch {
	case err == nil:
		defaultTaxRate = &profile.DefaultTaxRate
	case errors.Is(err, engine.ErrUserNotFound):
	default:
		writeError(w, http.StatusInternalServerError, "failed to load profile", err)
		return
	}

	period := engine.Resolve(mode, anchor)
	stats := engine.Aggregate(engine.Consolidate(gigs), expenses, period, h.config(defaultTaxRate))
	writeJSON(w, http.StatusOK, toStatsDTO(stats, mode, anchor))
}

// GetPeriod resolves a period range, optionally stepping to the adjacent
// one first (step=prev|next). Drives the calendar header's arrows.
func (h *Handler) GetPeriod(w http.ResponseWriter, r *http.Request) {
	mode, anchor, err := periodParams(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid period parameters", err)
		return
	}

	switch r.URL.Query().Get("step") {
	case "next":
		anchor = engine.Step(mode, anchor, engine.StepNext)
	case "prev":
		anchor = engine.Step(mode, anchor, engine.StepPrev)
	case "":
	default:
		writeError(w, http.StatusBadRequest, "step must be prev or next", nil)
		return
	}

	period := engine.Resolve(mode, anchor)
	writeJSON(w, http.StatusOK, PeriodDTO{
		Mode:   string(mode),
		Anchor: anchor.String(),
		Start:  period.Start.String(),
		End:    period.End.String(),
		Label:  period.Label,
	})
}

func periodParams(r *http.Request) (engine.PeriodMode, engine.Date, error) {
	q := r.URL.Query()

	mode := engine.PeriodMode(q.Get("mode"))
	switch mode {
	case "":
		mode = engine.PeriodMonthly
	case engine.PeriodMonthly, engine.PeriodQuarterly, engine.PeriodAnnual:
	default:
		return "", engine.Date{}, errors.New("mode must be monthly, quarterly, or annual")
	}

	anchor := engine.Today()
	if s := q.Get("anchor"); s != "" {
		var err error
		anchor, err = engine.ParseDate(s)
		if err != nil {
			return "", engine.Date{}, err
		}
	}
	return mode, anchor, nil
}

// =============================================================================
// PAYMENT WIZARD HANDLERS
// =============================================================================

// StartPayment begins a payment capture session for the booking containing
// the given gig.
func (h *Handler) StartPayment(w http.ResponseWriter, r *http.Request) {
	id, err := gigIDParam(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid gig id", err)
		return
	}

	gig, err := h.Store.GetGig(r.Context(), id)
	if errors.Is(err, engine.ErrGigNotFound) {
		writeError(w, http.StatusNotFound, "gig not found", nil)
		return
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to load gig", err)
		return
	}

	// The wizard captures payment for the whole booking, so find the
	// consolidated chain this record belongs to.
	records, err := h.Store.ListGigs(r.Context(), gig.UserID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to list gigs", err)
		return
	}
	booking := findBooking(engine.Consolidate(records), id)
	if booking == nil {
		single := engine.ConsolidatedGig{Records: []engine.GigRecord{gig}}
		if day, ok := gig.Day(); ok {
			single.StartDate, single.EndDate = day, day
		}
		booking = &single
	}

	// Missing profile just means no seeded defaults.
	profile, _ := h.Store.GetProfile(r.Context(), gig.UserID)

	session := wizard.NewSession(booking, profile)
	dto := toSessionDTO(session, h.config(nil))
	h.mu.Lock()
	h.sessions[session.ID] = &sessionHandle{session: session}
	h.mu.Unlock()

	writeJSON(w, http.StatusCreated, dto)
}

func findBooking(gigs []engine.ConsolidatedGig, id engine.GigID) *engine.ConsolidatedGig {
	for i := range gigs {
		for _, rec := range gigs[i].Records {
			if rec.ID == id {
				return &gigs[i]
			}
		}
	}
	return nil
}

func (h *Handler) session(r *http.Request) (*sessionHandle, bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	s, ok := h.sessions[chi.URLParam(r, "sid")]
	return s, ok
}

func (h *Handler) GetSession(w http.ResponseWriter, r *http.Request) {
	hdl, ok := h.session(r)
	if !ok {
		writeError(w, http.StatusNotFound, "payment session not found", nil)
		return
	}
	hdl.mu.Lock()
	defer hdl.mu.Unlock()
	writeJSON(w, http.StatusOK, toSessionDTO(hdl.session, h.config(nil)))
}

func (h *Handler) NextStep(w http.ResponseWriter, r *http.Request) {
	hdl, ok := h.session(r)
	if !ok {
		writeError(w, http.StatusNotFound, "payment session not found", nil)
		return
	}
	hdl.mu.Lock()
	defer hdl.mu.Unlock()
	hdl.session.Next()
	writeJSON(w, http.StatusOK, toSessionDTO(hdl.session, h.config(nil)))
}

func (h *Handler) BackStep(w http.ResponseWriter, r *http.Request) {
	hdl, ok := h.session(r)
	if !ok {
		writeError(w, http.StatusNotFound, "payment session not found", nil)
		return
	}
	hdl.mu.Lock()
	defer hdl.mu.Unlock()
	hdl.session.Back()
	writeJSON(w, http.StatusOK, toSessionDTO(hdl.session, h.config(nil)))
}

// UpdateSession applies per-step field changes and returns the refreshed
// state, including the recomputed review preview.
func (h *Handler) UpdateSession(w http.ResponseWriter, r *http.Request) {
	hdl, ok := h.session(r)
	if !ok {
		writeError(w, http.StatusNotFound, "payment session not found", nil)
		return
	}
	var req UpdateSessionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body", err)
		return
	}

	hdl.mu.Lock()
	defer hdl.mu.Unlock()
	session := hdl.session

	if req.TotalReceived != nil {
		session.SetTotalReceived(*req.TotalReceived)
	}
	if req.Mileage != nil {
		session.SetMileageForm(wizard.MileageForm{
			StartAddress: req.Mileage.StartAddress,
			EndAddress:   req.Mileage.EndAddress,
			RoundTrip:    req.Mileage.RoundTrip,
			PerDay:       req.Mileage.PerDay,
		})
	}
	if req.Miles != nil {
		session.SetMiles(*req.Miles)
	}
	if req.Parking != nil {
		session.SetParking(req.Parking.Amount, req.Parking.Reimbursed)
	}
	if req.AddOther != nil {
		session.AddOtherExpense(wizard.ExpenseLine{
			Category:   req.AddOther.Category,
			Amount:     req.AddOther.Amount,
			Reimbursed: req.AddOther.Reimbursed,
		})
	}
	if req.RemoveOther != nil {
		session.RemoveOtherExpense(*req.RemoveOther)
	}
	if req.TaxRate != nil {
		session.SetTaxRate(*req.TaxRate)
	}
	if req.PaymentMethod != nil {
		session.SetPaymentMethod(*req.PaymentMethod)
	}

	writeJSON(w, http.StatusOK, toSessionDTO(session, h.config(nil)))
}

// CalculateMileage invokes the distance collaborator. Failure is
// recoverable: 502 tells the UI to offer manual entry, session unchanged.
func (h *Handler) CalculateMileage(w http.ResponseWriter, r *http.Request) {
	hdl, ok := h.session(r)
	if !ok {
		writeError(w, http.StatusNotFound, "payment session not found", nil)
		return
	}
	hdl.mu.Lock()
	defer hdl.mu.Unlock()
	if err := hdl.session.CalculateMileage(r.Context(), h.Distance); err != nil {
		writeError(w, http.StatusBadGateway, "distance calculation failed, enter miles manually", err)
		return
	}
	writeJSON(w, http.StatusOK, toSessionDTO(hdl.session, h.config(nil)))
}

// FinalizePayment commits the wizard's patch. Persistence failure leaves
// the session intact for retry.
func (h *Handler) FinalizePayment(w http.ResponseWriter, r *http.Request) {
	hdl, ok := h.session(r)
	if !ok {
		writeError(w, http.StatusNotFound, "payment session not found", nil)
		return
	}
	hdl.mu.Lock()
	defer hdl.mu.Unlock()

	patched, err := hdl.session.Finalize(r.Context(), h.Store)
	if err != nil {
		var perr *engine.PersistenceError
		if errors.As(err, &perr) {
			writeError(w, http.StatusInternalServerError, "failed to save payment, try again", err)
			return
		}
		writeError(w, http.StatusConflict, "wizard is not ready to finalize", err)
		return
	}

	h.mu.Lock()
	delete(h.sessions, hdl.session.ID)
	h.mu.Unlock()

	single := engine.ConsolidatedGig{Records: []engine.GigRecord{patched}}
	if day, ok := patched.Day(); ok {
		single.StartDate, single.EndDate = day, day
	}
	writeJSON(w, http.StatusOK, toGigDTO(&single))
}

func (h *Handler) CancelPayment(w http.ResponseWriter, r *http.Request) {
	h.mu.Lock()
	_, ok := h.sessions[chi.URLParam(r, "sid")]
	delete(h.sessions, chi.URLParam(r, "sid"))
	h.mu.Unlock()

	if !ok {
		writeError(w, http.StatusNotFound, "payment session not found", nil)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "canceled"})
}

// =============================================================================
// HELPERS
// =============================================================================

func gigIDParam(r *http.Request) (engine.GigID, error) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	return engine.GigID(id), err
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, message string, err error) {
	resp := ErrorResponse{Error: message}
	if err != nil {
		resp.Details = err.Error()
	}
	writeJSON(w, status, resp)
}
