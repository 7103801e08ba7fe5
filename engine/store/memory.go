// Package store provides an in-memory implementation of the engine's
// persistence interfaces, used by tests and dev mode.
package store

import (
	"context"
	"sort"
	"sync"

	"github.com/google/uuid"

	"github.com/gigbooks/bookkeeping/engine"
)

// =============================================================================
// MEMORY STORE - In-memory implementation (for testing/dev)
// =============================================================================

type Memory struct {
	mu       sync.RWMutex
	nextGig  engine.GigID
	gigs     map[engine.GigID]engine.GigRecord
	expenses map[engine.ExpenseID]engine.ExpenseRecord
	profiles map[engine.UserID]engine.UserProfile
}

func NewMemory() *Memory {
	return &Memory{
		nextGig:  1,
		gigs:     make(map[engine.GigID]engine.GigRecord),
		expenses: make(map[engine.ExpenseID]engine.ExpenseRecord),
		profiles: make(map[engine.UserID]engine.UserProfile),
	}
}

// Compile-time interface checks
var (
	_ engine.GigStore     = (*Memory)(nil)
	_ engine.ExpenseStore = (*Memory)(nil)
	_ engine.ProfileStore = (*Memory)(nil)
)

// Reset drops everything. Dev/scenario use only.
func (m *Memory) Reset(_ context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.nextGig = 1
	m.gigs = make(map[engine.GigID]engine.GigRecord)
	m.expenses = make(map[engine.ExpenseID]engine.ExpenseRecord)
	m.profiles = make(map[engine.UserID]engine.UserProfile)
	return nil
}

// =============================================================================
// GIG STORE
// =============================================================================

func (m *Memory) ListGigs(_ context.Context, userID engine.UserID) ([]engine.GigRecord, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var out []engine.GigRecord
	for _, g := range m.gigs {
		if g.UserID == userID {
			out = append(out, g)
		}
	}
	// Deterministic snapshots: date then id.
	sort.Slice(out, func(i, j int) bool {
		if out[i].Date != out[j].Date {
			return out[i].Date < out[j].Date
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

func (m *Memory) GetGig(_ context.Context, id engine.GigID) (engine.GigRecord, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	g, ok := m.gigs[id]
	if !ok {
		return engine.GigRecord{}, engine.ErrGigNotFound
	}
	return g, nil
}

func (m *Memory) CreateGig(_ context.Context, gig engine.GigRecord) (engine.GigRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if gig.ID == 0 {
		gig.ID = m.nextGig
		m.nextGig++
	} else if gig.ID >= m.nextGig {
		m.nextGig = gig.ID + 1
	}
	if gig.Status == "" {
		gig.Status = engine.StatusUpcoming
	}
	m.gigs[gig.ID] = gig
	return gig, nil
}

func (m *Memory) DeleteGig(_ context.Context, id engine.GigID) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.gigs[id]; !ok {
		return engine.ErrGigNotFound
	}
	delete(m.gigs, id)
	return nil
}

func (m *Memory) PatchGig(_ context.Context, id engine.GigID, patch engine.GigPatch) (engine.GigRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	g, ok := m.gigs[id]
	if !ok {
		return engine.GigRecord{}, engine.ErrGigNotFound
	}
	if patch.IsEmpty() {
		return engine.GigRecord{}, engine.ErrNoPatchFields
	}

	if patch.TotalReceived != nil {
		g.TotalReceived = patch.TotalReceived
	}
	if patch.ReimbursedParking != nil {
		g.ReimbursedParking = patch.ReimbursedParking
	}
	if patch.ReimbursedOther != nil {
		g.ReimbursedOther = patch.ReimbursedOther
	}
	if patch.UnreimbursedParking != nil {
		g.UnreimbursedParking = patch.UnreimbursedParking
	}
	if patch.UnreimbursedOther != nil {
		g.UnreimbursedOther = patch.UnreimbursedOther
	}
	if patch.Tips != nil {
		g.Tips = patch.Tips
	}
	if patch.Mileage != nil {
		g.Mileage = *patch.Mileage
	}
	if patch.TaxPercentage != nil {
		g.TaxPercentage = patch.TaxPercentage
	}
	if patch.PaymentMethod != nil {
		g.PaymentMethod = *patch.PaymentMethod
	}
	if patch.GigAddress != nil {
		g.GigAddress = *patch.GigAddress
	}
	if patch.StartingAddress != nil {
		g.StartingAddress = *patch.StartingAddress
	}
	if patch.Status != nil {
		g.Status = *patch.Status
	}

	m.gigs[id] = g
	return g, nil
}

// =============================================================================
// EXPENSE STORE
// =============================================================================

func (m *Memory) ListExpenses(_ context.Context, userID engine.UserID) ([]engine.ExpenseRecord, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var out []engine.ExpenseRecord
	for _, e := range m.expenses {
		if e.UserID == userID {
			out = append(out, e)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Date != out[j].Date {
			return out[i].Date < out[j].Date
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

func (m *Memory) CreateExpense(_ context.Context, exp engine.ExpenseRecord) (engine.ExpenseRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	// Mint an ID rather than keying on "": two empty-ID creates must not
	// overwrite each other (the sqlite store's primary key rejects them).
	if exp.ID == "" {
		exp.ID = engine.ExpenseID(uuid.NewString())
	}
	if exp.ReimbursedAmount == nil {
		exp.ReimbursedAmount = engine.StringPtr("0")
	}
	m.expenses[exp.ID] = exp
	return exp, nil
}

func (m *Memory) DeleteExpense(_ context.Context, id engine.ExpenseID) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.expenses[id]; !ok {
		return engine.ErrExpenseNotFound
	}
	delete(m.expenses, id)
	return nil
}

// =============================================================================
// PROFILE STORE
// =============================================================================

func (m *Memory) GetProfile(_ context.Context, id engine.UserID) (engine.UserProfile, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	p, ok := m.profiles[id]
	if !ok {
		return engine.UserProfile{}, engine.ErrUserNotFound
	}
	return p, nil
}

func (m *Memory) PutProfile(_ context.Context, profile engine.UserProfile) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.profiles[profile.ID] = profile
	return nil
}
