/*
store.go - Persistence collaborator interfaces

PURPOSE:
  The engine computes over snapshots fetched through these interfaces and
  writes back through exactly one operation: PatchGig. It never holds a
  persistent connection and never sees storage internals.

READ-MOSTLY CONTRACT:
  List operations return point-in-time snapshots. Consolidation and
  aggregation are safe to re-run against any snapshot; conflict resolution
  between concurrent edits is the storage layer's problem, not the
  engine's.

PATCH SEMANTICS:
  PatchGig updates only the fields present (non-nil) in the GigPatch. The
  payment capture workflow uses this to finalize a gig atomically: either
  the whole patch lands or none of it does.

IMPLEMENTATIONS:
  - store/sqlite: Production SQLite store
  - engine/store: In-memory store for tests and dev mode
*/
package engine

import "context"

// =============================================================================
// STORE INTERFACES
// =============================================================================

// GigStore is the persistence collaborator for gig records.
type GigStore interface {
	ListGigs(ctx context.Context, userID UserID) ([]GigRecord, error)
	GetGig(ctx context.Context, id GigID) (GigRecord, error)
	CreateGig(ctx context.Context, gig GigRecord) (GigRecord, error)
	DeleteGig(ctx context.Context, id GigID) error

	// PatchGig applies a partial update and returns the updated record.
	// Fields left nil in the patch are untouched.
	PatchGig(ctx context.Context, id GigID, patch GigPatch) (GigRecord, error)
}

// ExpenseStore is the persistence collaborator for standalone expenses.
type ExpenseStore interface {
	ListExpenses(ctx context.Context, userID UserID) ([]ExpenseRecord, error)
	CreateExpense(ctx context.Context, exp ExpenseRecord) (ExpenseRecord, error)
	DeleteExpense(ctx context.Context, id ExpenseID) error
}

// ProfileStore provides the per-user defaults the wizard and aggregator
// consume.
type ProfileStore interface {
	GetProfile(ctx context.Context, id UserID) (UserProfile, error)
	PutProfile(ctx context.Context, profile UserProfile) error
}

// =============================================================================
// GIG PATCH
// =============================================================================

// GigPatch is a partial update to a gig record. Nil fields are untouched.
// The payment capture workflow's finalize step issues one of these.
type GigPatch struct {
	TotalReceived       *string
	ReimbursedParking   *string
	ReimbursedOther     *string
	UnreimbursedParking *string
	UnreimbursedOther   *string
	Tips                *string
	Mileage             *int
	TaxPercentage       *string
	PaymentMethod       *string
	GigAddress          *string
	StartingAddress     *string
	Status              *GigStatus
}

// IsEmpty reports whether the patch carries no fields at all.
func (p GigPatch) IsEmpty() bool {
	return p.TotalReceived == nil && p.ReimbursedParking == nil && p.ReimbursedOther == nil &&
		p.UnreimbursedParking == nil && p.UnreimbursedOther == nil && p.Tips == nil &&
		p.Mileage == nil && p.TaxPercentage == nil && p.PaymentMethod == nil &&
		p.GigAddress == nil && p.StartingAddress == nil && p.Status == nil
}
