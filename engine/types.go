/*
Package engine is the financial aggregation core of the bookkeeping system.

PURPOSE:
  This package contains the pure computation layer shared by the calendar,
  gig log, and dashboard surfaces: consolidating day-by-day gig records into
  logical bookings, resolving reporting periods, and computing tax-aware
  financial statistics. Everything here is a function over in-memory
  snapshots; nothing is persisted and nothing is cached.

KEY CONCEPTS IN THIS FILE (types.go):
  - Date: A day-granularity point in time (stored as ISO date-only strings)
  - GigRecord: One calendar day of booked work
  - ExpenseRecord: A standalone business expense
  - ConsolidatedGig: The derived view of a multi-day booking

DESIGN PRINCIPLES:
  1. Precision: Uses decimal.Decimal for all money; no floats in financial paths
  2. Safe parsing: Stored decimal-as-string fields default to zero when
     missing or malformed, never error out of an aggregation
  3. Immutability: Consolidation derives views; it never rewrites records
  4. Recompute, don't cache: Derived values are rebuilt from source strings
     on every call so rounding drift cannot accumulate

SEE ALSO:
  - payment.go: Legacy vs captured payment resolution
  - consolidate.go: Multi-day chain grouping
  - period.go: Reporting period resolution
  - aggregate.go: Period statistics
*/
package engine

import (
	"time"

	"github.com/shopspring/decimal"
)

// =============================================================================
// DATE - Day-granularity time point
// =============================================================================

// DateLayout is the ISO date-only form every record stores. Dates are kept as
// strings in records to avoid timezone drift; parse at point of use.
const DateLayout = "2006-01-02"

type Date struct {
	t time.Time
}

func NewDate(year int, month time.Month, day int) Date {
	return Date{t: time.Date(year, month, day, 0, 0, 0, 0, time.UTC)}
}

// ParseDate parses an ISO date-only string.
func ParseDate(s string) (Date, error) {
	t, err := time.Parse(DateLayout, s)
	if err != nil {
		return Date{}, err
	}
	return Date{t: t.UTC()}, nil
}

func Today() Date {
	now := time.Now().UTC()
	return NewDate(now.Year(), now.Month(), now.Day())
}

// Comparison
func (d Date) Before(other Date) bool        { return d.t.Before(other.t) }
func (d Date) After(other Date) bool         { return d.t.After(other.t) }
func (d Date) Equal(other Date) bool         { return d.t.Equal(other.t) }
func (d Date) BeforeOrEqual(other Date) bool { return !d.After(other) }
func (d Date) AfterOrEqual(other Date) bool  { return !d.Before(other) }

// Arithmetic
func (d Date) AddDays(n int) Date   { return Date{t: d.t.AddDate(0, 0, n)} }
func (d Date) AddMonths(n int) Date { return Date{t: d.t.AddDate(0, n, 0)} }
func (d Date) AddYears(n int) Date  { return Date{t: d.t.AddDate(n, 0, 0)} }

// Properties
func (d Date) Year() int         { return d.t.Year() }
func (d Date) Month() time.Month { return d.t.Month() }
func (d Date) Day() int          { return d.t.Day() }
func (d Date) IsZero() bool      { return d.t.IsZero() }
func (d Date) String() string    { return d.t.Format(DateLayout) }

// DaysBetween returns whole days from one date to another (negative if to
// precedes from).
func DaysBetween(from, to Date) int { return int(to.t.Sub(from.t).Hours() / 24) }

func StartOfMonth(year int, month time.Month) Date { return NewDate(year, month, 1) }
func EndOfMonth(year int, month time.Month) Date {
	return Date{t: time.Date(year, month+1, 1, 0, 0, 0, 0, time.UTC).AddDate(0, 0, -1)}
}

// =============================================================================
// MONEY - Decimal-as-string parsing helpers
// =============================================================================

// ParseMoney reads a stored decimal-as-string field. Missing or malformed
// values become zero; aggregation never fails on bad numerics.
func ParseMoney(s *string) decimal.Decimal {
	if s == nil {
		return decimal.Zero
	}
	d, err := decimal.NewFromString(*s)
	if err != nil {
		return decimal.Zero
	}
	return d
}

// Round2 rounds to 2 decimal places, half away from zero.
func Round2(d decimal.Decimal) decimal.Decimal { return d.Round(2) }

// MoneyString normalizes a decimal to a 2-place string form for storage.
func MoneyString(d decimal.Decimal) string { return d.Round(2).StringFixed(2) }

// StringPtr is a convenience for populating nullable record fields.
func StringPtr(s string) *string { return &s }

// =============================================================================
// IDENTIFIERS
// =============================================================================

type GigID int64
type ExpenseID string
type UserID string

// =============================================================================
// GIG RECORD - One calendar day of booked work
// =============================================================================

type GigStatus string

const (
	StatusUpcoming       GigStatus = "upcoming"
	StatusPendingPayment GigStatus = "pending_payment"
	StatusCompleted      GigStatus = "completed"
)

// GigRecord is one stored day of work. Records are immutable from the
// engine's perspective; the payment capture workflow updates them through
// the persistence collaborator's patch operation only.
//
// Two generations of financial fields coexist:
//   - legacy: ExpectedPay / ActualPay / ParkingExpense / OtherExpenses
//   - captured: TotalReceived and the reimbursed/unreimbursed splits,
//     written by the payment capture workflow and superseding legacy
//     fields when present
//
// See payment.go for how a record's fields resolve to one calculation mode.
type GigRecord struct {
	ID       GigID
	UserID   UserID
	Date     string // ISO date-only; see DateLayout
	Status   GigStatus

	// Grouping key for multi-day consolidation
	EventName  string
	ClientName string
	GigType    string

	// Legacy financial fields (decimal-as-string, nullable)
	ExpectedPay    *string
	ActualPay      *string
	Tips           *string
	ParkingExpense *string
	OtherExpenses  *string

	// Payment-capture fields (decimal-as-string, nullable)
	TotalReceived       *string
	ReimbursedParking   *string
	ReimbursedOther     *string
	UnreimbursedParking *string
	UnreimbursedOther   *string

	// Miles attributable to this day, already round-trip adjusted.
	Mileage int

	// Per-record override of the user's default tax rate. Nil means "use the
	// default"; an explicit "0" is a valid override and must be honored.
	TaxPercentage *string

	// Wizard-captured metadata, not used in calculations.
	PaymentMethod   string
	GigAddress      string
	StartingAddress string
}

// Day parses the record's stored date. ok is false when the date is
// malformed; such records are excluded from consolidation.
func (g *GigRecord) Day() (Date, bool) {
	d, err := ParseDate(g.Date)
	return d, err == nil
}

// groupKey is the identity of a multi-day booking.
type groupKey struct {
	EventName  string
	ClientName string
	GigType    string
}

func (g *GigRecord) key() groupKey {
	return groupKey{EventName: g.EventName, ClientName: g.ClientName, GigType: g.GigType}
}

// =============================================================================
// CONSOLIDATED GIG - Derived view of one logical booking
// =============================================================================

// ConsolidatedGig is either a single record or a chain of records sharing a
// grouping key across consecutive days. It is recomputed on every read and
// never stored.
//
// Financial fields of a multi-day booking come from the FIRST record of the
// chain only. The payment capture workflow enters totals once per booking,
// not once per day, so summing across the chain would double count.
type ConsolidatedGig struct {
	Records    []GigRecord // date ascending; len >= 1
	StartDate  Date
	EndDate    Date
	IsMultiDay bool
}

// Primary returns the record whose financial fields represent the booking.
func (c *ConsolidatedGig) Primary() *GigRecord { return &c.Records[0] }

func (c *ConsolidatedGig) DayCount() int      { return len(c.Records) }
func (c *ConsolidatedGig) Status() GigStatus  { return c.Primary().Status }
func (c *ConsolidatedGig) ID() GigID          { return c.Primary().ID }

// =============================================================================
// EXPENSE RECORD - Standalone business expense
// =============================================================================

// ExpenseRecord is a business expense not tied to a specific gig day.
// Expenses with a GigID reference a gig for display purposes only; their
// amounts are never read off the gig's embedded fields, so the two sources
// cannot double count.
type ExpenseRecord struct {
	ID               ExpenseID
	UserID           UserID
	Date             string // ISO date-only
	Amount           *string
	ReimbursedAmount *string // defaults to "0"
	Category         string
	Merchant         string
	BusinessPurpose  string
	GigID            *GigID
}

func (e *ExpenseRecord) Day() (Date, bool) {
	d, err := ParseDate(e.Date)
	return d, err == nil
}

// =============================================================================
// USER PROFILE - Aggregation and wizard defaults
// =============================================================================

// UserProfile carries the per-user defaults the engine and wizard consume.
type UserProfile struct {
	ID             UserID
	Name           string
	DefaultTaxRate string // percentage, decimal-as-string
	HomeAddress    string // seeds the wizard's mileage start address
}
