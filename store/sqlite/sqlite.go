/*
Package sqlite provides the SQLite-backed implementation of the engine's
persistence interfaces.

PURPOSE:
  Implements engine.GigStore, engine.ExpenseStore, and engine.ProfileStore
  on a single SQLite file. In production the same patterns apply to
  PostgreSQL - only minor SQL dialect differences.

KEY TABLES:
  users:     Profile defaults (tax rate, home address)
  gigs:      One row per calendar day of booked work; legacy and captured
             payment columns side by side, all money TEXT (decimal strings)
  expenses:  Standalone business expenses

PATCH SEMANTICS:
  PatchGig builds an UPDATE touching only the columns present in the patch,
  in one statement, so a finalize from the payment wizard is atomic: either
  every captured field lands or none does.

MONEY COLUMNS:
  Stored as TEXT decimal strings, nullable. NULL means "never entered",
  which is distinct from "0" - the tax_percentage column relies on this to
  distinguish "use the default rate" from an explicit zero override.

WAL MODE:
  The database is opened with WAL and foreign keys on, matching how the
  app runs in production: many readers, one writer.

USAGE:
  store, err := sqlite.New("./data/gigbooks.db")
  if err != nil { log.Fatal(err) }
  defer store.Close()

SEE ALSO:
  - engine/store.go: Interface definitions
  - engine/store/memory.go: In-memory implementation for testing
*/
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	_ "github.com/mattn/go-sqlite3"

	"github.com/gigbooks/bookkeeping/engine"
)

// Store implements the persistence interfaces using SQLite.
type Store struct {
	db *sql.DB
}

// Compile-time interface checks
var (
	_ engine.GigStore     = (*Store)(nil)
	_ engine.ExpenseStore = (*Store)(nil)
	_ engine.ProfileStore = (*Store)(nil)
)

// New creates a new SQLite store with the given database path.
// Use ":memory:" for an in-memory database.
func New(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_foreign_keys=on&_journal_mode=WAL")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	store := &Store{db: db}
	if err := store.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}
	return store, nil
}

// Close closes the database connection.
func (s *Store) Close() error { return s.db.Close() }

func (s *Store) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS users (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL DEFAULT '',
		default_tax_rate TEXT NOT NULL DEFAULT '0',
		home_address TEXT NOT NULL DEFAULT ''
	);

	CREATE TABLE IF NOT EXISTS gigs (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		user_id TEXT NOT NULL REFERENCES users(id),
		date TEXT NOT NULL,
		status TEXT NOT NULL DEFAULT 'upcoming',
		event_name TEXT NOT NULL DEFAULT '',
		client_name TEXT NOT NULL DEFAULT '',
		gig_type TEXT NOT NULL DEFAULT '',

		expected_pay TEXT,
		actual_pay TEXT,
		tips TEXT,
		parking_expense TEXT,
		other_expenses TEXT,

		total_received TEXT,
		reimbursed_parking TEXT,
		reimbursed_other TEXT,
		unreimbursed_parking TEXT,
		unreimbursed_other TEXT,

		mileage INTEGER NOT NULL DEFAULT 0,
		tax_percentage TEXT,
		payment_method TEXT NOT NULL DEFAULT '',
		gig_address TEXT NOT NULL DEFAULT '',
		starting_address TEXT NOT NULL DEFAULT ''
	);

	CREATE INDEX IF NOT EXISTS idx_gigs_user_date ON gigs(user_id, date);

	CREATE TABLE IF NOT EXISTS expenses (
		id TEXT PRIMARY KEY,
		user_id TEXT NOT NULL REFERENCES users(id),
		date TEXT NOT NULL,
		amount TEXT,
		reimbursed_amount TEXT NOT NULL DEFAULT '0',
		category TEXT NOT NULL DEFAULT '',
		merchant TEXT NOT NULL DEFAULT '',
		business_purpose TEXT NOT NULL DEFAULT '',
		gig_id INTEGER REFERENCES gigs(id)
	);

	CREATE INDEX IF NOT EXISTS idx_expenses_user_date ON expenses(user_id, date);
	`
	_, err := s.db.Exec(schema)
	return err
}

// Reset drops all rows. Dev/scenario use only.
func (s *Store) Reset(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM expenses; DELETE FROM gigs; DELETE FROM users;`)
	return err
}

// =============================================================================
// GIG STORE
// =============================================================================

const gigColumns = `id, user_id, date, status, event_name, client_name, gig_type,
	expected_pay, actual_pay, tips, parking_expense, other_expenses,
	total_received, reimbursed_parking, reimbursed_other, unreimbursed_parking, unreimbursed_other,
	mileage, tax_percentage, payment_method, gig_address, starting_address`

func scanGig(row interface{ Scan(...any) error }) (engine.GigRecord, error) {
	var g engine.GigRecord
	err := row.Scan(
		&g.ID, &g.UserID, &g.Date, &g.Status, &g.EventName, &g.ClientName, &g.GigType,
		&g.ExpectedPay, &g.ActualPay, &g.Tips, &g.ParkingExpense, &g.OtherExpenses,
		&g.TotalReceived, &g.ReimbursedParking, &g.ReimbursedOther, &g.UnreimbursedParking, &g.UnreimbursedOther,
		&g.Mileage, &g.TaxPercentage, &g.PaymentMethod, &g.GigAddress, &g.StartingAddress,
	)
	return g, err
}

func (s *Store) ListGigs(ctx context.Context, userID engine.UserID) ([]engine.GigRecord, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+gigColumns+` FROM gigs WHERE user_id = ? ORDER BY date, id`, userID)
	if err != nil {
		return nil, fmt.Errorf("list gigs: %w", err)
	}
	defer rows.Close()

	var out []engine.GigRecord
	for rows.Next() {
		g, err := scanGig(rows)
		if err != nil {
			return nil, fmt.Errorf("scan gig: %w", err)
		}
		out = append(out, g)
	}
	return out, rows.Err()
}

func (s *Store) GetGig(ctx context.Context, id engine.GigID) (engine.GigRecord, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+gigColumns+` FROM gigs WHERE id = ?`, id)
	g, err := scanGig(row)
	if err == sql.ErrNoRows {
		return engine.GigRecord{}, engine.ErrGigNotFound
	}
	if err != nil {
		return engine.GigRecord{}, fmt.Errorf("get gig: %w", err)
	}
	return g, nil
}

func (s *Store) CreateGig(ctx context.Context, gig engine.GigRecord) (engine.GigRecord, error) {
	if gig.Status == "" {
		gig.Status = engine.StatusUpcoming
	}
	res, err := s.db.ExecContext(ctx, `
		INSERT INTO gigs (user_id, date, status, event_name, client_name, gig_type,
			expected_pay, actual_pay, tips, parking_expense, other_expenses,
			total_received, reimbursed_parking, reimbursed_other, unreimbursed_parking, unreimbursed_other,
			mileage, tax_percentage, payment_method, gig_address, starting_address)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		gig.UserID, gig.Date, gig.Status, gig.EventName, gig.ClientName, gig.GigType,
		gig.ExpectedPay, gig.ActualPay, gig.Tips, gig.ParkingExpense, gig.OtherExpenses,
		gig.TotalReceived, gig.ReimbursedParking, gig.ReimbursedOther, gig.UnreimbursedParking, gig.UnreimbursedOther,
		gig.Mileage, gig.TaxPercentage, gig.PaymentMethod, gig.GigAddress, gig.StartingAddress,
	)
	if err != nil {
		return engine.GigRecord{}, fmt.Errorf("create gig: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return engine.GigRecord{}, fmt.Errorf("create gig id: %w", err)
	}
	gig.ID = engine.GigID(id)
	return gig, nil
}

func (s *Store) DeleteGig(ctx context.Context, id engine.GigID) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM gigs WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete gig: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return engine.ErrGigNotFound
	}
	return nil
}

// PatchGig applies a partial update in a single UPDATE statement.
func (s *Store) PatchGig(ctx context.Context, id engine.GigID, patch engine.GigPatch) (engine.GigRecord, error) {
	if patch.IsEmpty() {
		return engine.GigRecord{}, engine.ErrNoPatchFields
	}

	var (
		sets []string
		args []any
	)
	set := func(col string, v any) {
		sets = append(sets, col+" = ?")
		args = append(args, v)
	}

	if patch.TotalReceived != nil {
		set("total_received", *patch.TotalReceived)
	}
	if patch.ReimbursedParking != nil {
		set("reimbursed_parking", *patch.ReimbursedParking)
	}
	if patch.ReimbursedOther != nil {
		set("reimbursed_other", *patch.ReimbursedOther)
	}
	if patch.UnreimbursedParking != nil {
		set("unreimbursed_parking", *patch.UnreimbursedParking)
	}
	if patch.UnreimbursedOther != nil {
		set("unreimbursed_other", *patch.UnreimbursedOther)
	}
	if patch.Tips != nil {
		set("tips", *patch.Tips)
	}
	if patch.Mileage != nil {
		set("mileage", *patch.Mileage)
	}
	if patch.TaxPercentage != nil {
		set("tax_percentage", *patch.TaxPercentage)
	}
	if patch.PaymentMethod != nil {
		set("payment_method", *patch.PaymentMethod)
	}
	if patch.GigAddress != nil {
		set("gig_address", *patch.GigAddress)
	}
	if patch.StartingAddress != nil {
		set("starting_address", *patch.StartingAddress)
	}
	if patch.Status != nil {
		set("status", string(*patch.Status))
	}

	args = append(args, id)
	res, err := s.db.ExecContext(ctx,
		`UPDATE gigs SET `+strings.Join(sets, ", ")+` WHERE id = ?`, args...)
	if err != nil {
		return engine.GigRecord{}, fmt.Errorf("patch gig: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return engine.GigRecord{}, engine.ErrGigNotFound
	}
	return s.GetGig(ctx, id)
}

// =============================================================================
// EXPENSE STORE
// =============================================================================

func (s *Store) ListExpenses(ctx context.Context, userID engine.UserID) ([]engine.ExpenseRecord, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, user_id, date, amount, reimbursed_amount, category, merchant, business_purpose, gig_id
		FROM expenses WHERE user_id = ? ORDER BY date, id`, userID)
	if err != nil {
		return nil, fmt.Errorf("list expenses: %w", err)
	}
	defer rows.Close()

	var out []engine.ExpenseRecord
	for rows.Next() {
		var e engine.ExpenseRecord
		var gigID sql.NullInt64
		if err := rows.Scan(&e.ID, &e.UserID, &e.Date, &e.Amount, &e.ReimbursedAmount,
			&e.Category, &e.Merchant, &e.BusinessPurpose, &gigID); err != nil {
			return nil, fmt.Errorf("scan expense: %w", err)
		}
		if gigID.Valid {
			id := engine.GigID(gigID.Int64)
			e.GigID = &id
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

func (s *Store) CreateExpense(ctx context.Context, exp engine.ExpenseRecord) (engine.ExpenseRecord, error) {
	if exp.ReimbursedAmount == nil {
		exp.ReimbursedAmount = engine.StringPtr("0")
	}
	var gigID any
	if exp.GigID != nil {
		gigID = int64(*exp.GigID)
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO expenses (id, user_id, date, amount, reimbursed_amount, category, merchant, business_purpose, gig_id)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		exp.ID, exp.UserID, exp.Date, exp.Amount, exp.ReimbursedAmount,
		exp.Category, exp.Merchant, exp.BusinessPurpose, gigID,
	)
	if err != nil {
		return engine.ExpenseRecord{}, fmt.Errorf("create expense: %w", err)
	}
	return exp, nil
}

func (s *Store) DeleteExpense(ctx context.Context, id engine.ExpenseID) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM expenses WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete expense: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return engine.ErrExpenseNotFound
	}
	return nil
}

// =============================================================================
// PROFILE STORE
// =============================================================================

func (s *Store) GetProfile(ctx context.Context, id engine.UserID) (engine.UserProfile, error) {
	var p engine.UserProfile
	err := s.db.QueryRowContext(ctx,
		`SELECT id, name, default_tax_rate, home_address FROM users WHERE id = ?`, id).
		Scan(&p.ID, &p.Name, &p.DefaultTaxRate, &p.HomeAddress)
	if err == sql.ErrNoRows {
		return engine.UserProfile{}, engine.ErrUserNotFound
	}
	if err != nil {
		return engine.UserProfile{}, fmt.Errorf("get profile: %w", err)
	}
	return p, nil
}

func (s *Store) PutProfile(ctx context.Context, profile engine.UserProfile) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO users (id, name, default_tax_rate, home_address) VALUES (?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET name = excluded.name,
			default_tax_rate = excluded.default_tax_rate,
			home_address = excluded.home_address`,
		profile.ID, profile.Name, profile.DefaultTaxRate, profile.HomeAddress,
	)
	if err != nil {
		return fmt.Errorf("put profile: %w", err)
	}
	return nil
}
