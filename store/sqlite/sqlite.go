/*
Package sqlite provides a SQLite-backed implementation of the storage interfaces.

PURPOSE:
  Implements ledger.Store and ledger.TxStore using SQLite. In production,
  the same patterns apply to PostgreSQL - only minor SQL dialect
  differences.

KEY TABLES:
  tenants:  Accounts with rate, join date, opening balance
  charges:  Immutable monthly debits, at most one per (tenant, period)
  payments: Append-only credits with receipt metadata

THE UNIQUE INDEX:
  idx_one_charge_per_period on charges(tenant_id, period) is the
  uniqueness invariant the whole backfill engine leans on. Concurrent
  inserts for the same month race on this index inside SQLite; exactly
  one wins and the losers surface as the AlreadyExists outcome, never as
  an error. There is no read-then-write window anywhere in this file.

APPEND-ONLY ENFORCEMENT:
  No UPDATE or DELETE statements exist for charges or payments. The only
  destructive operation is DeleteTenant, which cascades through the
  foreign keys.

AMOUNTS:
  Money is stored as decimal strings and summed in Go with
  shopspring/decimal. REAL columns would reintroduce the float drift
  this engine exists to avoid.

CONCURRENCY:
  Uses sync.RWMutex for thread-safety. Writers serialize on the mutex,
  which also keeps ":memory:" databases safe under test parallelism.
  Reads inside WithTx go through the *sql.Tx itself and never touch the
  store locks again.

WAL MODE:
  SQLite is opened with WAL (Write-Ahead Logging) for better concurrency:
  - Multiple readers don't block
  - Single writer at a time
  - Better crash recovery

USAGE:
  store, err := sqlite.New("./data/rentledger.db")
  if err != nil {
      log.Fatal(err)
  }
  defer store.Close()

  engine := ledger.NewEngine(store, ledger.SystemClock)

MIGRATION:
  Schema is auto-migrated on New(). For production, use a proper
  migration tool (golang-migrate, goose) with versioned migrations.

SEE ALSO:
  - ledger/store.go: Interface definitions
  - ledger/store/memory.go: In-memory implementation for testing
*/
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"sync"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"github.com/warp/rent-ledger/ledger"
)

const dateFormat = "2006-01-02"

// Store implements ledger.Store and ledger.TxStore using SQLite.
type Store struct {
	db *sql.DB
	mu sync.RWMutex
}

// New creates a new SQLite store with the given database path.
// Use ":memory:" for an in-memory database.
func New(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_foreign_keys=on&_journal_mode=WAL")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// One connection: a second pooled connection to ":memory:" would open
	// its own empty database, and a single writer never sees SQLITE_BUSY.
	db.SetMaxOpenConns(1)

	store := &Store{db: db}
	if err := store.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	return store, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// migrate creates the database schema.
func (s *Store) migrate() error {
	schema := `
	-- Tenants (accounts)
	CREATE TABLE IF NOT EXISTS tenants (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		name TEXT NOT NULL,
		rent TEXT NOT NULL,
		rental_address TEXT,
		original_address TEXT,
		join_date TEXT NOT NULL,
		opening_balance TEXT NOT NULL DEFAULT '0',
		created_at TEXT NOT NULL
	);

	-- Charges (immutable monthly debits)
	-- period holds the first day of the month as YYYY-MM-DD so that
	-- MAX() and range filters work on plain string ordering
	CREATE TABLE IF NOT EXISTS charges (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		tenant_id INTEGER NOT NULL REFERENCES tenants(id) ON DELETE CASCADE,
		period TEXT NOT NULL,
		amount TEXT NOT NULL,
		label TEXT NOT NULL,
		created_at TEXT NOT NULL
	);

	-- CRITICAL: at most one charge per (tenant, period). Concurrent
	-- backfills race on this index; exactly one insert wins
	CREATE UNIQUE INDEX IF NOT EXISTS idx_one_charge_per_period
		ON charges(tenant_id, period);

	CREATE INDEX IF NOT EXISTS idx_charges_tenant
		ON charges(tenant_id);

	-- Payments (append-only credits)
	CREATE TABLE IF NOT EXISTS payments (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		tenant_id INTEGER NOT NULL REFERENCES tenants(id) ON DELETE CASCADE,
		paid_on TEXT NOT NULL,
		amount TEXT NOT NULL,
		method TEXT,
		operator TEXT,
		remarks TEXT,
		receipt_no TEXT,
		created_at TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_payments_tenant_date
		ON payments(tenant_id, paid_on);

	-- For cross-tenant collections queries
	CREATE INDEX IF NOT EXISTS idx_payments_date
		ON payments(paid_on);
	`

	_, err := s.db.Exec(schema)
	return err
}

// dbtx is satisfied by both *sql.DB and *sql.Tx so every statement
// helper can run inside or outside a transaction.
type dbtx interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// rowScanner is satisfied by *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

// =============================================================================
// TENANTS
// =============================================================================

// CreateTenant inserts a tenant row.
func (s *Store) CreateTenant(ctx context.Context, t ledger.NewTenant) (ledger.TenantID, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.createTenantOn(ctx, s.db, t)
}

func (s *Store) createTenantOn(ctx context.Context, q dbtx, t ledger.NewTenant) (ledger.TenantID, error) {
	if err := validateNewTenant(t); err != nil {
		return 0, err
	}

	query := `
		INSERT INTO tenants
		(name, rent, rental_address, original_address, join_date, opening_balance, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`

	res, err := q.ExecContext(ctx, query,
		t.Name,
		t.Rent.Value.String(),
		nullString(t.RentalAddress),
		nullString(t.OriginalAddress),
		t.JoinDate.Format(dateFormat),
		t.OpeningBalance.Value.String(),
		time.Now().UTC().Format(time.RFC3339),
	)
	if err != nil {
		return 0, &ledger.StorageError{Op: "create tenant", Err: err}
	}

	id, err := res.LastInsertId()
	if err != nil {
		return 0, &ledger.StorageError{Op: "create tenant", Err: err}
	}
	return ledger.TenantID(id), nil
}

// Tenant returns one tenant or a NotFoundError.
func (s *Store) Tenant(ctx context.Context, id ledger.TenantID) (*ledger.Tenant, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.tenantOn(ctx, s.db, id)
}

func (s *Store) tenantOn(ctx context.Context, q dbtx, id ledger.TenantID) (*ledger.Tenant, error) {
	row := q.QueryRowContext(ctx, `
		SELECT id, name, rent, rental_address, original_address, join_date, opening_balance, created_at
		FROM tenants WHERE id = ?
	`, int64(id))

	t, err := scanTenant(row)
	if err == sql.ErrNoRows {
		return nil, &ledger.NotFoundError{Entity: "tenant", ID: int64(id)}
	}
	if err != nil {
		return nil, &ledger.StorageError{Op: "load tenant", Err: err}
	}
	return t, nil
}

// ListTenants returns all tenants in creation order.
func (s *Store) ListTenants(ctx context.Context) ([]ledger.Tenant, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.listTenantsOn(ctx, s.db)
}

func (s *Store) listTenantsOn(ctx context.Context, q dbtx) ([]ledger.Tenant, error) {
	rows, err := q.QueryContext(ctx, `
		SELECT id, name, rent, rental_address, original_address, join_date, opening_balance, created_at
		FROM tenants ORDER BY id ASC
	`)
	if err != nil {
		return nil, &ledger.StorageError{Op: "list tenants", Err: err}
	}
	defer rows.Close()

	var tenants []ledger.Tenant
	for rows.Next() {
		t, err := scanTenant(rows)
		if err != nil {
			return nil, &ledger.StorageError{Op: "list tenants", Err: err}
		}
		tenants = append(tenants, *t)
	}
	return tenants, rows.Err()
}

// UpdateTenant applies a partial update. Existing charge rows are never
// touched; a rent edit influences only charges generated afterwards.
func (s *Store) UpdateTenant(ctx context.Context, id ledger.TenantID, upd ledger.TenantUpdate) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.updateTenantOn(ctx, s.db, id, upd)
}

func (s *Store) updateTenantOn(ctx context.Context, q dbtx, id ledger.TenantID, upd ledger.TenantUpdate) error {
	var (
		sets []string
		args []any
	)
	if upd.Name != nil {
		if *upd.Name == "" {
			return &ledger.ValidationError{Field: "name", Reason: "must not be empty"}
		}
		sets = append(sets, "name = ?")
		args = append(args, *upd.Name)
	}
	if upd.Rent != nil {
		if upd.Rent.IsNegative() {
			return &ledger.ValidationError{Field: "rent", Reason: "must be non-negative"}
		}
		sets = append(sets, "rent = ?")
		args = append(args, upd.Rent.Value.String())
	}
	if upd.RentalAddress != nil {
		sets = append(sets, "rental_address = ?")
		args = append(args, nullString(*upd.RentalAddress))
	}
	if upd.OriginalAddress != nil {
		sets = append(sets, "original_address = ?")
		args = append(args, nullString(*upd.OriginalAddress))
	}
	if len(sets) == 0 {
		// Nothing to change; still report a missing tenant.
		_, err := s.tenantOn(ctx, q, id)
		return err
	}

	args = append(args, int64(id))
	res, err := q.ExecContext(ctx, "UPDATE tenants SET "+strings.Join(sets, ", ")+" WHERE id = ?", args...)
	if err != nil {
		return &ledger.StorageError{Op: "update tenant", Err: err}
	}
	n, err := res.RowsAffected()
	if err != nil {
		return &ledger.StorageError{Op: "update tenant", Err: err}
	}
	if n == 0 {
		return &ledger.NotFoundError{Entity: "tenant", ID: int64(id)}
	}
	return nil
}

// DeleteTenant removes the tenant; charges and payments cascade.
func (s *Store) DeleteTenant(ctx context.Context, id ledger.TenantID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.deleteTenantOn(ctx, s.db, id)
}

func (s *Store) deleteTenantOn(ctx context.Context, q dbtx, id ledger.TenantID) error {
	res, err := q.ExecContext(ctx, "DELETE FROM tenants WHERE id = ?", int64(id))
	if err != nil {
		return &ledger.StorageError{Op: "delete tenant", Err: err}
	}
	n, err := res.RowsAffected()
	if err != nil {
		return &ledger.StorageError{Op: "delete tenant", Err: err}
	}
	if n == 0 {
		return &ledger.NotFoundError{Entity: "tenant", ID: int64(id)}
	}
	return nil
}

// CurrentRent returns the tenant's latest rate.
func (s *Store) CurrentRent(ctx context.Context, id ledger.TenantID) (ledger.Amount, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.currentRentOn(ctx, s.db, id)
}

func (s *Store) currentRentOn(ctx context.Context, q dbtx, id ledger.TenantID) (ledger.Amount, error) {
	var rent string
	err := q.QueryRowContext(ctx, "SELECT rent FROM tenants WHERE id = ?", int64(id)).Scan(&rent)
	if err == sql.ErrNoRows {
		return ledger.Amount{}, &ledger.NotFoundError{Entity: "tenant", ID: int64(id)}
	}
	if err != nil {
		return ledger.Amount{}, &ledger.StorageError{Op: "load rent", Err: err}
	}
	return ledger.MustParseAmount(rent), nil
}

// =============================================================================
// CHARGES
// =============================================================================

// LatestChargedPeriod returns the most recent charged period, or nil
// when no charge exists yet.
func (s *Store) LatestChargedPeriod(ctx context.Context, id ledger.TenantID) (*ledger.Period, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.latestChargedPeriodOn(ctx, s.db, id)
}

func (s *Store) latestChargedPeriodOn(ctx context.Context, q dbtx, id ledger.TenantID) (*ledger.Period, error) {
	var key sql.NullString
	err := q.QueryRowContext(ctx, "SELECT MAX(period) FROM charges WHERE tenant_id = ?", int64(id)).Scan(&key)
	if err != nil {
		return nil, &ledger.StorageError{Op: "latest charged period", Err: err}
	}
	if !key.Valid {
		return nil, nil
	}
	p, err := ledger.ParsePeriodKey(key.String)
	if err != nil {
		return nil, &ledger.StorageError{Op: "latest charged period", Err: err}
	}
	return &p, nil
}

// InsertChargeIfAbsent makes one attempt to insert the charge and lets
// the unique index arbitrate races. A lost race is AlreadyExists, not
// an error; there is no check-then-insert window here.
func (s *Store) InsertChargeIfAbsent(ctx context.Context, id ledger.TenantID, period ledger.Period, amount ledger.Amount, label string) (ledger.InsertOutcome, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.insertChargeOn(ctx, s.db, id, period, amount, label)
}

func (s *Store) insertChargeOn(ctx context.Context, q dbtx, id ledger.TenantID, period ledger.Period, amount ledger.Amount, label string) (ledger.InsertOutcome, error) {
	query := `
		INSERT INTO charges (tenant_id, period, amount, label, created_at)
		VALUES (?, ?, ?, ?, ?)
	`

	_, err := q.ExecContext(ctx, query,
		int64(id),
		period.Key(),
		amount.Value.String(),
		label,
		time.Now().UTC().Format(time.RFC3339),
	)
	if err != nil {
		// The period index is the only unique constraint on charges.
		if isUniqueConstraintError(err) {
			return ledger.AlreadyExists, nil
		}
		if isForeignKeyError(err) {
			return 0, &ledger.NotFoundError{Entity: "tenant", ID: int64(id)}
		}
		return 0, &ledger.StorageError{Op: "insert charge", Err: err}
	}
	return ledger.Inserted, nil
}

// =============================================================================
// PAYMENTS
// =============================================================================

// InsertPayment appends a payment row.
func (s *Store) InsertPayment(ctx context.Context, id ledger.TenantID, p ledger.NewPayment) (ledger.PaymentID, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.insertPaymentOn(ctx, s.db, id, p)
}

func (s *Store) insertPaymentOn(ctx context.Context, q dbtx, id ledger.TenantID, p ledger.NewPayment) (ledger.PaymentID, error) {
	if p.Amount.IsNegative() {
		return 0, &ledger.ValidationError{Field: "amount", Reason: "must be non-negative"}
	}

	query := `
		INSERT INTO payments (tenant_id, paid_on, amount, method, operator, remarks, receipt_no, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`

	res, err := q.ExecContext(ctx, query,
		int64(id),
		p.PaidOn.Format(dateFormat),
		p.Amount.Value.String(),
		nullString(p.Method),
		nullString(p.Operator),
		nullString(p.Remarks),
		nullString(p.ReceiptNo),
		time.Now().UTC().Format(time.RFC3339),
	)
	if err != nil {
		if isForeignKeyError(err) {
			return 0, &ledger.NotFoundError{Entity: "tenant", ID: int64(id)}
		}
		return 0, &ledger.StorageError{Op: "insert payment", Err: err}
	}

	pid, err := res.LastInsertId()
	if err != nil {
		return 0, &ledger.StorageError{Op: "insert payment", Err: err}
	}
	return ledger.PaymentID(pid), nil
}

// =============================================================================
// AGGREGATES AND LISTINGS
// =============================================================================

// SumCharges totals charge amounts, optionally for one period. Amounts
// are summed in Go to keep decimal precision.
func (s *Store) SumCharges(ctx context.Context, id ledger.TenantID, period *ledger.Period) (ledger.Amount, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.sumChargesOn(ctx, s.db, id, period)
}

func (s *Store) sumChargesOn(ctx context.Context, q dbtx, id ledger.TenantID, period *ledger.Period) (ledger.Amount, error) {
	query := "SELECT amount FROM charges WHERE tenant_id = ?"
	args := []any{int64(id)}
	if period != nil {
		query += " AND period = ?"
		args = append(args, period.Key())
	}
	return sumAmounts(ctx, q, "sum charges", query, args...)
}

// SumPayments totals payment amounts, optionally for payments dated in
// one period.
func (s *Store) SumPayments(ctx context.Context, id ledger.TenantID, period *ledger.Period) (ledger.Amount, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.sumPaymentsOn(ctx, s.db, id, period)
}

func (s *Store) sumPaymentsOn(ctx context.Context, q dbtx, id ledger.TenantID, period *ledger.Period) (ledger.Amount, error) {
	query := "SELECT amount FROM payments WHERE tenant_id = ?"
	args := []any{int64(id)}
	if period != nil {
		query += " AND paid_on >= ? AND paid_on < ?"
		args = append(args, period.Key(), period.Next().Key())
	}
	return sumAmounts(ctx, q, "sum payments", query, args...)
}

func sumAmounts(ctx context.Context, q dbtx, op, query string, args ...any) (ledger.Amount, error) {
	rows, err := q.QueryContext(ctx, query, args...)
	if err != nil {
		return ledger.Amount{}, &ledger.StorageError{Op: op, Err: err}
	}
	defer rows.Close()

	total := ledger.ZeroAmount()
	for rows.Next() {
		var value string
		if err := rows.Scan(&value); err != nil {
			return ledger.Amount{}, &ledger.StorageError{Op: op, Err: err}
		}
		total = total.Add(ledger.MustParseAmount(value))
	}
	return total, rows.Err()
}

// ListEvents returns the raw charge and payment rows for one tenant,
// each in insertion order, from a single consistent view.
func (s *Store) ListEvents(ctx context.Context, id ledger.TenantID) ([]ledger.Charge, []ledger.Payment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.listEventsOn(ctx, s.db, id)
}

func (s *Store) listEventsOn(ctx context.Context, q dbtx, id ledger.TenantID) ([]ledger.Charge, []ledger.Payment, error) {
	charges, err := s.queryCharges(ctx, q, `
		SELECT id, tenant_id, period, amount, label, created_at
		FROM charges WHERE tenant_id = ? ORDER BY id ASC
	`, int64(id))
	if err != nil {
		return nil, nil, err
	}

	payments, err := s.queryPayments(ctx, q, `
		SELECT id, tenant_id, paid_on, amount, method, operator, remarks, receipt_no, created_at
		FROM payments WHERE tenant_id = ? ORDER BY id ASC
	`, int64(id))
	if err != nil {
		return nil, nil, err
	}

	return charges, payments, nil
}

// ListPaymentsInPeriod returns payments across all tenants dated in the
// period, most recent first.
func (s *Store) ListPaymentsInPeriod(ctx context.Context, period ledger.Period) ([]ledger.Payment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.listPaymentsInPeriodOn(ctx, s.db, period)
}

func (s *Store) listPaymentsInPeriodOn(ctx context.Context, q dbtx, period ledger.Period) ([]ledger.Payment, error) {
	return s.queryPayments(ctx, q, `
		SELECT id, tenant_id, paid_on, amount, method, operator, remarks, receipt_no, created_at
		FROM payments WHERE paid_on >= ? AND paid_on < ?
		ORDER BY paid_on DESC, id DESC
	`, period.Key(), period.Next().Key())
}

func (s *Store) queryCharges(ctx context.Context, q dbtx, query string, args ...any) ([]ledger.Charge, error) {
	rows, err := q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, &ledger.StorageError{Op: "query charges", Err: err}
	}
	defer rows.Close()

	var charges []ledger.Charge
	for rows.Next() {
		ch, err := scanCharge(rows)
		if err != nil {
			return nil, &ledger.StorageError{Op: "query charges", Err: err}
		}
		charges = append(charges, ch)
	}
	return charges, rows.Err()
}

func (s *Store) queryPayments(ctx context.Context, q dbtx, query string, args ...any) ([]ledger.Payment, error) {
	rows, err := q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, &ledger.StorageError{Op: "query payments", Err: err}
	}
	defer rows.Close()

	var payments []ledger.Payment
	for rows.Next() {
		p, err := scanPayment(rows)
		if err != nil {
			return nil, &ledger.StorageError{Op: "query payments", Err: err}
		}
		payments = append(payments, p)
	}
	return payments, rows.Err()
}

// Reset drops all rows and restarts the ID sequences. Scenario loaders
// use it; nothing else should.
func (s *Store) Reset(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return &ledger.StorageError{Op: "reset", Err: err}
	}
	defer tx.Rollback()

	for _, stmt := range []string{
		"DELETE FROM payments",
		"DELETE FROM charges",
		"DELETE FROM tenants",
		"DELETE FROM sqlite_sequence WHERE name IN ('payments', 'charges', 'tenants')",
	} {
		if _, err := tx.ExecContext(ctx, stmt); err != nil {
			return &ledger.StorageError{Op: "reset", Err: err}
		}
	}
	return tx.Commit()
}

// =============================================================================
// TRANSACTIONAL STORE (ledger.TxStore interface)
// =============================================================================

// WithTx executes a function within a database transaction. The Store
// handed to fn routes every call through the transaction, so fn reads
// its own uncommitted writes and never re-enters the store mutex.
func (s *Store) WithTx(ctx context.Context, fn func(store ledger.Store) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	sqlTx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer sqlTx.Rollback()

	if err := fn(&txStore{tx: sqlTx, parent: s}); err != nil {
		return err
	}

	return sqlTx.Commit()
}

type txStore struct {
	tx     *sql.Tx
	parent *Store
}

func (ts *txStore) CreateTenant(ctx context.Context, t ledger.NewTenant) (ledger.TenantID, error) {
	return ts.parent.createTenantOn(ctx, ts.tx, t)
}

func (ts *txStore) Tenant(ctx context.Context, id ledger.TenantID) (*ledger.Tenant, error) {
	return ts.parent.tenantOn(ctx, ts.tx, id)
}

func (ts *txStore) ListTenants(ctx context.Context) ([]ledger.Tenant, error) {
	return ts.parent.listTenantsOn(ctx, ts.tx)
}

func (ts *txStore) UpdateTenant(ctx context.Context, id ledger.TenantID, upd ledger.TenantUpdate) error {
	return ts.parent.updateTenantOn(ctx, ts.tx, id, upd)
}

func (ts *txStore) DeleteTenant(ctx context.Context, id ledger.TenantID) error {
	return ts.parent.deleteTenantOn(ctx, ts.tx, id)
}

func (ts *txStore) CurrentRent(ctx context.Context, id ledger.TenantID) (ledger.Amount, error) {
	return ts.parent.currentRentOn(ctx, ts.tx, id)
}

func (ts *txStore) LatestChargedPeriod(ctx context.Context, id ledger.TenantID) (*ledger.Period, error) {
	return ts.parent.latestChargedPeriodOn(ctx, ts.tx, id)
}

func (ts *txStore) InsertChargeIfAbsent(ctx context.Context, id ledger.TenantID, period ledger.Period, amount ledger.Amount, label string) (ledger.InsertOutcome, error) {
	return ts.parent.insertChargeOn(ctx, ts.tx, id, period, amount, label)
}

func (ts *txStore) InsertPayment(ctx context.Context, id ledger.TenantID, p ledger.NewPayment) (ledger.PaymentID, error) {
	return ts.parent.insertPaymentOn(ctx, ts.tx, id, p)
}

func (ts *txStore) SumCharges(ctx context.Context, id ledger.TenantID, period *ledger.Period) (ledger.Amount, error) {
	return ts.parent.sumChargesOn(ctx, ts.tx, id, period)
}

func (ts *txStore) SumPayments(ctx context.Context, id ledger.TenantID, period *ledger.Period) (ledger.Amount, error) {
	return ts.parent.sumPaymentsOn(ctx, ts.tx, id, period)
}

func (ts *txStore) ListEvents(ctx context.Context, id ledger.TenantID) ([]ledger.Charge, []ledger.Payment, error) {
	return ts.parent.listEventsOn(ctx, ts.tx, id)
}

func (ts *txStore) ListPaymentsInPeriod(ctx context.Context, period ledger.Period) ([]ledger.Payment, error) {
	return ts.parent.listPaymentsInPeriodOn(ctx, ts.tx, period)
}

// =============================================================================
// SCANNERS AND HELPERS
// =============================================================================

func scanTenant(sc rowScanner) (*ledger.Tenant, error) {
	var (
		t               ledger.Tenant
		id              int64
		rent            string
		rentalAddress   sql.NullString
		originalAddress sql.NullString
		joinDate        string
		openingBalance  string
		createdAt       string
	)

	err := sc.Scan(&id, &t.Name, &rent, &rentalAddress, &originalAddress, &joinDate, &openingBalance, &createdAt)
	if err != nil {
		return nil, err
	}

	t.ID = ledger.TenantID(id)
	t.Rent = ledger.MustParseAmount(rent)
	t.RentalAddress = rentalAddress.String
	t.OriginalAddress = originalAddress.String
	t.JoinDate, _ = time.Parse(dateFormat, joinDate)
	t.OpeningBalance = ledger.MustParseAmount(openingBalance)
	t.CreatedAt, _ = time.Parse(time.RFC3339, createdAt)
	return &t, nil
}

func scanCharge(sc rowScanner) (ledger.Charge, error) {
	var (
		ch        ledger.Charge
		id        int64
		tenantID  int64
		periodKey string
		amount    string
		createdAt string
	)

	err := sc.Scan(&id, &tenantID, &periodKey, &amount, &ch.Label, &createdAt)
	if err != nil {
		return ch, err
	}

	period, err := ledger.ParsePeriodKey(periodKey)
	if err != nil {
		return ch, err
	}

	ch.ID = ledger.ChargeID(id)
	ch.TenantID = ledger.TenantID(tenantID)
	ch.Period = period
	ch.Amount = ledger.MustParseAmount(amount)
	ch.CreatedAt, _ = time.Parse(time.RFC3339, createdAt)
	return ch, nil
}

func scanPayment(sc rowScanner) (ledger.Payment, error) {
	var (
		p         ledger.Payment
		id        int64
		tenantID  int64
		paidOn    string
		amount    string
		method    sql.NullString
		operator  sql.NullString
		remarks   sql.NullString
		receiptNo sql.NullString
		createdAt string
	)

	err := sc.Scan(&id, &tenantID, &paidOn, &amount, &method, &operator, &remarks, &receiptNo, &createdAt)
	if err != nil {
		return p, err
	}

	p.ID = ledger.PaymentID(id)
	p.TenantID = ledger.TenantID(tenantID)
	p.PaidOn, _ = time.Parse(dateFormat, paidOn)
	p.Amount = ledger.MustParseAmount(amount)
	p.Method = method.String
	p.Operator = operator.String
	p.Remarks = remarks.String
	p.ReceiptNo = receiptNo.String
	p.CreatedAt, _ = time.Parse(time.RFC3339, createdAt)
	return p, nil
}

func validateNewTenant(t ledger.NewTenant) error {
	if t.Name == "" {
		return &ledger.ValidationError{Field: "name", Reason: "must not be empty"}
	}
	if t.Rent.IsNegative() {
		return &ledger.ValidationError{Field: "rent", Reason: "must be non-negative"}
	}
	if t.JoinDate.IsZero() {
		return &ledger.ValidationError{Field: "join_date", Reason: "must be set"}
	}
	return nil
}

func nullString(s string) sql.NullString {
	if s == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: s, Valid: true}
}

func isUniqueConstraintError(err error) bool {
	return err != nil && (strings.Contains(err.Error(), "UNIQUE constraint failed") ||
		strings.Contains(err.Error(), "duplicate key"))
}

func isForeignKeyError(err error) bool {
	return err != nil && strings.Contains(err.Error(), "FOREIGN KEY constraint failed")
}
