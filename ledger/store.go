/*
store.go - Persistence interface for tenants, charges, and payments

PURPOSE:
  Defines the interface between the engine and the database. Any storage
  technology satisfying this relational contract (tables for tenants,
  charges, payments with the uniqueness and cascade constraints below)
  can back the engine; the durable schema is also the boundary that
  backup/restore collaborators copy wholesale.

APPEND-ONLY CONTRACT:
  - Charges and payments have insert operations ONLY. No update methods
    exist for their amounts; corrections would be new offsetting rows.
  - The single tenant mutation (UpdateTenant) touches the rate and
    descriptive fields; join date and opening balance are fixed at
    creation.
  - DeleteTenant is the one destructive operation and cascades.

THE ATOMIC INSERT:
  InsertChargeIfAbsent is the only operation needing a true atomic
  check-and-insert. Concurrent callers racing on the same (tenant,
  period) must produce exactly one row, the losers observing the
  AlreadyExists outcome, not an error. Implementations enforce this with
  a unique constraint, never a read-then-write pair.

IMPLEMENTATIONS:
  - store/sqlite/sqlite.go: Durable SQLite store
  - ledger/store/memory.go: In-memory store for tests and demos

SEE ALSO:
  - backfill.go: The only creator of charges
  - engine.go: The only creator of payments
*/
package ledger

import "context"

// =============================================================================
// INSERT OUTCOME - Result of the atomic conditional insert
// =============================================================================

// InsertOutcome distinguishes a fresh insert from a lost race or an
// already-backfilled period. AlreadyExists is a normal outcome, not an
// error.
type InsertOutcome int

const (
	Inserted InsertOutcome = iota
	AlreadyExists
)

func (o InsertOutcome) String() string {
	if o == Inserted {
		return "inserted"
	}
	return "already_exists"
}

// =============================================================================
// STORE - The relational contract
// =============================================================================

type Store interface {
	// CreateTenant adds a tenant. Fails with a ValidationError if the rent
	// is negative or the name empty.
	CreateTenant(ctx context.Context, t NewTenant) (TenantID, error)

	// Tenant returns a tenant or a NotFoundError.
	Tenant(ctx context.Context, id TenantID) (*Tenant, error)

	// ListTenants returns all tenants in creation order.
	ListTenants(ctx context.Context) ([]Tenant, error)

	// UpdateTenant applies a partial update. Rent edits influence only
	// charges generated afterwards; existing charge rows are never touched.
	UpdateTenant(ctx context.Context, id TenantID, upd TenantUpdate) error

	// DeleteTenant removes the tenant and cascades to its charges and
	// payments. Irreversible.
	DeleteTenant(ctx context.Context, id TenantID) error

	// CurrentRent returns the latest rate. Reads are not snapshot-isolated
	// with the rest of the ledger unless made inside WithTx.
	CurrentRent(ctx context.Context, id TenantID) (Amount, error)

	// LatestChargedPeriod returns the most recent charged period, or nil
	// when no charge exists yet.
	LatestChargedPeriod(ctx context.Context, id TenantID) (*Period, error)

	// InsertChargeIfAbsent atomically inserts one charge for (id, period)
	// unless one already exists. See the contract at the top of this file.
	InsertChargeIfAbsent(ctx context.Context, id TenantID, period Period, amount Amount, label string) (InsertOutcome, error)

	// InsertPayment appends a payment. Always succeeds for an existing
	// tenant; NotFoundError otherwise.
	InsertPayment(ctx context.Context, id TenantID, p NewPayment) (PaymentID, error)

	// SumCharges totals charge amounts, restricted to one period when the
	// filter is non-nil.
	SumCharges(ctx context.Context, id TenantID, period *Period) (Amount, error)

	// SumPayments totals payment amounts, restricted to payments dated
	// within the period when the filter is non-nil.
	SumPayments(ctx context.Context, id TenantID, period *Period) (Amount, error)

	// ListEvents returns the raw charge and payment rows for ledger
	// assembly, each slice in insertion order, read consistently.
	ListEvents(ctx context.Context, id TenantID) ([]Charge, []Payment, error)

	// ListPaymentsInPeriod returns payments across all tenants dated
	// within the period, most recent first. Reporting surface.
	ListPaymentsInPeriod(ctx context.Context, period Period) ([]Payment, error)
}

// =============================================================================
// TRANSACTIONAL STORE - For write-then-consistent-read operations
// =============================================================================

// TxStore wraps Store with transaction support. Reads made through the
// Store passed to fn observe the transaction's own uncommitted writes;
// this is what gives the payment recorder its receipt contract.
type TxStore interface {
	Store

	// WithTx executes fn within a transaction. A non-nil error from fn
	// rolls back; nil commits.
	WithTx(ctx context.Context, fn func(Store) error) error
}
