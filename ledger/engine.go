/*
engine.go - Collaborator-facing facade

PURPOSE:
  One entry point for everything a caller (HTTP handler, report builder,
  receipt printer, import job) does with the ledger: ensure charges are
  current, read balances, assemble statements, record payments.

THE COLLABORATOR CONTRACT:
  The engine never self-schedules. Callers invoke
  EnsureCurrentThroughBackfilled before any balance or ledger query;
  the call is idempotent and cheap when nothing is missing. Background
  schedulers, if any, live outside this package and just call
  EnsureAllBackfilled on a timer.

TIME:
  "Today" is never read ambiently. The Clock is injected so tests drive
  the calendar and a March-15th run is reproducible forever.

RECORDING PAYMENTS:
  RecordPayment pairs the insert with a net balance computation that
  observes the insert exactly once. When the store supports
  transactions, both run inside one; the receipt a caller prints is
  consistent even while other writers race.

EXAMPLE:
  engine := ledger.NewEngine(st, ledger.SystemClock)
  if _, err := engine.EnsureCurrentThroughBackfilled(ctx, id); err != nil { ... }
  net, err := engine.NetBalance(ctx, id)

SEE ALSO:
  - backfill.go: Charge generation
  - balance.go, ledger.go: The read side
  - projection.go: Forward estimates
*/
package ledger

import (
	"context"

	"github.com/google/uuid"
)

// =============================================================================
// ENGINE - Facade over backfill, balances, statements, payments
// =============================================================================

type Engine struct {
	Store Store
	Clock Clock

	// tx is non-nil when the store supports transactions; RecordPayment
	// falls back to sequential insert-then-read without it.
	tx TxStore

	backfill *Backfiller
	calc     *Calculator
	proj     *Projector
}

// NewEngine wires the engine around a store. A nil clock means the
// system clock.
func NewEngine(store Store, clock Clock) *Engine {
	if clock == nil {
		clock = SystemClock
	}
	e := &Engine{
		Store:    store,
		Clock:    clock,
		backfill: &Backfiller{Store: store, Clock: clock},
		calc:     &Calculator{Store: store},
		proj:     &Projector{Store: store},
	}
	if tx, ok := store.(TxStore); ok {
		e.tx = tx
	}
	return e
}

// =============================================================================
// BACKFILL (delegated)
// =============================================================================

// EnsureCurrentThroughBackfilled guarantees charges exist through the
// current period. Call before any balance or ledger query.
func (e *Engine) EnsureCurrentThroughBackfilled(ctx context.Context, id TenantID) (BackfillResult, error) {
	return e.backfill.EnsureCurrent(ctx, id)
}

// EnsureAllBackfilled backfills every tenant and returns the total
// number of charges inserted.
func (e *Engine) EnsureAllBackfilled(ctx context.Context) (int, error) {
	return e.backfill.EnsureAll(ctx)
}

// =============================================================================
// BALANCES AND STATEMENTS (delegated)
// =============================================================================

func (e *Engine) NetBalance(ctx context.Context, id TenantID) (Amount, error) {
	return e.calc.NetBalance(ctx, id)
}

func (e *Engine) BuildLedger(ctx context.Context, id TenantID) ([]Event, error) {
	return e.calc.BuildLedger(ctx, id)
}

func (e *Engine) IsPeriodDelinquent(ctx context.Context, id TenantID, period Period) (bool, error) {
	return e.calc.IsPeriodDelinquent(ctx, id, period)
}

// IsCurrentPeriodDelinquent checks the period the injected clock says we
// are in right now.
func (e *Engine) IsCurrentPeriodDelinquent(ctx context.Context, id TenantID) (bool, error) {
	return e.calc.IsPeriodDelinquent(ctx, id, e.CurrentPeriod())
}

func (e *Engine) ProjectBalance(ctx context.Context, id TenantID, through Period) (Amount, error) {
	return e.proj.ProjectBalance(ctx, id, through)
}

// CurrentPeriod is the calendar month of the injected clock's now.
func (e *Engine) CurrentPeriod() Period {
	return PeriodOf(e.Clock.Now())
}

// =============================================================================
// PAYMENT RECORDING
// =============================================================================

// RecordPayment validates and inserts a payment, then computes the net
// balance including it. The returned receipt carries the balance a
// receipt printer should show.
//
// A zero PaidOn defaults to the clock's today. The amount must be
// non-negative; the date is unrestricted since backdated and postdated
// payments are allowed.
func (e *Engine) RecordPayment(ctx context.Context, id TenantID, p NewPayment) (Receipt, error) {
	if p.Amount.IsNegative() {
		return Receipt{}, &ValidationError{Field: "amount", Reason: "must be non-negative"}
	}
	if p.PaidOn.IsZero() {
		p.PaidOn = e.Clock.Now()
	}
	p.ReceiptNo = uuid.NewString()

	var receipt Receipt
	record := func(s Store) error {
		tenant, err := s.Tenant(ctx, id)
		if err != nil {
			return err
		}
		paymentID, err := s.InsertPayment(ctx, id, p)
		if err != nil {
			return err
		}
		calc := &Calculator{Store: s}
		net, err := calc.netBalanceOf(ctx, tenant)
		if err != nil {
			return err
		}
		receipt = Receipt{
			PaymentID:       paymentID,
			ReceiptNo:       p.ReceiptNo,
			TenantID:        id,
			TenantName:      tenant.Name,
			PaidOn:          p.PaidOn,
			Amount:          p.Amount,
			Method:          p.Method,
			NetBalanceAfter: net,
		}
		return nil
	}

	var err error
	if e.tx != nil {
		err = e.tx.WithTx(ctx, record)
	} else {
		err = record(e.Store)
	}
	if err != nil {
		return Receipt{}, err
	}
	return receipt, nil
}
