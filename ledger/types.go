/*
Package ledger provides the recurring charge and balance engine.

PURPOSE:
  This package contains the types and algorithms for tracking rent
  obligations and receipts per tenant: generating monthly charges
  idempotently, merging opening balance, charges, and payments into one
  ordered ledger, and deriving net and running balances.

KEY CONCEPTS IN THIS FILE (types.go):
  - Amount: A money quantity backed by decimal.Decimal
  - Tenant: The account a ledger belongs to (rate, join date, opening balance)
  - Charge: An immutable monthly debit, at most one per (tenant, period)
  - Payment: An append-only credit with method/operator/remarks metadata
  - Event: The derived ledger entry union (opening, charge, payment)

DESIGN PRINCIPLES:
  1. Append-only: charge and payment rows are never updated; corrections
     would be new offsetting events
  2. Precision: decimal.Decimal for all money math, no floats
  3. Derived balances: net and running balances are computed from rows,
     never stored
  4. Type safety: distinct ID types for tenants, charges, and payments

USAGE:
  rent := ledger.MustParseAmount("12500.00")
  id, err := store.CreateTenant(ctx, ledger.NewTenant{
      Name:     "A. Sharma",
      Rent:     rent,
      JoinDate: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
  })

SEE ALSO:
  - period.go: Calendar month arithmetic
  - store.go: Persistence contract
  - backfill.go: Monthly charge generation
  - balance.go: Net balance and delinquency
*/
package ledger

import (
	"time"

	"github.com/shopspring/decimal"
)

// =============================================================================
// AMOUNT - Money quantity (single implicit currency)
// =============================================================================

type Amount struct {
	Value decimal.Decimal
}

func NewAmount(value float64) Amount {
	return Amount{Value: decimal.NewFromFloat(value)}
}

func NewAmountFromInt(value int) Amount {
	return Amount{Value: decimal.NewFromInt(int64(value))}
}

func AmountFromDecimal(d decimal.Decimal) Amount {
	return Amount{Value: d}
}

// ParseAmount parses a decimal string such as "12500.00".
func ParseAmount(s string) (Amount, error) {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return Amount{}, err
	}
	return Amount{Value: d}, nil
}

// MustParseAmount parses a decimal string, yielding zero on malformed input.
// Intended for literals and for values read back from our own storage.
func MustParseAmount(s string) Amount {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return Amount{Value: decimal.Zero}
	}
	return Amount{Value: d}
}

func ZeroAmount() Amount { return Amount{Value: decimal.Zero} }

func (a Amount) Add(b Amount) Amount          { return Amount{Value: a.Value.Add(b.Value)} }
func (a Amount) Sub(b Amount) Amount          { return Amount{Value: a.Value.Sub(b.Value)} }
func (a Amount) Mul(s decimal.Decimal) Amount { return Amount{Value: a.Value.Mul(s)} }
func (a Amount) Neg() Amount                  { return Amount{Value: a.Value.Neg()} }
func (a Amount) IsNegative() bool             { return a.Value.IsNegative() }
func (a Amount) IsZero() bool                 { return a.Value.IsZero() }
func (a Amount) IsPositive() bool             { return a.Value.IsPositive() }
func (a Amount) GreaterThan(b Amount) bool    { return a.Value.GreaterThan(b.Value) }
func (a Amount) LessThan(b Amount) bool       { return a.Value.LessThan(b.Value) }
func (a Amount) Equal(b Amount) bool          { return a.Value.Equal(b.Value) }
func (a Amount) Cmp(b Amount) int             { return a.Value.Cmp(b.Value) }
func (a Amount) String() string               { return a.Value.String() }

// =============================================================================
// IDENTIFIERS
// =============================================================================

type TenantID int64
type ChargeID int64
type PaymentID int64

// =============================================================================
// TENANT - Account the ledger belongs to
// =============================================================================

// Tenant carries the current monthly rate plus the two values fixed at
// creation: JoinDate (first charged period derives from it) and
// OpeningBalance (signed pre-system debt; positive means the tenant owed
// money before the first tracked period).
type Tenant struct {
	ID              TenantID
	Name            string
	Rent            Amount
	RentalAddress   string
	OriginalAddress string
	JoinDate        time.Time
	OpeningBalance  Amount
	CreatedAt       time.Time
}

// JoinPeriod is the calendar month the tenant's first charge falls in.
func (t Tenant) JoinPeriod() Period { return PeriodOf(t.JoinDate) }

// NewTenant is the creation input. JoinDate and OpeningBalance become
// immutable once the row exists.
type NewTenant struct {
	Name            string
	Rent            Amount
	RentalAddress   string
	OriginalAddress string
	JoinDate        time.Time
	OpeningBalance  Amount
}

// TenantUpdate is a partial update. Nil fields are left untouched.
// JoinDate and OpeningBalance are deliberately absent: they cannot change.
// A Rent update only influences charges generated after it.
type TenantUpdate struct {
	Name            *string
	Rent            *Amount
	RentalAddress   *string
	OriginalAddress *string
}

// =============================================================================
// CHARGE - Monthly debit, at most one per (tenant, period)
// =============================================================================

type Charge struct {
	ID        ChargeID
	TenantID  TenantID
	Period    Period
	Amount    Amount
	Label     string
	CreatedAt time.Time
}

// =============================================================================
// PAYMENT - Append-only credit
// =============================================================================

type Payment struct {
	ID        PaymentID
	TenantID  TenantID
	PaidOn    time.Time
	Amount    Amount
	Method    string
	Operator  string
	Remarks   string
	ReceiptNo string
	CreatedAt time.Time
}

// NewPayment is the recording input. PaidOn may be any calendar date;
// backdated and postdated payments are allowed. Operator is the
// request-scoped identity of whoever recorded the payment. ReceiptNo is
// assigned by the Engine; callers leave it empty.
type NewPayment struct {
	PaidOn    time.Time
	Amount    Amount
	Method    string
	Operator  string
	Remarks   string
	ReceiptNo string
}

// Receipt is what a receipt-issuing collaborator needs after recording a
// payment. NetBalanceAfter reflects the just-recorded payment exactly once.
type Receipt struct {
	PaymentID       PaymentID
	ReceiptNo       string
	TenantID        TenantID
	TenantName      string
	PaidOn          time.Time
	Amount          Amount
	Method          string
	NetBalanceAfter Amount
}

// =============================================================================
// EVENT - Derived ledger entry (never persisted)
// =============================================================================

// EventKind ranks event types for same-date ordering:
// Opening < Charge < Payment.
type EventKind int

const (
	EventOpening EventKind = iota
	EventCharge
	EventPayment
)

func (k EventKind) String() string {
	switch k {
	case EventOpening:
		return "opening"
	case EventCharge:
		return "charge"
	case EventPayment:
		return "payment"
	default:
		return "unknown"
	}
}

// Event is one row of the assembled ledger view. Debit is set for opening
// and charge events (the opening debit carries the opening balance's sign),
// Credit for payments. Running is the balance after folding this event.
type Event struct {
	Kind        EventKind
	Date        time.Time
	Description string
	Debit       Amount
	Credit      Amount
	Running     Amount

	// seq preserves insertion order for same-date, same-kind ties.
	seq int64
}
