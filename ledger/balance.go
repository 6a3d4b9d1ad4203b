/*
balance.go - Net balance and period delinquency

PURPOSE:
  Computes the two balance views from stored rows. This is the central
  calculation that answers "how much does this tenant owe?"

THE TWO VIEWS:
  NetBalance:  lifetime, sum(payments) - (opening balance + sum(charges)).
               Negative means the tenant owes money; non-negative means
               paid-up or in credit.
  Delinquency: PERIOD-LOCAL, sum(payments dated in period) < sum(charges
               in period). A tenant who covers the current month is never
               flagged, even while carrying large arrears from earlier
               months. Arrears and delinquency are deliberately separate
               signals; reports expose both.

EXAMPLE:
  Tenant owes 30,000 across Jan-Mar, pays 10,000 in March (March rent):
    NetBalance          = -20,000  (in arrears)
    IsPeriodDelinquent  = false    (March itself is covered)

SEE ALSO:
  - ledger.go: Full chronological view with running balance
  - reports/: Per-tenant report rows exposing both signals
*/
package ledger

import "context"

// =============================================================================
// CALCULATOR - Aggregate balance queries
// =============================================================================

type Calculator struct {
	Store Store
}

// NetBalance is the lifetime balance over the tenant's entire history.
// The tenant row is read first so a deleted tenant is a NotFoundError,
// never a silent zero.
func (c *Calculator) NetBalance(ctx context.Context, id TenantID) (Amount, error) {
	tenant, err := c.Store.Tenant(ctx, id)
	if err != nil {
		return Amount{}, err
	}
	return c.netBalanceOf(ctx, tenant)
}

func (c *Calculator) netBalanceOf(ctx context.Context, tenant *Tenant) (Amount, error) {
	charges, err := c.Store.SumCharges(ctx, tenant.ID, nil)
	if err != nil {
		return Amount{}, err
	}
	payments, err := c.Store.SumPayments(ctx, tenant.ID, nil)
	if err != nil {
		return Amount{}, err
	}
	return payments.Sub(tenant.OpeningBalance.Add(charges)), nil
}

// IsPeriodDelinquent reports whether the period's own payments fall short
// of its charges. Period-local on purpose: carried-forward arrears do not
// flag a covered month.
func (c *Calculator) IsPeriodDelinquent(ctx context.Context, id TenantID, period Period) (bool, error) {
	if _, err := c.Store.Tenant(ctx, id); err != nil {
		return false, err
	}
	charges, err := c.Store.SumCharges(ctx, id, &period)
	if err != nil {
		return false, err
	}
	payments, err := c.Store.SumPayments(ctx, id, &period)
	if err != nil {
		return false, err
	}
	return payments.LessThan(charges), nil
}
