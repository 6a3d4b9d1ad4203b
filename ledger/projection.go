/*
projection.go - Arrears outlook

PURPOSE:
  Answers "if no further payments arrive, what will the net balance be
  at the end of a future month?" Used for arrears outlooks when deciding
  whether to chase a tenant now or wait for the cycle to turn.

KEY INSIGHT:
  The projection is a pure read. It never generates charges; it counts
  the months that WOULD be charged between the first not-yet-generated
  period and the target, at the current rate, and subtracts them from
  the present net balance.

PROJECTION vs BACKFILL:
  Backfill writes charge rows and moves the books forward. Projection
  only peeks ahead. A projection through an already-charged month is
  just the current net balance.

SEE ALSO:
  - balance.go: The present-tense net balance
  - backfill.go: The write-side counterpart
*/
package ledger

import (
	"context"

	"github.com/shopspring/decimal"
)

// =============================================================================
// PROJECTOR - Forward balance estimate
// =============================================================================

type Projector struct {
	Store Store
}

// ProjectBalance estimates the net balance at the end of the target period,
// assuming no further payments. Months from the first ungenerated period
// through the target are priced at the current rent rate.
func (p *Projector) ProjectBalance(ctx context.Context, id TenantID, through Period) (Amount, error) {
	tenant, err := p.Store.Tenant(ctx, id)
	if err != nil {
		return Amount{}, err
	}

	calc := &Calculator{Store: p.Store}
	net, err := calc.netBalanceOf(ctx, tenant)
	if err != nil {
		return Amount{}, err
	}

	first := tenant.JoinPeriod()
	latest, err := p.Store.LatestChargedPeriod(ctx, id)
	if err != nil {
		return Amount{}, err
	}
	if latest != nil {
		first = latest.Next()
	}
	if through.Before(first) {
		return net, nil
	}

	rent, err := p.Store.CurrentRent(ctx, id)
	if err != nil {
		return Amount{}, err
	}
	months := first.MonthsUntil(through) + 1
	return net.Sub(rent.Mul(decimal.NewFromInt(int64(months)))), nil
}
