/*
reports.go - Report assembly

PURPOSE:
  Builds the three reporting products from ledger state. Per-tenant
  figures are independent, so the monthly report fans out across the
  roster with bounded concurrency and then presents rows sorted by
  tenant name.

FRESHNESS:
  A report over the current period first runs the full-roster backfill
  so that every tenant's charge for the month exists before it is
  summed. Past periods are immutable and are reported as stored.

USAGE:
  r := reports.NewReporter(store, engine)
  rows, err := r.MonthlyReport(ctx, engine.CurrentPeriod())
  sum, err := r.Dashboard(ctx)

SEE ALSO:
  - ledger/balance.go: the balance and delinquency rules the rows carry
  - ledger/backfill.go: the catch-up step run for current-period reports
*/
package reports

import (
	"context"
	"sort"

	"golang.org/x/sync/errgroup"

	"github.com/warp/rent-ledger/ledger"
)

// maxConcurrentTenants bounds the report fan-out, mirroring the
// backfiller's limit so the two roster sweeps load the store alike.
const maxConcurrentTenants = 4

// =============================================================================
// REPORTER
// =============================================================================

// Reporter derives summaries from a Store, leaning on the Engine for
// balance arithmetic and the current period.
type Reporter struct {
	Store  ledger.Store
	Engine *ledger.Engine
}

func NewReporter(store ledger.Store, engine *ledger.Engine) *Reporter {
	return &Reporter{Store: store, Engine: engine}
}

// =============================================================================
// MONTHLY REPORT
// =============================================================================

// MonthlyReport returns one Row per tenant for the given period, sorted
// by name. For the current period it backfills the whole roster first;
// callers reporting past periods get stored history untouched.
func (r *Reporter) MonthlyReport(ctx context.Context, period ledger.Period) ([]Row, error) {
	if period.Equal(r.Engine.CurrentPeriod()) {
		if _, err := r.Engine.EnsureAllBackfilled(ctx); err != nil {
			return nil, err
		}
	}

	tenants, err := r.Store.ListTenants(ctx)
	if err != nil {
		return nil, err
	}

	rows := make([]Row, len(tenants))
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(maxConcurrentTenants)
	for i, t := range tenants {
		i, t := i, t
		g.Go(func() error {
			row, err := r.tenantRow(ctx, t, period)
			if err != nil {
				return err
			}
			rows[i] = row
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	sort.Slice(rows, func(i, j int) bool {
		if rows[i].Name != rows[j].Name {
			return rows[i].Name < rows[j].Name
		}
		return rows[i].TenantID < rows[j].TenantID
	})
	return rows, nil
}

// tenantRow computes one tenant's figures. Delinquency applies the
// period-local rule to the sums already in hand rather than issuing the
// Engine's predicate a second pair of queries.
func (r *Reporter) tenantRow(ctx context.Context, t ledger.Tenant, period ledger.Period) (Row, error) {
	net, err := r.Engine.NetBalance(ctx, t.ID)
	if err != nil {
		return Row{}, err
	}
	charged, err := r.Store.SumCharges(ctx, t.ID, &period)
	if err != nil {
		return Row{}, err
	}
	paid, err := r.Store.SumPayments(ctx, t.ID, &period)
	if err != nil {
		return Row{}, err
	}

	return Row{
		TenantID:       t.ID,
		Name:           t.Name,
		RentalAddress:  t.RentalAddress,
		Rent:           t.Rent,
		NetBalance:     net,
		PeriodCharges:  charged,
		PeriodPayments: paid,
		Delinquent:     paid.LessThan(charged),
		InArrears:      net.IsNegative(),
	}, nil
}

// =============================================================================
// COLLECTIONS
// =============================================================================

// Collections returns every payment dated in the period across all
// tenants, most recent first, with tenant names resolved and the total
// collected.
func (r *Reporter) Collections(ctx context.Context, period ledger.Period) (*CollectionsSummary, error) {
	payments, err := r.Store.ListPaymentsInPeriod(ctx, period)
	if err != nil {
		return nil, err
	}
	tenants, err := r.Store.ListTenants(ctx)
	if err != nil {
		return nil, err
	}

	names := make(map[ledger.TenantID]string, len(tenants))
	for _, t := range tenants {
		names[t.ID] = t.Name
	}

	sum := &CollectionsSummary{
		Period: period,
		Rows:   make([]CollectionRow, 0, len(payments)),
		Total:  ledger.ZeroAmount(),
	}
	for _, p := range payments {
		sum.Rows = append(sum.Rows, CollectionRow{Payment: p, TenantName: names[p.TenantID]})
		sum.Total = sum.Total.Add(p.Amount)
	}
	return sum, nil
}

// =============================================================================
// DASHBOARD
// =============================================================================

// Dashboard folds the current period's monthly report into roster-wide
// totals.
func (r *Reporter) Dashboard(ctx context.Context) (*Summary, error) {
	current := r.Engine.CurrentPeriod()
	rows, err := r.MonthlyReport(ctx, current)
	if err != nil {
		return nil, err
	}

	s := &Summary{
		Period:           current,
		Tenants:          len(rows),
		TotalOutstanding: ledger.ZeroAmount(),
		Collected:        ledger.ZeroAmount(),
	}
	for _, row := range rows {
		if row.InArrears {
			s.TotalOutstanding = s.TotalOutstanding.Add(row.NetBalance.Neg())
		}
		if row.Delinquent {
			s.DelinquentCount++
		}
		s.Collected = s.Collected.Add(row.PeriodPayments)
	}
	return s, nil
}
