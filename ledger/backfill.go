/*
backfill.go - Monthly charge generation

PURPOSE:
  Guarantees that a charge exists for every calendar month from a
  tenant's join period through the current period, however often and
  however concurrently the operation is invoked, without ever producing
  a duplicate or rewriting a past charge.

HOW IT STAYS IDEMPOTENT:
  Each step is a single atomic InsertChargeIfAbsent. A period that is
  already charged (by history, or by a racing caller a millisecond ago)
  comes back AlreadyExists and is skipped. There is no read-then-write
  window and no recomputation of history, which keeps repeated calls
  cheap: a fully backfilled tenant costs one tenant read, one MAX query,
  and zero writes.

RENT CHANGES MID-RUN:
  The rate is re-read on every step. A rent edit that lands while a
  multi-month catch-up is running takes effect from the first month not
  yet generated at that moment, never earlier. Already-generated months
  are immutable.

USAGE:
  b := &ledger.Backfiller{Store: store, Clock: ledger.SystemClock}
  res, err := b.EnsureCurrent(ctx, tenantID)
  // res.Inserted == number of new charges

SEE ALSO:
  - store.go: InsertChargeIfAbsent contract
  - engine.go: Collaborator-facing wrapper
*/
package ledger

import (
	"context"
	"sync"

	"golang.org/x/sync/errgroup"
)

// DefaultChargeLabel is the descriptive label on generated monthly charges.
const DefaultChargeLabel = "Monthly Rent"

// maxConcurrentBackfills bounds the EnsureAll fan-out so a large roster
// doesn't pile writers onto the store.
const maxConcurrentBackfills = 4

// =============================================================================
// BACKFILLER - Forward-only charge generation
// =============================================================================

type Backfiller struct {
	Store Store
	Clock Clock
}

// BackfillResult reports what one run did.
type BackfillResult struct {
	TenantID TenantID
	Inserted int
}

// EnsureCurrent generates every missing monthly charge for the tenant,
// from the join period (or the month after the latest charged period)
// through the current period. Safe to invoke arbitrarily often and
// concurrently.
func (b *Backfiller) EnsureCurrent(ctx context.Context, id TenantID) (BackfillResult, error) {
	res := BackfillResult{TenantID: id}

	tenant, err := b.Store.Tenant(ctx, id)
	if err != nil {
		return res, err
	}

	latest, err := b.Store.LatestChargedPeriod(ctx, id)
	if err != nil {
		return res, err
	}

	start := tenant.JoinPeriod()
	if latest != nil {
		start = latest.Next()
	}
	current := PeriodOf(b.Clock.Now())

	// start strictly advances toward the fixed bound, so the loop
	// terminates; a future join date means no iterations at all.
	for start.Compare(current) <= 0 {
		// Re-read the rate each step so a mid-run edit applies from the
		// first not-yet-generated month onward.
		rent, err := b.Store.CurrentRent(ctx, id)
		if err != nil {
			return res, err
		}

		outcome, err := b.Store.InsertChargeIfAbsent(ctx, id, start, rent, DefaultChargeLabel)
		if err != nil {
			return res, err
		}
		if outcome == Inserted {
			res.Inserted++
		}

		start = start.Next()
	}

	return res, nil
}

// EnsureAll backfills every tenant with bounded concurrency and returns
// the total number of charges inserted. The first failure cancels the
// remaining work; charges already inserted stay (each is independently
// idempotent, so a rerun resumes where this one stopped).
func (b *Backfiller) EnsureAll(ctx context.Context) (int, error) {
	tenants, err := b.Store.ListTenants(ctx)
	if err != nil {
		return 0, err
	}

	var (
		mu    sync.Mutex
		total int
	)

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(maxConcurrentBackfills)
	for _, t := range tenants {
		id := t.ID
		g.Go(func() error {
			res, err := b.EnsureCurrent(ctx, id)
			if err != nil {
				return err
			}
			mu.Lock()
			total += res.Inserted
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return total, err
	}
	return total, nil
}
