package ledger_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/warp/rent-ledger/ledger"
	"github.com/warp/rent-ledger/store/sqlite"
)

// =============================================================================
// TEST SETUP
// =============================================================================
// Helpers here are shared by the other test files in this package.

func newTestStore(t *testing.T) *sqlite.Store {
	st, err := sqlite.New(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() })
	return st
}

func amt(s string) ledger.Amount {
	return ledger.MustParseAmount(s)
}

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func createTenant(t *testing.T, st ledger.Store, name string, rent string, join time.Time, opening string) ledger.TenantID {
	id, err := st.CreateTenant(context.Background(), ledger.NewTenant{
		Name:           name,
		Rent:           amt(rent),
		JoinDate:       join,
		OpeningBalance: amt(opening),
	})
	require.NoError(t, err)
	return id
}

// =============================================================================
// CATCH-UP SEMANTICS
// =============================================================================

func TestBackfiller_NewTenant_ChargesJoinMonthThroughCurrent(t *testing.T) {
	// GIVEN: A tenant who joined January 1st, rent 10000
	// WHEN: Backfilling on a system date of March 15th
	// THEN: Exactly three charges exist, one per month January..March

	st := newTestStore(t)
	ctx := context.Background()
	id := createTenant(t, st, "A. Sharma", "10000", date(2024, time.January, 1), "0")

	b := &ledger.Backfiller{Store: st, Clock: ledger.NewFakeClock(date(2024, time.March, 15))}
	res, err := b.EnsureCurrent(ctx, id)

	require.NoError(t, err)
	assert.Equal(t, 3, res.Inserted)

	charges, _, err := st.ListEvents(ctx, id)
	require.NoError(t, err)
	require.Len(t, charges, 3)
	assert.Equal(t, "2024-01", charges[0].Period.String())
	assert.Equal(t, "2024-02", charges[1].Period.String())
	assert.Equal(t, "2024-03", charges[2].Period.String())
	for _, ch := range charges {
		assert.True(t, ch.Amount.Equal(amt("10000")), "each month is charged the full rate")
		assert.Equal(t, ledger.DefaultChargeLabel, ch.Label)
	}
}

func TestBackfiller_SecondRun_InsertsNothing(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()
	id := createTenant(t, st, "A. Sharma", "10000", date(2024, time.January, 1), "0")

	b := &ledger.Backfiller{Store: st, Clock: ledger.NewFakeClock(date(2024, time.March, 15))}
	_, err := b.EnsureCurrent(ctx, id)
	require.NoError(t, err)

	res, err := b.EnsureCurrent(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, 0, res.Inserted, "an immediate rerun must be a no-op")
}

func TestBackfiller_ClockAdvance_FillsOnlyTheGap(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()
	id := createTenant(t, st, "A. Sharma", "10000", date(2024, time.January, 1), "0")

	clock := ledger.NewFakeClock(date(2024, time.March, 15))
	b := &ledger.Backfiller{Store: st, Clock: clock}
	_, err := b.EnsureCurrent(ctx, id)
	require.NoError(t, err)

	clock.Set(date(2024, time.May, 2))
	res, err := b.EnsureCurrent(ctx, id)

	require.NoError(t, err)
	assert.Equal(t, 2, res.Inserted, "only April and May are missing")
}

func TestBackfiller_FutureJoinDate_NoCharges(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()
	id := createTenant(t, st, "Moves In Later", "9000", date(2024, time.June, 1), "0")

	b := &ledger.Backfiller{Store: st, Clock: ledger.NewFakeClock(date(2024, time.March, 15))}
	res, err := b.EnsureCurrent(ctx, id)

	require.NoError(t, err)
	assert.Equal(t, 0, res.Inserted)
}

func TestBackfiller_MidMonthJoin_ChargesTheFullJoinMonth(t *testing.T) {
	// No proration: joining on the 20th still owes January in full.
	st := newTestStore(t)
	ctx := context.Background()
	id := createTenant(t, st, "A. Sharma", "10000", date(2024, time.January, 20), "0")

	b := &ledger.Backfiller{Store: st, Clock: ledger.NewFakeClock(date(2024, time.January, 25))}
	res, err := b.EnsureCurrent(ctx, id)

	require.NoError(t, err)
	require.Equal(t, 1, res.Inserted)

	charges, _, err := st.ListEvents(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, "2024-01", charges[0].Period.String())
	assert.True(t, charges[0].Amount.Equal(amt("10000")))
}

func TestBackfiller_MissingTenant_NotFound(t *testing.T) {
	st := newTestStore(t)
	b := &ledger.Backfiller{Store: st, Clock: ledger.NewFakeClock(date(2024, time.March, 15))}

	_, err := b.EnsureCurrent(context.Background(), ledger.TenantID(99))

	assert.True(t, ledger.IsNotFound(err))
}

// =============================================================================
// RENT EDITS
// =============================================================================

func TestBackfiller_RentEdit_NeverRewritesGeneratedCharges(t *testing.T) {
	// GIVEN: January..March are charged at 10000
	// WHEN: Rent changes to 12000 and April arrives
	// THEN: April is charged at 12000; the old months keep their amounts

	st := newTestStore(t)
	ctx := context.Background()
	id := createTenant(t, st, "A. Sharma", "10000", date(2024, time.January, 1), "0")

	clock := ledger.NewFakeClock(date(2024, time.March, 15))
	b := &ledger.Backfiller{Store: st, Clock: clock}
	_, err := b.EnsureCurrent(ctx, id)
	require.NoError(t, err)

	newRent := amt("12000")
	require.NoError(t, st.UpdateTenant(ctx, id, ledger.TenantUpdate{Rent: &newRent}))

	clock.Set(date(2024, time.April, 3))
	res, err := b.EnsureCurrent(ctx, id)
	require.NoError(t, err)
	require.Equal(t, 1, res.Inserted)

	march := ledger.Period{Year: 2024, Month: time.March}
	april := ledger.Period{Year: 2024, Month: time.April}

	marchSum, err := st.SumCharges(ctx, id, &march)
	require.NoError(t, err)
	assert.True(t, marchSum.Equal(amt("10000")), "March keeps the old rate")

	aprilSum, err := st.SumCharges(ctx, id, &april)
	require.NoError(t, err)
	assert.True(t, aprilSum.Equal(amt("12000")), "April gets the new rate")
}

// =============================================================================
// CONCURRENCY
// =============================================================================

func TestBackfiller_ConcurrentRuns_ExactlyOneChargePerPeriod(t *testing.T) {
	// GIVEN: Eight goroutines backfilling the same three-month gap
	// WHEN: They all race on InsertChargeIfAbsent
	// THEN: Three charges exist and exactly three Inserted outcomes were
	//       observed across all runs combined

	st := newTestStore(t)
	ctx := context.Background()
	id := createTenant(t, st, "A. Sharma", "10000", date(2024, time.January, 1), "0")

	b := &ledger.Backfiller{Store: st, Clock: ledger.NewFakeClock(date(2024, time.March, 15))}

	const workers = 8
	var (
		wg       sync.WaitGroup
		mu       sync.Mutex
		inserted int
	)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			res, err := b.EnsureCurrent(ctx, id)
			assert.NoError(t, err)
			mu.Lock()
			inserted += res.Inserted
			mu.Unlock()
		}()
	}
	wg.Wait()

	assert.Equal(t, 3, inserted, "each period is inserted exactly once globally")

	charges, _, err := st.ListEvents(ctx, id)
	require.NoError(t, err)
	assert.Len(t, charges, 3)
}

func TestBackfiller_EnsureAll_TotalsAcrossTenants(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()
	createTenant(t, st, "Jan Joiner", "10000", date(2024, time.January, 1), "0")
	createTenant(t, st, "Feb Joiner", "8000", date(2024, time.February, 1), "0")
	createTenant(t, st, "Future Joiner", "9000", date(2024, time.July, 1), "0")

	b := &ledger.Backfiller{Store: st, Clock: ledger.NewFakeClock(date(2024, time.March, 15))}
	total, err := b.EnsureAll(ctx)

	require.NoError(t, err)
	assert.Equal(t, 5, total, "3 months + 2 months + 0 months")
}
