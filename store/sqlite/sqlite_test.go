package sqlite_test

import (
	"context"
	"errors"
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

func newStore(t *testing.T) *sqlite.Store {
	st, err := sqlite.New(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() })
	return st
}

func amt(s string) ledger.Amount {
	return ledger.MustParseAmount(s)
}

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func seedTenant(t *testing.T, st *sqlite.Store) ledger.TenantID {
	id, err := st.CreateTenant(context.Background(), ledger.NewTenant{
		Name:           "R. Verma",
		Rent:           amt("12500.00"),
		RentalAddress:  "12-B Lakeview",
		JoinDate:       day(2024, time.January, 1),
		OpeningBalance: amt("3000"),
	})
	require.NoError(t, err)
	return id
}

// =============================================================================
// TENANTS
// =============================================================================

func TestStore_CreateTenant_RoundTripsAllFields(t *testing.T) {
	st := newStore(t)
	ctx := context.Background()

	id, err := st.CreateTenant(ctx, ledger.NewTenant{
		Name:            "R. Verma",
		Rent:            amt("12500.50"),
		RentalAddress:   "12-B Lakeview",
		OriginalAddress: "Village Rampur",
		JoinDate:        day(2023, time.November, 20),
		OpeningBalance:  amt("-150.25"),
	})
	require.NoError(t, err)

	got, err := st.Tenant(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, "R. Verma", got.Name)
	assert.True(t, got.Rent.Equal(amt("12500.50")), "decimal rate survives storage")
	assert.Equal(t, "12-B Lakeview", got.RentalAddress)
	assert.Equal(t, "Village Rampur", got.OriginalAddress)
	assert.True(t, got.JoinDate.Equal(day(2023, time.November, 20)))
	assert.True(t, got.OpeningBalance.Equal(amt("-150.25")), "a credit opening balance keeps its sign")
}

func TestStore_CreateTenant_RejectsBadInput(t *testing.T) {
	st := newStore(t)
	ctx := context.Background()

	_, err := st.CreateTenant(ctx, ledger.NewTenant{Rent: amt("100"), JoinDate: day(2024, time.January, 1)})
	assert.True(t, ledger.IsValidation(err), "empty name")

	_, err = st.CreateTenant(ctx, ledger.NewTenant{Name: "X", Rent: amt("-100"), JoinDate: day(2024, time.January, 1)})
	assert.True(t, ledger.IsValidation(err), "negative rent")

	_, err = st.CreateTenant(ctx, ledger.NewTenant{Name: "X", Rent: amt("100")})
	assert.True(t, ledger.IsValidation(err), "missing join date")
}

func TestStore_Tenant_Missing_NotFound(t *testing.T) {
	st := newStore(t)

	_, err := st.Tenant(context.Background(), ledger.TenantID(99))

	var nf *ledger.NotFoundError
	require.True(t, errors.As(err, &nf))
	assert.Equal(t, "tenant", nf.Entity)
	assert.EqualValues(t, 99, nf.ID)
}

func TestStore_UpdateTenant_PartialFields(t *testing.T) {
	st := newStore(t)
	ctx := context.Background()
	id := seedTenant(t, st)

	newRent := amt("14000")
	require.NoError(t, st.UpdateTenant(ctx, id, ledger.TenantUpdate{Rent: &newRent}))

	got, err := st.Tenant(ctx, id)
	require.NoError(t, err)
	assert.True(t, got.Rent.Equal(newRent))
	assert.Equal(t, "R. Verma", got.Name, "unset fields stay untouched")
	assert.True(t, got.OpeningBalance.Equal(amt("3000")), "opening balance is immutable")

	empty := ""
	err = st.UpdateTenant(ctx, id, ledger.TenantUpdate{Name: &empty})
	assert.True(t, ledger.IsValidation(err))

	err = st.UpdateTenant(ctx, ledger.TenantID(99), ledger.TenantUpdate{Rent: &newRent})
	assert.True(t, ledger.IsNotFound(err))
}

func TestStore_DeleteTenant_CascadesToRows(t *testing.T) {
	st := newStore(t)
	ctx := context.Background()
	id := seedTenant(t, st)

	_, err := st.InsertChargeIfAbsent(ctx, id, ledger.Period{Year: 2024, Month: time.January}, amt("12500"), "Monthly Rent")
	require.NoError(t, err)
	_, err = st.InsertPayment(ctx, id, ledger.NewPayment{PaidOn: day(2024, time.January, 5), Amount: amt("5000")})
	require.NoError(t, err)

	require.NoError(t, st.DeleteTenant(ctx, id))

	_, err = st.Tenant(ctx, id)
	assert.True(t, ledger.IsNotFound(err))

	charges, payments, err := st.ListEvents(ctx, id)
	require.NoError(t, err)
	assert.Empty(t, charges)
	assert.Empty(t, payments)

	assert.True(t, ledger.IsNotFound(st.DeleteTenant(ctx, id)), "second delete finds nothing")
}

// =============================================================================
// THE UNIQUE INDEX
// =============================================================================

func TestStore_InsertChargeIfAbsent_SecondInsertReportsExists(t *testing.T) {
	st := newStore(t)
	ctx := context.Background()
	id := seedTenant(t, st)
	jan := ledger.Period{Year: 2024, Month: time.January}

	outcome, err := st.InsertChargeIfAbsent(ctx, id, jan, amt("12500"), "Monthly Rent")
	require.NoError(t, err)
	assert.Equal(t, ledger.Inserted, outcome)

	outcome, err = st.InsertChargeIfAbsent(ctx, id, jan, amt("12500"), "Monthly Rent")
	require.NoError(t, err, "a duplicate period is an outcome, not an error")
	assert.Equal(t, ledger.AlreadyExists, outcome)

	charges, _, err := st.ListEvents(ctx, id)
	require.NoError(t, err)
	assert.Len(t, charges, 1)
}

func TestStore_InsertChargeIfAbsent_ConcurrentRace_OneWinner(t *testing.T) {
	// GIVEN: Eight goroutines inserting the same (tenant, period)
	// WHEN: They race on the unique index
	// THEN: Exactly one observes Inserted; one row exists

	st := newStore(t)
	ctx := context.Background()
	id := seedTenant(t, st)
	jan := ledger.Period{Year: 2024, Month: time.January}

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
			outcome, err := st.InsertChargeIfAbsent(ctx, id, jan, amt("12500"), "Monthly Rent")
			assert.NoError(t, err)
			if outcome == ledger.Inserted {
				mu.Lock()
				inserted++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, inserted)

	charges, _, err := st.ListEvents(ctx, id)
	require.NoError(t, err)
	assert.Len(t, charges, 1)
}

func TestStore_InsertChargeIfAbsent_MissingTenant_NotFound(t *testing.T) {
	st := newStore(t)

	_, err := st.InsertChargeIfAbsent(context.Background(), ledger.TenantID(99),
		ledger.Period{Year: 2024, Month: time.January}, amt("100"), "Monthly Rent")

	assert.True(t, ledger.IsNotFound(err))
}

// =============================================================================
// AGGREGATES
// =============================================================================

func TestStore_Sums_RespectPeriodFilters(t *testing.T) {
	st := newStore(t)
	ctx := context.Background()
	id := seedTenant(t, st)
	march := ledger.Period{Year: 2024, Month: time.March}

	_, err := st.InsertChargeIfAbsent(ctx, id, march, amt("12500"), "Monthly Rent")
	require.NoError(t, err)
	_, err = st.InsertChargeIfAbsent(ctx, id, march.Next(), amt("12500"), "Monthly Rent")
	require.NoError(t, err)

	// One payment on the last day of March, one on the first of April.
	_, err = st.InsertPayment(ctx, id, ledger.NewPayment{PaidOn: day(2024, time.March, 31), Amount: amt("7000")})
	require.NoError(t, err)
	_, err = st.InsertPayment(ctx, id, ledger.NewPayment{PaidOn: day(2024, time.April, 1), Amount: amt("4000")})
	require.NoError(t, err)

	marchCharges, err := st.SumCharges(ctx, id, &march)
	require.NoError(t, err)
	assert.True(t, marchCharges.Equal(amt("12500")))

	allCharges, err := st.SumCharges(ctx, id, nil)
	require.NoError(t, err)
	assert.True(t, allCharges.Equal(amt("25000")))

	marchPayments, err := st.SumPayments(ctx, id, &march)
	require.NoError(t, err)
	assert.True(t, marchPayments.Equal(amt("7000")), "April 1st stays out of March")

	allPayments, err := st.SumPayments(ctx, id, nil)
	require.NoError(t, err)
	assert.True(t, allPayments.Equal(amt("11000")))
}

func TestStore_Sums_ExactDecimalArithmetic(t *testing.T) {
	// Three 0.1 payments must total exactly 0.3.
	st := newStore(t)
	ctx := context.Background()
	id := seedTenant(t, st)

	for i := 0; i < 3; i++ {
		_, err := st.InsertPayment(ctx, id, ledger.NewPayment{PaidOn: day(2024, time.March, 1+i), Amount: amt("0.1")})
		require.NoError(t, err)
	}

	total, err := st.SumPayments(ctx, id, nil)
	require.NoError(t, err)
	assert.Equal(t, "0.3", total.String())
}

func TestStore_LatestChargedPeriod(t *testing.T) {
	st := newStore(t)
	ctx := context.Background()
	id := seedTenant(t, st)

	latest, err := st.LatestChargedPeriod(ctx, id)
	require.NoError(t, err)
	assert.Nil(t, latest, "no charges yet")

	for _, p := range []ledger.Period{
		{Year: 2023, Month: time.December},
		{Year: 2024, Month: time.February},
		{Year: 2024, Month: time.January},
	} {
		_, err := st.InsertChargeIfAbsent(ctx, id, p, amt("12500"), "Monthly Rent")
		require.NoError(t, err)
	}

	latest, err = st.LatestChargedPeriod(ctx, id)
	require.NoError(t, err)
	require.NotNil(t, latest)
	assert.Equal(t, "2024-02", latest.String())
}

func TestStore_ListPaymentsInPeriod_AcrossTenants_MostRecentFirst(t *testing.T) {
	st := newStore(t)
	ctx := context.Background()
	a := seedTenant(t, st)
	b, err := st.CreateTenant(ctx, ledger.NewTenant{
		Name: "S. Iyer", Rent: amt("9000"), JoinDate: day(2024, time.January, 1),
	})
	require.NoError(t, err)

	_, err = st.InsertPayment(ctx, a, ledger.NewPayment{PaidOn: day(2024, time.March, 5), Amount: amt("100")})
	require.NoError(t, err)
	_, err = st.InsertPayment(ctx, b, ledger.NewPayment{PaidOn: day(2024, time.March, 20), Amount: amt("200")})
	require.NoError(t, err)
	_, err = st.InsertPayment(ctx, a, ledger.NewPayment{PaidOn: day(2024, time.April, 1), Amount: amt("300")})
	require.NoError(t, err)

	payments, err := st.ListPaymentsInPeriod(ctx, ledger.Period{Year: 2024, Month: time.March})
	require.NoError(t, err)
	require.Len(t, payments, 2)
	assert.True(t, payments[0].PaidOn.Equal(day(2024, time.March, 20)))
	assert.True(t, payments[1].PaidOn.Equal(day(2024, time.March, 5)))
}

// =============================================================================
// TRANSACTIONS
// =============================================================================

func TestStore_WithTx_ReadsOwnWrites(t *testing.T) {
	st := newStore(t)
	ctx := context.Background()
	id := seedTenant(t, st)

	err := st.WithTx(ctx, func(s ledger.Store) error {
		if _, err := s.InsertPayment(ctx, id, ledger.NewPayment{PaidOn: day(2024, time.March, 10), Amount: amt("5000")}); err != nil {
			return err
		}
		total, err := s.SumPayments(ctx, id, nil)
		if err != nil {
			return err
		}
		assert.True(t, total.Equal(amt("5000")), "the uncommitted insert must be visible inside the transaction")
		return nil
	})
	require.NoError(t, err)

	total, err := st.SumPayments(ctx, id, nil)
	require.NoError(t, err)
	assert.True(t, total.Equal(amt("5000")))
}

func TestStore_WithTx_RollsBackOnError(t *testing.T) {
	st := newStore(t)
	ctx := context.Background()
	id := seedTenant(t, st)
	boom := errors.New("boom")

	err := st.WithTx(ctx, func(s ledger.Store) error {
		if _, err := s.InsertPayment(ctx, id, ledger.NewPayment{PaidOn: day(2024, time.March, 10), Amount: amt("5000")}); err != nil {
			return err
		}
		return boom
	})
	require.ErrorIs(t, err, boom)

	total, err := st.SumPayments(ctx, id, nil)
	require.NoError(t, err)
	assert.True(t, total.IsZero(), "the failed transaction must leave no payment behind")
}

// =============================================================================
// RESET
// =============================================================================

func TestStore_Reset_ClearsRowsAndRestartsIDs(t *testing.T) {
	st := newStore(t)
	ctx := context.Background()
	first := seedTenant(t, st)

	require.NoError(t, st.Reset(ctx))

	tenants, err := st.ListTenants(ctx)
	require.NoError(t, err)
	assert.Empty(t, tenants)

	second := seedTenant(t, st)
	assert.Equal(t, first, second, "ID sequences restart after a reset")
}
