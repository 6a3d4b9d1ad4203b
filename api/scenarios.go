/*
scenarios.go - Demo scenario loaders for testing and demonstrations

PURPOSE:
  Provides pre-built scenarios that populate the store with realistic
  data for testing and demos. Each scenario creates tenants with
  histories that demonstrate specific standings: reliable payers,
  growing arrears, carried-over debt, brand-new tenancies.

AVAILABLE SCENARIOS:
  starter-building: Three tenants with mixed payment histories
  arrears-tenant:   Old ledger-book debt plus chronic partial payments
  new-tenant:       Joined this month, first charge just generated

HOW SCENARIOS WORK:
 1. Reset the store (clear all data)
 2. Create tenants, dated relative to the current period
 3. Record payments through the engine (receipts and all)
 4. Backfill so every month through the current one is charged

USAGE VIA API:

	POST /api/scenarios/load
	{"scenario_id": "starter-building"}

ADDING NEW SCENARIOS:
 1. Add to the 'scenarios' slice with ID, name, description
 2. Create loader function: loadXxxScenario(ctx)
 3. Add case to LoadScenario

NOTE:
  Scenarios reset the store. Only use in development/demo environments.

SEE ALSO:
  - handlers.go: writeJSON/writeError plumbing
  - factory/tenant.go: the roster import path demos migrate through
*/
package api

import (
	"context"
	"net/http"
	"time"

	"github.com/warp/rent-ledger/ledger"
)

// =============================================================================
// SCENARIO DEFINITIONS
// =============================================================================

var scenarios = []ScenarioDTO{
	{
		ID:          "starter-building",
		Name:        "Starter Building",
		Description: "Three tenants: one reliable, one sliding into arrears, one paying late",
	},
	{
		ID:          "arrears-tenant",
		Name:        "Arrears Tenant",
		Description: "Old ledger-book debt as opening balance, chronic partial payments",
	},
	{
		ID:          "new-tenant",
		Name:        "New Tenant",
		Description: "Joined this month; first charge generated, nothing paid yet",
	},
}

// resettable is the optional store capability scenarios need.
type resettable interface {
	Reset(ctx context.Context) error
}

// ListScenarios returns available scenarios.
func (h *Handler) ListScenarios(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, scenarios)
}

// GetCurrentScenario returns the currently loaded scenario, if any.
func (h *Handler) GetCurrentScenario(w http.ResponseWriter, r *http.Request) {
	h.mu.Lock()
	current := h.currentScenario
	h.mu.Unlock()

	if current == "" {
		writeJSON(w, http.StatusOK, nil)
		return
	}
	for _, s := range scenarios {
		if s.ID == current {
			writeJSON(w, http.StatusOK, s)
			return
		}
	}
	writeJSON(w, http.StatusOK, ScenarioDTO{ID: current, Name: current})
}

// LoadScenario wipes the store and loads a predefined scenario.
func (h *Handler) LoadScenario(w http.ResponseWriter, r *http.Request) {
	var req LoadScenarioRequest
	if !h.bind(w, r, &req) {
		return
	}

	st, ok := h.Store.(resettable)
	if !ok {
		writeError(w, http.StatusInternalServerError, "Store does not support reset", nil)
		return
	}

	ctx := r.Context()
	if err := st.Reset(ctx); err != nil {
		writeDomainError(w, "Failed to reset store", err)
		return
	}
	h.mu.Lock()
	h.currentScenario = ""
	h.mu.Unlock()

	var err error
	switch req.ScenarioID {
	case "starter-building":
		err = h.loadStarterBuildingScenario(ctx)
	case "arrears-tenant":
		err = h.loadArrearsTenantScenario(ctx)
	case "new-tenant":
		err = h.loadNewTenantScenario(ctx)
	default:
		writeError(w, http.StatusBadRequest, "Unknown scenario", nil)
		return
	}
	if err != nil {
		writeDomainError(w, "Failed to load scenario", err)
		return
	}

	h.mu.Lock()
	h.currentScenario = req.ScenarioID
	h.mu.Unlock()

	h.Log.Info("scenario loaded", "scenario", req.ScenarioID)
	writeJSON(w, http.StatusOK, map[string]string{"status": "loaded", "scenario": req.ScenarioID})
}

// =============================================================================
// SCENARIO LOADERS
// =============================================================================

// loadStarterBuildingScenario seeds three tenants whose standings cover
// the dashboard's interesting cases.
func (h *Handler) loadStarterBuildingScenario(ctx context.Context) error {
	// Reliable payer: five months of history, each month settled on the 3rd.
	sharma, err := h.Store.CreateTenant(ctx, ledger.NewTenant{
		Name:          "A. Sharma",
		Rent:          ledger.MustParseAmount("12000"),
		RentalAddress: "Flat 2B, Rose Villa",
		JoinDate:      h.monthsAgo(5),
	})
	if err != nil {
		return err
	}
	for m := 5; m >= 0; m-- {
		if err := h.seedPayment(ctx, sharma, h.monthsAgo(m).AddDate(0, 0, 2), "12000", "UPI", ""); err != nil {
			return err
		}
	}

	// Sliding into arrears: four full months, two partial, then silence.
	verma, err := h.Store.CreateTenant(ctx, ledger.NewTenant{
		Name:          "R. Verma",
		Rent:          ledger.MustParseAmount("9500"),
		RentalAddress: "Flat 1A, Rose Villa",
		JoinDate:      h.monthsAgo(8),
	})
	if err != nil {
		return err
	}
	for m := 8; m >= 5; m-- {
		if err := h.seedPayment(ctx, verma, h.monthsAgo(m).AddDate(0, 0, 5), "9500", "Cash", ""); err != nil {
			return err
		}
	}
	for m := 4; m >= 3; m-- {
		if err := h.seedPayment(ctx, verma, h.monthsAgo(m).AddDate(0, 0, 5), "5000", "Cash", "partial"); err != nil {
			return err
		}
	}

	// Late payer: covered the join month a month late, current month open.
	iyer, err := h.Store.CreateTenant(ctx, ledger.NewTenant{
		Name:          "S. Iyer",
		Rent:          ledger.MustParseAmount("15000"),
		RentalAddress: "Penthouse, Rose Villa",
		JoinDate:      h.monthsAgo(2),
	})
	if err != nil {
		return err
	}
	if err := h.seedPayment(ctx, iyer, h.monthsAgo(1).AddDate(0, 0, 11), "15000", "Bank Transfer", "previous month"); err != nil {
		return err
	}

	_, err = h.Engine.EnsureAllBackfilled(ctx)
	return err
}

// loadArrearsTenantScenario seeds one tenant whose pre-system debt came
// in as an opening balance and whose payments never quite cover rent.
func (h *Handler) loadArrearsTenantScenario(ctx context.Context) error {
	qureshi, err := h.Store.CreateTenant(ctx, ledger.NewTenant{
		Name:            "M. Qureshi",
		Rent:            ledger.MustParseAmount("11000"),
		RentalAddress:   "Shop 4, Iqbal Market",
		OriginalAddress: "House 17, Old City",
		JoinDate:        h.monthsAgo(6),
		OpeningBalance:  ledger.MustParseAmount("18000"),
	})
	if err != nil {
		return err
	}
	for m := 6; m >= 0; m-- {
		if err := h.seedPayment(ctx, qureshi, h.monthsAgo(m).AddDate(0, 0, 6), "8000", "Cash", "partial"); err != nil {
			return err
		}
	}

	_, err = h.Engine.EnsureAllBackfilled(ctx)
	return err
}

// loadNewTenantScenario seeds a tenancy that began this month.
func (h *Handler) loadNewTenantScenario(ctx context.Context) error {
	_, err := h.Store.CreateTenant(ctx, ledger.NewTenant{
		Name:          "P. Nair",
		Rent:          ledger.MustParseAmount("9800"),
		RentalAddress: "Flat 3C, Rose Villa",
		JoinDate:      h.monthsAgo(0).AddDate(0, 0, 9),
	})
	if err != nil {
		return err
	}

	_, err = h.Engine.EnsureAllBackfilled(ctx)
	return err
}

// =============================================================================
// SEEDING HELPERS
// =============================================================================

// monthsAgo returns the first day of the month n months before the
// current period, on the engine's clock.
func (h *Handler) monthsAgo(n int) time.Time {
	return h.Engine.CurrentPeriod().Start().AddDate(0, -n, 0)
}

func (h *Handler) seedPayment(ctx context.Context, id ledger.TenantID, on time.Time, amount, method, remarks string) error {
	_, err := h.Engine.RecordPayment(ctx, id, ledger.NewPayment{
		PaidOn:   on,
		Amount:   ledger.MustParseAmount(amount),
		Method:   method,
		Operator: "demo-seed",
		Remarks:  remarks,
	})
	return err
}
