/*
handlers.go - HTTP API handlers for the rent ledger engine

PURPOSE:
  Exposes the ledger engine via REST API. Handles HTTP request/response,
  JSON serialization, and delegates to domain logic.

ENDPOINTS:
  Tenants:
    GET    /api/tenants                List all tenants
    POST   /api/tenants                Create tenant
    GET    /api/tenants/{id}           Tenant with net balance and standing
    PATCH  /api/tenants/{id}           Partial update (rent, name, addresses)
    DELETE /api/tenants/{id}           Delete tenant (cascades)
    POST   /api/tenants/import         Import a JSON roster

  Charges:
    POST   /api/tenants/{id}/backfill  Bring one tenant's charges current
    POST   /api/backfill               Bring every tenant's charges current

  Ledger:
    GET    /api/tenants/{id}/ledger     Full statement with running balance
    GET    /api/tenants/{id}/balance    Net balance and delinquency
    GET    /api/tenants/{id}/projection Balance priced through a future period

  Payments:
    POST   /api/tenants/{id}/payments  Record a payment, returns the receipt
    GET    /api/payments               Collections for a period

  Reports:
    GET    /api/reports/monthly        Per-tenant monthly report
    GET    /api/reports/dashboard      Roster-wide totals

  Scenarios:
    GET    /api/scenarios              List demo scenarios
    POST   /api/scenarios/load         Load a demo scenario (resets data)

BACKFILL CONTRACT:
  Every endpoint that serves a balance runs the tenant's backfill first,
  so a statement can never be missing the current month's charge. The
  engine itself never self-schedules; this layer owns the "ensure before
  read" discipline.

REQUEST FLOW:
  1. Parse HTTP request
  2. Validate input (go-playground/validator on request DTOs)
  3. Call domain logic (engine, reporter, store)
  4. Serialize response
  5. Map domain errors to status codes

ERROR HANDLING:
  Errors are returned as the ErrorResponse envelope with the status
  derived from the domain taxonomy:
  - 400: ValidationError, malformed input
  - 404: NotFoundError
  - 500: StorageError, anything unexpected

SEE ALSO:
  - dto.go: Request/response data structures
  - scenarios.go: Demo scenario loaders
  - server.go: Router setup and middleware
*/
package api

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"reflect"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/warp/rent-ledger/factory"
	"github.com/warp/rent-ledger/ledger"
	"github.com/warp/rent-ledger/reports"
)

// =============================================================================
// HANDLER CONTEXT
// =============================================================================

// Handler holds all dependencies for HTTP handlers.
type Handler struct {
	Engine   *ledger.Engine
	Store    ledger.Store
	Reporter *reports.Reporter
	Roster   *factory.RosterFactory
	Log      *slog.Logger

	validate *validator.Validate

	// Track currently loaded scenario. Guarded because handlers run on
	// concurrent request goroutines.
	mu              sync.Mutex
	currentScenario string
}

// NewHandler creates a new handler around an engine. The reporter shares
// the engine's store.
func NewHandler(engine *ledger.Engine, log *slog.Logger) *Handler {
	if log == nil {
		log = slog.Default()
	}

	v := validator.New()
	// Report validation failures under the JSON field names clients sent.
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})

	return &Handler{
		Engine:   engine,
		Store:    engine.Store,
		Reporter: reports.NewReporter(engine.Store, engine),
		Roster:   factory.NewRosterFactory(),
		Log:      log.With("component", "api"),
		validate: v,
	}
}

// Health reports liveness.
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// =============================================================================
// TENANT HANDLERS
// =============================================================================

// ListTenants returns all tenants.
func (h *Handler) ListTenants(w http.ResponseWriter, r *http.Request) {
	tenants, err := h.Store.ListTenants(r.Context())
	if err != nil {
		writeDomainError(w, "Failed to list tenants", err)
		return
	}

	dtos := make([]TenantDTO, len(tenants))
	for i, t := range tenants {
		dtos[i] = toTenantDTO(t)
	}
	writeJSON(w, http.StatusOK, dtos)
}

// GetTenant returns a single tenant together with its derived standing.
// Charges are brought current first so the balance includes this month.
func (h *Handler) GetTenant(w http.ResponseWriter, r *http.Request) {
	id, ok := tenantIDParam(w, r)
	if !ok {
		return
	}
	ctx := r.Context()

	if _, err := h.Engine.EnsureCurrentThroughBackfilled(ctx, id); err != nil {
		writeDomainError(w, "Failed to bring charges current", err)
		return
	}
	tenant, err := h.Store.Tenant(ctx, id)
	if err != nil {
		writeDomainError(w, "Failed to load tenant", err)
		return
	}
	net, err := h.Engine.NetBalance(ctx, id)
	if err != nil {
		writeDomainError(w, "Failed to compute balance", err)
		return
	}
	delinquent, err := h.Engine.IsCurrentPeriodDelinquent(ctx, id)
	if err != nil {
		writeDomainError(w, "Failed to compute delinquency", err)
		return
	}

	writeJSON(w, http.StatusOK, TenantDetailDTO{
		TenantDTO:         toTenantDTO(*tenant),
		NetBalance:        net.String(),
		CurrentDelinquent: delinquent,
	})
}

// CreateTenant creates a new tenant.
func (h *Handler) CreateTenant(w http.ResponseWriter, r *http.Request) {
	var req CreateTenantRequest
	if !h.bind(w, r, &req) {
		return
	}

	rent, err := parseAmountField("rent", req.Rent)
	if err != nil {
		writeDomainError(w, "Invalid amount", err)
		return
	}
	opening := ledger.ZeroAmount()
	if req.OpeningBalance != "" {
		opening, err = parseAmountField("opening_balance", req.OpeningBalance)
		if err != nil {
			writeDomainError(w, "Invalid amount", err)
			return
		}
	}
	joined, err := time.Parse(dateFormat, req.JoinDate)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid join_date format (use YYYY-MM-DD)", err)
		return
	}

	ctx := r.Context()
	id, err := h.Store.CreateTenant(ctx, ledger.NewTenant{
		Name:            req.Name,
		Rent:            rent,
		RentalAddress:   req.RentalAddress,
		OriginalAddress: req.OriginalAddress,
		JoinDate:        joined,
		OpeningBalance:  opening,
	})
	if err != nil {
		writeDomainError(w, "Failed to create tenant", err)
		return
	}

	tenant, err := h.Store.Tenant(ctx, id)
	if err != nil {
		writeDomainError(w, "Failed to load tenant", err)
		return
	}
	writeJSON(w, http.StatusCreated, toTenantDTO(*tenant))
}

// UpdateTenant applies a partial update. Absent fields stay untouched;
// join date and opening balance cannot change at all.
func (h *Handler) UpdateTenant(w http.ResponseWriter, r *http.Request) {
	id, ok := tenantIDParam(w, r)
	if !ok {
		return
	}
	var req UpdateTenantRequest
	if !h.bind(w, r, &req) {
		return
	}

	upd := ledger.TenantUpdate{
		Name:            req.Name,
		RentalAddress:   req.RentalAddress,
		OriginalAddress: req.OriginalAddress,
	}
	if req.Rent != nil {
		rent, err := parseAmountField("rent", *req.Rent)
		if err != nil {
			writeDomainError(w, "Invalid amount", err)
			return
		}
		upd.Rent = &rent
	}

	ctx := r.Context()
	if err := h.Store.UpdateTenant(ctx, id, upd); err != nil {
		writeDomainError(w, "Failed to update tenant", err)
		return
	}

	tenant, err := h.Store.Tenant(ctx, id)
	if err != nil {
		writeDomainError(w, "Failed to load tenant", err)
		return
	}
	writeJSON(w, http.StatusOK, toTenantDTO(*tenant))
}

// DeleteTenant removes a tenant and every charge and payment row with it.
func (h *Handler) DeleteTenant(w http.ResponseWriter, r *http.Request) {
	id, ok := tenantIDParam(w, r)
	if !ok {
		return
	}

	if err := h.Store.DeleteTenant(r.Context(), id); err != nil {
		writeDomainError(w, "Failed to delete tenant", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"status": "deleted"})
}

// ImportTenants creates tenants from a JSON roster. The import is
// all-or-nothing when the store supports transactions: one bad row rolls
// back the lot.
func (h *Handler) ImportTenants(w http.ResponseWriter, r *http.Request) {
	var roster factory.RosterJSON
	if err := json.NewDecoder(r.Body).Decode(&roster); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	tenants, err := h.Roster.FromJSON(roster)
	if err != nil {
		writeDomainError(w, "Invalid roster", err)
		return
	}
	if len(tenants) == 0 {
		writeError(w, http.StatusBadRequest, "Roster has no tenants", nil)
		return
	}

	ctx := r.Context()
	var ids []int64
	create := func(s ledger.Store) error {
		ids = ids[:0]
		for _, nt := range tenants {
			id, err := s.CreateTenant(ctx, nt)
			if err != nil {
				return err
			}
			ids = append(ids, int64(id))
		}
		return nil
	}

	if tx, ok := h.Store.(ledger.TxStore); ok {
		err = tx.WithTx(ctx, create)
	} else {
		err = create(h.Store)
	}
	if err != nil {
		writeDomainError(w, "Failed to import roster", err)
		return
	}

	h.Log.Info("roster imported", "tenants", len(ids))
	writeJSON(w, http.StatusCreated, ImportResultDTO{Imported: len(ids), TenantIDs: ids})
}

// =============================================================================
// BACKFILL HANDLERS
// =============================================================================

// BackfillTenant brings one tenant's charges current.
func (h *Handler) BackfillTenant(w http.ResponseWriter, r *http.Request) {
	id, ok := tenantIDParam(w, r)
	if !ok {
		return
	}

	res, err := h.Engine.EnsureCurrentThroughBackfilled(r.Context(), id)
	if err != nil {
		writeDomainError(w, "Failed to bring charges current", err)
		return
	}
	writeJSON(w, http.StatusOK, BackfillResultDTO{TenantID: int64(id), Inserted: res.Inserted})
}

// BackfillAll brings every tenant's charges current.
func (h *Handler) BackfillAll(w http.ResponseWriter, r *http.Request) {
	total, err := h.Engine.EnsureAllBackfilled(r.Context())
	if err != nil {
		writeDomainError(w, "Failed to bring charges current", err)
		return
	}
	writeJSON(w, http.StatusOK, BackfillResultDTO{Inserted: total})
}

// =============================================================================
// LEDGER HANDLERS
// =============================================================================

// GetLedger returns the full statement for one tenant: opening balance,
// charges, and payments in display order with the running balance.
func (h *Handler) GetLedger(w http.ResponseWriter, r *http.Request) {
	id, ok := tenantIDParam(w, r)
	if !ok {
		return
	}
	ctx := r.Context()

	if _, err := h.Engine.EnsureCurrentThroughBackfilled(ctx, id); err != nil {
		writeDomainError(w, "Failed to bring charges current", err)
		return
	}
	events, err := h.Engine.BuildLedger(ctx, id)
	if err != nil {
		writeDomainError(w, "Failed to build ledger", err)
		return
	}

	// The statement always has at least the opening event, and its final
	// running balance is the net balance.
	writeJSON(w, http.StatusOK, LedgerDTO{
		TenantID:   int64(id),
		Events:     toEventDTOs(events),
		NetBalance: events[len(events)-1].Running.String(),
	})
}

// GetBalance returns the net balance and delinquency standing.
func (h *Handler) GetBalance(w http.ResponseWriter, r *http.Request) {
	id, ok := tenantIDParam(w, r)
	if !ok {
		return
	}
	ctx := r.Context()

	if _, err := h.Engine.EnsureCurrentThroughBackfilled(ctx, id); err != nil {
		writeDomainError(w, "Failed to bring charges current", err)
		return
	}
	net, err := h.Engine.NetBalance(ctx, id)
	if err != nil {
		writeDomainError(w, "Failed to compute balance", err)
		return
	}
	delinquent, err := h.Engine.IsCurrentPeriodDelinquent(ctx, id)
	if err != nil {
		writeDomainError(w, "Failed to compute delinquency", err)
		return
	}

	writeJSON(w, http.StatusOK, BalanceDTO{
		TenantID:          int64(id),
		NetBalance:        net.String(),
		InArrears:         net.IsNegative(),
		CurrentDelinquent: delinquent,
		AsOfPeriod:        h.Engine.CurrentPeriod().String(),
	})
}

// GetProjection prices the balance through a future period, assuming the
// rent stays at its current rate and no payments arrive.
func (h *Handler) GetProjection(w http.ResponseWriter, r *http.Request) {
	id, ok := tenantIDParam(w, r)
	if !ok {
		return
	}

	raw := r.URL.Query().Get("through")
	if raw == "" {
		writeError(w, http.StatusBadRequest, "Missing through parameter (use YYYY-MM)", nil)
		return
	}
	through, err := ledger.ParsePeriod(raw)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid through parameter (use YYYY-MM)", err)
		return
	}

	ctx := r.Context()
	if _, err := h.Engine.EnsureCurrentThroughBackfilled(ctx, id); err != nil {
		writeDomainError(w, "Failed to bring charges current", err)
		return
	}
	projected, err := h.Engine.ProjectBalance(ctx, id, through)
	if err != nil {
		writeDomainError(w, "Failed to project balance", err)
		return
	}

	writeJSON(w, http.StatusOK, ProjectionDTO{
		TenantID:         int64(id),
		Through:          through.String(),
		ProjectedBalance: projected.String(),
	})
}

// =============================================================================
// PAYMENT HANDLERS
// =============================================================================

// RecordPayment records a received payment and returns the receipt.
// Charges are brought current first so the receipt's net balance already
// includes this month's rent.
func (h *Handler) RecordPayment(w http.ResponseWriter, r *http.Request) {
	id, ok := tenantIDParam(w, r)
	if !ok {
		return
	}
	var req RecordPaymentRequest
	if !h.bind(w, r, &req) {
		return
	}

	amount, err := parseAmountField("amount", req.Amount)
	if err != nil {
		writeDomainError(w, "Invalid amount", err)
		return
	}
	var paidOn time.Time
	if req.PaidOn != "" {
		paidOn, err = time.Parse(dateFormat, req.PaidOn)
		if err != nil {
			writeError(w, http.StatusBadRequest, "Invalid paid_on format (use YYYY-MM-DD)", err)
			return
		}
	}

	ctx := r.Context()
	if _, err := h.Engine.EnsureCurrentThroughBackfilled(ctx, id); err != nil {
		writeDomainError(w, "Failed to bring charges current", err)
		return
	}
	receipt, err := h.Engine.RecordPayment(ctx, id, ledger.NewPayment{
		PaidOn:   paidOn,
		Amount:   amount,
		Method:   req.Method,
		Operator: req.Operator,
		Remarks:  req.Remarks,
	})
	if err != nil {
		writeDomainError(w, "Failed to record payment", err)
		return
	}

	h.Log.Info("payment recorded",
		"tenant", int64(id), "amount", receipt.Amount.String(), "receipt", receipt.ReceiptNo)
	writeJSON(w, http.StatusCreated, toReceiptDTO(receipt))
}

// ListCollections returns the payments collected in a period across all
// tenants. GET /api/payments?period=YYYY-MM, defaulting to the current
// period.
func (h *Handler) ListCollections(w http.ResponseWriter, r *http.Request) {
	period, ok := h.periodParam(w, r)
	if !ok {
		return
	}

	sum, err := h.Reporter.Collections(r.Context(), period)
	if err != nil {
		writeDomainError(w, "Failed to list collections", err)
		return
	}

	dto := CollectionsDTO{
		Period:   sum.Period.String(),
		Payments: make([]PaymentDTO, len(sum.Rows)),
		Total:    sum.Total.String(),
	}
	for i, row := range sum.Rows {
		dto.Payments[i] = toPaymentDTO(row.Payment, row.TenantName)
	}
	writeJSON(w, http.StatusOK, dto)
}

// =============================================================================
// REPORT HANDLERS
// =============================================================================

// MonthlyReport returns the per-tenant report for a period.
// GET /api/reports/monthly?period=YYYY-MM, defaulting to the current
// period.
func (h *Handler) MonthlyReport(w http.ResponseWriter, r *http.Request) {
	period, ok := h.periodParam(w, r)
	if !ok {
		return
	}

	rows, err := h.Reporter.MonthlyReport(r.Context(), period)
	if err != nil {
		writeDomainError(w, "Failed to build report", err)
		return
	}

	dto := MonthlyReportDTO{Period: period.String(), Rows: make([]ReportRowDTO, len(rows))}
	for i, row := range rows {
		dto.Rows[i] = toReportRowDTO(row)
	}
	writeJSON(w, http.StatusOK, dto)
}

// Dashboard returns roster-wide totals for the current period.
func (h *Handler) Dashboard(w http.ResponseWriter, r *http.Request) {
	sum, err := h.Reporter.Dashboard(r.Context())
	if err != nil {
		writeDomainError(w, "Failed to build dashboard", err)
		return
	}

	writeJSON(w, http.StatusOK, DashboardDTO{
		Period:           sum.Period.String(),
		Tenants:          sum.Tenants,
		DelinquentCount:  sum.DelinquentCount,
		TotalOutstanding: sum.TotalOutstanding.String(),
		Collected:        sum.Collected.String(),
	})
}

// =============================================================================
// HELPERS
// =============================================================================

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, message string, err error) {
	resp := ErrorResponse{Error: message, Code: codeFor(status)}
	if err != nil {
		resp.Details = err.Error()
	}
	writeJSON(w, status, resp)
}

func codeFor(status int) string {
	switch status {
	case http.StatusBadRequest:
		return "bad_request"
	case http.StatusNotFound:
		return "not_found"
	case http.StatusTooManyRequests:
		return "rate_limited"
	default:
		return "internal"
	}
}

// writeDomainError translates the ledger error taxonomy into a status:
// rejected input is 400, a missing row is 404, everything else is 500.
func writeDomainError(w http.ResponseWriter, message string, err error) {
	switch {
	case ledger.IsValidation(err):
		writeError(w, http.StatusBadRequest, message, err)
	case ledger.IsNotFound(err):
		writeError(w, http.StatusNotFound, message, err)
	case errors.Is(err, ledger.ErrStorage):
		writeError(w, http.StatusInternalServerError, message, err)
	default:
		writeError(w, http.StatusInternalServerError, message, err)
	}
}

// bind decodes the JSON body into dst and runs struct validation,
// answering the request itself on failure.
func (h *Handler) bind(w http.ResponseWriter, r *http.Request, dst any) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return false
	}
	if err := h.validate.Struct(dst); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			details := make(map[string]string, len(verrs))
			for _, fe := range verrs {
				details[fe.Field()] = fe.Tag()
			}
			writeJSON(w, http.StatusBadRequest, ErrorResponse{
				Error:   "Validation failed",
				Code:    "bad_request",
				Details: details,
			})
			return false
		}
		writeError(w, http.StatusBadRequest, "Validation failed", err)
		return false
	}
	return true
}

// tenantIDParam parses the {id} route parameter, answering the request
// itself when it is not a number.
func tenantIDParam(w http.ResponseWriter, r *http.Request) (ledger.TenantID, bool) {
	raw := chi.URLParam(r, "id")
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid tenant id", err)
		return 0, false
	}
	return ledger.TenantID(id), true
}

// periodParam reads the period query parameter (YYYY-MM), defaulting to
// the current period when absent.
func (h *Handler) periodParam(w http.ResponseWriter, r *http.Request) (ledger.Period, bool) {
	raw := r.URL.Query().Get("period")
	if raw == "" {
		return h.Engine.CurrentPeriod(), true
	}
	period, err := ledger.ParsePeriod(raw)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid period parameter (use YYYY-MM)", err)
		return ledger.Period{}, false
	}
	return period, true
}

func parseAmountField(field, s string) (ledger.Amount, error) {
	a, err := ledger.ParseAmount(s)
	if err != nil {
		return ledger.Amount{}, &ledger.ValidationError{Field: field, Reason: "must be a decimal string"}
	}
	return a, nil
}
