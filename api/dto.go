/*
dto.go - Data Transfer Objects for API requests and responses

PURPOSE:
  Defines the JSON structures for API communication. These types decouple
  the internal domain model from the external API contract, allowing:
  - Field renaming without breaking clients
  - API-specific validation
  - Version evolution

NAMING CONVENTION:
  - *DTO: Response types returned to clients
  - *Request: Request body types from clients

MONEY AND DATES:
  Amounts cross the wire as decimal strings ("10000.00") so nothing is
  rounded through float64. Calendar dates are "2006-01-02"; periods are
  "2006-01"; timestamps are RFC3339.

VALIDATION:
  Request types carry go-playground/validator tags; handlers run them
  through the shared validator before touching the store. Decimal
  strings are validated by parsing, not by tag.

SEE ALSO:
  - handlers.go: Uses these types
  - factory/tenant.go: RosterJSON, the import request body
*/
package api

import (
	"time"

	"github.com/warp/rent-ledger/ledger"
	"github.com/warp/rent-ledger/reports"
)

// dateFormat is the wire layout for calendar dates.
const dateFormat = "2006-01-02"

// =============================================================================
// TENANT TYPES
// =============================================================================

// TenantDTO represents a tenant in API responses.
type TenantDTO struct {
	ID              int64  `json:"id"`
	Name            string `json:"name"`
	Rent            string `json:"rent"`
	RentalAddress   string `json:"rental_address,omitempty"`
	OriginalAddress string `json:"original_address,omitempty"`
	JoinDate        string `json:"join_date"`
	OpeningBalance  string `json:"opening_balance"`
	CreatedAt       string `json:"created_at,omitempty"`
}

// TenantDetailDTO is a tenant with its derived standing.
type TenantDetailDTO struct {
	TenantDTO
	NetBalance        string `json:"net_balance"`
	CurrentDelinquent bool   `json:"current_delinquent"`
}

// CreateTenantRequest is the request to create a tenant.
type CreateTenantRequest struct {
	Name            string `json:"name" validate:"required"`
	Rent            string `json:"rent" validate:"required"`
	RentalAddress   string `json:"rental_address"`
	OriginalAddress string `json:"original_address"`
	JoinDate        string `json:"join_date" validate:"required,datetime=2006-01-02"`
	OpeningBalance  string `json:"opening_balance" validate:"omitempty"`
}

// UpdateTenantRequest is a partial update; absent fields stay untouched.
// Join date and opening balance are not here: they are immutable.
type UpdateTenantRequest struct {
	Name            *string `json:"name,omitempty" validate:"omitempty,min=1"`
	Rent            *string `json:"rent,omitempty"`
	RentalAddress   *string `json:"rental_address,omitempty"`
	OriginalAddress *string `json:"original_address,omitempty"`
}

// =============================================================================
// BALANCE AND LEDGER TYPES
// =============================================================================

// BalanceDTO is a tenant's net standing.
type BalanceDTO struct {
	TenantID          int64  `json:"tenant_id"`
	NetBalance        string `json:"net_balance"`
	InArrears         bool   `json:"in_arrears"`
	CurrentDelinquent bool   `json:"current_delinquent"`
	AsOfPeriod        string `json:"as_of_period"`
}

// EventDTO is one row of the assembled ledger statement.
type EventDTO struct {
	Date        string `json:"date"`
	Kind        string `json:"kind"`
	Description string `json:"description"`
	Debit       string `json:"debit"`
	Credit      string `json:"credit"`
	Running     string `json:"running"`
}

// LedgerDTO is the full statement for one tenant.
type LedgerDTO struct {
	TenantID   int64      `json:"tenant_id"`
	Events     []EventDTO `json:"events"`
	NetBalance string     `json:"net_balance"`
}

// ProjectionDTO prices the balance through a future period.
type ProjectionDTO struct {
	TenantID         int64  `json:"tenant_id"`
	Through          string `json:"through"`
	ProjectedBalance string `json:"projected_balance"`
}

// BackfillResultDTO reports how many charges a catch-up run generated.
type BackfillResultDTO struct {
	TenantID int64 `json:"tenant_id,omitempty"`
	Inserted int   `json:"inserted"`
}

// =============================================================================
// PAYMENT TYPES
// =============================================================================

// RecordPaymentRequest is the request to record a received payment.
// PaidOn may be omitted (today), backdated, or postdated.
type RecordPaymentRequest struct {
	Amount   string `json:"amount" validate:"required"`
	PaidOn   string `json:"paid_on" validate:"omitempty,datetime=2006-01-02"`
	Method   string `json:"method"`
	Operator string `json:"operator"`
	Remarks  string `json:"remarks"`
}

// ReceiptDTO is the response after recording a payment.
type ReceiptDTO struct {
	PaymentID       int64  `json:"payment_id"`
	ReceiptNo       string `json:"receipt_no"`
	TenantID        int64  `json:"tenant_id"`
	TenantName      string `json:"tenant_name"`
	PaidOn          string `json:"paid_on"`
	Amount          string `json:"amount"`
	Method          string `json:"method,omitempty"`
	NetBalanceAfter string `json:"net_balance_after"`
}

// PaymentDTO is one collected payment in listings.
type PaymentDTO struct {
	ID         int64  `json:"id"`
	TenantID   int64  `json:"tenant_id"`
	TenantName string `json:"tenant_name,omitempty"`
	PaidOn     string `json:"paid_on"`
	Amount     string `json:"amount"`
	Method     string `json:"method,omitempty"`
	Operator   string `json:"operator,omitempty"`
	Remarks    string `json:"remarks,omitempty"`
	ReceiptNo  string `json:"receipt_no,omitempty"`
}

// CollectionsDTO lists a period's payments with their total.
type CollectionsDTO struct {
	Period   string       `json:"period"`
	Payments []PaymentDTO `json:"payments"`
	Total    string       `json:"total"`
}

// =============================================================================
// REPORT TYPES
// =============================================================================

// ReportRowDTO is one tenant's line in the monthly report.
type ReportRowDTO struct {
	TenantID       int64  `json:"tenant_id"`
	Name           string `json:"name"`
	RentalAddress  string `json:"rental_address,omitempty"`
	Rent           string `json:"rent"`
	NetBalance     string `json:"net_balance"`
	PeriodCharges  string `json:"period_charges"`
	PeriodPayments string `json:"period_payments"`
	Delinquent     bool   `json:"delinquent"`
	InArrears      bool   `json:"in_arrears"`
}

// MonthlyReportDTO is the full report for one period.
type MonthlyReportDTO struct {
	Period string         `json:"period"`
	Rows   []ReportRowDTO `json:"rows"`
}

// DashboardDTO is the roster-wide snapshot for the current period.
type DashboardDTO struct {
	Period           string `json:"period"`
	Tenants          int    `json:"tenants"`
	DelinquentCount  int    `json:"delinquent_count"`
	TotalOutstanding string `json:"total_outstanding"`
	Collected        string `json:"collected"`
}

// ImportResultDTO reports a roster import.
type ImportResultDTO struct {
	Imported  int     `json:"imported"`
	TenantIDs []int64 `json:"tenant_ids"`
}

// =============================================================================
// SCENARIO TYPES
// =============================================================================

// ScenarioDTO represents a demo scenario.
type ScenarioDTO struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
}

// LoadScenarioRequest selects the scenario to load.
type LoadScenarioRequest struct {
	ScenarioID string `json:"scenario_id" validate:"required"`
}

// ErrorResponse is the standard error envelope.
type ErrorResponse struct {
	Error   string `json:"error"`
	Code    string `json:"code,omitempty"`
	Details any    `json:"details,omitempty"`
}

// =============================================================================
// CONVERSION HELPERS
// =============================================================================

func toTenantDTO(t ledger.Tenant) TenantDTO {
	return TenantDTO{
		ID:              int64(t.ID),
		Name:            t.Name,
		Rent:            t.Rent.String(),
		RentalAddress:   t.RentalAddress,
		OriginalAddress: t.OriginalAddress,
		JoinDate:        t.JoinDate.Format(dateFormat),
		OpeningBalance:  t.OpeningBalance.String(),
		CreatedAt:       t.CreatedAt.Format(time.RFC3339),
	}
}

func toEventDTOs(events []ledger.Event) []EventDTO {
	dtos := make([]EventDTO, len(events))
	for i, e := range events {
		dtos[i] = EventDTO{
			Date:        e.Date.Format(dateFormat),
			Kind:        e.Kind.String(),
			Description: e.Description,
			Debit:       e.Debit.String(),
			Credit:      e.Credit.String(),
			Running:     e.Running.String(),
		}
	}
	return dtos
}

func toReceiptDTO(rc ledger.Receipt) ReceiptDTO {
	return ReceiptDTO{
		PaymentID:       int64(rc.PaymentID),
		ReceiptNo:       rc.ReceiptNo,
		TenantID:        int64(rc.TenantID),
		TenantName:      rc.TenantName,
		PaidOn:          rc.PaidOn.Format(dateFormat),
		Amount:          rc.Amount.String(),
		Method:          rc.Method,
		NetBalanceAfter: rc.NetBalanceAfter.String(),
	}
}

func toPaymentDTO(p ledger.Payment, tenantName string) PaymentDTO {
	return PaymentDTO{
		ID:         int64(p.ID),
		TenantID:   int64(p.TenantID),
		TenantName: tenantName,
		PaidOn:     p.PaidOn.Format(dateFormat),
		Amount:     p.Amount.String(),
		Method:     p.Method,
		Operator:   p.Operator,
		Remarks:    p.Remarks,
		ReceiptNo:  p.ReceiptNo,
	}
}

func toReportRowDTO(row reports.Row) ReportRowDTO {
	return ReportRowDTO{
		TenantID:       int64(row.TenantID),
		Name:           row.Name,
		RentalAddress:  row.RentalAddress,
		Rent:           row.Rent.String(),
		NetBalance:     row.NetBalance.String(),
		PeriodCharges:  row.PeriodCharges.String(),
		PeriodPayments: row.PeriodPayments.String(),
		Delinquent:     row.Delinquent,
		InArrears:      row.InArrears,
	}
}
