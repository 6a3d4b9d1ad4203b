// Package reports assembles the read-only summaries built on top of the
// ledger: the per-tenant monthly report, the cross-tenant collections
// view, and the dashboard totals. Everything here is derived on demand
// from stored rows; nothing in this package writes.
package reports

import (
	"github.com/warp/rent-ledger/ledger"
)

// =============================================================================
// MONTHLY REPORT ROW - One tenant's standing in one period
// =============================================================================

// Row is one tenant's line in a monthly report. NetBalance is lifetime
// (payments minus obligations since joining); PeriodCharges and
// PeriodPayments cover only the reported month. The two flags answer
// different questions: Delinquent is period-local (did this month's
// payments cover this month's charges), InArrears is lifetime
// (net balance below zero). A tenant can be either without the other.
type Row struct {
	TenantID      ledger.TenantID
	Name          string
	RentalAddress string
	Rent          ledger.Amount

	NetBalance     ledger.Amount
	PeriodCharges  ledger.Amount
	PeriodPayments ledger.Amount

	Delinquent bool
	InArrears  bool
}

// =============================================================================
// COLLECTIONS - Every payment dated in one period, across tenants
// =============================================================================

// CollectionRow is a payment annotated with the tenant's name. The name
// is resolved at report time; a payment whose tenant has since been
// deleted cannot appear here because deletes cascade.
type CollectionRow struct {
	ledger.Payment
	TenantName string
}

// CollectionsSummary lists everything collected in one period, most
// recent payment first, with the running total.
type CollectionsSummary struct {
	Period ledger.Period
	Rows   []CollectionRow
	Total  ledger.Amount
}

// =============================================================================
// DASHBOARD - Roster-wide totals for the current period
// =============================================================================

// Summary is the dashboard snapshot for the current period.
// TotalOutstanding sums the amounts owed by tenants whose net balance
// is negative; tenants in credit do not offset it.
type Summary struct {
	Period           ledger.Period
	Tenants          int
	DelinquentCount  int
	TotalOutstanding ledger.Amount
	Collected        ledger.Amount
}
