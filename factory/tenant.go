/*
Package factory provides JSON to Go tenant roster conversion.

PURPOSE:
  Converts JSON roster definitions into ledger.NewTenant values. This is
  the migration path for tenancies that predate the system: an operator
  exports the old records as JSON, and the factory turns them into
  creation inputs with the historical debt carried as opening balances.

JSON SCHEMA:
  {
    "tenants": [
      {
        "name": "A. Sharma",
        "rent": "10000.00",
        "rental_address": "Flat 2B, Rose Villa",
        "original_address": "12 Lake Road, Pune",
        "join_date": "2024-01-01",
        "opening_balance": "2500.00"
      }
    ]
  }

  Rent and opening_balance are decimal strings so values survive the
  round trip exactly; join_date is a calendar date (2006-01-02).
  opening_balance may be omitted (zero) or negative (pre-existing
  credit).

USAGE:
  factory := factory.NewRosterFactory()
  tenants, err := factory.ParseRoster(jsonStr)
  for _, nt := range tenants {
      id, err := store.CreateTenant(ctx, nt)
  }

SEE ALSO:
  - ledger/types.go: NewTenant, the conversion target
  - api/handlers.go: the import endpoint built on this factory
*/
package factory

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/warp/rent-ledger/ledger"
)

// dateFormat is the calendar-date layout used by roster files.
const dateFormat = "2006-01-02"

// =============================================================================
// JSON SCHEMA TYPES
// =============================================================================

// RosterJSON is the JSON representation of a tenant roster.
type RosterJSON struct {
	Tenants []TenantJSON `json:"tenants"`
}

// TenantJSON is one roster entry. Amounts are decimal strings.
type TenantJSON struct {
	Name            string `json:"name"`
	Rent            string `json:"rent"`
	RentalAddress   string `json:"rental_address,omitempty"`
	OriginalAddress string `json:"original_address,omitempty"`
	JoinDate        string `json:"join_date"`
	OpeningBalance  string `json:"opening_balance,omitempty"`
}

// =============================================================================
// ROSTER FACTORY
// =============================================================================

// RosterFactory converts JSON rosters to creation inputs and back.
type RosterFactory struct{}

// NewRosterFactory creates a new roster factory.
func NewRosterFactory() *RosterFactory {
	return &RosterFactory{}
}

// ParseRoster parses a JSON string into creation inputs. Entries are
// validated up front so a bad roster is rejected whole rather than
// imported halfway.
func (f *RosterFactory) ParseRoster(jsonStr string) ([]ledger.NewTenant, error) {
	var rj RosterJSON
	if err := json.Unmarshal([]byte(jsonStr), &rj); err != nil {
		return nil, fmt.Errorf("failed to parse roster JSON: %w", err)
	}
	return f.FromJSON(rj)
}

// FromJSON converts RosterJSON to creation inputs.
func (f *RosterFactory) FromJSON(rj RosterJSON) ([]ledger.NewTenant, error) {
	tenants := make([]ledger.NewTenant, 0, len(rj.Tenants))
	for i, tj := range rj.Tenants {
		nt, err := fromTenantJSON(i, tj)
		if err != nil {
			return nil, err
		}
		tenants = append(tenants, nt)
	}
	return tenants, nil
}

// ToJSON converts stored tenants to the roster representation, the
// reverse direction used for export and backup.
func (f *RosterFactory) ToJSON(tenants []ledger.Tenant) RosterJSON {
	rj := RosterJSON{Tenants: make([]TenantJSON, 0, len(tenants))}
	for _, t := range tenants {
		tj := TenantJSON{
			Name:            t.Name,
			Rent:            t.Rent.String(),
			RentalAddress:   t.RentalAddress,
			OriginalAddress: t.OriginalAddress,
			JoinDate:        t.JoinDate.Format(dateFormat),
		}
		if !t.OpeningBalance.IsZero() {
			tj.OpeningBalance = t.OpeningBalance.String()
		}
		rj.Tenants = append(rj.Tenants, tj)
	}
	return rj
}

// =============================================================================
// CONVERSION HELPERS
// =============================================================================

// fromTenantJSON validates and converts one entry. Field names in the
// returned errors carry the entry index so an operator can find the bad
// line in a large roster.
func fromTenantJSON(i int, tj TenantJSON) (ledger.NewTenant, error) {
	if tj.Name == "" {
		return ledger.NewTenant{}, entryErr(i, "name", "must not be empty")
	}

	rent, err := ledger.ParseAmount(tj.Rent)
	if err != nil {
		return ledger.NewTenant{}, entryErr(i, "rent", "must be a decimal string")
	}
	if rent.IsNegative() {
		return ledger.NewTenant{}, entryErr(i, "rent", "must not be negative")
	}

	joined, err := time.Parse(dateFormat, tj.JoinDate)
	if err != nil {
		return ledger.NewTenant{}, entryErr(i, "join_date", "must be a 2006-01-02 date")
	}

	opening := ledger.ZeroAmount()
	if tj.OpeningBalance != "" {
		opening, err = ledger.ParseAmount(tj.OpeningBalance)
		if err != nil {
			return ledger.NewTenant{}, entryErr(i, "opening_balance", "must be a decimal string")
		}
	}

	return ledger.NewTenant{
		Name:            tj.Name,
		Rent:            rent,
		RentalAddress:   tj.RentalAddress,
		OriginalAddress: tj.OriginalAddress,
		JoinDate:        joined,
		OpeningBalance:  opening,
	}, nil
}

func entryErr(i int, field, reason string) error {
	return &ledger.ValidationError{
		Field:  fmt.Sprintf("tenants[%d].%s", i, field),
		Reason: reason,
	}
}
