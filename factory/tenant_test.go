package factory_test

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/warp/rent-ledger/factory"
	"github.com/warp/rent-ledger/ledger"
)

func TestParseRoster_ConvertsAllFields(t *testing.T) {
	f := factory.NewRosterFactory()

	tenants, err := f.ParseRoster(`{
		"tenants": [{
			"name": "A. Sharma",
			"rent": "10000.00",
			"rental_address": "Flat 2B, Rose Villa",
			"original_address": "12 Lake Road, Pune",
			"join_date": "2024-01-01",
			"opening_balance": "2500.50"
		}]
	}`)
	require.NoError(t, err)
	require.Len(t, tenants, 1)

	nt := tenants[0]
	assert.Equal(t, "A. Sharma", nt.Name)
	assert.True(t, nt.Rent.Equal(ledger.MustParseAmount("10000.00")))
	assert.Equal(t, "Flat 2B, Rose Villa", nt.RentalAddress)
	assert.Equal(t, "12 Lake Road, Pune", nt.OriginalAddress)
	assert.True(t, nt.JoinDate.Equal(time.Date(2024, time.January, 1, 0, 0, 0, 0, time.UTC)))
	assert.True(t, nt.OpeningBalance.Equal(ledger.MustParseAmount("2500.50")))
}

func TestParseRoster_OpeningBalanceDefaultsToZero(t *testing.T) {
	f := factory.NewRosterFactory()

	tenants, err := f.ParseRoster(`{
		"tenants": [{"name": "B. Rao", "rent": "8000", "join_date": "2023-11-01"}]
	}`)
	require.NoError(t, err)
	require.Len(t, tenants, 1)
	assert.True(t, tenants[0].OpeningBalance.IsZero())
}

func TestParseRoster_NegativeOpeningBalanceIsCredit(t *testing.T) {
	f := factory.NewRosterFactory()

	tenants, err := f.ParseRoster(`{
		"tenants": [{"name": "B. Rao", "rent": "8000", "join_date": "2023-11-01",
			"opening_balance": "-150.25"}]
	}`)
	require.NoError(t, err)
	assert.True(t, tenants[0].OpeningBalance.Equal(ledger.MustParseAmount("-150.25")))
}

func TestParseRoster_RejectsBadEntries(t *testing.T) {
	cases := []struct {
		name  string
		json  string
		field string
	}{
		{
			name:  "empty name",
			json:  `{"tenants": [{"name": "", "rent": "8000", "join_date": "2023-11-01"}]}`,
			field: "tenants[0].name",
		},
		{
			name:  "rent not a decimal",
			json:  `{"tenants": [{"name": "X", "rent": "eight thousand", "join_date": "2023-11-01"}]}`,
			field: "tenants[0].rent",
		},
		{
			name:  "negative rent",
			json:  `{"tenants": [{"name": "X", "rent": "-8000", "join_date": "2023-11-01"}]}`,
			field: "tenants[0].rent",
		},
		{
			name:  "unparseable join date",
			json:  `{"tenants": [{"name": "X", "rent": "8000", "join_date": "01/11/2023"}]}`,
			field: "tenants[0].join_date",
		},
		{
			name:  "bad opening balance",
			json:  `{"tenants": [{"name": "X", "rent": "8000", "join_date": "2023-11-01", "opening_balance": "lots"}]}`,
			field: "tenants[0].opening_balance",
		},
	}

	f := factory.NewRosterFactory()
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			tenants, err := f.ParseRoster(tc.json)
			require.Error(t, err)
			assert.Nil(t, tenants)
			assert.True(t, ledger.IsValidation(err))
			assert.Contains(t, err.Error(), tc.field)
		})
	}
}

func TestParseRoster_OneBadEntryRejectsTheWholeRoster(t *testing.T) {
	f := factory.NewRosterFactory()

	tenants, err := f.ParseRoster(`{
		"tenants": [
			{"name": "Good One", "rent": "5000", "join_date": "2024-01-01"},
			{"name": "Good Two", "rent": "6000", "join_date": "2024-02-01"},
			{"name": "", "rent": "7000", "join_date": "2024-03-01"}
		]
	}`)
	require.Error(t, err)
	assert.Nil(t, tenants, "a partial import would be worse than none")
	assert.Contains(t, err.Error(), "tenants[2]")
}

func TestParseRoster_MalformedJSON(t *testing.T) {
	f := factory.NewRosterFactory()

	_, err := f.ParseRoster(`{"tenants": [`)
	require.Error(t, err)
	assert.False(t, ledger.IsValidation(err), "syntax errors are not field errors")
}

func TestToJSON_RoundTrips(t *testing.T) {
	f := factory.NewRosterFactory()

	stored := []ledger.Tenant{
		{
			Name:           "A. Sharma",
			Rent:           ledger.MustParseAmount("10000"),
			RentalAddress:  "Flat 2B",
			JoinDate:       time.Date(2024, time.January, 1, 0, 0, 0, 0, time.UTC),
			OpeningBalance: ledger.MustParseAmount("2500.50"),
		},
		{
			Name:     "B. Rao",
			Rent:     ledger.MustParseAmount("8000"),
			JoinDate: time.Date(2023, time.November, 1, 0, 0, 0, 0, time.UTC),
		},
	}

	raw, err := json.Marshal(f.ToJSON(stored))
	require.NoError(t, err)

	back, err := f.ParseRoster(string(raw))
	require.NoError(t, err)
	require.Len(t, back, 2)
	assert.Equal(t, "A. Sharma", back[0].Name)
	assert.True(t, back[0].Rent.Equal(stored[0].Rent))
	assert.True(t, back[0].OpeningBalance.Equal(stored[0].OpeningBalance))
	assert.True(t, back[1].JoinDate.Equal(stored[1].JoinDate))
	assert.True(t, back[1].OpeningBalance.IsZero(), "zero opening balances are omitted on export")
}
