package ledger_test

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/warp/rent-ledger/ledger"
)

// =============================================================================
// MONTH ARITHMETIC
// =============================================================================

func TestPeriod_Next_AdvancesOneMonth(t *testing.T) {
	p := ledger.Period{Year: 2024, Month: time.March}
	next := p.Next()

	if next.Year != 2024 || next.Month != time.April {
		t.Errorf("expected 2024-04, got %s", next)
	}
}

func TestPeriod_Next_DecemberRollsIntoJanuary(t *testing.T) {
	p := ledger.Period{Year: 2023, Month: time.December}
	next := p.Next()

	if next.Year != 2024 || next.Month != time.January {
		t.Errorf("expected 2024-01, got %s", next)
	}
}

func TestPeriod_Compare_OrdersChronologically(t *testing.T) {
	jan := ledger.Period{Year: 2024, Month: time.January}
	feb := ledger.Period{Year: 2024, Month: time.February}
	decPrior := ledger.Period{Year: 2023, Month: time.December}

	if jan.Compare(feb) != -1 {
		t.Error("January should sort before February")
	}
	if feb.Compare(jan) != 1 {
		t.Error("February should sort after January")
	}
	if jan.Compare(jan) != 0 {
		t.Error("a period should equal itself")
	}
	if !decPrior.Before(jan) {
		t.Error("December 2023 should sort before January 2024 despite the later month number")
	}
}

func TestPeriod_MonthsUntil_CountsForward(t *testing.T) {
	jan := ledger.Period{Year: 2024, Month: time.January}
	apr := ledger.Period{Year: 2024, Month: time.April}
	nextFeb := ledger.Period{Year: 2025, Month: time.February}

	if got := jan.MonthsUntil(apr); got != 3 {
		t.Errorf("expected 3 months Jan->Apr, got %d", got)
	}
	if got := jan.MonthsUntil(nextFeb); got != 13 {
		t.Errorf("expected 13 months across the year boundary, got %d", got)
	}
	if got := apr.MonthsUntil(jan); got != 0 {
		t.Errorf("expected 0 months going backward, got %d", got)
	}
	if got := jan.MonthsUntil(jan); got != 0 {
		t.Errorf("expected 0 months to self, got %d", got)
	}
}

func TestPeriodOf_TruncatesToMonth(t *testing.T) {
	instant := time.Date(2024, time.March, 15, 13, 45, 0, 0, time.UTC)
	p := ledger.PeriodOf(instant)

	if p.Year != 2024 || p.Month != time.March {
		t.Errorf("expected 2024-03, got %s", p)
	}
	if !p.Contains(instant) {
		t.Error("a period should contain the instant it was derived from")
	}
	if p.Contains(time.Date(2024, time.April, 1, 0, 0, 0, 0, time.UTC)) {
		t.Error("March must not contain April 1st")
	}
}

func TestPeriod_Start_IsFirstDayMidnightUTC(t *testing.T) {
	p := ledger.Period{Year: 2024, Month: time.February}
	want := time.Date(2024, time.February, 1, 0, 0, 0, 0, time.UTC)

	if !p.Start().Equal(want) {
		t.Errorf("expected %s, got %s", want, p.Start())
	}
}

// =============================================================================
// PARSING AND KEYS
// =============================================================================

func TestParsePeriod_RoundTripsString(t *testing.T) {
	p, err := ledger.ParsePeriod("2024-03")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if p.String() != "2024-03" {
		t.Errorf("expected 2024-03, got %s", p)
	}

	if _, err := ledger.ParsePeriod("March 2024"); err == nil {
		t.Error("expected error for free-form input")
	}
}

func TestPeriod_Key_SortsLexicographically(t *testing.T) {
	// Storage relies on string ordering of keys matching time ordering.
	sep := ledger.Period{Year: 2024, Month: time.September}
	oct := ledger.Period{Year: 2024, Month: time.October}

	if sep.Key() != "2024-09-01" {
		t.Errorf("expected 2024-09-01, got %s", sep.Key())
	}
	if !(sep.Key() < oct.Key()) {
		t.Error("September key should sort before October key")
	}

	parsed, err := ledger.ParsePeriodKey(oct.Key())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !parsed.Equal(oct) {
		t.Errorf("key round trip changed the period: %s", parsed)
	}
}

func TestPeriod_JSON_UsesYearMonthForm(t *testing.T) {
	p := ledger.Period{Year: 2024, Month: time.March}

	data, err := json.Marshal(p)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if string(data) != `"2024-03"` {
		t.Errorf(`expected "2024-03", got %s`, data)
	}

	var back ledger.Period
	if err := json.Unmarshal(data, &back); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !back.Equal(p) {
		t.Errorf("round trip changed the period: %s", back)
	}
}
