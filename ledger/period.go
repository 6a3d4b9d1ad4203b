package ledger

import (
	"fmt"
	"time"
)

// =============================================================================
// PERIOD - A calendar month, identified by its first day
// =============================================================================
//
// All month arithmetic in the engine routes through this type. Charges are
// keyed by Period; payments are dated by day and bucketed into periods only
// for aggregate queries.

type Period struct {
	Year  int
	Month time.Month
}

// PeriodOf truncates any instant to its enclosing calendar month.
func PeriodOf(t time.Time) Period {
	y, m, _ := t.Date()
	return Period{Year: y, Month: m}
}

// ParsePeriod parses the "2006-01" form.
func ParsePeriod(s string) (Period, error) {
	t, err := time.Parse("2006-01", s)
	if err != nil {
		return Period{}, fmt.Errorf("invalid period %q: %w", s, err)
	}
	return PeriodOf(t), nil
}

// ParsePeriodKey parses the storage key form, the month's first day as
// "2006-01-02".
func ParsePeriodKey(s string) (Period, error) {
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		return Period{}, fmt.Errorf("invalid period key %q: %w", s, err)
	}
	return PeriodOf(t), nil
}

// Next returns the following month, rolling December into January.
func (p Period) Next() Period {
	if p.Month == time.December {
		return Period{Year: p.Year + 1, Month: time.January}
	}
	return Period{Year: p.Year, Month: p.Month + 1}
}

// Compare orders periods chronologically: -1 if p is before other, 0 if
// equal, +1 if after.
func (p Period) Compare(other Period) int {
	switch {
	case p.Year != other.Year:
		if p.Year < other.Year {
			return -1
		}
		return 1
	case p.Month != other.Month:
		if p.Month < other.Month {
			return -1
		}
		return 1
	default:
		return 0
	}
}

func (p Period) Before(other Period) bool { return p.Compare(other) < 0 }
func (p Period) After(other Period) bool  { return p.Compare(other) > 0 }
func (p Period) Equal(other Period) bool  { return p.Compare(other) == 0 }

// Start is the month's first day at midnight UTC.
func (p Period) Start() time.Time {
	return time.Date(p.Year, p.Month, 1, 0, 0, 0, 0, time.UTC)
}

// Contains reports whether the instant falls inside this month.
func (p Period) Contains(t time.Time) bool { return PeriodOf(t) == p }

// MonthsUntil counts the months from p to other, exclusive of p and
// inclusive of other. Zero when other is not after p.
func (p Period) MonthsUntil(other Period) int {
	if !other.After(p) {
		return 0
	}
	return (other.Year-p.Year)*12 + int(other.Month) - int(p.Month)
}

func (p Period) String() string { return fmt.Sprintf("%04d-%02d", p.Year, int(p.Month)) }

// Key is the storage form: the first day as an ISO date. Lexicographic
// order on keys matches chronological order.
func (p Period) Key() string { return p.Start().Format("2006-01-02") }

func (p Period) MarshalJSON() ([]byte, error) {
	return []byte(fmt.Sprintf("%q", p.String())), nil
}

func (p *Period) UnmarshalJSON(data []byte) error {
	s := string(data)
	if len(s) < 2 || s[0] != '"' || s[len(s)-1] != '"' {
		return fmt.Errorf("invalid period %s", s)
	}
	parsed, err := ParsePeriod(s[1 : len(s)-1])
	if err != nil {
		return err
	}
	*p = parsed
	return nil
}
