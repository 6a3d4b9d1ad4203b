/*
ledger.go - Chronological statement assembly

PURPOSE:
  Merges a tenant's opening balance, charges, and payments into one
  ordered sequence of events with a running balance. This is the view a
  statement page or CSV export renders.

CRITICAL INVARIANTS:
  1. DERIVED: Events are computed on demand, never persisted
  2. ORDERING: Ascending by date; same-date ties break by kind
     (Opening < Charge < Payment), then by row insertion order
  3. FOLD FROM ZERO: The running balance starts at zero and the
     Opening event is the first fold step, not a pre-seeded value
  4. CONSISTENT: The final running balance equals NetBalance

WHY FOLD THE OPENING EVENT?
  Treating the opening balance as an ordinary debit keeps one code path
  for the fold and makes the statement self-explanatory: the first row
  shows exactly how the old notebook debt enters the books.

SEE ALSO:
  - balance.go: The aggregate views this sequence must agree with
  - types.go: Event and EventKind
*/
package ledger

import (
	"context"
	"sort"
	"strings"
)

// =============================================================================
// STATEMENT - Ordered events with running balance
// =============================================================================

// OpeningDescription labels the synthetic first event of every statement.
const OpeningDescription = "Opening Balance"

// BuildLedger returns the tenant's full event history in statement order.
// Exactly one Opening event is synthesized, dated at the join period's
// first day, with the opening balance as its debit.
func (c *Calculator) BuildLedger(ctx context.Context, id TenantID) ([]Event, error) {
	tenant, err := c.Store.Tenant(ctx, id)
	if err != nil {
		return nil, err
	}
	charges, payments, err := c.Store.ListEvents(ctx, id)
	if err != nil {
		return nil, err
	}

	events := make([]Event, 0, 1+len(charges)+len(payments))
	events = append(events, Event{
		Kind:        EventOpening,
		Date:        tenant.JoinPeriod().Start(),
		Description: OpeningDescription,
		Debit:       tenant.OpeningBalance,
		Credit:      ZeroAmount(),
	})
	for _, ch := range charges {
		events = append(events, Event{
			Kind:        EventCharge,
			Date:        ch.Period.Start(),
			Description: chargeDescription(ch),
			Debit:       ch.Amount,
			Credit:      ZeroAmount(),
			seq:         int64(ch.ID),
		})
	}
	for _, p := range payments {
		events = append(events, Event{
			Kind:        EventPayment,
			Date:        p.PaidOn,
			Description: paymentDescription(p),
			Debit:       ZeroAmount(),
			Credit:      p.Amount,
			seq:         int64(p.ID),
		})
	}

	sort.SliceStable(events, func(i, j int) bool {
		if !events[i].Date.Equal(events[j].Date) {
			return events[i].Date.Before(events[j].Date)
		}
		if events[i].Kind != events[j].Kind {
			return events[i].Kind < events[j].Kind
		}
		return events[i].seq < events[j].seq
	})

	running := ZeroAmount()
	for i := range events {
		running = running.Sub(events[i].Debit).Add(events[i].Credit)
		events[i].Running = running
	}
	return events, nil
}

func chargeDescription(ch Charge) string {
	if ch.Label != "" {
		return ch.Label
	}
	return DefaultChargeLabel
}

// paymentDescription renders "Cash by Priya - March rent" style text from
// whatever metadata the payment carries, falling back to "Payment".
func paymentDescription(p Payment) string {
	var b strings.Builder
	b.WriteString(strings.TrimSpace(p.Method))
	if op := strings.TrimSpace(p.Operator); op != "" {
		if b.Len() > 0 {
			b.WriteString(" ")
		}
		b.WriteString("by " + op)
	}
	if r := strings.TrimSpace(p.Remarks); r != "" {
		if b.Len() > 0 {
			b.WriteString(" - ")
		}
		b.WriteString(r)
	}
	if b.Len() == 0 {
		return "Payment"
	}
	return b.String()
}
