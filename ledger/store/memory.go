// Package store provides Store implementations.
package store

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/warp/rent-ledger/ledger"
)

// =============================================================================
// MEMORY STORE - In-memory implementation (for testing/dev)
// =============================================================================

type Memory struct {
	mu          sync.RWMutex
	tenants     map[ledger.TenantID]ledger.Tenant
	order       []ledger.TenantID
	charges     map[ledger.TenantID][]ledger.Charge
	chargeIndex map[chargeKey]bool
	payments    map[ledger.TenantID][]ledger.Payment

	nextTenant  int64
	nextCharge  int64
	nextPayment int64
}

// chargeKey enforces the one-charge-per-period invariant.
type chargeKey struct {
	TenantID ledger.TenantID
	Period   ledger.Period
}

func NewMemory() *Memory {
	return &Memory{
		tenants:     make(map[ledger.TenantID]ledger.Tenant),
		charges:     make(map[ledger.TenantID][]ledger.Charge),
		chargeIndex: make(map[chargeKey]bool),
		payments:    make(map[ledger.TenantID][]ledger.Payment),
	}
}

// =============================================================================
// TENANTS
// =============================================================================

func (m *Memory) CreateTenant(_ context.Context, t ledger.NewTenant) (ledger.TenantID, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.createTenantLocked(t)
}

func (m *Memory) createTenantLocked(t ledger.NewTenant) (ledger.TenantID, error) {
	if err := validateNewTenant(t); err != nil {
		return 0, err
	}
	m.nextTenant++
	id := ledger.TenantID(m.nextTenant)
	m.tenants[id] = ledger.Tenant{
		ID:              id,
		Name:            t.Name,
		Rent:            t.Rent,
		RentalAddress:   t.RentalAddress,
		OriginalAddress: t.OriginalAddress,
		JoinDate:        t.JoinDate,
		OpeningBalance:  t.OpeningBalance,
		CreatedAt:       time.Now().UTC(),
	}
	m.order = append(m.order, id)
	return id, nil
}

func (m *Memory) Tenant(_ context.Context, id ledger.TenantID) (*ledger.Tenant, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.tenantLocked(id)
}

func (m *Memory) tenantLocked(id ledger.TenantID) (*ledger.Tenant, error) {
	t, ok := m.tenants[id]
	if !ok {
		return nil, &ledger.NotFoundError{Entity: "tenant", ID: int64(id)}
	}
	return &t, nil
}

func (m *Memory) ListTenants(_ context.Context) ([]ledger.Tenant, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.listTenantsLocked()
}

func (m *Memory) listTenantsLocked() ([]ledger.Tenant, error) {
	result := make([]ledger.Tenant, 0, len(m.order))
	for _, id := range m.order {
		result = append(result, m.tenants[id])
	}
	return result, nil
}

func (m *Memory) UpdateTenant(_ context.Context, id ledger.TenantID, upd ledger.TenantUpdate) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.updateTenantLocked(id, upd)
}

func (m *Memory) updateTenantLocked(id ledger.TenantID, upd ledger.TenantUpdate) error {
	t, ok := m.tenants[id]
	if !ok {
		return &ledger.NotFoundError{Entity: "tenant", ID: int64(id)}
	}
	if upd.Name != nil {
		if *upd.Name == "" {
			return &ledger.ValidationError{Field: "name", Reason: "must not be empty"}
		}
		t.Name = *upd.Name
	}
	if upd.Rent != nil {
		if upd.Rent.IsNegative() {
			return &ledger.ValidationError{Field: "rent", Reason: "must be non-negative"}
		}
		t.Rent = *upd.Rent
	}
	if upd.RentalAddress != nil {
		t.RentalAddress = *upd.RentalAddress
	}
	if upd.OriginalAddress != nil {
		t.OriginalAddress = *upd.OriginalAddress
	}
	m.tenants[id] = t
	return nil
}

func (m *Memory) DeleteTenant(_ context.Context, id ledger.TenantID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.deleteTenantLocked(id)
}

func (m *Memory) deleteTenantLocked(id ledger.TenantID) error {
	if _, ok := m.tenants[id]; !ok {
		return &ledger.NotFoundError{Entity: "tenant", ID: int64(id)}
	}
	delete(m.tenants, id)
	for i, o := range m.order {
		if o == id {
			m.order = append(m.order[:i], m.order[i+1:]...)
			break
		}
	}
	// Cascade: charges and payments go with the tenant.
	for _, ch := range m.charges[id] {
		delete(m.chargeIndex, chargeKey{TenantID: id, Period: ch.Period})
	}
	delete(m.charges, id)
	delete(m.payments, id)
	return nil
}

func (m *Memory) CurrentRent(_ context.Context, id ledger.TenantID) (ledger.Amount, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.currentRentLocked(id)
}

func (m *Memory) currentRentLocked(id ledger.TenantID) (ledger.Amount, error) {
	t, ok := m.tenants[id]
	if !ok {
		return ledger.Amount{}, &ledger.NotFoundError{Entity: "tenant", ID: int64(id)}
	}
	return t.Rent, nil
}

// =============================================================================
// CHARGES
// =============================================================================

func (m *Memory) LatestChargedPeriod(_ context.Context, id ledger.TenantID) (*ledger.Period, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.latestChargedPeriodLocked(id)
}

func (m *Memory) latestChargedPeriodLocked(id ledger.TenantID) (*ledger.Period, error) {
	var latest *ledger.Period
	for _, ch := range m.charges[id] {
		if latest == nil || ch.Period.After(*latest) {
			p := ch.Period
			latest = &p
		}
	}
	return latest, nil
}

func (m *Memory) InsertChargeIfAbsent(_ context.Context, id ledger.TenantID, period ledger.Period, amount ledger.Amount, label string) (ledger.InsertOutcome, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.insertChargeLocked(id, period, amount, label)
}

func (m *Memory) insertChargeLocked(id ledger.TenantID, period ledger.Period, amount ledger.Amount, label string) (ledger.InsertOutcome, error) {
	if _, ok := m.tenants[id]; !ok {
		return 0, &ledger.NotFoundError{Entity: "tenant", ID: int64(id)}
	}
	k := chargeKey{TenantID: id, Period: period}
	if m.chargeIndex[k] {
		return ledger.AlreadyExists, nil
	}
	m.nextCharge++
	m.charges[id] = append(m.charges[id], ledger.Charge{
		ID:        ledger.ChargeID(m.nextCharge),
		TenantID:  id,
		Period:    period,
		Amount:    amount,
		Label:     label,
		CreatedAt: time.Now().UTC(),
	})
	m.chargeIndex[k] = true
	return ledger.Inserted, nil
}

// =============================================================================
// PAYMENTS
// =============================================================================

func (m *Memory) InsertPayment(_ context.Context, id ledger.TenantID, p ledger.NewPayment) (ledger.PaymentID, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.insertPaymentLocked(id, p)
}

func (m *Memory) insertPaymentLocked(id ledger.TenantID, p ledger.NewPayment) (ledger.PaymentID, error) {
	if _, ok := m.tenants[id]; !ok {
		return 0, &ledger.NotFoundError{Entity: "tenant", ID: int64(id)}
	}
	if p.Amount.IsNegative() {
		return 0, &ledger.ValidationError{Field: "amount", Reason: "must be non-negative"}
	}
	m.nextPayment++
	pid := ledger.PaymentID(m.nextPayment)
	m.payments[id] = append(m.payments[id], ledger.Payment{
		ID:        pid,
		TenantID:  id,
		PaidOn:    p.PaidOn,
		Amount:    p.Amount,
		Method:    p.Method,
		Operator:  p.Operator,
		Remarks:   p.Remarks,
		ReceiptNo: p.ReceiptNo,
		CreatedAt: time.Now().UTC(),
	})
	return pid, nil
}

// =============================================================================
// AGGREGATES AND LISTINGS
// =============================================================================

func (m *Memory) SumCharges(_ context.Context, id ledger.TenantID, period *ledger.Period) (ledger.Amount, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.sumChargesLocked(id, period)
}

func (m *Memory) sumChargesLocked(id ledger.TenantID, period *ledger.Period) (ledger.Amount, error) {
	total := ledger.ZeroAmount()
	for _, ch := range m.charges[id] {
		if period != nil && !ch.Period.Equal(*period) {
			continue
		}
		total = total.Add(ch.Amount)
	}
	return total, nil
}

func (m *Memory) SumPayments(_ context.Context, id ledger.TenantID, period *ledger.Period) (ledger.Amount, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.sumPaymentsLocked(id, period)
}

func (m *Memory) sumPaymentsLocked(id ledger.TenantID, period *ledger.Period) (ledger.Amount, error) {
	total := ledger.ZeroAmount()
	for _, p := range m.payments[id] {
		if period != nil && !period.Contains(p.PaidOn) {
			continue
		}
		total = total.Add(p.Amount)
	}
	return total, nil
}

func (m *Memory) ListEvents(_ context.Context, id ledger.TenantID) ([]ledger.Charge, []ledger.Payment, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.listEventsLocked(id)
}

func (m *Memory) listEventsLocked(id ledger.TenantID) ([]ledger.Charge, []ledger.Payment, error) {
	charges := make([]ledger.Charge, len(m.charges[id]))
	copy(charges, m.charges[id])
	payments := make([]ledger.Payment, len(m.payments[id]))
	copy(payments, m.payments[id])
	return charges, payments, nil
}

func (m *Memory) ListPaymentsInPeriod(_ context.Context, period ledger.Period) ([]ledger.Payment, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.listPaymentsInPeriodLocked(period)
}

func (m *Memory) listPaymentsInPeriodLocked(period ledger.Period) ([]ledger.Payment, error) {
	var result []ledger.Payment
	for _, id := range m.order {
		for _, p := range m.payments[id] {
			if period.Contains(p.PaidOn) {
				result = append(result, p)
			}
		}
	}
	sort.Slice(result, func(i, j int) bool {
		if !result[i].PaidOn.Equal(result[j].PaidOn) {
			return result[i].PaidOn.After(result[j].PaidOn)
		}
		return result[i].ID > result[j].ID
	})
	return result, nil
}

// Reset drops everything. Scenario loaders use it; nothing else should.
func (m *Memory) Reset(_ context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.tenants = make(map[ledger.TenantID]ledger.Tenant)
	m.order = nil
	m.charges = make(map[ledger.TenantID][]ledger.Charge)
	m.chargeIndex = make(map[chargeKey]bool)
	m.payments = make(map[ledger.TenantID][]ledger.Payment)
	m.nextTenant, m.nextCharge, m.nextPayment = 0, 0, 0
	return nil
}

func validateNewTenant(t ledger.NewTenant) error {
	if t.Name == "" {
		return &ledger.ValidationError{Field: "name", Reason: "must not be empty"}
	}
	if t.Rent.IsNegative() {
		return &ledger.ValidationError{Field: "rent", Reason: "must be non-negative"}
	}
	if t.JoinDate.IsZero() {
		return &ledger.ValidationError{Field: "join_date", Reason: "must be set"}
	}
	return nil
}

// =============================================================================
// TRANSACTIONAL MEMORY STORE
// =============================================================================

// TxMemory wraps Memory with transaction support.
type TxMemory struct {
	*Memory
}

func NewTxMemory() *TxMemory {
	return &TxMemory{Memory: NewMemory()}
}

// WithTx executes fn within a transaction.
// For memory store, this is simulated with a snapshot + rollback on error.
func (tm *TxMemory) WithTx(ctx context.Context, fn func(ledger.Store) error) error {
	tm.mu.Lock()
	defer tm.mu.Unlock()

	snapshot := tm.snapshot()

	if err := fn(&txMemoryView{parent: tm.Memory}); err != nil {
		tm.restore(snapshot)
		return err
	}
	return nil
}

func (tm *TxMemory) snapshot() memorySnapshot {
	s := memorySnapshot{
		tenants:     make(map[ledger.TenantID]ledger.Tenant, len(tm.tenants)),
		order:       append([]ledger.TenantID{}, tm.order...),
		charges:     make(map[ledger.TenantID][]ledger.Charge, len(tm.charges)),
		chargeIndex: make(map[chargeKey]bool, len(tm.chargeIndex)),
		payments:    make(map[ledger.TenantID][]ledger.Payment, len(tm.payments)),
		nextTenant:  tm.nextTenant,
		nextCharge:  tm.nextCharge,
		nextPayment: tm.nextPayment,
	}
	for k, v := range tm.tenants {
		s.tenants[k] = v
	}
	for k, v := range tm.charges {
		s.charges[k] = append([]ledger.Charge{}, v...)
	}
	for k, v := range tm.chargeIndex {
		s.chargeIndex[k] = v
	}
	for k, v := range tm.payments {
		s.payments[k] = append([]ledger.Payment{}, v...)
	}
	return s
}

func (tm *TxMemory) restore(s memorySnapshot) {
	tm.tenants = s.tenants
	tm.order = s.order
	tm.charges = s.charges
	tm.chargeIndex = s.chargeIndex
	tm.payments = s.payments
	tm.nextTenant = s.nextTenant
	tm.nextCharge = s.nextCharge
	tm.nextPayment = s.nextPayment
}

type memorySnapshot struct {
	tenants     map[ledger.TenantID]ledger.Tenant
	order       []ledger.TenantID
	charges     map[ledger.TenantID][]ledger.Charge
	chargeIndex map[chargeKey]bool
	payments    map[ledger.TenantID][]ledger.Payment
	nextTenant  int64
	nextCharge  int64
	nextPayment int64
}

// txMemoryView routes Store calls to the parent's unlocked helpers while
// WithTx holds the write lock. It must never lock.
type txMemoryView struct {
	parent *Memory
}

func (tv *txMemoryView) CreateTenant(_ context.Context, t ledger.NewTenant) (ledger.TenantID, error) {
	return tv.parent.createTenantLocked(t)
}

func (tv *txMemoryView) Tenant(_ context.Context, id ledger.TenantID) (*ledger.Tenant, error) {
	return tv.parent.tenantLocked(id)
}

func (tv *txMemoryView) ListTenants(_ context.Context) ([]ledger.Tenant, error) {
	return tv.parent.listTenantsLocked()
}

func (tv *txMemoryView) UpdateTenant(_ context.Context, id ledger.TenantID, upd ledger.TenantUpdate) error {
	return tv.parent.updateTenantLocked(id, upd)
}

func (tv *txMemoryView) DeleteTenant(_ context.Context, id ledger.TenantID) error {
	return tv.parent.deleteTenantLocked(id)
}

func (tv *txMemoryView) CurrentRent(_ context.Context, id ledger.TenantID) (ledger.Amount, error) {
	return tv.parent.currentRentLocked(id)
}

func (tv *txMemoryView) LatestChargedPeriod(_ context.Context, id ledger.TenantID) (*ledger.Period, error) {
	return tv.parent.latestChargedPeriodLocked(id)
}

func (tv *txMemoryView) InsertChargeIfAbsent(_ context.Context, id ledger.TenantID, period ledger.Period, amount ledger.Amount, label string) (ledger.InsertOutcome, error) {
	return tv.parent.insertChargeLocked(id, period, amount, label)
}

func (tv *txMemoryView) InsertPayment(_ context.Context, id ledger.TenantID, p ledger.NewPayment) (ledger.PaymentID, error) {
	return tv.parent.insertPaymentLocked(id, p)
}

func (tv *txMemoryView) SumCharges(_ context.Context, id ledger.TenantID, period *ledger.Period) (ledger.Amount, error) {
	return tv.parent.sumChargesLocked(id, period)
}

func (tv *txMemoryView) SumPayments(_ context.Context, id ledger.TenantID, period *ledger.Period) (ledger.Amount, error) {
	return tv.parent.sumPaymentsLocked(id, period)
}

func (tv *txMemoryView) ListEvents(_ context.Context, id ledger.TenantID) ([]ledger.Charge, []ledger.Payment, error) {
	return tv.parent.listEventsLocked(id)
}

func (tv *txMemoryView) ListPaymentsInPeriod(_ context.Context, period ledger.Period) ([]ledger.Payment, error) {
	return tv.parent.listPaymentsInPeriodLocked(period)
}
