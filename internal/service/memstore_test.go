package service

import (
	"context"
	"sync"
	"time"

	"cloudmine_backend/internal/domain"
	"cloudmine_backend/internal/plan"

	"github.com/shopspring/decimal"
)

// In-memory store fakes. They honor the same contracts the pgx
// implementations do: idempotency-key uniqueness, tx-hash uniqueness and
// compare-and-set transitions, so the services under test cannot tell the
// difference.

type memLedger struct {
	mu      sync.Mutex
	entries []*domain.LedgerEntry
	keys    map[int64]map[string]struct{}
}

func newMemLedger() *memLedger {
	return &memLedger{keys: make(map[int64]map[string]struct{})}
}

func (m *memLedger) Append(_ context.Context, e *domain.LedgerEntry) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.keys[e.UserID] == nil {
		m.keys[e.UserID] = make(map[string]struct{})
	}
	if _, dup := m.keys[e.UserID][e.IdempotencyKey]; dup {
		return ErrDuplicateIdempotencyKey
	}
	m.keys[e.UserID][e.IdempotencyKey] = struct{}{}

	cp := *e
	if cp.CreatedAt.IsZero() {
		cp.CreatedAt = time.Now()
	}
	m.entries = append(m.entries, &cp)
	return nil
}

func (m *memLedger) Balance(_ context.Context, userID int64) (decimal.Decimal, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	sum := decimal.Zero
	for _, e := range m.entries {
		if e.UserID == userID {
			sum = sum.Add(e.Amount)
		}
	}
	return sum, nil
}

func (m *memLedger) ListByUser(_ context.Context, userID int64, limit int) ([]*domain.LedgerEntry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var out []*domain.LedgerEntry
	for i := len(m.entries) - 1; i >= 0 && len(out) < limit; i-- {
		if m.entries[i].UserID == userID {
			cp := *m.entries[i]
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (m *memLedger) count(userID int64) int {
	m.mu.Lock()
	defer m.mu.Unlock()

	n := 0
	for _, e := range m.entries {
		if e.UserID == userID {
			n++
		}
	}
	return n
}

type memSessions struct {
	mu   sync.Mutex
	byID map[string]*domain.MiningSession
}

func newMemSessions() *memSessions {
	return &memSessions{byID: make(map[string]*domain.MiningSession)}
}

func (m *memSessions) ActiveByUser(_ context.Context, userID int64) (*domain.MiningSession, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, s := range m.byID {
		if s.UserID == userID && s.State == domain.SessionActive {
			cp := *s
			return &cp, nil
		}
	}
	return nil, nil
}

func (m *memSessions) Create(_ context.Context, s *domain.MiningSession) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	cp := *s
	if cp.CreatedAt.IsZero() {
		cp.CreatedAt = time.Now()
	}
	m.byID[cp.ID] = &cp
	return nil
}

func (m *memSessions) Update(_ context.Context, s *domain.MiningSession) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	cp := *s
	if have, ok := m.byID[cp.ID]; ok && have.LastCreditedCycle > cp.LastCreditedCycle {
		cp.LastCreditedCycle = have.LastCreditedCycle
	}
	m.byID[cp.ID] = &cp
	return nil
}

func (m *memSessions) AdvanceCredited(_ context.Context, sessionID string, cycle int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if s, ok := m.byID[sessionID]; ok && cycle > s.LastCreditedCycle {
		s.LastCreditedCycle = cycle
	}
	return nil
}

func (m *memSessions) ListActive(_ context.Context) ([]*domain.MiningSession, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var out []*domain.MiningSession
	for _, s := range m.byID {
		if s.State == domain.SessionActive {
			cp := *s
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (m *memSessions) get(id string) *domain.MiningSession {
	m.mu.Lock()
	defer m.mu.Unlock()

	if s, ok := m.byID[id]; ok {
		cp := *s
		return &cp
	}
	return nil
}

type memWithdrawals struct {
	mu     sync.Mutex
	list   []*domain.WithdrawalRequest
	ledger *memLedger
}

func newMemWithdrawals(ledger *memLedger) *memWithdrawals {
	return &memWithdrawals{ledger: ledger}
}

func (m *memWithdrawals) CreateWithDebit(ctx context.Context, w *domain.WithdrawalRequest, debit *domain.LedgerEntry) error {
	if err := m.ledger.Append(ctx, debit); err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	cp := *w
	if cp.CreatedAt.IsZero() {
		cp.CreatedAt = time.Now()
	}
	m.list = append(m.list, &cp)
	return nil
}

func (m *memWithdrawals) ListByUser(_ context.Context, userID int64, limit int) ([]*domain.WithdrawalRequest, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var out []*domain.WithdrawalRequest
	for i := len(m.list) - 1; i >= 0 && len(out) < limit; i-- {
		if m.list[i].UserID == userID {
			cp := *m.list[i]
			out = append(out, &cp)
		}
	}
	return out, nil
}

type memUserPlans struct {
	mu sync.Mutex
	m  map[int64]string
}

func newMemUserPlans() *memUserPlans {
	return &memUserPlans{m: make(map[int64]string)}
}

func (m *memUserPlans) PlanID(_ context.Context, userID int64) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if id, ok := m.m[userID]; ok {
		return id, nil
	}
	return plan.DefaultPlanID, nil
}

func (m *memUserPlans) set(userID int64, planID string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.m[userID] = planID
}

// memPayments mirrors the repository's FinalizeVerified scope: the status
// CAS, the plan assignment and the active-session re-rate happen together.
type memPayments struct {
	mu       sync.Mutex
	byID     map[string]*domain.CryptoPayment
	byHash   map[string]string
	plans    *memUserPlans
	sessions *memSessions
}

func newMemPayments(plans *memUserPlans, sessions *memSessions) *memPayments {
	return &memPayments{
		byID:     make(map[string]*domain.CryptoPayment),
		byHash:   make(map[string]string),
		plans:    plans,
		sessions: sessions,
	}
}

func (m *memPayments) Create(_ context.Context, p *domain.CryptoPayment) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, dup := m.byHash[p.TxHash]; dup {
		return ErrDuplicateTransaction
	}
	cp := *p
	m.byID[cp.ID] = &cp
	m.byHash[cp.TxHash] = cp.ID
	return nil
}

func (m *memPayments) GetByID(_ context.Context, id string) (*domain.CryptoPayment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if p, ok := m.byID[id]; ok {
		cp := *p
		return &cp, nil
	}
	return nil, nil
}

func (m *memPayments) ListPending(_ context.Context) ([]*domain.CryptoPayment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var out []*domain.CryptoPayment
	for _, p := range m.byID {
		if p.Status == domain.PaymentPending {
			cp := *p
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (m *memPayments) MarkFailed(_ context.Context, id string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	p, ok := m.byID[id]
	if !ok || p.Status != domain.PaymentPending {
		return false, nil
	}
	p.Status = domain.PaymentFailed
	return true, nil
}

func (m *memPayments) FinalizeVerified(_ context.Context, id string, userID int64, planID string, rate decimal.Decimal) (bool, error) {
	m.mu.Lock()
	p, ok := m.byID[id]
	if !ok || p.Status != domain.PaymentPending {
		m.mu.Unlock()
		return false, nil
	}
	now := time.Now()
	p.Status = domain.PaymentVerified
	p.VerifiedAt = &now
	m.mu.Unlock()

	m.plans.set(userID, planID)

	m.sessions.mu.Lock()
	for _, s := range m.sessions.byID {
		if s.UserID == userID && s.State == domain.SessionActive {
			s.Rate = rate
		}
	}
	m.sessions.mu.Unlock()
	return true, nil
}

type memWallets struct {
	mu   sync.Mutex
	list []*domain.SavedWallet
}

func newMemWallets() *memWallets {
	return &memWallets{}
}

func (m *memWallets) Save(_ context.Context, w *domain.SavedWallet) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, have := range m.list {
		if have.UserID == w.UserID && have.CryptoType == w.CryptoType && have.Address == w.Address {
			return nil
		}
	}
	cp := *w
	cp.ID = int64(len(m.list) + 1)
	cp.CreatedAt = time.Now()
	m.list = append(m.list, &cp)
	return nil
}

func (m *memWallets) ListByUser(_ context.Context, userID int64) ([]*domain.SavedWallet, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var out []*domain.SavedWallet
	for _, w := range m.list {
		if w.UserID == userID {
			cp := *w
			out = append(out, &cp)
		}
	}
	return out, nil
}

// fakeClock drives the services' now func so tests move time instead of
// sleeping.
type fakeClock struct {
	mu sync.Mutex
	t  time.Time
}

func newFakeClock(t time.Time) *fakeClock {
	return &fakeClock{t: t}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.t = c.t.Add(d)
}
