package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"cloudmine_backend/internal/domain"

	"github.com/shopspring/decimal"
)

func newMiningFixture(t *testing.T) (*MiningService, *memSessions, *memUserPlans, *memLedger, *fakeClock) {
	t.Helper()

	sessions := newMemSessions()
	plans := newMemUserPlans()
	store := newMemLedger()
	clock := newFakeClock(testStart)

	svc := NewMiningService(sessions, plans, NewLedgerService(store), NewLocks(), 6*time.Hour)
	svc.now = clock.Now
	return svc, sessions, plans, store, clock
}

func TestStartMining(t *testing.T) {
	svc, _, plans, _, _ := newMiningFixture(t)
	ctx := context.Background()

	s, err := svc.Start(ctx, 1, "bitcoin")
	if err != nil {
		t.Fatal(err)
	}
	if s.State != domain.SessionActive {
		t.Errorf("state = %s, want active", s.State)
	}
	if !s.Rate.Equal(decimal.RequireFromString("0.00000100")) {
		t.Errorf("rate = %s, want free plan rate", s.Rate)
	}
	if !s.StartTime.Equal(testStart) {
		t.Errorf("start time = %v, want %v", s.StartTime, testStart)
	}

	// A user on a purchased plan starts at that plan's rate.
	plans.set(2, "gold")
	s2, err := svc.Start(ctx, 2, "ethereum")
	if err != nil {
		t.Fatal(err)
	}
	if !s2.Rate.Equal(decimal.RequireFromString("0.00000400")) {
		t.Errorf("rate = %s, want gold plan rate", s2.Rate)
	}
}

func TestStartMiningRejectsSecondSession(t *testing.T) {
	svc, _, _, _, _ := newMiningFixture(t)
	ctx := context.Background()

	if _, err := svc.Start(ctx, 1, "bitcoin"); err != nil {
		t.Fatal(err)
	}
	_, err := svc.Start(ctx, 1, "dogecoin")
	if !errors.Is(err, ErrAlreadyMining) {
		t.Fatalf("err = %v, want ErrAlreadyMining", err)
	}
}

func TestStartMiningRejectsUnknownCoin(t *testing.T) {
	svc, _, _, _, _ := newMiningFixture(t)

	_, err := svc.Start(context.Background(), 1, "monero")
	if !errors.Is(err, ErrUnknownCrypto) {
		t.Fatalf("err = %v, want ErrUnknownCrypto", err)
	}
}

func TestStopMiningSettlesBeforeStopping(t *testing.T) {
	svc, sessions, _, store, clock := newMiningFixture(t)
	ctx := context.Background()

	s, err := svc.Start(ctx, 1, "bitcoin")
	if err != nil {
		t.Fatal(err)
	}

	clock.Advance(13 * time.Hour)
	stopped, err := svc.Stop(ctx, 1)
	if err != nil {
		t.Fatal(err)
	}

	if stopped.State != domain.SessionStopped {
		t.Errorf("state = %s, want stopped", stopped.State)
	}
	if stopped.LastPauseTime == nil || !stopped.LastPauseTime.Equal(clock.Now()) {
		t.Errorf("last pause time = %v, want %v", stopped.LastPauseTime, clock.Now())
	}
	if stopped.LastCreditedCycle != 2 {
		t.Errorf("watermark = %d, want 2", stopped.LastCreditedCycle)
	}
	if n := store.count(1); n != 2 {
		t.Errorf("ledger entries = %d, want 2", n)
	}

	if got := sessions.get(s.ID); got.State != domain.SessionStopped {
		t.Errorf("persisted state = %s, want stopped", got.State)
	}

	// Once stopped, the user can start again.
	if _, err := svc.Start(ctx, 1, "bitcoin"); err != nil {
		t.Fatalf("restart after stop: %v", err)
	}
}

func TestStopMiningPartialCycleEarnsNothing(t *testing.T) {
	svc, _, _, store, clock := newMiningFixture(t)
	ctx := context.Background()

	if _, err := svc.Start(ctx, 1, "bitcoin"); err != nil {
		t.Fatal(err)
	}
	clock.Advance(5 * time.Hour)

	stopped, err := svc.Stop(ctx, 1)
	if err != nil {
		t.Fatal(err)
	}
	if stopped.LastCreditedCycle != 0 {
		t.Errorf("watermark = %d, want 0", stopped.LastCreditedCycle)
	}
	if n := store.count(1); n != 0 {
		t.Errorf("ledger entries = %d, want 0", n)
	}
}

func TestStopMiningWithoutSession(t *testing.T) {
	svc, _, _, _, _ := newMiningFixture(t)

	_, err := svc.Stop(context.Background(), 1)
	if !errors.Is(err, ErrNoActiveSession) {
		t.Fatalf("err = %v, want ErrNoActiveSession", err)
	}
}

func TestMiningStatus(t *testing.T) {
	svc, _, _, _, clock := newMiningFixture(t)
	ctx := context.Background()

	// No session: empty status, not an error.
	st, err := svc.Status(ctx, 1)
	if err != nil {
		t.Fatal(err)
	}
	if st.Session != nil {
		t.Fatalf("expected empty status, got session %+v", st.Session)
	}

	if _, err := svc.Start(ctx, 1, "bitcoin"); err != nil {
		t.Fatal(err)
	}
	clock.Advance(13 * time.Hour)

	st, err = svc.Status(ctx, 1)
	if err != nil {
		t.Fatal(err)
	}
	if st.Session == nil {
		t.Fatal("expected a session")
	}
	if st.CompletedCycles != 2 {
		t.Errorf("completed cycles = %d, want 2", st.CompletedCycles)
	}
	wantNext := testStart.Add(18 * time.Hour)
	if st.NextPayoutAt == nil || !st.NextPayoutAt.Equal(wantNext) {
		t.Errorf("next payout = %v, want %v", st.NextPayoutAt, wantNext)
	}
}

func TestLedgerCreditMiningIdempotent(t *testing.T) {
	ctx := context.Background()
	store := newMemLedger()
	svc := NewLedgerService(store)
	amount := decimal.RequireFromString("0.00000300")

	if err := svc.CreditMining(ctx, 1, "sess-a", 1, amount); err != nil {
		t.Fatal(err)
	}
	// Same (session, cycle) again: success, no new entry.
	if err := svc.CreditMining(ctx, 1, "sess-a", 1, amount); err != nil {
		t.Fatalf("duplicate credit returned %v, want nil", err)
	}
	// Different cycle: a new entry.
	if err := svc.CreditMining(ctx, 1, "sess-a", 2, amount); err != nil {
		t.Fatal(err)
	}

	if n := store.count(1); n != 2 {
		t.Fatalf("entries = %d, want 2", n)
	}
	bal, _ := svc.Balance(ctx, 1)
	if !bal.Equal(decimal.RequireFromString("0.00000600")) {
		t.Fatalf("balance = %s, want 0.00000600", bal)
	}
}

func TestLedgerHistoryNewestFirst(t *testing.T) {
	ctx := context.Background()
	svc := NewLedgerService(newMemLedger())

	for i := int64(1); i <= 3; i++ {
		if err := svc.CreditMining(ctx, 1, "sess-a", i, decimal.New(i, -8)); err != nil {
			t.Fatal(err)
		}
	}

	entries, err := svc.History(ctx, 1, 2)
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 2 {
		t.Fatalf("len = %d, want 2", len(entries))
	}
	if !entries[0].Amount.Equal(decimal.New(3, -8)) {
		t.Errorf("first entry amount = %s, want most recent", entries[0].Amount)
	}
}
