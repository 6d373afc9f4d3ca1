package service

import (
	"context"
	"fmt"
	"sync"
	"time"

	"cloudmine_backend/internal/domain"
	"cloudmine_backend/internal/logger"
	"cloudmine_backend/internal/metrics"

	"github.com/shopspring/decimal"
)

// DefaultCycleLength is the accrual period. Cycles are the unit of payout;
// partial cycles earn nothing.
const DefaultCycleLength = 6 * time.Hour

// DefaultTickInterval is how often the scheduler re-evaluates active sessions.
const DefaultTickInterval = time.Minute

// BalanceNotifier receives a push after a user's balance changed, so the
// dashboard can update without polling. Implemented by the ws hub.
type BalanceNotifier interface {
	BalanceChanged(userID int64, balance decimal.Decimal)
}

// completedCycles is the number of whole cycles elapsed between start and
// now. Pure function of wall-clock time so the result is identical after a
// process restart; accrual is never driven by in-memory timers.
func completedCycles(start, now time.Time, cycle time.Duration) int64 {
	elapsed := now.Sub(start)
	if elapsed < 0 {
		return 0
	}
	return int64(elapsed / cycle)
}

// settleSession credits every completed-but-uncredited cycle of s and
// advances the watermark. Safe to call concurrently for the same session:
// each cycle's credit is idempotent, and the watermark only moves after the
// whole range applied. The settle may run on a stale snapshot of the session
// (the scheduler holds no lock), so it persists nothing but the watermark;
// writing the snapshot's state or rate back would undo a concurrent stop or
// plan re-rate. Returns the number of cycles in the settled range.
func settleSession(ctx context.Context, sessions SessionStore, ledger *LedgerService, s *domain.MiningSession, now time.Time, cycle time.Duration) (int64, error) {
	completed := completedCycles(s.StartTime, now, cycle)
	if completed <= s.LastCreditedCycle {
		return 0, nil
	}

	for i := s.LastCreditedCycle + 1; i <= completed; i++ {
		if err := ledger.CreditMining(ctx, s.UserID, s.ID, i, s.Rate); err != nil {
			return 0, fmt.Errorf("settle session %s cycle %d: %w", s.ID, i, err)
		}
	}

	credited := completed - s.LastCreditedCycle
	s.LastCreditedCycle = completed
	if err := sessions.AdvanceCredited(ctx, s.ID, completed); err != nil {
		// The credits are durable and idempotent; a failed watermark update
		// only means the next pass re-applies them as no-ops.
		return 0, fmt.Errorf("advance credited cycle for session %s: %w", s.ID, err)
	}
	return credited, nil
}

// AccrualScheduler is the background process that settles every active
// session on a fixed tick. Sessions are independent and evaluated in
// parallel; no locks are needed because per-cycle credits are idempotent.
type AccrualScheduler struct {
	sessions SessionStore
	ledger   *LedgerService
	cycle    time.Duration
	interval time.Duration
	notifier BalanceNotifier
	now      func() time.Time
}

func NewAccrualScheduler(sessions SessionStore, ledger *LedgerService, cycle, interval time.Duration) *AccrualScheduler {
	if cycle <= 0 {
		cycle = DefaultCycleLength
	}
	if interval <= 0 {
		interval = DefaultTickInterval
	}
	return &AccrualScheduler{
		sessions: sessions,
		ledger:   ledger,
		cycle:    cycle,
		interval: interval,
		now:      time.Now,
	}
}

// SetNotifier attaches a balance push target (the ws hub).
func (a *AccrualScheduler) SetNotifier(n BalanceNotifier) {
	a.notifier = n
}

// Run ticks until ctx is cancelled.
func (a *AccrualScheduler) Run(ctx context.Context) {
	logger.Info("accrual scheduler started", "tick", a.interval.String(), "cycle", a.cycle.String())

	ticker := time.NewTicker(a.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			logger.Info("accrual scheduler stopped")
			return
		case <-ticker.C:
			a.Tick(ctx)
		}
	}
}

// Tick settles all active sessions once.
func (a *AccrualScheduler) Tick(ctx context.Context) {
	started := time.Now()

	active, err := a.sessions.ListActive(ctx)
	if err != nil {
		logger.Error("accrual tick: list active sessions", "error", err)
		return
	}
	metrics.ActiveSessions.Set(float64(len(active)))

	var wg sync.WaitGroup
	for _, s := range active {
		wg.Add(1)
		go func(s *domain.MiningSession) {
			defer wg.Done()
			credited, err := settleSession(ctx, a.sessions, a.ledger, s, a.now(), a.cycle)
			if err != nil {
				logger.Error("accrual tick: settle", "session_id", s.ID, "user_id", s.UserID, "error", err)
				return
			}
			if credited > 0 {
				logger.Info("cycles credited", "session_id", s.ID, "user_id", s.UserID, "cycles", credited, "rate", s.Rate.String())
				a.notifyBalance(ctx, s.UserID)
			}
		}(s)
	}
	wg.Wait()

	metrics.SchedulerTickSeconds.Observe(time.Since(started).Seconds())
}

func (a *AccrualScheduler) notifyBalance(ctx context.Context, userID int64) {
	if a.notifier == nil {
		return
	}
	balance, err := a.ledger.Balance(ctx, userID)
	if err != nil {
		logger.Warn("balance push skipped", "user_id", userID, "error", err)
		return
	}
	a.notifier.BalanceChanged(userID, balance)
}
