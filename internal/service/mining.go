package service

import (
	"context"
	"fmt"
	"time"

	"cloudmine_backend/internal/crypto"
	"cloudmine_backend/internal/domain"
	"cloudmine_backend/internal/logger"
	"cloudmine_backend/internal/plan"

	"github.com/google/uuid"
)

// MiningService owns the per-user session state machine. Start/stop
// transitions run under the user's lock so a session can never be
// double-started and a stop never races its own final settlement.
type MiningService struct {
	sessions SessionStore
	plans    UserPlanStore
	ledger   *LedgerService
	locks    *Locks
	cycle    time.Duration
	now      func() time.Time
}

func NewMiningService(sessions SessionStore, plans UserPlanStore, ledger *LedgerService, locks *Locks, cycle time.Duration) *MiningService {
	if cycle <= 0 {
		cycle = DefaultCycleLength
	}
	return &MiningService{
		sessions: sessions,
		plans:    plans,
		ledger:   ledger,
		locks:    locks,
		cycle:    cycle,
		now:      time.Now,
	}
}

// Start opens a new active session mining coinType at the user's current
// plan rate. The rate is captured on the session; a later plan purchase
// re-rates the session for future cycles only.
func (s *MiningService) Start(ctx context.Context, userID int64, coinType string) (*domain.MiningSession, error) {
	if !crypto.IsSupported(coinType) {
		return nil, fmt.Errorf("%w: %q", ErrUnknownCrypto, coinType)
	}

	unlock := s.locks.Lock(userID)
	defer unlock()

	active, err := s.sessions.ActiveByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("load active session: %w", err)
	}
	if active != nil {
		return nil, ErrAlreadyMining
	}

	planID, err := s.plans.PlanID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("resolve user plan: %w", err)
	}
	p, ok := plan.Get(planID)
	if !ok {
		// An assigned plan that is not in the catalog means the catalog and
		// store disagree; fall back to the default rather than refuse to mine.
		logger.Warn("assigned plan missing from catalog", "user_id", userID, "plan_id", planID)
		p, _ = plan.Get(plan.DefaultPlanID)
	}

	session := &domain.MiningSession{
		ID:                uuid.NewString(),
		UserID:            userID,
		CoinType:          coinType,
		State:             domain.SessionActive,
		StartTime:         s.now(),
		Rate:              p.Rate,
		LastCreditedCycle: 0,
	}
	if err := s.sessions.Create(ctx, session); err != nil {
		return nil, fmt.Errorf("create session: %w", err)
	}

	logger.Info("mining started", "user_id", userID, "session_id", session.ID, "coin", coinType, "rate", p.Rate.String())
	return session, nil
}

// Stop settles completed-but-uncredited cycles synchronously, then marks the
// session stopped. A session stopped mid-cycle earns nothing for the partial
// cycle.
func (s *MiningService) Stop(ctx context.Context, userID int64) (*domain.MiningSession, error) {
	unlock := s.locks.Lock(userID)
	defer unlock()

	session, err := s.sessions.ActiveByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("load active session: %w", err)
	}
	if session == nil {
		return nil, ErrNoActiveSession
	}

	now := s.now()
	if _, err := settleSession(ctx, s.sessions, s.ledger, session, now, s.cycle); err != nil {
		return nil, fmt.Errorf("final accrual pass: %w", err)
	}

	session.State = domain.SessionStopped
	session.LastPauseTime = &now
	if err := s.sessions.Update(ctx, session); err != nil {
		return nil, fmt.Errorf("stop session: %w", err)
	}

	logger.Info("mining stopped", "user_id", userID, "session_id", session.ID, "credited_cycles", session.LastCreditedCycle)
	return session, nil
}

// Status describes the user's active session for the dashboard.
type Status struct {
	Session         *domain.MiningSession `json:"session"`
	CompletedCycles int64                 `json:"completed_cycles"`
	NextPayoutAt    *time.Time            `json:"next_payout_at,omitempty"`
}

// Status returns the active session with cycle progress, or an empty status
// when the user is not mining.
func (s *MiningService) Status(ctx context.Context, userID int64) (*Status, error) {
	session, err := s.sessions.ActiveByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("load active session: %w", err)
	}
	if session == nil {
		return &Status{}, nil
	}

	now := s.now()
	completed := completedCycles(session.StartTime, now, s.cycle)
	next := session.StartTime.Add(time.Duration(completed+1) * s.cycle)
	return &Status{
		Session:         session,
		CompletedCycles: completed,
		NextPayoutAt:    &next,
	}, nil
}
