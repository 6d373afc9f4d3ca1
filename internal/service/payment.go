package service

import (
	"context"
	"fmt"
	"sync"
	"time"

	"cloudmine_backend/internal/crypto"
	"cloudmine_backend/internal/domain"
	"cloudmine_backend/internal/logger"
	"cloudmine_backend/internal/metrics"
	"cloudmine_backend/internal/plan"
	"cloudmine_backend/internal/verifier"

	"github.com/google/uuid"
)

// DefaultPollInterval is how often a pending payment asks the verifier.
const DefaultPollInterval = 5 * time.Second

// DefaultVerifyTimeout is the window a payment has to verify, measured from
// submission. Crash recovery keeps the original window, never a fresh one.
const DefaultVerifyTimeout = 5 * time.Minute

// DefaultMaxTxAge rejects stale transactions: a confirmed transaction older
// than this cannot pay for a plan.
const DefaultMaxTxAge = time.Hour

// TxVerifier is the external confirmation collaborator.
type TxVerifier interface {
	Verify(ctx context.Context, txHash, cryptoType string) (*verifier.Result, error)
}

// PaymentService accepts claimed on-chain payments and runs one watcher task
// per pending payment: a poll loop racing a deadline, settled by a single
// compare-and-set out of Pending. A late verifier response can never revive
// a payment the deadline already failed.
type PaymentService struct {
	payments PaymentStore
	verifier TxVerifier
	locks    *Locks

	pollInterval  time.Duration
	verifyTimeout time.Duration
	maxTxAge      time.Duration
	now           func() time.Time

	wg   sync.WaitGroup
	done chan struct{}
}

func NewPaymentService(payments PaymentStore, txVerifier TxVerifier, locks *Locks, pollInterval, verifyTimeout time.Duration) *PaymentService {
	if pollInterval <= 0 {
		pollInterval = DefaultPollInterval
	}
	if verifyTimeout <= 0 {
		verifyTimeout = DefaultVerifyTimeout
	}
	return &PaymentService{
		payments:      payments,
		verifier:      txVerifier,
		locks:         locks,
		pollInterval:  pollInterval,
		verifyTimeout: verifyTimeout,
		maxTxAge:      DefaultMaxTxAge,
		now:           time.Now,
		done:          make(chan struct{}),
	}
}

// Submit validates and records a claimed payment, then starts its watcher.
// The caller gets the pending record back immediately; verification is
// asynchronous.
func (s *PaymentService) Submit(ctx context.Context, userID int64, planID, cryptoType, txHash string) (*domain.CryptoPayment, error) {
	p, ok := plan.Get(planID)
	if !ok || p.Price.IsZero() {
		return nil, fmt.Errorf("%w: %q", ErrUnknownPlan, planID)
	}
	if err := crypto.ValidateTxHash(txHash, cryptoType); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidTxHash, err)
	}

	payment := &domain.CryptoPayment{
		ID:         uuid.NewString(),
		UserID:     userID,
		PlanID:     planID,
		Amount:     p.Price,
		CryptoType: cryptoType,
		TxHash:     txHash,
		Status:     domain.PaymentPending,
		CreatedAt:  s.now(),
	}
	if err := s.payments.Create(ctx, payment); err != nil {
		return nil, err
	}

	metrics.PaymentsSubmitted.Inc()
	logger.Info("payment submitted", "payment_id", payment.ID, "user_id", userID, "plan_id", planID)
	s.startWatcher(payment)
	return payment, nil
}

// Get returns one of the caller's payments for status polling.
func (s *PaymentService) Get(ctx context.Context, userID int64, id string) (*domain.CryptoPayment, error) {
	p, err := s.payments.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if p == nil || p.UserID != userID {
		return nil, ErrNotFound
	}
	return p, nil
}

// Resume re-attaches watchers to payments left pending by a crash. The
// original deadline stands; anything already past it fails immediately.
func (s *PaymentService) Resume(ctx context.Context) error {
	pending, err := s.payments.ListPending(ctx)
	if err != nil {
		return fmt.Errorf("list pending payments: %w", err)
	}

	for _, p := range pending {
		if !s.now().Before(p.CreatedAt.Add(s.verifyTimeout)) {
			s.fail(p, "deadline elapsed before restart")
			continue
		}
		s.startWatcher(p)
	}

	if len(pending) > 0 {
		logger.Info("resumed pending payments", "count", len(pending))
	}
	return nil
}

// Close stops all watchers and waits for them to exit.
func (s *PaymentService) Close() {
	close(s.done)
	s.wg.Wait()
}

func (s *PaymentService) startWatcher(p *domain.CryptoPayment) {
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		s.watch(p)
	}()
}

// watch polls the verifier until the payment verifies, fails, or times out.
// The watcher belongs to exactly one payment; it never blocks the accrual
// scheduler or another user's operations.
func (s *PaymentService) watch(p *domain.CryptoPayment) {
	deadline := p.CreatedAt.Add(s.verifyTimeout)
	timer := time.NewTimer(deadline.Sub(s.now()))
	defer timer.Stop()

	ticker := time.NewTicker(s.pollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-s.done:
			return
		case <-timer.C:
			s.fail(p, "verification timeout")
			return
		case <-ticker.C:
			ctx, cancel := context.WithDeadline(context.Background(), deadline)
			res, err := s.verifier.Verify(ctx, p.TxHash, p.CryptoType)
			cancel()
			if err != nil {
				// Verifier unavailable: retry on the next tick until the
				// deadline settles it.
				logger.Debug("verifier call failed", "payment_id", p.ID, "error", err)
				continue
			}

			switch {
			case res.Failed:
				s.fail(p, "verifier reported failure")
				return
			case res.Confirmed && res.Age > s.maxTxAge:
				s.fail(p, "transaction too old")
				return
			case res.Confirmed && res.Amount.LessThan(p.Amount):
				s.fail(p, "transaction amount below plan price")
				return
			case res.Confirmed:
				s.verify(p)
				return
			}
		}
	}
}

func (s *PaymentService) verify(p *domain.CryptoPayment) {
	planDef, ok := plan.Get(p.PlanID)
	if !ok {
		s.fail(p, "plan vanished from catalog")
		return
	}

	unlock := s.locks.Lock(p.UserID)
	defer unlock()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	applied, err := s.payments.FinalizeVerified(ctx, p.ID, p.UserID, p.PlanID, planDef.Rate)
	if err != nil {
		logger.Error("finalize verified payment", "payment_id", p.ID, "error", err)
		return
	}
	if !applied {
		logger.Debug("payment already terminal, verification dropped", "payment_id", p.ID)
		return
	}

	metrics.PaymentOutcomes.WithLabelValues("verified").Inc()
	logger.Info("payment verified, plan assigned", "payment_id", p.ID, "user_id", p.UserID, "plan_id", p.PlanID)
}

func (s *PaymentService) fail(p *domain.CryptoPayment, reason string) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	applied, err := s.payments.MarkFailed(ctx, p.ID)
	if err != nil {
		logger.Error("fail payment", "payment_id", p.ID, "error", err)
		return
	}
	if !applied {
		return
	}

	metrics.PaymentOutcomes.WithLabelValues("failed").Inc()
	logger.Warn("payment failed", "payment_id", p.ID, "user_id", p.UserID, "reason", reason)
}
