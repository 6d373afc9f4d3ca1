package service

import (
	"context"
	"errors"
	"fmt"

	"cloudmine_backend/internal/domain"
	"cloudmine_backend/internal/logger"
	"cloudmine_backend/internal/metrics"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// LedgerService is the only writer of balance events. Balance is always
// derived from the entry log, never maintained as a counter.
type LedgerService struct {
	store LedgerStore
}

func NewLedgerService(store LedgerStore) *LedgerService {
	return &LedgerService{store: store}
}

// miningCreditKey is the idempotency key for one cycle's payout. One key per
// (session, cycle index) makes crediting exactly-once under retries and
// restarts.
func miningCreditKey(sessionID string, cycle int64) string {
	return fmt.Sprintf("mining:%s:%d", sessionID, cycle)
}

func withdrawalDebitKey(withdrawalID string) string {
	return "withdrawal:" + withdrawalID
}

// CreditMining appends the payout for one completed cycle. A duplicate key
// means the cycle was already credited; that is success for the caller.
func (s *LedgerService) CreditMining(ctx context.Context, userID int64, sessionID string, cycle int64, amount decimal.Decimal) error {
	entry := &domain.LedgerEntry{
		ID:             uuid.NewString(),
		UserID:         userID,
		Kind:           domain.EntryMiningCredit,
		Amount:         amount,
		Reference:      sessionID,
		IdempotencyKey: miningCreditKey(sessionID, cycle),
	}

	err := s.store.Append(ctx, entry)
	if errors.Is(err, ErrDuplicateIdempotencyKey) {
		metrics.MiningCreditDuplicates.Inc()
		logger.Debug("cycle already credited", "session_id", sessionID, "cycle", cycle)
		return nil
	}
	if err != nil {
		return fmt.Errorf("append mining credit: %w", err)
	}

	metrics.MiningCredits.Inc()
	return nil
}

// Balance returns the sum of the user's ledger entries.
func (s *LedgerService) Balance(ctx context.Context, userID int64) (decimal.Decimal, error) {
	return s.store.Balance(ctx, userID)
}

// History returns the user's most recent ledger entries.
func (s *LedgerService) History(ctx context.Context, userID int64, limit int) ([]*domain.LedgerEntry, error) {
	if limit <= 0 {
		limit = 100
	}
	return s.store.ListByUser(ctx, userID, limit)
}
