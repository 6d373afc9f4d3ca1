package service

import (
	"context"
	"fmt"

	"cloudmine_backend/internal/crypto"
	"cloudmine_backend/internal/domain"
	"cloudmine_backend/internal/logger"
	"cloudmine_backend/internal/metrics"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// DefaultMinWithdrawal is the global minimum in USD. Per-crypto floors are
// USD as well; the effective minimum is the larger of the two.
var DefaultMinWithdrawal = decimal.NewFromInt(10)

// WithdrawalService validates payout requests and reserves the balance by
// writing the debit entry at creation time. The check and the debit run under
// the user's lock, so no concurrent debit can slip between them.
type WithdrawalService struct {
	withdrawals WithdrawalStore
	ledger      *LedgerService
	wallets     WalletStore
	locks       *Locks

	globalMin   decimal.Decimal
	minByCrypto map[string]decimal.Decimal
}

func NewWithdrawalService(withdrawals WithdrawalStore, ledger *LedgerService, wallets WalletStore, locks *Locks, globalMin decimal.Decimal, minByCrypto map[string]decimal.Decimal) *WithdrawalService {
	if globalMin.IsZero() {
		globalMin = DefaultMinWithdrawal
	}
	if minByCrypto == nil {
		minByCrypto = map[string]decimal.Decimal{}
	}
	return &WithdrawalService{
		withdrawals: withdrawals,
		ledger:      ledger,
		wallets:     wallets,
		locks:       locks,
		globalMin:   globalMin,
		minByCrypto: minByCrypto,
	}
}

// Minimum returns the effective minimum for one crypto type.
func (s *WithdrawalService) Minimum(cryptoType string) decimal.Decimal {
	min := s.globalMin
	if m, ok := s.minByCrypto[cryptoType]; ok && m.GreaterThan(min) {
		min = m
	}
	return min
}

// Request validates and reserves a withdrawal. On success the request is
// Pending and the debit is already on the ledger; the external payout process
// takes it from there.
func (s *WithdrawalService) Request(ctx context.Context, userID int64, amount decimal.Decimal, cryptoType, walletAddress string) (*domain.WithdrawalRequest, error) {
	if !amount.IsPositive() {
		return nil, ErrInvalidAmount
	}
	if err := crypto.ValidateAddress(walletAddress, cryptoType); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidAddress, err)
	}
	if min := s.Minimum(cryptoType); amount.LessThan(min) {
		return nil, fmt.Errorf("%w: minimum for %s is %s", ErrBelowMinimum, cryptoType, min)
	}

	unlock := s.locks.Lock(userID)
	defer unlock()

	balance, err := s.ledger.Balance(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("read balance: %w", err)
	}
	if amount.GreaterThan(balance) {
		return nil, ErrInsufficientBalance
	}
	if balance.IsNegative() {
		// Debits only happen under this lock; a negative balance means the
		// exclusion contract was broken elsewhere.
		metrics.InvariantViolations.Inc()
		logger.Error("negative balance detected", "user_id", userID, "balance", balance.String())
		return nil, fmt.Errorf("negative balance for user %d", userID)
	}

	w := &domain.WithdrawalRequest{
		ID:            uuid.NewString(),
		UserID:        userID,
		Amount:        amount,
		CryptoType:    cryptoType,
		WalletAddress: walletAddress,
		Status:        domain.WithdrawalPending,
	}
	debit := &domain.LedgerEntry{
		ID:             uuid.NewString(),
		UserID:         userID,
		Kind:           domain.EntryWithdrawalDebit,
		Amount:         amount.Neg(),
		Reference:      w.ID,
		IdempotencyKey: withdrawalDebitKey(w.ID),
	}
	if err := s.withdrawals.CreateWithDebit(ctx, w, debit); err != nil {
		return nil, fmt.Errorf("create withdrawal: %w", err)
	}

	metrics.WithdrawalsCreated.Inc()
	logger.Info("withdrawal reserved", "user_id", userID, "withdrawal_id", w.ID, "amount", amount.String(), "crypto", cryptoType)

	s.rememberWallet(ctx, userID, walletAddress, cryptoType)
	return w, nil
}

// rememberWallet keeps the address for the dashboard's saved-wallets list.
// Best effort: a failure here must not fail the withdrawal.
func (s *WithdrawalService) rememberWallet(ctx context.Context, userID int64, address, cryptoType string) {
	if s.wallets == nil {
		return
	}
	err := s.wallets.Save(ctx, &domain.SavedWallet{
		UserID:     userID,
		Address:    address,
		CryptoType: cryptoType,
	})
	if err != nil {
		logger.Warn("save wallet address", "user_id", userID, "error", err)
	}
}

// List returns the user's recent withdrawal requests.
func (s *WithdrawalService) List(ctx context.Context, userID int64, limit int) ([]*domain.WithdrawalRequest, error) {
	if limit <= 0 {
		limit = 50
	}
	return s.withdrawals.ListByUser(ctx, userID, limit)
}

// Wallets returns the user's saved withdrawal addresses.
func (s *WithdrawalService) Wallets(ctx context.Context, userID int64) ([]*domain.SavedWallet, error) {
	return s.wallets.ListByUser(ctx, userID)
}
