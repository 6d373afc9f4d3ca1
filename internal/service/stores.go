package service

import (
	"context"

	"cloudmine_backend/internal/domain"

	"github.com/shopspring/decimal"
)

// Store contracts the engine runs against. The pgx implementations live in
// internal/repository; tests run the same services over in-memory fakes.

// SessionStore persists mining sessions. Update writes the whole row and is
// reserved for callers holding the user's lock; the lock-free accrual path
// must use AdvanceCredited, which touches nothing but the watermark and never
// moves it backwards.
type SessionStore interface {
	// ActiveByUser returns the user's active session, or nil.
	ActiveByUser(ctx context.Context, userID int64) (*domain.MiningSession, error)
	Create(ctx context.Context, s *domain.MiningSession) error
	Update(ctx context.Context, s *domain.MiningSession) error
	// AdvanceCredited raises the session's credited-cycle watermark to cycle
	// if it is higher than the stored value.
	AdvanceCredited(ctx context.Context, sessionID string, cycle int64) error
	ListActive(ctx context.Context) ([]*domain.MiningSession, error)
}

// LedgerStore persists balance events. Append must reject a second entry
// with the same (user, idempotency key) with ErrDuplicateIdempotencyKey, and
// Balance must observe a consistent snapshot of the entry log.
type LedgerStore interface {
	Append(ctx context.Context, e *domain.LedgerEntry) error
	Balance(ctx context.Context, userID int64) (decimal.Decimal, error)
	ListByUser(ctx context.Context, userID int64, limit int) ([]*domain.LedgerEntry, error)
}

// WithdrawalStore persists withdrawal requests. CreateWithDebit writes the
// request and its reserving debit entry atomically.
type WithdrawalStore interface {
	CreateWithDebit(ctx context.Context, w *domain.WithdrawalRequest, debit *domain.LedgerEntry) error
	ListByUser(ctx context.Context, userID int64, limit int) ([]*domain.WithdrawalRequest, error)
}

// PaymentStore persists crypto payments. Create must reject a reused
// transaction hash with ErrDuplicateTransaction. The two transition methods
// are compare-and-set out of Pending: at most one of them ever returns true
// for a given payment.
type PaymentStore interface {
	Create(ctx context.Context, p *domain.CryptoPayment) error
	GetByID(ctx context.Context, id string) (*domain.CryptoPayment, error)
	ListPending(ctx context.Context) ([]*domain.CryptoPayment, error)
	// MarkFailed transitions pending -> failed.
	MarkFailed(ctx context.Context, id string) (bool, error)
	// FinalizeVerified transitions pending -> verified and, in the same
	// atomic scope, assigns the plan to the user and re-rates the user's
	// active session (future cycles only).
	FinalizeVerified(ctx context.Context, id string, userID int64, planID string, rate decimal.Decimal) (bool, error)
}

// UserPlanStore resolves the plan currently assigned to a user.
type UserPlanStore interface {
	// PlanID returns the user's plan id, or the default plan when the user
	// has never purchased one.
	PlanID(ctx context.Context, userID int64) (string, error)
}

// WalletStore remembers withdrawal addresses per user.
type WalletStore interface {
	Save(ctx context.Context, w *domain.SavedWallet) error
	ListByUser(ctx context.Context, userID int64) ([]*domain.SavedWallet, error)
}
