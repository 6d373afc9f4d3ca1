package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// WithdrawalStatus represents withdrawal processing status
type WithdrawalStatus string

const (
	WithdrawalPending  WithdrawalStatus = "pending"
	WithdrawalApproved WithdrawalStatus = "approved"
	WithdrawalRejected WithdrawalStatus = "rejected"
	WithdrawalPaid     WithdrawalStatus = "paid"
)

// WithdrawalRequest is a payout request consumed by the external payout
// process. The debit ledger entry is written when the request is created, so
// the amount is reserved before any funds move.
type WithdrawalRequest struct {
	ID            string           `db:"id" json:"id"`
	UserID        int64            `db:"user_id" json:"user_id"`
	Amount        decimal.Decimal  `db:"amount" json:"amount"`
	CryptoType    string           `db:"crypto_type" json:"crypto_type"`
	WalletAddress string           `db:"wallet_address" json:"wallet_address"`
	Status        WithdrawalStatus `db:"status" json:"status"`
	CreatedAt     time.Time        `db:"created_at" json:"created_at"`
	ProcessedAt   *time.Time       `db:"processed_at" json:"processed_at,omitempty"`
}

// SavedWallet is a withdrawal address the user has used before, kept so the
// dashboard can offer it again.
type SavedWallet struct {
	ID         int64     `db:"id" json:"id"`
	UserID     int64     `db:"user_id" json:"user_id"`
	Address    string    `db:"address" json:"address"`
	CryptoType string    `db:"crypto_type" json:"crypto_type"`
	CreatedAt  time.Time `db:"created_at" json:"created_at"`
}
