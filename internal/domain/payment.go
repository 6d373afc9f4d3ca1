package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// PaymentStatus represents crypto payment verification status
type PaymentStatus string

const (
	PaymentPending  PaymentStatus = "pending"
	PaymentVerified PaymentStatus = "verified"
	PaymentFailed   PaymentStatus = "failed"
)

// CryptoPayment is a claimed on-chain payment for a plan purchase. TxHash is
// globally unique: one external transaction can never buy two plans or be
// replayed by another user. Pending payments are watched until an external
// verifier confirms them or the verification window closes.
type CryptoPayment struct {
	ID         string          `db:"id" json:"id"`
	UserID     int64           `db:"user_id" json:"user_id"`
	PlanID     string          `db:"plan_id" json:"plan_id"`
	Amount     decimal.Decimal `db:"amount" json:"amount"`
	CryptoType string          `db:"crypto_type" json:"crypto_type"`
	TxHash     string          `db:"tx_hash" json:"tx_hash"`
	Status     PaymentStatus   `db:"status" json:"status"`
	CreatedAt  time.Time       `db:"created_at" json:"created_at"`
	VerifiedAt *time.Time      `db:"verified_at" json:"verified_at,omitempty"`
}
