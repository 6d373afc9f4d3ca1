package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// EntryKind classifies a ledger entry
type EntryKind string

const (
	EntryMiningCredit    EntryKind = "mining_credit"
	EntryWithdrawalDebit EntryKind = "withdrawal_debit"
	EntryAdjustment      EntryKind = "adjustment"
)

// LedgerEntry is one signed, append-only balance event. A user's balance is
// always the sum of their entries; nothing else holds balance state.
// IdempotencyKey is unique per user: one key per (session, cycle) credit and
// one per withdrawal debit, so re-applying the same effect is a no-op.
type LedgerEntry struct {
	ID             string          `db:"id" json:"id"`
	UserID         int64           `db:"user_id" json:"user_id"`
	Kind           EntryKind       `db:"kind" json:"kind"`
	Amount         decimal.Decimal `db:"amount" json:"amount"`
	Reference      string          `db:"reference" json:"reference,omitempty"`
	IdempotencyKey string          `db:"idempotency_key" json:"-"`
	CreatedAt      time.Time       `db:"created_at" json:"created_at"`
}
