package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// SessionState represents mining session state
type SessionState string

const (
	SessionActive  SessionState = "active"
	SessionStopped SessionState = "stopped"
)

// MiningSession is one user's mining run. At most one session per user may be
// active at a time. Sessions are never deleted; a stopped session is history.
type MiningSession struct {
	ID                string          `db:"id" json:"id"`
	UserID            int64           `db:"user_id" json:"user_id"`
	CoinType          string          `db:"coin_type" json:"coin_type"`
	State             SessionState    `db:"state" json:"state"`
	StartTime         time.Time       `db:"start_time" json:"start_time"`
	LastPauseTime     *time.Time      `db:"last_pause_time" json:"last_pause_time,omitempty"`
	Rate              decimal.Decimal `db:"rate" json:"rate"`
	LastCreditedCycle int64           `db:"last_credited_cycle" json:"last_credited_cycle"`
	CreatedAt         time.Time       `db:"created_at" json:"created_at"`
}
