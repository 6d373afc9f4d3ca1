package repository

import (
	"context"

	"cloudmine_backend/internal/domain"
	"cloudmine_backend/internal/service"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
)

type LedgerRepository struct {
	db *pgxpool.Pool
}

func NewLedgerRepository(db *pgxpool.Pool) *LedgerRepository {
	return &LedgerRepository{db: db}
}

// Append writes one entry. The unique index on (user_id, idempotency_key)
// carries the exactly-once contract: a second write with the same key is
// reported as ErrDuplicateIdempotencyKey and changes nothing.
func (r *LedgerRepository) Append(ctx context.Context, e *domain.LedgerEntry) error {
	tag, err := r.db.Exec(ctx, `
		INSERT INTO ledger_entries (id, user_id, kind, amount, reference, idempotency_key)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (user_id, idempotency_key) DO NOTHING
	`, e.ID, e.UserID, e.Kind, e.Amount.String(), e.Reference, e.IdempotencyKey)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return service.ErrDuplicateIdempotencyKey
	}
	return nil
}

// appendTx is Append inside an existing transaction (withdrawal debit path).
func appendTx(ctx context.Context, tx pgx.Tx, e *domain.LedgerEntry) error {
	tag, err := tx.Exec(ctx, `
		INSERT INTO ledger_entries (id, user_id, kind, amount, reference, idempotency_key)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (user_id, idempotency_key) DO NOTHING
	`, e.ID, e.UserID, e.Kind, e.Amount.String(), e.Reference, e.IdempotencyKey)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return service.ErrDuplicateIdempotencyKey
	}
	return nil
}

// Balance derives the balance from the entry log.
func (r *LedgerRepository) Balance(ctx context.Context, userID int64) (decimal.Decimal, error) {
	var sumStr string
	err := r.db.QueryRow(ctx, `
		SELECT COALESCE(SUM(amount), 0)::text
		FROM ledger_entries
		WHERE user_id = $1
	`, userID).Scan(&sumStr)
	if err != nil {
		return decimal.Zero, err
	}
	return decimal.NewFromString(sumStr)
}

// ListByUser returns recent entries, newest first
func (r *LedgerRepository) ListByUser(ctx context.Context, userID int64, limit int) ([]*domain.LedgerEntry, error) {
	rows, err := r.db.Query(ctx, `
		SELECT id, user_id, kind, amount::text, reference, idempotency_key, created_at
		FROM ledger_entries
		WHERE user_id = $1
		ORDER BY created_at DESC
		LIMIT $2
	`, userID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []*domain.LedgerEntry
	for rows.Next() {
		var (
			e         domain.LedgerEntry
			amountStr string
		)
		if err := rows.Scan(&e.ID, &e.UserID, &e.Kind, &amountStr, &e.Reference, &e.IdempotencyKey, &e.CreatedAt); err != nil {
			return nil, err
		}
		if e.Amount, err = decimal.NewFromString(amountStr); err != nil {
			return nil, err
		}
		result = append(result, &e)
	}
	return result, rows.Err()
}
