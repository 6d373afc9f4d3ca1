package repository

import (
	"context"

	"cloudmine_backend/internal/domain"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
)

type WithdrawalRepository struct {
	db *pgxpool.Pool
}

func NewWithdrawalRepository(db *pgxpool.Pool) *WithdrawalRepository {
	return &WithdrawalRepository{db: db}
}

// CreateWithDebit writes the request and its reserving ledger debit in one
// transaction, so balance is reserved the instant the request exists.
func (r *WithdrawalRepository) CreateWithDebit(ctx context.Context, w *domain.WithdrawalRequest, debit *domain.LedgerEntry) error {
	tx, err := r.db.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	err = tx.QueryRow(ctx, `
		INSERT INTO withdrawals (id, user_id, amount, crypto_type, wallet_address, status)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING created_at
	`, w.ID, w.UserID, w.Amount.String(), w.CryptoType, w.WalletAddress, w.Status).Scan(&w.CreatedAt)
	if err != nil {
		return err
	}

	if err := appendTx(ctx, tx, debit); err != nil {
		return err
	}

	return tx.Commit(ctx)
}

// ListByUser returns recent withdrawal requests, newest first
func (r *WithdrawalRepository) ListByUser(ctx context.Context, userID int64, limit int) ([]*domain.WithdrawalRequest, error) {
	rows, err := r.db.Query(ctx, `
		SELECT id, user_id, amount::text, crypto_type, wallet_address, status, created_at, processed_at
		FROM withdrawals
		WHERE user_id = $1
		ORDER BY created_at DESC
		LIMIT $2
	`, userID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []*domain.WithdrawalRequest
	for rows.Next() {
		var (
			w         domain.WithdrawalRequest
			amountStr string
		)
		if err := rows.Scan(&w.ID, &w.UserID, &amountStr, &w.CryptoType, &w.WalletAddress, &w.Status, &w.CreatedAt, &w.ProcessedAt); err != nil {
			return nil, err
		}
		if w.Amount, err = decimal.NewFromString(amountStr); err != nil {
			return nil, err
		}
		result = append(result, &w)
	}
	return result, rows.Err()
}
