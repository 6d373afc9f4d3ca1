package repository

import (
	"context"

	"cloudmine_backend/internal/domain"

	"github.com/jackc/pgx/v5/pgxpool"
)

type WalletRepository struct {
	db *pgxpool.Pool
}

func NewWalletRepository(db *pgxpool.Pool) *WalletRepository {
	return &WalletRepository{db: db}
}

// Save remembers a withdrawal address; re-saving the same address is a no-op.
func (r *WalletRepository) Save(ctx context.Context, w *domain.SavedWallet) error {
	_, err := r.db.Exec(ctx, `
		INSERT INTO user_wallets (user_id, address, crypto_type)
		VALUES ($1, $2, $3)
		ON CONFLICT (user_id, crypto_type, address) DO NOTHING
	`, w.UserID, w.Address, w.CryptoType)
	return err
}

// ListByUser returns the user's saved withdrawal addresses
func (r *WalletRepository) ListByUser(ctx context.Context, userID int64) ([]*domain.SavedWallet, error) {
	rows, err := r.db.Query(ctx, `
		SELECT id, user_id, address, crypto_type, created_at
		FROM user_wallets
		WHERE user_id = $1
		ORDER BY created_at DESC
	`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []*domain.SavedWallet
	for rows.Next() {
		var w domain.SavedWallet
		if err := rows.Scan(&w.ID, &w.UserID, &w.Address, &w.CryptoType, &w.CreatedAt); err != nil {
			return nil, err
		}
		result = append(result, &w)
	}
	return result, rows.Err()
}
