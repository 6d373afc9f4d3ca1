package repository

import (
	"context"
	"errors"
	"time"

	"cloudmine_backend/internal/domain"
	"cloudmine_backend/internal/service"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
)

type PaymentRepository struct {
	db *pgxpool.Pool
}

func NewPaymentRepository(db *pgxpool.Pool) *PaymentRepository {
	return &PaymentRepository{db: db}
}

const paymentColumns = `id, user_id, plan_id, amount::text, crypto_type, tx_hash, status, created_at, verified_at`

func scanPayment(row pgx.Row) (*domain.CryptoPayment, error) {
	var (
		p         domain.CryptoPayment
		amountStr string
	)
	if err := row.Scan(&p.ID, &p.UserID, &p.PlanID, &amountStr, &p.CryptoType, &p.TxHash, &p.Status, &p.CreatedAt, &p.VerifiedAt); err != nil {
		return nil, err
	}
	amount, err := decimal.NewFromString(amountStr)
	if err != nil {
		return nil, err
	}
	p.Amount = amount
	return &p, nil
}

// Create inserts a pending payment. The unique index on tx_hash rejects a
// transaction hash already claimed by any user.
func (r *PaymentRepository) Create(ctx context.Context, p *domain.CryptoPayment) error {
	_, err := r.db.Exec(ctx, `
		INSERT INTO crypto_payments (id, user_id, plan_id, amount, crypto_type, tx_hash, status, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`, p.ID, p.UserID, p.PlanID, p.Amount.String(), p.CryptoType, p.TxHash, p.Status, p.CreatedAt)

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == "23505" {
		return service.ErrDuplicateTransaction
	}
	return err
}

// GetByID retrieves a payment, nil when missing
func (r *PaymentRepository) GetByID(ctx context.Context, id string) (*domain.CryptoPayment, error) {
	row := r.db.QueryRow(ctx, `SELECT `+paymentColumns+` FROM crypto_payments WHERE id = $1`, id)
	p, err := scanPayment(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	return p, err
}

// ListPending returns all payments still awaiting verification
func (r *PaymentRepository) ListPending(ctx context.Context) ([]*domain.CryptoPayment, error) {
	rows, err := r.db.Query(ctx, `
		SELECT `+paymentColumns+`
		FROM crypto_payments
		WHERE status = 'pending'
		ORDER BY created_at ASC
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []*domain.CryptoPayment
	for rows.Next() {
		p, err := scanPayment(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, p)
	}
	return result, rows.Err()
}

// MarkFailed is the compare-and-set pending -> failed.
func (r *PaymentRepository) MarkFailed(ctx context.Context, id string) (bool, error) {
	tag, err := r.db.Exec(ctx, `
		UPDATE crypto_payments SET status = 'failed'
		WHERE id = $1 AND status = 'pending'
	`, id)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() == 1, nil
}

// FinalizeVerified is the compare-and-set pending -> verified plus the plan
// assignment and active-session re-rate, all in one transaction. The guarded
// UPDATE is what makes the outcome single-winner against a racing timeout.
func (r *PaymentRepository) FinalizeVerified(ctx context.Context, id string, userID int64, planID string, rate decimal.Decimal) (bool, error) {
	tx, err := r.db.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return false, err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	tag, err := tx.Exec(ctx, `
		UPDATE crypto_payments SET status = 'verified', verified_at = $2
		WHERE id = $1 AND status = 'pending'
	`, id, time.Now())
	if err != nil {
		return false, err
	}
	if tag.RowsAffected() == 0 {
		return false, nil
	}

	_, err = tx.Exec(ctx, `
		INSERT INTO user_plans (user_id, plan_id, purchased_at)
		VALUES ($1, $2, now())
		ON CONFLICT (user_id) DO UPDATE SET plan_id = EXCLUDED.plan_id, purchased_at = EXCLUDED.purchased_at
	`, userID, planID)
	if err != nil {
		return false, err
	}

	// Future cycles of the running session settle at the new rate; already
	// credited cycles keep their amounts.
	_, err = tx.Exec(ctx, `
		UPDATE mining_sessions SET rate = $2
		WHERE user_id = $1 AND state = 'active'
	`, userID, rate.String())
	if err != nil {
		return false, err
	}

	if err := tx.Commit(ctx); err != nil {
		return false, err
	}
	return true, nil
}
