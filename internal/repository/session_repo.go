package repository

import (
	"context"
	"errors"

	"cloudmine_backend/internal/domain"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
)

type SessionRepository struct {
	db *pgxpool.Pool
}

func NewSessionRepository(db *pgxpool.Pool) *SessionRepository {
	return &SessionRepository{db: db}
}

const sessionColumns = `id, user_id, coin_type, state, start_time, last_pause_time, rate::text, last_credited_cycle, created_at`

func scanSession(row pgx.Row) (*domain.MiningSession, error) {
	var (
		s       domain.MiningSession
		rateStr string
	)
	if err := row.Scan(
		&s.ID, &s.UserID, &s.CoinType, &s.State, &s.StartTime,
		&s.LastPauseTime, &rateStr, &s.LastCreditedCycle, &s.CreatedAt,
	); err != nil {
		return nil, err
	}
	rate, err := decimal.NewFromString(rateStr)
	if err != nil {
		return nil, err
	}
	s.Rate = rate
	return &s, nil
}

// ActiveByUser returns the user's active session, nil when not mining.
func (r *SessionRepository) ActiveByUser(ctx context.Context, userID int64) (*domain.MiningSession, error) {
	row := r.db.QueryRow(ctx, `
		SELECT `+sessionColumns+`
		FROM mining_sessions
		WHERE user_id = $1 AND state = 'active'
	`, userID)

	s, err := scanSession(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	return s, err
}

// Create inserts a new session
func (r *SessionRepository) Create(ctx context.Context, s *domain.MiningSession) error {
	return r.db.QueryRow(ctx, `
		INSERT INTO mining_sessions (id, user_id, coin_type, state, start_time, rate, last_credited_cycle)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING created_at
	`, s.ID, s.UserID, s.CoinType, s.State, s.StartTime, s.Rate.String(), s.LastCreditedCycle).Scan(&s.CreatedAt)
}

// Update persists state, pause time, rate and the credited-cycle watermark.
// Callers must hold the user's lock; the scheduler advances watermarks
// through AdvanceCredited instead.
func (r *SessionRepository) Update(ctx context.Context, s *domain.MiningSession) error {
	_, err := r.db.Exec(ctx, `
		UPDATE mining_sessions
		SET state = $2, last_pause_time = $3, rate = $4, last_credited_cycle = GREATEST(last_credited_cycle, $5)
		WHERE id = $1
	`, s.ID, s.State, s.LastPauseTime, s.Rate.String(), s.LastCreditedCycle)
	return err
}

// AdvanceCredited moves the watermark forward without touching state or
// rate, so it is safe against concurrent stop and re-rate writes. GREATEST
// keeps a stale settle from rolling the watermark back.
func (r *SessionRepository) AdvanceCredited(ctx context.Context, sessionID string, cycle int64) error {
	_, err := r.db.Exec(ctx, `
		UPDATE mining_sessions
		SET last_credited_cycle = GREATEST(last_credited_cycle, $2)
		WHERE id = $1
	`, sessionID, cycle)
	return err
}

// ListActive returns every active session across all users
func (r *SessionRepository) ListActive(ctx context.Context) ([]*domain.MiningSession, error) {
	rows, err := r.db.Query(ctx, `
		SELECT `+sessionColumns+`
		FROM mining_sessions
		WHERE state = 'active'
		ORDER BY start_time ASC
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []*domain.MiningSession
	for rows.Next() {
		s, err := scanSession(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, s)
	}
	return result, rows.Err()
}
