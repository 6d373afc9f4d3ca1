package repository

import (
	"context"
	"errors"

	"cloudmine_backend/internal/plan"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type UserPlanRepository struct {
	db *pgxpool.Pool
}

func NewUserPlanRepository(db *pgxpool.Pool) *UserPlanRepository {
	return &UserPlanRepository{db: db}
}

// PlanID returns the user's purchased plan, or the default plan when the
// user never bought one.
func (r *UserPlanRepository) PlanID(ctx context.Context, userID int64) (string, error) {
	var planID string
	err := r.db.QueryRow(ctx, `
		SELECT plan_id FROM user_plans WHERE user_id = $1
	`, userID).Scan(&planID)
	if errors.Is(err, pgx.ErrNoRows) {
		return plan.DefaultPlanID, nil
	}
	if err != nil {
		return "", err
	}
	return planID, nil
}
