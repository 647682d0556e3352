package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"docquiz/internal/domain"
)

type PlanDatabaseAdapter struct {
	db DBTX
}

func NewPlanDatabaseAdapter(db DBTX) domain.PlanRepository {
	return &PlanDatabaseAdapter{db: db}
}

// GetActivePlanName returns the plan of the user's newest active or trialing subscription.
func (a *PlanDatabaseAdapter) GetActivePlanName(ctx context.Context, userID string) (string, error) {
	var name string
	query := `SELECT p.name
		FROM subscriptions s
		JOIN plans p ON p.id = s.plan_id
		WHERE s.user_id = $1 AND s.status IN ('active', 'trialing')
		ORDER BY s.created_at DESC
		LIMIT 1`
	if err := GetExecutor(ctx, a.db).GetContext(ctx, &name, query, userID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", nil
		}
		return "", fmt.Errorf("failed to get active plan: %w", err)
	}
	return name, nil
}
