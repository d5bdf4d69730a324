package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"streamnet/internal/model"
)

type statsRepository struct {
	db *sqlx.DB
}

func NewStatsRepository(db *sqlx.DB) StatsRepository {
	return &statsRepository{db: db}
}

func (r *statsRepository) Collect(ctx context.Context, since time.Time) (*model.PlatformStats, error) {
	query := `
		SELECT
			COUNT(*)                                   AS total_users,
			COUNT(*) FILTER (WHERE NOT is_blocked)     AS active_users,
			COUNT(*) FILTER (WHERE is_blocked)         AS blocked_users,
			COUNT(*) FILTER (WHERE is_onboarded)       AS onboarded_users,
			COUNT(*) FILTER (WHERE is_admin)           AS admin_users,
			COUNT(*) FILTER (WHERE created_at >= $1)   AS recent_users,
			(SELECT COUNT(*) FROM friend_requests)     AS total_friend_requests,
			(SELECT COUNT(*) FROM friend_requests WHERE status = 'pending') AS pending_requests
		FROM users
	`

	var stats model.PlatformStats
	if err := r.db.GetContext(ctx, &stats, query, since); err != nil {
		return nil, fmt.Errorf("failed to collect platform stats: %w", err)
	}
	return &stats, nil
}
