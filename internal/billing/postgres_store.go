package billing

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

type DB interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}

type PostgresStore struct {
	db DB
}

func NewPostgresStore(db DB) Store {
	return &PostgresStore{db: db}
}

func (s *PostgresStore) LogGeneration(ctx context.Context, log *GenerationLog) error {
	query := `
		INSERT INTO generation_logs (user_key, request_id, tool_id, tool_name, provider, media_kind, media_url, cost_usd)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id, created_at
	`
	err := s.db.QueryRow(ctx, query,
		log.UserKey, log.RequestID, log.ToolID, log.ToolName,
		log.Provider, log.MediaKind, log.MediaURL, log.CostUSD,
	).Scan(&log.ID, &log.CreatedAt)

	if err != nil {
		return fmt.Errorf("failed to log generation: %w", err)
	}

	return nil
}

func (s *PostgresStore) GetStatsByUser(ctx context.Context, userKey string) (*Stats, error) {
	stats := &Stats{}

	query := `
		SELECT COUNT(*), COALESCE(SUM(cost_usd), 0)
		FROM generation_logs
		WHERE user_key = $1
	`
	err := s.db.QueryRow(ctx, query, userKey).Scan(&stats.TotalGenerations, &stats.TotalSpend)
	if err != nil {
		return nil, fmt.Errorf("failed to aggregate generations: %w", err)
	}

	last := &GenerationLog{}
	query = `
		SELECT id, user_key, request_id, tool_id, tool_name, provider, media_kind, media_url, cost_usd, created_at
		FROM generation_logs
		WHERE user_key = $1
		ORDER BY created_at DESC
		LIMIT 1
	`
	err = s.db.QueryRow(ctx, query, userKey).Scan(
		&last.ID, &last.UserKey, &last.RequestID, &last.ToolID, &last.ToolName,
		&last.Provider, &last.MediaKind, &last.MediaURL, &last.CostUSD, &last.CreatedAt,
	)
	switch {
	case err == nil:
		stats.LastGeneration = last
	case errors.Is(err, pgx.ErrNoRows):
		// no generations yet
	default:
		return nil, fmt.Errorf("failed to get last generation: %w", err)
	}

	query = `
		SELECT tool_name, COUNT(*) AS uses
		FROM generation_logs
		WHERE user_key = $1
		GROUP BY tool_name
		ORDER BY uses DESC
		LIMIT 5
	`
	rows, err := s.db.Query(ctx, query, userKey)
	if err != nil {
		return nil, fmt.Errorf("failed to query tool usage: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var u ToolUsage
		if err := rows.Scan(&u.ToolName, &u.Count); err != nil {
			return nil, fmt.Errorf("failed to scan tool usage: %w", err)
		}
		stats.TopTools = append(stats.TopTools, u)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating tool usage: %w", err)
	}

	return stats, nil
}
