package billing

import (
	"context"
	"time"
)

// GenerationLog is one completed generation, recorded for the stats surface.
// The authoritative balance lives in the upstream billing service; these
// rows only feed per-user usage reporting.
type GenerationLog struct {
	ID        string    `json:"id"`
	UserKey   string    `json:"-"`
	RequestID string    `json:"request_id"`
	ToolID    string    `json:"tool_id"`
	ToolName  string    `json:"tool_name"`
	Provider  string    `json:"provider"`
	MediaKind string    `json:"media_kind"`
	MediaURL  string    `json:"media_url"`
	CostUSD   float64   `json:"cost_usd"`
	CreatedAt time.Time `json:"created_at"`
}

// ToolUsage is one row of the most-used-tools ranking.
type ToolUsage struct {
	ToolName string `json:"tool_name"`
	Count    int    `json:"count"`
}

// Stats aggregates a user's generation history.
type Stats struct {
	TotalGenerations int            `json:"total_generations"`
	TotalSpend       float64        `json:"total_spend"`
	LastGeneration   *GenerationLog `json:"last_generation"`
	TopTools         []ToolUsage    `json:"top_tools"`
}

type Store interface {
	LogGeneration(ctx context.Context, log *GenerationLog) error
	GetStatsByUser(ctx context.Context, userKey string) (*Stats, error)
}
