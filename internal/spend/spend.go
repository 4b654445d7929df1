// Package spend talks to the upstream billing service that owns user keys,
// balances, and budgets. All calls are best-effort and non-transactional;
// the orchestrator treats failures as advisory.
package spend

import (
	"context"
	"errors"
)

// KeyInfo is the billing service's view of one user key.
type KeyInfo struct {
	Alias  string
	Spend  float64
	Budget *float64 // nil means unlimited
	UserID string
}

// ErrInvalidKey is returned when the billing service rejects the key.
var ErrInvalidKey = errors.New("billing service rejected key")

// Service is the billing collaborator boundary.
type Service interface {
	// GetKeyInfo fetches the current spend and budget for a key.
	GetKeyInfo(ctx context.Context, key string) (*KeyInfo, error)
	// UpdateSpend pushes the new spend total for a key.
	UpdateSpend(ctx context.Context, key string, newSpend float64) error
}
