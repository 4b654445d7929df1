// Package storage persists generated media and serves the per-user gallery.
package storage

import (
	"context"
	"time"
)

// File describes one stored media file.
type File struct {
	Name      string    `json:"name"`
	URL       string    `json:"url"`
	Size      int64     `json:"size"`
	UserKey   string    `json:"-"`
	Number    string    `json:"file_number"`
	CreatedAt time.Time `json:"created_at"`
}

// Store is the media storage collaborator.
type Store interface {
	// Save writes bytes under the given filename and returns the public URL.
	Save(ctx context.Context, filename string, data []byte) (string, error)
	// ListByUser returns the stored files belonging to one user key,
	// newest first.
	ListByUser(ctx context.Context, userKey string) ([]*File, error)
}
