package storage

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// DiskStore keeps media on the local filesystem under a single directory and
// serves it from a public base URL. Filenames follow the
// {userKey}_{number}.{ext} convention, which is also how gallery listings
// attribute files to users.
type DiskStore struct {
	dir     string
	baseURL string
}

func NewDiskStore(dir, baseURL string) (*DiskStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create media directory: %w", err)
	}
	return &DiskStore{dir: dir, baseURL: strings.TrimRight(baseURL, "/")}, nil
}

func (s *DiskStore) Save(ctx context.Context, filename string, data []byte) (string, error) {
	path := filepath.Join(s.dir, filepath.Base(filename))
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", fmt.Errorf("failed to write media file: %w", err)
	}
	return s.baseURL + "/" + filepath.Base(filename), nil
}

func (s *DiskStore) ListByUser(ctx context.Context, userKey string) ([]*File, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read media directory: %w", err)
	}

	var files []*File
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		owner, number, ok := ParseFilename(e.Name())
		if !ok || owner != userKey {
			continue
		}
		info, err := e.Info()
		if err != nil {
			continue
		}
		files = append(files, &File{
			Name:      e.Name(),
			URL:       s.baseURL + "/" + e.Name(),
			Size:      info.Size(),
			UserKey:   owner,
			Number:    number,
			CreatedAt: info.ModTime(),
		})
	}

	sort.Slice(files, func(i, j int) bool {
		return files[i].CreatedAt.After(files[j].CreatedAt)
	})
	return files, nil
}

// ParseFilename splits a stored filename into its owner key and file number.
// The owner key may itself contain underscores, so the split is on the last
// one before the extension.
func ParseFilename(name string) (userKey, number string, ok bool) {
	ext := filepath.Ext(name)
	stem := strings.TrimSuffix(name, ext)
	i := strings.LastIndex(stem, "_")
	if i <= 0 || ext == "" {
		return "", "", false
	}
	return stem[:i], stem[i+1:], true
}
