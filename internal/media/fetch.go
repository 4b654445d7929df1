package media

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
)

// maxFetchBytes caps remote media downloads at 20 MiB, matching the upload
// limit advertised in the tool schemas.
const maxFetchBytes = 20 << 20

// ErrMediaTooLarge is returned when a remote media body exceeds the limit.
var ErrMediaTooLarge = errors.New("remote media exceeds size limit")

// Fetcher downloads remote media for providers that require it inline.
type Fetcher struct {
	client *http.Client
}

func NewFetcher(client *http.Client) *Fetcher {
	if client == nil {
		client = http.DefaultClient
	}
	return &Fetcher{client: client}
}

// Fetch downloads a URL and returns its bytes and content type.
func (f *Fetcher) Fetch(ctx context.Context, url string) ([]byte, string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, "", err
	}

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, "", fmt.Errorf("media download failed with status %d", resp.StatusCode)
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxFetchBytes+1))
	if err != nil {
		return nil, "", err
	}
	if len(data) > maxFetchBytes {
		return nil, "", ErrMediaTooLarge
	}

	contentType := resp.Header.Get("Content-Type")
	if i := strings.Index(contentType, ";"); i >= 0 {
		contentType = contentType[:i]
	}
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	return data, contentType, nil
}
