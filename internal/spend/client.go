package spend

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
)

// Client implements Service against the billing service's HTTP API:
// GET /key/info?key=... returns the key's alias, spend and max budget, and
// POST /key/update sets the new spend. Both authenticate with the user's own
// key as a Bearer token.
type Client struct {
	baseURL string
	client  *http.Client
}

func NewClient(baseURL string, client *http.Client) *Client {
	if client == nil {
		client = http.DefaultClient
	}
	return &Client{baseURL: baseURL, client: client}
}

type keyInfoResponse struct {
	Info struct {
		KeyAlias  string   `json:"key_alias"`
		Alias     string   `json:"alias"`
		Spend     float64  `json:"spend"`
		MaxBudget *float64 `json:"max_budget"`
		UserID    string   `json:"user_id"`
	} `json:"info"`
}

func (c *Client) GetKeyInfo(ctx context.Context, key string) (*KeyInfo, error) {
	u, err := url.Parse(c.baseURL + "/key/info")
	if err != nil {
		return nil, fmt.Errorf("invalid billing service url: %w", err)
	}
	q := u.Query()
	q.Set("key", key)
	u.RawQuery = q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", fmt.Sprintf("Bearer %s", key))
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("billing service unreachable: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden || resp.StatusCode == http.StatusBadRequest {
		return nil, ErrInvalidKey
	}
	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("billing service error (status %d): %s", resp.StatusCode, string(body))
	}

	var parsed keyInfoResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return nil, fmt.Errorf("failed to decode key info: %w", err)
	}

	alias := parsed.Info.KeyAlias
	if alias == "" {
		alias = parsed.Info.Alias
	}
	return &KeyInfo{
		Alias:  alias,
		Spend:  parsed.Info.Spend,
		Budget: parsed.Info.MaxBudget,
		UserID: parsed.Info.UserID,
	}, nil
}

func (c *Client) UpdateSpend(ctx context.Context, key string, newSpend float64) error {
	body, err := json.Marshal(map[string]any{
		"key":   key,
		"spend": newSpend,
	})
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/key/update", bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", fmt.Sprintf("Bearer %s", key))
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("billing service unreachable: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("spend update failed with status %d", resp.StatusCode)
	}
	return nil
}
