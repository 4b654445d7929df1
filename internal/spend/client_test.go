package spend

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestGetKeyInfo(t *testing.T) {
	billing := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/key/info" {
			t.Errorf("unexpected path %q", r.URL.Path)
		}
		if r.URL.Query().Get("key") != "sk-test" {
			t.Errorf("expected key query parameter, got %q", r.URL.RawQuery)
		}
		if r.Header.Get("Authorization") != "Bearer sk-test" {
			t.Errorf("expected bearer auth, got %q", r.Header.Get("Authorization"))
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]any{
			"info": map[string]any{
				"key_alias":  "alice",
				"spend":      2.5,
				"max_budget": 10.0,
				"user_id":    "u-1",
			},
		})
	}))
	defer billing.Close()

	info, err := NewClient(billing.URL, nil).GetKeyInfo(context.Background(), "sk-test")
	if err != nil {
		t.Fatalf("GetKeyInfo failed: %v", err)
	}
	if info.Alias != "alice" || info.Spend != 2.5 || info.UserID != "u-1" {
		t.Errorf("unexpected key info: %+v", info)
	}
	if info.Budget == nil || *info.Budget != 10.0 {
		t.Errorf("unexpected budget: %v", info.Budget)
	}
}

func TestGetKeyInfoAliasFallback(t *testing.T) {
	billing := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{
			"info": map[string]any{"alias": "bob", "spend": 0},
		})
	}))
	defer billing.Close()

	info, err := NewClient(billing.URL, nil).GetKeyInfo(context.Background(), "sk-test")
	if err != nil {
		t.Fatalf("GetKeyInfo failed: %v", err)
	}
	if info.Alias != "bob" {
		t.Errorf("expected alias fallback, got %q", info.Alias)
	}
	if info.Budget != nil {
		t.Errorf("absent max_budget should stay nil, got %v", *info.Budget)
	}
}

func TestGetKeyInfoInvalidKey(t *testing.T) {
	for _, status := range []int{http.StatusBadRequest, http.StatusUnauthorized, http.StatusForbidden} {
		billing := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(status)
		}))

		_, err := NewClient(billing.URL, nil).GetKeyInfo(context.Background(), "sk-bad")
		if !errors.Is(err, ErrInvalidKey) {
			t.Errorf("status %d: expected ErrInvalidKey, got %v", status, err)
		}
		billing.Close()
	}
}

func TestGetKeyInfoServerError(t *testing.T) {
	billing := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer billing.Close()

	_, err := NewClient(billing.URL, nil).GetKeyInfo(context.Background(), "sk-test")
	if err == nil || errors.Is(err, ErrInvalidKey) {
		t.Errorf("expected a non-auth error for 500, got %v", err)
	}
}

func TestUpdateSpend(t *testing.T) {
	var got map[string]any
	billing := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/key/update" {
			t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
		}
		json.NewDecoder(r.Body).Decode(&got)
	}))
	defer billing.Close()

	if err := NewClient(billing.URL, nil).UpdateSpend(context.Background(), "sk-test", 3.75); err != nil {
		t.Fatalf("UpdateSpend failed: %v", err)
	}
	if got["key"] != "sk-test" || got["spend"] != 3.75 {
		t.Errorf("unexpected update body: %v", got)
	}
}

func TestUpdateSpendFailure(t *testing.T) {
	billing := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer billing.Close()

	if err := NewClient(billing.URL, nil).UpdateSpend(context.Background(), "sk-test", 1); err == nil {
		t.Error("expected error for failed update")
	}
}
