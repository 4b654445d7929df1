package runpod

import (
	"net/http"
	"testing"

	"github.com/vnmchuo/media-gateway/internal/schema"
)

func TestAuthenticate(t *testing.T) {
	a := New("rp-secret")
	req, _ := http.NewRequest(http.MethodPost, "https://api.runpod.ai/v2/x/runsync", nil)

	a.Authenticate(req)

	if got := req.Header.Get("Authorization"); got != "Bearer rp-secret" {
		t.Errorf("expected bearer header, got %q", got)
	}
	if req.URL.RawQuery != "" {
		t.Error("credentials must not appear in the URL")
	}
}

func TestFlatDialect(t *testing.T) {
	a := New("k")
	if a.Name() != schema.ProviderRunpod {
		t.Errorf("unexpected name %q", a.Name())
	}
	if a.WantsInlineMedia() {
		t.Error("runpod takes media by URL, not inline")
	}

	// Structural hooks are no-ops for the flat parameter bag.
	target := map[string]any{"prompt": "a fox"}
	a.PrePass(&schema.Tool{}, map[string]any{"prompt": "a fox"}, target)
	a.InjectParams(&schema.Tool{}, map[string]any{"temperature": 0.5}, target)
	if len(target) != 1 {
		t.Errorf("adapter must not alter the payload, got %v", target)
	}
}
