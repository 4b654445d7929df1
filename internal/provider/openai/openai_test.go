package openai

import (
	"net/http"
	"testing"

	"github.com/vnmchuo/media-gateway/internal/schema"
)

func TestAuthenticate(t *testing.T) {
	a := New("sk-oai")
	req, _ := http.NewRequest(http.MethodPost, "https://api.openai.com/v1/images/generations", nil)

	a.Authenticate(req)

	if got := req.Header.Get("Authorization"); got != "Bearer sk-oai" {
		t.Errorf("expected bearer header, got %q", got)
	}
}

func TestFlatDialect(t *testing.T) {
	a := New("k")
	if a.Name() != schema.ProviderOpenAI {
		t.Errorf("unexpected name %q", a.Name())
	}
	if a.WantsInlineMedia() {
		t.Error("openai takes media by URL, not inline")
	}

	target := map[string]any{"model": "dall-e-3", "prompt": "a fox"}
	a.PrePass(&schema.Tool{}, nil, target)
	a.InjectParams(&schema.Tool{}, nil, target)
	if len(target) != 2 {
		t.Errorf("adapter must not alter the payload, got %v", target)
	}
}
