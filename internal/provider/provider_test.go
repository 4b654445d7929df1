package provider_test

import (
	"sort"
	"testing"

	"github.com/vnmchuo/media-gateway/internal/provider"
	"github.com/vnmchuo/media-gateway/internal/provider/google"
	"github.com/vnmchuo/media-gateway/internal/provider/openai"
	"github.com/vnmchuo/media-gateway/internal/provider/runpod"
	"github.com/vnmchuo/media-gateway/internal/schema"
)

func TestRegistryForTool(t *testing.T) {
	reg := provider.NewRegistry(runpod.New("a"), openai.New("b"), google.New("c"))

	tests := []struct {
		provider string
		wantName string
	}{
		{schema.ProviderRunpod, "runpod"},
		{schema.ProviderOpenAI, "openai"},
		{schema.ProviderGoogle, "google"},
	}
	for _, tt := range tests {
		a, err := reg.ForTool(&schema.Tool{Provider: tt.provider})
		if err != nil {
			t.Errorf("%s: ForTool failed: %v", tt.provider, err)
			continue
		}
		if a.Name() != tt.wantName {
			t.Errorf("%s: got adapter %q", tt.provider, a.Name())
		}
	}

	if _, err := reg.ForTool(&schema.Tool{Provider: "stability"}); err == nil {
		t.Error("expected error for unregistered provider")
	}
}

func TestRegistryNames(t *testing.T) {
	reg := provider.NewRegistry(runpod.New("a"), google.New("c"))
	names := reg.Names()
	sort.Strings(names)
	if len(names) != 2 || names[0] != "google" || names[1] != "runpod" {
		t.Errorf("unexpected names %v", names)
	}
}
