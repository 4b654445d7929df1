package openai

import (
	"fmt"
	"net/http"

	"github.com/vnmchuo/media-gateway/internal/media"
	"github.com/vnmchuo/media-gateway/internal/provider"
	"github.com/vnmchuo/media-gateway/internal/schema"
)

// OpenAIAdapter covers the image generation endpoints. The payload is a flat
// field bag with constants (model, n) supplied through the tool's __fixed
// block, and auth is a Bearer header.
type OpenAIAdapter struct {
	apiKey string
}

func New(apiKey string) provider.Adapter {
	return &OpenAIAdapter{apiKey: apiKey}
}

func (a *OpenAIAdapter) Name() string {
	return schema.ProviderOpenAI
}

func (a *OpenAIAdapter) PrePass(tool *schema.Tool, inputs map[string]any, target map[string]any) {
}

func (a *OpenAIAdapter) InjectParams(tool *schema.Tool, inputs map[string]any, target map[string]any) {
}

func (a *OpenAIAdapter) Authenticate(req *http.Request) {
	req.Header.Set("Authorization", fmt.Sprintf("Bearer %s", a.apiKey))
}

func (a *OpenAIAdapter) WantsInlineMedia() bool {
	return false
}

func (a *OpenAIAdapter) AttachInline(target map[string]any, data media.InlineData) {
}
