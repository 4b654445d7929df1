package runpod

import (
	"fmt"
	"net/http"

	"github.com/vnmchuo/media-gateway/internal/media"
	"github.com/vnmchuo/media-gateway/internal/provider"
	"github.com/vnmchuo/media-gateway/internal/schema"
)

// RunpodAdapter covers the RunPod serverless endpoints. The payload is a
// flat parameter bag nested under the tool's declared root ("input"), media
// is referenced by URL, and auth is a Bearer header.
type RunpodAdapter struct {
	apiKey string
}

func New(apiKey string) provider.Adapter {
	return &RunpodAdapter{apiKey: apiKey}
}

func (a *RunpodAdapter) Name() string {
	return schema.ProviderRunpod
}

func (a *RunpodAdapter) PrePass(tool *schema.Tool, inputs map[string]any, target map[string]any) {
}

func (a *RunpodAdapter) InjectParams(tool *schema.Tool, inputs map[string]any, target map[string]any) {
}

func (a *RunpodAdapter) Authenticate(req *http.Request) {
	req.Header.Set("Authorization", fmt.Sprintf("Bearer %s", a.apiKey))
}

func (a *RunpodAdapter) WantsInlineMedia() bool {
	return false
}

func (a *RunpodAdapter) AttachInline(target map[string]any, data media.InlineData) {
}
