// Package provider defines the per-provider capability that absorbs every
// difference between generation APIs: auth placement, payload dialect, and
// inline-media handling. The payload builder and orchestrator stay generic;
// each provider family is one Adapter implementation.
package provider

import (
	"fmt"
	"net/http"

	"github.com/vnmchuo/media-gateway/internal/media"
	"github.com/vnmchuo/media-gateway/internal/schema"
)

// Adapter is implemented once per provider family.
type Adapter interface {
	Name() string

	// PrePass runs before generic field mapping and may pre-populate
	// provider-specific structure (e.g. a conversational contents array)
	// that later steps append to rather than overwrite. target is the
	// payload object writes are aimed at (the root sub-object when the
	// tool declares one).
	PrePass(tool *schema.Tool, inputs map[string]any, target map[string]any)

	// InjectParams runs after generic field mapping for parameters that
	// live outside the flat field bag (e.g. a nested generation config).
	InjectParams(tool *schema.Tool, inputs map[string]any, target map[string]any)

	// Authenticate places credential material on the outbound request,
	// either as a header or as a query parameter. It only ever touches
	// the request, never the shared tool definition.
	Authenticate(req *http.Request)

	// WantsInlineMedia reports whether media inputs must be embedded in
	// the request body instead of referenced by URL.
	WantsInlineMedia() bool

	// AttachInline inserts an inline media payload into the structure
	// created by PrePass. Only called when WantsInlineMedia is true.
	AttachInline(target map[string]any, data media.InlineData)
}

// Registry resolves the adapter for a tool's provider tag.
type Registry struct {
	adapters map[string]Adapter
}

func NewRegistry(adapters ...Adapter) *Registry {
	m := make(map[string]Adapter, len(adapters))
	for _, a := range adapters {
		m[a.Name()] = a
	}
	return &Registry{adapters: m}
}

// Names lists the registered provider tags.
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.adapters))
	for name := range r.adapters {
		names = append(names, name)
	}
	return names
}

// ForTool returns the adapter matching the tool's provider tag.
func (r *Registry) ForTool(tool *schema.Tool) (Adapter, error) {
	a, ok := r.adapters[tool.Provider]
	if !ok {
		return nil, fmt.Errorf("no adapter registered for provider %q", tool.Provider)
	}
	return a, nil
}
