// Package payload translates a tool's declarative request mapping plus the
// raw user inputs into the provider-specific wire payload.
package payload

import (
	"context"
	"regexp"
	"strconv"
	"strings"

	"github.com/vnmchuo/media-gateway/internal/media"
	"github.com/vnmchuo/media-gateway/internal/provider"
	"github.com/vnmchuo/media-gateway/internal/schema"
)

// Build constructs the outbound request body for one generation.
//
// The construction order matters: root nesting, fixed constants, the
// adapter's structural pre-pass, generic field mapping (with media
// materialization and type coercion), and finally the adapter's parameter
// injection. Inputs declared in the mapping but absent from the request are
// silently omitted.
func Build(ctx context.Context, tool *schema.Tool, inputs map[string]any, m media.Materializer, adapter provider.Adapter) (map[string]any, error) {
	ps := tool.Request.PayloadStructure

	body := make(map[string]any)
	target := body
	if ps.Root != "" {
		nested := make(map[string]any)
		body[ps.Root] = nested
		target = nested
	}

	// Fixed fields are deep-copied: the pre-pass may mutate nested
	// structure and the tool definition is shared across requests.
	for k, v := range ps.Fixed {
		target[k] = deepCopy(v)
	}

	adapter.PrePass(tool, inputs, target)

	for inputName, wireName := range ps.ParamMapping {
		if inputName == "__fixed" {
			continue
		}
		value, ok := inputs[inputName]
		if !ok {
			continue
		}

		spec, _ := tool.Input(inputName)
		if spec.Type == "image_upload" {
			if err := placeMedia(ctx, value, wireName, target, m, adapter); err != nil {
				return nil, err
			}
			continue
		}

		if spec.Type == "textbox" {
			if s, isStr := value.(string); isStr {
				value = NormalizeText(s)
			}
		}
		target[wireName] = coerce(value, ps.TypeHandling[inputName])
	}

	// Media inputs outside the mapping still reach providers that embed
	// them in pre-pass structure (the conversational dialect carries the
	// image as a part, not as a named field).
	if adapter.WantsInlineMedia() {
		for _, spec := range tool.FlatInputs() {
			if spec.Type != "image_upload" {
				continue
			}
			if _, mapped := ps.ParamMapping[spec.Name]; mapped {
				continue
			}
			value, ok := inputs[spec.Name]
			if !ok {
				continue
			}
			if err := placeMedia(ctx, value, "", target, m, adapter); err != nil {
				return nil, err
			}
		}
	}

	adapter.InjectParams(tool, inputs, target)

	return body, nil
}

func placeMedia(ctx context.Context, value any, wireName string, target map[string]any, m media.Materializer, adapter provider.Adapter) error {
	in, ok := value.(*media.Input)
	if !ok {
		// A plain string slipped past the boundary; classify it here so
		// schema-driven callers (tests, the job queue) can pass raw URLs.
		s, isStr := value.(string)
		if !isStr {
			return nil
		}
		var err error
		in, err = media.FromString(s)
		if err != nil {
			return err
		}
	}

	url, inline, err := media.Resolve(ctx, in, m, adapter.WantsInlineMedia())
	if err != nil {
		return err
	}
	if inline != nil {
		adapter.AttachInline(target, *inline)
		return nil
	}
	if wireName != "" {
		target[wireName] = url
	}
	return nil
}

var (
	leadingMarker = regexp.MustCompile(`^\s*(?:[-*•]|\d+[.)])\s+`)
	innerSpace    = regexp.MustCompile(`\s+`)
)

// NormalizeText cleans free-text inputs: upstream prompt sources sometimes
// prepend list numbering or wrap the text in quotes, and neither belongs in
// the wire payload.
func NormalizeText(s string) string {
	s = strings.TrimSpace(s)
	s = leadingMarker.ReplaceAllString(s, "")
	for len(s) >= 2 {
		first, last := s[0], s[len(s)-1]
		if (first == '"' && last == '"') || (first == '\'' && last == '\'') {
			s = strings.TrimSpace(s[1 : len(s)-1])
			continue
		}
		break
	}
	return innerSpace.ReplaceAllString(s, " ")
}

// coerce applies the tool's declared type handling to a raw input value.
// Unknown or absent declarations pass the value through unchanged.
func coerce(value any, kind string) any {
	switch kind {
	case "integer":
		switch v := value.(type) {
		case string:
			if f, err := strconv.ParseFloat(strings.TrimSpace(v), 64); err == nil {
				return int(f)
			}
		case float64:
			return int(v)
		case int:
			return v
		}
	case "float":
		switch v := value.(type) {
		case string:
			if f, err := strconv.ParseFloat(strings.TrimSpace(v), 64); err == nil {
				return f
			}
		case int:
			return float64(v)
		case float64:
			return v
		}
	case "boolean":
		switch v := value.(type) {
		case bool:
			return v
		case string:
			return v == "true" || v == "on" || v == "1"
		case int:
			return v == 1
		case float64:
			return v == 1
		}
		return false
	}
	return value
}

func deepCopy(v any) any {
	switch x := v.(type) {
	case map[string]any:
		out := make(map[string]any, len(x))
		for k, e := range x {
			out[k] = deepCopy(e)
		}
		return out
	case []any:
		out := make([]any, len(x))
		for i, e := range x {
			out[i] = deepCopy(e)
		}
		return out
	default:
		return v
	}
}
