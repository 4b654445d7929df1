package google

import (
	"net/http"
	"strconv"

	"github.com/vnmchuo/media-gateway/internal/media"
	"github.com/vnmchuo/media-gateway/internal/payload"
	"github.com/vnmchuo/media-gateway/internal/provider"
	"github.com/vnmchuo/media-gateway/internal/schema"
)

// GoogleAdapter covers the Gemini generateContent endpoints. Unlike the flat
// parameter bags of the other providers, the request is a conversational
// envelope: a role-tagged contents array whose parts carry the prompt text
// and, when present, the image to edit as inline data. Credentials travel as
// a query parameter, and sampling parameters live in a nested
// generationConfig object.
type GoogleAdapter struct {
	apiKey string
}

func New(apiKey string) provider.Adapter {
	return &GoogleAdapter{apiKey: apiKey}
}

func (a *GoogleAdapter) Name() string {
	return schema.ProviderGoogle
}

// PrePass seeds the contents array with the user prompt. The tool's __fixed
// block may already declare the envelope with an empty text part; in that
// case the prompt is written into it instead of rebuilding the structure, so
// fixed fields like responseModalities survive.
func (a *GoogleAdapter) PrePass(tool *schema.Tool, inputs map[string]any, target map[string]any) {
	prompt, _ := inputs["prompt"].(string)
	prompt = payload.NormalizeText(prompt)

	parts := firstParts(target)
	if parts == nil {
		target["contents"] = []any{
			map[string]any{
				"role":  "user",
				"parts": []any{map[string]any{"text": prompt}},
			},
		}
		return
	}

	for _, p := range parts {
		if part, ok := p.(map[string]any); ok {
			if _, hasText := part["text"]; hasText {
				part["text"] = prompt
				return
			}
		}
	}
	setFirstParts(target, append(parts, map[string]any{"text": prompt}))
}

// InjectParams writes the sampling parameters into the nested
// generationConfig object rather than the top-level bag.
func (a *GoogleAdapter) InjectParams(tool *schema.Tool, inputs map[string]any, target map[string]any) {
	cfg, ok := target["generationConfig"].(map[string]any)
	if !ok {
		cfg = make(map[string]any)
	}

	if v, ok := inputs["temperature"]; ok {
		if f, ok := toFloat(v); ok {
			cfg["temperature"] = f
		}
	}
	if v, ok := inputs["max_output_tokens"]; ok {
		if f, ok := toFloat(v); ok {
			cfg["maxOutputTokens"] = int(f)
		}
	}

	if len(cfg) > 0 {
		target["generationConfig"] = cfg
	}
}

func (a *GoogleAdapter) Authenticate(req *http.Request) {
	q := req.URL.Query()
	q.Set("key", a.apiKey)
	req.URL.RawQuery = q.Encode()
}

func (a *GoogleAdapter) WantsInlineMedia() bool {
	return true
}

// AttachInline appends the media as an inline_data part after the prompt.
func (a *GoogleAdapter) AttachInline(target map[string]any, data media.InlineData) {
	parts := firstParts(target)
	if parts == nil {
		return
	}
	setFirstParts(target, append(parts, map[string]any{
		"inline_data": map[string]any{
			"mime_type": data.MIMEType,
			"data":      data.Data,
		},
	}))
}

func firstParts(target map[string]any) []any {
	contents, ok := target["contents"].([]any)
	if !ok || len(contents) == 0 {
		return nil
	}
	first, ok := contents[0].(map[string]any)
	if !ok {
		return nil
	}
	parts, ok := first["parts"].([]any)
	if !ok {
		return nil
	}
	return parts
}

func setFirstParts(target map[string]any, parts []any) {
	if contents, ok := target["contents"].([]any); ok && len(contents) > 0 {
		if first, ok := contents[0].(map[string]any); ok {
			first["parts"] = parts
		}
	}
}

func toFloat(v any) (float64, bool) {
	switch x := v.(type) {
	case float64:
		return x, true
	case int:
		return float64(x), true
	case string:
		f, err := strconv.ParseFloat(x, 64)
		if err != nil {
			return 0, false
		}
		return f, true
	default:
		return 0, false
	}
}
