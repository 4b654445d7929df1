package extract

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/vnmchuo/media-gateway/internal/schema"
)

func decode(t *testing.T, raw string) any {
	t.Helper()
	var tree any
	if err := json.Unmarshal([]byte(raw), &tree); err != nil {
		t.Fatalf("failed to decode fixture: %v", err)
	}
	return tree
}

func TestLookup(t *testing.T) {
	tree := decode(t, `{
		"output": {"image_url": "https://cdn.example.com/a.png"},
		"data": [{"url": "X"}, {"url": "Y"}],
		"candidates": [{"content": {"parts": [{"inlineData": {"mimeType": "image/png", "data": "QUJD"}}]}}],
		"keyed": {"0": {"url": "Z"}},
		"a": {}
	}`)

	tests := []struct {
		path string
		want any
	}{
		{"output.image_url", "https://cdn.example.com/a.png"},
		{"data.0.url", "X"},
		{"data.1.url", "Y"},
		{"data.2.url", nil},
		{"keyed.0.url", "Z"}, // digit segment against an object is a plain key
		{"keyed.1.url", nil},
		{"a.b.c", nil},
		{"output.missing", nil},
		{"data.url", nil},          // object segment against an array
		{"output.image_url.x", nil}, // descending past a leaf
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			got := Lookup(tree, tt.path)
			if got != tt.want {
				t.Errorf("Lookup(%q) = %v, want %v", tt.path, got, tt.want)
			}
		})
	}
}

func TestFromResponseImageURL(t *testing.T) {
	tool := &schema.Tool{Response: schema.ResponseConfig{ImageURLPath: "output.image_url"}}
	body := decode(t, `{"output": {"image_url": "https://cdn.example.com/a.png"}}`)

	res, err := FromResponse(tool, body)
	if err != nil {
		t.Fatalf("FromResponse failed: %v", err)
	}
	if res.Kind != KindImage || res.Inline || res.URL != "https://cdn.example.com/a.png" {
		t.Errorf("unexpected result: %+v", res)
	}
}

func TestFromResponseInlineImage(t *testing.T) {
	tool := &schema.Tool{Response: schema.ResponseConfig{
		ImageURLPath: "candidates.0.content.parts.0.inlineData",
	}}
	body := decode(t, `{"candidates": [{"content": {"parts": [
		{"inlineData": {"mimeType": "image/png", "data": "aGVsbG8="}}
	]}}]}`)

	res, err := FromResponse(tool, body)
	if err != nil {
		t.Fatalf("FromResponse failed: %v", err)
	}
	if !res.Inline || res.MIMEType != "image/png" || res.Data != "aGVsbG8=" {
		t.Errorf("unexpected result: %+v", res)
	}
	if res.Kind != KindImage {
		t.Errorf("expected image kind, got %q", res.Kind)
	}
}

func TestFromResponseVideoWins(t *testing.T) {
	tool := &schema.Tool{Response: schema.ResponseConfig{
		ImageURLPath: "output.image_url",
		VideoURLPath: "output.video_url",
	}}
	body := decode(t, `{"output": {
		"image_url": "https://cdn.example.com/poster.png",
		"video_url": "https://cdn.example.com/clip.mp4"
	}}`)

	res, err := FromResponse(tool, body)
	if err != nil {
		t.Fatalf("FromResponse failed: %v", err)
	}
	if res.Kind != KindVideo || res.URL != "https://cdn.example.com/clip.mp4" {
		t.Errorf("expected video to win, got %+v", res)
	}
}

func TestFromResponseVideoPathEmptyLeaf(t *testing.T) {
	tool := &schema.Tool{Response: schema.ResponseConfig{
		ImageURLPath: "output.image_url",
		VideoURLPath: "output.video_url",
	}}
	body := decode(t, `{"output": {"image_url": "https://cdn.example.com/a.png", "video_url": ""}}`)

	res, err := FromResponse(tool, body)
	if err != nil {
		t.Fatalf("FromResponse failed: %v", err)
	}
	if res.Kind != KindImage {
		t.Errorf("empty video leaf should not override image, got %+v", res)
	}
}

func TestFromResponseNoMedia(t *testing.T) {
	tool := &schema.Tool{Response: schema.ResponseConfig{ImageURLPath: "output.image_url"}}
	body := decode(t, `{"status": "queued"}`)

	_, err := FromResponse(tool, body)
	if !errors.Is(err, ErrNoMedia) {
		t.Errorf("expected ErrNoMedia, got %v", err)
	}
}

func TestFromResponseEmptyStringLeaf(t *testing.T) {
	tool := &schema.Tool{Response: schema.ResponseConfig{ImageURLPath: "output.image_url"}}
	body := decode(t, `{"output": {"image_url": ""}}`)

	_, err := FromResponse(tool, body)
	if !errors.Is(err, ErrNoMedia) {
		t.Errorf("expected ErrNoMedia for empty URL, got %v", err)
	}
}
