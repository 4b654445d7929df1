// Package extract pulls the produced media out of an arbitrary provider
// response using the dot-delimited paths declared in the tool schema.
package extract

import (
	"errors"
	"strconv"
	"strings"

	"github.com/vnmchuo/media-gateway/internal/schema"
)

// ErrNoMedia is returned when none of the declared response paths resolve.
var ErrNoMedia = errors.New("no media found in provider response")

// Media kinds.
const (
	KindImage = "image"
	KindVideo = "video"
)

// Result is the normalized output contract: either a URL or an inline
// base64 payload, plus the media kind.
type Result struct {
	Kind     string
	URL      string
	Inline   bool
	MIMEType string
	Data     string // base64, only when Inline
}

// Lookup walks a decoded JSON tree along a dot-delimited path. A segment of
// digits indexes into an array when the current node is one; against an
// object it is an ordinary string key. A missing or mismatched node yields
// nil rather than an error, so schema paths can probe responses they only
// partially describe.
func Lookup(tree any, path string) any {
	current := tree
	for _, part := range strings.Split(path, ".") {
		if current == nil {
			return nil
		}
		if arr, isArr := current.([]any); isArr {
			idx, err := strconv.Atoi(part)
			if err != nil || !isDigits(part) || idx < 0 || idx >= len(arr) {
				return nil
			}
			current = arr[idx]
			continue
		}
		obj, ok := current.(map[string]any)
		if !ok {
			return nil
		}
		current, ok = obj[part]
		if !ok {
			return nil
		}
	}
	return current
}

func isDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

// FromResponse resolves the tool's declared media paths against the decoded
// response body. When both an image and a video path resolve, video wins.
func FromResponse(tool *schema.Tool, body any) (*Result, error) {
	var res *Result

	if path := tool.Response.ImageURLPath; path != "" {
		if leaf := Lookup(body, path); leaf != nil {
			res = asImage(leaf)
		}
	}
	if path := tool.Response.VideoURLPath; path != "" {
		if leaf := Lookup(body, path); leaf != nil {
			if url, ok := leaf.(string); ok && url != "" {
				res = &Result{Kind: KindVideo, URL: url}
			}
		}
	}

	if res == nil {
		return nil, ErrNoMedia
	}
	return res, nil
}

// asImage interprets a resolved leaf as image media. An object carrying both
// "data" and "mimeType" is inline base64 (the Gemini inlineData shape); any
// non-empty string is a URL.
func asImage(leaf any) *Result {
	switch v := leaf.(type) {
	case string:
		if v == "" {
			return nil
		}
		return &Result{Kind: KindImage, URL: v}
	case map[string]any:
		data, _ := v["data"].(string)
		mime, _ := v["mimeType"].(string)
		if data != "" && mime != "" {
			return &Result{Kind: KindImage, Inline: true, MIMEType: mime, Data: data}
		}
	}
	return nil
}
