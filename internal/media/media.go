// Package media models the polymorphic image inputs a generation can carry:
// a binary upload, a remote URL, or inline base64 data. The variant is
// decided once at the HTTP boundary so the payload builder never has to
// sniff value types.
package media

import (
	"context"
	"encoding/base64"
	"fmt"
	"strings"
)

// Input is the tagged media-input variant. Exactly one field group is set.
type Input struct {
	kind   string
	data   []byte
	mime   string
	name   string
	remote string
}

const (
	kindUpload = "upload"
	kindURL    = "url"
	kindInline = "inline"
)

// Upload wraps bytes received as a multipart file upload.
func Upload(data []byte, mimeType, filename string) *Input {
	return &Input{kind: kindUpload, data: data, mime: mimeType, name: filename}
}

// URL wraps a plain remote URL.
func URL(u string) *Input {
	return &Input{kind: kindURL, remote: u}
}

// Inline wraps already-decoded media bytes with their MIME type.
func Inline(data []byte, mimeType string) *Input {
	return &Input{kind: kindInline, data: data, mime: mimeType}
}

// FromString classifies a string-valued media input: a data URL is decoded
// into the inline variant, anything else is treated as a remote URL.
func FromString(value string) (*Input, error) {
	if strings.HasPrefix(value, "data:") {
		mime, data, err := decodeDataURL(value)
		if err != nil {
			return nil, err
		}
		return Inline(data, mime), nil
	}
	return URL(value), nil
}

func decodeDataURL(u string) (mimeType string, data []byte, err error) {
	rest := strings.TrimPrefix(u, "data:")
	meta, payload, ok := strings.Cut(rest, ",")
	if !ok {
		return "", nil, fmt.Errorf("malformed data url")
	}
	mimeType = meta
	if i := strings.Index(meta, ";"); i >= 0 {
		mimeType = meta[:i]
	}
	if mimeType == "" {
		mimeType = "application/octet-stream"
	}
	if strings.HasSuffix(meta, ";base64") {
		data, err = base64.StdEncoding.DecodeString(payload)
		if err != nil {
			return "", nil, fmt.Errorf("malformed data url payload: %w", err)
		}
		return mimeType, data, nil
	}
	return mimeType, []byte(payload), nil
}

// InlineData is a {mimeType, data} pair ready for providers that take media
// inline in the request body.
type InlineData struct {
	MIMEType string
	Data     string // base64
}

// Materializer turns a media input into something a provider can consume.
// StoreUpload persists bytes and returns a public URL; FetchInline downloads
// a remote URL and returns its bytes. Both touch the outside world, which is
// why they are injected rather than called directly from the builder.
type Materializer interface {
	StoreUpload(ctx context.Context, data []byte, filename string) (string, error)
	FetchInline(ctx context.Context, url string) ([]byte, string, error)
}

// Resolve maps an input to a wire value for the given provider capability.
// Providers that take URLs get a URL (uploads are persisted first); providers
// that need inline media get an InlineData (remote URLs are fetched first).
// Any materialization failure is fatal to the request.
func Resolve(ctx context.Context, in *Input, m Materializer, wantsInline bool) (urlValue string, inline *InlineData, err error) {
	switch in.kind {
	case kindUpload, kindInline:
		if wantsInline {
			return "", &InlineData{MIMEType: in.mime, Data: base64.StdEncoding.EncodeToString(in.data)}, nil
		}
		stored, err := m.StoreUpload(ctx, in.data, in.name)
		if err != nil {
			return "", nil, fmt.Errorf("failed to store media input: %w", err)
		}
		return stored, nil, nil

	case kindURL:
		if !wantsInline {
			return in.remote, nil, nil
		}
		data, mime, err := m.FetchInline(ctx, in.remote)
		if err != nil {
			return "", nil, fmt.Errorf("failed to fetch media from %s: %w", in.remote, err)
		}
		return "", &InlineData{MIMEType: mime, Data: base64.StdEncoding.EncodeToString(data)}, nil
	}
	return "", nil, fmt.Errorf("unknown media input kind %q", in.kind)
}
