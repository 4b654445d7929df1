package media

import (
	"context"
	"encoding/base64"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
)

type mockMaterializer struct {
	storeFunc func(ctx context.Context, data []byte, filename string) (string, error)
	fetchFunc func(ctx context.Context, url string) ([]byte, string, error)
}

func (m *mockMaterializer) StoreUpload(ctx context.Context, data []byte, filename string) (string, error) {
	return m.storeFunc(ctx, data, filename)
}

func (m *mockMaterializer) FetchInline(ctx context.Context, url string) ([]byte, string, error) {
	return m.fetchFunc(ctx, url)
}

func TestFromString(t *testing.T) {
	t.Run("plain url", func(t *testing.T) {
		in, err := FromString("https://example.com/cat.png")
		if err != nil {
			t.Fatalf("FromString failed: %v", err)
		}
		if in.kind != kindURL || in.remote != "https://example.com/cat.png" {
			t.Errorf("unexpected input: %+v", in)
		}
	})

	t.Run("base64 data url", func(t *testing.T) {
		in, err := FromString("data:image/png;base64," + base64.StdEncoding.EncodeToString([]byte("pixels")))
		if err != nil {
			t.Fatalf("FromString failed: %v", err)
		}
		if in.kind != kindInline || in.mime != "image/png" || string(in.data) != "pixels" {
			t.Errorf("unexpected input: kind=%q mime=%q data=%q", in.kind, in.mime, in.data)
		}
	})

	t.Run("unencoded data url", func(t *testing.T) {
		in, err := FromString("data:text/plain,hello")
		if err != nil {
			t.Fatalf("FromString failed: %v", err)
		}
		if in.mime != "text/plain" || string(in.data) != "hello" {
			t.Errorf("unexpected input: mime=%q data=%q", in.mime, in.data)
		}
	})

	t.Run("malformed data url", func(t *testing.T) {
		if _, err := FromString("data:image/png;base64"); err == nil {
			t.Error("expected error for data url without payload")
		}
	})

	t.Run("malformed base64 payload", func(t *testing.T) {
		if _, err := FromString("data:image/png;base64,!!!"); err == nil {
			t.Error("expected error for invalid base64")
		}
	})
}

func TestResolveUpload(t *testing.T) {
	in := Upload([]byte("pixels"), "image/png", "cat.png")

	t.Run("url provider stores the upload", func(t *testing.T) {
		m := &mockMaterializer{
			storeFunc: func(ctx context.Context, data []byte, filename string) (string, error) {
				if string(data) != "pixels" || filename != "cat.png" {
					t.Errorf("unexpected store args: %q %q", data, filename)
				}
				return "http://host/media/u_12345.png", nil
			},
		}
		url, inline, err := Resolve(context.Background(), in, m, false)
		if err != nil {
			t.Fatalf("Resolve failed: %v", err)
		}
		if inline != nil || url != "http://host/media/u_12345.png" {
			t.Errorf("unexpected result: url=%q inline=%+v", url, inline)
		}
	})

	t.Run("inline provider gets base64", func(t *testing.T) {
		url, inline, err := Resolve(context.Background(), in, &mockMaterializer{}, true)
		if err != nil {
			t.Fatalf("Resolve failed: %v", err)
		}
		if url != "" || inline == nil {
			t.Fatalf("expected inline result, got url=%q", url)
		}
		if inline.MIMEType != "image/png" || inline.Data != base64.StdEncoding.EncodeToString([]byte("pixels")) {
			t.Errorf("unexpected inline data: %+v", inline)
		}
	})

	t.Run("store failure is fatal", func(t *testing.T) {
		m := &mockMaterializer{
			storeFunc: func(ctx context.Context, data []byte, filename string) (string, error) {
				return "", errors.New("disk full")
			},
		}
		if _, _, err := Resolve(context.Background(), in, m, false); err == nil {
			t.Error("expected store failure to propagate")
		}
	})
}

func TestResolveURL(t *testing.T) {
	in := URL("https://example.com/cat.png")

	t.Run("url provider passes through", func(t *testing.T) {
		url, inline, err := Resolve(context.Background(), in, &mockMaterializer{}, false)
		if err != nil {
			t.Fatalf("Resolve failed: %v", err)
		}
		if inline != nil || url != "https://example.com/cat.png" {
			t.Errorf("unexpected result: url=%q inline=%+v", url, inline)
		}
	})

	t.Run("inline provider fetches first", func(t *testing.T) {
		m := &mockMaterializer{
			fetchFunc: func(ctx context.Context, url string) ([]byte, string, error) {
				return []byte("pixels"), "image/png", nil
			},
		}
		url, inline, err := Resolve(context.Background(), in, m, true)
		if err != nil {
			t.Fatalf("Resolve failed: %v", err)
		}
		if url != "" || inline == nil || inline.MIMEType != "image/png" {
			t.Errorf("unexpected result: url=%q inline=%+v", url, inline)
		}
	})

	t.Run("fetch failure is fatal", func(t *testing.T) {
		m := &mockMaterializer{
			fetchFunc: func(ctx context.Context, url string) ([]byte, string, error) {
				return nil, "", errors.New("connection refused")
			},
		}
		if _, _, err := Resolve(context.Background(), in, m, true); err == nil {
			t.Error("expected fetch failure to propagate")
		}
	})
}

func TestFetcher(t *testing.T) {
	t.Run("success", func(t *testing.T) {
		upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "image/jpeg; charset=binary")
			w.Write([]byte("jpeg-bytes"))
		}))
		defer upstream.Close()

		data, mime, err := NewFetcher(nil).Fetch(context.Background(), upstream.URL)
		if err != nil {
			t.Fatalf("Fetch failed: %v", err)
		}
		if string(data) != "jpeg-bytes" {
			t.Errorf("unexpected body: %q", data)
		}
		if mime != "image/jpeg" {
			t.Errorf("expected content type without parameters, got %q", mime)
		}
	})

	t.Run("missing content type", func(t *testing.T) {
		upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header()["Content-Type"] = nil
			w.Write([]byte("bytes"))
		}))
		defer upstream.Close()

		_, mime, err := NewFetcher(nil).Fetch(context.Background(), upstream.URL)
		if err != nil {
			t.Fatalf("Fetch failed: %v", err)
		}
		if mime != "application/octet-stream" {
			t.Errorf("expected fallback content type, got %q", mime)
		}
	})

	t.Run("upstream error status", func(t *testing.T) {
		upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusNotFound)
		}))
		defer upstream.Close()

		if _, _, err := NewFetcher(nil).Fetch(context.Background(), upstream.URL); err == nil {
			t.Error("expected error for 404 response")
		}
	})
}
