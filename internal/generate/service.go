package generate

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"path/filepath"
	"strconv"
	"time"

	"github.com/sony/gobreaker"

	"github.com/vnmchuo/media-gateway/internal/auth"
	"github.com/vnmchuo/media-gateway/internal/billing"
	"github.com/vnmchuo/media-gateway/internal/extract"
	"github.com/vnmchuo/media-gateway/internal/media"
	"github.com/vnmchuo/media-gateway/internal/payload"
	"github.com/vnmchuo/media-gateway/internal/pricing"
	"github.com/vnmchuo/media-gateway/internal/provider"
	"github.com/vnmchuo/media-gateway/internal/schema"
	"github.com/vnmchuo/media-gateway/internal/spend"
	"github.com/vnmchuo/media-gateway/internal/storage"
)

// Result is what a completed generation returns to the caller: the stored
// media location, the charged cost, and the user's updated balance.
type Result struct {
	MediaURL       string   `json:"media_url"`
	MediaKind      string   `json:"media_kind"`
	GenerationCost float64  `json:"generation_cost"`
	UserSpend      float64  `json:"user_spend"`
	UserBudget     *float64 `json:"user_budget"`
}

// Service runs the generation pipeline: tool lookup, budget gate, payload
// construction, the provider call, media extraction and persistence, and
// spend reporting. It holds no per-request state and is safe for concurrent
// use.
type Service struct {
	registry *schema.Registry
	adapters *provider.Registry
	billing  spend.Service
	store    storage.Store
	logs     billing.Store
	fetcher  *media.Fetcher
	client   *http.Client
	breakers map[string]*gobreaker.CircuitBreaker
	now      func() time.Time
}

func NewService(registry *schema.Registry, adapters *provider.Registry, billingSvc spend.Service, store storage.Store, logs billing.Store, client *http.Client) *Service {
	if client == nil {
		client = http.DefaultClient
	}
	s := &Service{
		registry: registry,
		adapters: adapters,
		billing:  billingSvc,
		store:    store,
		logs:     logs,
		fetcher:  media.NewFetcher(client),
		client:   client,
		breakers: make(map[string]*gobreaker.CircuitBreaker),
		now:      time.Now,
	}
	for _, name := range adapters.Names() {
		s.breakers[name] = gobreaker.NewCircuitBreaker(gobreaker.Settings{
			Name:        name,
			MaxRequests: 3,
			Interval:    5 * time.Second,
			Timeout:     30 * time.Second,
			ReadyToTrip: func(counts gobreaker.Counts) bool {
				return counts.ConsecutiveFailures >= 3
			},
		})
	}
	return s
}

// Generate runs one generation end to end for the given user.
func (s *Service) Generate(ctx context.Context, user *auth.User, toolID string, inputs map[string]any) (*Result, error) {
	tool, ok := s.registry.Get(toolID)
	if !ok {
		return nil, &UnknownToolError{ToolID: toolID}
	}

	// Best-effort spend refresh; the cached session value stands in when
	// the billing service is unreachable.
	currentSpend := user.Spend
	budget := user.Budget
	if info, err := s.billing.GetKeyInfo(ctx, user.Key); err == nil {
		currentSpend = info.Spend
		budget = info.Budget
	} else {
		log.Printf("generate: spend refresh failed, using cached value: %v", err)
	}

	cost := pricing.Cost(tool.Pricing, inputs)
	if budget != nil && currentSpend+cost > *budget {
		return nil, &InsufficientBudgetError{Cost: cost, Spend: currentSpend, Budget: *budget}
	}

	adapter, err := s.adapters.ForTool(tool)
	if err != nil {
		return nil, err
	}

	m := &userMaterializer{svc: s, userKey: user.Key}
	body, err := payload.Build(ctx, tool, inputs, m, adapter)
	if err != nil {
		return nil, &MaterializationError{Err: err}
	}

	respBody, err := s.callProvider(ctx, tool, adapter, body)
	if err != nil {
		return nil, err
	}

	var tree any
	if err := json.Unmarshal(respBody, &tree); err != nil {
		return nil, &ProviderCallError{Provider: tool.Provider, Err: fmt.Errorf("invalid response body: %w", err)}
	}

	extracted, err := extract.FromResponse(tool, tree)
	if err != nil {
		return nil, err
	}

	mediaURL := s.persist(ctx, user.Key, extracted)

	newSpend := currentSpend + cost
	if err := s.billing.UpdateSpend(ctx, user.Key, newSpend); err != nil {
		log.Printf("generate: spend update failed: %v", err)
	}
	user.Spend = newSpend

	if s.logs != nil {
		requestID := auth.GetRequestID(ctx)
		go func() {
			err := s.logs.LogGeneration(context.Background(), &billing.GenerationLog{
				UserKey:   user.Key,
				RequestID: requestID,
				ToolID:    tool.ID,
				ToolName:  tool.Name,
				Provider:  tool.Provider,
				MediaKind: extracted.Kind,
				MediaURL:  mediaURL,
				CostUSD:   cost,
			})
			if err != nil {
				log.Printf("generate: usage log failed: %v", err)
			}
		}()
	}

	return &Result{
		MediaURL:       mediaURL,
		MediaKind:      extracted.Kind,
		GenerationCost: cost,
		UserSpend:      newSpend,
		UserBudget:     budget,
	}, nil
}

// callProvider POSTs the payload to the tool's endpoint through the
// provider's circuit breaker. The adapter places credentials on the request;
// the shared tool definition is never touched.
func (s *Service) callProvider(ctx context.Context, tool *schema.Tool, adapter provider.Adapter, body map[string]any) ([]byte, error) {
	raw, err := json.Marshal(body)
	if err != nil {
		return nil, err
	}

	cb, ok := s.breakers[adapter.Name()]
	if !ok {
		// Adapter registered after construction; run unguarded rather
		// than mutate the shared map mid-flight.
		cb = gobreaker.NewCircuitBreaker(gobreaker.Settings{Name: adapter.Name()})
	}

	result, err := cb.Execute(func() (any, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, tool.APIEndpoint, bytes.NewReader(raw))
		if err != nil {
			return nil, err
		}
		req.Header.Set("Content-Type", "application/json")
		adapter.Authenticate(req)

		resp, err := s.client.Do(req)
		if err != nil {
			return nil, &ProviderCallError{Provider: tool.Provider, Err: err}
		}
		defer resp.Body.Close()

		respBody, err := io.ReadAll(resp.Body)
		if err != nil {
			return nil, &ProviderCallError{Provider: tool.Provider, Err: err}
		}
		if resp.StatusCode < 200 || resp.StatusCode > 299 {
			return nil, &ProviderCallError{Provider: tool.Provider, Status: resp.StatusCode, Body: string(respBody)}
		}
		return respBody, nil
	})
	if err != nil {
		if _, isCallErr := err.(*ProviderCallError); isCallErr {
			return nil, err
		}
		return nil, &ProviderCallError{Provider: tool.Provider, Err: err}
	}
	return result.([]byte), nil
}

// persist stores the extracted media locally and returns its URL. Failures
// degrade to the upstream locator; the generation already succeeded and
// charging the user for an unstorable result would be worse than serving the
// provider's copy.
func (s *Service) persist(ctx context.Context, userKey string, res *extract.Result) string {
	ext := ".png"
	if res.Kind == extract.KindVideo {
		ext = ".mp4"
	}
	filename := s.mediaFilename(userKey, ext)

	var data []byte
	if res.Inline {
		decoded, err := base64.StdEncoding.DecodeString(res.Data)
		if err != nil {
			log.Printf("generate: inline media decode failed: %v", err)
			return fmt.Sprintf("data:%s;base64,%s", res.MIMEType, res.Data)
		}
		data = decoded
	} else {
		downloaded, _, err := s.fetcher.Fetch(ctx, res.URL)
		if err != nil {
			log.Printf("generate: media download failed, returning upstream url: %v", err)
			return res.URL
		}
		data = downloaded
	}

	stored, err := s.store.Save(ctx, filename, data)
	if err != nil {
		log.Printf("generate: media persist failed, returning upstream locator: %v", err)
		if res.Inline {
			return fmt.Sprintf("data:%s;base64,%s", res.MIMEType, res.Data)
		}
		return res.URL
	}
	return stored
}

// mediaFilename builds the {userKey}_{number}{ext} name, where number is the
// last five digits of the current unix-milli timestamp.
func (s *Service) mediaFilename(userKey, ext string) string {
	ts := strconv.FormatInt(s.now().UnixMilli(), 10)
	if len(ts) > 5 {
		ts = ts[len(ts)-5:]
	}
	return fmt.Sprintf("%s_%s%s", userKey, ts, ext)
}

// userMaterializer scopes media materialization to the requesting user so
// stored uploads land under their key.
type userMaterializer struct {
	svc     *Service
	userKey string
}

func (m *userMaterializer) StoreUpload(ctx context.Context, data []byte, filename string) (string, error) {
	ext := filepath.Ext(filename)
	if ext == "" {
		ext = ".png"
	}
	return m.svc.store.Save(ctx, m.svc.mediaFilename(m.userKey, ext), data)
}

func (m *userMaterializer) FetchInline(ctx context.Context, url string) ([]byte, string, error) {
	return m.svc.fetcher.Fetch(ctx, url)
}
