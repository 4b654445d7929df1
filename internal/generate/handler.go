package generate

import (
	"encoding/json"
	"errors"
	"io"
	"log"
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/vnmchuo/media-gateway/internal/auth"
	"github.com/vnmchuo/media-gateway/internal/billing"
	"github.com/vnmchuo/media-gateway/internal/extract"
	"github.com/vnmchuo/media-gateway/internal/media"
	"github.com/vnmchuo/media-gateway/internal/schema"
	"github.com/vnmchuo/media-gateway/internal/storage"
	"github.com/vnmchuo/media-gateway/internal/worker"
	"github.com/vnmchuo/media-gateway/pkg/ratelimit"
)

// Handler exposes the generation API over HTTP.
type Handler struct {
	service  *Service
	registry *schema.Registry
	logs     billing.Store
	store    storage.Store
	limiter  *ratelimit.Limiter
	tracer   trace.Tracer
	queue    *worker.Queue
}

func NewHandler(service *Service, registry *schema.Registry, logs billing.Store, store storage.Store, limiter *ratelimit.Limiter, tracer trace.Tracer, queue *worker.Queue) *Handler {
	return &Handler{
		service:  service,
		registry: registry,
		logs:     logs,
		store:    store,
		limiter:  limiter,
		tracer:   tracer,
		queue:    queue,
	}
}

const maxUploadBytes = 32 << 20

// HandleGenerate runs one generation synchronously.
func (h *Handler) HandleGenerate(w http.ResponseWriter, r *http.Request) {
	user, toolID, inputs, ok := h.prepare(w, r)
	if !ok {
		return
	}

	_, span := h.tracer.Start(r.Context(), "generate")
	defer span.End()
	span.SetAttributes(
		attribute.String("tool_id", toolID),
		attribute.String("request_id", auth.GetRequestID(r.Context())),
	)

	result, err := h.service.Generate(r.Context(), user, toolID, inputs)
	if err != nil {
		h.writeGenerationError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, result)
}

// HandleCreateJob queues a generation for asynchronous execution and
// returns the job immediately.
func (h *Handler) HandleCreateJob(w http.ResponseWriter, r *http.Request) {
	user, toolID, inputs, ok := h.prepare(w, r)
	if !ok {
		return
	}

	if _, exists := h.registry.Get(toolID); !exists {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "unknown tool"})
		return
	}

	job, err := h.queue.Enqueue(user, toolID, inputs)
	if err != nil {
		if errors.Is(err, worker.ErrQueueFull) {
			w.Header().Set("Retry-After", "30")
			writeJSON(w, http.StatusServiceUnavailable, map[string]string{"error": "job queue is full"})
			return
		}
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to queue job"})
		return
	}

	writeJSON(w, http.StatusAccepted, job)
}

// HandleGetJob reports the status of a queued generation.
func (h *Handler) HandleGetJob(w http.ResponseWriter, r *http.Request) {
	user := auth.GetUser(r.Context())
	if user == nil {
		writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "unauthorized"})
		return
	}

	job, ok := h.queue.Get(chi.URLParam(r, "id"), user.Key)
	if !ok {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "job not found"})
		return
	}
	writeJSON(w, http.StatusOK, job)
}

// HandleTools returns the tool catalog for the form UI. Endpoints, wire
// mappings and credentials never leave the server.
func (h *Handler) HandleTools(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"tools": h.registry.List()})
}

// HandleMedia lists the caller's stored generations, newest first.
func (h *Handler) HandleMedia(w http.ResponseWriter, r *http.Request) {
	user := auth.GetUser(r.Context())
	if user == nil {
		writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "unauthorized"})
		return
	}

	files, err := h.store.ListByUser(r.Context(), user.Key)
	if err != nil {
		log.Printf("handler: gallery listing failed: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to list media"})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"media": files})
}

// HandleStats returns the caller's usage aggregates.
func (h *Handler) HandleStats(w http.ResponseWriter, r *http.Request) {
	user := auth.GetUser(r.Context())
	if user == nil {
		writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "unauthorized"})
		return
	}

	stats, err := h.logs.GetStatsByUser(r.Context(), user.Key)
	if err != nil {
		log.Printf("handler: stats query failed: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to load stats"})
		return
	}
	writeJSON(w, http.StatusOK, stats)
}

// prepare authenticates, rate-limits, and decodes the generation request
// from either a JSON body or a multipart form with file uploads. Media
// inputs are classified into their variant here so nothing downstream
// sniffs value types.
func (h *Handler) prepare(w http.ResponseWriter, r *http.Request) (*auth.User, string, map[string]any, bool) {
	user := auth.GetUser(r.Context())
	if user == nil {
		writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "unauthorized"})
		return nil, "", nil, false
	}

	allowed, err := h.limiter.Allow(r.Context(), user.Key)
	if err != nil || !allowed {
		w.Header().Set("Retry-After", "60")
		writeJSON(w, http.StatusTooManyRequests, map[string]string{"error": "rate limit exceeded"})
		return nil, "", nil, false
	}

	var toolID string
	inputs := make(map[string]any)

	ct := r.Header.Get("Content-Type")
	if len(ct) >= 19 && ct[:19] == "multipart/form-data" {
		if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid multipart form"})
			return nil, "", nil, false
		}
		for name, vals := range r.MultipartForm.Value {
			if len(vals) == 0 {
				continue
			}
			if name == "tool_id" {
				toolID = vals[0]
				continue
			}
			inputs[name] = vals[0]
		}
		for name, headers := range r.MultipartForm.File {
			if len(headers) == 0 {
				continue
			}
			f, err := headers[0].Open()
			if err != nil {
				writeJSON(w, http.StatusBadRequest, map[string]string{"error": "unreadable upload"})
				return nil, "", nil, false
			}
			data, err := io.ReadAll(io.LimitReader(f, maxUploadBytes))
			f.Close()
			if err != nil {
				writeJSON(w, http.StatusBadRequest, map[string]string{"error": "unreadable upload"})
				return nil, "", nil, false
			}
			inputs[name] = media.Upload(data, headers[0].Header.Get("Content-Type"), headers[0].Filename)
		}
	} else {
		var req struct {
			ToolID string         `json:"tool_id"`
			Inputs map[string]any `json:"inputs"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
			return nil, "", nil, false
		}
		toolID = req.ToolID
		if req.Inputs != nil {
			inputs = req.Inputs
		}
	}

	if tool, ok := h.registry.Get(toolID); ok {
		for _, spec := range tool.FlatInputs() {
			if spec.Type != "image_upload" {
				continue
			}
			if s, isStr := inputs[spec.Name].(string); isStr {
				in, err := media.FromString(s)
				if err != nil {
					writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid media input"})
					return nil, "", nil, false
				}
				inputs[spec.Name] = in
			}
		}
	}

	return user, toolID, inputs, true
}

func (h *Handler) writeGenerationError(w http.ResponseWriter, err error) {
	var unknownTool *UnknownToolError
	var noBudget *InsufficientBudgetError
	var materialization *MaterializationError
	var providerCall *ProviderCallError

	switch {
	case errors.As(err, &unknownTool):
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "unknown tool"})
	case errors.As(err, &noBudget):
		writeJSON(w, http.StatusPaymentRequired, map[string]any{
			"error":           "insufficient budget for this generation",
			"current_spend":   noBudget.Spend,
			"generation_cost": noBudget.Cost,
			"budget":          noBudget.Budget,
		})
	case errors.As(err, &materialization):
		log.Printf("handler: media materialization failed: %v", err)
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "failed to process media input"})
	case errors.As(err, &providerCall):
		// Full upstream detail stays in the logs; callers get a generic
		// message so provider internals don't cross the trust boundary.
		log.Printf("handler: provider call failed: %v", err)
		writeJSON(w, http.StatusBadGateway, map[string]string{"error": "generation provider request failed"})
	case errors.Is(err, extract.ErrNoMedia):
		log.Printf("handler: %v", err)
		writeJSON(w, http.StatusBadGateway, map[string]string{"error": "provider response contained no media"})
	default:
		log.Printf("handler: generation failed: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
