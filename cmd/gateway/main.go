package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/otel"

	"github.com/vnmchuo/media-gateway/config"
	"github.com/vnmchuo/media-gateway/internal/auth"
	"github.com/vnmchuo/media-gateway/internal/billing"
	"github.com/vnmchuo/media-gateway/internal/generate"
	"github.com/vnmchuo/media-gateway/internal/provider"
	"github.com/vnmchuo/media-gateway/internal/provider/google"
	"github.com/vnmchuo/media-gateway/internal/provider/openai"
	"github.com/vnmchuo/media-gateway/internal/provider/runpod"
	"github.com/vnmchuo/media-gateway/internal/schema"
	"github.com/vnmchuo/media-gateway/internal/seeder"
	"github.com/vnmchuo/media-gateway/internal/spend"
	"github.com/vnmchuo/media-gateway/internal/storage"
	"github.com/vnmchuo/media-gateway/internal/telemetry"
	"github.com/vnmchuo/media-gateway/internal/worker"
	"github.com/vnmchuo/media-gateway/pkg/ratelimit"
)

func main() {
	// 1. Load config
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	// 2. Init telemetry
	shutdownTracer, err := telemetry.InitTracer("media-gateway", cfg)
	if err != nil {
		log.Fatalf("failed to init tracer: %v", err)
	}
	defer shutdownTracer()

	// 3. Load tool schemas (seed defaults on first run)
	if err := seeder.SeedDefaultSchemas(cfg.SchemaPath); err != nil {
		log.Fatalf("failed to seed schemas: %v", err)
	}
	registry, err := schema.Load(cfg.SchemaPath)
	if err != nil {
		log.Fatalf("failed to load tool schemas: %v", err)
	}
	log.Printf("Loaded %d tool schemas", registry.Len())

	// 4. Connect PostgreSQL
	ctx := context.Background()
	pool, err := pgxpool.New(ctx, cfg.PostgresDSN)
	if err != nil {
		log.Fatalf("failed to connect postgres: %v", err)
	}
	defer pool.Close()

	if err := pool.Ping(ctx); err != nil {
		log.Fatalf("failed to ping postgres: %v", err)
	}
	log.Println("PostgreSQL connected")

	// 5. Connect Redis
	rdb := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
	defer rdb.Close()

	if err := rdb.Ping(ctx).Err(); err != nil {
		log.Fatalf("failed to ping redis: %v", err)
	}
	log.Println("Redis connected")

	// 6. Upstream billing service + auth
	billingSvc := spend.NewClient(cfg.SpendServiceURL, nil)
	authMiddleware := auth.NewMiddleware(billingSvc, rdb)

	// 7. Usage log store
	logStore := billing.NewPostgresStore(pool)

	// 8. Media storage
	mediaStore, err := storage.NewDiskStore(cfg.MediaDir, cfg.MediaBaseURL)
	if err != nil {
		log.Fatalf("failed to init media storage: %v", err)
	}

	// 9. Rate limiter
	limiter := ratelimit.NewLimiter(rdb, cfg.DefaultRateLimitRPM)

	// 10. Provider adapters
	adapters := provider.NewRegistry(
		runpod.New(cfg.RunpodAPIKey),
		openai.New(cfg.OpenAIAPIKey),
		google.New(cfg.GoogleAPIKey),
	)

	// 11. Generation service + async queue
	service := generate.NewService(registry, adapters, billingSvc, mediaStore, logStore, nil)

	queue := worker.NewQueue(func(ctx context.Context, job *worker.Job) (any, error) {
		return service.Generate(ctx, job.User, job.ToolID, job.Inputs)
	}, 64)
	workerCtx, stopWorker := context.WithCancel(ctx)
	defer stopWorker()
	go queue.Process(workerCtx)

	tracer := otel.GetTracerProvider().Tracer("media-gateway")
	handler := generate.NewHandler(service, registry, logStore, mediaStore, limiter, tracer, queue)

	// 12. Init Chi router
	r := chi.NewRouter()
	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.Logger)
	r.Use(chimiddleware.Recoverer)

	// Public routes
	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok","service":"media-gateway"}`))
	})

	// Stored media is public by URL; filenames are keyed by user.
	fileServer := http.StripPrefix("/media/", http.FileServer(http.Dir(cfg.MediaDir)))
	r.Get("/media/*", fileServer.ServeHTTP)

	// Protected routes
	r.Group(func(r chi.Router) {
		r.Use(authMiddleware)
		r.Get("/api/tools", handler.HandleTools)
		r.Post("/api/generate", handler.HandleGenerate)
		r.Get("/api/media", handler.HandleMedia)
		r.Get("/api/stats", handler.HandleStats)
		r.Post("/api/jobs", handler.HandleCreateJob)
		r.Get("/api/jobs/{id}", handler.HandleGetJob)
	})

	// 13. Graceful shutdown
	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      r,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 120 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		log.Printf("Media Gateway starting on port %s", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("server error: %v", err)
		}
	}()

	<-quit
	log.Println("Shutting down gracefully...")
	stopWorker()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Fatalf("forced shutdown: %v", err)
	}
	log.Println("Server stopped")
}
