package main

import (
	"context"
	"log"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	_ "github.com/joho/godotenv/autoload"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"ragapi/internal/config"
	"ragapi/internal/database"
	"ragapi/internal/database/migration"
	handlers "ragapi/internal/http/handler"
	"ragapi/internal/http/middleware"
	"ragapi/internal/index"
	"ragapi/internal/llm"
	"ragapi/internal/otel"
	"ragapi/internal/repository/postgres"
	"ragapi/internal/service"
	"ragapi/internal/storage"
)

func main() {
	// Load configuration from environment variables (.env auto-loaded if present)
	cfg := config.Load()

	ctx := context.Background()
	loc := time.UTC

	// Initialize OpenTelemetry tracing (degrades to noop when disabled)
	shutdownTracing, err := otel.Init(ctx, loc)
	if err != nil {
		log.Fatalf("failed to initialize tracing: %v", err)
	}
	defer shutdownTracing(ctx)

	// Initialize PostgreSQL connection (with pooling via database/sql)
	db, err := database.NewPostgres(cfg.Database)
	if err != nil {
		log.Fatalf("failed to connect to database: %v", err)
	}
	defer db.Close()

	if err := migration.EnsureMigrated(ctx, db, loc, cfg.Database.Host); err != nil {
		log.Fatalf("failed to run migrations: %v", err)
	}

	// Initialize reusable S3-compatible object storage client (MinIO-supported)
	objStore, err := storage.NewMinIO(cfg.MinIO)
	if err != nil {
		log.Fatalf("failed to initialize object storage: %v", err)
	}

	// Generation backend for retrieval-augmented answers
	generator, err := llm.NewOllamaClient(cfg.LLM)
	if err != nil {
		log.Fatalf("failed to initialize llm client: %v", err)
	}

	// Initialize repositories, index and services
	docRepo := postgres.NewDocumentPostgres(db)
	chunkRepo := postgres.NewChunkPostgres(db)
	idx := index.New()

	docSvc := service.NewDocumentService(objStore, docRepo, chunkRepo, idx,
		cfg.Retrieval.ChunkSize, cfg.Retrieval.MaxUploadBytes)
	querySvc := service.NewQueryService(idx, generator, cfg.Retrieval.TopK)

	// Rebuild the in-memory index from persisted chunks
	n, err := docSvc.RebuildIndex(ctx)
	if err != nil {
		log.Fatalf("failed to rebuild index: %v", err)
	}
	log.Printf("index rebuilt with %d chunks", n)

	// Optional one-shot ingest of a local documents directory
	if cfg.Retrieval.DocsDir != "" {
		ingested, err := docSvc.IngestDirectory(ctx, cfg.Retrieval.DocsDir)
		if err != nil {
			log.Fatalf("failed to ingest documents from %s: %v", cfg.Retrieval.DocsDir, err)
		}
		log.Printf("ingested %d documents from %s", ingested, cfg.Retrieval.DocsDir)
	}

	app := fiber.New(fiber.Config{
		ErrorHandler: handlers.ErrorHandler(),
		BodyLimit:    int(cfg.Retrieval.MaxUploadBytes) + 1<<20,
	})

	// Register global middleware
	// RequestID middleware adds/propagates X-Request-ID and stores it in context
	app.Use(middleware.RequestID())
	// JSON Logger middleware for structured request logs
	app.Use(middleware.Logger())

	// Prometheus request counter and /metrics endpoint
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	promMiddleware, err := middleware.NewPrometheusMiddleware(reg)
	if err != nil {
		log.Fatalf("failed to register prometheus metrics: %v", err)
	}
	app.Use(promMiddleware.Handler())
	app.Get("/metrics", adaptor.HTTPHandler(promhttp.HandlerFor(reg, promhttp.HandlerOpts{})))

	// Register HTTP routes with injected services
	handlers.RegisterRoutes(app, db, docSvc, querySvc)

	addr := ":" + cfg.Port

	if err := app.Listen(addr); err != nil {
		log.Fatalf("failed to start server: %v", err)
	}
}
