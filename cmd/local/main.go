package main

import (
	"baldsphere-backend/cmd"
	"baldsphere-backend/internal/api"
	"baldsphere-backend/internal/brain"
	"baldsphere-backend/internal/config"
	"baldsphere-backend/internal/core"
	"baldsphere-backend/internal/database"
	"baldsphere-backend/internal/messaging"
	"baldsphere-backend/internal/notify"
	"baldsphere-backend/internal/storage"
	"context"
	"log"
	"log/slog"
	"os"
)

// The local server keeps everything in one process: a sqlite file under ROOT
// and an in-memory queue drained by an in-process notifier.
func main() {
	cmd.LoadEnvFile()

	cfg, err := config.Parse[config.LocalConfig]()
	if err != nil {
		log.Fatalf("%v", err)
	}

	flush := cmd.SetupLogging(cfg.Log)
	defer flush()

	if err := os.MkdirAll(cfg.Root, os.ModePerm); err != nil {
		log.Fatalf("error creating root directory: %v", err)
	}

	slog.Info("starting local backend", "root", cfg.Root, "port", cfg.Port)

	db, err := database.NewSqliteDatabase(cfg.Root)
	if err != nil {
		log.Fatalf("Failed to open database: %v", err)
	}
	backend := storage.NewSQLBackend(db)

	queue := messaging.NewInMemoryQueue()

	ctx, cancel := context.WithCancel(context.Background())
	var publisher messaging.Publisher
	if cfg.WebhookURL != "" {
		publisher = queue
		processor := notify.NewProcessor(queue, cfg.WebhookURL, cfg.WebhookTimeout)
		go processor.Start(ctx)
	}

	catalog, err := brain.DefaultCatalog()
	if err != nil {
		log.Fatalf("Failed to load keyword catalog: %v", err)
	}

	matcher, err := brain.NewOllamaMatcher(catalog, cfg.Ollama)
	if err != nil {
		log.Fatalf("Failed to create semantic matcher: %v", err)
	}

	r := cmd.NewRouter(cfg.AllowedOrigins)

	availability := storage.Availability{Local: true, Mode: storage.ModeLocal}
	service := api.NewBackendService(core.NewService(backend, publisher), matcher, availability)
	r.Route("/api", service.AddRoutes)

	cmd.Serve(cfg.Port, r, queue.Close, cancel, func() {
		if err := backend.Close(); err != nil {
			slog.Error("error closing database", "error", err)
		}
	})
}
