package main

import (
	"baldsphere-backend/cmd"
	"baldsphere-backend/internal/api"
	"baldsphere-backend/internal/brain"
	"baldsphere-backend/internal/config"
	"baldsphere-backend/internal/core"
	"baldsphere-backend/internal/messaging"
	"baldsphere-backend/internal/storage"
	"log"
	"log/slog"
)

func main() {
	log.Println("Starting API Server...")

	cmd.LoadEnvFile()

	cfg, err := config.Parse[config.APIConfig]()
	if err != nil {
		log.Fatalf("%v", err)
	}

	flush := cmd.SetupLogging(cfg.Log)
	defer flush()

	availability, err := storage.CheckAvailability(cfg.Storage)
	if err != nil {
		log.Fatalf("invalid storage config: %v", err)
	}

	backend, err := storage.Open(cfg.Storage)
	if err != nil {
		log.Fatalf("Failed to open database backend: %v", err)
	}

	var publisher messaging.Publisher
	if cfg.RabbitMQURL != "" {
		rabbit, err := messaging.NewRabbitMQPublisher(cfg.RabbitMQURL)
		if err != nil {
			log.Fatalf("Failed to connect to RabbitMQ: %v", err)
		}
		publisher = rabbit
	} else {
		slog.Warn("RABBITMQ_URL not set, contact notifications are disabled")
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

	service := api.NewBackendService(core.NewService(backend, publisher), matcher, availability)
	r.Route("/api", service.AddRoutes)

	cmd.Serve(cfg.Port, r, func() {
		if publisher != nil {
			publisher.Close()
		}
	}, func() {
		if err := backend.Close(); err != nil {
			slog.Error("error closing database backend", "error", err)
		}
	})
}
