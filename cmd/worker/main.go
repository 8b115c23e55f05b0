package main

import (
	"baldsphere-backend/cmd"
	"baldsphere-backend/internal/config"
	"baldsphere-backend/internal/messaging"
	"baldsphere-backend/internal/notify"
	"context"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
)

func main() {
	log.Println("Starting Worker Process...")

	cmd.LoadEnvFile()

	cfg, err := config.Parse[config.WorkerConfig]()
	if err != nil {
		log.Fatalf("%v", err)
	}

	flush := cmd.SetupLogging(cfg.Log)
	defer flush()

	receiver, err := messaging.NewRabbitMQReceiver(cfg.RabbitMQURL)
	if err != nil {
		log.Fatalf("Failed to connect to RabbitMQ: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	processor := notify.NewProcessor(receiver, cfg.WebhookURL, cfg.Timeout)

	done := make(chan struct{})
	go func() {
		defer close(done)
		processor.Start(ctx)
	}()

	slog.Info("worker started, waiting for contact notifications")

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	slog.Info("shutdown signal received, stopping worker")
	cancel()
	receiver.Close()
	<-done

	slog.Info("worker process stopped")
}
