package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"facecounter/internal/app"
	"facecounter/internal/config"
	"facecounter/internal/logger"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	l := logger.NewLogger(cfg)
	defer l.Close()

	application, err := app.NewApp(cfg, l)
	if err != nil {
		l.Error("Failed to start: %v", err)
		log.Fatalf("Failed to start: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := application.Run(ctx); err != nil {
		log.Fatalf("Server stopped: %v", err)
	}
}
