package main

import (
	"context"
	"log"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/d-kovalchuk/weather-notify-api/internal/app"
	"github.com/d-kovalchuk/weather-notify-api/internal/config"
	"github.com/d-kovalchuk/weather-notify-api/pkg/logger"
)

// @title Weather Subscription API
// @version 1.0
// @description API for subscribing to weather forecasts
// @host localhost:8080
// @BasePath /api/
func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("no .env file found, relying on environment")
	}

	cfg, err := config.NewConfig()
	if err != nil {
		log.Panicf("failed to load configuration: %v", err)
	}

	zapLog, err := logger.New(cfg.LogsPath, "weather-notify-api")
	if err != nil {
		log.Panicf("failed to create logger: %v", err)
	}
	defer func() {
		_ = zapLog.Sync()
	}()

	application := app.New(*cfg, zapLog)
	container, err := application.Init()
	if err != nil {
		log.Panicf("failed to initialize application: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	go func() {
		<-ctx.Done()
		if err := application.Stop(container); err != nil {
			log.Printf("failed to shutdown application: %v", err)
		}
	}()

	if err := application.Start(ctx, container); err != nil {
		log.Panicf("application error: %v", err)
	}
}
