package main

import (
	"context"
	"errors"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"subscription-cancel-be/internal/bootstrap"
	"subscription-cancel-be/internal/config"
	"subscription-cancel-be/internal/pkg/logger"
	"subscription-cancel-be/internal/server"
	"subscription-cancel-be/internal/tracer"
	"subscription-cancel-be/pkg/database"

	"gorm.io/gorm"
)

func main() {
	// 1. Load Configuration
	cfg := config.Load()

	// 2. Tracer (no-op unless OTEL_ENABLED=true)
	shutdownTracer := tracer.InitTracer(cfg.App.OtelEnabled, cfg.App.OtelEndpoint)
	defer shutdownTracer(context.Background())

	sysLogger := logger.NewZapLogger(cfg.App.LogFilePath, cfg.IsProduction())

	// 3. Initialize Database. Without a DSN the server still starts.
	var gormDB *gorm.DB
	db, err := database.NewGormDBFromDSN(cfg.Database.Connection, !cfg.IsProduction())
	switch {
	case errors.Is(err, database.ErrEmptyDSN):
		log.Println("Warn: DB_CONNECTION_STRING not set, starting without persistence")
	case err != nil:
		log.Panicf("Unable to connect to GORM DB: %v", err)
	default:
		gormDB = db
	}

	// 4. Bootstrap Dependencies (Container)
	container := bootstrap.NewContainer(gormDB, cfg, sysLogger)

	// 5. Start Background Services
	if err := container.ConsumerService.Consume(context.Background()); err != nil {
		log.Printf("Background Consumer Error: %v", err)
	}

	// 6. Initialize Server
	srv := server.New(cfg, container)

	go func() {
		quit := make(chan os.Signal, 1)
		signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
		<-quit

		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(ctx); err != nil {
			log.Printf("Shutdown error: %v", err)
		}
	}()

	// 7. Run Server
	if err := srv.Run(); err != nil {
		log.Fatal(err)
	}
}
