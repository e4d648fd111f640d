package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"plantguard-be/internal/bootstrap"
	"plantguard-be/internal/config"
	"plantguard-be/internal/pkg/logger"
	"plantguard-be/internal/server"
	"plantguard-be/internal/tracer"
)

func main() {
	// 1. Load Configuration
	cfg := config.Load()

	sysLogger := logger.NewZapLogger(cfg.App.LogFilePath, cfg.App.Environment == "production")
	defer sysLogger.Sync()

	// 2. Initialize Tracer (no-op unless OTEL_ENABLED=true)
	shutdownTracer := tracer.InitTracer(cfg.Tracing, cfg.App.Version, sysLogger)
	defer shutdownTracer(context.Background())

	// 3. Bootstrap Dependencies (Container)
	container := bootstrap.NewContainer(cfg, sysLogger)
	defer container.Close()

	// 4. Initialize Server
	srv := server.New(cfg, container)

	go func() {
		quit := make(chan os.Signal, 1)
		signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
		<-quit

		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(ctx); err != nil {
			sysLogger.Error("main", "Graceful shutdown failed", map[string]interface{}{"error": err.Error()})
		}
	}()

	// 5. Run Server
	if err := srv.Run(); err != nil {
		sysLogger.Error("main", "Server stopped", map[string]interface{}{"error": err.Error()})
	}
}
