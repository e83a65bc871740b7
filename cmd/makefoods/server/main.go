package main

import (
	"context"
	"errors"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"makefoods"
	"makefoods/app"
)

func main() {
	makefoods.SetupLogging(os.Stdout, slog.LevelInfo)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	modelConfig, appConfig, err := makefoods.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load config: %s", err)
	}

	otelShutdown, err := makefoods.InitOtel(ctx)
	if err != nil {
		slog.Error("SETUP: Failed to initialize OpenTelemetry", "error", err)
		os.Exit(1)
	}
	defer func() {
		if err := otelShutdown(context.WithoutCancel(ctx)); err != nil {
			slog.Error("SETUP: Failed to shutdown OpenTelemetry", "error", err)
		}
	}()

	a, err := app.Build(ctx, modelConfig, appConfig, app.Options{})
	if err != nil {
		slog.Error("SETUP: Failed to build app", "error", err)
		os.Exit(1)
	}
	defer func() {
		if err := a.Close(); err != nil {
			slog.Error("SETUP: Failed to close app", "error", err)
		}
	}()

	server := &http.Server{
		Addr:         appConfig.HTTPAddr,
		Handler:      a.Handler(),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		slog.Info("HTTP: Server starting", "addr", server.Addr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("HTTP: Server failed", "error", err)
			stop()
		}
	}()

	<-ctx.Done()
	slog.Info("HTTP: Shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		slog.Error("HTTP: Graceful shutdown failed", "error", err)
	}
}
