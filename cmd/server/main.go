package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"estate-backend/internal/admin"
	"estate-backend/internal/audit"
	"estate-backend/internal/auth"
	"estate-backend/internal/config"
	"estate-backend/internal/engine"
	"estate-backend/internal/metadata"
	"estate-backend/internal/metrics"
	"estate-backend/internal/store"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	ctx := context.Background()

	st, err := store.New(ctx, cfg.Database)
	if err != nil {
		log.Fatalf("store: %v", err)
	}
	defer st.Close()

	if err := st.Bootstrap(ctx); err != nil {
		log.Fatalf("bootstrap: %v", err)
	}

	registry := metadata.NewRegistry()
	if err := metadata.LoadAll(ctx, st.Pool, registry); err != nil {
		log.Fatalf("metadata: %v", err)
	}
	log.Printf("registered %d modules", len(registry.AllModules()))

	var recorder *audit.Recorder
	if cfg.Audit.Enabled {
		recorder = audit.NewRecorder(st.Pool, cfg.Audit.BufferSize, cfg.Audit.FlushIntervalMs)
		defer recorder.Stop()
	}

	app := fiber.New(fiber.Config{
		ErrorHandler: errorHandler,
	})
	app.Use(recover.New())
	app.Use(logger.New())
	app.Use(metrics.Middleware())

	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok"})
	})
	app.Get("/metrics", adaptor.HTTPHandler(promhttp.Handler()))

	guard := auth.NewGuard(st, cfg.JWTSecret, recorder)
	authHandler := auth.NewHandler(st, cfg.JWTSecret)
	auth.RegisterAuthRoutes(app, authHandler, guard)

	adminHandler := admin.NewHandler(st, registry)
	admin.RegisterAdminRoutes(app, adminHandler, guard.Require("users"))

	handler := engine.NewHandler(st, registry)
	engine.RegisterModuleRoutes(app, handler, guard.RequireParam())

	go func() {
		addr := fmt.Sprintf(":%d", cfg.Server.Port)
		log.Printf("listening on %s", addr)
		if err := app.Listen(addr); err != nil {
			log.Fatalf("server: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("shutting down")
	if err := app.Shutdown(); err != nil {
		log.Printf("shutdown: %v", err)
	}
}

// errorHandler renders AppError values as the uniform error envelope and
// hides everything else behind a generic 500.
func errorHandler(c *fiber.Ctx, err error) error {
	var appErr *engine.AppError
	if errors.As(err, &appErr) {
		return c.Status(appErr.Status).JSON(engine.ErrorResponse{Error: appErr})
	}

	var fiberErr *fiber.Error
	if errors.As(err, &fiberErr) {
		return c.Status(fiberErr.Code).JSON(engine.ErrorResponse{
			Error: engine.NewAppError("INTERNAL_ERROR", fiberErr.Code, fiberErr.Message),
		})
	}

	log.Printf("unhandled error: %v", err)
	return c.Status(fiber.StatusInternalServerError).JSON(engine.ErrorResponse{
		Error: engine.NewAppError("INTERNAL_ERROR", fiber.StatusInternalServerError, "Internal server error"),
	})
}
