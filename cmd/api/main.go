package main

import (
	"context"
	"database/sql"
	"os"
	"os/signal"
	"syscall"
	"time"

	analyticsHttp "user-analytics-service/internal/analytics/adapters/http/fiber"
	analyticsRepoPg "user-analytics-service/internal/analytics/adapters/postgres"
	analyticsUsecase "user-analytics-service/internal/analytics/core/usecase"

	"user-analytics-service/internal/cache"
	"user-analytics-service/internal/config"
	"user-analytics-service/internal/logging"

	"github.com/gofiber/fiber/v2"
	_ "github.com/lib/pq"
	fiberSwagger "github.com/swaggo/fiber-swagger"

	_ "user-analytics-service/docs"
)

// @title User Analytics Service
// @version 1.0
// @description Password-gated analytics API over the user document store.
// @BasePath /
func main() {
	// Config
	cfg, err := config.Load(os.Getenv("CONFIG_PATH"))
	if err != nil {
		bootLogger := logging.New(logging.Config{})
		bootLogger.Fatal().Err(err).Msg("failed to load config")
	}

	logger := logging.New(logging.Config{
		Level:  cfg.LogLevel,
		Format: cfg.LogFormat,
	})

	// DB connection
	db, err := sql.Open("postgres", cfg.PostgresDSN)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to open postgres")
	}
	defer db.Close()

	db.SetMaxOpenConns(20)
	db.SetMaxIdleConns(10)
	db.SetConnMaxLifetime(30 * time.Minute)

	if err := db.Ping(); err != nil {
		logger.Fatal().Err(err).Msg("failed to ping postgres")
	}

	// Document store adapter
	store := analyticsRepoPg.NewUserStore(analyticsRepoPg.NewSQLDB(db))

	// One snapshot cache per process, shared by all aggregations.
	snapshots := cache.New(time.Now)

	// Usecases
	dashboardUC := analyticsUsecase.NewDashboardUseCase(store, snapshots, time.Now)
	listUsersUC := analyticsUsecase.NewListUsersUseCase(store, snapshots, time.Now)
	userDetailUC := analyticsUsecase.NewUserDetailUseCase(store, time.Now)
	retentionUC := analyticsUsecase.NewRetentionUseCase(store, snapshots, time.Now)
	funnelUC := analyticsUsecase.NewFunnelUseCase(store, snapshots)
	alertsUC := analyticsUsecase.NewAlertsUseCase(store, snapshots, time.Now)
	insightsUC := analyticsUsecase.NewInsightsUseCase(store, snapshots)

	// HTTP (Fiber) app + handlers
	app := fiber.New()
	app.Use(analyticsHttp.RequestLogger(logger))

	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok"})
	})

	dashboardHandler := analyticsHttp.NewDashboardHandler(dashboardUC)
	usersHandler := analyticsHttp.NewUsersHandler(listUsersUC, userDetailUC)
	reportsHandler := analyticsHttp.NewReportsHandler(retentionUC, funnelUC, alertsUC, insightsUC)

	api := app.Group("/api", analyticsHttp.RequireKey(cfg.DashboardKey))
	api.Get("/dashboard", dashboardHandler.GetDashboard)
	api.Get("/users", usersHandler.ListUsers)
	api.Get("/users/:id", usersHandler.GetUser)
	api.Get("/retention", reportsHandler.GetRetention)
	api.Get("/funnel", reportsHandler.GetFunnel)
	api.Get("/alerts", reportsHandler.GetAlerts)
	api.Get("/insights", reportsHandler.GetInsights)

	// Swagger
	app.Get("/docs/*", fiberSwagger.WrapHandler)

	// Graceful shutdown
	go func() {
		if err := app.Listen(cfg.ListenAddr); err != nil {
			logger.Error().Err(err).Msg("fiber stopped")
		}
	}()

	logger.Info().Str("addr", cfg.ListenAddr).Msg("server started")

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	<-quit

	logger.Info().Msg("shutting down")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := app.ShutdownWithContext(ctx); err != nil {
		logger.Error().Err(err).Msg("fiber shutdown error")
	}

	logger.Info().Msg("server exiting")
}
