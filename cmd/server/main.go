package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/contrib/fiberzap/v2"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/AmanDwivedi9335/ips-next-sub001/internal/broker"
	"github.com/AmanDwivedi9335/ips-next-sub001/internal/cache"
	"github.com/AmanDwivedi9335/ips-next-sub001/internal/config"
	"github.com/AmanDwivedi9335/ips-next-sub001/internal/database"
	"github.com/AmanDwivedi9335/ips-next-sub001/internal/handlers"
	"github.com/AmanDwivedi9335/ips-next-sub001/internal/logger"
	"github.com/AmanDwivedi9335/ips-next-sub001/internal/middleware"
	"github.com/AmanDwivedi9335/ips-next-sub001/internal/routes"
	"github.com/AmanDwivedi9335/ips-next-sub001/internal/services"
)

func main() {
	cfg := config.Load()

	if err := logger.Init(cfg.AppEnv, cfg.LogLevel); err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logger.Sync()
	l := logger.Get()

	db := database.Connect(cfg.DatabaseURL, cfg.IsProduction())
	if err := database.SeedAdmin(db, cfg.AdminEmail, cfg.AdminPassword); err != nil {
		l.Error("failed to seed admin account", zap.Error(err))
	}
	if err := database.SeedPaymentOptions(db); err != nil {
		l.Error("failed to seed payment options", zap.Error(err))
	}

	redisCache, err := cache.NewRedisAdapter(cfg.RedisURL)
	if err != nil {
		l.Fatal("invalid redis configuration", zap.Error(err))
	}
	defer redisCache.Close()

	pingCtx, pingCancel := context.WithTimeout(context.Background(), 3*time.Second)
	if err := redisCache.Ping(pingCtx); err != nil {
		l.Warn("redis is not reachable yet", zap.Error(err))
	}
	pingCancel()

	publisher, closePublisher := broker.NewPublisher(cfg.KafkaBrokers, cfg.KafkaOrdersTopic)
	defer func() {
		if err := closePublisher(); err != nil {
			l.Warn("failed to close kafka producer", zap.Error(err))
		}
	}()

	svc := routes.NewServices(db, cfg, redisCache, publisher)

	sweeper := services.NewPaymentSweeper(svc.Payments, cfg.GatewayOrderTTL)
	if err := sweeper.Start(cfg.SweepSchedule); err != nil {
		l.Fatal("failed to schedule payment sweeper", zap.Error(err))
	}

	app := fiber.New(fiber.Config{
		AppName:               cfg.StoreName,
		DisableStartupMessage: cfg.IsProduction(),
		ErrorHandler:          handlers.ErrorHandler,
	})

	app.Use(requestid.New())
	app.Use(recover.New(recover.Config{EnableStackTrace: !cfg.IsProduction()}))
	app.Use(fiberzap.New(fiberzap.Config{
		Logger: logger.Named("http"),
		Fields: []string{"requestId", "status", "method", "url", "latency", "ip"},
	}))
	app.Use(middleware.Metrics())

	app.Get("/metrics", adaptor.HTTPHandler(promhttp.Handler()))
	app.Get("/healthz", func(c *fiber.Ctx) error {
		if err := redisCache.Ping(c.UserContext()); err != nil {
			return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{"status": "degraded", "cache": err.Error()})
		}
		return c.JSON(fiber.Map{"status": "ok"})
	})

	routes.Register(app, db, cfg, redisCache, svc)

	go func() {
		l.Info("starting server", zap.String("port", cfg.AppPort), zap.String("env", cfg.AppEnv))
		if err := app.Listen(":" + cfg.AppPort); err != nil {
			l.Fatal("fiber.Listen error", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	l.Info("shutting down server")
	sweeper.Stop()
	if err := app.ShutdownWithTimeout(10 * time.Second); err != nil {
		l.Error("server forced to shutdown", zap.Error(err))
	}
}
