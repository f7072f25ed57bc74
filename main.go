package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"farmersmarket/internal/cache"
	"farmersmarket/internal/config"
	"farmersmarket/internal/database"
	"farmersmarket/internal/logging"
	"farmersmarket/internal/repositories"
	"farmersmarket/internal/server"
	"farmersmarket/internal/services"
	"farmersmarket/pkg/rabbitmq"

	"github.com/rs/zerolog/log"
)

func main() {
	// --- Configuration ---
	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("invalid configuration")
	}
	logging.Setup(cfg.LogLevel, cfg.LogPretty)

	// --- Database ---
	db, err := database.Open(cfg.DatabaseDriver, cfg.DatabaseDSN)
	if err != nil {
		log.Fatal().Err(err).Str("driver", cfg.DatabaseDriver).Msg("failed to connect to database")
	}
	if err := database.Migrate(db); err != nil {
		log.Fatal().Err(err).Msg("failed to migrate database")
	}
	sqlDB, err := db.DB()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to access database handle")
	}
	defer sqlDB.Close()

	checks := map[string]server.HealthCheck{
		"database": sqlDB.PingContext,
	}

	// --- RabbitMQ (optional) ---
	var publisher services.EventPublisher
	if cfg.RabbitMQURL != "" {
		mqClient, err := rabbitmq.NewClient(rabbitmq.Config{URL: cfg.RabbitMQURL})
		if err != nil {
			log.Fatal().Err(err).Msg("failed to initialize RabbitMQ client")
		}
		defer mqClient.Close()
		publisher = mqClient

		if err := mqClient.ConsumeOrderEvents(rabbitmq.LogOrderEvent); err != nil {
			log.Error().Err(err).Msg("failed to start RabbitMQ consumer")
		}
	} else {
		log.Info().Msg("RABBITMQ_URL not set, order events are not published")
	}

	// --- Redis rating cache (optional) ---
	var ratings cache.RatingCache
	if cfg.RedisAddr != "" {
		redisCache := cache.NewRedisRatingCache(cache.NewRedisClient(cfg.RedisAddr, cfg.RedisPassword), "ratings", cfg.RatingCacheTTL)
		if err := redisCache.Ping(context.Background()); err != nil {
			log.Warn().Err(err).Str("addr", cfg.RedisAddr).Msg("redis unreachable, ratings fall back to the database until it recovers")
		}
		defer redisCache.Close()
		ratings = redisCache
		checks["redis"] = redisCache.Ping
	}

	// --- Repositories and services ---
	repos := repositories.NewGORMRepositories(db)
	uow := repositories.NewGORMUnitOfWork(db)

	app := server.NewApp(server.Deps{
		Auth:     services.NewAuthService(repos.Users, cfg.JWTSecret, cfg.SessionTTL),
		Products: services.NewProductService(repos.Products, repos.Reviews, uow, ratings),
		Carts:    services.NewCartService(uow, repos.Carts),
		Orders:   services.NewOrderService(uow, repos.Orders, publisher),
		Reviews:  services.NewReviewService(repos.Reviews, repos.Products, ratings),
		Checks:   checks,
	})

	// --- Start HTTP Server ---
	log.Info().Str("addr", cfg.AppPort).Msg("starting server")

	// Graceful shutdown handling
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		if err := app.Listen(cfg.AppPort); err != nil {
			log.Fatal().Err(err).Msg("server failed to start")
		}
	}()

	<-quit
	log.Info().Msg("shutting down server")

	if err := app.Shutdown(); err != nil {
		log.Error().Err(err).Msg("error during Fiber shutdown")
	}
	log.Info().Msg("server gracefully stopped")
}
