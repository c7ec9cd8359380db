package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/nats-io/nats.go"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/noah-isme/exeval-api/internal/config"
	"github.com/noah-isme/exeval-api/internal/database"
	"github.com/noah-isme/exeval-api/internal/equation"
	"github.com/noah-isme/exeval-api/internal/handler"
	"github.com/noah-isme/exeval-api/internal/middleware"
	"github.com/noah-isme/exeval-api/internal/models"
	"github.com/noah-isme/exeval-api/internal/repository"
	"github.com/noah-isme/exeval-api/internal/router"
	"github.com/noah-isme/exeval-api/internal/service"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load configuration: %v", err)
	}

	logger := zerolog.New(os.Stdout).With().Timestamp().Logger()

	db, err := database.ConnectPostgres(cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("failed to connect to database: %v", err)
	}

	if err := db.AutoMigrate(
		&models.ScoringModel{}, &models.ScoringCategory{}, &models.ScoringOption{},
		&models.Evaluation{}, &models.TeamType{}, &models.Team{}, &models.TeamMembership{},
		&models.Submission{}, &models.SubmissionCategory{}, &models.SubmissionOption{}, &models.SubmissionComment{},
		&models.EventLog{},
	); err != nil {
		log.Fatalf("failed to migrate database: %v", err)
	}

	// Redis and NATS are optional sinks; the engine degrades to
	// database-only operation without them.
	var redisClient *redis.Client
	if cfg.RedisURL != "" {
		redisClient, err = database.ConnectRedis(cfg.RedisURL)
		if err != nil {
			logger.Warn().Err(err).Msg("redis unavailable, continuing without cache")
			redisClient = nil
		} else {
			defer redisClient.Close()
		}
	}

	var natsConn *nats.Conn
	if cfg.NATSURL != "" {
		natsConn, err = database.ConnectNATS(cfg.NATSURL)
		if err != nil {
			logger.Warn().Err(err).Msg("nats unavailable, continuing without broker")
			natsConn = nil
		} else {
			defer natsConn.Close()
		}
	}

	validate := validator.New(validator.WithRequiredStructEnabled())
	evaluator := equation.New(logger)

	scoringModelRepo := repository.NewScoringModelRepository(db)
	submissionRepo := repository.NewSubmissionRepository(db)
	evaluationRepo := repository.NewEvaluationRepository(db)
	eventLogRepo := repository.NewEventLogRepository(db)

	authorizer := service.NewAuthorizer(evaluationRepo, logger)
	eventService := service.NewEventService(eventLogRepo, redisClient, natsConn, cfg.EventSubject, logger)
	lifecycleService := service.NewLifecycleService(submissionRepo, evaluationRepo, scoringModelRepo, authorizer, eventService, logger)
	submissionService := service.NewSubmissionService(submissionRepo, lifecycleService, authorizer, eventService, evaluator, validate, logger)
	averageService := service.NewAverageService(submissionRepo, evaluationRepo, redisClient, cfg.AverageCacheTTL, logger)
	scoringModelService := service.NewScoringModelService(scoringModelRepo, authorizer, validate, logger)

	scoringModelHandler := handler.NewScoringModelHandler(scoringModelService, logger)
	evaluationHandler := handler.NewEvaluationHandler(lifecycleService, eventService, logger)
	submissionHandler := handler.NewSubmissionHandler(submissionService, logger)
	averageHandler := handler.NewAverageHandler(averageService, logger)

	app := fiber.New(fiber.Config{
		AppName:      cfg.AppName,
		ServerHeader: cfg.AppName,
	})

	middleware.Register(app, middleware.Config{Logger: &logger})
	router.Register(app, cfg, router.Dependencies{
		ScoringModelHandler: scoringModelHandler,
		EvaluationHandler:   evaluationHandler,
		SubmissionHandler:   submissionHandler,
		AverageHandler:      averageHandler,
		JWTMiddleware:       middleware.JWTProtected(cfg.JWTSecret),
	})

	go func() {
		if err := app.Listen(cfg.HTTPAddress()); err != nil {
			log.Fatalf("failed to start server: %v", err)
		}
	}()

	waitForShutdown(app)
}

func waitForShutdown(app *fiber.App) {
	shutdownCtx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	<-shutdownCtx.Done()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := app.ShutdownWithContext(ctx); err != nil {
		log.Printf("graceful shutdown failed: %v", err)
	}

	log.Println("server stopped")
}
