package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"coursehub-backend/internal/config"
	"coursehub-backend/internal/database"
	"coursehub-backend/internal/handlers"
	"coursehub-backend/internal/log"
	"coursehub-backend/internal/middleware"
	"coursehub-backend/internal/repository"
	"coursehub-backend/internal/router"
	"coursehub-backend/internal/scheduler"
	"coursehub-backend/internal/services"
	"coursehub-backend/internal/tracking"
	"coursehub-backend/internal/websocket"
	"coursehub-backend/internal/worker"
)

func main() {
	// ──── Step 1: Load Environment Variables ────
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "configuration error: %v\n", err)
		os.Exit(1)
	}
	log.Configure(log.Config{Level: cfg.LogLevel, Service: "coursehub"})
	logger := log.WithComponent("server")
	logger.Info().Str("env", cfg.Env).Str("store", cfg.StoreBackend).Msg("starting CourseHub backend")

	ctx := context.Background()

	// ──── Step 2: Open the Document Store ────
	storage, err := database.OpenStorage(ctx, cfg)
	if err != nil {
		logger.Fatal().Err(err).Msg("document store unavailable")
	}
	defer storage.Close()

	// ──── Step 3: Run Database Migrations ────
	applied, err := storage.Migrate(ctx, cfg.MigrationsDir, log.WithComponent("migrations"))
	if err != nil {
		logger.Fatal().Err(err).Msg("database migration failed")
	}
	logger.Info().Int("applied", applied).Msg("database migrations up to date")

	// ──── Step 4: Initialize Redis Clients ────
	redisClients, err := database.NewRedisClients(ctx, cfg.RedisURL)
	if err != nil {
		logger.Fatal().Err(err).Msg("Redis connection failed")
	}
	defer redisClients.Close()
	if redisClients == nil {
		logger.Warn().Msg("REDIS_URL not set; learning events and notifications stay in-process")
	}

	// ──── Initialize Repositories ────
	userRepo := repository.NewUserRepo(storage.Store)
	courseRepo := repository.NewCourseRepo(storage.Store)
	enrollmentRepo := repository.NewEnrollmentRepo(storage.Store)
	progressRepo := repository.NewProgressRepo(storage.Store)
	analyticsRepo := repository.NewAnalyticsRepo(storage.Store)
	sessionRepo := repository.NewSessionRepo(storage.Store)

	// ──── Step 5: Start WebSocket Hub ────
	var hub *websocket.Hub
	if redisClients != nil {
		hub = websocket.NewHub(redisClients.PubSub, log.WithComponent("hub"))
	} else {
		hub = websocket.NewHub(nil, log.WithComponent("hub"))
	}

	// ──── Initialize Services ────
	aggregator := services.NewAggregator(
		progressRepo,
		analyticsRepo,
		sessionRepo,
		enrollmentRepo,
		log.WithComponent("aggregator"),
		services.WithLocation(cfg.Location()),
		services.WithPublisher(hub),
	)
	registry := tracking.NewRegistry(aggregator, log.WithComponent("tracking"))

	profileService := services.NewProfileService(userRepo, progressRepo, analyticsRepo, cfg.Timezone, log.WithComponent("profiles"))
	authService := services.NewAuthService(profileService, registry, log.WithComponent("auth"))
	catalogService := services.NewCatalogService(courseRepo, log.WithComponent("catalog"))
	enrollmentService := services.NewEnrollmentService(enrollmentRepo, courseRepo, userRepo, progressRepo, analyticsRepo, log.WithComponent("enrollments"))
	insightService := services.NewInsightService(catalogService, courseRepo, userRepo, analyticsRepo, log.WithComponent("insights"))
	learningService := services.NewLearningService(aggregator, registry, log.WithComponent("learning"))

	// ──── Step 6: Start Learning Event Workers ────
	var (
		queue      handlers.Enqueuer
		workerPool *worker.Pool
		inline     *worker.Inline
	)
	if redisClients != nil {
		workerPool = worker.NewPool(redisClients.Queue, learningService, cfg.WorkerCount, log.WithComponent("worker"))
		workerPool.Start(ctx)
		queue = worker.NewRedisQueue(redisClients.Queue)
	} else {
		inline = worker.NewInline(learningService, log.WithComponent("worker"))
		queue = inline
	}

	// ──── Step 7: Start Idle Session Sweeper ────
	sweeper := scheduler.New(registry, cfg.SessionSweepInterval, cfg.SessionIdleTimeout, log.WithComponent("scheduler"))
	if err := sweeper.Start(); err != nil {
		logger.Fatal().Err(err).Msg("scheduler failed to start")
	}

	// ──── Initialize Handlers ────
	verifier := middleware.NewVerifier(cfg.JWTSecret, services.AuthErrorMessage)
	authHandler := handlers.NewAuthHandler(authService)
	courseHandler := handlers.NewCourseHandler(catalogService)
	enrollmentHandler := handlers.NewEnrollmentHandler(enrollmentService)
	meHandler := handlers.NewMeHandler(profileService, authService)
	learningHandler := handlers.NewLearningHandler(queue, log.WithComponent("learning"))
	insightHandler := handlers.NewInsightHandler(insightService)
	wsHandler := websocket.NewHandler(hub, registry, verifier, cfg.FrontendURL, log.WithComponent("websocket"))

	// ──── Step 8: Start HTTP Server ────
	r := router.New(
		verifier,
		authHandler,
		courseHandler,
		enrollmentHandler,
		meHandler,
		learningHandler,
		insightHandler,
		wsHandler,
		cfg.FrontendURL,
		log.WithComponent("http"),
	)

	server := &http.Server{
		Addr:         fmt.Sprintf(":%s", cfg.Port),
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Graceful shutdown
	done := make(chan struct{})
	go func() {
		defer close(done)
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
		<-sigChan

		logger.Info().Msg("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		server.Shutdown(shutdownCtx)

		// Closing the sockets ends their sessions; whatever is left is
		// flushed by CloseAll.
		hub.Close()
		wsHandler.Wait()
		registry.CloseAll(shutdownCtx)
		sweeper.Stop()

		if workerPool != nil {
			workerPool.Stop()
		}
		if inline != nil {
			inline.Wait()
		}
	}()

	logger.Info().
		Str("api", fmt.Sprintf("http://localhost:%s/api/v1", cfg.Port)).
		Str("ws", fmt.Sprintf("ws://localhost:%s/api/v1/ws", cfg.Port)).
		Msg("CourseHub backend ready")

	if err := server.ListenAndServe(); err != http.ErrServerClosed {
		logger.Fatal().Err(err).Msg("server error")
	}
	<-done
}
