package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"linecue-backend/internal/config"
	"linecue-backend/internal/database"
	"linecue-backend/internal/handlers"
	"linecue-backend/internal/middleware"
	"linecue-backend/internal/repository"
	"linecue-backend/internal/router"
	"linecue-backend/internal/services"
	"linecue-backend/internal/websocket"
	"linecue-backend/internal/worker"
)

func main() {
	log.Println("🚀 Starting LineCue Backend...")

	// ──── Step 1: Load Environment Variables ────
	cfg := config.Load()
	log.Println("✓ Environment variables loaded")

	location, err := time.LoadLocation(cfg.Timezone)
	if err != nil {
		log.Fatalf("✗ Invalid TIMEZONE %q: %v", cfg.Timezone, err)
	}

	// ──── Step 2: Initialize PostgreSQL Connection Pool ────
	pool, err := database.NewPostgresPool(cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("✗ PostgreSQL connection failed: %v", err)
	}
	defer pool.Close()
	log.Println("✓ PostgreSQL connected")

	// ──── Step 3: Initialize Redis Clients ────
	redisClients, err := database.NewRedisClients(cfg.RedisURL)
	if err != nil {
		log.Fatalf("✗ Redis connection failed: %v", err)
	}
	defer redisClients.Close()
	log.Println("✓ Redis connected")

	// ──── Step 4: Run Database Migrations ────
	if err := database.RunMigrations(pool, "migrations"); err != nil {
		log.Fatalf("✗ Database migration failed: %v", err)
	}
	log.Println("✓ Database migrations applied")

	// ──── Initialize Repositories ────
	userRepo := repository.NewUserRepo(pool)
	docRepo := repository.NewDocumentRepo(pool)
	cueRepo := repository.NewCueCardRepo(pool)
	statRepo := repository.NewReviewStatRepo(pool)
	jobRepo := repository.NewJobRepo(pool)

	// ──── Step 5: Initialize Gemini Client ────
	geminiService, err := services.NewGeminiService(
		cfg.GeminiAPIKey,
		cfg.GeminiConcurrentReqs,
		redisClients.Queue,
	)
	if err != nil {
		log.Fatalf("✗ Gemini client initialization failed: %v", err)
	}
	defer geminiService.Close()
	log.Println("✓ Gemini Flash client initialized")

	// ──── Initialize Services ────
	jwtAuth := middleware.NewJWTAuth(cfg.JWTSecret)
	authService := services.NewAuthService(userRepo, redisClients.Queue, jwtAuth)
	seedService := services.NewSeedService(docRepo, cueRepo)
	fileExtractService := services.NewFileExtractService()
	segmenter := services.NewSegmenter(geminiService)
	evaluator := services.NewEvaluator(geminiService)
	progressService := services.NewProgressService(statRepo, cueRepo, location)
	quizService := services.NewQuizService(evaluator, progressService)

	// ──── Initialize Handlers ────
	authHandler := handlers.NewAuthHandler(authService, seedService)
	documentHandler := handlers.NewDocumentHandler(docRepo, cueRepo, jobRepo, quizService, redisClients.Queue, cfg.StoragePath)
	cueCardHandler := handlers.NewCueCardHandler(cueRepo, docRepo, geminiService)
	quizHandler := handlers.NewQuizHandler(quizService, cueRepo, docRepo)
	dashboardHandler := handlers.NewDashboardHandler(progressService)
	jobHandler := handlers.NewJobHandler(jobRepo)

	// ──── Step 6: Start Import Worker Pool ────
	workerPool := worker.NewPool(
		redisClients.Queue,
		geminiService,
		fileExtractService,
		segmenter,
		jobRepo,
		docRepo,
		cfg.WorkerCount,
	)
	workerPool.Start()
	log.Printf("✓ Worker pool started (%d goroutines)", cfg.WorkerCount)

	// ──── Step 7: Start WebSocket Hub ────
	wsHub := websocket.NewHub(redisClients.PubSub, cfg.JWTSecret)
	log.Println("✓ WebSocket hub started")

	// ──── Step 8: Start HTTP Server ────
	r := router.New(
		jwtAuth,
		authHandler,
		documentHandler,
		cueCardHandler,
		quizHandler,
		dashboardHandler,
		jobHandler,
		wsHub,
		cfg.FrontendURL,
	)

	server := &http.Server{
		Addr:         fmt.Sprintf(":%s", cfg.Port),
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Graceful shutdown
	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
		<-sigChan

		log.Println("Shutting down...")
		workerPool.Stop()

		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		server.Shutdown(ctx)
	}()

	log.Printf("✓ LineCue Backend ready on http://localhost:%s", cfg.Port)
	log.Printf("  API: http://localhost:%s/api/v1", cfg.Port)
	log.Printf("  WS:  ws://localhost:%s/api/v1/ws", cfg.Port)

	if err := server.ListenAndServe(); err != http.ErrServerClosed {
		log.Fatalf("Server error: %v", err)
	}
}
