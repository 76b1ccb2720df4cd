package main

import (
	"context"
	"database/sql"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/lib/pq" // PostgreSQL driver

	"github.com/pnadon/newsletter/internal/api"
	"github.com/pnadon/newsletter/internal/auth"
	"github.com/pnadon/newsletter/internal/config"
	"github.com/pnadon/newsletter/internal/email"
	"github.com/pnadon/newsletter/internal/newsletter"
)

func main() {
	logger := log.New(os.Stdout, "", log.LstdFlags)

	// Load configuration
	cfg, err := config.LoadFromEnv("config/config.yaml")
	if err != nil {
		logger.Fatalf("Failed to load config: %v", err)
	}
	if os.Getenv("DATABASE_URL") != "" {
		logger.Println("[config] DATABASE_URL env override active")
	}

	// Connect to PostgreSQL
	db, err := sql.Open("postgres", cfg.Database.URL)
	if err != nil {
		logger.Fatalf("Failed to open database: %v", err)
	}
	defer db.Close()

	pingCtx, pingCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer pingCancel()
	if err := db.PingContext(pingCtx); err != nil {
		logger.Fatalf("Failed to ping database: %v", err)
	}
	logger.Println("Connected to database")

	// Initialize the email delivery client
	emailClient, err := email.New(context.Background(), cfg.Email)
	if err != nil {
		logger.Fatalf("Failed to initialize email client: %v", err)
	}
	logger.Printf("Email provider: %s", cfg.Email.Provider)

	// Password verification worker pool
	pool := auth.NewVerifyPool(cfg.Auth.VerifyWorkers)
	if err := pool.Start(); err != nil {
		logger.Fatalf("Failed to start verify pool: %v", err)
	}
	defer pool.Stop()

	verifier := auth.NewVerifier(db, pool, logger)

	svc := newsletter.NewService(
		newsletter.NewStore(db),
		emailClient,
		email.NewTemplates(),
		verifier,
		cfg.Server.BaseURL,
		logger,
	)

	handlers := api.NewHandlers(svc, logger)
	server := api.NewServer(cfg.Server, handlers)

	// Setup graceful shutdown
	done := make(chan os.Signal, 1)
	signal.Notify(done, os.Interrupt, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		logger.Printf("Starting server on %s", cfg.Server.Addr())
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatalf("Server error: %v", err)
		}
	}()

	<-done
	logger.Println("Shutting down...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Printf("Server shutdown error: %v", err)
	}

	logger.Println("Server stopped")
}
