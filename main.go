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

	"github.com/joho/godotenv"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	"github.com/carverhealth/medgate/api"
	"github.com/carverhealth/medgate/classifier"
	"github.com/carverhealth/medgate/config"
	"github.com/carverhealth/medgate/gate"
	"github.com/carverhealth/medgate/llm"
	"github.com/carverhealth/medgate/policy"
	"github.com/carverhealth/medgate/session"
	"github.com/carverhealth/medgate/store"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables")
	}

	// Load configuration
	cfg := config.Load()

	log.Printf("Starting medgate proxy...")
	log.Printf("HTTP Port: %d", cfg.Port)
	log.Printf("Upstream URL: %s", cfg.UpstreamURL)
	log.Printf("Gate policy: %s", cfg.GatePolicy)
	log.Printf("Audit DB: %s", cfg.AuditDB)

	// Initialize audit store
	audit, err := store.NewSQLiteStore(cfg.AuditDB)
	if err != nil {
		log.Fatalf("Failed to initialize audit store: %v", err)
	}
	defer audit.Close()

	// Initialize LLM client
	llmClient := llm.NewClient(cfg.UpstreamURL, cfg.UpstreamAPIKey, cfg.UpstreamTimeout)

	// Initialize classifier and gate
	cls := classifier.New(llmClient, cfg.ClassifierModel)
	g := gate.New(cls, cfg.GatePolicy)

	// Initialize session store
	sessions := session.NewStore(cfg.SessionTTL)
	defer sessions.Close()

	// Initialize admission policy engine
	ctx := context.Background()
	policyEngine, err := policy.NewEngine(ctx, policy.DefaultPolicy)
	if err != nil {
		log.Fatalf("Failed to initialize policy engine: %v", err)
	}

	// Initialize handler
	h := api.NewHandler(cfg, llmClient, g, sessions, audit, policyEngine)

	// Create Echo server
	e := echo.New()
	e.HideBanner = true

	// Middleware
	e.Use(middleware.Logger())
	e.Use(middleware.Recover())
	e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins: cfg.AllowedOrigins,
		AllowMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
	}))

	// Register routes
	h.RegisterRoutes(e)

	// Start server
	go func() {
		addr := fmt.Sprintf(":%d", cfg.Port)
		if err := e.Start(addr); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Failed to start server: %v", err)
		}
	}()

	log.Printf("medgate started on port %d", cfg.Port)

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("Shutting down medgate...")

	// Graceful shutdown
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := e.Shutdown(shutdownCtx); err != nil {
		log.Printf("Failed to shutdown server gracefully: %v", err)
	}

	log.Println("medgate stopped")
}
