/*
main.go - Application entry point

PURPOSE:
  Initializes and starts the gig bookkeeping server. Handles configuration,
  dependency injection, and graceful shutdown.

STARTUP SEQUENCE:
  1. Load .env overlay (if present), parse command-line flags
  2. Initialize SQLite store
  3. Build the distance collaborator client
  4. Create API handler and router
  5. Start server with graceful shutdown

CONFIGURATION:
  -port          HTTP server port (default: 8080, env PORT)
  -db            SQLite database path (default: gigbooks.db, env DATABASE_PATH)
                 Use ":memory:" for an in-memory database
  -routing-url   Routing service base URL for mileage lookups
                 (env ROUTING_URL; empty = fixed-distance fallback for dev)
  -mileage-rate  Per-mile deduction rate (env MILEAGE_RATE, default 0.70)

GRACEFUL SHUTDOWN:
  On SIGINT/SIGTERM: stop accepting connections, drain active requests
  (30s timeout), close the database.

EXAMPLES:
  ./server -db=./data/gigbooks.db -routing-url=https://routing.internal

SEE ALSO:
  - api/server.go: Router configuration
  - store/sqlite/sqlite.go: Database implementation
*/
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/gigbooks/bookkeeping/api"
	"github.com/gigbooks/bookkeeping/distance"
	"github.com/gigbooks/bookkeeping/engine"
	"github.com/gigbooks/bookkeeping/store/sqlite"
)

func main() {
	// .env overlay for local development; absent file is fine.
	_ = godotenv.Load()

	port := flag.Int("port", envInt("PORT", 8080), "HTTP server port")
	dbPath := flag.String("db", envStr("DATABASE_PATH", "gigbooks.db"), "SQLite database path")
	routingURL := flag.String("routing-url", envStr("ROUTING_URL", ""), "routing service base URL")
	mileageRate := flag.String("mileage-rate", envStr("MILEAGE_RATE", engine.DefaultMileageRate), "per-mile deduction rate")
	flag.Parse()

	// Initialize store
	store, err := sqlite.New(*dbPath)
	if err != nil {
		log.Fatalf("Failed to initialize database: %v", err)
	}
	defer store.Close()

	// Distance collaborator: real routing service when configured,
	// fixed-distance fallback for development.
	var calc distance.Calculator
	if *routingURL != "" {
		calc = distance.NewClient(*routingURL)
	} else {
		log.Printf("No routing-url configured, using fixed 10-mile fallback for mileage lookups")
		calc = &distance.Static{DefaultMiles: 10}
	}

	handler := api.NewHandler(store, calc)
	handler.MileageRate = mileageRate
	router := api.NewRouter(handler)

	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", *port),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Printf("Server starting on http://localhost:%d", *port)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Server failed: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		log.Fatalf("Server forced to shutdown: %v", err)
	}

	log.Println("Server stopped")
}

func envStr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}
