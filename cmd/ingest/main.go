// cmd/ingest/main.go
package main

import (
	"fmt"
	"log"
	"net/http"

	"github.com/gorilla/mux"
	"github.com/joho/godotenv"

	"github.com/edusupply/backend-go/internal/cache"
	"github.com/edusupply/backend-go/internal/config"
	"github.com/edusupply/backend-go/internal/ingest"
	"github.com/edusupply/backend-go/internal/repository/postgres"
	"github.com/edusupply/backend-go/internal/storage"
)

func main() {
	// Load environment variables from .env file if it exists
	_ = godotenv.Load()

	// Load configuration
	cfg := config.Load()

	// Initialize object storage
	store, err := storage.NewMinioClient(cfg.Storage)
	if err != nil {
		log.Fatalf("Failed to initialize object storage: %v", err)
	}

	// Initialize Database
	db, err := postgres.NewDB(&cfg.Database)
	if err != nil {
		log.Fatalf("Failed to initialize database: %v", err)
	}

	// Initialize Repositories
	ingestRepo := postgres.NewIngestRepository(db)

	// Cache is optional here; without it stale payloads simply expire
	reportCache, err := cache.NewReportCache(cfg.Cache)
	if err != nil {
		log.Printf("warning: report cache unavailable: %v", err)
		reportCache = cache.NewNoopReportCache()
	}

	// Initialize Services
	ingestService := ingest.NewService(store, ingestRepo, reportCache, cfg.Storage.DumpPrefix)

	// Create router and register routes
	r := mux.NewRouter()
	ingestHandler := ingest.NewHandler(ingestService)
	ingestHandler.RegisterRoutes(r)

	// Health check endpoint
	r.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	}).Methods("GET")

	// Start server
	addr := fmt.Sprintf(":%s", cfg.Server.Port)
	log.Printf("Ingest server starting on %s\n", addr)
	log.Fatal(http.ListenAndServe(addr, r))
}
