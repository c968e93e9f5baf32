package main

import (
	"log"
	"net/http"
	"time"

	"github.com/wadjakorntonsri/golinks-console/pkg/adapters/handler"
	"github.com/wadjakorntonsri/golinks-console/pkg/adapters/repository/sqlite"
	"github.com/wadjakorntonsri/golinks-console/pkg/config"
)

func main() {
	cfg := config.Load()

	// Initialize Repository
	repo, err := sqlite.NewSQLiteRepository(cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer repo.Close()

	// The repository serves both links and users
	mux := handler.NewRouter(cfg, repo, repo)

	server := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      mux,
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 10 * time.Second,
	}

	log.Printf("Sandbox API starting on port %s", cfg.Port)
	if err := server.ListenAndServe(); err != nil {
		log.Fatal(err)
	}
}
