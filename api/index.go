package handler

import (
	"net/http"

	"github.com/wadjakorntonsri/golinks-console/pkg/adapters/handler"
	"github.com/wadjakorntonsri/golinks-console/pkg/adapters/repository/sqlite"
	"github.com/wadjakorntonsri/golinks-console/pkg/config"
)

var mux http.Handler

func init() {
	cfg := config.Load()

	// Note: On Vercel, the sqlite file is ephemeral unless DATABASE_URL points at Turso
	repo, err := sqlite.NewSQLiteRepository(cfg.DatabaseURL)
	if err != nil {
		panic(err)
	}

	mux = handler.NewRouter(cfg, repo, repo)
}

// Handler is the entrypoint for Vercel
func Handler(w http.ResponseWriter, r *http.Request) {
	mux.ServeHTTP(w, r)
}
