package handler

import (
	"net/http"

	"github.com/wadjakorntonsri/golinks-console/pkg/config"
	"github.com/wadjakorntonsri/golinks-console/pkg/ports"
)

// NewRouter serves the REST contract the console consumes
func NewRouter(cfg *config.Config, links ports.LinkRepository, users ports.UserRepository) http.Handler {
	h := NewHTTPHandler(links)
	ah := NewAdminHandler(links, users)
	authHandler := NewAuthHandler(cfg, users)
	mw := NewMiddleware(cfg, users)

	mux := http.NewServeMux()

	// Public Routes
	mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"message": "ok"})
	})
	mux.HandleFunc("POST /api/auth/register", authHandler.Register)
	mux.HandleFunc("POST /api/auth/login", authHandler.Login)
	mux.HandleFunc("POST /api/auth/logout", authHandler.Logout)
	mux.HandleFunc("GET /{alias}", h.Redirect)

	// Protected Routes
	protected := http.NewServeMux()
	protected.HandleFunc("GET /api/auth/me", authHandler.Me)
	protected.HandleFunc("GET /api/links", h.List)
	protected.HandleFunc("POST /api/links", h.Create)
	protected.HandleFunc("PUT /api/links/{id}", h.Update)
	protected.HandleFunc("DELETE /api/links/{id}", h.Delete)
	protected.HandleFunc("PUT /api/users/{id}", ah.UpdateUser)

	// Admin Routes
	admin := http.NewServeMux()
	admin.HandleFunc("POST /api/admin/links/bulk-delete", h.BulkDelete)
	admin.HandleFunc("POST /api/admin/links/bulk-status", h.BulkStatus)
	admin.HandleFunc("GET /api/admin/users", ah.ListUsers)
	admin.HandleFunc("POST /api/users", ah.CreateUser)
	admin.HandleFunc("DELETE /api/users/{id}", ah.DeleteUser)
	admin.HandleFunc("GET /api/admin/stats/redirects", ah.Redirects)
	admin.HandleFunc("GET /api/admin/stats/peak-usage", ah.PeakUsage)
	admin.HandleFunc("GET /analytics/system", ah.SystemStats)

	protected.Handle("/api/admin/", mw.RequireAdmin(admin))
	protected.Handle("DELETE /api/users/{id}", mw.RequireAdmin(admin))
	protected.Handle("POST /api/users", mw.RequireAdmin(admin))
	protected.Handle("GET /analytics/", mw.RequireAdmin(admin))

	mux.Handle("GET /api/auth/me", mw.AuthMiddleware(protected))
	mux.Handle("/api/links", mw.AuthMiddleware(protected))
	mux.Handle("/api/links/", mw.AuthMiddleware(protected))
	mux.Handle("POST /api/users", mw.AuthMiddleware(protected))
	mux.Handle("/api/users/", mw.AuthMiddleware(protected))
	mux.Handle("/api/admin/", mw.AuthMiddleware(protected))
	mux.Handle("/analytics/", mw.AuthMiddleware(protected))

	return mux
}
