package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/locivir/printsettings/internal/auth"
	"github.com/locivir/printsettings/internal/discovery"
	"github.com/locivir/printsettings/internal/settings"
	"github.com/locivir/printsettings/internal/spooler"
)

// NewRouter creates and returns the main HTTP router.
func NewRouter(svc *settings.Service, sp spooler.Spooler, authSvc *auth.Service, bus EventBus, version string) http.Handler {
	return NewRouterWithBrowse(svc, sp, authSvc, bus, version, discovery.Browse)
}

// NewRouterWithBrowse is NewRouter with an explicit discovery function,
// used by tests to avoid touching the network.
func NewRouterWithBrowse(svc *settings.Service, sp spooler.Spooler, authSvc *auth.Service, bus EventBus, version string, browse BrowseFunc) http.Handler {
	r := chi.NewRouter()

	// Global middleware
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.RealIP)
	r.Use(corsMiddleware)
	r.Use(middleware.CleanPath)
	r.Use(rateLimit(requestsPerSecond, requestBurst))

	h := &Handlers{
		svc:     svc,
		sp:      sp,
		events:  bus,
		version: version,
		browse:  browse,
	}

	r.Group(func(r chi.Router) {
		r.Use(authSvc.Middleware)

		// Agent info
		r.Get("/api/info", h.getInfo)

		// Printers
		r.Get("/api/printers", h.getPrinters)
		r.Get("/api/printers/discover", h.discoverPrinters)

		// Stored settings
		r.Get("/api/settings", h.getSettings)
		r.Get("/api/settings/{label}", h.getSetting)
		r.Post("/api/settings/{label}/capture", h.captureSetting)
		r.Post("/api/settings/{label}/restore", h.restoreSetting)

		// SSE
		r.Get("/api/events", h.sseEvents)
	})

	return r
}

// corsMiddleware adds permissive CORS headers for local network access.
func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, X-API-Key")
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}
