// internal/handlers/router.go
package handlers

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/pank1717/Stocks-sub000/internal/core/domain"
	"github.com/pank1717/Stocks-sub000/internal/handlers/middleware"
	"github.com/pank1717/Stocks-sub000/internal/pkg/metrics"
)

// RouterConfig collects the handlers and the middleware settings of the API
type RouterConfig struct {
	Inventory     *InventoryHandler
	Reports       *ReportsHandler
	Session       *SessionHandler // nil disables /api/session
	Health        *HealthHandler  // nil disables /health and /ready
	Authenticator middleware.Authenticator

	Metrics        *metrics.Metrics
	MetricsHandler http.Handler // served at /metrics when set

	AllowedOrigins    []string
	SecureHeaders     bool
	RateLimitRequests int
	RateLimitDuration time.Duration
	RequestTimeout    time.Duration

	Logger *slog.Logger
}

// NewRouter registers every route and wraps the mux in the middleware chain
func NewRouter(cfg RouterConfig) http.Handler {
	mux := http.NewServeMux()

	authenticate := middleware.Authenticate(cfg.Authenticator, cfg.Logger)
	protect := func(c domain.Capability, h http.HandlerFunc) http.Handler {
		return authenticate(middleware.RequireCapability(c, h))
	}

	// Items
	mux.Handle("GET /api/items", protect(domain.CapItemsRead, cfg.Inventory.ListItems))
	mux.Handle("POST /api/items", protect(domain.CapItemsWrite, cfg.Inventory.CreateItem))
	mux.Handle("GET /api/items/{id}", protect(domain.CapItemsRead, cfg.Inventory.GetItem))
	mux.Handle("PUT /api/items/{id}", protect(domain.CapItemsWrite, cfg.Inventory.UpdateItem))
	mux.Handle("DELETE /api/items/{id}", protect(domain.CapItemsDelete, cfg.Inventory.DeleteItem))

	// Stock movements
	mux.Handle("POST /api/items/{id}/adjust", protect(domain.CapStockAdjust, cfg.Inventory.AdjustStock))
	mux.Handle("GET /api/items/{id}/history", protect(domain.CapItemsRead, cfg.Inventory.History))

	// Reports
	mux.Handle("GET /api/statistics", protect(domain.CapReportsRead, cfg.Reports.Statistics))
	mux.Handle("GET /api/alerts", protect(domain.CapReportsRead, cfg.Reports.Alerts))
	mux.Handle("GET /api/alerts/recent", protect(domain.CapReportsRead, cfg.Reports.RecentAlerts))
	mux.Handle("GET /api/loans", protect(domain.CapLoansRead, cfg.Reports.Loans))

	if cfg.Session != nil {
		mux.Handle("POST /api/session", authenticate(http.HandlerFunc(cfg.Session.Create)))
		mux.Handle("GET /api/session", authenticate(http.HandlerFunc(cfg.Session.Current)))
		mux.Handle("DELETE /api/session", http.HandlerFunc(cfg.Session.Delete))
	}

	if cfg.Health != nil {
		mux.HandleFunc("GET /health", cfg.Health.Health)
		mux.HandleFunc("GET /ready", cfg.Health.Readiness)
	}

	if cfg.MetricsHandler != nil {
		mux.Handle("GET /metrics", cfg.MetricsHandler)
	}

	chain := []func(http.Handler) http.Handler{
		middleware.RequestID,
		middleware.Logger(cfg.Logger),
		middleware.Recovery(cfg.Logger),
	}
	if cfg.Metrics != nil {
		chain = append(chain, middleware.Metrics(cfg.Metrics, middleware.MuxPattern(mux)))
	}
	if cfg.RateLimitRequests > 0 && cfg.RateLimitDuration > 0 {
		chain = append(chain, middleware.RateLimit(cfg.RateLimitRequests, cfg.RateLimitDuration))
	}
	chain = append(chain, middleware.CORS(cfg.AllowedOrigins))
	if cfg.SecureHeaders {
		chain = append(chain, middleware.SecureHeaders)
	}
	if cfg.RequestTimeout > 0 {
		chain = append(chain, middleware.Timeout(cfg.RequestTimeout))
	}
	chain = append(chain, middleware.Compression)

	return middleware.Chain(mux, chain...)
}
