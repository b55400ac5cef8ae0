// internal/handlers/reports.go
package handlers

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/pank1717/Stocks-sub000/internal/core/domain"
	"github.com/pank1717/Stocks-sub000/internal/core/ports"
)

const (
	defaultRecentAlerts = 20
	maxRecentAlerts     = 100
)

// ReportsHandler serves the read-only projections
type ReportsHandler struct {
	reports ports.ReportingService
	cache   ports.CacheRepository
	now     func() time.Time
	logger  *slog.Logger
}

// NewReportsHandler creates a new reports handler. cache may be nil, in which
// case recent alerts are reported as empty.
func NewReportsHandler(reports ports.ReportingService, cache ports.CacheRepository, logger *slog.Logger) *ReportsHandler {
	return &ReportsHandler{
		reports: reports,
		cache:   cache,
		now:     time.Now,
		logger:  logger.With(slog.String("handler", "reports")),
	}
}

// Statistics handles GET /api/statistics
func (h *ReportsHandler) Statistics(w http.ResponseWriter, r *http.Request) {
	stats, err := h.reports.Statistics(r.Context())
	if err != nil {
		respondDomainError(w, r, h.logger, err, "Failed to compute statistics")
		return
	}

	respondJSON(w, http.StatusOK, stats)
}

// Alerts handles GET /api/alerts
func (h *ReportsHandler) Alerts(w http.ResponseWriter, r *http.Request) {
	alerts, err := h.reports.Alerts(r.Context())
	if err != nil {
		respondDomainError(w, r, h.logger, err, "Failed to load alerts")
		return
	}

	respondJSON(w, http.StatusOK, alerts)
}

// Loans handles GET /api/loans
func (h *ReportsHandler) Loans(w http.ResponseWriter, r *http.Request) {
	loans, err := h.reports.Loans(r.Context(), h.now())
	if err != nil {
		respondDomainError(w, r, h.logger, err, "Failed to load loans")
		return
	}

	respondJSON(w, http.StatusOK, loans)
}

// RecentAlerts handles GET /api/alerts/recent
func (h *ReportsHandler) RecentAlerts(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	limit := defaultRecentAlerts
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			respondError(w, http.StatusBadRequest, "limit must be a positive integer")
			return
		}
		limit = min(n, maxRecentAlerts)
	}

	alerts := make([]domain.StockAlert, 0)
	if h.cache == nil {
		respondJSON(w, http.StatusOK, alerts)
		return
	}

	raw, err := h.cache.ListRange(ctx, ports.RecentAlertsKey, int64(limit))
	if err != nil {
		respondDomainError(w, r, h.logger, err, "Failed to load recent alerts")
		return
	}

	for _, entry := range raw {
		var alert domain.StockAlert
		if err := json.Unmarshal([]byte(entry), &alert); err != nil {
			h.logger.WarnContext(ctx, "skipping malformed alert record",
				slog.String("error", err.Error()))
			continue
		}
		alerts = append(alerts, alert)
	}

	respondJSON(w, http.StatusOK, alerts)
}
