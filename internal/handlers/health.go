// internal/handlers/health.go
package handlers

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"sort"
	"strconv"
	"time"

	"github.com/hibiken/asynq"
	"github.com/redis/go-redis/v9"

	"github.com/pank1717/Stocks-sub000/internal/core/ports"
)

const maxReportedLedgerItems = 20

// BuildInfo identifies the running deployment in health reports
type BuildInfo struct {
	Version     string
	Environment string
	Storage     string
}

// LedgerVerifier replays every item ledger and returns the items whose
// history does not reproduce their stored quantity
type LedgerVerifier interface {
	VerifyLedger(ctx context.Context) (map[string]error, error)
}

// HealthOption customizes a HealthHandler
type HealthOption func(*HealthHandler)

// WithLedgerVerifier adds a ledger consistency section to /health
func WithLedgerVerifier(v LedgerVerifier) HealthOption {
	return func(h *HealthHandler) { h.ledger = v }
}

// HealthHandler serves /health and /ready
type HealthHandler struct {
	db        ports.Database
	redis     redis.UniversalClient
	asynq     *asynq.Inspector
	ledger    LedgerVerifier
	build     BuildInfo
	logger    *slog.Logger
	startTime time.Time
}

// NewHealthHandler creates a new health handler. redisClient and
// asynqInspector are optional; a nil dependency is left out of the report.
// The schema is checked when database implements ports.SchemaInspector.
func NewHealthHandler(
	database ports.Database,
	redisClient redis.UniversalClient,
	asynqInspector *asynq.Inspector,
	build BuildInfo,
	logger *slog.Logger,
	opts ...HealthOption,
) *HealthHandler {
	h := &HealthHandler{
		db:        database,
		redis:     redisClient,
		asynq:     asynqInspector,
		build:     build,
		logger:    logger.With(slog.String("handler", "health")),
		startTime: time.Now(),
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// HealthStatus is the /health payload
type HealthStatus struct {
	Status      string                 `json:"status"`
	Version     string                 `json:"version"`
	Environment string                 `json:"environment"`
	Storage     string                 `json:"storage"`
	Uptime      string                 `json:"uptime"`
	Timestamp   time.Time              `json:"timestamp"`
	Services    map[string]ServiceInfo `json:"services"`
}

// ServiceInfo is the state of one dependency or check
type ServiceInfo struct {
	Status       string                 `json:"status"`
	Message      string                 `json:"message,omitempty"`
	ResponseTime string                 `json:"response_time,omitempty"`
	Details      map[string]interface{} `json:"details,omitempty"`
}

// ReadinessStatus is the /ready payload
type ReadinessStatus struct {
	Ready   bool              `json:"ready"`
	Details map[string]string `json:"details"`
}

// Health handles the /health endpoint. A failing dependency degrades the
// report; ledger drift is reported but leaves the service healthy.
func (h *HealthHandler) Health(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	health := HealthStatus{
		Status:      "healthy",
		Version:     h.build.Version,
		Environment: h.build.Environment,
		Storage:     h.build.Storage,
		Uptime:      time.Since(h.startTime).Round(time.Second).String(),
		Timestamp:   time.Now(),
		Services:    make(map[string]ServiceInfo),
	}

	checks := map[string]func(context.Context) ServiceInfo{"database": h.checkDatabase}
	if h.redis != nil {
		checks["redis"] = h.checkRedis
	}
	if h.asynq != nil {
		checks["alert_queue"] = h.checkQueues
	}
	if h.ledger != nil {
		checks["ledger"] = h.checkLedger
	}

	for name, check := range checks {
		info := check(ctx)
		health.Services[name] = info
		if info.Status == "unhealthy" {
			health.Status = "degraded"
		}
	}

	statusCode := http.StatusOK
	if health.Status == "degraded" {
		statusCode = http.StatusServiceUnavailable
	}
	h.write(ctx, w, statusCode, health)
}

// Readiness handles the /ready endpoint. The store must answer and carry the
// current schema before traffic is routed here.
func (h *HealthHandler) Readiness(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()

	status := ReadinessStatus{Ready: true, Details: make(map[string]string)}

	if err := h.db.Ping(ctx); err != nil {
		status.Ready = false
		status.Details["database"] = "not ready"
	} else {
		status.Details["database"] = "ready"
	}

	if inspector, ok := h.db.(ports.SchemaInspector); ok {
		state, ready := schemaState(ctx, inspector)
		status.Details["schema"] = state
		if !ready {
			status.Ready = false
		}
	}

	if h.redis != nil {
		if err := h.redis.Ping(ctx).Err(); err != nil {
			status.Ready = false
			status.Details["redis"] = "not ready"
		} else {
			status.Details["redis"] = "ready"
		}
	}

	statusCode := http.StatusOK
	if !status.Ready {
		statusCode = http.StatusServiceUnavailable
	}
	h.write(ctx, w, statusCode, status)
}

func schemaState(ctx context.Context, inspector ports.SchemaInspector) (string, bool) {
	version, dirty, err := inspector.SchemaVersion(ctx)
	switch {
	case err != nil:
		return "unreadable", false
	case dirty:
		return "dirty at version " + strconv.FormatUint(uint64(version), 10), false
	case version < ports.CurrentSchemaVersion:
		return "migrations pending", false
	default:
		return "ready", true
	}
}

func (h *HealthHandler) write(ctx context.Context, w http.ResponseWriter, statusCode int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Cache-Control", "no-cache, no-store, must-revalidate")
	w.WriteHeader(statusCode)

	if err := json.NewEncoder(w).Encode(body); err != nil {
		h.logger.ErrorContext(ctx, "failed to encode health response",
			slog.String("error", err.Error()))
	}
}

func (h *HealthHandler) checkDatabase(ctx context.Context) ServiceInfo {
	start := time.Now()
	info := ServiceInfo{
		Status:  "healthy",
		Details: make(map[string]interface{}),
	}

	if err := h.db.Ping(ctx); err != nil {
		info.Status = "unhealthy"
		info.Message = err.Error()
		h.logger.ErrorContext(ctx, "database health check failed",
			slog.String("error", err.Error()))
		return info
	}

	for k, v := range h.db.Health(ctx) {
		info.Details[k] = v
	}

	if inspector, ok := h.db.(ports.SchemaInspector); ok {
		if version, dirty, err := inspector.SchemaVersion(ctx); err == nil {
			info.Details["schema_version"] = version
			info.Details["schema_dirty"] = dirty
		}
	}

	info.ResponseTime = time.Since(start).String()
	return info
}

// checkRedis also reports how many recent alerts the capped list holds
func (h *HealthHandler) checkRedis(ctx context.Context) ServiceInfo {
	start := time.Now()
	info := ServiceInfo{
		Status:  "healthy",
		Details: make(map[string]interface{}),
	}

	if err := h.redis.Ping(ctx).Err(); err != nil {
		info.Status = "unhealthy"
		info.Message = err.Error()
		h.logger.ErrorContext(ctx, "redis health check failed",
			slog.String("error", err.Error()))
		return info
	}

	if n, err := h.redis.LLen(ctx, ports.RecentAlertsKey).Result(); err == nil {
		info.Details["recent_alerts"] = n
	}

	info.ResponseTime = time.Since(start).String()
	return info
}

// checkQueues reports the backlog of alert and scan tasks
func (h *HealthHandler) checkQueues(ctx context.Context) ServiceInfo {
	start := time.Now()
	info := ServiceInfo{
		Status:  "healthy",
		Details: make(map[string]interface{}),
	}

	queues, err := h.asynq.Queues()
	if err != nil {
		info.Status = "unhealthy"
		info.Message = err.Error()
		h.logger.ErrorContext(ctx, "alert queue health check failed",
			slog.String("error", err.Error()))
		return info
	}

	for _, queue := range queues {
		qInfo, err := h.asynq.GetQueueInfo(queue)
		if err != nil {
			continue
		}
		info.Details[queue] = map[string]interface{}{
			"pending":  qInfo.Pending,
			"active":   qInfo.Active,
			"retry":    qInfo.Retry,
			"archived": qInfo.Archived,
		}
	}

	info.ResponseTime = time.Since(start).String()
	return info
}

// checkLedger replays every ledger; drifting items are listed, capped
func (h *HealthHandler) checkLedger(ctx context.Context) ServiceInfo {
	start := time.Now()
	info := ServiceInfo{
		Status:  "healthy",
		Details: make(map[string]interface{}),
	}

	problems, err := h.ledger.VerifyLedger(ctx)
	if err != nil {
		info.Status = "unhealthy"
		info.Message = err.Error()
		h.logger.ErrorContext(ctx, "ledger verification failed",
			slog.String("error", err.Error()))
		return info
	}

	info.Details["inconsistent_items"] = len(problems)
	if len(problems) > 0 {
		info.Status = "inconsistent"
		ids := make([]string, 0, len(problems))
		for id := range problems {
			ids = append(ids, id)
		}
		sort.Strings(ids)
		if len(ids) > maxReportedLedgerItems {
			ids = ids[:maxReportedLedgerItems]
		}
		info.Details["items"] = ids
	}

	info.ResponseTime = time.Since(start).String()
	return info
}
