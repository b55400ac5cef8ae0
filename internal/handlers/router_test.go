// internal/handlers/router_test.go
package handlers_test

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/stretchr/testify/assert"
	"go.uber.org/mock/gomock"

	"github.com/pank1717/Stocks-sub000/internal/core/domain"
	"github.com/pank1717/Stocks-sub000/internal/core/ports"
	"github.com/pank1717/Stocks-sub000/internal/handlers"
	"github.com/pank1717/Stocks-sub000/internal/handlers/middleware"
	"github.com/pank1717/Stocks-sub000/internal/pkg/metrics"
	"github.com/pank1717/Stocks-sub000/test/helpers"
	"github.com/pank1717/Stocks-sub000/test/mocks"
)

func newTestRouter(t *testing.T, role domain.Role) http.Handler {
	ctrl := gomock.NewController(t)
	service := mocks.NewMockInventoryService(ctrl)
	reports := mocks.NewMockReportingService(ctrl)
	logger := helpers.TestLogger()

	item := helpers.CreateTestItem(func(i *domain.Item) { i.ID = "mon-1" })
	service.EXPECT().ListItems(gomock.Any(), gomock.Any()).Return([]*domain.Item{item}, nil).AnyTimes()
	service.EXPECT().GetItem(gomock.Any(), gomock.Any()).Return(&ports.ItemDetail{Item: item}, nil).AnyTimes()
	service.EXPECT().CreateItem(gomock.Any(), gomock.Any(), gomock.Any()).Return(nil).AnyTimes()
	service.EXPECT().UpdateItem(gomock.Any(), gomock.Any(), gomock.Any()).Return(item, nil).AnyTimes()
	service.EXPECT().DeleteItem(gomock.Any(), gomock.Any()).Return(nil).AnyTimes()
	service.EXPECT().AdjustStock(gomock.Any(), gomock.Any()).
		Return(&domain.AdjustmentResult{PreviousQuantity: 10, NewQuantity: 11}, nil).AnyTimes()
	reports.EXPECT().History(gomock.Any(), gomock.Any(), gomock.Any()).Return([]domain.MovementEntry{}, nil).AnyTimes()
	reports.EXPECT().Statistics(gomock.Any()).Return(&domain.Statistics{}, nil).AnyTimes()
	reports.EXPECT().Alerts(gomock.Any()).Return([]*domain.Item{}, nil).AnyTimes()
	reports.EXPECT().Loans(gomock.Any(), gomock.Any()).Return([]domain.BorrowerLoans{}, nil).AnyTimes()

	reg := prometheus.NewRegistry()

	return handlers.NewRouter(handlers.RouterConfig{
		Inventory: handlers.NewInventoryHandler(service, reports, domain.DefaultAlertThreshold, logger),
		Reports:   handlers.NewReportsHandler(reports, nil, logger),
		Authenticator: middleware.NewStaticAuthenticator(domain.Principal{
			Subject: "local",
			Email:   string(role) + "@example.com",
			Role:    role,
		}),
		Metrics:        metrics.New(reg),
		MetricsHandler: promhttp.HandlerFor(reg, promhttp.HandlerOpts{}),
		AllowedOrigins: []string{"https://stock.example.com"},
		SecureHeaders:  true,
		RequestTimeout: 5 * time.Second,
		Logger:         logger,
	})
}

func TestRouter_Capabilities(t *testing.T) {
	type call struct {
		method string
		path   string
		body   string
	}
	var (
		list    = call{"GET", "/api/items", ""}
		create  = call{"POST", "/api/items", `{"name":"Monitor","category":"ecrans"}`}
		update  = call{"PUT", "/api/items/mon-1", `{"location":"B"}`}
		remove  = call{"DELETE", "/api/items/mon-1", ""}
		adjust  = call{"POST", "/api/items/mon-1/adjust", `{"type":"add","quantity":1}`}
		history = call{"GET", "/api/items/mon-1/history", ""}
		stats   = call{"GET", "/api/statistics", ""}
		loans   = call{"GET", "/api/loans", ""}
	)

	tests := []struct {
		name           string
		role           domain.Role
		call           call
		expectedStatus int
	}{
		{"viewer_lists", domain.RoleViewer, list, http.StatusOK},
		{"viewer_reads_history", domain.RoleViewer, history, http.StatusOK},
		{"viewer_reads_statistics", domain.RoleViewer, stats, http.StatusOK},
		{"viewer_cannot_adjust", domain.RoleViewer, adjust, http.StatusForbidden},
		{"viewer_cannot_see_loans", domain.RoleViewer, loans, http.StatusForbidden},
		{"technician_adjusts", domain.RoleTechnician, adjust, http.StatusOK},
		{"technician_sees_loans", domain.RoleTechnician, loans, http.StatusOK},
		{"technician_cannot_create", domain.RoleTechnician, create, http.StatusForbidden},
		{"manager_creates", domain.RoleManager, create, http.StatusCreated},
		{"manager_updates", domain.RoleManager, update, http.StatusOK},
		{"manager_cannot_delete", domain.RoleManager, remove, http.StatusForbidden},
		{"admin_deletes", domain.RoleAdmin, remove, http.StatusOK},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			router := newTestRouter(t, tt.role)

			req := httptest.NewRequest(tt.call.method, tt.call.path, strings.NewReader(tt.call.body))
			w := httptest.NewRecorder()

			router.ServeHTTP(w, req)

			assert.Equal(t, tt.expectedStatus, w.Code, w.Body.String())
		})
	}
}

func TestRouter_Ambient(t *testing.T) {
	router := newTestRouter(t, domain.RoleViewer)

	t.Run("headers_on_api_responses", func(t *testing.T) {
		req := httptest.NewRequest("GET", "/api/items", nil)
		req.Header.Set("Origin", "https://stock.example.com")
		w := httptest.NewRecorder()

		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusOK, w.Code)
		assert.NotEmpty(t, w.Header().Get("X-Request-ID"))
		assert.Equal(t, "nosniff", w.Header().Get("X-Content-Type-Options"))
		assert.Equal(t, "https://stock.example.com", w.Header().Get("Access-Control-Allow-Origin"))
	})

	t.Run("unknown_route", func(t *testing.T) {
		w := httptest.NewRecorder()
		router.ServeHTTP(w, httptest.NewRequest("GET", "/api/nothing", nil))
		assert.Equal(t, http.StatusNotFound, w.Code)
	})

	t.Run("method_not_allowed", func(t *testing.T) {
		w := httptest.NewRecorder()
		router.ServeHTTP(w, httptest.NewRequest("PATCH", "/api/items/mon-1", nil))
		assert.Equal(t, http.StatusMethodNotAllowed, w.Code)
	})

	t.Run("metrics_exposed", func(t *testing.T) {
		w := httptest.NewRecorder()
		router.ServeHTTP(w, httptest.NewRequest("GET", "/api/items", nil))

		w = httptest.NewRecorder()
		router.ServeHTTP(w, httptest.NewRequest("GET", "/metrics", nil))

		assert.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Body.String(), `path="GET /api/items"`)
	})
}
