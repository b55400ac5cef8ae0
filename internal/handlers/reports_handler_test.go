// internal/handlers/reports_handler_test.go
package handlers_test

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/pank1717/Stocks-sub000/internal/core/domain"
	"github.com/pank1717/Stocks-sub000/internal/core/ports"
	"github.com/pank1717/Stocks-sub000/internal/handlers"
	"github.com/pank1717/Stocks-sub000/test/helpers"
	"github.com/pank1717/Stocks-sub000/test/mocks"
)

func TestReportsHandler_Statistics(t *testing.T) {
	ctrl := gomock.NewController(t)
	reports := mocks.NewMockReportingService(ctrl)
	handler := handlers.NewReportsHandler(reports, nil, helpers.TestLogger())

	reports.EXPECT().Statistics(gomock.Any()).Return(&domain.Statistics{
		TotalItems: 2,
		TotalUnits: 12,
		InStock:    2,
		LowStock:   1,
		TotalValue: decimal.RequireFromString("1065"),
		Categories: map[domain.Category]domain.CategoryStats{
			domain.CategoryMonitors: {Items: 2, Units: 12},
		},
	}, nil)

	w := httptest.NewRecorder()
	handler.Statistics(w, httptest.NewRequest("GET", "/api/statistics", nil))

	require.Equal(t, http.StatusOK, w.Code)
	var response map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
	assert.Equal(t, float64(2), response["totalItems"])
	assert.Equal(t, "1065", response["totalValue"])
	assert.Contains(t, response["categories"], "ecrans")
}

func TestReportsHandler_Alerts(t *testing.T) {
	tests := []struct {
		name           string
		result         []*domain.Item
		err            error
		expectedStatus int
	}{
		{
			name: "returns_alerts",
			result: []*domain.Item{
				helpers.CreateTestItem(func(i *domain.Item) { i.Quantity = 1 }),
			},
			expectedStatus: http.StatusOK,
		},
		{
			name:           "storage_failure",
			err:            domain.NewPersistenceError("list items", errors.New("boom")),
			expectedStatus: http.StatusInternalServerError,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctrl := gomock.NewController(t)
			reports := mocks.NewMockReportingService(ctrl)
			handler := handlers.NewReportsHandler(reports, nil, helpers.TestLogger())

			reports.EXPECT().Alerts(gomock.Any()).Return(tt.result, tt.err)

			w := httptest.NewRecorder()
			handler.Alerts(w, httptest.NewRequest("GET", "/api/alerts", nil))

			assert.Equal(t, tt.expectedStatus, w.Code)
		})
	}
}

func TestReportsHandler_Loans(t *testing.T) {
	ctrl := gomock.NewController(t)
	reports := mocks.NewMockReportingService(ctrl)
	handler := handlers.NewReportsHandler(reports, nil, helpers.TestLogger())

	reports.EXPECT().Loans(gomock.Any(), gomock.Any()).Return([]domain.BorrowerLoans{
		{
			Person:       "Alice",
			TotalUnits:   8,
			OverdueCount: 1,
			Loans:        []domain.Loan{{EntryID: 2, ItemID: "mon-1", ItemName: "Monitor", Quantity: 8, Overdue: true}},
		},
	}, nil)

	w := httptest.NewRecorder()
	handler.Loans(w, httptest.NewRequest("GET", "/api/loans", nil))

	require.Equal(t, http.StatusOK, w.Code)
	var response []domain.BorrowerLoans
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
	require.Len(t, response, 1)
	assert.Equal(t, "Alice", response[0].Person)
	assert.True(t, response[0].Loans[0].Overdue)
}

func TestReportsHandler_RecentAlerts(t *testing.T) {
	raised := time.Date(2025, 3, 7, 9, 0, 0, 0, time.UTC)
	record, err := json.Marshal(domain.StockAlert{
		ItemID:   "mon-1",
		ItemName: "Monitor",
		Quantity: 2,
		Status:   domain.StatusLowStock,
		RaisedAt: raised,
	})
	require.NoError(t, err)

	tests := []struct {
		name           string
		query          string
		setupMocks     func(*mocks.MockCacheRepository)
		expectedStatus int
		expectedCount  int
	}{
		{
			name:  "default_limit",
			query: "",
			setupMocks: func(m *mocks.MockCacheRepository) {
				m.EXPECT().ListRange(gomock.Any(), ports.RecentAlertsKey, int64(20)).
					Return([]string{string(record)}, nil)
			},
			expectedStatus: http.StatusOK,
			expectedCount:  1,
		},
		{
			name:  "limit_is_capped",
			query: "?limit=5000",
			setupMocks: func(m *mocks.MockCacheRepository) {
				m.EXPECT().ListRange(gomock.Any(), ports.RecentAlertsKey, int64(100)).
					Return([]string{}, nil)
			},
			expectedStatus: http.StatusOK,
			expectedCount:  0,
		},
		{
			name:  "malformed_records_are_skipped",
			query: "?limit=2",
			setupMocks: func(m *mocks.MockCacheRepository) {
				m.EXPECT().ListRange(gomock.Any(), ports.RecentAlertsKey, int64(2)).
					Return([]string{"{broken", string(record)}, nil)
			},
			expectedStatus: http.StatusOK,
			expectedCount:  1,
		},
		{
			name:           "invalid_limit",
			query:          "?limit=-3",
			setupMocks:     func(m *mocks.MockCacheRepository) {},
			expectedStatus: http.StatusBadRequest,
		},
		{
			name:  "cache_failure",
			query: "",
			setupMocks: func(m *mocks.MockCacheRepository) {
				m.EXPECT().ListRange(gomock.Any(), gomock.Any(), gomock.Any()).
					Return(nil, errors.New("connection refused"))
			},
			expectedStatus: http.StatusInternalServerError,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctrl := gomock.NewController(t)
			cache := mocks.NewMockCacheRepository(ctrl)
			tt.setupMocks(cache)
			handler := handlers.NewReportsHandler(mocks.NewMockReportingService(ctrl), cache, helpers.TestLogger())

			w := httptest.NewRecorder()
			handler.RecentAlerts(w, httptest.NewRequest("GET", "/api/alerts/recent"+tt.query, nil))

			assert.Equal(t, tt.expectedStatus, w.Code)
			if tt.expectedStatus == http.StatusOK {
				var response []domain.StockAlert
				require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
				assert.Len(t, response, tt.expectedCount)
				if tt.expectedCount > 0 {
					assert.Equal(t, raised, response[0].RaisedAt)
				}
			}
		})
	}

	t.Run("without_cache", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		handler := handlers.NewReportsHandler(mocks.NewMockReportingService(ctrl), nil, helpers.TestLogger())

		w := httptest.NewRecorder()
		handler.RecentAlerts(w, httptest.NewRequest("GET", "/api/alerts/recent", nil))

		assert.Equal(t, http.StatusOK, w.Code)
		assert.JSONEq(t, "[]", w.Body.String())
	})
}
