// internal/workers/alert_processor_test.go
package workers_test

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/hibiken/asynq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	redis_a "github.com/pank1717/Stocks-sub000/internal/adapters/redis_adapter"
	"github.com/pank1717/Stocks-sub000/internal/core/domain"
	"github.com/pank1717/Stocks-sub000/internal/core/ports"
	"github.com/pank1717/Stocks-sub000/internal/workers"
	"github.com/pank1717/Stocks-sub000/test/helpers"
	"github.com/pank1717/Stocks-sub000/test/mocks"
)

func TestAlertProcessor_ProcessLowStockAlert(t *testing.T) {
	tests := []struct {
		name          string
		payload       []byte
		setupMocks    func(*mocks.MockItemRepository)
		expectedError bool
		skipRetry     bool
		expectedAlert *domain.StockAlert
	}{
		{
			name:    "records_low_stock_alert",
			payload: []byte(`{"item_id":"mon-1"}`),
			setupMocks: func(m *mocks.MockItemRepository) {
				m.EXPECT().FindByID(gomock.Any(), "mon-1").Return(helpers.CreateTestItem(func(i *domain.Item) {
					i.ID = "mon-1"
					i.Name = "Monitor"
					i.Quantity = 2
					i.AlertThreshold = 3
				}), nil)
			},
			expectedAlert: &domain.StockAlert{
				ItemID:         "mon-1",
				ItemName:       "Monitor",
				Quantity:       2,
				AlertThreshold: 3,
				Status:         domain.StatusLowStock,
			},
		},
		{
			name:    "records_out_of_stock_alert",
			payload: []byte(`{"item_id":"mon-1"}`),
			setupMocks: func(m *mocks.MockItemRepository) {
				m.EXPECT().FindByID(gomock.Any(), "mon-1").Return(helpers.CreateTestItem(func(i *domain.Item) {
					i.ID = "mon-1"
					i.Name = "Monitor"
					i.Quantity = 0
					i.AlertThreshold = 3
				}), nil)
			},
			expectedAlert: &domain.StockAlert{
				ItemID:         "mon-1",
				ItemName:       "Monitor",
				Quantity:       0,
				AlertThreshold: 3,
				Status:         domain.StatusOutOfStock,
			},
		},
		{
			name:    "replenished_item_is_dropped",
			payload: []byte(`{"item_id":"mon-1"}`),
			setupMocks: func(m *mocks.MockItemRepository) {
				m.EXPECT().FindByID(gomock.Any(), "mon-1").Return(helpers.CreateTestItem(func(i *domain.Item) {
					i.Quantity = 40
				}), nil)
			},
		},
		{
			name:    "deleted_item_is_dropped",
			payload: []byte(`{"item_id":"gone"}`),
			setupMocks: func(m *mocks.MockItemRepository) {
				m.EXPECT().FindByID(gomock.Any(), "gone").Return(nil, domain.NewItemNotFound("gone"))
			},
		},
		{
			name:    "storage_failure_is_retried",
			payload: []byte(`{"item_id":"mon-1"}`),
			setupMocks: func(m *mocks.MockItemRepository) {
				m.EXPECT().FindByID(gomock.Any(), "mon-1").
					Return(nil, domain.NewPersistenceError("find item", errors.New("database is locked")))
			},
			expectedError: true,
		},
		{
			name:          "malformed_payload_is_not_retried",
			payload:       []byte(`not json`),
			setupMocks:    func(m *mocks.MockItemRepository) {},
			expectedError: true,
			skipRetry:     true,
		},
		{
			name:          "missing_item_id_is_not_retried",
			payload:       []byte(`{}`),
			setupMocks:    func(m *mocks.MockItemRepository) {},
			expectedError: true,
			skipRetry:     true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx := context.Background()
			ctrl := gomock.NewController(t)
			items := mocks.NewMockItemRepository(ctrl)
			tt.setupMocks(items)

			r := helpers.SetupTestRedis(t)
			cache := redis_a.NewCache(r.Client, helpers.TestLogger())
			processor := workers.NewAlertProcessor(items, cache, 100, helpers.TestLogger())

			err := processor.ProcessLowStockAlert(ctx, asynq.NewTask(workers.TypeLowStockAlert, tt.payload))

			if tt.expectedError {
				require.Error(t, err)
				assert.Equal(t, tt.skipRetry, errors.Is(err, asynq.SkipRetry))
				return
			}
			require.NoError(t, err)

			recorded, err := cache.ListRange(ctx, ports.RecentAlertsKey, 0)
			require.NoError(t, err)

			if tt.expectedAlert == nil {
				assert.Empty(t, recorded)
				return
			}

			require.Len(t, recorded, 1)
			var alert domain.StockAlert
			require.NoError(t, json.Unmarshal([]byte(recorded[0]), &alert))
			assert.False(t, alert.RaisedAt.IsZero())
			alert.RaisedAt = tt.expectedAlert.RaisedAt
			assert.Equal(t, *tt.expectedAlert, alert)
		})
	}
}

func TestAlertProcessor_CapsRecentAlerts(t *testing.T) {
	ctx := context.Background()
	ctrl := gomock.NewController(t)
	items := mocks.NewMockItemRepository(ctrl)

	items.EXPECT().FindByID(gomock.Any(), gomock.Any()).
		DoAndReturn(func(ctx context.Context, id string) (*domain.Item, error) {
			return helpers.CreateTestItem(func(i *domain.Item) {
				i.ID = id
				i.Quantity = 1
			}), nil
		}).Times(5)

	r := helpers.SetupTestRedis(t)
	cache := redis_a.NewCache(r.Client, helpers.TestLogger())
	processor := workers.NewAlertProcessor(items, cache, 3, helpers.TestLogger())

	for _, id := range []string{"a", "b", "c", "d", "e"} {
		task, err := workers.NewLowStockAlertTask(id)
		require.NoError(t, err)
		require.NoError(t, processor.ProcessLowStockAlert(ctx, task))
	}

	recorded, err := cache.ListRange(ctx, ports.RecentAlertsKey, 0)
	require.NoError(t, err)
	require.Len(t, recorded, 3)

	var newest domain.StockAlert
	require.NoError(t, json.Unmarshal([]byte(recorded[0]), &newest))
	assert.Equal(t, "e", newest.ItemID)
}
