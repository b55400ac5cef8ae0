// internal/workers/notifier_test.go
package workers_test

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/hibiken/asynq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	redis_a "github.com/pank1717/Stocks-sub000/internal/adapters/redis_adapter"
	"github.com/pank1717/Stocks-sub000/internal/core/domain"
	"github.com/pank1717/Stocks-sub000/internal/workers"
	"github.com/pank1717/Stocks-sub000/test/helpers"
	"github.com/pank1717/Stocks-sub000/test/mocks"
)

type fakeEnqueuer struct {
	tasks []*asynq.Task
	err   error
}

func (f *fakeEnqueuer) EnqueueContext(_ context.Context, task *asynq.Task, _ ...asynq.Option) (*asynq.TaskInfo, error) {
	if f.err != nil {
		return nil, f.err
	}
	f.tasks = append(f.tasks, task)
	return &asynq.TaskInfo{ID: "task-1", Queue: "default", Type: task.Type()}, nil
}

func TestAlertNotifier_NotifyLowStock(t *testing.T) {
	ctx := context.Background()
	r := helpers.SetupTestRedis(t)
	cache := redis_a.NewCache(r.Client, helpers.TestLogger())
	client := &fakeEnqueuer{}
	notifier := workers.NewAlertNotifier(client, cache, time.Hour, helpers.TestLogger())

	monitor := helpers.CreateTestItem(func(i *domain.Item) { i.ID = "mon-1"; i.Quantity = 2 })
	laptop := helpers.CreateTestItem(func(i *domain.Item) { i.ID = "lap-1"; i.Quantity = 0 })

	require.NoError(t, notifier.NotifyLowStock(ctx, monitor))
	require.NoError(t, notifier.NotifyLowStock(ctx, monitor), "second alert inside the window is absorbed")
	require.NoError(t, notifier.NotifyLowStock(ctx, laptop))

	require.Len(t, client.tasks, 2)
	assert.Equal(t, workers.TypeLowStockAlert, client.tasks[0].Type())

	var payload workers.LowStockAlertPayload
	require.NoError(t, json.Unmarshal(client.tasks[0].Payload(), &payload))
	assert.Equal(t, "mon-1", payload.ItemID)

	r.Server.FastForward(2 * time.Hour)
	require.NoError(t, notifier.NotifyLowStock(ctx, monitor))
	assert.Len(t, client.tasks, 3, "window elapsed")
}

func TestAlertNotifier_Failures(t *testing.T) {
	ctx := context.Background()
	item := helpers.CreateTestItem()

	t.Run("enqueue_failure", func(t *testing.T) {
		r := helpers.SetupTestRedis(t)
		cache := redis_a.NewCache(r.Client, helpers.TestLogger())
		notifier := workers.NewAlertNotifier(&fakeEnqueuer{err: errors.New("redis down")}, cache, time.Hour, helpers.TestLogger())

		assert.Error(t, notifier.NotifyLowStock(ctx, item))
		assert.False(t, r.Server.Exists("alert:dedup:"+item.ID))

		healthy := &fakeEnqueuer{}
		retry := workers.NewAlertNotifier(healthy, cache, time.Hour, helpers.TestLogger())
		require.NoError(t, retry.NotifyLowStock(ctx, item))
		assert.Len(t, healthy.tasks, 1)
	})

	t.Run("enqueue_failure_release_error_still_reported", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		cache := mocks.NewMockCacheRepository(ctrl)
		key := "alert:dedup:" + item.ID
		gomock.InOrder(
			cache.EXPECT().SetNX(gomock.Any(), key, gomock.Any(), time.Hour).Return(true, nil),
			cache.EXPECT().Delete(gomock.Any(), key).Return(errors.New("connection refused")),
		)
		notifier := workers.NewAlertNotifier(&fakeEnqueuer{err: errors.New("redis down")}, cache, time.Hour, helpers.TestLogger())

		err := notifier.NotifyLowStock(ctx, item)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "failed to enqueue low stock alert")
	})

	t.Run("dedup_failure", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		cache := mocks.NewMockCacheRepository(ctrl)
		cache.EXPECT().SetNX(gomock.Any(), "alert:dedup:"+item.ID, gomock.Any(), time.Hour).
			Return(false, errors.New("connection refused"))
		client := &fakeEnqueuer{}
		notifier := workers.NewAlertNotifier(client, cache, time.Hour, helpers.TestLogger())

		assert.Error(t, notifier.NotifyLowStock(ctx, item))
		assert.Empty(t, client.tasks)
	})

	t.Run("no_window_always_enqueues", func(t *testing.T) {
		client := &fakeEnqueuer{}
		notifier := workers.NewAlertNotifier(client, nil, 0, helpers.TestLogger())

		require.NoError(t, notifier.NotifyLowStock(ctx, item))
		require.NoError(t, notifier.NotifyLowStock(ctx, item))
		assert.Len(t, client.tasks, 2)
	})
}
