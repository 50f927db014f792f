//go:build integration

package db_test

import (
	"context"
	"fmt"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	tc "github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"

	"daily-tips/internal/db"
	"daily-tips/internal/models"
)

var dsn string

func TestMain(m *testing.M) {
	ctx := context.Background()
	container, err := tc.GenericContainer(ctx, tc.GenericContainerRequest{
		ContainerRequest: tc.ContainerRequest{
			Image:        "postgres:15-alpine",
			ExposedPorts: []string{"5432/tcp"},
			Env: map[string]string{
				"POSTGRES_USER":     "postgres",
				"POSTGRES_PASSWORD": "password",
				"POSTGRES_DB":       "tips_test",
			},
			WaitingFor: wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(2 * time.Minute),
		},
		Started: true,
	})
	if err != nil {
		panic(err)
	}
	host, err := container.Host(ctx)
	if err != nil {
		panic(err)
	}
	port, err := container.MappedPort(ctx, "5432")
	if err != nil {
		panic(err)
	}
	dsn = fmt.Sprintf("postgres://postgres:password@%s:%s/tips_test?sslmode=disable", host, port.Port())

	code := m.Run()
	_ = container.Terminate(ctx)
	os.Exit(code)
}

func TestStore_DeliveryLifecycle(t *testing.T) {
	ctx := context.Background()
	store, err := db.Connect(ctx, dsn)
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })

	user, err := store.UpsertUser(ctx, 1001, "alice")
	require.NoError(t, err)
	again, err := store.UpsertUser(ctx, 1001, "alice2")
	require.NoError(t, err)
	assert.Equal(t, user.ID, again.ID)
	assert.Equal(t, user.RSSUUID, again.RSSUUID)

	topic, err := store.UpsertTopic(ctx, "Manga", "manga")
	require.NoError(t, err)

	for i := 0; i < 3; i++ {
		tip := &models.Tip{TopicID: topic.ID, Title: fmt.Sprintf("tip %d", i), Body: "read more"}
		require.NoError(t, store.CreateTip(ctx, tip))
	}
	err = store.CreateTip(ctx, &models.Tip{TopicID: topic.ID, Title: "TIP 0 ", Body: " read more"})
	assert.ErrorIs(t, err, models.ErrDuplicate)

	_, err = store.Subscribe(ctx, user.ID, topic.ID)
	require.NoError(t, err)
	_, err = store.Subscribe(ctx, user.ID, topic.ID)
	assert.ErrorIs(t, err, models.ErrDuplicate)

	pool, err := store.TipsByTopic(ctx, topic.ID)
	require.NoError(t, err)
	require.Len(t, pool, 3)

	// Concurrent inserts of the same pair: exactly one wins.
	var wg sync.WaitGroup
	results := make([]error, 8)
	for i := range results {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i] = store.InsertDelivery(ctx, &models.Delivery{
				TipID: pool[0].ID, UserID: user.ID, DeliveredAt: time.Now(),
				Channel: models.ChannelApp, Status: models.StatusSent,
			})
		}(i)
	}
	wg.Wait()
	created := 0
	for _, err := range results {
		if err == nil {
			created++
		} else {
			assert.ErrorIs(t, err, models.ErrDuplicate)
		}
	}
	assert.Equal(t, 1, created)

	undelivered, err := store.UndeliveredTips(ctx, user.ID, topic.ID, models.OrderLatest, 5)
	require.NoError(t, err)
	assert.Len(t, undelivered, 2)

	remaining, err := store.CountUndelivered(ctx, user.ID)
	require.NoError(t, err)
	require.Len(t, remaining, 1)
	assert.Equal(t, 2, remaining[0].Remaining)

	items, total, err := store.DeliveryHistory(ctx, models.HistoryQuery{UserID: user.ID, Limit: 10})
	require.NoError(t, err)
	assert.Equal(t, 1, total)
	require.Len(t, items, 1)
	assert.Equal(t, "manga", items[0].Topic.Slug)

	require.NoError(t, store.UpdateDeliveryStatus(ctx, items[0].DeliveryID, models.StatusRead))
	item, err := store.DeliveryItem(ctx, items[0].DeliveryID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusRead, item.Status)

	require.NoError(t, store.Unsubscribe(ctx, user.ID, topic.ID))
	topics, err := store.SubscribedTopics(ctx, user.ID)
	require.NoError(t, err)
	assert.Empty(t, topics)
}
