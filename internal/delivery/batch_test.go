package delivery

import (
	"context"
	"errors"
	"testing"
	"time"
	_ "time/tzdata"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"daily-tips/internal/models"
	"daily-tips/internal/selector"
	"daily-tips/internal/test"
)

func madrid(t *testing.T) *time.Location {
	t.Helper()
	loc, err := time.LoadLocation("Europe/Madrid")
	require.NoError(t, err)
	return loc
}

func TestBatch_OnePerTopicAndRerunSafe(t *testing.T) {
	store := test.NewMemStore()
	loc := madrid(t)
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

	manga := store.AddTopic("Manga", "manga")
	futbol := store.AddTopic("Futbol", "futbol")
	var mangaPool []models.Tip
	for i := 0; i < 5; i++ {
		mangaPool = append(mangaPool, store.AddTip(manga.ID, "m", base.Add(time.Duration(i)*time.Hour)))
	}
	store.AddTip(futbol.ID, "f", base)
	store.AddSubscription(7, manga.ID)
	store.AddSubscription(7, futbol.ID)
	store.AddSubscription(8, manga.ID)

	b := NewBatch(store, loc, 9, test.NoopLogger())
	day := time.Date(2025, 1, 15, 0, 0, 0, 0, loc)

	created, err := b.RunForAllUsers(context.Background(), day)
	require.NoError(t, err)
	assert.Equal(t, 3, created)

	wantTip := mangaPool[selector.RotationIndex(day, 7, manga.ID, len(mangaPool))].ID
	var found bool
	for _, d := range store.Deliveries() {
		assert.Equal(t, time.Date(2025, 1, 15, 9, 0, 0, 0, loc), d.DeliveredAt)
		assert.Equal(t, models.ChannelApp, d.Channel)
		if d.UserID == 7 && d.TipID == wantTip {
			found = true
		}
	}
	assert.True(t, found)

	created, err = b.RunForAllUsers(context.Background(), day)
	require.NoError(t, err)
	assert.Equal(t, 0, created)
	assert.Len(t, store.Deliveries(), 3)
}

func TestBatch_AbortsWithDate(t *testing.T) {
	store := test.NewMemStore()
	topic := store.AddTopic("Go", "go")
	store.AddTip(topic.ID, "g", time.Now())
	store.AddSubscription(7, topic.ID)
	store.InsertErr = func(models.Delivery) error { return errors.New("disk full") }

	b := NewBatch(store, time.UTC, 9, test.NoopLogger())
	_, err := b.RunForAllUsers(context.Background(), time.Date(2025, 3, 2, 0, 0, 0, 0, time.UTC))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "2025-03-02")
}

func TestBatch_NoSubscribers(t *testing.T) {
	b := NewBatch(test.NewMemStore(), nil, 9, test.NoopLogger())
	created, err := b.RunForAllUsers(context.Background(), time.Now())
	require.NoError(t, err)
	assert.Equal(t, 0, created)
}
