package selector

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestRotationIndex_ReferenceValues(t *testing.T) {
	tests := []struct {
		day      time.Time
		userID   int64
		topicID  int64
		poolSize int
		want     int
	}{
		{date(2025, 1, 15), 7, 3, 5, 4},
		{date(2025, 1, 16), 7, 3, 5, 0},
		{date(2025, 1, 15), 8, 3, 5, 1},
		{date(2025, 1, 15), 7, 4, 5, 0},
		{date(2024, 2, 29), 1, 1, 7, 3},
		{date(2025, 10, 15), 42, 9, 13, 8},
		{date(2025, 1, 15), 7, 3, 1, 0},
		{date(2025, 1, 15), 7, 3, 0, 0},
	}
	for _, tt := range tests {
		got := RotationIndex(tt.day, tt.userID, tt.topicID, tt.poolSize)
		assert.Equal(t, tt.want, got, "%s user=%d topic=%d pool=%d", tt.day.Format("2006-01-02"), tt.userID, tt.topicID, tt.poolSize)
	}
}

func TestRotationIndex_IgnoresTimeOfDay(t *testing.T) {
	morning := time.Date(2025, 1, 15, 0, 1, 0, 0, time.UTC)
	night := time.Date(2025, 1, 15, 23, 59, 0, 0, time.UTC)
	assert.Equal(t, RotationIndex(morning, 7, 3, 5), RotationIndex(night, 7, 3, 5))
}

func TestRotationIndex_InRange(t *testing.T) {
	day := date(2025, 3, 1)
	for pool := 1; pool <= 50; pool++ {
		for user := int64(1); user <= 20; user++ {
			idx := RotationIndex(day, user, user*3, pool)
			assert.GreaterOrEqual(t, idx, 0)
			assert.Less(t, idx, pool)
		}
	}
}

func TestRotationIndex_LargeIDs(t *testing.T) {
	idx := RotationIndex(date(2025, 1, 15), 1<<62, 1<<62, 97)
	assert.GreaterOrEqual(t, idx, 0)
	assert.Less(t, idx, 97)
}
