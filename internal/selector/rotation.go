package selector

import "time"

const (
	userMultiplier  uint64 = 2654435761
	topicMultiplier uint64 = 11400714819323198485
	topicMask       uint64 = 1<<31 - 1
)

// RotationIndex picks the starting position inside a topic's pool for a user
// on a given calendar day. The same inputs always give the same index, and
// consecutive days shift it so users walk through the whole pool.
func RotationIndex(day time.Time, userID, topicID int64, poolSize int) int {
	if poolSize <= 1 {
		return 0
	}
	y, m, d := day.Date()
	date := uint64(y*10000 + int(m)*100 + d)
	seed := date ^ (uint64(userID) * userMultiplier) ^ ((uint64(topicID) * topicMultiplier) & topicMask)
	return int(seed % uint64(poolSize))
}
