package league

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestRoundIsLocked(t *testing.T) {
	lockAt := time.Date(2026, 3, 7, 15, 0, 0, 0, time.UTC)
	round := &Round{LockAt: lockAt}

	assert.False(t, round.IsLocked(lockAt.Add(-time.Minute)))
	assert.True(t, round.IsLocked(lockAt), "round locks exactly at the lock timestamp")
	assert.True(t, round.IsLocked(lockAt.Add(time.Minute)))
}

func TestRoundIsLockedTracksEditedTimestamp(t *testing.T) {
	lockAt := time.Date(2026, 3, 7, 15, 0, 0, 0, time.UTC)
	now := lockAt.Add(30 * time.Minute)

	round := &Round{LockAt: lockAt}
	assert.True(t, round.IsLocked(now))

	// There is no cached flag to go stale: moving the timestamp is enough.
	round.LockAt = now.Add(time.Hour)
	assert.False(t, round.IsLocked(now))
}
