package league

import (
	"time"

	"github.com/google/uuid"
)

type Round struct {
	ID            uuid.UUID `db:"id"`
	CompetitionID uuid.UUID `db:"competition_id"`
	RoundNumber   int       `db:"round_number"`
	LockAt        time.Time `db:"lock_at"`
	CreatedAt     time.Time `db:"created_at"`
}

// IsLocked is always computed from the lock timestamp. A stored locked
// flag would drift whenever an organiser edits lock_at.
func (r *Round) IsLocked(now time.Time) bool {
	return !now.Before(r.LockAt)
}
