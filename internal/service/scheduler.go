package service

import (
	"context"
	"log"
	"time"

	"github.com/go-co-op/gocron/v2"
)

// StartResolveScheduler runs the background sweep that resolves locked
// rounds as results come in, so standings update even when the organiser
// forgets to hit resolve. Safe alongside manual resolves because the
// resolve path is idempotent.
func (s *RoundService) StartResolveScheduler() (gocron.Scheduler, error) {
	sched, err := gocron.NewScheduler(gocron.WithClock(s.clock))
	if err != nil {
		return nil, err
	}

	_, err = sched.NewJob(
		gocron.DurationJob(1*time.Minute),
		gocron.NewTask(func() {
			if err := s.ResolveDueRounds(context.Background()); err != nil {
				log.Printf("[Scheduler] resolve sweep error: %v", err)
			}
		}),
	)
	if err != nil {
		return nil, err
	}

	sched.Start()
	return sched, nil
}
