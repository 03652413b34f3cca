// Package monitoring hosts the background jobs that run beside the request
// path.
package monitoring

import (
	"context"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog/log"

	"github.com/thanakrit-dev/election-be/internal/services"
)

// Snapshotter periodically records a tally snapshot and pushes it to the
// live result feed.
type Snapshotter struct {
	votes    services.VoteServiceProvider
	schedule string
	cron     *cron.Cron
}

// NewSnapshotter creates a new Snapshotter. schedule is a cron spec, e.g.
// "@every 1m".
func NewSnapshotter(votes services.VoteServiceProvider, schedule string) *Snapshotter {
	return &Snapshotter{votes: votes, schedule: schedule, cron: cron.New()}
}

// Run schedules the snapshot job and starts the cron loop.
func (s *Snapshotter) Run() error {
	log.Info().Str("schedule", s.schedule).Msg("Starting tally snapshotter...")
	if _, err := s.cron.AddFunc(s.schedule, s.capture); err != nil {
		return err
	}
	s.cron.Start()
	return nil
}

// Stop halts the cron loop and waits for a running job to finish.
func (s *Snapshotter) Stop() {
	log.Info().Msg("Stopping tally snapshotter.")
	<-s.cron.Stop().Done()
}

func (s *Snapshotter) capture() {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	snapshot, err := s.votes.RecordSnapshot(ctx)
	if err != nil {
		log.Error().Err(err).Msg("Snapshotter: failed to record tally snapshot")
		return
	}
	log.Debug().Int("total_votes", snapshot.Total).Msg("Recorded tally snapshot")
}
