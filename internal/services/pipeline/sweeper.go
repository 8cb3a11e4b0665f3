package pipeline

import (
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/ternarybob/arbor"

	"github.com/spectrumcare/caredoc/internal/common"
)

// Sweeper periodically evicts terminal jobs older than the retention window.
// The tracker itself never evicts; bounded memory is this component's job.
type Sweeper struct {
	cron      *cron.Cron
	tracker   *JobTracker
	retention time.Duration
	logger    arbor.ILogger
}

// NewSweeper creates a sweeper bound to the tracker, scheduled by the
// configured cron expression.
func NewSweeper(tracker *JobTracker, config *common.PipelineConfig, logger arbor.ILogger) (*Sweeper, error) {
	sweeper := &Sweeper{
		cron:      cron.New(),
		tracker:   tracker,
		retention: config.JobRetentionDuration(),
		logger:    logger,
	}

	if _, err := sweeper.cron.AddFunc(config.SweepSchedule, sweeper.sweep); err != nil {
		return nil, fmt.Errorf("invalid sweep schedule '%s': %w", config.SweepSchedule, err)
	}

	return sweeper, nil
}

// Start begins the sweep schedule in its own goroutine.
func (s *Sweeper) Start() {
	s.cron.Start()
	s.logger.Info().
		Dur("retention", s.retention).
		Msg("Job retention sweeper started")
}

// Stop halts the schedule and waits for a running sweep to finish.
func (s *Sweeper) Stop() {
	ctx := s.cron.Stop()
	<-ctx.Done()
	s.logger.Info().Msg("Job retention sweeper stopped")
}

func (s *Sweeper) sweep() {
	removed := s.tracker.Sweep(s.retention)
	if removed > 0 {
		s.logger.Info().
			Int("removed", removed).
			Dur("retention", s.retention).
			Msg("Swept expired jobs")
	}
}
