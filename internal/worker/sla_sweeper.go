package worker

import (
	"context"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

// Sweeper is the subset of the ticket service the SLA job needs.
type Sweeper interface {
	SweepOverdue(ctx context.Context) (int, error)
}

// SLASweeper periodically flags overdue tickets.
type SLASweeper struct {
	cron    *cron.Cron
	sweeper Sweeper
	logger  *zap.Logger
}

// NewSLASweeper schedules sweeper on schedule, a standard five field cron expression or a
// descriptor such as "@every 5m". An empty schedule returns nil: the sweep is disabled.
func NewSLASweeper(schedule string, sweeper Sweeper, logger *zap.Logger) (*SLASweeper, error) {
	if schedule == "" {
		return nil, nil
	}
	s := &SLASweeper{
		cron:    cron.New(cron.WithChain(cron.SkipIfStillRunning(cron.DiscardLogger))),
		sweeper: sweeper,
		logger:  logger,
	}
	if _, err := s.cron.AddFunc(schedule, s.RunOnce); err != nil {
		return nil, err
	}
	return s, nil
}

// RunOnce performs a single sweep.
func (s *SLASweeper) RunOnce() {
	flagged, err := s.sweeper.SweepOverdue(context.Background())
	if err != nil {
		s.logger.Error("sla sweep failed", zap.Error(err))
		return
	}
	if flagged > 0 {
		s.logger.Info("sla sweep flagged tickets", zap.Int("count", flagged))
	}
}

// Start begins the schedule in the background.
func (s *SLASweeper) Start() {
	if s == nil {
		return
	}
	s.cron.Start()
	s.logger.Info("sla sweeper started")
}

// Stop halts the schedule and waits for a running sweep to finish.
func (s *SLASweeper) Stop() {
	if s == nil {
		return
	}
	<-s.cron.Stop().Done()
}
