package search

import (
	"context"
	"time"

	"go.uber.org/zap"
)

// maintenanceHourUTC is when the daily index refresh runs. Early
// morning UTC keeps the rebuild away from peak query traffic.
const defaultMaintenanceHourUTC = 4

// Scheduler triggers the daily index refresh. Runs are sequential on
// one goroutine, so a slow rebuild can never overlap the next one.
type Scheduler struct {
	svc     *Service
	hourUTC int
	logger  *zap.Logger
}

// NewScheduler creates a daily scheduler firing at the given UTC hour.
// Out-of-range hours fall back to the default.
func NewScheduler(svc *Service, hourUTC int, logger *zap.Logger) *Scheduler {
	if hourUTC < 0 || hourUTC > 23 {
		hourUTC = defaultMaintenanceHourUTC
	}
	return &Scheduler{svc: svc, hourUTC: hourUTC, logger: logger}
}

// Run blocks until ctx is cancelled, firing MaintainIndex once per day.
func (s *Scheduler) Run(ctx context.Context) {
	for {
		next := nextRun(time.Now().UTC(), s.hourUTC)
		s.logger.Info("next scheduled index refresh", zap.Time("at", next))

		timer := time.NewTimer(time.Until(next))
		select {
		case <-ctx.Done():
			timer.Stop()
			return
		case <-timer.C:
			s.svc.MaintainIndex(ctx)
		}
	}
}

// nextRun returns the next occurrence of hourUTC:00 strictly after now.
func nextRun(now time.Time, hourUTC int) time.Time {
	next := time.Date(now.Year(), now.Month(), now.Day(), hourUTC, 0, 0, 0, time.UTC)
	if !next.After(now) {
		next = next.AddDate(0, 0, 1)
	}
	return next
}
