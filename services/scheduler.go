// services/scheduler.go
package services

import (
	"context"
	"fmt"
	"time"

	"github.com/go-co-op/gocron/v2"
	"go.uber.org/zap"
)

// StartExportScheduler uploads a snapshot every interval until the scheduler is shut down.
func (e *SnapshotExporter) StartExportScheduler(ctx context.Context, interval time.Duration) (gocron.Scheduler, error) {
	sched, err := gocron.NewScheduler(gocron.WithClock(e.Clock))
	if err != nil {
		return nil, fmt.Errorf("create scheduler: %w", err)
	}

	_, err = sched.NewJob(
		gocron.DurationJob(interval),
		gocron.NewTask(func() {
			if _, err := e.Export(ctx); err != nil {
				e.Logger.Error("[Scheduler] snapshot export failed", zap.Error(err))
			}
		}),
		gocron.WithSingletonMode(gocron.LimitModeReschedule),
	)
	if err != nil {
		_ = sched.Shutdown()
		return nil, fmt.Errorf("schedule export job: %w", err)
	}

	sched.Start()
	e.Logger.Info("✅ Snapshot export scheduled", zap.Duration("interval", interval))
	return sched, nil
}
