package worker

import (
	"context"
	"time"

	"github.com/robfig/cron/v3"

	"sjsage522/wuweimonitor/helpers"
	"sjsage522/wuweimonitor/internal/monitor"
)

// Refresher rebuilds the product batch
type Refresher interface {
	ForceRefresh(ctx context.Context) (monitor.Snapshot, error)
}

// Worker refreshes the product batch on a cron schedule, independently of
// dashboard reads.
type Worker struct {
	ctx        context.Context
	refresher  Refresher
	logger     helpers.LoggerInterface
	schedule   cron.Schedule
	production bool
}

// NewWorker creates a new worker for a standard five-field cron expression
// or a descriptor such as "@every 10m"
func NewWorker(
	ctx context.Context,
	refresher Refresher,
	logger helpers.LoggerInterface,
	spec string,
	production bool,
) (*Worker, error) {
	schedule, err := cron.ParseStandard(spec)
	if err != nil {
		return nil, err
	}

	return &Worker{
		ctx:        ctx,
		refresher:  refresher,
		logger:     logger,
		schedule:   schedule,
		production: production,
	}, nil
}

// Start runs scheduled refreshes until the worker's context is cancelled,
// then waits for a running refresh to finish.
func (w *Worker) Start() error {
	c := cron.New(cron.WithChain(cron.SkipIfStillRunning(cron.DiscardLogger)))
	c.Schedule(w.schedule, cron.FuncJob(w.runRefresh))
	c.Start()

	w.logger.LogInfo("scheduled refresh started, next run at %s", w.schedule.Next(time.Now()).Format(time.RFC3339))

	<-w.ctx.Done()
	<-c.Stop().Done()
	return nil
}

// runRefresh performs one scheduled refresh
func (w *Worker) runRefresh() {
	start := time.Now()

	snap, err := w.refresher.ForceRefresh(w.ctx)
	if err != nil {
		w.logger.LogError("ScheduledRefresh", err)
		return
	}

	if !w.production {
		summary := snap.Summary()
		w.logger.LogInfo("scheduled refresh: %d products, %d targets in %s",
			summary.TotalCount, summary.TargetCount, time.Since(start))
	}
}
