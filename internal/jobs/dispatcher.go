// Package jobs runs Sync Manager operations on a bounded worker pool, so a
// CLI invocation (or any future caller) can queue work without blocking on
// how many operations may run concurrently.
package jobs

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/sevigo/docsync/internal/core"
)

// queueItem pairs a queued Operation with the channel its outcome is
// delivered on.
type queueItem struct {
	ctx  context.Context
	op   core.Operation
	done chan core.OpOutcome
}

// dispatcher implements core.Dispatcher with a fixed-size worker pool, the
// same worker-pool/queue/Stop()-drains-in-flight shape as the teacher's
// GitHub-event dispatcher, generalized from one fixed Job to arbitrary
// Operations queued per call.
type dispatcher struct {
	queue      chan queueItem
	maxWorkers int
	wg         sync.WaitGroup
	logger     *slog.Logger
}

// NewDispatcher starts a dispatcher with maxWorkers goroutines. If
// maxWorkers is 0 or negative, it defaults to 1.
func NewDispatcher(maxWorkers int, logger *slog.Logger) core.Dispatcher {
	if maxWorkers <= 0 {
		maxWorkers = 1
	}
	if logger == nil {
		logger = slog.Default()
	}
	d := &dispatcher{
		maxWorkers: maxWorkers,
		queue:      make(chan queueItem, 100),
		logger:     logger,
	}
	d.startWorkers()
	return d
}

func (d *dispatcher) startWorkers() {
	for i := 0; i < d.maxWorkers; i++ {
		d.wg.Add(1)
		go func(workerID int) {
			defer d.wg.Done()
			d.logger.Info("starting sync worker", "id", workerID)
			for item := range d.queue {
				result, err := item.op.Run(item.ctx)
				if err != nil {
					d.logger.Error("sync operation failed", "worker_id", workerID, "error", err)
				}
				item.done <- core.OpOutcome{Result: result, Err: err}
				close(item.done)
			}
			d.logger.Info("shutting down sync worker", "id", workerID)
		}(i)
	}
}

// Dispatch queues op and returns a channel that receives exactly one outcome.
func (d *dispatcher) Dispatch(ctx context.Context, op core.Operation) (<-chan core.OpOutcome, error) {
	done := make(chan core.OpOutcome, 1)
	item := queueItem{ctx: ctx, op: op, done: done}

	select {
	case d.queue <- item:
		return done, nil
	default:
		return nil, fmt.Errorf("jobs: operation queue is full, cannot accept new sync operation")
	}
}

// Stop drains in-flight operations and stops accepting new ones.
func (d *dispatcher) Stop() {
	d.logger.Info("stopping dispatcher and waiting for operations to finish")
	close(d.queue)
	d.wg.Wait()
	d.logger.Info("all sync operations have finished")
}
