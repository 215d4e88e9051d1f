package main

import (
	"context"
	"fmt"

	"github.com/sevigo/docsync/internal/core"
	"github.com/sevigo/docsync/internal/wire"
)

// runOp queues a Sync Manager call on the app's Dispatcher and blocks for
// its one outcome, so a CLI invocation goes through the same bounded
// worker pool a future concurrent caller would, rather than calling the
// Manager inline.
func runOp(ctx context.Context, app *wire.App, op func(ctx context.Context) (*core.Result, error)) (*core.Result, error) {
	outcome, err := app.Dispatcher.Dispatch(ctx, core.OperationFunc(op))
	if err != nil {
		return nil, fmt.Errorf("failed to queue operation: %w", err)
	}
	select {
	case o := <-outcome:
		return o.Result, o.Err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}
