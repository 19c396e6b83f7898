// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package poll waits for task runs to reach a terminal status.
package poll

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/pdiddy/ptask/pkg/types"
)

// Defaults applied when the config leaves a field zero.
const (
	DefaultInterval = 2 * time.Second
	DefaultTimeout  = 5 * time.Minute
)

// Retriever fetches the current state of a task run. *taskapi.Client
// satisfies this.
type Retriever interface {
	Result(ctx context.Context, runID string) (*types.RunResult, error)
}

// TimeoutError reports a run that did not reach a terminal status in time.
type TimeoutError struct {
	RunID   string
	Timeout time.Duration
}

func (e *TimeoutError) Error() string {
	return fmt.Sprintf("task %s did not complete within %s", e.RunID, e.Timeout)
}

// RunFailedError reports a run the service marked failed.
type RunFailedError struct {
	RunID  string
	Detail string
}

func (e *RunFailedError) Error() string {
	if e.Detail == "" {
		return fmt.Sprintf("task %s failed", e.RunID)
	}
	return fmt.Sprintf("task %s failed: %s", e.RunID, e.Detail)
}

// Wait polls r until the run completes, fails, or the timeout elapses.
// Status transitions are written to progress as they happen. Any status
// other than completed or failed, including ones this client does not know
// about, means the run is still in progress. Fetch errors are returned
// immediately rather than retried.
func Wait(ctx context.Context, r Retriever, runID string, cfg types.PollConfig, progress io.Writer) (*types.RunResult, error) {
	interval, timeout := cfg.Interval, cfg.Timeout
	if interval <= 0 {
		interval = DefaultInterval
	}
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	if progress == nil {
		progress = io.Discard
	}

	var lastStatus types.RunStatus
	start := time.Now()
	for time.Since(start) < timeout {
		res, err := r.Result(ctx, runID)
		if err != nil {
			return nil, fmt.Errorf("retrieving task %s: %w", runID, err)
		}
		if res.Status != lastStatus {
			fmt.Fprintf(progress, "status: %s\n", res.Status)
			lastStatus = res.Status
		}
		switch res.Status {
		case types.StatusCompleted:
			return res, nil
		case types.StatusFailed:
			var detail string
			if res.Error != nil {
				detail = res.Error.Message
			}
			return nil, &RunFailedError{RunID: runID, Detail: detail}
		}
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(interval):
		}
	}
	return nil, &TimeoutError{RunID: runID, Timeout: timeout}
}
