package executor

import (
	"log/slog"
	"runtime/debug"
)

// Pool runs submitted tasks on a bounded number of workers.
type Pool interface {
	// Submit blocks until a worker is free, then starts task on it.
	Submit(task func())
	// Drain returns once no task is running.
	Drain()
	Size() int
}

// guard keeps a panicking task from taking the process down with it.
func guard(logger *slog.Logger, worker int, task func()) func() {
	return func() {
		defer func() {
			if r := recover(); r != nil {
				logger.Error("task panicked", "worker", worker, "panic", r, "stack", string(debug.Stack()))
			}
		}()

		logger.Debug("task started", "worker", worker)
		defer logger.Debug("task finished", "worker", worker)

		task()
	}
}
