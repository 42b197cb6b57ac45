package executor

import (
	"log/slog"

	"golang.org/x/sync/errgroup"
)

// QueuePool bounds concurrency with a counting limit instead of polling.
// Submit blocks while n tasks are running.
type QueuePool struct {
	group  errgroup.Group
	size   int
	logger *slog.Logger

	submitted int
}

func NewQueuePool(n int, logger *slog.Logger) *QueuePool {
	if n < 1 {
		n = 1
	}
	if logger == nil {
		logger = slog.Default()
	}

	p := &QueuePool{size: n, logger: logger}
	p.group.SetLimit(n)

	return p
}

func (p *QueuePool) Size() int {
	return p.size
}

func (p *QueuePool) Submit(task func()) {

	run := guard(p.logger, p.submitted%p.size, task)
	p.submitted++

	p.group.Go(func() error {
		run()
		return nil
	})
}

func (p *QueuePool) Drain() {
	p.group.Wait()
}
