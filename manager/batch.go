package manager

import (
	"fmt"
	"time"

	"github.com/dot5enko/halo2-color-plate-extractor/manager/executor"
	"github.com/google/uuid"
)

type BatchReport struct {
	Extracted uint64
	Attempted uint64
	Elapsed   time.Duration
}

func (m *Manager) newPool() executor.Pool {

	workers := m.config.Workers
	if workers <= 0 {
		workers = executor.Capacity()
	}

	logger := m.logger.With("scheduler", string(m.config.Scheduler))

	switch m.config.Scheduler {
	case QueueScheduler:
		return executor.NewQueuePool(workers, logger)
	default:
		return executor.NewSlotPool(workers, logger)
	}
}

// RunBatch extracts every tag under the tags root with a bounded pool of
// workers. Per-tag failures are reported on the console and do not stop
// the batch; the returned error is about discovery only. No extraction is
// running when RunBatch returns.
func (m *Manager) RunBatch(overwrite bool) (report BatchReport, topErr error) {

	pool := m.newPool()
	batchLog := m.logger.With("batch_id", uuid.NewString())

	batchLog.Info("batch started", "tags", m.config.TagsRoot, "data", m.config.DataRoot,
		"workers", pool.Size(), "overwrite", overwrite)

	extractedBefore := m.extracted.Load()
	start := time.Now()

	topErr = DiscoverTags(m.config.TagsRoot, func(rel string) error {
		pool.Submit(func() {
			m.ExtractOne(rel, overwrite)
		})
		report.Attempted++
		return nil
	})

	pool.Drain()

	report.Elapsed = time.Since(start)
	report.Extracted = m.extracted.Load() - extractedBefore

	batchLog.Info("batch finished", "extracted", report.Extracted, "attempted", report.Attempted,
		"elapsed", report.Elapsed, "err", topErr)

	return report, topErr
}

// Summary is the closing line of a batch.
func (r BatchReport) Summary() string {
	plural := "s"
	if r.Attempted == 1 {
		plural = ""
	}

	return fmt.Sprintf("Extracted %d / %d color plate%s in %.03f ms", r.Extracted, r.Attempted, plural,
		float64(r.Elapsed.Microseconds())/1000.0)
}
