package manager

import (
	"log/slog"
	"sync/atomic"

	cpio "github.com/dot5enko/halo2-color-plate-extractor/io"
	"github.com/dot5enko/halo2-color-plate-extractor/plate"
)

type SchedulerKind string

const (
	// busy-polling worker slots
	SlotScheduler SchedulerKind = "slots"
	// bounded task queue
	QueueScheduler SchedulerKind = "queue"
)

type ManagerConfig struct {
	TagsRoot string
	DataRoot string

	// 0 uses the detected parallel capacity
	Workers   int
	Scheduler SchedulerKind

	MaxTagBytes   int64
	MaxPlateBytes uint64
}

// Manager carries the state shared by every extraction of a process: the
// extracted counter and the console lock.
type Manager struct {
	config ManagerConfig

	console *Console
	logger  *slog.Logger
	decoder plate.Decoder

	createSink func(path string, width, height int) (imageSink, error)

	extracted atomic.Uint64
}

func New(config ManagerConfig, console *Console, logger *slog.Logger) *Manager {

	if config.Scheduler == "" {
		config.Scheduler = SlotScheduler
	}
	if config.MaxTagBytes <= 0 {
		config.MaxTagBytes = cpio.DefaultMaxFileBytes
	}
	if config.MaxPlateBytes == 0 {
		config.MaxPlateBytes = plate.DefaultMaxPlateBytes
	}
	if logger == nil {
		logger = slog.Default()
	}

	return &Manager{
		config:  config,
		console: console,
		logger:  logger,
		decoder: plate.Decoder{MaxPlateBytes: config.MaxPlateBytes},

		createSink: createTiffSink,
	}
}

// Extracted is the number of color plates written so far.
func (m *Manager) Extracted() uint64 {
	return m.extracted.Load()
}
