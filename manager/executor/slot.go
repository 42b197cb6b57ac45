package executor

import (
	"log/slog"
	"runtime"
	"sync"
)

// Slot runs at most one task at a time. A held mutex means the slot is
// running (or claimed by the scheduler), a free one means idle.
type Slot struct {
	mu sync.Mutex

	// closed by the previous occupant when it finishes; owned by whoever
	// holds the slot
	done chan struct{}
}

func (s *Slot) TryClaim() bool {
	return s.mu.TryLock()
}

// Claim blocks until the slot is idle.
func (s *Slot) Claim() {
	s.mu.Lock()
}

// Join waits for the previous occupant of a claimed slot.
func (s *Slot) Join() {
	if s.done != nil {
		<-s.done
		s.done = nil
	}
}

func (s *Slot) Release() {
	s.mu.Unlock()
}

// launch starts task on a claimed slot. The slot becomes idle again when
// the task returns.
func (s *Slot) launch(task func()) {

	done := make(chan struct{})
	s.done = done

	go func() {
		defer s.mu.Unlock()
		defer close(done)

		task()
	}()
}

// SlotPool hands tasks to a fixed set of slots by polling them in order
// until one is idle.
type SlotPool struct {
	slots  []Slot
	logger *slog.Logger
}

func NewSlotPool(n int, logger *slog.Logger) *SlotPool {
	if n < 1 {
		n = 1
	}
	if logger == nil {
		logger = slog.Default()
	}

	return &SlotPool{
		slots:  make([]Slot, n),
		logger: logger,
	}
}

func (p *SlotPool) Size() int {
	return len(p.slots)
}

// Submit busy-waits for an idle slot, reaps its previous task and starts
// task there.
func (p *SlotPool) Submit(task func()) {

	for {
		for i := range p.slots {
			slot := &p.slots[i]

			if !slot.TryClaim() {
				continue
			}

			slot.Join()
			slot.launch(guard(p.logger, i, task))
			return
		}

		runtime.Gosched()
	}
}

// Drain waits for every slot to become idle and leaves them idle.
func (p *SlotPool) Drain() {
	for i := range p.slots {
		slot := &p.slots[i]

		slot.Claim()
		slot.Join()
		slot.Release()
	}
}
