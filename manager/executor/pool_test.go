package executor

import (
	"fmt"
	"io"
	"log/slog"
	"sync/atomic"
	"testing"
	"time"
)

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func pools(n int) map[string]Pool {
	return map[string]Pool{
		"slots": NewSlotPool(n, quietLogger()),
		"queue": NewQueuePool(n, quietLogger()),
	}
}

// concurrencyProbe records how many tasks overlap.
type concurrencyProbe struct {
	running atomic.Int64
	peak    atomic.Int64
	done    atomic.Int64
}

func (p *concurrencyProbe) task() {
	now := p.running.Add(1)
	for {
		peak := p.peak.Load()
		if now <= peak || p.peak.CompareAndSwap(peak, now) {
			break
		}
	}

	time.Sleep(time.Millisecond)

	p.running.Add(-1)
	p.done.Add(1)
}

func TestPoolBoundsConcurrency(t *testing.T) {

	const tasks = 40

	for _, n := range []int{1, 2, 4, 8} {
		for name, pool := range pools(n) {
			t.Run(fmt.Sprintf("%s/%d", name, n), func(t *testing.T) {

				probe := &concurrencyProbe{}
				for i := 0; i < tasks; i++ {
					pool.Submit(probe.task)
				}
				pool.Drain()

				if probe.done.Load() != tasks {
					t.Errorf("Expected %d finished tasks after drain but got %d", tasks, probe.done.Load())
				}
				if probe.peak.Load() > int64(n) {
					t.Errorf("Expected at most %d concurrent tasks but saw %d", n, probe.peak.Load())
				}
				if probe.running.Load() != 0 {
					t.Errorf("tasks still running after drain")
				}
			})
		}
	}
}

func TestPoolContainsPanics(t *testing.T) {

	for name, pool := range pools(2) {
		t.Run(name, func(t *testing.T) {

			var finished atomic.Int64

			pool.Submit(func() { panic("broken tag") })
			for i := 0; i < 5; i++ {
				pool.Submit(func() { finished.Add(1) })
			}
			pool.Submit(func() { panic("another one") })
			pool.Drain()

			if finished.Load() != 5 {
				t.Errorf("Expected 5 finished tasks but got %d", finished.Load())
			}
		})
	}
}

func TestPoolReusableAfterDrain(t *testing.T) {

	for name, pool := range pools(3) {
		t.Run(name, func(t *testing.T) {

			var count atomic.Int64
			for round := 0; round < 3; round++ {
				for i := 0; i < 7; i++ {
					pool.Submit(func() { count.Add(1) })
				}
				pool.Drain()

				if got := count.Load(); got != int64(7*(round+1)) {
					t.Fatalf("round %d: Expected %d but got %d", round, 7*(round+1), got)
				}
			}
		})
	}
}

func TestPoolSizeDefaultsToOne(t *testing.T) {
	for name, pool := range pools(0) {
		if pool.Size() != 1 {
			t.Errorf("%s: Expected size 1 but got %d", name, pool.Size())
		}
	}
}

func TestSlotPoolDrainLeavesSlotsIdle(t *testing.T) {

	pool := NewSlotPool(3, quietLogger())

	for i := 0; i < 30; i++ {
		pool.Submit(func() {
			time.Sleep(200 * time.Microsecond)
		})
	}
	pool.Drain()

	for i := range pool.slots {
		slot := &pool.slots[i]

		if !slot.TryClaim() {
			t.Errorf("slot %d still claimed after drain", i)
			continue
		}
		if slot.done != nil {
			t.Errorf("slot %d was not joined", i)
		}
		slot.Release()
	}
}

func TestSlotJoinWaitsForOccupant(t *testing.T) {

	var slot Slot
	var finished atomic.Bool

	slot.Claim()
	slot.launch(func() {
		time.Sleep(5 * time.Millisecond)
		finished.Store(true)
	})

	slot.Claim()
	slot.Join()

	if !finished.Load() {
		t.Errorf("claim returned while the previous task was running")
	}
	slot.Release()
}

func TestCapacity(t *testing.T) {
	if Capacity() < 1 {
		t.Errorf("Expected a capacity of at least 1 but got %d", Capacity())
	}
}
