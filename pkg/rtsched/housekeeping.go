package rtsched

import (
	"time"

	log "github.com/sirupsen/logrus"
	"go.uber.org/atomic"

	"github.com/nautilus-rt/rtsched/common/background"
)

// Housekeeping drains Arrival and Exited on a fixed period, running as
// a named background.Work. Callers must not drive NeedResched
// concurrently with a running Housekeeping: the Scheduler it wraps is
// single-threaded from its own point of view, same as the rest of the
// core.
type Housekeeping struct {
	sched   *Scheduler
	slice   time.Duration
	manager background.Manager
}

// NewHousekeeping builds the housekeeping task for sched. slice is
// stored on the task but does not bound a single drain cycle (each
// cycle is already bounded: one Arrival, all of Exited).
func NewHousekeeping(sched *Scheduler, slice time.Duration) *Housekeeping {
	return &Housekeeping{sched: sched, slice: slice}
}

// Start launches the housekeeping task's background loop at the given
// period, via a one-Work background.Manager. Idempotent: starting
// again without an intervening Stop is a no-op that returns false.
func (h *Housekeeping) Start(period time.Duration) bool {
	if h.manager != nil {
		return false
	}
	manager, err := background.NewManager(background.Work{
		Name:   "rtsched-housekeeping",
		Period: period,
		Func:   func(running *atomic.Bool) { h.RunCycle() },
	})
	if err != nil {
		log.WithError(err).Error("rtsched: failed to register housekeeping work")
		return false
	}
	h.manager = manager
	h.manager.Start()
	return true
}

// Stop blocks until the background loop has exited. Returns false if
// the loop was not started (or was already stopped).
func (h *Housekeeping) Stop() bool {
	if h.manager == nil {
		return false
	}
	h.manager.Stop()
	h.manager = nil
	return true
}

// RunCycle performs one housekeeping pass: drain one Arrival
// descriptor (admit, then place into its home container), and drain
// Exited to empty (remove from last-known container, reclaim).
func (h *Housekeeping) RunCycle() {
	h.drainArrival()
	h.drainExited()
	if m := h.sched.core.metrics; m != nil {
		m.HousekeepingCycles.Inc(1)
	}
}

func (h *Housekeeping) drainArrival() {
	t, err := h.sched.arrival.Dequeue()
	if err != nil {
		return
	}

	if !h.sched.Admit(t) {
		// t is no longer in Arrival or any other container.
		t.ContainerTag = NoContainer
		log.WithFields(t.LogFields()).Info("rtsched: admission denied, dropping arrival")
		return
	}
}

func (h *Housekeeping) drainExited() {
	exited := h.sched.exited
	for exited.Size() > 0 {
		// Every Exited entry is a ThreadExit tombstone, which Dequeue
		// would skip without returning, so the head is taken off the
		// ring directly.
		t := exited.buf[exited.head]
		exited.buf[exited.head] = nil
		exited.head = (exited.head + 1) % exited.capacity()
		exited.size--

		// t may still be physically sitting in whatever container it
		// was in when ThreadExit was called — purge it from there now,
		// using the tag ThreadExit captured before it was overwritten.
		if tag := t.preExitContainer; tag != NoContainer && tag != ExitedContainer {
			if _, err := h.sched.RemoveFrom(tag, t); err != nil && err != ErrThreadNotFound {
				log.WithFields(t.LogFields()).WithError(err).
					Warn("rtsched: failed purging exited thread from its last-known container")
			}
		}
		t.Status = Removed
		log.WithFields(t.LogFields()).Debug("rtsched: reclaimed exited thread")
	}
}
