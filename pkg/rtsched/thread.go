package rtsched

import (
	"time"

	"github.com/pborman/uuid"
	log "github.com/sirupsen/logrus"
)

// HostThread is the opaque back-link to whatever the context switcher
// actually dispatches — a kernel thread handle, a goroutine token, a
// green thread. The scheduler core never dereferences it; it is stored
// weakly (as an interface value) purely so NeedResched can hand it back
// to its caller, avoiding an ownership cycle between the RT thread and
// its host thread.
type HostThread interface{}

// Thread is the real-time scheduler's descriptor for one schedulable
// entity. Exactly one of Constraints' concrete types is stored,
// matching Type.
type Thread struct {
	// ID is used only for logging, metrics tags and simulator identity
	// — never for scheduling decisions.
	ID string

	Type         Type
	Status       Status
	ContainerTag ContainerTag
	Constraints  Constraints

	StartTime time.Duration
	RunTime   time.Duration
	Deadline  time.Duration
	ExitTime  time.Duration

	// Host is the back-link handed to the context switcher once this
	// thread is chosen by NeedResched.
	Host HostThread

	// preExitContainer records ContainerTag as it stood the instant
	// before ThreadExit pushed this thread onto Exited (which
	// overwrites ContainerTag to ExitedContainer). Housekeeping uses it
	// to purge the thread from wherever it was still physically
	// sitting — Runnable/Pending/Aperiodic/Waiting/Sleeping — rather
	// than relying on a future unrelated Dequeue to stumble into its
	// tombstone.
	preExitContainer ContainerTag

	// heapIndex is maintained by container/heap so Fix can locate this
	// thread without a scan (Remove scans linearly); -1 when not a
	// member of a heap container. Ring containers don't use it.
	heapIndex int
}

// NewThread builds a new Thread descriptor (the backing factory behind
// Scheduler.InitThread). now is the scheduler's current tick count;
// relativeDeadline is only meaningful for SPORADIC threads.
func NewThread(typ Type, constraints Constraints, now, relativeDeadline time.Duration, host HostThread) *Thread {
	t := &Thread{
		ID:           uuid.New(),
		Type:         typ,
		Status:       Arrived,
		ContainerTag: NoContainer,
		Constraints:  constraints,
		Host:         host,
		heapIndex:    -1,
	}

	switch typ {
	case Periodic:
		pc, ok := constraints.(PeriodicConstraints)
		if !ok {
			log.WithField("thread_id", t.ID).
				Panic("PERIODIC thread created without PeriodicConstraints")
		}
		t.Deadline = now + pc.Period
	case Sporadic:
		if _, ok := constraints.(SporadicConstraints); !ok {
			log.WithField("thread_id", t.ID).
				Panic("SPORADIC thread created without SporadicConstraints")
		}
		t.Deadline = now + relativeDeadline
	case Aperiodic:
		if _, ok := constraints.(AperiodicConstraints); !ok {
			log.WithField("thread_id", t.ID).
				Panic("APERIODIC thread created without AperiodicConstraints")
		}
	}

	return t
}

// Periodic returns the periodic constraints and true, or the zero
// value and false if this thread isn't PERIODIC.
func (t *Thread) Periodic() (PeriodicConstraints, bool) {
	pc, ok := t.Constraints.(PeriodicConstraints)
	return pc, ok
}

// SporadicC returns the sporadic constraints and true, or the zero
// value and false if this thread isn't SPORADIC.
func (t *Thread) SporadicC() (SporadicConstraints, bool) {
	sc, ok := t.Constraints.(SporadicConstraints)
	return sc, ok
}

// AperiodicC returns the aperiodic constraints and true, or the zero
// value and false if this thread isn't APERIODIC.
func (t *Thread) AperiodicC() (AperiodicConstraints, bool) {
	ac, ok := t.Constraints.(AperiodicConstraints)
	return ac, ok
}

// deadlineKey returns the key binary heaps on Runnable/Pending sort by.
func (t *Thread) deadlineKey() time.Duration {
	return t.Deadline
}

// priorityKey returns the key the Aperiodic heap sorts by.
func (t *Thread) priorityKey() int64 {
	ac, ok := t.Constraints.(AperiodicConstraints)
	if !ok {
		return 0
	}
	return ac.Priority
}

// setPriority updates the aging priority of an APERIODIC thread. No-op
// on non-aperiodic threads.
func (t *Thread) setPriority(p int64) {
	if ac, ok := t.Constraints.(AperiodicConstraints); ok {
		ac.Priority = p
		t.Constraints = ac
	}
}

// resetPeriod sets a PERIODIC thread's deadline to now plus one period
// and zeroes RunTime — the Release defined in the glossary.
func (t *Thread) resetPeriod(now time.Duration) {
	pc, ok := t.Constraints.(PeriodicConstraints)
	if !ok {
		return
	}
	t.Deadline = now + pc.Period
	t.RunTime = 0
}

// LogFields renders the fields the original source's rt_thread_dump
// printed on a deadline miss, for attaching to a structured log entry.
func (t *Thread) LogFields() log.Fields {
	return log.Fields{
		"thread_id":  t.ID,
		"type":       t.Type.String(),
		"status":     t.Status.String(),
		"start_time": t.StartTime,
		"run_time":   t.RunTime,
		"deadline":   t.Deadline,
		"exit_time":  t.ExitTime,
	}
}

// clone produces a shallow, independent copy of t for use by the
// admission simulator: own Constraints value, own Thread struct,
// nothing mutable shared with the live descriptor. The Host link is
// deliberately dropped — the simulator never dispatches anything.
func (t *Thread) clone() *Thread {
	return &Thread{
		ID:           t.ID,
		Type:         t.Type,
		Status:       t.Status,
		ContainerTag: t.ContainerTag,
		Constraints:  t.Constraints,
		StartTime:    t.StartTime,
		RunTime:      t.RunTime,
		Deadline:     t.Deadline,
		ExitTime:     t.ExitTime,
		heapIndex:    -1,
	}
}
