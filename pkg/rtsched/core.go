package rtsched

import (
	"math"
	"time"

	log "github.com/sirupsen/logrus"
)

// core holds the three heap containers and config the selection engine
// operates over. It is embedded by Scheduler for live scheduling and
// wrapped (over cloned containers) by Simulator so the same selection
// logic can run as a pure function of (Runnable, Pending, Aperiodic,
// now) for admission-control replay.
type core struct {
	runnable  *heapContainer
	pending   *heapContainer
	aperiodic *heapContainer
	cfg       Config

	// metrics is nil on every Simulator's cloned core (NewSimulator
	// never sets it) and on the live Scheduler's core until SetMetrics
	// is called, so recording is always nil-checked rather than relying
	// solely on quiet.
	metrics *Metrics
}

// releasePendingPeriodics implements step 1: while Pending's earliest
// release is due before endTime, release it into Runnable.
func (c *core) releasePendingPeriodics(endTime time.Duration, quiet bool) {
	for {
		head := c.pending.Peek()
		if head == nil {
			return
		}
		if head.Status != ToBeRemoved && head.deadlineKey() >= endTime {
			return
		}

		t, err := c.pending.Dequeue()
		if err != nil {
			return
		}
		if t.deadlineKey() >= endTime {
			// Dequeue skipped a tombstone at the head and surfaced a
			// thread that is not yet due: put it back.
			_ = c.pending.Enqueue(t)
			return
		}
		t.resetPeriod(endTime)
		if err := c.runnable.Enqueue(t); err != nil && !quiet {
			log.WithFields(t.LogFields()).WithError(err).
				Warn("rtsched: runnable overflow releasing pending periodic")
		}
	}
}

// dispatch implements step 2: decide what happens to the currently
// running thread c and pick the next thread to run. quiet suppresses
// logging for the simulator's side-effect-free replay.
func (c *core) dispatch(running *Thread, now, endTime time.Duration, quiet bool) *Thread {
	if running == nil {
		return c.popRunnableOrAperiodic(quiet)
	}

	switch running.Type {
	case Aperiodic:
		return c.dispatchAperiodic(running, quiet)
	case Sporadic:
		return c.dispatchSporadic(running, now, quiet)
	case Periodic:
		return c.dispatchPeriodic(running, now, quiet)
	default:
		return c.popRunnableOrAperiodic(quiet)
	}
}

func (c *core) dispatchAperiodic(running *Thread, quiet bool) *Thread {
	running.setPriority(int64(running.RunTime))
	if err := c.aperiodic.Enqueue(running); err != nil && !quiet {
		log.WithFields(running.LogFields()).WithError(err).Warn("rtsched: aperiodic overflow re-enqueuing C")
	}
	return c.popRunnableOrAperiodic(quiet)
}

func (c *core) dispatchSporadic(running *Thread, now time.Duration, quiet bool) *Thread {
	sc, _ := running.SporadicC()
	if running.RunTime >= sc.Work {
		c.checkDeadlineMiss(running, quiet)
		return c.popRunnableOrAperiodic(quiet)
	}

	if head := c.runnable.Peek(); head != nil && head.Status != ToBeRemoved && head.deadlineKey() < running.deadlineKey() {
		preempted, err := c.runnable.Dequeue()
		if err != nil {
			return running
		}
		if err := c.runnable.Enqueue(running); err != nil && !quiet {
			log.WithFields(running.LogFields()).WithError(err).Warn("rtsched: runnable overflow re-enqueuing preempted sporadic")
		}
		return preempted
	}
	return running
}

func (c *core) dispatchPeriodic(running *Thread, now time.Duration, quiet bool) *Thread {
	pc, _ := running.Periodic()
	if running.RunTime >= pc.Slice {
		if running.ExitTime > running.Deadline {
			c.reportDeadlineMiss(running, quiet)
			running.resetPeriod(running.ExitTime)
			if err := c.runnable.Enqueue(running); err != nil && !quiet {
				log.WithFields(running.LogFields()).WithError(err).Warn("rtsched: runnable overflow re-releasing missed periodic")
			}
		} else {
			if err := c.pending.Enqueue(running); err != nil && !quiet {
				log.WithFields(running.LogFields()).WithError(err).Warn("rtsched: pending overflow parking exhausted periodic")
			}
		}
		return c.popRunnableOrAperiodic(quiet)
	}

	if head := c.runnable.Peek(); head != nil && head.Status != ToBeRemoved && head.deadlineKey() < running.deadlineKey() {
		preempted, err := c.runnable.Dequeue()
		if err != nil {
			return running
		}
		if err := c.runnable.Enqueue(running); err != nil && !quiet {
			log.WithFields(running.LogFields()).WithError(err).Warn("rtsched: runnable overflow re-enqueuing preempted periodic")
		}
		return preempted
	}
	return running
}

// popRunnableOrAperiodic pops Runnable's minimum-deadline thread if
// non-empty, else Aperiodic's minimum-priority thread. An empty
// Aperiodic at this point is an invariant violation on the live
// scheduler (the main/housekeeping thread always resides there) and is
// fatal; the simulator instead returns nil so admission trials fail
// safely rather than panicking on hypothetical states.
func (c *core) popRunnableOrAperiodic(quiet bool) *Thread {
	if t, err := c.runnable.Dequeue(); err == nil {
		return t
	}
	t, err := c.aperiodic.Dequeue()
	if err != nil {
		if quiet {
			return nil
		}
		log.Panic("rtsched: aperiodic empty during need_resched, scheduler state is inconsistent")
	}
	return t
}

func (c *core) checkDeadlineMiss(t *Thread, quiet bool) {
	if t.ExitTime > t.Deadline {
		c.reportDeadlineMiss(t, quiet)
	}
}

func (c *core) reportDeadlineMiss(t *Thread, quiet bool) {
	if quiet {
		return
	}
	miss := &DeadlineMissError{ThreadID: t.ID, Deadline: t.Deadline, ExitTime: t.ExitTime}
	log.WithFields(t.LogFields()).WithError(miss).Warn("rtsched: deadline miss")

	if c.metrics != nil {
		c.metrics.DeadlineMisses.Inc(1)
		c.metrics.DeadlineOver.Record(t.ExitTime - t.Deadline)
	}
}

// computeTau implements step 3's interval arithmetic without arming
// any hardware timer, so both the live scheduler and the simulator
// share one formula.
func (c *core) computeTau(next *Thread, endTime time.Duration) time.Duration {
	d := time.Duration(math.MaxInt64)
	if head := c.pending.Peek(); head != nil {
		if pd := head.deadlineKey() - endTime; pd < d {
			d = pd
		}
	}
	// Pending empty: the pending-release term is unconstrained (d stays
	// unbounded); it is not narrowed any further here. See
	// Simulator.Replay for the one place averagePeriod still applies.

	switch next.Type {
	case Periodic:
		pc, _ := next.Periodic()
		return minDuration(d, pc.Slice-next.RunTime)
	case Sporadic:
		sc, _ := next.SporadicC()
		return minDuration(d, sc.Work-next.RunTime)
	default:
		return minDuration(d, c.cfg.Quantum)
	}
}

// averagePeriod returns the mean Period across every PERIODIC thread
// in Runnable or Pending, or zero if none are present. Only
// Simulator.Replay uses it, as its timer fallback when Pending is
// empty; the live scheduler's computeTau does not.
func (c *core) averagePeriod() time.Duration {
	var sum time.Duration
	var n int
	for _, items := range [][]*Thread{c.runnable.items, c.pending.items} {
		for _, t := range items {
			if pc, ok := t.Periodic(); ok {
				sum += pc.Period
				n++
			}
		}
	}
	if n == 0 {
		return 0
	}
	return sum / time.Duration(n)
}

func minDuration(a, b time.Duration) time.Duration {
	if a < b {
		return a
	}
	return b
}
