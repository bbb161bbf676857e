package rtsched

import (
	"time"

	"github.com/pkg/errors"
)

// Scheduler owns the seven thread containers and timing record for a
// single CPU: each CPU owns its own scheduler instance, with no locking
// between scheduler operations on a single CPU. A Scheduler is not safe
// for concurrent use from more than one goroutine; it is meant to be
// driven exclusively by the ISR/yield path that owns its CPU.
type Scheduler struct {
	CPU int

	core core

	arrival  *ringContainer
	waiting  *ringContainer
	sleeping *ringContainer
	exited   *ringContainer

	timing TimingRecord

	clock Clock
	timer Timer
}

// InitScheduler creates a Scheduler with empty containers and places
// mainThread (status ADMITTED) on the Aperiodic heap.
func InitScheduler(cpu int, cfg Config, clock Clock, timer Timer, mainThread *Thread) *Scheduler {
	s := &Scheduler{
		CPU: cpu,
		core: core{
			runnable:  newHeapContainer(RunnableContainer, cfg.MaxQueue, (*Thread).deadlineKeyI64),
			pending:   newHeapContainer(PendingContainer, cfg.MaxQueue, (*Thread).deadlineKeyI64),
			aperiodic: newHeapContainer(AperiodicContainer, cfg.MaxQueue, (*Thread).priorityKey),
			cfg:       cfg,
		},
		arrival:  newRingContainer(ArrivalContainer, cfg.MaxQueue, Arrived),
		waiting:  newRingContainer(WaitingContainer, cfg.MaxQueue, Waiting),
		sleeping: newRingContainer(SleepingContainer, cfg.MaxQueue, Sleeping),
		exited:   newRingContainer(ExitedContainer, cfg.MaxQueue, statusNone),
		clock:    clock,
		timer:    timer,
	}

	mainThread.Status = Admitted
	_ = s.core.aperiodic.Enqueue(mainThread)
	return s
}

// SetMetrics attaches m as the destination for this scheduler's
// admission, deadline-miss and housekeeping-cycle counters. Never call
// this on a Simulator's core: NewSimulator builds its cloned core from
// a fresh literal that never carries a metrics reference, so replay
// stays side-effect-free regardless.
func (s *Scheduler) SetMetrics(m *Metrics) {
	s.core.metrics = m
}

// deadlineKeyI64 adapts Thread.deadlineKey to the int64 key heaps sort
// on.
func (t *Thread) deadlineKeyI64() int64 { return int64(t.deadlineKey()) }

// heapFor looks up the heap container behind a ContainerTag. Ring
// tags, NoContainer and unrecognised tags return (nil, false).
func (s *Scheduler) heapFor(tag ContainerTag) (*heapContainer, bool) {
	switch tag {
	case RunnableContainer:
		return s.core.runnable, true
	case PendingContainer:
		return s.core.pending, true
	case AperiodicContainer:
		return s.core.aperiodic, true
	default:
		return nil, false
	}
}

func (s *Scheduler) ringFor(tag ContainerTag) (*ringContainer, bool) {
	switch tag {
	case ArrivalContainer:
		return s.arrival, true
	case WaitingContainer:
		return s.waiting, true
	case SleepingContainer:
		return s.sleeping, true
	case ExitedContainer:
		return s.exited, true
	default:
		return nil, false
	}
}

// Enqueue places t into the named container.
func (s *Scheduler) Enqueue(tag ContainerTag, t *Thread) error {
	if h, ok := s.heapFor(tag); ok {
		return h.Enqueue(t)
	}
	if r, ok := s.ringFor(tag); ok {
		return r.Enqueue(t)
	}
	return errors.Errorf("rtsched: unknown container tag %s", tag)
}

// Dequeue pops the next thread from the named container.
func (s *Scheduler) Dequeue(tag ContainerTag) (*Thread, error) {
	if h, ok := s.heapFor(tag); ok {
		return h.Dequeue()
	}
	if r, ok := s.ringFor(tag); ok {
		return r.Dequeue()
	}
	return nil, errors.Errorf("rtsched: unknown container tag %s", tag)
}

// Remove extracts t from whatever container it currently reports
// holding it (t.ContainerTag).
func (s *Scheduler) Remove(t *Thread) (*Thread, error) {
	return s.RemoveFrom(t.ContainerTag, t)
}

// RemoveFrom extracts t from the named container, regardless of what
// t.ContainerTag currently reports. Housekeeping needs this: by the
// time a thread reaches the front of Exited, ThreadExit has already
// overwritten its ContainerTag to ExitedContainer, so purging it from
// its last-known live container requires naming that container
// explicitly rather than trusting the (now stale) tag on the thread.
func (s *Scheduler) RemoveFrom(tag ContainerTag, t *Thread) (*Thread, error) {
	if h, ok := s.heapFor(tag); ok {
		return h.Remove(t)
	}
	if r, ok := s.ringFor(tag); ok {
		return r.Remove(t)
	}
	return nil, ErrThreadNotFound
}

// ThreadExit tombstones t and pushes it to Exited for housekeeping to
// reclaim. preExitContainer captures t's ContainerTag before the
// Exited enqueue below overwrites it: the container t may still be
// sitting in (Runnable/Pending/Aperiodic/Waiting/Sleeping), NoContainer
// for a thread never enqueued, or, for a thread exiting while Running,
// the container it was last dequeued from (where housekeeping will not
// find it).
func (s *Scheduler) ThreadExit(t *Thread) error {
	t.preExitContainer = t.ContainerTag
	t.Status = ToBeRemoved
	t.ExitTime = s.clock.Now()
	return s.exited.Enqueue(t)
}

// InitThread is the external thread factory: it computes the deadline
// from the scheduler's own clock rather than trusting a caller-supplied
// time.
func (s *Scheduler) InitThread(typ Type, constraints Constraints, relativeDeadline time.Duration, host HostThread) *Thread {
	return NewThread(typ, constraints, s.clock.Now(), relativeDeadline, host)
}

// LongestPeriodPeriodic returns the largest Period among PERIODIC
// threads currently in Runnable or Pending, or zero if none are
// present. A read-only diagnostic; nothing in the scheduler or the
// simulator calls it.
func (s *Scheduler) LongestPeriodPeriodic() time.Duration {
	var max time.Duration
	for _, items := range [][]*Thread{s.core.runnable.items, s.core.pending.items} {
		for _, t := range items {
			if pc, ok := t.Periodic(); ok && pc.Period > max {
				max = pc.Period
			}
		}
	}
	return max
}
