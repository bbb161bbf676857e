package rtsched

import "time"

// Simulator is an isolated clone of a scheduler's Runnable, Pending
// and Aperiodic containers, used to "play forward" scheduling decisions
// before accepting a real-time thread. Its Replay method is a pure,
// side-effect-free variant of NeedResched's selection steps: it never
// logs, never touches the live scheduler's containers, and arms no
// timer.
type Simulator struct {
	core core
}

// NewSimulator clones s's Runnable, Pending and Aperiodic containers
// (own Thread copies, nothing mutable shared with live state).
// Simulator memory is ordinary garbage once the Simulator value is
// dropped — there is no separate free step in Go.
func (s *Scheduler) NewSimulator() *Simulator {
	return &Simulator{core: core{
		runnable:  cloneHeap(s.core.runnable),
		pending:   cloneHeap(s.core.pending),
		aperiodic: cloneHeap(s.core.aperiodic),
		cfg:       s.core.cfg,
	}}
}

func cloneHeap(h *heapContainer) *heapContainer {
	clone := newHeapContainer(h.tag, h.capacity, h.keyFunc)
	for _, t := range h.items {
		_ = clone.Enqueue(t.clone())
	}
	return clone
}

// Replay runs the cloned state through the same selection steps
// NeedResched would, returning the thread that would be chosen and the
// timer interval that would be armed, without mutating anything the
// live scheduler can observe.
func (sim *Simulator) Replay(running *Thread, now, endTime time.Duration) (next *Thread, tau time.Duration) {
	if running != nil {
		running = running.clone()
	}
	sim.core.releasePendingPeriodics(endTime, true)
	next = sim.core.dispatch(running, now, endTime, true)
	if next == nil {
		return nil, 0
	}
	tau = sim.core.computeTau(next, endTime)

	// Unlike the live scheduler, the simulator has no hardware timer
	// already running to fall back on: when Pending is empty it has
	// nothing at all to bound a default one-shot interval against, so
	// it substitutes the mean PERIODIC period as its own fallback
	// estimate rather than reporting an unbounded tau.
	if sim.core.pending.Size() == 0 {
		if avg := sim.core.averagePeriod(); avg > 0 && avg < tau {
			tau = avg
		}
	}
	return next, tau
}

// SimulateAdmission clones the live scheduler state, adds a candidate
// thread, and replays one scheduling cycle to check that the thread
// chosen next (the candidate only when it holds the earliest deadline)
// can finish its slice by its deadline. Admit does not call this —
// SimulateAdmission exists so callers and tests can exercise the pure
// replay path independently of the utilization test (see DESIGN.md).
func (s *Scheduler) SimulateAdmission(candidate *Thread, now time.Duration) (ok bool, missed []*Thread) {
	sim := s.NewSimulator()

	clone := candidate.clone()
	var target *heapContainer
	switch clone.Type {
	case Aperiodic:
		target = sim.core.aperiodic
	default:
		target = sim.core.runnable
	}
	if err := target.Enqueue(clone); err != nil {
		return false, nil
	}

	endTime := now
	running, _ := sim.core.runnable.Dequeue()
	next, _ := sim.Replay(running, now, endTime)
	if next == nil {
		return false, nil
	}

	if pc, isPeriodic := next.Periodic(); isPeriodic && next.Deadline < endTime+pc.Slice {
		return false, []*Thread{next}
	}
	return true, nil
}
