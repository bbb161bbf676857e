package rtsched

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeClock struct{ t time.Duration }

func (c *fakeClock) Now() time.Duration { return c.t }

type fakeTimer struct {
	lastCPU   int
	lastTicks time.Duration
}

func (f *fakeTimer) ProgramOneshot(cpu int, ticks time.Duration) {
	f.lastCPU, f.lastTicks = cpu, ticks
}

func newTestScheduler(t *testing.T) (*Scheduler, *fakeClock, *fakeTimer) {
	t.Helper()
	clock := &fakeClock{}
	timer := &fakeTimer{}
	cfg := DefaultConfig()
	main := NewThread(Aperiodic, AperiodicConstraints{Priority: 1 << 30}, clock.Now(), 0, nil)
	sched := InitScheduler(0, cfg, clock, timer, main)
	return sched, clock, timer
}

// EDF preemption among two PERIODIC Runnable threads while C is
// aperiodic — the earlier-deadline thread is chosen.
func TestNeedResched_EDFPreemption(t *testing.T) {
	sched, _, _ := newTestScheduler(t)

	a := &Thread{ID: "A", Type: Periodic, Status: Admitted,
		Constraints: PeriodicConstraints{Period: 1000, Slice: 100}, Deadline: 500, heapIndex: -1}
	b := &Thread{ID: "B", Type: Periodic, Status: Admitted,
		Constraints: PeriodicConstraints{Period: 2000, Slice: 100}, Deadline: 300, heapIndex: -1}
	require.NoError(t, sched.Enqueue(RunnableContainer, a))
	require.NoError(t, sched.Enqueue(RunnableContainer, b))

	c := &Thread{ID: "C", Type: Aperiodic, Status: Running,
		Constraints: AperiodicConstraints{Priority: 5}, heapIndex: -1}

	next := sched.NeedResched(c, 0, 0)
	assert.Same(t, b, next)
}

// PERIODIC slice exhaustion without a deadline miss re-parks the
// thread in Pending with its deadline unchanged.
func TestNeedResched_SliceExhaustionNoMiss(t *testing.T) {
	sched, _, _ := newTestScheduler(t)

	c := &Thread{ID: "C", Type: Periodic, Status: Running,
		Constraints: PeriodicConstraints{Period: 1000, Slice: 100},
		Deadline:    500, RunTime: 100, ExitTime: 450, heapIndex: -1}

	_ = sched.NeedResched(c, 450, 450)

	assert.Equal(t, PendingContainer, c.ContainerTag)
	assert.Equal(t, time.Duration(500), c.Deadline)
}

// PERIODIC slice exhaustion past the deadline is reported as a
// miss and re-released with an advanced deadline and zeroed run_time.
func TestNeedResched_DeadlineMissReReleases(t *testing.T) {
	sched, _, _ := newTestScheduler(t)

	c := &Thread{ID: "C", Type: Periodic, Status: Running,
		Constraints: PeriodicConstraints{Period: 1000, Slice: 100},
		Deadline:    500, RunTime: 100, ExitTime: 600, heapIndex: -1}

	_ = sched.NeedResched(c, 600, 600)

	assert.Equal(t, RunnableContainer, c.ContainerTag)
	assert.Equal(t, time.Duration(1600), c.Deadline)
	assert.Equal(t, time.Duration(0), c.RunTime)
}

// APERIODIC aging — the thread that ran longer becomes less
// urgent (larger priority number) and the other is picked.
func TestNeedResched_AperiodicAging(t *testing.T) {
	sched, _, _ := newTestScheduler(t)
	_, _ = sched.Dequeue(AperiodicContainer) // clear the main thread placeholder

	y := &Thread{ID: "Y", Type: Aperiodic, Status: Admitted,
		Constraints: AperiodicConstraints{Priority: 5}, heapIndex: -1}
	require.NoError(t, sched.Enqueue(AperiodicContainer, y))

	x := &Thread{ID: "X", Type: Aperiodic, Status: Running,
		Constraints: AperiodicConstraints{Priority: 5}, RunTime: 10, heapIndex: -1}

	next := sched.NeedResched(x, 10, 10)
	assert.Same(t, y, next)
	assert.EqualValues(t, 10, x.priorityKey())

	y.Status = Running
	y.RunTime = 3
	next2 := sched.NeedResched(y, 13, 13)
	assert.Same(t, y, next2)
	assert.EqualValues(t, 3, y.priorityKey())
}

// a Pending release due before end_time moves into Runnable with
// an updated deadline.
func TestNeedResched_PendingRelease(t *testing.T) {
	sched, _, _ := newTestScheduler(t)
	_, _ = sched.Dequeue(AperiodicContainer)

	pending := &Thread{ID: "P", Type: Periodic, Status: Admitted,
		Constraints: PeriodicConstraints{Period: 500, Slice: 50}, Deadline: 900, heapIndex: -1}
	require.NoError(t, sched.Enqueue(PendingContainer, pending))

	host := &Thread{ID: "H", Type: Aperiodic, Status: Admitted,
		Constraints: AperiodicConstraints{Priority: 1}, heapIndex: -1}
	require.NoError(t, sched.Enqueue(AperiodicContainer, host))

	_ = sched.NeedResched(nil, 1000, 1000)

	assert.Equal(t, RunnableContainer, pending.ContainerTag)
	assert.Equal(t, time.Duration(1500), pending.Deadline)
}
