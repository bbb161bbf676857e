package rtsched

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHousekeeping_RunCycleAdmitsArrival(t *testing.T) {
	sched, _, _ := newTestScheduler(t)
	hk := NewHousekeeping(sched, 50)

	arrived := sched.InitThread(Periodic, PeriodicConstraints{Period: 1000, Slice: 100}, 0, nil)
	require.NoError(t, sched.Enqueue(ArrivalContainer, arrived))

	hk.RunCycle()

	assert.Equal(t, Admitted, arrived.Status)
	assert.Equal(t, RunnableContainer, arrived.ContainerTag)
	assert.Equal(t, 0, sched.arrival.Size())
}

func TestHousekeeping_RunCycleDropsDeniedArrival(t *testing.T) {
	sched, _, _ := newTestScheduler(t)
	hk := NewHousekeeping(sched, 50)

	hog := &Thread{ID: "hog", Type: Periodic, Status: Admitted,
		Constraints: PeriodicConstraints{Period: 100, Slice: 100}, Deadline: 100, heapIndex: -1}
	require.NoError(t, sched.Enqueue(RunnableContainer, hog))

	denied := sched.InitThread(Periodic, PeriodicConstraints{Period: 1000, Slice: 900}, 0, nil)
	require.NoError(t, sched.Enqueue(ArrivalContainer, denied))

	hk.RunCycle()

	assert.Equal(t, Arrived, denied.Status)
	assert.Equal(t, NoContainer, denied.ContainerTag)
}

func TestHousekeeping_RunCycleDrainsExitedToEmpty(t *testing.T) {
	sched, _, _ := newTestScheduler(t)
	hk := NewHousekeeping(sched, 50)

	for _, id := range []string{"e1", "e2", "e3"} {
		th := &Thread{ID: id, Type: Aperiodic, Status: ToBeRemoved, heapIndex: -1}
		require.NoError(t, sched.exited.Enqueue(th))
	}

	hk.RunCycle()
	assert.Equal(t, 0, sched.exited.Size())
}

func TestHousekeeping_RunCycleExitedPurgesLastKnownContainer(t *testing.T) {
	sched, _, _ := newTestScheduler(t)
	hk := NewHousekeeping(sched, 50)

	blocked := &Thread{ID: "blocked", Type: Aperiodic, heapIndex: -1}
	require.NoError(t, sched.Enqueue(WaitingContainer, blocked))
	require.Equal(t, 1, sched.waiting.Size())

	require.NoError(t, sched.ThreadExit(blocked))
	assert.Equal(t, 1, sched.waiting.Size(), "ThreadExit alone must not yet purge the live container")

	hk.RunCycle()

	assert.Equal(t, 0, sched.waiting.Size())
	assert.Equal(t, 0, sched.exited.Size())
	assert.Equal(t, Removed, blocked.Status)
}

func TestHousekeeping_StartStopIdempotent(t *testing.T) {
	sched, _, _ := newTestScheduler(t)
	hk := NewHousekeeping(sched, 10*time.Millisecond)

	assert.True(t, hk.Start(5*time.Millisecond))
	assert.False(t, hk.Start(5*time.Millisecond))
	assert.True(t, hk.Stop())
	assert.False(t, hk.Stop())
}
