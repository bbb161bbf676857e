package rtsched

import (
	"testing"
	"time"

	"github.com/golang/mock/gomock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	mock_rtsched "github.com/nautilus-rt/rtsched/pkg/rtsched/mocks"
)

func TestInitScheduler_PlacesMainThreadOnAperiodic(t *testing.T) {
	ctrl := gomock.NewController(t)
	clock := mock_rtsched.NewMockClock(ctrl)
	clock.EXPECT().Now().Return(time.Duration(0)).AnyTimes()
	timer := mock_rtsched.NewMockTimer(ctrl)

	main := &Thread{ID: "main", Type: Aperiodic, Constraints: AperiodicConstraints{Priority: 0}, heapIndex: -1}
	sched := InitScheduler(0, DefaultConfig(), clock, timer, main)

	assert.Equal(t, Admitted, main.Status)
	assert.Equal(t, 1, sched.core.aperiodic.Size())
}

func TestNeedResched_ProgramsTimerViaCollaborator(t *testing.T) {
	ctrl := gomock.NewController(t)
	clock := mock_rtsched.NewMockClock(ctrl)
	clock.EXPECT().Now().Return(time.Duration(0)).AnyTimes()
	timer := mock_rtsched.NewMockTimer(ctrl)

	main := &Thread{ID: "main", Type: Aperiodic, Constraints: AperiodicConstraints{Priority: 0}, heapIndex: -1}
	sched := InitScheduler(0, DefaultConfig(), clock, timer, main)

	timer.EXPECT().ProgramOneshot(0, gomock.Any()).Times(1)

	c := &Thread{ID: "C", Type: Aperiodic, Constraints: AperiodicConstraints{Priority: 1}, heapIndex: -1}
	next := sched.NeedResched(c, 0, 0)
	require.NotNil(t, next)
}

func TestEnqueueDequeueRemove_DispatchByTag(t *testing.T) {
	sched, _, _ := newTestScheduler(t)

	waiting := &Thread{ID: "w", Type: Aperiodic, heapIndex: -1}
	require.NoError(t, sched.Enqueue(WaitingContainer, waiting))
	assert.Equal(t, WaitingContainer, waiting.ContainerTag)
	assert.Equal(t, Waiting, waiting.Status)

	got, err := sched.Remove(waiting)
	require.NoError(t, err)
	assert.Same(t, waiting, got)

	_, err = sched.Dequeue(WaitingContainer)
	assert.ErrorIs(t, err, ErrQueueEmpty)
}

func TestThreadExit_TombstonesAndQueuesToExited(t *testing.T) {
	sched, clock, _ := newTestScheduler(t)
	clock.t = 500

	live := &Thread{ID: "live", Type: Aperiodic, heapIndex: -1}
	require.NoError(t, sched.ThreadExit(live))

	assert.Equal(t, ToBeRemoved, live.Status)
	assert.Equal(t, time.Duration(500), live.ExitTime)
	assert.Equal(t, 1, sched.exited.Size())
}
