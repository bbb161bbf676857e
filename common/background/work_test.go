package background

import (
	"testing"
	"time"

	"github.com/stretchr/testify/suite"
	"go.uber.org/atomic"
)

type WorkManagerTestSuite struct {
	suite.Suite
}

func TestWorkManagerTestSuite(t *testing.T) {
	suite.Run(t, new(WorkManagerTestSuite))
}

func (suite *WorkManagerTestSuite) TestStartStop() {
	var ticks atomic.Int64

	mgr, err := NewManager(Work{
		Name:   "housekeeping",
		Period: time.Millisecond,
		Func: func(_ *atomic.Bool) {
			ticks.Inc()
		},
	})
	suite.NoError(err)

	suite.Zero(ticks.Load())

	mgr.Start()
	time.Sleep(time.Millisecond * 30)
	suite.NotZero(ticks.Load())

	mgr.Stop()
	stopped := ticks.Load()
	time.Sleep(time.Millisecond * 30)
	suite.Equal(stopped, ticks.Load())
}

func (suite *WorkManagerTestSuite) TestNewManager_EmptyNameRejected() {
	_, err := NewManager(Work{})
	suite.Error(err)
}

func (suite *WorkManagerTestSuite) TestStopBeforeInitialDelay() {
	var ticks atomic.Int64

	mgr, err := NewManager(Work{
		Name:         "housekeeping",
		Period:       time.Millisecond,
		InitialDelay: time.Millisecond * 100,
		Func: func(_ *atomic.Bool) {
			ticks.Inc()
		},
	})
	suite.NoError(err)

	mgr.Start()
	time.Sleep(time.Millisecond * 20)
	mgr.Stop()
	suite.Zero(ticks.Load())
}

// TestRepeatedStartStop exercises starting (or stopping) twice without an
// intervening stop (or start) between.
func (suite *WorkManagerTestSuite) TestRepeatedStartStop() {
	var ticks atomic.Int64

	mgr, err := NewManager(Work{
		Name:   "housekeeping",
		Period: time.Millisecond * 2,
		Func: func(_ *atomic.Bool) {
			ticks.Inc()
		},
	})
	suite.NoError(err)

	mgr.Start()
	time.Sleep(time.Millisecond * 15)
	suite.NotZero(ticks.Load())

	// second start is a no-op
	mgr.Start()
	time.Sleep(time.Millisecond * 15)
	suite.True(ticks.Load() < 20)

	mgr.Stop()
	impl := mgr.(*manager)
	suite.False(impl.running.Load())

	// second stop is a no-op
	mgr.Stop()
	suite.False(impl.running.Load())
	suite.Zero(len(impl.stopChan))
}
