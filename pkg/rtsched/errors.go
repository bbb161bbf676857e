package rtsched

import (
	"fmt"
	"time"

	"github.com/pkg/errors"
)

// Sentinel errors for the scheduler core. All of them are local: the
// scheduler never unwinds on them, callers log and continue. The one
// exception is the "Aperiodic is empty during need_resched" invariant
// violation, which is escalated via panic rather than returned.
var (
	// ErrQueueFull is returned by a container's enqueue once it holds
	// MaxQueue threads.
	ErrQueueFull = errors.New("container is full")
	// ErrQueueEmpty is returned by dequeue on an empty container.
	ErrQueueEmpty = errors.New("container is empty")
	// ErrThreadNotFound is returned by remove when the thread isn't a
	// member of the container.
	ErrThreadNotFound = errors.New("thread not found in container")
	// ErrAdmissionDenied names the case where accepting a thread would
	// push utilization over its class limit. Admit itself reports a
	// denial as a false return, not as this error.
	ErrAdmissionDenied = errors.New("admission denied: utilization limit exceeded")
)

// DeadlineMissError records a periodic or sporadic thread observed
// still running past its deadline. It is non-fatal and never kills the
// thread: a periodic thread is re-released and a finished sporadic one
// is simply not re-enqueued. The caller constructs this error purely
// for logging and metrics purposes.
type DeadlineMissError struct {
	ThreadID string
	Deadline time.Duration
	ExitTime time.Duration
}

// Overrun is how far past the deadline the thread ran.
func (e *DeadlineMissError) Overrun() time.Duration {
	return e.ExitTime - e.Deadline
}

func (e *DeadlineMissError) Error() string {
	return fmt.Sprintf("thread %s missed deadline %s by %s (exit at %s)",
		e.ThreadID, e.Deadline, e.Overrun(), e.ExitTime)
}
