package rtsched

import (
	"strconv"

	"github.com/uber-go/tally"
)

// Metrics holds the tally instruments exported by a single CPU's
// scheduler. Grounded on common/deadline_queue.QueueMetrics's
// sub-scope-per-concern layout; simplified since there is no RPC or
// statsd wiring in this core, only the scope the demo binary hands in.
type Metrics struct {
	RunnableLength  tally.Gauge
	PendingLength   tally.Gauge
	AperiodicLength tally.Gauge

	ArrivalLength tally.Gauge
	ExitedLength  tally.Gauge

	Admitted tally.Counter
	Denied   tally.Counter

	DeadlineMisses tally.Counter
	DeadlineOver   tally.Timer

	ReschedCount tally.Counter
	ReschedDelay tally.Timer

	HousekeepingCycles tally.Counter
}

// NewMetrics builds a Metrics under scope.SubScope("scheduler"), tagged
// by CPU.
func NewMetrics(scope tally.Scope, cpu int) *Metrics {
	s := scope.SubScope("scheduler").Tagged(map[string]string{"cpu": strconv.Itoa(cpu)})
	return &Metrics{
		RunnableLength:  s.Gauge("runnable_length"),
		PendingLength:   s.Gauge("pending_length"),
		AperiodicLength: s.Gauge("aperiodic_length"),
		ArrivalLength:   s.Gauge("arrival_length"),
		ExitedLength:    s.Gauge("exited_length"),
		Admitted:        s.Counter("admitted"),
		Denied:          s.Counter("denied"),
		DeadlineMisses:  s.Counter("deadline_misses"),
		DeadlineOver:    s.Timer("deadline_overrun"),
		ReschedCount:    s.Counter("resched"),
		ReschedDelay:    s.Timer("resched_delay"),

		HousekeepingCycles: s.Counter("housekeeping_cycles"),
	}
}

// Report snapshots container sizes onto the gauges. Callers typically
// invoke this once per housekeeping cycle or NeedResched call.
func (m *Metrics) Report(s *Scheduler) {
	m.RunnableLength.Update(float64(s.core.runnable.Size()))
	m.PendingLength.Update(float64(s.core.pending.Size()))
	m.AperiodicLength.Update(float64(s.core.aperiodic.Size()))
	m.ArrivalLength.Update(float64(s.arrival.Size()))
	m.ExitedLength.Update(float64(s.exited.Size()))
}
