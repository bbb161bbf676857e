package rtsched

import "time"

// NeedResched is the selection engine's ISR entry point. running is the
// thread the CPU was executing when the timer fired or a voluntary
// yield trapped in (nil only before the very first dispatch); now and
// endTime are the current tick and the scheduler's estimate of when
// the chosen thread will actually begin executing.
func (s *Scheduler) NeedResched(running *Thread, now, endTime time.Duration) *Thread {
	s.core.releasePendingPeriodics(endTime, false)

	next := s.core.dispatch(running, now, endTime, false)

	tau := s.core.computeTau(next, endTime)
	if s.timer != nil {
		s.timer.ProgramOneshot(s.CPU, tau)
	}

	s.timing.StartTime = now
	s.timing.EndTime = endTime
	s.timing.SetTime = tau

	next.Status = Running
	next.StartTime = now
	return next
}
