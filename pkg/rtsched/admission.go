package rtsched

import (
	"time"

	log "github.com/sirupsen/logrus"
)

// scale matches the original source's ×1e5 fixed-point utilization
// scaling.
const scale = 100000

// Admit tests only utilization, never deadlines.
// PERIODIC and SPORADIC threads are tested against their class's
// utilization ceiling; APERIODIC always passes. On acceptance the
// thread is placed into Runnable (real-time) or Aperiodic and its
// Status becomes ADMITTED; on rejection, including a full destination
// container, it is left untouched for the caller (housekeeping) to free.
func (s *Scheduler) Admit(t *Thread) bool {
	if err := validateConstraints(t); err != nil {
		log.WithFields(t.LogFields()).WithError(err).Debug("rtsched: admission denied, invalid constraints")
		s.recordDenied()
		return false
	}

	now := s.clock.Now()

	switch t.Type {
	case Periodic:
		return s.admitPeriodic(t)
	case Sporadic:
		return s.admitSporadic(t, now)
	case Aperiodic:
		return s.admitAperiodic(t)
	default:
		s.recordDenied()
		return false
	}
}

func (s *Scheduler) admitPeriodic(t *Thread) bool {
	pc, _ := t.Periodic()
	contribution := int64(pc.Slice) * scale / int64(pc.Period)

	total := s.periodicUtilization() + contribution
	if total > s.core.cfg.PeriodicUtilLimit {
		log.WithFields(t.LogFields()).WithField("projected_util", total).
			Debug("rtsched: periodic admission denied")
		s.recordDenied()
		return false
	}

	if err := s.core.runnable.Enqueue(t); err != nil {
		log.WithFields(t.LogFields()).WithError(err).Warn("rtsched: runnable overflow admitting periodic")
		s.recordDenied()
		return false
	}
	t.Status = Admitted
	s.recordAdmitted()
	return true
}

func (s *Scheduler) admitSporadic(t *Thread, now time.Duration) bool {
	sc, _ := t.SporadicC()
	remaining := t.Deadline - now
	if remaining <= 0 {
		s.recordDenied()
		return false
	}
	contribution := int64(sc.Work) * scale / int64(remaining)

	total := s.sporadicUtilization(now) + contribution
	if total > s.core.cfg.SporadicUtilLimit {
		log.WithFields(t.LogFields()).WithField("projected_util", total).
			Debug("rtsched: sporadic admission denied")
		s.recordDenied()
		return false
	}

	if err := s.core.runnable.Enqueue(t); err != nil {
		log.WithFields(t.LogFields()).WithError(err).Warn("rtsched: runnable overflow admitting sporadic")
		s.recordDenied()
		return false
	}
	t.Status = Admitted
	s.recordAdmitted()
	return true
}

func (s *Scheduler) admitAperiodic(t *Thread) bool {
	if err := s.core.aperiodic.Enqueue(t); err != nil {
		log.WithFields(t.LogFields()).WithError(err).Warn("rtsched: aperiodic overflow admitting aperiodic")
		s.recordDenied()
		return false
	}
	t.Status = Admitted
	s.recordAdmitted()
	return true
}

func (s *Scheduler) recordAdmitted() {
	if s.core.metrics != nil {
		s.core.metrics.Admitted.Inc(1)
	}
}

func (s *Scheduler) recordDenied() {
	if s.core.metrics != nil {
		s.core.metrics.Denied.Inc(1)
	}
}

// periodicUtilization sums slice*1e5/period over every PERIODIC thread
// currently in Runnable or Pending.
func (s *Scheduler) periodicUtilization() int64 {
	var total int64
	for _, items := range [][]*Thread{s.core.runnable.items, s.core.pending.items} {
		for _, t := range items {
			if pc, ok := t.Periodic(); ok {
				total += int64(pc.Slice) * scale / int64(pc.Period)
			}
		}
	}
	return total
}

// sporadicUtilization sums work*1e5/(deadline-now) over every SPORADIC
// thread currently in Runnable.
func (s *Scheduler) sporadicUtilization(now time.Duration) int64 {
	var total int64
	for _, t := range s.core.runnable.items {
		if sc, ok := t.SporadicC(); ok {
			remaining := t.Deadline - now
			if remaining <= 0 {
				continue
			}
			total += int64(sc.Work) * scale / int64(remaining)
		}
	}
	return total
}
