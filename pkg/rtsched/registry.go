package rtsched

import (
	"github.com/pkg/errors"
)

// Registry is an array of per-CPU schedulers indexed by CPU id.
// Ownership is exclusive per index; there is no global mutable state
// beyond this array.
type Registry struct {
	schedulers []*Scheduler
	currentCPU func() int
}

// NewRegistry builds a Registry sized for n CPUs. currentCPU identifies
// which CPU is calling; schedulers are installed afterward via
// Install, one per CPU, once each CPU's main thread exists.
func NewRegistry(n int, currentCPU func() int) *Registry {
	return &Registry{
		schedulers: make([]*Scheduler, n),
		currentCPU: currentCPU,
	}
}

// Install places sched at cpu. Panics on an out-of-range cpu — a
// misconfigured CPU count is a boot-time programming error, not a
// runtime condition the core recovers from.
func (r *Registry) Install(cpu int, sched *Scheduler) {
	r.schedulers[cpu] = sched
}

// Scheduler returns the Scheduler owning cpu.
func (r *Registry) Scheduler(cpu int) (*Scheduler, error) {
	if cpu < 0 || cpu >= len(r.schedulers) || r.schedulers[cpu] == nil {
		return nil, errors.Errorf("rtsched: no scheduler installed for cpu %d", cpu)
	}
	return r.schedulers[cpu], nil
}

// Current returns the Scheduler owning the calling CPU.
func (r *Registry) Current() (*Scheduler, error) {
	return r.Scheduler(r.currentCPU())
}

// Len reports the CPU count this Registry was built for.
func (r *Registry) Len() int { return len(r.schedulers) }
