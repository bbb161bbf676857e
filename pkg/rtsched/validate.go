package rtsched

import (
	"github.com/pkg/errors"
	"go.uber.org/multierr"
)

// validateConstraints checks the data-model invariants a thread's
// constraints must hold, aggregating every violation found (rather
// than stopping at the first) via multierr.Append, the way a caller
// validating several independent fields at once would want to see all
// of them rather than fixing one and re-running to find the next.
func validateConstraints(t *Thread) error {
	var errs error

	switch t.Type {
	case Periodic:
		pc, ok := t.Periodic()
		if !ok {
			return errors.New("rtsched: PERIODIC thread missing PeriodicConstraints")
		}
		if pc.Period <= 0 {
			errs = multierr.Append(errs, errors.New("period must be positive"))
		}
		if pc.Slice <= 0 {
			errs = multierr.Append(errs, errors.New("slice must be positive"))
		}
		if pc.Slice > pc.Period {
			errs = multierr.Append(errs, errors.New("slice must not exceed period"))
		}
	case Sporadic:
		sc, ok := t.SporadicC()
		if !ok {
			return errors.New("rtsched: SPORADIC thread missing SporadicConstraints")
		}
		if sc.Work <= 0 {
			errs = multierr.Append(errs, errors.New("work must be positive"))
		}
		if t.Deadline <= 0 {
			errs = multierr.Append(errs, errors.New("deadline must be positive"))
		}
	case Aperiodic:
		if _, ok := t.AperiodicC(); !ok {
			return errors.New("rtsched: APERIODIC thread missing AperiodicConstraints")
		}
	}

	return errs
}
