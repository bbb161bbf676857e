package rtsched

import "time"

// Config carries the scheduler core's configuration constants and the
// housekeeping task's boot parameters, loaded via common/config.Parse
// (yaml.v2 + validator.v2), mirroring resmgr.Config.
type Config struct {
	// MaxQueue is the fixed capacity of every heap and ring container.
	MaxQueue int `yaml:"max_queue" validate:"min=1"`

	// PeriodicUtilLimit is the scaled (×1e5) ceiling on Σ slice/period
	// across Runnable∪Pending after an admission.
	PeriodicUtilLimit int64 `yaml:"periodic_util_limit" validate:"min=0"`
	// SporadicUtilLimit is the scaled (×1e5) ceiling on Σ work/(deadline-now)
	// across Runnable.
	SporadicUtilLimit int64 `yaml:"sporadic_util_limit" validate:"min=0"`
	// AperiodicUtilLimit is declared for parity with the original source's
	// reserved (unused) APERIODIC_UTIL constant; admit never consults it.
	AperiodicUtilLimit int64 `yaml:"aperiodic_util_limit"`

	// Quantum is the timer interval programmed when nothing else
	// constrains it (idle or next-is-aperiodic).
	Quantum time.Duration `yaml:"quantum" validate:"min=1"`

	// HousekeepingPeriod and HousekeepingSlice are the period/slice pair
	// start() launches the housekeeping PERIODIC task with.
	HousekeepingPeriod time.Duration `yaml:"housekeeping_period" validate:"min=1"`
	HousekeepingSlice  time.Duration `yaml:"housekeeping_slice" validate:"min=1"`
}

// DefaultConfig returns the constants named by the scheduler core.
func DefaultConfig() Config {
	return Config{
		MaxQueue:           256,
		PeriodicUtilLimit:  65000,
		SporadicUtilLimit:  18000,
		AperiodicUtilLimit: 9000,
		Quantum:            10_000_000,
		HousekeepingPeriod: 1_000_000,
		HousekeepingSlice:  50_000,
	}
}
