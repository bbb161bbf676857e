package main

import (
	"fmt"
	"os"
	"sync/atomic"
	"time"

	log "github.com/sirupsen/logrus"
	"github.com/uber-go/tally"
	kingpin "gopkg.in/alecthomas/kingpin.v2"

	"github.com/nautilus-rt/rtsched/common/config"
	"github.com/nautilus-rt/rtsched/pkg/rtsched"
)

var (
	version string
	app     = kingpin.New("rtsched-demo", "Per-CPU real-time thread scheduler demo driver")

	debug = app.Flag(
		"debug", "enable debug mode (log at debug level)").
		Short('d').
		Default("false").
		Envar("ENABLE_DEBUG_LOGGING").
		Bool()

	cfgFiles = app.Flag(
		"config",
		"YAML config files (can be provided multiple times to merge configs)").
		Short('c').
		ExistingFiles()

	ticks = app.Flag(
		"ticks", "number of simulated timer ticks to drive before exiting").
		Default("20").
		Int()
)

func getConfig(files ...string) rtsched.Config {
	cfg := rtsched.DefaultConfig()
	if len(files) == 0 {
		return cfg
	}
	if err := config.Parse(&cfg, files...); err != nil {
		log.WithError(err).Fatal("failed to parse rtsched config")
	}
	return cfg
}

// simClock is a monotonically advancing in-memory clock fed by the
// demo's own tick loop, standing in for the APIC/TSC hardware clock.
type simClock struct {
	now int64
}

func (c *simClock) Now() time.Duration { return time.Duration(atomic.LoadInt64(&c.now)) }
func (c *simClock) advance(d time.Duration) {
	atomic.AddInt64(&c.now, int64(d))
}

// simTimer logs the one-shot interval it would arm, in lieu of a real
// APIC; boot/IRQ/APIC glue lives outside this package.
type simTimer struct{}

func (simTimer) ProgramOneshot(cpu int, ticks time.Duration) {
	log.WithField("cpu", cpu).WithField("ticks", ticks).Debug("demo: would arm one-shot timer")
}

func main() {
	app.Version(version)
	app.HelpFlag.Short('h')
	kingpin.MustParse(app.Parse(os.Args[1:]))

	log.SetFormatter(&log.JSONFormatter{})
	level := log.InfoLevel
	if *debug {
		level = log.DebugLevel
	}
	log.SetLevel(level)

	cfg := getConfig(*cfgFiles...)
	log.WithField("config", cfg).Info("rtsched-demo: loaded config")

	scope := tally.NoopScope

	clock := &simClock{}
	timer := simTimer{}

	mainThread := rtsched.NewThread(rtsched.Aperiodic, rtsched.AperiodicConstraints{Priority: 0}, clock.Now(), 0, nil)
	sched := rtsched.InitScheduler(0, cfg, clock, timer, mainThread)
	metrics := rtsched.NewMetrics(scope, 0)
	sched.SetMetrics(metrics)

	hk := rtsched.NewHousekeeping(sched, cfg.HousekeepingSlice)
	hk.Start(cfg.HousekeepingPeriod)
	defer hk.Stop()

	workerA := rtsched.NewThread(rtsched.Periodic,
		rtsched.PeriodicConstraints{Period: 1000, Slice: 100}, clock.Now(), 0, "worker-a")
	workerB := rtsched.NewThread(rtsched.Periodic,
		rtsched.PeriodicConstraints{Period: 2000, Slice: 150}, clock.Now(), 0, "worker-b")

	if err := sched.Enqueue(rtsched.ArrivalContainer, workerA); err != nil {
		log.WithError(err).Fatal("rtsched-demo: failed to enqueue worker-a")
	}
	if err := sched.Enqueue(rtsched.ArrivalContainer, workerB); err != nil {
		log.WithError(err).Fatal("rtsched-demo: failed to enqueue worker-b")
	}

	// Give housekeeping a moment to admit the arrivals before driving
	// NeedResched, since the demo's housekeeping loop runs on its own
	// goroutine per cfg.HousekeepingPeriod, then stop it so NeedResched
	// never runs concurrently with it.
	time.Sleep(10 * time.Millisecond)
	hk.Stop()

	var running *rtsched.Thread
	for i := 0; i < *ticks; i++ {
		now := clock.Now()
		endTime := now + 100
		next := sched.NeedResched(running, now, endTime)
		metrics.Report(sched)
		metrics.ReschedCount.Inc(1)

		fmt.Printf("tick=%d chose=%s type=%s deadline=%s\n", i, next.ID, next.Type, next.Deadline)

		next.RunTime += 100
		next.ExitTime = endTime
		running = next
		clock.advance(100)
	}
}
