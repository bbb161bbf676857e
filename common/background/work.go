package background

import (
	"sync"
	"time"

	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
	"go.uber.org/atomic"
)

const (
	_stopRetryInterval = 1 * time.Millisecond
)

var errEmptyName = errors.New("background work name cannot be empty")

// Work is a single named, periodic background task — rtsched only ever
// runs one of these at a time (the housekeeping cycle), so unlike a
// cluster-scale work registry there is no need to track more than one.
type Work struct {
	Name         string
	Func         func(*atomic.Bool)
	Period       time.Duration
	InitialDelay time.Duration
}

// Manager starts and stops a single Work's background goroutine.
type Manager interface {
	// Start launches the Work's periodic goroutine. A no-op if already running.
	Start()
	// Stop blocks until the Work's goroutine has exited. A no-op if not running.
	Stop()
}

// manager implements Manager for exactly one Work.
type manager struct {
	sync.Mutex

	work Work

	running  atomic.Bool
	stopChan chan struct{}
}

// NewManager validates work and returns a Manager that will run it on Start.
func NewManager(work Work) (Manager, error) {
	if work.Name == "" {
		return nil, errEmptyName
	}
	return &manager{work: work, stopChan: make(chan struct{}, 1)}, nil
}

// Start launches work's periodic goroutine.
func (r *manager) Start() {
	log.WithField("name", r.work.Name).Info("Starting Background work.")
	r.Lock()
	defer r.Unlock()
	if r.running.Swap(true) {
		log.WithField("name", r.work.Name).
			WithField("interval_secs", r.work.Period.Seconds()).
			Info("Background work is already running, no-op.")
		return
	}

	go func() {
		defer r.running.Store(false)

		if r.work.InitialDelay.Nanoseconds() > 0 {
			log.WithField("name", r.work.Name).
				WithField("initial_delay", r.work.InitialDelay).
				Info("Initial delay for background work")

			initialTimer := time.NewTimer(r.work.InitialDelay)
			select {
			case <-r.stopChan:
				log.Info("Periodic reconcile stopped before first run.")
				return
			case <-initialTimer.C:
				log.Debug("Initial delay passed")
			}

			r.work.Func(&r.running)
		}

		ticker := time.NewTicker(r.work.Period)
		defer ticker.Stop()
		for {
			select {
			case <-r.stopChan:
				log.WithField("name", r.work.Name).
					Info("Background work stopped.")
				return
			case t := <-ticker.C:
				log.WithField("tick", t).
					WithField("name", r.work.Name).
					Debug("Background work triggered.")
				r.work.Func(&r.running)
			}
		}
	}()
}

// Stop blocks until the Work's goroutine has exited.
func (r *manager) Stop() {
	log.WithField("name", r.work.Name).Info("Stopping Background work.")

	if !r.running.Load() {
		log.WithField("name", r.work.Name).
			Warn("Background work is not running, no-op.")
		return
	}

	r.Lock()
	defer r.Unlock()

	r.stopChan <- struct{}{}

	// TODO: Make this non-blocking.
	for r.running.Load() {
		time.Sleep(_stopRetryInterval)
	}
	log.WithField("name", r.work.Name).Info("Background work stop confirmed.")
}
