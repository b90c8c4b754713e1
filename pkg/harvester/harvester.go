// Package harvester schedules recurring fetch runs. It owns the one
// background job in the system: downloading the configured feeds into the
// article store on an interval, with start/stop control from the API.
package harvester

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/rubiojr/newsbin/pkg/fetcher"
	"github.com/rubiojr/newsbin/pkg/log"
	"github.com/rubiojr/newsbin/pkg/realtime"
)

var (
	// ErrAlreadyRunning is returned when starting a job that is scheduled.
	ErrAlreadyRunning = errors.New("fetch job already running")

	// ErrNotRunning is returned when stopping a job that is not scheduled.
	ErrNotRunning = errors.New("fetch job was not running")
)

type Harvester struct {
	fetcher  *fetcher.Fetcher
	hub      *realtime.Hub
	interval time.Duration
	logger   *log.Logger

	mu        sync.Mutex
	parentCtx context.Context
	cancelJob context.CancelFunc
	jobDone   chan struct{}

	// active guards against overlapping runs; idle is broadcast so
	// exports can wait for an in-flight run to finish.
	active bool
	idle   *sync.Cond
}

func New(f *fetcher.Fetcher, hub *realtime.Hub, interval time.Duration) *Harvester {
	if interval <= 0 {
		interval = 5 * time.Minute
	}
	h := &Harvester{
		fetcher:  f,
		hub:      hub,
		interval: interval,
		logger:   log.ForService("harvester"),
	}
	h.idle = sync.NewCond(&h.mu)
	return h
}

// Start binds the harvester to its lifecycle context. The recurring job is
// not scheduled until StartJob is called.
func (h *Harvester) Start(ctx context.Context) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.parentCtx = ctx
}

// StartJob schedules the recurring fetch job and kicks off a run
// immediately. Returns ErrAlreadyRunning when the job is scheduled.
func (h *Harvester) StartJob() error {
	h.mu.Lock()
	if h.cancelJob != nil {
		h.mu.Unlock()
		return ErrAlreadyRunning
	}
	parent := h.parentCtx
	if parent == nil {
		parent = context.Background()
	}
	ctx, cancel := context.WithCancel(parent)
	h.cancelJob = cancel
	done := make(chan struct{})
	h.jobDone = done
	interval := h.interval
	h.mu.Unlock()

	h.hub.Broadcast(realtime.NewStatusEvent("running", 0))
	h.logger.Infof("fetch job scheduled every %v", interval)

	go func() {
		defer close(done)
		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		h.runOnce(ctx)
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				h.runOnce(ctx)
			}
		}
	}()

	return nil
}

// StopJob unschedules the recurring job and waits for an in-flight run to
// wind down. Returns ErrNotRunning when no job is scheduled.
func (h *Harvester) StopJob() error {
	h.mu.Lock()
	cancel := h.cancelJob
	done := h.jobDone
	h.cancelJob = nil
	h.jobDone = nil
	h.mu.Unlock()

	if cancel == nil {
		return ErrNotRunning
	}
	cancel()
	<-done

	h.hub.Broadcast(realtime.NewStatusEvent("stopped", 0))
	h.logger.Infof("fetch job stopped")
	return nil
}

// SetInterval changes the fetch interval. A scheduled job keeps its old
// ticker until it is stopped and started again.
func (h *Harvester) SetInterval(interval time.Duration) {
	if interval <= 0 {
		return
	}
	h.mu.Lock()
	h.interval = interval
	h.mu.Unlock()
}

// JobRunning reports whether the recurring job is scheduled.
func (h *Harvester) JobRunning() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.cancelJob != nil
}

// FetchOnce runs a single fetch outside the schedule, still honoring the
// overlap guard.
func (h *Harvester) FetchOnce(ctx context.Context) (int, error) {
	if !h.beginRun() {
		return 0, nil
	}
	defer h.endRun()
	return h.fetch(ctx)
}

// WaitIdle blocks until no fetch run is in flight. Exports call this so
// they never read a half-written batch.
func (h *Harvester) WaitIdle(ctx context.Context) error {
	waitDone := make(chan struct{})
	go func() {
		h.mu.Lock()
		for h.active {
			h.idle.Wait()
		}
		h.mu.Unlock()
		close(waitDone)
	}()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-waitDone:
		return nil
	}
}

// Close stops the scheduled job, if any.
func (h *Harvester) Close() {
	if err := h.StopJob(); err != nil && !errors.Is(err, ErrNotRunning) {
		h.logger.Warnf("stopping job on close: %v", err)
	}
}

func (h *Harvester) runOnce(ctx context.Context) {
	if !h.beginRun() {
		h.logger.Infof("previous fetch run still active, skipping")
		return
	}
	defer h.endRun()

	if _, err := h.fetch(ctx); err != nil && !errors.Is(err, context.Canceled) {
		h.logger.Errorf("fetch run: %v", err)
	}
}

func (h *Harvester) fetch(ctx context.Context) (int, error) {
	h.hub.Broadcast(realtime.NewStatusEvent("fetching", 0))
	stored, err := h.fetcher.Run(ctx)
	if err != nil {
		return stored, err
	}
	h.hub.Broadcast(realtime.NewStatusEvent("fetched", stored))
	return stored, nil
}

func (h *Harvester) beginRun() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.active {
		return false
	}
	h.active = true
	return true
}

func (h *Harvester) endRun() {
	h.mu.Lock()
	h.active = false
	h.idle.Broadcast()
	h.mu.Unlock()
}
