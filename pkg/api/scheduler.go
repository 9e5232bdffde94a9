package api

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"
)

// Destination keys group requests that share a rate budget. Adapters pass
// one of these (or any custom string) to Scheduler.Do.
const (
	DestTwitterAPI = "twitter-api"
	DestThreads    = "threads.net"
	DestBluesky    = "bsky.app"
	DestYouTube    = "youtube.com"
	DestGitHub     = "github.com"
	DestLinkedIn   = "linkedin.com"
)

// sameDestPenalty stretches the delay when consecutive requests hit the
// same destination, spreading load across hosts during batch resolution.
const sameDestPenalty = 1.5

// ErrSchedulerStopped is returned for tasks submitted after Stop.
var ErrSchedulerStopped = errors.New("scheduler stopped")

type schedTask struct {
	dest string
	run  func() error
	done chan error
	ctx  context.Context
}

// Scheduler serializes outbound requests through a single worker, enforcing
// a minimum delay per destination. Order of submission is order of delivery;
// there is no reordering and no automatic retry at this layer.
type Scheduler struct {
	queue        chan schedTask
	delays       map[string]time.Duration
	defaultDelay time.Duration

	stopOnce sync.Once
	stopped  chan struct{}
	drained  chan struct{}
}

// SchedulerConfig tunes per-destination pacing. Zero values fall back to
// the built-in defaults.
type SchedulerConfig struct {
	Delays       map[string]time.Duration
	DefaultDelay time.Duration
	QueueSize    int
}

// DefaultDelays returns the built-in per-destination minimum delays.
func DefaultDelays() map[string]time.Duration {
	return map[string]time.Duration{
		DestTwitterAPI: 6 * time.Second,
		DestThreads:    2 * time.Second,
		DestBluesky:    1 * time.Second,
		DestYouTube:    1 * time.Second,
		DestGitHub:     500 * time.Millisecond,
		DestLinkedIn:   2 * time.Second,
	}
}

// NewScheduler creates a scheduler and starts its worker goroutine.
func NewScheduler(cfg SchedulerConfig) *Scheduler {
	delays := DefaultDelays()
	for dest, d := range cfg.Delays {
		delays[dest] = d
	}
	if cfg.DefaultDelay <= 0 {
		cfg.DefaultDelay = time.Second
	}
	if cfg.QueueSize <= 0 {
		cfg.QueueSize = 256
	}

	s := &Scheduler{
		queue:        make(chan schedTask, cfg.QueueSize),
		delays:       delays,
		defaultDelay: cfg.DefaultDelay,
		stopped:      make(chan struct{}),
		drained:      make(chan struct{}),
	}
	go s.run()
	return s
}

// Do enqueues fn for destination dest and blocks until it has run or ctx
// is cancelled. The worker applies the destination's minimum delay before
// running fn; consecutive tasks for the same destination wait longer.
func (s *Scheduler) Do(ctx context.Context, dest string, fn func() error) error {
	task := schedTask{dest: dest, run: fn, done: make(chan error, 1), ctx: ctx}

	select {
	case <-s.stopped:
		return ErrSchedulerStopped
	case <-ctx.Done():
		return ctx.Err()
	case s.queue <- task:
	}

	select {
	case err := <-task.done:
		return err
	case <-ctx.Done():
		// The worker will still skip the task when it reaches it.
		return ctx.Err()
	}
}

// Stop shuts the scheduler down and waits for the worker to drain.
// Queued tasks receive ErrSchedulerStopped.
func (s *Scheduler) Stop() {
	s.stopOnce.Do(func() { close(s.stopped) })
	<-s.drained
}

func (s *Scheduler) run() {
	defer close(s.drained)

	var lastDest string
	var lastRun time.Time

	for {
		select {
		case <-s.stopped:
			// Fail whatever is still queued, then exit.
			for {
				select {
				case task := <-s.queue:
					task.done <- ErrSchedulerStopped
				default:
					return
				}
			}
		case task := <-s.queue:
			if task.ctx.Err() != nil {
				task.done <- task.ctx.Err()
				continue
			}

			wait := s.delayFor(task.dest, lastDest, lastRun)
			if wait > 0 {
				slog.Debug("Scheduler pacing request", "destination", task.dest, "wait", wait)
				select {
				case <-time.After(wait):
				case <-task.ctx.Done():
					task.done <- task.ctx.Err()
					continue
				case <-s.stopped:
					task.done <- ErrSchedulerStopped
					continue
				}
			}

			lastDest = task.dest
			lastRun = time.Now()
			task.done <- task.run()
		}
	}
}

// delayFor computes how long to wait before serving dest, given the
// previous request. Back-to-back requests to the same destination pay a
// penalty on top of the per-destination minimum.
func (s *Scheduler) delayFor(dest, lastDest string, lastRun time.Time) time.Duration {
	if lastRun.IsZero() {
		return 0
	}

	minDelay, ok := s.delays[dest]
	if !ok {
		minDelay = s.defaultDelay
	}
	if dest == lastDest {
		minDelay = time.Duration(float64(minDelay) * sameDestPenalty)
	}

	elapsed := time.Since(lastRun)
	if elapsed >= minDelay {
		return 0
	}
	return minDelay - elapsed
}
