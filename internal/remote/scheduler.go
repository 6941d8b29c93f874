package remote

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"audaxtracker/internal/i18n"
	"audaxtracker/internal/metrics"
	"audaxtracker/internal/state"
)

// Scheduler drives the [Engine] as a single named periodic task.
//
// The scheduler is either idle or running; Start while running and Stop
// while idle are no-ops that log. The persisted "is fetching" flag in
// the store mirrors the in-memory state so that fetching survives a
// process restart.
//
// An unexpected cycle fault trips the circuit breaker: the operator is
// alerted and the schedule stops itself. Repeated unexpected failures
// are more likely a systemic problem than a transient one, so the
// scheduler does not keep retrying unattended.
type Scheduler struct {
	engine     *Engine
	store      *state.Store
	messenger  Messenger
	operatorID string
	cat        *i18n.Catalog
	logger     *slog.Logger

	interval     time.Duration
	initialDelay time.Duration

	mu      sync.Mutex
	running bool
	cancel  context.CancelFunc
	wg      sync.WaitGroup
}

// NewScheduler creates an idle scheduler firing every interval after a
// one-time initial delay. operatorID may be empty, which disables
// circuit-breaker alerts (they are still logged).
func NewScheduler(engine *Engine, store *state.Store, messenger Messenger, operatorID string,
	cat *i18n.Catalog, logger *slog.Logger, interval, initialDelay time.Duration) *Scheduler {
	return &Scheduler{
		engine:       engine,
		store:        store,
		messenger:    messenger,
		operatorID:   operatorID,
		cat:          cat,
		logger:       logger,
		interval:     interval,
		initialDelay: initialDelay,
	}
}

// Running reports whether the periodic schedule is active.
func (s *Scheduler) Running() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.running
}

// Start activates the periodic schedule and persists the fetching flag.
//
// ctx is the application context: cancelling it interrupts an in-flight
// cycle (process shutdown), while [Scheduler.Stop] only cancels future
// runs and lets an active cycle finish. Start while already running is a
// no-op that logs.
func (s *Scheduler) Start(ctx context.Context) error {
	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		s.logger.Error("start requested but already fetching")
		return nil
	}
	s.running = true
	waitCtx, cancel := context.WithCancel(context.Background())
	s.cancel = cancel
	s.wg.Add(1)
	s.mu.Unlock()

	go s.run(ctx, waitCtx)

	metrics.FetchingActive.Set(1)
	return s.store.SetFetching(true)
}

// Stop deactivates the periodic schedule, waits for an in-flight cycle
// to finish, and persists the fetching flag. Stop while idle is a no-op
// that logs.
func (s *Scheduler) Stop() {
	s.stop(true)
}

// Shutdown halts the schedule for process exit without touching the
// persisted fetching flag, so the next run resumes automatically. It
// waits for an in-flight cycle to finish.
func (s *Scheduler) Shutdown() {
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		return
	}
	s.running = false
	s.cancel()
	s.cancel = nil
	s.mu.Unlock()

	s.wg.Wait()
	metrics.FetchingActive.Set(0)
}

func (s *Scheduler) stop(wait bool) {
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		s.logger.Error("stop requested but not fetching")
		return
	}
	s.running = false
	s.cancel()
	s.cancel = nil
	s.mu.Unlock()

	if wait {
		s.wg.Wait()
	}

	metrics.FetchingActive.Set(0)
	if err := s.store.SetFetching(false); err != nil {
		s.logger.Error("failed to persist fetching flag", "error", err)
	}
}

// run is the schedule loop. ctx is the application context passed to
// cycles; waitCtx only governs the waits between cycles, so Stop never
// interrupts an active fetch.
func (s *Scheduler) run(ctx, waitCtx context.Context) {
	defer s.wg.Done()

	select {
	case <-waitCtx.Done():
		return
	case <-ctx.Done():
		return
	case <-time.After(s.initialDelay):
	}

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		if err := s.engine.RunCycle(ctx); err != nil {
			if ctx.Err() != nil || errors.Is(err, context.Canceled) {
				// Shutdown, not a fault.
				return
			}
			s.trip(ctx, err)
			return
		}

		select {
		case <-waitCtx.Done():
			return
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}

// trip is the circuit breaker: alert the operator, then halt the
// schedule. Called from the run goroutine, so it must not wait for it.
func (s *Scheduler) trip(ctx context.Context, err error) {
	s.logger.Error("fetch cycle failed unexpectedly, stopping the schedule", "error", err)

	if s.operatorID != "" {
		text := s.cat.T(s.cat.Default(), i18n.MsgSyncHalted, err.Error())
		if sendErr := s.messenger.SendMessage(ctx, s.operatorID, text); sendErr != nil {
			s.logger.Error("failed to alert the operator", "error", sendErr)
		}
	}

	s.stop(false)
}
