// Package scheduler provides the two halves of deferred closing: an
// in-process timer table for low-latency firing, and a cron sweep that
// catches anything the timers missed (typically after a restart).
package scheduler

import (
	"context"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"
)

// TimerScheduler keeps one pending time.AfterFunc per key. Timers live only in
// this process; the sweep covers tasks lost to a restart.
type TimerScheduler struct {
	mu     sync.Mutex
	timers map[string]*time.Timer
	log    zerolog.Logger
}

func NewTimerScheduler(log zerolog.Logger) *TimerScheduler {
	return &TimerScheduler{timers: make(map[string]*time.Timer), log: log}
}

// Schedule arms fn to run after delay, replacing any pending timer for key.
func (s *TimerScheduler) Schedule(key string, delay time.Duration, fn func()) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if t, ok := s.timers[key]; ok {
		t.Stop()
	}
	s.timers[key] = time.AfterFunc(delay, func() {
		s.mu.Lock()
		delete(s.timers, key)
		s.mu.Unlock()
		fn()
	})
	s.log.Debug().Str("key", key).Dur("delay", delay).Msg("timer armed")
}

// Cancel disarms the pending timer for key, if any.
func (s *TimerScheduler) Cancel(key string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if t, ok := s.timers[key]; ok {
		t.Stop()
		delete(s.timers, key)
		s.log.Debug().Str("key", key).Msg("timer cancelled")
	}
}

// Stop disarms all pending timers. Called on shutdown.
func (s *TimerScheduler) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	for key, t := range s.timers {
		t.Stop()
		delete(s.timers, key)
	}
}

// Pending reports the number of armed timers.
func (s *TimerScheduler) Pending() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.timers)
}

// Sweep runs fn on a fixed cron schedule. It backs the overdue-incident sweep
// so that deferred closes survive process restarts.
type Sweep struct {
	cron *cron.Cron
	log  zerolog.Logger
}

// NewSweep registers fn under the given cron spec (e.g. "@every 10m") and
// returns the not-yet-started sweep.
func NewSweep(spec string, fn func(ctx context.Context), log zerolog.Logger) (*Sweep, error) {
	c := cron.New()
	_, err := c.AddFunc(spec, func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
		defer cancel()
		fn(ctx)
	})
	if err != nil {
		return nil, err
	}
	return &Sweep{cron: c, log: log}, nil
}

func (s *Sweep) Start() {
	s.cron.Start()
	s.log.Info().Msg("sweep started")
}

// Stop halts scheduling and waits for a running invocation to finish.
func (s *Sweep) Stop() {
	<-s.cron.Stop().Done()
	s.log.Info().Msg("sweep stopped")
}
