package pipeline

import (
	"context"
	"sync"
	"time"

	"github.com/tkingovr/logbridge/internal/policy"
)

const globalWindow = "_global"

// slidingWindow tracks record timestamps for throttling.
type slidingWindow struct {
	timestamps []time.Time
}

// prune drops timestamps older than window and reports whether another
// record fits under max.
func (w *slidingWindow) prune(now time.Time, limit *policy.Limit) bool {
	cutoff := now.Add(-limit.Window)
	valid := 0
	for _, ts := range w.timestamps {
		if ts.After(cutoff) {
			w.timestamps[valid] = ts
			valid++
		}
	}
	w.timestamps = w.timestamps[:valid]
	return len(w.timestamps) < limit.Max
}

// ThrottleStage caps how many selected exchanges are logged per time window,
// per filter and globally. Exchanges over a limit are halted and marked
// Throttled. A record counts against a window only when every applicable
// limit admits it.
type ThrottleStage struct {
	config  policy.Throttle
	now     func() time.Time
	mu      sync.Mutex
	windows map[string]*slidingWindow // key: filter name or "_global"
}

// NewThrottleStage creates a throttle stage.
func NewThrottleStage(config policy.Throttle) *ThrottleStage {
	return &ThrottleStage{
		config:  config,
		now:     time.Now,
		windows: make(map[string]*slidingWindow),
	}
}

func (s *ThrottleStage) Name() string { return "throttle" }

func (s *ThrottleStage) Process(_ context.Context, e *Entry) error {
	if !e.Logged() {
		return nil
	}

	filter := e.Result.Filter
	type check struct {
		key   string
		limit *policy.Limit
	}
	var checks []check
	if limit, ok := s.config.PerFilter[filter]; ok && limit != nil {
		checks = append(checks, check{filter, limit})
	}
	if s.config.Global != nil {
		checks = append(checks, check{globalWindow, s.config.Global})
	}
	if len(checks) == 0 {
		return nil
	}

	now := s.now()

	s.mu.Lock()
	defer s.mu.Unlock()

	windows := make([]*slidingWindow, len(checks))
	for i, c := range checks {
		w := s.window(c.key)
		if !w.prune(now, c.limit) {
			e.Halted = true
			e.Throttled = true
			return nil
		}
		windows[i] = w
	}
	for _, w := range windows {
		w.timestamps = append(w.timestamps, now)
	}
	return nil
}

// window returns the window for key. Callers hold s.mu.
func (s *ThrottleStage) window(key string) *slidingWindow {
	w, ok := s.windows[key]
	if !ok {
		w = &slidingWindow{}
		s.windows[key] = w
	}
	return w
}

// Reset clears all windows.
func (s *ThrottleStage) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.windows = make(map[string]*slidingWindow)
}
