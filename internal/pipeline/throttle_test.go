package pipeline

import (
	"context"
	"testing"
	"time"

	"github.com/tkingovr/logbridge/api"
	"github.com/tkingovr/logbridge/internal/policy"
)

func matchedEntry(filter string) *Entry {
	e := NewEntry(&api.Exchange{Method: "GET", Status: 500})
	e.Result = &policy.EvalResult{Matched: true, Level: api.LevelError, Filter: filter}
	return e
}

func TestThrottle_PerFilterLimit(t *testing.T) {
	s := NewThrottleStage(policy.Throttle{
		PerFilter: map[string]*policy.Limit{
			"errors": {Max: 3, Window: time.Minute},
		},
	})

	for i := 0; i < 3; i++ {
		e := matchedEntry("errors")
		if err := s.Process(context.Background(), e); err != nil {
			t.Fatal(err)
		}
		if e.Halted {
			t.Errorf("record %d should not be throttled", i+1)
		}
	}

	// 4th record is over the limit
	e := matchedEntry("errors")
	if err := s.Process(context.Background(), e); err != nil {
		t.Fatal(err)
	}
	if !e.Halted || !e.Throttled {
		t.Error("4th record should be throttled")
	}
	if e.Logged() {
		t.Error("throttled record must not be logged")
	}

	// Other filters are unaffected
	e = matchedEntry("slow")
	if err := s.Process(context.Background(), e); err != nil {
		t.Fatal(err)
	}
	if e.Halted {
		t.Error("unrelated filter should not be throttled")
	}
}

func TestThrottle_GlobalLimit(t *testing.T) {
	s := NewThrottleStage(policy.Throttle{
		Global: &policy.Limit{Max: 2, Window: time.Minute},
	})

	for _, filter := range []string{"a", "b"} {
		e := matchedEntry(filter)
		if err := s.Process(context.Background(), e); err != nil {
			t.Fatal(err)
		}
		if e.Halted {
			t.Errorf("record of %s should not be throttled", filter)
		}
	}

	e := matchedEntry("c")
	if err := s.Process(context.Background(), e); err != nil {
		t.Fatal(err)
	}
	if !e.Throttled {
		t.Error("3rd record should hit the global limit")
	}
}

func TestThrottle_GlobalRejectionKeepsFilterSlot(t *testing.T) {
	s := NewThrottleStage(policy.Throttle{
		Global: &policy.Limit{Max: 1, Window: time.Minute},
		PerFilter: map[string]*policy.Limit{
			"errors": {Max: 1, Window: time.Minute},
		},
	})
	ctx := context.Background()

	// "slow" takes the only global slot
	if e := matchedEntry("slow"); s.Process(ctx, e) != nil || e.Halted {
		t.Fatal("first record should pass")
	}

	e := matchedEntry("errors")
	s.Process(ctx, e)
	if !e.Throttled {
		t.Fatal("record should hit the global limit")
	}

	if n := len(s.windows["errors"].timestamps); n != 0 {
		t.Errorf("globally rejected record must not use a per-filter slot, window holds %d", n)
	}
	if n := len(s.windows[globalWindow].timestamps); n != 1 {
		t.Errorf("expected one global timestamp, got %d", n)
	}
}

func TestThrottle_WindowExpires(t *testing.T) {
	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	s := NewThrottleStage(policy.Throttle{
		Global: &policy.Limit{Max: 1, Window: time.Second},
	})
	s.now = func() time.Time { return now }

	ctx := context.Background()
	if err := s.Process(ctx, matchedEntry("a")); err != nil {
		t.Fatal(err)
	}

	e := matchedEntry("a")
	s.Process(ctx, e)
	if !e.Throttled {
		t.Fatal("second record in the window should be throttled")
	}

	now = now.Add(2 * time.Second)
	e = matchedEntry("a")
	s.Process(ctx, e)
	if e.Throttled {
		t.Error("record after the window should pass")
	}
}

func TestThrottle_IgnoresUnmatched(t *testing.T) {
	s := NewThrottleStage(policy.Throttle{
		Global: &policy.Limit{Max: 1, Window: time.Minute},
	})

	for i := 0; i < 3; i++ {
		e := NewEntry(&api.Exchange{})
		e.Result = &policy.EvalResult{}
		e.Halted = true
		if err := s.Process(context.Background(), e); err != nil {
			t.Fatal(err)
		}
		if e.Throttled {
			t.Error("unmatched entries must not be throttled")
		}
	}

	e := matchedEntry("a")
	s.Process(context.Background(), e)
	if e.Halted {
		t.Error("unmatched entries must not consume the limit")
	}
}

func TestThrottle_Reset(t *testing.T) {
	s := NewThrottleStage(policy.Throttle{
		Global: &policy.Limit{Max: 1, Window: time.Minute},
	})
	ctx := context.Background()

	s.Process(ctx, matchedEntry("a"))
	s.Reset()

	e := matchedEntry("a")
	s.Process(ctx, e)
	if e.Halted {
		t.Error("expected limit to be cleared by Reset")
	}
}
