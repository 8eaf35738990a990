package cache

import (
	"context"
	"testing"
	"time"

	"trackex/internal/log"
)

type fakeClock struct{ t time.Time }

func (f *fakeClock) now() time.Time { return f.t }

func TestLRUCacheExpiry(t *testing.T) {
	clk := &fakeClock{t: time.Unix(1000, 0)}
	c := NewLRUCache[string](10, time.Minute).WithClock(clk.now)

	c.Set("a", "1")
	c.SetWithTTL("b", "2", time.Hour)
	if v, ok := c.Get("a"); !ok || v != "1" {
		t.Fatalf("expected hit for a")
	}

	clk.t = clk.t.Add(2 * time.Minute)
	if _, ok := c.Get("a"); ok {
		t.Fatalf("a should have expired")
	}
	if _, ok := c.Get("b"); !ok {
		t.Fatalf("b should still be live")
	}

	clk.t = clk.t.Add(2 * time.Hour)
	if n := c.CleanExpired(); n != 1 {
		t.Fatalf("cleaned %d, want 1", n)
	}
	if c.Size() != 0 {
		t.Fatalf("size = %d", c.Size())
	}
}

func TestLRUCacheEvictsOldest(t *testing.T) {
	c := NewLRUCache[int](2, time.Hour)
	c.Set("a", 1)
	c.Set("b", 2)
	c.Get("a")
	c.Set("c", 3)

	if _, ok := c.Get("b"); ok {
		t.Fatalf("b should have been evicted")
	}
	if _, ok := c.Get("a"); !ok {
		t.Fatalf("a should survive as most recently used")
	}
	c.Delete("a")
	if c.Size() != 1 {
		t.Fatalf("size = %d", c.Size())
	}
}

func TestManagerSweepAndRun(t *testing.T) {
	clk := &fakeClock{t: time.Unix(0, 0)}
	c := NewLRUCache[bool](10, time.Second).WithClock(clk.now)
	c.Set("x", true)

	m := NewManager(log.Discard())
	m.Register(c)
	clk.t = clk.t.Add(time.Minute)
	if n := m.Sweep(); n != 1 {
		t.Fatalf("swept %d, want 1", n)
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- m.Run(ctx, time.Millisecond) }()
	cancel()
	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("run: %v", err)
		}
	case <-time.After(time.Second):
		t.Fatalf("run did not stop")
	}
}
