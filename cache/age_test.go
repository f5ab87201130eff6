package cache

import (
	"errors"
	"testing"
)

func TestAgeGetPut(t *testing.T) {
	c := NewAge[string, int]()

	c.Put("key1", 42)

	val, ok := c.Get("key1")
	if !ok {
		t.Error("expected key1 to exist")
	}
	if val != 42 {
		t.Errorf("expected 42, got %d", val)
	}

	_, ok = c.Get("nonexistent")
	if ok {
		t.Error("expected nonexistent key to not exist")
	}

	if c.Len() != 1 {
		t.Errorf("expected 1 entry, got %d", c.Len())
	}
}

func TestAgeUpsert(t *testing.T) {
	c := NewAge[string, int]()

	// Insert on miss.
	val, err := c.Upsert("key1", func(old int, ok bool) (int, error) {
		if ok {
			t.Error("expected miss on first upsert")
		}
		return 10, nil
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if val != 10 {
		t.Errorf("expected 10, got %d", val)
	}

	// Transform on hit.
	val, err = c.Upsert("key1", func(old int, ok bool) (int, error) {
		if !ok || old != 10 {
			t.Errorf("expected hit with 10, got ok=%v old=%d", ok, old)
		}
		return old + 1, nil
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if val != 11 {
		t.Errorf("expected 11, got %d", val)
	}
}

func TestAgeUpsertErrorLeavesCacheUnchanged(t *testing.T) {
	c := NewAge[string, int]()
	c.Put("key1", 5)

	wantErr := errors.New("boom")
	_, err := c.Upsert("key1", func(old int, ok bool) (int, error) {
		return 0, wantErr
	})
	if !errors.Is(err, wantErr) {
		t.Fatalf("expected boom error, got %v", err)
	}

	val, ok := c.Get("key1")
	if !ok || val != 5 {
		t.Errorf("expected key1=5 preserved, got ok=%v val=%d", ok, val)
	}

	// A failed insert must not create an entry.
	_, err = c.Upsert("key2", func(old int, ok bool) (int, error) {
		return 0, wantErr
	})
	if err == nil {
		t.Fatal("expected error")
	}
	if _, ok := c.Peek("key2"); ok {
		t.Error("expected key2 to not exist after failed insert")
	}
}

func TestAgeTake(t *testing.T) {
	c := NewAge[string, int]()
	c.Put("key1", 7)

	val, ok := c.Take("key1")
	if !ok || val != 7 {
		t.Errorf("expected 7, got ok=%v val=%d", ok, val)
	}
	if _, ok := c.Take("key1"); ok {
		t.Error("expected second take to miss")
	}
}

func TestAgeSweepEvicts(t *testing.T) {
	c := NewAge[string, int]()
	c.Put("key1", 1)

	var evicted []string
	// maxAge 2: survives two sweeps untouched, evicted on the third.
	for i := 0; i < 2; i++ {
		c.Sweep(2, func(k string, _ int) { evicted = append(evicted, k) })
		if len(evicted) != 0 {
			t.Fatalf("evicted too early on sweep %d", i+1)
		}
	}
	c.Sweep(2, func(k string, _ int) { evicted = append(evicted, k) })
	if len(evicted) != 1 || evicted[0] != "key1" {
		t.Errorf("expected key1 evicted, got %v", evicted)
	}
	if c.Len() != 0 {
		t.Errorf("expected empty cache, got %d entries", c.Len())
	}
}

func TestAgeAccessResetsAge(t *testing.T) {
	c := NewAge[string, int]()
	c.Put("key1", 1)

	for i := 0; i < 10; i++ {
		c.Sweep(2, nil)
		if _, ok := c.Get("key1"); !ok {
			t.Fatalf("entry evicted despite access, sweep %d", i+1)
		}
	}
}

func TestAgeUpsertResetsAge(t *testing.T) {
	c := NewAge[string, int]()
	c.Put("key1", 1)

	c.Sweep(2, nil)
	c.Sweep(2, nil)
	_, err := c.Upsert("key1", func(old int, ok bool) (int, error) { return old, nil })
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	c.Sweep(2, nil)
	if _, ok := c.Peek("key1"); !ok {
		t.Error("expected upsert to reset age")
	}
}

func TestAgeClear(t *testing.T) {
	c := NewAge[string, int]()
	c.Put("key1", 1)
	c.Put("key2", 2)

	seen := map[string]int{}
	c.Clear(func(k string, v int) { seen[k] = v })

	if c.Len() != 0 {
		t.Errorf("expected empty cache, got %d entries", c.Len())
	}
	if len(seen) != 2 || seen["key1"] != 1 || seen["key2"] != 2 {
		t.Errorf("unexpected cleared entries: %v", seen)
	}
}

func TestAgeStats(t *testing.T) {
	c := NewAge[string, int]()
	c.Put("key1", 1)

	c.Get("key1")
	c.Get("missing")
	c.Sweep(0, nil) // immediate eviction

	s := c.Stats()
	if s.Hits != 1 {
		t.Errorf("expected 1 hit, got %d", s.Hits)
	}
	if s.Misses != 1 {
		t.Errorf("expected 1 miss, got %d", s.Misses)
	}
	if s.Evictions != 1 {
		t.Errorf("expected 1 eviction, got %d", s.Evictions)
	}
}
