package compiler

import (
	"errors"
	"sync"
	"sync/atomic"
	"testing"
)

// TestCache_CompilesOncePerKey verifies memoization: concurrent requests for
// one key share a single compilation.
func TestCache_CompilesOncePerKey(t *testing.T) {
	cache := NewCache()
	var calls atomic.Int32

	compile := func() (*Component, error) {
		calls.Add(1)
		tpl, err := ParseTemplate("c", "c.hyper", `<p>x</p>`, nil)
		if err != nil {
			return nil, err
		}
		return Compile(tpl, nil, CompileOptions{})
	}

	var wg sync.WaitGroup
	results := make([]*Component, 16)
	for i := range results {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			comp, err := cache.Get("c", compile)
			if err != nil {
				t.Errorf("Get failed: %v", err)
				return
			}
			results[i] = comp
		}(i)
	}
	wg.Wait()

	if n := calls.Load(); n != 1 {
		t.Errorf("compile ran %d times, want 1", n)
	}
	for i, comp := range results {
		if comp != results[0] {
			t.Errorf("request %d got a different artifact", i)
		}
	}
}

// TestCache_FailedCompileIsNotCached verifies that an error result is
// dropped so the next request retries.
func TestCache_FailedCompileIsNotCached(t *testing.T) {
	cache := NewCache()
	boom := errors.New("boom")
	calls := 0

	_, err := cache.Get("k", func() (*Component, error) {
		calls++
		return nil, boom
	})
	if err != boom {
		t.Fatalf("Get = %v, want the compile error", err)
	}

	comp := compileSource(t, `<p>ok</p>`, nil, nil)
	got, err := cache.Get("k", func() (*Component, error) {
		calls++
		return comp, nil
	})
	if err != nil || got != comp {
		t.Errorf("retry Get = (%v, %v), want the fresh artifact", got, err)
	}
	if calls != 2 {
		t.Errorf("compile ran %d times, want 2", calls)
	}
}

// TestCache_LookupAndInvalidate verifies the passive lookup path and
// invalidation.
func TestCache_LookupAndInvalidate(t *testing.T) {
	cache := NewCache()
	if _, ok := cache.Lookup("k"); ok {
		t.Error("Lookup on empty cache reported a hit")
	}

	comp := compileSource(t, `<p>x</p>`, nil, nil)
	if _, err := cache.Get("k", func() (*Component, error) { return comp, nil }); err != nil {
		t.Fatalf("Get failed: %v", err)
	}

	got, ok := cache.Lookup("k")
	if !ok || got != comp {
		t.Errorf("Lookup = (%v, %v), want cached artifact", got, ok)
	}
	if cache.Size() != 1 {
		t.Errorf("Size() = %d, want 1", cache.Size())
	}

	cache.Invalidate("k")
	if _, ok := cache.Lookup("k"); ok {
		t.Error("Lookup after Invalidate reported a hit")
	}
}
