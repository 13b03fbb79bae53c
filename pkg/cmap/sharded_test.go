package cmap

import (
	"fmt"
	"strconv"
	"sync"
	"testing"
)

func set[K ~string, V any](m *Map[K, V], key K, value V) {
	m.Compute(key, func(V, bool) (V, Op) { return value, Store })
}

func TestNewWithShards(t *testing.T) {
	tests := []struct {
		input    int
		expected int
	}{
		{0, DefaultShardCount},  // invalid → default
		{-1, DefaultShardCount}, // invalid → default
		{3, DefaultShardCount},  // not power of 2 → default
		{1, 1},
		{2, 2},
		{8, 8},
		{32, 32},
	}

	for _, tt := range tests {
		t.Run(fmt.Sprintf("shards=%d", tt.input), func(t *testing.T) {
			m := NewWithShards[string, int](tt.input)
			if len(m.shards) != tt.expected {
				t.Errorf("NewWithShards(%d) shard count = %d, want %d",
					tt.input, len(m.shards), tt.expected)
			}
		})
	}
}

func TestGet(t *testing.T) {
	m := NewWithShards[string, int](DefaultShardCount)

	if _, ok := m.Get("key1"); ok {
		t.Error("Get on empty map should miss")
	}

	set(m, "key1", 100)
	set(m, "key1", 200)

	val, ok := m.Get("key1")
	if !ok || val != 200 {
		t.Errorf("Get(key1) = (%d, %v), want (200, true)", val, ok)
	}
}

func TestCompute(t *testing.T) {
	m := NewWithShards[string, int](DefaultShardCount)

	got, ok := m.Compute("k", func(cur int, exists bool) (int, Op) {
		if exists {
			t.Error("key should not exist yet")
		}
		return 1, Store
	})
	if !ok || got != 1 {
		t.Errorf("Compute(store) = (%d, %v), want (1, true)", got, ok)
	}

	got, ok = m.Compute("k", func(cur int, exists bool) (int, Op) {
		return cur + 10, Keep
	})
	if !ok || got != 1 {
		t.Errorf("Compute(keep) = (%d, %v), want (1, true)", got, ok)
	}

	_, ok = m.Compute("k", func(cur int, exists bool) (int, Op) {
		return 0, Remove
	})
	if ok {
		t.Error("Compute(remove) should report the key as absent")
	}
	if m.Count() != 0 {
		t.Errorf("Count() = %d, want 0", m.Count())
	}

	// Removing a missing key is a no-op.
	if _, ok := m.Compute("missing", func(int, bool) (int, Op) { return 0, Remove }); ok {
		t.Error("Compute(remove) on missing key should report absent")
	}
}

func TestDeleteIf(t *testing.T) {
	m := NewWithShards[string, int](DefaultShardCount)
	set(m, "k", 5)

	if m.DeleteIf("k", func(v int) bool { return v > 10 }) {
		t.Error("DeleteIf should not delete when predicate is false")
	}
	if !m.DeleteIf("k", func(v int) bool { return v == 5 }) {
		t.Error("DeleteIf should delete when predicate is true")
	}
	if m.DeleteIf("missing", func(int) bool { return true }) {
		t.Error("DeleteIf should report false for a missing key")
	}
}

func TestCountAndRange(t *testing.T) {
	m := NewWithShards[string, int](4)
	for i := 0; i < 100; i++ {
		set(m, strconv.Itoa(i), i)
	}

	if m.Count() != 100 {
		t.Errorf("Count() = %d, want 100", m.Count())
	}

	sum := 0
	m.Range(func(_ string, v int) bool {
		sum += v
		return true
	})
	if sum != 4950 {
		t.Errorf("sum over Range = %d, want 4950", sum)
	}

	visited := 0
	m.Range(func(string, int) bool {
		visited++
		return visited < 3
	})
	if visited != 3 {
		t.Errorf("Range visited %d items after stop, want 3", visited)
	}
}

type customKey string

func TestCustomStringKey(t *testing.T) {
	m := NewWithShards[customKey, string](DefaultShardCount)
	set(m, customKey("a"), "one")

	val, ok := m.Get("a")
	if !ok || val != "one" {
		t.Errorf("Get(a) = (%q, %v), want (\"one\", true)", val, ok)
	}
}

func TestConcurrentCompute(t *testing.T) {
	m := NewWithShards[string, int](DefaultShardCount)
	var wg sync.WaitGroup
	numGoroutines := 50
	numOps := 200

	for i := 0; i < numGoroutines; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < numOps; j++ {
				m.Compute("counter", func(cur int, _ bool) (int, Op) {
					return cur + 1, Store
				})
			}
		}()
	}
	wg.Wait()

	val, _ := m.Get("counter")
	if val != numGoroutines*numOps {
		t.Errorf("counter = %d, want %d (lost updates)", val, numGoroutines*numOps)
	}
}
