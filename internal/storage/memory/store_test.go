package memory

import (
	"fmt"
	"sync"
	"testing"
	"time"
)

// fakeClock is a manually advanced time source.
type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

func mustRule(t *testing.T, kind ExpireKind, amount int64) ExpireRule {
	t.Helper()
	r, err := NewExpireRule(kind, amount)
	if err != nil {
		t.Fatalf("NewExpireRule(%d, %d): %v", kind, amount, err)
	}
	return r
}

func TestStore_SetGet(t *testing.T) {
	store := New()

	if _, ok := store.Get("foo"); ok {
		t.Fatal("Get on empty store should miss")
	}

	res := store.Set("foo", "bar", SetOptions{})
	if !res.Applied {
		t.Fatal("Set should apply")
	}
	if res.HadOld {
		t.Error("HadOld should be false without GET")
	}

	got, ok := store.Get("foo")
	if !ok || got != "bar" {
		t.Errorf("Get(foo) = (%q, %v), want (bar, true)", got, ok)
	}
}

func TestStore_Conditions(t *testing.T) {
	store := New()

	store.Set("k", "v1", SetOptions{})

	res := store.Set("k", "v2", SetOptions{Condition: IfAbsent})
	if res.Applied {
		t.Error("NX on existing key should not apply")
	}
	if got, _ := store.Get("k"); got != "v1" {
		t.Errorf("after NX, value = %q, want v1", got)
	}

	res = store.Set("k", "v2", SetOptions{Condition: IfPresent})
	if !res.Applied {
		t.Error("XX on existing key should apply")
	}
	if got, _ := store.Get("k"); got != "v2" {
		t.Errorf("after XX, value = %q, want v2", got)
	}

	res = store.Set("missing", "v", SetOptions{Condition: IfPresent})
	if res.Applied {
		t.Error("XX on missing key should not apply")
	}
	if _, ok := store.Get("missing"); ok {
		t.Error("XX on missing key must not create it")
	}

	res = store.Set("fresh", "v", SetOptions{Condition: IfAbsent})
	if !res.Applied {
		t.Error("NX on missing key should apply")
	}
}

func TestStore_GetFlag(t *testing.T) {
	store := New()

	res := store.Set("k", "v1", SetOptions{Get: true})
	if !res.Applied || res.HadOld {
		t.Errorf("first SET GET = %+v, want applied without old value", res)
	}

	res = store.Set("k", "v2", SetOptions{Get: true})
	if !res.HadOld || res.Old != "v1" {
		t.Errorf("second SET GET = %+v, want old value v1", res)
	}

	// Failed precondition returns no previous value.
	res = store.Set("k", "v3", SetOptions{Condition: IfAbsent, Get: true})
	if res.Applied || res.HadOld || res.Old != "" {
		t.Errorf("NX GET on existing key = %+v, want nothing", res)
	}

	// Without GET, the old value is not reported.
	res = store.Set("k", "v4", SetOptions{})
	if res.HadOld || res.Old != "" {
		t.Errorf("SET without GET = %+v, want no old value", res)
	}
}

func TestStore_Expiration(t *testing.T) {
	clock := newFakeClock()
	store := New(WithClock(clock.Now))

	store.Set("ex", "v", SetOptions{Expire: mustRule(t, ExpireSeconds, 10)})
	store.Set("px", "v", SetOptions{Expire: mustRule(t, ExpireMillis, 1500)})

	clock.Advance(1499 * time.Millisecond)
	if _, ok := store.Get("px"); !ok {
		t.Error("px should still be live before its deadline")
	}

	clock.Advance(time.Millisecond)
	if _, ok := store.Get("px"); ok {
		t.Error("px should be absent at its deadline")
	}
	if _, ok := store.Get("ex"); !ok {
		t.Error("ex should still be live")
	}

	clock.Advance(9 * time.Second)
	if _, ok := store.Get("ex"); ok {
		t.Error("ex should be absent after 10s")
	}
}

func TestStore_ZeroAndPastExpiration(t *testing.T) {
	clock := newFakeClock()
	store := New(WithClock(clock.Now))

	store.Set("px0", "v", SetOptions{Expire: mustRule(t, ExpireMillis, 0)})
	if _, ok := store.Get("px0"); ok {
		t.Error("PX 0 should be absent on the next GET")
	}

	past := clock.Now().Add(-time.Second).UnixMilli()
	store.Set("pxat", "v", SetOptions{Expire: mustRule(t, ExpireAtMillis, past)})
	if _, ok := store.Get("pxat"); ok {
		t.Error("past PXAT should be absent on the next GET")
	}

	future := clock.Now().Add(time.Hour).Unix()
	store.Set("exat", "v", SetOptions{Expire: mustRule(t, ExpireAtSeconds, future)})
	if _, ok := store.Get("exat"); !ok {
		t.Error("future EXAT should be live")
	}
}

func TestStore_LazyPurge(t *testing.T) {
	clock := newFakeClock()
	store := New(WithClock(clock.Now))

	store.Set("k", "v", SetOptions{Expire: mustRule(t, ExpireSeconds, 1)})
	clock.Advance(2 * time.Second)

	if store.Len() != 1 {
		t.Fatalf("Len() = %d, want 1 before the key is touched", store.Len())
	}
	if _, ok := store.Get("k"); ok {
		t.Fatal("expired key should read as absent")
	}
	if store.Len() != 0 {
		t.Errorf("Len() = %d, want 0 after lazy purge", store.Len())
	}
}

func TestStore_KeepTTL(t *testing.T) {
	clock := newFakeClock()
	store := New(WithClock(clock.Now))

	store.Set("k", "v1", SetOptions{Expire: mustRule(t, ExpireSeconds, 100)})
	clock.Advance(40 * time.Second)

	store.Set("k", "v2", SetOptions{Expire: ExpireRule{Kind: KeepTTL}})

	got, ok := store.Get("k")
	if !ok || got != "v2" {
		t.Fatalf("Get(k) = (%q, %v), want (v2, true)", got, ok)
	}
	ttl, ok := store.TTL("k")
	if !ok || ttl != 60*time.Second {
		t.Errorf("TTL(k) = (%v, %v), want (60s, true)", ttl, ok)
	}

	clock.Advance(60 * time.Second)
	if _, ok := store.Get("k"); ok {
		t.Error("KEEPTTL should keep the original deadline")
	}
}

func TestStore_KeepTTLOnMissingKey(t *testing.T) {
	store := New()
	store.Set("k", "v", SetOptions{Expire: ExpireRule{Kind: KeepTTL}})

	ttl, ok := store.TTL("k")
	if !ok || ttl != NoExpiry {
		t.Errorf("TTL(k) = (%v, %v), want (NoExpiry, true)", ttl, ok)
	}
}

func TestStore_PlainSetClearsTTL(t *testing.T) {
	store := New()
	store.Set("k", "v1", SetOptions{Expire: mustRule(t, ExpireSeconds, 100)})
	store.Set("k", "v2", SetOptions{})

	if ttl, _ := store.TTL("k"); ttl != NoExpiry {
		t.Errorf("TTL after plain SET = %v, want NoExpiry", ttl)
	}
}

func TestStore_ExpiredEntryIsAbsentForConditions(t *testing.T) {
	clock := newFakeClock()
	store := New(WithClock(clock.Now))

	store.Set("k", "old", SetOptions{Expire: mustRule(t, ExpireSeconds, 1)})
	clock.Advance(time.Second)

	if res := store.Set("k", "x", SetOptions{Condition: IfPresent}); res.Applied {
		t.Error("XX on expired key should not apply")
	}
	if store.Len() != 0 {
		t.Errorf("failed XX on expired key should purge it, Len() = %d", store.Len())
	}

	store.Set("k2", "old", SetOptions{Expire: mustRule(t, ExpireSeconds, 1)})
	clock.Advance(time.Second)
	res := store.Set("k2", "new", SetOptions{Condition: IfAbsent, Get: true})
	if !res.Applied {
		t.Error("NX on expired key should apply")
	}
	if res.HadOld {
		t.Error("expired value must not be returned as the old value")
	}
}

func TestNewExpireRule(t *testing.T) {
	tests := []struct {
		name    string
		kind    ExpireKind
		amount  int64
		wantErr bool
	}{
		{"zero seconds", ExpireSeconds, 0, false},
		{"negative", ExpireMillis, -1, true},
		{"seconds overflow", ExpireSeconds, 9223372037, true},
		{"max seconds", ExpireSeconds, 9223372036, false},
		{"millis overflow", ExpireMillis, 9223372036855, true},
		{"absolute millis", ExpireAtMillis, 1700000000000, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewExpireRule(tt.kind, tt.amount)
			if (err != nil) != tt.wantErr {
				t.Errorf("NewExpireRule() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestStore_ConcurrentDisjointKeys(t *testing.T) {
	store := New()
	var wg sync.WaitGroup

	for w := 0; w < 20; w++ {
		wg.Add(1)
		go func(w int) {
			defer wg.Done()
			for i := 0; i < 200; i++ {
				key := fmt.Sprintf("w%d:k%d", w, i)
				val := fmt.Sprintf("v%d", i)
				store.Set(key, val, SetOptions{})
				if got, ok := store.Get(key); !ok || got != val {
					t.Errorf("Get(%s) = (%q, %v), want %q", key, got, ok, val)
					return
				}
			}
		}(w)
	}
	wg.Wait()

	if store.Len() != 20*200 {
		t.Errorf("Len() = %d, want %d", store.Len(), 20*200)
	}
}

func TestStore_ConcurrentSameKeyIsSerialized(t *testing.T) {
	store := New()
	store.Set("k", "", SetOptions{})

	// Every writer swaps in its own token with SET ... GET. If writes are
	// serialized, the old values form a chain where each token is seen
	// exactly once.
	const writers, rounds = 16, 100
	seen := make(chan string, writers*rounds)
	var wg sync.WaitGroup
	for w := 0; w < writers; w++ {
		wg.Add(1)
		go func(w int) {
			defer wg.Done()
			for i := 0; i < rounds; i++ {
				res := store.Set("k", fmt.Sprintf("%d-%d", w, i), SetOptions{Get: true})
				seen <- res.Old
			}
		}(w)
	}
	wg.Wait()
	close(seen)

	counts := make(map[string]int)
	for old := range seen {
		counts[old]++
	}
	last, _ := store.Get("k")
	counts[last]++

	for token, n := range counts {
		if n != 1 {
			t.Errorf("value %q observed %d times, want 1", token, n)
		}
	}
	if len(counts) != writers*rounds+1 {
		t.Errorf("distinct values = %d, want %d", len(counts), writers*rounds+1)
	}
}

func TestStore_ExpiredLen(t *testing.T) {
	clock := newFakeClock()
	store := New(WithClock(clock.Now), WithShardCount(4))

	store.Set("live", "v", SetOptions{})
	store.Set("short", "v", SetOptions{Expire: mustRule(t, ExpireSeconds, 1)})
	store.Set("long", "v", SetOptions{Expire: mustRule(t, ExpireSeconds, 100)})

	if n := store.ExpiredLen(); n != 0 {
		t.Errorf("ExpiredLen() = %d, want 0 before any deadline", n)
	}

	clock.Advance(time.Second)
	if n := store.ExpiredLen(); n != 1 {
		t.Errorf("ExpiredLen() = %d, want 1", n)
	}
	if store.Len() != 3 {
		t.Errorf("Len() = %d, want 3 before purge", store.Len())
	}

	store.Get("short")
	if n := store.ExpiredLen(); n != 0 {
		t.Errorf("ExpiredLen() = %d, want 0 after purge", n)
	}
}
