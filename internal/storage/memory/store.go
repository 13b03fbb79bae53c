// Package memory provides the in-memory key-value store for respkv.
package memory

import (
	"time"

	"github.com/yndnr/respkv/pkg/cmap"
)

// NoExpiry is reported by TTL for keys without an expiration.
const NoExpiry time.Duration = -1

// entry is a stored value with its optional absolute expiration.
// A zero expiresAt means the entry never expires.
type entry struct {
	value     string
	expiresAt time.Time
}

func (e entry) expired(now time.Time) bool {
	return !e.expiresAt.IsZero() && !now.Before(e.expiresAt)
}

// SetOptions controls a Set.
type SetOptions struct {
	Condition Condition
	Expire    ExpireRule
	// Get asks Set to return the value it overwrote.
	Get bool
}

// SetResult reports the outcome of a Set.
type SetResult struct {
	// Applied is false when the condition did not hold; the store is then
	// unchanged.
	Applied bool
	// Old is the overwritten value, filled only when SetOptions.Get was set
	// and a live entry was replaced (HadOld).
	Old    string
	HadOld bool
}

// Store is a concurrent-safe map of keys to expiring string values.
type Store struct {
	items      *cmap.Map[string, entry]
	now        func() time.Time
	shardCount int
}

// Option configures the Store.
type Option func(*Store)

// WithClock sets the time source. Intended for tests.
func WithClock(now func() time.Time) Option {
	return func(s *Store) {
		s.now = now
	}
}

// WithShardCount sets the number of shards (power of 2).
func WithShardCount(n int) Option {
	return func(s *Store) {
		s.shardCount = n
	}
}

// New creates a new in-memory store.
func New(opts ...Option) *Store {
	s := &Store{
		now:        time.Now,
		shardCount: cmap.DefaultShardCount,
	}
	for _, opt := range opts {
		opt(s)
	}
	s.items = cmap.NewWithShards[string, entry](s.shardCount)
	return s
}

// Get returns the value stored at key. Expired entries read as absent and
// are removed on the way out.
func (s *Store) Get(key string) (string, bool) {
	e, ok := s.items.Get(key)
	if !ok {
		return "", false
	}

	now := s.now()
	if e.expired(now) {
		// Re-check under the write lock: a concurrent Set may have
		// replaced the entry since it was read.
		s.items.DeleteIf(key, func(cur entry) bool { return cur.expired(now) })
		return "", false
	}
	return e.value, true
}

// Set writes value at key according to opts.
//
// The condition is evaluated against logical presence, so an expired
// entry counts as absent. On success the expiration comes from
// opts.Expire, from the replaced entry for KeepTTL, or is cleared.
func (s *Store) Set(key, value string, opts SetOptions) SetResult {
	now := s.now()
	var res SetResult

	s.items.Compute(key, func(cur entry, exists bool) (entry, cmap.Op) {
		live := exists && !cur.expired(now)

		switch opts.Condition {
		case IfAbsent:
			if live {
				return cur, cmap.Keep
			}
		case IfPresent:
			if !live {
				if exists {
					return entry{}, cmap.Remove
				}
				return cur, cmap.Keep
			}
		}

		next := entry{value: value}
		if opts.Expire.Kind == KeepTTL {
			if live {
				next.expiresAt = cur.expiresAt
			}
		} else {
			next.expiresAt = opts.Expire.deadline(now)
		}

		res.Applied = true
		if opts.Get && live {
			res.Old = cur.value
			res.HadOld = true
		}
		return next, cmap.Store
	})

	return res
}

// TTL returns the remaining time to live of key, or NoExpiry if the key
// never expires. ok is false if the key is absent.
func (s *Store) TTL(key string) (ttl time.Duration, ok bool) {
	e, found := s.items.Get(key)
	if !found {
		return 0, false
	}
	now := s.now()
	if e.expired(now) {
		return 0, false
	}
	if e.expiresAt.IsZero() {
		return NoExpiry, true
	}
	return e.expiresAt.Sub(now), true
}

// Len returns the number of stored entries, including expired entries that
// have not been purged yet.
func (s *Store) Len() int {
	return s.items.Count()
}

// ExpiredLen returns the number of expired entries that have not been
// purged yet. It walks every shard.
func (s *Store) ExpiredLen() int {
	now := s.now()
	n := 0
	s.items.Range(func(_ string, e entry) bool {
		if e.expired(now) {
			n++
		}
		return true
	})
	return n
}
