package memory

import (
	"errors"
	"math"
	"time"
)

// ErrInvalidExpire is returned for negative or out-of-range expiration
// amounts.
var ErrInvalidExpire = errors.New("memory: invalid expire time")

// Condition guards whether a Set proceeds.
type Condition uint8

const (
	// Always writes unconditionally.
	Always Condition = iota
	// IfAbsent (NX) writes only if the key is absent.
	IfAbsent
	// IfPresent (XX) writes only if the key is present.
	IfPresent
)

func (c Condition) String() string {
	switch c {
	case IfAbsent:
		return "NX"
	case IfPresent:
		return "XX"
	default:
		return "none"
	}
}

// ExpireKind selects how a Set computes the new expiration.
type ExpireKind uint8

const (
	// NoExpire stores the entry without expiration.
	NoExpire ExpireKind = iota
	// ExpireSeconds (EX) expires Amount seconds after the write.
	ExpireSeconds
	// ExpireMillis (PX) expires Amount milliseconds after the write.
	ExpireMillis
	// ExpireAtSeconds (EXAT) expires at the Unix time Amount, in seconds.
	ExpireAtSeconds
	// ExpireAtMillis (PXAT) expires at the Unix time Amount, in milliseconds.
	ExpireAtMillis
	// KeepTTL keeps the expiration of the entry being replaced.
	KeepTTL
)

// ExpireRule describes the expiration of a written entry.
type ExpireRule struct {
	Kind   ExpireKind
	Amount int64
}

// NewExpireRule validates amount for kind and returns the rule.
// Zero is accepted and expires the entry immediately.
func NewExpireRule(kind ExpireKind, amount int64) (ExpireRule, error) {
	if amount < 0 {
		return ExpireRule{}, ErrInvalidExpire
	}

	var limit int64 = math.MaxInt64
	switch kind {
	case ExpireSeconds, ExpireAtSeconds:
		limit = math.MaxInt64 / int64(time.Second)
	case ExpireMillis, ExpireAtMillis:
		limit = math.MaxInt64 / int64(time.Millisecond)
	}
	if amount > limit {
		return ExpireRule{}, ErrInvalidExpire
	}
	return ExpireRule{Kind: kind, Amount: amount}, nil
}

// deadline returns the absolute expiration for a write at now, or the zero
// time if the rule sets none. KeepTTL is resolved by the caller.
func (r ExpireRule) deadline(now time.Time) time.Time {
	switch r.Kind {
	case ExpireSeconds:
		return now.Add(time.Duration(r.Amount) * time.Second)
	case ExpireMillis:
		return now.Add(time.Duration(r.Amount) * time.Millisecond)
	case ExpireAtSeconds:
		return time.Unix(r.Amount, 0)
	case ExpireAtMillis:
		return time.UnixMilli(r.Amount)
	default:
		return time.Time{}
	}
}
