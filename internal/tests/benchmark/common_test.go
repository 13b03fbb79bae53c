package benchmark

import (
	"context"
	"crypto/rand"
	"strings"
	"testing"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/yndnr/respkv/internal/cli/connection"
	"github.com/yndnr/respkv/internal/server/redisserver"
	"github.com/yndnr/respkv/internal/storage/memory"
	"github.com/yndnr/respkv/internal/telemetry/logger"
)

// KeyCounts defines the key counts for benchmarking.
var KeyCounts = []int{1000, 10000, 100000, 500000}

// SmallKeyCounts for quick benchmarks.
var SmallKeyCounts = []int{1000, 5000, 10000}

// newKey generates a unique key.
func newKey() string {
	entropy := ulid.Monotonic(rand.Reader, 0)
	id, _ := ulid.New(ulid.Timestamp(time.Now()), entropy)
	return "key:" + strings.ToLower(id.String())
}

// prefillStore prefills a store with count keys and returns them.
func prefillStore(store *memory.Store, count int) []string {
	keys := make([]string, count)
	for i := range keys {
		keys[i] = newKey()
		store.Set(keys[i], "value", memory.SetOptions{})
	}
	return keys
}

// startServer runs a loopback server for the duration of the benchmark.
func startServer(b *testing.B) *redisserver.Server {
	b.Helper()
	cfg := redisserver.DefaultConfig()
	cfg.Addr = "127.0.0.1:0"

	srv := redisserver.New(cfg, redisserver.NewStoreHandler(memory.New()),
		redisserver.WithLogger(logger.Discard()))
	if err := srv.Start(context.Background()); err != nil {
		b.Fatalf("Failed to start server: %v", err)
	}
	b.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(ctx)
	})
	return srv
}

func dial(b *testing.B, srv *redisserver.Server) *connection.Client {
	b.Helper()
	c, err := connection.Dial(context.Background(), srv.Addr().String())
	if err != nil {
		b.Fatalf("Failed to dial: %v", err)
	}
	b.Cleanup(func() { c.Close() })
	return c
}
