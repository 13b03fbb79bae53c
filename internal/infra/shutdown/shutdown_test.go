package shutdown

import (
	"context"
	"errors"
	"sync"
	"syscall"
	"testing"
	"time"

	"github.com/yndnr/respkv/internal/telemetry/logger"
)

func newTestHandler(timeout time.Duration) *Handler {
	h := NewHandler(timeout)
	h.SetLogger(logger.Discard())
	return h
}

// recordHooks registers n hooks that append their index to the returned
// slice when called.
func recordHooks(h *Handler, n int) (*[]int, *sync.Mutex) {
	var order []int
	var mu sync.Mutex
	for i := 1; i <= n; i++ {
		id := i
		h.OnShutdown("hook", func(context.Context) error {
			mu.Lock()
			order = append(order, id)
			mu.Unlock()
			return nil
		})
	}
	return &order, &mu
}

func waitResult(t *testing.T, errCh <-chan error) error {
	t.Helper()
	select {
	case err := <-errCh:
		return err
	case <-time.After(2 * time.Second):
		t.Fatal("Wait() did not complete in time")
		return nil
	}
}

func TestHandler_Done(t *testing.T) {
	h := newTestHandler(5 * time.Second)

	select {
	case <-h.Done():
		t.Error("Done channel should not be closed initially")
	default:
	}
}

func TestHandler_Wait_WithSignal(t *testing.T) {
	h := newTestHandler(5 * time.Second)
	order, mu := recordHooks(h, 3)

	errCh := make(chan error, 1)
	go func() {
		errCh <- h.Wait(context.Background())
	}()

	// Give Wait time to set up signal handler
	time.Sleep(50 * time.Millisecond)
	syscall.Kill(syscall.Getpid(), syscall.SIGINT)

	if err := waitResult(t, errCh); err != nil {
		t.Errorf("Wait() returned error: %v", err)
	}

	mu.Lock()
	defer mu.Unlock()
	if len(*order) != 3 || (*order)[0] != 3 || (*order)[1] != 2 || (*order)[2] != 1 {
		t.Errorf("hooks called in order %v, want [3 2 1]", *order)
	}

	select {
	case <-h.Done():
	default:
		t.Error("Done channel should be closed after Wait completes")
	}
}

func TestHandler_Trigger(t *testing.T) {
	h := newTestHandler(5 * time.Second)
	order, mu := recordHooks(h, 2)

	errCh := make(chan error, 1)
	go func() {
		errCh <- h.Wait(context.Background())
	}()

	h.Trigger()
	h.Trigger() // idempotent

	if err := waitResult(t, errCh); err != nil {
		t.Errorf("Wait() returned error: %v", err)
	}
	mu.Lock()
	defer mu.Unlock()
	if len(*order) != 2 {
		t.Errorf("called %d hooks, want 2", len(*order))
	}
}

func TestHandler_Wait_ContextDone(t *testing.T) {
	h := newTestHandler(5 * time.Second)
	order, mu := recordHooks(h, 1)

	ctx, cancel := context.WithCancel(context.Background())
	errCh := make(chan error, 1)
	go func() {
		errCh <- h.Wait(ctx)
	}()
	cancel()

	if err := waitResult(t, errCh); err != nil {
		t.Errorf("Wait() returned error: %v", err)
	}
	mu.Lock()
	defer mu.Unlock()
	if len(*order) != 1 {
		t.Errorf("called %d hooks, want 1", len(*order))
	}
}

func TestHandler_Wait_HookErrors(t *testing.T) {
	h := newTestHandler(5 * time.Second)

	errA := errors.New("a failed")
	errB := errors.New("b failed")
	var lastRan bool

	h.OnShutdown("first", func(context.Context) error {
		lastRan = true
		return nil
	})
	h.OnShutdown("a", func(context.Context) error { return errA })
	h.OnShutdown("b", func(context.Context) error { return errB })

	errCh := make(chan error, 1)
	go func() {
		errCh <- h.Wait(context.Background())
	}()
	h.Trigger()

	err := waitResult(t, errCh)
	if !errors.Is(err, errA) || !errors.Is(err, errB) {
		t.Errorf("Wait() = %v, want both hook errors", err)
	}
	if !lastRan {
		t.Error("hooks after a failing hook should still run")
	}
}

func TestHandler_HookTimeout(t *testing.T) {
	h := newTestHandler(50 * time.Millisecond)
	h.OnShutdown("slow", func(ctx context.Context) error {
		<-ctx.Done()
		return ctx.Err()
	})

	errCh := make(chan error, 1)
	go func() {
		errCh <- h.Wait(context.Background())
	}()
	h.Trigger()

	if err := waitResult(t, errCh); !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("Wait() = %v, want DeadlineExceeded", err)
	}
}

func TestHandler_ConcurrentOnShutdown(t *testing.T) {
	h := newTestHandler(5 * time.Second)

	var wg sync.WaitGroup
	numGoroutines := 10
	for i := 0; i < numGoroutines; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			h.OnShutdown("noop", func(context.Context) error { return nil })
		}()
	}
	wg.Wait()

	h.mu.Lock()
	defer h.mu.Unlock()
	if len(h.hooks) != numGoroutines {
		t.Errorf("expected %d hooks, got %d", numGoroutines, len(h.hooks))
	}
}
