// Package shutdown provides graceful shutdown for respkv.
//
// A Handler waits for SIGINT or SIGTERM (or an explicit Trigger) and then
// runs the registered hooks in reverse registration order under a single
// timeout. Resources started last are therefore stopped first.
//
// Usage:
//
//	h := shutdown.NewHandler(10 * time.Second)
//	h.OnShutdown("redis server", srv.Shutdown)
//	err := h.Wait(ctx)
package shutdown
