package redisserver

import (
	"context"

	"github.com/yndnr/respkv/internal/storage/memory"
	"github.com/yndnr/respkv/internal/telemetry/logger"
	"github.com/yndnr/respkv/pkg/resp"
)

// Handler executes commands and produces replies.
//
// Handle is called concurrently from every connection goroutine.
type Handler interface {
	Handle(ctx context.Context, cmd Command) resp.Value
}

// StoreHandler executes commands against a memory.Store.
type StoreHandler struct {
	store *memory.Store
}

// NewStoreHandler creates a handler backed by store.
func NewStoreHandler(store *memory.Store) *StoreHandler {
	return &StoreHandler{store: store}
}

// Handle implements Handler.
func (h *StoreHandler) Handle(ctx context.Context, cmd Command) resp.Value {
	switch c := cmd.(type) {
	case Ping:
		if c.HasMessage {
			return resp.BulkString(c.Message)
		}
		return resp.SimpleString("PONG")

	case Echo:
		return resp.BulkString(c.Message)

	case Get:
		if v, ok := h.store.Get(c.Key); ok {
			return resp.BulkString(v)
		}
		return resp.Null()

	case Set:
		res := h.store.Set(c.Key, c.Value, c.Options)
		logger.L(ctx).Debug("set", "key", c.Key, "applied", res.Applied)
		if c.Options.Get {
			if res.HadOld {
				return resp.BulkString(res.Old)
			}
			return resp.Null()
		}
		if !res.Applied {
			return resp.Null()
		}
		return resp.OK()

	case ConfigGet:
		return resp.Integer(0)

	case Client:
		return resp.OK()
	}

	return errUnknownCommand(cmd.Name()).Reply()
}
