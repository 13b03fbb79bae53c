package redisserver

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/puzpuzpuz/xsync/v3"

	"github.com/yndnr/respkv/internal/telemetry/logger"
	"github.com/yndnr/respkv/internal/telemetry/metric"
	"github.com/yndnr/respkv/pkg/resp"
)

// Config holds the Redis server configuration.
type Config struct {
	// Addr is the TCP listen address.
	Addr string
	// ReadTimeout bounds the wait for the rest of a partially received
	// command (slowloris protection).
	ReadTimeout time.Duration
	// WriteTimeout bounds writing a batch of replies.
	WriteTimeout time.Duration
	// IdleTimeout closes connections with no pending data for this long.
	IdleTimeout time.Duration
	// MaxConnections caps concurrent clients. 0 means unlimited.
	MaxConnections int
	// RateLimit is the maximum number of commands per second per
	// connection. 0 disables rate limiting.
	RateLimit int
}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{
		Addr:         "127.0.0.1:6379",
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  5 * time.Minute,
	}
}

// Server is the Redis protocol server.
type Server struct {
	cfg     *Config
	handler Handler
	logger  logger.Logger
	metrics *metric.Registry

	mu sync.Mutex
	ln net.Listener

	conns   *xsync.MapOf[string, *Conn]
	active  atomic.Int64
	running atomic.Bool
	wg      sync.WaitGroup
}

// Option configures a Server.
type Option func(*Server)

// WithLogger sets the server logger.
func WithLogger(l logger.Logger) Option {
	return func(s *Server) {
		s.logger = l
	}
}

// WithMetrics enables metrics recording.
func WithMetrics(m *metric.Registry) Option {
	return func(s *Server) {
		s.metrics = m
	}
}

// New creates a new Redis protocol server dispatching to handler.
func New(cfg *Config, handler Handler, opts ...Option) *Server {
	if cfg == nil {
		cfg = DefaultConfig()
	}

	s := &Server{
		cfg:     cfg,
		handler: handler,
		logger:  logger.Default(),
		conns:   xsync.NewMapOf[string, *Conn](),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Start binds the listener and serves connections in the background.
// A bind failure is returned to the caller.
func (s *Server) Start(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.cfg.Addr)
	if err != nil {
		return fmt.Errorf("listen %s: %w", s.cfg.Addr, err)
	}
	s.bind(ln)

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		s.acceptLoop(ctx, ln)
	}()
	return nil
}

// Serve accepts connections on ln and blocks until Shutdown closes it or
// ctx is done. Accept errors are retried with backoff.
func (s *Server) Serve(ctx context.Context, ln net.Listener) {
	s.bind(ln)

	s.wg.Add(1)
	defer s.wg.Done()
	s.acceptLoop(ctx, ln)
}

func (s *Server) bind(ln net.Listener) {
	s.mu.Lock()
	s.ln = ln
	s.mu.Unlock()
	s.running.Store(true)

	s.logger.Info("redis server listening", "address", ln.Addr().String())
}

// Addr returns the bound listen address, or nil before Start.
func (s *Server) Addr() net.Addr {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.ln == nil {
		return nil
	}
	return s.ln.Addr()
}

// ConnCount returns the number of open client connections.
func (s *Server) ConnCount() int {
	return s.conns.Size()
}

// Shutdown stops accepting, closes every client connection and waits for
// connection goroutines to exit or ctx to expire.
func (s *Server) Shutdown(ctx context.Context) error {
	s.running.Store(false)

	var firstErr error
	s.mu.Lock()
	if s.ln != nil {
		if err := s.ln.Close(); err != nil && !errors.Is(err, net.ErrClosed) {
			firstErr = err
		}
	}
	s.mu.Unlock()

	s.conns.Range(func(_ string, c *Conn) bool {
		_ = c.Close()
		return true
	})

	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
	case <-ctx.Done():
		return ctx.Err()
	}

	return firstErr
}

// Accept backoff bounds for transient errors such as EMFILE.
const (
	minAcceptDelay = 5 * time.Millisecond
	maxAcceptDelay = time.Second
)

func (s *Server) acceptLoop(ctx context.Context, ln net.Listener) {
	var delay time.Duration
	for {
		c, err := ln.Accept()
		if err != nil {
			if !s.running.Load() || errors.Is(err, net.ErrClosed) {
				return
			}

			if delay == 0 {
				delay = minAcceptDelay
			} else {
				delay = min(2*delay, maxAcceptDelay)
			}
			s.logger.Warn("accept error, retrying", "error", err, "retry_in", delay)

			timer := time.NewTimer(delay)
			select {
			case <-ctx.Done():
				timer.Stop()
				return
			case <-timer.C:
			}
			continue
		}
		delay = 0

		conn := newConn(c, s.cfg.RateLimit)
		if !s.admit(conn) {
			continue
		}

		s.wg.Add(1)
		go func() {
			defer s.wg.Done()
			s.serveConn(ctx, conn)
		}()
	}
}

// admit registers conn, or rejects it when the connection limit is reached.
func (s *Server) admit(c *Conn) bool {
	n := s.active.Add(1)
	if limit := s.cfg.MaxConnections; limit > 0 && n > int64(limit) {
		s.active.Add(-1)
		s.metrics.ConnRejected()
		s.logger.Warn("connection rejected", "remote", c.RemoteAddr().String(), "max_connections", limit)
		c.out = resp.AppendValue(c.out, resp.SimpleError("ERR max number of clients reached"))
		_ = c.flush(s.writeTimeout())
		_ = c.Close()
		return false
	}

	s.conns.Store(c.id, c)
	s.metrics.ConnOpened()
	return true
}

func (s *Server) release(c *Conn) {
	_ = c.Close()
	s.conns.Delete(c.id)
	s.active.Add(-1)
	s.metrics.ConnClosed()
}

func (s *Server) serveConn(ctx context.Context, c *Conn) {
	defer s.release(c)

	ctx = logger.WithLogger(ctx, s.logger.With("remote", c.RemoteAddr().String()))
	ctx = logger.WithConnID(ctx, c.id)
	log := logger.L(ctx)
	log.Debug("connection opened")

	chunk := make([]byte, readChunkSize)
	for {
		// Between commands the idle timeout applies; inside a partial
		// frame the tighter read timeout does.
		timeout := s.idleTimeout()
		if len(c.in) > 0 {
			timeout = s.readTimeout()
		}
		if err := c.netConn.SetReadDeadline(time.Now().Add(timeout)); err != nil {
			return
		}

		n, readErr := c.netConn.Read(chunk)
		if n > 0 {
			c.in = append(c.in, chunk[:n]...)
			if !s.process(ctx, c, log) {
				return
			}
		}

		if readErr != nil {
			logReadError(log, readErr)
			return
		}
	}
}

// process answers every complete command in the receive buffer. It returns
// false when the connection must be closed.
func (s *Server) process(ctx context.Context, c *Conn, log logger.Logger) bool {
	values, consumed, decodeErr := c.dec.Decode(c.in)
	for _, v := range values {
		c.out = resp.AppendValue(c.out, s.dispatch(ctx, c, v))
	}
	c.consume(consumed)

	if decodeErr != nil {
		s.metrics.ProtocolError()
		log.Warn("protocol error", "error", decodeErr)
		c.out = resp.AppendValue(c.out, protocolErrorReply(decodeErr))
		_ = c.flush(s.writeTimeout())
		return false
	}

	if len(c.in) > 0 {
		c.setState(StateAwaitingMoreData)
	} else {
		c.setState(StateConnected)
	}

	if err := c.flush(s.writeTimeout()); err != nil {
		log.Debug("connection write error", "error", err)
		return false
	}
	return true
}

// dispatch runs a single command frame and returns its reply.
func (s *Server) dispatch(ctx context.Context, c *Conn, v resp.Value) resp.Value {
	start := time.Now()

	cmd, err := ParseCommand(v)
	if err != nil {
		var ce *CommandError
		if !errors.As(err, &ce) {
			ce = &CommandError{Msg: "ERR " + err.Error()}
		}
		name := ce.Command
		if name == "" {
			name = "unknown"
		}
		s.metrics.ObserveCommand(name, true, time.Since(start))
		return ce.Reply()
	}

	if !c.allow() {
		s.metrics.ObserveCommand(cmd.Name(), true, time.Since(start))
		return resp.SimpleError("ERR rate limit exceeded")
	}

	reply := s.handler.Handle(ctx, cmd)
	s.metrics.ObserveCommand(cmd.Name(), reply.IsError(), time.Since(start))
	return reply
}

// protocolErrorReply renders a decode error as the reply sent before the
// connection is closed.
func protocolErrorReply(err error) resp.Value {
	msg := err.Error()
	for _, sentinel := range []error{resp.ErrProtocol, resp.ErrLimitExceeded} {
		msg = strings.TrimPrefix(msg, sentinel.Error()+": ")
	}
	return resp.SimpleError("ERR Protocol error: " + msg)
}

func logReadError(log logger.Logger, err error) {
	if errors.Is(err, io.EOF) || errors.Is(err, net.ErrClosed) {
		log.Debug("connection closed by peer")
		return
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		log.Debug("connection timed out")
		return
	}
	log.Debug("connection read error", "error", err)
}

func (s *Server) readTimeout() time.Duration {
	if s.cfg.ReadTimeout > 0 {
		return s.cfg.ReadTimeout
	}
	return 30 * time.Second
}

func (s *Server) writeTimeout() time.Duration {
	if s.cfg.WriteTimeout > 0 {
		return s.cfg.WriteTimeout
	}
	return 30 * time.Second
}

func (s *Server) idleTimeout() time.Duration {
	if s.cfg.IdleTimeout > 0 {
		return s.cfg.IdleTimeout
	}
	return 5 * time.Minute
}
