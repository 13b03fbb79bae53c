package redisserver

import (
	"net"
	"sync/atomic"
	"time"

	"github.com/oklog/ulid/v2"
	"golang.org/x/time/rate"

	"github.com/yndnr/respkv/pkg/resp"
)

// ConnState is the lifecycle state of a client connection.
type ConnState int32

const (
	// StateConnected means the receive buffer holds no partial frame.
	StateConnected ConnState = iota
	// StateAwaitingMoreData means a partial frame is buffered.
	StateAwaitingMoreData
	// StateClosed is terminal.
	StateClosed
)

func (s ConnState) String() string {
	switch s {
	case StateConnected:
		return "connected"
	case StateAwaitingMoreData:
		return "awaiting-more-data"
	case StateClosed:
		return "closed"
	default:
		return "unknown"
	}
}

// readChunkSize is the size of a single socket read.
const readChunkSize = 16 * 1024

// Conn represents a single Redis client connection.
//
// Only the connection goroutine touches the buffers. State and Close are
// safe for concurrent use.
type Conn struct {
	id        string
	netConn   net.Conn
	createdAt time.Time

	// in holds received bytes not yet decoded (at most one partial frame
	// after each decode pass); out holds encoded replies awaiting a flush.
	in  []byte
	out []byte
	// dec remembers how far the partial frame in in has been decoded.
	dec resp.Decoder

	limiter *rate.Limiter

	state  atomic.Int32
	closed atomic.Bool
}

// newConn wraps c. A positive rateLimit caps commands per second with a
// burst of the same size.
func newConn(c net.Conn, rateLimit int) *Conn {
	conn := &Conn{
		id:        ulid.Make().String(),
		netConn:   c,
		createdAt: time.Now(),
	}
	if rateLimit > 0 {
		conn.limiter = rate.NewLimiter(rate.Limit(rateLimit), rateLimit)
	}
	return conn
}

// ID returns the connection's unique, time-ordered identifier.
func (c *Conn) ID() string {
	return c.id
}

func (c *Conn) RemoteAddr() net.Addr {
	return c.netConn.RemoteAddr()
}

// State returns the current lifecycle state.
func (c *Conn) State() ConnState {
	return ConnState(c.state.Load())
}

func (c *Conn) setState(s ConnState) {
	if c.State() == StateClosed {
		return
	}
	c.state.Store(int32(s))
}

// allow reports whether another command may run now.
func (c *Conn) allow() bool {
	return c.limiter == nil || c.limiter.Allow()
}

// consume drops the first n bytes of the receive buffer, keeping the
// remainder at the front for the next read.
func (c *Conn) consume(n int) {
	if n == 0 {
		return
	}
	rest := copy(c.in, c.in[n:])
	c.in = c.in[:rest]
}

// flush writes pending replies within timeout.
func (c *Conn) flush(timeout time.Duration) error {
	if len(c.out) == 0 {
		return nil
	}
	if err := c.netConn.SetWriteDeadline(time.Now().Add(timeout)); err != nil {
		return err
	}
	_, err := c.netConn.Write(c.out)
	c.out = c.out[:0]
	return err
}

// Close closes the connection. It is safe to call more than once.
func (c *Conn) Close() error {
	if !c.closed.CompareAndSwap(false, true) {
		return nil
	}
	c.state.Store(int32(StateClosed))
	return c.netConn.Close()
}
