package connection

import (
	"context"
	"errors"
	"fmt"
	"net"
	"time"

	"github.com/yndnr/respkv/pkg/resp"
)

// DefaultTimeout bounds each request when no context deadline is set.
const DefaultTimeout = 10 * time.Second

// ErrClosed is returned when using a closed client.
var ErrClosed = errors.New("connection: client closed")

// Client is a RESP client. It is not safe for concurrent use.
type Client struct {
	addr    string
	conn    net.Conn
	timeout time.Duration

	// buf holds received bytes not yet returned as replies.
	buf     []byte
	dec     resp.Decoder
	pending []resp.Value
}

// Option configures a Client.
type Option func(*Client)

// WithTimeout sets the per-request timeout.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		c.timeout = d
	}
}

// Dial connects to a RESP server at addr.
func Dial(ctx context.Context, addr string, opts ...Option) (*Client, error) {
	c := &Client{addr: addr, timeout: DefaultTimeout}
	for _, opt := range opts {
		opt(c)
	}

	var d net.Dialer
	dialCtx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	conn, err := d.DialContext(dialCtx, "tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("dial %s: %w", addr, err)
	}
	c.conn = conn
	return c, nil
}

// Addr returns the server address.
func (c *Client) Addr() string {
	return c.addr
}

// Do sends a command and waits for its reply. Error replies are returned
// as values, not as errors.
func (c *Client) Do(ctx context.Context, args ...string) (resp.Value, error) {
	if err := c.Send(ctx, args...); err != nil {
		return resp.Value{}, err
	}
	return c.Receive(ctx)
}

// Send writes a command without waiting for the reply.
func (c *Client) Send(ctx context.Context, args ...string) error {
	if len(args) == 0 {
		return errors.New("connection: empty command")
	}
	elems := make([]resp.Value, len(args))
	for i, a := range args {
		elems[i] = resp.BulkString(a)
	}
	return c.WriteRaw(ctx, resp.Encode(resp.Array(elems...)))
}

// WriteRaw writes b to the server as is.
func (c *Client) WriteRaw(ctx context.Context, b []byte) error {
	if c.conn == nil {
		return ErrClosed
	}
	if err := c.conn.SetWriteDeadline(c.deadline(ctx)); err != nil {
		return err
	}
	if _, err := c.conn.Write(b); err != nil {
		return fmt.Errorf("write: %w", err)
	}
	return nil
}

// Receive returns the next reply, reading from the server as needed.
func (c *Client) Receive(ctx context.Context) (resp.Value, error) {
	if c.conn == nil {
		return resp.Value{}, ErrClosed
	}

	chunk := make([]byte, 4096)
	for len(c.pending) == 0 {
		if err := c.conn.SetReadDeadline(c.deadline(ctx)); err != nil {
			return resp.Value{}, err
		}
		n, err := c.conn.Read(chunk)
		if n > 0 {
			c.buf = append(c.buf, chunk[:n]...)
			values, consumed, decErr := c.dec.Decode(c.buf)
			c.pending = append(c.pending, values...)
			c.buf = c.buf[:copy(c.buf, c.buf[consumed:])]
			if decErr != nil {
				return resp.Value{}, fmt.Errorf("decode reply: %w", decErr)
			}
		}
		if err != nil && len(c.pending) == 0 {
			return resp.Value{}, fmt.Errorf("read: %w", err)
		}
	}

	v := c.pending[0]
	c.pending = c.pending[1:]
	return v, nil
}

// Close closes the connection.
func (c *Client) Close() error {
	if c.conn == nil {
		return nil
	}
	err := c.conn.Close()
	c.conn = nil
	return err
}

func (c *Client) deadline(ctx context.Context) time.Time {
	if d, ok := ctx.Deadline(); ok {
		return d
	}
	return time.Now().Add(c.timeout)
}
