package resp

import (
	"bytes"
	"errors"
	"fmt"
	"strconv"
)

// Protocol limits to prevent DoS attacks.
const (
	// MaxArrayLen limits the number of elements in a RESP array.
	MaxArrayLen = 1024 * 1024

	// MaxBulkLen limits the size of a single bulk string (512MB, as Redis).
	MaxBulkLen = 512 * 1024 * 1024

	// MaxLineLen limits a header or simple string line (64KB).
	MaxLineLen = 64 * 1024
)

var (
	ErrProtocol      = errors.New("resp: protocol error")
	ErrLimitExceeded = errors.New("resp: limit exceeded")
	// ErrIncomplete means the buffer ends inside a frame. It is never
	// returned by Decode, which stops at the last complete frame instead.
	ErrIncomplete = errors.New("resp: incomplete frame")
)

var crlf = []byte("\r\n")

// Decode decodes every complete frame at the start of buf.
//
// It returns the decoded values and the number of bytes they occupy. A
// trailing partial frame is left unconsumed so the caller can retry once more
// bytes arrive; a buffer holding only a partial frame yields (nil, 0, nil).
// On malformed input the error wraps ErrProtocol or ErrLimitExceeded and the
// values decoded before the bad frame are still returned.
//
// Decode keeps no state between calls, so a partial frame is scanned again
// from its first byte. Long-lived readers should use a Decoder.
func Decode(buf []byte) ([]Value, int, error) {
	var d Decoder
	return d.Decode(buf)
}

// DecodeOne decodes the first frame in buf and returns it with its length.
// It returns ErrIncomplete if buf does not hold a whole frame.
func DecodeOne(buf []byte) (Value, int, error) {
	var d Decoder
	return d.next(buf, 0)
}

// Decoder is a resumable decoder for one byte stream.
//
// It remembers how far a trailing partial frame was decoded, so each byte of
// a frame is parsed once no matter how many reads it is split across. The
// caller must drop exactly the n bytes reported by Decode from the front of
// its buffer, leave the remaining bytes untouched and append new data after
// them before the next call.
//
// Nesting depth is limited only by memory: open arrays are tracked on an
// explicit stack instead of the goroutine stack.
//
// The zero value is ready to use. A Decoder is not safe for concurrent use.
type Decoder struct {
	// stack holds the arrays of the partial frame that are still open,
	// outermost first.
	stack []arrayFrame
	// resume is the offset, relative to the partial frame's first byte, of
	// the next header to decode.
	resume int
}

type arrayFrame struct {
	elems     []Value
	remaining int
}

// Decode decodes every complete frame at the start of buf, continuing a
// partial frame left by the previous call. It has the same results as the
// package-level Decode. After an error the Decoder is reset.
func (d *Decoder) Decode(buf []byte) ([]Value, int, error) {
	var out []Value
	pos := 0
	for pos < len(buf) {
		v, next, err := d.next(buf, pos)
		if errors.Is(err, ErrIncomplete) {
			break
		}
		if err != nil {
			d.Reset()
			return out, pos, err
		}
		out = append(out, v)
		pos = next
	}
	return out, pos, nil
}

// Reset discards any partial frame state.
func (d *Decoder) Reset() {
	clear(d.stack)
	d.stack = d.stack[:0]
	d.resume = 0
}

// next decodes the frame that begins at start. On ErrIncomplete the open
// arrays and the resume offset are kept for the next call.
func (d *Decoder) next(buf []byte, start int) (Value, int, error) {
	pos := start + d.resume
	d.resume = 0

	for {
		v, next, open, err := decodeHeader(buf, pos)
		if errors.Is(err, ErrIncomplete) {
			d.resume = pos - start
			return Value{}, start, err
		}
		if err != nil {
			return Value{}, start, err
		}
		pos = next

		if open > 0 {
			// Capacity grows with what actually arrives, not with the
			// declared count.
			d.stack = append(d.stack, arrayFrame{
				elems:     make([]Value, 0, min(open, 16)),
				remaining: open,
			})
			continue
		}

		// Close every array the value completes.
		for len(d.stack) > 0 {
			top := &d.stack[len(d.stack)-1]
			top.elems = append(top.elems, v)
			top.remaining--
			if top.remaining > 0 {
				break
			}
			v = Value{Kind: KindArray, Elems: top.elems}
			top.elems = nil
			d.stack = d.stack[:len(d.stack)-1]
		}
		if len(d.stack) == 0 {
			return v, pos, nil
		}
	}
}

// decodeHeader decodes the item at pos. Scalars, Null and empty arrays are
// returned whole; a non-empty array returns only its element count in open.
func decodeHeader(buf []byte, pos int) (v Value, next int, open int, err error) {
	if pos >= len(buf) {
		return Value{}, pos, 0, ErrIncomplete
	}

	prefix := buf[pos]
	switch prefix {
	case prefixSimpleString, prefixSimpleError:
		line, next, err := readLine(buf, pos+1)
		if err != nil {
			return Value{}, pos, 0, err
		}
		kind := KindSimpleString
		if prefix == prefixSimpleError {
			kind = KindSimpleError
		}
		return Value{Kind: kind, Str: string(line)}, next, 0, nil

	case prefixInteger:
		line, next, err := readLine(buf, pos+1)
		if err != nil {
			return Value{}, pos, 0, err
		}
		n, err := strconv.ParseInt(string(line), 10, 64)
		if err != nil {
			return Value{}, pos, 0, fmt.Errorf("%w: invalid integer %q", ErrProtocol, line)
		}
		return Integer(n), next, 0, nil

	case prefixBulkString:
		v, next, err := decodeBulk(buf, pos)
		return v, next, 0, err

	case prefixArray:
		n, next, err := readLength(buf, pos+1, MaxArrayLen)
		if err != nil {
			return Value{}, pos, 0, err
		}
		switch n {
		case -1:
			return Null(), next, 0, nil
		case 0:
			return Array(), next, 0, nil
		}
		return Value{}, next, n, nil

	default:
		return Value{}, pos, 0, fmt.Errorf("%w: unexpected type byte %q", ErrProtocol, prefix)
	}
}

func decodeBulk(buf []byte, pos int) (Value, int, error) {
	n, next, err := readLength(buf, pos+1, MaxBulkLen)
	if err != nil {
		return Value{}, pos, err
	}
	if n == -1 {
		return Null(), next, nil
	}

	end := next + n
	if len(buf) < end+len(crlf) {
		return Value{}, pos, ErrIncomplete
	}
	if buf[end] != '\r' || buf[end+1] != '\n' {
		return Value{}, pos, fmt.Errorf("%w: invalid bulk terminator", ErrProtocol)
	}
	return BulkString(string(buf[next:end])), end + len(crlf), nil
}

// readLength reads a "<n>\r\n" header where n is -1 or in [0, limit].
func readLength(buf []byte, start, limit int) (int, int, error) {
	line, next, err := readLine(buf, start)
	if err != nil {
		return 0, start, err
	}
	n, err := strconv.ParseInt(string(line), 10, 64)
	if err != nil || n < -1 {
		return 0, start, fmt.Errorf("%w: invalid length %q", ErrProtocol, line)
	}
	if n > int64(limit) {
		return 0, start, fmt.Errorf("%w: length %d exceeds limit %d", ErrLimitExceeded, n, limit)
	}
	return int(n), next, nil
}

// readLine returns the bytes between start and the next CR LF, and the
// offset just past the terminator.
func readLine(buf []byte, start int) ([]byte, int, error) {
	rest := buf[start:]
	i := bytes.IndexByte(rest, '\n')
	if i < 0 {
		// A CR followed by anything can never become a terminator.
		if j := bytes.IndexByte(rest, '\r'); j >= 0 && j+1 < len(rest) {
			return nil, start, fmt.Errorf("%w: missing LF after CR", ErrProtocol)
		}
		if len(rest) > MaxLineLen {
			return nil, start, fmt.Errorf("%w: line length exceeds limit %d", ErrLimitExceeded, MaxLineLen)
		}
		return nil, start, ErrIncomplete
	}
	if i == 0 || rest[i-1] != '\r' {
		return nil, start, fmt.Errorf("%w: missing CRLF", ErrProtocol)
	}

	line := rest[:i-1]
	if bytes.IndexByte(line, '\r') >= 0 {
		return nil, start, fmt.Errorf("%w: unexpected CR in line", ErrProtocol)
	}
	if len(line) > MaxLineLen {
		return nil, start, fmt.Errorf("%w: line length exceeds limit %d", ErrLimitExceeded, MaxLineLen)
	}
	return line, start + i + 1, nil
}

// Encode returns the wire form of v.
func Encode(v Value) []byte {
	return AppendValue(nil, v)
}

// AppendValue appends the wire form of v to dst and returns the extended
// buffer. Null is always written as "*-1\r\n".
func AppendValue(dst []byte, v Value) []byte {
	switch v.Kind {
	case KindSimpleString:
		dst = append(dst, prefixSimpleString)
		dst = append(dst, v.Str...)
	case KindSimpleError:
		dst = append(dst, prefixSimpleError)
		dst = append(dst, v.Str...)
	case KindInteger:
		dst = append(dst, prefixInteger)
		dst = strconv.AppendInt(dst, v.Int, 10)
	case KindBulkString:
		dst = append(dst, prefixBulkString)
		dst = strconv.AppendInt(dst, int64(len(v.Str)), 10)
		dst = append(dst, crlf...)
		dst = append(dst, v.Str...)
	case KindArray:
		dst = append(dst, prefixArray)
		dst = strconv.AppendInt(dst, int64(len(v.Elems)), 10)
		dst = append(dst, crlf...)
		for _, e := range v.Elems {
			dst = AppendValue(dst, e)
		}
		return dst
	default:
		dst = append(dst, prefixArray, '-', '1')
	}
	return append(dst, crlf...)
}
