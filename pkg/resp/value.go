// Package resp implements the RESP2 wire format used by respkv.
package resp

import (
	"strconv"
	"strings"
)

// Kind identifies the variant held by a Value.
type Kind uint8

const (
	KindNull Kind = iota
	KindSimpleString
	KindSimpleError
	KindInteger
	KindBulkString
	KindArray
)

// Wire type prefixes.
const (
	prefixSimpleString = '+'
	prefixSimpleError  = '-'
	prefixInteger      = ':'
	prefixBulkString   = '$'
	prefixArray        = '*'
)

func (k Kind) String() string {
	switch k {
	case KindNull:
		return "null"
	case KindSimpleString:
		return "simple-string"
	case KindSimpleError:
		return "simple-error"
	case KindInteger:
		return "integer"
	case KindBulkString:
		return "bulk-string"
	case KindArray:
		return "array"
	default:
		return "kind(" + strconv.Itoa(int(k)) + ")"
	}
}

// Value is a single RESP value. The zero Value is Null.
//
// Str holds the text of simple strings, errors and bulk strings, Int holds
// integers and Elems holds array elements.
type Value struct {
	Kind  Kind
	Str   string
	Int   int64
	Elems []Value
}

var lineBreaks = strings.NewReplacer("\r\n", " ", "\r", " ", "\n", " ")

// SimpleString returns a simple string value. CR and LF are replaced by
// spaces since they delimit the frame on the wire.
func SimpleString(s string) Value {
	return Value{Kind: KindSimpleString, Str: lineBreaks.Replace(s)}
}

// SimpleError returns a simple error value. CR and LF are replaced by spaces.
func SimpleError(s string) Value {
	return Value{Kind: KindSimpleError, Str: lineBreaks.Replace(s)}
}

// Integer returns an integer value.
func Integer(n int64) Value {
	return Value{Kind: KindInteger, Int: n}
}

// BulkString returns a binary-safe bulk string value.
func BulkString(s string) Value {
	return Value{Kind: KindBulkString, Str: s}
}

// Array returns an array value holding elems.
func Array(elems ...Value) Value {
	if elems == nil {
		elems = []Value{}
	}
	return Value{Kind: KindArray, Elems: elems}
}

// Null returns the null value.
func Null() Value {
	return Value{}
}

// OK is the "+OK" reply.
func OK() Value {
	return SimpleString("OK")
}

// IsNull reports whether v is Null.
func (v Value) IsNull() bool {
	return v.Kind == KindNull
}

// IsError reports whether v is a simple error.
func (v Value) IsError() bool {
	return v.Kind == KindSimpleError
}

// Equal reports whether v and o hold the same variant and content.
func (v Value) Equal(o Value) bool {
	if v.Kind != o.Kind {
		return false
	}
	switch v.Kind {
	case KindNull:
		return true
	case KindInteger:
		return v.Int == o.Int
	case KindArray:
		if len(v.Elems) != len(o.Elems) {
			return false
		}
		for i := range v.Elems {
			if !v.Elems[i].Equal(o.Elems[i]) {
				return false
			}
		}
		return true
	default:
		return v.Str == o.Str
	}
}

// maxRenderDepth bounds how many nested arrays String prints. Deeper
// arrays are elided as "(...)".
const maxRenderDepth = 32

// String renders v in a redis-cli like form for logs and terminals.
func (v Value) String() string {
	var b strings.Builder
	v.render(&b, 0)
	return b.String()
}

func (v Value) render(b *strings.Builder, depth int) {
	switch v.Kind {
	case KindNull:
		b.WriteString("(nil)")
	case KindSimpleString:
		b.WriteString(v.Str)
	case KindSimpleError:
		b.WriteString("(error) ")
		b.WriteString(v.Str)
	case KindInteger:
		b.WriteString("(integer) ")
		b.WriteString(strconv.FormatInt(v.Int, 10))
	case KindBulkString:
		b.WriteString(strconv.Quote(v.Str))
	case KindArray:
		if len(v.Elems) == 0 {
			b.WriteString("(empty array)")
			return
		}
		if depth >= maxRenderDepth {
			b.WriteString("(...)")
			return
		}
		for i, e := range v.Elems {
			if i > 0 {
				b.WriteByte('\n')
				b.WriteString(strings.Repeat("   ", depth))
			}
			b.WriteString(strconv.Itoa(i + 1))
			b.WriteString(") ")
			e.render(b, depth+1)
		}
	}
}
