// Package output provides output formatting for respkv-cli.
package output

import (
	"fmt"
	"io"

	"github.com/yndnr/respkv/pkg/resp"
)

// Format represents the output format.
type Format string

const (
	FormatText Format = "text"
	FormatRaw  Format = "raw"
	FormatJSON Format = "json"
)

// ParseFormat validates a format name.
func ParseFormat(s string) (Format, error) {
	switch f := Format(s); f {
	case FormatText, FormatRaw, FormatJSON:
		return f, nil
	}
	return "", fmt.Errorf("unknown output format %q (want text, raw or json)", s)
}

// Formatter writes one reply.
type Formatter interface {
	Format(w io.Writer, v resp.Value) error
}

// NewFormatter creates a formatter for the given format.
func NewFormatter(format Format) Formatter {
	switch format {
	case FormatRaw:
		return RawFormatter{}
	case FormatJSON:
		return JSONFormatter{}
	default:
		return TextFormatter{}
	}
}

// TextFormatter prints replies the way redis-cli does on a terminal.
type TextFormatter struct{}

func (TextFormatter) Format(w io.Writer, v resp.Value) error {
	_, err := fmt.Fprintln(w, v.String())
	return err
}

// RawFormatter prints bare values. Nulls print as empty lines and array
// elements print one per line.
type RawFormatter struct{}

func (f RawFormatter) Format(w io.Writer, v resp.Value) error {
	switch v.Kind {
	case resp.KindArray:
		for _, e := range v.Elems {
			if err := f.Format(w, e); err != nil {
				return err
			}
		}
		return nil
	case resp.KindInteger:
		_, err := fmt.Fprintln(w, v.Int)
		return err
	case resp.KindNull:
		_, err := fmt.Fprintln(w)
		return err
	default:
		_, err := fmt.Fprintln(w, v.Str)
		return err
	}
}
