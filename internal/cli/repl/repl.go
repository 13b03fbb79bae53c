// Package repl provides the line-oriented command mode for respkv-cli.
package repl

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
)

// ErrUnbalancedQuotes is returned by SplitArgs for an unterminated quote.
var ErrUnbalancedQuotes = errors.New("repl: unbalanced quotes")

// Executor runs one command. A returned error ends the loop.
type Executor func(ctx context.Context, args []string) error

// REPL represents the Read-Eval-Print Loop.
type REPL struct {
	input  io.Reader
	output io.Writer
	prompt string
	exec   Executor
}

// Option configures a REPL.
type Option func(*REPL)

// WithPrompt shows prompt before each line.
func WithPrompt(prompt string) Option {
	return func(r *REPL) {
		r.prompt = prompt
	}
}

// New creates a new REPL instance.
func New(in io.Reader, out io.Writer, exec Executor, opts ...Option) *REPL {
	r := &REPL{input: in, output: out, exec: exec}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Run reads lines until EOF, quit or an executor error.
func (r *REPL) Run(ctx context.Context) error {
	scanner := bufio.NewScanner(r.input)
	scanner.Buffer(make([]byte, 64*1024), 1024*1024)

	for {
		if r.prompt != "" {
			fmt.Fprint(r.output, r.prompt)
		}

		if !scanner.Scan() {
			if r.prompt != "" {
				fmt.Fprintln(r.output)
			}
			return scanner.Err()
		}

		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		if strings.EqualFold(line, "quit") || strings.EqualFold(line, "exit") {
			return nil
		}

		args, err := SplitArgs(line)
		if err != nil {
			fmt.Fprintf(r.output, "(error) %v\n", err)
			continue
		}

		if err := ctx.Err(); err != nil {
			return err
		}
		if err := r.exec(ctx, args); err != nil {
			return err
		}
	}
}

// SplitArgs splits a command line into arguments.
func SplitArgs(line string) ([]string, error) {
	var (
		args    []string
		cur     strings.Builder
		inArg   bool
		quote   byte
		escaped bool
	)

	for i := 0; i < len(line); i++ {
		ch := line[i]

		switch {
		case escaped:
			cur.WriteByte(unescape(ch))
			escaped = false

		case quote == '"':
			switch ch {
			case '\\':
				escaped = true
			case '"':
				quote = 0
			default:
				cur.WriteByte(ch)
			}

		case quote == '\'':
			if ch == '\'' {
				quote = 0
			} else {
				cur.WriteByte(ch)
			}

		case ch == '"' || ch == '\'':
			quote = ch
			inArg = true

		case ch == ' ' || ch == '\t':
			if inArg {
				args = append(args, cur.String())
				cur.Reset()
				inArg = false
			}

		default:
			cur.WriteByte(ch)
			inArg = true
		}
	}

	if quote != 0 || escaped {
		return nil, ErrUnbalancedQuotes
	}
	if inArg {
		args = append(args, cur.String())
	}
	return args, nil
}

func unescape(ch byte) byte {
	switch ch {
	case 'n':
		return '\n'
	case 'r':
		return '\r'
	case 't':
		return '\t'
	default:
		return ch
	}
}
