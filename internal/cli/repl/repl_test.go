package repl

import (
	"bytes"
	"context"
	"errors"
	"reflect"
	"strings"
	"testing"
)

func TestSplitArgs(t *testing.T) {
	tests := []struct {
		line string
		want []string
	}{
		{"PING", []string{"PING"}},
		{"SET foo bar", []string{"SET", "foo", "bar"}},
		{"  SET   foo\tbar  ", []string{"SET", "foo", "bar"}},
		{`SET k "hello world"`, []string{"SET", "k", "hello world"}},
		{`SET k 'it is'`, []string{"SET", "k", "it is"}},
		{`SET k "a\nb"`, []string{"SET", "k", "a\nb"}},
		{`SET k 'a\nb'`, []string{"SET", "k", `a\nb`}},
		{`SET k ""`, []string{"SET", "k", ""}},
		{`ECHO "say \"hi\""`, []string{"ECHO", `say "hi"`}},
	}

	for _, tt := range tests {
		got, err := SplitArgs(tt.line)
		if err != nil {
			t.Errorf("SplitArgs(%q) error = %v", tt.line, err)
			continue
		}
		if !reflect.DeepEqual(got, tt.want) {
			t.Errorf("SplitArgs(%q) = %q, want %q", tt.line, got, tt.want)
		}
	}
}

func TestSplitArgs_Unbalanced(t *testing.T) {
	for _, line := range []string{`SET k "open`, `SET k 'open`, `SET k "a\`} {
		if _, err := SplitArgs(line); !errors.Is(err, ErrUnbalancedQuotes) {
			t.Errorf("SplitArgs(%q) error = %v, want ErrUnbalancedQuotes", line, err)
		}
	}
}

func TestREPL_Run(t *testing.T) {
	input := strings.NewReader("PING\n\n# comment\nSET k \"v 1\"\nbad \"quote\nquit\nGET k\n")
	var out bytes.Buffer
	var got [][]string

	r := New(input, &out, func(_ context.Context, args []string) error {
		got = append(got, args)
		return nil
	})
	if err := r.Run(context.Background()); err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	want := [][]string{{"PING"}, {"SET", "k", "v 1"}}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("executed %q, want %q", got, want)
	}
	if !strings.Contains(out.String(), "(error)") {
		t.Errorf("output %q should report the unbalanced quote", out.String())
	}
}

func TestREPL_Prompt(t *testing.T) {
	var out bytes.Buffer
	r := New(strings.NewReader("PING\n"), &out, func(context.Context, []string) error { return nil },
		WithPrompt("respkv> "))
	if err := r.Run(context.Background()); err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if strings.Count(out.String(), "respkv> ") != 2 {
		t.Errorf("output = %q, want two prompts", out.String())
	}
}

func TestREPL_ExecutorErrorStops(t *testing.T) {
	boom := errors.New("connection lost")
	calls := 0
	r := New(strings.NewReader("PING\nPING\n"), &bytes.Buffer{}, func(context.Context, []string) error {
		calls++
		return boom
	})
	if err := r.Run(context.Background()); !errors.Is(err, boom) {
		t.Errorf("Run() error = %v, want %v", err, boom)
	}
	if calls != 1 {
		t.Errorf("executor called %d times, want 1", calls)
	}
}
