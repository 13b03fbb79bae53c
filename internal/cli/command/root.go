// Package command provides CLI command definitions for respkv-cli.
package command

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/urfave/cli/v2"

	"github.com/yndnr/respkv/internal/cli/connection"
	"github.com/yndnr/respkv/internal/cli/output"
	"github.com/yndnr/respkv/internal/cli/repl"
	"github.com/yndnr/respkv/internal/infra/buildinfo"
)

// DefaultAddr is the server address used when none is given.
const DefaultAddr = "127.0.0.1:6379"

// App creates the CLI application.
func App() *cli.App {
	return &cli.App{
		Name:      "respkv-cli",
		Usage:     "send commands to a respkv server",
		ArgsUsage: "[command [arg ...]]",
		Version:   buildinfo.Get().String(),
		Flags:     globalFlags(),
		Action:    runAction,
	}
}

// globalFlags returns the global CLI flags.
func globalFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:    "addr",
			Aliases: []string{"a"},
			Usage:   "server address (host:port)",
			EnvVars: []string{"RESPKV_CLI_ADDR"},
			Value:   DefaultAddr,
		},
		&cli.StringFlag{
			Name:    "output",
			Aliases: []string{"o"},
			Usage:   "output format: text, raw, json",
			Value:   string(output.FormatText),
		},
		&cli.BoolFlag{
			Name:  "raw",
			Usage: "print bare values (same as --output raw)",
		},
		&cli.DurationFlag{
			Name:  "timeout",
			Usage: "connect and per-command timeout",
			Value: connection.DefaultTimeout,
		},
	}
}

// GlobalFlags defines flags available to all commands.
type GlobalFlags struct {
	Addr    string
	Output  string
	Raw     bool
	Timeout time.Duration
}

// ParseGlobalFlags extracts global flags from context.
func ParseGlobalFlags(c *cli.Context) *GlobalFlags {
	return &GlobalFlags{
		Addr:    c.String("addr"),
		Output:  c.String("output"),
		Raw:     c.Bool("raw"),
		Timeout: c.Duration("timeout"),
	}
}

// Format resolves the effective output format.
func (g *GlobalFlags) Format() (output.Format, error) {
	if g.Raw {
		return output.FormatRaw, nil
	}
	return output.ParseFormat(g.Output)
}

func runAction(c *cli.Context) error {
	flags := ParseGlobalFlags(c)
	format, err := flags.Format()
	if err != nil {
		return err
	}

	ctx := c.Context
	client, err := connection.Dial(ctx, flags.Addr, connection.WithTimeout(flags.Timeout))
	if err != nil {
		return err
	}
	defer client.Close()

	formatter := output.NewFormatter(format)
	exec := func(ctx context.Context, args []string) error {
		reply, err := client.Do(ctx, args...)
		if err != nil {
			return err
		}
		return formatter.Format(c.App.Writer, reply)
	}

	if c.NArg() > 0 {
		return exec(ctx, c.Args().Slice())
	}

	var opts []repl.Option
	if f, ok := c.App.Reader.(*os.File); ok && isTerminal(f) {
		opts = append(opts, repl.WithPrompt(fmt.Sprintf("%s> ", flags.Addr)))
	}
	return repl.New(c.App.Reader, c.App.Writer, exec, opts...).Run(ctx)
}

func isTerminal(f *os.File) bool {
	fi, err := f.Stat()
	return err == nil && fi.Mode()&os.ModeCharDevice != 0
}

// PrintError prints an error message to stderr.
func PrintError(format string, args ...any) {
	fmt.Fprintf(os.Stderr, "error: "+format+"\n", args...)
}
