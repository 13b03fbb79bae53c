package redisserver

import (
	"strconv"
	"strings"

	"github.com/yndnr/respkv/internal/storage/memory"
	"github.com/yndnr/respkv/pkg/resp"
)

// Command is a decoded client request.
type Command interface {
	// Name returns the lower-case command name.
	Name() string
}

// Ping checks liveness. With a message it replies the message.
type Ping struct {
	Message    string
	HasMessage bool
}

// Echo replies its message.
type Echo struct {
	Message string
}

// Get reads a key.
type Get struct {
	Key string
}

// Set writes a key.
type Set struct {
	Key     string
	Value   string
	Options memory.SetOptions
}

// ConfigGet is accepted for client compatibility and always replies 0.
type ConfigGet struct {
	Args []string
}

// Client is accepted for client compatibility and always replies OK.
type Client struct {
	Args []string
}

func (Ping) Name() string      { return "ping" }
func (Echo) Name() string      { return "echo" }
func (Get) Name() string       { return "get" }
func (Set) Name() string       { return "set" }
func (ConfigGet) Name() string { return "config" }
func (Client) Name() string    { return "client" }

// CommandError is a request validation failure. The connection stays open
// and the client receives Reply.
type CommandError struct {
	// Command is the lower-case name of a recognized command, or empty.
	Command string
	Msg     string
}

func (e *CommandError) Error() string {
	return e.Msg
}

// Reply returns the error reply sent to the client.
func (e *CommandError) Reply() resp.Value {
	return resp.SimpleError(e.Msg)
}

func errUnknownCommand(name string) *CommandError {
	return &CommandError{Msg: "ERR unknown command '" + name + "'"}
}

func errWrongArgs(name string) *CommandError {
	return &CommandError{Command: name, Msg: "ERR wrong number of arguments for '" + name + "' command"}
}

func errSyntax(name string) *CommandError {
	return &CommandError{Command: name, Msg: "ERR syntax error"}
}

func errNotInteger(name string) *CommandError {
	return &CommandError{Command: name, Msg: "ERR value is not an integer or out of range"}
}

func errInvalidExpire(name string) *CommandError {
	return &CommandError{Command: name, Msg: "ERR invalid expire time in '" + name + "' command"}
}

// ParseCommand converts a decoded frame into a Command.
//
// Only a non-empty array of bulk strings is a command. Any other frame is
// reported as an unknown command named after its rendering. The returned
// error is always a *CommandError.
func ParseCommand(v resp.Value) (Command, error) {
	if v.Kind != resp.KindArray || len(v.Elems) == 0 {
		return nil, errUnknownCommand(v.String())
	}

	args := make([]string, len(v.Elems))
	for i, e := range v.Elems {
		if e.Kind != resp.KindBulkString {
			return nil, errUnknownCommand(v.String())
		}
		args[i] = e.Str
	}

	name := strings.ToLower(args[0])
	args = args[1:]

	switch name {
	case "ping":
		switch len(args) {
		case 0:
			return Ping{}, nil
		case 1:
			return Ping{Message: args[0], HasMessage: true}, nil
		}
		return nil, errWrongArgs(name)

	case "echo":
		if len(args) != 1 {
			return nil, errWrongArgs(name)
		}
		return Echo{Message: args[0]}, nil

	case "get":
		if len(args) != 1 {
			return nil, errWrongArgs(name)
		}
		return Get{Key: args[0]}, nil

	case "set":
		return parseSet(args)

	case "config":
		return ConfigGet{Args: args}, nil

	case "client":
		return Client{Args: args}, nil
	}

	return nil, errUnknownCommand(v.Elems[0].Str)
}

// parseSet parses: key value [NX|XX] [GET] [EX s|PX ms|EXAT ts|PXAT ts|KEEPTTL].
// Modifiers may appear in any order but at most once per group.
func parseSet(args []string) (Command, error) {
	const name = "set"
	if len(args) < 2 {
		return nil, errWrongArgs(name)
	}

	cmd := Set{Key: args[0], Value: args[1]}
	var hasCondition, hasExpire bool

	for i := 2; i < len(args); i++ {
		switch tok := strings.ToUpper(args[i]); tok {
		case "NX", "XX":
			if hasCondition {
				return nil, errSyntax(name)
			}
			hasCondition = true
			cmd.Options.Condition = memory.IfAbsent
			if tok == "XX" {
				cmd.Options.Condition = memory.IfPresent
			}

		case "GET":
			if cmd.Options.Get {
				return nil, errSyntax(name)
			}
			cmd.Options.Get = true

		case "KEEPTTL":
			if hasExpire {
				return nil, errSyntax(name)
			}
			hasExpire = true
			cmd.Options.Expire = memory.ExpireRule{Kind: memory.KeepTTL}

		case "EX", "PX", "EXAT", "PXAT":
			if hasExpire || i+1 >= len(args) {
				return nil, errSyntax(name)
			}
			hasExpire = true
			i++

			amount, err := strconv.ParseInt(args[i], 10, 64)
			if err != nil {
				return nil, errNotInteger(name)
			}
			rule, err := memory.NewExpireRule(expireKinds[tok], amount)
			if err != nil {
				return nil, errInvalidExpire(name)
			}
			cmd.Options.Expire = rule

		default:
			return nil, errSyntax(name)
		}
	}

	return cmd, nil
}

var expireKinds = map[string]memory.ExpireKind{
	"EX":   memory.ExpireSeconds,
	"PX":   memory.ExpireMillis,
	"EXAT": memory.ExpireAtSeconds,
	"PXAT": memory.ExpireAtMillis,
}
