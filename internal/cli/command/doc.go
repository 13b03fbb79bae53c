// Package command provides the respkv-cli application.
//
// respkv-cli sends RESP commands to a respkv (or Redis) server:
//
//	respkv-cli SET foo bar
//	respkv-cli --raw GET foo
//	respkv-cli < commands.txt
//
// With arguments it runs one command. Without arguments it reads commands
// from standard input, one per line, showing a prompt when standard input
// is a terminal.
package command
