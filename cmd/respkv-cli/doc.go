// Package main provides the entry point for respkv-cli.
//
// The CLI sends commands to a respkv server and prints the replies:
//
//	respkv-cli [--addr host:port] [--raw] [command [arg ...]]
//	respkv-cli SET foo bar
//	respkv-cli < commands.txt
package main
