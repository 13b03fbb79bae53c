// Package repl reads commands line by line for respkv-cli.
//
// Each line is split into arguments the way redis-cli does: whitespace
// separates arguments, double quotes allow escapes (\n, \r, \t, \", \\)
// and single quotes are literal. Empty lines and lines starting with '#'
// are skipped; "quit" and "exit" stop the loop.
//
// With a prompt set the loop is interactive; without one it suits piped
// input such as `respkv-cli < commands.txt`.
package repl
