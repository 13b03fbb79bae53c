// Package output formats RESP replies for respkv-cli.
//
// Formats:
//
//   - text: redis-cli style, with type annotations and numbered arrays
//   - raw: bare values, one per line
//   - json: one JSON document per reply
package output
