// Package redisserver provides a Redis protocol compatible server.
//
// This package implements the RESP2 subset needed by redis-cli and common
// client handshakes on top of pkg/resp and the in-memory store.
//
// Supported commands:
//   - PING, ECHO
//   - GET, SET (NX|XX, GET, EX|PX|EXAT|PXAT|KEEPTTL)
//   - CONFIG, CLIENT (handshake stubs)
//
// The server runs one goroutine per connection. Each connection keeps a
// receive buffer so commands split across reads are resumed, and pipelined
// commands are answered in order with one write per read batch.
package redisserver
