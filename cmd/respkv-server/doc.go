// Package main provides the entry point for respkv-server.
//
// The server is an in-memory key-value store speaking the Redis RESP2
// protocol. It serves PING, ECHO, GET, SET (with NX, XX, GET, EX, PX,
// EXAT, PXAT and KEEPTTL) plus the CONFIG and CLIENT handshake stubs used
// by redis-cli and common client libraries.
//
// Usage:
//
//	respkv-server [flags]
//	respkv-server --config /etc/respkv/config.yaml --bind 0.0.0.0:6379
//
// Configuration comes from defaults, the YAML file, .env files,
// RESPKV_* environment variables and flags, in increasing priority.
// Changes to log.level in the configuration file apply without restart.
package main
