// Package connection provides the RESP client used by respkv-cli.
//
// A Client speaks RESP2 over one TCP connection. Replies are read into a
// receive buffer and decoded incrementally, so replies split across reads
// and pipelined replies are both handled.
package connection
