// Package resp implements the RESP2 wire format used by respkv.
//
// The package is split into:
//
//   - value.go: the Value data model (simple strings, errors, integers,
//     bulk strings, arrays and null)
//   - codec.go: resumable decoding of byte buffers and total encoding
//
// Decoding is incremental: Decode consumes only complete frames, so a
// connection can append newly read bytes to whatever was left over and call
// Decode again. A Decoder also remembers how far the leftover partial frame
// got, so it is not parsed again from its first byte. Arrays may nest to any
// depth; open arrays live on an explicit stack, not the goroutine stack.
//
// Null has a single wire form, "*-1\r\n". The legacy null bulk string
// "$-1\r\n" is accepted on input and decodes to the same Null value.
package resp
