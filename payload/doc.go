// Package payload converts raw Harp frame payloads into typed value
// vectors, and decomposes decoded values into named fields using a
// register's bit mask, group mask or payloadSpec members.
//
// Decoding is driven entirely by the register's declared scalar type and
// element count: payload bytes are interpreted as consecutive fixed-width
// little-endian values, two's-complement for signed integers and IEEE-754
// for floats. Values re-encode to the exact original byte sequence, so
// Decode and Values.Bytes round-trip.
package payload
