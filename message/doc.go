// Package message implements the Harp binary message layer: the wire frame,
// the payload-type byte codec, hardware timestamps, and a resumable framer
// that splits a recorded byte stream into checksum-validated frames.
//
// A frame on the wire is:
//
//	[MessageType:1][Length:1][Address:1][Port:1][PayloadType:1]
//	[Timestamp:6, when the payload-type byte carries the timestamp flag]
//	[Payload:Length bytes][Checksum:1]
//
// The checksum is the low byte of the sum of every preceding frame byte.
// Timestamps carry whole seconds (4 bytes, little-endian) plus a fractional
// part counted in 32 µs ticks (2 bytes, little-endian).
//
// Usage Example:
//
//	framer := message.NewFramer(file)
//	for {
//	    frame, err := framer.Next()
//	    if errors.Is(err, io.EOF) {
//	        break
//	    }
//	    var fe *message.FrameError
//	    if errors.As(err, &fe) {
//	        // one corrupt frame; scanning already resumed past it
//	        continue
//	    }
//	    // use frame
//	}
package message
