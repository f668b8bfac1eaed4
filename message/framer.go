package message

import (
	"bufio"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
)

// Frame decoding errors, wrapped by FrameError.
var (
	ErrChecksumMismatch   = errors.New("message: checksum mismatch")
	ErrTruncated          = errors.New("message: truncated frame")
	ErrUnknownPayloadType = errors.New("message: unknown payload type")
)

// FrameError reports a single undecodable frame. The framer recovers by
// itself; the next call to Next resumes scanning past the corrupt frame.
type FrameError struct {
	// Offset is the byte offset of the frame start within the source.
	Offset int64
	err    error
}

func (e *FrameError) Error() string {
	return fmt.Sprintf("frame at offset %d: %v", e.Offset, e.err)
}

func (e *FrameError) Unwrap() error { return e.err }

// Framer splits a byte source into Harp frames.
//
// Framing is strictly sequential and stateful; a single source must not be
// scanned by two framers concurrently. Create a new Framer to rescan.
type Framer struct {
	r      *bufio.Reader
	offset int64
}

// NewFramer creates a Framer over a finite byte source.
func NewFramer(r io.Reader) *Framer {
	return &Framer{r: bufio.NewReader(r)}
}

// Offset returns the byte offset of the next unread byte in the source.
func (f *Framer) Offset() int64 { return f.offset }

// Next reads and validates the next frame.
//
// At the end of the source it returns io.EOF. A corrupt frame is reported
// as a *FrameError wrapping ErrChecksumMismatch, ErrTruncated or
// ErrUnknownPayloadType; scanning continues with the following frame, so a
// single bad frame never terminates the stream.
func (f *Framer) Next() (*Frame, error) {
	start := f.offset

	header := make([]byte, headerSize)
	n, err := io.ReadFull(f.r, header)
	f.offset += int64(n)
	if err != nil {
		if errors.Is(err, io.EOF) && n == 0 {
			return nil, io.EOF
		}

		return nil, &FrameError{Offset: start, err: ErrTruncated}
	}

	length := int(header[1])
	pt := PayloadType(header[4])

	rest := length + checksumSize
	if pt.HasTimestamp() {
		rest += timestampSize
	}

	body := make([]byte, rest)
	n, err = io.ReadFull(f.r, body)
	f.offset += int64(n)
	if err != nil {
		return nil, &FrameError{Offset: start, err: ErrTruncated}
	}

	// The payload-type byte is judged only after the declared bytes were
	// consumed, so an unknown type skips exactly one frame.
	if !pt.Valid() {
		return nil, &FrameError{
			Offset: start,
			err:    fmt.Errorf("%w: 0x%02X", ErrUnknownPayloadType, header[4]),
		}
	}

	wire := body[len(body)-1]
	sum := Checksum(header)
	sum += Checksum(body[:len(body)-1])
	if wire != sum {
		return nil, &FrameError{
			Offset: start,
			err:    fmt.Errorf("%w: wire=0x%02X, computed=0x%02X", ErrChecksumMismatch, wire, sum),
		}
	}

	frame := &Frame{
		Type:        Type(header[0]),
		Address:     header[2],
		Port:        header[3],
		PayloadType: pt,
	}

	payload := body[:len(body)-1]
	if pt.HasTimestamp() {
		frame.Timestamp = &Timestamp{
			Seconds: binary.LittleEndian.Uint32(payload[0:4]),
			Ticks:   binary.LittleEndian.Uint16(payload[4:6]),
		}
		payload = payload[timestampSize:]
	}
	frame.Payload = payload

	return frame, nil
}
