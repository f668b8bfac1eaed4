package message

import (
	"encoding/binary"
	"fmt"
	"time"
)

// Type identifies the kind of a Harp message.
type Type byte

const (
	TypeNA    Type = 0
	TypeRead  Type = 1
	TypeWrite Type = 2
	TypeEvent Type = 3

	// Error replies set bit 3 of the kind byte.
	TypeReadError  Type = 9
	TypeWriteError Type = 10
)

// typeErrorBit marks the error variant of a message kind.
const typeErrorBit = 0x08

// IsError returns true for the error reply variants.
func (t Type) IsError() bool { return t&typeErrorBit != 0 }

func (t Type) String() string {
	switch t {
	case TypeNA:
		return "NA"
	case TypeRead:
		return "Read"
	case TypeWrite:
		return "Write"
	case TypeEvent:
		return "Event"
	case TypeReadError:
		return "ReadError"
	case TypeWriteError:
		return "WriteError"
	default:
		return fmt.Sprintf("Type(%d)", byte(t))
	}
}

// PayloadType is the frame byte describing the payload element encoding:
// the low nibble is the element width in bytes, bit 7 marks signed
// integers, bit 6 marks IEEE-754 floats and bit 4 marks a timestamped
// payload.
type PayloadType byte

const (
	payloadSigned      PayloadType = 0x80
	payloadFloat       PayloadType = 0x40
	payloadTimestamped PayloadType = 0x10
)

// Width returns the payload element width in bytes.
func (p PayloadType) Width() int { return int(p & 0x0F) }

// IsSigned returns true when payload elements are two's-complement signed.
func (p PayloadType) IsSigned() bool { return p&payloadSigned != 0 }

// IsFloat returns true when payload elements are IEEE-754 floats.
func (p PayloadType) IsFloat() bool { return p&payloadFloat != 0 }

// HasTimestamp returns true when the frame carries a timestamp.
func (p PayloadType) HasTimestamp() bool { return p&payloadTimestamped != 0 }

// Base returns the payload type with the timestamp flag cleared.
func (p PayloadType) Base() PayloadType { return p &^ payloadTimestamped }

// Valid reports whether the byte encodes a recognized element type:
// unsigned or signed integers of width 1, 2, 4 or 8, or a 4-byte float.
func (p PayloadType) Valid() bool {
	w := p.Width()
	if w != 1 && w != 2 && w != 4 && w != 8 {
		return false
	}
	if p.IsFloat() {
		return !p.IsSigned() && w == 4
	}

	return true
}

// ReferenceEpoch is the reference datetime at which Harp time zero begins.
var ReferenceEpoch = time.Date(1904, 1, 1, 0, 0, 0, 0, time.UTC)

// TickDuration is the resolution of the timestamp fractional field.
const TickDuration = 32 * time.Microsecond

// SecondsPerTick is TickDuration expressed in seconds.
const SecondsPerTick = 32e-6

// Timestamp is the hardware timestamp attached to a frame: whole seconds
// plus a fractional part counted in 32 µs ticks.
type Timestamp struct {
	Seconds uint32
	Ticks   uint16
}

// AsSeconds returns the timestamp as fractional seconds since time zero.
func (t Timestamp) AsSeconds() float64 {
	return float64(t.Seconds) + float64(t.Ticks)*SecondsPerTick
}

// Time anchors the timestamp to the given epoch.
func (t Timestamp) Time(epoch time.Time) time.Time {
	return epoch.Add(time.Duration(t.Seconds)*time.Second + time.Duration(t.Ticks)*TickDuration)
}

// frame section sizes on the wire.
const (
	headerSize    = 5 // type, length, address, port, payload type
	timestampSize = 6 // 4-byte seconds + 2-byte ticks
	checksumSize  = 1
)

// Frame is one Harp message as recorded on the wire.
//
// Length on the wire is derived from the payload; a decoded Frame always
// satisfies len(Payload) == declared length.
type Frame struct {
	Type        Type
	Address     uint8
	Port        uint8
	PayloadType PayloadType
	Timestamp   *Timestamp // nil when the payload-type byte has no timestamp flag
	Payload     []byte
}

// Size returns the total frame size in bytes, checksum included.
func (f *Frame) Size() int {
	size := headerSize + len(f.Payload) + checksumSize
	if f.Timestamp != nil {
		size += timestampSize
	}

	return size
}

// Pack serializes the frame to its wire format, computing the trailing
// checksum. The payload-type byte's timestamp flag is forced to agree with
// the presence of a Timestamp.
func (f *Frame) Pack() []byte {
	pt := f.PayloadType.Base()
	if f.Timestamp != nil {
		pt |= payloadTimestamped
	}

	buf := make([]byte, 0, f.Size())
	buf = append(buf, byte(f.Type), byte(len(f.Payload)), f.Address, f.Port, byte(pt))
	if f.Timestamp != nil {
		buf = binary.LittleEndian.AppendUint32(buf, f.Timestamp.Seconds)
		buf = binary.LittleEndian.AppendUint16(buf, f.Timestamp.Ticks)
	}
	buf = append(buf, f.Payload...)
	buf = append(buf, Checksum(buf))

	return buf
}

// Checksum computes the Harp frame checksum over data: the low byte of the
// arithmetic sum of all byte values.
func Checksum(data []byte) byte {
	var sum byte
	for _, b := range data {
		sum += b
	}

	return sum
}
