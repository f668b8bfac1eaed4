package message

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestType(t *testing.T) {
	assert.Equal(t, "Read", TypeRead.String())
	assert.Equal(t, "Write", TypeWrite.String())
	assert.Equal(t, "Event", TypeEvent.String())
	assert.Equal(t, "ReadError", TypeReadError.String())
	assert.Equal(t, "WriteError", TypeWriteError.String())
	assert.Equal(t, "Type(7)", Type(7).String())

	assert.False(t, TypeRead.IsError())
	assert.False(t, TypeEvent.IsError())
	assert.True(t, TypeReadError.IsError())
	assert.True(t, TypeWriteError.IsError())
}

func TestPayloadType(t *testing.T) {
	tests := []struct {
		value  byte
		width  int
		signed bool
		float  bool
		valid  bool
	}{
		{0x01, 1, false, false, true}, // U8
		{0x02, 2, false, false, true}, // U16
		{0x04, 4, false, false, true}, // U32
		{0x08, 8, false, false, true}, // U64
		{0x81, 1, true, false, true},  // S8
		{0x82, 2, true, false, true},  // S16
		{0x84, 4, true, false, true},  // S32
		{0x88, 8, true, false, true},  // S64
		{0x44, 4, false, true, true},  // Float32
		{0x00, 0, false, false, false},
		{0x03, 3, false, false, false},
		{0x48, 8, false, true, false}, // 8-byte float is not a Harp type
		{0xC4, 4, true, true, false},  // signed float is contradictory
	}

	for _, tt := range tests {
		pt := PayloadType(tt.value)
		assert.Equal(t, tt.width, pt.Width(), "width of 0x%02X", tt.value)
		assert.Equal(t, tt.signed, pt.IsSigned(), "signedness of 0x%02X", tt.value)
		assert.Equal(t, tt.float, pt.IsFloat(), "floatness of 0x%02X", tt.value)
		assert.Equal(t, tt.valid, pt.Valid(), "validity of 0x%02X", tt.value)

		// The timestamp flag never changes the element type.
		stamped := pt | 0x10
		assert.True(t, stamped.HasTimestamp())
		assert.Equal(t, tt.valid, stamped.Valid())
		assert.Equal(t, pt, stamped.Base())
	}
}

func TestTimestamp(t *testing.T) {
	ts := Timestamp{Seconds: 3, Ticks: 31250} // 31250 × 32 µs = 1 s exactly
	assert.InDelta(t, 4.0, ts.AsSeconds(), 1e-9)

	ts = Timestamp{Seconds: 100, Ticks: 1}
	assert.InDelta(t, 100.000032, ts.AsSeconds(), 1e-9)

	at := ts.Time(ReferenceEpoch)
	assert.Equal(t, time.Date(1904, 1, 1, 0, 1, 40, 32000, time.UTC), at)
}

func TestFrame_Pack(t *testing.T) {
	frame := &Frame{
		Type:        TypeEvent,
		Address:     44,
		Port:        255,
		PayloadType: 0x82, // S16
		Payload:     []byte{0x01, 0x00, 0xFF, 0xFF, 0x64, 0x00},
	}

	wire := frame.Pack()
	require.Len(t, wire, frame.Size())
	assert.Equal(t, []byte{3, 6, 44, 255, 0x82}, wire[:5])
	assert.Equal(t, frame.Payload, wire[5:11])
	assert.Equal(t, Checksum(wire[:len(wire)-1]), wire[len(wire)-1])
}

func TestFrame_PackTimestamped(t *testing.T) {
	frame := &Frame{
		Type:        TypeEvent,
		Address:     32,
		Port:        255,
		PayloadType: 0x01, // timestamp flag added by Pack
		Timestamp:   &Timestamp{Seconds: 0x01020304, Ticks: 0x0506},
		Payload:     []byte{0x10},
	}

	wire := frame.Pack()
	require.Len(t, wire, 13)
	assert.Equal(t, byte(0x11), wire[4], "timestamp flag must be set on the wire")
	assert.Equal(t, []byte{0x04, 0x03, 0x02, 0x01}, wire[5:9], "seconds are little-endian")
	assert.Equal(t, []byte{0x06, 0x05}, wire[9:11], "ticks are little-endian")
	assert.Equal(t, byte(0x10), wire[11])
}

func TestChecksum(t *testing.T) {
	assert.Equal(t, byte(0), Checksum(nil))
	assert.Equal(t, byte(6), Checksum([]byte{1, 2, 3}))
	assert.Equal(t, byte(0xFF), Checksum([]byte{0xFF}))
	// Sums wrap at 256.
	assert.Equal(t, byte(0x01), Checksum([]byte{0xFF, 0x02}))
}

func TestChecksum_SingleByteCorruptionFlips(t *testing.T) {
	frame := &Frame{
		Type:        TypeEvent,
		Address:     44,
		Port:        255,
		PayloadType: 0x82,
		Payload:     []byte{0x01, 0x00, 0xFF, 0xFF, 0x64, 0x00},
	}
	wire := frame.Pack()

	body := wire[:len(wire)-1]
	sum := wire[len(wire)-1]
	require.Equal(t, Checksum(body), sum)

	for i := range body {
		for _, delta := range []byte{1, 0x80, 0xFF} {
			corrupted := make([]byte, len(body))
			copy(corrupted, body)
			corrupted[i] += delta
			assert.NotEqual(t, sum, Checksum(corrupted),
				"corrupting byte %d by %d must change the checksum", i, delta)
		}
	}
}
