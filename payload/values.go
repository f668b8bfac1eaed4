package payload

import (
	"encoding/binary"
	"errors"
	"fmt"
	"math"

	"github.com/harp-tech/harp-go/device"
	"github.com/harp-tech/harp-go/internal/util"
	"github.com/harp-tech/harp-go/message"
)

// ErrSizeMismatch reports a payload whose byte count does not equal the
// register's element count times its type width. The mismatch is surfaced,
// never silently truncated or padded.
var ErrSizeMismatch = errors.New("payload: payload size mismatch")

// Values is an immutable vector of typed scalar values decoded from one
// frame payload.
type Values struct {
	typ    device.ScalarType
	ints   []int64
	uints  []uint64
	floats []float64
}

// Decode interprets raw as count consecutive little-endian values of the
// given scalar type. It fails with ErrSizeMismatch when len(raw) is not
// count times the type width.
func Decode(raw []byte, typ device.ScalarType, count int) (*Values, error) {
	width := typ.Width()
	if len(raw) != count*width {
		return nil, fmt.Errorf("%w: got %d byte(s), want %d (%d × %s)",
			ErrSizeMismatch, len(raw), count*width, count, typ)
	}

	v := &Values{typ: typ}
	switch {
	case typ.IsFloat():
		v.floats = make([]float64, count)
		for i := 0; i < count; i++ {
			bits := binary.LittleEndian.Uint32(raw[i*width:])
			v.floats[i] = float64(math.Float32frombits(bits))
		}
	case typ.IsSigned():
		v.ints = make([]int64, count)
		for i := 0; i < count; i++ {
			v.ints[i] = decodeInt(raw[i*width:], width)
		}
	default:
		v.uints = make([]uint64, count)
		for i := 0; i < count; i++ {
			v.uints[i] = decodeUint(raw[i*width:], width)
		}
	}

	return v, nil
}

// DecodeFrame decodes a frame's payload per the owning register's declared
// type and element count.
func DecodeFrame(frame *message.Frame, reg *device.Register) (*Values, error) {
	v, err := Decode(frame.Payload, reg.Type, reg.Length)
	if err != nil {
		return nil, fmt.Errorf("register %q: %w", reg.Name, err)
	}

	return v, nil
}

// Type returns the scalar type of the values.
func (v *Values) Type() device.ScalarType { return v.typ }

// Len returns the number of values.
func (v *Values) Len() int {
	switch {
	case v.typ.IsFloat():
		return len(v.floats)
	case v.typ.IsSigned():
		return len(v.ints)
	default:
		return len(v.uints)
	}
}

// Int returns value i widened to int64. Unsigned values convert by value;
// floats truncate toward zero.
func (v *Values) Int(i int) int64 {
	switch {
	case v.typ.IsFloat():
		return int64(v.floats[i])
	case v.typ.IsSigned():
		return v.ints[i]
	default:
		return int64(v.uints[i]) //nolint:gosec // widths <= 8 bytes, wrap is the caller's concern for u8
	}
}

// Uint returns value i widened to uint64.
func (v *Values) Uint(i int) uint64 {
	switch {
	case v.typ.IsFloat():
		return uint64(v.floats[i])
	case v.typ.IsSigned():
		return uint64(v.ints[i]) //nolint:gosec // bit-pattern conversion is intended
	default:
		return v.uints[i]
	}
}

// Float returns value i widened to float64.
func (v *Values) Float(i int) float64 {
	switch {
	case v.typ.IsFloat():
		return v.floats[i]
	case v.typ.IsSigned():
		return float64(v.ints[i])
	default:
		return float64(v.uints[i])
	}
}

// Raw returns the bit pattern of value i truncated to the type width,
// the form mask definitions apply to.
func (v *Values) Raw(i int) uint64 {
	var bits uint64
	switch {
	case v.typ.IsFloat():
		bits = uint64(math.Float32bits(float32(v.floats[i])))
	case v.typ.IsSigned():
		bits = uint64(v.ints[i]) //nolint:gosec // two's-complement bit pattern
	default:
		bits = v.uints[i]
	}

	width := v.typ.Width()
	if width < 8 {
		bits &= 1<<(width*8) - 1
	}

	return bits
}

// Ints returns a copy of the values widened to int64.
func (v *Values) Ints() []int64 {
	if v.typ.IsSigned() {
		return util.CloneSlice(v.ints, 0)
	}

	out := make([]int64, v.Len())
	for i := range out {
		out[i] = v.Int(i)
	}

	return out
}

// Uints returns a copy of the values widened to uint64.
func (v *Values) Uints() []uint64 {
	if !v.typ.IsSigned() && !v.typ.IsFloat() {
		return util.CloneSlice(v.uints, 0)
	}

	out := make([]uint64, v.Len())
	for i := range out {
		out[i] = v.Uint(i)
	}

	return out
}

// Floats returns a copy of the values widened to float64.
func (v *Values) Floats() []float64 {
	if v.typ.IsFloat() {
		return util.CloneSlice(v.floats, 0)
	}

	out := make([]float64, v.Len())
	for i := range out {
		out[i] = v.Float(i)
	}

	return out
}

// Bytes re-encodes the values to their little-endian wire form. For any
// decoded payload, Bytes returns the original byte sequence exactly.
func (v *Values) Bytes() []byte {
	width := v.typ.Width()
	out := make([]byte, 0, v.Len()*width)
	for i := 0; i < v.Len(); i++ {
		switch {
		case v.typ.IsFloat():
			out = binary.LittleEndian.AppendUint32(out, math.Float32bits(float32(v.floats[i])))
		default:
			out = encodeUint(out, v.Raw(i), width)
		}
	}

	return out
}

func decodeUint(raw []byte, width int) uint64 {
	switch width {
	case 1:
		return uint64(raw[0])
	case 2:
		return uint64(binary.LittleEndian.Uint16(raw))
	case 4:
		return uint64(binary.LittleEndian.Uint32(raw))
	default:
		return binary.LittleEndian.Uint64(raw)
	}
}

func decodeInt(raw []byte, width int) int64 {
	u := decodeUint(raw, width)
	// Sign-extend from the declared width.
	shift := uint(64 - width*8)

	return int64(u<<shift) >> shift //nolint:gosec // two's-complement sign extension
}

func encodeUint(out []byte, v uint64, width int) []byte {
	switch width {
	case 1:
		return append(out, byte(v))
	case 2:
		return binary.LittleEndian.AppendUint16(out, uint16(v)) //nolint:gosec // width-truncated
	case 4:
		return binary.LittleEndian.AppendUint32(out, uint32(v)) //nolint:gosec // width-truncated
	default:
		return binary.LittleEndian.AppendUint64(out, v)
	}
}
