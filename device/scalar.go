package device

import "fmt"

// ScalarType identifies the element type of a register payload.
//
// The numeric value of a ScalarType is the Harp payload-type code for that
// type: the low nibble is the element width in bytes, bit 7 marks signed
// integers and bit 6 marks IEEE-754 floats.
type ScalarType byte

const (
	U8      ScalarType = 0x01
	U16     ScalarType = 0x02
	U32     ScalarType = 0x04
	U64     ScalarType = 0x08
	S8      ScalarType = 0x81
	S16     ScalarType = 0x82
	S32     ScalarType = 0x84
	S64     ScalarType = 0x88
	Float32 ScalarType = 0x44
)

var scalarTypeNames = map[ScalarType]string{
	U8:      "U8",
	U16:     "U16",
	U32:     "U32",
	U64:     "U64",
	S8:      "S8",
	S16:     "S16",
	S32:     "S32",
	S64:     "S64",
	Float32: "Float",
}

var scalarTypesByName = map[string]ScalarType{
	"U8":    U8,
	"U16":   U16,
	"U32":   U32,
	"U64":   U64,
	"S8":    S8,
	"S16":   S16,
	"S32":   S32,
	"S64":   S64,
	"Float": Float32,
}

// ParseScalarType resolves a descriptor type name ("U8", "S16", "Float", …)
// to its ScalarType. It returns ErrUnknownType for unrecognized names.
func ParseScalarType(name string) (ScalarType, error) {
	t, ok := scalarTypesByName[name]
	if !ok {
		return 0, fmt.Errorf("%w: %q", ErrUnknownType, name)
	}

	return t, nil
}

// Width returns the element width in bytes (1, 2, 4 or 8).
func (t ScalarType) Width() int { return int(t & 0x0F) }

// IsSigned returns true for the signed integer types.
func (t ScalarType) IsSigned() bool { return t&0x80 != 0 }

// IsFloat returns true for the floating-point type.
func (t ScalarType) IsFloat() bool { return t&0x40 != 0 }

func (t ScalarType) String() string {
	if name, ok := scalarTypeNames[t]; ok {
		return name
	}

	return fmt.Sprintf("ScalarType(0x%02X)", byte(t))
}

// Access is the set of operations a register supports, OR-combined.
type Access byte

const (
	AccessRead Access = 1 << iota
	AccessWrite
	AccessEvent
)

// CanRead reports whether the register supports read requests.
func (a Access) CanRead() bool { return a&AccessRead != 0 }

// CanWrite reports whether the register supports write requests.
func (a Access) CanWrite() bool { return a&AccessWrite != 0 }

// CanEvent reports whether the register emits event messages.
func (a Access) CanEvent() bool { return a&AccessEvent != 0 }

func (a Access) String() string {
	s := ""
	if a.CanRead() {
		s += "Read|"
	}
	if a.CanWrite() {
		s += "Write|"
	}
	if a.CanEvent() {
		s += "Event|"
	}
	if s == "" {
		return "None"
	}

	return s[:len(s)-1]
}

func parseAccess(name string) (Access, error) {
	switch name {
	case "Read":
		return AccessRead, nil
	case "Write":
		return AccessWrite, nil
	case "Event":
		return AccessEvent, nil
	default:
		return 0, fmt.Errorf("device: unknown access mode %q", name)
	}
}
