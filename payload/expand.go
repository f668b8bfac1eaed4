package payload

import (
	"errors"
	"fmt"
	"math/bits"

	"github.com/harp-tech/harp-go/device"
)

// ErrUnmatchedGroupValue reports a decoded value matching none of a group
// mask's enumerants. It is reported, never coerced to a default label.
var ErrUnmatchedGroupValue = errors.New("payload: value matches no group mask enumerant")

// FieldKind tags the value variant a Field carries.
type FieldKind uint8

const (
	// FieldFlag is a boolean bit-mask flag state.
	FieldFlag FieldKind = iota + 1
	// FieldNum is a numeric sub-field value.
	FieldNum
	// FieldLabel is a group-mask enumerant label.
	FieldLabel
)

// Field is one named value extracted from a decoded register payload.
type Field struct {
	Name string
	Kind FieldKind

	Flag  bool
	Num   int64
	Label string
}

func flagField(name string, set bool) Field {
	return Field{Name: name, Kind: FieldFlag, Flag: set}
}

func numField(name string, v int64) Field {
	return Field{Name: name, Kind: FieldNum, Num: v}
}

func labelField(name, label string) Field {
	return Field{Name: name, Kind: FieldLabel, Label: label}
}

// Expand decomposes decoded values into the register's named fields, in
// declaration order.
//
// A register with a bit mask yields one flag field per declared bit; a
// register with a group mask yields a single label field named after the
// register. A register with payloadSpec members yields one field per
// member, each extracting its own bits from the element at its offset. A
// register with neither yields no fields.
func Expand(v *Values, reg *device.Register) ([]Field, error) {
	switch {
	case reg.Mask != nil:
		return expandMask(v.Raw(0), reg)
	case len(reg.Payload) > 0:
		return expandMembers(v, reg)
	default:
		return nil, nil
	}
}

func expandMask(value uint64, reg *device.Register) ([]Field, error) {
	mask := reg.Mask
	if mask.IsBits() {
		fields := make([]Field, 0, len(mask.Bits.Flags))
		for _, flag := range mask.Bits.Flags {
			// A zero bit is the "none" sentinel; it never tests as set.
			set := flag.Value != 0 && value&flag.Value == flag.Value
			fields = append(fields, flagField(flag.Name, set))
		}

		return fields, nil
	}

	label, ok := mask.Group.Label(value)
	if !ok {
		return nil, fmt.Errorf("%w: register %q value %d against %q",
			ErrUnmatchedGroupValue, reg.Name, value, mask.Group.Name)
	}

	return []Field{labelField(reg.Name, label)}, nil
}

func expandMembers(v *Values, reg *device.Register) ([]Field, error) {
	fields := make([]Field, 0, len(reg.Payload))
	for _, m := range reg.Payload {
		value := v.Raw(m.Offset)
		if m.Mask != 0 {
			value = (value & m.Mask) >> uint(bits.TrailingZeros64(m.Mask))
		}

		switch {
		case m.Bool:
			fields = append(fields, flagField(m.Name, value != 0))
		case m.MaskRef != nil && m.MaskRef.IsGroup():
			label, ok := m.MaskRef.Group.Label(value)
			if !ok {
				return nil, fmt.Errorf("%w: member %q value %d against %q",
					ErrUnmatchedGroupValue, m.Name, value, m.MaskRef.Group.Name)
			}
			fields = append(fields, labelField(m.Name, label))
		default:
			fields = append(fields, numField(m.Name, int64(value))) //nolint:gosec // masked values fit
		}
	}

	return fields, nil
}
