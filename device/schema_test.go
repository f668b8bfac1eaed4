package device

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseScalarType(t *testing.T) {
	tests := []struct {
		name     string
		typ      ScalarType
		width    int
		signed   bool
		floating bool
	}{
		{"U8", U8, 1, false, false},
		{"U16", U16, 2, false, false},
		{"U32", U32, 4, false, false},
		{"U64", U64, 8, false, false},
		{"S8", S8, 1, true, false},
		{"S16", S16, 2, true, false},
		{"S32", S32, 4, true, false},
		{"S64", S64, 8, true, false},
		{"Float", Float32, 4, false, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			typ, err := ParseScalarType(tt.name)
			require.NoError(t, err)
			assert.Equal(t, tt.typ, typ)
			assert.Equal(t, tt.width, typ.Width())
			assert.Equal(t, tt.signed, typ.IsSigned())
			assert.Equal(t, tt.floating, typ.IsFloat())
			assert.Equal(t, tt.name, typ.String())
		})
	}

	_, err := ParseScalarType("I32")
	assert.ErrorIs(t, err, ErrUnknownType)
}

func TestNewSchema_Lookup(t *testing.T) {
	desc := &Descriptor{
		Device: "TestDevice",
		WhoAmI: 1234,
		Registers: RegisterTable{
			{Name: "AnalogData", RegisterDef: RegisterDef{Address: 44, Type: "S16", Length: 3, Access: AccessNames{"Event"}}},
			{Name: "DigitalState", RegisterDef: RegisterDef{Address: 45, Type: "U8", Access: AccessNames{"Read", "Event"}}},
		},
	}

	schema, err := NewSchema(desc)
	require.NoError(t, err)

	reg, ok := schema.Register("AnalogData")
	require.True(t, ok)
	assert.Equal(t, uint8(44), reg.Address)
	assert.Equal(t, S16, reg.Type)
	assert.Equal(t, 3, reg.Length)
	assert.Equal(t, 6, reg.PayloadSize())
	assert.True(t, reg.Access.CanEvent())
	assert.False(t, reg.Access.CanRead())

	byAddr, ok := schema.RegisterByAddress(45)
	require.True(t, ok)
	assert.Equal(t, "DigitalState", byAddr.Name)
	assert.True(t, byAddr.Access.CanRead())

	_, ok = schema.Register("DoesNotExist")
	assert.False(t, ok)
	_, ok = schema.RegisterByAddress(99)
	assert.False(t, ok)

	assert.Equal(t, []string{"AnalogData", "DigitalState"}, schema.RegisterNames())
}

func TestNewSchema_DefaultsAndBounds(t *testing.T) {
	desc := &Descriptor{
		Registers: RegisterTable{
			{Name: "Plain", RegisterDef: RegisterDef{Address: 32, Type: "U8"}},
		},
	}

	schema, err := NewSchema(desc)
	require.NoError(t, err)

	reg, ok := schema.Register("Plain")
	require.True(t, ok)
	assert.Equal(t, 1, reg.Length, "length should default to 1")
	assert.Equal(t, AccessRead, reg.Access, "access should default to Read")
}

func TestNewSchema_DuplicateAddress(t *testing.T) {
	desc := &Descriptor{
		Registers: RegisterTable{
			{Name: "First", RegisterDef: RegisterDef{Address: 40, Type: "U8"}},
			{Name: "Second", RegisterDef: RegisterDef{Address: 40, Type: "U16"}},
		},
	}

	schema, err := NewSchema(desc)
	assert.ErrorIs(t, err, ErrDuplicateAddress)
	assert.Nil(t, schema, "no schema may be constructed on failure")
}

func TestNewSchema_UnknownType(t *testing.T) {
	desc := &Descriptor{
		Registers: RegisterTable{
			{Name: "Bad", RegisterDef: RegisterDef{Address: 40, Type: "I16"}},
		},
	}

	schema, err := NewSchema(desc)
	assert.ErrorIs(t, err, ErrUnknownType)
	assert.Nil(t, schema)
}

func TestNewSchema_UnresolvedMask(t *testing.T) {
	desc := &Descriptor{
		Registers: RegisterTable{
			{Name: "Flags", RegisterDef: RegisterDef{Address: 40, Type: "U8", MaskType: "NoSuchMask"}},
		},
	}

	schema, err := NewSchema(desc)
	assert.ErrorIs(t, err, ErrUnresolvedMask)
	assert.Nil(t, schema)

	// Member-level references must resolve too.
	desc = &Descriptor{
		Registers: RegisterTable{
			{Name: "Control", RegisterDef: RegisterDef{
				Address: 40, Type: "U8",
				PayloadSpec: MemberTable{
					{Name: "Mode", MemberDef: MemberDef{Offset: 0, Mask: 0x3, MaskType: "NoSuchMask"}},
				},
			}},
		},
	}

	schema, err = NewSchema(desc)
	assert.ErrorIs(t, err, ErrUnresolvedMask)
	assert.Nil(t, schema)
}

func TestNewSchema_OffsetOutOfRange(t *testing.T) {
	desc := &Descriptor{
		Registers: RegisterTable{
			{Name: "Control", RegisterDef: RegisterDef{
				Address: 40, Type: "U8", Length: 2,
				PayloadSpec: MemberTable{
					{Name: "Tail", MemberDef: MemberDef{Offset: 2}},
				},
			}},
		},
	}

	schema, err := NewSchema(desc)
	assert.ErrorIs(t, err, ErrOffsetOutOfRange)
	assert.Nil(t, schema)
}

func TestNewSchema_MaskResolution(t *testing.T) {
	desc := &Descriptor{
		Registers: RegisterTable{
			{Name: "Inputs", RegisterDef: RegisterDef{Address: 40, Type: "U8", MaskType: "InputFlags"}},
			{Name: "Mode", RegisterDef: RegisterDef{Address: 41, Type: "U8", MaskType: "ModeConfig"}},
		},
		BitMasks: BitMaskTable{
			{Name: "InputFlags", Bits: NamedValues{{Name: "In0", Value: 0x1}, {Name: "In1", Value: 0x2}}},
		},
		GroupMasks: GroupMaskTable{
			{Name: "ModeConfig", Values: NamedValues{{Name: "Idle", Value: 0}, {Name: "Run", Value: 1}}},
		},
	}

	schema, err := NewSchema(desc)
	require.NoError(t, err)

	inputs, ok := schema.Register("Inputs")
	require.True(t, ok)
	require.NotNil(t, inputs.Mask)
	assert.True(t, inputs.Mask.IsBits())
	assert.Equal(t, []Flag{{Name: "In0", Value: 0x1}, {Name: "In1", Value: 0x2}}, inputs.Mask.Bits.Flags)

	mode, ok := schema.Register("Mode")
	require.True(t, ok)
	require.NotNil(t, mode.Mask)
	assert.True(t, mode.Mask.IsGroup())

	label, ok := mode.Mask.Group.Label(1)
	require.True(t, ok)
	assert.Equal(t, "Run", label)
	_, ok = mode.Mask.Group.Label(7)
	assert.False(t, ok)

	bm, ok := schema.BitMask("InputFlags")
	require.True(t, ok)
	assert.Same(t, inputs.Mask.Bits, bm, "register mask must resolve to the schema's own mask")

	gm, ok := schema.GroupMask("ModeConfig")
	require.True(t, ok)
	assert.Same(t, mode.Mask.Group, gm)
}

func TestAccessString(t *testing.T) {
	assert.Equal(t, "None", Access(0).String())
	assert.Equal(t, "Read", AccessRead.String())
	assert.Equal(t, "Read|Write|Event", (AccessRead | AccessWrite | AccessEvent).String())
}
