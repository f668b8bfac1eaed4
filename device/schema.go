package device

import (
	"errors"
	"fmt"

	"github.com/harp-tech/harp-go/internal/util"
)

// Schema validation errors.
var (
	ErrDuplicateAddress = errors.New("device: duplicate register address")
	ErrUnresolvedMask   = errors.New("device: unresolved mask reference")
	ErrOffsetOutOfRange = errors.New("device: payload member offset out of range")
	ErrUnknownType      = errors.New("device: unknown register type")
)

// MaxAddress is the highest valid register address.
const MaxAddress = 255

// Flag is a single named bit within a BitMask.
type Flag struct {
	Name string
	// Value is a single bit intended to be OR-combined with its siblings.
	// A value of 0 is an explicit "none" sentinel and never tests as set.
	Value uint64
}

// BitMask is a named set of independently OR-combinable flags.
type BitMask struct {
	Name        string
	Description string
	Flags       []Flag // declaration order
}

// GroupMask is a named set of mutually exclusive enumerants.
type GroupMask struct {
	Name        string
	Description string
	Values      []Enumerant // declaration order

	byValue map[uint64]string
}

// Enumerant is a single labelled value within a GroupMask.
type Enumerant struct {
	Label string
	Value uint64
}

// Label returns the label matching value exactly, if any.
func (g *GroupMask) Label(value uint64) (string, bool) {
	label, ok := g.byValue[value]
	return label, ok
}

// Mask is a register or payload-member mask reference, resolved at schema
// build time to the mask it names. Exactly one of Bits and Group is set.
type Mask struct {
	Bits  *BitMask
	Group *GroupMask
}

// IsBits returns true when the mask resolves to a bit mask.
func (m *Mask) IsBits() bool { return m.Bits != nil }

// IsGroup returns true when the mask resolves to a group mask.
func (m *Mask) IsGroup() bool { return m.Group != nil }

// PayloadMember is a named portion of a register's decoded value.
//
// Offset selects the element of the decoded vector the member reads from.
// When Mask is non-zero the member value is (element & Mask) right-shifted
// down to the mask's least significant bit.
type PayloadMember struct {
	Name        string
	Offset      int
	Mask        uint64
	MaskRef     *Mask // optional group-mask interpretation of the value
	Bool        bool  // interfaceType: bool
	Description string
}

// Register describes one addressed unit of device state.
type Register struct {
	Name        string
	Address     uint8
	Type        ScalarType
	Length      int // element count, >= 1
	Access      Access
	Mask        *Mask           // optional mask applied to the whole value
	Payload     []PayloadMember // optional sub-fields, declaration order
	Volatile    bool
	Description string
}

// PayloadSize returns the register's payload size in bytes.
func (r *Register) PayloadSize() int { return r.Length * r.Type.Width() }

// Schema is the validated, immutable model of one device.
type Schema struct {
	Device          string
	WhoAmI          int
	FirmwareVersion string
	HardwareTargets string

	registers  []*Register
	byName     map[string]*Register
	byAddress  map[uint8]*Register
	bitMasks   map[string]*BitMask
	groupMasks map[string]*GroupMask
}

// Common returns the Harp common register schema on its own.
func Common() (*Schema, error) {
	desc, err := commonDescriptor()
	if err != nil {
		return nil, err
	}

	return NewSchema(desc)
}

// Register looks up a register by name.
func (s *Schema) Register(name string) (*Register, bool) {
	r, ok := s.byName[name]
	return r, ok
}

// RegisterByAddress looks up a register by address.
func (s *Schema) RegisterByAddress(addr uint8) (*Register, bool) {
	r, ok := s.byAddress[addr]
	return r, ok
}

// Registers returns all registers in declaration order.
func (s *Schema) Registers() []*Register {
	return util.CloneSlice(s.registers, 0)
}

// RegisterNames returns all register names in declaration order.
func (s *Schema) RegisterNames() []string {
	names := make([]string, len(s.registers))
	for i, r := range s.registers {
		names[i] = r.Name
	}

	return names
}

// BitMask looks up a bit mask by name.
func (s *Schema) BitMask(name string) (*BitMask, bool) {
	m, ok := s.bitMasks[name]
	return m, ok
}

// GroupMask looks up a group mask by name.
func (s *Schema) GroupMask(name string) (*GroupMask, bool) {
	m, ok := s.groupMasks[name]
	return m, ok
}

// NewSchema builds and validates a Schema from a parsed descriptor.
//
// It validates address uniqueness, mask-reference resolvability, payload
// member offsets and type names, and resolves every maskType reference to
// a direct *Mask. On any failure no schema is returned.
func NewSchema(desc *Descriptor) (*Schema, error) {
	s := &Schema{
		Device:          desc.Device,
		WhoAmI:          desc.WhoAmI,
		FirmwareVersion: desc.FirmwareVersion,
		HardwareTargets: desc.HardwareTargets,
		byName:          make(map[string]*Register, len(desc.Registers)),
		byAddress:       make(map[uint8]*Register, len(desc.Registers)),
		bitMasks:        make(map[string]*BitMask, len(desc.BitMasks)),
		groupMasks:      make(map[string]*GroupMask, len(desc.GroupMasks)),
	}

	for _, def := range desc.BitMasks {
		mask := &BitMask{
			Name:        def.Name,
			Description: def.Description,
			Flags:       make([]Flag, 0, len(def.Bits)),
		}
		for _, bit := range def.Bits {
			mask.Flags = append(mask.Flags, Flag{Name: bit.Name, Value: bit.Value})
		}
		s.bitMasks[mask.Name] = mask
	}

	for _, def := range desc.GroupMasks {
		mask := &GroupMask{
			Name:        def.Name,
			Description: def.Description,
			Values:      make([]Enumerant, 0, len(def.Values)),
			byValue:     make(map[uint64]string, len(def.Values)),
		}
		for _, v := range def.Values {
			mask.Values = append(mask.Values, Enumerant{Label: v.Name, Value: v.Value})
			mask.byValue[v.Value] = v.Name
		}
		s.groupMasks[mask.Name] = mask
	}

	for _, def := range desc.Registers {
		reg, err := s.buildRegister(def)
		if err != nil {
			return nil, err
		}

		if prev, exists := s.byAddress[reg.Address]; exists {
			return nil, fmt.Errorf("%w: %d used by %q and %q",
				ErrDuplicateAddress, reg.Address, prev.Name, reg.Name)
		}

		s.registers = append(s.registers, reg)
		s.byName[reg.Name] = reg
		s.byAddress[reg.Address] = reg
	}

	return s, nil
}

func (s *Schema) buildRegister(def NamedRegisterDef) (*Register, error) {
	if def.Address < 0 || def.Address > MaxAddress {
		return nil, fmt.Errorf("device: register %q address %d out of range [0, %d]",
			def.Name, def.Address, MaxAddress)
	}

	typ, err := ParseScalarType(def.Type)
	if err != nil {
		return nil, fmt.Errorf("register %q: %w", def.Name, err)
	}

	length := def.Length
	if length == 0 {
		length = 1
	}
	if length < 1 {
		return nil, fmt.Errorf("device: register %q length %d must be >= 1", def.Name, length)
	}

	// Descriptors may omit access entirely; read-only is the convention.
	access := AccessRead
	if len(def.Access) > 0 {
		access = 0
		for _, name := range def.Access {
			mode, err := parseAccess(name)
			if err != nil {
				return nil, fmt.Errorf("register %q: %w", def.Name, err)
			}
			access |= mode
		}
	}

	reg := &Register{
		Name:        def.Name,
		Address:     uint8(def.Address),
		Type:        typ,
		Length:      length,
		Access:      access,
		Volatile:    def.Volatile,
		Description: def.Description,
	}

	if def.MaskType != "" {
		mask, err := s.resolveMask(def.Name, def.MaskType)
		if err != nil {
			return nil, err
		}
		reg.Mask = mask
	}

	for _, m := range def.PayloadSpec {
		member := PayloadMember{
			Name:        m.Name,
			Offset:      m.Offset,
			Mask:        m.Mask,
			Bool:        m.InterfaceType == "bool",
			Description: m.Description,
		}

		if member.Offset < 0 || member.Offset >= length {
			return nil, fmt.Errorf("%w: member %q offset %d, register %q has %d element(s)",
				ErrOffsetOutOfRange, m.Name, m.Offset, def.Name, length)
		}

		if m.MaskType != "" {
			ref, err := s.resolveMask(def.Name+"."+m.Name, m.MaskType)
			if err != nil {
				return nil, err
			}
			member.MaskRef = ref
		}

		reg.Payload = append(reg.Payload, member)
	}

	return reg, nil
}

// resolveMask resolves a maskType reference against the schema's mask
// tables, bit masks first, matching the descriptor convention that a name
// lives in exactly one table.
func (s *Schema) resolveMask(owner, name string) (*Mask, error) {
	if bits, ok := s.bitMasks[name]; ok {
		return &Mask{Bits: bits}, nil
	}
	if group, ok := s.groupMasks[name]; ok {
		return &Mask{Group: group}, nil
	}

	return nil, fmt.Errorf("%w: %q referenced by %q", ErrUnresolvedMask, name, owner)
}
