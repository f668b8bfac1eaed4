package device

import (
	_ "embed"
	"fmt"
	"os"
	"sync"

	"gopkg.in/yaml.v3"
)

// Descriptor is the parsed, unvalidated form of a device.yml document.
// NewSchema turns it into a validated Schema.
type Descriptor struct {
	Device          string         `yaml:"device"`
	WhoAmI          int            `yaml:"whoAmI"`
	FirmwareVersion string         `yaml:"firmwareVersion"`
	HardwareTargets string         `yaml:"hardwareTargets"`
	Registers       RegisterTable  `yaml:"registers"`
	BitMasks        BitMaskTable   `yaml:"bitMasks"`
	GroupMasks      GroupMaskTable `yaml:"groupMasks"`
}

// NamedRegisterDef is one entry of a descriptor's register table.
type NamedRegisterDef struct {
	Name string
	RegisterDef
}

// RegisterDef is the descriptor form of a register.
type RegisterDef struct {
	Address     int         `yaml:"address"`
	Type        string      `yaml:"type"`
	Length      int         `yaml:"length"`
	Access      AccessNames `yaml:"access"`
	MaskType    string      `yaml:"maskType"`
	PayloadSpec MemberTable `yaml:"payloadSpec"`
	Volatile    bool        `yaml:"volatile"`
	Description string      `yaml:"description"`
}

// NamedMemberDef is one entry of a register's payloadSpec table.
type NamedMemberDef struct {
	Name string
	MemberDef
}

// MemberDef is the descriptor form of a payload member.
type MemberDef struct {
	Offset        int    `yaml:"offset"`
	Mask          uint64 `yaml:"mask"`
	MaskType      string `yaml:"maskType"`
	InterfaceType string `yaml:"interfaceType"`
	Description   string `yaml:"description"`
}

// NamedBitMaskDef is one entry of a descriptor's bitMasks table.
type NamedBitMaskDef struct {
	Name        string
	Description string      `yaml:"description"`
	Bits        NamedValues `yaml:"bits"`
}

// NamedGroupMaskDef is one entry of a descriptor's groupMasks table.
type NamedGroupMaskDef struct {
	Name        string
	Description string      `yaml:"description"`
	Values      NamedValues `yaml:"values"`
}

// NamedValue is a single name → integer entry of a mask table.
type NamedValue struct {
	Name  string
	Value uint64
}

// RegisterTable is an ordered register-name → definition mapping.
// YAML mapping order is preserved, so register declaration order survives
// parsing.
type RegisterTable []NamedRegisterDef

func (t *RegisterTable) UnmarshalYAML(node *yaml.Node) error {
	return decodeOrdered(node, "registers", func(name string, value *yaml.Node) error {
		var def RegisterDef
		if err := value.Decode(&def); err != nil {
			return err
		}
		*t = append(*t, NamedRegisterDef{Name: name, RegisterDef: def})

		return nil
	})
}

// MemberTable is an ordered member-name → definition mapping.
type MemberTable []NamedMemberDef

func (t *MemberTable) UnmarshalYAML(node *yaml.Node) error {
	return decodeOrdered(node, "payloadSpec", func(name string, value *yaml.Node) error {
		var def MemberDef
		if err := value.Decode(&def); err != nil {
			return err
		}
		*t = append(*t, NamedMemberDef{Name: name, MemberDef: def})

		return nil
	})
}

// BitMaskTable is an ordered bit-mask-name → definition mapping.
type BitMaskTable []NamedBitMaskDef

func (t *BitMaskTable) UnmarshalYAML(node *yaml.Node) error {
	return decodeOrdered(node, "bitMasks", func(name string, value *yaml.Node) error {
		def := NamedBitMaskDef{Name: name}
		if err := value.Decode(&def); err != nil {
			return err
		}
		*t = append(*t, def)

		return nil
	})
}

// GroupMaskTable is an ordered group-mask-name → definition mapping.
type GroupMaskTable []NamedGroupMaskDef

func (t *GroupMaskTable) UnmarshalYAML(node *yaml.Node) error {
	return decodeOrdered(node, "groupMasks", func(name string, value *yaml.Node) error {
		def := NamedGroupMaskDef{Name: name}
		if err := value.Decode(&def); err != nil {
			return err
		}
		*t = append(*t, def)

		return nil
	})
}

// NamedValues is an ordered name → integer mapping (mask bits or values).
type NamedValues []NamedValue

func (t *NamedValues) UnmarshalYAML(node *yaml.Node) error {
	return decodeOrdered(node, "mask values", func(name string, value *yaml.Node) error {
		var v uint64
		if err := value.Decode(&v); err != nil {
			return err
		}
		*t = append(*t, NamedValue{Name: name, Value: v})

		return nil
	})
}

// AccessNames is a register's access list; the descriptor accepts a single
// scalar ("Write") or a sequence ([Read, Write]).
type AccessNames []string

func (a *AccessNames) UnmarshalYAML(node *yaml.Node) error {
	switch node.Kind {
	case yaml.ScalarNode:
		var name string
		if err := node.Decode(&name); err != nil {
			return err
		}
		*a = AccessNames{name}

		return nil
	case yaml.SequenceNode:
		var names []string
		if err := node.Decode(&names); err != nil {
			return err
		}
		*a = AccessNames(names)

		return nil
	default:
		return fmt.Errorf("device: access must be a name or a list of names")
	}
}

func decodeOrdered(node *yaml.Node, what string, each func(name string, value *yaml.Node) error) error {
	if node.Kind != yaml.MappingNode {
		return fmt.Errorf("device: %s must be a mapping", what)
	}

	for i := 0; i+1 < len(node.Content); i += 2 {
		var name string
		if err := node.Content[i].Decode(&name); err != nil {
			return err
		}
		if err := each(name, node.Content[i+1]); err != nil {
			return err
		}
	}

	return nil
}

// --- SchemaOption ---

// SchemaOption is a functional option for ParseSchema and LoadSchema.
type SchemaOption interface {
	apply(*schemaConfig)
}

type schemaOptFunc func(*schemaConfig)

func (f schemaOptFunc) apply(cfg *schemaConfig) { f(cfg) }

type schemaConfig struct {
	includeCommon bool
}

// WithoutCommonRegisters disables merging of the Harp common register set
// into the parsed schema.
func WithoutCommonRegisters() SchemaOption {
	return schemaOptFunc(func(cfg *schemaConfig) {
		cfg.includeCommon = false
	})
}

//go:embed common.yml
var commonYAML []byte

var (
	commonOnce sync.Once
	commonDesc *Descriptor
	commonErr  error
)

func commonDescriptor() (*Descriptor, error) {
	commonOnce.Do(func() {
		commonDesc = &Descriptor{}
		commonErr = yaml.Unmarshal(commonYAML, commonDesc)
	})

	return commonDesc, commonErr
}

// ParseSchema parses a device.yml document and builds a validated Schema.
//
// Unless the descriptor already declares a WhoAmI register, or the
// WithoutCommonRegisters option is given, the Harp common register set is
// merged in first; registers declared by the descriptor override common
// registers of the same name.
func ParseSchema(data []byte, opts ...SchemaOption) (*Schema, error) {
	cfg := schemaConfig{includeCommon: true}
	for _, opt := range opts {
		opt.apply(&cfg)
	}

	desc := &Descriptor{}
	if err := yaml.Unmarshal(data, desc); err != nil {
		return nil, fmt.Errorf("device: parsing schema: %w", err)
	}

	if cfg.includeCommon && !desc.Registers.contains("WhoAmI") {
		common, err := commonDescriptor()
		if err != nil {
			return nil, fmt.Errorf("device: parsing common registers: %w", err)
		}
		desc = mergeDescriptors(common, desc)
	}

	return NewSchema(desc)
}

// LoadSchema reads and parses a device.yml schema file.
func LoadSchema(path string, opts ...SchemaOption) (*Schema, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("device: reading schema: %w", err)
	}

	return ParseSchema(data, opts...)
}

func (t RegisterTable) contains(name string) bool {
	for _, def := range t {
		if def.Name == name {
			return true
		}
	}

	return false
}

// mergeDescriptors overlays dev on top of common: common entries keep their
// position but are replaced by same-named dev entries, and dev entries not
// present in common are appended in their own order.
func mergeDescriptors(common, dev *Descriptor) *Descriptor {
	merged := &Descriptor{
		Device:          dev.Device,
		WhoAmI:          dev.WhoAmI,
		FirmwareVersion: dev.FirmwareVersion,
		HardwareTargets: dev.HardwareTargets,
	}

	merged.Registers = mergeTables(common.Registers, dev.Registers,
		func(d NamedRegisterDef) string { return d.Name })
	merged.BitMasks = mergeTables(common.BitMasks, dev.BitMasks,
		func(d NamedBitMaskDef) string { return d.Name })
	merged.GroupMasks = mergeTables(common.GroupMasks, dev.GroupMasks,
		func(d NamedGroupMaskDef) string { return d.Name })

	return merged
}

func mergeTables[T any](common, dev []T, key func(T) string) []T {
	devIndex := make(map[string]int, len(dev))
	for i, d := range dev {
		devIndex[key(d)] = i
	}

	merged := make([]T, 0, len(common)+len(dev))
	seen := make(map[string]bool, len(common))
	for _, c := range common {
		if i, ok := devIndex[key(c)]; ok {
			merged = append(merged, dev[i])
		} else {
			merged = append(merged, c)
		}
		seen[key(c)] = true
	}
	for _, d := range dev {
		if !seen[key(d)] {
			merged = append(merged, d)
		}
	}

	return merged
}
