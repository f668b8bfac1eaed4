// Package device provides the in-memory model of a Harp device schema:
// the registers a device exposes, their scalar types and lengths, and the
// bit/group masks used to decompose register values into named fields.
//
// A schema is built once — either parsed from a device.yml descriptor with
// ParseSchema/LoadSchema, or constructed from a Descriptor directly with
// NewSchema — validated in full, and immutable afterwards. Every mask
// reference is resolved at build time, so decode-time lookups on a valid
// schema cannot fail.
//
// Usage Example:
//
//	schema, err := device.LoadSchema("device.yml")
//	if err != nil {
//	    // the descriptor is malformed; nothing was built
//	}
//
//	reg, ok := schema.Register("OperationControl")
//	if ok {
//	    fmt.Println(reg.Address, reg.Type, reg.Length)
//	}
package device
