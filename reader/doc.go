// Package reader binds a device schema to recorded Harp log data and
// produces per-register, typed, timestamped sample sequences.
//
// A Device wraps an immutable schema; Register resolves a register by name
// into a RegisterReader without touching any byte source. Each read call
// starts a fresh scan of its source — no decoded state survives between
// calls — so the same reader can be pointed at many log files, and readers
// for different sources can run concurrently.
//
// Usage Example:
//
//	schema, _ := device.LoadSchema("device.yml")
//	dev, _ := reader.NewDevice(schema, reader.WithBasePath("dataset"))
//
//	rr, err := dev.Register("AnalogData")
//	if err != nil {
//	    // reader.ErrUnknownRegister
//	}
//
//	samples, _ := rr.Read()
//	defer samples.Close()
//	for {
//	    s, err := samples.Next()
//	    if errors.Is(err, io.EOF) {
//	        break
//	    }
//	    // use s.Values, s.Fields, s.Timestamp
//	}
package reader
