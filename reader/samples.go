package reader

import (
	"errors"
	"io"
	"time"

	"github.com/harp-tech/harp-go/device"
	"github.com/harp-tech/harp-go/message"
	"github.com/harp-tech/harp-go/payload"
)

// Sample is one decoded, optionally timestamped observation of a register.
// It is immutable once produced.
type Sample struct {
	// Address is the register address the sample was decoded from.
	Address uint8

	// Type is the message kind, populated when the device reader was
	// configured with WithKeepType; TypeNA otherwise.
	Type message.Type

	// Timestamp is the hardware timestamp, when the frame carried one.
	Timestamp *message.Timestamp

	// At is the epoch-anchored wall-clock time, when the device reader was
	// configured with WithEpoch and the frame carried a timestamp.
	At *time.Time

	// Values are the decoded scalar values, in payload order.
	Values *payload.Values

	// Fields are the expanded sub-field values, in declaration order;
	// empty for registers without a mask or payloadSpec.
	Fields []payload.Field
}

// Seconds returns the sample time as fractional seconds since time zero.
func (s *Sample) Seconds() (float64, bool) {
	if s.Timestamp == nil {
		return 0, false
	}

	return s.Timestamp.AsSeconds(), true
}

// Samples is a lazy cursor over one register's decoded samples.
//
// Samples are produced in file order; out-of-order timestamps pass through
// unmodified. One frame and one sample are in flight at a time, so
// arbitrarily large sources are processed with bounded memory.
type Samples struct {
	dev    *Device
	reg    *device.Register
	framer *message.Framer

	closers []io.Closer
	done    bool
}

// Next returns the next decoded sample.
//
// At the end of the source it returns io.EOF. Frames for other registers
// are skipped silently. Corrupt frames and samples that fail to decode are
// skipped after being handed to the configured error handler (or logged);
// in strict mode they are returned as errors instead, and the cursor
// remains usable afterwards.
func (s *Samples) Next() (*Sample, error) {
	if s.done {
		return nil, io.EOF
	}

	for {
		frame, err := s.framer.Next()
		if err != nil {
			if errors.Is(err, io.EOF) {
				s.done = true
				_ = s.Close()

				return nil, io.EOF
			}
			if skip := s.report(err); skip {
				continue
			}

			return nil, err
		}

		if frame.Address != s.reg.Address {
			continue
		}

		sample, err := s.decode(frame)
		if err != nil {
			if skip := s.report(err); skip {
				continue
			}

			return nil, err
		}

		return sample, nil
	}
}

// All materializes the remaining samples.
func (s *Samples) All() ([]*Sample, error) {
	var out []*Sample
	for {
		sample, err := s.Next()
		if errors.Is(err, io.EOF) {
			return out, nil
		}
		if err != nil {
			return out, err
		}
		out = append(out, sample)
	}
}

// Close releases the underlying byte sources. It is safe to call more than
// once, and unnecessary after Next has returned io.EOF.
func (s *Samples) Close() error {
	var err error
	for _, c := range s.closers {
		err = errors.Join(err, c.Close())
	}
	s.closers = nil

	return err
}

func (s *Samples) decode(frame *message.Frame) (*Sample, error) {
	values, err := payload.DecodeFrame(frame, s.reg)
	if err != nil {
		return nil, err
	}

	fields, err := payload.Expand(values, s.reg)
	if err != nil {
		return nil, err
	}

	sample := &Sample{
		Address:   frame.Address,
		Timestamp: frame.Timestamp,
		Values:    values,
		Fields:    fields,
	}

	if s.dev.keepType {
		sample.Type = frame.Type
	}
	if s.dev.epoch != nil && frame.Timestamp != nil {
		at := frame.Timestamp.Time(*s.dev.epoch)
		sample.At = &at
	}

	return sample, nil
}

// report hands a recoverable error to the configured observer and decides
// whether the cursor should skip past it. Strict mode never skips.
func (s *Samples) report(err error) (skip bool) {
	if s.dev.strict {
		return false
	}

	if s.dev.onError != nil {
		s.dev.onError(err)
	} else {
		s.dev.log.Warn("skipping undecodable data",
			"register", s.reg.Name,
			"address", s.reg.Address,
			"error", err,
		)
	}

	return true
}
