package reader

import (
	"errors"
	"fmt"
	"time"

	"github.com/puzpuzpuz/xsync/v3"

	"github.com/harp-tech/harp-go/device"
	"github.com/harp-tech/harp-go/logger"
)

// ErrUnknownRegister reports a register name absent from the bound schema.
var ErrUnknownRegister = errors.New("reader: unknown register")

// Device binds a validated schema to recorded log data.
//
// A Device holds no decoded state; it may be shared freely between
// goroutines as long as each byte source is scanned by one reader at a
// time.
type Device struct {
	schema   *device.Schema
	basePath string
	epoch    *time.Time
	keepType bool
	strict   bool
	onError  func(error)
	log      logger.Logger

	bindings *xsync.MapOf[string, *RegisterReader]
}

// NewDevice creates a Device over a validated schema.
func NewDevice(schema *device.Schema, opts ...Option) (*Device, error) {
	if schema == nil {
		return nil, errors.New("reader: schema must not be nil")
	}

	dev := &Device{
		schema:   schema,
		log:      logger.GetLogger(),
		bindings: xsync.NewMapOf[string, *RegisterReader](),
	}

	for _, opt := range opts {
		if err := opt.apply(dev); err != nil {
			return nil, err
		}
	}

	return dev, nil
}

// Schema returns the bound schema.
func (d *Device) Schema() *device.Schema { return d.schema }

// Register resolves a register by name into a RegisterReader.
//
// It fails with ErrUnknownRegister when the name is absent from the bound
// schema; no byte source is touched. Bindings are cached, so concurrent
// callers share one RegisterReader per register.
func (d *Device) Register(name string) (*RegisterReader, error) {
	reg, ok := d.schema.Register(name)
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownRegister, name)
	}

	rr, _ := d.bindings.LoadOrCompute(name, func() *RegisterReader {
		return &RegisterReader{dev: d, reg: reg}
	})

	return rr, nil
}

// RegisterByAddress resolves a register by address into a RegisterReader.
func (d *Device) RegisterByAddress(addr uint8) (*RegisterReader, error) {
	reg, ok := d.schema.RegisterByAddress(addr)
	if !ok {
		return nil, fmt.Errorf("%w: address %d", ErrUnknownRegister, addr)
	}

	return d.Register(reg.Name)
}

// --- Option ---

// Option is a functional option for configuring a Device.
type Option interface {
	apply(*Device) error
}

type optFunc func(*Device) error

func (f optFunc) apply(dev *Device) error { return f(dev) }

// WithBasePath sets the directory where conventionally named register data
// files ("<device>_<address>.bin") are resolved.
func WithBasePath(path string) Option {
	return optFunc(func(dev *Device) error {
		dev.basePath = path
		return nil
	})
}

// WithEpoch anchors sample timestamps to a reference datetime; samples then
// expose a wall-clock time via Sample.At. Use message.ReferenceEpoch for
// devices synchronized to UTC Harp time.
func WithEpoch(epoch time.Time) Option {
	return optFunc(func(dev *Device) error {
		dev.epoch = &epoch
		return nil
	})
}

// WithKeepType retains the message kind (Read/Write/Event) on each decoded
// sample.
func WithKeepType() Option {
	return optFunc(func(dev *Device) error {
		dev.keepType = true
		return nil
	})
}

// WithStrict makes readers surface per-frame and per-sample decode errors
// from Next instead of skipping past them.
func WithStrict() Option {
	return optFunc(func(dev *Device) error {
		dev.strict = true
		return nil
	})
}

// WithErrorHandler installs an observer for errors skipped during
// non-strict reads: frame errors and per-sample decode failures.
func WithErrorHandler(handler func(error)) Option {
	return optFunc(func(dev *Device) error {
		if handler == nil {
			return errors.New("reader: error handler must not be nil")
		}
		dev.onError = handler

		return nil
	})
}

// WithLogger sets the logger used to report skipped frames and samples.
func WithLogger(log logger.Logger) Option {
	return optFunc(func(dev *Device) error {
		if log == nil {
			return errors.New("reader: logger must not be nil")
		}
		dev.log = log

		return nil
	})
}
