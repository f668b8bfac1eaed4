package reader

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/harp-tech/harp-go/device"
	"github.com/harp-tech/harp-go/message"
)

// RegisterReader decodes the samples of one register from recorded data.
//
// Every read starts a fresh scan of its byte source; nothing is cached
// between calls.
type RegisterReader struct {
	dev *Device
	reg *device.Register
}

// Spec returns the register this reader is bound to.
func (r *RegisterReader) Spec() *device.Register { return r.reg }

// DataFile returns the conventional data file name for this register,
// "<device>_<address>.bin" under the device's base path.
func (r *RegisterReader) DataFile() string {
	name := fmt.Sprintf("%s_%d.bin", r.dev.schema.Device, r.reg.Address)
	return filepath.Join(r.dev.basePath, name)
}

// Read scans the register's conventional data file.
// The returned Samples owns the file; Close releases it, as does reading
// through to io.EOF.
func (r *RegisterReader) Read() (*Samples, error) {
	return r.ReadFiles(r.DataFile())
}

// ReadFiles scans an ordered concatenation of data files.
func (r *RegisterReader) ReadFiles(paths ...string) (*Samples, error) {
	files := make([]io.Reader, 0, len(paths))
	closers := make([]io.Closer, 0, len(paths))
	for _, path := range paths {
		f, err := os.Open(path)
		if err != nil {
			for _, c := range closers {
				_ = c.Close()
			}

			return nil, fmt.Errorf("reader: opening register data: %w", err)
		}
		files = append(files, f)
		closers = append(closers, f)
	}

	s := r.ReadFrom(io.MultiReader(files...))
	s.closers = closers

	return s, nil
}

// ReadFrom scans an arbitrary byte source.
//
// The source must not be scanned by any other reader while the returned
// Samples is in use; framing is sequential and stateful.
func (r *RegisterReader) ReadFrom(src io.Reader) *Samples {
	return &Samples{
		dev:    r.dev,
		reg:    r.reg,
		framer: message.NewFramer(src),
	}
}
