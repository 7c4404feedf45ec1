// Package codec moves audio between files and dsp.Buffer values. The reverb
// core only sees the AudioCodec interface, so file formats can be swapped
// without touching the DSP code.
package codec

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/cwbudde/algo-reverb/dsp"
)

var (
	ErrInvalidFile       = errors.New("codec: invalid audio file")
	ErrUnsupportedFormat = errors.New("codec: unsupported format")
)

// AudioCodec decodes and encodes one audio container format.
type AudioCodec interface {
	// Decode reads a whole stream into a mono or stereo buffer.
	// Streams with more than two channels keep the first two.
	Decode(r io.ReadSeeker) (dsp.Buffer, error)
	// Encode writes buf to w.
	Encode(w io.WriteSeeker, buf dsp.Buffer) error
	// Extensions lists the lower-case file extensions handled, with dot.
	Extensions() []string
}

var registered = []AudioCodec{NewWAV()}

// ForPath picks a codec by file extension.
func ForPath(path string) (AudioCodec, error) {
	ext := strings.ToLower(filepath.Ext(path))
	for _, c := range registered {
		for _, e := range c.Extensions() {
			if e == ext {
				return c, nil
			}
		}
	}
	return nil, fmt.Errorf("%w: %q", ErrUnsupportedFormat, ext)
}

// ReadFile decodes path with c.
func ReadFile(c AudioCodec, path string) (dsp.Buffer, error) {
	f, err := os.Open(path)
	if err != nil {
		return dsp.Buffer{}, err
	}
	defer f.Close()
	buf, err := c.Decode(f)
	if err != nil {
		return dsp.Buffer{}, fmt.Errorf("%s: %w", path, err)
	}
	return buf, nil
}

// WriteFile encodes buf to path with c, creating parent directories.
func WriteFile(c AudioCodec, path string, buf dsp.Buffer) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := c.Encode(f, buf); err != nil {
		f.Close()
		return fmt.Errorf("%s: %w", path, err)
	}
	return f.Close()
}

// Read decodes path with the codec matching its extension.
func Read(path string) (dsp.Buffer, error) {
	c, err := ForPath(path)
	if err != nil {
		return dsp.Buffer{}, err
	}
	return ReadFile(c, path)
}

// Write encodes buf to path with the codec matching its extension.
func Write(path string, buf dsp.Buffer) error {
	c, err := ForPath(path)
	if err != nil {
		return err
	}
	return WriteFile(c, path, buf)
}
