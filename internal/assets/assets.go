// Package assets resolves data files relative to the running executable.
package assets

import (
	"os"
	"path/filepath"

	"github.com/cockroachdb/errors"

	"github.com/vkngwrapper/breakable-toy/internal/logging"
)

// Locator resolves relative paths against a fixed base directory.
type Locator struct {
	base string
}

// NewLocator uses exePath's directory as the base. If exePath is itself a
// directory it becomes the base.
func NewLocator(exePath string, log *logging.Logger) (*Locator, error) {
	base := exePath
	info, err := os.Stat(exePath)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to stat executable path %s", exePath)
	}
	if !info.IsDir() {
		base = filepath.Dir(exePath)
	}

	base, err = filepath.Abs(base)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to resolve base path %s", exePath)
	}
	base, err = filepath.EvalSymlinks(base)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to resolve base path %s", exePath)
	}

	log.Tracef("filesystem base path is %s", base)
	return &Locator{base: base}, nil
}

func FromExecutable(log *logging.Logger) (*Locator, error) {
	exe, err := os.Executable()
	if err != nil {
		return nil, errors.Wrap(err, "failed to locate executable")
	}
	return NewLocator(exe, log)
}

func (l *Locator) Base() string {
	return l.base
}

func (l *Locator) Path(rel string) string {
	return filepath.Join(l.base, filepath.FromSlash(rel))
}

// ReadFile reads the whole file at rel.
func (l *Locator) ReadFile(rel string) ([]byte, error) {
	data, err := os.ReadFile(l.Path(rel))
	if err != nil {
		return nil, errors.Wrapf(err, "failed to open file at %s", rel)
	}
	return data, nil
}

// ReadSPIRV reads a compiled shader and returns its words. Empty files and
// files whose size is not a multiple of four are rejected as truncated.
func (l *Locator) ReadSPIRV(rel string) ([]uint32, error) {
	data, err := l.ReadFile(rel)
	if err != nil {
		return nil, err
	}
	if len(data) == 0 || len(data)%4 != 0 {
		return nil, errors.Newf("shader %s is truncated (%d bytes)", rel, len(data))
	}
	return bytesToBytecode(data), nil
}

func bytesToBytecode(b []byte) []uint32 {
	byteCode := make([]uint32, len(b)/4)
	for i := 0; i < len(byteCode); i++ {
		byteIndex := i * 4
		byteCode[i] = 0
		byteCode[i] |= uint32(b[byteIndex])
		byteCode[i] |= uint32(b[byteIndex+1]) << 8
		byteCode[i] |= uint32(b[byteIndex+2]) << 16
		byteCode[i] |= uint32(b[byteIndex+3]) << 24
	}

	return byteCode
}
