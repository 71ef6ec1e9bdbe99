// Package efivars reads and rewrites the Lenovo boot logo variables
// exposed through efivarfs.
package efivars

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/rs/zerolog/log"
)

const (
	// DefaultDir is where the kernel mounts efivarfs.
	DefaultDir = "/sys/firmware/efi/efivars"

	// DespVar carries the logo capability/status record.
	DespVar = "LBLDESP-871455d0-5576-4fb8-9865-af0824463b9e"

	// DvcVar carries the logo checksum record.
	DvcVar = "LBLDVC-871455d1-5576-4fb8-9865-af0824463c9f"
)

// ErrNotFound means the variable does not exist in the store. For the
// Lenovo logo variables this is the expected state on firmware that does
// not support a custom boot logo.
var ErrNotFound = errors.New("variable not found")

// Store is a directory of firmware variable files.
type Store struct {
	Dir string
}

func NewStore(dir string) *Store {
	if dir == "" {
		dir = DefaultDir
	}
	return &Store{Dir: dir}
}

// Path returns the on-disk location of a named variable.
func (s *Store) Path(name string) string {
	return filepath.Join(s.Dir, name)
}

// Read returns the full contents of a variable file, including the
// leading attribute bytes efivarfs prepends.
func (s *Store) Read(name string) ([]byte, error) {
	buf, err := os.ReadFile(s.Path(name))
	if errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("%s: %w", name, ErrNotFound)
	}
	if err != nil {
		return nil, err
	}
	return buf, nil
}

// Write replaces the contents of a variable file and verifies the size
// on read-back. The variables are shared with the firmware and any other
// process doing the same dance, so a size mismatch aborts rather than
// leaving a half-trusted record in place.
func (s *Store) Write(name string, buf []byte) error {
	log.Trace().Msgf("efivars.Write(%s, %d bytes)", name, len(buf))

	path := s.Path(name)
	if err := os.WriteFile(path, buf, 0644); err != nil {
		return err
	}

	fi, err := os.Stat(path)
	if err != nil {
		return err
	}
	if fi.Size() != int64(len(buf)) {
		return fmt.Errorf("%s: wrote %d bytes but variable is %d bytes", name, len(buf), fi.Size())
	}
	return nil
}
