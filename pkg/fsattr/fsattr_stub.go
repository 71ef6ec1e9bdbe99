//go:build !linux
// +build !linux

package fsattr

import "errors"

func SetImmutable(path string, immutable bool) error {
	return errors.New("inode flags not supported on this platform")
}
