//go:build linux
// +build linux

package fsattr

import (
	"fmt"
	"os"

	"golang.org/x/sys/unix"
)

// fsImmutableFL is FS_IMMUTABLE_FL from <linux/fs.h>; golang.org/x/sys/unix
// does not export it.
const fsImmutableFL = 0x00000010

// SetImmutable sets or clears the immutable inode flag on path, leaving
// all other flags untouched. Setting an already-set state is a no-op.
// Clearing the flag (and setting it) requires CAP_LINUX_IMMUTABLE, so a
// non-root caller gets an error satisfying errors.Is(err, os.ErrPermission).
func SetImmutable(path string, immutable bool) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()

	flags, err := unix.IoctlGetInt(int(f.Fd()), unix.FS_IOC_GETFLAGS)
	if err != nil {
		return fmt.Errorf("get inode flags of %s: %w", path, err)
	}

	if immutable {
		flags |= fsImmutableFL
	} else {
		flags &^= fsImmutableFL
	}

	if err := unix.IoctlSetPointerInt(int(f.Fd()), unix.FS_IOC_SETFLAGS, flags); err != nil {
		return fmt.Errorf("set inode flags of %s: %w", path, err)
	}
	return nil
}
