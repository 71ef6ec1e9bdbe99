// Package fsattr toggles the immutable inode flag that Lenovo firmware
// sets on its boot logo EFI variables. The flag must be cleared before
// the variable file can be rewritten and is restored afterwards.
package fsattr
