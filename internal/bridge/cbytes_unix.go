//go:build unix

package bridge

import "golang.org/x/sys/unix"

// cbytes returns s plus a NUL terminator. Strings hold raw bytes, so the
// conversion never re-encodes; it fails with EINVAL on an embedded NUL.
func cbytes(s string) ([]byte, error) {
	return unix.ByteSliceFromString(s)
}
