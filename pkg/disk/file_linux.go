//go:build linux
// +build linux

package disk

import (
	"os"

	"golang.org/x/sys/unix"
)

// advise hints sequential access; the log is append-and-scan shaped and the
// index is read page-at-a-time.
func advise(f *os.File) {
	_ = unix.Fadvise(int(f.Fd()), 0, 0, unix.FADV_SEQUENTIAL)
}

// syncFile skips the metadata flush; file sizes only grow and the header
// rewrite covers the rest.
func syncFile(f *os.File) error {
	return unix.Fdatasync(int(f.Fd()))
}
