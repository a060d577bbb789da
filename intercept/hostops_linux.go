package intercept

import (
	"errors"

	"golang.org/x/sys/unix"
)

// DefaultHostOps returns host operations backed by raw syscalls. The
// large-file open variant needs no separate entry: Linux expresses it as the
// O_LARGEFILE flag bit, which passes through Open untouched.
func DefaultHostOps() (HostOps, error) {
	return unixOps{}, nil
}

type unixOps struct{}

func (unixOps) Open(path string, flag int, perm uint32) (int, error) {
	return unix.Open(path, flag, perm)
}

func (unixOps) Read(fd int, p []byte) (int, error) {
	return unix.Read(fd, p)
}

func (unixOps) Close(fd int) error {
	return unix.Close(fd)
}

func (unixOps) Getrandom(p []byte, flags int) (int, error) {
	return unix.Getrandom(p, flags)
}

// Getentropy is composed from getrandom the way glibc composes it: at most
// 256 bytes per call, short reads and EINTR retried until the buffer is
// full.
func (unixOps) Getentropy(p []byte) error {
	if len(p) > 256 {
		return unix.EIO
	}
	for n := 0; n < len(p); {
		r, err := unix.Getrandom(p[n:], 0)
		if errors.Is(err, unix.EINTR) {
			continue
		}
		if err != nil {
			return err
		}
		n += r
	}
	return nil
}
