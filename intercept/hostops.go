// Package intercept substitutes deterministic bytes for a process's reads of
// OS entropy. It exposes replacements for getrandom, getentropy, and
// open/read/close; calls that touch an entropy source are served from seeded
// streams, everything else is forwarded untouched to the original host
// operations.
package intercept

// HostOps is the set of original operations the engine forwards to. The
// production implementation is backed by raw syscalls; tests inject fakes so
// no real symbol resolution is needed.
//
// Signatures mirror golang.org/x/sys/unix so forwarded calls preserve the
// originals' conventions exactly, including errno-valued errors.
type HostOps interface {
	Open(path string, flag int, perm uint32) (int, error)
	Read(fd int, p []byte) (int, error)
	Close(fd int) error
	Getrandom(p []byte, flags int) (int, error)
	Getentropy(p []byte) error
}
