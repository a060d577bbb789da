package intercept

import "sync"

var (
	defaultOnce   sync.Once
	defaultEngine *Engine
)

// Default returns the process-wide engine, built with default options on
// first use and alive for the rest of the process.
func Default() *Engine {
	defaultOnce.Do(func() {
		defaultEngine = New()
	})
	return defaultEngine
}

// The package-level functions mirror the symbol set an interposition build
// exports, all backed by Default.

func Getrandom(p []byte, flags int) (int, error) {
	return Default().Getrandom(p, flags)
}

func Getentropy(p []byte) error {
	return Default().Getentropy(p)
}

func Open(path string, flag int, perm uint32) (int, error) {
	return Default().Open(path, flag, perm)
}

func Read(fd int, p []byte) (int, error) {
	return Default().Read(fd, p)
}

func Close(fd int) error {
	return Default().Close(fd)
}
