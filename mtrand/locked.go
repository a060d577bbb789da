package mtrand

import (
	"io"
	"math/rand"
	"sync"
)

var (
	_ io.Reader     = (*LockedSource)(nil)
	_ rand.Source64 = (*LockedSource)(nil)
)

// LockedSource serializes access to a Source so one deterministic stream can
// be shared between goroutines. Each call consumes a contiguous chunk of the
// stream under the lock; the interleaving of callers decides which caller
// sees which chunk, but the stream content and the cursor position after any
// fixed amount of consumption stay deterministic.
type LockedSource struct {
	mu  sync.Mutex
	src *Source
}

// NewLocked returns a LockedSource seeded with seed.
func NewLocked(seed uint64) *LockedSource {
	return &LockedSource{src: New(seed)}
}

func (l *LockedSource) Uint32() uint32 {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.src.Uint32()
}

func (l *LockedSource) Uint64() uint64 {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.src.Uint64()
}

func (l *LockedSource) Int63() int64 {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.src.Int63()
}

func (l *LockedSource) Seed(seed int64) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.src.Seed(seed)
}

func (l *LockedSource) Fill(p []byte) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.src.Fill(p)
}

func (l *LockedSource) Read(p []byte) (int, error) {
	l.Fill(p)
	return len(p), nil
}
