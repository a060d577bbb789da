package mtrand

import (
	"io"
	"math/rand"
)

var (
	_ io.Reader     = (*Source)(nil)
	_ rand.Source64 = (*Source)(nil)
)

// Read fills p with the next bytes of the stream. It always fills all of
// len(p) and never returns an error, so a Source can stand in for
// crypto/rand.Reader in code that must be reproducible.
func (s *Source) Read(p []byte) (int, error) {
	s.Fill(p)
	return len(p), nil
}

// Uint64 returns two consecutive words, low word first, matching the byte
// order Fill produces.
func (s *Source) Uint64() uint64 {
	lo := uint64(s.Uint32())
	hi := uint64(s.Uint32())
	return hi<<32 | lo
}

// Int63 returns a non-negative int64 built from the next two words.
func (s *Source) Int63() int64 {
	return int64(s.Uint64() &^ (1 << 63))
}

// Seed reseeds the stream in place, satisfying math/rand.Source.
func (s *Source) Seed(seed int64) {
	s.Reseed(uint64(seed))
}
