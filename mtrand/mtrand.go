// Package mtrand implements the seeded deterministic word stream that backs
// entropy interception. It has the buffer-and-cursor shape of the classic
// Mersenne Twister, without output tempering. It is a fast, weak generator
// meant for reproducing program behavior bit-for-bit across runs; it is not
// suitable for anything security-sensitive.
package mtrand

import "encoding/binary"

const (
	stateLen      = 624
	twistDistance = 397

	upperMask = 0x80000000
	lowerMask = 0x7fffffff
	matrixA   = 0x9908b0df
)

// Source is a deterministic stream of 32-bit words. Two Sources seeded with
// the same value produce identical infinite streams on every platform.
//
// A Source is not safe for concurrent use; wrap it in a LockedSource to
// share one stream between goroutines.
type Source struct {
	state [stateLen]uint32
	index int
}

// New returns a Source seeded with seed.
func New(seed uint64) *Source {
	s := &Source{}
	s.Reseed(seed)
	return s
}

// Reseed deterministically refills the state buffer from seed and rewinds
// the cursor. Nothing outside seed feeds the state: no clock, no pid, no
// address-space layout.
func (s *Source) Reseed(seed uint64) {
	seed += 0xdead
	cube := seed * seed * seed
	for i := range s.state {
		t := uint32(cube) + uint32(i*i*i)
		s.state[i] = t * t * t
	}
	s.index = 0
}

// Uint32 returns the next word of the stream. Regeneration is lazy: the
// cursor rests one past the final slot after the draw that exhausts the
// buffer, and the twist runs at the start of the draw after that.
func (s *Source) Uint32() uint32 {
	if s.index == stateLen {
		s.twist()
		s.index = 0
	}
	w := s.state[s.index]
	s.index++
	return w
}

// twist regenerates the whole buffer in place from its previous contents,
// using feedback distance 397 and the usual twisted-recurrence constants.
func (s *Source) twist() {
	mix := func(i, j int) uint32 {
		return s.state[i]&upperMask | s.state[j]&lowerMask
	}
	var i int
	for ; i < stateLen-twistDistance; i++ {
		x := mix(i, i+1)
		s.state[i] = s.state[i+twistDistance] ^ x>>1 ^ (x&1)*matrixA
	}
	for ; i < stateLen-1; i++ {
		x := mix(i, i+1)
		s.state[i] = s.state[i-(stateLen-twistDistance)] ^ x>>1 ^ (x&1)*matrixA
	}
	x := mix(stateLen-1, 0)
	s.state[stateLen-1] = s.state[twistDistance-1] ^ x>>1 ^ (x&1)*matrixA
}

// Fill writes the next len(p) bytes of the stream into p, four little-endian
// bytes per word, truncating the final word when len(p) is not a multiple of
// four. The byte order is fixed so output is identical across machines.
func (s *Source) Fill(p []byte) {
	for len(p) >= 4 {
		binary.LittleEndian.PutUint32(p, s.Uint32())
		p = p[4:]
	}
	if len(p) > 0 {
		var tail [4]byte
		binary.LittleEndian.PutUint32(tail[:], s.Uint32())
		copy(p, tail[:])
	}
}
