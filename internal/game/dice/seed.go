package dice

import (
	"crypto/rand"
	"encoding/binary"
)

// NewSeed returns a non-zero 64-bit seed read from crypto/rand. It is used when
// a run is configured without an explicit seed.
//
// Postcondition: return value != 0.
func NewSeed() uint64 {
	var buf [8]byte
	for {
		if _, err := rand.Read(buf[:]); err != nil {
			panic("dice: crypto/rand failure: " + err.Error())
		}
		if seed := binary.LittleEndian.Uint64(buf[:]); seed != 0 {
			return seed
		}
	}
}
