// Package token generates short upper-case alphanumeric identifiers such as
// order ids and coupon code suffixes.
package token

import (
	"math/rand/v2"
	"strings"
)

const alphabet = "0123456789ABCDEFGHIJKLMNOPQRSTUVWXYZ"

// Source is the random source used for ids and coupon policy.
// *rand.Rand from math/rand/v2 satisfies it.
type Source interface {
	IntN(n int) int
}

// NewSource returns a source seeded from the runtime's random state
func NewSource() Source {
	return rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
}

// Generate returns a token of the given length drawn from src
func Generate(src Source, length int) string {
	var b strings.Builder
	b.Grow(length)
	for i := 0; i < length; i++ {
		b.WriteByte(alphabet[src.IntN(len(alphabet))])
	}
	return b.String()
}
