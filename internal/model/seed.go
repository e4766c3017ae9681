package model

import "math/rand/v2"

// PCG stream selectors. One user seed feeds every random draw in the
// package; the stream keeps the default initialization and each layer's
// re-initialization on independent sequences.
const (
	initStream   uint64 = 0x9e3779b97f4a7c15
	reinitStream uint64 = 0xbf58476d1ce4e5b9
)

func initSource(seed uint64) *rand.PCG {
	return rand.NewPCG(seed, initStream)
}

func reinitSource(seed uint64, layer int) *rand.PCG {
	return rand.NewPCG(seed, reinitStream+uint64(layer))
}
