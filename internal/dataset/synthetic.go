package dataset

import (
	"math/rand/v2"
)

// Seven-segment layout of each digit: a (top), b (top right), c (bottom
// right), d (bottom), e (bottom left), f (top left), g (middle).
var digitSegments = [NumClasses]string{
	0: "abcdef",
	1: "bc",
	2: "abdeg",
	3: "abcdg",
	4: "bcfg",
	5: "acdfg",
	6: "acdefg",
	7: "abc",
	8: "abcdefg",
	9: "abcdfg",
}

// segment endpoints as (row0, col0, row1, col1) in a 28x28 frame.
var segmentLines = map[byte][4]int{
	'a': {5, 9, 5, 18},
	'b': {5, 18, 13, 18},
	'c': {14, 18, 22, 18},
	'd': {22, 9, 22, 18},
	'e': {14, 9, 22, 9},
	'f': {5, 9, 13, 9},
	'g': {13, 9, 13, 18},
}

// Synthetic builds a deterministic stand-in for MNIST: n 28x28 images of
// seven-segment digits with random offsets, stroke intensity and background
// noise. Labels cycle through 0-9 so every class is present when n >= 10.
func Synthetic(n int, seed uint64) (*InMemory, error) {
	rng := rand.New(rand.NewPCG(seed, seed^0x5851f42d4c957f2d))

	images := make([][]uint8, n)
	labels := make([]uint8, n)
	for i := range images {
		label := uint8(i % NumClasses)
		labels[i] = label
		images[i] = drawDigit(label, rng)
	}
	return NewInMemory(Rows, Cols, images, labels)
}

func drawDigit(label uint8, rng *rand.Rand) []uint8 {
	pixels := make([]uint8, Rows*Cols)
	for i := range pixels {
		if rng.IntN(20) == 0 {
			pixels[i] = uint8(rng.IntN(40))
		}
	}

	dr, dc := rng.IntN(5)-2, rng.IntN(5)-2
	ink := uint8(180 + rng.IntN(76))
	for _, s := range []byte(digitSegments[label]) {
		line := segmentLines[s]
		r0, c0, r1, c1 := line[0]+dr, line[1]+dc, line[2]+dr, line[3]+dc
		for r := r0; r <= r1; r++ {
			for c := c0; c <= c1; c++ {
				// 2px stroke
				plot(pixels, r, c, ink)
				plot(pixels, r+1, c+1, ink)
			}
		}
	}
	return pixels
}

func plot(pixels []uint8, r, c int, v uint8) {
	if r < 0 || r >= Rows || c < 0 || c >= Cols {
		return
	}
	if pixels[r*Cols+c] < v {
		pixels[r*Cols+c] = v
	}
}
