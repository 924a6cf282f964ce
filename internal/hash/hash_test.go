package hash

import (
	"image"
	"image/color"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// createGradientTile builds a tile with a horizontal brightness gradient,
// which gives every hash type a non-degenerate bit pattern.
func createGradientTile(size int) image.Image {
	img := image.NewGray(image.Rect(0, 0, size, size))
	for y := 0; y < size; y++ {
		for x := 0; x < size; x++ {
			img.SetGray(x, y, color.Gray{Y: uint8(x * 255 / size)})
		}
	}
	return img
}

// createCheckerTile builds a checkerboard tile, visually far from the
// gradient tile.
func createCheckerTile(size, square int) image.Image {
	img := image.NewGray(image.Rect(0, 0, size, size))
	for y := 0; y < size; y++ {
		for x := 0; x < size; x++ {
			if (x/square+y/square)%2 == 0 {
				img.SetGray(x, y, color.Gray{Y: 255})
			}
		}
	}
	return img
}

func TestComputeWidths(t *testing.T) {
	fp := Compute(createGradientTile(512))

	assert.Len(t, fp.PHash, PHashBits/4)
	assert.Len(t, fp.DHash, DHashBits/4)
	assert.Len(t, fp.AHash, AHashBits/4)
	assert.Len(t, fp.WHash, WHashBits/4)
}

func TestComputeDeterministic(t *testing.T) {
	a := Compute(createGradientTile(512))
	b := Compute(createGradientTile(512))

	assert.Equal(t, a, b)
}

func TestSimilarityIdentical(t *testing.T) {
	fp := Compute(createGradientTile(512))

	tests := []struct {
		name     string
		hash     string
		bitWidth int
	}{
		{"phash", fp.PHash, PHashBits},
		{"dhash", fp.DHash, DHashBits},
		{"ahash", fp.AHash, AHashBits},
		{"whash", fp.WHash, WHashBits},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sim, ok := Similarity(tt.hash, tt.hash, tt.bitWidth)
			require.True(t, ok)
			assert.Equal(t, 1.0, sim)
		})
	}
}

func TestSimilarityOpposite(t *testing.T) {
	zeros := strings.Repeat("0", DHashBits/4)
	ones := strings.Repeat("f", DHashBits/4)

	sim, ok := Similarity(zeros, ones, DHashBits)
	require.True(t, ok)
	assert.Equal(t, 0.0, sim)
}

func TestSimilarityDistinctTiles(t *testing.T) {
	a := Compute(createGradientTile(512))
	b := Compute(createCheckerTile(512, 32))

	sim, ok := Similarity(a.PHash, b.PHash, PHashBits)
	require.True(t, ok)
	assert.Less(t, sim, 1.0)
}

func TestSimilarityAbsentOrMalformed(t *testing.T) {
	valid := strings.Repeat("a", DHashBits/4)

	tests := []struct {
		name             string
		stored, computed string
	}{
		{"stored empty", "", valid},
		{"computed empty", valid, ""},
		{"wrong length", valid[:8], valid},
		{"non-hex", strings.Repeat("z", DHashBits/4), valid},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, ok := Similarity(tt.stored, tt.computed, DHashBits)
			assert.False(t, ok)
		})
	}
}

func TestEncodeDecodeRoundTrip(t *testing.T) {
	words := []uint64{0xdeadbeefcafe1234, 0x0123456789abcdef, 0xffffffffffffffff, 0}

	encoded := encodeWords(words, 256)
	require.Len(t, encoded, 64)

	decoded, err := decodeHex(encoded, 256)
	require.NoError(t, err)
	assert.Equal(t, words, decoded)
}

func TestWaveletHashSensitivity(t *testing.T) {
	grad := waveletHash(createGradientTile(512))
	check := waveletHash(createCheckerTile(512, 32))

	assert.NotEqual(t, grad, check)
}
