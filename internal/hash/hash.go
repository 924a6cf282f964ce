// Package hash computes and compares the perceptual hashes used by the
// visual detector. Perceptual hashes are fixed-width bit fingerprints
// where visually similar images sit at small Hamming distance.
//
// Three of the four hashes (phash, dhash, ahash) come from goimagehash;
// the wavelet hash is a Haar-transform implementation in whash.go.
// Hashes are serialized as bare fixed-width hex strings to match the
// signature documents produced by the external generator.
package hash

import (
	"fmt"
	"image"
	"math/bits"
	"strconv"
	"strings"

	"github.com/corona10/goimagehash"
)

// Bit widths of the four hash types. The similarity conversion uses the
// bit width as the maximum Hamming distance.
const (
	PHashBits = 256 // 16x16 DCT perceptual hash
	DHashBits = 64  // 8x8 difference hash
	AHashBits = 64  // 8x8 average hash
	WHashBits = 64  // 8x8 Haar wavelet hash
)

// Fingerprints holds the four hashes of one canonical region tile as hex
// strings. An empty field means that hash could not be computed and is
// excluded from comparison rather than scored zero.
type Fingerprints struct {
	PHash string
	DHash string
	AHash string
	WHash string
}

// Compute calculates all four perceptual hashes of a canonical tile.
// Individual hash failures leave the corresponding field empty.
func Compute(tile image.Image) Fingerprints {
	var fp Fingerprints

	if h, err := goimagehash.ExtPerceptionHash(tile, 16, 16); err == nil {
		fp.PHash = encodeWords(h.GetHash(), PHashBits)
	}
	if h, err := goimagehash.DifferenceHash(tile); err == nil {
		fp.DHash = encodeWords([]uint64{h.GetHash()}, DHashBits)
	}
	if h, err := goimagehash.AverageHash(tile); err == nil {
		fp.AHash = encodeWords([]uint64{h.GetHash()}, AHashBits)
	}
	fp.WHash = encodeWords([]uint64{waveletHash(tile)}, WHashBits)

	return fp
}

// Similarity converts the Hamming distance between two hex-encoded hashes
// of the given bit width into a similarity in [0, 1]. The second return
// is false when either hash is absent or malformed, which excludes the
// hash type from scoring instead of contributing a zero.
func Similarity(stored, computed string, bitWidth int) (float64, bool) {
	a, err := decodeHex(stored, bitWidth)
	if err != nil {
		return 0, false
	}
	b, err := decodeHex(computed, bitWidth)
	if err != nil {
		return 0, false
	}

	dist := 0
	for i := range a {
		dist += bits.OnesCount64(a[i] ^ b[i])
	}

	sim := 1.0 - float64(dist)/float64(bitWidth)
	if sim < 0 {
		sim = 0
	} else if sim > 1 {
		sim = 1
	}
	return sim, true
}

// encodeWords serializes hash words as fixed-width lowercase hex.
func encodeWords(words []uint64, bitWidth int) string {
	var sb strings.Builder
	for _, w := range words {
		fmt.Fprintf(&sb, "%016x", w)
	}
	s := sb.String()
	want := bitWidth / 4
	if len(s) > want {
		s = s[len(s)-want:]
	}
	return s
}

// decodeHex parses a bare hex hash of the expected bit width into 64-bit
// words, most significant first.
func decodeHex(s string, bitWidth int) ([]uint64, error) {
	want := bitWidth / 4
	if len(s) != want {
		return nil, fmt.Errorf("hash length %d, want %d hex chars", len(s), want)
	}
	words := make([]uint64, 0, (bitWidth+63)/64)
	for i := 0; i < len(s); i += 16 {
		end := i + 16
		if end > len(s) {
			end = len(s)
		}
		w, err := strconv.ParseUint(s[i:end], 16, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid hash hex: %w", err)
		}
		words = append(words, w)
	}
	return words, nil
}
