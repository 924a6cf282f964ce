package hash

import (
	"image"
	"sort"

	"github.com/disintegration/imaging"
)

// waveletHash computes a 64-bit Haar wavelet hash.
//
// The image is reduced to a 64x64 grayscale matrix and decomposed with
// three levels of the 2D Haar transform, leaving an 8x8 low-frequency
// band. Each band coefficient above the band median becomes a set bit.
// Like the other perceptual hashes, small visual changes flip few bits.
func waveletHash(img image.Image) uint64 {
	const size = 64
	const levels = 3 // 64 -> 8

	small := imaging.Resize(imaging.Grayscale(img), size, size, imaging.Lanczos)

	mat := make([][]float64, size)
	for y := 0; y < size; y++ {
		mat[y] = make([]float64, size)
		for x := 0; x < size; x++ {
			r, _, _, _ := small.At(x, y).RGBA()
			mat[y][x] = float64(r>>8) / 255.0
		}
	}

	n := size
	for level := 0; level < levels; level++ {
		haarStep(mat, n)
		n /= 2
	}

	// n is now 8: the low-frequency band lives in the top-left corner.
	band := make([]float64, 0, n*n)
	for y := 0; y < n; y++ {
		for x := 0; x < n; x++ {
			band = append(band, mat[y][x])
		}
	}

	med := median(band)

	var h uint64
	for y := 0; y < n; y++ {
		for x := 0; x < n; x++ {
			h <<= 1
			if mat[y][x] > med {
				h |= 1
			}
		}
	}
	return h
}

// haarStep applies one level of the 2D Haar transform to the top-left
// n x n corner of mat: rows first (pairwise average and difference),
// then columns. Averages land in the low half, differences in the high.
func haarStep(mat [][]float64, n int) {
	half := n / 2
	tmp := make([]float64, n)

	for y := 0; y < n; y++ {
		for x := 0; x < half; x++ {
			a, b := mat[y][2*x], mat[y][2*x+1]
			tmp[x] = (a + b) / 2
			tmp[half+x] = (a - b) / 2
		}
		copy(mat[y][:n], tmp)
	}

	for x := 0; x < n; x++ {
		for y := 0; y < half; y++ {
			a, b := mat[2*y][x], mat[2*y+1][x]
			tmp[y] = (a + b) / 2
			tmp[half+y] = (a - b) / 2
		}
		for y := 0; y < n; y++ {
			mat[y][x] = tmp[y]
		}
	}
}

func median(values []float64) float64 {
	sorted := make([]float64, len(values))
	copy(sorted, values)
	sort.Float64s(sorted)
	mid := len(sorted) / 2
	if len(sorted)%2 == 0 {
		return (sorted[mid-1] + sorted[mid]) / 2
	}
	return sorted[mid]
}
