package imaging

// Directional binary morphology over Canny edge masks. The structural
// detector opens the mask with long thin kernels to isolate horizontal
// and vertical line work; surviving pixel mass is the table fingerprint.

// OpenHorizontal applies a morphological opening with a k x 1 horizontal
// kernel, repeated iterations times (erosions first, then dilations).
// Only edge runs at least k pixels wide survive.
func OpenHorizontal(mask [][]bool, k, iterations int) [][]bool {
	out := mask
	for i := 0; i < iterations; i++ {
		out = erodeHorizontal(out, k)
	}
	for i := 0; i < iterations; i++ {
		out = dilateHorizontal(out, k)
	}
	return out
}

// OpenVertical applies a morphological opening with a 1 x k vertical
// kernel, repeated iterations times.
func OpenVertical(mask [][]bool, k, iterations int) [][]bool {
	out := mask
	for i := 0; i < iterations; i++ {
		out = erodeVertical(out, k)
	}
	for i := 0; i < iterations; i++ {
		out = dilateVertical(out, k)
	}
	return out
}

// CountOn returns the number of set pixels in a mask.
func CountOn(mask [][]bool) int {
	n := 0
	for _, row := range mask {
		for _, v := range row {
			if v {
				n++
			}
		}
	}
	return n
}

// erodeHorizontal keeps a pixel only when the full k-wide window centered
// on it is set. Windows are truncated at the borders like an OpenCV
// rectangular kernel anchored at its center.
func erodeHorizontal(mask [][]bool, k int) [][]bool {
	return slideHorizontal(mask, k, true)
}

func dilateHorizontal(mask [][]bool, k int) [][]bool {
	return slideHorizontal(mask, k, false)
}

func erodeVertical(mask [][]bool, k int) [][]bool {
	return slideVertical(mask, k, true)
}

func dilateVertical(mask [][]bool, k int) [][]bool {
	return slideVertical(mask, k, false)
}

// slideHorizontal runs a k-wide window along each row. With all=true it
// erodes (every pixel in the window must be set); otherwise it dilates
// (any set pixel in the window sets the output).
func slideHorizontal(mask [][]bool, k int, all bool) [][]bool {
	h := len(mask)
	if h == 0 {
		return mask
	}
	w := len(mask[0])
	left := k / 2
	right := k - 1 - left

	out := make([][]bool, h)
	for y := 0; y < h; y++ {
		out[y] = make([]bool, w)
		// Running count of set pixels inside the window.
		count := 0
		width := 0
		for x := -left; x <= right && x < w; x++ {
			if x >= 0 {
				width++
				if mask[y][x] {
					count++
				}
			}
		}
		for x := 0; x < w; x++ {
			if all {
				out[y][x] = width > 0 && count == width
			} else {
				out[y][x] = count > 0
			}

			drop := x - left
			add := x + right + 1
			if drop >= 0 {
				width--
				if mask[y][drop] {
					count--
				}
			}
			if add < w {
				width++
				if mask[y][add] {
					count++
				}
			}
		}
	}
	return out
}

// slideVertical is slideHorizontal transposed.
func slideVertical(mask [][]bool, k int, all bool) [][]bool {
	h := len(mask)
	if h == 0 {
		return mask
	}
	w := len(mask[0])
	up := k / 2
	down := k - 1 - up

	out := make([][]bool, h)
	for y := range out {
		out[y] = make([]bool, w)
	}

	for x := 0; x < w; x++ {
		count := 0
		height := 0
		for y := -up; y <= down && y < h; y++ {
			if y >= 0 {
				height++
				if mask[y][x] {
					count++
				}
			}
		}
		for y := 0; y < h; y++ {
			if all {
				out[y][x] = height > 0 && count == height
			} else {
				out[y][x] = count > 0
			}

			drop := y - up
			add := y + down + 1
			if drop >= 0 {
				height--
				if mask[drop][x] {
					count--
				}
			}
			if add < h {
				height++
				if mask[add][x] {
					count++
				}
			}
		}
	}
	return out
}
