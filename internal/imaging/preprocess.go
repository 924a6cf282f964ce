package imaging

import (
	"image"
	"math"

	"github.com/anthonynsimon/bild/blur"
	"github.com/disintegration/imaging"
)

// Preprocess runs the visual-detection preprocessing pipeline on a
// rendered grayscale page: contrast-limited adaptive histogram
// equalization followed by a mild Gaussian blur.
//
// The order matters: equalizing first means the blur smooths any banding
// the equalization introduces, instead of the equalization amplifying
// blur noise.
func Preprocess(gray *image.Gray) *image.Gray {
	eq := clahe(gray, 2.0, 8)
	return ToGray(blur.Gaussian(eq, 1.0))
}

// ToGray converts any image to 8-bit grayscale.
func ToGray(img image.Image) *image.Gray {
	if g, ok := img.(*image.Gray); ok {
		return g
	}
	src := imaging.Grayscale(img)
	bounds := src.Bounds()
	out := image.NewGray(image.Rect(0, 0, bounds.Dx(), bounds.Dy()))
	for y := 0; y < bounds.Dy(); y++ {
		for x := 0; x < bounds.Dx(); x++ {
			// Grayscale output has R == G == B.
			i := src.PixOffset(bounds.Min.X+x, bounds.Min.Y+y)
			out.Pix[y*out.Stride+x] = src.Pix[i]
		}
	}
	return out
}

// clahe applies contrast-limited adaptive histogram equalization over a
// tiles x tiles grid. Each tile gets a clipped-histogram lookup table;
// pixel values are bilinearly interpolated between the four surrounding
// tile tables to avoid visible tile seams.
func clahe(gray *image.Gray, clipLimit float64, tiles int) *image.Gray {
	bounds := gray.Bounds()
	w := bounds.Dx()
	h := bounds.Dy()
	if w == 0 || h == 0 {
		return gray
	}
	if tiles < 1 {
		tiles = 1
	}

	tileW := (w + tiles - 1) / tiles
	tileH := (h + tiles - 1) / tiles

	// Build one clipped-CDF lookup table per tile.
	luts := make([][][256]uint8, tiles)
	for ty := 0; ty < tiles; ty++ {
		luts[ty] = make([][256]uint8, tiles)
		for tx := 0; tx < tiles; tx++ {
			x0, x1 := tx*tileW, (tx+1)*tileW
			y0, y1 := ty*tileH, (ty+1)*tileH
			if x1 > w {
				x1 = w
			}
			if y1 > h {
				y1 = h
			}
			if x0 >= x1 || y0 >= y1 {
				continue
			}

			var hist [256]int
			for y := y0; y < y1; y++ {
				for x := x0; x < x1; x++ {
					hist[gray.GrayAt(bounds.Min.X+x, bounds.Min.Y+y).Y]++
				}
			}

			area := (x1 - x0) * (y1 - y0)
			clip := int(clipLimit * float64(area) / 256.0)
			if clip < 1 {
				clip = 1
			}

			// Clip the histogram and spread the excess evenly.
			excess := 0
			for i := range hist {
				if hist[i] > clip {
					excess += hist[i] - clip
					hist[i] = clip
				}
			}
			bonus := excess / 256
			for i := range hist {
				hist[i] += bonus
			}

			cum := 0
			for i := 0; i < 256; i++ {
				cum += hist[i]
				v := (cum*255 + area/2) / area
				if v > 255 {
					v = 255
				}
				luts[ty][tx][i] = uint8(v)
			}
		}
	}

	out := image.NewGray(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		gy := (float64(y)+0.5)/float64(tileH) - 0.5
		ty0 := int(math.Floor(gy))
		fy := gy - float64(ty0)
		ty0 = clamp(ty0, 0, tiles-1)
		ty1 := clamp(ty0+1, 0, tiles-1)
		if gy < 0 {
			ty1 = ty0
			fy = 0
		}

		for x := 0; x < w; x++ {
			gx := (float64(x)+0.5)/float64(tileW) - 0.5
			tx0 := int(math.Floor(gx))
			fx := gx - float64(tx0)
			tx0 = clamp(tx0, 0, tiles-1)
			tx1 := clamp(tx0+1, 0, tiles-1)
			if gx < 0 {
				tx1 = tx0
				fx = 0
			}

			v := gray.GrayAt(bounds.Min.X+x, bounds.Min.Y+y).Y
			top := (1-fx)*float64(luts[ty0][tx0][v]) + fx*float64(luts[ty0][tx1][v])
			bot := (1-fx)*float64(luts[ty1][tx0][v]) + fx*float64(luts[ty1][tx1][v])
			out.Pix[y*out.Stride+x] = uint8(math.Round((1-fy)*top + fy*bot))
		}
	}
	return out
}
