package imaging

import (
	"image"
	"image/color"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// createLowContrastPage builds a page whose gray values sit in a narrow
// band, the kind of wash CLAHE is meant to spread out.
func createLowContrastPage(w, h int) *image.Gray {
	img := image.NewGray(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.SetGray(x, y, color.Gray{Y: uint8(110 + (x+y)%20)})
		}
	}
	return img
}

func grayRange(img *image.Gray) (uint8, uint8) {
	lo, hi := uint8(255), uint8(0)
	b := img.Bounds()
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			v := img.GrayAt(x, y).Y
			if v < lo {
				lo = v
			}
			if v > hi {
				hi = v
			}
		}
	}
	return lo, hi
}

func TestPreprocessPreservesDimensions(t *testing.T) {
	page := createLowContrastPage(640, 480)

	out := Preprocess(page)
	require.NotNil(t, out)
	assert.Equal(t, 640, out.Bounds().Dx())
	assert.Equal(t, 480, out.Bounds().Dy())
}

func TestPreprocessDeterministic(t *testing.T) {
	a := Preprocess(createLowContrastPage(320, 240))
	b := Preprocess(createLowContrastPage(320, 240))

	assert.Equal(t, a.Pix, b.Pix)
}

func TestPreprocessStretchesContrast(t *testing.T) {
	page := createLowContrastPage(320, 320)

	loIn, hiIn := grayRange(page)
	loOut, hiOut := grayRange(Preprocess(page))

	assert.Greater(t, int(hiOut)-int(loOut), int(hiIn)-int(loIn))
}

func TestToGray(t *testing.T) {
	src := image.NewRGBA(image.Rect(0, 0, 10, 10))
	for y := 0; y < 10; y++ {
		for x := 0; x < 10; x++ {
			src.Set(x, y, color.RGBA{R: 120, G: 120, B: 120, A: 255})
		}
	}

	gray := ToGray(src)
	require.NotNil(t, gray)
	assert.Equal(t, 10, gray.Bounds().Dx())
	assert.Equal(t, uint8(120), gray.GrayAt(5, 5).Y)
}
