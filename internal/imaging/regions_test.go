package imaging

import (
	"image"
	"image/color"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func createFlatPage(w, h int, v uint8) *image.Gray {
	img := image.NewGray(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.SetGray(x, y, color.Gray{Y: v})
		}
	}
	return img
}

func TestRegionNames(t *testing.T) {
	assert.Equal(t, []string{"header", "main_table", "payment_info"}, RegionNames())
}

func TestRegionBox(t *testing.T) {
	box, ok := RegionBox("header")
	require.True(t, ok)
	assert.Equal(t, [4]float64{0.0, 0.0, 1.0, 0.25}, box)

	_, ok = RegionBox("footer")
	assert.False(t, ok)
}

func TestSplitRegions(t *testing.T) {
	page := createFlatPage(1000, 1000, 255)

	regions := SplitRegions(page)
	require.Len(t, regions, 3)

	tests := []struct {
		name string
		w, h int
	}{
		{"header", 1000, 250},
		{"main_table", 800, 400},
		{"payment_info", 1000, 250},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			region, ok := regions[tt.name]
			require.True(t, ok)
			assert.Equal(t, tt.w, region.Bounds().Dx())
			assert.Equal(t, tt.h, region.Bounds().Dy())
		})
	}
}

func TestSplitRegionsDegeneratePage(t *testing.T) {
	// A 1x1 page collapses every region crop to an empty rectangle.
	regions := SplitRegions(createFlatPage(1, 1, 255))
	assert.Empty(t, regions)
}

func TestPixelBox(t *testing.T) {
	box := PixelBox([4]float64{0.1, 0.25, 0.9, 0.65}, 1000, 2000)
	assert.Equal(t, [4]int{100, 500, 900, 1300}, box)
}

func TestCanonicalTile(t *testing.T) {
	tile := CanonicalTile(createFlatPage(800, 400, 128))
	assert.Equal(t, TileSize, tile.Bounds().Dx())
	assert.Equal(t, TileSize, tile.Bounds().Dy())
}

func TestGrayHistogram(t *testing.T) {
	region := createFlatPage(100, 50, 200)

	hist := GrayHistogram(region)
	require.Len(t, hist, HistogramBins)

	// Every pixel lands in the bin of its gray value.
	assert.Equal(t, float64(100*50), hist[200])

	total := 0.0
	for _, v := range hist {
		total += v
	}
	assert.Equal(t, float64(100*50), total)
}
