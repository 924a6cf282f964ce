package imaging

import (
	"image"

	"github.com/anthonynsimon/bild/histogram"
	"github.com/disintegration/imaging"
)

// TileSize is the side of the canonical square tile each region is
// resized to before hashing. Hashing a fixed tile makes region
// fingerprints invariant to render DPI.
const TileSize = 512

// HistogramBins is the number of grayscale histogram bins per region.
const HistogramBins = 256

// regionBoxes are the fixed named page regions in normalized page
// fractions [x1, y1, x2, y2]. These are layout-family constants for the
// supported document family, not learned values.
var regionBoxes = []struct {
	name string
	box  [4]float64
}{
	{"header", [4]float64{0.0, 0.0, 1.0, 0.25}},
	{"main_table", [4]float64{0.1, 0.25, 0.9, 0.65}},
	{"payment_info", [4]float64{0.0, 0.70, 1.0, 0.95}},
}

// RegionNames returns the fixed region names in definition order.
func RegionNames() []string {
	names := make([]string, len(regionBoxes))
	for i, r := range regionBoxes {
		names[i] = r.name
	}
	return names
}

// RegionBox returns the normalized bounding box of a named region and
// whether the name is known.
func RegionBox(name string) ([4]float64, bool) {
	for _, r := range regionBoxes {
		if r.name == name {
			return r.box, true
		}
	}
	return [4]float64{}, false
}

// SplitRegions partitions a rendered page into the named regions.
// Regions that collapse to an empty crop (degenerate page sizes) are
// omitted from the result rather than returned empty.
func SplitRegions(page *image.Gray) map[string]*image.Gray {
	bounds := page.Bounds()
	w := bounds.Dx()
	h := bounds.Dy()

	regions := make(map[string]*image.Gray, len(regionBoxes))
	for _, r := range regionBoxes {
		x1 := int(r.box[0] * float64(w))
		y1 := int(r.box[1] * float64(h))
		x2 := int(r.box[2] * float64(w))
		y2 := int(r.box[3] * float64(h))
		if x2 <= x1 || y2 <= y1 {
			continue
		}

		crop := imaging.Crop(page, image.Rect(bounds.Min.X+x1, bounds.Min.Y+y1, bounds.Min.X+x2, bounds.Min.Y+y2))
		if crop.Bounds().Empty() {
			continue
		}
		regions[r.name] = ToGray(crop)
	}
	return regions
}

// PixelBox converts a normalized region box into pixel coordinates for a
// page of the given raster size.
func PixelBox(box [4]float64, w, h int) [4]int {
	return [4]int{
		int(box[0] * float64(w)),
		int(box[1] * float64(h)),
		int(box[2] * float64(w)),
		int(box[3] * float64(h)),
	}
}

// CanonicalTile resizes a region crop to the canonical square hashing
// tile using Lanczos resampling.
func CanonicalTile(region image.Image) image.Image {
	return imaging.Resize(region, TileSize, TileSize, imaging.Lanczos)
}

// GrayHistogram computes the 256-bin grayscale histogram of a region.
// Bins hold raw pixel counts; comparison normalizes as needed. The
// histogram is taken over the un-resized crop so bin mass reflects the
// region's true ink distribution.
func GrayHistogram(region *image.Gray) []float64 {
	// For a grayscale source the R channel carries the luminance bins.
	rgbaHist := histogram.NewRGBAHistogram(region)
	bins := make([]float64, HistogramBins)
	for i, v := range rgbaHist.R.Bins {
		if i >= HistogramBins {
			break
		}
		bins[i] = float64(v)
	}
	return bins
}
