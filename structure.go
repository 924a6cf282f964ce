package pdfclassify

import (
	"context"
	"fmt"
	"image"
	"math"

	"github.com/docforge/pdfclassify/internal/imaging"
	"github.com/docforge/pdfclassify/internal/sigstore"
)

// Structural sub-score weights. Table geometry dominates because it is
// the most template-specific feature of the layout family.
const (
	pageWeight    = 0.20
	tableWeight   = 0.50
	sectionWeight = 0.25
	layoutWeight  = 0.05
)

// sectionNames are the named sections whose presence the section
// sub-score compares.
var sectionNames = []string{"header", "consumption_table", "payment_info"}

// detectByStructure scores every template's structural signature against
// the input's extracted geometry. A page-count mismatch short-circuits a
// template to score 0.0 without further comparison; the template stays
// in the candidate pool (only text exclusion removes candidates).
// Templates without a structural signature are omitted from the map.
func (c *Classifier) detectByStructure(ctx context.Context, pdfPath string, db *sigstore.Database) (map[string]float64, []string) {
	input, err := c.extractStructure(ctx, pdfPath)
	if err != nil {
		return map[string]float64{}, []string{fmt.Sprintf("structural detection skipped: %v", err)}
	}

	scores := make(map[string]float64, db.Len())
	for _, id := range db.IDs() {
		ss := db.Get(id).Signatures.Structural
		if ss == nil {
			continue
		}
		if input.NumPages != ss.NumPages {
			scores[id] = 0.0
			continue
		}
		scores[id] = compareStructures(input, ss)
	}
	return scores, nil
}

// extractStructure gathers the input's structural record: page count and
// geometry from the PDF metadata, table/section/layout features from the
// cached 300-DPI render.
func (c *Classifier) extractStructure(ctx context.Context, pdfPath string) (*sigstore.StructuralSignature, error) {
	numPages, err := c.reader.PageCount(ctx, pdfPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read page count: %w", err)
	}
	width, height, err := c.reader.PageDimensions(ctx, pdfPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read page dimensions: %w", err)
	}

	aspect := 0.0
	if height > 0 {
		aspect = width / height
	}
	// Portrait only when strictly taller than wide; a square page counts
	// as landscape.
	orientation := "landscape"
	if height > width {
		orientation = "portrait"
	}

	page, err := c.renderedPage(ctx, pdfPath)
	if err != nil {
		return nil, err
	}

	return &sigstore.StructuralSignature{
		NumPages:       numPages,
		PageDimensions: [2]float64{width, height},
		AspectRatio:    aspect,
		Orientation:    orientation,
		Tables:         detectTables(page.Img),
		Sections:       defaultSections(),
		Layout:         detectLayout(page.Img),
	}, nil
}

// detectTables fingerprints table line work with edge detection and
// directional morphology. The counts are pixel-density proxies scaled to
// small integers — approximate fingerprints for comparison, never
// ground truth for cell-accurate extraction.
func detectTables(page *image.Gray) *sigstore.TableSignature {
	mask := imaging.CannyMask(page, 50, 150)

	// Long thin openings keep only line-like runs; the /1000 scaling
	// turns pixel mass into comparable small counts.
	hLines := imaging.CountOn(imaging.OpenHorizontal(mask, 40, 2)) / 1000
	vLines := imaging.CountOn(imaging.OpenVertical(mask, 40, 2)) / 1000

	count := min(hLines, vLines) / 10
	if count < 1 {
		count = 1
	}
	rows := hLines / 5
	if rows < 3 {
		rows = 3
	}
	cols := vLines / 5
	if cols < 3 {
		cols = 3
	}

	box, _ := imaging.RegionBox("main_table")
	return &sigstore.TableSignature{
		Count: count,
		MainConsumption: &sigstore.TableShape{
			Rows:            rows,
			Cols:            cols,
			BBoxNorm:        box,
			CellArrangement: fmt.Sprintf("grid_%dx%d", rows, cols),
		},
	}
}

// defaultSections returns the fixed layout-family section map. Presence
// is asserted from layout assumptions, not measured.
func defaultSections() map[string]sigstore.SectionSignature {
	return map[string]sigstore.SectionSignature{
		"header": {
			Present:  true,
			BBoxNorm: [4]float64{0.0, 0.0, 1.0, 0.25},
		},
		"consumption_table": {
			Present:  true,
			BBoxNorm: [4]float64{0.1, 0.25, 0.9, 0.65},
		},
		"payment_info": {
			Present:  true,
			BBoxNorm: [4]float64{0.1, 0.7, 0.9, 0.95},
		},
	}
}

// detectLayout classifies the column layout by comparing ink density of
// the left and right page halves. Near-equal density reads as two
// columns, a lopsided page as one.
func detectLayout(page *image.Gray) *sigstore.LayoutSignature {
	bounds := page.Bounds()
	w := bounds.Dx()
	h := bounds.Dy()
	layout := &sigstore.LayoutSignature{
		ColumnLayout:   "single_column",
		SectionSpacing: []float64{0.05, 0.1, 0.15},
	}
	if w < 2 || h < 1 {
		return layout
	}

	midX := w / 2
	const inkThreshold = 200

	var leftInk, rightInk int
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			if page.GrayAt(bounds.Min.X+x, bounds.Min.Y+y).Y < inkThreshold {
				if x < midX {
					leftInk++
				} else {
					rightInk++
				}
			}
		}
	}

	leftDensity := float64(leftInk) / float64(midX*h)
	rightDensity := float64(rightInk) / float64((w-midX)*h)
	if math.Abs(leftDensity-rightDensity) < 0.1 {
		layout.ColumnLayout = "two_column"
	}
	return layout
}

// compareStructures composes the four weighted structural sub-scores.
func compareStructures(input, tmpl *sigstore.StructuralSignature) float64 {
	return pageWeight*comparePage(input, tmpl) +
		tableWeight*compareTables(input.Tables, tmpl.Tables) +
		sectionWeight*compareSections(input.Sections, tmpl.Sections) +
		layoutWeight*compareLayout(input.Layout, tmpl.Layout)
}

// comparePage scores page-level geometry: half for an exact page-count
// match, half for aspect-ratio closeness.
func comparePage(input, tmpl *sigstore.StructuralSignature) float64 {
	score := 0.0
	if input.NumPages == tmpl.NumPages {
		score += 0.5
	}
	if input.AspectRatio > 0 && tmpl.AspectRatio > 0 {
		diff := math.Abs(input.AspectRatio-tmpl.AspectRatio) / math.Max(input.AspectRatio, tmpl.AspectRatio)
		score += (1.0 - diff) * 0.5
	}
	return score
}

// compareTables scores table fingerprints: count match worth 0.30 with
// partial credit decaying by 0.1 per unit difference, row and column
// matches worth 0.35 each with linear falloff by relative difference.
func compareTables(input, tmpl *sigstore.TableSignature) float64 {
	var in, tm sigstore.TableSignature
	if input != nil {
		in = *input
	}
	if tmpl != nil {
		tm = *tmpl
	}

	score := 0.0

	countDiff := math.Abs(float64(in.Count - tm.Count))
	if countDiff == 0 {
		score += 0.30
	} else {
		score += math.Max(0.0, 0.30-countDiff*0.1)
	}

	var inMain, tmMain sigstore.TableShape
	if in.MainConsumption != nil {
		inMain = *in.MainConsumption
	}
	if tm.MainConsumption != nil {
		tmMain = *tm.MainConsumption
	}

	score += dimensionMatch(inMain.Rows, tmMain.Rows, 0.35)
	score += dimensionMatch(inMain.Cols, tmMain.Cols, 0.35)
	return score
}

// dimensionMatch awards full weight on equality, decayed linearly by the
// relative difference otherwise.
func dimensionMatch(a, b int, weight float64) float64 {
	if a == b {
		return weight
	}
	diff := math.Abs(float64(a - b))
	maxDim := math.Max(math.Max(float64(a), float64(b)), 1)
	return math.Max(0.0, weight*(1.0-diff/maxDim))
}

// compareSections scores the fraction of named sections whose presence
// flag agrees between input and template. A missing entry counts as not
// present.
func compareSections(input, tmpl map[string]sigstore.SectionSignature) float64 {
	score := 0.0
	for _, name := range sectionNames {
		if input[name].Present == tmpl[name].Present {
			score += 1.0 / float64(len(sectionNames))
		}
	}
	return score
}

// compareLayout is exact-match on the column layout classification.
func compareLayout(input, tmpl *sigstore.LayoutSignature) float64 {
	var in, tm string
	if input != nil {
		in = input.ColumnLayout
	}
	if tmpl != nil {
		tm = tmpl.ColumnLayout
	}
	if in == tm {
		return 1.0
	}
	return 0.0
}
