package pdfclassify

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/docforge/pdfclassify/internal/hash"
	"github.com/docforge/pdfclassify/internal/imaging"
	"github.com/docforge/pdfclassify/internal/sigstore"
)

// BuildSignature extracts a template signature from a reference PDF. The
// result carries visual and structural signatures derived from the first
// page; the text signature starts empty and is meant to be filled in by
// hand with exclusion keywords before the signature joins a database.
func (c *Classifier) BuildSignature(ctx context.Context, pdfPath, templateID string) (*sigstore.TemplateSignature, error) {
	if templateID == "" {
		return nil, fmt.Errorf("template id must not be empty")
	}

	page, err := c.renderedPage(ctx, pdfPath)
	if err != nil {
		return nil, fmt.Errorf("failed to render %s: %w", pdfPath, err)
	}
	regions, err := c.pageRegions(ctx, pdfPath)
	if err != nil {
		return nil, err
	}

	visual := &sigstore.VisualSignature{
		Regions:        make(map[string]*sigstore.RegionSignature, len(regions)),
		PageDimensions: [2]int{page.Width, page.Height},
	}
	for name, region := range regions {
		box, _ := imaging.RegionBox(name)
		fp := hash.Compute(imaging.CanonicalTile(region))
		visual.Regions[name] = &sigstore.RegionSignature{
			BBoxNorm:   box,
			BBoxPixels: imaging.PixelBox(box, page.Width, page.Height),
			Hashes: sigstore.HashSet{
				PHash: fp.PHash,
				DHash: fp.DHash,
				AHash: fp.AHash,
				WHash: fp.WHash,
			},
			Histogram: imaging.GrayHistogram(region),
		}
	}

	structural, err := c.extractStructure(ctx, pdfPath)
	if err != nil {
		return nil, fmt.Errorf("failed to extract structure from %s: %w", pdfPath, err)
	}

	return &sigstore.TemplateSignature{
		TemplateID:   templateID,
		TemplateFile: filepath.Base(pdfPath),
		Signatures: sigstore.Signatures{
			Visual:     visual,
			Structural: structural,
			Text:       &sigstore.TextSignature{},
		},
	}, nil
}
