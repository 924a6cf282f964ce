package pdfclassify

import (
	"context"
	"fmt"
	"math"
	"runtime"

	"golang.org/x/sync/errgroup"

	"github.com/docforge/pdfclassify/internal/hash"
	"github.com/docforge/pdfclassify/internal/imaging"
	"github.com/docforge/pdfclassify/internal/sigstore"
)

// regionFeatures are the input-side fingerprints of one page region,
// computed once per detection and compared against every template.
type regionFeatures struct {
	fingerprints hash.Fingerprints
	histogram    []float64
}

// Region score composition: perceptual hashes carry 60% and the
// histogram 25%. The remaining 0.15 is reserved headroom for a
// feature-matching signal that is not implemented.
const (
	hashShare      = 0.60
	histogramShare = 0.25
)

// regionWeights combine per-region scores into the visual confidence.
// Unknown region names get defaultRegionWeight, as in the signature
// generator's layout family.
var regionWeights = map[string]float64{
	"header":       0.40,
	"main_table":   0.35,
	"payment_info": 0.15,
}

const defaultRegionWeight = 0.10

// detectByVisual scores every template's visual signature against the
// input's page regions. Templates without a visual signature are omitted
// from the returned map entirely — absence of evidence is distinct from
// a zero score. A render failure returns an empty map with a warning.
func (c *Classifier) detectByVisual(ctx context.Context, pdfPath string, db *sigstore.Database) (map[string]float64, []string) {
	if _, err := c.renderedPage(ctx, pdfPath); err != nil {
		return map[string]float64{}, []string{fmt.Sprintf("visual detection skipped: %v", err)}
	}
	regions, err := c.pageRegions(ctx, pdfPath)
	if err != nil {
		return map[string]float64{}, []string{fmt.Sprintf("visual detection skipped: %v", err)}
	}

	features := make(map[string]regionFeatures, len(regions))
	for name, crop := range regions {
		features[name] = regionFeatures{
			fingerprints: hash.Compute(imaging.CanonicalTile(crop)),
			histogram:    imaging.GrayHistogram(crop),
		}
	}

	ids := db.IDs()
	scores := make([]float64, len(ids))
	present := make([]bool, len(ids))

	compare := func(i int) {
		vs := db.Get(ids[i]).Signatures.Visual
		if vs == nil || len(vs.Regions) == 0 {
			return
		}
		regionScores := make(map[string]float64, len(regions))
		for name, feat := range features {
			stored := vs.Regions[name]
			if stored == nil {
				continue
			}
			regionScores[name] = compareRegion(feat, stored)
		}
		scores[i] = visualConfidence(regionScores)
		present[i] = true
	}

	if c.opts.parallel {
		g, _ := errgroup.WithContext(ctx)
		g.SetLimit(runtime.GOMAXPROCS(0))
		for i := range ids {
			i := i
			g.Go(func() error {
				compare(i)
				return nil
			})
		}
		_ = g.Wait()
	} else {
		for i := range ids {
			compare(i)
		}
	}

	out := make(map[string]float64, len(ids))
	for i, id := range ids {
		if present[i] {
			out[id] = scores[i]
		}
	}
	return out, nil
}

// compareRegion scores one input region against a stored region
// signature. Hash similarities use fixed per-type weights renormalized
// over the hash types actually present in the stored signature, so a
// missing hash type excludes itself from the average instead of zeroing
// the score.
func compareRegion(feat regionFeatures, stored *sigstore.RegionSignature) float64 {
	type weightedSim struct {
		sim    float64
		weight float64
	}
	var sims []weightedSim

	if s, ok := hash.Similarity(stored.Hashes.PHash, feat.fingerprints.PHash, hash.PHashBits); ok {
		sims = append(sims, weightedSim{s, 0.35})
	}
	if s, ok := hash.Similarity(stored.Hashes.DHash, feat.fingerprints.DHash, hash.DHashBits); ok {
		sims = append(sims, weightedSim{s, 0.30})
	}
	if s, ok := hash.Similarity(stored.Hashes.AHash, feat.fingerprints.AHash, hash.AHashBits); ok {
		sims = append(sims, weightedSim{s, 0.20})
	}
	if s, ok := hash.Similarity(stored.Hashes.WHash, feat.fingerprints.WHash, hash.WHashBits); ok {
		sims = append(sims, weightedSim{s, 0.15})
	}

	hashScore := 0.0
	if len(sims) > 0 {
		var total, totalWeight float64
		for _, ws := range sims {
			total += ws.sim * ws.weight
			totalWeight += ws.weight
		}
		if totalWeight > 0 {
			hashScore = total / totalWeight
		}
	}

	histScore := histogramCorrelation(feat.histogram, stored.Histogram)

	return hashScore*hashShare + histScore*histogramShare
}

// visualConfidence is the weighted average of the computed region
// scores, renormalized over the regions actually present.
func visualConfidence(regionScores map[string]float64) float64 {
	if len(regionScores) == 0 {
		return 0.0
	}

	var total, totalWeight float64
	for name, score := range regionScores {
		weight, ok := regionWeights[name]
		if !ok {
			weight = defaultRegionWeight
		}
		total += score * weight
		totalWeight += weight
	}
	if totalWeight == 0 {
		return 0.0
	}
	return total / totalWeight
}

// histogramCorrelation is the normalized cross-correlation (Pearson
// coefficient) of two histograms, clamped to [0, 1]: anti-correlation
// is no evidence of similarity, not negative evidence.
func histogramCorrelation(a, b []float64) float64 {
	n := len(a)
	if len(b) < n {
		n = len(b)
	}
	if n == 0 {
		return 0.0
	}

	// Normalize to mass 1 so raster size differences cancel out.
	var sumA, sumB float64
	for i := 0; i < n; i++ {
		sumA += a[i]
		sumB += b[i]
	}
	if sumA <= 0 || sumB <= 0 {
		return 0.0
	}

	mean := 1.0 / float64(n) // both histograms have mass 1 after normalization
	var num, denA, denB float64
	for i := 0; i < n; i++ {
		da := a[i]/sumA - mean
		db := b[i]/sumB - mean
		num += da * db
		denA += da * da
		denB += db * db
	}
	if denA == 0 || denB == 0 {
		// Flat histograms: identical shapes correlate perfectly.
		if denA == denB {
			return 1.0
		}
		return 0.0
	}

	r := num / math.Sqrt(denA*denB)
	if r < 0 {
		return 0.0
	}
	if r > 1 {
		return 1.0
	}
	return r
}
