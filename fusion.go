package pdfclassify

import (
	"fmt"
	"sort"
)

// ambiguityGap is the minimum lead the best fused score must hold over
// the runner-up before the decision is considered unambiguous.
const ambiguityGap = 0.15

// maxTopCandidates bounds the candidate ranking included in diagnostics.
const maxTopCandidates = 3

// fuseScores merges the per-signal score maps into a single decision.
//
// The candidate pool is the union of the scored template ids minus the
// text-excluded ids: exclusion narrows the pool before any ranking
// happens, and a template missing from one signal's map simply
// contributes 0 for that signal without being removed. Ties on the
// fused score break by lexicographic template id so results are
// deterministic regardless of map iteration order.
func fuseScores(visual, structural map[string]float64, excluded, warnings []string, opts options) Result {
	excludedSet := make(map[string]bool, len(excluded))
	for _, id := range excluded {
		excludedSet[id] = true
	}

	candidateSet := make(map[string]bool, len(visual)+len(structural))
	for id := range visual {
		if !excludedSet[id] {
			candidateSet[id] = true
		}
	}
	for id := range structural {
		if !excludedSet[id] {
			candidateSet[id] = true
		}
	}

	if len(candidateSet) == 0 {
		warnings = append(warnings, "no candidates: all templates excluded or unscored")
		return Result{
			TemplateID: UnknownTemplate,
			Confidence: 0.0,
			Details: Details{
				ExcludedTemplates: excluded,
				Warnings:          warnings,
			},
		}
	}

	ranked := make([]Candidate, 0, len(candidateSet))
	for id := range candidateSet {
		fused := visual[id]*opts.visualWeight + structural[id]*opts.structureWeight
		ranked = append(ranked, Candidate{TemplateID: id, Score: fused})
	}
	sort.Slice(ranked, func(i, j int) bool {
		if ranked[i].Score != ranked[j].Score {
			return ranked[i].Score > ranked[j].Score
		}
		return ranked[i].TemplateID < ranked[j].TemplateID
	})

	best := ranked[0]

	if len(ranked) > 1 && best.Score-ranked[1].Score < ambiguityGap {
		warnings = append(warnings, fmt.Sprintf(
			"ambiguous detection: %s (%.3f) vs %s (%.3f)",
			best.TemplateID, best.Score, ranked[1].TemplateID, ranked[1].Score))
	}

	templateID := best.TemplateID
	if best.Score < opts.confidenceThreshold {
		warnings = append(warnings, fmt.Sprintf(
			"confidence %.3f below threshold %.3f", best.Score, opts.confidenceThreshold))
		templateID = UnknownTemplate
	}

	details := Details{
		VisualScore:       visual[best.TemplateID],
		StructureScore:    structural[best.TemplateID],
		ExcludedTemplates: excluded,
		Warnings:          warnings,
	}
	if len(ranked) > 1 {
		top := len(ranked)
		if top > maxTopCandidates {
			top = maxTopCandidates
		}
		details.TopCandidates = append([]Candidate(nil), ranked[:top]...)
	}

	return Result{
		TemplateID: templateID,
		Confidence: best.Score,
		Details:    details,
	}
}
