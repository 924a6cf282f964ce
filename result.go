package pdfclassify

import "time"

// UnknownTemplate is the sentinel template id returned whenever no
// registered template can be matched with sufficient confidence. It is
// the universal fallback for every non-configuration failure mode.
const UnknownTemplate = "unknown_template"

// Candidate is one entry of the fused-score ranking.
type Candidate struct {
	TemplateID string  `json:"template_id"`
	Score      float64 `json:"score"`
}

// Details carries the diagnostics of one detection. It always names the
// winning candidate's component scores, the templates removed by text
// exclusion and any warnings; when more than one candidate was ranked it
// also lists the top candidates by fused score.
type Details struct {
	VisualScore       float64       `json:"visual_score"`
	StructureScore    float64       `json:"structure_score"`
	ExcludedTemplates []string      `json:"excluded_templates"`
	Warnings          []string      `json:"warnings"`
	TopCandidates     []Candidate   `json:"top_candidates,omitempty"`
	Elapsed           time.Duration `json:"elapsed"`
}

// Result is the outcome of one classification call. Results are freshly
// constructed per call and never cached.
type Result struct {
	// TemplateID is the matched template, or UnknownTemplate.
	TemplateID string `json:"template_id"`

	// Confidence is the fused score of the best candidate in [0, 1].
	// It is preserved even when the decision falls back to
	// UnknownTemplate because the best score sat under the threshold.
	Confidence float64 `json:"confidence"`

	Details Details `json:"details"`
}
