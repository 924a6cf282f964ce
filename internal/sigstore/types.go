package sigstore

import "sort"

// TemplateSignature is the parsed form of one signature document: the
// precomputed fingerprint set describing a single registered template.
type TemplateSignature struct {
	TemplateID   string     `json:"template_id"`
	TemplateFile string     `json:"template_file,omitempty"`
	Signatures   Signatures `json:"signatures"`
}

// Signatures groups the three independent signal signatures. Any of them
// may be absent; a template missing a signal is simply not scored by the
// corresponding detector (absence is distinct from a zero score).
type Signatures struct {
	Visual     *VisualSignature     `json:"visual,omitempty"`
	Structural *StructuralSignature `json:"structural,omitempty"`
	Text       *TextSignature       `json:"text,omitempty"`
}

// VisualSignature holds the per-region perceptual fingerprints of the
// template's first page.
type VisualSignature struct {
	Regions        map[string]*RegionSignature `json:"regions"`
	PageDimensions [2]int                      `json:"page_dimensions"`
}

// RegionSignature is the stored fingerprint of one named page region.
type RegionSignature struct {
	// BBoxNorm is [x1, y1, x2, y2] as fractions of page size.
	BBoxNorm [4]float64 `json:"bbox_norm"`

	// BBoxPixels is the same box in render pixels at signature DPI.
	BBoxPixels [4]int `json:"bbox_pixels"`

	// Hashes holds the perceptual hashes of the region's canonical tile.
	Hashes HashSet `json:"hashes"`

	// Histogram is the 256-bin grayscale histogram of the raw region crop.
	Histogram []float64 `json:"histogram"`
}

// HashSet carries the four perceptual hashes as fixed-width hex strings.
// phash is 256 bits (64 hex chars); dhash, ahash and whash are 64 bits
// (16 hex chars). An empty string means the hash was not generated and
// excludes that hash type from comparison.
type HashSet struct {
	PHash string `json:"phash"`
	DHash string `json:"dhash"`
	AHash string `json:"ahash"`
	WHash string `json:"whash"`
}

// StructuralSignature describes coarse page geometry. The table metrics
// are density-derived fingerprints, not cell-accurate parses.
type StructuralSignature struct {
	NumPages       int                         `json:"num_pages"`
	PageDimensions [2]float64                  `json:"page_dimensions"`
	AspectRatio    float64                     `json:"aspect_ratio"`
	Orientation    string                      `json:"orientation"`
	Tables         *TableSignature             `json:"tables,omitempty"`
	Sections       map[string]SectionSignature `json:"sections,omitempty"`
	Layout         *LayoutSignature            `json:"layout,omitempty"`
}

// TableSignature summarizes detected table structure on page one.
type TableSignature struct {
	Count           int         `json:"count"`
	MainConsumption *TableShape `json:"main_consumption,omitempty"`
}

// TableShape is the approximate shape of the main consumption table.
type TableShape struct {
	Rows            int        `json:"rows"`
	Cols            int        `json:"cols"`
	BBoxNorm        [4]float64 `json:"bbox_norm"`
	CellArrangement string     `json:"cell_arrangement,omitempty"`
}

// SectionSignature records whether a named section is present and where.
type SectionSignature struct {
	Present  bool       `json:"present"`
	BBoxNorm [4]float64 `json:"bbox_norm"`
}

// LayoutSignature classifies the column layout of the page.
type LayoutSignature struct {
	ColumnLayout   string    `json:"column_layout"`
	SectionSpacing []float64 `json:"section_spacing,omitempty"`
}

// TextSignature holds exclusion-only text evidence. Keywords and patterns
// prove a document is NOT this template; they never confirm a match.
type TextSignature struct {
	ExclusionKeywords  []string `json:"exclusion_keywords"`
	UniqueTextPatterns []string `json:"unique_text_patterns"`
}

// Database is an immutable mapping of template id to signature. It is
// built once by Load (or NewDatabase in tests) and never mutated after,
// so it is safe for concurrent readers without locking.
type Database struct {
	templates map[string]*TemplateSignature
	ids       []string
}

// NewDatabase builds a database from pre-parsed signatures. Signatures
// without a template id are dropped; a later duplicate id replaces an
// earlier one, matching loader behavior.
func NewDatabase(sigs ...*TemplateSignature) *Database {
	db := &Database{templates: make(map[string]*TemplateSignature, len(sigs))}
	for _, sig := range sigs {
		if sig == nil || sig.TemplateID == "" {
			continue
		}
		db.templates[sig.TemplateID] = sig
	}
	db.ids = make([]string, 0, len(db.templates))
	for id := range db.templates {
		db.ids = append(db.ids, id)
	}
	sort.Strings(db.ids)
	return db
}

// Get returns the signature for a template id, or nil if unknown.
func (db *Database) Get(id string) *TemplateSignature {
	return db.templates[id]
}

// IDs returns all template ids in lexicographic order. The returned
// slice is shared; callers must not modify it.
func (db *Database) IDs() []string {
	return db.ids
}

// Len returns the number of templates in the database.
func (db *Database) Len() int {
	return len(db.templates)
}
