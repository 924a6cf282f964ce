// Package pdfclassify classifies PDF documents against a database of
// registered template signatures by fusing three independent signals:
// perceptual-hash visual similarity of page regions, coarse structural
// layout comparison, and text-based negative exclusion.
//
// A Classifier is constructed once from a signatures directory (or a
// pre-built database) and reused across calls; rendered pages, extracted
// regions and the signature database are memoized per process. Signal
// failures never abort a detection: they degrade to "no evidence" and
// surface in the result's warnings, with UnknownTemplate as the fallback
// decision.
package pdfclassify

import (
	"context"
	"errors"
	"fmt"
	"image"
	"log/slog"
	"time"

	"github.com/docforge/pdfclassify/internal/cache"
	"github.com/docforge/pdfclassify/internal/imaging"
	"github.com/docforge/pdfclassify/internal/pdf"
	"github.com/docforge/pdfclassify/internal/sigstore"
)

// Config carries the classifier's collaborators. Exactly one of
// SignaturesDir and Database must be set; everything else is optional.
type Config struct {
	// SignaturesDir is the directory of signature JSON documents. It is
	// loaded eagerly by New so that a missing or invalid directory fails
	// at configuration time rather than on the first detection.
	SignaturesDir string

	// Database is a pre-built signature database. When set,
	// SignaturesDir is ignored.
	Database *sigstore.Database

	// Reader overrides the PDF access implementation. Defaults to the
	// pdfcpu+poppler reader.
	Reader pdf.Reader

	// Logger receives structured detection logs. Defaults to
	// slog.Default().
	Logger *slog.Logger
}

type options struct {
	confidenceThreshold float64
	visualWeight        float64
	structureWeight     float64
	useTextExclusion    bool
	useVisual           bool
	useStructure        bool
	parallel            bool
	dpi                 int
	ocrLanguage         string
}

func defaultOptions() options {
	return options{
		confidenceThreshold: 0.5,
		visualWeight:        0.6,
		structureWeight:     0.4,
		useTextExclusion:    true,
		useVisual:           true,
		useStructure:        true,
		dpi:                 300,
	}
}

// Option adjusts classifier behavior.
type Option func(*options)

// WithConfidenceThreshold sets the minimum fused score required to
// accept the best candidate. Below it the classifier returns
// UnknownTemplate while preserving the best score in the result.
func WithConfidenceThreshold(t float64) Option {
	return func(o *options) { o.confidenceThreshold = t }
}

// WithWeights sets the visual and structural fusion weights.
func WithWeights(visual, structure float64) Option {
	return func(o *options) {
		o.visualWeight = visual
		o.structureWeight = structure
	}
}

// WithTextExclusion toggles the text-based exclusion signal.
func WithTextExclusion(enabled bool) Option {
	return func(o *options) { o.useTextExclusion = enabled }
}

// WithVisual toggles the visual similarity signal.
func WithVisual(enabled bool) Option {
	return func(o *options) { o.useVisual = enabled }
}

// WithStructure toggles the structural similarity signal.
func WithStructure(enabled bool) Option {
	return func(o *options) { o.useStructure = enabled }
}

// WithParallel runs the per-template visual comparison loop on multiple
// goroutines. Input rendering and feature extraction still happen
// exactly once regardless.
func WithParallel(enabled bool) Option {
	return func(o *options) { o.parallel = enabled }
}

// WithDPI sets the render resolution for page rasterization. Signatures
// must have been generated at the same DPI for pixel-derived structural
// counts to compare cleanly; region hashes are DPI-invariant.
func WithDPI(dpi int) Option {
	return func(o *options) { o.dpi = dpi }
}

// WithOCRLanguage sets the Tesseract language used by the OCR text
// fallback, e.g. "fas" or "eng". Only meaningful in builds with OCR
// support compiled in.
func WithOCRLanguage(lang string) Option {
	return func(o *options) { o.ocrLanguage = lang }
}

// Classifier detects which registered template a PDF matches. It is
// immutable after construction and safe for concurrent use.
type Classifier struct {
	reader pdf.Reader
	logger *slog.Logger
	cache  *cache.DetectionCache
	sigDir string
	opts   options
}

// New builds a Classifier. The signature database is loaded immediately
// when SignaturesDir is used, so configuration mistakes surface here —
// the only hard-error path in the package.
func New(cfg Config, opts ...Option) (*Classifier, error) {
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}
	if o.visualWeight < 0 || o.structureWeight < 0 {
		return nil, errors.New("pdfclassify: fusion weights must be non-negative")
	}

	c := &Classifier{
		reader: cfg.Reader,
		logger: cfg.Logger,
		cache:  cache.New(),
		sigDir: cfg.SignaturesDir,
		opts:   o,
	}
	if c.reader == nil {
		c.reader = pdf.NewPoppler()
	}
	if c.logger == nil {
		c.logger = slog.Default()
	}

	if cfg.Database != nil {
		c.cache.StoreDatabase(cfg.Database)
		return c, nil
	}
	if cfg.SignaturesDir == "" {
		return nil, errors.New("pdfclassify: either SignaturesDir or Database must be provided")
	}
	db, err := sigstore.Load(cfg.SignaturesDir, c.logger)
	if err != nil {
		return nil, err
	}
	c.cache.StoreDatabase(db)
	return c, nil
}

// Detect classifies one PDF against the signature database.
//
// The returned error is reserved for configuration and context failures;
// every signal-level failure (unreadable PDF, render failure, empty
// text) degrades to missing evidence and is reported through the
// result's warnings, with UnknownTemplate as the fallback decision.
func (c *Classifier) Detect(ctx context.Context, pdfPath string) (Result, error) {
	start := time.Now()
	if err := ctx.Err(); err != nil {
		return Result{}, err
	}

	db, err := c.database()
	if err != nil {
		return Result{}, err
	}

	var (
		excluded   []string
		warnings   []string
		visual     = map[string]float64{}
		structural = map[string]float64{}
	)

	if c.opts.useTextExclusion {
		var w []string
		excluded, w = c.detectByText(ctx, pdfPath, db)
		warnings = append(warnings, w...)
	}
	if c.opts.useVisual {
		var w []string
		visual, w = c.detectByVisual(ctx, pdfPath, db)
		warnings = append(warnings, w...)
	}
	if c.opts.useStructure {
		var w []string
		structural, w = c.detectByStructure(ctx, pdfPath, db)
		warnings = append(warnings, w...)
	}

	res := fuseScores(visual, structural, excluded, warnings, c.opts)
	res.Details.Elapsed = time.Since(start)

	c.logger.Info("template detection completed",
		"pdf", pdfPath,
		"template_id", res.TemplateID,
		"confidence", res.Confidence,
		"excluded", len(res.Details.ExcludedTemplates),
		"elapsed", res.Details.Elapsed,
	)
	return res, nil
}

// ClearCache drops every memoized page, region set and the database
// slot. The next Detect reloads the database from the configured
// signatures directory.
func (c *Classifier) ClearCache() {
	c.cache.Clear()
}

// database returns the cached signature database, reloading it from the
// signatures directory if the slot was cleared. Concurrent reloads on a
// cold slot are a harmless stampede: loads are idempotent.
func (c *Classifier) database() (*sigstore.Database, error) {
	if db := c.cache.Database(); db != nil {
		return db, nil
	}
	if c.sigDir == "" {
		return nil, errors.New("pdfclassify: signature database cleared and no signatures directory configured")
	}
	db, err := sigstore.Load(c.sigDir, c.logger)
	if err != nil {
		return nil, err
	}
	c.cache.StoreDatabase(db)
	return db, nil
}

// renderedPage returns the preprocessed first page of a PDF, rendering
// it at most once per (path, mtime) thanks to the detection cache.
func (c *Classifier) renderedPage(ctx context.Context, pdfPath string) (*cache.Page, error) {
	if page, ok := c.cache.Page(pdfPath); ok {
		return page, nil
	}

	img, err := c.reader.RenderPage(ctx, pdfPath, 1, c.opts.dpi)
	if err != nil {
		return nil, fmt.Errorf("failed to render %q: %w", pdfPath, err)
	}

	gray := imaging.Preprocess(imaging.ToGray(img))
	page := &cache.Page{
		Img:    gray,
		Width:  gray.Bounds().Dx(),
		Height: gray.Bounds().Dy(),
	}
	c.cache.StorePage(pdfPath, page)
	return page, nil
}

// pageRegions returns the named region crops of the preprocessed page,
// extracting them at most once per (path, mtime).
func (c *Classifier) pageRegions(ctx context.Context, pdfPath string) (map[string]*image.Gray, error) {
	if regions, ok := c.cache.Regions(pdfPath); ok {
		return regions, nil
	}

	page, err := c.renderedPage(ctx, pdfPath)
	if err != nil {
		return nil, err
	}

	regions := imaging.SplitRegions(page.Img)
	c.cache.StoreRegions(pdfPath, regions)
	return regions, nil
}
