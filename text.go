package pdfclassify

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"golang.org/x/text/unicode/norm"

	"github.com/docforge/pdfclassify/internal/pdf"
	"github.com/docforge/pdfclassify/internal/sigstore"
)

// persianFolds maps Arabic letter variants onto the Persian forms used
// in the stored exclusion keywords: ي -> ی and ك -> ک.
var persianFolds = strings.NewReplacer(
	"ي", "ی",
	"ك", "ک",
)

// normalizeText canonicalizes extracted text for keyword matching:
// lowercase, NFKC compatibility folding, Persian letter folding, and
// whitespace runs collapsed to single spaces.
func normalizeText(text string) string {
	text = strings.ToLower(text)
	text = norm.NFKC.String(text)
	text = persianFolds.Replace(text)
	return strings.Join(strings.Fields(text), " ")
}

// detectByText returns the set of templates the document cannot be,
// based on first-page text evidence. It only ever removes candidates:
// a keyword or pattern hit proves the document is NOT that template,
// but absence of hits proves nothing, which keeps boilerplate text from
// producing false positives.
//
// Extraction failure or an empty text layer yields no exclusions.
func (c *Classifier) detectByText(ctx context.Context, pdfPath string, db *sigstore.Database) ([]string, []string) {
	var warnings []string

	text := c.firstPageText(ctx, pdfPath)
	if text == "" {
		return nil, warnings
	}
	normalized := normalizeText(text)

	var excluded []string
	for _, id := range db.IDs() {
		ts := db.Get(id).Signatures.Text
		if ts == nil {
			continue
		}

		// One hit per template is sufficient.
		matched := false
		for _, kw := range ts.ExclusionKeywords {
			if kw != "" && strings.Contains(normalized, kw) {
				matched = true
				break
			}
		}
		if !matched {
			for _, pat := range ts.UniqueTextPatterns {
				if pat == "" {
					continue
				}
				re, err := regexp.Compile(pat)
				if err != nil {
					warnings = append(warnings, fmt.Sprintf(
						"template %s: invalid text pattern %q: %v", id, pat, err))
					continue
				}
				if re.MatchString(normalized) {
					matched = true
					break
				}
			}
		}
		if matched {
			excluded = append(excluded, id)
		}
	}
	return excluded, warnings
}

// firstPageText extracts the first page's text, falling back to OCR of
// the rendered page when the text layer is empty and OCR support is
// compiled in. Every failure degrades to an empty string.
func (c *Classifier) firstPageText(ctx context.Context, pdfPath string) string {
	text, err := c.reader.PageText(ctx, pdfPath, 1)
	if err == nil && strings.TrimSpace(text) != "" {
		return text
	}

	if !pdf.OCRAvailable {
		return ""
	}
	page, err := c.renderedPage(ctx, pdfPath)
	if err != nil {
		return ""
	}
	ocrText, err := pdf.OCRText(page.Img, c.opts.ocrLanguage)
	if err != nil {
		return ""
	}
	return ocrText
}
