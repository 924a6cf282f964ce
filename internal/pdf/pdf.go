// Package pdf is the external PDF collaborator: page counting, page
// dimensions, first-page text extraction and page rasterization. The
// default implementation combines pdfcpu (metadata) with the poppler
// command-line tools (text and rasterization); any implementation of
// Reader is interchangeable.
package pdf

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/png"
	"os/exec"
	"strconv"

	"github.com/pdfcpu/pdfcpu/pkg/api"
)

// Reader is the contract the classifier needs from a PDF library.
type Reader interface {
	// PageCount reports the number of pages in the document.
	PageCount(ctx context.Context, path string) (int, error)

	// PageDimensions reports the first page's width and height in points.
	PageDimensions(ctx context.Context, path string) (width, height float64, err error)

	// PageText extracts the text of one page (1-based). Scanned pages
	// legitimately yield an empty string.
	PageText(ctx context.Context, path string, page int) (string, error)

	// RenderPage rasterizes one page (1-based) to a grayscale bitmap at
	// the given DPI.
	RenderPage(ctx context.Context, path string, page, dpi int) (image.Image, error)
}

// Poppler reads PDFs with pdfcpu for metadata and the poppler utilities
// (pdftotext, pdftoppm) for text and rasterization. The poppler binaries
// must be on PATH.
type Poppler struct{}

// NewPoppler returns the default PDF reader.
func NewPoppler() *Poppler {
	return &Poppler{}
}

func (p *Poppler) PageCount(ctx context.Context, path string) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	n, err := api.PageCountFile(path)
	if err != nil {
		return 0, fmt.Errorf("failed to count pages of %q: %w", path, err)
	}
	return n, nil
}

func (p *Poppler) PageDimensions(ctx context.Context, path string) (float64, float64, error) {
	if err := ctx.Err(); err != nil {
		return 0, 0, err
	}
	dims, err := api.PageDimsFile(path)
	if err != nil {
		return 0, 0, fmt.Errorf("failed to read page dimensions of %q: %w", path, err)
	}
	if len(dims) == 0 {
		return 0, 0, fmt.Errorf("no pages in %q", path)
	}
	return dims[0].Width, dims[0].Height, nil
}

func (p *Poppler) PageText(ctx context.Context, path string, page int) (string, error) {
	cmd := exec.CommandContext(ctx,
		"pdftotext",
		"-f", strconv.Itoa(page),
		"-l", strconv.Itoa(page),
		"-layout",
		path,
		"-",
	)
	out, err := cmd.Output()
	if err != nil {
		return "", fmt.Errorf("pdftotext %q page %d: %w", path, page, err)
	}
	return string(out), nil
}

func (p *Poppler) RenderPage(ctx context.Context, path string, page, dpi int) (image.Image, error) {
	// With -f/-l pinning a single page, pdftoppm streams one PNG to stdout.
	cmd := exec.CommandContext(ctx,
		"pdftoppm",
		"-png",
		"-gray",
		"-r", strconv.Itoa(dpi),
		"-f", strconv.Itoa(page),
		"-l", strconv.Itoa(page),
		path,
	)
	out, err := cmd.Output()
	if err != nil {
		return nil, fmt.Errorf("pdftoppm %q page %d: %w", path, page, err)
	}

	img, err := png.Decode(bytes.NewReader(out))
	if err != nil {
		return nil, fmt.Errorf("failed to decode rendered page of %q: %w", path, err)
	}
	return img, nil
}
