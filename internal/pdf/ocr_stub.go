//go:build !cgo || !linux

package pdf

import (
	"errors"
	"image"
)

// OCRAvailable reports whether a Tesseract-backed OCR fallback is
// compiled in. This build has no OCR support; text exclusion simply
// skips documents without an extractable text layer.
const OCRAvailable = false

// OCRText is a stub for builds without Tesseract support.
func OCRText(_ image.Image, _ string) (string, error) {
	return "", errors.New("OCR support not compiled in (requires cgo on linux)")
}
