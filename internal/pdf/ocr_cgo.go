//go:build cgo && linux

package pdf

import (
	"bytes"
	"fmt"
	"image"
	"image/png"

	"github.com/otiai10/gosseract/v2"
)

// OCRAvailable reports whether a Tesseract-backed OCR fallback is
// compiled in. On Linux with CGO enabled the text detector can still
// read scanned pages that pdftotext returns empty for.
const OCRAvailable = true

// OCRText recognizes text in a rendered page image. The language is a
// Tesseract code such as "eng" or "fas"; the corresponding language data
// must be installed on the system.
func OCRText(img image.Image, language string) (string, error) {
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return "", fmt.Errorf("failed to encode page for OCR: %w", err)
	}

	client := gosseract.NewClient()
	defer client.Close()

	if language != "" {
		if err := client.SetLanguage(language); err != nil {
			return "", fmt.Errorf("failed to set OCR language: %w", err)
		}
	}
	if err := client.SetImageFromBytes(buf.Bytes()); err != nil {
		return "", fmt.Errorf("failed to set OCR image: %w", err)
	}

	text, err := client.Text()
	if err != nil {
		return "", fmt.Errorf("OCR failed: %w", err)
	}
	return text, nil
}
