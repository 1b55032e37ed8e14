// Package ocr extracts ordered text lines from invoice images.
//
// Two backends are supported: Google Document AI (default, requires a
// configured OCR processor) and Google Cloud Vision. Both flatten the
// service response into the line-level elements it reports, in the order
// it reports them. Word-level and block-level elements are discarded.
//
// Required Environment Variables:
//   - GOOGLE_APPLICATION_CREDENTIALS: Path to service account JSON file, OR
//   - GOOGLE_CREDENTIALS: Inline JSON credentials string
//   - GOOGLE_CLOUD_PROJECT: Google Cloud project ID
//
// API Limitations:
//   - Maximum image size: 20MB for synchronous processing
//   - Supported formats: PNG, JPEG, TIFF, BMP, WEBP
//   - Quota limits apply (check Google Cloud Console)
package ocr

import "context"

// MaxImageSizeBytes is the maximum image size for synchronous processing (20MB).
const MaxImageSizeBytes = 20 * 1024 * 1024

// LineExtractor defines the interface for OCR line extraction services.
type LineExtractor interface {
	// ExtractLines runs OCR over a single image and returns the detected
	// text lines in the service's reported order. An image with no
	// detected text yields an empty slice, not an error.
	ExtractLines(ctx context.Context, image []byte) ([]string, error)
}
