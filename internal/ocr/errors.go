package ocr

import (
	"errors"
	"fmt"
)

// Common OCR processing errors
var (
	// ErrInvalidImage is returned when the provided data is not a readable image.
	ErrInvalidImage = errors.New("invalid or unreadable image data")

	// ErrImageTooLarge is returned when the image exceeds the maximum size
	// for synchronous processing.
	ErrImageTooLarge = errors.New("image exceeds maximum size limit (20MB)")

	// ErrServiceFailed is returned when the OCR service fails to process the image.
	ErrServiceFailed = errors.New("OCR service request failed")

	// ErrQuotaExceeded is returned when OCR API quota limits are exceeded.
	ErrQuotaExceeded = errors.New("OCR API quota exceeded")

	// ErrInvalidCredentials is returned when Google Cloud credentials are invalid
	// or lack the necessary permissions.
	ErrInvalidCredentials = errors.New("invalid Google Cloud credentials")

	// ErrMissingCredentials is returned when Google Cloud credentials are not configured.
	ErrMissingCredentials = errors.New("missing Google Cloud credentials: set GOOGLE_APPLICATION_CREDENTIALS or GOOGLE_CREDENTIALS environment variable")

	// ErrProcessorNotFound is returned when the configured Document AI processor
	// cannot be found or accessed.
	ErrProcessorNotFound = errors.New("Document AI processor not found")
)

// OCRError wraps errors with additional context about the OCR processing failure.
type OCRError struct {
	// Op is the operation that failed (e.g., "ExtractLines", "NewDocumentAIExtractor").
	Op string

	// Err is the underlying error.
	Err error

	// Details provides additional context about the failure.
	Details string
}

// Error implements the error interface.
func (e *OCRError) Error() string {
	if e.Details != "" {
		return fmt.Sprintf("ocr: %s failed: %s: %v", e.Op, e.Details, e.Err)
	}
	return fmt.Sprintf("ocr: %s failed: %v", e.Op, e.Err)
}

// Unwrap returns the underlying error for error unwrapping.
func (e *OCRError) Unwrap() error {
	return e.Err
}

// Is implements error matching for Go 1.13+ error handling.
func (e *OCRError) Is(target error) bool {
	return errors.Is(e.Err, target)
}

// WrapOCRError wraps an error as an OCRError if it isn't already one.
func WrapOCRError(op string, err error, details string) error {
	if err == nil {
		return nil
	}

	var ocrErr *OCRError
	if errors.As(err, &ocrErr) {
		return err // Already wrapped
	}

	return &OCRError{Op: op, Err: err, Details: details}
}
