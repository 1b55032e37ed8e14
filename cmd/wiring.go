package cmd

import (
	"context"
	"fmt"
	"io"

	"invoiceocr/internal/config"
	"invoiceocr/internal/ocr"
)

// newExtractor builds the configured OCR backend. Callers must close the
// returned closer when done.
func newExtractor(ctx context.Context, cfg *config.Config) (ocr.LineExtractor, io.Closer, error) {
	switch cfg.OCRBackend {
	case config.BackendVision:
		extractor, err := ocr.NewVisionExtractor(ctx)
		if err != nil {
			return nil, nil, err
		}
		return extractor, extractor, nil
	case config.BackendDocumentAI:
		extractor, err := ocr.NewDocumentAIExtractor(ctx, ocr.DocumentAIConfig{
			ProjectID:        cfg.GoogleCloudProject,
			Location:         cfg.GoogleCloudLocation,
			ProcessorID:      cfg.DocumentAIProcessorID,
			ProcessorVersion: cfg.DocumentAIProcessorVersion,
		})
		if err != nil {
			return nil, nil, err
		}
		return extractor, extractor, nil
	default:
		return nil, nil, fmt.Errorf("unknown OCR backend %q", cfg.OCRBackend)
	}
}
