// Package rasterize converts PDF documents into one PNG image per page.
//
// Validation and page counting use pdfcpu; rendering shells out to
// pdftoppm (poppler-utils), which must be installed on the host.
package rasterize

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/rs/zerolog"

	"invoiceocr/internal/logger"
)

// Common rasterization errors
var (
	// ErrMalformedDocument is returned when the byte stream is not a valid PDF.
	ErrMalformedDocument = errors.New("malformed PDF document")

	// ErrRenderFailed is returned when page rendering fails, typically
	// because pdftoppm is missing or crashed.
	ErrRenderFailed = errors.New("PDF page rendering failed")
)

// Rasterizer renders PDF pages to PNG images.
type Rasterizer struct {
	dpi int
	log zerolog.Logger
}

// New creates a Rasterizer rendering at the given resolution.
func New(dpi int) *Rasterizer {
	if dpi <= 0 {
		dpi = 200
	}
	return &Rasterizer{
		dpi: dpi,
		log: logger.WithComponent("rasterize"),
	}
}

// Pages renders every page of the PDF to a PNG image, in page order.
// The returned slice has exactly one entry per document page.
func (r *Rasterizer) Pages(ctx context.Context, pdf []byte) ([][]byte, error) {
	if len(pdf) < 4 || string(pdf[:4]) != "%PDF" {
		return nil, fmt.Errorf("%w: missing PDF header", ErrMalformedDocument)
	}

	pageCount, err := api.PageCount(bytes.NewReader(pdf), nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedDocument, err)
	}
	if pageCount == 0 {
		return nil, fmt.Errorf("%w: document has no pages", ErrMalformedDocument)
	}

	tmpDir, err := os.MkdirTemp("", "rasterize-")
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrRenderFailed, err)
	}
	defer os.RemoveAll(tmpDir)

	pdfPath := filepath.Join(tmpDir, "input.pdf")
	if err := os.WriteFile(pdfPath, pdf, 0o600); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrRenderFailed, err)
	}

	pages := make([][]byte, 0, pageCount)
	for n := 1; n <= pageCount; n++ {
		img, err := r.renderPage(ctx, pdfPath, tmpDir, n)
		if err != nil {
			return nil, err
		}
		pages = append(pages, img)
	}

	r.log.Debug().Int("pages", pageCount).Int("dpi", r.dpi).Msg("rasterized PDF")
	return pages, nil
}

// renderPage renders a single page using pdftoppm (poppler-utils).
func (r *Rasterizer) renderPage(ctx context.Context, pdfPath, outDir string, page int) ([]byte, error) {
	outPrefix := filepath.Join(outDir, "page_"+strconv.Itoa(page))

	cmd := exec.CommandContext(ctx, "pdftoppm",
		"-f", strconv.Itoa(page),
		"-l", strconv.Itoa(page),
		"-png",
		"-r", strconv.Itoa(r.dpi),
		"-singlefile",
		pdfPath,
		outPrefix,
	)
	if output, err := cmd.CombinedOutput(); err != nil {
		return nil, fmt.Errorf("%w: pdftoppm page %d: %v (output: %s)", ErrRenderFailed, page, err, output)
	}

	img, err := os.ReadFile(outPrefix + ".png")
	if err != nil {
		return nil, fmt.Errorf("%w: page %d produced no output: %v", ErrRenderFailed, page, err)
	}
	return img, nil
}
