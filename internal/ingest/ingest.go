// Package ingest runs uploaded invoices through OCR.
//
// Image documents go straight to the line extractor. PDF documents are
// rasterized page by page, staged in the blob store under
// "{documentName}/page_{n}.png", extracted per page, and the staged blobs
// are removed once every page has been extracted. If staging or extraction
// fails partway through, already-staged pages are left behind; there is no
// automatic rollback.
package ingest

import (
	"context"
	"fmt"
	"regexp"
	"sort"
	"strconv"

	"github.com/rs/zerolog"

	"invoiceocr/internal/logger"
	"invoiceocr/internal/ocr"
	"invoiceocr/internal/store"
)

// PageRenderer rasterizes a PDF into one PNG per page, in page order.
type PageRenderer interface {
	Pages(ctx context.Context, pdf []byte) ([][]byte, error)
}

// PageLines holds the extracted lines of one staged page.
type PageLines struct {
	Page  int      `json:"page"`
	Lines []string `json:"lines"`
}

// Pipeline wires the rasterizer, blob store and line extractor together.
// All collaborators are passed in explicitly so tests can substitute fakes.
type Pipeline struct {
	Renderer  PageRenderer
	Store     store.BlobStore
	Extractor ocr.LineExtractor

	// EnhanceImages pre-processes uploaded photos before OCR. Rasterized
	// PDF pages are rendered cleanly and skip it.
	EnhanceImages bool

	log zerolog.Logger
}

// NewPipeline creates a pipeline with the given collaborators.
func NewPipeline(renderer PageRenderer, blobs store.BlobStore, extractor ocr.LineExtractor, enhance bool) *Pipeline {
	return &Pipeline{
		Renderer:      renderer,
		Store:         blobs,
		Extractor:     extractor,
		EnhanceImages: enhance,
		log:           logger.WithComponent("ingest"),
	}
}

// ProcessImage extracts lines from a single invoice image. No staging is
// involved.
func (p *Pipeline) ProcessImage(ctx context.Context, image []byte) ([]string, error) {
	if p.EnhanceImages {
		enhanced, err := ocr.Enhance(image)
		if err != nil {
			return nil, err
		}
		image = enhanced
	}
	return p.Extractor.ExtractLines(ctx, image)
}

// ProcessPDF rasterizes the document, stages every page image, extracts
// lines page by page and finally removes the staged blobs. Each page's
// lines are returned separately; multi-page documents are not merged into
// one line sequence.
func (p *Pipeline) ProcessPDF(ctx context.Context, docName string, pdf []byte) ([]PageLines, error) {
	log := logger.WithDocument(p.log, docName)

	pages, err := p.Renderer.Pages(ctx, pdf)
	if err != nil {
		return nil, err
	}
	log.Info().Int("pages", len(pages)).Msg("rasterized document")

	for i, img := range pages {
		key := pageKey(docName, i+1)
		if err := p.Store.Put(ctx, key, img); err != nil {
			return nil, fmt.Errorf("stage page %d: %w", i+1, err)
		}
	}

	keys, err := p.Store.ListPrefix(ctx, docName+"/")
	if err != nil {
		return nil, err
	}
	sortPageKeys(keys)

	results := make([]PageLines, 0, len(keys))
	for _, key := range keys {
		img, err := p.Store.Get(ctx, key)
		if err != nil {
			return nil, fmt.Errorf("fetch staged page %s: %w", key, err)
		}
		lines, err := p.Extractor.ExtractLines(ctx, img)
		if err != nil {
			return nil, fmt.Errorf("extract %s: %w", key, err)
		}
		results = append(results, PageLines{Page: pageNumber(key), Lines: lines})
	}

	if err := p.Store.DeletePrefix(ctx, docName+"/"); err != nil {
		// Extraction succeeded; leftover staging blobs are a known gap.
		log.Warn().Err(err).Msg("failed to clean up staged pages")
	}

	log.Info().Int("pages", len(results)).Msg("extracted document")
	return results, nil
}

// pageKey builds the staging key for one page of a document.
func pageKey(docName string, page int) string {
	return fmt.Sprintf("%s/page_%d.png", docName, page)
}

var pageNumRe = regexp.MustCompile(`page_(\d+)\.png$`)

// pageNumber extracts the 1-based page number from a staging key, or 0.
func pageNumber(key string) int {
	m := pageNumRe.FindStringSubmatch(key)
	if len(m) < 2 {
		return 0
	}
	n, _ := strconv.Atoi(m[1])
	return n
}

// sortPageKeys orders staging keys numerically so page_10 follows page_9.
func sortPageKeys(keys []string) {
	sort.Slice(keys, func(i, j int) bool {
		return pageNumber(keys[i]) < pageNumber(keys[j])
	})
}
