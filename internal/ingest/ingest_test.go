package ingest_test

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"invoiceocr/internal/ingest"
	"invoiceocr/internal/rasterize"
	"invoiceocr/internal/store"
)

// fakeRenderer yields one fixed PNG placeholder per configured page.
type fakeRenderer struct {
	pages [][]byte
	err   error
}

func (f *fakeRenderer) Pages(_ context.Context, _ []byte) ([][]byte, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.pages, nil
}

// fakeExtractor returns one line naming the image it was given.
type fakeExtractor struct {
	calls int
	err   error
}

func (f *fakeExtractor) ExtractLines(_ context.Context, image []byte) ([]string, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return []string{fmt.Sprintf("line from %s", image)}, nil
}

func renderer(pages ...string) *fakeRenderer {
	f := &fakeRenderer{}
	for _, p := range pages {
		f.pages = append(f.pages, []byte(p))
	}
	return f
}

func TestProcessImage(t *testing.T) {
	p := ingest.NewPipeline(nil, store.NewMemoryStore(), &fakeExtractor{}, false)

	lines, err := p.ProcessImage(context.Background(), []byte("photo"))
	if err != nil {
		t.Fatalf("ProcessImage failed: %v", err)
	}
	if len(lines) != 1 || lines[0] != "line from photo" {
		t.Errorf("ProcessImage lines = %v", lines)
	}
}

func TestProcessPDFStagesExtractsAndCleansUp(t *testing.T) {
	ctx := context.Background()
	blobs := store.NewMemoryStore()
	extractor := &fakeExtractor{}
	p := ingest.NewPipeline(renderer("p1", "p2", "p3"), blobs, extractor, false)

	results, err := p.ProcessPDF(ctx, "bill.pdf", []byte("%PDF-fake"))
	if err != nil {
		t.Fatalf("ProcessPDF failed: %v", err)
	}

	if len(results) != 3 {
		t.Fatalf("got %d page results, want 3", len(results))
	}
	for i, r := range results {
		if r.Page != i+1 {
			t.Errorf("result %d page = %d, want %d", i, r.Page, i+1)
		}
		want := fmt.Sprintf("line from p%d", i+1)
		if len(r.Lines) != 1 || r.Lines[0] != want {
			t.Errorf("page %d lines = %v, want [%s]", r.Page, r.Lines, want)
		}
	}
	if extractor.calls != 3 {
		t.Errorf("extractor called %d times, want 3", extractor.calls)
	}

	// Staged pages are removed after extraction.
	if blobs.Len() != 0 {
		keys, _ := blobs.ListPrefix(ctx, "")
		t.Errorf("store not empty after cleanup: %v", keys)
	}
}

func TestProcessPDFManyPagesKeepOrder(t *testing.T) {
	// Eleven pages exercise numeric ordering of staged keys: lexicographic
	// listing would put page_10 before page_2.
	var names []string
	for i := 1; i <= 11; i++ {
		names = append(names, fmt.Sprintf("p%d", i))
	}
	p := ingest.NewPipeline(renderer(names...), store.NewMemoryStore(), &fakeExtractor{}, false)

	results, err := p.ProcessPDF(context.Background(), "long.pdf", []byte("%PDF-fake"))
	if err != nil {
		t.Fatalf("ProcessPDF failed: %v", err)
	}
	if len(results) != 11 {
		t.Fatalf("got %d page results, want 11", len(results))
	}
	for i, r := range results {
		if r.Page != i+1 {
			t.Errorf("result %d page = %d, want %d", i, r.Page, i+1)
		}
	}
}

func TestProcessPDFRasterizeFailure(t *testing.T) {
	blobs := store.NewMemoryStore()
	p := ingest.NewPipeline(&fakeRenderer{err: rasterize.ErrMalformedDocument}, blobs, &fakeExtractor{}, false)

	_, err := p.ProcessPDF(context.Background(), "bad.pdf", []byte("junk"))
	if !errors.Is(err, rasterize.ErrMalformedDocument) {
		t.Errorf("ProcessPDF returned %v, want ErrMalformedDocument", err)
	}
	if blobs.Len() != 0 {
		t.Error("pages staged despite rasterization failure")
	}
}

func TestProcessPDFExtractionFailureLeavesStagedPages(t *testing.T) {
	ctx := context.Background()
	blobs := store.NewMemoryStore()
	boom := errors.New("quota exceeded")
	p := ingest.NewPipeline(renderer("p1", "p2"), blobs, &fakeExtractor{err: boom}, false)

	_, err := p.ProcessPDF(ctx, "bill.pdf", []byte("%PDF-fake"))
	if !errors.Is(err, boom) {
		t.Fatalf("ProcessPDF returned %v, want extraction error", err)
	}

	// No rollback on partial failure: staged pages stay behind.
	keys, _ := blobs.ListPrefix(ctx, "bill.pdf/")
	if len(keys) != 2 {
		t.Errorf("staged pages after failure = %v, want both pages kept", keys)
	}
}
