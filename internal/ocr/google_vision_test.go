package ocr

import (
	"errors"
	"testing"

	"cloud.google.com/go/vision/v2/apiv1/visionpb"
	"google.golang.org/genproto/googleapis/rpc/status"
)

func symbols(text string, breakType visionpb.TextAnnotation_DetectedBreak_BreakType) []*visionpb.Symbol {
	syms := make([]*visionpb.Symbol, 0, len(text))
	for _, r := range text {
		syms = append(syms, &visionpb.Symbol{Text: string(r)})
	}
	if len(syms) > 0 {
		syms[len(syms)-1].Property = &visionpb.TextAnnotation_TextProperty{
			DetectedBreak: &visionpb.TextAnnotation_DetectedBreak{Type: breakType},
		}
	}
	return syms
}

func word(text string, breakType visionpb.TextAnnotation_DetectedBreak_BreakType) *visionpb.Word {
	return &visionpb.Word{Symbols: symbols(text, breakType)}
}

func TestLinesFromTextAnnotation(t *testing.T) {
	annotation := &visionpb.TextAnnotation{
		Pages: []*visionpb.Page{
			{
				Blocks: []*visionpb.Block{
					{
						Paragraphs: []*visionpb.Paragraph{
							{
								Words: []*visionpb.Word{
									word("Invoice", visionpb.TextAnnotation_DetectedBreak_SPACE),
									word("#123", visionpb.TextAnnotation_DetectedBreak_LINE_BREAK),
									word("Total:", visionpb.TextAnnotation_DetectedBreak_SPACE),
									word("45.67", visionpb.TextAnnotation_DetectedBreak_EOL_SURE_SPACE),
								},
							},
						},
					},
				},
			},
		},
	}

	got := linesFromTextAnnotation(annotation)
	want := []string{"Invoice #123", "Total: 45.67"}
	if len(got) != len(want) {
		t.Fatalf("got %d lines, want %d: %v", len(got), len(want), got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("line %d = %q, want %q", i, got[i], want[i])
		}
	}
}

func TestLinesFromTextAnnotationTrailingLine(t *testing.T) {
	// A page that ends without a line break still yields its last line.
	annotation := &visionpb.TextAnnotation{
		Pages: []*visionpb.Page{
			{
				Blocks: []*visionpb.Block{
					{
						Paragraphs: []*visionpb.Paragraph{
							{Words: []*visionpb.Word{word("Due", 0)}},
						},
					},
				},
			},
		},
	}

	got := linesFromTextAnnotation(annotation)
	if len(got) != 1 || got[0] != "Due" {
		t.Errorf("got %v, want [Due]", got)
	}
}

func TestLinesFromBatchResponse(t *testing.T) {
	resp := &visionpb.BatchAnnotateImagesResponse{
		Responses: []*visionpb.AnnotateImageResponse{
			{
				FullTextAnnotation: &visionpb.TextAnnotation{
					Pages: []*visionpb.Page{
						{
							Blocks: []*visionpb.Block{
								{
									Paragraphs: []*visionpb.Paragraph{
										{Words: []*visionpb.Word{word("Total", visionpb.TextAnnotation_DetectedBreak_LINE_BREAK)}},
									},
								},
							},
						},
					},
				},
			},
		},
	}

	lines, err := linesFromBatchResponse(resp)
	if err != nil {
		t.Fatalf("linesFromBatchResponse failed: %v", err)
	}
	if len(lines) != 1 || lines[0] != "Total" {
		t.Errorf("got %v, want [Total]", lines)
	}
}

func TestLinesFromBatchResponseEmpty(t *testing.T) {
	_, err := linesFromBatchResponse(&visionpb.BatchAnnotateImagesResponse{})
	if !errors.Is(err, ErrServiceFailed) {
		t.Errorf("empty batch response returned %v, want ErrServiceFailed", err)
	}
}

func TestLinesFromBatchResponseError(t *testing.T) {
	resp := &visionpb.BatchAnnotateImagesResponse{
		Responses: []*visionpb.AnnotateImageResponse{
			{Error: &status.Status{Code: 3, Message: "bad image"}},
		},
	}

	_, err := linesFromBatchResponse(resp)
	if !errors.Is(err, ErrServiceFailed) {
		t.Errorf("errored response returned %v, want ErrServiceFailed", err)
	}
}

func TestLinesFromBatchResponseNoText(t *testing.T) {
	// A blank image annotates successfully with no full text annotation.
	resp := &visionpb.BatchAnnotateImagesResponse{
		Responses: []*visionpb.AnnotateImageResponse{{}},
	}

	lines, err := linesFromBatchResponse(resp)
	if err != nil {
		t.Fatalf("linesFromBatchResponse failed: %v", err)
	}
	if lines == nil || len(lines) != 0 {
		t.Errorf("got %v, want empty slice", lines)
	}
}

func TestLinesFromTextAnnotationEmpty(t *testing.T) {
	if got := linesFromTextAnnotation(nil); got == nil || len(got) != 0 {
		t.Errorf("nil annotation: got %v, want empty slice", got)
	}
	if got := linesFromTextAnnotation(&visionpb.TextAnnotation{}); len(got) != 0 {
		t.Errorf("empty annotation: got %v, want empty slice", got)
	}
}
