package ocr

import (
	"context"
	"fmt"
	"os"
	"strings"

	vision "cloud.google.com/go/vision/v2/apiv1"
	"cloud.google.com/go/vision/v2/apiv1/visionpb"
	"github.com/rs/zerolog"
	"google.golang.org/api/option"

	"invoiceocr/internal/logger"
)

// VisionExtractor implements LineExtractor using the Google Cloud Vision API.
//
// Vision's document text detection reports blocks, paragraphs, words and
// symbols rather than line elements. Lines are reassembled from the symbol
// stream using the detected break types the service attaches to each symbol.
type VisionExtractor struct {
	client *vision.ImageAnnotatorClient
	log    zerolog.Logger
}

// NewVisionExtractor creates an extractor with credentials from environment.
// It expects either GOOGLE_APPLICATION_CREDENTIALS path or GOOGLE_CREDENTIALS JSON in env.
func NewVisionExtractor(ctx context.Context) (*VisionExtractor, error) {
	const op = "NewVisionExtractor"

	var clientOptions []option.ClientOption
	if credJSON := os.Getenv("GOOGLE_CREDENTIALS"); credJSON != "" {
		clientOptions = append(clientOptions, option.WithCredentialsJSON([]byte(credJSON)))
	} else if credFile := os.Getenv("GOOGLE_APPLICATION_CREDENTIALS"); credFile != "" {
		clientOptions = append(clientOptions, option.WithCredentialsFile(credFile))
	}

	client, err := vision.NewImageAnnotatorClient(ctx, clientOptions...)
	if err != nil {
		if len(clientOptions) == 0 {
			return nil, WrapOCRError(op, ErrMissingCredentials, "no credentials found in environment")
		}
		return nil, WrapOCRError(op, err, "failed to create Vision client")
	}

	return &VisionExtractor{
		client: client,
		log:    logger.WithComponent("vision"),
	}, nil
}

// NewVisionExtractorWithClient creates an extractor with an explicit client (for testing).
func NewVisionExtractorWithClient(client *vision.ImageAnnotatorClient) *VisionExtractor {
	return &VisionExtractor{
		client: client,
		log:    logger.WithComponent("vision"),
	}
}

// ExtractLines runs Vision document text detection over an image and returns
// the detected lines in reading order.
func (e *VisionExtractor) ExtractLines(ctx context.Context, image []byte) ([]string, error) {
	const op = "ExtractLines"

	if len(image) == 0 {
		return nil, WrapOCRError(op, ErrInvalidImage, "empty image data")
	}
	if len(image) > MaxImageSizeBytes {
		return nil, WrapOCRError(op, ErrImageTooLarge, fmt.Sprintf("image size: %d bytes", len(image)))
	}

	req := &visionpb.BatchAnnotateImagesRequest{
		Requests: []*visionpb.AnnotateImageRequest{
			{
				Image: &visionpb.Image{Content: image},
				Features: []*visionpb.Feature{
					{Type: visionpb.Feature_DOCUMENT_TEXT_DETECTION},
				},
			},
		},
	}

	resp, err := e.client.BatchAnnotateImages(ctx, req)
	if err != nil {
		return nil, e.handleProcessingError(op, err)
	}

	lines, err := linesFromBatchResponse(resp)
	if err != nil {
		return nil, WrapOCRError(op, err, "")
	}
	e.log.Debug().Int("lines", len(lines)).Msg("extracted text lines")
	return lines, nil
}

// linesFromBatchResponse unpacks the single image annotation of a batch
// response. The request carries one image, so only the first response entry
// is consulted.
func linesFromBatchResponse(resp *visionpb.BatchAnnotateImagesResponse) ([]string, error) {
	if len(resp.GetResponses()) == 0 {
		return nil, fmt.Errorf("%w: no response from Vision API", ErrServiceFailed)
	}
	imgResp := resp.GetResponses()[0]
	if imgResp.GetError() != nil {
		return nil, fmt.Errorf("%w: %s", ErrServiceFailed, imgResp.GetError().GetMessage())
	}
	return linesFromTextAnnotation(imgResp.GetFullTextAnnotation()), nil
}

// handleProcessingError converts Vision API errors to OCR sentinel errors.
func (e *VisionExtractor) handleProcessingError(op string, err error) error {
	errStr := err.Error()

	switch {
	case strings.Contains(errStr, "PERMISSION_DENIED"):
		return WrapOCRError(op, ErrInvalidCredentials, "insufficient permissions for Vision API")
	case strings.Contains(errStr, "RESOURCE_EXHAUSTED"):
		return WrapOCRError(op, ErrQuotaExceeded, "Vision API quota exceeded")
	case strings.Contains(errStr, "INVALID_ARGUMENT"):
		return WrapOCRError(op, ErrInvalidImage, "image format not supported or corrupted")
	case strings.Contains(errStr, "context deadline exceeded"):
		return WrapOCRError(op, context.DeadlineExceeded, "processing timeout")
	default:
		return WrapOCRError(op, ErrServiceFailed, errStr)
	}
}

// linesFromTextAnnotation rebuilds text lines from the symbol stream of a
// Vision full-text annotation. A symbol whose detected break is EOL_SURE_SPACE
// or LINE_BREAK terminates the current line.
func linesFromTextAnnotation(annotation *visionpb.TextAnnotation) []string {
	lines := []string{}
	if annotation == nil {
		return lines
	}

	var current strings.Builder
	flush := func() {
		lines = append(lines, current.String())
		current.Reset()
	}

	for _, page := range annotation.GetPages() {
		for _, block := range page.GetBlocks() {
			for _, paragraph := range block.GetParagraphs() {
				for _, word := range paragraph.GetWords() {
					for _, symbol := range word.GetSymbols() {
						current.WriteString(symbol.GetText())
						switch symbol.GetProperty().GetDetectedBreak().GetType() {
						case visionpb.TextAnnotation_DetectedBreak_SPACE,
							visionpb.TextAnnotation_DetectedBreak_SURE_SPACE:
							current.WriteString(" ")
						case visionpb.TextAnnotation_DetectedBreak_EOL_SURE_SPACE,
							visionpb.TextAnnotation_DetectedBreak_LINE_BREAK:
							flush()
						}
					}
				}
			}
		}
		// A page ending mid-line still yields that line.
		if current.Len() > 0 {
			flush()
		}
	}
	return lines
}

// Close closes the underlying Vision client.
func (e *VisionExtractor) Close() error {
	if e.client != nil {
		return e.client.Close()
	}
	return nil
}
