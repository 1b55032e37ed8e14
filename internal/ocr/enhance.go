package ocr

import (
	"bytes"

	"github.com/disintegration/imaging"
)

// Enhance pre-processes an invoice photo for better OCR results: grayscale
// for contrast, then contrast, sharpen, brightness and gamma adjustments.
// The result is re-encoded as PNG.
func Enhance(image []byte) ([]byte, error) {
	const op = "Enhance"

	src, err := imaging.Decode(bytes.NewReader(image))
	if err != nil {
		return nil, WrapOCRError(op, ErrInvalidImage, "failed to decode image")
	}

	img := imaging.Grayscale(src)
	img = imaging.AdjustContrast(img, 30)
	img = imaging.Sharpen(img, 1.5)
	img = imaging.AdjustBrightness(img, 10)
	img = imaging.AdjustGamma(img, 1.2)

	var buf bytes.Buffer
	if err := imaging.Encode(&buf, img, imaging.PNG); err != nil {
		return nil, WrapOCRError(op, err, "failed to encode enhanced image")
	}
	return buf.Bytes(), nil
}
