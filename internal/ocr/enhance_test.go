package ocr

import (
	"bytes"
	"errors"
	"image"
	"image/color"
	"image/png"
	"testing"
)

func TestEnhanceRoundTrip(t *testing.T) {
	src := image.NewRGBA(image.Rect(0, 0, 8, 8))
	for x := 0; x < 8; x++ {
		src.Set(x, x, color.RGBA{R: 255, A: 255})
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, src); err != nil {
		t.Fatalf("encode fixture: %v", err)
	}

	out, err := Enhance(buf.Bytes())
	if err != nil {
		t.Fatalf("Enhance failed: %v", err)
	}

	decoded, err := png.Decode(bytes.NewReader(out))
	if err != nil {
		t.Fatalf("enhanced output is not valid PNG: %v", err)
	}
	if decoded.Bounds() != src.Bounds() {
		t.Errorf("enhanced bounds %v, want %v", decoded.Bounds(), src.Bounds())
	}
}

func TestEnhanceInvalidImage(t *testing.T) {
	_, err := Enhance([]byte("not an image"))
	if !errors.Is(err, ErrInvalidImage) {
		t.Errorf("Enhance on garbage returned %v, want ErrInvalidImage", err)
	}
}
