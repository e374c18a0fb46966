package imaging

import (
	"bytes"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"testing"
)

func testJPEG(w, h int) []byte {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for x := 0; x < w; x++ {
		for y := 0; y < h; y++ {
			img.Set(x, y, color.RGBA{200, 40, 40, 255})
		}
	}
	var buf bytes.Buffer
	jpeg.Encode(&buf, img, &jpeg.Options{Quality: 90})
	return buf.Bytes()
}

func testPNG(w, h int) []byte {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for x := 0; x < w; x++ {
		for y := 0; y < h; y++ {
			img.Set(x, y, color.RGBA{40, 40, 200, 255})
		}
	}
	var buf bytes.Buffer
	png.Encode(&buf, img)
	return buf.Bytes()
}

func TestProcessPhotoJPEG(t *testing.T) {
	result, err := ProcessPhoto(bytes.NewReader(testJPEG(100, 100)))
	if err != nil {
		t.Fatalf("ProcessPhoto JPEG: %v", err)
	}
	if result.MIME != "image/jpeg" {
		t.Errorf("expected image/jpeg, got %s", result.MIME)
	}
	if len(result.Data) == 0 {
		t.Error("expected non-empty data")
	}
}

func TestProcessPhotoPNGConvertedToJPEG(t *testing.T) {
	result, err := ProcessPhoto(bytes.NewReader(testPNG(100, 100)))
	if err != nil {
		t.Fatalf("ProcessPhoto PNG: %v", err)
	}
	if result.MIME != "image/jpeg" {
		t.Errorf("expected image/jpeg, got %s", result.MIME)
	}
}

func TestProcessPhotoDownscale(t *testing.T) {
	result, err := ProcessPhoto(bytes.NewReader(testJPEG(2600, 1300)))
	if err != nil {
		t.Fatalf("ProcessPhoto large image: %v", err)
	}

	img, _, err := image.Decode(bytes.NewReader(result.Data))
	if err != nil {
		t.Fatalf("decoding result: %v", err)
	}
	bounds := img.Bounds()
	if bounds.Dx() > MaxDimension || bounds.Dy() > MaxDimension {
		t.Errorf("expected max %dx%d, got %dx%d", MaxDimension, MaxDimension, bounds.Dx(), bounds.Dy())
	}
	// Aspect ratio is preserved within rounding.
	if bounds.Dx() != MaxDimension {
		t.Errorf("long edge should be %d, got %d", MaxDimension, bounds.Dx())
	}
}

func TestProcessPhotoSmallImageNotUpscaled(t *testing.T) {
	result, err := ProcessPhoto(bytes.NewReader(testJPEG(60, 40)))
	if err != nil {
		t.Fatalf("ProcessPhoto small image: %v", err)
	}

	img, _, err := image.Decode(bytes.NewReader(result.Data))
	if err != nil {
		t.Fatalf("decoding result: %v", err)
	}
	bounds := img.Bounds()
	if bounds.Dx() != 60 || bounds.Dy() != 40 {
		t.Errorf("small image should not be resized: got %dx%d", bounds.Dx(), bounds.Dy())
	}
}

func TestProcessPhotoInvalidFormat(t *testing.T) {
	if _, err := ProcessPhoto(bytes.NewReader([]byte("not an image"))); err == nil {
		t.Error("expected error for invalid format")
	}
}

func TestProcessPhotoGIFRejected(t *testing.T) {
	if _, err := ProcessPhoto(bytes.NewReader([]byte("GIF89a..."))); err == nil {
		t.Error("expected error for GIF")
	}
}

func TestProcessPhotoTooLarge(t *testing.T) {
	oversized := bytes.Repeat([]byte{0xff}, MaxUploadBytes+1)
	if _, err := ProcessPhoto(bytes.NewReader(oversized)); err == nil {
		t.Error("expected error for oversized upload")
	}
}
