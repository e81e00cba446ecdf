package media

import (
	"bytes"
	"errors"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"testing"

	"autobazar/listing-editor/internal/config"
	"autobazar/listing-editor/internal/models/dtos"
)

func pngBytes(t *testing.T, w, h int) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for x := 0; x < w; x++ {
		img.Set(x, 0, color.RGBA{R: 200, A: 255})
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("png encode: %v", err)
	}
	return buf.Bytes()
}

func TestCompressor_DownscalesToBoundingBox(t *testing.T) {
	c := NewCompressor(config.MediaConfig{MaxDimension: 100, JPEGQuality: 80})

	out, err := c.Compress(dtos.MediaFile{Name: "front.png", ContentType: "image/png", Data: pngBytes(t, 400, 200)})
	if err != nil {
		t.Fatalf("Compress failed: %v", err)
	}

	if out.Name != "front.jpg" || out.ContentType != "image/jpeg" {
		t.Errorf("Unexpected file %s (%s)", out.Name, out.ContentType)
	}
	img, err := jpeg.Decode(bytes.NewReader(out.Data))
	if err != nil {
		t.Fatalf("output is not a jpeg: %v", err)
	}
	if b := img.Bounds(); b.Dx() != 100 || b.Dy() != 50 {
		t.Errorf("Expected 100x50, got %dx%d", b.Dx(), b.Dy())
	}
}

func TestCompressor_KeepsSmallImagesSize(t *testing.T) {
	c := NewCompressor(config.MediaConfig{MaxDimension: 1000})

	out, err := c.Compress(dtos.MediaFile{Name: "a.png", ContentType: "image/png", Data: pngBytes(t, 20, 10)})
	if err != nil {
		t.Fatalf("Compress failed: %v", err)
	}
	img, _ := jpeg.Decode(bytes.NewReader(out.Data))
	if b := img.Bounds(); b.Dx() != 20 || b.Dy() != 10 {
		t.Errorf("Expected 20x10, got %dx%d", b.Dx(), b.Dy())
	}
}

func TestCompressor_VideoPassesThrough(t *testing.T) {
	c := NewCompressor(config.MediaConfig{})
	in := dtos.MediaFile{Name: "walkaround.mp4", ContentType: "video/mp4", Data: []byte("raw")}

	out, err := c.Compress(in)
	if err != nil {
		t.Fatalf("Compress failed: %v", err)
	}
	if string(out.Data) != "raw" || out.Name != in.Name {
		t.Error("Video must not be modified")
	}
}

func TestCompressor_RejectsGarbage(t *testing.T) {
	c := NewCompressor(config.MediaConfig{})

	_, err := c.Compress(dtos.MediaFile{Name: "x.jpg", ContentType: "image/jpeg", Data: []byte("not an image")})
	if !errors.Is(err, ErrUnsupportedMedia) {
		t.Errorf("Expected ErrUnsupportedMedia, got %v", err)
	}
}
