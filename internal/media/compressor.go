package media

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"image/jpeg"
	_ "image/png"
	"path/filepath"
	"strings"

	"autobazar/listing-editor/internal/config"
	"autobazar/listing-editor/internal/models/dtos"

	"golang.org/x/image/draw"
)

var ErrUnsupportedMedia = errors.New("unsupported media type")

// Compressor downsizes and re-encodes images before upload. Videos pass
// through untouched.
type Compressor struct {
	maxDimension int
	quality      int
}

func NewCompressor(cfg config.MediaConfig) *Compressor {
	c := &Compressor{maxDimension: cfg.MaxDimension, quality: cfg.JPEGQuality}
	if c.maxDimension <= 0 {
		c.maxDimension = 1920
	}
	if c.quality <= 0 || c.quality > 100 {
		c.quality = 82
	}
	return c
}

// Compress returns a JPEG no larger than the configured bounding box.
func (c *Compressor) Compress(f dtos.MediaFile) (dtos.MediaFile, error) {
	if f.IsVideo() {
		return f, nil
	}
	if f.ContentType != "" && !strings.HasPrefix(f.ContentType, "image/") {
		return f, fmt.Errorf("%s: %w", f.Name, ErrUnsupportedMedia)
	}

	src, _, err := image.Decode(bytes.NewReader(f.Data))
	if err != nil {
		return f, fmt.Errorf("%s: %w: %v", f.Name, ErrUnsupportedMedia, err)
	}

	img := c.fit(src)

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: c.quality}); err != nil {
		return f, fmt.Errorf("encode %s: %w", f.Name, err)
	}

	return dtos.MediaFile{
		Name:        strings.TrimSuffix(f.Name, filepath.Ext(f.Name)) + ".jpg",
		ContentType: "image/jpeg",
		Data:        buf.Bytes(),
	}, nil
}

func (c *Compressor) fit(src image.Image) image.Image {
	b := src.Bounds()
	w, h := b.Dx(), b.Dy()
	longest := w
	if h > longest {
		longest = h
	}
	if longest <= c.maxDimension {
		return src
	}

	scale := float64(c.maxDimension) / float64(longest)
	nw, nh := int(float64(w)*scale), int(float64(h)*scale)
	if nw < 1 {
		nw = 1
	}
	if nh < 1 {
		nh = 1
	}

	dst := image.NewRGBA(image.Rect(0, 0, nw, nh))
	draw.CatmullRom.Scale(dst, dst.Bounds(), src, b, draw.Over, nil)
	return dst
}
