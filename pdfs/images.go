package pdfs

import (
	"bytes"
	"context"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	"image/png"
	"io"

	"golang.org/x/image/draw"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"
)

const maxImageSide = 1200

// ImageResolver opens the bytes behind a record's image reference
type ImageResolver interface {
	OpenImage(ctx context.Context, ref string) (io.ReadCloser, error)
}

type ImageResolverFunc func(ctx context.Context, ref string) (io.ReadCloser, error)

func (f ImageResolverFunc) OpenImage(ctx context.Context, ref string) (io.ReadCloser, error) {
	return f(ctx, ref)
}

// loadImagePNG decodes any supported image format and re-encodes it as an opaque 8-bit PNG
func loadImagePNG(ctx context.Context, r ImageResolver, ref string) ([]byte, int, int, error) {
	rc, err := r.OpenImage(ctx, ref)
	if err != nil {
		return nil, 0, 0, err
	}
	defer rc.Close()

	src, format, err := image.Decode(io.LimitReader(rc, 32<<20))
	if err != nil {
		return nil, 0, 0, fmt.Errorf("decoding image: %w", err)
	}
	b := src.Bounds()
	if b.Dx() == 0 || b.Dy() == 0 {
		return nil, 0, 0, fmt.Errorf("empty %s image", format)
	}
	data, err := flattenPNG(src, maxImageSide, draw.CatmullRom)
	if err != nil {
		return nil, 0, 0, err
	}
	return data, b.Dx(), b.Dy(), nil
}

// flattenPNG scales src down to fit maxSide and composites it on white
func flattenPNG(src image.Image, maxSide int, scaler draw.Scaler) ([]byte, error) {
	b := src.Bounds()
	w, h := b.Dx(), b.Dy()
	if w > maxSide || h > maxSide {
		if w >= h {
			h = h * maxSide / w
			w = maxSide
		} else {
			w = w * maxSide / h
			h = maxSide
		}
	}
	dst := image.NewRGBA(image.Rect(0, 0, max(w, 1), max(h, 1)))
	draw.Draw(dst, dst.Bounds(), image.White, image.Point{}, draw.Src)
	scaler.Scale(dst, dst.Bounds(), src, b, draw.Over, nil)

	var buf bytes.Buffer
	if err := png.Encode(&buf, dst); err != nil {
		return nil, fmt.Errorf("encoding png: %w", err)
	}
	return buf.Bytes(), nil
}
