package pipeline

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"image/jpeg"

	_ "image/gif"
	_ "image/png"

	xdraw "golang.org/x/image/draw"
	_ "golang.org/x/image/webp"
)

// ErrDecode reports that the source bytes are not a decodable raster image.
// Encode or compositing failures are wrapped separately so callers can tell
// bad input from a broken transform.
var ErrDecode = errors.New("undecodable image")

type Options struct {
	Thumbnail bool
	Watermark bool
}

// Renderer normalizes every served image to JPEG, optionally shrinking it to
// thumbnail size and compositing the watermark tiling over it. It is safe for
// concurrent use; the watermark overlay is computed fresh per call because the
// rendered dimensions vary with the thumbnail option.
type Renderer struct {
	quality  int
	thumbMax int
	mark     *watermarker
}

func NewRenderer(label string, quality, thumbnailMax int) (*Renderer, error) {
	mark, err := newWatermarker(label)
	if err != nil {
		return nil, fmt.Errorf("init watermarker: %w", err)
	}
	return &Renderer{
		quality:  quality,
		thumbMax: thumbnailMax,
		mark:     mark,
	}, nil
}

func (r *Renderer) Render(source []byte, opts Options) ([]byte, error) {
	img, _, err := image.Decode(bytes.NewReader(source))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDecode, err)
	}

	canvas := toRGBA(img)

	if opts.Thumbnail {
		canvas = r.shrink(canvas)
	}

	if opts.Watermark {
		if err := r.mark.apply(canvas); err != nil {
			return nil, fmt.Errorf("composite watermark: %w", err)
		}
	}

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, canvas, &jpeg.Options{Quality: r.quality}); err != nil {
		return nil, fmt.Errorf("encode jpeg: %w", err)
	}
	return buf.Bytes(), nil
}

// shrink caps the longer edge at thumbMax, preserving aspect ratio and never
// upscaling.
func (r *Renderer) shrink(src *image.RGBA) *image.RGBA {
	bounds := src.Bounds()
	w, h := bounds.Dx(), bounds.Dy()

	longer := w
	if h > longer {
		longer = h
	}
	if longer <= r.thumbMax {
		return src
	}

	scale := float64(r.thumbMax) / float64(longer)
	nw := int(float64(w)*scale + 0.5)
	nh := int(float64(h)*scale + 0.5)
	if nw < 1 {
		nw = 1
	}
	if nh < 1 {
		nh = 1
	}

	dst := image.NewRGBA(image.Rect(0, 0, nw, nh))
	xdraw.CatmullRom.Scale(dst, dst.Bounds(), src, bounds, xdraw.Src, nil)
	return dst
}

func toRGBA(img image.Image) *image.RGBA {
	if rgba, ok := img.(*image.RGBA); ok {
		return rgba
	}
	bounds := img.Bounds()
	rgba := image.NewRGBA(image.Rect(0, 0, bounds.Dx(), bounds.Dy()))
	xdraw.Draw(rgba, rgba.Bounds(), img, bounds.Min, xdraw.Src)
	return rgba
}
