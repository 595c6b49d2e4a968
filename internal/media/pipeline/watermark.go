package pipeline

import (
	"fmt"
	"image"
	"image/color"
	"math"

	"golang.org/x/image/draw"
	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/gobold"
	"golang.org/x/image/font/opentype"
	"golang.org/x/image/math/f64"
	"golang.org/x/image/math/fixed"
)

const tiltDegrees = -30

// watermarker tiles a label across the full frame: one text run per cell of
// 10×fontSize by 5×fontSize, the whole grid tilted, with a translucent light
// fill over a darker offset outline so the label reads on any background.
type watermarker struct {
	label string
	ttf   *opentype.Font
}

func newWatermarker(label string) (*watermarker, error) {
	ttf, err := opentype.Parse(gobold.TTF)
	if err != nil {
		return nil, fmt.Errorf("parse font: %w", err)
	}
	return &watermarker{
		label: label,
		ttf:   ttf,
	}, nil
}

func (m *watermarker) apply(dst *image.RGBA) error {
	bounds := dst.Bounds()
	w, h := bounds.Dx(), bounds.Dy()

	// Font size scales with the rendered width so the label stays prominent
	// on thumbnails and full-resolution frames alike.
	fontSize := math.Max(float64(w)/15, 40)

	face, err := opentype.NewFace(m.ttf, &opentype.FaceOptions{
		Size:    fontSize,
		DPI:     72,
		Hinting: font.HintingFull,
	})
	if err != nil {
		return fmt.Errorf("font face: %w", err)
	}
	defer face.Close()

	tile := m.renderTile(face, fontSize)
	tileW := tile.Bounds().Dx()
	tileH := tile.Bounds().Dy()

	sin, cos := math.Sincos(tiltDegrees * math.Pi / 180)
	cx, cy := float64(w)/2, float64(h)/2

	// The grid is anchored at the frame center and extends past the diagonal
	// so the rotated tiling covers every corner of any aspect ratio.
	reach := math.Hypot(float64(w), float64(h))/2 + float64(tileW)
	cols := int(reach/float64(tileW)) + 1
	rows := int(reach/float64(tileH)) + 1

	for j := -rows; j <= rows; j++ {
		for i := -cols; i <= cols; i++ {
			tx := float64(i * tileW)
			ty := float64(j * tileH)
			aff := f64.Aff3{
				cos, -sin, cx + tx*cos - ty*sin,
				sin, cos, cy + tx*sin + ty*cos,
			}
			draw.ApproxBiLinear.Transform(dst, aff, tile, tile.Bounds(), draw.Over, nil)
		}
	}
	return nil
}

func (m *watermarker) renderTile(face font.Face, fontSize float64) *image.RGBA {
	tileW := int(fontSize * 10)
	tileH := int(fontSize * 5)
	tile := image.NewRGBA(image.Rect(0, 0, tileW, tileH))

	fill := image.NewUniform(color.NRGBA{R: 255, G: 255, B: 255, A: 128})
	outline := image.NewUniform(color.NRGBA{A: 77})

	baseline := fixed.I(int(fontSize))
	drawer := &font.Drawer{Dst: tile, Face: face}

	// Offset passes in the dark ink approximate a stroke around the fill.
	drawer.Src = outline
	for _, off := range [][2]int{{-2, 0}, {2, 0}, {0, -2}, {0, 2}} {
		drawer.Dot = fixed.Point26_6{X: fixed.I(off[0]), Y: baseline + fixed.I(off[1])}
		drawer.DrawString(m.label)
	}

	drawer.Src = fill
	drawer.Dot = fixed.Point26_6{X: 0, Y: baseline}
	drawer.DrawString(m.label)

	return tile
}
