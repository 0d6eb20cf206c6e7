// Package imaging renders chromebook QR labels.
package imaging

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"strings"

	"github.com/skip2/go-qrcode"
	"golang.org/x/image/draw"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"
)

// Label sizes in pixels. Size is the width of the label and of its QR code.
const (
	DefaultLabelSize = 256
	MinLabelSize     = 64
	MaxLabelSize     = 1024
)

// textScaleBase is the label width at which the caption is drawn 1:1.
const textScaleBase = 128

// ClampSize limits a requested label size to the supported range. Zero
// means DefaultLabelSize.
func ClampSize(size int) int {
	switch {
	case size == 0:
		return DefaultLabelSize
	case size < MinLabelSize:
		return MinLabelSize
	case size > MaxLabelSize:
		return MaxLabelSize
	}
	return size
}

// QRCode encodes content as a PNG QR code of size×size pixels.
func QRCode(content string, size int) ([]byte, error) {
	if strings.TrimSpace(content) == "" {
		return nil, fmt.Errorf("empty QR content")
	}
	data, err := qrcode.Encode(content, qrcode.Medium, ClampSize(size))
	if err != nil {
		return nil, fmt.Errorf("encoding QR code: %w", err)
	}
	return data, nil
}

// Label renders a PNG with the device code as a QR code and, below it, the
// code in plain text so it can be typed when the scanner fails.
func Label(code string, size int) ([]byte, error) {
	code = strings.TrimSpace(code)
	if code == "" {
		return nil, fmt.Errorf("empty device code")
	}
	size = ClampSize(size)

	q, err := qrcode.New(code, qrcode.Medium)
	if err != nil {
		return nil, fmt.Errorf("encoding QR code: %w", err)
	}
	qr := q.Image(size)

	text := caption(code, size)
	captionH := text.Bounds().Dy()
	pad := captionH / 4

	canvas := image.NewRGBA(image.Rect(0, 0, size, size+captionH+2*pad))
	draw.Draw(canvas, canvas.Bounds(), image.White, image.Point{}, draw.Src)
	draw.Draw(canvas, image.Rect(0, 0, size, size), qr, qr.Bounds().Min, draw.Src)

	x := (size - text.Bounds().Dx()) / 2
	draw.Draw(canvas, text.Bounds().Add(image.Pt(x, size+pad)), text, image.Point{}, draw.Over)

	var buf bytes.Buffer
	if err := png.Encode(&buf, canvas); err != nil {
		return nil, fmt.Errorf("encoding PNG: %w", err)
	}
	return buf.Bytes(), nil
}

// caption draws text with the fixed 7x13 face and scales it up to suit the
// label width. Nearest-neighbour keeps the glyph edges sharp.
func caption(text string, labelWidth int) image.Image {
	face := basicfont.Face7x13
	w := font.MeasureString(face, text).Ceil()
	h := face.Metrics().Height.Ceil()

	src := image.NewRGBA(image.Rect(0, 0, w, h))
	draw.Draw(src, src.Bounds(), image.White, image.Point{}, draw.Src)
	d := &font.Drawer{
		Dst:  src,
		Src:  image.NewUniform(color.Black),
		Face: face,
		Dot:  fixed.P(0, face.Metrics().Ascent.Ceil()),
	}
	d.DrawString(text)

	scale := labelWidth / textScaleBase
	if scale < 1 {
		scale = 1
	}
	for scale > 1 && w*scale > labelWidth {
		scale--
	}
	if scale == 1 {
		return src
	}

	dst := image.NewRGBA(image.Rect(0, 0, w*scale, h*scale))
	draw.NearestNeighbor.Scale(dst, dst.Bounds(), src, src.Bounds(), draw.Src, nil)
	return dst
}
