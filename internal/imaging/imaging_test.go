package imaging

import (
	"bytes"
	"image/color"
	"image/png"
	"testing"
)

func TestClampSize(t *testing.T) {
	tests := []struct{ in, want int }{
		{0, DefaultLabelSize},
		{10, MinLabelSize},
		{300, 300},
		{5000, MaxLabelSize},
	}
	for _, tt := range tests {
		if got := ClampSize(tt.in); got != tt.want {
			t.Errorf("ClampSize(%d) = %d, want %d", tt.in, got, tt.want)
		}
	}
}

func TestQRCode(t *testing.T) {
	data, err := QRCode("CHR008", 200)
	if err != nil {
		t.Fatalf("QRCode: %v", err)
	}
	img, err := png.Decode(bytes.NewReader(data))
	if err != nil {
		t.Fatalf("decoding PNG: %v", err)
	}
	if b := img.Bounds(); b.Dx() != 200 || b.Dy() != 200 {
		t.Errorf("expected 200x200, got %dx%d", b.Dx(), b.Dy())
	}

	if _, err := QRCode("  ", 200); err == nil {
		t.Error("expected error for empty content")
	}
}

func TestLabel(t *testing.T) {
	for _, size := range []int{64, 256, 512} {
		data, err := Label("CHR008", size)
		if err != nil {
			t.Fatalf("Label(%d): %v", size, err)
		}
		img, err := png.Decode(bytes.NewReader(data))
		if err != nil {
			t.Fatalf("decoding PNG: %v", err)
		}
		b := img.Bounds()
		if b.Dx() != size {
			t.Errorf("size %d: expected width %d, got %d", size, size, b.Dx())
		}
		if b.Dy() <= size {
			t.Errorf("size %d: expected room for a caption below the QR code, got height %d", size, b.Dy())
		}

		// The caption area contains dark text pixels.
		dark := false
		for y := size; y < b.Dy() && !dark; y++ {
			for x := 0; x < b.Dx(); x++ {
				if g := color.GrayModel.Convert(img.At(x, y)).(color.Gray); g.Y < 128 {
					dark = true
					break
				}
			}
		}
		if !dark {
			t.Errorf("size %d: expected caption text below the QR code", size)
		}
	}
}

func TestLabelEmptyCode(t *testing.T) {
	if _, err := Label(" ", 256); err == nil {
		t.Error("expected error for empty code")
	}
}

func TestCaptionFitsLabel(t *testing.T) {
	long := "CHR-VERY-LONG-DEVICE-CODE-0001"
	for _, width := range []int{64, 256, 1024} {
		c := caption(long, width)
		if c.Bounds().Dx() > width && c.Bounds().Dx() > 7*len(long) {
			t.Errorf("width %d: caption %d px wide", width, c.Bounds().Dx())
		}
	}
}
