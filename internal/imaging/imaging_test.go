package imaging

import (
	"image"
	"image/color"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func ptr(f float64) *float64 { return &f }

func TestScaleFactor(t *testing.T) {
	tests := []struct {
		name     string
		width    *float64
		padding  int
		srcWidth int
		want     float64
	}{
		{"no reported width", nil, 20, 1024, 1.0},
		{"four inch head", ptr(832), 20, 1024, 792.0 / 1024.0},
		{"two inch head", ptr(384), 20, 1024, 344.0 / 1024.0},
		{"no padding", ptr(512), 0, 1024, 0.5},
		{"degenerate source", ptr(832), 20, 0, 1.0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.want, ScaleFactor(tt.width, tt.padding, tt.srcWidth), 1e-9)
		})
	}
}

func TestScaledSize_Rounds(t *testing.T) {
	w, h := ScaledSize(1024, 777, 792.0/1024.0)
	assert.Equal(t, 792, w)
	assert.Equal(t, 601, h) // 777 * 0.7734375 = 600.96

	w, h = ScaledSize(3, 3, 0.5)
	assert.Equal(t, 2, w)
	assert.Equal(t, 2, h)
}

func TestScale_PreservesAspect(t *testing.T) {
	src := image.NewRGBA(image.Rect(0, 0, 200, 100))
	out := Scale(src, 0.5)
	assert.Equal(t, image.Rect(0, 0, 100, 50), out.Bounds())

	out = Scale(src, 1.0)
	assert.Equal(t, src.Bounds(), out.Bounds())
}

func TestResize_NegativeIsEmpty(t *testing.T) {
	out := Resize(image.NewRGBA(image.Rect(0, 0, 10, 10)), -1, 5)
	assert.True(t, out.Bounds().Empty())
}

func TestOpaque_FlattensOntoWhite(t *testing.T) {
	src := image.NewNRGBA(image.Rect(5, 5, 7, 6))
	src.SetNRGBA(5, 5, color.NRGBA{A: 0})
	src.SetNRGBA(6, 5, color.NRGBA{R: 0, G: 0, B: 0, A: 255})

	out := Opaque(src)
	require.Equal(t, image.Rect(0, 0, 2, 1), out.Bounds())
	assert.Equal(t, color.RGBA{255, 255, 255, 255}, out.RGBAAt(0, 0))
	assert.Equal(t, color.RGBA{0, 0, 0, 255}, out.RGBAAt(1, 0))
}

func TestToMonochrome_PacksMSBFirst(t *testing.T) {
	img := image.NewGray(image.Rect(0, 0, 10, 2))
	for x := 0; x < 10; x++ {
		img.SetGray(x, 0, color.Gray{255})
		img.SetGray(x, 1, color.Gray{255})
	}
	img.SetGray(0, 0, color.Gray{0})
	img.SetGray(9, 1, color.Gray{0})

	widthBytes, data := ToMonochrome(img, 128, false)
	require.Equal(t, 2, widthBytes)
	assert.Equal(t, []byte{0x80, 0x00, 0x00, 0x40}, data)

	_, inverted := ToMonochrome(img, 128, true)
	// padding bits are white, so they flip to set when inverted
	assert.Equal(t, []byte{0x7F, 0xFF, 0xFF, 0xBF}, inverted)
}

func TestPreviewMonochrome_RoundTrip(t *testing.T) {
	data := []byte{0x80, 0x01}
	img := PreviewMonochrome(data, 1, 2)

	assert.Equal(t, color.Gray{0}, img.GrayAt(0, 0))
	assert.Equal(t, color.Gray{255}, img.GrayAt(1, 0))
	assert.Equal(t, color.Gray{0}, img.GrayAt(7, 1))
}
