package printer

import (
	"bytes"
	"context"
	"image"
	"image/color"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func blackImage(w, h int) image.Image {
	img := image.NewGray(image.Rect(0, 0, w, h))
	for i := range img.Pix {
		img.Pix[i] = 0
	}
	return img
}

func TestNewImagePrinter(t *testing.T) {
	var buf bytes.Buffer

	p, err := NewImagePrinter("zpl", &buf, PrinterOptions{})
	require.NoError(t, err)
	assert.IsType(t, &ZebraPrinter{}, p)

	p, err = NewImagePrinter("tspl", &buf, PrinterOptions{})
	require.NoError(t, err)
	assert.IsType(t, &LabelPrinter{}, p)

	_, err = NewImagePrinter("escpos", &buf, PrinterOptions{})
	assert.Error(t, err)
}

func TestZebraPrinter_PrintImage(t *testing.T) {
	var buf bytes.Buffer
	p, err := NewImagePrinter("zpl", &buf, PrinterOptions{})
	require.NoError(t, err)

	require.NoError(t, p.PrintImage(context.Background(), blackImage(8, 2), 20, 100, -1, -1))

	out := buf.String()
	assert.True(t, strings.HasPrefix(out, "^XA"))
	assert.Contains(t, out, "^FO20,100")
	assert.Contains(t, out, "^GFA,2,2,1,FFFF^FS")
	assert.Contains(t, out, "^XZ")
}

func TestLabelPrinter_CanceledDuringUnpause(t *testing.T) {
	var buf bytes.Buffer
	p, err := NewImagePrinter("tspl", &buf, PrinterOptions{})
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err = p.PrintImage(ctx, blackImage(8, 1), 0, 0, -1, -1)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, "\x1b!o", buf.String())
}

func TestLabelPrinter_PrintImage(t *testing.T) {
	var buf bytes.Buffer
	p, err := NewImagePrinter("tspl", &buf, PrinterOptions{Density: 8})
	require.NoError(t, err)

	require.NoError(t, p.PrintImage(context.Background(), blackImage(8, 1), 0, 0, -1, -1))

	out := buf.String()
	assert.True(t, strings.HasPrefix(out, "\x1b!o"))
	assert.Contains(t, out, "DENSITY 8\r\n")
	// dark pixels are clear bits in TSPL
	assert.Contains(t, out, "BITMAP 0,0,1,1,0,\x00\r\n")
}

func TestFit(t *testing.T) {
	src := image.NewRGBA(image.Rect(0, 0, 100, 50))
	src.Set(0, 0, color.Black)

	tests := []struct {
		name          string
		width, height int
		wantW, wantH  int
	}{
		{"keep", -1, -1, 100, 50},
		{"width only", 50, -1, 50, 25},
		{"height only", -1, 100, 200, 100},
		{"both", 30, 30, 30, 30},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b := fit(src, tt.width, tt.height).Bounds()
			assert.Equal(t, tt.wantW, b.Dx())
			assert.Equal(t, tt.wantH, b.Dy())
		})
	}
}
