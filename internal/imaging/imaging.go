package imaging

import (
	"image"
	"image/color"
	"image/draw"
	"math"

	xdraw "golang.org/x/image/draw"
)

// ScaleFactor returns the uniform factor that fits an image of srcWidth into
// the printable width, i.e. the reported width minus padding on both sides.
// A nil width, or a degenerate source, leaves the image unscaled.
func ScaleFactor(printWidth *float64, padding, srcWidth int) float64 {
	if printWidth == nil || srcWidth <= 0 {
		return 1.0
	}
	return (*printWidth - float64(2*padding)) / float64(srcWidth)
}

// ScaledSize returns the rounded dimensions of a w x h image scaled by s.
func ScaledSize(w, h int, s float64) (int, int) {
	return int(math.Round(float64(w) * s)), int(math.Round(float64(h) * s))
}

// Scale resizes img by factor s, preserving aspect ratio.
func Scale(img image.Image, s float64) *image.RGBA {
	b := img.Bounds()
	w, h := ScaledSize(b.Dx(), b.Dy(), s)
	return Resize(img, w, h)
}

// Resize draws img into a new w x h canvas with bilinear filtering.
// Non-positive dimensions yield an empty image.
func Resize(img image.Image, w, h int) *image.RGBA {
	if w < 0 {
		w = 0
	}
	if h < 0 {
		h = 0
	}
	dst := image.NewRGBA(image.Rect(0, 0, w, h))
	if w == 0 || h == 0 {
		return dst
	}
	xdraw.BiLinear.Scale(dst, dst.Bounds(), img, img.Bounds(), xdraw.Src, nil)
	return dst
}

// Opaque flattens img onto a white background.
func Opaque(img image.Image) *image.RGBA {
	b := img.Bounds()
	dst := image.NewRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	draw.Draw(dst, dst.Bounds(), image.White, image.Point{}, draw.Src)
	draw.Draw(dst, dst.Bounds(), img, b.Min, draw.Over)
	return dst
}

// ToMonochrome packs img into a 1-bit bitmap, MSB first, one row after the
// other. Rows are padded to whole bytes with white. A set bit is a dark
// pixel unless invert is true.
func ToMonochrome(img image.Image, threshold uint8, invert bool) (widthBytes int, data []byte) {
	b := img.Bounds()
	width, height := b.Dx(), b.Dy()
	widthBytes = (width + 7) / 8
	data = make([]byte, widthBytes*height)

	for y := 0; y < height; y++ {
		for x := 0; x < widthBytes*8; x++ {
			gray := uint8(255)
			if x < width {
				gray = rgbToGray(img.At(b.Min.X+x, b.Min.Y+y))
			}

			var bit uint8
			if gray < threshold {
				bit = 1
			}
			if invert {
				bit = 1 - bit
			}

			data[y*widthBytes+x/8] |= bit << (7 - x%8)
		}
	}

	return widthBytes, data
}

// rgbToGray converts a color to its luminance
func rgbToGray(c color.Color) uint8 {
	r, g, b, _ := c.RGBA()
	// 16-bit channels
	return uint8((0.299*float64(r) + 0.587*float64(g) + 0.114*float64(b)) / 256)
}

// PreviewMonochrome turns packed bitmap data back into a viewable image.
func PreviewMonochrome(data []byte, widthBytes, height int) *image.Gray {
	width := widthBytes * 8
	img := image.NewGray(image.Rect(0, 0, width, height))

	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			bit := (data[y*widthBytes+x/8] >> (7 - x%8)) & 1
			if bit == 1 {
				img.SetGray(x, y, color.Gray{0})
			} else {
				img.SetGray(x, y, color.Gray{255})
			}
		}
	}

	return img
}
