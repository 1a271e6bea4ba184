package printer

import (
	"context"
	"fmt"
	"image"
	"io"
	"time"

	"tagprint/internal/imaging"
	"tagprint/internal/tspl"
	"tagprint/internal/zpl"
)

// ImagePrinter prints a raster image. x and y offset the image in dots;
// width and height resize it, with -1 meaning "keep the image's own size"
// (when only one is given the aspect ratio is preserved).
type ImagePrinter interface {
	PrintImage(ctx context.Context, img image.Image, x, y, width, height int) error
}

// PrinterOptions configure the rasterization of images.
type PrinterOptions struct {
	Threshold uint8 // luminance below which a pixel is printed, default 128
	Density   int   // TSPL darkness 0-15
}

// NewImagePrinter returns the printer for a command language (zpl or tspl).
func NewImagePrinter(language string, w io.Writer, opts PrinterOptions) (ImagePrinter, error) {
	if opts.Threshold == 0 {
		opts.Threshold = 128
	}
	switch language {
	case "zpl", "":
		return &ZebraPrinter{w: w, opts: opts}, nil
	case "tspl":
		return &LabelPrinter{w: w, opts: opts}, nil
	default:
		return nil, fmt.Errorf("unsupported printer language %q", language)
	}
}

// unpauseDelay is how long a TSPL printer needs after ESC !o.
const unpauseDelay = 100 * time.Millisecond

// ZebraPrinter prints images as ZPL graphic fields.
type ZebraPrinter struct {
	w    io.Writer
	opts PrinterOptions
}

func (p *ZebraPrinter) PrintImage(ctx context.Context, img image.Image, x, y, width, height int) error {
	img = fit(img, width, height)
	widthBytes, data := imaging.ToMonochrome(img, p.opts.Threshold, false)

	label := zpl.BuildImageLabel(x, y, widthBytes, img.Bounds().Dy(), data)
	if _, err := p.w.Write(label); err != nil {
		return fmt.Errorf("print failed: %w", err)
	}
	return nil
}

// LabelPrinter prints images with TSPL BITMAP commands.
type LabelPrinter struct {
	w    io.Writer
	opts PrinterOptions
}

func (p *LabelPrinter) PrintImage(ctx context.Context, img image.Image, x, y, width, height int) error {
	img = fit(img, width, height)
	// TSPL treats a set bit as white
	widthBytes, data := imaging.ToMonochrome(img, p.opts.Threshold, true)

	// cancel any pause state first
	if _, err := p.w.Write([]byte("\x1b!o")); err != nil {
		return fmt.Errorf("print failed: %w", err)
	}
	t := time.NewTimer(unpauseDelay)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
	}

	job := tspl.BuildImageJob(tspl.Job{
		X:          x,
		Y:          y,
		WidthBytes: widthBytes,
		Height:     img.Bounds().Dy(),
		Bitmap:     data,
		Density:    p.opts.Density,
	})
	if _, err := p.w.Write(job); err != nil {
		return fmt.Errorf("print failed: %w", err)
	}
	return nil
}

// fit applies the width/height sentinels of PrintImage.
func fit(img image.Image, width, height int) image.Image {
	b := img.Bounds()
	switch {
	case width <= 0 && height <= 0:
		return img
	case height <= 0:
		return imaging.Scale(img, float64(width)/float64(b.Dx()))
	case width <= 0:
		return imaging.Scale(img, float64(height)/float64(b.Dy()))
	default:
		return imaging.Resize(img, width, height)
	}
}
