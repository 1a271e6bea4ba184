package pairing

import (
	"context"
	"fmt"
	"image"
	"io"

	"tagprint/internal/imaging"
	"tagprint/internal/printer"
)

// Content writes a print job to an open connection. Errors wrapping
// ErrContentUnavailable mean nothing was written.
type Content interface {
	Write(ctx context.Context, conn io.ReadWriter) error
}

// TextContent prints a phrase as raw text with blank lines around it.
type TextContent struct {
	Phrase string
}

// PadPhrase surrounds phrase with the feed lines and indent the printer
// needs to put it in the middle of a label.
func PadPhrase(phrase string) []byte {
	return []byte("\n\n\n\n\n  " + phrase + "   \n\n\n\n\n")
}

func (c TextContent) Write(_ context.Context, conn io.ReadWriter) error {
	if _, err := conn.Write(PadPhrase(c.Phrase)); err != nil {
		return fmt.Errorf("write phrase: %w", err)
	}
	return nil
}

// Renderer turns an HTML document into an image.
type Renderer interface {
	Render(ctx context.Context, html string) (image.Image, error)
}

const (
	DefaultPadding = 20
	DefaultYOffset = 100
	// DefaultWidthSetting is the SGD variable reporting the head width in dots.
	DefaultWidthSetting = "ezpl.print_width"
)

// ImageContent renders HTML and prints it scaled to the printer's width.
type ImageContent struct {
	Renderer     Renderer
	HTML         string
	Language     string // zpl or tspl
	WidthSetting string
	Padding      int
	YOffset      int
	Printer      printer.PrinterOptions
}

func NewImageContent(r Renderer, html string) ImageContent {
	return ImageContent{
		Renderer:     r,
		HTML:         html,
		Language:     "zpl",
		WidthSetting: DefaultWidthSetting,
		Padding:      DefaultPadding,
		YOffset:      DefaultYOffset,
	}
}

func (c ImageContent) Write(ctx context.Context, conn io.ReadWriter) error {
	width := printer.PrintWidth(conn, c.WidthSetting)

	img, err := c.Renderer.Render(ctx, c.HTML)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrContentUnavailable, err)
	}
	if img == nil || img.Bounds().Empty() {
		return ErrContentUnavailable
	}

	scale := imaging.ScaleFactor(width, c.Padding, img.Bounds().Dx())
	if w, h := imaging.ScaledSize(img.Bounds().Dx(), img.Bounds().Dy(), scale); w < 1 || h < 1 {
		return fmt.Errorf("%w: scaled bitmap is %dx%d", ErrContentUnavailable, w, h)
	}
	scaled := imaging.Scale(img, scale)

	p, err := printer.NewImagePrinter(c.Language, conn, c.Printer)
	if err != nil {
		return err
	}
	return p.PrintImage(ctx, scaled, c.Padding, c.YOffset, -1, -1)
}
