package imaging

import (
	"image"
	"image/color"
	"image/draw"
	"strings"

	"github.com/golang/freetype"
	"github.com/golang/freetype/truetype"
	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/gomono"
	"golang.org/x/image/math/fixed"
)

// PrinterDPI is the resolution of 8 dots/mm thermal heads.
const PrinterDPI = 203

// RenderText draws text the way a line printer would emit it: a monospace
// face, one output line per input line, long lines wrapped at word
// boundaries. The image is width pixels wide and as tall as the text needs.
func RenderText(text string, width int, fontSize float64) (image.Image, error) {
	f, err := truetype.Parse(gomono.TTF)
	if err != nil {
		return nil, err
	}

	face := truetype.NewFace(f, &truetype.Options{Size: fontSize, DPI: PrinterDPI})
	defer face.Close()
	metrics := face.Metrics()
	lineHeight := metrics.Height.Ceil()

	lines := wrapWords(text, face, width)
	height := len(lines) * lineHeight
	if height == 0 {
		height = lineHeight
	}

	img := image.NewRGBA(image.Rect(0, 0, width, height))
	draw.Draw(img, img.Bounds(), &image.Uniform{color.White}, image.Point{}, draw.Src)

	c := freetype.NewContext()
	c.SetDPI(PrinterDPI)
	c.SetFont(f)
	c.SetFontSize(fontSize)
	c.SetClip(img.Bounds())
	c.SetDst(img)
	c.SetSrc(&image.Uniform{color.Black})
	c.SetHinting(font.HintingFull)

	y := metrics.Ascent.Ceil()
	for _, line := range lines {
		if _, err := c.DrawString(line, freetype.Pt(0, y)); err != nil {
			return nil, err
		}
		y += lineHeight
	}

	return img, nil
}

// wrapWords splits text into lines no wider than maxWidth, breaking on spaces.
// Blank lines are kept since leading and trailing feed lines are significant.
func wrapWords(text string, face font.Face, maxWidth int) []string {
	var lines []string

	for _, para := range strings.Split(text, "\n") {
		words := strings.Fields(para)
		if len(words) == 0 {
			lines = append(lines, "")
			continue
		}

		current := ""
		for _, word := range words {
			candidate := word
			if current != "" {
				candidate = current + " " + word
			}
			if measureString(face, candidate) <= maxWidth {
				current = candidate
				continue
			}
			if current != "" {
				lines = append(lines, current)
			}
			current = breakLongWord(word, face, maxWidth, &lines)
		}
		lines = append(lines, current)
	}

	return lines
}

// breakLongWord emits full-width chunks of word and returns the remainder.
func breakLongWord(word string, face font.Face, maxWidth int, lines *[]string) string {
	var part string
	for _, r := range word {
		next := part + string(r)
		if measureString(face, next) > maxWidth && part != "" {
			*lines = append(*lines, part)
			part = string(r)
		} else {
			part = next
		}
	}
	return part
}

// measureString returns the width of a string in pixels
func measureString(face font.Face, s string) int {
	var width fixed.Int26_6
	for _, r := range s {
		if adv, ok := face.GlyphAdvance(r); ok {
			width += adv
		}
	}
	return width.Ceil()
}
