package tspl

import (
	"fmt"
	"strings"
)

// DotsPerMM is the resolution of 203 dpi heads.
const DotsPerMM = 8.0

// Command builds TSPL2 commands
type Command struct {
	buf strings.Builder
}

func New() *Command {
	return &Command{}
}

// Size sets label dimensions
func (c *Command) Size(width, height float64) *Command {
	fmt.Fprintf(&c.buf, "SIZE %.1f mm,%.1f mm\r\n", width, height)
	return c
}

// Gap sets gap between labels
func (c *Command) Gap(gap, offset float64) *Command {
	fmt.Fprintf(&c.buf, "GAP %.1f mm,%.1f mm\r\n", gap, offset)
	return c
}

// Direction sets print direction (0 or 1)
func (c *Command) Direction(dir, mirror int) *Command {
	fmt.Fprintf(&c.buf, "DIRECTION %d,%d\r\n", dir, mirror)
	return c
}

// Density sets print darkness, clamped to 0-15
func (c *Command) Density(level int) *Command {
	level = max(0, min(level, 15))
	fmt.Fprintf(&c.buf, "DENSITY %d\r\n", level)
	return c
}

// CLS clears the image buffer
func (c *Command) CLS() *Command {
	c.buf.WriteString("CLS\r\n")
	return c
}

// Bitmap adds a 1-bit bitmap at x, y (dots). In TSPL a set bit is white.
func (c *Command) Bitmap(x, y, widthBytes, height int, data []byte) *Command {
	fmt.Fprintf(&c.buf, "BITMAP %d,%d,%d,%d,0,", x, y, widthBytes, height)
	c.buf.Write(data)
	c.buf.WriteString("\r\n")
	return c
}

// Print prints n copies
func (c *Command) Print(copies int) *Command {
	fmt.Fprintf(&c.buf, "PRINT %d\r\n", copies)
	return c
}

// Bytes returns the raw command bytes to send to printer
func (c *Command) Bytes() []byte {
	return []byte(c.buf.String())
}

// String returns the command as a string (for debugging)
func (c *Command) String() string {
	return c.buf.String()
}

// Job describes a single-bitmap label.
type Job struct {
	X, Y       int // dots
	WidthBytes int
	Height     int // dots
	Bitmap     []byte
	Density    int
	Copies     int
}

// BuildImageJob sizes the label to fit the bitmap at its offset and prints it.
func BuildImageJob(j Job) []byte {
	copies := max(j.Copies, 1)
	widthMM := float64(j.X+j.WidthBytes*8) / DotsPerMM
	heightMM := float64(j.Y+j.Height) / DotsPerMM

	return New().
		Size(widthMM, heightMM).
		Gap(2.0, 0).
		Direction(0, 0).
		Density(j.Density).
		CLS().
		Bitmap(j.X, j.Y, j.WidthBytes, j.Height, j.Bitmap).
		Print(copies).
		Bytes()
}
