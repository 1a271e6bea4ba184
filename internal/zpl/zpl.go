// Package zpl builds ZPL II label formats.
package zpl

import (
	"encoding/hex"
	"fmt"
	"strings"
)

// Command builds a ZPL II label format.
type Command struct {
	buf strings.Builder
}

func New() *Command {
	return &Command{}
}

// Start opens a label format (^XA).
func (c *Command) Start() *Command {
	c.buf.WriteString("^XA\n")
	return c
}

// PrintWidth sets the print width in dots (^PW).
func (c *Command) PrintWidth(dots int) *Command {
	fmt.Fprintf(&c.buf, "^PW%d\n", dots)
	return c
}

// LabelLength sets the label length in dots (^LL).
func (c *Command) LabelLength(dots int) *Command {
	fmt.Fprintf(&c.buf, "^LL%d\n", dots)
	return c
}

// FieldOrigin positions the next field (^FO).
func (c *Command) FieldOrigin(x, y int) *Command {
	fmt.Fprintf(&c.buf, "^FO%d,%d", x, y)
	return c
}

// GraphicField adds an ASCII-hex graphic field (^GFA) terminated by ^FS.
// In ZPL a set bit is a black dot.
func (c *Command) GraphicField(widthBytes int, data []byte) *Command {
	fmt.Fprintf(&c.buf, "^GFA,%d,%d,%d,", len(data), len(data), widthBytes)
	c.buf.WriteString(strings.ToUpper(hex.EncodeToString(data)))
	c.buf.WriteString("^FS\n")
	return c
}

// Quantity sets the number of labels to print (^PQ).
func (c *Command) Quantity(n int) *Command {
	fmt.Fprintf(&c.buf, "^PQ%d\n", n)
	return c
}

// End closes the label format (^XZ).
func (c *Command) End() *Command {
	c.buf.WriteString("^XZ\n")
	return c
}

// Bytes returns the raw command bytes to send to printer
func (c *Command) Bytes() []byte {
	return []byte(c.buf.String())
}

func (c *Command) String() string {
	return c.buf.String()
}

// BuildImageLabel places a packed bitmap at x, y on a label long enough to hold it.
func BuildImageLabel(x, y, widthBytes, height int, data []byte) []byte {
	return New().
		Start().
		LabelLength(y + height).
		FieldOrigin(x, y).
		GraphicField(widthBytes, data).
		End().
		Bytes()
}
