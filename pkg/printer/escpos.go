package printer

import (
	"bytes"
	"fmt"
	"strings"
)

const (
	esc = 0x1B
	gs  = 0x1D
	lf  = 0x0A
)

// Alignment values for Document.Align.
const (
	AlignLeft   byte = 0
	AlignCenter byte = 1
	AlignRight  byte = 2
)

// Character sizes for Document.Size.
const (
	SizeNormal byte = 0x00
	SizeDouble byte = 0x11
)

// Document accumulates an ESC/POS byte stream. Width is in characters: 32 for 58mm
// paper, 48 for 80mm.
type Document struct {
	buf   bytes.Buffer
	width int
}

func NewDocument(width int) *Document {
	if width <= 0 {
		width = 32
	}
	d := &Document{width: width}
	d.buf.Write([]byte{esc, '@'})
	return d
}

func (d *Document) Align(a byte) *Document {
	d.buf.Write([]byte{esc, 'a', a})
	return d
}

func (d *Document) Bold(on bool) *Document {
	var b byte
	if on {
		b = 1
	}
	d.buf.Write([]byte{esc, 'E', b})
	return d
}

func (d *Document) Size(s byte) *Document {
	d.buf.Write([]byte{gs, '!', s})
	return d
}

func (d *Document) Line(s string) *Document {
	d.buf.WriteString(s)
	d.buf.WriteByte(lf)
	return d
}

func (d *Document) Linef(format string, args ...interface{}) *Document {
	return d.Line(fmt.Sprintf(format, args...))
}

// Rule prints a full-width line of c.
func (d *Document) Rule(c byte) *Document {
	return d.Line(strings.Repeat(string(c), d.width))
}

// Columns prints left and right on one line, padded to the document width.
func (d *Document) Columns(left, right string) *Document {
	pad := d.width - len(left) - len(right)
	if pad < 1 {
		pad = 1
	}
	return d.Line(left + strings.Repeat(" ", pad) + right)
}

func (d *Document) Feed(n int) *Document {
	for i := 0; i < n; i++ {
		d.buf.WriteByte(lf)
	}
	return d
}

// Cut feeds and issues a partial cut.
func (d *Document) Cut() *Document {
	d.buf.Write([]byte{gs, 'V', 0x01})
	return d
}

func (d *Document) Bytes() []byte {
	return d.buf.Bytes()
}
