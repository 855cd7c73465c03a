// Copyright 2025 The lcd1602 Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

// Package lcdterm emulates an HD44780 character module behind a PCF8574
// backpack and renders it to a terminal using ANSI color codes.
//
// It implements i2c.Bus, so code written for the real backpack can be
// pointed at it unchanged. Useful while you are waiting for the actual
// display to come by mail, and as a protocol decoder in tests: it
// samples the expander byte on the enable falling edge, reassembles the
// two nibbles of each transfer and executes the result against a
// modeled controller (DDRAM, CGRAM, address counter, display control).
package lcdterm

import (
	"bytes"
	"fmt"
	"image/color"
	"io"
	"sync"

	"github.com/maruel/ansi256"
	"github.com/mattn/go-colorable"
	"periph.io/x/conn/v3/i2c"
	"periph.io/x/conn/v3/physic"
)

// Expander wiring of the common PCF8574 backpack.
const (
	rsBit        = 0
	rwBit        = 1
	enBit        = 2
	backlightBit = 3
)

// rowSpan is the DDRAM span of one logical line; the address counter
// wraps within it.
const rowSpan = 40

// Opts represents the options available for the emulated display.
type Opts struct {
	// Geometry, 16x2 when zero.
	Rows int
	Cols int
	// Addr restricts the bus address the emulator answers on. Zero
	// accepts any address.
	Addr uint16
	// Palette used for the rendered frame. ansi256.Default when nil.
	Palette *ansi256.Palette
	// W is the render target. Colorable stdout when nil.
	W io.Writer
}

// Dev is an emulated HD44780 module with its backpack.
type Dev struct {
	mu      sync.Mutex
	rows    int
	cols    int
	addr    uint16
	palette ansi256.Palette
	w       io.Writer
	buf     bytes.Buffer

	ddram   [0x80]byte
	cgram   [0x40]byte
	ac      byte // shared DDRAM/CGRAM address counter
	cgMode  bool // address counter targets CGRAM
	offset  int  // display shift, columns
	fourBit bool
	twoLine bool

	display   bool
	cursor    bool
	blink     bool
	increment bool
	backlight bool

	prevEN     bool
	haveNibble bool
	nibble     byte
}

// New returns an emulated display in its power-on state: 8-bit
// interface, display off, DDRAM blank.
func New(opts *Opts) *Dev {
	o := Opts{Rows: 2, Cols: 16}
	if opts != nil {
		o = *opts
	}
	if o.Rows == 0 {
		o.Rows = 2
	}
	if o.Cols == 0 {
		o.Cols = 16
	}
	p := o.Palette
	if p == nil {
		p = ansi256.Default
	}
	w := o.W
	if w == nil {
		w = colorable.NewColorableStdout()
	}
	d := &Dev{
		rows:      o.Rows,
		cols:      o.Cols,
		addr:      o.Addr,
		palette:   *p,
		w:         w,
		increment: true,
	}
	d.blank()
	return d
}

func (d *Dev) String() string {
	return fmt.Sprintf("lcdterm(%dx%d)", d.cols, d.rows)
}

// SetSpeed implements i2c.Bus. The emulator has no timing of its own.
func (d *Dev) SetSpeed(f physic.Frequency) error {
	return nil
}

// Tx implements i2c.Bus. Only writes are supported; the backpack's R/W
// line is tied low on real hardware, so a read is a caller bug.
func (d *Dev) Tx(addr uint16, w, r []byte) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if len(r) != 0 {
		return fmt.Errorf("lcdterm: reads are not supported")
	}
	if d.addr != 0 && addr != d.addr {
		return fmt.Errorf("lcdterm: unexpected address %#x", addr)
	}
	for _, b := range w {
		d.expander(b)
	}
	return nil
}

// expander processes one byte as the PCF8574 would present it to the
// controller pins.
func (d *Dev) expander(b byte) {
	en := b&(1<<enBit) != 0
	d.backlight = b&(1<<backlightBit) != 0
	if d.prevEN && !en {
		// The controller latches D4-D7 and RS on the falling edge.
		d.latch(b>>4, b&(1<<rsBit) != 0)
	}
	d.prevEN = en
}

func (d *Dev) latch(nibble byte, rs bool) {
	if !d.fourBit {
		// In 8-bit mode only D4-D7 are connected, so the controller
		// sees the nibble as the instruction's high half.
		d.execute(nibble<<4, rs)
		return
	}
	if !d.haveNibble {
		d.nibble = nibble
		d.haveNibble = true
		return
	}
	d.haveNibble = false
	d.execute(d.nibble<<4|nibble, rs)
}

func (d *Dev) execute(value byte, rs bool) {
	if rs {
		d.writeRAM(value)
		return
	}
	switch {
	case value&0x80 != 0: // set DDRAM address
		d.cgMode = false
		d.ac = value & 0x7f
	case value&0x40 != 0: // set CGRAM address
		d.cgMode = true
		d.ac = value & 0x3f
	case value&0x20 != 0: // function set
		d.fourBit = value&0x10 == 0
		d.twoLine = value&0x08 != 0
	case value&0x10 != 0: // cursor or display shift
		if value&0x08 != 0 {
			if value&0x04 != 0 {
				d.offset = (d.offset + rowSpan - 1) % rowSpan
			} else {
				d.offset = (d.offset + 1) % rowSpan
			}
		} else if value&0x04 != 0 {
			d.ac++
		} else {
			d.ac--
		}
	case value&0x08 != 0: // display control
		d.display = value&0x04 != 0
		d.cursor = value&0x02 != 0
		d.blink = value&0x01 != 0
	case value&0x04 != 0: // entry mode set
		d.increment = value&0x02 != 0
	case value == 0x02: // return home
		d.cgMode = false
		d.ac = 0
		d.offset = 0
	case value == 0x01: // clear display
		d.blank()
		d.cgMode = false
		d.ac = 0
		d.offset = 0
		d.increment = true
	}
}

func (d *Dev) writeRAM(b byte) {
	if d.cgMode {
		d.cgram[d.ac&0x3f] = b & 0x1f
	} else {
		d.ddram[d.ac&0x7f] = b
	}
	if d.increment {
		d.ac++
	} else {
		d.ac--
	}
}

func (d *Dev) blank() {
	for i := range d.ddram {
		d.ddram[i] = ' '
	}
}

func (d *Dev) rowBase(row int) byte {
	bases := [4]byte{0x00, 0x40, byte(d.cols), byte(0x40 + d.cols)}
	return bases[row]
}

// Screen returns the visible rows as raw strings, display shift
// applied. Bytes 0-7 are user glyph codes, everything else follows the
// controller's ROM font (ASCII for the usual range).
func (d *Dev) Screen() []string {
	d.mu.Lock()
	defer d.mu.Unlock()
	rows := make([]string, d.rows)
	for r := range rows {
		buf := make([]byte, d.cols)
		for c := 0; c < d.cols; c++ {
			buf[c] = d.ddram[(d.rowBase(r)+byte((c+d.offset)%rowSpan))&0x7f]
		}
		rows[r] = string(buf)
	}
	return rows
}

// Glyph returns the 5x8 bitmap programmed into a CGRAM slot.
func (d *Dev) Glyph(slot int) [8]byte {
	d.mu.Lock()
	defer d.mu.Unlock()
	var g [8]byte
	copy(g[:], d.cgram[(slot&7)*8:])
	return g
}

// Backlight reports whether the backpack LED bit is set.
func (d *Dev) Backlight() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.backlight
}

// Control reports the decoded display-control flags.
func (d *Dev) Control() (display, cursor, blink bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.display, d.cursor, d.blink
}

// Halt implements conn.Resource. It resets the terminal colors so the
// output is not corrupted.
func (d *Dev) Halt() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	_, err := d.w.Write([]byte("\n\033[0m"))
	return err
}

var (
	litEdge  = color.NRGBA{0xff, 0xd7, 0x00, 0xff}
	darkEdge = color.NRGBA{0x30, 0x30, 0x30, 0xff}
)

// Render draws the current screen to the configured writer, one line
// per display row, framed by blocks colored after the backlight state.
// A display that is switched off renders as blanks.
func (d *Dev) Render() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	edgeColor := darkEdge
	if d.backlight {
		edgeColor = litEdge
	}
	edge := d.palette.Block(edgeColor)
	d.buf.Reset()
	for r := 0; r < d.rows; r++ {
		d.buf.WriteString(edge)
		for c := 0; c < d.cols; c++ {
			b := d.ddram[(d.rowBase(r)+byte((c+d.offset)%rowSpan))&0x7f]
			if !d.display {
				b = ' '
			} else if b < 0x20 {
				// User glyph slot; no bitmap rendering on a terminal.
				b = '#'
			}
			d.buf.WriteByte(b)
		}
		d.buf.WriteString(edge)
		d.buf.WriteString("\033[0m\n")
	}
	_, err := d.buf.WriteTo(d.w)
	return err
}

var _ i2c.Bus = &Dev{}
