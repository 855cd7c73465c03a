// Copyright 2025 The lcd1602 Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package lcd1602

import (
	"fmt"
	"time"

	"periph.io/x/conn/v3"
	"periph.io/x/conn/v3/display"
	"periph.io/x/conn/v3/i2c"
)

// DefaultAddress is the factory address of PCF8574 backpacks. Boards
// with the A0-A2 jumpers closed answer on 0x20-0x26 instead.
const DefaultAddress uint16 = 0x27

// DefaultOpts is the recommended default options: a 16x2 module on the
// stock backpack.
var DefaultOpts = Opts{
	Addr:   DefaultAddress,
	Rows:   2,
	Cols:   16,
	PinMap: PCF8574PinMap,
}

// Opts defines the options for the device.
type Opts struct {
	// The I²C address of the backpack. DefaultAddress when zero.
	Addr uint16
	// Display geometry. Supported row counts are 1, 2 and 4; columns
	// are limited by the 80 byte DDRAM (40 for 1-2 rows, 20 for 4).
	Rows int
	Cols int
	// Expander wiring. PCF8574PinMap when left zero.
	PinMap PinMap
}

// flags is the composite controller state. It is recomputed into a
// single display-control or entry-mode instruction whenever one flag
// changes; the controller packs them the same way.
type flags struct {
	display   bool
	cursor    bool
	blink     bool
	backlight bool
	increment bool
	shift     bool
}

func (f flags) displayControl() byte {
	cmd := cmdDisplayControl
	if f.display {
		cmd |= displayOn
	}
	if f.cursor {
		cmd |= cursorOn
	}
	if f.blink {
		cmd |= blinkOn
	}
	return cmd
}

func (f flags) entryMode() byte {
	cmd := cmdEntryModeSet
	if f.increment {
		cmd |= entryIncrement
	}
	if f.shift {
		cmd |= entryShiftOn
	}
	return cmd
}

// Dev is an open handle to an HD44780 behind an I²C expander backpack.
//
// Dev is not safe for concurrent use. Multi-byte operations like
// DefineGlyph assume nothing else talks to the controller in between.
type Dev struct {
	c       *i2c.Dev
	opts    Opts
	rowBase []byte
	flags   flags
	row     int
	col     int
}

// New returns a Dev bound to the backpack at opts.Addr. It validates
// the geometry but does not touch the bus; call Init to bring the
// controller up.
func New(bus i2c.Bus, opts *Opts) (*Dev, error) {
	if opts == nil {
		opts = &DefaultOpts
	}
	o := *opts
	if o.Addr == 0 {
		o.Addr = DefaultAddress
	}
	if (o.PinMap == PinMap{}) {
		o.PinMap = PCF8574PinMap
	}
	switch o.Rows {
	case 1, 2, 4:
	default:
		return nil, fmt.Errorf("%w: %d rows", ErrInvalidGeometry, o.Rows)
	}
	maxCols := 40
	if o.Rows == 4 {
		// Rows 2 and 3 share the DDRAM segments of rows 0 and 1.
		maxCols = 20
	}
	if o.Cols < 1 || o.Cols > maxCols {
		return nil, fmt.Errorf("%w: %d columns with %d rows", ErrInvalidGeometry, o.Cols, o.Rows)
	}
	return &Dev{
		c:       &i2c.Dev{Bus: bus, Addr: o.Addr},
		opts:    o,
		rowBase: rowOffsets(o.Rows, o.Cols),
		flags:   flags{increment: true},
	}, nil
}

// Init runs the controller power-on sequence and leaves the display in
// a known state: 4-bit interface, 5x8 font, display on, cursor and
// blink off, backlight on, left-to-right entry without shift.
//
// The power-on state of the controller is unspecified; it may be
// half-way through an 8-bit transfer. The sequence therefore forces an
// 8-bit reset three times before switching to 4-bit mode. It is not
// resumable: Init always starts from scratch, and after a failure the
// only recovery is calling Init again.
func (d *Dev) Init() error {
	d.flags = flags{increment: true, backlight: d.flags.backlight}
	d.row, d.col = 0, 0

	time.Sleep(powerOnDelay)
	// Settle the expander outputs, dropping any stuck enable line.
	if err := d.expanderWrite(d.frame(0, false)); err != nil {
		return &InitError{Cause: err}
	}
	for i := 0; i < 3; i++ {
		if err := d.writeNibble(0x03, false); err != nil {
			return &InitError{Cause: err}
		}
		time.Sleep(resetDelay)
	}
	// Now reliably in 8-bit mode; this single nibble switches to 4-bit.
	if err := d.writeNibble(0x02, false); err != nil {
		return &InitError{Cause: err}
	}
	time.Sleep(writeDelay)

	fn := cmdFunctionSet
	if d.opts.Rows > 1 {
		fn |= twoLine
	}
	for _, cmd := range []byte{
		fn,
		d.flags.displayControl(), // display off while clearing
		cmdClearDisplay,
		d.flags.entryMode(),
	} {
		if err := d.command(cmd); err != nil {
			return &InitError{Cause: err}
		}
	}

	d.flags.display = true
	if err := d.command(d.flags.displayControl()); err != nil {
		return &InitError{Cause: err}
	}
	d.flags.backlight = true
	if err := d.expanderWrite(1 << d.opts.PinMap.Backlight); err != nil {
		return &InitError{Cause: err}
	}
	return nil
}

// Clear clears the display and moves the cursor to (0, 0).
func (d *Dev) Clear() error {
	if err := d.command(cmdClearDisplay); err != nil {
		return wrap(err)
	}
	d.row, d.col = 0, 0
	return nil
}

// Home moves the cursor to (0, 0) and undoes any display shift. It uses
// the dedicated return-home instruction, which is cheaper than a DDRAM
// address computation for this common case.
func (d *Dev) Home() error {
	if err := d.command(cmdReturnHome); err != nil {
		return wrap(err)
	}
	d.row, d.col = 0, 0
	return nil
}

// ddramAddr maps a 0-based logical position to its DDRAM address.
func (d *Dev) ddramAddr(row, col int) byte {
	return d.rowBase[row] + byte(col)
}

// SetCursor moves the cursor to the 0-based position (row, col).
// Out of range positions are rejected with ErrInvalidPosition.
func (d *Dev) SetCursor(row, col int) error {
	if row < 0 || row >= d.opts.Rows || col < 0 || col >= d.opts.Cols {
		return fmt.Errorf("%w: (%d, %d) on a %dx%d display",
			ErrInvalidPosition, row, col, d.opts.Cols, d.opts.Rows)
	}
	if err := d.command(cmdSetDDRAMAddr | d.ddramAddr(row, col)); err != nil {
		return wrap(err)
	}
	d.row, d.col = row, col
	return nil
}

// Position returns the tracked 0-based cursor position.
func (d *Dev) Position() (row, col int) {
	return d.row, d.col
}

// NextLine moves the cursor to column 0 of the next row, wrapping back
// to row 0 after the last one.
func (d *Dev) NextLine() error {
	if d.opts.Rows == 1 {
		return fmt.Errorf("%w: next line on a single row display", ErrInvalidPosition)
	}
	row := d.row + 1
	if row >= d.opts.Rows {
		row = 0
	}
	return d.SetCursor(row, 0)
}

// Display turns the display on or off. The DDRAM contents are kept.
func (d *Dev) Display(on bool) error {
	f := d.flags
	f.display = on
	return d.applyDisplayControl(f)
}

// CursorVisible shows or hides the underline cursor.
func (d *Dev) CursorVisible(on bool) error {
	f := d.flags
	f.cursor = on
	return d.applyDisplayControl(f)
}

// Blink turns cursor blinking on or off.
func (d *Dev) Blink(on bool) error {
	f := d.flags
	f.blink = on
	return d.applyDisplayControl(f)
}

func (d *Dev) applyDisplayControl(f flags) error {
	if err := d.command(f.displayControl()); err != nil {
		return wrap(err)
	}
	d.flags = f
	return nil
}

func (d *Dev) applyEntryMode(f flags) error {
	if err := d.command(f.entryMode()); err != nil {
		return wrap(err)
	}
	d.flags = f
	return nil
}

// Backlight turns the display backlight on (any non-zero intensity) or
// off. The LED is switched by the expander, not the controller, so this
// issues one raw expander write; every later transmission carries the
// bit along.
func (d *Dev) Backlight(intensity display.Intensity) error {
	f := d.flags
	f.backlight = intensity > 0
	var b byte
	if f.backlight {
		b = 1 << d.opts.PinMap.Backlight
	}
	if err := d.expanderWrite(b); err != nil {
		return wrap(err)
	}
	d.flags = f
	return nil
}

// Cursor sets the cursor mode. You can pass multiple arguments:
// Cursor(CursorUnderline, CursorBlink). Implements display.TextDisplay.
func (d *Dev) Cursor(modes ...display.CursorMode) error {
	f := d.flags
	for _, mode := range modes {
		switch mode {
		case display.CursorOff:
			f.cursor = false
			f.blink = false
		case display.CursorUnderline:
			f.cursor = true
		case display.CursorBlink, display.CursorBlock:
			f.blink = true
		default:
			return fmt.Errorf("%s: unexpected cursor mode %d", packageName, mode)
		}
	}
	return d.applyDisplayControl(f)
}

// AutoScroll enables or disables display shift on entry: with it on,
// the display scrolls to keep the cursor in place as characters are
// written.
func (d *Dev) AutoScroll(enabled bool) error {
	f := d.flags
	f.shift = enabled
	return d.applyEntryMode(f)
}

// LeftToRight makes writes advance the cursor to the right (default).
func (d *Dev) LeftToRight() error {
	f := d.flags
	f.increment = true
	return d.applyEntryMode(f)
}

// RightToLeft makes writes advance the cursor to the left.
func (d *Dev) RightToLeft() error {
	f := d.flags
	f.increment = false
	return d.applyEntryMode(f)
}

// ScrollLeft shifts the whole display contents one position left.
func (d *Dev) ScrollLeft() error {
	return wrap(d.command(cmdCursorShift | shiftDisplay))
}

// ScrollRight shifts the whole display contents one position right.
func (d *Dev) ScrollRight() error {
	return wrap(d.command(cmdCursorShift | shiftDisplay | shiftRight))
}

// Move steps the cursor forward or backward without writing.
// Up and Down are not supported by the controller.
func (d *Dev) Move(dir display.CursorDirection) error {
	cmd := cmdCursorShift
	switch dir {
	case display.Backward:
	case display.Forward:
		cmd |= shiftRight
	default:
		return ErrNotImplemented
	}
	if err := d.command(cmd); err != nil {
		return wrap(err)
	}
	if dir == display.Forward {
		d.advanceCursor()
	} else if d.col > 0 {
		d.col--
	}
	return nil
}

// Write sends each byte as a character at the current cursor position.
// This is raw mode: the bytes go straight to DDRAM and the controller
// pointer auto-increments, so where it lands past the end of a row is
// controller defined. The tracked position continues on the next row.
// Implements io.Writer.
func (d *Dev) Write(p []byte) (int, error) {
	for i, b := range p {
		if err := d.data(b); err != nil {
			return i, wrap(err)
		}
		d.advanceCursor()
	}
	return len(p), nil
}

// WriteString writes text at the current cursor position.
// Implements io.StringWriter.
func (d *Dev) WriteString(text string) (int, error) {
	return d.Write([]byte(text))
}

// WriteWrapped lays text out in rows of at most Cols characters, moving
// the cursor to column 0 of a new row before each segment. Text longer
// than the display wraps back to row 0 and overwrites what is there
// (segment i lands on row i mod Rows).
func (d *Dev) WriteWrapped(text string) error {
	b := []byte(text)
	for seg := 0; len(b) > 0; seg++ {
		n := min(len(b), d.opts.Cols)
		if err := d.SetCursor(seg%d.opts.Rows, 0); err != nil {
			return err
		}
		if _, err := d.Write(b[:n]); err != nil {
			return err
		}
		b = b[n:]
	}
	return nil
}

// advanceCursor tracks the DDRAM auto-increment after one character.
func (d *Dev) advanceCursor() {
	d.col++
	if d.col >= d.opts.Cols {
		d.col = 0
		d.row++
		if d.row >= d.opts.Rows {
			d.row = 0
		}
	}
}

// MoveTo moves the cursor to the given position. Row and column are
// 1-based, per display.TextDisplay; SetCursor is the 0-based
// equivalent.
func (d *Dev) MoveTo(row, col int) error {
	if row < d.MinRow() || row > d.opts.Rows || col < d.MinCol() || col > d.opts.Cols {
		return fmt.Errorf("%w: MoveTo(%d, %d)", ErrInvalidPosition, row, col)
	}
	return d.SetCursor(row-1, col-1)
}

// Rows returns the number of rows the display supports.
func (d *Dev) Rows() int {
	return d.opts.Rows
}

// Cols returns the number of columns the display supports.
func (d *Dev) Cols() int {
	return d.opts.Cols
}

// MinRow returns the minimum row position for MoveTo.
func (d *Dev) MinRow() int {
	return 1
}

// MinCol returns the minimum column position for MoveTo.
func (d *Dev) MinCol() int {
	return 1
}

func (d *Dev) String() string {
	return fmt.Sprintf("%s: %dx%d at %#x", packageName, d.opts.Cols, d.opts.Rows, d.opts.Addr)
}

// Halt clears the display and turns the backlight and display off.
func (d *Dev) Halt() error {
	_ = d.Clear()
	_ = d.Backlight(0)
	return d.Display(false)
}

var _ display.TextDisplay = &Dev{}
var _ display.DisplayBacklight = &Dev{}
var _ conn.Resource = &Dev{}
