// Copyright 2025 The lcd1602 Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package lcdterm

import (
	"bytes"
	"strings"
	"testing"
)

// pulse clocks one nibble into the emulated controller the way the
// backpack would: the frame with enable high, then the same frame with
// enable low.
func pulse(t *testing.T, d *Dev, nibble byte, rs bool) {
	t.Helper()
	b := nibble << 4
	if rs {
		b |= 1 << rsBit
	}
	if err := d.Tx(0x27, []byte{b | 1<<enBit, b}, nil); err != nil {
		t.Fatal(err)
	}
}

// to4Bit moves the controller out of its power-on 8-bit mode.
func to4Bit(t *testing.T, d *Dev) {
	t.Helper()
	pulse(t, d, 0x02, false)
}

func writeByte(t *testing.T, d *Dev, value byte, rs bool) {
	t.Helper()
	pulse(t, d, value>>4, rs)
	pulse(t, d, value&0x0f, rs)
}

func TestPowerOnPrologue(t *testing.T) {
	d := New(nil)
	if d.fourBit {
		t.Fatal("controller must power on in 8-bit mode")
	}
	// The standard triple forced reset executes as full instructions
	// even though only one nibble arrives per pulse.
	for i := 0; i < 3; i++ {
		pulse(t, d, 0x03, false)
		if d.fourBit {
			t.Fatalf("reset pulse %d switched to 4-bit mode", i)
		}
	}
	pulse(t, d, 0x02, false)
	if !d.fourBit {
		t.Fatal("0x2 function-set nibble must switch to 4-bit mode")
	}
	writeByte(t, d, 0x28, false)
	if !d.fourBit || !d.twoLine {
		t.Error("function set 0x28 not decoded")
	}
}

func TestDecodeText(t *testing.T) {
	d := New(nil)
	to4Bit(t, d)
	writeByte(t, d, 0x80, false) // DDRAM address 0
	for _, c := range []byte("Hi") {
		writeByte(t, d, c, true)
	}
	if got := d.Screen()[0]; !strings.HasPrefix(got, "Hi") {
		t.Errorf("row 0 = %q", got)
	}
	// Second row lives at 0x40.
	writeByte(t, d, 0xc2, false)
	writeByte(t, d, '!', true)
	if got := d.Screen()[1]; got[2] != '!' {
		t.Errorf("row 1 = %q", got)
	}
}

func TestClearAndHome(t *testing.T) {
	d := New(nil)
	to4Bit(t, d)
	writeByte(t, d, 0x85, false)
	writeByte(t, d, 'x', true)
	writeByte(t, d, 0x01, false) // clear
	if got := d.Screen()[0]; got != strings.Repeat(" ", 16) {
		t.Errorf("row 0 after clear = %q", got)
	}
	if d.ac != 0 {
		t.Errorf("address counter after clear = %#x", d.ac)
	}

	writeByte(t, d, 0x85, false)
	writeByte(t, d, 0x02, false) // home
	if d.ac != 0 || d.offset != 0 {
		t.Errorf("home left ac=%#x offset=%d", d.ac, d.offset)
	}
}

func TestEntryDecrement(t *testing.T) {
	d := New(nil)
	to4Bit(t, d)
	writeByte(t, d, 0x04, false) // entry mode: decrement
	writeByte(t, d, 0x85, false)
	writeByte(t, d, 'a', true)
	if d.ac != 4 {
		t.Errorf("ac = %#x, want 4", d.ac)
	}
}

func TestCGRAMDecode(t *testing.T) {
	d := New(nil)
	to4Bit(t, d)
	writeByte(t, d, 0x40|1<<3, false) // CGRAM slot 1
	rows := [8]byte{0x0a, 0x1f, 0x1f, 0x0e, 0x04, 0, 0, 0}
	for _, b := range rows {
		writeByte(t, d, b|0xe0, true) // high bits must be masked off
	}
	if got := d.Glyph(1); got != rows {
		t.Errorf("Glyph(1) = %v, want %v", got, rows)
	}
	// Data writes go back to DDRAM after an address set.
	writeByte(t, d, 0x80, false)
	writeByte(t, d, 'D', true)
	if d.Screen()[0][0] != 'D' {
		t.Error("DDRAM write after CGRAM mode did not land")
	}
}

func TestDisplayControlDecode(t *testing.T) {
	d := New(nil)
	to4Bit(t, d)
	writeByte(t, d, 0x0f, false)
	if on, cur, blink := d.Control(); !on || !cur || !blink {
		t.Errorf("Control() = %t, %t, %t, want all true", on, cur, blink)
	}
	writeByte(t, d, 0x08, false)
	if on, _, _ := d.Control(); on {
		t.Error("display still on after 0x08")
	}
}

func TestBacklightTracksBit(t *testing.T) {
	d := New(nil)
	if err := d.Tx(0x27, []byte{1 << backlightBit}, nil); err != nil {
		t.Fatal(err)
	}
	if !d.Backlight() {
		t.Error("backlight bit not picked up")
	}
	if err := d.Tx(0x27, []byte{0}, nil); err != nil {
		t.Fatal(err)
	}
	if d.Backlight() {
		t.Error("backlight bit not cleared")
	}
}

func TestDisplayShift(t *testing.T) {
	d := New(nil)
	to4Bit(t, d)
	writeByte(t, d, 0x80, false)
	writeByte(t, d, 'A', true)
	writeByte(t, d, 'B', true)
	writeByte(t, d, 0x18, false) // shift display left
	if got := d.Screen()[0]; got[0] != 'B' {
		t.Errorf("row 0 after left shift = %q", got)
	}
	writeByte(t, d, 0x1c, false) // and back
	if got := d.Screen()[0]; got[0] != 'A' {
		t.Errorf("row 0 after right shift = %q", got)
	}
}

func TestAddrStrict(t *testing.T) {
	d := New(&Opts{Addr: 0x27})
	if err := d.Tx(0x20, []byte{0}, nil); err == nil {
		t.Error("write to the wrong address must fail")
	}
	if err := d.Tx(0x27, []byte{0}, nil); err != nil {
		t.Errorf("write to the configured address failed: %v", err)
	}
	// Addr 0 accepts anything.
	any := New(nil)
	if err := any.Tx(0x3f, []byte{0}, nil); err != nil {
		t.Errorf("wildcard address rejected a write: %v", err)
	}
}

func TestReadRejected(t *testing.T) {
	d := New(nil)
	if err := d.Tx(0x27, nil, make([]byte, 1)); err == nil {
		t.Error("reads must be rejected")
	}
}

func TestRender(t *testing.T) {
	var buf bytes.Buffer
	d := New(&Opts{W: &buf})
	to4Bit(t, d)
	writeByte(t, d, 0x0c, false) // display on
	writeByte(t, d, 0x80, false)
	for _, c := range []byte("Go") {
		writeByte(t, d, c, true)
	}
	if err := d.Render(); err != nil {
		t.Fatal(err)
	}
	out := buf.String()
	if !strings.Contains(out, "Go") {
		t.Errorf("render output %q misses the text", out)
	}
	if !strings.Contains(out, "\033[") {
		t.Error("render output carries no color codes")
	}

	// A display that is off renders blank.
	buf.Reset()
	writeByte(t, d, 0x08, false)
	if err := d.Render(); err != nil {
		t.Fatal(err)
	}
	if strings.Contains(buf.String(), "Go") {
		t.Error("text still rendered with the display off")
	}

	if err := d.Halt(); err != nil {
		t.Fatal(err)
	}
}

func TestSetSpeedAndString(t *testing.T) {
	d := New(nil)
	if err := d.SetSpeed(0); err != nil {
		t.Fatal(err)
	}
	if got := d.String(); got != "lcdterm(16x2)" {
		t.Errorf("String() = %q", got)
	}
}
