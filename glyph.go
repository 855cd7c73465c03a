// Copyright 2025 The lcd1602 Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package lcd1602

import "fmt"

// Glyph is one user-defined 5x8 character, one byte per pixel row from
// top to bottom. Only the low 5 bits of each byte are significant.
type Glyph [8]byte

// DefineGlyph programs one of the 8 CGRAM slots with a custom glyph.
// The character is shown by writing its slot number as a data byte
// (Write([]byte{0}) for slot 0).
//
// CGRAM writes move the controller's single RAM pointer, so the DDRAM
// address saved from the tracked cursor position is restored afterwards;
// the cursor is exactly where it was before the call.
func (d *Dev) DefineGlyph(slot uint8, g Glyph) error {
	if slot > 7 {
		return fmt.Errorf("%w: %d", ErrInvalidSlot, slot)
	}
	row, col := d.row, d.col
	if err := d.command(cmdSetCGRAMAddr | slot<<3); err != nil {
		return wrap(err)
	}
	for _, b := range g {
		if err := d.data(b & 0x1f); err != nil {
			return wrap(err)
		}
	}
	return wrap(d.command(cmdSetDDRAMAddr | d.ddramAddr(row, col)))
}
