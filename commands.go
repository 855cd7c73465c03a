// Copyright 2025 The lcd1602 Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package lcd1602

import "time"

// HD44780 instruction set. An instruction byte is one of the command
// bases below with its flag bits ORed in.
const (
	cmdClearDisplay   byte = 0x01 // 00000001
	cmdReturnHome     byte = 0x02 // 00000010
	cmdEntryModeSet   byte = 0x04 // 00000100
	cmdDisplayControl byte = 0x08 // 00001000
	cmdCursorShift    byte = 0x10 // 00010000
	cmdFunctionSet    byte = 0x20 // 00100000
	cmdSetCGRAMAddr   byte = 0x40 // 01000000
	cmdSetDDRAMAddr   byte = 0x80 // 10000000

	// Entry mode set flags
	entryIncrement byte = 0x02
	entryShiftOn   byte = 0x01

	// Display control flags
	displayOn byte = 0x04
	cursorOn  byte = 0x02
	blinkOn   byte = 0x01

	// Cursor and display shift flags
	shiftDisplay byte = 0x08
	shiftRight   byte = 0x04

	// Function set flags
	mode8Bit byte = 0x10
	twoLine  byte = 0x08
	font5x10 byte = 0x04
)

// Settle times from the datasheet. Clear and home take around 1.52ms,
// everything else is done within 37µs. The enable pulse must stay high
// at least 450ns and a full write cycle is 1µs, so 1µs between the two
// halves of the pulse is sufficient.
const (
	pulseDelay   = 1 * time.Microsecond
	writeDelay   = 37 * time.Microsecond
	clearDelay   = 1520 * time.Microsecond
	resetDelay   = 4500 * time.Microsecond
	powerOnDelay = 50 * time.Millisecond
)

// rowOffsets derives the DDRAM base address of each row from the column
// count. Row 1 always starts at 0x40; on 4-row modules rows 2 and 3 are
// the continuation of rows 0 and 1, which is why their bases are offset
// by cols rather than contiguous.
func rowOffsets(rows, cols int) []byte {
	offsets := []byte{0x00, 0x40, byte(cols), byte(0x40 + cols)}
	return offsets[:rows]
}

// send drives both nibbles of an instruction or data byte through the
// bus framer, high nibble first as required by 4-bit mode.
func (d *Dev) send(value byte, rs bool) error {
	if err := d.writeNibble(value>>4, rs); err != nil {
		return err
	}
	return d.writeNibble(value&0x0f, rs)
}

// command sends an instruction and waits out its settle time.
func (d *Dev) command(cmd byte) error {
	if err := d.send(cmd, false); err != nil {
		return err
	}
	switch cmd {
	case cmdClearDisplay, cmdReturnHome:
		time.Sleep(clearDelay)
	default:
		time.Sleep(writeDelay)
	}
	return nil
}

// data writes one byte to the RAM selected by the last address
// instruction (DDRAM or CGRAM).
func (d *Dev) data(b byte) error {
	if err := d.send(b, true); err != nil {
		return err
	}
	time.Sleep(writeDelay)
	return nil
}
