// Copyright 2025 The lcd1602 Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package lcd1602

import "time"

// PinMap describes which expander output drives each controller signal.
// Values are bit positions within the expander byte.
type PinMap struct {
	RS, RW, EN, Backlight uint8
	D4, D5, D6, D7        uint8
}

var (
	// PCF8574PinMap is the wiring of the ubiquitous PCF8574 backpack
	// sold with LCD1602/LCD2004 modules.
	PCF8574PinMap = PinMap{
		RS: 0, RW: 1, EN: 2, Backlight: 3,
		D4: 4, D5: 5, D6: 6, D7: 7,
	}
	// MJKDZPinMap is the wiring of the MJKDZ board, which routes the
	// data lines to the low expander bits.
	MJKDZPinMap = PinMap{
		RS: 6, RW: 5, EN: 4, Backlight: 7,
		D4: 0, D5: 1, D6: 2, D7: 3,
	}
)

// frame packs a data nibble plus the control lines into one expander
// byte. R/W stays low, this driver never reads. The backlight bit rides
// along on every frame since the expander has no state of its own.
func (d *Dev) frame(nibble byte, rs bool) byte {
	pm := &d.opts.PinMap
	b := (nibble&0x01)<<pm.D4 |
		(nibble>>1&0x01)<<pm.D5 |
		(nibble>>2&0x01)<<pm.D6 |
		(nibble>>3&0x01)<<pm.D7
	if rs {
		b |= 1 << pm.RS
	}
	if d.flags.backlight {
		b |= 1 << pm.Backlight
	}
	return b
}

// writeNibble presents one nibble to the controller: transmit with the
// enable line high, then retransmit with it low. The controller latches
// on the falling edge, so both writes are required and the pulse must
// stay up at least pulseDelay. Exactly two transport writes per nibble.
//
// A transport failure aborts immediately: after a partial pulse the
// controller state is unknown and retrying here would desynchronize the
// nibble framing.
func (d *Dev) writeNibble(nibble byte, rs bool) error {
	b := d.frame(nibble, rs)
	en := byte(1) << d.opts.PinMap.EN
	if err := d.expanderWrite(b | en); err != nil {
		return err
	}
	time.Sleep(pulseDelay)
	return d.expanderWrite(b)
}

// expanderWrite pushes one raw byte to the expander outputs.
func (d *Dev) expanderWrite(b byte) error {
	return d.c.Tx([]byte{b}, nil)
}
