// Copyright 2025 The lcd1602 Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

// Package lcd1602 drives HD44780 compatible character LCD modules (16x2,
// 20x4 and similar) connected through a PCF8574 style I²C GPIO expander
// backpack, operating the controller in 4-bit mode.
//
// The driver is write-only: the backpack's R/W line is held low, so the
// busy flag is never polled and worst-case instruction settle times are
// waited out instead. All operations are synchronous and the bus is
// assumed to be exclusively owned for the duration of each call; if the
// physical bus is shared, serialize access at the i2c.Bus level.
//
// Implements periph.io/x/conn/display/TextDisplay and
// display.DisplayBacklight.
//
// # Datasheet
//
// https://www.sparkfun.com/datasheets/LCD/HD44780.pdf
//
// # Backpack wiring
//
// The common PCF8574 backpack wires the expander outputs as
//
//	P0 -> RS    P4 -> D4
//	P1 -> R/W   P5 -> D5
//	P2 -> E     P6 -> D6
//	P3 -> LED   P7 -> D7
//
// which is the PCF8574PinMap default. The backlight LED is switched by
// the expander itself, not by the controller, so the backlight state
// rides along as a bit in every expander write.
//
// A good description of the backpack usage can be found here:
//
// https://www.handsontec.com/dataspecs/I2C_2004_LCD.pdf
package lcd1602
