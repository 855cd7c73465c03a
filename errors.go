// Copyright 2025 The lcd1602 Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package lcd1602

import (
	"errors"
	"fmt"
	"strings"

	"periph.io/x/conn/v3/display"
)

const packageName = "lcd1602"

var (
	ErrNotImplemented = fmt.Errorf("%s: %w", packageName, display.ErrNotImplemented)

	// ErrInvalidGeometry is returned by New for row/column combinations
	// the controller cannot address.
	ErrInvalidGeometry = errors.New(packageName + ": unsupported display geometry")

	// ErrInvalidPosition is returned for cursor coordinates outside the
	// display. Out of range positions are rejected, never clamped;
	// clamping would hide caller bugs.
	ErrInvalidPosition = errors.New(packageName + ": cursor position out of range")

	// ErrInvalidSlot is returned by DefineGlyph for slots above 7.
	ErrInvalidSlot = errors.New(packageName + ": glyph slot out of range")
)

// InitError reports a failure inside the power-on initialization
// sequence. The controller state is unknown afterwards; the sequence
// cannot be resumed, call Init again to rerun it from the start.
type InitError struct {
	Cause error
}

func (e *InitError) Error() string {
	return packageName + ": init: " + e.Cause.Error()
}

func (e *InitError) Unwrap() error {
	return e.Cause
}

func wrap(err error) error {
	if err == nil || strings.HasPrefix(err.Error(), packageName) {
		return err
	}
	return fmt.Errorf("%s: %w", packageName, err)
}
