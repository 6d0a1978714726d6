// Copyright 2018 Denis Bernard <db047h@gmail.com>
// Licensed under the MIT license. See license text in the LICENSE file.

package fvsim

import (
	"github.com/pkg/errors"

	"github.com/db47h/fvsim/logic"
)

// Error kinds. Width errors are shared with the logic package so that
// errors.Cause works across both.
//
var (
	// ErrWidthMismatch reports an operation on values or signals of
	// incompatible widths.
	ErrWidthMismatch = logic.ErrWidthMismatch
	// ErrWidth reports an impossible width request.
	ErrWidth = logic.ErrWidth
	// ErrScheduling reports an action registered in the past or an
	// operation on an ended simulator.
	ErrScheduling = errors.New("scheduling error")
	// ErrLocked reports an attempt to rename a locked signal.
	ErrLocked = errors.New("signal name locked")
	// ErrDriven reports an attempt to connect a second driver to a signal
	// that is not a net.
	ErrDriven = errors.New("signal already driven")
)
