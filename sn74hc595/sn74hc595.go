// Copyright 2026 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

// Package sn74hc595 shifts segment patterns into SN74HC595 serial-in,
// parallel-out shift registers.
//
// Dev bit-bangs up to three registers ("lanes") that share the shift clock,
// latch clock and clear lines but each have their own serial data line, so
// all lanes are loaded with the same eight clock pulses. SPIDev drives a
// daisy chain of registers from an SPI bus instead.
//
// Bits are shifted least significant first. After eight clocks the first
// bit sits on QH and the last on QA, so bit 7 of a value appears on QA.
//
// # Datasheet
//
// https://www.ti.com/lit/ds/symlink/sn74hc595.pdf
package sn74hc595

import (
	"errors"
	"fmt"
	"strings"
	"sync"

	"periph.io/x/conn/v3"
	"periph.io/x/conn/v3/gpio"
)

const (
	devName     = "SN74HC595"
	bitsPerLane = 8
)

// MaxLanes is the number of parallel data lines a Dev supports.
const MaxLanes = 3

var (
	// ErrLaneCount is returned when more values are shifted than there are
	// lanes.
	ErrLaneCount = errors.New("sn74hc595: more values than lanes")
	// ErrBusy is returned when another shift is in progress. The caller is
	// never made to wait.
	ErrBusy = errors.New("sn74hc595: shift in progress")
)

// Pins are the control lines of the registers.
type Pins struct {
	// Data holds one SER line per lane.
	Data []gpio.PinOut
	// Clock is SRCLK. A rising edge shifts the data lines in.
	Clock gpio.PinOut
	// Latch is RCLK. A rising edge copies the shift stage to the outputs.
	Latch gpio.PinOut
	// Clear is the active low SRCLR line. It is optional.
	Clear gpio.PinOut
}

// Dev is a set of shift registers loaded in parallel over GPIO.
type Dev struct {
	pins Pins

	mu sync.Mutex
}

// New configures the lines as outputs at their idle levels and clears the
// registers.
func New(p *Pins) (*Dev, error) {
	if p == nil || len(p.Data) == 0 || len(p.Data) > MaxLanes {
		return nil, fmt.Errorf("sn74hc595: need 1 to %d data lines", MaxLanes)
	}
	for ix, l := range p.Data {
		if l == nil {
			return nil, fmt.Errorf("sn74hc595: data line %d is nil", ix)
		}
	}
	if p.Clock == nil || p.Latch == nil {
		return nil, errors.New("sn74hc595: clock and latch lines are required")
	}
	d := &Dev{pins: Pins{
		Data:  append([]gpio.PinOut(nil), p.Data...),
		Clock: p.Clock,
		Latch: p.Latch,
		Clear: p.Clear,
	}}
	eh := errorHandler{}
	for _, l := range d.pins.Data {
		eh.out(l, gpio.Low)
	}
	eh.out(d.pins.Clock, gpio.Low)
	eh.out(d.pins.Latch, gpio.Low)
	if d.pins.Clear != nil {
		eh.out(d.pins.Clear, gpio.High)
	}
	if eh.err != nil {
		return nil, fmt.Errorf("sn74hc595: init: %w", eh.err)
	}
	if err := d.Clear(); err != nil {
		return nil, err
	}
	return d, nil
}

// Lanes returns the number of data lines.
func (d *Dev) Lanes() int {
	return len(d.pins.Data)
}

// ShiftOut shifts one byte per lane into the registers, least significant
// bit first, and latches the result onto the outputs. Lanes without a value
// are loaded with zero.
func (d *Dev) ShiftOut(values ...byte) error {
	if len(values) > len(d.pins.Data) {
		return ErrLaneCount
	}
	if !d.mu.TryLock() {
		return ErrBusy
	}
	defer d.mu.Unlock()

	var lanes [MaxLanes]byte
	copy(lanes[:], values)
	eh := errorHandler{}
	for bit := range bitsPerLane {
		for ix, l := range d.pins.Data {
			eh.out(l, gpio.Level(lanes[ix]>>bit&1 != 0))
		}
		eh.pulse(d.pins.Clock)
	}
	eh.pulse(d.pins.Latch)
	if eh.err != nil {
		return fmt.Errorf("sn74hc595: shift: %w", eh.err)
	}
	return nil
}

// Clear zeroes the shift stage and latches it, so every output reads off
// afterwards. Without a clear line, zeros are shifted in instead.
func (d *Dev) Clear() error {
	if d.pins.Clear == nil {
		return d.ShiftOut()
	}
	if !d.mu.TryLock() {
		return ErrBusy
	}
	defer d.mu.Unlock()

	eh := errorHandler{}
	eh.out(d.pins.Clear, gpio.Low)
	eh.out(d.pins.Clear, gpio.High)
	eh.pulse(d.pins.Latch)
	if eh.err != nil {
		return fmt.Errorf("sn74hc595: clear: %w", eh.err)
	}
	return nil
}

// Halt clears the registers.
func (d *Dev) Halt() error {
	return d.Clear()
}

func (d *Dev) String() string {
	names := make([]string, len(d.pins.Data))
	for ix, l := range d.pins.Data {
		names[ix] = l.String()
	}
	return fmt.Sprintf("%s{SER: [%s], SRCLK: %s, RCLK: %s}", devName, strings.Join(names, " "), d.pins.Clock, d.pins.Latch)
}

// errorHandler keeps the first failed line write and skips every write
// after it.
type errorHandler struct {
	err error
}

func (eh *errorHandler) out(p gpio.PinOut, l gpio.Level) {
	if eh.err != nil {
		return
	}
	if err := p.Out(l); err != nil {
		eh.err = fmt.Errorf("%s: %w", p, err)
	}
}

// pulse drives p high then low.
func (eh *errorHandler) pulse(p gpio.PinOut) {
	eh.out(p, gpio.High)
	eh.out(p, gpio.Low)
}

var _ conn.Resource = &Dev{}
