// Copyright 2026 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package iv22

import (
	"errors"
	"fmt"

	"periph.io/x/conn/v3/gpio"
)

// ErrPosition is returned when selecting a position without an enable line.
var ErrPosition = errors.New("iv22: position out of range")

// Multiplexer drives the digit enable lines. Position 0 is the leftmost
// tube of each lane.
//
// It is not safe for concurrent use; Dev only calls it from the refresh
// tick.
type Multiplexer struct {
	lines    []gpio.PinOut
	on       gpio.Level
	selected int
	next     int
}

// NewMultiplexer returns a Multiplexer over lines, one per position, with
// every line de-asserted. Lines are asserted high unless activeLow is set.
func NewMultiplexer(lines []gpio.PinOut, activeLow bool) (*Multiplexer, error) {
	if len(lines) == 0 {
		return nil, errors.New("iv22: need at least one enable line")
	}
	for ix, l := range lines {
		if l == nil {
			return nil, fmt.Errorf("iv22: enable line %d is nil", ix)
		}
	}
	m := &Multiplexer{
		lines: append([]gpio.PinOut(nil), lines...),
		on:    gpio.Level(!activeLow),
	}
	if err := m.Blank(); err != nil {
		return nil, err
	}
	return m, nil
}

// Positions returns the number of enable lines.
func (m *Multiplexer) Positions() int {
	return len(m.lines)
}

// Selected returns the enabled position, or -1 when every line is off.
func (m *Multiplexer) Selected() int {
	return m.selected
}

// Select enables position p only. Every other line is turned off before p
// is turned on, so two positions are never lit together.
func (m *Multiplexer) Select(p int) error {
	if p < 0 || p >= len(m.lines) {
		return fmt.Errorf("%w: %d", ErrPosition, p)
	}
	for ix, l := range m.lines {
		if ix == p {
			continue
		}
		if err := l.Out(!m.on); err != nil {
			m.selected = -1
			return fmt.Errorf("iv22: enable %d: %w", ix, err)
		}
	}
	if err := m.lines[p].Out(m.on); err != nil {
		m.selected = -1
		return fmt.Errorf("iv22: enable %d: %w", p, err)
	}
	m.selected = p
	return nil
}

// Blank turns every enable line off.
func (m *Multiplexer) Blank() error {
	m.selected = -1
	var first error
	for ix, l := range m.lines {
		if err := l.Out(!m.on); err != nil && first == nil {
			first = fmt.Errorf("iv22: enable %d: %w", ix, err)
		}
	}
	return first
}

// advance returns the position for this tick and moves on to the next one.
func (m *Multiplexer) advance() int {
	p := m.next
	m.next = (p + 1) % len(m.lines)
	return p
}
