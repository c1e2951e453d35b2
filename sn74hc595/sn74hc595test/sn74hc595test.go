// Copyright 2026 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

// Package sn74hc595test simulates SN74HC595 shift registers and the digit
// enable lines of a multiplexed display, so drivers can be tested without
// hardware.
//
// Every line is a Line, a gpiotest.Pin that reports its edges to the
// Register it belongs to. The Register models the shift stage, the output
// stage and the enable lines, and records a Frame each time an enable line
// is asserted.
package sn74hc595test

import (
	"fmt"
	"sync"

	"periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/gpio/gpiotest"

	"github.com/GermanBionicSystems/iv22/sn74hc595"
)

type role int

const (
	roleData role = iota
	roleClock
	roleLatch
	roleClear
	roleEnable
)

// Line is a simulated output line wired to a Register.
type Line struct {
	gpiotest.Pin

	// Fail, when set, is returned by Out and the level is left unchanged.
	Fail error

	reg   *Register
	role  role
	index int
}

// Out implements gpio.PinOut.
func (l *Line) Out(level gpio.Level) error {
	l.Lock()
	if err := l.Fail; err != nil {
		l.Unlock()
		return err
	}
	prev := l.L
	l.L = level
	l.Unlock()
	l.reg.edge(l, prev, level)
	return nil
}

// Frame is the output of the registers at the moment a digit position was
// enabled.
type Frame struct {
	Position int
	Lanes    []byte
}

// Register is a simulated set of shift registers plus enable lines.
type Register struct {
	// Data, Clock, Latch and Clear are the register control lines.
	Data  []*Line
	Clock *Line
	Latch *Line
	Clear *Line
	// Enable holds one digit enable line per position.
	Enable []*Line

	// OnFrame, when set, is called with every recorded frame. It runs on
	// the goroutine writing the enable line.
	OnFrame func(Frame)

	mu        sync.Mutex
	activeLow bool
	shift     []byte
	out       []byte
	lit       []bool
	maxLit    int
	frames    []Frame
	keep      int
}

// New returns a Register with the given number of lanes and enable lines.
// Enable lines are active high unless activeLow is set. At most keep frames
// are retained; older ones are dropped.
func New(lanes, positions int, activeLow bool, keep int) *Register {
	r := &Register{
		activeLow: activeLow,
		shift:     make([]byte, lanes),
		out:       make([]byte, lanes),
		lit:       make([]bool, positions),
		keep:      keep,
	}
	for ix := range lanes {
		r.Data = append(r.Data, r.line(fmt.Sprintf("SER%d", ix), ix, roleData, ix))
	}
	r.Clock = r.line("SRCLK", lanes, roleClock, 0)
	r.Latch = r.line("RCLK", lanes+1, roleLatch, 0)
	r.Clear = r.line("SRCLR", lanes+2, roleClear, 0)
	r.Clear.L = gpio.High
	for ix := range positions {
		e := r.line(fmt.Sprintf("EN%d", ix), lanes+3+ix, roleEnable, ix)
		e.L = gpio.Level(activeLow)
		r.Enable = append(r.Enable, e)
	}
	return r
}

func (r *Register) line(name string, num int, ro role, index int) *Line {
	return &Line{Pin: gpiotest.Pin{N: name, Num: num}, reg: r, role: ro, index: index}
}

// Pins returns the register lines for sn74hc595.New.
func (r *Register) Pins() *sn74hc595.Pins {
	p := &sn74hc595.Pins{Clock: r.Clock, Latch: r.Latch, Clear: r.Clear}
	for _, l := range r.Data {
		p.Data = append(p.Data, l)
	}
	return p
}

// EnableLines returns the digit enable lines.
func (r *Register) EnableLines() []gpio.PinOut {
	out := make([]gpio.PinOut, len(r.Enable))
	for ix, l := range r.Enable {
		out[ix] = l
	}
	return out
}

func (r *Register) edge(l *Line, prev, level gpio.Level) {
	r.mu.Lock()
	var f *Frame
	switch l.role {
	case roleClock:
		if prev == gpio.Low && level == gpio.High && r.Clear.Read() == gpio.High {
			for ix, d := range r.Data {
				var bit byte
				if d.Read() == gpio.High {
					bit = 0x80
				}
				r.shift[ix] = r.shift[ix]>>1 | bit
			}
		}
	case roleLatch:
		if prev == gpio.Low && level == gpio.High {
			copy(r.out, r.shift)
		}
	case roleClear:
		if level == gpio.Low {
			for ix := range r.shift {
				r.shift[ix] = 0
			}
		}
	case roleEnable:
		on := level != gpio.Level(r.activeLow)
		was := r.lit[l.index]
		r.lit[l.index] = on
		if n := r.countLitLocked(); n > r.maxLit {
			r.maxLit = n
		}
		if on && !was {
			f = &Frame{Position: l.index, Lanes: append([]byte(nil), r.out...)}
			r.frames = append(r.frames, *f)
			if r.keep > 0 && len(r.frames) > r.keep {
				r.frames = append(r.frames[:0], r.frames[len(r.frames)-r.keep:]...)
			}
		}
	}
	cb := r.OnFrame
	r.mu.Unlock()
	if f != nil && cb != nil {
		cb(*f)
	}
}

func (r *Register) countLitLocked() int {
	n := 0
	for _, on := range r.lit {
		if on {
			n++
		}
	}
	return n
}

// Outputs returns the latched outputs, one byte per lane with QA in bit 7.
func (r *Register) Outputs() []byte {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]byte(nil), r.out...)
}

// Shifted returns the contents of the shift stage.
func (r *Register) Shifted() []byte {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]byte(nil), r.shift...)
}

// Lit returns the positions whose enable line is asserted.
func (r *Register) Lit() []int {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []int
	for ix, on := range r.lit {
		if on {
			out = append(out, ix)
		}
	}
	return out
}

// MaxLit returns the largest number of enable lines ever asserted at once.
func (r *Register) MaxLit() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.maxLit
}

// Frames returns the recorded frames, oldest first.
func (r *Register) Frames() []Frame {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Frame(nil), r.frames...)
}

// Reset drops the recorded frames.
func (r *Register) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.frames = r.frames[:0]
}

var _ gpio.PinOut = &Line{}
