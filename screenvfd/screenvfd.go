// Copyright 2026 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

// Package screenvfd draws a row of IV-22 tubes on the terminal using ANSI
// color codes.
//
// It shows what the shift registers latched for every position, so a
// multiplexed display can be watched without the hardware.
package screenvfd

import (
	"bytes"
	"errors"
	"fmt"
	"image/color"
	"io"
	"sync"

	"github.com/maruel/ansi256"
	"github.com/mattn/go-colorable"

	"github.com/GermanBionicSystems/iv22/segment"
)

// Opts represents the options available for this view.
type Opts struct {
	// Lanes and Positions give the display geometry. Cell
	// lane*Positions+position is drawn at that index from the left.
	Lanes     int
	Positions int
	// W defaults to the colorable stdout.
	W       io.Writer
	Palette *ansi256.Palette
	// Lit and Unlit default to the VFD green and a dark grey.
	Lit   color.Color
	Unlit color.Color

	_ struct{}
}

var (
	defaultLit   = color.NRGBA{0x40, 0xff, 0xc0, 0xff}
	defaultUnlit = color.NRGBA{0x30, 0x30, 0x30, 0xff}
)

// Dev is an IV-22 display emulator that outputs to the console.
type Dev struct {
	w         io.Writer
	positions int
	palette   ansi256.Palette
	lit       string
	unlit     string

	mu    sync.Mutex
	cells []segment.Pattern
	buf   bytes.Buffer
}

// New returns a Dev that displays at the console.
func New(opts *Opts) (*Dev, error) {
	if opts.Lanes <= 0 || opts.Positions <= 0 {
		return nil, errors.New("screenvfd: need at least one lane and one position")
	}
	p := opts.Palette
	if p == nil {
		p = ansi256.Default
	}
	w := opts.W
	if w == nil {
		w = colorable.NewColorableStdout()
	}
	lit := defaultLit
	if opts.Lit != nil {
		lit = color.NRGBAModel.Convert(opts.Lit).(color.NRGBA)
	}
	unlit := defaultUnlit
	if opts.Unlit != nil {
		unlit = color.NRGBAModel.Convert(opts.Unlit).(color.NRGBA)
	}
	d := &Dev{
		w:         w,
		positions: opts.Positions,
		palette:   *p,
		cells:     make([]segment.Pattern, opts.Lanes*opts.Positions),
	}
	d.lit = d.palette.Block(lit)
	d.unlit = d.palette.Block(unlit)
	return d, nil
}

func (d *Dev) String() string {
	return fmt.Sprintf("ScreenVFD{%d}", len(d.cells))
}

// Halt implements conn.Resource.
//
// It resets the colors so the terminal is not left corrupted.
func (d *Dev) Halt() error {
	_, err := d.w.Write([]byte("\n\033[0m"))
	return err
}

// Set records the patterns latched while position was enabled, one per lane.
func (d *Dev) Set(position int, lanes []byte) error {
	if position < 0 || position >= d.positions {
		return fmt.Errorf("screenvfd: position %d out of range", position)
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	for l, v := range lanes {
		ix := l*d.positions + position
		if ix >= len(d.cells) {
			return fmt.Errorf("screenvfd: lane %d out of range", l)
		}
		d.cells[ix] = segment.Pattern(v)
	}
	return nil
}

// Cells returns a copy of the patterns shown.
func (d *Dev) Cells() []segment.Pattern {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([]segment.Pattern(nil), d.cells...)
}

// Refresh redraws every tube as three rows of block art, moving the cursor
// back up so the next Refresh overwrites it.
//
//	 a
//	b d c
//	e g f h
func (d *Dev) Refresh() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.buf.Reset()
	for row := 0; row < 3; row++ {
		_, _ = d.buf.WriteString("\r\033[0m")
		for _, p := range d.cells {
			d.tube(p, row)
			_, _ = d.buf.WriteString("\033[0m ")
		}
		_, _ = d.buf.WriteString("\033[0m\n")
	}
	_, _ = d.buf.WriteString("\033[3A")
	_, err := d.buf.WriteTo(d.w)
	return err
}

// rows maps each drawn row to the segment under each of its four columns.
// Zero leaves the column empty.
var rows = [3][4]segment.Pattern{
	{0, segment.A, 0, 0},
	{segment.B, segment.D, segment.C, 0},
	{segment.E, segment.G, segment.F, segment.H},
}

func (d *Dev) tube(p segment.Pattern, row int) {
	for _, seg := range rows[row] {
		switch {
		case seg == 0:
			_ = d.buf.WriteByte(' ')
		case p.Lit(seg):
			_, _ = d.buf.WriteString(d.lit)
		default:
			_, _ = d.buf.WriteString(d.unlit)
		}
	}
}

var _ fmt.Stringer = &Dev{}
