// Copyright 2026 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

// Package iv22 drives a multiplexed display of IV-22 vacuum-fluorescent
// tubes.
//
// The tubes of one lane share their segment lines, which are fed by one
// shift register, and each tube position has its own enable line. Only one
// position is enabled at a time. A refresh tick encodes the characters of
// the next position, shifts them into the registers, latches them and then
// enables that position. Cycling through every position at least 60 times a
// second makes all tubes appear lit together.
//
// Up to three lanes are loaded in parallel. With two positions and three
// lanes the display has six cells: cells 0 and 1 belong to lane 0, cells 2
// and 3 to lane 1, and so on. Position 0 is the left tube of a lane.
//
// # Example wiring
//
// A typical clock board drives three pairs of tubes: SER lines on GPIO47, 38
// and 21, SRCLK on 36, RCLK on 37, SRCLR on 35 and the left and right
// enable drivers on GPIO11 and 12.
package iv22

import (
	"context"
	"errors"
	"fmt"
	"log"
	"runtime"
	"sync"
	"sync/atomic"
	"time"

	"github.com/jonboulle/clockwork"
	"periph.io/x/conn/v3"
	"periph.io/x/conn/v3/gpio"
)

const (
	// DefaultFrame is the default time to refresh every position once.
	DefaultFrame = 16 * time.Millisecond
	// MaxFrame is the slowest full refresh that does not visibly flicker.
	MaxFrame = time.Second / 60
)

var (
	// ErrBusy is returned by Refresh while another tick is running.
	ErrBusy = errors.New("iv22: refresh in progress")
	// ErrHalted is returned by Refresh after Halt.
	ErrHalted = errors.New("iv22: halted")
)

// Shifter loads one segment pattern per lane into the shift registers and
// latches them. sn74hc595.Dev and sn74hc595.SPIDev implement it.
type Shifter interface {
	ShiftOut(values ...byte) error
	Clear() error
	Lanes() int
}

// Opts holds the refresh settings.
type Opts struct {
	// Frame is the time to refresh every position once. Each tick lasts
	// Frame divided by the number of positions. Zero means DefaultFrame.
	Frame time.Duration
	// ActiveLow inverts the enable lines.
	ActiveLow bool
	// ExternalTimer disables the refresh goroutine. The caller must then
	// call Refresh from its own timer.
	ExternalTimer bool
	// Clock drives the refresh goroutine. Nil means the real clock.
	Clock clockwork.Clock
}

// DefaultOpts is the recommended configuration.
var DefaultOpts = Opts{Frame: DefaultFrame}

// Stats counts refresh ticks.
type Stats struct {
	Ticks    uint64
	Failures uint64
}

// Dev is a multiplexed IV-22 display.
type Dev struct {
	sr    Shifter
	mux   *Multiplexer
	buf   *Buffer
	tick  time.Duration
	clock clockwork.Clock

	// lanes is scratch space for the tick holding the busy flag.
	lanes    []byte
	busy     atomic.Bool
	halted   atomic.Bool
	ticks    atomic.Uint64
	failures atomic.Uint64

	// failing is only used by the refresh goroutine.
	failing  bool
	stop     chan struct{}
	done     chan struct{}
	haltOnce sync.Once
}

// New blanks the enable lines, clears the shift registers and starts
// refreshing. enable holds one line per position, leftmost first.
//
// opts may be nil, in which case DefaultOpts is used.
func New(sr Shifter, enable []gpio.PinOut, opts *Opts) (*Dev, error) {
	if opts == nil {
		opts = &DefaultOpts
	}
	if sr == nil || sr.Lanes() <= 0 {
		return nil, errors.New("iv22: need a shifter with at least one lane")
	}
	frame := opts.Frame
	if frame == 0 {
		frame = DefaultFrame
	}
	if frame < 0 || frame > MaxFrame {
		return nil, fmt.Errorf("iv22: frame %s outside (0, %s]", frame, MaxFrame)
	}
	clock := opts.Clock
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	mux, err := NewMultiplexer(enable, opts.ActiveLow)
	if err != nil {
		return nil, err
	}
	if err := sr.Clear(); err != nil {
		return nil, fmt.Errorf("iv22: clear: %w", err)
	}
	d := &Dev{
		sr:    sr,
		mux:   mux,
		buf:   NewBuffer(sr.Lanes() * mux.Positions()),
		tick:  frame / time.Duration(mux.Positions()),
		clock: clock,
		lanes: make([]byte, sr.Lanes()),
	}
	if d.tick <= 0 {
		return nil, fmt.Errorf("iv22: frame %s too short for %d positions", frame, mux.Positions())
	}
	log.Printf("iv22: %d lanes x %d positions, tick %s", sr.Lanes(), mux.Positions(), d.tick)
	if !opts.ExternalTimer {
		d.stop = make(chan struct{})
		d.done = make(chan struct{})
		go d.run(clock.NewTicker(d.tick))
	}
	return d, nil
}

// Refresh runs one refresh tick: it encodes the cells of the next position,
// shifts and latches them, and enables only that position.
//
// It never waits. If another tick is running it returns ErrBusy at once. A
// failed tick still moves on to the next position.
func (d *Dev) Refresh() (err error) {
	if !d.busy.CompareAndSwap(false, true) {
		return ErrBusy
	}
	defer d.busy.Store(false)
	if d.halted.Load() {
		return ErrHalted
	}
	d.ticks.Add(1)
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("iv22: refresh panic: %v", r)
		}
		if err != nil {
			d.failures.Add(1)
		}
	}()

	p := d.mux.advance()
	d.buf.patterns(d.lanes, p, d.mux.Positions())
	if err := d.mux.Blank(); err != nil {
		return err
	}
	if err := d.sr.ShiftOut(d.lanes...); err != nil {
		return fmt.Errorf("iv22: %w", err)
	}
	return d.mux.Select(p)
}

func (d *Dev) run(t clockwork.Ticker) {
	defer close(d.done)
	defer t.Stop()
	for {
		select {
		case <-d.stop:
			return
		case <-t.Chan():
			d.report(d.Refresh())
		}
	}
}

// report logs when ticks start failing and when they recover, not every
// failed tick.
func (d *Dev) report(err error) {
	if errors.Is(err, ErrBusy) || errors.Is(err, ErrHalted) {
		return
	}
	switch {
	case err != nil && !d.failing:
		d.failing = true
		log.Printf("iv22: refresh failing: %v", err)
	case err == nil && d.failing:
		d.failing = false
		log.Printf("iv22: refresh recovered, %d failed ticks so far", d.failures.Load())
	}
}

// SetDisplay replaces the displayed text from the next tick on. See
// Buffer.SetText for the layout.
func (d *Dev) SetDisplay(text string) {
	d.buf.SetText(text)
}

// SetNumber shows n right-aligned from the next tick on.
func (d *Dev) SetNumber(n int) error {
	return d.buf.SetNumber(n)
}

// Clear blanks the display from the next tick on.
func (d *Dev) Clear() {
	d.buf.Clear()
}

// Text returns the displayed text.
func (d *Dev) Text() string {
	return d.buf.Text()
}

// Cells returns the number of tubes.
func (d *Dev) Cells() int {
	return d.buf.Cells()
}

// Positions returns the number of multiplexed positions per lane.
func (d *Dev) Positions() int {
	return d.mux.Positions()
}

// Tick returns the refresh period of one position.
func (d *Dev) Tick() time.Duration {
	return d.tick
}

// Stats returns the tick counters.
func (d *Dev) Stats() Stats {
	return Stats{Ticks: d.ticks.Load(), Failures: d.failures.Load()}
}

// Scroll moves text across the display one cell every step until ctx is
// done. Text that fits is shown as is.
func (d *Dev) Scroll(ctx context.Context, text string, step time.Duration) error {
	m := NewMarquee(text, d.Cells())
	d.SetDisplay(m.Window())
	if !m.Scrolls() {
		<-ctx.Done()
		return ctx.Err()
	}
	t := d.clock.NewTicker(step)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-t.Chan():
			d.SetDisplay(m.Next())
		}
	}
}

// Halt stops refreshing, turns every position off and clears the shift
// registers.
func (d *Dev) Halt() error {
	var err error
	d.haltOnce.Do(func() {
		d.halted.Store(true)
		if d.stop != nil {
			close(d.stop)
			<-d.done
		}
		for !d.busy.CompareAndSwap(false, true) {
			runtime.Gosched()
		}
		defer d.busy.Store(false)
		err = d.mux.Blank()
		if e := d.sr.Clear(); err == nil && e != nil {
			err = fmt.Errorf("iv22: clear: %w", e)
		}
	})
	return err
}

func (d *Dev) String() string {
	return fmt.Sprintf("IV-22{%v, %d positions}", d.sr, d.mux.Positions())
}

var _ conn.Resource = &Dev{}
