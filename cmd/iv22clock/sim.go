// Copyright 2026 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package main

import (
	"bufio"
	"context"
	"errors"
	"io"
	"log"
	"net/http"
	"os"
	"sync/atomic"
	"time"

	"periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/gpio/gpiotest"

	"github.com/GermanBionicSystems/iv22/internal/config"
	"github.com/GermanBionicSystems/iv22/screenvfd"
	"github.com/GermanBionicSystems/iv22/sn74hc595"
	"github.com/GermanBionicSystems/iv22/sn74hc595/sn74hc595test"
	"github.com/GermanBionicSystems/iv22/tubesink"
)

// redraw is the terminal refresh period of the simulator.
const redraw = 50 * time.Millisecond

// openSim returns a board made of a simulated register whose latched frames
// are drawn on the terminal and, when addr is set, served over HTTP. In the
// button demo every line read from stdin is a press.
func openSim(cfg *config.Config, addr string) (*board, error) {
	d := cfg.Display
	reg := sn74hc595test.New(len(d.Data), len(d.Enable), d.ActiveLow, 1)
	screen, err := screenvfd.New(&screenvfd.Opts{Lanes: len(d.Data), Positions: len(d.Enable)})
	if err != nil {
		return nil, err
	}
	var sink *tubesink.Sink
	if addr != "" {
		if sink, err = tubesink.New(&tubesink.Options{Lanes: len(d.Data), Positions: len(d.Enable)}); err != nil {
			return nil, err
		}
	}
	frames := newLatched(len(d.Data), len(d.Enable))
	reg.OnFrame = frames.store
	pins := reg.Pins()
	if d.Clear == "" {
		pins.Clear = nil
	}
	sr, err := sn74hc595.New(pins)
	if err != nil {
		return nil, err
	}

	b := &board{
		sr:     sr,
		enable: reg.EnableLines(),
		power:  &gpiotest.Pin{N: "POWER"},
		led:    &gpiotest.Pin{N: "LED"},
	}
	var button *gpiotest.Pin
	if cfg.Demo.Mode == config.ModeButton {
		button = &gpiotest.Pin{N: "BUTTON", EdgesChan: make(chan gpio.Level, 1)}
		b.button = button
	}
	b.run = func(ctx context.Context) error {
		if button != nil {
			go pressOnInput(ctx, os.Stdin, button)
		}
		if sink != nil {
			go serve(ctx, addr, sink)
		}
		defer screen.Halt()
		t := time.NewTicker(redraw)
		defer t.Stop()
		for {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-t.C:
				if err := frames.draw(screen, sink); err != nil {
					return err
				}
			}
		}
	}
	return b, nil
}

// latched keeps the last frame of every position. store runs on the refresh
// tick and never blocks; draw runs on the redraw loop.
type latched struct {
	lanes     int
	positions []atomic.Uint32
}

func newLatched(lanes, positions int) *latched {
	return &latched{lanes: lanes, positions: make([]atomic.Uint32, positions)}
}

// store records f. The sn74hc595.MaxLanes lanes fit in the low bytes of
// one word; bit 31 marks a position latched at least once.
func (l *latched) store(f sn74hc595test.Frame) {
	if f.Position < 0 || f.Position >= len(l.positions) {
		return
	}
	v := uint32(1) << 31
	for ix, b := range f.Lanes {
		v |= uint32(b) << (8 * ix)
	}
	l.positions[f.Position].Store(v)
}

// load returns the lanes last latched at position, or nil if none was.
func (l *latched) load(position int) []byte {
	v := l.positions[position].Load()
	if v == 0 {
		return nil
	}
	lanes := make([]byte, l.lanes)
	for ix := range lanes {
		lanes[ix] = byte(v >> (8 * ix))
	}
	return lanes
}

// draw copies the latched frames to screen and, when set, sink, then
// redraws the terminal.
func (l *latched) draw(screen *screenvfd.Dev, sink *tubesink.Sink) error {
	for p := range l.positions {
		lanes := l.load(p)
		if lanes == nil {
			continue
		}
		if err := screen.Set(p, lanes); err != nil {
			return err
		}
		if sink != nil {
			if err := sink.SetLanes(p, lanes); err != nil {
				return err
			}
		}
	}
	return screen.Refresh()
}

// pressOnInput sends a falling edge to button for every line read from r.
func pressOnInput(ctx context.Context, r io.Reader, button *gpiotest.Pin) {
	s := bufio.NewScanner(r)
	for s.Scan() {
		select {
		case button.EdgesChan <- gpio.Low:
		case <-ctx.Done():
			return
		}
	}
}

func serve(ctx context.Context, addr string, sink *tubesink.Sink) {
	mux := http.NewServeMux()
	mux.Handle("/", sink)
	srv := &http.Server{Addr: addr, Handler: mux}
	go func() {
		<-ctx.Done()
		_ = sink.Halt()
		_ = srv.Close()
	}()
	log.Printf("sim: serving the tubes on http://%s/", addr)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.Printf("sim: %v", err)
	}
}
