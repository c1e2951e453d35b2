// Copyright 2026 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package sn74hc595

import (
	"errors"
	"fmt"
	"math/bits"
	"sync"

	"periph.io/x/conn/v3"
	"periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/spi"
)

// SPIDev is a daisy chain of registers clocked by an SPI bus. MOSI feeds SER
// of the first register, SCLK drives SRCLK and QH' of each register feeds SER
// of the next one.
type SPIDev struct {
	conn    spi.Conn
	latch   gpio.PinOut
	clear   gpio.PinOut
	chained int

	mu sync.Mutex
	w  []byte
}

// NewSPI returns a chain of chained registers on conn. latch is RCLK and is
// required; clear is SRCLR and may be nil.
//
// SPI sends the most significant bit first, so every value is bit-reversed
// before it goes on the wire to keep the LSB-first order of Dev.
func NewSPI(c spi.Conn, latch, clear gpio.PinOut, chained int) (*SPIDev, error) {
	if c == nil || latch == nil {
		return nil, errors.New("sn74hc595: spi conn and latch line are required")
	}
	if chained <= 0 || chained > MaxLanes {
		return nil, fmt.Errorf("sn74hc595: need 1 to %d chained registers", MaxLanes)
	}
	d := &SPIDev{conn: c, latch: latch, clear: clear, chained: chained, w: make([]byte, chained)}
	eh := errorHandler{}
	eh.out(latch, gpio.Low)
	if clear != nil {
		eh.out(clear, gpio.High)
	}
	if eh.err != nil {
		return nil, fmt.Errorf("sn74hc595: init: %w", eh.err)
	}
	if err := d.Clear(); err != nil {
		return nil, err
	}
	return d, nil
}

// Lanes returns the number of chained registers.
func (d *SPIDev) Lanes() int {
	return d.chained
}

// ShiftOut writes one byte per register and latches them. values[0] ends up
// in the first register of the chain, so it is sent last.
func (d *SPIDev) ShiftOut(values ...byte) error {
	if len(values) > d.chained {
		return ErrLaneCount
	}
	if !d.mu.TryLock() {
		return ErrBusy
	}
	defer d.mu.Unlock()

	for ix := range d.w {
		d.w[ix] = 0
	}
	for ix, v := range values {
		d.w[d.chained-1-ix] = bits.Reverse8(v)
	}
	if err := d.conn.Tx(d.w, nil); err != nil {
		return fmt.Errorf("sn74hc595: spi: %w", err)
	}
	eh := errorHandler{}
	eh.pulse(d.latch)
	if eh.err != nil {
		return fmt.Errorf("sn74hc595: shift: %w", eh.err)
	}
	return nil
}

// Clear zeroes every register in the chain and latches it.
func (d *SPIDev) Clear() error {
	if d.clear == nil {
		return d.ShiftOut()
	}
	if !d.mu.TryLock() {
		return ErrBusy
	}
	defer d.mu.Unlock()

	eh := errorHandler{}
	eh.out(d.clear, gpio.Low)
	eh.out(d.clear, gpio.High)
	eh.pulse(d.latch)
	if eh.err != nil {
		return fmt.Errorf("sn74hc595: clear: %w", eh.err)
	}
	return nil
}

// Halt clears the registers.
func (d *SPIDev) Halt() error {
	return d.Clear()
}

func (d *SPIDev) String() string {
	return fmt.Sprintf("%s{%s, chained: %d}", devName, d.conn, d.chained)
}

var _ conn.Resource = &SPIDev{}
