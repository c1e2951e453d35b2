// Copyright 2026 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package main

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/jonboulle/clockwork"
	"periph.io/x/conn/v3/gpio"
)

// heartbeat lights the power LED and blinks the MCU LED, toggling it every
// period, until ctx is done. Both LEDs are turned off on return. Either LED
// may be nil.
func heartbeat(ctx context.Context, clock clockwork.Clock, power, led gpio.PinOut, activeLow bool, period time.Duration) error {
	on := gpio.Level(!activeLow)
	if power != nil {
		if err := power.Out(on); err != nil {
			return fmt.Errorf("heartbeat: power LED: %w", err)
		}
		defer power.Out(!on)
	}
	if led == nil {
		<-ctx.Done()
		return ctx.Err()
	}
	defer led.Out(!on)
	t := clock.NewTicker(period)
	defer t.Stop()
	lit := false
	for {
		lit = !lit
		l, state := !on, "off"
		if lit {
			l, state = on, "on"
		}
		if err := led.Out(l); err != nil {
			return fmt.Errorf("heartbeat: MCU LED: %w", err)
		}
		log.Printf("heartbeat: MCU LED %s", state)
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-t.Chan():
		}
	}
}
