// Copyright 2026 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package main

import (
	"fmt"

	"periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/gpio/gpioreg"
	"periph.io/x/host/v3"

	"github.com/GermanBionicSystems/iv22/internal/config"
	"github.com/GermanBionicSystems/iv22/sn74hc595"
)

// lookup returns the pin called name, or nil for an empty name.
func lookup(name string) (gpio.PinIO, error) {
	if name == "" {
		return nil, nil
	}
	p := gpioreg.ByName(name)
	if p == nil {
		return nil, fmt.Errorf("no pin named %q", name)
	}
	return p, nil
}

// pinOut is lookup for output lines. It keeps an absent pin a nil interface.
func pinOut(name string) (gpio.PinOut, error) {
	p, err := lookup(name)
	if p == nil || err != nil {
		return nil, err
	}
	return p, nil
}

// openDisplay opens the shift register and enable lines with out.
func openDisplay(d *config.DisplayConfig, out func(name string) (gpio.PinOut, error)) (*board, error) {
	pins := &sn74hc595.Pins{}
	for _, name := range d.Data {
		p, err := out(name)
		if err != nil {
			return nil, err
		}
		pins.Data = append(pins.Data, p)
	}
	var err error
	if pins.Clock, err = out(d.Clock); err != nil {
		return nil, err
	}
	if pins.Latch, err = out(d.Latch); err != nil {
		return nil, err
	}
	if pins.Clear, err = out(d.Clear); err != nil {
		return nil, err
	}
	b := &board{}
	for _, name := range d.Enable {
		p, err := out(name)
		if err != nil {
			return nil, err
		}
		b.enable = append(b.enable, p)
	}
	if b.sr, err = sn74hc595.New(pins); err != nil {
		return nil, err
	}
	return b, nil
}

// openHardware binds the configured pins through periph. With display.chip
// set the display lines are requested from that GPIO character device
// instead.
func openHardware(cfg *config.Config) (*board, error) {
	if _, err := host.Init(); err != nil {
		return nil, err
	}
	out := pinOut
	var lines cdevLines
	if chip := cfg.Display.Chip; chip != "" {
		out = func(offset string) (gpio.PinOut, error) { return lines.open(chip, offset) }
	}
	b, err := openDisplay(&cfg.Display, out)
	if err != nil {
		_ = lines.close()
		return nil, err
	}
	if len(lines) != 0 {
		b.close = lines.close
	}

	if b.power, err = pinOut(cfg.Heartbeat.Power); err == nil {
		b.led, err = pinOut(cfg.Heartbeat.LED)
	}
	if err == nil && cfg.Demo.Mode == config.ModeButton {
		var p gpio.PinIO
		if p, err = lookup(cfg.Demo.Button); err == nil {
			b.button = p
		}
	}
	if err != nil {
		_ = lines.close()
		return nil, err
	}
	return b, nil
}
