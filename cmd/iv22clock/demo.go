// Copyright 2026 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package main

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jonboulle/clockwork"
	"periph.io/x/conn/v3/gpio"

	"github.com/GermanBionicSystems/iv22/internal/config"
	"github.com/GermanBionicSystems/iv22/iv22"
)

// buttonPoll bounds how long the button demo waits for an edge before
// checking ctx again.
const buttonPoll = 100 * time.Millisecond

// runDemo feeds dev until ctx is done.
func runDemo(ctx context.Context, clock clockwork.Clock, dev *iv22.Dev, cfg *config.DemoConfig, button gpio.PinIn) error {
	switch cfg.Mode {
	case config.ModeClock:
		return showClock(ctx, clock, dev)
	case config.ModeCounter:
		return count(ctx, clock, dev, cfg.Step())
	case config.ModeText:
		dev.SetDisplay(cfg.Text)
		<-ctx.Done()
		return ctx.Err()
	case config.ModeScroll:
		return dev.Scroll(ctx, cfg.Text, cfg.Step())
	case config.ModeButton:
		if button == nil {
			return errors.New("demo: no button")
		}
		return scrollOnPress(ctx, dev, cfg.Text, button)
	}
	return fmt.Errorf("demo: unknown mode %q", cfg.Mode)
}

// clockText formats t as HHMMSS cut to the first cells characters.
func clockText(t time.Time, cells int) string {
	s := t.Format("150405")
	if cells < len(s) {
		s = s[:cells]
	}
	return s
}

func showClock(ctx context.Context, clock clockwork.Clock, dev *iv22.Dev) error {
	tick := clock.NewTicker(time.Second)
	defer tick.Stop()
	for {
		dev.SetDisplay(clockText(clock.Now(), dev.Cells()))
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-tick.Chan():
		}
	}
}

func count(ctx context.Context, clock clockwork.Clock, dev *iv22.Dev, step time.Duration) error {
	tick := clock.NewTicker(step)
	defer tick.Stop()
	for n := 0; ; n++ {
		if err := dev.SetNumber(n); err != nil {
			return err
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-tick.Chan():
		}
	}
}

// scrollOnPress moves text one cell on every press of an active-low button.
func scrollOnPress(ctx context.Context, dev *iv22.Dev, text string, button gpio.PinIn) error {
	if err := button.In(gpio.PullUp, gpio.FallingEdge); err != nil {
		return fmt.Errorf("demo: button: %w", err)
	}
	defer button.In(gpio.PullUp, gpio.NoEdge)
	m := iv22.NewMarquee(text, dev.Cells())
	dev.SetDisplay(m.Window())
	for ctx.Err() == nil {
		if button.WaitForEdge(buttonPoll) {
			dev.SetDisplay(m.Next())
		}
	}
	return ctx.Err()
}
