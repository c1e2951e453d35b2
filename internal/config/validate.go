// Copyright 2026 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package config

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/GermanBionicSystems/iv22/iv22"
	"github.com/GermanBionicSystems/iv22/sn74hc595"
)

// Validate checks configuration correctness.
// It performs declarative validation only and does not mutate cfg.
// Zero values that Normalize fills in are accepted.
func Validate(cfg *Config) error {
	d := cfg.Display

	// ---- display geometry ----

	if len(d.Data) == 0 || len(d.Data) > sn74hc595.MaxLanes {
		return fmt.Errorf("display: need 1 to %d data lines, got %d", sn74hc595.MaxLanes, len(d.Data))
	}
	if len(d.Enable) == 0 {
		return fmt.Errorf("display: need at least one enable line")
	}
	if d.Clock == "" || d.Latch == "" {
		return fmt.Errorf("display: clock and latch lines are required")
	}
	if d.FrameMs < 0 || d.Frame() > iv22.MaxFrame {
		return fmt.Errorf("display: frame_ms %d outside 1..%d", d.FrameMs, iv22.MaxFrame.Milliseconds())
	}
	if d.FrameMs > 0 && d.Frame() < time.Duration(len(d.Enable))*time.Millisecond {
		return fmt.Errorf("display: frame_ms %d too short for %d enable lines", d.FrameMs, len(d.Enable))
	}

	// ---- pin ownership ----

	// key = pin name, value = role using it
	owner := map[string]string{}
	claim := func(role, pin string) error {
		if pin == "" {
			return nil
		}
		if prev, exists := owner[pin]; exists {
			return fmt.Errorf("pin %s used by both %s and %s", pin, prev, role)
		}
		owner[pin] = role
		return nil
	}
	var pins [][2]string
	for i, p := range d.Data {
		if p == "" {
			return fmt.Errorf("display: data line %d has no pin", i)
		}
		pins = append(pins, [2]string{fmt.Sprintf("display.data[%d]", i), p})
	}
	pins = append(pins,
		[2]string{"display.clock", d.Clock},
		[2]string{"display.latch", d.Latch},
		[2]string{"display.clear", d.Clear},
	)
	for i, p := range d.Enable {
		if p == "" {
			return fmt.Errorf("display: enable line %d has no pin", i)
		}
		pins = append(pins, [2]string{fmt.Sprintf("display.enable[%d]", i), p})
	}
	pins = append(pins,
		[2]string{"heartbeat.power", cfg.Heartbeat.Power},
		[2]string{"heartbeat.led", cfg.Heartbeat.LED},
		[2]string{"demo.button", cfg.Demo.Button},
	)
	for _, p := range pins {
		if err := claim(p[0], p[1]); err != nil {
			return err
		}
	}
	if d.Chip != "" {
		for _, p := range pins {
			if !strings.HasPrefix(p[0], "display.") || p[1] == "" {
				continue
			}
			if n, err := strconv.Atoi(p[1]); err != nil || n < 0 {
				return fmt.Errorf("%s: %q is not a line offset on %s", p[0], p[1], d.Chip)
			}
		}
	}

	// ---- heartbeat ----

	if cfg.Heartbeat.PeriodMs < 0 {
		return fmt.Errorf("heartbeat: period_ms %d is negative", cfg.Heartbeat.PeriodMs)
	}

	// ---- demo ----

	switch cfg.Demo.Mode {
	case "", ModeClock, ModeCounter, ModeText, ModeScroll:
	case ModeButton:
		if cfg.Demo.Button == "" {
			return fmt.Errorf("demo: mode %q needs a button pin", ModeButton)
		}
	default:
		return fmt.Errorf("demo: unknown mode %q", cfg.Demo.Mode)
	}
	if cfg.Demo.StepMs < 0 {
		return fmt.Errorf("demo: step_ms %d is negative", cfg.Demo.StepMs)
	}
	return nil
}
