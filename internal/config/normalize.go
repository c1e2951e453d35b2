// Copyright 2026 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package config

import "github.com/GermanBionicSystems/iv22/iv22"

const (
	DefaultPeriodMs = 1000
	DefaultStepMs   = 400
	DefaultText     = "HELLO"
)

// Normalize fills in defaults.
// It is allowed to mutate configuration.
// It MUST be called only after Validate().
func Normalize(cfg *Config) {
	if cfg == nil {
		return
	}
	if cfg.Display.FrameMs == 0 {
		cfg.Display.FrameMs = int(iv22.DefaultFrame.Milliseconds())
	}
	if cfg.Heartbeat.PeriodMs == 0 {
		cfg.Heartbeat.PeriodMs = DefaultPeriodMs
	}
	if cfg.Demo.Mode == "" {
		cfg.Demo.Mode = ModeClock
	}
	if cfg.Demo.StepMs == 0 {
		cfg.Demo.StepMs = DefaultStepMs
	}
	if cfg.Demo.Text == "" {
		cfg.Demo.Text = DefaultText
	}
}

// Default returns the pin map of the reference clock board, normalized.
func Default() *Config {
	cfg := &Config{
		Display: DisplayConfig{
			Data:   []string{"GPIO47", "GPIO38", "GPIO21"},
			Clock:  "GPIO36",
			Latch:  "GPIO37",
			Clear:  "GPIO35",
			Enable: []string{"GPIO11", "GPIO12"},
		},
		Heartbeat: HeartbeatConfig{
			Power:     "GPIO1",
			LED:       "GPIO2",
			ActiveLow: true,
		},
	}
	Normalize(cfg)
	return cfg
}
