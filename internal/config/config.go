// Copyright 2026 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

// Package config reads the pin binding and demo settings of iv22clock from
// YAML.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Display   DisplayConfig   `yaml:"display"`
	Heartbeat HeartbeatConfig `yaml:"heartbeat"`
	Demo      DemoConfig      `yaml:"demo"`
}

// ---- DISPLAY ----

type DisplayConfig struct {
	Data   []string `yaml:"data"` // one SER line per lane
	Clock  string   `yaml:"clock"`
	Latch  string   `yaml:"latch"`
	Clear  string   `yaml:"clear"` // optional
	Enable []string `yaml:"enable"`

	ActiveLow bool `yaml:"active_low"`
	FrameMs   int  `yaml:"frame_ms"`

	// Chip, when set, names a GPIO character device such as "gpiochip0";
	// the display pins are then line offsets on it.
	Chip string `yaml:"chip"`
}

// Frame returns the full refresh cycle.
func (d *DisplayConfig) Frame() time.Duration {
	return time.Duration(d.FrameMs) * time.Millisecond
}

// ---- HEARTBEAT ----

// HeartbeatConfig is optional; with no pins set no LED is driven.
type HeartbeatConfig struct {
	Power     string `yaml:"power"`
	LED       string `yaml:"led"`
	ActiveLow bool   `yaml:"active_low"` // LEDs wired to sink current
	PeriodMs  int    `yaml:"period_ms"`
}

func (h *HeartbeatConfig) Period() time.Duration {
	return time.Duration(h.PeriodMs) * time.Millisecond
}

// ---- DEMO ----

const (
	ModeClock   = "clock"
	ModeCounter = "counter"
	ModeText    = "text"
	ModeScroll  = "scroll"
	ModeButton  = "button"
)

type DemoConfig struct {
	Mode   string `yaml:"mode"`
	Text   string `yaml:"text"`
	StepMs int    `yaml:"step_ms"`
	Button string `yaml:"button"` // button mode only
}

func (d *DemoConfig) Step() time.Duration {
	return time.Duration(d.StepMs) * time.Millisecond
}

// Load reads the file at path. See Parse.
func Load(path string) (*Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	cfg, err := Parse(b)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}

// Parse decodes a YAML document. Unknown keys are errors. It neither
// validates nor fills in defaults.
func Parse(b []byte) (*Config, error) {
	cfg := &Config{}
	dec := yaml.NewDecoder(bytes.NewReader(b))
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
		return nil, err
	}
	return cfg, nil
}
