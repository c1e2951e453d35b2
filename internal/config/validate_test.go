// Copyright 2026 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
)

// helper to build a valid two-position, three-lane configuration
func board() *Config {
	return &Config{
		Display: DisplayConfig{
			Data:   []string{"D0", "D1", "D2"},
			Clock:  "CLK",
			Latch:  "LAT",
			Clear:  "CLR",
			Enable: []string{"EN0", "EN1"},
		},
	}
}

// chipOffsets moves the display to a character device.
func chipOffsets(c *Config) {
	c.Display.Chip = "gpiochip0"
	c.Display.Data = []string{"47", "38", "21"}
	c.Display.Clock = "36"
	c.Display.Latch = "37"
	c.Display.Clear = "35"
	c.Display.Enable = []string{"11", "12"}
}

// ---- tests ----

func TestValidate(t *testing.T) {
	for _, tc := range []struct {
		name    string
		mutate  func(c *Config)
		wantErr string
	}{
		{"valid", func(c *Config) {}, ""},
		{"no clear line", func(c *Config) { c.Display.Clear = "" }, ""},
		{"one lane", func(c *Config) { c.Display.Data = c.Display.Data[:1] }, ""},
		{"no lanes", func(c *Config) { c.Display.Data = nil }, "data lines"},
		{"four lanes", func(c *Config) { c.Display.Data = append(c.Display.Data, "D3") }, "data lines"},
		{"empty data pin", func(c *Config) { c.Display.Data[1] = "" }, "data line 1"},
		{"no enable", func(c *Config) { c.Display.Enable = nil }, "enable line"},
		{"empty enable pin", func(c *Config) { c.Display.Enable[0] = "" }, "enable line 0"},
		{"no clock", func(c *Config) { c.Display.Clock = "" }, "clock and latch"},
		{"frame 16ms", func(c *Config) { c.Display.FrameMs = 16 }, ""},
		{"frame too slow", func(c *Config) { c.Display.FrameMs = 17 }, "frame_ms"},
		{"frame negative", func(c *Config) { c.Display.FrameMs = -1 }, "frame_ms"},
		{"frame too short", func(c *Config) { c.Display.FrameMs = 1 }, "too short"},
		{"shared pin", func(c *Config) { c.Display.Latch = "D1" }, "pin D1 used by both display.data[1] and display.latch"},
		{"heartbeat on enable", func(c *Config) { c.Heartbeat.LED = "EN1" }, "heartbeat.led"},
		{"negative period", func(c *Config) { c.Heartbeat.PeriodMs = -5 }, "period_ms"},
		{"scroll", func(c *Config) { c.Demo.Mode = ModeScroll }, ""},
		{"button", func(c *Config) { c.Demo.Mode = ModeButton; c.Demo.Button = "BTN" }, ""},
		{"button without pin", func(c *Config) { c.Demo.Mode = ModeButton }, "button pin"},
		{"unknown mode", func(c *Config) { c.Demo.Mode = "disco" }, `unknown mode "disco"`},
		{"negative step", func(c *Config) { c.Demo.StepMs = -1 }, "step_ms"},
		{"chip offsets", func(c *Config) { chipOffsets(c) }, ""},
		{"chip with names", func(c *Config) { chipOffsets(c); c.Display.Latch = "GPIO37" }, `display.latch: "GPIO37" is not a line offset`},
		{"chip negative offset", func(c *Config) { chipOffsets(c); c.Display.Enable[1] = "-2" }, "display.enable[1]"},
		{"chip heartbeat by name", func(c *Config) { chipOffsets(c); c.Heartbeat.LED = "GPIO2" }, ""},
	} {
		t.Run(tc.name, func(t *testing.T) {
			cfg := board()
			tc.mutate(cfg)
			err := Validate(cfg)
			if tc.wantErr == "" {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tc.wantErr) {
				t.Fatalf("expected error containing %q, got %v", tc.wantErr, err)
			}
		})
	}
}

func TestValidate_DoesNotMutate(t *testing.T) {
	cfg := board()
	if err := Validate(cfg); err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff(cfg, board()); diff != "" {
		t.Fatalf("Validate() changed the configuration (-got +want):\n%s", diff)
	}
}

func TestNormalize(t *testing.T) {
	cfg := board()
	Normalize(cfg)
	if got := cfg.Display.Frame(); got != 16*time.Millisecond {
		t.Errorf("frame %s", got)
	}
	if got := cfg.Heartbeat.Period(); got != time.Second {
		t.Errorf("period %s", got)
	}
	if cfg.Demo.Mode != ModeClock || cfg.Demo.Step() != 400*time.Millisecond || cfg.Demo.Text != DefaultText {
		t.Errorf("demo %+v", cfg.Demo)
	}
	if err := Validate(cfg); err != nil {
		t.Fatalf("normalized configuration is invalid: %v", err)
	}
	Normalize(nil)
}

func TestDefault(t *testing.T) {
	if err := Validate(Default()); err != nil {
		t.Fatal(err)
	}
}

const sample = `
display:
  data: ["GPIO47", "GPIO38", "GPIO21"]
  clock: "GPIO36"
  latch: "GPIO37"
  clear: "GPIO35"
  enable: ["GPIO11", "GPIO12"]
  active_low: true
  frame_ms: 12
heartbeat:
  power: "GPIO1"
  led: "GPIO2"
  active_low: true
  period_ms: 500
demo:
  mode: button
  text: "IV-22 CLOCK"
  button: "GPIO0"
`

func TestLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "iv22.yaml")
	if err := os.WriteFile(path, []byte(sample), 0o600); err != nil {
		t.Fatal(err)
	}
	cfg, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	want := &Config{
		Display: DisplayConfig{
			Data:      []string{"GPIO47", "GPIO38", "GPIO21"},
			Clock:     "GPIO36",
			Latch:     "GPIO37",
			Clear:     "GPIO35",
			Enable:    []string{"GPIO11", "GPIO12"},
			ActiveLow: true,
			FrameMs:   12,
		},
		Heartbeat: HeartbeatConfig{Power: "GPIO1", LED: "GPIO2", ActiveLow: true, PeriodMs: 500},
		Demo:      DemoConfig{Mode: ModeButton, Text: "IV-22 CLOCK", Button: "GPIO0"},
	}
	if diff := cmp.Diff(cfg, want); diff != "" {
		t.Fatalf("Load() (-got +want):\n%s", diff)
	}
	if err := Validate(cfg); err != nil {
		t.Fatal(err)
	}
}

func TestParse(t *testing.T) {
	if _, err := Parse([]byte("display:\n  colour: red\n")); err == nil {
		t.Error("expected error for an unknown key")
	}
	cfg, err := Parse(nil)
	if err != nil {
		t.Fatalf("empty document: %v", err)
	}
	if diff := cmp.Diff(cfg, &Config{}); diff != "" {
		t.Errorf("empty document (-got +want):\n%s", diff)
	}
	if _, err := Load(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Error("expected error for a missing file")
	}
}
