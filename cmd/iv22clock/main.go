// Copyright 2026 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

// iv22clock drives a clock board of IV-22 tubes.
//
// Without -config it uses the pin map of the reference board. With -sim it
// drives a simulated board and draws the tubes on the terminal instead; -http
// then also serves the tubes as an image stream.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/jonboulle/clockwork"
	"periph.io/x/conn/v3/gpio"

	"github.com/GermanBionicSystems/iv22/internal/config"
	"github.com/GermanBionicSystems/iv22/iv22"
)

// board holds the lines of a real or simulated clock board. Optional lines
// are nil.
type board struct {
	sr     iv22.Shifter
	enable []gpio.PinOut
	power  gpio.PinOut
	led    gpio.PinOut
	button gpio.PinIn
	// run, when set, runs until ctx is done alongside the demo.
	run func(ctx context.Context) error
	// close, when set, releases the lines after the display is halted.
	close func() error
}

func loadConfig(path, mode, text string) (*config.Config, error) {
	cfg := config.Default()
	if path != "" {
		var err error
		if cfg, err = config.Load(path); err != nil {
			return nil, err
		}
	}
	if mode != "" {
		cfg.Demo.Mode = mode
	}
	if text != "" {
		cfg.Demo.Text = text
	}
	if err := config.Validate(cfg); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}
	config.Normalize(cfg)
	return cfg, nil
}

// runTasks runs every task until ctx is done or one fails, and returns the
// first error that is not a cancellation.
func runTasks(ctx context.Context, tasks ...func(ctx context.Context) error) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	var wg sync.WaitGroup
	var once sync.Once
	var first error
	for _, task := range tasks {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := task(ctx); err != nil && !errors.Is(err, context.Canceled) {
				once.Do(func() { first = err })
			}
			cancel()
		}()
	}
	wg.Wait()
	return first
}

func mainImpl() error {
	cfgPath := flag.String("config", "", "YAML configuration file; the reference board when empty")
	sim := flag.Bool("sim", false, "simulate the board and draw the tubes on the terminal")
	httpAddr := flag.String("http", "", "with -sim, serve the tubes as an image stream on this address, e.g. :8022")
	mode := flag.String("mode", "", "demo: clock, counter, text, scroll or button")
	text := flag.String("text", "", "text shown by the text, scroll and button demos")
	flag.Parse()
	if flag.NArg() != 0 {
		return fmt.Errorf("unexpected argument: %v", flag.Args())
	}
	if *httpAddr != "" && !*sim {
		return errors.New("-http requires -sim")
	}

	cfg, err := loadConfig(*cfgPath, *mode, *text)
	if err != nil {
		return err
	}
	var b *board
	if *sim {
		b, err = openSim(cfg, *httpAddr)
	} else {
		b, err = openHardware(cfg)
	}
	if err != nil {
		return err
	}
	if b.close != nil {
		defer func() {
			if err := b.close(); err != nil {
				log.Printf("release lines: %v", err)
			}
		}()
	}

	dev, err := iv22.New(b.sr, b.enable, &iv22.Opts{Frame: cfg.Display.Frame(), ActiveLow: cfg.Display.ActiveLow})
	if err != nil {
		return err
	}
	defer func() {
		if err := dev.Halt(); err != nil {
			log.Printf("halt: %v", err)
		}
	}()
	log.Printf("%s running %s demo", dev, cfg.Demo.Mode)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	clock := clockwork.NewRealClock()
	tasks := []func(context.Context) error{
		func(ctx context.Context) error {
			return heartbeat(ctx, clock, b.power, b.led, cfg.Heartbeat.ActiveLow, cfg.Heartbeat.Period())
		},
		func(ctx context.Context) error {
			return runDemo(ctx, clock, dev, &cfg.Demo, b.button)
		},
	}
	if b.run != nil {
		tasks = append(tasks, b.run)
	}
	err = runTasks(ctx, tasks...)
	log.Printf("stopping after %d refresh ticks, %d failed", dev.Stats().Ticks, dev.Stats().Failures)
	return err
}

func main() {
	log.SetFlags(log.Lmicroseconds)
	if err := mainImpl(); err != nil {
		log.Fatalf("iv22clock: %v", err)
	}
}
