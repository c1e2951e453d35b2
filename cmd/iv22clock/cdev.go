// Copyright 2026 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package main

import (
	"errors"
	"fmt"
	"strconv"

	"github.com/warthog618/go-gpiocdev"
	"periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/physic"
)

// cdevLine is an output line of a GPIO character device, e.g.
// /dev/gpiochip0, requested through the kernel uAPI.
type cdevLine struct {
	line   *gpiocdev.Line
	chip   string
	offset int
}

// openCdevLine requests line offset of chip as an output driven low.
func openCdevLine(chip, offset string) (*cdevLine, error) {
	n, err := strconv.Atoi(offset)
	if err != nil {
		return nil, fmt.Errorf("%s: line %q is not an offset", chip, offset)
	}
	l, err := gpiocdev.RequestLine(chip, n, gpiocdev.AsOutput(0), gpiocdev.WithConsumer("iv22clock"))
	if err != nil {
		return nil, fmt.Errorf("%s: line %d: %w", chip, n, err)
	}
	return &cdevLine{line: l, chip: chip, offset: n}, nil
}

func (c *cdevLine) String() string {
	return fmt.Sprintf("%s:%d", c.chip, c.offset)
}

// Halt releases the line.
func (c *cdevLine) Halt() error {
	return c.line.Close()
}

func (c *cdevLine) Name() string {
	return c.String()
}

func (c *cdevLine) Number() int {
	return c.offset
}

func (c *cdevLine) Function() string {
	return "Out"
}

func (c *cdevLine) Out(l gpio.Level) error {
	v := 0
	if l {
		v = 1
	}
	return c.line.SetValue(v)
}

func (c *cdevLine) PWM(gpio.Duty, physic.Frequency) error {
	return errors.New("gpiocdev: PWM not supported")
}

var _ gpio.PinOut = &cdevLine{}

// cdevLines opens the display lines on chip. On failure the lines already
// opened are released.
type cdevLines []*cdevLine

func (c *cdevLines) open(chip, offset string) (gpio.PinOut, error) {
	if offset == "" {
		return nil, nil
	}
	l, err := openCdevLine(chip, offset)
	if err != nil {
		return nil, err
	}
	*c = append(*c, l)
	return l, nil
}

func (c cdevLines) close() error {
	var errs []error
	for _, l := range c {
		errs = append(errs, l.Halt())
	}
	return errors.Join(errs...)
}
