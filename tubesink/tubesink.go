// Copyright 2026 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

// Package tubesink renders a row of IV-22 tubes to an image and serves it as
// an HTTP image stream. Every client gets the current picture and a new one
// on each change.
//
// It is meant for developing clock faces on a host without tubes attached.
// The stream is "MJPEG" (https://en.wikipedia.org/wiki/Motion_JPEG) made of
// PNG frames by default; JPEG can be chosen with Options.Format or the
// "format" URL parameter.
package tubesink

import (
	"errors"
	"fmt"
	"image"
	"image/color"
	"net/http"
	"sync"

	"github.com/golang/freetype/truetype"
	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/goregular"

	"github.com/GermanBionicSystems/iv22/segment"
)

// Options for a Sink.
type Options struct {
	// Lanes and Positions give the display geometry. Cell
	// lane*Positions+position is drawn at that index from the left.
	Lanes, Positions int
	// CellWidth and CellHeight are the size of one tube in pixels. Zero
	// means 60x100.
	CellWidth, CellHeight int
	// Format specifies the image format to send to clients.
	Format ImageFormat
	// Glow and Dim color the lit and unlit segments.
	Glow, Dim color.Color
}

// Sink holds the patterns shown on the emulated tubes.
type Sink struct {
	positions     int
	cellW, cellH  int
	glow, dim     color.Color
	defaultFormat ImageFormat

	mu      sync.Mutex
	cells   []segment.Pattern
	face    font.Face
	img     image.Image
	clients map[*client]struct{}
	encoded map[ImageFormat][]byte
}

var _ http.Handler = (*Sink)(nil)

// New returns a Sink with every tube blank.
func New(opt *Options) (*Sink, error) {
	if opt.Lanes <= 0 || opt.Positions <= 0 {
		return nil, errors.New("tubesink: need at least one lane and one position")
	}
	f, err := truetype.Parse(goregular.TTF)
	if err != nil {
		return nil, fmt.Errorf("tubesink: font: %w", err)
	}
	s := &Sink{
		positions:     opt.Positions,
		cellW:         opt.CellWidth,
		cellH:         opt.CellHeight,
		glow:          opt.Glow,
		dim:           opt.Dim,
		defaultFormat: opt.Format,
		cells:         make([]segment.Pattern, opt.Lanes*opt.Positions),
		clients:       map[*client]struct{}{},
		encoded:       map[ImageFormat][]byte{},
	}
	if s.cellW <= 0 || s.cellH <= 0 {
		s.cellW, s.cellH = 60, 100
	}
	if s.glow == nil {
		s.glow = color.NRGBA{0x40, 0xff, 0xc0, 0xff}
	}
	if s.dim == nil {
		s.dim = color.NRGBA{0x1c, 0x2a, 0x26, 0xff}
	}
	s.face = truetype.NewFace(f, &truetype.Options{Size: float64(s.cellH) / 8})
	s.img = s.renderLocked()
	return s, nil
}

// String returns the name of the device.
func (s *Sink) String() string {
	return fmt.Sprintf("TubeSink{%d}", len(s.cells))
}

// Halt implements conn.Resource and ends every running stream.
func (s *Sink) Halt() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for c := range s.clients {
		select {
		case c.terminate <- struct{}{}:
		default:
		}
	}
	return nil
}

// Bounds returns the size of the rendered image.
func (s *Sink) Bounds() image.Rectangle {
	return image.Rect(0, 0, len(s.cells)*s.cellW, s.cellH)
}

// Set shows p on one tube.
func (s *Sink) Set(cell int, p segment.Pattern) error {
	if cell < 0 || cell >= len(s.cells) {
		return fmt.Errorf("tubesink: cell %d out of range", cell)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cells[cell] != p {
		s.cells[cell] = p
		s.changedLocked()
	}
	return nil
}

// SetLanes shows the patterns latched while position was enabled, one per
// lane.
func (s *Sink) SetLanes(position int, lanes []byte) error {
	if position < 0 || position >= s.positions {
		return fmt.Errorf("tubesink: position %d out of range", position)
	}
	if len(lanes)*s.positions > len(s.cells) {
		return fmt.Errorf("tubesink: %d lanes out of range", len(lanes))
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	changed := false
	for l, v := range lanes {
		ix := l*s.positions + position
		if s.cells[ix] != segment.Pattern(v) {
			s.cells[ix] = segment.Pattern(v)
			changed = true
		}
	}
	if changed {
		s.changedLocked()
	}
	return nil
}

// Render returns the current picture. It must not be modified.
func (s *Sink) Render() image.Image {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.img
}

// changedLocked redraws the picture, drops the encoded frames and wakes up
// every client.
func (s *Sink) changedLocked() {
	s.img = s.renderLocked()
	clear(s.encoded)
	for c := range s.clients {
		select {
		case c.refresh <- struct{}{}:
		default:
		}
	}
}
