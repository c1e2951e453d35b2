// Copyright 2026 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package iv22

import "strings"

// Marquee is a window of width cells sliding over text, right to left. The
// text wraps around with one blank cell between the end and the start. Cells
// are counted the way Buffer.SetText fills them, so a '.' rides along with
// the character before it.
type Marquee struct {
	loop  []cell
	n     int
	width int
	pos   int
}

// NewMarquee returns a Marquee showing the start of text.
func NewMarquee(text string, width int) *Marquee {
	cells := splitCells(text)
	m := &Marquee{loop: cells, n: len(cells), width: width}
	if m.Scrolls() {
		m.loop = append(append(append([]cell(nil), cells...), cell{c: ' '}), cells...)
	}
	return m
}

// Scrolls reports whether the text is wider than the window.
func (m *Marquee) Scrolls() bool {
	return m.n > m.width
}

// Window returns the visible part of the text.
func (m *Marquee) Window() string {
	w := m.loop
	if m.Scrolls() {
		w = w[m.pos : m.pos+m.width]
	}
	var sb strings.Builder
	for _, c := range w {
		sb.WriteString(c.String())
	}
	return sb.String()
}

// Next moves the window one cell to the right and returns it.
func (m *Marquee) Next() string {
	if m.Scrolls() {
		m.pos = (m.pos + 1) % (m.n + 1)
	}
	return m.Window()
}
