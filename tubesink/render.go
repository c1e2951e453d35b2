// Copyright 2026 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package tubesink

import (
	"fmt"
	"image"

	"github.com/fogleman/gg"

	"github.com/GermanBionicSystems/iv22/segment"
)

// stroke is one segment as a line between two corners of the digit. Corners
// are numbered left to right, top to bottom: 0 1 top, 2 3 middle, 4 5 bottom.
type stroke struct {
	seg      segment.Pattern
	from, to int
}

var strokes = []stroke{
	{segment.A, 0, 1},
	{segment.B, 0, 2},
	{segment.C, 1, 3},
	{segment.D, 2, 3},
	{segment.E, 2, 4},
	{segment.F, 3, 5},
	{segment.G, 4, 5},
}

func (s *Sink) renderLocked() image.Image {
	b := s.Bounds()
	dc := gg.NewContext(b.Dx(), b.Dy())
	dc.SetRGB(0, 0, 0)
	dc.Clear()
	dc.SetFontFace(s.face)
	dc.SetLineCapRound()
	for ix, p := range s.cells {
		s.drawTube(dc, float64(ix*s.cellW), p)
		dc.SetRGB(0.5, 0.5, 0.5)
		dc.DrawStringAnchored(s.label(ix), float64(ix*s.cellW)+float64(s.cellW)/2, float64(s.cellH)*0.92, 0.5, 0.5)
	}
	return dc.Image()
}

// drawTube draws the glass and the digit of the tube whose left edge is x.
func (s *Sink) drawTube(dc *gg.Context, x float64, p segment.Pattern) {
	w, h := float64(s.cellW), float64(s.cellH)
	dc.SetRGB(0.08, 0.08, 0.1)
	dc.DrawRoundedRectangle(x+w*0.05, h*0.02, w*0.9, h*0.8, w*0.2)
	dc.Fill()

	left, right := x+w*0.3, x+w*0.7
	top, bottom := h*0.15, h*0.67
	mid := (top + bottom) / 2
	corners := [6][2]float64{
		{left, top}, {right, top},
		{left, mid}, {right, mid},
		{left, bottom}, {right, bottom},
	}
	dc.SetLineWidth(w / 12)
	for _, st := range strokes {
		s.setSegmentColor(dc, p, st.seg)
		a, b := corners[st.from], corners[st.to]
		dc.DrawLine(a[0], a[1], b[0], b[1])
		dc.Stroke()
	}
	s.setSegmentColor(dc, p, segment.H)
	dc.DrawCircle(right+w*0.12, bottom, w/18)
	dc.Fill()
}

func (s *Sink) setSegmentColor(dc *gg.Context, p, seg segment.Pattern) {
	if p.Lit(seg) {
		dc.SetColor(s.glow)
	} else {
		dc.SetColor(s.dim)
	}
}

// label names a tube by lane letter and position, "A0" being the left tube
// of the first lane.
func (s *Sink) label(cell int) string {
	return fmt.Sprintf("%c%d", 'A'+cell/s.positions, cell%s.positions)
}
