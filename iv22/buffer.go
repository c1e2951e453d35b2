// Copyright 2026 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package iv22

import (
	"errors"
	"strconv"
	"strings"
	"sync/atomic"
	"unicode/utf8"

	"github.com/GermanBionicSystems/iv22/segment"
)

// ErrNegative is returned by SetNumber for values below zero.
var ErrNegative = errors.New("iv22: negative numbers cannot be shown")

// snapshot is one immutable version of the display contents.
type snapshot struct {
	chars []byte
	dots  []bool
}

// Buffer holds the characters shown on the display, one cell per tube.
//
// Writers build a new snapshot and swap it in, so a reader always sees one
// complete version of the contents and never waits for a writer.
type Buffer struct {
	cells int
	cur   atomic.Pointer[snapshot]
}

// NewBuffer returns a blank buffer of the given number of cells.
func NewBuffer(cells int) *Buffer {
	b := &Buffer{cells: cells}
	b.cur.Store(b.blank())
	return b
}

func (b *Buffer) blank() *snapshot {
	s := &snapshot{chars: make([]byte, b.cells), dots: make([]bool, b.cells)}
	for ix := range s.chars {
		s.chars[ix] = ' '
	}
	return s
}

// Cells returns the number of cells.
func (b *Buffer) Cells() int {
	return b.cells
}

// cell is one tube: a character plus its decimal point.
type cell struct {
	c   byte
	dot bool
}

func (c cell) String() string {
	if c.dot {
		return string(c.c) + "."
	}
	return string(c.c)
}

// splitCells breaks text into cells. A '.' lights the decimal point of the
// cell before it; a leading or repeated '.' takes a blank cell of its own.
// Characters outside ASCII take one blank cell each.
func splitCells(text string) []cell {
	var cells []cell
	prev := rune(0)
	for _, r := range text {
		switch {
		case r == '.' && prev != '.' && len(cells) != 0:
			cells[len(cells)-1].dot = true
		case r == '.':
			cells = append(cells, cell{c: ' ', dot: true})
		case r < utf8.RuneSelf:
			cells = append(cells, cell{c: byte(r)})
		default:
			cells = append(cells, cell{c: ' '})
		}
		prev = r
	}
	return cells
}

// SetText replaces the contents with text, filled from the first cell on.
// A '.' lights the decimal point of the cell before it; a leading or
// repeated '.' takes a blank cell of its own. Text beyond the last cell is
// dropped and unused cells are blank.
func (b *Buffer) SetText(text string) {
	s := b.blank()
	for ix, c := range splitCells(text) {
		if ix == b.cells {
			break
		}
		s.chars[ix] = c.c
		s.dots[ix] = c.dot
	}
	b.cur.Store(s)
}

// SetNumber shows n right-aligned. Only the least significant digits that
// fit are kept.
func (b *Buffer) SetNumber(n int) error {
	if n < 0 {
		return ErrNegative
	}
	digits := strconv.Itoa(n)
	if len(digits) > b.cells {
		digits = digits[len(digits)-b.cells:]
	}
	b.SetText(strings.Repeat(" ", b.cells-len(digits)) + digits)
	return nil
}

// Clear blanks every cell.
func (b *Buffer) Clear() {
	b.cur.Store(b.blank())
}

// Text returns the current contents, with '.' after cells whose decimal
// point is lit.
func (b *Buffer) Text() string {
	s := b.cur.Load()
	var sb strings.Builder
	for ix, c := range s.chars {
		sb.WriteString(cell{c: c, dot: s.dots[ix]}.String())
	}
	return sb.String()
}

// patterns encodes the cells of one position into dst, one per lane. Cell
// l*positions+position belongs to lane l. It loads the snapshot exactly once.
func (b *Buffer) patterns(dst []byte, position, positions int) {
	s := b.cur.Load()
	for l := range dst {
		ix := l*positions + position
		p := segment.Encode(s.chars[ix])
		if s.dots[ix] {
			p = p.Dot()
		}
		dst[l] = byte(p)
	}
}
