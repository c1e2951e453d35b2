// Copyright 2026 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

// Package segment maps characters to the segment patterns of an IV-22
// seven-segment vacuum-fluorescent tube.
//
// The segments of a tube are named a through h:
//
//	 |-----a-----|
//	 |           |
//	 b           c
//	 |           |
//	 |-----d-----|
//	 |           |
//	 e           f
//	 |           |
//	 |-----g-----|
//	               h
//
// A Pattern stores segment a in the most significant bit and h, the
// decimal point, in the least significant bit.
package segment

import "strings"

// Pattern is the 8-bit segment encoding of one tube.
type Pattern uint8

// Individual segments.
const (
	A Pattern = 1 << (7 - iota)
	B
	C
	D
	E
	F
	G
	H

	// DP is the decimal point.
	DP = H
	// Blank turns every segment off.
	Blank Pattern = 0
	// All turns every segment on.
	All Pattern = 0xff
)

var digits = [10]Pattern{
	0b11101110, // 0
	0b00100100, // 1
	0b10111010, // 2
	0b10110110, // 3
	0b01110100, // 4
	0b11010110, // 5
	0b11011110, // 6
	0b10100100, // 7
	0b11111110, // 8
	0b11110110, // 9
}

// Some letters cannot be told apart from a digit or another letter on seven
// segments: S is 5, X is H and Z is 2.
var letters = [26]Pattern{
	0b11111100, // A
	0b01011110, // B
	0b11001010, // C
	0b00111110, // D
	0b11011010, // E
	0b11011000, // F
	0b11001110, // G
	0b01111100, // H
	0b01001000, // I
	0b00101110, // J
	0b11011100, // K
	0b01001010, // L
	0b10001100, // M
	0b11101100, // N
	0b00011110, // O
	0b11111000, // P
	0b11110100, // Q
	0b00011000, // R
	0b11010110, // S
	0b01011010, // T
	0b00001110, // U
	0b01101110, // V
	0b01100010, // W
	0b01111100, // X
	0b01110110, // Y
	0b10111010, // Z
}

// Lookup returns the pattern for c and whether c is part of the character
// map. Letters are case-insensitive.
func Lookup(c byte) (Pattern, bool) {
	switch {
	case c >= '0' && c <= '9':
		return digits[c-'0'], true
	case c >= 'A' && c <= 'Z':
		return letters[c-'A'], true
	case c >= 'a' && c <= 'z':
		return letters[c-'a'], true
	}
	return Blank, false
}

// Encode returns the pattern for c. Characters outside 0-9, A-Z and a-z,
// including space, encode as Blank.
func Encode(c byte) Pattern {
	p, _ := Lookup(c)
	return p
}

// Digit returns the pattern of the decimal digit d. Only the last decimal
// digit of d is used.
func Digit(d int) Pattern {
	if d < 0 {
		d = -d
	}
	return digits[d%10]
}

// Dot returns p with the decimal point lit.
func (p Pattern) Dot() Pattern {
	return p | DP
}

// Lit reports whether every segment in seg is lit in p.
func (p Pattern) Lit(seg Pattern) bool {
	return p&seg == seg
}

// String returns the names of the lit segments, e.g. "cf" for the digit 1,
// or "-" when nothing is lit.
func (p Pattern) String() string {
	if p == Blank {
		return "-"
	}
	var sb strings.Builder
	for i, name := range "abcdefgh" {
		if p&(A>>i) != 0 {
			sb.WriteRune(name)
		}
	}
	return sb.String()
}
