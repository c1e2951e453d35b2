// Copyright 2026 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package iv22

import (
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/GermanBionicSystems/iv22/segment"
)

func TestSetText(t *testing.T) {
	for _, tc := range []struct {
		in   string
		want string
	}{
		{"", "      "},
		{"AB", "AB    "},
		{"ABCDEF", "ABCDEF"},
		{"ABCDEFGH", "ABCDEF"},
		{"1.5", "1.5    "},
		{".5", " .5    "},
		{"1..5", "1. .5   "},
		{"123456.", "123456."},
		{"1234567.", "123456"},
		{"a-b", "a-b   "},
		{"é1", " 1    "},
		{"°C.", " C.    "},
		{"日本8.8", "  8.8  "},
	} {
		t.Run(tc.in, func(t *testing.T) {
			b := NewBuffer(6)
			b.SetText(tc.in)
			if got := b.Text(); got != tc.want {
				t.Errorf("SetText(%q) expected %q found %q", tc.in, tc.want, got)
			}
		})
	}
}

func TestSetNumber(t *testing.T) {
	for _, tc := range []struct {
		n    int
		want string
	}{
		{0, " 0"},
		{7, " 7"},
		{42, "42"},
		{1234, "34"},
	} {
		b := NewBuffer(2)
		if err := b.SetNumber(tc.n); err != nil {
			t.Fatal(err)
		}
		if got := b.Text(); got != tc.want {
			t.Errorf("SetNumber(%d) expected %q found %q", tc.n, tc.want, got)
		}
	}
	b := NewBuffer(2)
	b.SetText("OK")
	if err := b.SetNumber(-1); !errors.Is(err, ErrNegative) {
		t.Errorf("expected ErrNegative found %v", err)
	}
	if got := b.Text(); got != "OK" {
		t.Errorf("a rejected number changed the display to %q", got)
	}
	b.Clear()
	if got := b.Text(); got != "  " {
		t.Errorf("Clear() left %q", got)
	}
}

func TestPatterns(t *testing.T) {
	b := NewBuffer(4)
	b.SetText("7.?Hx")
	dst := make([]byte, 2)
	b.patterns(dst, 0, 2)
	want := []byte{byte(segment.Encode('7').Dot()), byte(segment.Encode('H'))}
	if diff := cmp.Diff(dst, want); diff != "" {
		t.Errorf("position 0 (-got +want):\n%s", diff)
	}
	b.patterns(dst, 1, 2)
	want = []byte{byte(segment.Blank), byte(segment.Encode('X'))}
	if diff := cmp.Diff(dst, want); diff != "" {
		t.Errorf("position 1 (-got +want):\n%s", diff)
	}
}

func TestMarquee(t *testing.T) {
	m := NewMarquee("HELLO", 2)
	got := []string{m.Window()}
	for range 7 {
		got = append(got, m.Next())
	}
	want := []string{"HE", "EL", "LL", "LO", "O ", " H", "HE", "EL"}
	if diff := cmp.Diff(got, want); diff != "" {
		t.Errorf("marquee (-got +want):\n%s", diff)
	}

	dots := NewMarquee("1.2.3", 2)
	got = []string{dots.Window()}
	for range 4 {
		got = append(got, dots.Next())
	}
	want = []string{"1.2.", "2.3", "3 ", " 1.", "1.2."}
	if diff := cmp.Diff(got, want); diff != "" {
		t.Errorf("dotted marquee (-got +want):\n%s", diff)
	}
	b := NewBuffer(2)
	for _, w := range got {
		b.SetText(w)
		if b.Text() != w {
			t.Errorf("window %q shown as %q", w, b.Text())
		}
	}

	if NewMarquee("é1", 2).Scrolls() {
		t.Error("a non-ASCII character should take one cell")
	}

	short := NewMarquee("HI", 6)
	if short.Scrolls() || short.Next() != "HI" || short.Window() != "HI" {
		t.Error("text that fits should not scroll")
	}
}
