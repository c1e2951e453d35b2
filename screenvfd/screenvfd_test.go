// Copyright 2026 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package screenvfd

import (
	"bytes"
	"image/color"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/maruel/ansi256"

	"github.com/GermanBionicSystems/iv22/segment"
)

func TestSet(t *testing.T) {
	d, err := New(&Opts{Lanes: 3, Positions: 2, W: &bytes.Buffer{}})
	if err != nil {
		t.Fatal(err)
	}
	if err := d.Set(1, []byte{1, 2, 3}); err != nil {
		t.Fatal(err)
	}
	want := []segment.Pattern{0, 1, 0, 2, 0, 3}
	if diff := cmp.Diff(d.Cells(), want); diff != "" {
		t.Errorf("cells (-got +want):\n%s", diff)
	}
	if err := d.Set(2, []byte{1}); err == nil {
		t.Error("expected error for position 2")
	}
	if err := d.Set(0, []byte{1, 2, 3, 4}); err == nil {
		t.Error("expected error for 4 lanes")
	}
	if _, err := New(&Opts{Lanes: 1}); err == nil {
		t.Error("expected error without positions")
	}
}

func TestRefresh(t *testing.T) {
	buf := bytes.Buffer{}
	d, err := New(&Opts{Lanes: 1, Positions: 2, W: &buf})
	if err != nil {
		t.Fatal(err)
	}
	if err := d.Set(0, []byte{byte(segment.Encode('1'))}); err != nil {
		t.Fatal(err)
	}
	if err := d.Set(1, []byte{byte(segment.Encode('8').Dot())}); err != nil {
		t.Fatal(err)
	}
	if err := d.Refresh(); err != nil {
		t.Fatal(err)
	}
	out := buf.String()
	if !strings.HasSuffix(out, "\033[3A") {
		t.Errorf("cursor not moved back up: %q", out)
	}
	if got := strings.Count(out, "\n"); got != 3 {
		t.Errorf("expected 3 rows, found %d", got)
	}
	// '1' lights c and f, 2 of the 8 cells; "8." lights all 8.
	lit := ansi256.Default.Block(defaultLit)
	if got := strings.Count(out, lit); got != 10 {
		t.Errorf("expected 10 lit cells, found %d in %q", got, out)
	}

	buf.Reset()
	if err := d.Halt(); err != nil {
		t.Fatal(err)
	}
	if got := buf.String(); got != "\n\033[0m" {
		t.Errorf("Halt() wrote %q", got)
	}
}

func TestColors(t *testing.T) {
	buf := bytes.Buffer{}
	red := color.RGBA{R: 0xff, A: 0xff}
	d, err := New(&Opts{Lanes: 1, Positions: 1, W: &buf, Lit: red, Unlit: color.Black})
	if err != nil {
		t.Fatal(err)
	}
	if err := d.Set(0, []byte{byte(segment.Encode('1'))}); err != nil {
		t.Fatal(err)
	}
	if err := d.Refresh(); err != nil {
		t.Fatal(err)
	}
	lit := ansi256.Default.Block(color.NRGBA{R: 0xff, A: 0xff})
	if got := strings.Count(buf.String(), lit); got != 2 {
		t.Errorf("expected 2 red cells, found %d in %q", got, buf.String())
	}
}

func TestString(t *testing.T) {
	d, err := New(&Opts{Lanes: 3, Positions: 2, W: &bytes.Buffer{}})
	if err != nil {
		t.Fatal(err)
	}
	if s := d.String(); s != "ScreenVFD{6}" {
		t.Fatal(s)
	}
}
