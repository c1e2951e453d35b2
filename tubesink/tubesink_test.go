// Copyright 2026 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package tubesink

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"io"
	"mime"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"regexp"
	"strconv"
	"testing"
	"time"

	"github.com/GermanBionicSystems/iv22/segment"
)

func newSink(t *testing.T, opt Options) *Sink {
	t.Helper()
	s, err := New(&opt)
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = s.Halt() })
	return s
}

func TestNewInvalid(t *testing.T) {
	if _, err := New(&Options{Lanes: 0, Positions: 2}); err == nil {
		t.Error("expected error for zero lanes")
	}
}

func TestRender(t *testing.T) {
	glow := color.NRGBA{0, 0xff, 0, 0xff}
	s := newSink(t, Options{Lanes: 1, Positions: 2, CellWidth: 60, CellHeight: 100, Glow: glow})
	if got, want := s.Bounds(), image.Rect(0, 0, 120, 100); got != want {
		t.Fatalf("Bounds() = %v, want %v", got, want)
	}
	// The middle of segment d of the left tube.
	at := func() color.Color { return s.Render().At(30, 41) }
	if isGlow(at()) {
		t.Fatal("blank tube has a lit segment")
	}
	if err := s.Set(0, segment.D); err != nil {
		t.Fatal(err)
	}
	if !isGlow(at()) {
		t.Errorf("segment d not lit, found %v", at())
	}
	if err := s.SetLanes(0, []byte{0}); err != nil {
		t.Fatal(err)
	}
	if isGlow(at()) {
		t.Error("segment d still lit")
	}
}

func isGlow(c color.Color) bool {
	r, g, b, _ := c.RGBA()
	return g > 0xf000 && r < 0x1000 && b < 0x1000
}

func TestSetRange(t *testing.T) {
	s := newSink(t, Options{Lanes: 2, Positions: 2})
	if err := s.Set(4, segment.All); err == nil {
		t.Error("expected error for cell 4")
	}
	if err := s.SetLanes(2, []byte{1}); err == nil {
		t.Error("expected error for position 2")
	}
	if err := s.SetLanes(0, []byte{1, 2, 3}); err == nil {
		t.Error("expected error for 3 lanes")
	}
	if got := s.label(3); got != "B1" {
		t.Errorf("label(3) = %q", got)
	}
}

func TestParseImageFormat(t *testing.T) {
	for _, tc := range []struct {
		in      string
		want    ImageFormat
		wantErr bool
	}{
		{"", PNG, false},
		{"png", PNG, false},
		{"jpg", JPEG, false},
		{"jpeg", JPEG, false},
		{"bmp", DefaultFormat, true},
	} {
		got, err := ParseImageFormat(tc.in)
		if got != tc.want || (err != nil) != tc.wantErr {
			t.Errorf("ParseImageFormat(%q) = %v, %v", tc.in, got, err)
		}
	}
	if got := ImageFormat(-1).mimeType(); got != "application/octet-stream" {
		t.Errorf("mimeType() = %q", got)
	}
}

var boundaryRe = regexp.MustCompile(`^[a-f0-9]{60}$`)

func TestBoundary(t *testing.T) {
	for i := 0; i < 100; i++ {
		if got := newBoundary(); !boundaryRe.MatchString(got) {
			t.Errorf("boundary must match %q: %s", boundaryRe.String(), got)
		}
	}
}

func TestStream(t *testing.T) {
	for _, tc := range []struct {
		format        ImageFormat
		target        string
		wantMediaType string
	}{
		{PNG, "/", "image/png"},
		{JPEG, "/", "image/jpeg"},
		{JPEG, "/?format=png", "image/png"},
		{PNG, "/?format=jpeg", "image/jpeg"},
	} {
		t.Run(fmt.Sprint(tc.format, tc.target), func(t *testing.T) {
			ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
			t.Cleanup(cancel)
			s := newSink(t, Options{Lanes: 3, Positions: 2, CellWidth: 30, CellHeight: 50, Format: tc.format})
			srv := httptest.NewServer(s)
			t.Cleanup(srv.Close)

			req, err := http.NewRequestWithContext(ctx, http.MethodGet, srv.URL+tc.target, nil)
			if err != nil {
				t.Fatal(err)
			}
			resp, err := srv.Client().Do(req)
			if err != nil {
				t.Fatal(err)
			}
			defer resp.Body.Close()
			mediaType, params, err := mime.ParseMediaType(resp.Header.Get("Content-Type"))
			if err != nil || mediaType != "multipart/x-mixed-replace" {
				t.Fatalf("Content-Type %q, %v", mediaType, err)
			}
			mr := multipart.NewReader(resp.Body, params["boundary"])

			// The first frame is sent at once, the second one after a change.
			for i := 0; i < 2; i++ {
				part, err := mr.NextPart()
				if err != nil {
					t.Fatalf("NextPart() failed: %v", err)
				}
				img := decodePart(t, part, tc.wantMediaType)
				if got, want := img.Bounds().Size(), (image.Point{180, 50}); got != want {
					t.Errorf("image size %v, want %v", got, want)
				}
				if i == 0 {
					if err := s.SetLanes(1, []byte{0xff, 0xff, 0xff}); err != nil {
						t.Fatal(err)
					}
				}
			}
			if err := s.Halt(); err != nil {
				t.Fatal(err)
			}
		})
	}
}

func decodePart(t *testing.T, part *multipart.Part, wantMediaType string) image.Image {
	t.Helper()
	defer part.Close()
	if got := part.Header.Get("Content-Type"); got != wantMediaType {
		t.Fatalf("part Content-Type %q, want %q", got, wantMediaType)
	}
	content, err := io.ReadAll(part)
	if err != nil {
		t.Fatal(err)
	}
	if n, err := strconv.Atoi(part.Header.Get("Content-Length")); err != nil || n != len(content) {
		t.Errorf("read %d bytes, Content-Length %q", len(content), part.Header.Get("Content-Length"))
	}
	decode := png.Decode
	if wantMediaType == "image/jpeg" {
		decode = jpeg.Decode
	}
	img, err := decode(bytes.NewReader(content))
	if err != nil {
		t.Fatalf("decoding failed: %v", err)
	}
	return img
}

func TestMethodNotAllowed(t *testing.T) {
	s := newSink(t, Options{Lanes: 1, Positions: 1})
	srv := httptest.NewServer(s)
	t.Cleanup(srv.Close)
	resp, err := srv.Client().Post(srv.URL, "text/plain", nil)
	if err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusMethodNotAllowed {
		t.Errorf("status %d", resp.StatusCode)
	}
	resp, err = srv.Client().Get(srv.URL + "/?format=bmp")
	if err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("status %d", resp.StatusCode)
	}
}
