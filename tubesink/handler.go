// Copyright 2026 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package tubesink

import (
	"log"
	"mime"
	"net/http"
	"net/textproto"
)

type client struct {
	refresh   chan struct{}
	terminate chan struct{}
}

// frame returns the current picture encoded as f. Encodings are cached until
// the next change.
func (s *Sink) frame(f ImageFormat) ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if b, ok := s.encoded[f]; ok {
		return b, nil
	}
	b, err := encode(s.img, f)
	if err != nil {
		return nil, err
	}
	s.encoded[f] = b
	return b, nil
}

func (s *Sink) register() *client {
	c := &client{
		refresh:   make(chan struct{}, 1),
		terminate: make(chan struct{}, 1),
	}
	s.mu.Lock()
	s.clients[c] = struct{}{}
	s.mu.Unlock()
	return c
}

func (s *Sink) unregister(c *client) {
	s.mu.Lock()
	delete(s.clients, c)
	s.mu.Unlock()
}

// ServeHTTP answers GET requests with a never ending stream of pictures of
// the tubes, one per change. "?format=png" and "?format=jpeg" override
// Options.Format.
func (s *Sink) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "", http.StatusMethodNotAllowed)
		return
	}
	f := s.defaultFormat
	if v := r.URL.Query().Get("format"); v != "" {
		var err error
		if f, err = ParseImageFormat(v); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
	}

	pw := newPartWriter(w)
	w.Header().Set("Content-Type",
		mime.FormatMediaType("multipart/x-mixed-replace", map[string]string{
			"boundary": pw.boundary,
		}))

	c := s.register()
	defer s.unregister(c)

	header := textproto.MIMEHeader{}
	header.Set("Content-Type", f.mimeType())
	for {
		payload, err := s.frame(f)
		if err != nil {
			log.Printf("tubesink: encoding %s failed: %v", f, err)
			return
		}
		// A failed write means the client went away.
		if err := pw.writeFrame(header, payload); err != nil {
			return
		}
		if flusher, ok := w.(http.Flusher); ok {
			flusher.Flush()
		}
		select {
		case <-c.refresh:
		case <-c.terminate:
			return
		case <-r.Context().Done():
			return
		}
	}
}
