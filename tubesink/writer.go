// Copyright 2026 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package tubesink

import (
	"bufio"
	"crypto/rand"
	"encoding/hex"
	"io"
	"net/textproto"
	"sort"
	"strconv"
)

// newBoundary returns a random MIME multipart boundary, 60 hex digits long,
// which is within the 70 characters allowed by RFC 2046 section 5.1.1.
func newBoundary() string {
	var b [30]byte
	if _, err := rand.Read(b[:]); err != nil {
		panic(err)
	}
	return hex.EncodeToString(b[:])
}

// partWriter writes an endless MIME multipart body. "mime/multipart".Writer
// only writes the closing boundary of a part when the next one starts, which
// would hold every frame back until the following change.
type partWriter struct {
	w        io.Writer
	boundary string
	started  bool
}

func newPartWriter(w io.Writer) *partWriter {
	return &partWriter{w: w, boundary: newBoundary()}
}

// writeFrame writes one part followed by its closing boundary. header gets a
// Content-Length for body.
func (p *partWriter) writeFrame(header textproto.MIMEHeader, body []byte) error {
	header.Set("Content-Length", strconv.Itoa(len(body)))
	bw := bufio.NewWriter(p.w)
	if !p.started {
		p.started = true
		bw.WriteString("--" + p.boundary + "\r\n")
	}
	keys := make([]string, 0, len(header))
	for k := range header {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		for _, v := range header[k] {
			bw.WriteString(k + ": " + v + "\r\n")
		}
	}
	bw.WriteString("\r\n")
	bw.Write(body)
	bw.WriteString("\r\n--" + p.boundary + "\r\n")
	return bw.Flush()
}
