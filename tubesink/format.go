// Copyright 2026 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package tubesink

import (
	"bytes"
	"fmt"
	"image"
	"image/jpeg"
	"image/png"
	"sync"
)

// ImageFormat selects the encoding of the streamed frames.
type ImageFormat int

const (
	PNG ImageFormat = iota
	JPEG

	// DefaultFormat is used when neither the options nor the URL name one.
	DefaultFormat = PNG
)

func (f ImageFormat) String() string {
	switch f {
	case PNG:
		return "PNG"
	case JPEG:
		return "JPEG"
	default:
		return fmt.Sprint(int(f))
	}
}

func (f ImageFormat) mimeType() string {
	switch f {
	case PNG:
		return "image/png"
	case JPEG:
		return "image/jpeg"
	}
	return "application/octet-stream"
}

// ParseImageFormat returns the ImageFormat for a format abbreviation. The
// empty string is DefaultFormat.
func ParseImageFormat(value string) (ImageFormat, error) {
	switch value {
	case "":
		return DefaultFormat, nil
	case "png":
		return PNG, nil
	case "jpg", "jpeg":
		return JPEG, nil
	}
	return DefaultFormat, fmt.Errorf("tubesink: unrecognized image format %q", value)
}

type pngBufferPool struct {
	p sync.Pool
}

func (p *pngBufferPool) Get() *png.EncoderBuffer {
	buf, _ := p.p.Get().(*png.EncoderBuffer)
	return buf
}

func (p *pngBufferPool) Put(buf *png.EncoderBuffer) {
	p.p.Put(buf)
}

var (
	pngEncoder  = png.Encoder{CompressionLevel: png.BestSpeed, BufferPool: &pngBufferPool{}}
	jpegOptions = jpeg.Options{Quality: 90}
)

func encode(img image.Image, f ImageFormat) ([]byte, error) {
	var buf bytes.Buffer
	var err error
	switch f {
	case PNG:
		err = pngEncoder.Encode(&buf, img)
	case JPEG:
		err = jpeg.Encode(&buf, img, &jpegOptions)
	default:
		err = fmt.Errorf("tubesink: unhandled image format %s", f)
	}
	if err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
