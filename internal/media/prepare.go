// Package media shrinks images before they are sent to the media endpoint.
package media

import (
	"bytes"
	"image"
	_ "image/gif" // register gif
	"image/jpeg"
	_ "image/png" // register png
	"io"
	"path/filepath"
	"strings"

	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
	"golang.org/x/image/draw"
)

// Limits bounds what gets uploaded. Zero width or height disables resizing.
type Limits struct {
	MaxWidth  int
	MaxHeight int
	Quality   int
}

// Prepared is the file that will actually be uploaded.
type Prepared struct {
	Filename string
	Data     []byte
	Resized  bool
}

// Prepare reads the upload and, when it is a decodable image larger than the limits,
// scales it down to fit and re-encodes it as JPEG. Anything else passes through untouched.
func Prepare(r io.Reader, filename string, limits Limits) (out Prepared, err error) {
	var raw []byte
	raw, err = io.ReadAll(r)
	if err != nil {
		err = errors.Wrapf(err, "failed to read upload: %s", filename)
		return out, err
	}
	if len(raw) == 0 {
		err = errors.Errorf("upload is empty: %s", filename)
		return out, err
	}

	out = Prepared{Filename: filename, Data: raw}
	if limits.MaxWidth <= 0 || limits.MaxHeight <= 0 {
		return out, err
	}

	img, format, decodeErr := image.Decode(bytes.NewReader(raw))
	if decodeErr != nil {
		log.Debug().Err(decodeErr).Str("file", filename).Msg("not a decodable image, uploading as is")
		return out, err
	}

	bounds := img.Bounds()
	width, height := fit(bounds.Dx(), bounds.Dy(), limits.MaxWidth, limits.MaxHeight)
	if width == bounds.Dx() && height == bounds.Dy() {
		return out, err
	}

	dst := image.NewRGBA(image.Rect(0, 0, width, height))
	draw.ApproxBiLinear.Scale(dst, dst.Bounds(), img, bounds, draw.Over, nil)

	quality := limits.Quality
	if quality <= 0 || quality > 100 {
		quality = jpeg.DefaultQuality
	}

	var buf bytes.Buffer
	err = jpeg.Encode(&buf, dst, &jpeg.Options{Quality: quality})
	if err != nil {
		err = errors.Wrapf(err, "failed to encode resized image: %s", filename)
		return out, err
	}

	log.Info().
		Str("file", filename).
		Str("format", format).
		Int("from_width", bounds.Dx()).
		Int("from_height", bounds.Dy()).
		Int("width", width).
		Int("height", height).
		Msg("image resized before upload")

	out = Prepared{
		Filename: strings.TrimSuffix(filename, filepath.Ext(filename)) + ".jpg",
		Data:     buf.Bytes(),
		Resized:  true,
	}
	return out, err
}

// fit scales w x h down to fit within maxW x maxH, keeping the aspect ratio.
func fit(w, h, maxW, maxH int) (int, int) {
	if w <= maxW && h <= maxH {
		return w, h
	}
	// compare w/maxW against h/maxH without floats
	if w*maxH >= h*maxW {
		nh := h * maxW / w
		if nh < 1 {
			nh = 1
		}
		return maxW, nh
	}
	nw := w * maxH / h
	if nw < 1 {
		nw = 1
	}
	return nw, maxH
}
