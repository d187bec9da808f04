package main

import (
	"context"
	"fmt"
	"image"
	"image/jpeg"
	"image/png"
	"io"
	"math"
	"os"
	"path/filepath"

	"github.com/gen2brain/avif"
	"github.com/gen2brain/webp"
	xdraw "golang.org/x/image/draw"

	"rawconv/rawdec"
)

// Converter turns a single RAW file into an encoded image file. Each
// conversion owns its decoded raster exclusively; nothing is shared
// between calls, so one Converter may serve many workers.
type Converter struct {
	Decoder rawdec.Decoder
	Format  Format
	Quality int
	// ResizeMax is the longest-edge bound for thumbnail-style resizing.
	// 0 disables resizing.
	ResizeMax int
}

// Convert decodes src, optionally downscales it, and writes the encoded
// result to dst. The encoded bytes go to a temp file in dst's directory
// and are renamed into place, so an interrupted run never leaves a
// truncated output that a later run would mistake for a finished one.
// Returns the number of bytes written.
func (c *Converter) Convert(ctx context.Context, src, dst string) (int64, error) {
	img, err := c.Decoder.Decode(ctx, src)
	if err != nil {
		return 0, &DecodeError{Path: src, Err: err}
	}

	if c.ResizeMax > 0 {
		img = fitWithin(img, c.ResizeMax)
	}

	if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
		return 0, &WriteError{Path: dst, Err: err}
	}

	tmp, err := os.CreateTemp(filepath.Dir(dst), ".rawconv-*"+c.Format.Ext())
	if err != nil {
		return 0, &WriteError{Path: dst, Err: err}
	}
	tmpPath := tmp.Name()

	if err := c.encode(tmp, img); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return 0, &WriteError{Path: dst, Err: err}
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpPath)
		return 0, &WriteError{Path: dst, Err: err}
	}

	info, err := os.Stat(tmpPath)
	if err != nil {
		os.Remove(tmpPath)
		return 0, &WriteError{Path: dst, Err: err}
	}

	if err := os.Rename(tmpPath, dst); err != nil {
		os.Remove(tmpPath)
		return 0, &WriteError{Path: dst, Err: err}
	}

	return info.Size(), nil
}

func (c *Converter) encode(w io.Writer, img image.Image) error {
	switch c.Format {
	case FormatJPEG:
		return jpeg.Encode(w, img, JPEGOptions(c.Quality))
	case FormatPNG:
		return png.Encode(w, img)
	case FormatWebP:
		return webp.Encode(w, img, WebPOptions(c.Quality))
	case FormatAVIF:
		return avif.Encode(w, img, AVIFOptions(c.Quality))
	default:
		return fmt.Errorf("no encoder for format %q", c.Format)
	}
}

// fitWithin downscales img so its longer edge equals max, preserving
// aspect ratio. Images already within the bound are returned unchanged;
// it never upscales.
func fitWithin(img image.Image, max int) image.Image {
	b := img.Bounds()
	w, h := b.Dx(), b.Dy()

	long := w
	if h > long {
		long = h
	}
	if long <= max {
		return img
	}

	scale := float64(max) / float64(long)
	nw := int(math.Round(float64(w) * scale))
	nh := int(math.Round(float64(h) * scale))
	if w >= h {
		nw = max
	} else {
		nh = max
	}
	if nw < 1 {
		nw = 1
	}
	if nh < 1 {
		nh = 1
	}

	dst := image.NewRGBA(image.Rect(0, 0, nw, nh))
	xdraw.CatmullRom.Scale(dst, dst.Bounds(), img, b, xdraw.Src, nil)
	return dst
}
