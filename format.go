package main

import (
	"fmt"
	"image"
	"image/jpeg"
	"strings"

	"github.com/gen2brain/avif"
	"github.com/gen2brain/webp"
)

// Format is the closed set of output image formats. Anything else is
// rejected at configuration time rather than forwarded to an encoder.
type Format string

const (
	FormatJPEG Format = "jpeg"
	FormatPNG  Format = "png"
	FormatWebP Format = "webp"
	FormatAVIF Format = "avif"
)

// ParseFormat normalizes and validates a user-supplied format name.
// "jpg" is accepted as an alias for jpeg.
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "jpeg", "jpg":
		return FormatJPEG, nil
	case "png":
		return FormatPNG, nil
	case "webp":
		return FormatWebP, nil
	case "avif":
		return FormatAVIF, nil
	default:
		return "", fmt.Errorf("unsupported format %q (supported: jpeg, png, webp, avif)", s)
	}
}

// Ext returns the output file extension for the format, lowercased with a
// leading dot. The destination path always carries the full format name,
// so jpeg outputs end in ".jpeg", not ".jpg".
func (f Format) Ext() string {
	return "." + string(f)
}

// UsesQuality reports whether the encoder for this format takes a quality
// setting. PNG is lossless and ignores it.
func (f Format) UsesQuality() bool {
	return f != FormatPNG
}

// JPEGOptions maps a quality value to encoder options for JPEG output.
func JPEGOptions(quality int) *jpeg.Options {
	return &jpeg.Options{Quality: quality}
}

// WebPOptions maps a quality value to encoder options for WebP output.
func WebPOptions(quality int) webp.Options {
	return webp.Options{Quality: quality}
}

// AVIFOptions maps a quality value to encoder options for AVIF output.
func AVIFOptions(quality int) avif.Options {
	return avif.Options{
		Quality:           quality,
		QualityAlpha:      quality,
		Speed:             6,
		ChromaSubsampling: image.YCbCrSubsampleRatio420,
	}
}
