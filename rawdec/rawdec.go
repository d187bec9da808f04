// Package rawdec decodes camera RAW files into in-memory images.
//
// Demosaicing and color processing are delegated to the dcraw binary,
// driven as a subprocess. Callers depend on the Decoder interface so the
// backend can be swapped (or stubbed in tests).
package rawdec

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"os/exec"
	"strings"

	"golang.org/x/image/tiff"
)

// Decoder turns a RAW file on disk into a decoded 8-bit raster.
type Decoder interface {
	Decode(ctx context.Context, path string) (image.Image, error)
}

// Options control dcraw's color processing. The defaults match what a
// straight conversion wants: the camera's own white balance, no automatic
// exposure lift.
type Options struct {
	UseCameraWB  bool
	NoAutoBright bool
}

// DefaultOptions returns the processing options used for conversion.
func DefaultOptions() Options {
	return Options{UseCameraWB: true, NoAutoBright: true}
}

// DCRaw is a Decoder backed by the dcraw command-line tool. dcraw writes
// an 8-bit TIFF to stdout, which is decoded into an image.Image.
type DCRaw struct {
	// Binary is the executable to run. Empty means "dcraw" from PATH.
	Binary string
	Opts   Options
}

// NewDCRaw returns a dcraw-backed decoder with default options.
func NewDCRaw() *DCRaw {
	return &DCRaw{Opts: DefaultOptions()}
}

func (d *DCRaw) binary() string {
	if d.Binary != "" {
		return d.Binary
	}
	return "dcraw"
}

// args builds the dcraw argument list for one input file.
// -c writes to stdout, -T selects TIFF output (8 bits per sample),
// -w uses the camera white balance, -W disables auto brightening.
func (d *DCRaw) args(path string) []string {
	args := []string{"-c", "-T"}
	if d.Opts.UseCameraWB {
		args = append(args, "-w")
	}
	if d.Opts.NoAutoBright {
		args = append(args, "-W")
	}
	return append(args, path)
}

// Decode runs dcraw on the given file and decodes its TIFF output.
func (d *DCRaw) Decode(ctx context.Context, path string) (image.Image, error) {
	cmd := exec.CommandContext(ctx, d.binary(), d.args(path)...)

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		if msg := strings.TrimSpace(stderr.String()); msg != "" {
			return nil, fmt.Errorf("dcraw: %s: %w", msg, err)
		}
		return nil, fmt.Errorf("dcraw: %w", err)
	}

	img, err := tiff.Decode(&stdout)
	if err != nil {
		return nil, fmt.Errorf("decoding dcraw output: %w", err)
	}
	return img, nil
}
