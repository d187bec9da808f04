package main

import (
	"context"
	"image"
	"image/color"
	"os"
	"path/filepath"
)

// stubDecoder satisfies rawdec.Decoder without shelling out to dcraw.
// Images are looked up by base name; unknown paths get a small default.
type stubDecoder struct {
	imgs map[string]image.Image
	err  error
}

func (s *stubDecoder) Decode(_ context.Context, path string) (image.Image, error) {
	if s.err != nil {
		return nil, s.err
	}
	if img, ok := s.imgs[filepath.Base(path)]; ok {
		return img, nil
	}
	return grayImage(8, 8), nil
}

func grayImage(w, h int) image.Image {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, color.RGBA{R: 128, G: 128, B: 128, A: 255})
		}
	}
	return img
}

func writeFile(path string, data []byte) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}
