package main

import (
	"context"
	"errors"
	"image"
	"image/jpeg"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func batchConfig(t *testing.T, in, out string) *Config {
	t.Helper()
	return &Config{
		InputDir:  in,
		OutputDir: out,
		Format:    FormatJPEG,
		Resize:    96,
		Quality:   92,
		Workers:   1,
		OnError:   ContinueOnError,
	}
}

func newTestProcessor(t *testing.T, cfg *Config, dec *stubDecoder) *Processor {
	t.Helper()
	console, _ := testConsole()
	p := NewProcessor(cfg, console)
	p.Converter.Decoder = dec
	return p
}

func TestCollectRawFilesCaseInsensitiveAndSorted(t *testing.T) {
	in := t.TempDir()
	for _, name := range []string{"z.CR2", "a.cr2", "m.Cr2", "sub/deep/n.DNG", "b.dng", "ignore.jpg", "notes.txt"} {
		require.NoError(t, writeFile(filepath.Join(in, name), []byte("raw")))
	}

	files, err := collectRawFiles(in)
	require.NoError(t, err)

	want := []string{
		filepath.Join(in, "a.cr2"),
		filepath.Join(in, "b.dng"),
		filepath.Join(in, "m.Cr2"),
		filepath.Join(in, "sub", "deep", "n.DNG"),
		filepath.Join(in, "z.CR2"),
	}
	assert.Equal(t, want, files)
}

func TestPlanJobsDestinationMapping(t *testing.T) {
	in, out := "/photos/raw", "/photos/web"
	files := []string{
		filepath.Join(in, "a.CR2"),
		filepath.Join(in, "b", "c.dng"),
	}

	jobs, err := planJobs(files, in, out, FormatJPEG)
	require.NoError(t, err)
	require.Len(t, jobs, 2)

	assert.Equal(t, filepath.Join(out, "a.jpeg"), jobs[0].Dest)
	assert.Equal(t, filepath.Join(out, "b", "c.jpeg"), jobs[1].Dest)
}

func TestPlanJobsDetectsCollision(t *testing.T) {
	in, out := "/photos/raw", "/photos/web"
	files := []string{
		filepath.Join(in, "a.cr2"),
		filepath.Join(in, "a.dng"),
	}

	_, err := planJobs(files, in, out, FormatJPEG)
	require.Error(t, err)

	var collision *CollisionError
	require.ErrorAs(t, err, &collision)
	assert.Equal(t, filepath.Join(in, "a.cr2"), collision.First)
	assert.Equal(t, filepath.Join(in, "a.dng"), collision.Second)
	assert.Equal(t, filepath.Join(out, "a.jpeg"), collision.Dest)
}

func TestRunConvertsTree(t *testing.T) {
	in := t.TempDir()
	out := t.TempDir()
	require.NoError(t, writeFile(filepath.Join(in, "a.cr2"), []byte("raw-a")))
	require.NoError(t, writeFile(filepath.Join(in, "b", "c.dng"), []byte("raw-c")))

	dec := &stubDecoder{imgs: map[string]image.Image{
		"a.cr2": grayImage(400, 300),
		"c.dng": grayImage(300, 400),
	}}
	p := newTestProcessor(t, batchConfig(t, in, out), dec)

	require.NoError(t, p.Run(context.Background()))

	assertJPEGDims(t, filepath.Join(out, "a.jpeg"), 96, 72)
	assertJPEGDims(t, filepath.Join(out, "b", "c.jpeg"), 72, 96)
}

func TestRunIsIdempotent(t *testing.T) {
	in := t.TempDir()
	out := t.TempDir()
	require.NoError(t, writeFile(filepath.Join(in, "a.cr2"), []byte("raw-a")))
	require.NoError(t, writeFile(filepath.Join(in, "b", "c.dng"), []byte("raw-c")))

	cfg := batchConfig(t, in, out)
	require.NoError(t, newTestProcessor(t, cfg, &stubDecoder{}).Run(context.Background()))

	first := snapshotModTimes(t, out)

	// Second run must skip everything and rewrite nothing.
	p := newTestProcessor(t, cfg, &stubDecoder{err: errors.New("decoder must not be called")})
	require.NoError(t, p.Run(context.Background()))

	assert.Equal(t, first, snapshotModTimes(t, out))
}

func TestRunNoInputFiles(t *testing.T) {
	in := t.TempDir()
	out := t.TempDir()
	require.NoError(t, writeFile(filepath.Join(in, "readme.txt"), []byte("no raws here")))

	p := newTestProcessor(t, batchConfig(t, in, out), &stubDecoder{})
	err := p.Run(context.Background())
	require.ErrorIs(t, err, ErrNoInputFiles)

	entries, readErr := os.ReadDir(out)
	require.NoError(t, readErr)
	assert.Empty(t, entries)
}

func TestRunCollisionFailsBeforeWriting(t *testing.T) {
	in := t.TempDir()
	out := t.TempDir()
	require.NoError(t, writeFile(filepath.Join(in, "a.cr2"), []byte("raw")))
	require.NoError(t, writeFile(filepath.Join(in, "a.dng"), []byte("raw")))

	p := newTestProcessor(t, batchConfig(t, in, out), &stubDecoder{})
	err := p.Run(context.Background())

	var collision *CollisionError
	require.ErrorAs(t, err, &collision)

	entries, readErr := os.ReadDir(out)
	require.NoError(t, readErr)
	assert.Empty(t, entries)
}

func TestRunContinuePolicyCountsFailures(t *testing.T) {
	in := t.TempDir()
	out := t.TempDir()
	require.NoError(t, writeFile(filepath.Join(in, "a.cr2"), []byte("raw")))
	require.NoError(t, writeFile(filepath.Join(in, "b.cr2"), []byte("raw")))

	dec := &stubDecoder{err: errors.New("unsupported sensor")}
	p := newTestProcessor(t, batchConfig(t, in, out), dec)

	err := p.Run(context.Background())
	require.Error(t, err)

	var batchErr *BatchError
	require.ErrorAs(t, err, &batchErr)
	assert.Equal(t, 2, batchErr.Failed)
}

func TestRunAbortPolicyStopsAtFirstFailure(t *testing.T) {
	in := t.TempDir()
	out := t.TempDir()
	require.NoError(t, writeFile(filepath.Join(in, "a.cr2"), []byte("raw")))
	require.NoError(t, writeFile(filepath.Join(in, "b.cr2"), []byte("raw")))

	cfg := batchConfig(t, in, out)
	cfg.OnError = AbortOnError

	dec := &stubDecoder{err: errors.New("corrupt file")}
	p := newTestProcessor(t, cfg, dec)

	err := p.Run(context.Background())
	require.Error(t, err)

	var decodeErr *DecodeError
	require.ErrorAs(t, err, &decodeErr)
	assert.Contains(t, decodeErr.Path, "a.cr2")
}

func TestRunParallelWorkers(t *testing.T) {
	in := t.TempDir()
	out := t.TempDir()
	for _, name := range []string{"a.cr2", "b.cr2", "c.dng", "d/e.dng"} {
		require.NoError(t, writeFile(filepath.Join(in, name), []byte("raw")))
	}

	cfg := batchConfig(t, in, out)
	cfg.Workers = 4

	p := newTestProcessor(t, cfg, &stubDecoder{})
	require.NoError(t, p.Run(context.Background()))

	for _, name := range []string{"a.jpeg", "b.jpeg", "c.jpeg", "d/e.jpeg"} {
		_, err := os.Stat(filepath.Join(out, name))
		assert.NoError(t, err, "missing output %s", name)
	}
}

func assertJPEGDims(t *testing.T, path string, w, h int) {
	t.Helper()
	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()

	img, err := jpeg.Decode(f)
	require.NoError(t, err)
	assert.Equal(t, w, img.Bounds().Dx(), "width of %s", path)
	assert.Equal(t, h, img.Bounds().Dy(), "height of %s", path)
}

func snapshotModTimes(t *testing.T, dir string) map[string]time.Time {
	t.Helper()
	times := make(map[string]time.Time)
	err := filepath.Walk(dir, func(path string, info os.FileInfo, err error) error {
		if err != nil || info.IsDir() {
			return err
		}
		times[path] = info.ModTime()
		return nil
	})
	require.NoError(t, err)
	return times
}
