package main

import (
	"errors"
	"fmt"
)

// ErrNoInputFiles is returned by a batch run that discovered zero RAW
// files under the input directory. Nothing is written in that case.
var ErrNoInputFiles = errors.New("no RAW files found")

// DecodeError wraps a RAW decoding failure for a single source file.
type DecodeError struct {
	Path string
	Err  error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("decoding %s: %v", e.Path, e.Err)
}

func (e *DecodeError) Unwrap() error { return e.Err }

// WriteError wraps a failure to create directories, encode, or write the
// output for a single destination path.
type WriteError struct {
	Path string
	Err  error
}

func (e *WriteError) Error() string {
	return fmt.Sprintf("writing %s: %v", e.Path, e.Err)
}

func (e *WriteError) Unwrap() error { return e.Err }

// CollisionError reports two source files whose computed destinations are
// the same path. Detected during planning, before anything is written.
type CollisionError struct {
	First  string
	Second string
	Dest   string
}

func (e *CollisionError) Error() string {
	return fmt.Sprintf("destination collision: %s and %s both map to %s", e.First, e.Second, e.Dest)
}

// BatchError is returned by a run that completed under the continue
// policy but had per-file failures.
type BatchError struct {
	Failed int
}

func (e *BatchError) Error() string {
	return fmt.Sprintf("%d file(s) failed to convert", e.Failed)
}
