// Package live follows a game as it is played: frames from a capture relay
// or file are decoded, folded into a Reconstructor, and the observer's view
// is published after every frame.
package live

import (
	"context"
	"io"
	"os"
	"time"

	"github.com/jason-s-yu/baloot/internal/corpus"
)

// Source yields raw frames. Next returns io.EOF when the stream ends.
type Source interface {
	Next(ctx context.Context) ([]byte, error)
}

// FileSource replays a capture file, optionally paced.
type FileSource struct {
	f     *os.File
	fr    *corpus.FrameReader
	delay time.Duration
}

// OpenFile opens a capture file. Each frame is held back by delay.
func OpenFile(path string, maxRecord int, delay time.Duration) (*FileSource, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	return &FileSource{f: f, fr: corpus.NewFrameReader(f, maxRecord), delay: delay}, nil
}

// Next returns the next frame.
func (s *FileSource) Next(ctx context.Context) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	raw, err := s.fr.Next()
	if err != nil {
		return nil, err
	}
	if s.delay > 0 {
		t := time.NewTimer(s.delay)
		defer t.Stop()
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-t.C:
		}
	}
	return raw, nil
}

// Close closes the file.
func (s *FileSource) Close() error { return s.f.Close() }

// sliceSource serves frames held in memory.
type sliceSource struct {
	frames [][]byte
	i      int
}

// FromFrames returns a Source over frames.
func FromFrames(frames [][]byte) Source { return &sliceSource{frames: frames} }

func (s *sliceSource) Next(ctx context.Context) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if s.i >= len(s.frames) {
		return nil, io.EOF
	}
	s.i++
	return s.frames[s.i-1], nil
}
