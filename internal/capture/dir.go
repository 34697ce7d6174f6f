// Package capture provides frame sources: a directory of still images and an
// MJPEG camera feed over HTTP.
package capture

import (
	"context"
	"fmt"
	"image"
	_ "image/jpeg"
	_ "image/png"
	"io"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"github.com/claude/reptrack/internal/stream"
)

// DirSource replays the images of a directory in name order.
type DirSource struct {
	files    []string
	loop     bool
	interval time.Duration

	next   int
	seq    int
	last   time.Time
	closed bool
}

// OpenDir lists the .jpg, .jpeg and .png files in dir. With loop set the
// source restarts from the first file instead of returning io.EOF.
func OpenDir(dir string, loop bool, interval time.Duration) (*DirSource, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("reading frame dir %s: %w", dir, err)
	}

	var files []string
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		switch strings.ToLower(filepath.Ext(e.Name())) {
		case ".jpg", ".jpeg", ".png":
			files = append(files, filepath.Join(dir, e.Name()))
		}
	}
	slices.Sort(files)
	if len(files) == 0 {
		return nil, fmt.Errorf("no images in frame dir %s", dir)
	}
	return &DirSource{files: files, loop: loop, interval: interval}, nil
}

// Next decodes the next image, waiting out the frame interval first.
func (s *DirSource) Next(ctx context.Context) (stream.Frame, error) {
	if s.closed {
		return stream.Frame{}, fmt.Errorf("dir source closed")
	}
	if s.next >= len(s.files) {
		if !s.loop {
			return stream.Frame{}, io.EOF
		}
		s.next = 0
	}
	if err := s.pace(ctx); err != nil {
		return stream.Frame{}, err
	}

	path := s.files[s.next]
	s.next++
	img, err := decodeFile(path)
	if err != nil {
		return stream.Frame{}, err
	}
	s.seq++
	s.last = time.Now()
	return stream.Frame{Image: img, Seq: s.seq, CapturedAt: s.last}, nil
}

func (s *DirSource) pace(ctx context.Context) error {
	if s.interval <= 0 || s.last.IsZero() {
		return ctx.Err()
	}
	wait := time.Until(s.last.Add(s.interval))
	if wait <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(wait)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

// Close marks the source closed.
func (s *DirSource) Close() error {
	s.closed = true
	return nil
}

func decodeFile(path string) (image.Image, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening frame: %w", err)
	}
	defer f.Close()

	img, _, err := image.Decode(f)
	if err != nil {
		return nil, fmt.Errorf("decoding frame %s: %w", filepath.Base(path), err)
	}
	return img, nil
}
