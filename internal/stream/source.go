package stream

import (
	"context"
	"image"
	"time"
)

// Frame is one raw image from a Source.
type Frame struct {
	Image      image.Image
	Seq        int
	CapturedAt time.Time
}

// Source is a lazy sequence of frames. Next blocks until a frame is ready;
// io.EOF means the source is exhausted. Close releases the device.
type Source interface {
	Next(ctx context.Context) (Frame, error)
	Close() error
}

// Opener acquires a Source for one loop run.
type Opener func(ctx context.Context) (Source, error)
