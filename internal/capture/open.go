package capture

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/claude/reptrack/internal/stream"
)

var (
	_ stream.Source = (*DirSource)(nil)
	_ stream.Source = (*MJPEGSource)(nil)
)

// Options apply to the source Open builds.
type Options struct {
	// Loop restarts a file:// source at its first image.
	Loop bool
	// Interval paces a file:// source; zero replays as fast as frames are pulled.
	Interval time.Duration
	// Client is used for http(s):// sources. Defaults to http.DefaultClient.
	Client *http.Client
}

// Open picks a source by URI scheme: file:///dir for a directory of images,
// http(s):// for an MJPEG feed. A bare path is treated as a directory.
func Open(ctx context.Context, uri string, opts Options) (stream.Source, error) {
	u, err := url.Parse(uri)
	if err != nil {
		return nil, fmt.Errorf("parsing capture source: %w", err)
	}
	switch u.Scheme {
	case "", "file":
		path := u.Path
		if u.Scheme == "" {
			path = uri
		}
		src, err := OpenDir(path, opts.Loop, opts.Interval)
		if err != nil {
			return nil, err
		}
		return src, nil
	case "http", "https":
		src, err := OpenMJPEG(ctx, opts.Client, uri)
		if err != nil {
			return nil, err
		}
		return src, nil
	default:
		return nil, fmt.Errorf("unsupported capture source scheme %q", u.Scheme)
	}
}

// Opener binds Open to a fixed URI for the frame loop.
func Opener(uri string, opts Options) stream.Opener {
	return func(ctx context.Context) (stream.Source, error) {
		return Open(ctx, uri, opts)
	}
}
