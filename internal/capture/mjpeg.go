package capture

import (
	"context"
	"errors"
	"fmt"
	"image/jpeg"
	"io"
	"mime"
	"mime/multipart"
	"net/http"
	"strings"
	"time"

	"github.com/claude/reptrack/internal/stream"
)

// MJPEGSource reads JPEG frames from a multipart/x-mixed-replace HTTP feed,
// the format IP cameras and this service's own feed endpoint emit.
type MJPEGSource struct {
	body   io.ReadCloser
	parts  *multipart.Reader
	cancel context.CancelFunc
	seq    int
}

// OpenMJPEG connects to url. The connection lives until Close or until ctx
// is cancelled.
func OpenMJPEG(ctx context.Context, client *http.Client, url string) (*MJPEGSource, error) {
	if client == nil {
		client = http.DefaultClient
	}
	ctx, cancel := context.WithCancel(ctx)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		cancel()
		return nil, fmt.Errorf("creating camera request: %w", err)
	}
	resp, err := client.Do(req)
	if err != nil {
		cancel()
		return nil, fmt.Errorf("connecting to camera: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		resp.Body.Close()
		cancel()
		return nil, fmt.Errorf("camera: status %d", resp.StatusCode)
	}

	mediaType, params, err := mime.ParseMediaType(resp.Header.Get("Content-Type"))
	if err != nil || !strings.HasPrefix(mediaType, "multipart/") || params["boundary"] == "" {
		resp.Body.Close()
		cancel()
		return nil, fmt.Errorf("camera: not a multipart stream: %q", resp.Header.Get("Content-Type"))
	}

	return &MJPEGSource{
		body:   resp.Body,
		parts:  multipart.NewReader(resp.Body, params["boundary"]),
		cancel: cancel,
	}, nil
}

// Next reads and decodes the next part. Cancelling ctx aborts a blocked read
// by closing the connection.
func (s *MJPEGSource) Next(ctx context.Context) (stream.Frame, error) {
	stop := context.AfterFunc(ctx, func() { s.body.Close() })
	defer stop()

	part, err := s.parts.NextPart()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return stream.Frame{}, io.EOF
		}
		return stream.Frame{}, fmt.Errorf("reading camera part: %w", err)
	}
	// The part is not closed here: draining it would block until the
	// camera sends the next boundary. NextPart discards the remainder.
	img, err := jpeg.Decode(part)
	if err != nil {
		return stream.Frame{}, fmt.Errorf("decoding camera frame: %w", err)
	}
	s.seq++
	return stream.Frame{Image: img, Seq: s.seq, CapturedAt: time.Now()}, nil
}

// Close drops the connection.
func (s *MJPEGSource) Close() error {
	s.cancel()
	return s.body.Close()
}
