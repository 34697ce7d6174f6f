package pose

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"image"
	"image/jpeg"
	"io"
	"net/http"
	"strings"
	"time"
)

// Estimator extracts body landmarks from a frame. A nil or empty result with a
// nil error means no body was detected.
type Estimator interface {
	Estimate(ctx context.Context, frame image.Image) (Landmarks, error)
}

// estimateResponse is the JSON shape returned by the pose sidecar.
type estimateResponse struct {
	Landmarks Landmarks `json:"landmarks"`
}

// HTTPEstimator implements Estimator by posting JPEG frames to a pose
// estimation sidecar (e.g. a MediaPipe Pose service) and decoding the
// normalized landmarks it returns.
type HTTPEstimator struct {
	endpoint   string
	quality    int
	httpClient *http.Client
}

// Compile-time check: HTTPEstimator satisfies Estimator.
var _ Estimator = (*HTTPEstimator)(nil)

// NewHTTPEstimator creates an HTTPEstimator targeting the given endpoint.
func NewHTTPEstimator(endpoint string, timeout time.Duration) *HTTPEstimator {
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &HTTPEstimator{
		endpoint:   strings.TrimRight(endpoint, "/"),
		quality:    80,
		httpClient: &http.Client{Timeout: timeout},
	}
}

// Estimate encodes the frame and asks the sidecar for landmarks.
func (e *HTTPEstimator) Estimate(ctx context.Context, frame image.Image) (Landmarks, error) {
	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, frame, &jpeg.Options{Quality: e.quality}); err != nil {
		return nil, fmt.Errorf("estimator: encode frame: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, e.endpoint, &buf)
	if err != nil {
		return nil, fmt.Errorf("estimator: create request: %w", err)
	}
	req.Header.Set("Content-Type", "image/jpeg")
	req.Header.Set("Accept", "application/json")

	resp, err := e.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("estimator: request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNoContent {
		return nil, nil
	}
	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("estimator: status %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}

	var out estimateResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("estimator: decode response: %w", err)
	}
	return out.Landmarks, nil
}
