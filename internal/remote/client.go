// Package remote calls a network detection service (object detection or
// OCR) and converts its responses into the local Detection shape, so
// remote results render through the same overlay path as on-device ones.
package remote

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/iamethanf20-hub/seeklens/internal/detect"
	"github.com/iamethanf20-hub/seeklens/pkg/geometry"
)

// Detection is one remote result. The box is [x, y, w, h] in pixel
// space with a top-left origin, as the service reports it.
type Detection struct {
	Label string     `json:"label"`
	Score float64    `json:"score"`
	Box   [4]float64 `json:"box"`
}

// Response is the service's detection payload.
type Response struct {
	Detections []Detection `json:"detections"`
}

// Client talks to one detection endpoint.
type Client struct {
	baseURL string
	http    *http.Client
}

// NewClient creates a client for the given base URL.
func NewClient(baseURL string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Client{
		baseURL: baseURL,
		http:    &http.Client{Timeout: timeout},
	}
}

// Detect posts a JPEG-encoded image and returns the service's
// detections. Each request carries a unique ID for server-side
// correlation.
func (c *Client) Detect(ctx context.Context, jpegData []byte) (*Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/v1/detect", bytes.NewReader(jpegData))
	if err != nil {
		return nil, fmt.Errorf("remote detect: %w", err)
	}
	req.Header.Set("Content-Type", "image/jpeg")
	req.Header.Set("X-Request-ID", uuid.NewString())

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("remote detect: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("remote detect: %s: %s", resp.Status, bytes.TrimSpace(body))
	}

	var out Response
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("remote detect: decoding response: %w", err)
	}
	return &out, nil
}

// ToDetections converts a remote response into normalized local
// detections for an image of the given pixel size. Degenerate boxes are
// dropped here, before anything reaches the renderer.
func ToDetections(resp *Response, img geometry.Size) []detect.Detection {
	if resp == nil || img.Empty() {
		return nil
	}
	out := make([]detect.Detection, 0, len(resp.Detections))
	for _, d := range resp.Detections {
		pixel := geometry.NewRect(d.Box[0], d.Box[1], d.Box[2], d.Box[3])
		if pixel.Empty() {
			continue
		}
		out = append(out, detect.Detection{
			Text:       d.Label,
			Confidence: d.Score,
			Box:        geometry.PixelToNormalized(pixel, img),
		})
	}
	return out
}
