package gesture

import (
	"bytes"
	"context"
	"encoding/json"
	"image"
	"image/png"
	"net/http"
	"time"

	"github.com/pkg/errors"
)

// HTTPEstimator calls a remote hand-pose service. The image is sent as PNG
// and the service answers with {"detections": [...]}.
type HTTPEstimator struct {
	endpoint string
	client   *http.Client
}

type estimateResponse struct {
	Detections []Detection `json:"detections"`
}

// NewHTTPEstimator creates an estimator posting to endpoint
func NewHTTPEstimator(endpoint string, timeout time.Duration) *HTTPEstimator {
	return &HTTPEstimator{
		endpoint: endpoint,
		client:   &http.Client{Timeout: timeout},
	}
}

// EstimateHands implements Estimator
func (e *HTTPEstimator) EstimateHands(ctx context.Context, img image.Image) ([]Detection, error) {
	if e.endpoint == "" {
		return nil, errors.New("gesture endpoint is not configured")
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, errors.Wrap(err, "failed to encode image")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, e.endpoint, &buf)
	if err != nil {
		return nil, errors.Wrap(err, "failed to create request")
	}
	req.Header.Set("Content-Type", "image/png")
	req.Header.Set("Accept", "application/json")

	resp, err := e.client.Do(req)
	if err != nil {
		return nil, errors.Wrap(err, "hand-pose request failed")
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, errors.Errorf("unexpected status code: %d", resp.StatusCode)
	}

	var out estimateResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, errors.Wrap(err, "failed to decode hand-pose response")
	}
	return out.Detections, nil
}
