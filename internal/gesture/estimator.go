// Package gesture verifies that an uploaded photo shows two joined hands.
// The hand-pose model itself is external and reached through Estimator.
package gesture

import (
	"context"
	"image"
)

// Detection is a single hand found by the model
type Detection struct {
	Score      float64 `json:"score"`
	Handedness string  `json:"handedness,omitempty"`
}

// Estimator wraps the external hand-pose capability
type Estimator interface {
	EstimateHands(ctx context.Context, img image.Image) ([]Detection, error)
}

// EstimatorFunc adapts a function to Estimator
type EstimatorFunc func(ctx context.Context, img image.Image) ([]Detection, error)

// EstimateHands calls f
func (f EstimatorFunc) EstimateHands(ctx context.Context, img image.Image) ([]Detection, error) {
	return f(ctx, img)
}

// RequiredHands is the number of detected hands that counts as a match
const RequiredHands = 2
