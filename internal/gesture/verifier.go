package gesture

import (
	"context"
	"log/slog"
	"time"

	"github.com/Lixing-Zhang/sweetheart-kart/internal/models"
	"golang.org/x/sync/singleflight"
)

// Verifier runs the gesture check for spooled uploads
type Verifier struct {
	estimator Estimator
	timeout   time.Duration
	maxPixels int
	logger    *slog.Logger
	inflight  singleflight.Group
}

// VerifierOption customizes a Verifier
type VerifierOption func(*Verifier)

// WithMaxPixels overrides DefaultMaxPixels. n <= 0 disables the limit.
func WithMaxPixels(n int) VerifierOption {
	return func(v *Verifier) {
		v.maxPixels = n
	}
}

// NewVerifier creates a verifier. A zero timeout leaves the caller's
// deadline in charge.
func NewVerifier(estimator Estimator, timeout time.Duration, logger *slog.Logger, opts ...VerifierOption) *Verifier {
	v := &Verifier{
		estimator: estimator,
		timeout:   timeout,
		maxPixels: DefaultMaxPixels,
		logger:    logger,
	}
	for _, opt := range opts {
		opt(v)
	}
	return v
}

// Verify decodes the spooled image and asks the estimator for hands.
// Verdict is true when at least RequiredHands hands are detected.
//
// The only error returned is ErrDecode. Estimator failures are logged and
// reported as a false verdict. The handle is released before Verify returns.
// Concurrent calls for byte-identical uploads share one decode and one
// estimation, keyed by the handle's digest.
func (v *Verifier) Verify(ctx context.Context, submissionID string, h *Handle) (models.VerificationResult, error) {
	defer h.Release()

	res, err, shared := v.inflight.Do(h.Digest(), func() (interface{}, error) {
		return v.verify(ctx, submissionID, h)
	})
	if shared {
		v.logger.Debug("gesture verification shared", "submission_id", submissionID, "digest", h.Digest())
	}
	if err != nil {
		return models.VerificationResult{}, err
	}
	return res.(models.VerificationResult), nil
}

func (v *Verifier) verify(ctx context.Context, submissionID string, h *Handle) (models.VerificationResult, error) {
	img, err := h.Decode(v.maxPixels)
	if err != nil {
		v.logger.Warn("gesture image decode failed", "submission_id", submissionID, "error", err)
		return models.VerificationResult{}, err
	}

	if v.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, v.timeout)
		defer cancel()
	}

	start := time.Now()
	detections, err := v.estimator.EstimateHands(ctx, img)
	if err != nil {
		v.logger.Error("hand detection failed",
			"submission_id", submissionID,
			"duration_ms", time.Since(start).Milliseconds(),
			"error", err,
		)
		return models.VerificationResult{Verdict: false}, nil
	}

	result := models.VerificationResult{
		Verdict:    len(detections) >= RequiredHands,
		Detections: len(detections),
	}
	v.logger.Info("hand detection finished",
		"submission_id", submissionID,
		"detections", result.Detections,
		"verdict", result.Verdict,
		"duration_ms", time.Since(start).Milliseconds(),
	)
	return result, nil
}
