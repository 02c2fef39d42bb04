package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"runtime/debug"
	"sync"
	"time"

	"github.com/Lixing-Zhang/sweetheart-kart/internal/gesture"
	"github.com/Lixing-Zhang/sweetheart-kart/internal/models"
	"github.com/Lixing-Zhang/sweetheart-kart/internal/session"
)

const (
	msgAccepted = "joined hands detected, coupon issued"
	msgStale    = "a newer photo was submitted"
)

// Verifier decides whether a spooled upload shows the gesture
type Verifier interface {
	Verify(ctx context.Context, submissionID string, h *gesture.Handle) (models.VerificationResult, error)
}

// Issuer mints new discount coupons
type Issuer interface {
	Issue() models.Coupon
}

// CouponServiceConfig holds upload and verification limits
type CouponServiceConfig struct {
	SpoolDir       string
	MaxUploadBytes int64
	VerifyTimeout  time.Duration
}

// CouponService accepts gesture photos and offers a coupon for every
// accepted verification
type CouponService struct {
	verifier Verifier
	issuer   Issuer
	cfg      CouponServiceConfig
	logger   *slog.Logger

	wg sync.WaitGroup
}

// NewCouponService creates a new coupon service
func NewCouponService(verifier Verifier, issuer Issuer, cfg CouponServiceConfig, logger *slog.Logger) *CouponService {
	return &CouponService{
		verifier: verifier,
		issuer:   issuer,
		cfg:      cfg,
		logger:   logger,
	}
}

// Submit spools the upload and starts verification in the background.
// Format and size errors are returned before a submission is created.
// The returned submission is always pending.
func (s *CouponService) Submit(ctx context.Context, sess *session.Session, up gesture.Upload) (session.Submission, error) {
	h, err := gesture.Spool(s.cfg.SpoolDir, up, s.cfg.MaxUploadBytes)
	if err != nil {
		return session.Submission{}, err
	}

	sub := sess.Begin()
	s.logger.Info("gesture submission accepted",
		"session_id", sess.ID,
		"submission_id", sub.ID,
		"filename", up.Filename,
	)

	verifyCtx := context.WithoutCancel(ctx)
	var cancel context.CancelFunc = func() {}
	if s.cfg.VerifyTimeout > 0 {
		verifyCtx, cancel = context.WithTimeout(verifyCtx, s.cfg.VerifyTimeout)
	}

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		defer cancel()
		s.verify(verifyCtx, sess, sub.ID, h)
	}()

	return sub, nil
}

func (s *CouponService) verify(ctx context.Context, sess *session.Session, submissionID string, h *gesture.Handle) {
	res, verifyErr := s.runVerifier(ctx, submissionID, h)

	view, err := sess.Resolve(submissionID, func(latest bool) session.Outcome {
		switch {
		case verifyErr != nil && errors.Is(verifyErr, gesture.ErrDecode):
			return session.Outcome{Status: session.StatusDecodeFailed, Message: gesture.ErrDecode.Error()}
		case verifyErr != nil || !res.Verdict:
			return session.Outcome{Status: session.StatusRejected, Message: gesture.ErrRejected.Error(), Detections: res.Detections}
		case !latest:
			return session.Outcome{Status: session.StatusStale, Message: msgStale, Detections: res.Detections}
		}

		coupon := s.issuer.Issue()
		sess.Ledger.Offer(coupon)
		return session.Outcome{
			Status:     session.StatusAccepted,
			Message:    fmt.Sprintf("%s: %s off", msgAccepted, coupon.Discount.String()),
			Detections: res.Detections,
			Coupon:     &coupon,
		}
	})
	if err != nil {
		s.logger.Error("failed to resolve submission", "submission_id", submissionID, "error", err)
		return
	}

	attrs := []any{
		"session_id", sess.ID,
		"submission_id", submissionID,
		"status", view.Status,
		"detections", view.Detections,
	}
	if view.Coupon != nil {
		attrs = append(attrs, "coupon_code", view.Coupon.Code, "discount", view.Coupon.Discount.String())
	}
	s.logger.Info("gesture submission resolved", attrs...)
}

// runVerifier turns a verifier panic into an error so the submission still
// resolves (as rejected) and the spool file is removed.
func (s *CouponService) runVerifier(ctx context.Context, submissionID string, h *gesture.Handle) (res models.VerificationResult, err error) {
	defer h.Release()
	defer func() {
		if r := recover(); r != nil {
			s.logger.Error("gesture verification panicked",
				"submission_id", submissionID,
				"panic", r,
				"stack", string(debug.Stack()),
			)
			res, err = models.VerificationResult{}, fmt.Errorf("verification panicked: %v", r)
		}
	}()
	return s.verifier.Verify(ctx, submissionID, h)
}

// Status returns the current state of a submission
func (s *CouponService) Status(sess *session.Session, submissionID string) (session.Submission, error) {
	return sess.Submission(submissionID)
}

// Wait blocks until the submission resolves or ctx ends
func (s *CouponService) Wait(ctx context.Context, sess *session.Session, submissionID string) (session.Submission, error) {
	return sess.Wait(ctx, submissionID)
}

// Offered lists coupons the session may apply
func (s *CouponService) Offered(sess *session.Session) []models.Coupon {
	return sess.Ledger.Offered()
}

// Drain waits for background verifications to finish or ctx to end
func (s *CouponService) Drain(ctx context.Context) error {
	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
