package handlers

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/Lixing-Zhang/sweetheart-kart/internal/gesture"
	"github.com/Lixing-Zhang/sweetheart-kart/internal/models"
	"github.com/Lixing-Zhang/sweetheart-kart/internal/session"
	"github.com/go-chi/chi/v5"
)

// ImageField is the multipart field carrying the gesture photo
const ImageField = "image"

// maxStatusWait caps the long-poll on submission status
const maxStatusWait = 30 * time.Second

// couponService is the interface for gesture submissions and offered coupons
type couponService interface {
	Submit(ctx context.Context, sess *session.Session, up gesture.Upload) (session.Submission, error)
	Status(sess *session.Session, submissionID string) (session.Submission, error)
	Wait(ctx context.Context, sess *session.Session, submissionID string) (session.Submission, error)
	Offered(sess *session.Session) []models.Coupon
}

// CouponHandler handles gesture verification uploads and coupon listing
type CouponHandler struct {
	service couponService
	logger  *slog.Logger
}

// NewCouponHandler creates a new CouponHandler
func NewCouponHandler(service couponService, logger *slog.Logger) *CouponHandler {
	return &CouponHandler{
		service: service,
		logger:  logger,
	}
}

// SubmitResponse acknowledges an accepted upload
type SubmitResponse struct {
	SubmissionID string         `json:"submissionId"`
	Status       session.Status `json:"status"`
}

// Verify handles POST /api/coupon/verify
// Only the first file in the "image" field is used. Verification runs in
// the background; poll GET /api/coupon/verify/{submissionId} for the result.
func (h *CouponHandler) Verify(w http.ResponseWriter, r *http.Request) {
	sess, ok := requireSession(w, r, h.logger)
	if !ok {
		return
	}

	mr, err := r.MultipartReader()
	if err != nil {
		h.logger.Warn("gesture upload is not multipart", "error", err)
		WriteError(w, http.StatusBadRequest, "Expected multipart/form-data with an image field", h.logger)
		return
	}

	for {
		part, err := mr.NextPart()
		if err == io.EOF {
			break
		}
		if err != nil {
			h.logger.Warn("failed to read multipart upload", "error", err)
			WriteError(w, http.StatusBadRequest, "Malformed multipart body", h.logger)
			return
		}
		if part.FormName() != ImageField || part.FileName() == "" {
			_ = part.Close()
			continue
		}

		sub, err := h.service.Submit(r.Context(), sess, gesture.Upload{
			Filename:    part.FileName(),
			ContentType: part.Header.Get("Content-Type"),
			Body:        part,
		})
		_ = part.Close()
		if err != nil {
			h.writeSubmitError(w, err)
			return
		}

		WriteJSON(w, http.StatusAccepted, SubmitResponse{SubmissionID: sub.ID, Status: sub.Status}, h.logger)
		return
	}

	WriteError(w, http.StatusBadRequest, "No image file provided", h.logger)
}

func (h *CouponHandler) writeSubmitError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, gesture.ErrUnsupportedFormat):
		WriteError(w, http.StatusUnsupportedMediaType, "Only JPEG and PNG images are supported", h.logger)
	case errors.Is(err, gesture.ErrTooLarge):
		WriteError(w, http.StatusRequestEntityTooLarge, "Image is too large", h.logger)
	default:
		h.logger.Error("failed to accept gesture upload", "error", err)
		WriteError(w, http.StatusInternalServerError, "Internal server error", h.logger)
	}
}

// GetSubmission handles GET /api/coupon/verify/{submissionId}
// An optional wait query parameter (for example wait=5s) blocks until the
// submission resolves or the duration passes.
func (h *CouponHandler) GetSubmission(w http.ResponseWriter, r *http.Request) {
	sess, ok := requireSession(w, r, h.logger)
	if !ok {
		return
	}
	id := chi.URLParam(r, "submissionId")

	sub, err := h.service.Status(sess, id)
	if err != nil {
		if errors.Is(err, session.ErrSubmissionNotFound) {
			WriteError(w, http.StatusNotFound, "Submission not found", h.logger)
			return
		}
		h.logger.Error("failed to get submission", "submission_id", id, "error", err)
		WriteError(w, http.StatusInternalServerError, "Internal server error", h.logger)
		return
	}

	if raw := r.URL.Query().Get("wait"); raw != "" && sub.Status == session.StatusPending {
		wait, err := time.ParseDuration(raw)
		if err != nil || wait < 0 {
			WriteError(w, http.StatusBadRequest, "Invalid wait duration", h.logger)
			return
		}
		if wait > maxStatusWait {
			wait = maxStatusWait
		}

		ctx, cancel := context.WithTimeout(r.Context(), wait)
		defer cancel()
		if done, err := h.service.Wait(ctx, sess, id); err == nil {
			sub = done
		} else if sub, err = h.service.Status(sess, id); err != nil {
			h.logger.Error("failed to get submission", "submission_id", id, "error", err)
			WriteError(w, http.StatusInternalServerError, "Internal server error", h.logger)
			return
		}
	}

	WriteJSON(w, http.StatusOK, sub, h.logger)
}

// ListCoupons handles GET /api/coupon
func (h *CouponHandler) ListCoupons(w http.ResponseWriter, r *http.Request) {
	sess, ok := requireSession(w, r, h.logger)
	if !ok {
		return
	}
	WriteJSON(w, http.StatusOK, h.service.Offered(sess), h.logger)
}
