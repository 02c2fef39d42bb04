// Package session keeps per-user state in memory: the cart ledger and the
// gesture submissions that may offer coupons to it.
package session

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/Lixing-Zhang/sweetheart-kart/internal/cart"
	"github.com/Lixing-Zhang/sweetheart-kart/internal/models"
	"github.com/google/uuid"
)

var ErrSubmissionNotFound = errors.New("submission not found")

// Status of a gesture submission
type Status string

const (
	StatusPending      Status = "pending"
	StatusAccepted     Status = "accepted"
	StatusRejected     Status = "rejected"
	StatusDecodeFailed Status = "decode_failed"
	StatusStale        Status = "stale"
)

// Outcome is the final state of a submission
type Outcome struct {
	Status     Status
	Message    string
	Detections int
	Coupon     *models.Coupon
}

// Submission is a read-only view of a gesture submission
type Submission struct {
	ID          string         `json:"submissionId"`
	Status      Status         `json:"status"`
	Message     string         `json:"message,omitempty"`
	Detections  int            `json:"detections"`
	Coupon      *models.Coupon `json:"coupon,omitempty"`
	CreatedAt   time.Time      `json:"createdAt"`
	CompletedAt *time.Time     `json:"completedAt,omitempty"`
}

type submission struct {
	view Submission
	done chan struct{}
}

// Session is one user's cart plus submission tracking
type Session struct {
	ID     string
	Ledger *cart.Ledger

	mu          sync.Mutex
	latest      string
	submissions map[string]*submission
	lastSeen    time.Time
}

func newSession(id string) *Session {
	return &Session{
		ID:          id,
		Ledger:      cart.NewLedger(),
		submissions: make(map[string]*submission),
		lastSeen:    time.Now(),
	}
}

// Begin registers a new pending submission and makes it the latest one.
// Verdicts for earlier submissions become stale.
func (s *Session) Begin() Submission {
	s.mu.Lock()
	defer s.mu.Unlock()

	sub := &submission{
		view: Submission{
			ID:        uuid.NewString(),
			Status:    StatusPending,
			CreatedAt: time.Now().UTC(),
		},
		done: make(chan struct{}),
	}
	s.submissions[sub.view.ID] = sub
	s.latest = sub.view.ID
	return sub.view
}

// Resolve completes a pending submission. decide runs under the session lock
// and is told whether the submission is still the latest; its outcome is
// stored and returned. Resolving twice keeps the first outcome.
func (s *Session) Resolve(id string, decide func(latest bool) Outcome) (Submission, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sub, ok := s.submissions[id]
	if !ok {
		return Submission{}, ErrSubmissionNotFound
	}
	if sub.view.Status != StatusPending {
		return sub.view, nil
	}

	out := decide(s.latest == id)
	now := time.Now().UTC()
	sub.view.Status = out.Status
	sub.view.Message = out.Message
	sub.view.Detections = out.Detections
	sub.view.Coupon = out.Coupon
	sub.view.CompletedAt = &now
	close(sub.done)

	return sub.view, nil
}

// Submission returns the current view of a submission
func (s *Session) Submission(id string) (Submission, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sub, ok := s.submissions[id]
	if !ok {
		return Submission{}, ErrSubmissionNotFound
	}
	return sub.view, nil
}

// Wait blocks until the submission is resolved or ctx ends
func (s *Session) Wait(ctx context.Context, id string) (Submission, error) {
	s.mu.Lock()
	sub, ok := s.submissions[id]
	s.mu.Unlock()
	if !ok {
		return Submission{}, ErrSubmissionNotFound
	}

	select {
	case <-sub.done:
		return s.Submission(id)
	case <-ctx.Done():
		return Submission{}, ctx.Err()
	}
}

func (s *Session) touch() {
	s.mu.Lock()
	s.lastSeen = time.Now()
	s.mu.Unlock()
}

func (s *Session) idleSince() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastSeen
}
