// Package recorder submits finalized holds to the remote Session API and reads back history.
package recorder

import (
	"context"
	"errors"
	"strings"
	"time"
)

var (
	// ErrNotAuthenticated is returned when the Session API rejects the bearer credential.
	ErrNotAuthenticated = errors.New("session api: not authenticated")
	// ErrInvalidSubmission is returned before any network call when a submission is malformed.
	ErrInvalidSubmission = errors.New("invalid session submission")
)

// Submission is the payload produced by a finalized hold.
type Submission struct {
	PoseName        string `json:"poseName"`
	HoldTimeSeconds int    `json:"holdTimeSeconds"`
	AccuracyScore   int    `json:"accuracyScore"`
}

// Validate ensures the submission respects the Session API contract.
func (s Submission) Validate() error {
	if strings.TrimSpace(s.PoseName) == "" {
		return errors.Join(ErrInvalidSubmission, errors.New("poseName is required"))
	}
	if s.HoldTimeSeconds < 1 {
		return errors.Join(ErrInvalidSubmission, errors.New("holdTimeSeconds must be >= 1"))
	}
	if s.AccuracyScore < 0 || s.AccuracyScore > 100 {
		return errors.Join(ErrInvalidSubmission, errors.New("accuracyScore must be within [0,100]"))
	}
	return nil
}

// Recorder accepts finalized holds. Delivery is best effort and at most once: callers invoke
// Submit exactly once per hold and never retry.
type Recorder interface {
	Submit(ctx context.Context, s Submission) error
}

// RecorderFunc adapts a function to the Recorder interface.
type RecorderFunc func(ctx context.Context, s Submission) error

// Submit calls f.
func (f RecorderFunc) Submit(ctx context.Context, s Submission) error {
	return f(ctx, s)
}

// SessionRecord is a persisted hold as returned by the Session API.
type SessionRecord struct {
	ID              string    `json:"_id,omitempty"`
	PoseName        string    `json:"poseName"`
	HoldTimeSeconds int       `json:"holdTimeSeconds"`
	AccuracyScore   int       `json:"accuracyScore"`
	CreatedAt       time.Time `json:"createdAt"`
}

// Stats aggregates the caller's history.
type Stats struct {
	TotalSessions   int     `json:"totalSessions"`
	BestHoldTime    int     `json:"bestHoldTime"`
	AverageAccuracy float64 `json:"averageAccuracy"`
}
