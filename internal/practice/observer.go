package practice

import (
	"time"

	"example.com/posecoach/internal/pose"
)

// Status is the user-visible state after a frame or tick. Verdict is nil on tick updates;
// BodyDetected always reflects the most recent frame.
type Status struct {
	Pose         pose.Type     `json:"pose"`
	Verdict      *pose.Verdict `json:"verdict,omitempty"`
	HoldSeconds  int           `json:"holdSeconds"`
	Holding      bool          `json:"holding"`
	BodyDetected bool          `json:"bodyDetected"`
	At           time.Time     `json:"at"`
}

// Completed describes a finalized hold and whether the Session API accepted it.
type Completed struct {
	Pose            pose.Type `json:"pose"`
	PoseName        string    `json:"poseName"`
	HoldTimeSeconds int       `json:"holdTimeSeconds"`
	AccuracyScore   int       `json:"accuracyScore"`
	Recorded        bool      `json:"recorded"`
	Err             error     `json:"-"`
}

// Observer receives updates for one session. OnStatus is called from the loop goroutine and
// OnHoldCompleted from the submitter goroutine, so the two may run concurrently. Implementations
// must not block for long.
type Observer interface {
	OnStatus(Status)
	OnHoldCompleted(Completed)
}

type nopObserver struct{}

func (nopObserver) OnStatus(Status)           {}
func (nopObserver) OnHoldCompleted(Completed) {}
