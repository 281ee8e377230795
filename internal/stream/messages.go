package stream

import (
	"example.com/posecoach/internal/keypoint"
	"example.com/posecoach/internal/pose"
)

// Message types exchanged on a practice stream.
const (
	TypeFrame         = "frame"
	TypeStop          = "stop"
	TypeStatus        = "status"
	TypeHoldCompleted = "hold_completed"
	TypeError         = "error"
)

// ClientMessage is sent by the browser for every estimator pass. An empty Type is a frame.
type ClientMessage struct {
	Type string `json:"type,omitempty"`
	keypoint.Detection
}

// StatusMessage mirrors practice.Status on the wire.
type StatusMessage struct {
	Type         string        `json:"type"`
	Pose         pose.Type     `json:"pose"`
	Verdict      *pose.Verdict `json:"verdict,omitempty"`
	HoldSeconds  int           `json:"holdSeconds"`
	Holding      bool          `json:"holding"`
	BodyDetected bool          `json:"bodyDetected"`
}

// HoldCompletedMessage announces a finalized hold.
type HoldCompletedMessage struct {
	Type            string    `json:"type"`
	Pose            pose.Type `json:"pose"`
	PoseName        string    `json:"poseName"`
	HoldTimeSeconds int       `json:"holdTimeSeconds"`
	AccuracyScore   int       `json:"accuracyScore"`
	Recorded        bool      `json:"recorded"`
}

// ErrorMessage is the last message before the server closes a failed stream.
type ErrorMessage struct {
	Type    string `json:"type"`
	Message string `json:"message"`
	Retry   bool   `json:"retry"`
}
