// Package events publishes practice events to Kafka.
package events

import "time"

// HoldCompletedType is the event_type header value for HoldCompleted records.
const HoldCompletedType = "pose.hold_completed"

// HoldCompleted is emitted once for every finalized hold, alongside the Session API submission.
type HoldCompleted struct {
	EventID         string    `json:"event_id"`
	SessionID       string    `json:"session_id"`
	UserID          string    `json:"user_id"`
	Pose            string    `json:"pose"`
	PoseName        string    `json:"pose_name"`
	HoldTimeSeconds int       `json:"hold_time_seconds"`
	AccuracyScore   int       `json:"accuracy_score"`
	Recorded        bool      `json:"recorded"`
	CompletedAt     time.Time `json:"completed_at"`
	Version         string    `json:"version"`
}

const holdCompletedSchema = `{
  "type": "object",
  "title": "HoldCompleted",
  "properties": {
    "event_id": {"type": "string"},
    "session_id": {"type": "string"},
    "user_id": {"type": "string"},
    "pose": {"type": "string"},
    "pose_name": {"type": "string"},
    "hold_time_seconds": {"type": "integer", "minimum": 1},
    "accuracy_score": {"type": "integer", "minimum": 0, "maximum": 100},
    "recorded": {"type": "boolean"},
    "completed_at": {"type": "string", "format": "date-time"},
    "version": {"type": "string"}
  },
  "required": ["event_id", "session_id", "user_id", "pose", "pose_name", "hold_time_seconds", "accuracy_score", "recorded", "completed_at", "version"],
  "additionalProperties": false
}`
