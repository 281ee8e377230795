package keypoint

import (
	"context"
	"time"
)

// Detection is the output of one estimator pass: zero or one keypoint set for a captured frame.
type Detection struct {
	Keypoints  []Keypoint `json:"keypoints"`
	CapturedAt time.Time  `json:"capturedAt,omitempty"`
}

// Source yields detections in capture order. It represents an owned estimator handle:
// whoever opens a Source is responsible for closing it when the detection loop stops.
//
// Next blocks until the next detection is available. It returns io.EOF when the producer
// ends the stream deliberately.
type Source interface {
	Next(ctx context.Context) (Detection, error)
	Close() error
}

// SourceFactory opens a Source at the start of a practice session.
type SourceFactory func(ctx context.Context) (Source, error)
