// Package keypoint normalises raw pose-estimator output into per-frame joint lookups.
package keypoint

import "example.com/posecoach/internal/geometry"

// Name identifies an anatomical landmark reported by the estimator.
type Name string

// Joint names emitted by single-pose MoveNet style estimators.
const (
	Nose          Name = "nose"
	LeftEye       Name = "left_eye"
	RightEye      Name = "right_eye"
	LeftEar       Name = "left_ear"
	RightEar      Name = "right_ear"
	LeftShoulder  Name = "left_shoulder"
	RightShoulder Name = "right_shoulder"
	LeftElbow     Name = "left_elbow"
	RightElbow    Name = "right_elbow"
	LeftWrist     Name = "left_wrist"
	RightWrist    Name = "right_wrist"
	LeftHip       Name = "left_hip"
	RightHip      Name = "right_hip"
	LeftKnee      Name = "left_knee"
	RightKnee     Name = "right_knee"
	LeftAnkle     Name = "left_ankle"
	RightAnkle    Name = "right_ankle"
)

// VisibilityThreshold is the minimum score (exclusive) for a keypoint to count as visible.
const VisibilityThreshold = 0.3

// Keypoint is one landmark as produced by the estimator.
type Keypoint struct {
	Name  Name    `json:"name"`
	X     float64 `json:"x"`
	Y     float64 `json:"y"`
	Score float64 `json:"score"`
}

// Point returns the landmark position.
func (k Keypoint) Point() geometry.Point {
	return geometry.Point{X: k.X, Y: k.Y}
}

// Frame is the visible subset of one detection, keyed by joint name.
type Frame struct {
	joints   map[Name]Keypoint
	detected bool
}

// Ingest builds a Frame from a single detection pass. Nil or empty input is the normal
// "nothing visible yet" state and yields an empty Frame.
func Ingest(raw []Keypoint) Frame {
	frame := Frame{
		joints:   make(map[Name]Keypoint, len(raw)),
		detected: len(raw) > 0,
	}
	for _, kp := range raw {
		if kp.Name == "" || !(kp.Score > VisibilityThreshold) {
			continue
		}
		frame.joints[kp.Name] = kp
	}
	return frame
}

// Detected reports whether the estimator returned any keypoints at all, visible or not.
func (f Frame) Detected() bool {
	return f.detected
}

// Len returns the number of visible joints.
func (f Frame) Len() int {
	return len(f.joints)
}

// Get returns the named joint if it was visible.
func (f Frame) Get(name Name) (Keypoint, bool) {
	kp, ok := f.joints[name]
	return kp, ok
}

// Point returns the position of a visible joint. Absent joints yield the zero point, which is
// indistinguishable from a real landmark at the origin; check Get or Missing first.
func (f Frame) Point(name Name) geometry.Point {
	return f.joints[name].Point()
}

// Missing lists the requested joints that are not visible, preserving the requested order.
func (f Frame) Missing(names ...Name) []Name {
	var missing []Name
	for _, name := range names {
		if _, ok := f.joints[name]; !ok {
			missing = append(missing, name)
		}
	}
	return missing
}

// Keypoints returns the visible joints in no particular order.
func (f Frame) Keypoints() []Keypoint {
	out := make([]Keypoint, 0, len(f.joints))
	for _, kp := range f.joints {
		out = append(out, kp)
	}
	return out
}
