package pose

import (
	"example.com/posecoach/internal/geometry"
	"example.com/posecoach/internal/keypoint"
)

// Thresholds in degrees.
const (
	treeKneeMax   = 90.0
	warriorArmMin = 70.0
	warriorArmMax = 110.0
)

type rule struct {
	required     []keypoint.Name
	insufficient string
	corrective   string
	holds        func(keypoint.Frame) bool
}

var treeRule = rule{
	required: []keypoint.Name{
		keypoint.LeftHip, keypoint.RightHip,
		keypoint.LeftKnee, keypoint.RightKnee,
		keypoint.LeftAnkle, keypoint.RightAnkle,
	},
	insufficient: "Please show your full body",
	corrective:   "Bend your knee and place foot on thigh",
	holds: func(f keypoint.Frame) bool {
		left, right, ok := KneeAngles(f)
		return ok && (left < treeKneeMax || right < treeKneeMax)
	},
}

// The arm angle is measured from the hip, so hips are required alongside the arms.
var warriorRule = rule{
	required: []keypoint.Name{
		keypoint.LeftShoulder, keypoint.RightShoulder,
		keypoint.LeftElbow, keypoint.RightElbow,
		keypoint.LeftHip, keypoint.RightHip,
	},
	insufficient: "Show your arms clearly",
	corrective:   "Extend arms parallel to floor",
	holds: func(f keypoint.Frame) bool {
		left, right, ok := ArmAngles(f)
		return ok && withinOpen(left, warriorArmMin, warriorArmMax) && withinOpen(right, warriorArmMin, warriorArmMax)
	},
}

func ruleFor(t Type) (rule, bool) {
	switch t {
	case Tree:
		return treeRule, true
	case Warrior:
		return warriorRule, true
	}
	return rule{}, false
}

// Classify evaluates a frame against a pose. It is pure and never fails: missing joints and
// unsupported pose values are reported through the verdict message.
func Classify(frame keypoint.Frame, t Type) Verdict {
	r, ok := ruleFor(t)
	if !ok {
		return Analyzing()
	}
	if len(frame.Missing(r.required...)) > 0 {
		return incorrect(r.insufficient)
	}
	if r.holds(frame) {
		return correct()
	}
	return incorrect(r.corrective)
}

// RequiredJoints lists the joints a pose needs before its rule is evaluated.
func RequiredJoints(t Type) []keypoint.Name {
	r, ok := ruleFor(t)
	if !ok {
		return nil
	}
	return append([]keypoint.Name(nil), r.required...)
}

var (
	kneeJoints = [2][3]keypoint.Name{
		{keypoint.LeftHip, keypoint.LeftKnee, keypoint.LeftAnkle},
		{keypoint.RightHip, keypoint.RightKnee, keypoint.RightAnkle},
	}
	armJoints = [2][3]keypoint.Name{
		{keypoint.LeftHip, keypoint.LeftShoulder, keypoint.LeftElbow},
		{keypoint.RightHip, keypoint.RightShoulder, keypoint.RightElbow},
	}
)

// KneeAngles returns the hip-knee-ankle angle for the left and right leg. ok is false when any
// of the six joints is not visible.
func KneeAngles(f keypoint.Frame) (left, right float64, ok bool) {
	return sideAngles(f, kneeJoints)
}

// ArmAngles returns the hip-shoulder-elbow angle for the left and right arm. ok is false when
// any of the six joints is not visible.
func ArmAngles(f keypoint.Frame) (left, right float64, ok bool) {
	return sideAngles(f, armJoints)
}

func sideAngles(f keypoint.Frame, joints [2][3]keypoint.Name) (left, right float64, ok bool) {
	for _, side := range joints {
		if len(f.Missing(side[:]...)) > 0 {
			return 0, 0, false
		}
	}
	left = geometry.AngleAt(f.Point(joints[0][0]), f.Point(joints[0][1]), f.Point(joints[0][2]))
	right = geometry.AngleAt(f.Point(joints[1][0]), f.Point(joints[1][1]), f.Point(joints[1][2]))
	return left, right, true
}

func withinOpen(v, lo, hi float64) bool {
	return v > lo && v < hi
}
