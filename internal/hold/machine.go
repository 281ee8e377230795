// Package hold tracks contiguous runs of correct verdicts and turns them into timed holds.
package hold

import "example.com/posecoach/internal/pose"

// State is the position of a Machine in the hold lifecycle.
type State int

const (
	// Idle means no hold is in progress and the elapsed counter is zero.
	Idle State = iota
	// Holding means the most recent verdict was correct; ticks accumulate seconds.
	Holding
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Holding:
		return "holding"
	}
	return "unknown"
}

// FinalizeEvent is emitted once when a hold with at least one elapsed second ends.
type FinalizeEvent struct {
	Pose     pose.Type
	Seconds  int
	Accuracy int
}

// Machine is the hold timer for one practice session. It is not safe for concurrent use;
// the detection loop that owns it is its only caller.
//
// The JustEnded state is never observable: Observe emits the finalize event and returns to
// Idle within the same call.
type Machine struct {
	pose     pose.Type
	state    State
	elapsed  int
	accuracy int
}

// NewMachine returns an idle machine for the given pose.
func NewMachine(p pose.Type) *Machine {
	return &Machine{pose: p}
}

// Observe applies one verdict. It returns a finalize event when a hold with elapsed > 0 ends.
func (m *Machine) Observe(v pose.Verdict) (FinalizeEvent, bool) {
	if v.Correct {
		m.state = Holding
		m.accuracy = v.Score()
		return FinalizeEvent{}, false
	}

	if m.state != Holding {
		return FinalizeEvent{}, false
	}

	seconds := m.elapsed
	accuracy := m.accuracy
	m.reset()
	if seconds == 0 {
		return FinalizeEvent{}, false
	}
	if accuracy == 0 {
		accuracy = pose.FullAccuracy
	}
	return FinalizeEvent{Pose: m.pose, Seconds: seconds, Accuracy: accuracy}, true
}

// Tick advances the hold by one second while Holding and returns the elapsed total.
func (m *Machine) Tick() int {
	if m.state == Holding {
		m.elapsed++
	}
	return m.elapsed
}

// Discard abandons any in-progress hold without emitting an event and returns the seconds
// that were dropped.
func (m *Machine) Discard() int {
	dropped := m.elapsed
	m.reset()
	return dropped
}

// Pose returns the pose being attempted.
func (m *Machine) Pose() pose.Type {
	return m.pose
}

// State returns the current state.
func (m *Machine) State() State {
	return m.state
}

// Holding reports whether a hold is in progress.
func (m *Machine) Holding() bool {
	return m.state == Holding
}

// Elapsed returns the whole seconds accumulated by the current hold.
func (m *Machine) Elapsed() int {
	return m.elapsed
}

func (m *Machine) reset() {
	m.state = Idle
	m.elapsed = 0
	m.accuracy = 0
}
