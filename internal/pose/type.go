// Package pose classifies keypoint frames against the closed catalog of supported poses.
package pose

import (
	"errors"
	"fmt"
	"strings"
)

// ErrUnknownPose is returned when an identifier does not name a supported pose.
var ErrUnknownPose = errors.New("unknown pose type")

// Type enumerates the supported pose classifiers.
type Type int

const (
	Tree Type = iota + 1
	Warrior
)

var typeIDs = map[Type]string{
	Tree:    "tree",
	Warrior: "warrior",
}

// Types returns every supported pose in catalog order.
func Types() []Type {
	return []Type{Tree, Warrior}
}

// ParseType resolves a pose identifier such as "tree". Matching ignores case and surrounding space.
func ParseType(id string) (Type, error) {
	normalized := strings.ToLower(strings.TrimSpace(id))
	for t, candidate := range typeIDs {
		if candidate == normalized {
			return t, nil
		}
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownPose, id)
}

// Valid reports whether t is a member of the enumeration.
func (t Type) Valid() bool {
	_, ok := typeIDs[t]
	return ok
}

// String returns the pose identifier.
func (t Type) String() string {
	if id, ok := typeIDs[t]; ok {
		return id
	}
	return "unknown"
}

// MarshalText implements encoding.TextMarshaler.
func (t Type) MarshalText() ([]byte, error) {
	if !t.Valid() {
		return nil, fmt.Errorf("%w: %d", ErrUnknownPose, int(t))
	}
	return []byte(t.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (t *Type) UnmarshalText(text []byte) error {
	parsed, err := ParseType(string(text))
	if err != nil {
		return err
	}
	*t = parsed
	return nil
}
