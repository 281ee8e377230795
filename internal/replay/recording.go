// Package replay feeds recorded keypoint detections into a practice stream.
package replay

import (
	"bufio"
	"bytes"
	"encoding/json"
	"fmt"
	"io"

	"example.com/posecoach/internal/keypoint"
)

const maxLineBytes = 1 << 20

// ParseRecording reads one detection per line. A line is either an object with a "keypoints"
// field or a bare keypoint array; blank lines and lines starting with '#' are ignored.
func ParseRecording(r io.Reader) ([]keypoint.Detection, error) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), maxLineBytes)

	var frames []keypoint.Detection
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := bytes.TrimSpace(scanner.Bytes())
		if len(line) == 0 || line[0] == '#' {
			continue
		}

		var detection keypoint.Detection
		if line[0] == '[' {
			if err := json.Unmarshal(line, &detection.Keypoints); err != nil {
				return nil, fmt.Errorf("recording line %d: %w", lineNo, err)
			}
		} else if err := json.Unmarshal(line, &detection); err != nil {
			return nil, fmt.Errorf("recording line %d: %w", lineNo, err)
		}
		frames = append(frames, detection)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read recording: %w", err)
	}
	return frames, nil
}
