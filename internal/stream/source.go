package stream

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"

	"example.com/posecoach/internal/keypoint"
)

// connSource adapts the read half of a practice WebSocket to keypoint.Source.
type connSource struct {
	conn        *websocket.Conn
	readTimeout time.Duration
	logger      *log.Logger
	closed      atomic.Bool
}

func newConnSource(conn *websocket.Conn, readTimeout time.Duration, logger *log.Logger) *connSource {
	return &connSource{conn: conn, readTimeout: readTimeout, logger: logger}
}

// Next blocks for the next frame. A stop message or a normal close ends the stream with io.EOF.
// Malformed messages are skipped.
func (s *connSource) Next(ctx context.Context) (keypoint.Detection, error) {
	for {
		if err := ctx.Err(); err != nil {
			return keypoint.Detection{}, err
		}
		if s.readTimeout > 0 {
			_ = s.conn.SetReadDeadline(time.Now().Add(s.readTimeout))
		}
		if s.closed.Load() {
			return keypoint.Detection{}, io.EOF
		}

		_, data, err := s.conn.ReadMessage()
		if err != nil {
			if s.closed.Load() || websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				return keypoint.Detection{}, io.EOF
			}
			return keypoint.Detection{}, err
		}

		var msg ClientMessage
		if err := json.Unmarshal(data, &msg); err != nil {
			s.logger.Printf("skipping malformed frame: %v", err)
			continue
		}
		switch msg.Type {
		case "", TypeFrame:
			return msg.Detection, nil
		case TypeStop:
			return keypoint.Detection{}, io.EOF
		default:
			s.logger.Printf("skipping unknown message type %q", msg.Type)
		}
	}
}

// Close unblocks a pending read without closing the connection, so the handler can still
// write a final message.
func (s *connSource) Close() error {
	if s.closed.Swap(true) {
		return nil
	}
	return s.conn.SetReadDeadline(time.Now())
}

func isTimeout(err error) bool {
	var netErr interface{ Timeout() bool }
	return errors.As(err, &netErr) && netErr.Timeout()
}
