package replay

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/gorilla/websocket"

	"example.com/posecoach/internal/keypoint"
	"example.com/posecoach/internal/stream"
)

// Config controls how a recording is played back.
type Config struct {
	URL              string
	Token            string
	FPS              float64
	HandshakeTimeout time.Duration
	DialTimeout      time.Duration // Total time spent retrying the initial dial.
	DrainTimeout     time.Duration // How long to wait for the server to close after stop.
}

// DefaultConfig returns playback defaults for url.
func DefaultConfig(url string) Config {
	return Config{
		URL:              url,
		FPS:              15,
		HandshakeTimeout: 10 * time.Second,
		DialTimeout:      30 * time.Second,
		DrainTimeout:     5 * time.Second,
	}
}

// Summary describes a finished playback.
type Summary struct {
	FramesSent    int
	StatusUpdates int
	Holds         []stream.HoldCompletedMessage
	ServerError   *stream.ErrorMessage
}

// Player streams detections to a practice endpoint and collects the server's replies.
type Player struct {
	cfg       Config
	dialer    websocket.Dialer
	onMessage func(raw []byte)
	logger    *log.Logger
}

// Option configures a Player.
type Option func(*Player)

// WithMessageHandler receives every raw server message.
func WithMessageHandler(fn func(raw []byte)) Option {
	return func(p *Player) {
		p.onMessage = fn
	}
}

// WithLogger overrides the player logger.
func WithLogger(logger *log.Logger) Option {
	return func(p *Player) {
		p.logger = logger
	}
}

// NewPlayer constructs a Player.
func NewPlayer(cfg Config, opts ...Option) *Player {
	dialer := *websocket.DefaultDialer
	dialer.HandshakeTimeout = cfg.HandshakeTimeout
	p := &Player{
		cfg:       cfg,
		dialer:    dialer,
		onMessage: func([]byte) {},
		logger:    log.New(log.Writer(), "[replay] ", log.LstdFlags),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Play sends frames at the configured rate, then a stop message, and waits for the server to
// close the stream.
func (p *Player) Play(ctx context.Context, frames []keypoint.Detection) (Summary, error) {
	if p.cfg.FPS <= 0 {
		return Summary{}, fmt.Errorf("fps must be > 0, got %v", p.cfg.FPS)
	}

	conn, err := p.dial(ctx)
	if err != nil {
		return Summary{}, err
	}
	defer conn.Close()

	readDone := make(chan readOutcome, 1)
	go func() {
		readDone <- p.read(conn)
	}()

	interval := time.Duration(float64(time.Second) / p.cfg.FPS)
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	sent := 0
	for _, frame := range frames {
		select {
		case <-ctx.Done():
			return Summary{FramesSent: sent}, ctx.Err()
		case out := <-readDone:
			out.summary.FramesSent = sent
			if out.err == nil {
				out.err = errors.New("server closed the stream")
			}
			return out.summary, fmt.Errorf("stream ended after %d frames: %w", sent, out.err)
		case <-ticker.C:
		}
		if err := conn.WriteJSON(stream.ClientMessage{Detection: frame}); err != nil {
			return Summary{FramesSent: sent}, fmt.Errorf("send frame %d: %w", sent, err)
		}
		sent++
	}

	if err := conn.WriteJSON(stream.ClientMessage{Type: stream.TypeStop}); err != nil {
		return Summary{FramesSent: sent}, fmt.Errorf("send stop: %w", err)
	}

	select {
	case out := <-readDone:
		out.summary.FramesSent = sent
		return out.summary, out.err
	case <-time.After(p.cfg.DrainTimeout):
		return Summary{FramesSent: sent}, errors.New("timed out waiting for the server to close the stream")
	case <-ctx.Done():
		return Summary{FramesSent: sent}, ctx.Err()
	}
}

// dial retries with exponential backoff. Rejections other than 5xx are permanent.
func (p *Player) dial(ctx context.Context) (*websocket.Conn, error) {
	header := http.Header{}
	if p.cfg.Token != "" {
		header.Set("Authorization", "Bearer "+p.cfg.Token)
	}

	policy := backoff.NewExponentialBackOff()
	policy.InitialInterval = 250 * time.Millisecond
	policy.MaxElapsedTime = p.cfg.DialTimeout

	var conn *websocket.Conn
	attempt := 0
	err := backoff.Retry(func() error {
		attempt++
		c, resp, err := p.dialer.DialContext(ctx, p.cfg.URL, header)
		if err == nil {
			conn = c
			return nil
		}
		if resp != nil && resp.StatusCode < http.StatusInternalServerError {
			return backoff.Permanent(fmt.Errorf("dial %s: %w (status %d)", p.cfg.URL, err, resp.StatusCode))
		}
		p.logger.Printf("dial attempt %d failed: %v", attempt, err)
		return err
	}, backoff.WithContext(policy, ctx))
	if err != nil {
		return nil, err
	}
	return conn, nil
}

type readOutcome struct {
	summary Summary
	err     error
}

// read consumes server messages until the stream closes. A normal close is not an error.
func (p *Player) read(conn *websocket.Conn) readOutcome {
	var summary Summary
	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsCloseError(err, websocket.CloseNormalClosure) {
				return readOutcome{summary: summary}
			}
			if summary.ServerError != nil {
				err = fmt.Errorf("server error: %s", summary.ServerError.Message)
			}
			return readOutcome{summary: summary, err: err}
		}
		p.onMessage(data)

		var envelope struct {
			Type string `json:"type"`
		}
		if err := json.Unmarshal(data, &envelope); err != nil {
			p.logger.Printf("ignoring malformed server message: %v", err)
			continue
		}
		switch envelope.Type {
		case stream.TypeStatus:
			summary.StatusUpdates++
		case stream.TypeHoldCompleted:
			var msg stream.HoldCompletedMessage
			if err := json.Unmarshal(data, &msg); err == nil {
				summary.Holds = append(summary.Holds, msg)
			}
		case stream.TypeError:
			var msg stream.ErrorMessage
			if err := json.Unmarshal(data, &msg); err == nil {
				summary.ServerError = &msg
			}
		}
	}
}
