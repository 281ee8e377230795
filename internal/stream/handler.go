// Package stream serves practice sessions over WebSocket: the browser streams keypoints in and
// receives verdicts, hold progress and completed holds back.
package stream

import (
	"context"
	"errors"
	"io"
	"log"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"example.com/posecoach/internal/auth"
	"example.com/posecoach/internal/keypoint"
	"example.com/posecoach/internal/pose"
	"example.com/posecoach/internal/practice"
	"example.com/posecoach/internal/recorder"
)

const (
	routePrefix  = "/v1/practice/"
	routeSuffix  = "/stream"
	writeTimeout = 5 * time.Second

	// A full 17-joint detection is well under 2 KB.
	maxFrameBytes = 64 * 1024
)

// RecorderFactory returns a Recorder that submits on behalf of the bearer token.
type RecorderFactory func(token string) recorder.Recorder

// Option configures optional Handler behaviour.
type Option func(*Handler)

// WithLogger overrides the handler logger.
func WithLogger(logger *log.Logger) Option {
	return func(h *Handler) {
		h.logger = logger
	}
}

// WithPublisher mirrors completed holds to the event stream.
func WithPublisher(publisher practice.HoldPublisher) Option {
	return func(h *Handler) {
		h.publisher = publisher
	}
}

// WithAllowedOrigins restricts browser origins allowed to open a stream. Requests without an
// Origin header are always accepted.
func WithAllowedOrigins(origins []string) Option {
	return func(h *Handler) {
		allowed := make(map[string]struct{}, len(origins))
		for _, origin := range origins {
			allowed[strings.TrimRight(origin, "/")] = struct{}{}
		}
		h.upgrader.CheckOrigin = func(r *http.Request) bool {
			origin := r.Header.Get("Origin")
			if origin == "" {
				return true
			}
			_, ok := allowed[origin]
			return ok
		}
	}
}

// WithReadTimeout closes streams that stay silent for longer than d.
func WithReadTimeout(d time.Duration) Option {
	return func(h *Handler) {
		h.readTimeout = d
	}
}

// WithMaxSessions caps concurrent streams. Zero or less means unlimited.
func WithMaxSessions(n int) Option {
	return func(h *Handler) {
		if n > 0 {
			h.slots = make(chan struct{}, n)
		} else {
			h.slots = nil
		}
	}
}

// WithLoopOptions passes options through to every practice loop.
func WithLoopOptions(opts ...practice.Option) Option {
	return func(h *Handler) {
		h.loopOpts = append(h.loopOpts, opts...)
	}
}

// Handler upgrades GET /v1/practice/{pose}/stream and runs one practice loop per connection.
type Handler struct {
	catalog     *pose.Catalog
	recorders   RecorderFactory
	publisher   practice.HoldPublisher
	upgrader    websocket.Upgrader
	readTimeout time.Duration
	slots       chan struct{}
	loopOpts    []practice.Option
	logger      *log.Logger
}

// NewHandler builds a Handler.
func NewHandler(catalog *pose.Catalog, recorders RecorderFactory, opts ...Option) *Handler {
	h := &Handler{
		catalog:     catalog,
		recorders:   recorders,
		readTimeout: 30 * time.Second,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  4096,
			WriteBufferSize: 4096,
		},
		logger: log.New(log.Writer(), "[stream] ", log.LstdFlags|log.Lshortfile),
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// RegisterRoutes wires the stream endpoint to the mux.
func (h *Handler) RegisterRoutes(mux *http.ServeMux) {
	mux.Handle(routePrefix, h)
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	rest := strings.TrimPrefix(r.URL.Path, routePrefix)
	id, ok := strings.CutSuffix(rest, routeSuffix)
	if !ok || id == "" || strings.Contains(id, "/") {
		writeError(w, http.StatusNotFound, "not_found", "unknown route")
		return
	}
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method_not_allowed", "unsupported method")
		return
	}

	poseType, err := pose.ParseType(id)
	if err != nil {
		writeError(w, http.StatusNotFound, "not_found", err.Error())
		return
	}
	claims, ok := auth.FromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "unauthorized", "missing bearer token")
		return
	}
	token, _ := auth.TokenFromContext(r.Context())

	if !h.acquire() {
		writeError(w, http.StatusServiceUnavailable, "too_many_sessions", "practice session limit reached")
		return
	}
	defer h.release()

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade has already written the HTTP error.
		h.logger.Printf("upgrade failed: %v", err)
		return
	}
	defer conn.Close()
	conn.SetReadLimit(maxFrameBytes)

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()

	sess := &session{conn: conn, cancel: cancel, logger: h.logger}
	source := newConnSource(conn, h.readTimeout, h.logger)
	opts := append([]practice.Option{
		practice.WithCatalog(h.catalog),
		practice.WithObserver(sess),
		practice.WithLogger(h.logger),
	}, h.loopOpts...)
	if h.publisher != nil {
		opts = append(opts, practice.WithPublisher(h.publisher))
	}

	info := practice.Session{ID: uuid.NewString(), UserID: claims.Subject, Pose: poseType}
	loop := practice.NewLoop(info, func(context.Context) (keypoint.Source, error) {
		return source, nil
	}, h.recorders(token), opts...)

	h.logger.Printf("practice session %s started (user=%s, pose=%s)", info.ID, info.UserID, poseType)
	err = loop.Run(ctx)
	switch {
	case err == nil:
		sess.close(websocket.CloseNormalClosure, "session ended")
	case errors.Is(err, context.Canceled) || sess.failed():
		// client went away or the server is shutting down
	case clientGone(err):
		h.logger.Printf("practice session %s: client disconnected: %v", info.ID, err)
	case errors.Is(err, websocket.ErrReadLimit):
		// the connection already sent close 1009
		h.logger.Printf("practice session %s: frame exceeds %d bytes", info.ID, maxFrameBytes)
	default:
		h.logger.Printf("practice session %s failed: %v", info.ID, err)
		message := "keypoint stream interrupted"
		if isTimeout(err) {
			message = "no frames received"
		}
		sess.write(ErrorMessage{Type: TypeError, Message: message, Retry: true})
		sess.close(websocket.CloseGoingAway, message)
	}
	h.logger.Printf("practice session %s finished", info.ID)
}

// clientGone reports a read that failed because the peer closed or dropped the connection.
func clientGone(err error) bool {
	var closeErr *websocket.CloseError
	return errors.As(err, &closeErr) || errors.Is(err, io.ErrUnexpectedEOF)
}

func (h *Handler) acquire() bool {
	if h.slots == nil {
		return true
	}
	select {
	case h.slots <- struct{}{}:
		return true
	default:
		return false
	}
}

func (h *Handler) release() {
	if h.slots != nil {
		<-h.slots
	}
}

// session is the write half of a practice stream. It observes the loop and forwards updates.
type session struct {
	conn   *websocket.Conn
	cancel context.CancelFunc
	logger *log.Logger

	mu       sync.Mutex
	writeErr error
}

func (s *session) OnStatus(st practice.Status) {
	s.write(StatusMessage{
		Type:         TypeStatus,
		Pose:         st.Pose,
		Verdict:      st.Verdict,
		HoldSeconds:  st.HoldSeconds,
		Holding:      st.Holding,
		BodyDetected: st.BodyDetected,
	})
}

func (s *session) OnHoldCompleted(c practice.Completed) {
	s.write(HoldCompletedMessage{
		Type:            TypeHoldCompleted,
		Pose:            c.Pose,
		PoseName:        c.PoseName,
		HoldTimeSeconds: c.HoldTimeSeconds,
		AccuracyScore:   c.AccuracyScore,
		Recorded:        c.Recorded,
	})
}

// write sends one JSON message. The first failure cancels the session.
func (s *session) write(v interface{}) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.writeErr != nil {
		return
	}
	_ = s.conn.SetWriteDeadline(time.Now().Add(writeTimeout))
	if err := s.conn.WriteJSON(v); err != nil {
		s.writeErr = err
		s.logger.Printf("stream write failed: %v", err)
		s.cancel()
	}
}

func (s *session) close(code int, reason string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.writeErr != nil {
		return
	}
	msg := websocket.FormatCloseMessage(code, reason)
	_ = s.conn.WriteControl(websocket.CloseMessage, msg, time.Now().Add(writeTimeout))
}

func (s *session) failed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.writeErr != nil
}
