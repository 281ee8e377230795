// Package practice runs the per-session detection loop: ingest, classify, time holds, record.
package practice

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"time"

	"example.com/posecoach/internal/events"
	"example.com/posecoach/internal/hold"
	"example.com/posecoach/internal/keypoint"
	"example.com/posecoach/internal/observability"
	"example.com/posecoach/internal/pose"
	"example.com/posecoach/internal/recorder"
)

// ErrSourceUnavailable is returned when the keypoint source cannot be opened. The loop never
// starts in that case.
var ErrSourceUnavailable = errors.New("keypoint source unavailable")

// ErrSubmitQueueFull is reported for a finalized hold that could not be queued for submission.
var ErrSubmitQueueFull = errors.New("hold submission queue full")

const (
	defaultTickInterval  = time.Second
	defaultSubmitTimeout = 5 * time.Second
	submitQueueSize      = 8
)

// HoldPublisher receives a copy of every finalized hold.
type HoldPublisher interface {
	PublishHoldCompleted(context.Context, events.HoldCompleted) error
}

// Session identifies one practice attempt.
type Session struct {
	ID     string
	UserID string
	Pose   pose.Type
}

// Option configures optional behaviour for the Loop.
type Option func(*Loop)

// WithLogger overrides the logger used to report submission and publish failures.
func WithLogger(logger *log.Logger) Option {
	return func(l *Loop) {
		l.logger = logger
	}
}

// WithObserver registers a consumer for status updates and completed holds.
func WithObserver(observer Observer) Option {
	return func(l *Loop) {
		l.observer = observer
	}
}

// WithPublisher mirrors finalized holds to an event stream.
func WithPublisher(publisher HoldPublisher) Option {
	return func(l *Loop) {
		l.publisher = publisher
	}
}

// WithCatalog sets the catalog used to resolve display names for submissions.
func WithCatalog(catalog *pose.Catalog) Option {
	return func(l *Loop) {
		l.catalog = catalog
	}
}

// WithClock replaces the wall clock, mainly for tests.
func WithClock(clock Clock) Option {
	return func(l *Loop) {
		l.clock = clock
	}
}

// WithTickInterval changes the hold ticker period. One tick always counts as one second.
func WithTickInterval(d time.Duration) Option {
	return func(l *Loop) {
		if d > 0 {
			l.tick = d
		}
	}
}

// WithSubmitTimeout bounds each Session API submission and event publish.
func WithSubmitTimeout(d time.Duration) Option {
	return func(l *Loop) {
		if d > 0 {
			l.submitTimeout = d
		}
	}
}

// Loop is the detection loop for one practice session. It owns the hold timer exclusively
// and drives two tasks: a frame task fed by the keypoint source and a periodic tick task that
// only runs while a hold is in progress. Finalized holds are submitted by a separate goroutine
// so a slow Session API never delays classification.
type Loop struct {
	session       Session
	open          keypoint.SourceFactory
	recorder      recorder.Recorder
	catalog       *pose.Catalog
	publisher     HoldPublisher
	observer      Observer
	clock         Clock
	tick          time.Duration
	submitTimeout time.Duration
	logger        *log.Logger
}

// NewLoop constructs a Loop. The source is opened when Run starts and closed when it returns.
func NewLoop(session Session, open keypoint.SourceFactory, rec recorder.Recorder, opts ...Option) *Loop {
	l := &Loop{
		session:       session,
		open:          open,
		recorder:      rec,
		observer:      nopObserver{},
		clock:         wallClock{},
		tick:          defaultTickInterval,
		submitTimeout: defaultSubmitTimeout,
		logger:        log.New(log.Writer(), "[practice] ", log.LstdFlags|log.Lshortfile),
	}
	for _, opt := range opts {
		opt(l)
	}
	if l.catalog == nil {
		l.catalog = pose.DefaultCatalog()
	}
	return l
}

type readResult struct {
	detection keypoint.Detection
	err       error
}

// Run blocks until the source ends, fails, or ctx is cancelled. A clean end of stream returns
// nil; cancellation returns ctx.Err(). Either way an unfinalized hold is discarded. Holds that
// were already finalized are still submitted, and Run waits for those submissions.
func (l *Loop) Run(ctx context.Context) error {
	if !l.session.Pose.Valid() {
		return fmt.Errorf("%w: %d", pose.ErrUnknownPose, int(l.session.Pose))
	}

	src, err := l.open(ctx)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrSourceUnavailable, err)
	}

	observability.SessionStarted()
	defer observability.SessionStopped()

	readCtx, cancelRead := context.WithCancel(ctx)
	results := make(chan readResult)
	readerDone := make(chan struct{})
	go l.read(readCtx, src, results, readerDone)

	pending := make(chan hold.FinalizeEvent, submitQueueSize)
	submitterDone := make(chan struct{})
	go l.submit(context.WithoutCancel(ctx), pending, submitterDone)

	machine := hold.NewMachine(l.session.Pose)
	var ticker Ticker
	var tickC <-chan time.Time
	stopTicker := func() {
		if ticker != nil {
			ticker.Stop()
			ticker, tickC = nil, nil
		}
	}

	defer func() {
		stopTicker()
		cancelRead()
		if err := src.Close(); err != nil {
			l.logger.Printf("close source (session=%s): %v", l.session.ID, err)
		}
		<-readerDone
		close(pending)
		<-submitterDone
	}()

	detected := false
	analyzing := pose.Analyzing()
	l.observer.OnStatus(l.status(machine, &analyzing, detected))

	for {
		select {
		case <-ctx.Done():
			l.discard(machine)
			return ctx.Err()

		case res := <-results:
			if res.err != nil {
				l.discard(machine)
				if errors.Is(res.err, io.EOF) {
					return nil
				}
				if ctx.Err() != nil {
					return ctx.Err()
				}
				return res.err
			}

			frame := keypoint.Ingest(res.detection.Keypoints)
			verdict := pose.Classify(frame, l.session.Pose)
			observability.RecordVerdict(l.session.Pose.String(), verdict.Correct)

			wasHolding := machine.Holding()
			event, finalized := machine.Observe(verdict)
			switch {
			case machine.Holding() && !wasHolding:
				ticker = l.clock.NewTicker(l.tick)
				tickC = ticker.C()
			case !machine.Holding():
				stopTicker()
			}
			if finalized {
				l.enqueue(pending, event)
			}
			detected = frame.Detected()
			l.observer.OnStatus(l.status(machine, &verdict, detected))

		case <-tickC:
			machine.Tick()
			l.observer.OnStatus(l.status(machine, nil, detected))
		}
	}
}

// read forwards detections one at a time so verdicts are applied in capture order.
func (l *Loop) read(ctx context.Context, src keypoint.Source, results chan<- readResult, done chan<- struct{}) {
	defer close(done)
	for {
		detection, err := src.Next(ctx)
		select {
		case results <- readResult{detection: detection, err: err}:
		case <-ctx.Done():
			return
		}
		if err != nil {
			return
		}
	}
}

// enqueue hands a finalized hold to the submitter without blocking. A full queue drops the hold.
func (l *Loop) enqueue(pending chan<- hold.FinalizeEvent, event hold.FinalizeEvent) {
	observability.RecordHoldFinalized(event.Pose.String(), event.Seconds)
	select {
	case pending <- event:
	default:
		observability.RecordSubmission(ErrSubmitQueueFull, l.clock.Now())
		l.logger.Printf("dropping hold (session=%s, pose=%s, seconds=%d): %v",
			l.session.ID, event.Pose, event.Seconds, ErrSubmitQueueFull)
		l.observer.OnHoldCompleted(l.completed(event, ErrSubmitQueueFull))
	}
}

// submit drains pending in finalize order until the loop closes it.
func (l *Loop) submit(ctx context.Context, pending <-chan hold.FinalizeEvent, done chan<- struct{}) {
	defer close(done)
	for event := range pending {
		l.finalize(ctx, event)
	}
}

// finalize submits the hold exactly once. Failures are logged and the hold is dropped.
func (l *Loop) finalize(ctx context.Context, event hold.FinalizeEvent) {
	submission := recorder.Submission{
		PoseName:        l.catalog.DisplayName(event.Pose),
		HoldTimeSeconds: event.Seconds,
		AccuracyScore:   event.Accuracy,
	}

	submitCtx, cancel := context.WithTimeout(ctx, l.submitTimeout)
	err := l.recorder.Submit(submitCtx, submission)
	cancel()
	observability.RecordSubmission(err, l.clock.Now())
	if err != nil {
		l.logger.Printf("session submission failed (session=%s, pose=%s, seconds=%d): %v",
			l.session.ID, event.Pose, event.Seconds, err)
	}

	completed := l.completed(event, err)
	l.publish(ctx, completed)
	l.observer.OnHoldCompleted(completed)
}

func (l *Loop) completed(event hold.FinalizeEvent, err error) Completed {
	return Completed{
		Pose:            event.Pose,
		PoseName:        l.catalog.DisplayName(event.Pose),
		HoldTimeSeconds: event.Seconds,
		AccuracyScore:   event.Accuracy,
		Recorded:        err == nil,
		Err:             err,
	}
}

func (l *Loop) publish(ctx context.Context, completed Completed) {
	if l.publisher == nil {
		return
	}
	pubCtx, cancel := context.WithTimeout(ctx, l.submitTimeout)
	defer cancel()

	err := l.publisher.PublishHoldCompleted(pubCtx, events.HoldCompleted{
		SessionID:       l.session.ID,
		UserID:          l.session.UserID,
		Pose:            completed.Pose.String(),
		PoseName:        completed.PoseName,
		HoldTimeSeconds: completed.HoldTimeSeconds,
		AccuracyScore:   completed.AccuracyScore,
		Recorded:        completed.Recorded,
		CompletedAt:     l.clock.Now().UTC(),
	})
	observability.RecordEventPublished(err)
	if err != nil {
		l.logger.Printf("hold event publish failed (session=%s): %v", l.session.ID, err)
	}
}

func (l *Loop) discard(machine *hold.Machine) {
	if dropped := machine.Discard(); dropped > 0 {
		observability.RecordHoldDiscarded(machine.Pose().String())
	}
}

func (l *Loop) status(machine *hold.Machine, verdict *pose.Verdict, detected bool) Status {
	return Status{
		Pose:         l.session.Pose,
		Verdict:      verdict,
		HoldSeconds:  machine.Elapsed(),
		Holding:      machine.Holding(),
		BodyDetected: detected,
		At:           l.clock.Now(),
	}
}
