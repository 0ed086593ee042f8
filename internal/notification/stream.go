package notification

import (
	"bufio"
	"context"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/cinepass/gateway/internal/role"
)

// State of a stream connection attempt.
type State int

const (
	StateIdle State = iota
	StateConnecting
	StateOpen
	StateBackoff
	StateClosed
)

// ScopeFor maps a canonical role to the subscription scope the platform
// stream expects: admin for SUPER_ADMIN, user for everyone else.
func ScopeFor(r role.Role) string {
	if r == role.SuperAdmin {
		return "admin"
	}
	return "user"
}

// backoff implements the reconnect delay policy: start at the floor, double
// after every consecutive failure, never exceed the cap, reset to the floor
// on a successful open.
type backoff struct {
	floor, cap, cur time.Duration
}

func newBackoff(floor, cap time.Duration) *backoff {
	return &backoff{floor: floor, cap: cap, cur: floor}
}

// Next returns the delay to wait before the next attempt and advances the
// schedule.
func (b *backoff) Next() time.Duration {
	d := b.cur
	b.cur *= 2
	if b.cur > b.cap {
		b.cur = b.cap
	}
	return d
}

func (b *backoff) Reset() { b.cur = b.floor }

// StreamOptions configure one subscription to the platform's push stream.
type StreamOptions struct {
	// URL builds the stream URL for one connection attempt; seed is a fresh
	// cache-busting value per attempt. Typically upstream.Client.StreamURL
	// partially applied with token/scope/theatreId.
	URL func(seed string) string
	// BackoffFloor and BackoffCap bound the reconnect delay. Defaults:
	// 1s floor, 30s cap.
	BackoffFloor time.Duration
	BackoffCap   time.Duration
	// OnAnalytics receives the payload of "analytics" named events. Optional.
	OnAnalytics func(data []byte)
}

// Stream is one long-lived subscription: it connects, feeds pushed
// notifications into the feed, and reconnects with capped exponential backoff
// on any transport error. There is no retry limit and no permanent failure
// state while the stream is running; only Close (or context cancellation)
// ends it.
type Stream struct {
	opts StreamOptions
	feed *Feed
	http *http.Client
	log  *zap.Logger

	mu     sync.Mutex
	state  State
	cancel context.CancelFunc
	done   chan struct{}
	once   sync.Once
}

// NewStream builds a stream bound to a feed. It does not connect until Start.
func NewStream(opts StreamOptions, feed *Feed, log *zap.Logger) *Stream {
	if opts.BackoffFloor <= 0 {
		opts.BackoffFloor = time.Second
	}
	if opts.BackoffCap <= 0 {
		opts.BackoffCap = 30 * time.Second
	}
	return &Stream{
		opts: opts,
		feed: feed,
		// No request timeout: the body is a long-lived event stream.
		http: &http.Client{},
		log:  log,
		done: make(chan struct{}),
	}
}

// State returns the current connection state.
func (s *Stream) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

func (s *Stream) setState(st State) {
	s.mu.Lock()
	s.state = st
	s.mu.Unlock()
}

// Start launches the connect/consume/reconnect loop in its own goroutine.
func (s *Stream) Start(ctx context.Context) {
	ctx, cancel := context.WithCancel(ctx)
	s.mu.Lock()
	s.cancel = cancel
	s.mu.Unlock()
	go s.run(ctx)
}

// Close tears the stream down: the transport is closed and no further
// reconnect is scheduled. Safe to call multiple times.
func (s *Stream) Close() {
	s.once.Do(func() {
		s.mu.Lock()
		if s.cancel != nil {
			s.cancel()
		}
		s.state = StateClosed
		s.mu.Unlock()
		close(s.done)
	})
}

// Done is closed once the stream has been torn down.
func (s *Stream) Done() <-chan struct{} { return s.done }

func (s *Stream) run(ctx context.Context) {
	defer s.setState(StateClosed)
	bo := newBackoff(s.opts.BackoffFloor, s.opts.BackoffCap)
	for {
		if ctx.Err() != nil {
			return
		}
		s.setState(StateConnecting)
		err := s.connect(ctx, bo)
		if ctx.Err() != nil {
			return
		}
		delay := bo.Next()
		s.log.Debug("stream disconnected, reconnecting",
			zap.Error(err),
			zap.Duration("delay", delay))
		s.setState(StateBackoff)
		select {
		case <-ctx.Done():
			return
		case <-time.After(delay):
		}
	}
}

// connect performs one connection attempt and consumes events until the
// transport fails. The previous transport is always fully closed before this
// is called again, so events are never delivered twice.
func (s *Stream) connect(ctx context.Context, bo *backoff) error {
	url := s.opts.URL(uuid.NewString())
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "text/event-stream")
	req.Header.Set("Cache-Control", "no-cache")

	resp, err := s.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("stream: unexpected status %s", resp.Status)
	}

	s.setState(StateOpen)
	bo.Reset()

	// Minimal event-stream reader: accumulate event/data lines, dispatch on
	// each blank line.
	scanner := bufio.NewScanner(resp.Body)
	scanner.Buffer(make([]byte, 0, 4096), 1<<20)
	event := ""
	var data strings.Builder
	for scanner.Scan() {
		line := scanner.Text()
		switch {
		case line == "":
			if data.Len() > 0 {
				s.dispatch(event, []byte(data.String()))
			}
			event = ""
			data.Reset()
		case strings.HasPrefix(line, "event:"):
			event = strings.TrimSpace(strings.TrimPrefix(line, "event:"))
		case strings.HasPrefix(line, "data:"):
			if data.Len() > 0 {
				data.WriteByte('\n')
			}
			data.WriteString(strings.TrimPrefix(strings.TrimPrefix(line, "data:"), " "))
		case strings.HasPrefix(line, ":"):
			// comment/keepalive
		}
	}
	if err := scanner.Err(); err != nil {
		return err
	}
	return fmt.Errorf("stream: server closed connection")
}

func (s *Stream) dispatch(event string, data []byte) {
	switch event {
	case "analytics":
		if s.opts.OnAnalytics != nil {
			s.opts.OnAnalytics(data)
		}
	case "", "message", "notification":
		n, err := decodeNotification(data)
		if err != nil {
			s.log.Warn("stream: undecodable event payload", zap.Error(err))
			return
		}
		s.feed.Merge(n)
	default:
		s.log.Debug("stream: ignoring event", zap.String("event", event))
	}
}
