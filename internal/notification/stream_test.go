package notification

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/cinepass/gateway/internal/role"
)

func TestBackoffScheduleNonDecreasingAndCapped(t *testing.T) {
	bo := newBackoff(time.Second, 30*time.Second)
	prev := time.Duration(0)
	for i := 0; i < 10; i++ {
		d := bo.Next()
		assert.GreaterOrEqual(t, d, prev)
		assert.LessOrEqual(t, d, 30*time.Second)
		prev = d
	}
	assert.Equal(t, 30*time.Second, prev)

	bo.Reset()
	assert.Equal(t, time.Second, bo.Next())
}

func TestScopeFor(t *testing.T) {
	assert.Equal(t, "admin", ScopeFor(role.SuperAdmin))
	assert.Equal(t, "user", ScopeFor(role.Admin))
	assert.Equal(t, "user", ScopeFor(role.TheatreAdmin))
	assert.Equal(t, "user", ScopeFor(role.User))
}

func TestStreamConsumesNamedEvents(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/event-stream")
		fl := w.(http.Flusher)
		fmt.Fprint(w, ": hello\n\n")
		fmt.Fprint(w, "event: notification\ndata: {\"id\":\"n1\",\"title\":\"Booked\",\"createdAt\":\"2026-03-01T12:00:00Z\"}\n\n")
		fmt.Fprint(w, "data: {\"id\":\"n2\",\"title\":\"Generic\",\"createdAt\":1772366460000}\n\n")
		fmt.Fprint(w, "event: analytics\ndata: {\"date\":\"2026-03-01\",\"revenueDelta\":50}\n\n")
		fl.Flush()
		// Keep the connection open until the client goes away.
		<-r.Context().Done()
	}))
	defer srv.Close()

	feed := NewFeed(0)
	var analytics atomic.Int32
	s := NewStream(StreamOptions{
		URL:         func(seed string) string { return srv.URL + "?seed=" + seed },
		OnAnalytics: func([]byte) { analytics.Add(1) },
	}, feed, zap.NewNop())
	s.Start(context.Background())
	defer s.Close()

	require.Eventually(t, func() bool { return len(feed.Items()) == 2 }, 2*time.Second, 10*time.Millisecond)
	items := feed.Items()
	assert.Equal(t, "n1", items[1].ID)
	assert.Equal(t, "Booked", items[1].Title)
	assert.Equal(t, "n2", items[0].ID) // epoch-millis createdAt, later than n1
	assert.Equal(t, int32(1), analytics.Load())
	assert.Equal(t, StateOpen, s.State())
}

func TestStreamReconnectsAfterDisconnect(t *testing.T) {
	var attempts atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		n := attempts.Add(1)
		w.Header().Set("Content-Type", "text/event-stream")
		fmt.Fprintf(w, "event: notification\ndata: {\"id\":\"n%d\",\"createdAt\":\"2026-03-01T12:00:0%dZ\"}\n\n", n, n)
		// Return immediately: the client sees a closed transport and must
		// reconnect after the floor delay.
	}))
	defer srv.Close()

	feed := NewFeed(0)
	s := NewStream(StreamOptions{
		URL:          func(seed string) string { return srv.URL },
		BackoffFloor: 10 * time.Millisecond,
		BackoffCap:   40 * time.Millisecond,
	}, feed, zap.NewNop())
	s.Start(context.Background())
	defer s.Close()

	require.Eventually(t, func() bool { return attempts.Load() >= 3 }, 3*time.Second, 10*time.Millisecond)
	assert.GreaterOrEqual(t, len(feed.Items()), 2)
}

func TestStreamCloseIsIdempotentAndStopsRetrying(t *testing.T) {
	var attempts atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		attempts.Add(1)
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	s := NewStream(StreamOptions{
		URL:          func(seed string) string { return srv.URL },
		BackoffFloor: 5 * time.Millisecond,
		BackoffCap:   10 * time.Millisecond,
	}, NewFeed(0), zap.NewNop())
	s.Start(context.Background())

	require.Eventually(t, func() bool { return attempts.Load() >= 1 }, time.Second, 5*time.Millisecond)
	s.Close()
	s.Close() // safe to call twice

	<-s.Done()
	settled := attempts.Load()
	time.Sleep(50 * time.Millisecond)
	assert.Equal(t, settled, attempts.Load(), "no further attempts after Close")
	assert.Equal(t, StateClosed, s.State())
}
