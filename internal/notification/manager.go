package notification

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/cinepass/gateway/internal/model"
	"github.com/cinepass/gateway/internal/session"
	"github.com/cinepass/gateway/internal/upstream"
)

// ReadAPI is the slice of the platform API used for read acknowledgments.
type ReadAPI interface {
	Notifications(ctx context.Context, token string, limit int, theatreID string) ([]model.Notification, error)
	Open(ctx context.Context, token, id string) (upstream.ReadReceipt, error)
	ReadAll(ctx context.Context, token string) error
	StreamURL(token, scope, theatreID, seed string) string
}

// ReceiptPublisher emits best-effort read receipts to the message broker for
// downstream analytics. Failures are the caller's to log and ignore.
type ReceiptPublisher interface {
	PublishRead(ctx context.Context, userID string, keys []string) error
}

// Manager owns one feed and one platform stream per session. Feeds are
// created lazily on first access, primed from the REST list, and torn down
// when the session logs out.
type Manager struct {
	api      ReadAPI
	receipts ReceiptPublisher // may be nil when no broker is configured
	log      *zap.Logger

	backoffFloor time.Duration
	backoffCap   time.Duration
	feedCap      int
	primeLimit   int
	onAnalytics  func(data []byte)

	mu      sync.Mutex
	entries map[string]*entry
}

type entry struct {
	feed   *Feed
	stream *Stream
	userID string
	token  string // upstream token the feed and stream were bound to
}

// ManagerOptions tune feed and reconnect behavior.
type ManagerOptions struct {
	BackoffFloor time.Duration
	BackoffCap   time.Duration
	FeedCap      int
	PrimeLimit   int
	// OnAnalytics receives analytics events from admin-scoped streams.
	OnAnalytics func(data []byte)
}

func NewManager(api ReadAPI, receipts ReceiptPublisher, opts ManagerOptions, log *zap.Logger) *Manager {
	if opts.PrimeLimit <= 0 {
		opts.PrimeLimit = DefaultCap
	}
	return &Manager{
		api:          api,
		receipts:     receipts,
		log:          log,
		backoffFloor: opts.BackoffFloor,
		backoffCap:   opts.BackoffCap,
		feedCap:      opts.FeedCap,
		primeLimit:   opts.PrimeLimit,
		onAnalytics:  opts.OnAnalytics,
		entries:      make(map[string]*entry),
	}
}

// Feed returns the feed for a session, creating it on first access: the
// initial list is fetched over REST and a platform stream subscription is
// started, scoped by the session's role and theatre. A session without a
// token gets no feed. An entry is bound to the token it was created with;
// when the same sid shows up with a different token the old feed and stream
// are torn down and a fresh one is built for the new identity.
func (m *Manager) Feed(ctx context.Context, sid string, sess session.Session) *Feed {
	if !sess.LoggedIn() {
		return nil
	}
	m.mu.Lock()
	if e, ok := m.entries[sid]; ok {
		if e.token == sess.Token {
			m.mu.Unlock()
			return e.feed
		}
		// The sid re-authenticated with a different token. The feed was
		// primed for the previous identity and the stream still carries the
		// old token and scope; neither may survive the change.
		delete(m.entries, sid)
		stale := e.stream
		m.mu.Unlock()
		if stale != nil {
			stale.Close()
		}
		m.mu.Lock()
		// Another request may have rebuilt the entry while the stale stream
		// was closing.
		if e, ok := m.entries[sid]; ok && e.token == sess.Token {
			m.mu.Unlock()
			return e.feed
		}
	}
	feed := NewFeed(m.feedCap)
	e := &entry{feed: feed, token: sess.Token}
	if sess.User != nil {
		e.userID = sess.User.ID
	}
	m.entries[sid] = e
	m.mu.Unlock()

	if items, err := m.api.Notifications(ctx, sess.Token, m.primeLimit, sess.TheatreID()); err != nil {
		m.log.Warn("prime notifications failed", zap.String("sid", sid), zap.Error(err))
	} else {
		feed.Prime(items)
	}

	scope := ScopeFor(session.EffectiveRole(sess.RoleSet()))
	token, theatre := sess.Token, sess.TheatreID()
	opts := StreamOptions{
		URL: func(seed string) string {
			return m.api.StreamURL(token, scope, theatre, seed)
		},
		BackoffFloor: m.backoffFloor,
		BackoffCap:   m.backoffCap,
	}
	// Dashboard series events ride the admin-scoped stream only.
	if scope == "admin" {
		opts.OnAnalytics = m.onAnalytics
	}
	stream := NewStream(opts, feed, m.log.With(zap.String("sid", sid)))
	e.stream = stream
	stream.Start(context.Background())
	return feed
}

// PublishToUser merges a locally synthesized notification into every live
// feed belonging to the given platform user. Used by the broker consumer,
// which addresses users rather than sessions.
func (m *Manager) PublishToUser(userID string, n model.Notification) {
	if userID == "" {
		return
	}
	m.mu.Lock()
	var feeds []*Feed
	for _, e := range m.entries {
		if e.userID == userID {
			feeds = append(feeds, e.feed)
		}
	}
	m.mu.Unlock()
	for _, f := range feeds {
		f.Merge(n)
	}
}

// Drop tears down a session's stream and discards its feed. Called on logout
// and on token loss. Idempotent.
func (m *Manager) Drop(sid string) {
	m.mu.Lock()
	e, ok := m.entries[sid]
	delete(m.entries, sid)
	m.mu.Unlock()
	if ok && e.stream != nil {
		e.stream.Close()
	}
}

// Shutdown closes every stream.
func (m *Manager) Shutdown() {
	m.mu.Lock()
	entries := m.entries
	m.entries = make(map[string]*entry)
	m.mu.Unlock()
	for _, e := range entries {
		if e.stream != nil {
			e.stream.Close()
		}
	}
}

// Open marks one item read: the local update is applied immediately, then the
// platform is told. On success the item is reconciled with the server's
// canonical read metadata; on failure the optimistic state stands, since read
// receipts are fire-and-forget.
func (m *Manager) Open(ctx context.Context, sid string, sess session.Session, key string) {
	feed := m.Feed(ctx, sid, sess)
	if feed == nil {
		return
	}
	if !feed.MarkRead(key, time.Now().UTC()) {
		return
	}
	m.publishReceipt(ctx, sess, []string{key})

	// Only server-identified items can be acknowledged upstream.
	id := key
	if len(id) > 6 && id[:6] == "local-" {
		return
	}
	rec, err := m.api.Open(ctx, sess.Token, id)
	if err != nil {
		m.log.Debug("notification open ack failed", zap.String("id", id), zap.Error(err))
		return
	}
	feed.Reconcile(key, rec.ReadAt, rec.ReadBy)
}

// ReadAll marks every unread item read locally, then tells the platform once.
// A failed server call does not roll the local state back.
func (m *Manager) ReadAll(ctx context.Context, sid string, sess session.Session) {
	feed := m.Feed(ctx, sid, sess)
	if feed == nil {
		return
	}
	keys := feed.MarkAllRead(time.Now().UTC())
	if len(keys) == 0 {
		return
	}
	m.publishReceipt(ctx, sess, keys)
	if err := m.api.ReadAll(ctx, sess.Token); err != nil {
		m.log.Debug("read-all ack failed", zap.Error(err))
	}
}

func (m *Manager) publishReceipt(ctx context.Context, sess session.Session, keys []string) {
	if m.receipts == nil {
		return
	}
	userID := ""
	if sess.User != nil {
		userID = sess.User.ID
	}
	if err := m.receipts.PublishRead(ctx, userID, keys); err != nil {
		m.log.Debug("read receipt publish failed", zap.Error(err))
	}
}
