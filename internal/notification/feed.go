// Package notification keeps each session's realtime notification feed: an
// ordered, deduplicated, capped list fed by the platform's server-push stream,
// the message broker, and the initial REST fetch, and re-broadcast to the
// browser. Merges are commutative and idempotent with respect to re-delivery
// of the same id, so duplicate or out-of-order transport delivery is safe.
package notification

import (
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/cinepass/gateway/internal/model"
)

// DefaultCap is how many most-recent items a feed retains.
const DefaultCap = 50

// Feed is a single user's notification list. Safe for concurrent use.
type Feed struct {
	mu      sync.Mutex
	items   []*model.Notification // sorted by CreatedAt descending
	cap     int
	subs    map[int]chan model.Notification
	nextSub int
}

// NewFeed builds an empty feed retaining at most capacity items (DefaultCap
// when capacity <= 0).
func NewFeed(capacity int) *Feed {
	if capacity <= 0 {
		capacity = DefaultCap
	}
	return &Feed{cap: capacity, subs: make(map[int]chan model.Notification)}
}

// Merge inserts or updates one item and returns it with its identity key
// assigned. Identity is the server id when present, otherwise a generated
// placeholder that stays stable for the item's lifetime. A later payload for
// an already-known id fully replaces the item, keeping fields the new payload
// omitted.
func (f *Feed) Merge(n model.Notification) model.Notification {
	f.mu.Lock()
	merged := f.mergeLocked(n)
	f.sortAndTruncateLocked()
	f.mu.Unlock()
	f.broadcast(merged)
	return merged
}

// Prime bulk-merges the initial REST fetch without waking subscribers.
func (f *Feed) Prime(items []model.Notification) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, n := range items {
		f.mergeLocked(n)
	}
	f.sortAndTruncateLocked()
}

func (f *Feed) mergeLocked(n model.Notification) model.Notification {
	if n.Key == "" {
		if n.ID != "" {
			n.Key = n.ID
		} else {
			n.Key = "local-" + uuid.NewString()
		}
	}
	if n.CreatedAt.IsZero() {
		n.CreatedAt = time.Now().UTC()
	}
	for i, existing := range f.items {
		if existing.Key != n.Key && (n.ID == "" || existing.ID != n.ID) {
			continue
		}
		// Later wins, but fields the new payload omitted stay as they were.
		replacement := n
		replacement.Key = existing.Key
		if n.ID != "" {
			// Server id supersedes a placeholder key.
			replacement.Key = n.ID
		}
		if replacement.ReadAt == nil {
			replacement.ReadAt = existing.ReadAt
		}
		if replacement.ReadBy == "" {
			replacement.ReadBy = existing.ReadBy
		}
		if replacement.Data == nil {
			replacement.Data = existing.Data
		}
		if replacement.Link == "" {
			replacement.Link = existing.Link
		}
		if replacement.Type == "" {
			replacement.Type = existing.Type
		}
		f.items[i] = &replacement
		return replacement
	}
	item := n
	f.items = append(f.items, &item)
	return item
}

func (f *Feed) sortAndTruncateLocked() {
	sort.SliceStable(f.items, func(i, j int) bool {
		return f.items[i].CreatedAt.After(f.items[j].CreatedAt)
	})
	if len(f.items) > f.cap {
		f.items = f.items[:f.cap]
	}
}

// Items returns a snapshot of the feed, newest first.
func (f *Feed) Items() []model.Notification {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]model.Notification, len(f.items))
	for i, n := range f.items {
		out[i] = *n
	}
	return out
}

// Unread counts items without a read timestamp.
func (f *Feed) Unread() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, item := range f.items {
		if item.ReadAt == nil {
			n++
		}
	}
	return n
}

// MarkRead sets ReadAt on the item with the given identity key if it is still
// unread. Reports whether an item was found.
func (f *Feed) MarkRead(key string, at time.Time) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, item := range f.items {
		if item.Key == key {
			if item.ReadAt == nil {
				t := at
				item.ReadAt = &t
			}
			return true
		}
	}
	return false
}

// MarkAllRead sets ReadAt on every unread item and returns their keys.
func (f *Feed) MarkAllRead(at time.Time) []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	var keys []string
	for _, item := range f.items {
		if item.ReadAt == nil {
			t := at
			item.ReadAt = &t
			keys = append(keys, item.Key)
		}
	}
	return keys
}

// Reconcile overwrites an item's read metadata with the server's canonical
// values after a successful acknowledgment.
func (f *Feed) Reconcile(key string, readAt *time.Time, readBy string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, item := range f.items {
		if item.Key == key {
			if readAt != nil {
				item.ReadAt = readAt
			}
			if readBy != "" {
				item.ReadBy = readBy
			}
			return
		}
	}
}

// Subscribe registers a listener for merged items. The returned cancel
// function is idempotent. Slow subscribers drop events rather than block the
// feed.
func (f *Feed) Subscribe() (<-chan model.Notification, func()) {
	f.mu.Lock()
	id := f.nextSub
	f.nextSub++
	ch := make(chan model.Notification, 16)
	f.subs[id] = ch
	f.mu.Unlock()

	var once sync.Once
	cancel := func() {
		once.Do(func() {
			f.mu.Lock()
			delete(f.subs, id)
			f.mu.Unlock()
			close(ch)
		})
	}
	return ch, cancel
}

func (f *Feed) broadcast(n model.Notification) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, ch := range f.subs {
		select {
		case ch <- n:
		default:
		}
	}
}
