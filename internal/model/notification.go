package model

import "time"

// Notification is a single realtime event shown to the user. Identity is the
// Key field: the server id when the server sent one, otherwise a locally
// generated placeholder that stays stable for the lifetime of the item.
//
// Fields:
//  Key       – identity used for dedup and read operations.
//  ID        – server-assigned id, empty when the server omitted it.
//  Title     – short headline.
//  Message   – body text.
//  Type      – server-defined category (booking, promo, system, ...).
//  Link      – optional deep link the UI navigates to on click.
//  Data      – free-form payload, kept as received.
//  CreatedAt – event time; the feed sorts on this, newest first.
//  ReadAt    – when the user read the item, nil while unread.
//  ReadBy    – who acknowledged the read, filled in by the server.
type Notification struct {
	Key       string         `json:"key"`
	ID        string         `json:"id,omitempty"`
	Title     string         `json:"title"`
	Message   string         `json:"message"`
	Type      string         `json:"type,omitempty"`
	Link      string         `json:"link,omitempty"`
	Data      map[string]any `json:"data,omitempty"`
	CreatedAt time.Time      `json:"createdAt"`
	ReadAt    *time.Time     `json:"readAt,omitempty"`
	ReadBy    string         `json:"readBy,omitempty"`
}

// Read reports whether the item has been marked read.
func (n *Notification) Read() bool { return n.ReadAt != nil }
