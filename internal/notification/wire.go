package notification

import (
	"encoding/json"
	"strconv"
	"time"

	"github.com/cinepass/gateway/internal/model"
)

// wireNotification is the shape of a pushed notification payload. Timestamps
// arrive as RFC3339 strings or as epoch milliseconds depending on producer
// age; both are accepted.
type wireNotification struct {
	ID        string          `json:"id"`
	Title     string          `json:"title"`
	Message   string          `json:"message"`
	Type      string          `json:"type"`
	Link      string          `json:"link"`
	Data      map[string]any  `json:"data"`
	CreatedAt json.RawMessage `json:"createdAt"`
	ReadAt    *string         `json:"readAt"`
	ReadBy    string          `json:"readBy"`
}

// decodeNotification parses one pushed payload. The identity key is left
// empty; the feed assigns it on merge.
func decodeNotification(data []byte) (model.Notification, error) {
	var w wireNotification
	if err := json.Unmarshal(data, &w); err != nil {
		return model.Notification{}, err
	}
	n := model.Notification{
		ID:      w.ID,
		Title:   w.Title,
		Message: w.Message,
		Type:    w.Type,
		Link:    w.Link,
		Data:    w.Data,
	}
	n.CreatedAt = parseWireTime(w.CreatedAt)
	if w.ReadAt != nil {
		if ts, err := time.Parse(time.RFC3339, *w.ReadAt); err == nil {
			n.ReadAt = &ts
		}
	}
	n.ReadBy = w.ReadBy
	return n, nil
}

func parseWireTime(raw json.RawMessage) time.Time {
	if len(raw) == 0 {
		return time.Time{}
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		for _, layout := range []string{time.RFC3339Nano, time.RFC3339} {
			if ts, err := time.Parse(layout, s); err == nil {
				return ts
			}
		}
		return time.Time{}
	}
	if ms, err := strconv.ParseInt(string(raw), 10, 64); err == nil {
		return time.UnixMilli(ms).UTC()
	}
	return time.Time{}
}
