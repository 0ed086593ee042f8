// Package analytics maintains the admin dashboard's daily revenue/bookings
// series. The platform's push stream is not guaranteed to send full
// snapshots: an event carries either absolute values for a day bucket
// (replace) or deltas (add, creating the bucket when absent), keyed by ISO
// date. Both forms must merge correctly under duplicate delivery of distinct
// events.
package analytics

import (
	"encoding/json"
	"fmt"
	"sort"
	"sync"
)

// Bucket aggregates one calendar day.
type Bucket struct {
	Date     string  `json:"date"` // ISO yyyy-mm-dd
	Revenue  float64 `json:"revenue"`
	Bookings int64   `json:"bookings"`
}

// Event is one pushed analytics payload. Pointer fields distinguish "absent"
// from zero: absolute fields replace the bucket's value, delta fields add to
// it.
type Event struct {
	Date          string   `json:"date"`
	Revenue       *float64 `json:"revenue"`
	Bookings      *int64   `json:"bookings"`
	RevenueDelta  *float64 `json:"revenueDelta"`
	BookingsDelta *int64   `json:"bookingsDelta"`
}

// ParseEvent decodes a pushed analytics payload.
func ParseEvent(data []byte) (Event, error) {
	var ev Event
	if err := json.Unmarshal(data, &ev); err != nil {
		return Event{}, err
	}
	if ev.Date == "" {
		return Event{}, fmt.Errorf("analytics event without date")
	}
	return ev, nil
}

// Series is an in-memory day-bucket map. Safe for concurrent use.
type Series struct {
	mu      sync.Mutex
	buckets map[string]*Bucket
}

func NewSeries() *Series {
	return &Series{buckets: make(map[string]*Bucket)}
}

// Apply merges one event into the series and returns the bucket's new state.
func (s *Series) Apply(ev Event) Bucket {
	s.mu.Lock()
	defer s.mu.Unlock()
	b, ok := s.buckets[ev.Date]
	if !ok {
		b = &Bucket{Date: ev.Date}
		s.buckets[ev.Date] = b
	}
	if ev.Revenue != nil {
		b.Revenue = *ev.Revenue
	}
	if ev.Bookings != nil {
		b.Bookings = *ev.Bookings
	}
	if ev.RevenueDelta != nil {
		b.Revenue += *ev.RevenueDelta
	}
	if ev.BookingsDelta != nil {
		b.Bookings += *ev.BookingsDelta
	}
	return *b
}

// Load replaces the series content, used at startup to restore persisted
// buckets.
func (s *Series) Load(buckets []Bucket) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.buckets = make(map[string]*Bucket, len(buckets))
	for _, b := range buckets {
		cp := b
		s.buckets[b.Date] = &cp
	}
}

// Snapshot returns all buckets sorted by date ascending. ISO dates sort
// lexically.
func (s *Series) Snapshot() []Bucket {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Bucket, 0, len(s.buckets))
	for _, b := range s.buckets {
		out = append(out, *b)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Date < out[j].Date })
	return out
}
