package queue

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestToNotification(t *testing.T) {
	ev := BookingConfirmedEvent{
		ReservationID: 42,
		UserID:        "u7",
		TheatreName:   "Grand Plaza",
		MovieTitle:    "Dune III",
		SeatLabels:    []string{"A1", "A2"},
		ConfirmedAt:   "2026-03-01T12:00:00Z",
	}
	n := toNotification(ev)
	assert.Equal(t, "booking-42", n.ID)
	assert.Equal(t, "booking", n.Type)
	assert.Equal(t, "Booking confirmed", n.Title)
	assert.Contains(t, n.Message, "Dune III")
	assert.Contains(t, n.Message, "A1, A2")
	assert.Equal(t, "/me/bookings/42", n.Link)
	assert.Equal(t, 2026, n.CreatedAt.Year())

	// Redelivery of the same reservation produces the same identity.
	assert.Equal(t, toNotification(ev).ID, n.ID)
}

func TestToNotificationBadTimestampFallsBackToNow(t *testing.T) {
	n := toNotification(BookingConfirmedEvent{ReservationID: 1, UserID: "u1", ConfirmedAt: "yesterday"})
	assert.False(t, n.CreatedAt.IsZero())
}

func TestHandleMessageRejectsBadPayloads(t *testing.T) {
	assert.Error(t, handleMessage([]byte("not json"), nil))

	// Valid JSON but no user id: rejected before touching the manager.
	body, err := json.Marshal(BookingConfirmedEvent{ReservationID: 1})
	require.NoError(t, err)
	assert.Error(t, handleMessage(body, nil))
}

func TestReadEventRoundTrip(t *testing.T) {
	body, err := json.Marshal(NotificationReadEvent{UserID: "u1", Keys: []string{"a", "b"}, ReadAt: "2026-03-01T12:00:00Z"})
	require.NoError(t, err)
	var ev NotificationReadEvent
	require.NoError(t, json.Unmarshal(body, &ev))
	assert.Equal(t, []string{"a", "b"}, ev.Keys)
}
