// Package queue connects the gateway to the platform's message broker: it
// consumes booking confirmations and publishes notification read receipts.
package queue

// BookingConfirmedEvent is published by the platform when a reservation is
// confirmed. The gateway turns it into a notification for the owning user's
// live feeds without another trip to the API.
type BookingConfirmedEvent struct {
	ReservationID    uint64   `json:"reservation_id"`
	UserID           string   `json:"user_id"`
	TheatreID        string   `json:"theatre_id"`
	TheatreName      string   `json:"theatre_name"`
	ScreenName       string   `json:"screen_name"`
	MovieTitle       string   `json:"movie_title"`
	StartsAt         string   `json:"starts_at"`
	SeatLabels       []string `json:"seats"`
	TotalAmountCents uint32   `json:"total_amount_cents"`
	ConfirmedAt      string   `json:"confirmed_at"`
}

// NotificationReadEvent is the gateway's best-effort read receipt, published
// for downstream analytics when a user opens or clears notifications.
type NotificationReadEvent struct {
	UserID string   `json:"user_id"`
	Keys   []string `json:"keys"`
	ReadAt string   `json:"read_at"`
}
