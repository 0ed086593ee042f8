package handler

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/cinepass/gateway/internal/middleware"
	"github.com/cinepass/gateway/internal/notification"
)

// NotificationHandler exposes the per-session feed over REST and SSE.
type NotificationHandler struct {
	Manager *notification.Manager
	Log     *zap.Logger
}

func NewNotificationHandler(mgr *notification.Manager, log *zap.Logger) *NotificationHandler {
	return &NotificationHandler{Manager: mgr, Log: log}
}

// List returns the merged feed snapshot, newest first, plus the unread count.
func (h *NotificationHandler) List(c echo.Context) error {
	feed := h.feed(c)
	if feed == nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "authentication required"})
	}
	return c.JSON(http.StatusOK, echo.Map{
		"items":  feed.Items(),
		"unread": feed.Unread(),
	})
}

// Open marks one notification read. The local state flips immediately; the
// upstream acknowledgement happens inside the manager and never blocks a
// failure back to the client.
func (h *NotificationHandler) Open(c echo.Context) error {
	key := c.Param("key")
	if key == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "notification key required"})
	}
	sid := middleware.SessionID(c)
	sess := middleware.CurrentSession(c)
	if !sess.LoggedIn() {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "authentication required"})
	}
	h.Manager.Open(c.Request().Context(), sid, sess, key)
	return c.NoContent(http.StatusNoContent)
}

// ReadAll marks every item in the feed read.
func (h *NotificationHandler) ReadAll(c echo.Context) error {
	sid := middleware.SessionID(c)
	sess := middleware.CurrentSession(c)
	if !sess.LoggedIn() {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "authentication required"})
	}
	h.Manager.ReadAll(c.Request().Context(), sid, sess)
	return c.NoContent(http.StatusNoContent)
}

// Stream re-broadcasts the session's feed as server-sent events. The browser
// gets one "snapshot" event on connect, then a "notification" event per merge.
// Heartbeat comments keep intermediaries from timing the connection out; the
// request context ending tears the subscription down.
func (h *NotificationHandler) Stream(c echo.Context) error {
	feed := h.feed(c)
	if feed == nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "authentication required"})
	}

	res := c.Response()
	res.Header().Set(echo.HeaderContentType, "text/event-stream")
	res.Header().Set(echo.HeaderCacheControl, "no-cache")
	res.Header().Set("Connection", "keep-alive")
	res.WriteHeader(http.StatusOK)

	if err := writeEvent(res, "snapshot", feed.Items()); err != nil {
		return nil
	}

	updates, cancel := feed.Subscribe()
	defer cancel()

	heartbeat := time.NewTicker(25 * time.Second)
	defer heartbeat.Stop()

	ctx := c.Request().Context()
	for {
		select {
		case <-ctx.Done():
			return nil
		case n, ok := <-updates:
			if !ok {
				return nil
			}
			if err := writeEvent(res, "notification", n); err != nil {
				return nil
			}
		case <-heartbeat.C:
			if _, err := fmt.Fprint(res, ": ping\n\n"); err != nil {
				return nil
			}
			res.Flush()
		}
	}
}

func (h *NotificationHandler) feed(c echo.Context) *notification.Feed {
	sid := middleware.SessionID(c)
	sess := middleware.CurrentSession(c)
	return h.Manager.Feed(c.Request().Context(), sid, sess)
}

func writeEvent(res *echo.Response, event string, payload any) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	if _, err := fmt.Fprintf(res, "event: %s\ndata: %s\n\n", event, data); err != nil {
		return err
	}
	res.Flush()
	return nil
}
