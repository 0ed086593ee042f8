package upstream

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/tidwall/gjson"
	"go.uber.org/zap"

	"github.com/cinepass/gateway/internal/model"
)

// Client talks to the platform backend. It is safe for concurrent use.
type Client struct {
	base string
	http *http.Client
	log  *zap.Logger
}

// New builds a Client against the given API origin (scheme://host[:port],
// no trailing slash required).
func New(base string, timeout time.Duration, log *zap.Logger) *Client {
	for len(base) > 0 && base[len(base)-1] == '/' {
		base = base[:len(base)-1]
	}
	return &Client{
		base: base,
		http: &http.Client{Timeout: timeout},
		log:  log,
	}
}

// Base returns the API origin the client was built with.
func (c *Client) Base() string { return c.base }

// LoginResult carries everything the session store needs to resolve a role:
// the raw role strings found at each position of the response body, in the
// order the resolution rules consult them.
type LoginResult struct {
	Token    string
	UserRole string // role field inside the user object, raw
	TopRole  string // top-level role field, raw
	User     *model.User
}

// Login authenticates against the customer login endpoint.
func (c *Client) Login(ctx context.Context, email, password string) (LoginResult, error) {
	return c.login(ctx, "/auth/login", email, password)
}

// AdminLogin authenticates against the back-office login endpoint.
func (c *Client) AdminLogin(ctx context.Context, email, password string) (LoginResult, error) {
	return c.login(ctx, "/auth/admin/login", email, password)
}

func (c *Client) login(ctx context.Context, path, email, password string) (LoginResult, error) {
	body, _ := json.Marshal(map[string]string{"email": email, "password": password})
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.base+path, bytes.NewReader(body))
	if err != nil {
		return LoginResult{}, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return LoginResult{}, &AuthError{Code: "network", Message: err.Error()}
	}
	defer resp.Body.Close()
	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return LoginResult{}, err
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return LoginResult{}, &AuthError{
			Code:    "login_failed",
			Message: errorMessage(raw, "login failed"),
		}
	}

	// Token and role fields move around between backend versions; pull them
	// out tolerantly instead of binding the whole body to one shape.
	token := firstString(raw, "token", "accessToken", "data.token")
	if token == "" {
		return LoginResult{}, &AuthError{Code: CodeMissingToken, Message: "login response carried no token"}
	}

	res := LoginResult{
		Token:    token,
		UserRole: firstString(raw, "user.role", "data.user.role"),
		TopRole:  firstString(raw, "role", "data.role"),
	}
	if u := gjson.GetBytes(raw, "user"); u.IsObject() {
		var user model.User
		if err := json.Unmarshal([]byte(u.Raw), &user); err == nil {
			res.User = &user
		}
	}
	return res, nil
}

// Profile fetches the current user. A 401/403 maps to ErrSessionExpired.
func (c *Client) Profile(ctx context.Context, token string) (*model.User, error) {
	raw, err := c.get(ctx, token, "/profile/me", nil)
	if err != nil {
		return nil, err
	}
	// Some deployments wrap the profile under "user" or "data".
	body := raw
	if u := gjson.GetBytes(raw, "user"); u.IsObject() {
		body = []byte(u.Raw)
	} else if d := gjson.GetBytes(raw, "data"); d.IsObject() {
		body = []byte(d.Raw)
	}
	var user model.User
	if err := json.Unmarshal(body, &user); err != nil {
		return nil, fmt.Errorf("decode profile: %w", err)
	}
	return &user, nil
}

// Notifications returns the caller's most recent notifications. The endpoint
// answers either {items: [...]} or a bare array; both are accepted.
func (c *Client) Notifications(ctx context.Context, token string, limit int, theatreID string) ([]model.Notification, error) {
	q := url.Values{"limit": {strconv.Itoa(limit)}}
	if theatreID != "" {
		q.Set("theatreId", theatreID)
	}
	raw, err := c.get(ctx, token, "/notifications/mine", q)
	if err != nil {
		return nil, err
	}
	list := gjson.GetBytes(raw, "items")
	if !list.IsArray() {
		list = gjson.ParseBytes(raw)
	}
	if !list.IsArray() {
		return nil, fmt.Errorf("decode notifications: unexpected shape")
	}
	var items []model.Notification
	if err := json.Unmarshal([]byte(list.Raw), &items); err != nil {
		return nil, fmt.Errorf("decode notifications: %w", err)
	}
	return items, nil
}

// ReadReceipt is the server's canonical view of a read acknowledgment.
type ReadReceipt struct {
	ReadAt *time.Time
	ReadBy string
}

// Open marks a single notification read and returns the server's canonical
// read metadata for reconciliation.
func (c *Client) Open(ctx context.Context, token, id string) (ReadReceipt, error) {
	raw, err := c.post(ctx, token, "/notifications/"+url.PathEscape(id)+"/open", nil)
	if err != nil {
		return ReadReceipt{}, err
	}
	var rec ReadReceipt
	if v := firstString(raw, "readAt", "notification.readAt"); v != "" {
		if ts, err := time.Parse(time.RFC3339, v); err == nil {
			rec.ReadAt = &ts
		}
	}
	rec.ReadBy = firstString(raw, "readBy", "notification.readBy")
	return rec, nil
}

// ReadAll marks every notification read. Best effort; callers log and ignore
// failures.
func (c *Client) ReadAll(ctx context.Context, token string) error {
	_, err := c.post(ctx, token, "/notifications/read-all", nil)
	return err
}

// StreamURL builds the server-push stream URL for the given subscription
// scope. seed is a cache-busting value, unique per connection attempt.
func (c *Client) StreamURL(token, scope, theatreID, seed string) string {
	q := url.Values{"token": {token}, "scope": {scope}, "seed": {seed}}
	if theatreID != "" {
		q.Set("theatreId", theatreID)
	}
	return c.base + "/api/notifications/stream?" + q.Encode()
}

func (c *Client) get(ctx context.Context, token, path string, q url.Values) ([]byte, error) {
	u := c.base + path
	if len(q) > 0 {
		u += "?" + q.Encode()
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, err
	}
	return c.doAuthed(req, token)
}

func (c *Client) post(ctx context.Context, token, path string, body []byte) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.base+path, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	return c.doAuthed(req, token)
}

func (c *Client) doAuthed(req *http.Request, token string) ([]byte, error) {
	req.Header.Set("Authorization", "Bearer "+token)
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}
	switch {
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		return nil, ErrSessionExpired
	case resp.StatusCode < 200 || resp.StatusCode >= 300:
		return nil, fmt.Errorf("%s %s: %s", req.Method, req.URL.Path, errorMessage(raw, resp.Status))
	}
	return raw, nil
}

// errorMessage digs a human-readable message out of an error body, falling
// back to the supplied default.
func errorMessage(raw []byte, fallback string) string {
	if m := firstString(raw, "message", "error", "error.message"); m != "" {
		return m
	}
	return fallback
}

// firstString returns the first non-empty string value found at the given
// gjson paths.
func firstString(raw []byte, paths ...string) string {
	for _, p := range paths {
		if v := gjson.GetBytes(raw, p); v.Type == gjson.String && v.Str != "" {
			return v.Str
		}
	}
	return ""
}
