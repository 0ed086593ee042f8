package model

import "time"

// User is the profile of an authenticated identity as returned by the
// platform's profile endpoint. Role information is duplicated across several
// fields by different server eras (a bare Role string, a Roles list, and the
// token claims); consumers union them through the role package rather than
// picking one.
//
// Fields:
//  ID          – platform identifier of the account.
//  Name        – display name.
//  Email       – unique email address.
//  Phone       – optional phone number.
//  Role        – role as a single string (older responses).
//  Roles       – role list (newer responses).
//  TheatreID   – owning theatre for theatre-scoped accounts, empty otherwise.
//  Preferences – free-form preference map, passed through untouched.
//  CreatedAt   – account creation time, zero when the server omits it.
type User struct {
	ID          string         `json:"id"`
	Name        string         `json:"name"`
	Email       string         `json:"email"`
	Phone       string         `json:"phone,omitempty"`
	Role        string         `json:"role,omitempty"`
	Roles       []string       `json:"roles,omitempty"`
	TheatreID   string         `json:"theatreId,omitempty"`
	Preferences map[string]any `json:"preferences,omitempty"`
	CreatedAt   time.Time      `json:"createdAt,omitempty"`
}
