// Package session owns the authenticated identity of each connected browser:
// login against the platform, write-through persistence of token/role/user to
// durable storage, and hydration of that state back on every request.
package session

import (
	"github.com/cinepass/gateway/internal/model"
	"github.com/cinepass/gateway/internal/role"
)

// Session is the current authenticated identity. A non-empty Token means
// logged in; Role is always canonical, never a raw server string. Hydrated is
// false only before the first storage read completes, which lets the route
// guard hold its decision instead of bouncing users to login during startup.
type Session struct {
	Token    string
	Role     role.Role
	User     *model.User
	Hydrated bool
}

// LoggedIn reports whether the session carries a bearer token.
func (s Session) LoggedIn() bool { return s.Token != "" }

// RoleSet unions every place a role can hide: the stored canonical role plus
// the profile's role string and roles list. Different server eras populate
// different fields, so comparisons always run against the union.
func (s Session) RoleSet() map[role.Role]bool {
	sources := []role.Source{{Role: string(s.Role)}}
	if s.User != nil {
		sources = append(sources, role.Source{Role: s.User.Role, Roles: s.User.Roles})
	}
	return role.Union(sources...)
}

// TheatreID returns the owning theatre for theatre-scoped accounts, or "".
func (s Session) TheatreID() string {
	if s.User != nil {
		return s.User.TheatreID
	}
	return ""
}

// EffectiveRole collapses a role set to the single strongest role, used by
// the redirect routers to pick one canonical destination.
func EffectiveRole(set map[role.Role]bool) role.Role {
	switch {
	case set[role.SuperAdmin]:
		return role.SuperAdmin
	case set[role.TheatreAdmin]:
		return role.TheatreAdmin
	case set[role.Admin]:
		return role.Admin
	case set[role.User]:
		return role.User
	}
	return role.None
}
