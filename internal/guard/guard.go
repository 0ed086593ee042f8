// Package guard decides, for a session and a protected route, whether to
// render or where to redirect. Evaluate is pure: no network calls, no side
// effects; callers apply the returned decision. The same state machine backs
// the role-gated routes and the admin-index / profile / admin-login redirect
// routers.
package guard

import (
	"github.com/cinepass/gateway/internal/role"
	"github.com/cinepass/gateway/internal/session"
)

// Well-known SPA paths the guard redirects between.
const (
	LoginPath      = "/login"
	AdminLoginPath = "/admin/login"
	PublicHome     = "/"
	AdminHome      = "/admin/dashboard"
	TheatreHome    = "/theatre/dashboard"
	UserHome       = "/me/bookings"
)

// Requirement is attached to a protected route. An empty Roles list means
// "any authenticated user"; Public additionally waives authentication.
type Requirement struct {
	Roles  []role.Role
	Public bool
}

// AdminSurface reports whether any required role is elevated. It decides
// which login page an unauthenticated visitor is sent to and whether the
// super-admin override applies.
func (r Requirement) AdminSurface() bool {
	for _, ro := range r.Roles {
		if ro.Elevated() {
			return true
		}
	}
	return false
}

// Action is the kind of decision the guard reached.
type Action int

const (
	// Loading: session hydration has not finished; hold the route neutral,
	// no redirect decision yet.
	Loading Action = iota
	// Render: let the route through.
	Render
	// Redirect: send the visitor to Decision.To.
	Redirect
)

func (a Action) String() string {
	switch a {
	case Render:
		return "render"
	case Redirect:
		return "redirect"
	default:
		return "loading"
	}
}

// Decision is the guard's verdict. ReturnTo is set on login redirects so a
// successful login can send the visitor back where they started.
type Decision struct {
	Action   Action
	To       string
	ReturnTo string
}

func render() Decision            { return Decision{Action: Render} }
func redirect(to string) Decision { return Decision{Action: Redirect, To: to} }

// Evaluate runs the guard state machine for one route.
func Evaluate(sess session.Session, req Requirement, currentPath string) Decision {
	if !sess.Hydrated {
		return Decision{Action: Loading}
	}

	if !sess.LoggedIn() {
		if len(req.Roles) == 0 && req.Public {
			return render()
		}
		loginTarget := LoginPath
		if req.AdminSurface() {
			loginTarget = AdminLoginPath
		}
		// Never bounce into the page already being requested.
		if currentPath == loginTarget {
			return render()
		}
		return Decision{Action: Redirect, To: loginTarget, ReturnTo: currentPath}
	}

	// Any logged-in user passes a role-free route.
	if len(req.Roles) == 0 {
		return render()
	}

	have := sess.RoleSet()

	// Super-admin covers every admin-flavored permission, but only on admin
	// surfaces; USER-only pages still require USER in the allowed set.
	if have[role.SuperAdmin] && req.AdminSurface() {
		return render()
	}
	for _, want := range req.Roles {
		if have[want] {
			return render()
		}
	}

	// Deny: elevated visitors go to their own dashboard, everyone else to
	// the public home, with the same loop prevention as above.
	target := PublicHome
	if eff := session.EffectiveRole(have); eff.Elevated() {
		target = DestinationFor(eff)
	}
	if currentPath == target {
		return render()
	}
	return redirect(target)
}

// DestinationFor maps an effective role to its one canonical landing page.
func DestinationFor(r role.Role) string {
	switch r {
	case role.SuperAdmin, role.Admin:
		return AdminHome
	case role.TheatreAdmin:
		return TheatreHome
	default:
		return UserHome
	}
}
