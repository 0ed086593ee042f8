package guard

import (
	"github.com/cinepass/gateway/internal/session"
)

// AdminLoginRedirect backs the /admin/login page: a visitor already holding
// an elevated session is sent straight to their dashboard instead of being
// shown the login form again. Everyone else renders the form.
func AdminLoginRedirect(sess session.Session) Decision {
	if !sess.Hydrated {
		return Decision{Action: Loading}
	}
	if sess.LoggedIn() {
		if eff := session.EffectiveRole(sess.RoleSet()); eff.Elevated() {
			return redirect(DestinationFor(eff))
		}
	}
	return render()
}

// RouteHome backs the /admin index and /me routers: once authenticated, the
// visitor is forwarded to exactly one canonical destination for their
// effective role. adminSurface picks which login page an unauthenticated
// visitor lands on. Already being at the destination renders nothing further,
// avoiding redirect flicker.
func RouteHome(sess session.Session, currentPath string, adminSurface bool) Decision {
	if !sess.Hydrated {
		return Decision{Action: Loading}
	}
	if !sess.LoggedIn() {
		loginTarget := LoginPath
		if adminSurface {
			loginTarget = AdminLoginPath
		}
		if currentPath == loginTarget {
			return render()
		}
		return Decision{Action: Redirect, To: loginTarget, ReturnTo: currentPath}
	}
	dest := DestinationFor(session.EffectiveRole(sess.RoleSet()))
	if currentPath == dest {
		return render()
	}
	return redirect(dest)
}
