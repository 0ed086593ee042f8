// Package role defines the canonical role vocabulary of the platform and the
// normalization rules that map the many role spellings seen in upstream
// responses, JWT claims and stored profiles onto it. Every other layer
// compares roles only after normalization; raw server strings never reach a
// comparison site.
package role

import "strings"

// Role is a canonical role name. The zero value ("") means "no role".
type Role string

const (
	// None is returned for empty or null input.
	None Role = ""
	// User is a regular customer account.
	User Role = "USER"
	// Admin is a platform administrator.
	Admin Role = "ADMIN"
	// TheatreAdmin manages a single theatre's screens and showtimes.
	TheatreAdmin Role = "THEATRE_ADMIN"
	// SuperAdmin has every admin-flavored permission.
	SuperAdmin Role = "SUPER_ADMIN"
)

// aliases maps historical and third-party spellings onto canonical roles.
// The keys are matched after trimming, upper-casing, whitespace collapsing
// and ROLE_ prefix stripping.
var aliases = map[string]Role{
	"THEATER_ADMIN": TheatreAdmin,
	"MANAGER":       TheatreAdmin,
	"PVR_MANAGER":   TheatreAdmin,
	"PVR_ADMIN":     TheatreAdmin,
	"SUPERADMIN":    SuperAdmin,
}

// Normalize maps a raw role string to its canonical form. Empty input (after
// trimming) yields None. Unrecognized values pass through upper-cased and
// underscore-joined without error so that unknown future roles fail closed at
// the comparison site instead of crashing here.
func Normalize(raw string) Role {
	s := strings.TrimSpace(raw)
	if s == "" {
		return None
	}
	s = strings.ToUpper(s)
	// Collapse internal whitespace runs to a single underscore so
	// "Theater Admin" and "THEATER_ADMIN" normalize identically.
	s = strings.Join(strings.Fields(s), "_")
	s = strings.TrimPrefix(s, "ROLE_")
	if canonical, ok := aliases[s]; ok {
		return canonical
	}
	return Role(s)
}

// NormalizeAll applies Normalize to each element, drops empties and returns
// the resulting set. Order is irrelevant; uniqueness is guaranteed by the map.
func NormalizeAll(raw []string) map[Role]bool {
	set := make(map[Role]bool, len(raw))
	for _, r := range raw {
		if n := Normalize(r); n != None {
			set[n] = true
		}
	}
	return set
}

// Elevated reports whether r is an admin-flavored role, i.e. anything other
// than a plain customer account.
func (r Role) Elevated() bool {
	switch r {
	case Admin, TheatreAdmin, SuperAdmin:
		return true
	}
	return false
}

// Known reports whether r is one of the canonical roles. Normalized values
// outside the vocabulary (future roles passed through by Normalize) are not
// known and therefore never satisfy a route requirement.
func (r Role) Known() bool {
	switch r {
	case User, Admin, TheatreAdmin, SuperAdmin:
		return true
	}
	return false
}

// CollapseForLogin reduces a role resolved during login to the coarse pair
// used at that stage: any elevated role becomes Admin, everything else
// becomes User. Finer-grained theatre and super roles are resolved later from
// profile data, not from the login response.
func CollapseForLogin(r Role) Role {
	if r.Elevated() {
		return Admin
	}
	return User
}
