package role

// Source absorbs the heterogeneous role shapes produced by different server
// eras: a bare string, a string list, or an object carrying either. Call
// sites build a Source from whatever they received and let Set flatten it;
// they never branch on shape themselves.
type Source struct {
	Role  string
	Roles []string
}

// Set normalizes every role carried by the source into a canonical set.
func (s Source) Set() map[Role]bool {
	all := make([]string, 0, len(s.Roles)+1)
	if s.Role != "" {
		all = append(all, s.Role)
	}
	all = append(all, s.Roles...)
	return NormalizeAll(all)
}

// FromClaims extracts a Source from decoded token claims. Role claims, when
// present, live under "role" (string) or "roles" (list of strings). Values of
// unexpected dynamic types are ignored.
func FromClaims(claims map[string]any) Source {
	var src Source
	if v, ok := claims["role"].(string); ok {
		src.Role = v
	}
	if list, ok := claims["roles"].([]any); ok {
		for _, item := range list {
			if v, ok := item.(string); ok {
				src.Roles = append(src.Roles, v)
			}
		}
	}
	return src
}

// Union merges several sources into one canonical set.
func Union(sources ...Source) map[Role]bool {
	out := make(map[Role]bool)
	for _, s := range sources {
		for r := range s.Set() {
			out[r] = true
		}
	}
	return out
}
