// Package upstream implements the HTTP client for the cinema platform's REST
// API. One documented endpoint per resource; the client never probes
// alternate paths. Server-provided error messages are preserved verbatim so
// callers can surface them to the user.
package upstream

import "errors"

// AuthError is a login or credential failure. Message carries the
// server-provided text when one exists, otherwise a generic fallback; Code is
// a stable machine-readable discriminator.
type AuthError struct {
	Code    string
	Message string
}

func (e *AuthError) Error() string {
	if e.Message != "" {
		return e.Message
	}
	return e.Code
}

// CodeMissingToken is set when a login response carried no bearer token.
const CodeMissingToken = "missing_token"

// ErrSessionExpired is returned when an authenticated call comes back with
// 401 or 403. Callers treat it as an implicit logout, never as a user-facing
// error.
var ErrSessionExpired = errors.New("session expired")
