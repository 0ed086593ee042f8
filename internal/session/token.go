package session

import (
	"github.com/golang-jwt/jwt/v5"

	"github.com/cinepass/gateway/internal/role"
)

// roleFromToken decodes the bearer token without verifying its signature and
// extracts whatever role claims its payload carries. The gateway is not the
// token issuer, so the claims are advisory only; they sit last in the login
// role-resolution order, behind the explicit fields of the response body.
// Anything that is not a three-part JWT with a JSON payload yields an empty
// source.
func roleFromToken(token string) role.Source {
	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		return role.Source{}
	}
	return role.FromClaims(claims)
}
