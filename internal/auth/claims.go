// internal/auth/claims.go
package auth

import (
	"github.com/golang-jwt/jwt/v4"
)

// Claims is the normalized identity extracted from a verified credential.
// Every downstream component depends on this type, never on raw token
// payloads; field names vary between access and id tokens and this is the
// single place that difference is resolved.
type Claims struct {
	Sub      string   `json:"sub"`
	Username string   `json:"username"`
	Email    string   `json:"email"`
	Name     string   `json:"name,omitempty"`
	Groups   []string `json:"groups,omitempty"`
}

// IsAdmin reports whether the caller belongs to the admin group.
func (c *Claims) IsAdmin() bool {
	for _, g := range c.Groups {
		if g == "admin" {
			return true
		}
	}
	return false
}

// ClaimsFromToken normalizes a parsed token payload. Access tokens carry the
// username in "username", id tokens in "cognito:username"; groups arrive as
// "cognito:groups".
func ClaimsFromToken(raw jwt.MapClaims) *Claims {
	c := &Claims{
		Sub:      stringClaim(raw, "sub"),
		Username: stringClaim(raw, "cognito:username"),
		Email:    stringClaim(raw, "email"),
		Name:     stringClaim(raw, "name"),
	}
	if c.Username == "" {
		c.Username = stringClaim(raw, "username")
	}

	if groups, ok := raw["cognito:groups"].([]interface{}); ok {
		for _, g := range groups {
			if s, ok := g.(string); ok {
				c.Groups = append(c.Groups, s)
			}
		}
	}

	return c
}

func stringClaim(raw jwt.MapClaims, key string) string {
	if v, ok := raw[key].(string); ok {
		return v
	}
	return ""
}
