// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package auth

import (
	"strings"

	"github.com/golang-jwt/jwt/v5"
)

// tokenClaims covers the claim shapes the repair-shop backend has issued.
type tokenClaims struct {
	Username    string           `json:"username,omitempty"`
	Admin       *bool            `json:"admin,omitempty"`
	IsAdmin     *bool            `json:"isAdmin,omitempty"`
	Roles       jwt.ClaimStrings `json:"roles,omitempty"`
	Authorities jwt.ClaimStrings `json:"authorities,omitempty"`
	jwt.RegisteredClaims
}

// Identity is what can be learned about the user from a token.
type Identity struct {
	Username string
	IsAdmin  bool
	// Known is false when the token is opaque (not a JWT).
	Known bool
}

// IdentityFromToken reads the username and admin flag from a JWT without
// verifying its signature; the backend verifies it on every request and the
// client only uses the claims for display and navigation.
func IdentityFromToken(token string) Identity {
	var claims tokenClaims
	if _, _, err := jwt.NewParser().ParseUnverified(token, &claims); err != nil {
		return Identity{}
	}

	id := Identity{Known: true, Username: claims.Username}
	if id.Username == "" {
		id.Username = claims.Subject
	}

	switch {
	case claims.IsAdmin != nil:
		id.IsAdmin = *claims.IsAdmin
	case claims.Admin != nil:
		id.IsAdmin = *claims.Admin
	default:
		id.IsAdmin = hasAdminRole(claims.Roles) || hasAdminRole(claims.Authorities)
	}
	return id
}

func hasAdminRole(roles []string) bool {
	for _, r := range roles {
		switch strings.ToUpper(strings.TrimSpace(r)) {
		case "ADMIN", "ROLE_ADMIN":
			return true
		}
	}
	return false
}
