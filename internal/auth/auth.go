// Package auth carries the caller identity produced once at the HTTP
// boundary. Services never re-parse raw identity payloads; they only
// look at Context.
package auth

import "strings"

const adminRole = "admin"

// Context is the typed caller identity. A zero UserID and Email means
// the caller is anonymous.
type Context struct {
	UserID string
	Email  string
	Roles  map[string]struct{}
}

// New builds a Context from a flat role list. Roles are lowercased so
// membership checks are case-insensitive.
func New(userID, email string, roles []string) Context {
	set := make(map[string]struct{}, len(roles))
	for _, r := range roles {
		r = strings.ToLower(strings.TrimSpace(r))
		if r != "" {
			set[r] = struct{}{}
		}
	}
	return Context{UserID: userID, Email: email, Roles: set}
}

// Anonymous is the identity of an unauthenticated caller.
func Anonymous() Context {
	return Context{}
}

func (c Context) Authenticated() bool {
	return c.UserID != "" || c.Email != ""
}

func (c Context) IsAdmin() bool {
	_, ok := c.Roles[adminRole]
	return ok
}

// FlattenRoles normalizes a role claim that may arrive as a single
// string (possibly comma or space separated) or a list of values.
func FlattenRoles(raw any) []string {
	switch v := raw.(type) {
	case string:
		return splitRoleString(v)
	case []string:
		return v
	case []any:
		out := make([]string, 0, len(v))
		for _, item := range v {
			if s, ok := item.(string); ok {
				out = append(out, s)
			}
		}
		return out
	default:
		return nil
	}
}

func splitRoleString(s string) []string {
	fields := strings.FieldsFunc(s, func(r rune) bool {
		return r == ',' || r == ' ' || r == '\t' || r == '\n'
	})
	out := make([]string, 0, len(fields))
	for _, f := range fields {
		if f = strings.TrimSpace(f); f != "" {
			out = append(out, f)
		}
	}
	return out
}
