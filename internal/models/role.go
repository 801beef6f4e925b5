package models

import "strings"

// Role represents a user's role in the system.
type Role string

const (
	RoleAdmin    Role = "admin"
	RoleOperator Role = "operator"
	RoleViewer   Role = "viewer"
	RoleUser     Role = "user"
)

// AnyRole in a route's roles list admits every authenticated principal.
const AnyRole = "*"

// ParseRole maps free-form input to a known role.
func ParseRole(s string) (Role, bool) {
	switch Role(NormalizeRole(s)) {
	case RoleAdmin:
		return RoleAdmin, true
	case RoleOperator:
		return RoleOperator, true
	case RoleViewer:
		return RoleViewer, true
	case RoleUser:
		return RoleUser, true
	}
	return "", false
}

func NormalizeRole(role string) string {
	return strings.ToLower(strings.TrimSpace(role))
}
