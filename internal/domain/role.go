package domain

// Role enumerates the fixed set of account roles. Roles are not ordered;
// each capability is an explicit predicate over the set.
type Role string

const (
	RoleUser    Role = "user"
	RoleCreator Role = "creator"
	RoleSupport Role = "support"
	RoleAdmin   Role = "admin"
)

// ParseRole normalizes a raw role string, falling back to RoleUser.
func ParseRole(raw string) Role {
	switch Role(raw) {
	case RoleCreator:
		return RoleCreator
	case RoleSupport:
		return RoleSupport
	case RoleAdmin:
		return RoleAdmin
	default:
		return RoleUser
	}
}

// CanDeleteComments reports whether the role may remove user content.
func CanDeleteComments(role Role) bool {
	return role == RoleSupport || role == RoleCreator || role == RoleAdmin
}

// CanBlockUsers reports whether the role may block other accounts.
func CanBlockUsers(role Role) bool {
	return role == RoleCreator || role == RoleAdmin
}

// CanManageRoles reports whether the role may change account roles.
func CanManageRoles(role Role) bool {
	return role == RoleAdmin
}
