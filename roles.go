package reviews

// UserRole is the user's role
type UserRole = string

const (
	// RoleOrdinary can post articles and reviews
	RoleOrdinary UserRole = "ordinary"
	// RoleAdmin also sees aggregated review lists
	RoleAdmin UserRole = "admin"
)

// IsValidRole checks if the role is one of the predefined roles
func IsValidRole(r UserRole) bool {
	switch r {
	case RoleOrdinary, RoleAdmin:
		return true
	default:
		return false
	}
}

// GetAllRoles returns all predefined roles
func GetAllRoles() []UserRole {
	return []UserRole{
		RoleOrdinary,
		RoleAdmin,
	}
}

// ParseRole safely parses a string into a UserRole, defaulting to ordinary
func ParseRole(roleStr string) (UserRole, bool) {
	if IsValidRole(roleStr) {
		return roleStr, true
	}
	return RoleOrdinary, false
}
