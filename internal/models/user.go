package models

// UserRole represents the role claim carried by a bearer token
type UserRole string

const (
	RoleAdmin         UserRole = "admin"
	RoleServiceRole   UserRole = "service_role"
	RoleAuthenticated UserRole = "authenticated"
)

// Caller is the authenticated principal of a request
type Caller struct {
	UserID string   `json:"user_id"`
	Email  string   `json:"email,omitempty"`
	Role   UserRole `json:"role"`
}

// IsAdmin returns true if caller has admin role
func (c *Caller) IsAdmin() bool {
	return c.Role == RoleAdmin
}

// IsService returns true if caller is a backend service
func (c *Caller) IsService() bool {
	return c.Role == RoleServiceRole
}

// CanGenerate reports whether the caller may trigger match generation
func (c *Caller) CanGenerate() bool {
	return c.IsAdmin() || c.IsService()
}
