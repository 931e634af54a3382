package domain

// UserRole is the caller's authorization tier on the backend.
type UserRole string

const (
	RoleAdmin UserRole = "admin"
	RoleUser  UserRole = "user"
	RoleGuest UserRole = "guest"
)

// UserProfile is the caller's stored profile.
type UserProfile struct {
	Name string `json:"name"`
}
