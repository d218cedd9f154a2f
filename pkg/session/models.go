package session

import "fmt"

// Role is the dashboard role carried in an issued token set.
type Role string

const (
	RoleUser       Role = "USER"
	RoleAdmin      Role = "ADMIN"
	RoleSuperadmin Role = "SUPERADMIN"
)

// ParseRole validates a role string received from the backend.
func ParseRole(value string) (Role, error) {
	switch Role(value) {
	case RoleUser, RoleAdmin, RoleSuperadmin:
		return Role(value), nil
	}
	return "", fmt.Errorf("unknown role: %q", value)
}

// Tokens is the credential set issued by the backend on successful
// authentication. All four fields are persisted together; the store never
// holds a partial set.
type Tokens struct {
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken"`
	Role         Role   `json:"role"`
	Email        string `json:"email"`
}

// Storage keys, matching the persisted browser state the backend's web
// client uses so state written by either is readable by both.
const (
	KeyAccessToken  = "accessToken"
	KeyRefreshToken = "refreshToken"
	KeyUserRole     = "userRole"
	KeyUserEmail    = "userEmail"
)
