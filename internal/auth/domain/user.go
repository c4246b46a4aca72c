package domain

import "time"

// User is the credential record held by the credential store. The auth
// subsystem reads it during authentication and only ever writes back a new
// password hash; all other mutation belongs to registration and profile
// flows elsewhere in the platform.
type User struct {
	ID           string
	Email        string // case-normalized, unique
	PasswordHash string // bcrypt encoded
	Role         Role
	Active       bool
	SchoolID     *string // nil for platform-level accounts
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// Summary is the caller-facing projection of a user. It deliberately has no
// password hash field so one can never leak through a response.
type Summary struct {
	ID       string  `json:"id"`
	Email    string  `json:"email"`
	Role     Role    `json:"role"`
	SchoolID *string `json:"schoolId,omitempty"`
}

// Summary projects the user for API responses.
func (u User) Summary() Summary {
	return Summary{
		ID:       u.ID,
		Email:    u.Email,
		Role:     u.Role,
		SchoolID: u.SchoolID,
	}
}
