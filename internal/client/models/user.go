// Package models defines the client-side identity records and the form
// payloads sent to the remote authentication API.
package models

// Role is the coarse role the backend assigns to a user.
type Role string

const (
	RoleAdmin Role = "admin"
	RoleUser  Role = "user"
)

// User is the identity record returned by the API. Timestamps are kept as
// the server formats them.
type User struct {
	ID              int64  `json:"id"`
	Name            string `json:"name"`
	LastName        string `json:"last_name"`
	Email           string `json:"email"`
	MobileNumber    string `json:"mobile_number"`
	Role            Role   `json:"role"`
	Country         string `json:"country,omitempty"`
	Address         string `json:"address,omitempty"`
	City            string `json:"city,omitempty"`
	PostalCode      string `json:"postal_code,omitempty"`
	EmailVerifiedAt string `json:"email_verified_at,omitempty"`
	CreatedAt       string `json:"created_at,omitempty"`
	UpdatedAt       string `json:"updated_at,omitempty"`
}

// FullName joins first and last name for display.
func (u *User) FullName() string {
	if u == nil {
		return ""
	}
	if u.LastName == "" {
		return u.Name
	}
	return u.Name + " " + u.LastName
}

// Clone returns a copy the caller may keep without sharing store memory.
func (u *User) Clone() *User {
	if u == nil {
		return nil
	}
	c := *u
	return &c
}
