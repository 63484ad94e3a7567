package models

import "time"

type UserRole string

const (
	RolePlayer    UserRole = "player"
	RoleOrganizer UserRole = "organizer"
	RoleAdmin     UserRole = "admin"
)

type User struct {
	ID           int       `json:"id" db:"id"`
	FirstName    string    `json:"first_name" db:"first_name"`
	LastName     string    `json:"last_name" db:"last_name"`
	Nickname     *string   `json:"nickname,omitempty" db:"nickname"`
	Email        string    `json:"email" db:"email"`
	PasswordHash string    `json:"-" db:"password_hash"`
	Role         UserRole  `json:"role" db:"role"`
	Rating       float64   `json:"rating" db:"rating"`
	LogoKey      *string   `json:"-" db:"logo_key"`
	LogoURL      *string   `json:"logo_url,omitempty" db:"-"`
	CreatedAt    time.Time `json:"created_at" db:"created_at"`
}

// DisplayName prefers the nickname, falling back to the full name.
func (u *User) DisplayName() string {
	if u.Nickname != nil && *u.Nickname != "" {
		return *u.Nickname
	}
	name := u.FirstName
	if u.LastName != "" {
		name += " " + u.LastName
	}
	return name
}
