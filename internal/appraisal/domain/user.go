package domain

import "time"

type User struct {
	ID         string
	AccountRef string // identity provider user id, e.g. "user_01H..." from WorkOS
	Name       string
	Email      string
	Phone      string
	CreatedAt  time.Time
	UpdatedAt  time.Time
}
