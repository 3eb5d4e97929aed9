package domain

import "time"

type Organization struct {
	ID        string
	Name      string
	Avatar    string // URL, may be empty
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Membership is an organization as seen by one of its members.
type Membership struct {
	Organization Organization
	Role         Role
	JoinedAt     time.Time
}
