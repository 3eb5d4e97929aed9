package domain

import "time"

type Member struct {
	ID             string
	OrganizationID string
	UserID         string
	Role           Role
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// MemberProfile is a member joined with the user's display fields.
type MemberProfile struct {
	Member
	Name  string
	Email string
}
