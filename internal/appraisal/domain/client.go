package domain

import "time"

// Client is a customer of an appraisal firm, scoped to one organization.
type Client struct {
	ID             string
	OrganizationID string
	Name           string
	Email          string
	Phone          string
	Company        string
	Address        string
	CreatedBy      string
	CreatedAt      time.Time
	UpdatedAt      time.Time
}
