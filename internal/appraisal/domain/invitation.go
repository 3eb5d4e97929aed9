package domain

import "time"

// InvitationTTL is how long an invite link stays redeemable.
const InvitationTTL = 7 * 24 * time.Hour

type InvitationStatus string

const (
	InvitationPending  InvitationStatus = "pending"
	InvitationConsumed InvitationStatus = "consumed"
	InvitationExpired  InvitationStatus = "expired"
)

type Invitation struct {
	ID             string
	OrganizationID string
	Email          string
	TokenHash      string // SHA-256 fingerprint of the invite token
	Role           Role
	InvitedBy      string
	ExpiresAt      time.Time
	ConsumedAt     *time.Time
	ConsumedBy     string
	CreatedAt      time.Time
}

// StatusAt derives the invitation state at now. Consumption wins over
// expiry so a redeemed invite keeps reporting consumed.
func (i Invitation) StatusAt(now time.Time) InvitationStatus {
	switch {
	case i.ConsumedAt != nil:
		return InvitationConsumed
	case !now.Before(i.ExpiresAt):
		return InvitationExpired
	default:
		return InvitationPending
	}
}
