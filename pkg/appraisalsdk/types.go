package appraisalsdk

import (
	"time"

	"github.com/aussiebroadwan/appraisal/pkg/jwtx"
)

// Envelope is the body of every JSON API response.
type Envelope[T any] struct {
	Data  T          `json:"data"`
	Error *ErrorBody `json:"error"`
}

// ErrorResponse is a failed envelope. Data is always null.
type ErrorResponse struct {
	Data  any        `json:"data"`
	Error *ErrorBody `json:"error"`
}

// ErrorBody describes a failed request.
type ErrorBody struct {
	Code    string            `json:"code"`
	Message string            `json:"message"`
	Details map[string]string `json:"details,omitempty"`
}

// ============================================================================
// Health and keys
// ============================================================================

type HealthChecks struct {
	Database string `json:"database"`
	Signer   string `json:"signer"`
}

type HealthResponse struct {
	Status  string        `json:"status"`
	Uptime  string        `json:"uptime"`
	Version string        `json:"version"`
	Checks  *HealthChecks `json:"checks,omitempty"`
}

// JWKSResponse is the public key set that verifies session tokens.
type JWKSResponse jwtx.JWKS

// ============================================================================
// Sessions and users
// ============================================================================

type DevLoginRequest struct {
	Email string `json:"email"`
	Name  string `json:"name,omitempty"`
}

type SessionResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
	ExpiresIn   int64  `json:"expires_in"`

	User UserResponse `json:"user"`
}

type UserResponse struct {
	ID        string    `json:"id"`
	Email     string    `json:"email"`
	Name      string    `json:"name"`
	Phone     string    `json:"phone"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

type UpdateProfileRequest struct {
	Name  *string `json:"name,omitempty"`
	Phone *string `json:"phone,omitempty"`
}

// ============================================================================
// Organizations and membership
// ============================================================================

type OrganizationResponse struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Avatar    string    `json:"avatar"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// MembershipResponse is an organization as seen by the caller.
type MembershipResponse struct {
	Organization OrganizationResponse `json:"organization"`
	Role         string               `json:"role"`
	JoinedAt     time.Time            `json:"joinedAt"`
}

type CreateOrganizationRequest struct {
	Name   string `json:"name"`
	Avatar string `json:"avatar,omitempty"`
}

type UpdateOrganizationRequest struct {
	Name   *string `json:"name,omitempty"`
	Avatar *string `json:"avatar,omitempty"`
}

type MemberResponse struct {
	ID             string    `json:"id"`
	OrganizationID string    `json:"organizationId"`
	UserID         string    `json:"userId"`
	Name           string    `json:"name,omitempty"`
	Email          string    `json:"email,omitempty"`
	Role           string    `json:"role"`
	JoinedAt       time.Time `json:"joinedAt"`
}

type CreateInviteRequest struct {
	Email string `json:"email"`
	Role  string `json:"role"`
}

type InvitationResponse struct {
	ID             string     `json:"id"`
	OrganizationID string     `json:"organizationId"`
	Email          string     `json:"email"`
	Role           string     `json:"role"`
	Status         string     `json:"status"`
	InvitedBy      string     `json:"invitedBy"`
	ExpiresAt      time.Time  `json:"expiresAt"`
	ConsumedAt     *time.Time `json:"consumedAt,omitempty"`
	CreatedAt      time.Time  `json:"createdAt"`
}

// InviteResponse carries the raw token. It is shown once and never stored.
type InviteResponse struct {
	Invitation InvitationResponse `json:"invitation"`
	Token      string             `json:"token"`
	JoinURL    string             `json:"joinUrl"`
}

type JoinRequest struct {
	Token string `json:"token"`
}

type TransferOwnershipRequest struct {
	TargetUserID string `json:"targetUserId"`
}

type ChangeRoleRequest struct {
	Role string `json:"role"`
}

type PermissionsResponse struct {
	Role        string   `json:"role"`
	Permissions []string `json:"permissions"`
}

// ============================================================================
// Clients and orders
// ============================================================================

type ClientRequest struct {
	Name    string `json:"name"`
	Email   string `json:"email,omitempty"`
	Phone   string `json:"phone,omitempty"`
	Company string `json:"company,omitempty"`
	Address string `json:"address,omitempty"`
}

type UpdateClientRequest struct {
	Name    *string `json:"name,omitempty"`
	Email   *string `json:"email,omitempty"`
	Phone   *string `json:"phone,omitempty"`
	Company *string `json:"company,omitempty"`
	Address *string `json:"address,omitempty"`
}

type ClientResponse struct {
	ID             string    `json:"id"`
	OrganizationID string    `json:"organizationId"`
	Name           string    `json:"name"`
	Email          string    `json:"email"`
	Phone          string    `json:"phone"`
	Company        string    `json:"company"`
	Address        string    `json:"address"`
	CreatedBy      string    `json:"createdBy"`
	CreatedAt      time.Time `json:"createdAt"`
	UpdatedAt      time.Time `json:"updatedAt"`
}

type Property struct {
	Address    string `json:"address"`
	City       string `json:"city,omitempty"`
	State      string `json:"state,omitempty"`
	PostalCode string `json:"postalCode,omitempty"`
	Type       string `json:"type,omitempty"`
}

type CreateOrderRequest struct {
	ClientID   string   `json:"clientId"`
	Reference  string   `json:"reference,omitempty"`
	Property   Property `json:"property"`
	Status     string   `json:"status,omitempty"`
	AssigneeID *string  `json:"assigneeId,omitempty"`
	DueDate    *string  `json:"dueDate,omitempty"` // YYYY-MM-DD
	FeeCents   int64    `json:"feeCents,omitempty"`
	Notes      string   `json:"notes,omitempty"`
}

type UpdateOrderRequest struct {
	ClientID   *string   `json:"clientId,omitempty"`
	Reference  *string   `json:"reference,omitempty"`
	Property   *Property `json:"property,omitempty"`
	Status     *string   `json:"status,omitempty"`
	AssigneeID *string   `json:"assigneeId,omitempty"` // "" clears
	DueDate    *string   `json:"dueDate,omitempty"`    // "" clears
	FeeCents   *int64    `json:"feeCents,omitempty"`
	Notes      *string   `json:"notes,omitempty"`
}

type OrderResponse struct {
	ID             string    `json:"id"`
	OrganizationID string    `json:"organizationId"`
	ClientID       string    `json:"clientId"`
	Reference      string    `json:"reference"`
	Property       Property  `json:"property"`
	Status         string    `json:"status"`
	AssigneeID     *string   `json:"assigneeId"`
	DueDate        *string   `json:"dueDate"`
	FeeCents       int64     `json:"feeCents"`
	Notes          string    `json:"notes"`
	CreatedBy      string    `json:"createdBy"`
	CreatedAt      time.Time `json:"createdAt"`
	UpdatedAt      time.Time `json:"updatedAt"`
}

// ListOptions pages list calls. Zero values use server defaults.
type ListOptions struct {
	Limit  int
	Offset int
}

// OrderListOptions narrows ListOrders.
type OrderListOptions struct {
	ListOptions
	Status     string
	AssigneeID string
	ClientID   string
}

// StatusResponse acknowledges writes that return no resource.
type StatusResponse struct {
	Status string `json:"status"`
}
