package store

import (
	"context"
	"errors"
	"time"

	"github.com/aussiebroadwan/appraisal/internal/appraisal/domain"
)

var (
	ErrNotFound      = errors.New("store: not found")
	ErrAlreadyExists = errors.New("store: already exists")
)

// Store is the root data access interface. Concrete drivers (sqlite, postgres)
// implement this. Sub-repositories hang off it so a transaction hands out the
// same repos bound to the tx, and nobody can start a tx inside a tx.
type Store interface {
	Users() Users
	Organizations() Organizations
	Members() Members
	Invitations() Invitations
	Clients() Clients
	Orders() Orders

	ApplyMigrations() error

	// Tx starts a read/write transaction and returns a Tx-scoped Store.
	// The caller MUST call Commit() or Rollback() on the returned Tx.
	Tx(ctx context.Context) (Tx, error)

	// WithTx executes fn within a transaction. If fn returns an error the
	// transaction is rolled back, otherwise it is committed. Repos used inside
	// fn must come from the tx argument.
	WithTx(ctx context.Context, fn func(tx Tx) error) error

	Close() error

	// Ping verifies the database connection is still alive.
	Ping(ctx context.Context) error
}

// Tx is a transactional store. It embeds the same repos but adds Commit/Rollback.
type Tx interface {
	Store
	Commit() error
	Rollback() error
}

// Page bounds a list query.
type Page struct {
	Limit  int
	Offset int
}

type Users interface {
	GetUserByID(ctx context.Context, id string) (domain.User, error)

	// UpsertUserByAccountRef inserts the user or, when the account ref is
	// already known, refreshes its email (and name if still blank). The
	// stored row is returned.
	UpsertUserByAccountRef(ctx context.Context, u domain.User) (domain.User, error)

	// UpdateUserProfile sets name and phone and bumps updated_at.
	UpdateUserProfile(ctx context.Context, id, name, phone string, at time.Time) error

	// FindUserIDsByEmail returns every user id registered with email.
	FindUserIDsByEmail(ctx context.Context, email string) ([]string, error)
}

type Organizations interface {
	CreateOrganization(ctx context.Context, org domain.Organization) error
	GetOrganizationByID(ctx context.Context, id string) (domain.Organization, error)

	// ListOrganizationsForUser returns the organizations userID belongs to,
	// oldest membership first.
	ListOrganizationsForUser(ctx context.Context, userID string) ([]domain.Membership, error)

	// UpdateOrganization writes name and avatar and bumps updated_at.
	UpdateOrganization(ctx context.Context, org domain.Organization) error

	// DeleteOrganization removes the organization; members, invitations,
	// clients and orders go with it through ON DELETE CASCADE.
	DeleteOrganization(ctx context.Context, id string) error
}

type Members interface {
	// CreateMember fails with ErrAlreadyExists when the user already belongs
	// to the organization, or when a second owner would be created.
	CreateMember(ctx context.Context, m domain.Member) error

	GetMember(ctx context.Context, orgID, userID string) (domain.Member, error)
	ListMembers(ctx context.Context, orgID string) ([]domain.MemberProfile, error)

	// ReplaceMemberRole moves a member from role `from` to role `to`. It
	// matches nothing (ErrNotFound) unless the member currently holds `from`.
	ReplaceMemberRole(ctx context.Context, orgID, userID string, from, to domain.Role, at time.Time) error

	// SetMemberRole sets the role regardless of the current one.
	SetMemberRole(ctx context.Context, orgID, userID string, role domain.Role, at time.Time) error

	// DeleteMember removes a non-owner membership. The owner row never
	// matches; ownership only moves through a transfer.
	DeleteMember(ctx context.Context, orgID, userID string) error

	// CountOwners is used by invariant checks.
	CountOwners(ctx context.Context, orgID string) (int, error)
}

type Invitations interface {
	CreateInvitation(ctx context.Context, inv domain.Invitation) error
	GetInvitationByTokenHash(ctx context.Context, hash string) (domain.Invitation, error)
	ListInvitations(ctx context.Context, orgID string) ([]domain.Invitation, error)

	// ConsumeInvitation marks the invitation used by userID. It only matches
	// an unconsumed row, so of two racing redemptions one gets ErrNotFound.
	ConsumeInvitation(ctx context.Context, id, userID string, at time.Time) error
}

type Clients interface {
	CreateClient(ctx context.Context, c domain.Client) error
	GetClient(ctx context.Context, orgID, id string) (domain.Client, error)
	ListClients(ctx context.Context, orgID string, page Page) ([]domain.Client, error)
	UpdateClient(ctx context.Context, c domain.Client) error
}

// OrderFilter narrows ListOrders. Zero values mean no filter.
type OrderFilter struct {
	Status     domain.OrderStatus
	AssigneeID string
	ClientID   string
}

type Orders interface {
	CreateOrder(ctx context.Context, o domain.Order) error
	GetOrder(ctx context.Context, orgID, id string) (domain.Order, error)
	ListOrders(ctx context.Context, orgID string, filter OrderFilter, page Page) ([]domain.Order, error)
	UpdateOrder(ctx context.Context, o domain.Order) error
}
