// Package storetest holds the behavioural suite every store driver must pass.
package storetest

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/aussiebroadwan/appraisal/internal/appraisal/domain"
	"github.com/aussiebroadwan/appraisal/internal/appraisal/store"
	"github.com/aussiebroadwan/appraisal/pkg/idx"
	"github.com/stretchr/testify/require"
)

// Run exercises a freshly migrated store. newStore is called once per subtest.
func Run(t *testing.T, newStore func(t *testing.T) store.Store) {
	t.Run("users", func(t *testing.T) { testUsers(t, newStore(t)) })
	t.Run("organizations", func(t *testing.T) { testOrganizations(t, newStore(t)) })
	t.Run("members", func(t *testing.T) { testMembers(t, newStore(t)) })
	t.Run("invitations", func(t *testing.T) { testInvitations(t, newStore(t)) })
	t.Run("clients and orders", func(t *testing.T) { testClientsOrders(t, newStore(t)) })
	t.Run("transactions", func(t *testing.T) { testTransactions(t, newStore(t)) })
	t.Run("cascade", func(t *testing.T) { testCascade(t, newStore(t)) })
}

var base = time.Date(2026, 2, 1, 10, 0, 0, 0, time.UTC)

func SeedUser(t *testing.T, s store.Store, email string) domain.User {
	t.Helper()
	u, err := s.Users().UpsertUserByAccountRef(context.Background(), domain.User{
		ID:         idx.New().String(),
		AccountRef: "test|" + idx.New().String(),
		Email:      email,
		CreatedAt:  base,
		UpdatedAt:  base,
	})
	require.NoError(t, err)
	return u
}

func SeedOrganization(t *testing.T, s store.Store, owner domain.User) domain.Organization {
	t.Helper()
	ctx := context.Background()
	org := domain.Organization{ID: idx.New().String(), Name: "Valuers Pty Ltd", CreatedAt: base, UpdatedAt: base}
	require.NoError(t, s.Organizations().CreateOrganization(ctx, org))
	require.NoError(t, s.Members().CreateMember(ctx, domain.Member{
		ID: idx.New().String(), OrganizationID: org.ID, UserID: owner.ID, Role: domain.RoleOwner,
		CreatedAt: base, UpdatedAt: base,
	}))
	return org
}

func addMember(t *testing.T, s store.Store, orgID, userID string, role domain.Role) error {
	t.Helper()
	return s.Members().CreateMember(context.Background(), domain.Member{
		ID: idx.New().String(), OrganizationID: orgID, UserID: userID, Role: role,
		CreatedAt: base, UpdatedAt: base,
	})
}

func testUsers(t *testing.T, s store.Store) {
	ctx := context.Background()

	first, err := s.Users().UpsertUserByAccountRef(ctx, domain.User{
		ID: idx.New().String(), AccountRef: "workos|1", Name: "Val", Email: "val@example.com",
		CreatedAt: base, UpdatedAt: base,
	})
	require.NoError(t, err)
	require.Equal(t, "Val", first.Name)

	// A second login refreshes the email but keeps the id and the chosen name.
	again, err := s.Users().UpsertUserByAccountRef(ctx, domain.User{
		ID: idx.New().String(), AccountRef: "workos|1", Name: "Valerie", Email: "val@new.example.com",
		CreatedAt: base.Add(time.Hour), UpdatedAt: base.Add(time.Hour),
	})
	require.NoError(t, err)
	require.Equal(t, first.ID, again.ID)
	require.Equal(t, "Val", again.Name)
	require.Equal(t, "val@new.example.com", again.Email)
	require.True(t, again.UpdatedAt.Equal(base.Add(time.Hour)))

	require.NoError(t, s.Users().UpdateUserProfile(ctx, first.ID, "Val R", "+61400000000", base.Add(2*time.Hour)))
	got, err := s.Users().GetUserByID(ctx, first.ID)
	require.NoError(t, err)
	require.Equal(t, "Val R", got.Name)
	require.Equal(t, "+61400000000", got.Phone)

	ids, err := s.Users().FindUserIDsByEmail(ctx, "val@new.example.com")
	require.NoError(t, err)
	require.Equal(t, []string{first.ID}, ids)

	_, err = s.Users().GetUserByID(ctx, idx.New().String())
	require.ErrorIs(t, err, store.ErrNotFound)
	require.ErrorIs(t, s.Users().UpdateUserProfile(ctx, idx.New().String(), "", "", base), store.ErrNotFound)
}

func testOrganizations(t *testing.T, s store.Store) {
	ctx := context.Background()
	owner := SeedUser(t, s, "owner@example.com")
	org := SeedOrganization(t, s, owner)

	got, err := s.Organizations().GetOrganizationByID(ctx, org.ID)
	require.NoError(t, err)
	require.Equal(t, org.Name, got.Name)
	require.True(t, got.CreatedAt.Equal(base))

	org.Name, org.Avatar, org.UpdatedAt = "Renamed", "https://cdn.example.com/a.png", base.Add(time.Minute)
	require.NoError(t, s.Organizations().UpdateOrganization(ctx, org))

	list, err := s.Organizations().ListOrganizationsForUser(ctx, owner.ID)
	require.NoError(t, err)
	require.Len(t, list, 1)
	require.Equal(t, "Renamed", list[0].Organization.Name)
	require.Equal(t, domain.RoleOwner, list[0].Role)

	stranger := SeedUser(t, s, "nobody@example.com")
	list, err = s.Organizations().ListOrganizationsForUser(ctx, stranger.ID)
	require.NoError(t, err)
	require.Empty(t, list)

	require.NoError(t, s.Organizations().DeleteOrganization(ctx, org.ID))
	_, err = s.Organizations().GetOrganizationByID(ctx, org.ID)
	require.ErrorIs(t, err, store.ErrNotFound)
	require.ErrorIs(t, s.Organizations().DeleteOrganization(ctx, org.ID), store.ErrNotFound)
}

func testMembers(t *testing.T, s store.Store) {
	ctx := context.Background()
	owner := SeedUser(t, s, "owner@example.com")
	other := SeedUser(t, s, "other@example.com")
	org := SeedOrganization(t, s, owner)

	require.NoError(t, addMember(t, s, org.ID, other.ID, domain.RoleAppraiser))

	t.Run("duplicate membership", func(t *testing.T) {
		err := addMember(t, s, org.ID, other.ID, domain.RoleManager)
		require.ErrorIs(t, err, store.ErrAlreadyExists)
	})

	t.Run("second owner rejected", func(t *testing.T) {
		third := SeedUser(t, s, "third@example.com")
		err := addMember(t, s, org.ID, third.ID, domain.RoleOwner)
		require.ErrorIs(t, err, store.ErrAlreadyExists)
	})

	t.Run("list joins profile", func(t *testing.T) {
		members, err := s.Members().ListMembers(ctx, org.ID)
		require.NoError(t, err)
		require.Len(t, members, 2)
		require.Equal(t, "owner@example.com", members[0].Email)
		require.Equal(t, domain.RoleAppraiser, members[1].Role)
	})

	t.Run("replace role only from expected role", func(t *testing.T) {
		err := s.Members().ReplaceMemberRole(ctx, org.ID, other.ID, domain.RoleOwner, domain.RoleManager, base)
		require.ErrorIs(t, err, store.ErrNotFound)

		require.NoError(t, s.Members().ReplaceMemberRole(ctx, org.ID, other.ID, domain.RoleAppraiser, domain.RoleManager, base))
		m, err := s.Members().GetMember(ctx, org.ID, other.ID)
		require.NoError(t, err)
		require.Equal(t, domain.RoleManager, m.Role)
	})

	t.Run("set role and count owners", func(t *testing.T) {
		n, err := s.Members().CountOwners(ctx, org.ID)
		require.NoError(t, err)
		require.Equal(t, 1, n)

		require.ErrorIs(t, s.Members().SetMemberRole(ctx, org.ID, idx.New().String(), domain.RoleManager, base), store.ErrNotFound)
	})

	t.Run("delete", func(t *testing.T) {
		require.ErrorIs(t, s.Members().DeleteMember(ctx, org.ID, owner.ID), store.ErrNotFound)

		require.NoError(t, s.Members().DeleteMember(ctx, org.ID, other.ID))
		_, err := s.Members().GetMember(ctx, org.ID, other.ID)
		require.ErrorIs(t, err, store.ErrNotFound)
		require.ErrorIs(t, s.Members().DeleteMember(ctx, org.ID, other.ID), store.ErrNotFound)
	})
}

func testInvitations(t *testing.T, s store.Store) {
	ctx := context.Background()
	owner := SeedUser(t, s, "owner@example.com")
	org := SeedOrganization(t, s, owner)

	inv := domain.Invitation{
		ID: idx.New().String(), OrganizationID: org.ID, Email: "new@example.com",
		TokenHash: "hash-1", Role: domain.RoleAppraiser, InvitedBy: owner.ID,
		ExpiresAt: base.Add(domain.InvitationTTL), CreatedAt: base,
	}
	require.NoError(t, s.Invitations().CreateInvitation(ctx, inv))

	dup := inv
	dup.ID = idx.New().String()
	require.ErrorIs(t, s.Invitations().CreateInvitation(ctx, dup), store.ErrAlreadyExists)

	got, err := s.Invitations().GetInvitationByTokenHash(ctx, "hash-1")
	require.NoError(t, err)
	require.Equal(t, inv.ID, got.ID)
	require.Nil(t, got.ConsumedAt)
	require.True(t, got.ExpiresAt.Equal(inv.ExpiresAt))

	_, err = s.Invitations().GetInvitationByTokenHash(ctx, "missing")
	require.ErrorIs(t, err, store.ErrNotFound)

	require.NoError(t, s.Invitations().ConsumeInvitation(ctx, inv.ID, owner.ID, base.Add(time.Hour)))
	require.ErrorIs(t, s.Invitations().ConsumeInvitation(ctx, inv.ID, owner.ID, base.Add(2*time.Hour)), store.ErrNotFound)

	got, err = s.Invitations().GetInvitationByTokenHash(ctx, "hash-1")
	require.NoError(t, err)
	require.NotNil(t, got.ConsumedAt)
	require.True(t, got.ConsumedAt.Equal(base.Add(time.Hour)))
	require.Equal(t, owner.ID, got.ConsumedBy)

	list, err := s.Invitations().ListInvitations(ctx, org.ID)
	require.NoError(t, err)
	require.Len(t, list, 1)
}

func testClientsOrders(t *testing.T, s store.Store) {
	ctx := context.Background()
	owner := SeedUser(t, s, "owner@example.com")
	org := SeedOrganization(t, s, owner)
	otherOrg := SeedOrganization(t, s, SeedUser(t, s, "rival@example.com"))

	client := domain.Client{
		ID: idx.New().String(), OrganizationID: org.ID, Name: "Acme Bank", Email: "loans@acme.example",
		CreatedBy: owner.ID, CreatedAt: base, UpdatedAt: base,
	}
	require.NoError(t, s.Clients().CreateClient(ctx, client))

	_, err := s.Clients().GetClient(ctx, otherOrg.ID, client.ID)
	require.ErrorIs(t, err, store.ErrNotFound)

	client.Company, client.UpdatedAt = "Acme Holdings", base.Add(time.Minute)
	require.NoError(t, s.Clients().UpdateClient(ctx, client))
	got, err := s.Clients().GetClient(ctx, org.ID, client.ID)
	require.NoError(t, err)
	require.Equal(t, "Acme Holdings", got.Company)

	clients, err := s.Clients().ListClients(ctx, org.ID, store.Page{})
	require.NoError(t, err)
	require.Len(t, clients, 1)

	due := base.Add(72 * time.Hour)
	for i, status := range []domain.OrderStatus{domain.OrderNew, domain.OrderAssigned, domain.OrderNew} {
		o := domain.Order{
			ID: idx.New().String(), OrganizationID: org.ID, ClientID: client.ID,
			Reference: "REF-" + string(rune('A'+i)),
			Property:  domain.Property{Address: "1 George St", City: "Sydney", State: "NSW", PostalCode: "2000", Type: "residential"},
			Status:    status, FeeCents: 55000, CreatedBy: owner.ID, CreatedAt: base, UpdatedAt: base,
		}
		if status == domain.OrderAssigned {
			o.AssigneeID = &owner.ID
			o.DueDate = &due
		}
		require.NoError(t, s.Orders().CreateOrder(ctx, o))
	}

	all, err := s.Orders().ListOrders(ctx, org.ID, store.OrderFilter{}, store.Page{})
	require.NoError(t, err)
	require.Len(t, all, 3)

	assigned, err := s.Orders().ListOrders(ctx, org.ID, store.OrderFilter{Status: domain.OrderAssigned}, store.Page{})
	require.NoError(t, err)
	require.Len(t, assigned, 1)
	require.Equal(t, owner.ID, *assigned[0].AssigneeID)
	require.True(t, assigned[0].DueDate.Equal(due))

	byAssignee, err := s.Orders().ListOrders(ctx, org.ID, store.OrderFilter{AssigneeID: owner.ID}, store.Page{})
	require.NoError(t, err)
	require.Len(t, byAssignee, 1)

	paged, err := s.Orders().ListOrders(ctx, org.ID, store.OrderFilter{}, store.Page{Limit: 2, Offset: 2})
	require.NoError(t, err)
	require.Len(t, paged, 1)

	none, err := s.Orders().ListOrders(ctx, otherOrg.ID, store.OrderFilter{}, store.Page{})
	require.NoError(t, err)
	require.Empty(t, none)

	o := assigned[0]
	o.Status, o.AssigneeID, o.DueDate, o.UpdatedAt = domain.OrderInProgress, nil, nil, base.Add(time.Hour)
	require.NoError(t, s.Orders().UpdateOrder(ctx, o))
	got2, err := s.Orders().GetOrder(ctx, org.ID, o.ID)
	require.NoError(t, err)
	require.Equal(t, domain.OrderInProgress, got2.Status)
	require.Nil(t, got2.AssigneeID)
	require.Nil(t, got2.DueDate)

	_, err = s.Orders().GetOrder(ctx, otherOrg.ID, o.ID)
	require.ErrorIs(t, err, store.ErrNotFound)
}

func testTransactions(t *testing.T, s store.Store) {
	ctx := context.Background()
	owner := SeedUser(t, s, "owner@example.com")
	org := SeedOrganization(t, s, owner)
	other := SeedUser(t, s, "other@example.com")

	boom := errors.New("boom")
	err := s.WithTx(ctx, func(tx store.Tx) error {
		require.NoError(t, addMember(t, tx, org.ID, other.ID, domain.RoleManager))
		return boom
	})
	require.ErrorIs(t, err, boom)

	_, err = s.Members().GetMember(ctx, org.ID, other.ID)
	require.ErrorIs(t, err, store.ErrNotFound, "rolled back insert must not be visible")

	require.NoError(t, s.WithTx(ctx, func(tx store.Tx) error {
		return addMember(t, tx, org.ID, other.ID, domain.RoleManager)
	}))
	_, err = s.Members().GetMember(ctx, org.ID, other.ID)
	require.NoError(t, err)

	t.Run("racing consumers", func(t *testing.T) {
		inv := domain.Invitation{
			ID: idx.New().String(), OrganizationID: org.ID, Email: "race@example.com",
			TokenHash: "race", Role: domain.RoleAppraiser, InvitedBy: owner.ID,
			ExpiresAt: base.Add(domain.InvitationTTL), CreatedAt: base,
		}
		require.NoError(t, s.Invitations().CreateInvitation(ctx, inv))

		const n = 8
		var (
			wg   sync.WaitGroup
			mu   sync.Mutex
			wins int
		)
		for range n {
			wg.Add(1)
			go func() {
				defer wg.Done()
				err := s.WithTx(ctx, func(tx store.Tx) error {
					return tx.Invitations().ConsumeInvitation(ctx, inv.ID, owner.ID, base)
				})
				if err == nil {
					mu.Lock()
					wins++
					mu.Unlock()
				}
			}()
		}
		wg.Wait()
		require.Equal(t, 1, wins)
	})
}

func testCascade(t *testing.T, s store.Store) {
	ctx := context.Background()
	owner := SeedUser(t, s, "owner@example.com")
	org := SeedOrganization(t, s, owner)

	client := domain.Client{ID: idx.New().String(), OrganizationID: org.ID, Name: "C", CreatedBy: owner.ID, CreatedAt: base, UpdatedAt: base}
	require.NoError(t, s.Clients().CreateClient(ctx, client))

	require.NoError(t, s.Organizations().DeleteOrganization(ctx, org.ID))

	_, err := s.Members().GetMember(ctx, org.ID, owner.ID)
	require.ErrorIs(t, err, store.ErrNotFound)
	_, err = s.Clients().GetClient(ctx, org.ID, client.ID)
	require.ErrorIs(t, err, store.ErrNotFound)
}
