package service

import (
	"context"
	"errors"
	"net/url"
	"sync"
	"testing"
	"time"

	"github.com/aussiebroadwan/appraisal/internal/appraisal/domain"
	"github.com/aussiebroadwan/appraisal/internal/appraisal/store"
	"github.com/aussiebroadwan/appraisal/pkg/cryptox"
	"github.com/aussiebroadwan/appraisal/pkg/idx"
	"github.com/aussiebroadwan/appraisal/pkg/validx"
	"github.com/stretchr/testify/require"
)

func TestInviteJoinScenario(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	owner := f.user(t, "owner@x.com")
	orgID := f.org(t, owner)
	invitee := f.user(t, "a@x.com")

	inv, err := f.Members.CreateInvite(ctx, owner, orgID, CreateInviteInput{Email: " A@X.com ", Role: domain.RoleManager})
	require.NoError(t, err)
	require.Equal(t, "a@x.com", inv.Invitation.Email)
	require.Equal(t, f.Clock.Now().Add(7*24*time.Hour), inv.Invitation.ExpiresAt)
	require.Equal(t, cryptox.FingerprintToken(inv.Token), inv.Invitation.TokenHash)

	u, err := url.Parse(inv.JoinURL)
	require.NoError(t, err)
	require.Equal(t, "app.example.com", u.Host)
	require.Equal(t, "/organization/"+orgID+"/join", u.Path)
	require.Equal(t, inv.Token, u.Query().Get("token"))

	m, err := f.Members.Join(ctx, invitee, orgID, inv.Token)
	require.NoError(t, err)
	require.Equal(t, domain.RoleManager, m.Role)
	require.Equal(t, domain.RoleManager, f.role(t, orgID, invitee.UserID))

	_, err = f.Members.Join(ctx, invitee, orgID, inv.Token)
	require.ErrorIs(t, err, ErrExpired)

	// A different user cannot reuse the consumed token either.
	_, err = f.Members.Join(ctx, f.user(t, "late@x.com"), orgID, inv.Token)
	require.ErrorIs(t, err, ErrExpired)
}

func TestCreateInvite(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	owner := f.user(t, "owner@x.com")
	orgID := f.org(t, owner)
	appraiser := f.join(t, owner, orgID, "appraiser@x.com", domain.RoleAppraiser)
	manager := f.join(t, owner, orgID, "manager@x.com", domain.RoleManager)

	t.Run("manager may invite", func(t *testing.T) {
		_, err := f.Members.CreateInvite(ctx, manager, orgID, CreateInviteInput{Email: "n@x.com", Role: domain.RoleAppraiser})
		require.NoError(t, err)
	})

	t.Run("appraiser may not", func(t *testing.T) {
		_, err := f.Members.CreateInvite(ctx, appraiser, orgID, CreateInviteInput{Email: "n@x.com", Role: domain.RoleAppraiser})
		require.ErrorIs(t, err, ErrForbidden)
	})

	t.Run("stranger is forbidden", func(t *testing.T) {
		_, err := f.Members.CreateInvite(ctx, f.user(t, "s@x.com"), orgID, CreateInviteInput{Email: "n@x.com", Role: domain.RoleAppraiser})
		require.ErrorIs(t, err, ErrForbidden)
	})

	t.Run("unknown organization", func(t *testing.T) {
		_, err := f.Members.CreateInvite(ctx, owner, idx.New().String(), CreateInviteInput{Email: "n@x.com", Role: domain.RoleAppraiser})
		require.ErrorIs(t, err, ErrNotFound)
	})

	t.Run("validation", func(t *testing.T) {
		_, err := f.Members.CreateInvite(ctx, owner, orgID, CreateInviteInput{Email: "nope", Role: domain.RoleOwner})
		ve, ok := validx.As(err)
		require.True(t, ok)
		require.Contains(t, ve.Fields, "email")
		require.Contains(t, ve.Fields, "role")
	})

	t.Run("already a member", func(t *testing.T) {
		_, err := f.Members.CreateInvite(ctx, owner, orgID, CreateInviteInput{Email: "Appraiser@x.com", Role: domain.RoleManager})
		require.ErrorIs(t, err, ErrConflict)
	})

	t.Run("custom ttl", func(t *testing.T) {
		ms := *f.Members
		ms.InviteTTL = time.Hour
		inv, err := ms.CreateInvite(ctx, owner, orgID, CreateInviteInput{Email: "short@x.com", Role: domain.RoleAppraiser})
		require.NoError(t, err)
		require.Equal(t, f.Clock.Now().Add(time.Hour), inv.Invitation.ExpiresAt)
	})
}

func TestJoin(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	owner := f.user(t, "owner@x.com")
	orgID := f.org(t, owner)
	otherOrg := f.org(t, owner)

	invite := func(t *testing.T, email string) CreatedInvite {
		t.Helper()
		inv, err := f.Members.CreateInvite(ctx, owner, orgID, CreateInviteInput{Email: email, Role: domain.RoleAppraiser})
		require.NoError(t, err)
		return inv
	}

	t.Run("unknown token", func(t *testing.T) {
		_, err := f.Members.Join(ctx, f.user(t, "u1@x.com"), orgID, "not-a-real-token")
		require.ErrorIs(t, err, ErrNotFound)
	})

	t.Run("empty token", func(t *testing.T) {
		_, err := f.Members.Join(ctx, f.user(t, "u2@x.com"), orgID, "")
		_, ok := validx.As(err)
		require.True(t, ok)
	})

	t.Run("token for another organization", func(t *testing.T) {
		inv := invite(t, "u3@x.com")
		_, err := f.Members.Join(ctx, f.user(t, "u3@x.com"), otherOrg, inv.Token)
		require.ErrorIs(t, err, ErrNotFound)
	})

	t.Run("expired exactly at expiry", func(t *testing.T) {
		inv := invite(t, "u4@x.com")
		user := f.user(t, "u4@x.com")

		f.Clock.Advance(domain.InvitationTTL)
		defer f.Clock.Advance(-domain.InvitationTTL)

		_, err := f.Members.Join(ctx, user, orgID, inv.Token)
		require.ErrorIs(t, err, ErrExpired)
	})

	t.Run("just before expiry", func(t *testing.T) {
		inv := invite(t, "u5@x.com")
		user := f.user(t, "u5@x.com")

		f.Clock.Advance(domain.InvitationTTL - time.Second)
		defer f.Clock.Advance(-(domain.InvitationTTL - time.Second))

		_, err := f.Members.Join(ctx, user, orgID, inv.Token)
		require.NoError(t, err)
	})

	t.Run("existing member keeps the invitation unconsumed", func(t *testing.T) {
		inv := invite(t, "u6@x.com")

		_, err := f.Members.Join(ctx, owner, orgID, inv.Token)
		require.ErrorIs(t, err, ErrConflict)

		stored, err := f.Store.Invitations().GetInvitationByTokenHash(ctx, inv.Invitation.TokenHash)
		require.NoError(t, err)
		require.Nil(t, stored.ConsumedAt)

		_, err = f.Members.Join(ctx, f.user(t, "u6@x.com"), orgID, inv.Token)
		require.NoError(t, err)
	})

	t.Run("concurrent joins consume once", func(t *testing.T) {
		inv := invite(t, "race@x.com")

		const n = 8
		actors := make([]Actor, n)
		for i := range actors {
			actors[i] = f.user(t, idx.New().String()+"@x.com")
		}

		var (
			wg        sync.WaitGroup
			mu        sync.Mutex
			successes int
			expired   int
		)
		for _, a := range actors {
			wg.Add(1)
			go func() {
				defer wg.Done()
				_, err := f.Members.Join(ctx, a, orgID, inv.Token)
				mu.Lock()
				defer mu.Unlock()
				switch {
				case err == nil:
					successes++
				case errors.Is(err, ErrExpired):
					expired++
				default:
					t.Errorf("unexpected error: %v", err)
				}
			}()
		}
		wg.Wait()

		require.Equal(t, 1, successes)
		require.Equal(t, n-1, expired)
	})

	require.Equal(t, 1, f.owners(t, orgID))
}

func TestLeave(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	owner := f.user(t, "owner@x.com")
	orgID := f.org(t, owner)
	member := f.join(t, owner, orgID, "m@x.com", domain.RoleAppraiser)
	other := f.join(t, owner, orgID, "o@x.com", domain.RoleManager)

	require.ErrorIs(t, f.Members.Leave(ctx, owner, orgID), ErrForbidden)
	require.ErrorIs(t, f.Members.Leave(ctx, f.user(t, "s@x.com"), orgID), ErrNotFound)

	require.NoError(t, f.Members.Leave(ctx, member, orgID))
	_, err := f.Store.Members().GetMember(ctx, orgID, member.UserID)
	require.ErrorIs(t, err, store.ErrNotFound)

	// Exactly that member is gone.
	members, err := f.Store.Members().ListMembers(ctx, orgID)
	require.NoError(t, err)
	require.Len(t, members, 2)
	require.Equal(t, domain.RoleManager, f.role(t, orgID, other.UserID))

	require.ErrorIs(t, f.Members.Leave(ctx, member, orgID), ErrNotFound)
}

func TestTransferOwnership(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	owner := f.user(t, "owner@x.com")
	orgID := f.org(t, owner)
	manager := f.join(t, owner, orgID, "m@x.com", domain.RoleManager)
	appraiser := f.join(t, owner, orgID, "a@x.com", domain.RoleAppraiser)

	t.Run("non owner", func(t *testing.T) {
		err := f.Members.TransferOwnership(ctx, manager, orgID, TransferOwnershipInput{TargetUserID: appraiser.UserID})
		require.ErrorIs(t, err, ErrForbidden)
	})

	t.Run("self", func(t *testing.T) {
		err := f.Members.TransferOwnership(ctx, owner, orgID, TransferOwnershipInput{TargetUserID: owner.UserID})
		ve, ok := validx.As(err)
		require.True(t, ok)
		require.Contains(t, ve.Fields, "targetUserId")
	})

	t.Run("target not a member", func(t *testing.T) {
		stranger := f.user(t, "s@x.com")
		err := f.Members.TransferOwnership(ctx, owner, orgID, TransferOwnershipInput{TargetUserID: stranger.UserID})
		require.ErrorIs(t, err, ErrNotFound)
		require.Equal(t, domain.RoleOwner, f.role(t, orgID, owner.UserID))
	})

	t.Run("unknown organization", func(t *testing.T) {
		err := f.Members.TransferOwnership(ctx, owner, idx.New().String(), TransferOwnershipInput{TargetUserID: manager.UserID})
		require.ErrorIs(t, err, ErrNotFound)
	})

	t.Run("success", func(t *testing.T) {
		err := f.Members.TransferOwnership(ctx, owner, orgID, TransferOwnershipInput{TargetUserID: appraiser.UserID})
		require.NoError(t, err)

		require.Equal(t, domain.RoleOwner, f.role(t, orgID, appraiser.UserID))
		require.Equal(t, domain.RoleManager, f.role(t, orgID, owner.UserID))
		require.Equal(t, 1, f.owners(t, orgID))

		// The old owner can now leave.
		require.NoError(t, f.Members.Leave(ctx, owner, orgID))
	})
}

func TestConcurrentTransfers(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	owner := f.user(t, "owner@x.com")
	orgID := f.org(t, owner)

	targets := []Actor{
		f.join(t, owner, orgID, "t1@x.com", domain.RoleManager),
		f.join(t, owner, orgID, "t2@x.com", domain.RoleManager),
		f.join(t, owner, orgID, "t3@x.com", domain.RoleAppraiser),
	}

	var (
		wg   sync.WaitGroup
		mu   sync.Mutex
		wins int
	)
	for _, target := range targets {
		wg.Add(1)
		go func() {
			defer wg.Done()
			err := f.Members.TransferOwnership(ctx, owner, orgID, TransferOwnershipInput{TargetUserID: target.UserID})
			if err == nil {
				mu.Lock()
				wins++
				mu.Unlock()
				return
			}
			if !errors.Is(err, ErrForbidden) && !errors.Is(err, ErrConflict) {
				t.Errorf("unexpected error: %v", err)
			}
		}()
	}
	wg.Wait()

	require.Equal(t, 1, wins)
	require.Equal(t, 1, f.owners(t, orgID))
	require.Equal(t, domain.RoleManager, f.role(t, orgID, owner.UserID))
}

func TestPermissions(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	owner := f.user(t, "owner@x.com")
	orgID := f.org(t, owner)
	appraiser := f.join(t, owner, orgID, "a@x.com", domain.RoleAppraiser)

	p, err := f.Members.Permissions(ctx, appraiser, orgID)
	require.NoError(t, err)
	require.Equal(t, domain.RoleAppraiser, p.Role)
	require.Equal(t, domain.RoleAppraiser.Permissions(), p.Permissions)

	p, err = f.Members.Permissions(ctx, owner, orgID)
	require.NoError(t, err)
	require.Contains(t, p.Permissions, domain.PermMembersUpdate)

	_, err = f.Members.Permissions(ctx, f.user(t, "s@x.com"), orgID)
	require.ErrorIs(t, err, ErrNotFound)

	_, err = f.Members.Permissions(ctx, owner, idx.New().String())
	require.ErrorIs(t, err, ErrNotFound)
}

func TestChangeMemberRole(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	owner := f.user(t, "owner@x.com")
	orgID := f.org(t, owner)
	manager := f.join(t, owner, orgID, "m@x.com", domain.RoleManager)
	appraiser := f.join(t, owner, orgID, "a@x.com", domain.RoleAppraiser)

	_, err := f.Members.ChangeMemberRole(ctx, manager, orgID, appraiser.UserID, ChangeRoleInput{Role: domain.RoleManager})
	require.ErrorIs(t, err, ErrForbidden, "managers cannot change roles")

	_, err = f.Members.ChangeMemberRole(ctx, owner, orgID, owner.UserID, ChangeRoleInput{Role: domain.RoleManager})
	require.ErrorIs(t, err, ErrForbidden, "owner role only moves through transfer")

	_, err = f.Members.ChangeMemberRole(ctx, owner, orgID, appraiser.UserID, ChangeRoleInput{Role: domain.RoleOwner})
	_, ok := validx.As(err)
	require.True(t, ok)

	_, err = f.Members.ChangeMemberRole(ctx, owner, orgID, idx.New().String(), ChangeRoleInput{Role: domain.RoleManager})
	require.ErrorIs(t, err, ErrNotFound)

	m, err := f.Members.ChangeMemberRole(ctx, owner, orgID, appraiser.UserID, ChangeRoleInput{Role: domain.RoleManager})
	require.NoError(t, err)
	require.Equal(t, domain.RoleManager, m.Role)
	require.Equal(t, domain.RoleManager, f.role(t, orgID, appraiser.UserID))
}

func TestRemoveMember(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	owner := f.user(t, "owner@x.com")
	orgID := f.org(t, owner)
	manager := f.join(t, owner, orgID, "m@x.com", domain.RoleManager)
	appraiser := f.join(t, owner, orgID, "a@x.com", domain.RoleAppraiser)

	require.ErrorIs(t, f.Members.RemoveMember(ctx, appraiser, orgID, manager.UserID), ErrForbidden)
	require.ErrorIs(t, f.Members.RemoveMember(ctx, manager, orgID, owner.UserID), ErrForbidden)
	require.ErrorIs(t, f.Members.RemoveMember(ctx, manager, orgID, idx.New().String()), ErrNotFound)

	_, ok := validx.As(f.Members.RemoveMember(ctx, manager, orgID, manager.UserID))
	require.True(t, ok)

	require.NoError(t, f.Members.RemoveMember(ctx, manager, orgID, appraiser.UserID))
	_, err := f.Members.Permissions(ctx, appraiser, orgID)
	require.ErrorIs(t, err, ErrNotFound)
	require.Equal(t, 1, f.owners(t, orgID))
}
