package service

import (
	"context"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/aussiebroadwan/appraisal/internal/appraisal/domain"
	"github.com/aussiebroadwan/appraisal/internal/appraisal/identity"
	"github.com/aussiebroadwan/appraisal/internal/appraisal/store"
	"github.com/aussiebroadwan/appraisal/internal/appraisal/store/drivers/sqlite"
	"github.com/stretchr/testify/require"
)

type fakeClock struct {
	mu sync.Mutex
	t  time.Time
}

func newClock() *fakeClock {
	return &fakeClock{t: time.Date(2026, 3, 2, 9, 30, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.t = c.t.Add(d)
}

// fixture wires every service over one migrated SQLite file.
type fixture struct {
	Store   store.Store
	Clock   *fakeClock
	Users   *UserService
	Orgs    *OrganizationService
	Members *MembershipService
	Clients *ClientService
	Orders  *OrderService
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	s, err := sqlite.NewStore(filepath.Join(t.TempDir(), "appraisal.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	require.NoError(t, s.ApplyMigrations())

	clk := newClock()
	return &fixture{
		Store:   s,
		Clock:   clk,
		Users:   &UserService{Store: s, Now: clk.Now},
		Orgs:    &OrganizationService{Store: s, Now: clk.Now},
		Members: &MembershipService{Store: s, Now: clk.Now, AppURL: "https://app.example.com/"},
		Clients: &ClientService{Store: s, Now: clk.Now},
		Orders:  &OrderService{Store: s, Now: clk.Now},
	}
}

// user signs up a new local user and returns them as an Actor.
func (f *fixture) user(t *testing.T, email string) Actor {
	t.Helper()
	u, err := f.Users.EnsureUser(context.Background(), identity.Profile{
		AccountRef: "test|" + email,
		Email:      email,
	})
	require.NoError(t, err)
	return Actor{UserID: u.ID, Email: u.Email}
}

// org creates an organization owned by owner.
func (f *fixture) org(t *testing.T, owner Actor) string {
	t.Helper()
	ms, err := f.Orgs.Create(context.Background(), owner, CreateOrganizationInput{Name: "Harbour Valuations"})
	require.NoError(t, err)
	return ms.Organization.ID
}

// join invites a new user with role and has them accept.
func (f *fixture) join(t *testing.T, inviter Actor, orgID, email string, role domain.Role) Actor {
	t.Helper()
	ctx := context.Background()

	invitee := f.user(t, email)
	inv, err := f.Members.CreateInvite(ctx, inviter, orgID, CreateInviteInput{Email: email, Role: role})
	require.NoError(t, err)
	_, err = f.Members.Join(ctx, invitee, orgID, inv.Token)
	require.NoError(t, err)
	return invitee
}

func (f *fixture) owners(t *testing.T, orgID string) int {
	t.Helper()
	n, err := f.Store.Members().CountOwners(context.Background(), orgID)
	require.NoError(t, err)
	return n
}

func (f *fixture) role(t *testing.T, orgID, userID string) domain.Role {
	t.Helper()
	m, err := f.Store.Members().GetMember(context.Background(), orgID, userID)
	require.NoError(t, err)
	return m.Role
}
