package service

import (
	"context"
	"testing"

	"github.com/aussiebroadwan/appraisal/internal/appraisal/domain"
	"github.com/aussiebroadwan/appraisal/pkg/idx"
	"github.com/aussiebroadwan/appraisal/pkg/validx"
	"github.com/stretchr/testify/require"
)

func ptr[T any](v T) *T { return &v }

func TestClients(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	owner := f.user(t, "owner@x.com")
	orgID := f.org(t, owner)
	appraiser := f.join(t, owner, orgID, "a@x.com", domain.RoleAppraiser)
	rival := f.user(t, "rival@x.com")
	rivalOrg := f.org(t, rival)

	_, err := f.Clients.Create(ctx, appraiser, orgID, CreateClientInput{Name: "Acme"})
	require.ErrorIs(t, err, ErrForbidden)

	_, err = f.Clients.Create(ctx, owner, orgID, CreateClientInput{Name: "", Email: "bad"})
	ve, ok := validx.As(err)
	require.True(t, ok)
	require.Contains(t, ve.Fields, "name")
	require.Contains(t, ve.Fields, "email")

	c, err := f.Clients.Create(ctx, owner, orgID, CreateClientInput{Name: "Acme Bank", Email: "Loans@Acme.example"})
	require.NoError(t, err)
	require.Equal(t, "loans@acme.example", c.Email)

	got, err := f.Clients.Get(ctx, appraiser, orgID, c.ID)
	require.NoError(t, err)
	require.Equal(t, c.Name, got.Name)

	// Tenant isolation: the rival cannot see it through their own org.
	_, err = f.Clients.Get(ctx, rival, rivalOrg, c.ID)
	require.ErrorIs(t, err, ErrNotFound)
	_, err = f.Clients.Get(ctx, rival, orgID, c.ID)
	require.ErrorIs(t, err, ErrForbidden)

	updated, err := f.Clients.Update(ctx, owner, orgID, c.ID, UpdateClientInput{Company: ptr("Acme Holdings")})
	require.NoError(t, err)
	require.Equal(t, "Acme Holdings", updated.Company)
	require.Equal(t, "Acme Bank", updated.Name)

	cleared, err := f.Clients.Update(ctx, owner, orgID, c.ID, UpdateClientInput{Email: ptr("")})
	require.NoError(t, err)
	require.Empty(t, cleared.Email)

	_, err = f.Clients.Update(ctx, owner, orgID, c.ID, UpdateClientInput{Email: ptr("not-an-email")})
	ve, ok = validx.As(err)
	require.True(t, ok)
	require.Equal(t, "must be a valid email address", ve.Fields["email"])

	_, err = f.Clients.Update(ctx, owner, orgID, idx.New().String(), UpdateClientInput{Name: ptr("X")})
	require.ErrorIs(t, err, ErrNotFound)

	list, err := f.Clients.List(ctx, appraiser, orgID, Page{})
	require.NoError(t, err)
	require.Len(t, list, 1)

	_, err = f.Clients.List(ctx, appraiser, orgID, Page{Limit: 500})
	_, ok = validx.As(err)
	require.True(t, ok)
}

func TestOrders(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	owner := f.user(t, "owner@x.com")
	orgID := f.org(t, owner)
	appraiser := f.join(t, owner, orgID, "a@x.com", domain.RoleAppraiser)
	rival := f.user(t, "rival@x.com")
	rivalOrg := f.org(t, rival)

	client, err := f.Clients.Create(ctx, owner, orgID, CreateClientInput{Name: "Acme Bank"})
	require.NoError(t, err)
	rivalClient, err := f.Clients.Create(ctx, rival, rivalOrg, CreateClientInput{Name: "Rival Client"})
	require.NoError(t, err)

	property := PropertyInput{Address: "1 George St", City: "Sydney", State: "NSW", PostalCode: "2000", Type: "residential"}

	t.Run("appraiser cannot create", func(t *testing.T) {
		_, err := f.Orders.Create(ctx, appraiser, orgID, CreateOrderInput{ClientID: client.ID, Property: property})
		require.ErrorIs(t, err, ErrForbidden)
	})

	t.Run("client from another organization", func(t *testing.T) {
		_, err := f.Orders.Create(ctx, owner, orgID, CreateOrderInput{ClientID: rivalClient.ID, Property: property})
		ve, ok := validx.As(err)
		require.True(t, ok)
		require.Contains(t, ve.Fields, "clientId")
	})

	t.Run("assignee outside organization", func(t *testing.T) {
		_, err := f.Orders.Create(ctx, owner, orgID, CreateOrderInput{
			ClientID: client.ID, Property: property, AssigneeID: ptr(rival.UserID),
		})
		ve, ok := validx.As(err)
		require.True(t, ok)
		require.Contains(t, ve.Fields, "assigneeId")
	})

	t.Run("blank address", func(t *testing.T) {
		blank := property
		blank.Address = "   "
		_, err := f.Orders.Create(ctx, owner, orgID, CreateOrderInput{ClientID: client.ID, Property: blank})
		ve, ok := validx.As(err)
		require.True(t, ok)
		require.Equal(t, "is required", ve.Fields["property.address"])
	})

	t.Run("field validation", func(t *testing.T) {
		_, err := f.Orders.Create(ctx, owner, orgID, CreateOrderInput{
			ClientID: "nope", Status: "done", DueDate: ptr("next week"), FeeCents: -1,
		})
		ve, ok := validx.As(err)
		require.True(t, ok)
		for _, field := range []string{"clientId", "status", "dueDate", "feeCents", "property.address"} {
			require.Contains(t, ve.Fields, field)
		}
	})

	o, err := f.Orders.Create(ctx, owner, orgID, CreateOrderInput{
		ClientID:   client.ID,
		Reference:  "HV-1001",
		Property:   property,
		AssigneeID: ptr(appraiser.UserID),
		DueDate:    ptr("2026-03-20"),
		FeeCents:   65000,
	})
	require.NoError(t, err)
	require.Equal(t, domain.OrderNew, o.Status)
	require.Equal(t, "2026-03-20", o.DueDate.Format(DateLayout))

	_, err = f.Orders.Create(ctx, owner, orgID, CreateOrderInput{ClientID: client.ID, Property: property, Status: domain.OrderReview})
	require.NoError(t, err)

	t.Run("appraiser progresses the order", func(t *testing.T) {
		updated, err := f.Orders.Update(ctx, appraiser, orgID, o.ID, UpdateOrderInput{
			Status: ptr(domain.OrderInProgress),
			Notes:  ptr("Inspection booked"),
		})
		require.NoError(t, err)
		require.Equal(t, domain.OrderInProgress, updated.Status)
		require.Equal(t, "HV-1001", updated.Reference)
		require.Equal(t, appraiser.UserID, *updated.AssigneeID)
	})

	t.Run("clear assignee and due date", func(t *testing.T) {
		updated, err := f.Orders.Update(ctx, owner, orgID, o.ID, UpdateOrderInput{AssigneeID: ptr(""), DueDate: ptr("")})
		require.NoError(t, err)
		require.Nil(t, updated.AssigneeID)
		require.Nil(t, updated.DueDate)

		got, err := f.Orders.Get(ctx, appraiser, orgID, o.ID)
		require.NoError(t, err)
		require.Nil(t, got.AssigneeID)
	})

	t.Run("list with status filter", func(t *testing.T) {
		all, err := f.Orders.List(ctx, appraiser, orgID, ListOrdersInput{})
		require.NoError(t, err)
		require.Len(t, all, 2)

		review, err := f.Orders.List(ctx, appraiser, orgID, ListOrdersInput{Status: domain.OrderReview})
		require.NoError(t, err)
		require.Len(t, review, 1)

		page, err := f.Orders.List(ctx, appraiser, orgID, ListOrdersInput{Page: Page{Limit: 1, Offset: 1}})
		require.NoError(t, err)
		require.Len(t, page, 1)
	})

	t.Run("other tenant", func(t *testing.T) {
		_, err := f.Orders.Get(ctx, rival, rivalOrg, o.ID)
		require.ErrorIs(t, err, ErrNotFound)

		list, err := f.Orders.List(ctx, rival, rivalOrg, ListOrdersInput{})
		require.NoError(t, err)
		require.Empty(t, list)
	})
}
