package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/aussiebroadwan/appraisal/internal/appraisal/domain"
	"github.com/aussiebroadwan/appraisal/internal/appraisal/store"
	"github.com/aussiebroadwan/appraisal/pkg/slogx"
)

// Actor is the authenticated caller of an operation.
type Actor struct {
	UserID string
	Email  string
}

// Access resolves the caller's membership in an organization and checks it
// against the static role table.
type Access struct {
	Store store.Store
}

// Require returns the caller's membership when their role grants perm.
// A missing organization is ErrNotFound; an existing one the caller does
// not belong to, or a role lacking perm, is ErrForbidden.
func (a *Access) Require(ctx context.Context, actor Actor, orgID string, perm domain.Permission) (domain.Member, error) {
	log := slogx.FromContext(ctx)

	m, err := a.Member(ctx, actor, orgID)
	if err != nil {
		return domain.Member{}, err
	}

	if !m.Role.Can(perm) {
		log.Warn("permission denied",
			slog.String("organization_id", orgID),
			slog.String("role", string(m.Role)),
			slog.String("permission", string(perm)),
		)
		return domain.Member{}, fmt.Errorf("%w: role %s lacks %s", ErrForbidden, m.Role, perm)
	}

	return m, nil
}

// Member returns the caller's membership without a permission check, with
// the same NotFound/Forbidden split as Require.
func (a *Access) Member(ctx context.Context, actor Actor, orgID string) (domain.Member, error) {
	if actor.UserID == "" {
		return domain.Member{}, ErrUnauthenticated
	}

	m, err := a.Store.Members().GetMember(ctx, orgID, actor.UserID)
	if err == nil {
		return m, nil
	}
	if !errors.Is(err, store.ErrNotFound) {
		return domain.Member{}, err
	}

	// Not a member. Tell "no such organization" apart from "not yours".
	if _, err := a.Store.Organizations().GetOrganizationByID(ctx, orgID); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return domain.Member{}, fmt.Errorf("%w: organization", ErrNotFound)
		}
		return domain.Member{}, err
	}
	return domain.Member{}, fmt.Errorf("%w: not a member of this organization", ErrForbidden)
}

// clock returns now in UTC, from fn when set.
func clock(fn func() time.Time) time.Time {
	if fn != nil {
		return fn().UTC()
	}
	return time.Now().UTC()
}
