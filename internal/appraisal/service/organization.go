package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/aussiebroadwan/appraisal/internal/appraisal/domain"
	"github.com/aussiebroadwan/appraisal/internal/appraisal/store"
	"github.com/aussiebroadwan/appraisal/pkg/idx"
	"github.com/aussiebroadwan/appraisal/pkg/slogx"
	"github.com/aussiebroadwan/appraisal/pkg/validx"
)

type OrganizationService struct {
	Store store.Store
	Now   func() time.Time
}

type CreateOrganizationInput struct {
	Name   string `json:"name" validate:"required,min=1,max=120"`
	Avatar string `json:"avatar" validate:"omitempty,url,max=2048"`
}

// UpdateOrganizationInput leaves a field untouched when it is nil. An empty
// avatar clears it.
type UpdateOrganizationInput struct {
	Name   *string `json:"name" validate:"omitnil,min=1,max=120"`
	Avatar *string `json:"avatar" validate:"omitnil,eq=|url,max=2048"`
}

func (s *OrganizationService) access() *Access { return &Access{Store: s.Store} }

// Create makes a new organization owned by the caller.
func (s *OrganizationService) Create(
	ctx context.Context,
	actor Actor,
	in CreateOrganizationInput,
) (domain.Membership, error) {
	log := slogx.FromContext(ctx)

	if actor.UserID == "" {
		return domain.Membership{}, ErrUnauthenticated
	}

	in.Name = strings.TrimSpace(in.Name)
	in.Avatar = strings.TrimSpace(in.Avatar)
	if err := validx.Struct(in); err != nil {
		return domain.Membership{}, err
	}

	now := clock(s.Now)
	org := domain.Organization{
		ID:        idx.NewAt(now).String(),
		Name:      in.Name,
		Avatar:    in.Avatar,
		CreatedAt: now,
		UpdatedAt: now,
	}
	owner := domain.Member{
		ID:             idx.NewAt(now).String(),
		OrganizationID: org.ID,
		UserID:         actor.UserID,
		Role:           domain.RoleOwner,
		CreatedAt:      now,
		UpdatedAt:      now,
	}

	err := s.Store.WithTx(ctx, func(tx store.Tx) error {
		if err := tx.Organizations().CreateOrganization(ctx, org); err != nil {
			return err
		}
		return tx.Members().CreateMember(ctx, owner)
	})
	if err != nil {
		log.Error("failed to create organization", slog.Any("error", err))
		return domain.Membership{}, err
	}

	log.Info("organization created", slog.String("organization_id", org.ID))

	return domain.Membership{Organization: org, Role: domain.RoleOwner, JoinedAt: now}, nil
}

// List returns every organization the caller belongs to.
func (s *OrganizationService) List(ctx context.Context, actor Actor) ([]domain.Membership, error) {
	if actor.UserID == "" {
		return nil, ErrUnauthenticated
	}
	return s.Store.Organizations().ListOrganizationsForUser(ctx, actor.UserID)
}

func (s *OrganizationService) Get(ctx context.Context, actor Actor, orgID string) (domain.Organization, error) {
	if _, err := s.access().Require(ctx, actor, orgID, domain.PermOrganizationView); err != nil {
		return domain.Organization{}, err
	}
	return s.get(ctx, orgID)
}

func (s *OrganizationService) get(ctx context.Context, orgID string) (domain.Organization, error) {
	org, err := s.Store.Organizations().GetOrganizationByID(ctx, orgID)
	if errors.Is(err, store.ErrNotFound) {
		return domain.Organization{}, fmt.Errorf("%w: organization", ErrNotFound)
	}
	return org, err
}

func (s *OrganizationService) Update(
	ctx context.Context,
	actor Actor,
	orgID string,
	in UpdateOrganizationInput,
) (domain.Organization, error) {
	log := slogx.FromContext(ctx)

	if _, err := s.access().Require(ctx, actor, orgID, domain.PermOrganizationUpdate); err != nil {
		return domain.Organization{}, err
	}

	if in.Name != nil {
		name := strings.TrimSpace(*in.Name)
		in.Name = &name
	}
	if in.Avatar != nil {
		avatar := strings.TrimSpace(*in.Avatar)
		in.Avatar = &avatar
	}
	if err := validx.Struct(in); err != nil {
		return domain.Organization{}, err
	}

	org, err := s.get(ctx, orgID)
	if err != nil {
		return domain.Organization{}, err
	}
	if in.Name != nil {
		org.Name = *in.Name
	}
	if in.Avatar != nil {
		org.Avatar = *in.Avatar
	}
	org.UpdatedAt = clock(s.Now)

	if err := s.Store.Organizations().UpdateOrganization(ctx, org); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return domain.Organization{}, fmt.Errorf("%w: organization", ErrNotFound)
		}
		log.Error("failed to update organization", slog.Any("error", err))
		return domain.Organization{}, err
	}

	return org, nil
}

// Delete removes the organization and, through cascading keys, everything
// scoped to it.
func (s *OrganizationService) Delete(ctx context.Context, actor Actor, orgID string) error {
	log := slogx.FromContext(ctx)

	if _, err := s.access().Require(ctx, actor, orgID, domain.PermOrganizationDelete); err != nil {
		return err
	}

	if err := s.Store.Organizations().DeleteOrganization(ctx, orgID); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return fmt.Errorf("%w: organization", ErrNotFound)
		}
		log.Error("failed to delete organization", slog.Any("error", err))
		return err
	}

	log.Info("organization deleted", slog.String("organization_id", orgID))
	return nil
}

func (s *OrganizationService) ListMembers(ctx context.Context, actor Actor, orgID string) ([]domain.MemberProfile, error) {
	if _, err := s.access().Require(ctx, actor, orgID, domain.PermMembersView); err != nil {
		return nil, err
	}
	return s.Store.Members().ListMembers(ctx, orgID)
}

// InvitationView pairs an invitation with its status at read time.
type InvitationView struct {
	domain.Invitation
	Status domain.InvitationStatus
}

func (s *OrganizationService) ListInvitations(ctx context.Context, actor Actor, orgID string) ([]InvitationView, error) {
	if _, err := s.access().Require(ctx, actor, orgID, domain.PermInvitationsView); err != nil {
		return nil, err
	}

	invs, err := s.Store.Invitations().ListInvitations(ctx, orgID)
	if err != nil {
		return nil, err
	}

	now := clock(s.Now)
	out := make([]InvitationView, 0, len(invs))
	for _, inv := range invs {
		out = append(out, InvitationView{Invitation: inv, Status: inv.StatusAt(now)})
	}
	return out, nil
}
