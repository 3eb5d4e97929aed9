package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"strings"
	"time"

	"github.com/aussiebroadwan/appraisal/internal/appraisal/domain"
	"github.com/aussiebroadwan/appraisal/internal/appraisal/store"
	"github.com/aussiebroadwan/appraisal/pkg/cryptox"
	"github.com/aussiebroadwan/appraisal/pkg/idx"
	"github.com/aussiebroadwan/appraisal/pkg/slogx"
	"github.com/aussiebroadwan/appraisal/pkg/validx"
)

type MembershipService struct {
	Store store.Store

	// AppURL is the front end origin join links point at.
	AppURL string

	// InviteTTL overrides domain.InvitationTTL when positive.
	InviteTTL time.Duration

	Now func() time.Time
}

type CreateInviteInput struct {
	Email string      `json:"email" validate:"required,email,max=254"`
	Role  domain.Role `json:"role" validate:"required,oneof=manager appraiser"`
}

// CreatedInvite is returned once; the raw token is not stored anywhere.
type CreatedInvite struct {
	Invitation domain.Invitation
	Token      string
	JoinURL    string
}

type TransferOwnershipInput struct {
	TargetUserID string `json:"targetUserId" validate:"required,ulid"`
}

type ChangeRoleInput struct {
	Role domain.Role `json:"role" validate:"required,oneof=manager appraiser"`
}

// OrganizationPermissions is the caller's standing in an organization.
type OrganizationPermissions struct {
	Role        domain.Role
	Permissions []domain.Permission
}

func (s *MembershipService) access() *Access { return &Access{Store: s.Store} }

func (s *MembershipService) inviteTTL() time.Duration {
	if s.InviteTTL > 0 {
		return s.InviteTTL
	}
	return domain.InvitationTTL
}

// JoinURL builds the link an invitee follows to redeem token.
func (s *MembershipService) JoinURL(orgID, token string) string {
	return fmt.Sprintf("%s/organization/%s/join?token=%s",
		strings.TrimRight(s.AppURL, "/"), url.PathEscape(orgID), url.QueryEscape(token))
}

// CreateInvite issues a single-use invitation to join orgID with the given
// role.
func (s *MembershipService) CreateInvite(
	ctx context.Context,
	actor Actor,
	orgID string,
	in CreateInviteInput,
) (CreatedInvite, error) {
	log := slogx.FromContext(ctx)

	// 1. Caller must be allowed to invite.
	if _, err := s.access().Require(ctx, actor, orgID, domain.PermMembersInvite); err != nil {
		return CreatedInvite{}, err
	}

	// 2. Normalise and validate input.
	in.Email = strings.ToLower(strings.TrimSpace(in.Email))
	if err := validx.Struct(in); err != nil {
		return CreatedInvite{}, err
	}

	// 3. Refuse to invite someone who is already in.
	ids, err := s.Store.Users().FindUserIDsByEmail(ctx, in.Email)
	if err != nil {
		log.Error("failed to look up invitee", slog.Any("error", err))
		return CreatedInvite{}, err
	}
	for _, id := range ids {
		_, err := s.Store.Members().GetMember(ctx, orgID, id)
		if err == nil {
			log.Warn("invite attempted for existing member",
				slog.String("organization_id", orgID),
				slog.String("user_id", id),
			)
			return CreatedInvite{}, fmt.Errorf("%w: %s is already a member", ErrConflict, in.Email)
		}
		if !errors.Is(err, store.ErrNotFound) {
			return CreatedInvite{}, err
		}
	}

	// 4. Generate the token; only its fingerprint is persisted.
	token, err := cryptox.GenerateToken(cryptox.TokenSize256)
	if err != nil {
		log.Error("failed to generate invite token", slog.Any("error", err))
		return CreatedInvite{}, err
	}

	now := clock(s.Now)
	inv := domain.Invitation{
		ID:             idx.NewAt(now).String(),
		OrganizationID: orgID,
		Email:          in.Email,
		TokenHash:      cryptox.FingerprintToken(token),
		Role:           in.Role,
		InvitedBy:      actor.UserID,
		ExpiresAt:      now.Add(s.inviteTTL()),
		CreatedAt:      now,
	}

	if err := s.Store.Invitations().CreateInvitation(ctx, inv); err != nil {
		log.Error("failed to create invitation",
			slog.String("invitation_id", inv.ID),
			slog.Any("error", err),
		)
		return CreatedInvite{}, err
	}

	log.Info("invitation created",
		slog.String("invitation_id", inv.ID),
		slog.String("organization_id", orgID),
		slog.String("role", string(inv.Role)),
		slog.Time("expires_at", inv.ExpiresAt),
	)

	return CreatedInvite{
		Invitation: inv,
		Token:      token,
		JoinURL:    s.JoinURL(orgID, token),
	}, nil
}

// Join redeems an invitation token and makes the caller a member of orgID
// with the invited role. A token works exactly once.
func (s *MembershipService) Join(ctx context.Context, actor Actor, orgID, token string) (domain.Member, error) {
	log := slogx.FromContext(ctx)

	if actor.UserID == "" {
		return domain.Member{}, ErrUnauthenticated
	}

	token = strings.TrimSpace(token)
	if token == "" {
		return domain.Member{}, validx.Field("token", "is required")
	}

	// 1. Look the invitation up by fingerprint.
	inv, err := s.Store.Invitations().GetInvitationByTokenHash(ctx, cryptox.FingerprintToken(token))
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			log.Warn("join attempted with unknown token", slog.String("organization_id", orgID))
			return domain.Member{}, fmt.Errorf("%w: invitation", ErrNotFound)
		}
		log.Error("failed to fetch invitation", slog.Any("error", err))
		return domain.Member{}, err
	}

	// 2. A token for another organization is treated as unknown.
	if inv.OrganizationID != orgID {
		log.Warn("join attempted with token for another organization",
			slog.String("organization_id", orgID),
			slog.String("invitation_id", inv.ID),
		)
		return domain.Member{}, fmt.Errorf("%w: invitation", ErrNotFound)
	}

	// 3. Consumed and expired invitations are both dead.
	now := clock(s.Now)
	if status := inv.StatusAt(now); status != domain.InvitationPending {
		log.Warn("join attempted with dead invitation",
			slog.String("invitation_id", inv.ID),
			slog.String("status", string(status)),
		)
		return domain.Member{}, fmt.Errorf("%w: invitation is %s", ErrExpired, status)
	}

	member := domain.Member{
		ID:             idx.NewAt(now).String(),
		OrganizationID: orgID,
		UserID:         actor.UserID,
		Role:           inv.Role,
		CreatedAt:      now,
		UpdatedAt:      now,
	}

	// 4. Consume and create the membership atomically. The conditional
	// consume is what stops two racing redemptions.
	err = s.Store.WithTx(ctx, func(tx store.Tx) error {
		if err := tx.Invitations().ConsumeInvitation(ctx, inv.ID, actor.UserID, now); err != nil {
			if errors.Is(err, store.ErrNotFound) {
				return fmt.Errorf("%w: invitation already used", ErrExpired)
			}
			return err
		}

		if err := tx.Members().CreateMember(ctx, member); err != nil {
			if errors.Is(err, store.ErrAlreadyExists) {
				return fmt.Errorf("%w: already a member of this organization", ErrConflict)
			}
			return err
		}
		return nil
	})
	if err != nil {
		if !errors.Is(err, ErrExpired) && !errors.Is(err, ErrConflict) {
			log.Error("failed to redeem invitation",
				slog.String("invitation_id", inv.ID),
				slog.Any("error", err),
			)
		}
		return domain.Member{}, err
	}

	log.Info("invitation redeemed",
		slog.String("invitation_id", inv.ID),
		slog.String("organization_id", orgID),
		slog.String("role", string(member.Role)),
	)

	return member, nil
}

// Leave removes the caller's own membership. The owner has to transfer
// ownership first.
func (s *MembershipService) Leave(ctx context.Context, actor Actor, orgID string) error {
	log := slogx.FromContext(ctx)

	if actor.UserID == "" {
		return ErrUnauthenticated
	}

	m, err := s.Store.Members().GetMember(ctx, orgID, actor.UserID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return fmt.Errorf("%w: membership", ErrNotFound)
		}
		return err
	}

	if m.Role == domain.RoleOwner {
		log.Warn("owner attempted to leave", slog.String("organization_id", orgID))
		return fmt.Errorf("%w: the owner must transfer ownership before leaving", ErrForbidden)
	}

	if err := s.Store.Members().DeleteMember(ctx, orgID, actor.UserID); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			// Gone already, or promoted to owner in the meantime.
			return fmt.Errorf("%w: membership changed, retry", ErrConflict)
		}
		return err
	}

	log.Info("member left", slog.String("organization_id", orgID))
	return nil
}

// TransferOwnership makes targetUserID the owner and demotes the caller to
// manager, in one transaction.
func (s *MembershipService) TransferOwnership(
	ctx context.Context,
	actor Actor,
	orgID string,
	in TransferOwnershipInput,
) error {
	log := slogx.FromContext(ctx)

	// 1. Caller must currently own the organization.
	caller, err := s.access().Member(ctx, actor, orgID)
	if err != nil {
		return err
	}
	if caller.Role != domain.RoleOwner {
		return fmt.Errorf("%w: only the owner can transfer ownership", ErrForbidden)
	}

	// 2. Validate the target.
	if err := validx.Struct(in); err != nil {
		return err
	}
	if in.TargetUserID == actor.UserID {
		return validx.Field("targetUserId", "must be a different member")
	}

	if _, err := s.Store.Members().GetMember(ctx, orgID, in.TargetUserID); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return fmt.Errorf("%w: target is not a member", ErrNotFound)
		}
		return err
	}

	// 3. Demote then promote. Demoting first keeps the one-owner index
	// satisfied at every statement.
	now := clock(s.Now)
	err = s.Store.WithTx(ctx, func(tx store.Tx) error {
		err := tx.Members().ReplaceMemberRole(ctx, orgID, actor.UserID, domain.RoleOwner, domain.RoleManager, now)
		if err != nil {
			if errors.Is(err, store.ErrNotFound) {
				return fmt.Errorf("%w: caller is no longer the owner", ErrForbidden)
			}
			return err
		}

		if err := tx.Members().SetMemberRole(ctx, orgID, in.TargetUserID, domain.RoleOwner, now); err != nil {
			switch {
			case errors.Is(err, store.ErrNotFound):
				return fmt.Errorf("%w: target is not a member", ErrNotFound)
			case errors.Is(err, store.ErrAlreadyExists):
				return fmt.Errorf("%w: organization already has another owner", ErrConflict)
			}
			return err
		}
		return nil
	})
	if err != nil {
		log.Warn("ownership transfer failed",
			slog.String("organization_id", orgID),
			slog.String("target_user_id", in.TargetUserID),
			slog.Any("error", err),
		)
		return err
	}

	log.Info("ownership transferred",
		slog.String("organization_id", orgID),
		slog.String("target_user_id", in.TargetUserID),
	)
	return nil
}

// Permissions reports the caller's role and what it grants. Non-members get
// ErrNotFound so the endpoint does not reveal which organizations exist.
func (s *MembershipService) Permissions(ctx context.Context, actor Actor, orgID string) (OrganizationPermissions, error) {
	m, err := s.access().Member(ctx, actor, orgID)
	if err != nil {
		if errors.Is(err, ErrForbidden) {
			return OrganizationPermissions{}, fmt.Errorf("%w: membership", ErrNotFound)
		}
		return OrganizationPermissions{}, err
	}

	return OrganizationPermissions{
		Role:        m.Role,
		Permissions: m.Role.Permissions(),
	}, nil
}

// ChangeMemberRole moves a non-owner member between manager and appraiser.
func (s *MembershipService) ChangeMemberRole(
	ctx context.Context,
	actor Actor,
	orgID, userID string,
	in ChangeRoleInput,
) (domain.Member, error) {
	log := slogx.FromContext(ctx)

	if _, err := s.access().Require(ctx, actor, orgID, domain.PermMembersUpdate); err != nil {
		return domain.Member{}, err
	}
	if err := validx.Struct(in); err != nil {
		return domain.Member{}, err
	}

	target, err := s.Store.Members().GetMember(ctx, orgID, userID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return domain.Member{}, fmt.Errorf("%w: member", ErrNotFound)
		}
		return domain.Member{}, err
	}
	if target.Role == domain.RoleOwner {
		return domain.Member{}, fmt.Errorf("%w: the owner's role changes only through a transfer", ErrForbidden)
	}
	if target.Role == in.Role {
		return target, nil
	}

	now := clock(s.Now)
	if err := s.Store.Members().ReplaceMemberRole(ctx, orgID, userID, target.Role, in.Role, now); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return domain.Member{}, fmt.Errorf("%w: membership changed, retry", ErrConflict)
		}
		return domain.Member{}, err
	}

	log.Info("member role changed",
		slog.String("organization_id", orgID),
		slog.String("user_id", userID),
		slog.String("from", string(target.Role)),
		slog.String("to", string(in.Role)),
	)

	target.Role = in.Role
	target.UpdatedAt = now
	return target, nil
}

// RemoveMember removes someone else's membership.
func (s *MembershipService) RemoveMember(ctx context.Context, actor Actor, orgID, userID string) error {
	log := slogx.FromContext(ctx)

	if _, err := s.access().Require(ctx, actor, orgID, domain.PermMembersRemove); err != nil {
		return err
	}
	if userID == actor.UserID {
		return validx.Field("userId", "use leave to remove yourself")
	}

	target, err := s.Store.Members().GetMember(ctx, orgID, userID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return fmt.Errorf("%w: member", ErrNotFound)
		}
		return err
	}
	if target.Role == domain.RoleOwner {
		return fmt.Errorf("%w: the owner cannot be removed", ErrForbidden)
	}

	if err := s.Store.Members().DeleteMember(ctx, orgID, userID); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return fmt.Errorf("%w: membership changed, retry", ErrConflict)
		}
		return err
	}

	log.Info("member removed",
		slog.String("organization_id", orgID),
		slog.String("user_id", userID),
	)
	return nil
}
