package http

import (
	"github.com/aussiebroadwan/appraisal/internal/appraisal/domain"
	"github.com/aussiebroadwan/appraisal/internal/appraisal/service"
	"github.com/aussiebroadwan/appraisal/pkg/appraisalsdk"
)

var statusOK = appraisalsdk.StatusResponse{Status: "ok"}

func toUser(u domain.User) appraisalsdk.UserResponse {
	return appraisalsdk.UserResponse{
		ID:        u.ID,
		Email:     u.Email,
		Name:      u.Name,
		Phone:     u.Phone,
		CreatedAt: u.CreatedAt,
		UpdatedAt: u.UpdatedAt,
	}
}

func toOrganization(o domain.Organization) appraisalsdk.OrganizationResponse {
	return appraisalsdk.OrganizationResponse{
		ID:        o.ID,
		Name:      o.Name,
		Avatar:    o.Avatar,
		CreatedAt: o.CreatedAt,
		UpdatedAt: o.UpdatedAt,
	}
}

func toMembership(m domain.Membership) appraisalsdk.MembershipResponse {
	return appraisalsdk.MembershipResponse{
		Organization: toOrganization(m.Organization),
		Role:         string(m.Role),
		JoinedAt:     m.JoinedAt,
	}
}

func toMember(m domain.Member) appraisalsdk.MemberResponse {
	return appraisalsdk.MemberResponse{
		ID:             m.ID,
		OrganizationID: m.OrganizationID,
		UserID:         m.UserID,
		Role:           string(m.Role),
		JoinedAt:       m.CreatedAt,
	}
}

func toMemberProfile(m domain.MemberProfile) appraisalsdk.MemberResponse {
	out := toMember(m.Member)
	out.Name = m.Name
	out.Email = m.Email
	return out
}

func toInvitation(inv domain.Invitation, status domain.InvitationStatus) appraisalsdk.InvitationResponse {
	return appraisalsdk.InvitationResponse{
		ID:             inv.ID,
		OrganizationID: inv.OrganizationID,
		Email:          inv.Email,
		Role:           string(inv.Role),
		Status:         string(status),
		InvitedBy:      inv.InvitedBy,
		ExpiresAt:      inv.ExpiresAt,
		ConsumedAt:     inv.ConsumedAt,
		CreatedAt:      inv.CreatedAt,
	}
}

func toInvitationView(v service.InvitationView) appraisalsdk.InvitationResponse {
	return toInvitation(v.Invitation, v.Status)
}

func toInvite(c service.CreatedInvite) appraisalsdk.InviteResponse {
	return appraisalsdk.InviteResponse{
		Invitation: toInvitation(c.Invitation, domain.InvitationPending),
		Token:      c.Token,
		JoinURL:    c.JoinURL,
	}
}

func toPermissions(p service.OrganizationPermissions) appraisalsdk.PermissionsResponse {
	perms := make([]string, 0, len(p.Permissions))
	for _, perm := range p.Permissions {
		perms = append(perms, string(perm))
	}
	return appraisalsdk.PermissionsResponse{Role: string(p.Role), Permissions: perms}
}

func toClient(c domain.Client) appraisalsdk.ClientResponse {
	return appraisalsdk.ClientResponse{
		ID:             c.ID,
		OrganizationID: c.OrganizationID,
		Name:           c.Name,
		Email:          c.Email,
		Phone:          c.Phone,
		Company:        c.Company,
		Address:        c.Address,
		CreatedBy:      c.CreatedBy,
		CreatedAt:      c.CreatedAt,
		UpdatedAt:      c.UpdatedAt,
	}
}

func toOrder(o domain.Order) appraisalsdk.OrderResponse {
	out := appraisalsdk.OrderResponse{
		ID:             o.ID,
		OrganizationID: o.OrganizationID,
		ClientID:       o.ClientID,
		Reference:      o.Reference,
		Property: appraisalsdk.Property{
			Address:    o.Property.Address,
			City:       o.Property.City,
			State:      o.Property.State,
			PostalCode: o.Property.PostalCode,
			Type:       o.Property.Type,
		},
		Status:     string(o.Status),
		AssigneeID: o.AssigneeID,
		FeeCents:   o.FeeCents,
		Notes:      o.Notes,
		CreatedBy:  o.CreatedBy,
		CreatedAt:  o.CreatedAt,
		UpdatedAt:  o.UpdatedAt,
	}
	if o.DueDate != nil {
		d := o.DueDate.Format(service.DateLayout)
		out.DueDate = &d
	}
	return out
}

func mapSlice[T, U any](in []T, fn func(T) U) []U {
	out := make([]U, 0, len(in))
	for _, v := range in {
		out = append(out, fn(v))
	}
	return out
}
