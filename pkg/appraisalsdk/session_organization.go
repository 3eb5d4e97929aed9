package appraisalsdk

import (
	"context"
	"net/http"
	"net/url"
)

func orgPath(orgID string, rest ...string) string {
	p := "/organization/" + url.PathEscape(orgID)
	for _, r := range rest {
		p += "/" + url.PathEscape(r)
	}
	return p
}

func (s *Session) Me(ctx context.Context) (*UserResponse, error) {
	var out UserResponse
	if err := s.do(ctx, http.MethodGet, "/me", nil, &out, http.StatusOK); err != nil {
		return nil, err
	}
	return &out, nil
}

func (s *Session) UpdateMe(ctx context.Context, req UpdateProfileRequest) (*UserResponse, error) {
	var out UserResponse
	if err := s.do(ctx, http.MethodPatch, "/me", req, &out, http.StatusOK); err != nil {
		return nil, err
	}
	return &out, nil
}

func (s *Session) ListOrganizations(ctx context.Context) ([]MembershipResponse, error) {
	var out []MembershipResponse
	if err := s.do(ctx, http.MethodGet, "/organization", nil, &out, http.StatusOK); err != nil {
		return nil, err
	}
	return out, nil
}

func (s *Session) CreateOrganization(ctx context.Context, req CreateOrganizationRequest) (*MembershipResponse, error) {
	var out MembershipResponse
	if err := s.do(ctx, http.MethodPost, "/organization", req, &out, http.StatusCreated); err != nil {
		return nil, err
	}
	return &out, nil
}

func (s *Session) GetOrganization(ctx context.Context, orgID string) (*OrganizationResponse, error) {
	var out OrganizationResponse
	if err := s.do(ctx, http.MethodGet, orgPath(orgID), nil, &out, http.StatusOK); err != nil {
		return nil, err
	}
	return &out, nil
}

func (s *Session) UpdateOrganization(
	ctx context.Context,
	orgID string,
	req UpdateOrganizationRequest,
) (*OrganizationResponse, error) {
	var out OrganizationResponse
	if err := s.do(ctx, http.MethodPatch, orgPath(orgID), req, &out, http.StatusOK); err != nil {
		return nil, err
	}
	return &out, nil
}

func (s *Session) DeleteOrganization(ctx context.Context, orgID string) error {
	return s.do(ctx, http.MethodDelete, orgPath(orgID), nil, nil, http.StatusOK)
}

func (s *Session) ListMembers(ctx context.Context, orgID string) ([]MemberResponse, error) {
	var out []MemberResponse
	if err := s.do(ctx, http.MethodGet, orgPath(orgID, "members"), nil, &out, http.StatusOK); err != nil {
		return nil, err
	}
	return out, nil
}

func (s *Session) ListInvitations(ctx context.Context, orgID string) ([]InvitationResponse, error) {
	var out []InvitationResponse
	if err := s.do(ctx, http.MethodGet, orgPath(orgID, "invitations"), nil, &out, http.StatusOK); err != nil {
		return nil, err
	}
	return out, nil
}

func (s *Session) CreateInvite(ctx context.Context, orgID string, req CreateInviteRequest) (*InviteResponse, error) {
	var out InviteResponse
	if err := s.do(ctx, http.MethodPost, orgPath(orgID, "invite"), req, &out, http.StatusOK); err != nil {
		return nil, err
	}
	return &out, nil
}

func (s *Session) Join(ctx context.Context, orgID, token string) (*MemberResponse, error) {
	var out MemberResponse
	if err := s.do(ctx, http.MethodPost, orgPath(orgID, "join"), JoinRequest{Token: token}, &out, http.StatusOK); err != nil {
		return nil, err
	}
	return &out, nil
}

func (s *Session) Leave(ctx context.Context, orgID string) error {
	return s.do(ctx, http.MethodPost, orgPath(orgID, "leave"), nil, nil, http.StatusOK)
}

func (s *Session) TransferOwnership(ctx context.Context, orgID, targetUserID string) error {
	req := TransferOwnershipRequest{TargetUserID: targetUserID}
	return s.do(ctx, http.MethodPost, orgPath(orgID, "transfer-ownership"), req, nil, http.StatusOK)
}

func (s *Session) Permissions(ctx context.Context, orgID string) (*PermissionsResponse, error) {
	var out PermissionsResponse
	if err := s.do(ctx, http.MethodGet, orgPath(orgID, "permissions"), nil, &out, http.StatusOK); err != nil {
		return nil, err
	}
	return &out, nil
}

func (s *Session) ChangeMemberRole(ctx context.Context, orgID, userID, role string) (*MemberResponse, error) {
	var out MemberResponse
	err := s.do(ctx, http.MethodPatch, orgPath(orgID, "members", userID), ChangeRoleRequest{Role: role}, &out, http.StatusOK)
	if err != nil {
		return nil, err
	}
	return &out, nil
}

func (s *Session) RemoveMember(ctx context.Context, orgID, userID string) error {
	return s.do(ctx, http.MethodDelete, orgPath(orgID, "members", userID), nil, nil, http.StatusOK)
}
