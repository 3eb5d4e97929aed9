package http

import (
	"net/http"

	"github.com/aussiebroadwan/appraisal/internal/appraisal/service"
	"github.com/aussiebroadwan/appraisal/pkg/appraisalsdk"
	"github.com/aussiebroadwan/appraisal/pkg/httpx"
)

type MembershipHandler struct {
	MembershipService *service.MembershipService
}

// HandleInvite godoc
//
//	@Summary		Invite a member
//	@Description	Issues a single-use invitation valid for seven days. The raw token and join link are returned once and never stored.
//	@Tags			Membership
//	@Accept			json
//	@Produce		json
//	@Param			id		path		string								true	"Organization ID"
//	@Param			request	body		appraisalsdk.CreateInviteRequest	true	"Invitee email and role (manager or appraiser)"
//	@Success		200		{object}	appraisalsdk.Envelope[appraisalsdk.InviteResponse]
//	@Failure		400		{object}	appraisalsdk.ErrorResponse
//	@Failure		403		{object}	appraisalsdk.ErrorResponse
//	@Failure		404		{object}	appraisalsdk.ErrorResponse
//	@Failure		409		{object}	appraisalsdk.ErrorResponse	"already a member"
//	@Security		BearerAuth
//	@Router			/organization/{id}/invite [post].
func (h *MembershipHandler) HandleInvite(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var in service.CreateInviteInput
	if err := httpx.DecodeJSON(w, r, &in); err != nil {
		writeBadJSON(w)
		return
	}

	invite, err := h.MembershipService.CreateInvite(ctx, actor(r), r.PathValue("id"), in)
	if err != nil {
		writeServiceError(ctx, w, err)
		return
	}

	httpx.WriteData(w, http.StatusOK, toInvite(invite))
}

// HandleJoin godoc
//
//	@Summary		Join with an invitation
//	@Description	Redeems an invitation token. A token works exactly once; any later attempt is reported as expired.
//	@Tags			Membership
//	@Accept			json
//	@Produce		json
//	@Param			id		path		string						true	"Organization ID"
//	@Param			request	body		appraisalsdk.JoinRequest	true	"Invitation token"
//	@Success		200		{object}	appraisalsdk.Envelope[appraisalsdk.MemberResponse]
//	@Failure		400		{object}	appraisalsdk.ErrorResponse
//	@Failure		404		{object}	appraisalsdk.ErrorResponse
//	@Failure		409		{object}	appraisalsdk.ErrorResponse	"already a member"
//	@Failure		410		{object}	appraisalsdk.ErrorResponse	"used or expired"
//	@Security		BearerAuth
//	@Router			/organization/{id}/join [post].
func (h *MembershipHandler) HandleJoin(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var in appraisalsdk.JoinRequest
	if err := httpx.DecodeJSON(w, r, &in); err != nil {
		writeBadJSON(w)
		return
	}

	m, err := h.MembershipService.Join(ctx, actor(r), r.PathValue("id"), in.Token)
	if err != nil {
		writeServiceError(ctx, w, err)
		return
	}

	httpx.WriteData(w, http.StatusOK, toMember(m))
}

// HandleLeave godoc
//
//	@Summary		Leave an organization
//	@Description	The owner cannot leave; transfer ownership first.
//	@Tags			Membership
//	@Produce		json
//	@Param			id	path		string	true	"Organization ID"
//	@Success		200	{object}	appraisalsdk.Envelope[appraisalsdk.StatusResponse]
//	@Failure		403	{object}	appraisalsdk.ErrorResponse
//	@Failure		404	{object}	appraisalsdk.ErrorResponse
//	@Security		BearerAuth
//	@Router			/organization/{id}/leave [post].
func (h *MembershipHandler) HandleLeave(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	if err := h.MembershipService.Leave(ctx, actor(r), r.PathValue("id")); err != nil {
		writeServiceError(ctx, w, err)
		return
	}

	ok(w)
}

// HandleTransferOwnership godoc
//
//	@Summary		Transfer ownership
//	@Description	Makes another member the owner and demotes the caller to manager.
//	@Tags			Membership
//	@Accept			json
//	@Produce		json
//	@Param			id		path		string									true	"Organization ID"
//	@Param			request	body		appraisalsdk.TransferOwnershipRequest	true	"New owner"
//	@Success		200		{object}	appraisalsdk.Envelope[appraisalsdk.StatusResponse]
//	@Failure		400		{object}	appraisalsdk.ErrorResponse
//	@Failure		403		{object}	appraisalsdk.ErrorResponse
//	@Failure		404		{object}	appraisalsdk.ErrorResponse
//	@Security		BearerAuth
//	@Router			/organization/{id}/transfer-ownership [post].
func (h *MembershipHandler) HandleTransferOwnership(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var in service.TransferOwnershipInput
	if err := httpx.DecodeJSON(w, r, &in); err != nil {
		writeBadJSON(w)
		return
	}

	if err := h.MembershipService.TransferOwnership(ctx, actor(r), r.PathValue("id"), in); err != nil {
		writeServiceError(ctx, w, err)
		return
	}

	ok(w)
}

// HandlePermissions godoc
//
//	@Summary		My permissions
//	@Description	The caller's role and the permissions it grants. Non-members get 404.
//	@Tags			Membership
//	@Produce		json
//	@Param			id	path		string	true	"Organization ID"
//	@Success		200	{object}	appraisalsdk.Envelope[appraisalsdk.PermissionsResponse]
//	@Failure		404	{object}	appraisalsdk.ErrorResponse
//	@Security		BearerAuth
//	@Router			/organization/{id}/permissions [get].
func (h *MembershipHandler) HandlePermissions(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	perms, err := h.MembershipService.Permissions(ctx, actor(r), r.PathValue("id"))
	if err != nil {
		writeServiceError(ctx, w, err)
		return
	}

	httpx.WriteData(w, http.StatusOK, toPermissions(perms))
}

// HandleChangeRole godoc
//
//	@Summary		Change a member's role
//	@Description	Owner only. Moves a member between manager and appraiser.
//	@Tags			Membership
//	@Accept			json
//	@Produce		json
//	@Param			id		path		string							true	"Organization ID"
//	@Param			userId	path		string							true	"User ID"
//	@Param			request	body		appraisalsdk.ChangeRoleRequest	true	"New role"
//	@Success		200		{object}	appraisalsdk.Envelope[appraisalsdk.MemberResponse]
//	@Failure		400		{object}	appraisalsdk.ErrorResponse
//	@Failure		403		{object}	appraisalsdk.ErrorResponse
//	@Failure		404		{object}	appraisalsdk.ErrorResponse
//	@Security		BearerAuth
//	@Router			/organization/{id}/members/{userId} [patch].
func (h *MembershipHandler) HandleChangeRole(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var in service.ChangeRoleInput
	if err := httpx.DecodeJSON(w, r, &in); err != nil {
		writeBadJSON(w)
		return
	}

	m, err := h.MembershipService.ChangeMemberRole(ctx, actor(r), r.PathValue("id"), r.PathValue("userId"), in)
	if err != nil {
		writeServiceError(ctx, w, err)
		return
	}

	httpx.WriteData(w, http.StatusOK, toMember(m))
}

// HandleRemoveMember godoc
//
//	@Summary		Remove a member
//	@Description	The owner cannot be removed. Use leave to remove yourself.
//	@Tags			Membership
//	@Produce		json
//	@Param			id		path		string	true	"Organization ID"
//	@Param			userId	path		string	true	"User ID"
//	@Success		200		{object}	appraisalsdk.Envelope[appraisalsdk.StatusResponse]
//	@Failure		400		{object}	appraisalsdk.ErrorResponse
//	@Failure		403		{object}	appraisalsdk.ErrorResponse
//	@Failure		404		{object}	appraisalsdk.ErrorResponse
//	@Security		BearerAuth
//	@Router			/organization/{id}/members/{userId} [delete].
func (h *MembershipHandler) HandleRemoveMember(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	if err := h.MembershipService.RemoveMember(ctx, actor(r), r.PathValue("id"), r.PathValue("userId")); err != nil {
		writeServiceError(ctx, w, err)
		return
	}

	ok(w)
}
