package http

import (
	"net/http"

	"github.com/aussiebroadwan/appraisal/internal/appraisal/service"
	"github.com/aussiebroadwan/appraisal/pkg/httpx"
)

type OrganizationHandler struct {
	OrganizationService *service.OrganizationService
}

// HandleList godoc
//
//	@Summary		List my organizations
//	@Description	Every organization the caller belongs to, with their role in each.
//	@Tags			Organizations
//	@Produce		json
//	@Success		200	{object}	appraisalsdk.Envelope[[]appraisalsdk.MembershipResponse]
//	@Failure		401	{object}	appraisalsdk.ErrorResponse
//	@Security		BearerAuth
//	@Router			/organization [get].
func (h *OrganizationHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	list, err := h.OrganizationService.List(ctx, actor(r))
	if err != nil {
		writeServiceError(ctx, w, err)
		return
	}

	httpx.WriteData(w, http.StatusOK, mapSlice(list, toMembership))
}

// HandleCreate godoc
//
//	@Summary		Create an organization
//	@Description	Creates an organization with the caller as its owner.
//	@Tags			Organizations
//	@Accept			json
//	@Produce		json
//	@Param			request	body		appraisalsdk.CreateOrganizationRequest	true	"Organization"
//	@Success		201		{object}	appraisalsdk.Envelope[appraisalsdk.MembershipResponse]
//	@Failure		400		{object}	appraisalsdk.ErrorResponse
//	@Failure		401		{object}	appraisalsdk.ErrorResponse
//	@Security		BearerAuth
//	@Router			/organization [post].
func (h *OrganizationHandler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var in service.CreateOrganizationInput
	if err := httpx.DecodeJSON(w, r, &in); err != nil {
		writeBadJSON(w)
		return
	}

	m, err := h.OrganizationService.Create(ctx, actor(r), in)
	if err != nil {
		writeServiceError(ctx, w, err)
		return
	}

	httpx.WriteData(w, http.StatusCreated, toMembership(m))
}

// HandleGet godoc
//
//	@Summary	Get an organization
//	@Tags		Organizations
//	@Produce	json
//	@Param		id	path		string	true	"Organization ID"
//	@Success	200	{object}	appraisalsdk.Envelope[appraisalsdk.OrganizationResponse]
//	@Failure	403	{object}	appraisalsdk.ErrorResponse
//	@Failure	404	{object}	appraisalsdk.ErrorResponse
//	@Security	BearerAuth
//	@Router		/organization/{id} [get].
func (h *OrganizationHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	org, err := h.OrganizationService.Get(ctx, actor(r), r.PathValue("id"))
	if err != nil {
		writeServiceError(ctx, w, err)
		return
	}

	httpx.WriteData(w, http.StatusOK, toOrganization(org))
}

// HandleUpdate godoc
//
//	@Summary		Update an organization
//	@Description	Changes the name or avatar. Omitted fields are left alone.
//	@Tags			Organizations
//	@Accept			json
//	@Produce		json
//	@Param			id		path		string									true	"Organization ID"
//	@Param			request	body		appraisalsdk.UpdateOrganizationRequest	true	"Changes"
//	@Success		200		{object}	appraisalsdk.Envelope[appraisalsdk.OrganizationResponse]
//	@Failure		400		{object}	appraisalsdk.ErrorResponse
//	@Failure		403		{object}	appraisalsdk.ErrorResponse
//	@Failure		404		{object}	appraisalsdk.ErrorResponse
//	@Security		BearerAuth
//	@Router			/organization/{id} [patch].
func (h *OrganizationHandler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var in service.UpdateOrganizationInput
	if err := httpx.DecodeJSON(w, r, &in); err != nil {
		writeBadJSON(w)
		return
	}

	org, err := h.OrganizationService.Update(ctx, actor(r), r.PathValue("id"), in)
	if err != nil {
		writeServiceError(ctx, w, err)
		return
	}

	httpx.WriteData(w, http.StatusOK, toOrganization(org))
}

// HandleDelete godoc
//
//	@Summary		Delete an organization
//	@Description	Removes the organization with its members, invitations, clients and orders.
//	@Tags			Organizations
//	@Produce		json
//	@Param			id	path		string	true	"Organization ID"
//	@Success		200	{object}	appraisalsdk.Envelope[appraisalsdk.StatusResponse]
//	@Failure		403	{object}	appraisalsdk.ErrorResponse
//	@Failure		404	{object}	appraisalsdk.ErrorResponse
//	@Security		BearerAuth
//	@Router			/organization/{id} [delete].
func (h *OrganizationHandler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	if err := h.OrganizationService.Delete(ctx, actor(r), r.PathValue("id")); err != nil {
		writeServiceError(ctx, w, err)
		return
	}

	ok(w)
}

// HandleListMembers godoc
//
//	@Summary	List members
//	@Tags		Organizations
//	@Produce	json
//	@Param		id	path		string	true	"Organization ID"
//	@Success	200	{object}	appraisalsdk.Envelope[[]appraisalsdk.MemberResponse]
//	@Failure	403	{object}	appraisalsdk.ErrorResponse
//	@Failure	404	{object}	appraisalsdk.ErrorResponse
//	@Security	BearerAuth
//	@Router		/organization/{id}/members [get].
func (h *OrganizationHandler) HandleListMembers(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	members, err := h.OrganizationService.ListMembers(ctx, actor(r), r.PathValue("id"))
	if err != nil {
		writeServiceError(ctx, w, err)
		return
	}

	httpx.WriteData(w, http.StatusOK, mapSlice(members, toMemberProfile))
}

// HandleListInvitations godoc
//
//	@Summary		List invitations
//	@Description	Newest first. Status is derived at read time (pending, consumed, expired).
//	@Tags			Organizations
//	@Produce		json
//	@Param			id	path		string	true	"Organization ID"
//	@Success		200	{object}	appraisalsdk.Envelope[[]appraisalsdk.InvitationResponse]
//	@Failure		403	{object}	appraisalsdk.ErrorResponse
//	@Failure		404	{object}	appraisalsdk.ErrorResponse
//	@Security		BearerAuth
//	@Router			/organization/{id}/invitations [get].
func (h *OrganizationHandler) HandleListInvitations(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	invs, err := h.OrganizationService.ListInvitations(ctx, actor(r), r.PathValue("id"))
	if err != nil {
		writeServiceError(ctx, w, err)
		return
	}

	httpx.WriteData(w, http.StatusOK, mapSlice(invs, toInvitationView))
}
