package http

import (
	"net/http"

	"github.com/aussiebroadwan/appraisal/internal/appraisal/service"
	"github.com/aussiebroadwan/appraisal/pkg/httpx"
)

type ClientsHandler struct {
	ClientService *service.ClientService
}

// HandleList godoc
//
//	@Summary	List clients
//	@Tags		Clients
//	@Produce	json
//	@Param		id		path		string	true	"Organization ID"
//	@Param		limit	query		int		false	"Page size (default 50, max 200)"
//	@Param		offset	query		int		false	"Rows to skip"
//	@Success	200		{object}	appraisalsdk.Envelope[[]appraisalsdk.ClientResponse]
//	@Failure	400		{object}	appraisalsdk.ErrorResponse
//	@Failure	403		{object}	appraisalsdk.ErrorResponse
//	@Security	BearerAuth
//	@Router		/organization/{id}/clients [get].
func (h *ClientsHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	page, err := pageFromQuery(r)
	if err != nil {
		writeServiceError(ctx, w, err)
		return
	}

	clients, err := h.ClientService.List(ctx, actor(r), r.PathValue("id"), page)
	if err != nil {
		writeServiceError(ctx, w, err)
		return
	}

	httpx.WriteData(w, http.StatusOK, mapSlice(clients, toClient))
}

// HandleCreate godoc
//
//	@Summary	Create a client
//	@Tags		Clients
//	@Accept		json
//	@Produce	json
//	@Param		id		path		string						true	"Organization ID"
//	@Param		request	body		appraisalsdk.ClientRequest	true	"Client"
//	@Success	201		{object}	appraisalsdk.Envelope[appraisalsdk.ClientResponse]
//	@Failure	400		{object}	appraisalsdk.ErrorResponse
//	@Failure	403		{object}	appraisalsdk.ErrorResponse
//	@Security	BearerAuth
//	@Router		/organization/{id}/clients [post].
func (h *ClientsHandler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var in service.CreateClientInput
	if err := httpx.DecodeJSON(w, r, &in); err != nil {
		writeBadJSON(w)
		return
	}

	c, err := h.ClientService.Create(ctx, actor(r), r.PathValue("id"), in)
	if err != nil {
		writeServiceError(ctx, w, err)
		return
	}

	httpx.WriteData(w, http.StatusCreated, toClient(c))
}

// HandleGet godoc
//
//	@Summary	Get a client
//	@Tags		Clients
//	@Produce	json
//	@Param		id			path		string	true	"Organization ID"
//	@Param		clientId	path		string	true	"Client ID"
//	@Success	200			{object}	appraisalsdk.Envelope[appraisalsdk.ClientResponse]
//	@Failure	403			{object}	appraisalsdk.ErrorResponse
//	@Failure	404			{object}	appraisalsdk.ErrorResponse
//	@Security	BearerAuth
//	@Router		/organization/{id}/clients/{clientId} [get].
func (h *ClientsHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	c, err := h.ClientService.Get(ctx, actor(r), r.PathValue("id"), r.PathValue("clientId"))
	if err != nil {
		writeServiceError(ctx, w, err)
		return
	}

	httpx.WriteData(w, http.StatusOK, toClient(c))
}

// HandleUpdate godoc
//
//	@Summary	Update a client
//	@Tags		Clients
//	@Accept		json
//	@Produce	json
//	@Param		id			path		string								true	"Organization ID"
//	@Param		clientId	path		string								true	"Client ID"
//	@Param		request		body		appraisalsdk.UpdateClientRequest	true	"Changes"
//	@Success	200			{object}	appraisalsdk.Envelope[appraisalsdk.ClientResponse]
//	@Failure	400			{object}	appraisalsdk.ErrorResponse
//	@Failure	403			{object}	appraisalsdk.ErrorResponse
//	@Failure	404			{object}	appraisalsdk.ErrorResponse
//	@Security	BearerAuth
//	@Router		/organization/{id}/clients/{clientId} [patch].
func (h *ClientsHandler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var in service.UpdateClientInput
	if err := httpx.DecodeJSON(w, r, &in); err != nil {
		writeBadJSON(w)
		return
	}

	c, err := h.ClientService.Update(ctx, actor(r), r.PathValue("id"), r.PathValue("clientId"), in)
	if err != nil {
		writeServiceError(ctx, w, err)
		return
	}

	httpx.WriteData(w, http.StatusOK, toClient(c))
}
