package http

import (
	"net/http"

	"github.com/aussiebroadwan/appraisal/internal/appraisal/domain"
	"github.com/aussiebroadwan/appraisal/internal/appraisal/service"
	"github.com/aussiebroadwan/appraisal/pkg/httpx"
)

type OrdersHandler struct {
	OrderService *service.OrderService
}

// HandleList godoc
//
//	@Summary		List orders
//	@Description	Newest first, optionally narrowed by status, assignee or client.
//	@Tags			Orders
//	@Produce		json
//	@Param			id			path		string	true	"Organization ID"
//	@Param			status		query		string	false	"new, assigned, in_progress, review, completed or cancelled"
//	@Param			assigneeId	query		string	false	"Assigned user ID"
//	@Param			clientId	query		string	false	"Client ID"
//	@Param			limit		query		int		false	"Page size (default 50, max 200)"
//	@Param			offset		query		int		false	"Rows to skip"
//	@Success		200			{object}	appraisalsdk.Envelope[[]appraisalsdk.OrderResponse]
//	@Failure		400			{object}	appraisalsdk.ErrorResponse
//	@Failure		403			{object}	appraisalsdk.ErrorResponse
//	@Security		BearerAuth
//	@Router			/organization/{id}/orders [get].
func (h *OrdersHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	page, err := pageFromQuery(r)
	if err != nil {
		writeServiceError(ctx, w, err)
		return
	}

	q := r.URL.Query()
	in := service.ListOrdersInput{
		Page:       page,
		Status:     domain.OrderStatus(q.Get("status")),
		AssigneeID: q.Get("assigneeId"),
		ClientID:   q.Get("clientId"),
	}

	orders, err := h.OrderService.List(ctx, actor(r), r.PathValue("id"), in)
	if err != nil {
		writeServiceError(ctx, w, err)
		return
	}

	httpx.WriteData(w, http.StatusOK, mapSlice(orders, toOrder))
}

// HandleCreate godoc
//
//	@Summary		Create an order
//	@Description	The client and any assignee must belong to the same organization.
//	@Tags			Orders
//	@Accept			json
//	@Produce		json
//	@Param			id		path		string							true	"Organization ID"
//	@Param			request	body		appraisalsdk.CreateOrderRequest	true	"Order"
//	@Success		201		{object}	appraisalsdk.Envelope[appraisalsdk.OrderResponse]
//	@Failure		400		{object}	appraisalsdk.ErrorResponse
//	@Failure		403		{object}	appraisalsdk.ErrorResponse
//	@Security		BearerAuth
//	@Router			/organization/{id}/orders [post].
func (h *OrdersHandler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var in service.CreateOrderInput
	if err := httpx.DecodeJSON(w, r, &in); err != nil {
		writeBadJSON(w)
		return
	}

	o, err := h.OrderService.Create(ctx, actor(r), r.PathValue("id"), in)
	if err != nil {
		writeServiceError(ctx, w, err)
		return
	}

	httpx.WriteData(w, http.StatusCreated, toOrder(o))
}

// HandleGet godoc
//
//	@Summary	Get an order
//	@Tags		Orders
//	@Produce	json
//	@Param		id		path		string	true	"Organization ID"
//	@Param		orderId	path		string	true	"Order ID"
//	@Success	200		{object}	appraisalsdk.Envelope[appraisalsdk.OrderResponse]
//	@Failure	403		{object}	appraisalsdk.ErrorResponse
//	@Failure	404		{object}	appraisalsdk.ErrorResponse
//	@Security	BearerAuth
//	@Router		/organization/{id}/orders/{orderId} [get].
func (h *OrdersHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	o, err := h.OrderService.Get(ctx, actor(r), r.PathValue("id"), r.PathValue("orderId"))
	if err != nil {
		writeServiceError(ctx, w, err)
		return
	}

	httpx.WriteData(w, http.StatusOK, toOrder(o))
}

// HandleUpdate godoc
//
//	@Summary		Update an order
//	@Description	Omitted fields are left alone. An empty assigneeId or dueDate clears it.
//	@Tags			Orders
//	@Accept			json
//	@Produce		json
//	@Param			id		path		string							true	"Organization ID"
//	@Param			orderId	path		string							true	"Order ID"
//	@Param			request	body		appraisalsdk.UpdateOrderRequest	true	"Changes"
//	@Success		200		{object}	appraisalsdk.Envelope[appraisalsdk.OrderResponse]
//	@Failure		400		{object}	appraisalsdk.ErrorResponse
//	@Failure		403		{object}	appraisalsdk.ErrorResponse
//	@Failure		404		{object}	appraisalsdk.ErrorResponse
//	@Security		BearerAuth
//	@Router			/organization/{id}/orders/{orderId} [patch].
func (h *OrdersHandler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var in service.UpdateOrderInput
	if err := httpx.DecodeJSON(w, r, &in); err != nil {
		writeBadJSON(w)
		return
	}

	o, err := h.OrderService.Update(ctx, actor(r), r.PathValue("id"), r.PathValue("orderId"), in)
	if err != nil {
		writeServiceError(ctx, w, err)
		return
	}

	httpx.WriteData(w, http.StatusOK, toOrder(o))
}
