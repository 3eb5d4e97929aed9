package http

import (
	"net/http"

	"github.com/aussiebroadwan/appraisal/internal/appraisal/service"
	"github.com/aussiebroadwan/appraisal/pkg/httpx"
)

type MeHandler struct {
	UserService *service.UserService
}

// HandleGet godoc
//
//	@Summary	Current user
//	@Tags		Users
//	@Produce	json
//	@Success	200	{object}	appraisalsdk.Envelope[appraisalsdk.UserResponse]
//	@Failure	401	{object}	appraisalsdk.ErrorResponse
//	@Security	BearerAuth
//	@Router		/me [get].
func (h *MeHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	u, err := h.UserService.Get(ctx, actor(r).UserID)
	if err != nil {
		writeServiceError(ctx, w, err)
		return
	}

	httpx.WriteData(w, http.StatusOK, toUser(u))
}

// HandleUpdate godoc
//
//	@Summary		Update my profile
//	@Description	Phone numbers use E.164 format. An empty string clears the phone.
//	@Tags			Users
//	@Accept			json
//	@Produce		json
//	@Param			request	body		appraisalsdk.UpdateProfileRequest	true	"Changes"
//	@Success		200		{object}	appraisalsdk.Envelope[appraisalsdk.UserResponse]
//	@Failure		400		{object}	appraisalsdk.ErrorResponse
//	@Failure		401		{object}	appraisalsdk.ErrorResponse
//	@Security		BearerAuth
//	@Router			/me [patch].
func (h *MeHandler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var in service.UpdateProfileInput
	if err := httpx.DecodeJSON(w, r, &in); err != nil {
		writeBadJSON(w)
		return
	}

	u, err := h.UserService.UpdateProfile(ctx, actor(r).UserID, in)
	if err != nil {
		writeServiceError(ctx, w, err)
		return
	}

	httpx.WriteData(w, http.StatusOK, toUser(u))
}
